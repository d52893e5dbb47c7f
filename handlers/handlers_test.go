package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"clipsmart/cookies"
	apperrors "clipsmart/errors"
	"clipsmart/models"
	"clipsmart/pipeline"
)

type fakeClipService struct {
	runErr error
	runs   map[string]*models.Run
}

func (f *fakeClipService) Run(_ context.Context, req models.MergeRequest) (*models.MergeResponse, error) {
	if f.runErr != nil {
		return nil, f.runErr
	}
	return &models.MergeResponse{
		Message:   "Clips merged and uploaded successfully",
		RunID:     "run-1",
		S3URL:     "https://storage.example.com/merged_run.mp4?signed",
		ObjectKey: "merged_run.mp4",
		ClipsInfo: req.Clips,
		Success:   true,
	}, nil
}

func (f *fakeClipService) GetRun(_ context.Context, id string) (*models.Run, error) {
	run, ok := f.runs[id]
	if !ok {
		return nil, apperrors.NotFound("fakeClipService.GetRun", nil, "run not found")
	}
	return run, nil
}

type fakeTranscriptService struct {
	segments []models.TranscriptSegment
	err      error
}

func (f *fakeTranscriptService) Get(context.Context, string) ([]models.TranscriptSegment, error) {
	return f.segments, f.err
}

type fakeDownloadsService struct {
	removed int
	freed   int64
	mp4Only bool
	dryRun  bool
}

func (f *fakeDownloadsService) CleanupDownloads(mp4Only, dryRun bool) (int, int64, error) {
	f.mp4Only, f.dryRun = mp4Only, dryRun
	return f.removed, f.freed, nil
}

func (f *fakeDownloadsService) DownloadsStatus() (*pipeline.DownloadsStatus, error) {
	return &pipeline.DownloadsStatus{
		Files:     []pipeline.DownloadFile{{Name: "vid.mp4", Size: "2.0 KB"}},
		TotalSize: "2.0 KB",
		FreeSpace: "10.0 GB",
	}, nil
}

type fakeCookieProvider struct {
	installed []byte
	err       error
}

func (f *fakeCookieProvider) Install(data []byte) error {
	if f.err != nil {
		return f.err
	}
	f.installed = data
	return nil
}

func (f *fakeCookieProvider) Status(context.Context) cookies.Status {
	return cookies.Status{HasCookies: true, ValidFormat: true}
}

func newTestApp() *fiber.App {
	return fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
}

func readJSON(t *testing.T, r io.Reader) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	if err := json.NewDecoder(r).Decode(&body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	return body
}

func TestHealthHandler(t *testing.T) {
	app := newTestApp()
	app.Get("/health", HealthHandler)

	resp, err := app.Test(httptest.NewRequest("GET", "/health", nil))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Errorf("status = %d, want %d", resp.StatusCode, fiber.StatusOK)
	}

	body := readJSON(t, resp.Body)
	if body["status"] != "ok" {
		t.Errorf("status field = %v", body["status"])
	}
	if _, err := time.Parse(time.RFC3339, body["timestamp"].(string)); err != nil {
		t.Errorf("invalid timestamp: %v", err)
	}
}

func TestMergeSuccess(t *testing.T) {
	app := newTestApp()
	app.Post("/api/clips/merge", NewClipHandler(&fakeClipService{}).Merge)

	payload := `{"clips":[{"videoId":"abc","startTime":0,"endTime":5}]}`
	req := httptest.NewRequest("POST", "/api/clips/merge", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	body := readJSON(t, resp.Body)
	if body["success"] != true {
		t.Errorf("success = %v", body["success"])
	}
	if body["runId"] != "run-1" || body["objectKey"] != "merged_run.mp4" {
		t.Errorf("body = %v", body)
	}
}

func TestMergeInvalidJSON(t *testing.T) {
	app := newTestApp()
	app.Post("/api/clips/merge", NewClipHandler(&fakeClipService{}).Merge)

	req := httptest.NewRequest("POST", "/api/clips/merge", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestMergeErrorCarriesClassAndSuggestion(t *testing.T) {
	service := &fakeClipService{
		runErr: apperrors.AcquisitionFailed("test", nil, "all download strategies failed"),
	}
	app := newTestApp()
	app.Post("/api/clips/merge", NewClipHandler(service).Merge)

	payload := `{"clips":[{"videoId":"abc","startTime":0,"endTime":5}]}`
	req := httptest.NewRequest("POST", "/api/clips/merge", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusBadGateway {
		t.Errorf("status = %d, want 502", resp.StatusCode)
	}

	body := readJSON(t, resp.Body)
	if body["success"] != false {
		t.Errorf("success = %v", body["success"])
	}
	if body["errorClass"] != string(apperrors.ClassAcquisitionFailed) {
		t.Errorf("errorClass = %v", body["errorClass"])
	}
	if body["suggestion"] == nil || body["suggestion"] == "" {
		t.Error("suggestion missing from error response")
	}
}

func TestGetRun(t *testing.T) {
	service := &fakeClipService{runs: map[string]*models.Run{
		"run-1": {ID: "run-1", Status: models.StatusCompleted, ObjectKey: "merged_x.mp4", ClipCount: 2},
	}}
	app := newTestApp()
	app.Get("/api/clips/runs/:id", NewClipHandler(service).GetRun)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/clips/runs/run-1", nil))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	body := readJSON(t, resp.Body)
	data := body["data"].(map[string]interface{})
	if data["status"] != string(models.StatusCompleted) {
		t.Errorf("run status = %v", data["status"])
	}
}

func TestGetRunNotFound(t *testing.T) {
	app := newTestApp()
	app.Get("/api/clips/runs/:id", NewClipHandler(&fakeClipService{runs: map[string]*models.Run{}}).GetRun)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/clips/runs/missing", nil))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

func TestGetTranscript(t *testing.T) {
	start, end, dur := 0.0, 2.5, 2.5
	service := &fakeTranscriptService{segments: []models.TranscriptSegment{
		{ID: 1, Text: "hello", StartTime: &start, EndTime: &end, Duration: &dur},
	}}
	app := newTestApp()
	app.Get("/api/transcript/:videoId", NewTranscriptHandler(service).Get)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/transcript/abc123", nil))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	body := readJSON(t, resp.Body)
	if body["totalSegments"] != float64(1) {
		t.Errorf("totalSegments = %v", body["totalSegments"])
	}
}

func TestGetTranscriptNotFound(t *testing.T) {
	service := &fakeTranscriptService{
		err: apperrors.NotFound("test", nil, "no transcript found for this video"),
	}
	app := newTestApp()
	app.Get("/api/transcript/:videoId", NewTranscriptHandler(service).Get)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/transcript/abc123", nil))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

func TestCookieUpload(t *testing.T) {
	provider := &fakeCookieProvider{}
	app := newTestApp()
	app.Post("/api/cookies", NewCookieHandler(provider).Upload)

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("cookiesFile", "cookies.txt")
	if err != nil {
		t.Fatal(err)
	}
	part.Write([]byte("# Netscape HTTP Cookie File\n.youtube.com\tTRUE\t/\tTRUE\t0\tSID\tabc\n"))
	writer.Close()

	req := httptest.NewRequest("POST", "/api/cookies", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if len(provider.installed) == 0 {
		t.Error("provider did not receive the uploaded jar")
	}
}

func TestCookieUploadMissingFile(t *testing.T) {
	app := newTestApp()
	app.Post("/api/cookies", NewCookieHandler(&fakeCookieProvider{}).Upload)

	resp, err := app.Test(httptest.NewRequest("POST", "/api/cookies", nil))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestDownloadsCleanup(t *testing.T) {
	service := &fakeDownloadsService{removed: 3, freed: 3 * 1024}
	app := newTestApp()
	app.Post("/api/downloads/cleanup", NewDownloadsHandler(service).Cleanup)

	req := httptest.NewRequest("POST", "/api/downloads/cleanup",
		strings.NewReader(`{"mode":"mp4only","dryRun":true}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if !service.mp4Only || !service.dryRun {
		t.Errorf("options not forwarded: mp4Only=%v dryRun=%v", service.mp4Only, service.dryRun)
	}

	body := readJSON(t, resp.Body)
	if body["removed"] != float64(3) || body["freed"] != "3.0 KB" {
		t.Errorf("body = %v", body)
	}
}

func TestDownloadsCleanupBadMode(t *testing.T) {
	app := newTestApp()
	app.Post("/api/downloads/cleanup", NewDownloadsHandler(&fakeDownloadsService{}).Cleanup)

	req := httptest.NewRequest("POST", "/api/downloads/cleanup", strings.NewReader(`{"mode":"everything"}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestDownloadsStatus(t *testing.T) {
	app := newTestApp()
	app.Get("/api/downloads/status", NewDownloadsHandler(&fakeDownloadsService{}).Status)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/downloads/status", nil))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	body := readJSON(t, resp.Body)
	data := body["data"].(map[string]interface{})
	if data["totalSize"] != "2.0 KB" {
		t.Errorf("data = %v", data)
	}
}

func TestCookieStatus(t *testing.T) {
	app := newTestApp()
	app.Get("/api/cookies/status", NewCookieHandler(&fakeCookieProvider{}).Status)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/cookies/status", nil))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	body := readJSON(t, resp.Body)
	data := body["data"].(map[string]interface{})
	if data["has_cookies"] != true {
		t.Errorf("data = %v", data)
	}
}
