package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/etag"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	fiberLogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/middleware/timeout"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"clipsmart/config"
	"clipsmart/cookies"
	"clipsmart/download"
	"clipsmart/handlers"
	"clipsmart/logger"
	"clipsmart/media"
	"clipsmart/pipeline"
	"clipsmart/repository/sqlite"
	"clipsmart/retry"
	"clipsmart/services/transcript"
	"clipsmart/storage"
	"clipsmart/validation"
)

const cookieCheckTimeout = 30 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appLogger, err := logger.New(cfg.LogDir, cfg.Debug)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	requestLogConfig, err := logger.NewRequestLogger(cfg.LogDir)
	if err != nil {
		log.Fatalf("Failed to initialize request logger: %v", err)
	}

	db, err := sqlite.InitDB(cfg.Database.Path, cfg.Database.MaxConnections)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	repo := sqlite.NewRepository(db)

	cookieProvider := cookies.NewFileProvider(
		cfg.CookiesFile,
		cfg.Download.YtDlpPath,
		cookieCheckTimeout,
		nil,
		appLogger,
	)

	runner := media.NewExecRunner(cfg.FFmpeg, appLogger)
	mediaValidator := media.NewValidator(runner, cfg.FFmpeg.MinFileSize)
	trimmer := media.NewTrimmer(runner, mediaValidator, cfg.FFmpeg, appLogger)
	assembler := media.NewAssembler(runner, mediaValidator, cfg.FFmpeg, appLogger)

	downloadPolicy := retry.Policy{
		MaxAttempts: cfg.Download.MaxAttempts,
		BaseDelay:   cfg.Download.BaseDelay,
		MaxDelay:    cfg.Download.MaxDelay,
	}
	acquirer := download.NewAcquirer(
		[]download.Strategy{
			download.NewYtDlpStrategy(cfg.Download, cookieProvider, true),
			download.NewYtDlpStrategy(cfg.Download, cookieProvider, false),
			download.NewRelayStrategy(cfg.Download),
		},
		mediaValidator,
		rate.NewLimiter(rate.Every(cfg.Download.RequestInterval), 1),
		downloadPolicy,
		appLogger,
	)

	store, err := storage.NewS3Client(cfg.S3)
	if err != nil {
		log.Fatalf("Failed to initialize object storage: %v", err)
	}
	publisher := storage.NewPublisher(store, retry.DefaultPolicy(), cfg.S3.PresignTTL, appLogger)

	validator := validation.NewValidator(cfg)

	pipelineService := pipeline.NewService(
		validator,
		acquirer,
		trimmer,
		assembler,
		publisher,
		repo,
		cookieProvider,
		cfg.DownloadDir,
		cfg.TempDir,
		cfg.Pipeline,
		appLogger,
	)

	transcriptService := transcript.NewService(repo, cfg.Transcript, appLogger)

	app := fiber.New(fiber.Config{
		ReadTimeout:           cfg.ReadTimeout,
		WriteTimeout:          cfg.WriteTimeout,
		IdleTimeout:           cfg.IdleTimeout,
		ErrorHandler:          handlers.ErrorHandler,
		DisableStartupMessage: !cfg.Debug,
		StrictRouting:         true,
		CaseSensitive:         true,
		AppName:               "clipsmart " + cfg.Version,
	})

	setupMiddleware(app, cfg, requestLogConfig)
	setupRoutes(app, pipelineService, transcriptService, cookieProvider)

	shutdownChan := make(chan os.Signal, 1)
	signal.Notify(shutdownChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-shutdownChan
		appLogger.Info().Msg("Shutting down server")

		ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		if err := app.ShutdownWithContext(ctx); err != nil {
			appLogger.Error().Err(err).Msg("Server shutdown error")
		}
	}()

	serverAddr := ":" + cfg.ServerPort
	if cfg.Debug {
		appLogger.Info().Str("addr", serverAddr).Msg("Server starting")
	}

	if err := app.Listen(serverAddr); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}
}

func setupMiddleware(app *fiber.App, cfg *config.Config, requestLogConfig *fiberLogger.Config) {
	if cfg.Middleware.EnableRecover {
		app.Use(recover.New(recover.Config{
			EnableStackTrace: cfg.Debug,
		}))
	}

	if cfg.Middleware.EnableRequestID {
		app.Use(requestid.New(requestid.Config{
			Header: "X-Request-ID",
			Generator: func() string {
				return uuid.New().String()
			},
		}))
	}

	if cfg.Middleware.EnableLogger {
		app.Use(fiberLogger.New(*requestLogConfig))
	}

	if cfg.Middleware.EnableTimeout {
		app.Use(timeout.New(func(c *fiber.Ctx) error {
			return c.Next()
		}, cfg.RequestTimeout))
	}

	if cfg.Middleware.EnableCORS {
		app.Use(cors.New(cors.Config{
			AllowOrigins:     strings.Join(cfg.CORS.AllowedOrigins, ","),
			AllowMethods:     strings.Join(cfg.CORS.AllowedMethods, ","),
			AllowHeaders:     strings.Join(cfg.CORS.AllowedHeaders, ","),
			ExposeHeaders:    strings.Join(cfg.CORS.ExposedHeaders, ","),
			AllowCredentials: cfg.CORS.AllowCredentials,
			MaxAge:           cfg.CORS.MaxAge,
		}))
	}

	if cfg.Middleware.EnableRateLimit && cfg.RateLimit.Enabled {
		app.Use(limiter.New(limiter.Config{
			Max:        cfg.RateLimit.RequestsPerMinute,
			Expiration: time.Minute,
			KeyGenerator: func(c *fiber.Ctx) string {
				return c.IP()
			},
			LimitReached: func(c *fiber.Ctx) error {
				return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
					"error": "Rate limit exceeded",
				})
			},
		}))
	}

	if cfg.Middleware.EnableCompress {
		app.Use(compress.New(compress.Config{
			Level: compress.LevelDefault,
		}))
	}

	if cfg.Middleware.EnableETag {
		app.Use(etag.New())
	}
}

func setupRoutes(
	app *fiber.App,
	pipelineService *pipeline.Service,
	transcriptService *transcript.Service,
	cookieProvider *cookies.FileProvider,
) {
	clipHandler := handlers.NewClipHandler(pipelineService)
	transcriptHandler := handlers.NewTranscriptHandler(transcriptService)
	cookieHandler := handlers.NewCookieHandler(cookieProvider)
	downloadsHandler := handlers.NewDownloadsHandler(pipelineService)

	app.Post("/api/clips/merge", clipHandler.Merge)
	app.Get("/api/clips/runs/:id", clipHandler.GetRun)

	app.Get("/api/transcript/:videoId", transcriptHandler.Get)

	app.Post("/api/cookies", cookieHandler.Upload)
	app.Get("/api/cookies/status", cookieHandler.Status)

	app.Post("/api/downloads/cleanup", downloadsHandler.Cleanup)
	app.Get("/api/downloads/status", downloadsHandler.Status)

	app.Get("/health", handlers.HealthHandler)
}
