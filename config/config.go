package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// Server settings
	ServerPort   string        `json:"server_port"`
	ReadTimeout  time.Duration `json:"read_timeout"`
	WriteTimeout time.Duration `json:"write_timeout"`
	IdleTimeout  time.Duration `json:"idle_timeout"`
	Debug        bool          `json:"debug"`

	// Application paths
	LogDir      string `json:"log_dir"`
	DownloadDir string `json:"download_dir"`
	TempDir     string `json:"temp_dir"`
	CookiesFile string `json:"cookies_file"`

	// Middleware settings
	Middleware MiddlewareConfig `json:"middleware"`

	// CORS Configuration
	CORS CORSConfig `json:"cors"`

	// Rate Limiting
	RateLimit RateLimitConfig `json:"rate_limit"`

	// Database settings
	Database DatabaseConfig `json:"database"`

	// Object storage
	S3 S3Config `json:"s3"`

	// Media tooling
	FFmpeg FFmpegConfig `json:"ffmpeg"`

	// Source acquisition
	Download DownloadConfig `json:"download"`

	// Pipeline settings
	Pipeline PipelineConfig `json:"pipeline"`

	// Transcript API
	Transcript TranscriptConfig `json:"transcript"`

	// Application version
	Version string `json:"version"`

	// Request and shutdown timeouts
	RequestTimeout  time.Duration `json:"request_timeout"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout"`
}

type MiddlewareConfig struct {
	EnableRecover   bool `json:"enable_recover"`
	EnableRequestID bool `json:"enable_request_id"`
	EnableLogger    bool `json:"enable_logger"`
	EnableTimeout   bool `json:"enable_timeout"`
	EnableCORS      bool `json:"enable_cors"`
	EnableRateLimit bool `json:"enable_rate_limit"`
	EnableCompress  bool `json:"enable_compress"`
	EnableETag      bool `json:"enable_etag"`
}

type DatabaseConfig struct {
	Path           string `json:"path"`
	MaxConnections int    `json:"max_connections"`
}

type CORSConfig struct {
	AllowedOrigins   []string `json:"allowed_origins"`
	AllowedMethods   []string `json:"allowed_methods"`
	AllowedHeaders   []string `json:"allowed_headers"`
	ExposedHeaders   []string `json:"exposed_headers"`
	AllowCredentials bool     `json:"allow_credentials"`
	MaxAge           int      `json:"max_age"`
}

type RateLimitConfig struct {
	Enabled           bool `json:"enabled"`
	RequestsPerMinute int  `json:"requests_per_minute"`
}

type S3Config struct {
	Region     string        `json:"region"`
	Endpoint   string        `json:"endpoint"`
	AccessKey  string        `json:"-"`
	SecretKey  string        `json:"-"`
	Bucket     string        `json:"bucket"`
	PresignTTL time.Duration `json:"presign_ttl"`
}

type FFmpegConfig struct {
	FFmpegPath   string        `json:"ffmpeg_path"`
	FFprobePath  string        `json:"ffprobe_path"`
	ProbeTimeout time.Duration `json:"probe_timeout"`
	TrimTimeout  time.Duration `json:"trim_timeout"`
	MergeTimeout time.Duration `json:"merge_timeout"`
	// MinFileSize is the floor below which an output is considered corrupt.
	MinFileSize int64 `json:"min_file_size"`
	// DurationTolerance is how far a trimmed segment may drift from the
	// requested range before a warning is logged.
	DurationTolerance float64 `json:"duration_tolerance"`
}

type DownloadConfig struct {
	YtDlpPath       string        `json:"yt_dlp_path"`
	Timeout         time.Duration `json:"timeout"`
	MaxAttempts     int           `json:"max_attempts"`
	BaseDelay       time.Duration `json:"base_delay"`
	MaxDelay        time.Duration `json:"max_delay"`
	RequestInterval time.Duration `json:"request_interval"`
	RelayAPIURL     string        `json:"relay_api_url"`
	RelayAPIKey     string        `json:"-"`
	RelayAPIHost    string        `json:"relay_api_host"`
	MaxHeight       int           `json:"max_height"`
	// Proxies is an optional list of forward proxy URLs; download
	// traffic rotates across them. May carry credentials, so never
	// serialized.
	Proxies []string `json:"-"`
}

type PipelineConfig struct {
	RunTimeout   time.Duration `json:"run_timeout"`
	MaxClips     int           `json:"max_clips"`
	MaxClipSpan  float64       `json:"max_clip_span"`
	// MinFreeBytes is the free-space precondition checked before a run.
	MinFreeBytes uint64 `json:"min_free_bytes"`
}

type TranscriptConfig struct {
	APIURL  string        `json:"api_url"`
	APIKey  string        `json:"-"`
	Timeout time.Duration `json:"timeout"`
}

// Default configurations
func defaultDevConfig() MiddlewareConfig {
	return MiddlewareConfig{
		EnableRecover:   true,
		EnableRequestID: true,
		EnableLogger:    true,
		EnableTimeout:   false, // Disabled for easier debugging
		EnableCORS:      true,
		EnableRateLimit: false, // Disabled for testing
		EnableCompress:  false,
		EnableETag:      false,
	}
}

func defaultProdConfig() MiddlewareConfig {
	return MiddlewareConfig{
		EnableRecover:   true,
		EnableRequestID: true,
		EnableLogger:    true,
		EnableTimeout:   true,
		EnableCORS:      true,
		EnableRateLimit: true,
		EnableCompress:  true,
		EnableETag:      true,
	}
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	baseDir := getEnv("BASE_DIR", "/app")
	if _, err := os.Stat(baseDir); err != nil {
		wd, _ := os.Getwd()
		baseDir = wd
	}

	cfg := &Config{
		// Server settings
		ServerPort:   getEnv("SERVER_PORT", "8000"),
		ReadTimeout:  getEnvAsDuration("READ_TIMEOUT", 15*time.Second),
		WriteTimeout: getEnvAsDuration("WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:  getEnvAsDuration("IDLE_TIMEOUT", 60*time.Second),
		Debug:        getEnvAsBool("DEBUG", false),

		// Application paths
		LogDir:      getEnv("LOG_DIR", filepath.Join(baseDir, "logs")),
		DownloadDir: getEnv("DOWNLOAD_DIR", filepath.Join(baseDir, "Download")),
		TempDir:     getEnv("TEMP_DIR", filepath.Join(baseDir, "tmp")),
		CookiesFile: getEnv("COOKIES_FILE", filepath.Join(baseDir, "youtube_cookies.txt")),

		// Application version
		Version: getEnv("VERSION", "1.0.0"),

		// Request and shutdown timeouts
		RequestTimeout:  getEnvAsDuration("REQUEST_TIMEOUT", 30*time.Minute),
		ShutdownTimeout: getEnvAsDuration("SHUTDOWN_TIMEOUT", 30*time.Second),

		// CORS Configuration
		CORS: CORSConfig{
			AllowedOrigins: getEnvAsStringSlice("CORS_ALLOWED_ORIGINS", []string{"*"}),
			AllowedMethods: getEnvAsStringSlice(
				"CORS_ALLOWED_METHODS",
				[]string{"GET", "POST", "OPTIONS"},
			),
			AllowedHeaders:   getEnvAsStringSlice("CORS_ALLOWED_HEADERS", []string{"Content-Type", "Authorization"}),
			ExposedHeaders:   getEnvAsStringSlice("CORS_EXPOSED_HEADERS", []string{}),
			AllowCredentials: getEnvAsBool("CORS_ALLOW_CREDENTIALS", false),
			MaxAge:           getEnvAsInt("CORS_MAX_AGE", 3600),
		},

		// Rate Limiting
		RateLimit: RateLimitConfig{
			Enabled:           getEnvAsBool("RATE_LIMIT_ENABLED", true),
			RequestsPerMinute: getEnvAsInt("RATE_LIMIT_RPM", 60),
		},

		// Database
		Database: DatabaseConfig{
			Path:           getEnv("DB_PATH", filepath.Join(baseDir, "data", "clipsmart.db")),
			MaxConnections: getEnvAsInt("DB_MAX_CONNECTIONS", 10),
		},

		// Object storage
		S3: S3Config{
			Region:     getEnv("AWS_REGION", "us-east-1"),
			Endpoint:   getEnv("AWS_S3_ENDPOINT", ""),
			AccessKey:  getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretKey:  getEnv("AWS_SECRET_ACCESS_KEY", ""),
			Bucket:     getEnv("AWS_S3_BUCKET", "clipsmart"),
			PresignTTL: getEnvAsDuration("S3_PRESIGN_TTL", 7*24*time.Hour),
		},

		// Media tooling
		FFmpeg: FFmpegConfig{
			FFmpegPath:        getEnv("FFMPEG_PATH", "ffmpeg"),
			FFprobePath:       getEnv("FFPROBE_PATH", "ffprobe"),
			ProbeTimeout:      getEnvAsDuration("FFPROBE_TIMEOUT", 30*time.Second),
			TrimTimeout:       getEnvAsDuration("FFMPEG_TRIM_TIMEOUT", 10*time.Minute),
			MergeTimeout:      getEnvAsDuration("FFMPEG_MERGE_TIMEOUT", 20*time.Minute),
			MinFileSize:       getEnvAsInt64("MEDIA_MIN_FILE_SIZE", 1024),
			DurationTolerance: getEnvAsFloat("TRIM_DURATION_TOLERANCE", 2.0),
		},

		// Source acquisition
		Download: DownloadConfig{
			YtDlpPath:       getEnv("YT_DLP_PATH", "yt-dlp"),
			Timeout:         getEnvAsDuration("DOWNLOAD_TIMEOUT", 15*time.Minute),
			MaxAttempts:     getEnvAsInt("DOWNLOAD_MAX_ATTEMPTS", 3),
			BaseDelay:       getEnvAsDuration("DOWNLOAD_BASE_DELAY", 2*time.Second),
			MaxDelay:        getEnvAsDuration("DOWNLOAD_MAX_DELAY", 30*time.Second),
			RequestInterval: getEnvAsDuration("DOWNLOAD_REQUEST_INTERVAL", time.Second),
			RelayAPIURL:     getEnv("RELAY_API_URL", "https://ytstream-download-youtube-videos.p.rapidapi.com/dl"),
			RelayAPIKey:     getEnv("RAPIDAPI_KEY", ""),
			RelayAPIHost:    getEnv("RELAY_API_HOST", "ytstream-download-youtube-videos.p.rapidapi.com"),
			MaxHeight:       getEnvAsInt("DOWNLOAD_MAX_HEIGHT", 720),
			Proxies:         getEnvAsStringSlice("DOWNLOAD_PROXIES", []string{}),
		},

		// Pipeline
		Pipeline: PipelineConfig{
			RunTimeout:   getEnvAsDuration("PIPELINE_RUN_TIMEOUT", 30*time.Minute),
			MaxClips:     getEnvAsInt("PIPELINE_MAX_CLIPS", 50),
			MaxClipSpan:  getEnvAsFloat("PIPELINE_MAX_CLIP_SPAN", 3600),
			MinFreeBytes: uint64(getEnvAsInt64("PIPELINE_MIN_FREE_BYTES", 500*1024*1024)),
		},

		// Transcript API
		Transcript: TranscriptConfig{
			APIURL:  getEnv("TRANSCRIPT_API_URL", "https://api.scrapingdog.com/youtube/transcripts/"),
			APIKey:  getEnv("SCRAPINGDOG_API_KEY", ""),
			Timeout: getEnvAsDuration("TRANSCRIPT_TIMEOUT", 30*time.Second),
		},

		// Middleware
		Middleware: defaultDevConfig(),
	}

	if os.Getenv("ENV") == "production" {
		cfg.Middleware = defaultProdConfig()
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if err := validatePaths(c); err != nil {
		return err
	}

	if err := validateTimeouts(c); err != nil {
		return err
	}

	if err := validatePipeline(c); err != nil {
		return err
	}

	return nil
}

func validatePaths(c *Config) error {
	paths := []struct {
		path string
		name string
	}{
		{c.LogDir, "log directory"},
		{c.DownloadDir, "download directory"},
		{c.TempDir, "temp directory"},
		{filepath.Dir(c.Database.Path), "database directory"},
	}

	for _, p := range paths {
		if err := os.MkdirAll(p.path, 0755); err != nil {
			return fmt.Errorf("failed to create %s: %w", p.name, err)
		}
	}

	return nil
}

func validateTimeouts(c *Config) error {
	if c.ReadTimeout <= 0 {
		return fmt.Errorf("read timeout must be positive")
	}
	if c.WriteTimeout <= 0 {
		return fmt.Errorf("write timeout must be positive")
	}
	if c.Pipeline.RunTimeout <= 0 {
		return fmt.Errorf("pipeline run timeout must be positive")
	}
	return nil
}

func validatePipeline(c *Config) error {
	if c.Pipeline.MaxClips <= 0 {
		return fmt.Errorf("max clips per run must be positive")
	}
	if c.FFmpeg.MinFileSize <= 0 {
		return fmt.Errorf("media min file size must be positive")
	}
	if c.Download.MaxAttempts <= 0 {
		return fmt.Errorf("download max attempts must be positive")
	}
	return nil
}

// Helper functions for reading environment variables
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value, exists := os.LookupEnv(key); exists {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvAsStringSlice(key string, defaultValue []string) []string {
	if value, exists := os.LookupEnv(key); exists {
		if value = strings.TrimSpace(value); value != "" {
			return strings.Split(value, ",")
		}
	}
	return defaultValue
}
