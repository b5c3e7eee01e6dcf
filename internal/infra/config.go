package infra

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv          string
	Port            string
	DatabaseURL     string
	GeoIPDBPath     string
	DefaultLanguage string

	ContentProvider string
	GeminiAPIKey    string
	GeminiModel     string
	GeminiBaseURL   string
	OpenAIAPIKey    string
	OpenAIModel     string
	OpenAIBaseURL   string

	ImageAPIKey      string
	ImageModel       string
	ImageAspectRatio string

	JobTTL           time.Duration
	JobSweepInterval time.Duration
	JobMaxEvents     int
	JobMaxAttempts   int
	JobBackoffBase   time.Duration
	ProviderTimeout  time.Duration
	SSEHeartbeat     time.Duration

	StorageDir    string
	ExportPDFCmd  []string
	ExportDocxCmd []string

	FeedbackMaxEntries int

	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
	RateLimitPerMin  int
	CORSOrigins      []string
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
// DATABASE_URL and GEOIP_DB_PATH are optional; the features they back are skipped when unset.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:          getEnv("APP_ENV", "development"),
		Port:            getEnv("PORT", "8080"),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		GeoIPDBPath:     os.Getenv("GEOIP_DB_PATH"),
		DefaultLanguage: getEnv("DEFAULT_LANGUAGE", "English"),

		ContentProvider: getEnv("CONTENT_PROVIDER", "auto"),
		GeminiAPIKey:    os.Getenv("GEMINI_API_KEY"),
		GeminiModel:     getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
		GeminiBaseURL:   getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta"),
		OpenAIAPIKey:    os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:     getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		OpenAIBaseURL:   getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),

		ImageAPIKey: getEnv("IMAGE_API_KEY", os.Getenv("GEMINI_API_KEY")),
		// Empty means each image provider falls back to its own default model.
		ImageModel:       os.Getenv("IMAGE_MODEL"),
		ImageAspectRatio: getEnv("IMAGE_ASPECT_RATIO", "4:3"),

		JobTTL:           time.Hour * time.Duration(getEnvInt("JOB_TTL_HOURS", 24)),
		JobSweepInterval: time.Second * time.Duration(getEnvInt("JOB_SWEEP_INTERVAL_SECONDS", 60)),
		JobMaxEvents:     getEnvInt("JOB_MAX_EVENTS", 300),
		JobMaxAttempts:   getEnvInt("JOB_MAX_ATTEMPTS", 3),
		JobBackoffBase:   time.Millisecond * time.Duration(getEnvInt("JOB_BACKOFF_BASE_MS", 2000)),
		ProviderTimeout:  time.Second * time.Duration(getEnvInt("PROVIDER_TIMEOUT_SECONDS", 180)),
		SSEHeartbeat:     time.Second * time.Duration(getEnvInt("SSE_HEARTBEAT_SECONDS", 15)),

		StorageDir:    getEnv("STORAGE_DIR", "./data/exports"),
		ExportPDFCmd:  getEnvCommand("EXPORT_PDF_CMD"),
		ExportDocxCmd: getEnvCommand("EXPORT_DOCX_CMD"),

		FeedbackMaxEntries: getEnvInt("FEEDBACK_MAX_ENTRIES", 500),

		HTTPReadTimeout: time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		// Zero by default so long-lived event streams are not cut off mid-job.
		HTTPWriteTimeout: time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 0)),
		HTTPIdleTimeout:  time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		RateLimitPerMin:  getEnvInt("RATE_LIMIT_PER_MINUTE", 60),
		CORSOrigins:      getEnvList("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvList(key, fallback string) []string {
	raw := getEnv(key, fallback)
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// getEnvCommand splits a worker command line into argv. Arguments with
// embedded spaces are not supported; export workers take none.
func getEnvCommand(key string) []string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return nil
	}
	return strings.Fields(v)
}
