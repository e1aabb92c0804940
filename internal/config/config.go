package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// ModelSource selects where the regression model artifact is loaded from
type ModelSource string

const (
	ModelSourceNone  ModelSource = "none"
	ModelSourceLocal ModelSource = "local"
	ModelSourceHTTP  ModelSource = "http"
	ModelSourceAzure ModelSource = "azure"
)

type Config struct {
	Host               string
	Port               string
	RequestTimeout     time.Duration
	MaxRequestBodySize int64

	LogLevel      string
	LogFile       string
	LogMaxSizeMB  int
	LogMaxBackups int
	LogMaxAgeDays int

	ModelSource       ModelSource
	ModelPath         string
	ModelURL          string
	ModelURLHosts     []string
	ModelFetchTimeout time.Duration
	AzureAccount      string
	AzureKey          string
	ModelContainer    string
	ModelBlob         string

	HistoryDBPath string

	RateLimitRPS   float64
	RateLimitBurst int
	CORSOrigins    []string

	CanonicalSize  int
	AutoOrient     bool
	MaxImagePixels int
}

func (c *Config) ServerAddress() string {
	// Trim any whitespace from host and port
	host := strings.TrimSpace(c.Host)
	port := strings.TrimSpace(c.Port)
	return net.JoinHostPort(host, port)
}

// HistoryEnabled reports whether analysis results are persisted
func (c *Config) HistoryEnabled() bool {
	return strings.TrimSpace(c.HistoryDBPath) != ""
}

// LoadFromEnv reads configuration from the environment. A .env file in the
// working directory is loaded first when present; real environment variables win.
func LoadFromEnv() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Host:               getEnvOrDefault("HOST", "0.0.0.0"),
		Port:               getEnvOrDefault("PORT", "8080"),
		RequestTimeout:     parseDurationOrDefault("REQUEST_TIMEOUT", 30*time.Second),
		MaxRequestBodySize: parseIntOrDefault("MAX_REQUEST_BODY_SIZE", 10*1024*1024), // 10MB

		LogLevel:      strings.ToLower(getEnvOrDefault("LOG_LEVEL", "info")),
		LogFile:       os.Getenv("LOG_FILE"),
		LogMaxSizeMB:  int(parseIntOrDefault("LOG_MAX_SIZE_MB", 10)),
		LogMaxBackups: int(parseIntOrDefault("LOG_MAX_BACKUPS", 3)),
		LogMaxAgeDays: int(parseIntOrDefault("LOG_MAX_AGE_DAYS", 28)),

		ModelSource:       ModelSource(strings.ToLower(getEnvOrDefault("MODEL_SOURCE", string(ModelSourceLocal)))),
		ModelPath:         getEnvOrDefault("MODEL_PATH", "bodyfat_model.json"),
		ModelURL:          os.Getenv("MODEL_URL"),
		ModelURLHosts:     parseListOrDefault("MODEL_URL_HOSTS", nil),
		ModelFetchTimeout: parseDurationOrDefault("MODEL_FETCH_TIMEOUT", 15*time.Second),
		AzureAccount:      os.Getenv("AZURE_STORAGE_ACCOUNT"),
		AzureKey:          os.Getenv("AZURE_STORAGE_KEY"),
		ModelContainer:    getEnvOrDefault("MODEL_CONTAINER", "models"),
		ModelBlob:         getEnvOrDefault("MODEL_BLOB", "bodyfat_model.json"),

		HistoryDBPath: os.Getenv("HISTORY_DB_PATH"),

		RateLimitRPS:   parseFloatOrDefault("RATE_LIMIT_RPS", 0),
		RateLimitBurst: int(parseIntOrDefault("RATE_LIMIT_BURST", 10)),
		CORSOrigins:    parseListOrDefault("CORS_ALLOW_ORIGINS", []string{"*"}),

		CanonicalSize:  int(parseIntOrDefault("CANONICAL_SIZE", 256)),
		AutoOrient:     parseBoolOrDefault("AUTO_ORIENT", false),
		MaxImagePixels: int(parseIntOrDefault("MAX_IMAGE_PIXELS", 50_000_000)),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks ranges and required combinations
func (c *Config) Validate() error {
	// Validate port is numeric and in range
	p, err := strconv.Atoi(strings.TrimSpace(c.Port))
	if err != nil || p < 1 || p > 65535 {
		return fmt.Errorf("invalid PORT: %q", c.Port)
	}
	if c.MaxRequestBodySize <= 0 {
		return fmt.Errorf("MAX_REQUEST_BODY_SIZE must be > 0 (got %d)", c.MaxRequestBodySize)
	}
	if c.RequestTimeout <= 0 || c.ModelFetchTimeout <= 0 {
		return fmt.Errorf("timeouts must be > 0 (got request=%s, model_fetch=%s)",
			c.RequestTimeout, c.ModelFetchTimeout)
	}
	if c.CanonicalSize < 16 {
		return fmt.Errorf("CANONICAL_SIZE must be >= 16 (got %d)", c.CanonicalSize)
	}
	if c.MaxImagePixels < 0 {
		return fmt.Errorf("MAX_IMAGE_PIXELS must be >= 0 (got %d)", c.MaxImagePixels)
	}
	for _, origin := range c.CORSOrigins {
		if origin != "*" && !strings.HasPrefix(origin, "http://") && !strings.HasPrefix(origin, "https://") {
			return fmt.Errorf("CORS_ALLOW_ORIGINS entries must be \"*\" or start with http:// or https:// (got %q)", origin)
		}
	}
	if c.RateLimitRPS < 0 {
		return fmt.Errorf("RATE_LIMIT_RPS must be >= 0 (got %g)", c.RateLimitRPS)
	}
	if c.RateLimitRPS > 0 && c.RateLimitBurst <= 0 {
		return fmt.Errorf("RATE_LIMIT_BURST must be > 0 when rate limiting is enabled (got %d)", c.RateLimitBurst)
	}

	switch c.ModelSource {
	case ModelSourceNone, ModelSourceLocal:
	case ModelSourceHTTP:
		if strings.TrimSpace(c.ModelURL) == "" {
			return fmt.Errorf("MODEL_URL is required when MODEL_SOURCE=%s", c.ModelSource)
		}
	case ModelSourceAzure:
		if c.AzureAccount == "" || c.AzureKey == "" {
			return fmt.Errorf("AZURE_STORAGE_ACCOUNT and AZURE_STORAGE_KEY are required when MODEL_SOURCE=%s", c.ModelSource)
		}
	default:
		return fmt.Errorf("invalid MODEL_SOURCE: %q", c.ModelSource)
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(strings.TrimSpace(value)); err == nil && duration > 0 {
			return duration
		}
	}
	return defaultValue
}

func parseIntOrDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func parseFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func parseBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(strings.TrimSpace(value)); err == nil {
			return b
		}
	}
	return defaultValue
}

func parseListOrDefault(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
