package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Lookup   LookupConfig
	Paths    PathsConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Server   ServerConfig
	Logging  LoggingConfig
}

type LookupConfig struct {
	BaseURL      string
	SearchPath   string
	UserAgent    string
	Timeout      time.Duration
	MaxRetries   int
	RetryDelay   time.Duration
	RetryBackoff float64
	// Delay is slept after every completed lookup, ShortDelay between the
	// direct-page attempt and the search fallback.
	Delay      time.Duration
	ShortDelay time.Duration
}

type PathsConfig struct {
	InputFile     string
	InputAltDirs  []string
	OutputFile    string
	FailedPageDir string
}

type DatabaseConfig struct {
	Enabled  bool
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type RedisConfig struct {
	Enabled  bool
	Addr     string
	Password string
	DB       int
	// SeenKey is the set holding part numbers already written by any runner.
	SeenKey string
}

type ServerConfig struct {
	Port            string
	Host            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

type LoggingConfig struct {
	Level  string
	Format string
}

func Load() (*Config, error) {
	cfg := &Config{
		Lookup: LookupConfig{
			BaseURL:      getEnvOrDefault("RS_BASE_URL", "https://fr.rs-online.com"),
			SearchPath:   getEnvOrDefault("RS_SEARCH_PATH", "/web/c/?searchTerm="),
			UserAgent:    getEnvOrDefault("RS_USER_AGENT", "Mozilla/5.0 (Windows NT 10.0; Win64; x64)"),
			Timeout:      getDurationOrDefault("RS_HTTP_TIMEOUT", 15*time.Second),
			MaxRetries:   getIntOrDefault("RS_MAX_RETRIES", 3),
			RetryDelay:   getDurationOrDefault("RS_RETRY_DELAY", 800*time.Millisecond),
			RetryBackoff: getFloatOrDefault("RS_RETRY_BACKOFF", 2.0),
			Delay:        getDurationOrDefault("RS_DELAY", 1100*time.Millisecond),
			ShortDelay:   getDurationOrDefault("RS_SHORT_DELAY", 250*time.Millisecond),
		},
		Paths: PathsConfig{
			InputFile:     getEnvOrDefault("RS_INPUT_FILE", "input.csv"),
			InputAltDirs:  getStringSliceOrDefault("RS_INPUT_ALT_DIRS", []string{"input", "data"}),
			OutputFile:    getEnvOrDefault("RS_OUTPUT_FILE", "output.csv"),
			FailedPageDir: getEnvOrDefault("RS_FAILED_PAGE_DIR", "failed_pages"),
		},
		Database: DatabaseConfig{
			Enabled:  getBoolOrDefault("DB_ENABLED", false),
			Host:     getEnvOrDefault("DB_HOST", "localhost"),
			Port:     getIntOrDefault("DB_PORT", 5432),
			User:     getEnvOrDefault("DB_USER", "postgres"),
			Password: getEnvOrDefault("DB_PASSWORD", ""),
			DBName:   getEnvOrDefault("DB_NAME", "rs_lookup"),
			SSLMode:  getEnvOrDefault("DB_SSL_MODE", "disable"),
		},
		Redis: RedisConfig{
			Enabled:  getBoolOrDefault("REDIS_ENABLED", false),
			Addr:     getEnvOrDefault("REDIS_ADDR", "localhost:6379"),
			Password: getEnvOrDefault("REDIS_PASSWORD", ""),
			DB:       getIntOrDefault("REDIS_DB", 0),
			SeenKey:  getEnvOrDefault("REDIS_SEEN_KEY", "rslookup:done"),
		},
		Server: ServerConfig{
			Port:            getEnvOrDefault("SERVER_PORT", "8080"),
			Host:            getEnvOrDefault("SERVER_HOST", "0.0.0.0"),
			ReadTimeout:     getDurationOrDefault("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:    getDurationOrDefault("SERVER_WRITE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getDurationOrDefault("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Logging: LoggingConfig{
			Level:  getEnvOrDefault("LOG_LEVEL", "info"),
			Format: getEnvOrDefault("LOG_FORMAT", "text"),
		},
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Lookup.BaseURL == "" {
		return fmt.Errorf("RS_BASE_URL must not be empty")
	}

	if !strings.HasPrefix(c.Lookup.BaseURL, "http://") && !strings.HasPrefix(c.Lookup.BaseURL, "https://") {
		return fmt.Errorf("RS_BASE_URL must be an http(s) URL, got %q", c.Lookup.BaseURL)
	}

	if c.Lookup.MaxRetries < 1 {
		return fmt.Errorf("RS_MAX_RETRIES must be at least 1")
	}

	if c.Lookup.RetryBackoff < 1.0 {
		return fmt.Errorf("RS_RETRY_BACKOFF must be at least 1.0")
	}

	if c.Lookup.Delay < 0 || c.Lookup.ShortDelay < 0 {
		return fmt.Errorf("delays must not be negative")
	}

	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getStringSliceOrDefault(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		return strings.Split(value, ",")
	}
	return defaultValue
}
