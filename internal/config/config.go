package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	// HTTP Server
	Port               string
	AppEnv             string
	LogLevel           string
	RateLimitPerMinute int

	// Flash cookies
	SessionSecret string
	FlashTTL      time.Duration

	// Backend selection
	DataBackend string
	OnVercel    bool

	// File backend
	DataDir string

	// Database
	SQLiteDBPath string

	// Blob backend
	BlobBucket          string
	BlobPrefix          string
	BlobCredentialsJSON string
	BlobCredentialsFile string
	BlobCacheTTL        time.Duration

	// AMQP (optional)
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Google Sheets export
	GoogleSpreadsheetID      string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string
	ExportInterval           time.Duration
}

func Load() *Config {
	onVercel := getEnv("VERCEL", "") == "1" || getEnvBool("ON_VERCEL", false)

	cfg := &Config{
		Port:               getEnv("PORT", "3000"),
		AppEnv:             strings.ToLower(getEnv("APP_ENV", EnvDevelopment)),
		LogLevel:           strings.ToLower(getEnv("LOG_LEVEL", "info")),
		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 60),

		SessionSecret: getEnv("SESSION_SECRET", "finance-secret"),
		FlashTTL:      getEnvDuration("FLASH_TTL", 5*time.Minute),

		OnVercel:    onVercel,
		DataBackend: strings.ToLower(getEnv("DATA_BACKEND", defaultBackend(onVercel))),

		DataDir:      getEnv("DATA_DIR", "./data"),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/keuangan.db"),

		BlobBucket:          getEnv("BLOB_BUCKET", ""),
		BlobPrefix:          getEnv("BLOB_PREFIX", "finance"),
		BlobCredentialsJSON: getEnv("BLOB_CREDENTIALS_JSON", ""),
		BlobCredentialsFile: getEnv("BLOB_CREDENTIALS_FILE", ""),
		BlobCacheTTL:        getEnvDuration("BLOB_CACHE_TTL", 0),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "keuangan"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "ledger_changes"),

		GoogleSpreadsheetID:      getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleServiceAccountJSON: getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", ""),
		GoogleServiceAccountFile: getEnv("GOOGLE_SERVICE_ACCOUNT_FILE", ""),
		ExportInterval:           getEnvDuration("EXPORT_INTERVAL", time.Hour),
	}

	return cfg
}

// defaultBackend keeps hosted deployments on remote storage.
func defaultBackend(onVercel bool) string {
	if onVercel {
		return "blob"
	}
	return "file"
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == EnvProduction
}

// HasBlobCredentials reports whether either blob credential source is set.
func (c *Config) HasBlobCredentials() bool {
	return c.BlobCredentialsJSON != "" || c.BlobCredentialsFile != ""
}

// BlobCredentials returns the inline JSON, or the file contents when only a
// path is configured. Both empty yields nil.
func (c *Config) BlobCredentials() ([]byte, error) {
	return readCredentials(c.BlobCredentialsJSON, c.BlobCredentialsFile)
}

func (c *Config) GoogleCredentials() ([]byte, error) {
	return readCredentials(c.GoogleServiceAccountJSON, c.GoogleServiceAccountFile)
}

// ExportEnabled reports whether the sheets export worker has what it needs.
func (c *Config) ExportEnabled() bool {
	return c.GoogleSpreadsheetID != "" && (c.GoogleServiceAccountJSON != "" || c.GoogleServiceAccountFile != "")
}

func readCredentials(inline, path string) ([]byte, error) {
	if inline != "" {
		return []byte(inline), nil
	}
	if path == "" {
		return nil, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read credentials file: %w", err)
	}
	return b, nil
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if c.AppEnv != EnvDevelopment && c.AppEnv != EnvProduction {
		errors = append(errors, fmt.Sprintf("invalid app env '%s': must be '%s' or '%s'", c.AppEnv, EnvDevelopment, EnvProduction))
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be one of debug, info, warn, error", c.LogLevel))
	}

	if c.RateLimitPerMinute < 1 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must be at least 1", c.RateLimitPerMinute))
	}

	if c.SessionSecret == "" {
		errors = append(errors, "session secret cannot be empty")
	}
	if c.FlashTTL < time.Second {
		errors = append(errors, fmt.Sprintf("invalid flash ttl %v: must be at least 1 second", c.FlashTTL))
	}

	validBackends := []string{"file", "blob", "sqlite", "memory"}
	isValidBackend := false
	for _, backend := range validBackends {
		if c.DataBackend == backend {
			isValidBackend = true
			break
		}
	}
	if !isValidBackend {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	switch c.DataBackend {
	case "file":
		if c.DataDir == "" {
			errors = append(errors, "data directory cannot be empty when using file backend")
		}
	case "sqlite":
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		}
	case "blob":
		if c.BlobBucket == "" && c.HasBlobCredentials() {
			errors = append(errors, "blob bucket is required when blob credentials are set")
		}
		if c.BlobCacheTTL < 0 {
			errors = append(errors, fmt.Sprintf("invalid blob cache ttl %v: must not be negative", c.BlobCacheTTL))
		}
		if c.BlobCredentialsFile != "" {
			if _, err := os.Stat(c.BlobCredentialsFile); os.IsNotExist(err) {
				errors = append(errors, fmt.Sprintf("blob credentials file does not exist: %s", c.BlobCredentialsFile))
			}
		}
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.GoogleServiceAccountFile != "" {
		if _, err := os.Stat(c.GoogleServiceAccountFile); os.IsNotExist(err) {
			errors = append(errors, fmt.Sprintf("Google service account file does not exist: %s", c.GoogleServiceAccountFile))
		}
	}

	if c.ExportInterval < time.Minute {
		errors = append(errors, fmt.Sprintf("invalid export interval %v: must be at least 1 minute", c.ExportInterval))
	} else if c.ExportInterval > 24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid export interval %v: must be at most 24 hours", c.ExportInterval))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
