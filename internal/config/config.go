package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// Logging
	LogLevel  string
	LogFormat string

	// Storage backend selection
	DataBackend  string
	DataFilePath string
	SQLiteDBPath string

	// Session year override; 0 means use the wall clock. Transactions stored
	// with year 0 are counted under this year.
	BudgetYear int

	// Remote sync
	RemoteProvider string
	SyncInterval   time.Duration
	UploadOnSave   bool

	// Google Drive provider
	DriveFolderID         string
	DriveFileName         string
	GoogleCredentialsJSON string

	// GCS provider
	GCSBucket string
	GCSObject string

	// HTTP provider
	RemoteURL string

	// AMQP change events (optional)
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
}

func Load() *Config {
	cfg := &Config{
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),

		DataBackend:  getEnv("DATA_BACKEND", "file"),
		DataFilePath: getEnv("BUDGET_FILE_PATH", "./data/budget.json"),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/budget.db"),

		BudgetYear: getEnvInt("BUDGET_YEAR", 0),

		RemoteProvider: getEnv("REMOTE_PROVIDER", ""),
		SyncInterval:   getEnvDuration("SYNC_INTERVAL", 5*time.Minute),
		UploadOnSave:   getEnvBool("SYNC_UPLOAD_ON_SAVE", true),

		DriveFolderID:         getEnv("GDRIVE_FOLDER_ID", ""),
		DriveFileName:         getEnv("GDRIVE_FILE_NAME", "budget.json"),
		GoogleCredentialsJSON: getEnv("GOOGLE_CREDENTIALS_JSON", ""),

		GCSBucket: getEnv("GCS_BUCKET", ""),
		GCSObject: getEnv("GCS_OBJECT", "budget.json"),

		RemoteURL: getEnv("REMOTE_URL", ""),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "budgetbook"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "document_saved"),
	}

	return cfg
}

// CurrentYear resolves the session year: the explicit override when set,
// otherwise the wall-clock year.
func (c *Config) CurrentYear(now time.Time) int {
	if c.BudgetYear > 0 {
		return c.BudgetYear
	}
	return now.Year()
}

// Validate checks the configuration and returns all problems at once.
func (c *Config) Validate() error {
	var errors []string

	validLevels := []string{"debug", "info", "warn", "error"}
	if !oneOf(validLevels, c.LogLevel) {
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be one of %v", c.LogLevel, validLevels))
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		errors = append(errors, fmt.Sprintf("invalid log format '%s': must be 'text' or 'json'", c.LogFormat))
	}

	validBackends := []string{"file", "sqlite", "memory"}
	if !oneOf(validBackends, c.DataBackend) {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	if c.DataBackend == "file" && c.DataFilePath == "" {
		errors = append(errors, "budget file path cannot be empty when using file backend")
	}

	if c.DataBackend == "sqlite" {
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else {
			dir := filepath.Dir(c.SQLiteDBPath)
			if dir != "." && dir != "" {
				if _, err := os.Stat(dir); os.IsNotExist(err) {
					if err := os.MkdirAll(dir, 0755); err != nil {
						errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
					}
				}
			}
		}
	}

	if c.BudgetYear < 0 {
		errors = append(errors, fmt.Sprintf("invalid budget year %d: must be positive or 0 for current year", c.BudgetYear))
	}

	validProviders := []string{"", "gdrive", "gcs", "http"}
	if !oneOf(validProviders, c.RemoteProvider) {
		errors = append(errors, fmt.Sprintf("invalid remote provider '%s': must be one of gdrive, gcs, http, or empty", c.RemoteProvider))
	}

	switch c.RemoteProvider {
	case "gdrive":
		if c.DriveFileName == "" {
			errors = append(errors, "GDRIVE_FILE_NAME cannot be empty when using the gdrive provider")
		}
	case "gcs":
		if c.GCSBucket == "" {
			errors = append(errors, "GCS_BUCKET is required when using the gcs provider")
		}
		if c.GCSObject == "" {
			errors = append(errors, "GCS_OBJECT cannot be empty when using the gcs provider")
		}
	case "http":
		if c.RemoteURL == "" {
			errors = append(errors, "REMOTE_URL is required when using the http provider")
		} else if parsedURL, err := url.Parse(c.RemoteURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid remote URL '%s': %v", c.RemoteURL, err))
		} else if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
			errors = append(errors, fmt.Sprintf("invalid remote URL scheme '%s': must be 'http' or 'https'", parsedURL.Scheme))
		}
	}

	if c.RemoteProvider != "" {
		if c.SyncInterval < time.Second {
			errors = append(errors, fmt.Sprintf("invalid sync interval %v: must be at least 1 second", c.SyncInterval))
		} else if c.SyncInterval > 24*time.Hour {
			errors = append(errors, fmt.Sprintf("invalid sync interval %v: must be at most 24 hours", c.SyncInterval))
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

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

func oneOf(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
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
