package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"bilancio/internal/core"
)

const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
)

// Rollover modes. Exact archives only on the reset day itself; catchup also
// archives on any later day of the month when the reset day was missed.
const (
	RolloverExact   = "exact"
	RolloverCatchUp = "catchup"
)

type Config struct {
	// HTTP Server
	Port            string
	ShutdownTimeout time.Duration

	// Backend selection
	DataBackend string

	// Database
	SQLiteDBPath string

	// Memory backend seed directory (<dir>/<key>.json)
	DataDir string

	// Budget
	DefaultResetDay int
	RolloverMode    string

	// Projection cache
	ProjectionCacheSize int
	ProjectionCacheTTL  time.Duration

	// AMQP (disabled when AMQPURL is empty)
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	LogLevel string
}

func Load() *Config {
	cfg := &Config{
		Port:            getEnv("PORT", "8081"),
		ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second),

		DataBackend:  getEnv("DATA_BACKEND", BackendSQLite),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/bilancio.db"),
		DataDir:      getEnv("DATA_DIR", "data"),

		DefaultResetDay: getEnvInt("DEFAULT_RESET_DAY", core.DefaultResetDay),
		RolloverMode:    strings.ToLower(getEnv("ROLLOVER_MODE", RolloverExact)),

		ProjectionCacheSize: getEnvInt("PROJECTION_CACHE_SIZE", 24),
		ProjectionCacheTTL:  getEnvDuration("PROJECTION_CACHE_TTL", 10*time.Minute),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "bilancio"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "bilancio_events"),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	return cfg
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	// Validate port
	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	// Validate data backend
	validBackends := []string{BackendMemory, BackendSQLite}
	if !slices.Contains(validBackends, c.DataBackend) {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	// Validate SQLite configuration if backend is sqlite
	if c.DataBackend == BackendSQLite {
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

	if err := core.ValidateResetDay(c.DefaultResetDay); err != nil {
		errors = append(errors, fmt.Sprintf("invalid default reset day %d: must be between %d and %d",
			c.DefaultResetDay, core.MinResetDay, core.MaxResetDay))
	}

	validModes := []string{RolloverExact, RolloverCatchUp}
	if !slices.Contains(validModes, c.RolloverMode) {
		errors = append(errors, fmt.Sprintf("invalid rollover mode '%s': must be one of %v", c.RolloverMode, validModes))
	}

	// Validate projection cache
	if c.ProjectionCacheSize < 1 {
		errors = append(errors, fmt.Sprintf("invalid projection cache size %d: must be at least 1", c.ProjectionCacheSize))
	} else if c.ProjectionCacheSize > 1000 {
		errors = append(errors, fmt.Sprintf("invalid projection cache size %d: must be at most 1000", c.ProjectionCacheSize))
	}
	if c.ProjectionCacheTTL < time.Second {
		errors = append(errors, fmt.Sprintf("invalid projection cache ttl %v: must be at least 1 second", c.ProjectionCacheTTL))
	}

	// Validate AMQP URL if provided
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

	switch strings.ToLower(c.LogLevel) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be one of debug, info, warn, error", c.LogLevel))
	}

	// Return combined errors
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

// AMQPEnabled reports whether events should be published.
func (c *Config) AMQPEnabled() bool {
	return c.AMQPURL != ""
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

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
