package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	XDR       XDRConfig
	AWS       AWSConfig
	Storage   StorageConfig
	Scheduler SchedulerConfig
	Logging   LoggingConfig
}

// XDRConfig contains alert source configuration
type XDRConfig struct {
	// ParameterPrefix is the SSM path prefix holding key_id, api_key,
	// key_type, fqdn and endpoint.
	ParameterPrefix string        `validate:"required"`
	PageSize        int           `validate:"gt=0"`
	MaxPages        int           `validate:"gte=0"` // 0 means unbounded
	RequestTimeout  time.Duration `validate:"gt=0"`
	// TLSVerify restores standard certificate and hostname checks. The
	// default is off to accommodate self-signed tenant endpoints; see the
	// security note in the README.
	TLSVerify bool
	// RequestsPerSecond caps the page fetch rate; 0 disables the limiter.
	RequestsPerSecond float64 `validate:"gte=0"`
}

// AWSConfig contains AWS client configuration
type AWSConfig struct {
	Region          string `validate:"required"`
	AccessKeyID     string
	SecretAccessKey string
}

// StorageConfig contains result sink configuration
type StorageConfig struct {
	Bucket    string `validate:"required"`
	KeyPrefix string `validate:"required"`
}

// SchedulerConfig contains collector daemon configuration
type SchedulerConfig struct {
	Schedule    string `validate:"required"`
	MetricsAddr string `validate:"required"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string
	Format string // json or console
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (ignore errors as it's optional)
	_ = godotenv.Load()

	cfg := &Config{
		XDR: XDRConfig{
			ParameterPrefix:   getEnv("XDR_PARAMETER_PREFIX", "/cortex"),
			PageSize:          getEnvAsInt("XDR_PAGE_SIZE", 100),
			MaxPages:          getEnvAsInt("XDR_MAX_PAGES", 10),
			RequestTimeout:    getEnvAsDuration("XDR_REQUEST_TIMEOUT", 30*time.Second),
			TLSVerify:         getEnvAsBool("XDR_TLS_VERIFY", false),
			RequestsPerSecond: getEnvAsFloat("XDR_REQUESTS_PER_SECOND", 0),
		},
		AWS: AWSConfig{
			Region:          getEnv("AWS_REGION", "us-east-1"),
			AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
		},
		Storage: StorageConfig{
			Bucket:    getEnv("S3_BUCKET", "db-pan-bucket"),
			KeyPrefix: getEnv("S3_KEY_PREFIX", "cortex-alerts"),
		},
		Scheduler: SchedulerConfig{
			Schedule:    getEnv("COLLECT_SCHEDULE", "@hourly"),
			MetricsAddr: getEnv("METRICS_ADDR", ":9090"),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

var validate = validator.New()

// Validate validates the configuration
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		if errs, ok := err.(validator.ValidationErrors); ok && len(errs) > 0 {
			e := errs[0]
			return fmt.Errorf("%s failed %q validation", e.Namespace(), e.Tag())
		}
		return err
	}
	return nil
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
