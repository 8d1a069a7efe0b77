package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Environment
	GoEnv string `env:"GO_ENV" default:"development"`

	// Service Ports
	HTTPPort int `env:"HTTP_PORT" default:"8080"`

	// Database
	DatabaseURL string `env:"DATABASE_URL"`
	SQLitePath  string `env:"SQLITE_PATH" default:"reviewhub.db"` // used when DATABASE_URL is empty

	// Authentication
	JWTSecret      string        `env:"JWT_SECRET" required:"true"`
	AccessTokenTTL time.Duration `env:"ACCESS_TOKEN_TTL" default:"24h"`

	// Confirmation codes
	ConfirmationCodeTTL   time.Duration `env:"CONFIRMATION_CODE_TTL" default:"72h"`
	ConfirmationSingleUse bool          `env:"CONFIRMATION_SINGLE_USE" default:"false"`

	// Redis (signup throttle, mail outbox)
	RedisURL      string `env:"REDIS_URL"`
	RedisPassword string `env:"REDIS_PASSWORD"`

	// Mail delivery
	MailBackend    string  `env:"MAIL_BACKEND" default:"log"`
	MailFrom       string  `env:"MAIL_FROM" default:"noreply@reviewhub.local"`
	SMTPAddr       string  `env:"SMTP_ADDR" default:"localhost:25"`
	SMTPUsername   string  `env:"SMTP_USERNAME"`
	SMTPPassword   string  `env:"SMTP_PASSWORD"`
	MailStream     string  `env:"MAIL_STREAM" default:"mail:outbox"`
	MailRatePerSec float64 `env:"MAIL_RATE_PER_SEC" default:"5"`

	// Signup throttle
	SignupRateLimit  int           `env:"SIGNUP_RATE_LIMIT" default:"10"`
	SignupRateWindow time.Duration `env:"SIGNUP_RATE_WINDOW" default:"1m"`

	// Monitoring
	PrometheusEnabled bool `env:"PROMETHEUS_ENABLED" default:"false"`

	// Development
	LogLevel    string   `env:"LOG_LEVEL" default:"info"`
	LogFormat   string   `env:"LOG_FORMAT" default:"text"`
	CORSOrigins []string `env:"CORS_ORIGINS" default:"http://localhost:3000"`
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	// a missing .env is fine, system env vars still apply
	if err := godotenv.Load(".env"); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	config := &Config{}

	loadEnvString(&config.GoEnv, "GO_ENV", "development")
	if err := loadEnvInt(&config.HTTPPort, "HTTP_PORT", 8080); err != nil {
		return nil, err
	}

	// Database
	loadEnvString(&config.DatabaseURL, "DATABASE_URL", "")
	loadEnvString(&config.SQLitePath, "SQLITE_PATH", "reviewhub.db")

	// Authentication
	if err := loadEnvStringRequired(&config.JWTSecret, "JWT_SECRET"); err != nil {
		return nil, err
	}
	if err := loadEnvDuration(&config.AccessTokenTTL, "ACCESS_TOKEN_TTL", 24*time.Hour); err != nil {
		return nil, err
	}
	if err := loadEnvDuration(&config.ConfirmationCodeTTL, "CONFIRMATION_CODE_TTL", 72*time.Hour); err != nil {
		return nil, err
	}
	if err := loadEnvBool(&config.ConfirmationSingleUse, "CONFIRMATION_SINGLE_USE", false); err != nil {
		return nil, err
	}

	// Redis
	loadEnvString(&config.RedisURL, "REDIS_URL", "")
	loadEnvString(&config.RedisPassword, "REDIS_PASSWORD", "")

	// Mail
	loadEnvString(&config.MailBackend, "MAIL_BACKEND", "log")
	loadEnvString(&config.MailFrom, "MAIL_FROM", "noreply@reviewhub.local")
	loadEnvString(&config.SMTPAddr, "SMTP_ADDR", "localhost:25")
	loadEnvString(&config.SMTPUsername, "SMTP_USERNAME", "")
	loadEnvString(&config.SMTPPassword, "SMTP_PASSWORD", "")
	loadEnvString(&config.MailStream, "MAIL_STREAM", "mail:outbox")
	if err := loadEnvFloat(&config.MailRatePerSec, "MAIL_RATE_PER_SEC", 5); err != nil {
		return nil, err
	}

	// Throttle
	if err := loadEnvInt(&config.SignupRateLimit, "SIGNUP_RATE_LIMIT", 10); err != nil {
		return nil, err
	}
	if err := loadEnvDuration(&config.SignupRateWindow, "SIGNUP_RATE_WINDOW", time.Minute); err != nil {
		return nil, err
	}

	// Monitoring
	if err := loadEnvBool(&config.PrometheusEnabled, "PROMETHEUS_ENABLED", false); err != nil {
		return nil, err
	}

	// Development
	loadEnvString(&config.LogLevel, "LOG_LEVEL", "info")
	loadEnvString(&config.LogFormat, "LOG_FORMAT", "text")
	loadEnvStringSlice(&config.CORSOrigins, "CORS_ORIGINS", []string{"http://localhost:3000"})

	return config, nil
}

// LoadStoreConfig loads only what offline tools need: the database and
// logging settings. JWT_SECRET is not required.
func LoadStoreConfig() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	config := &Config{}
	loadEnvString(&config.GoEnv, "GO_ENV", "development")
	loadEnvString(&config.DatabaseURL, "DATABASE_URL", "")
	loadEnvString(&config.SQLitePath, "SQLITE_PATH", "reviewhub.db")
	loadEnvString(&config.LogLevel, "LOG_LEVEL", "info")
	loadEnvString(&config.LogFormat, "LOG_FORMAT", "text")
	return config, nil
}

// Helper functions for type conversion and validation
func loadEnvString(target *string, key, defaultValue string) {
	if value := os.Getenv(key); value != "" {
		*target = value
	} else {
		*target = defaultValue
	}
}

func loadEnvStringRequired(target *string, key string) error {
	value := os.Getenv(key)
	if value == "" {
		return fmt.Errorf("required environment variable %s is not set", key)
	}
	*target = value
	return nil
}

func loadEnvInt(target *int, key string, defaultValue int) error {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid integer value for %s: %w", key, err)
		}
		*target = parsed
	} else {
		*target = defaultValue
	}
	return nil
}

func loadEnvFloat(target *float64, key string, defaultValue float64) error {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid float value for %s: %w", key, err)
		}
		*target = parsed
	} else {
		*target = defaultValue
	}
	return nil
}

func loadEnvBool(target *bool, key string, defaultValue bool) error {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean value for %s: %w", key, err)
		}
		*target = parsed
	} else {
		*target = defaultValue
	}
	return nil
}

func loadEnvDuration(target *time.Duration, key string, defaultValue time.Duration) error {
	if value := os.Getenv(key); value != "" {
		parsed, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration value for %s: %w", key, err)
		}
		*target = parsed
	} else {
		*target = defaultValue
	}
	return nil
}

func loadEnvStringSlice(target *[]string, key string, defaultValue []string) {
	if value := os.Getenv(key); value != "" {
		*target = strings.Split(value, ",")
		for i, v := range *target {
			(*target)[i] = strings.TrimSpace(v)
		}
	} else {
		*target = defaultValue
	}
}

// Validate performs validation on the loaded configuration
func (c *Config) Validate() error {
	var errors []string

	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		errors = append(errors, "HTTP_PORT must be between 1 and 65535")
	}

	validLogLevels := []string{"debug", "info", "warn", "error"}
	if !contains(validLogLevels, c.LogLevel) {
		errors = append(errors, fmt.Sprintf("LOG_LEVEL must be one of: %s", strings.Join(validLogLevels, ", ")))
	}

	validLogFormats := []string{"text", "json"}
	if !contains(validLogFormats, c.LogFormat) {
		errors = append(errors, fmt.Sprintf("LOG_FORMAT must be one of: %s", strings.Join(validLogFormats, ", ")))
	}

	validMailBackends := []string{"log", "smtp", "redis"}
	if !contains(validMailBackends, c.MailBackend) {
		errors = append(errors, fmt.Sprintf("MAIL_BACKEND must be one of: %s", strings.Join(validMailBackends, ", ")))
	}
	if c.MailBackend == "redis" && c.RedisURL == "" {
		errors = append(errors, "MAIL_BACKEND=redis requires REDIS_URL")
	}
	if c.MailRatePerSec <= 0 {
		errors = append(errors, "MAIL_RATE_PER_SEC must be positive")
	}

	// HMAC keys are derived from it, keep it long
	if len(c.JWTSecret) < 32 {
		errors = append(errors, "JWT_SECRET should be at least 32 characters long")
	}

	if c.SignupRateLimit < 1 {
		errors = append(errors, "SIGNUP_RATE_LIMIT must be at least 1")
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errors, "; "))
	}

	return nil
}

// IsDevelopment returns true if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.GoEnv == "development"
}

// IsProduction returns true if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.GoEnv == "production"
}

// UsesPostgres reports whether a postgres DSN is configured; otherwise the
// service falls back to the SQLite file at SQLitePath.
func (c *Config) UsesPostgres() bool {
	return c.DatabaseURL != ""
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
