// Package config loads process configuration from the environment and an
// optional .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"garageflow/internal/core/numerator"
)

// Config is shared by the server, the worker and garagectl.
type Config struct {
	Env      string `env:"APP_ENV" envDefault:"development"`
	Port     string `env:"APP_PORT" envDefault:"8080"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	DatabaseURL string `env:"DATABASE_URL,required"`
	DBMaxConns  int32  `env:"DB_MAX_CONNS" envDefault:"20"`

	JWTSecret string `env:"JWT_SECRET"`

	NumberingStrategy     string        `env:"NUMBERING_STRATEGY" envDefault:"strict"`
	DraftAutosaveInterval time.Duration `env:"DRAFT_AUTOSAVE_INTERVAL" envDefault:"5s"`

	Kafka  KafkaConfig
	SMTP   SMTPConfig
	Blob   BlobConfig
	Outbox OutboxConfig
}

// KafkaConfig configures the outbox relay target.
type KafkaConfig struct {
	Brokers []string `env:"KAFKA_BROKERS" envSeparator:","`
	Topic   string   `env:"KAFKA_TOPIC" envDefault:"garageflow.events"`
}

// SMTPConfig configures operator alert emails.
type SMTPConfig struct {
	Host       string   `env:"SMTP_HOST"`
	Port       int      `env:"SMTP_PORT" envDefault:"587"`
	User       string   `env:"SMTP_USER"`
	Password   string   `env:"SMTP_PASSWORD"`
	From       string   `env:"SMTP_FROM" envDefault:"alerts@garageflow.local"`
	Recipients []string `env:"ALERT_RECIPIENTS" envSeparator:","`
}

// BlobConfig configures photo uploads.
type BlobConfig struct {
	BaseURL  string        `env:"BLOB_BASE_URL"`
	Token    string        `env:"BLOB_TOKEN"`
	Timeout  time.Duration `env:"BLOB_TIMEOUT" envDefault:"30s"`
	RetryMax int           `env:"BLOB_RETRY_MAX" envDefault:"3"`
}

// OutboxConfig configures the relay loop of the worker.
type OutboxConfig struct {
	PollInterval  time.Duration `env:"OUTBOX_POLL_INTERVAL" envDefault:"2s"`
	BatchSize     int           `env:"OUTBOX_BATCH_SIZE" envDefault:"100"`
	RetentionDays int           `env:"OUTBOX_RETENTION_DAYS" envDefault:"7"`
}

// Load reads envPath if it exists, then the environment.
func Load(envPath string) (Config, error) {
	if envPath != "" {
		if err := godotenv.Load(envPath); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", envPath, err)
		}
	}

	var c Config
	if err := env.Parse(&c); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate checks cross-field rules env tags cannot express.
func (c Config) Validate() error {
	if _, err := c.Strategy(); err != nil {
		return err
	}
	if c.IsProduction() && len(c.JWTSecret) < 32 {
		return errors.New("JWT_SECRET must be at least 32 characters in production")
	}
	if c.DBMaxConns <= 0 {
		return errors.New("DB_MAX_CONNS must be positive")
	}
	return nil
}

// Strategy returns the configured numbering strategy.
func (c Config) Strategy() (numerator.Strategy, error) {
	return numerator.ParseStrategy(c.NumberingStrategy)
}

// IsProduction reports whether APP_ENV is production.
func (c Config) IsProduction() bool {
	return c.Env == "production"
}

// AlertsEnabled reports whether operator emails can be sent.
func (c Config) AlertsEnabled() bool {
	return c.SMTP.Host != "" && len(c.SMTP.Recipients) > 0
}
