package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"

	"github.com/Clark-Hu/certavg/internal/csvline"
)

// Config captures all runtime configuration derived from environment variables.
type Config struct {
	DatasetPath       string `envconfig:"DATASET_PATH" validate:"required"`
	QuoteMode         string `envconfig:"QUOTE_MODE" default:"legacy" validate:"oneof=legacy strict"`
	LogLevel          string `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn error"`
	Port              string `envconfig:"PORT" default:"8080" validate:"numeric"`
	ReadTimeoutSecs   int    `envconfig:"SERVER_READ_TIMEOUT" default:"15" validate:"gt=0"`
	WriteTimeoutSecs  int    `envconfig:"SERVER_WRITE_TIMEOUT" default:"15" validate:"gt=0"`
	IdleTimeoutSecs   int    `envconfig:"SERVER_IDLE_TIMEOUT" default:"60" validate:"gt=0"`
	DBURL             string `envconfig:"DB_URL"`
	DBMaxConns        int    `envconfig:"DB_MAX_CONNS" default:"20"`
	DBMinConns        int    `envconfig:"DB_MIN_CONNS" default:"2"`
	DBMaxIdleSecs     int    `envconfig:"DB_MAX_CONN_IDLE_SECS" default:"300"`
	DBMaxLifeSecs     int    `envconfig:"DB_MAX_CONN_LIFETIME_SECS" default:"3600"`
	DBConnTimeoutSecs int    `envconfig:"DB_CONN_TIMEOUT_SECS" default:"10"`
	DBStatementCache  int    `envconfig:"DB_STATEMENT_CACHE_CAPACITY" default:"256"`
}

// Load reads configuration from environment variables, applying defaults and validation.
func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("load config from env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks field constraints and the database pool settings.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			return fmt.Errorf("%s is invalid (%s)", envName(fieldErrs[0].StructField()), fieldErrs[0].Tag())
		}
		return fmt.Errorf("validate config: %w", err)
	}

	if c.DBURL == "" {
		return nil
	}
	if c.DBMaxConns <= 0 {
		return fmt.Errorf("DB_MAX_CONNS must be positive")
	}
	if c.DBMinConns < 0 {
		return fmt.Errorf("DB_MIN_CONNS must be non-negative")
	}
	if c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("DB_MIN_CONNS cannot exceed DB_MAX_CONNS")
	}
	if c.DBStatementCache < 0 {
		return fmt.Errorf("DB_STATEMENT_CACHE_CAPACITY must be non-negative")
	}
	return nil
}

// Mode returns the parsed quote mode. Validate has already restricted the value.
func (c Config) Mode() csvline.Mode {
	mode, err := csvline.ParseModeName(c.QuoteMode)
	if err != nil {
		return csvline.ModeLegacy
	}
	return mode
}

var envNames = map[string]string{
	"DatasetPath":      "DATASET_PATH",
	"QuoteMode":        "QUOTE_MODE",
	"LogLevel":         "LOG_LEVEL",
	"Port":             "PORT",
	"ReadTimeoutSecs":  "SERVER_READ_TIMEOUT",
	"WriteTimeoutSecs": "SERVER_WRITE_TIMEOUT",
	"IdleTimeoutSecs":  "SERVER_IDLE_TIMEOUT",
}

func envName(field string) string {
	if name, ok := envNames[field]; ok {
		return name
	}
	return strings.ToUpper(field)
}
