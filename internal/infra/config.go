package infra

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config holds all application configuration parsed from environment variables.
type Config struct {
	// Database
	DatabaseURL string `env:"DATABASE_URL"`
	PGHost      string `env:"PGHOST" envDefault:"localhost"`
	PGPort      int    `env:"PGPORT" envDefault:"5432"`
	PGUser      string `env:"PGUSER" envDefault:"overboard"`
	PGPassword  string `env:"PGPASSWORD" envDefault:"overboard"`
	PGDatabase  string `env:"PGDATABASE" envDefault:"overboard"`

	// Identity
	TokenSalt string `env:"TOKEN_SALT" envDefault:"change-me-in-production"`

	// Server
	APIPort int `env:"API_PORT" envDefault:"3100"`

	// Websocket rate limiting
	EventRateLimit  int    `env:"EVENT_RATE_LIMIT" envDefault:"20"`
	EventRateWindow string `env:"EVENT_RATE_WINDOW" envDefault:"10s"`

	// Kafka
	KafkaBrokers string `env:"KAFKA_BROKERS" envDefault:"localhost:9092"`
	KafkaEnabled bool   `env:"KAFKA_ENABLED" envDefault:"false"`

	// CORS
	CORSAllowedOrigins string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*"`

	// Dev
	AllowInsecureDefaults bool `env:"ALLOW_INSECURE_DEFAULTS" envDefault:"false"`
}

// LoadConfig parses environment variables into a Config struct.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// Validate checks for insecure configuration that must not run in production.
// Set ALLOW_INSECURE_DEFAULTS=true to bypass (local dev only).
func (c *Config) Validate() error {
	if c.AllowInsecureDefaults {
		return nil
	}
	if c.TokenSalt == "change-me-in-production" {
		return fmt.Errorf("TOKEN_SALT is set to the insecure default; set a strong salt or set ALLOW_INSECURE_DEFAULTS=true for local dev")
	}
	if len(c.TokenSalt) < 16 {
		return fmt.Errorf("TOKEN_SALT is too short (%d chars); minimum 16 characters required", len(c.TokenSalt))
	}
	return nil
}

// DSN returns the PostgreSQL connection string, preferring DATABASE_URL if set.
func (c *Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.PGUser, c.PGPassword, c.PGHost, c.PGPort, c.PGDatabase)
}
