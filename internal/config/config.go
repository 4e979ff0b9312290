// Package config provides environment configuration for the API server.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

// Store drivers.
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
)

// Config holds all configuration for the application.
type Config struct {
	// Server settings
	ServerPort         string        `env:"PORT" envDefault:"8080"`
	ServerReadTimeout  time.Duration `env:"SERVER_READ_TIMEOUT" envDefault:"30s"`
	ServerWriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" envDefault:"120s"`
	ShutdownTimeout    time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`
	CORSOrigins        []string      `env:"CORS_ALLOWED_ORIGINS" envSeparator:","`

	// Storage
	StoreDriver string `env:"STORE_DRIVER" envDefault:"memory"`
	DatabaseDSN string `env:"DATABASE_DSN"`

	// NATS settings
	NATSEnabled  bool   `env:"NATS_ENABLED" envDefault:"false"`
	NATSURL      string `env:"NATS_URL" envDefault:"nats://localhost:4222"`
	NATSCAFile   string `env:"NATS_CA_FILE"`
	NATSCertFile string `env:"NATS_CERT_FILE"`
	NATSKeyFile  string `env:"NATS_KEY_FILE"`
	NATSToken    string `env:"NATS_TOKEN"`

	// JWT settings
	JWTSecret string `env:"JWT_SECRET" envDefault:"development-secret-change-in-production"`

	// LLM settings
	LLMProvider     string        `env:"LLM_PROVIDER" envDefault:"anthropic"`
	AnthropicAPIKey string        `env:"ANTHROPIC_API_KEY"`
	OpenAIAPIKey    string        `env:"OPENAI_API_KEY"`
	OpenAIBaseURL   string        `env:"OPENAI_BASE_URL"`
	LLMModel        string        `env:"LLM_MODEL"`
	LLMMaxTokens    int           `env:"LLM_MAX_TOKENS" envDefault:"1024"`
	LLMTimeout      time.Duration `env:"LLM_TIMEOUT" envDefault:"60s"`

	// Billing
	MonthlyCredits  int64 `env:"BILLING_MONTHLY_CREDITS" envDefault:"100"`
	TokensPerCredit int64 `env:"BILLING_TOKENS_PER_CREDIT" envDefault:"1000"`

	// Rate limiting
	RateLimitRequests int           `env:"RATE_LIMIT_REQUESTS" envDefault:"60"`
	RateLimitWindow   time.Duration `env:"RATE_LIMIT_WINDOW" envDefault:"1m"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	// Tracing
	TracingEnabled  bool   `env:"TRACING_ENABLED" envDefault:"false"`
	TracingEndpoint string `env:"TRACING_ENDPOINT" envDefault:"localhost:4318"`

	// LinkedIn enrichment via Unipile
	UnipileDSN       string `env:"UNIPILE_DSN"`
	UnipileAPIKey    string `env:"UNIPILE_API_KEY"`
	UnipileAccountID string `env:"UNIPILE_LINKEDIN_ACCOUNT_ID"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	c.StoreDriver = strings.ToLower(strings.TrimSpace(c.StoreDriver))
	switch c.StoreDriver {
	case StoreMemory:
	case StorePostgres:
		if strings.TrimSpace(c.DatabaseDSN) == "" {
			return fmt.Errorf("DATABASE_DSN is required when STORE_DRIVER is postgres")
		}
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}

	c.LLMProvider = strings.ToLower(strings.TrimSpace(c.LLMProvider))
	if c.LLMProvider != "anthropic" && c.LLMProvider != "openai" {
		return fmt.Errorf("unknown LLM_PROVIDER %q", c.LLMProvider)
	}

	if c.MonthlyCredits <= 0 {
		return fmt.Errorf("BILLING_MONTHLY_CREDITS must be positive")
	}
	if c.TokensPerCredit <= 0 {
		return fmt.Errorf("BILLING_TOKENS_PER_CREDIT must be positive")
	}
	return nil
}

// LLMAPIKey returns the key for the configured provider.
func (c *Config) LLMAPIKey() string {
	if c.LLMProvider == "openai" {
		return c.OpenAIAPIKey
	}
	return c.AnthropicAPIKey
}

// EnrichmentEnabled reports whether Unipile credentials are set.
func (c *Config) EnrichmentEnabled() bool {
	return c.UnipileDSN != "" && c.UnipileAPIKey != "" && c.UnipileAccountID != ""
}

// Addr returns the HTTP listen address.
func (c *Config) Addr() string {
	return ":" + c.ServerPort
}
