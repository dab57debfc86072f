package config

import (
	"fmt"
	"net"
	"strings"
	"time"

	pkgconfig "github.com/trinhly333/worksheet/pkg/config"
	"github.com/trinhly333/worksheet/pkg/database"
	"github.com/trinhly333/worksheet/pkg/tracing"
)

// ServiceName labels logs, metrics and traces.
const ServiceName = "worksheet"

// Email delivery modes.
const (
	EmailModeResend = "resend"
	EmailModeLog    = "log"
)

// Config holds all configuration for the worksheet server.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort        int           `env:"HTTP_PORT" envDefault:"8080"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"15s"`
	CORSOrigins     []string      `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`
	PprofCIDRs      []string      `env:"PPROF_ALLOWED_CIDRS" envDefault:"127.0.0.1/32,::1/128" envSeparator:","`

	// Admin
	AdminAPIToken string `env:"ADMIN_API_TOKEN"`

	// PostgreSQL
	DBHost     string `env:"DB_HOST" envDefault:"localhost"`
	DBPort     int    `env:"DB_PORT" envDefault:"5432"`
	DBUser     string `env:"DB_USER" envDefault:"worksheet"`
	DBPassword string `env:"DB_PASSWORD" envDefault:"worksheet"`
	DBName     string `env:"DB_NAME" envDefault:"worksheet"`
	DBSSLMode  string `env:"DB_SSLMODE" envDefault:"disable"`
	DBMaxConns int32  `env:"DB_MAX_CONNS" envDefault:"10"`

	SlowQueryThreshold time.Duration `env:"DB_SLOW_QUERY_THRESHOLD" envDefault:"200ms"`

	// Redis
	RedisHost     string `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort     int    `env:"REDIS_PORT" envDefault:"6379"`
	RedisPassword string `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	// Cart TTL in hours (default: 7 days)
	CartTTLHours int `env:"CART_TTL_HOURS" envDefault:"168"`

	// Kafka
	KafkaBrokers       []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`
	KafkaConsumerGroup string   `env:"KAFKA_CONSUMER_GROUP" envDefault:"worksheet-customer-stats"`

	// VietQR payee
	BankCode    string `env:"VIETQR_BANK_CODE" envDefault:"MB"`
	BankAccount string `env:"VIETQR_ACCOUNT_NUMBER" envDefault:"2111722834899"`
	BankHolder  string `env:"VIETQR_ACCOUNT_NAME" envDefault:"TRINH KHANH LY"`

	// Email. EmailMode is "resend" or "log".
	EmailMode    string `env:"EMAIL_MODE" envDefault:"log"`
	ResendAPIKey string `env:"RESEND_API_KEY"`
	ResendURL    string `env:"RESEND_API_URL" envDefault:"https://api.resend.com"`
	EmailFrom    string `env:"EMAIL_FROM" envDefault:"Worksheet <onboarding@resend.dev>"`
	SupportEmail string `env:"SUPPORT_EMAIL" envDefault:"contact.worksheet.vn@gmail.com"`
	SupportZalo  string `env:"SUPPORT_ZALO" envDefault:"0365905154"`

	// OpenTelemetry
	OTELEnabled    bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTELEndpoint   string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4318"`
	OTELSampleRate float64 `env:"OTEL_SAMPLE_RATE" envDefault:"1.0"`
	Version        string  `env:"SERVICE_VERSION" envDefault:"dev"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load worksheet config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate checks configuration invariants.
func (c *Config) validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	if c.CartTTLHours < 1 {
		return fmt.Errorf("CART_TTL_HOURS must be positive, got %d", c.CartTTLHours)
	}
	if c.OTELSampleRate < 0 || c.OTELSampleRate > 1 {
		return fmt.Errorf("OTEL_SAMPLE_RATE must be between 0.0 and 1.0, got %v", c.OTELSampleRate)
	}
	if len(c.KafkaBrokers) == 0 {
		return fmt.Errorf("KAFKA_BROKERS is required")
	}
	if c.BankCode == "" || c.BankAccount == "" {
		return fmt.Errorf("VIETQR_BANK_CODE and VIETQR_ACCOUNT_NUMBER are required")
	}

	switch c.EmailMode {
	case EmailModeLog:
	case EmailModeResend:
		if c.ResendAPIKey == "" {
			return fmt.Errorf("RESEND_API_KEY is required when EMAIL_MODE=%s", EmailModeResend)
		}
	default:
		return fmt.Errorf("EMAIL_MODE must be %q or %q, got %q", EmailModeResend, EmailModeLog, c.EmailMode)
	}

	for _, cidr := range c.PprofCIDRs {
		if _, _, err := net.ParseCIDR(strings.TrimSpace(cidr)); err != nil {
			return fmt.Errorf("invalid PPROF_ALLOWED_CIDRS entry %q: %w", cidr, err)
		}
	}

	if c.IsProduction() && c.AdminAPIToken == "" {
		return fmt.Errorf("ADMIN_API_TOKEN is required in production")
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func (c *Config) CartTTL() time.Duration {
	return time.Duration(c.CartTTLHours) * time.Hour
}

// Postgres builds the pool configuration.
func (c *Config) Postgres() *database.PostgresConfig {
	pg := database.DefaultPostgresConfig()
	pg.Host = c.DBHost
	pg.Port = c.DBPort
	pg.User = c.DBUser
	pg.Password = c.DBPassword
	pg.DBName = c.DBName
	pg.SSLMode = c.DBSSLMode
	pg.MaxConns = c.DBMaxConns
	return &pg
}

func (c *Config) Redis() database.RedisConfig {
	return database.RedisConfig{
		Host:     c.RedisHost,
		Port:     c.RedisPort,
		Password: c.RedisPassword,
		DB:       c.RedisDB,
	}
}

func (c *Config) Tracing() tracing.Config {
	tc := tracing.DefaultConfig(ServiceName)
	tc.ServiceVersion = c.Version
	tc.Environment = c.Environment
	tc.OTLPEndpoint = c.OTELEndpoint
	tc.SampleRate = c.OTELSampleRate
	tc.Enabled = c.OTELEnabled
	return tc
}
