package config

import (
	"fmt"
	"time"

	pkgconfig "github.com/babulakterfsd/gizmobuy-backend/pkg/config"
)

// Config holds all configuration for the gizmobuy backend.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort int `env:"HTTP_PORT" envDefault:"8080"`

	// PostgreSQL
	PostgresHost string `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort int    `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser string `env:"POSTGRES_USER" envDefault:"gizmobuy"`
	PostgresPass string `env:"POSTGRES_PASSWORD" envDefault:"gizmobuy_secret"`
	PostgresDB   string `env:"POSTGRES_DB_NAME" envDefault:"gizmobuy_db"`
	PostgresSSL  string `env:"POSTGRES_SSL_MODE" envDefault:"disable"`

	// Connection pool tuning
	DBMaxConns            int `env:"DB_MAX_CONNS" envDefault:"25"`
	DBMinConns            int `env:"DB_MIN_CONNS" envDefault:"5"`
	DBMaxConnLifetimeMins int `env:"DB_MAX_CONN_LIFETIME_MINS" envDefault:"60"`
	DBMaxConnIdleTimeMins int `env:"DB_MAX_CONN_IDLE_TIME_MINS" envDefault:"30"`
	SlowQueryThresholdMs  int `env:"SLOW_QUERY_THRESHOLD_MS" envDefault:"200"`

	// Kafka
	KafkaBrokers []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`

	// SSLCommerz
	StoreID        string        `env:"SSLCOMMERZ_STORE_ID"`
	StorePassword  string        `env:"SSLCOMMERZ_STORE_PASSWORD"`
	GatewayBaseURL string        `env:"SSLCOMMERZ_BASE_URL" envDefault:"https://sandbox.sslcommerz.com/gwprocess/v4/api.php"`
	GatewayTimeout time.Duration `env:"SSLCOMMERZ_TIMEOUT" envDefault:"10s"`

	// Callback and storefront redirect targets
	CallbackBaseURL    string `env:"CALLBACK_BASE_URL" envDefault:"http://localhost:8080"`
	SuccessRedirectURL string `env:"SUCCESS_REDIRECT_URL" envDefault:"http://localhost:3000/order-successful"`
	FailRedirectURL    string `env:"FAIL_REDIRECT_URL" envDefault:"http://localhost:3000/order-failed"`
	CancelRedirectURL  string `env:"CANCEL_REDIRECT_URL" envDefault:"http://localhost:3000/order-cancelled"`
	Currency           string `env:"PAYMENT_CURRENCY" envDefault:"USD"`

	// Auth
	JWTSecret string `env:"JWT_ACCESS_SECRET"`

	// CORS
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`

	// Pprof debug endpoints, empty means disabled.
	PprofAllowedCIDRs []string `env:"PPROF_ALLOWED_CIDRS" envSeparator:","`

	// OpenTelemetry
	OTELEnabled    bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTELEndpoint   string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4318"`
	OTELSampleRate float64 `env:"OTEL_SAMPLE_RATE" envDefault:"1.0"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load gizmobuy config: %w", err)
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
	if c.Environment != "development" && c.JWTSecret == "" {
		return fmt.Errorf("JWT_ACCESS_SECRET is required outside development")
	}
	if c.Environment != "development" && (c.StoreID == "" || c.StorePassword == "") {
		return fmt.Errorf("SSLCommerz store credentials are required outside development")
	}
	return nil
}

// PostgresDSN returns the PostgreSQL connection string.
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.PostgresUser, c.PostgresPass, c.PostgresHost, c.PostgresPort, c.PostgresDB, c.PostgresSSL,
	)
}
