package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/subosito/gotenv"
)

const (
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
)

type Config struct {
	AppEnv   string `env:"APP_ENV" envDefault:"development"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	LogDir   string `env:"LOG_DIR" envDefault:"./logging/logs"`
	Port     string `env:"APP_PORT" envDefault:"8080"`

	StorageDriver     string        `env:"STORAGE_DRIVER" envDefault:"sqlite"`
	FullDSN           string        `env:"FULL_DSN"`
	DBUser            string        `env:"DB_USER"`
	DBPass            string        `env:"DB_PASS"`
	DBHost            string        `env:"DB_HOST"`
	DBPort            string        `env:"DB_PORT"`
	DBName            string        `env:"DB_NAME" envDefault:"finance_tracker"`
	SQLitePath        string        `env:"SQLITE_PATH" envDefault:"finance.db"`
	DBConnectAttempts int           `env:"DB_CONNECT_ATTEMPTS" envDefault:"15"`
	DBConnectDelay    time.Duration `env:"DB_CONNECT_DELAY" envDefault:"3s"`

	QuoteBaseURL       string        `env:"QUOTE_BASE_URL" envDefault:"https://query1.finance.yahoo.com"`
	OracleTimeout      time.Duration `env:"ORACLE_TIMEOUT" envDefault:"10s"`
	FallbackUSDINRRate float64       `env:"FALLBACK_USD_INR_RATE" envDefault:"84.0"`

	CORSOrigins []string `env:"CORS_ORIGINS" envSeparator:"," envDefault:"*"`

	ClassifierCacheSize int64         `env:"CLASSIFIER_CACHE_SIZE" envDefault:"64"`
	ClassifierCacheTTL  time.Duration `env:"CLASSIFIER_CACHE_TTL" envDefault:"10m"`
}

// Load reads an optional .env file and then the process environment.
func Load() (Config, error) {
	if err := gotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("failed to load env variables: %w", err)
	}
	return Parse()
}

// Parse reads the configuration from the process environment only.
func Parse() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.StorageDriver = strings.ToLower(strings.TrimSpace(cfg.StorageDriver))
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (cfg Config) Validate() error {
	switch cfg.StorageDriver {
	case DriverMySQL, DriverPostgres, DriverSQLite, DriverMemory:
	default:
		return fmt.Errorf("unsupported storage driver: %q", cfg.StorageDriver)
	}
	if cfg.OracleTimeout <= 0 {
		return fmt.Errorf("oracle timeout must be positive, got %s", cfg.OracleTimeout)
	}
	if cfg.FallbackUSDINRRate <= 0 {
		return fmt.Errorf("fallback USD/INR rate must be positive, got %v", cfg.FallbackUSDINRRate)
	}
	if cfg.DBConnectAttempts < 1 {
		return fmt.Errorf("db connect attempts must be at least 1, got %d", cfg.DBConnectAttempts)
	}
	return nil
}
