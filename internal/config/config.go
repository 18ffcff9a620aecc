package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

// Config is read from the environment, optionally seeded from a .env file.
type Config struct {
	ServiceName string `envconfig:"SERVICE_NAME" default:"farm-ledger"`
	Env         string `envconfig:"ENV" default:"dev"`
	Port        string `envconfig:"PORT" default:"3000"`
	LogFile     string `envconfig:"LOG_FILE"`

	DatabaseURL string `envconfig:"DATABASE_URL"`
	DBHost      string `envconfig:"DB_HOST" default:"localhost"`
	DBUser      string `envconfig:"DB_USER" default:"postgres"`
	DBPassword  string `envconfig:"DB_PASSWORD"`
	DBName      string `envconfig:"DB_NAME" default:"farm_ledger"`
	DBPort      string `envconfig:"DB_PORT" default:"5432"`
	DBTimeZone  string `envconfig:"DB_TIMEZONE" default:"UTC"`

	JWTSecret      string        `envconfig:"JWT_SECRET" default:"your-super-secret-key-change-in-production"`
	TokenTTL       time.Duration `envconfig:"TOKEN_TTL" default:"24h"`
	SessionTimeout time.Duration `envconfig:"SESSION_TIMEOUT" default:"30m"`
	AdminEmail     string        `envconfig:"ADMIN_EMAIL" default:"admin@example.com"`
	AdminPassword  string        `envconfig:"ADMIN_PASSWORD" default:"admin123"`

	LedgerKey    string        `envconfig:"LEDGER_KEY" default:"inventory_ledger"`
	LedgerStore  string        `envconfig:"LEDGER_STORE" default:"postgres"`
	SyncInterval time.Duration `envconfig:"SYNC_INTERVAL" default:"5s"`
}

// Load reads .env when present and decodes the environment into a Config.
func Load() (*Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.LedgerStore {
	case StorePostgres, StoreMemory:
	default:
		return fmt.Errorf("config: LEDGER_STORE must be %q or %q, got %q", StorePostgres, StoreMemory, c.LedgerStore)
	}
	if c.SyncInterval < 0 {
		return fmt.Errorf("config: SYNC_INTERVAL must not be negative")
	}
	if c.LedgerKey == "" {
		return fmt.Errorf("config: LEDGER_KEY must not be empty")
	}
	return nil
}

// DSN returns DATABASE_URL or a key/value DSN assembled from the DB_* parts.
func (c *Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=%s",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort, c.DBTimeZone,
	)
}

// UsesDatabase reports whether Postgres is needed at all.
func (c *Config) UsesDatabase() bool {
	return c.LedgerStore == StorePostgres
}
