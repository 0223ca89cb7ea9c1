package config

import (
	"fmt"
	"log"
	"time"
	_ "time/tzdata"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// State store backends.
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
	StoreRedis    = "redis"
)

type Config struct {
	TelegramToken string `env:"TELEGRAM_TOKEN,required"`
	Environment   string `env:"ENV" envDefault:"development"`
	LogLevel      string `env:"LOG_LEVEL"`
	TimeZone      string `env:"TZ_NAME" envDefault:"Asia/Bangkok"`

	BackendURL      string        `env:"BACKEND_URL,required"`
	BackendUser     string        `env:"BACKEND_USER"`
	BackendPassword string        `env:"BACKEND_PASSWORD"`
	HTTPTimeout     time.Duration `env:"HTTP_TIMEOUT" envDefault:"10s"`
	FeedbackUpload  bool          `env:"FEEDBACK_UPLOAD" envDefault:"true"`

	StateStore    string `env:"STATE_STORE" envDefault:"memory"`
	DBDSN         string `env:"DB_DSN"`
	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`

	ReconcileInterval time.Duration `env:"RECONCILE_INTERVAL" envDefault:"5m"`

	AllowedChatIDs []int64 `env:"ALLOWED_CHAT_IDS" envSeparator:","`
	StaffChatIDs   []int64 `env:"STAFF_CHAT_IDS" envSeparator:","`
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	// The logger is built from this config, so the std logger reports here.
	if err := godotenv.Load(".env"); err != nil {
		log.Println("No .env file found, using environment variables")
	} else {
		log.Println("Loaded configuration from .env file")
	}
	return Parse(nil)
}

// Parse builds the config from environment. A nil environment means the
// process environment.
func Parse(environment map[string]string) (*Config, error) {
	cfg := &Config{}
	opts := env.Options{Environment: environment}
	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.StateStore {
	case StoreMemory:
	case StorePostgres:
		if c.DBDSN == "" {
			return fmt.Errorf("DB_DSN is required when STATE_STORE=%s", StorePostgres)
		}
	case StoreRedis:
		if c.RedisAddr == "" {
			return fmt.Errorf("REDIS_ADDR is required when STATE_STORE=%s", StoreRedis)
		}
	default:
		return fmt.Errorf("unknown STATE_STORE %q", c.StateStore)
	}
	if c.BackendUser != "" && c.BackendPassword == "" {
		return fmt.Errorf("BACKEND_PASSWORD is required with BACKEND_USER")
	}
	if c.ReconcileInterval <= 0 {
		return fmt.Errorf("RECONCILE_INTERVAL must be positive")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location resolves TZ_NAME; calendar days are computed in it.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("load time zone %q: %w", c.TimeZone, err)
	}
	return loc, nil
}
