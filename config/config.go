package config

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/caarlos0/env/v11"
	log "github.com/sirupsen/logrus"
)

// Storage backends
const (
	StorageJSON     = "json"
	StoragePostgres = "postgres"
)

// Config holds all application configuration
type Config struct {
	// Discord configuration
	DiscordToken   string   `env:"DISCORD_TOKEN"`
	DiscordGuildID string   `env:"DISCORD_GUILD_ID"`
	CommandPrefix  string   `env:"COMMAND_PREFIX" envDefault:"!"`
	AdminUserIDs   []string `env:"ADMIN_USER_IDS" envSeparator:","`

	// Storage configuration
	StorageBackend string `env:"STORAGE_BACKEND" envDefault:"json"`
	LedgerPath     string `env:"LEDGER_PATH" envDefault:"data/ledger.json"`
	SettingsPath   string `env:"SETTINGS_PATH" envDefault:"data/settings.json"`
	DatabaseURL    string `env:"DATABASE_URL"`
	DatabaseName   string `env:"DATABASE_NAME"`

	// Economy configuration
	DefaultInterestRate   float64       `env:"DEFAULT_INTEREST_RATE" envDefault:"0.01"`
	DefaultInterestPeriod time.Duration `env:"DEFAULT_INTEREST_PERIOD" envDefault:"24h"`
	DiceTimeout           time.Duration `env:"DICE_TIMEOUT" envDefault:"60s"`

	// Command flood protection, per user
	CommandRatePerSecond float64 `env:"COMMAND_RATE_PER_SECOND" envDefault:"1"`
	CommandBurst         int     `env:"COMMAND_BURST" envDefault:"5"`

	// Optional integrations
	NATSURL      string `env:"NATS_URL"`
	NATSSubject  string `env:"NATS_SUBJECT_PREFIX" envDefault:"economy"`
	DebugAPIAddr string `env:"DEBUG_API_ADDR"` // loopback only, the debug API has no authentication

	// Environment
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
}

var (
	instance *Config
	once     sync.Once
)

// Get returns the global configuration instance
func Get() *Config {
	once.Do(func() {
		if instance != nil {
			return
		}
		var err error
		instance, err = Load()
		if err != nil {
			panic(fmt.Sprintf("failed to load config: %v", err))
		}
	})
	return instance
}

// SetForTesting replaces the global configuration
func SetForTesting(cfg *Config) {
	once.Do(func() {})
	instance = cfg
}

// Load parses and validates configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks required settings and value ranges
func (c *Config) Validate() error {
	c.StorageBackend = strings.ToLower(strings.TrimSpace(c.StorageBackend))

	admins := c.AdminUserIDs[:0]
	for _, id := range c.AdminUserIDs {
		if id = strings.TrimSpace(id); id != "" {
			admins = append(admins, id)
		}
	}
	c.AdminUserIDs = admins

	var errs []error
	if c.Environment != "test" && c.DiscordToken == "" {
		errs = append(errs, errors.New("DISCORD_TOKEN is required"))
	}
	switch c.StorageBackend {
	case StorageJSON:
		if c.LedgerPath == "" || c.SettingsPath == "" {
			errs = append(errs, errors.New("LEDGER_PATH and SETTINGS_PATH are required for the json backend"))
		}
	case StoragePostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for the postgres backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown STORAGE_BACKEND %q", c.StorageBackend))
	}
	if c.CommandPrefix == "" {
		errs = append(errs, errors.New("COMMAND_PREFIX must not be empty"))
	}
	if c.DefaultInterestRate < 0 || c.DefaultInterestRate > 1 {
		errs = append(errs, errors.New("DEFAULT_INTEREST_RATE must be between 0 and 1"))
	}
	if c.DefaultInterestPeriod < time.Second {
		errs = append(errs, errors.New("DEFAULT_INTEREST_PERIOD must be at least 1s"))
	}
	if c.DiceTimeout <= 0 {
		errs = append(errs, errors.New("DICE_TIMEOUT must be positive"))
	}
	if c.CommandRatePerSecond <= 0 || c.CommandBurst < 1 {
		errs = append(errs, errors.New("COMMAND_RATE_PER_SECOND and COMMAND_BURST must be positive"))
	}

	if c.DebugAPIAddr != "" {
		if err := checkLoopbackAddr(c.DebugAPIAddr); err != nil {
			errs = append(errs, fmt.Errorf("DEBUG_API_ADDR: %w", err))
		}
	}

	return errors.Join(errs...)
}

// checkLoopbackAddr accepts host:port addresses that only listen on the local machine
func checkLoopbackAddr(addr string) error {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return err
	}
	if host == "localhost" {
		return nil
	}
	if ip := net.ParseIP(host); ip != nil && ip.IsLoopback() {
		return nil
	}
	return fmt.Errorf("%q is not a loopback address, use e.g. 127.0.0.1:8081", addr)
}

// ConfigureLogging applies LOG_LEVEL and picks the JSON formatter in production
func (c *Config) ConfigureLogging() {
	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		log.WithField("level", c.LogLevel).Warn("Unknown LOG_LEVEL, using info")
		level = log.InfoLevel
	}
	log.SetLevel(level)

	if c.Environment == "production" {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
}
