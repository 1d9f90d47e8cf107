package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Storage drivers
const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
)

// Config holds every setting of the auction server.
// Load fills it from a YAML file, then environment variables take precedence.
type Config struct {
	Server struct {
		Port int `yaml:"port"`
	} `yaml:"server"`

	Storage struct {
		Driver     string `yaml:"driver"`
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"storage"`

	Auction struct {
		ExtensionWindow time.Duration `yaml:"extension_window"`
		MaxExtensions   int           `yaml:"max_extensions"` // 0 = unbounded
	} `yaml:"auction"`

	Scheduler struct {
		SweepInterval time.Duration `yaml:"sweep_interval"`
		MaxRetries    int           `yaml:"max_retries"`
		BaseDelay     time.Duration `yaml:"base_delay"`
		MaxDelay      time.Duration `yaml:"max_delay"`
	} `yaml:"scheduler"`

	Proofs struct {
		BaseURL string `yaml:"base_url"`
	} `yaml:"proofs"`

	Logging struct {
		Level string `yaml:"level"`
	} `yaml:"logging"`

	Events struct {
		AMQPURL  string `yaml:"amqp_url"` // empty = no broker
		Exchange string `yaml:"exchange"`
	} `yaml:"events"`
}

// Default returns a configuration that runs in memory on port 8080
func Default() *Config {
	var cfg Config
	cfg.Server.Port = 8080
	cfg.Storage.Driver = DriverMemory
	cfg.Storage.SQLitePath = "auction.db"
	cfg.Auction.ExtensionWindow = 5 * time.Minute
	cfg.Scheduler.SweepInterval = time.Second
	cfg.Scheduler.MaxRetries = 5
	cfg.Scheduler.BaseDelay = time.Second
	cfg.Scheduler.MaxDelay = time.Minute
	cfg.Proofs.BaseURL = "http://localhost:8080/proofs"
	cfg.Logging.Level = "info"
	cfg.Events.Exchange = "auction_events"
	return &cfg
}

// Load reads path over the defaults; an empty path uses defaults only
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := overrideWithEnv(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks configuration validity
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	switch c.Storage.Driver {
	case DriverMemory:
	case DriverSQLite:
		if c.Storage.SQLitePath == "" {
			return fmt.Errorf("sqlite storage requires storage.sqlite_path")
		}
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}

	if c.Auction.ExtensionWindow < 0 {
		return fmt.Errorf("auction.extension_window must not be negative")
	}
	if c.Auction.MaxExtensions < 0 {
		return fmt.Errorf("auction.max_extensions must not be negative")
	}

	if c.Scheduler.SweepInterval <= 0 {
		return fmt.Errorf("scheduler.sweep_interval must be positive")
	}
	if c.Scheduler.MaxRetries <= 0 {
		return fmt.Errorf("scheduler.max_retries must be positive")
	}
	if c.Scheduler.BaseDelay <= 0 || c.Scheduler.MaxDelay < c.Scheduler.BaseDelay {
		return fmt.Errorf("scheduler delays must satisfy 0 < base_delay <= max_delay")
	}

	u, err := url.Parse(c.Proofs.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid proofs.base_url: %q", c.Proofs.BaseURL)
	}

	if c.Events.AMQPURL != "" {
		u, err := url.Parse(c.Events.AMQPURL)
		if err != nil || (u.Scheme != "amqp" && u.Scheme != "amqps") || u.Host == "" {
			return fmt.Errorf("invalid events.amqp_url")
		}
		if c.Events.Exchange == "" {
			return fmt.Errorf("events.exchange is required with events.amqp_url")
		}
	}
	return nil
}

// overrideWithEnv applies environment variables, which win over the file
func overrideWithEnv(cfg *Config) error {
	if port := os.Getenv("PORT"); port != "" {
		p, err := strconv.Atoi(port)
		if err != nil {
			return fmt.Errorf("invalid PORT %q: %w", port, err)
		}
		cfg.Server.Port = p
	}
	if driver := os.Getenv("AUCTION_STORAGE_DRIVER"); driver != "" {
		cfg.Storage.Driver = driver
	}
	if path := os.Getenv("AUCTION_SQLITE_PATH"); path != "" {
		cfg.Storage.SQLitePath = path
	}
	if level := os.Getenv("AUCTION_LOG_LEVEL"); level != "" {
		cfg.Logging.Level = level
	}
	if amqpURL := os.Getenv("AUCTION_AMQP_URL"); amqpURL != "" {
		cfg.Events.AMQPURL = amqpURL
	}
	return nil
}
