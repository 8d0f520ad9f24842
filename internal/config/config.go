package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config defines tracker configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server" toml:"server"`
	DB      DBConfig      `yaml:"db" toml:"db"`
	Events  EventsConfig  `yaml:"events" toml:"events"`
	Log     LogConfig     `yaml:"log" toml:"log"`
	Tracker TrackerConfig `yaml:"tracker" toml:"tracker"`
}

type ServerConfig struct {
	Transport string `yaml:"transport" toml:"transport" validate:"oneof=stdio http"`
	Host      string `yaml:"host" toml:"host"`
	Port      int    `yaml:"port" toml:"port" validate:"min=0,max=65535"`
}

type DBConfig struct {
	Path string `yaml:"path" toml:"path" validate:"required"`
}

type EventsConfig struct {
	Path string `yaml:"path" toml:"path" validate:"required"`
}

type LogConfig struct {
	Level string `yaml:"level" toml:"level" validate:"omitempty,oneof=debug info warn error"`
}

type TrackerConfig struct {
	TickInterval   Duration `yaml:"tick_interval" toml:"tick_interval"`
	DefaultComment string   `yaml:"default_comment" toml:"default_comment"`
}

// Duration is a time.Duration written as "1s" or "500ms" in config files.
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler, used by both decoders.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = parsed
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Transport: "stdio",
			Host:      "127.0.0.1",
			Port:      8080,
		},
		DB: DBConfig{
			Path: "psp.db",
		},
		Events: EventsConfig{
			Path: "psp-events.log",
		},
		Log: LogConfig{
			Level: "info",
		},
		Tracker: TrackerConfig{
			TickInterval:   Duration{time.Second},
			DefaultComment: "phone call",
		},
	}
}

// Load reads configuration from an optional YAML or TOML file and
// environment variables. path wins over PSP_CONFIG_PATH.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv("PSP_CONFIG_PATH")
	}
	if path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks values that would only fail later at startup.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.Tracker.TickInterval.Duration <= 0 {
		return fmt.Errorf("invalid tick interval %s", c.Tracker.TickInterval)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	if transport := os.Getenv("PSP_TRANSPORT"); transport != "" {
		cfg.Server.Transport = strings.ToLower(transport)
	}
	if host := os.Getenv("PSP_SERVER_HOST"); host != "" {
		cfg.Server.Host = host
	}
	if portStr := os.Getenv("PSP_SERVER_PORT"); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return fmt.Errorf("invalid PSP_SERVER_PORT: %w", err)
		}
		cfg.Server.Port = port
	}
	if dbPath := os.Getenv("PSP_DB_PATH"); dbPath != "" {
		cfg.DB.Path = dbPath
	}
	if eventLog := os.Getenv("PSP_EVENT_LOG"); eventLog != "" {
		cfg.Events.Path = eventLog
	}
	if level := os.Getenv("PSP_LOG_LEVEL"); level != "" {
		cfg.Log.Level = level
	}
	if interval := os.Getenv("PSP_TICK_INTERVAL"); interval != "" {
		d, err := time.ParseDuration(interval)
		if err != nil {
			return fmt.Errorf("invalid PSP_TICK_INTERVAL: %w", err)
		}
		cfg.Tracker.TickInterval = Duration{d}
	}
	if comment := os.Getenv("PSP_DEFAULT_COMMENT"); comment != "" {
		cfg.Tracker.DefaultComment = comment
	}
	return nil
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return fmt.Errorf("parse config file: %w", err)
		}
		return nil
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}
