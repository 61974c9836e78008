// Package config loads service configuration: defaults, then an optional YAML
// file, then environment overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"customfields/internal/domain/customfield"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Auth     AuthConfig     `yaml:"auth"`
	Log      LogConfig      `yaml:"log"`
	Limits   LimitsConfig   `yaml:"limits"`
}

type ServerConfig struct {
	Port            int           `yaml:"port"`
	Env             string        `yaml:"env"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type DatabaseConfig struct {
	URL             string        `yaml:"url"`
	MaxConns        int32         `yaml:"max_conns"`
	MinConns        int32         `yaml:"min_conns"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"`
	MaxRetries      int           `yaml:"max_retries"`
	AutoMigrate     bool          `yaml:"auto_migrate"`
}

type AuthConfig struct {
	Enabled   bool   `yaml:"enabled"`
	JWTSecret string `yaml:"jwt_secret"`
	Issuer    string `yaml:"issuer"`
}

type LogConfig struct {
	Level       string   `yaml:"level"`
	OutputPaths []string `yaml:"output_paths"`
}

type LimitsConfig struct {
	NameLength          int `yaml:"name_length"`
	HelpTextLength      int `yaml:"help_text_length"`
	OptionValueLength   int `yaml:"option_value_length"`
	DropdownMaxOptions  int `yaml:"dropdown_max_options"`
	RadioMaxOptions     int `yaml:"radio_max_options"`
	TextboxShortMaxSize int `yaml:"textbox_short_max_size"`
	TextboxLongMaxSize  int `yaml:"textbox_long_max_size"`
	MaxPageSize         int `yaml:"max_page_size"`
}

// Default returns the configuration used when nothing overrides it.
func Default() *Config {
	l := customfield.DefaultLimits()
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			Env:             "development",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		Database: DatabaseConfig{
			MaxConns:        25,
			MinConns:        5,
			MaxConnLifetime: time.Hour,
			MaxRetries:      3,
		},
		Auth: AuthConfig{
			Enabled: true,
			Issuer:  "customfields",
		},
		Log: LogConfig{
			Level: "info",
		},
		Limits: LimitsConfig{
			NameLength:          l.NameLength,
			HelpTextLength:      l.HelpTextLength,
			OptionValueLength:   l.OptionValueLength,
			DropdownMaxOptions:  l.DropdownMaxOptions,
			RadioMaxOptions:     l.RadioMaxOptions,
			TextboxShortMaxSize: l.TextboxShortMaxSize,
			TextboxLongMaxSize:  l.TextboxLongMaxSize,
			MaxPageSize:         l.MaxPageSize,
		},
	}
}

// Load reads path when it exists and applies environment overrides.
// An empty path falls back to CONFIG_PATH.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse %s: %w", path, err)
			}
		case !os.IsNotExist(err):
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	if port := os.Getenv("APP_PORT"); port != "" {
		p, err := strconv.Atoi(port)
		if err != nil {
			return fmt.Errorf("APP_PORT: %w", err)
		}
		cfg.Server.Port = p
	}
	if env := os.Getenv("APP_ENV"); env != "" {
		cfg.Server.Env = env
	}
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		cfg.Database.URL = dbURL
	}
	if logLevel := os.Getenv("LOG_LEVEL"); logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		cfg.Auth.JWTSecret = secret
	}
	if enabled := os.Getenv("AUTH_ENABLED"); enabled != "" {
		b, err := strconv.ParseBool(enabled)
		if err != nil {
			return fmt.Errorf("AUTH_ENABLED: %w", err)
		}
		cfg.Auth.Enabled = b
	}
	return nil
}

// Validate rejects configurations the server cannot start with.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	if c.Auth.Enabled && c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret is required when auth is enabled")
	}
	if c.Database.MaxRetries < 0 {
		return fmt.Errorf("database.max_retries must not be negative")
	}
	return nil
}

// IsDevelopment reports whether the service runs in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "development"
}

// CustomFieldLimits converts the limits section for the validators.
func (c *Config) CustomFieldLimits() customfield.Limits {
	return customfield.Limits{
		NameLength:          c.Limits.NameLength,
		HelpTextLength:      c.Limits.HelpTextLength,
		OptionValueLength:   c.Limits.OptionValueLength,
		DropdownMaxOptions:  c.Limits.DropdownMaxOptions,
		RadioMaxOptions:     c.Limits.RadioMaxOptions,
		TextboxShortMaxSize: c.Limits.TextboxShortMaxSize,
		TextboxLongMaxSize:  c.Limits.TextboxLongMaxSize,
		MaxPageSize:         c.Limits.MaxPageSize,
	}.WithDefaults()
}
