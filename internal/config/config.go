// Package config provides application configuration with multi-source
// priority.
//
// Configuration sources (highest to lowest priority):
//  1. Environment variables (DOCUCHAT_*, plus DATABASE_URL)
//  2. Config file (~/.docuchat/config.yaml)
//  3. Default values
//
// Sensitive values (passwords, API keys) are never logged.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Sentinel validation errors. Check with errors.Is.
var (
	// ErrConfigNil indicates the configuration is nil.
	ErrConfigNil = errors.New("configuration is nil")

	// ErrInvalidAddr indicates the server listen address is invalid.
	ErrInvalidAddr = errors.New("invalid listen address")

	// ErrInvalidPostgresHost indicates the PostgreSQL host is empty.
	ErrInvalidPostgresHost = errors.New("invalid PostgreSQL host")

	// ErrInvalidPostgresPort indicates the PostgreSQL port is out of range.
	ErrInvalidPostgresPort = errors.New("invalid PostgreSQL port")

	// ErrInvalidPostgresDBName indicates the database name is empty.
	ErrInvalidPostgresDBName = errors.New("invalid PostgreSQL database name")

	// ErrInvalidGeneratorKind indicates an unknown generator kind.
	ErrInvalidGeneratorKind = errors.New("invalid generator kind")

	// ErrMissingOpenAIKey indicates the openai generator has no API key.
	ErrMissingOpenAIKey = errors.New("missing OpenAI API key")
)

// Generator kinds selectable via generation.kind.
const (
	GeneratorSimulated = "simulated"
	GeneratorOpenAI    = "openai"
)

// Config is the full application configuration.
type Config struct {
	// Server
	ListenAddr string `mapstructure:"listen_addr"`

	// Demo mode uses seeded in-memory stores instead of PostgreSQL.
	Demo bool `mapstructure:"demo"`

	// PostgreSQL
	PostgresHost     string `mapstructure:"postgres_host"`
	PostgresPort     int    `mapstructure:"postgres_port"`
	PostgresUser     string `mapstructure:"postgres_user"`
	PostgresPassword string `mapstructure:"postgres_password"`
	PostgresDBName   string `mapstructure:"postgres_dbname"`
	PostgresSSLMode  string `mapstructure:"postgres_sslmode"`

	// Generation
	GeneratorKind   string  `mapstructure:"generator_kind"`
	OpenAIAPIKey    string  `mapstructure:"openai_api_key"`
	OpenAIBaseURL   string  `mapstructure:"openai_base_url"`
	OpenAIModel     string  `mapstructure:"openai_model"`
	GenerationRate  float64 `mapstructure:"generation_rate"`  // requests per second, 0 = unlimited
	GenerationBurst int     `mapstructure:"generation_burst"` // burst size for the rate limiter

	// Logging
	LogLevel string `mapstructure:"log_level"`
	LogJSON  bool   `mapstructure:"log_json"`
}

// Load reads configuration from defaults, config file and environment.
// A missing config file is not an error.
func Load() (*Config, error) {
	v := viper.New()

	v.SetDefault("listen_addr", "127.0.0.1:8080")
	v.SetDefault("demo", false)
	v.SetDefault("postgres_host", "localhost")
	v.SetDefault("postgres_port", 5432)
	v.SetDefault("postgres_user", "docuchat")
	v.SetDefault("postgres_password", "")
	v.SetDefault("postgres_dbname", "docuchat")
	v.SetDefault("postgres_sslmode", "disable")
	v.SetDefault("generator_kind", GeneratorSimulated)
	v.SetDefault("openai_model", "")
	v.SetDefault("generation_rate", 1.0)
	v.SetDefault("generation_burst", 3)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_json", false)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".docuchat"))
	}
	v.AddConfigPath(".")

	v.SetEnvPrefix("DOCUCHAT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	// DATABASE_URL overrides individual postgres_* settings; common in
	// cloud deployments.
	if err := cfg.parseDatabaseURL(os.Getenv("DATABASE_URL")); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the configuration for structural problems.
func (c *Config) Validate() error {
	if c == nil {
		return ErrConfigNil
	}
	if c.ListenAddr == "" {
		return ErrInvalidAddr
	}

	if !c.Demo {
		if c.PostgresHost == "" {
			return ErrInvalidPostgresHost
		}
		if c.PostgresPort < 1 || c.PostgresPort > 65535 {
			return fmt.Errorf("%w: %d", ErrInvalidPostgresPort, c.PostgresPort)
		}
		if c.PostgresDBName == "" {
			return ErrInvalidPostgresDBName
		}
	}

	switch c.GeneratorKind {
	case GeneratorSimulated:
	case GeneratorOpenAI:
		if c.OpenAIAPIKey == "" {
			return ErrMissingOpenAIKey
		}
	default:
		return fmt.Errorf("%w: %q", ErrInvalidGeneratorKind, c.GeneratorKind)
	}

	return nil
}
