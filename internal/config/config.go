// Copyright (c) 2025 CertNode
//
// This file is part of certnode-go.
//
// Licensed under the Apache License, Version 2.0.
// See the LICENSE file for details.

// Package config loads the receipt service configuration from YAML
// with CERTNODE_-prefixed environment overrides.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the complete receipt service configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server" mapstructure:"server"`
	Logging LoggingConfig `yaml:"logging" mapstructure:"logging"`
	Signing SigningConfig `yaml:"signing" mapstructure:"signing"`
	JWKS    JWKSConfig    `yaml:"jwks" mapstructure:"jwks"`
	Metrics MetricsConfig `yaml:"metrics" mapstructure:"metrics"`
}

// ServerConfig contains listener settings.
type ServerConfig struct {
	Host         string        `yaml:"host" mapstructure:"host"`
	Port         int           `yaml:"port" mapstructure:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout" mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout" mapstructure:"idle_timeout"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// SigningConfig controls the service signing key.
type SigningConfig struct {
	// Algorithm selects the generated key type when KeyFile is empty:
	// ES256 or EdDSA.
	Algorithm string `yaml:"algorithm" mapstructure:"algorithm"`

	// KeyFile is a path to a private JWK. Empty means generate an
	// ephemeral key at startup.
	KeyFile string `yaml:"key_file" mapstructure:"key_file"`
}

// JWKSConfig controls verification key sourcing.
type JWKSConfig struct {
	// URL is a remote JWKS endpoint for the verify API. Empty means
	// verify only against the service's own signing key.
	URL string `yaml:"url" mapstructure:"url"`

	// TTL is the JWKS cache lifetime.
	TTL time.Duration `yaml:"ttl" mapstructure:"ttl"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
}

// Default returns the configuration used when no file is provided.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		Logging: LoggingConfig{Level: "info", Format: "text"},
		Signing: SigningConfig{Algorithm: "ES256"},
		JWKS:    JWKSConfig{TTL: 5 * time.Minute},
		Metrics: MetricsConfig{Enabled: true},
	}
}

// Load reads configuration from path, applying defaults for anything
// unset. An empty path returns the defaults with environment
// overrides applied.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("CERTNODE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := Default()
	v.SetDefault("server.host", defaults.Server.Host)
	v.SetDefault("server.port", defaults.Server.Port)
	v.SetDefault("server.read_timeout", defaults.Server.ReadTimeout)
	v.SetDefault("server.write_timeout", defaults.Server.WriteTimeout)
	v.SetDefault("server.idle_timeout", defaults.Server.IdleTimeout)
	v.SetDefault("logging.level", defaults.Logging.Level)
	v.SetDefault("logging.format", defaults.Logging.Format)
	v.SetDefault("signing.algorithm", defaults.Signing.Algorithm)
	v.SetDefault("jwks.ttl", defaults.JWKS.TTL)
	v.SetDefault("metrics.enabled", defaults.Metrics.Enabled)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: failed to read %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: failed to unmarshal: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("config: invalid server port %d", c.Server.Port)
	}
	switch strings.ToUpper(c.Signing.Algorithm) {
	case "ES256", "EDDSA":
	default:
		return fmt.Errorf("config: unsupported signing algorithm %q", c.Signing.Algorithm)
	}
	if c.JWKS.TTL < 0 {
		return fmt.Errorf("config: jwks ttl must not be negative")
	}
	return nil
}
