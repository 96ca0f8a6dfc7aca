// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the server configuration, loaded from a YAML file with
// environment variable overrides for sensitive values.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Log      LogConfig      `yaml:"log"`
	Dedup    DedupConfig    `yaml:"dedup"`
	Events   EventsConfig   `yaml:"events"`
	Redis    RedisConfig    `yaml:"redis"`
	Database DatabaseConfig `yaml:"database"`
	Auth     AuthConfig     `yaml:"auth"`
	SSE      SSEConfig      `yaml:"sse"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	MaxBodyBytes    int64         `yaml:"max_body_bytes"`
	RequestTimeout  time.Duration `yaml:"request_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	HealthSentinels []string      `yaml:"health_sentinels"`
}

// LogConfig configures structured logging.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text, json
}

// DedupConfig configures tasks/send deduplication.
type DedupConfig struct {
	Window time.Duration `yaml:"window"`
}

// EventsConfig configures the event plumbing.
type EventsConfig struct {
	QueueSize        int `yaml:"queue_size"`
	SubscriberBuffer int `yaml:"subscriber_buffer"`
}

// RedisConfig configures the optional shared dedup backend. An empty Addr
// selects the in-process store.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"-"`
	DB       int    `yaml:"db"`
}

// DatabaseConfig configures the optional MySQL task store. An empty DSN
// selects the in-memory store.
type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

// AuthConfig configures the optional bearer token middleware. An empty
// key disables auth.
type AuthConfig struct {
	HMACKey string `yaml:"-"`
}

// SSEConfig configures server-sent event streams.
type SSEConfig struct {
	Heartbeat   time.Duration `yaml:"heartbeat"`
	MaxLifetime time.Duration `yaml:"max_lifetime"`
}

// DefaultConfig returns the configuration defaults.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			MaxBodyBytes:    2 << 20,
			RequestTimeout:  15 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			HealthSentinels: DefaultHealthSentinels,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Dedup: DedupConfig{
			Window: DefaultDedupWindow,
		},
		Events: EventsConfig{
			QueueSize:        1024,
			SubscriberBuffer: 64,
		},
		SSE: SSEConfig{
			Heartbeat:   15 * time.Second,
			MaxLifetime: 10 * time.Minute,
		},
	}
}

// LoadConfig loads configuration: defaults, then the YAML file at path
// when it exists, then environment overrides. An empty path skips the
// file step.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if addr := os.Getenv("A2A_LISTEN_ADDR"); addr != "" {
		cfg.Server.Addr = addr
	}
	if addr := os.Getenv("A2A_REDIS_ADDR"); addr != "" {
		cfg.Redis.Addr = addr
	}
	cfg.Redis.Password = os.Getenv("A2A_REDIS_PASSWORD")
	cfg.Auth.HMACKey = os.Getenv("A2A_AUTH_HMAC_KEY")
	if dsn := os.Getenv("A2A_DATABASE_DSN"); dsn != "" {
		cfg.Database.DSN = dsn
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}
	if c.Server.MaxBodyBytes <= 0 {
		return fmt.Errorf("server.max_body_bytes must be positive")
	}
	if c.Dedup.Window <= 0 {
		return fmt.Errorf("dedup.window must be positive")
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be one of debug, info, warn, error: %q", c.Log.Level)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json: %q", c.Log.Format)
	}
	return nil
}
