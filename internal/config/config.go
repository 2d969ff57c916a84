// Package config reads service settings from the environment, after loading
// an optional .env file.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/docusign/api-request-builder-open-src/internal/schema"
)

// Config holds the service settings.
type Config struct {
	Port int
	// SchemaTables is a compiled tables file; empty means the embedded one.
	SchemaTables string
	AccountID    string
	AccessToken  string
	// CacheSize bounds the number of lowered requests kept per process.
	CacheSize          int
	SessionIdleTimeout time.Duration
	SessionMaxAge      time.Duration
}

// Defaults returns the settings used when the environment says nothing.
func Defaults() Config {
	return Config{
		Port:               8080,
		CacheSize:          512,
		SessionIdleTimeout: 30 * time.Minute,
		SessionMaxAge:      24 * time.Hour,
	}
}

// Load reads .env (if present) and the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from getenv, starting from Defaults.
func FromEnv(getenv func(string) string) (*Config, error) {
	cfg := Defaults()
	get := func(key string) string { return strings.TrimSpace(getenv(key)) }

	var err error
	if v := get("PORT"); v != "" {
		if cfg.Port, err = strconv.Atoi(strings.TrimPrefix(v, ":")); err != nil {
			return nil, fmt.Errorf("PORT: %w", err)
		}
	}
	if v := get("LOWERING_CACHE_SIZE"); v != "" {
		if cfg.CacheSize, err = strconv.Atoi(v); err != nil || cfg.CacheSize <= 0 {
			return nil, fmt.Errorf("LOWERING_CACHE_SIZE: must be a positive integer, got %q", v)
		}
	}
	if v := get("SESSION_IDLE_TIMEOUT"); v != "" {
		if cfg.SessionIdleTimeout, err = time.ParseDuration(v); err != nil {
			return nil, fmt.Errorf("SESSION_IDLE_TIMEOUT: %w", err)
		}
	}
	if v := get("SESSION_MAX_AGE"); v != "" {
		if cfg.SessionMaxAge, err = time.ParseDuration(v); err != nil {
			return nil, fmt.Errorf("SESSION_MAX_AGE: %w", err)
		}
	}
	cfg.SchemaTables = get("SCHEMA_TABLES")
	cfg.AccountID = get("DS_ACCOUNT_ID")
	cfg.AccessToken = get("DS_ACCESS_TOKEN")
	return &cfg, nil
}

// Tables loads the configured schema tables.
func (c *Config) Tables() (*schema.Tables, error) {
	if c.SchemaTables == "" {
		return schema.Default()
	}
	return schema.LoadFile(c.SchemaTables)
}
