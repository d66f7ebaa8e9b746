package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/tailscale/hujson"
)

const (
	backendMemory = "memory"
	backendPaged  = "paged"
	backendSQLite = "sqlite"
)

var (
	errConfigFileRead = errors.New("cannot read config file")
	errConfigInvalid  = errors.New("invalid config")
)

// Config holds all demo settings. Every field may be set in a JSONC file
// and overridden by the matching flag.
type Config struct {
	Backend       string  `json:"backend"`
	Size          int     `json:"size"`
	Start         int64   `json:"start"`
	PageSize      int     `json:"page_size"` //nolint:tagliatelle // snake_case for config file
	Delay         string  `json:"delay"`
	FailRate      float64 `json:"fail_rate"` //nolint:tagliatelle // snake_case for config file
	Seed          uint64  `json:"seed"`
	CachePages    int     `json:"cache_pages"`    //nolint:tagliatelle // snake_case for config file
	MaxConcurrent int64   `json:"max_concurrent"` //nolint:tagliatelle // snake_case for config file
	LogLevel      string  `json:"log_level"`      //nolint:tagliatelle // snake_case for config file
	JSONLogs      bool    `json:"json_logs"`      //nolint:tagliatelle // snake_case for config file
	Quiet         bool    `json:"quiet"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Backend:    backendMemory,
		Size:       50,
		Start:      20,
		PageSize:   8,
		CachePages: 4,
		Delay:      "2ms",
		Seed:       1,
		LogLevel:   "warn",
	}
}

// delay returns the parsed Delay. validate has already checked it.
func (c Config) delay() time.Duration {
	d, _ := time.ParseDuration(c.Delay)
	return d
}

// level returns the parsed LogLevel. validate has already checked it.
func (c Config) level() slog.Level {
	var l slog.Level
	_ = l.UnmarshalText([]byte(c.LogLevel))
	return l
}

func (c Config) validate() error {
	switch c.Backend {
	case backendMemory, backendPaged, backendSQLite:
	default:
		return fmt.Errorf("%w: unknown backend %q (want %s, %s or %s)",
			errConfigInvalid, c.Backend, backendMemory, backendPaged, backendSQLite)
	}
	if c.Size < 0 {
		return fmt.Errorf("%w: size must not be negative", errConfigInvalid)
	}
	if c.PageSize < 1 {
		return fmt.Errorf("%w: page_size must be positive", errConfigInvalid)
	}
	if c.CachePages < 0 {
		return fmt.Errorf("%w: cache_pages must not be negative", errConfigInvalid)
	}
	if c.FailRate < 0 || c.FailRate > 1 {
		return fmt.Errorf("%w: fail_rate must be within [0, 1]", errConfigInvalid)
	}
	if _, err := time.ParseDuration(c.Delay); err != nil {
		return fmt.Errorf("%w: delay: %w", errConfigInvalid, err)
	}
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return fmt.Errorf("%w: log_level: %w", errConfigInvalid, err)
	}
	return nil
}

// loadConfigFile reads a JSONC config file on top of base. Keys absent from
// the file keep their value from base.
func loadConfigFile(path string, base Config) (Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is intentionally user-controlled
	if err != nil {
		return Config{}, fmt.Errorf("%w: %s: %w", errConfigFileRead, path, err)
	}

	cfg, err := parseConfig(data, base)
	if err != nil {
		return Config{}, fmt.Errorf("%w %s: %w", errConfigInvalid, path, err)
	}
	return cfg, nil
}

func parseConfig(data []byte, base Config) (Config, error) {
	// Standardize JSONC to JSON
	standardized, err := hujson.Standardize(data)
	if err != nil {
		return Config{}, fmt.Errorf("invalid JSONC: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader(standardized))
	dec.DisallowUnknownFields()

	cfg := base
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("invalid JSON: %w", err)
	}
	return cfg, nil
}
