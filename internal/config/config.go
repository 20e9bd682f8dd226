// Package config loads the helper's optional config.json and resolves it
// against environment variables and CLI flags.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/leonletto/edge-copilot-helper/internal/patch"
	"github.com/leonletto/edge-copilot-helper/internal/watcher"
)

// DefaultLogRetentionDays is how long daily log files are kept.
const DefaultLogRetentionDays = 7

// File is the on-disk config.json. Every field is optional.
type File struct {
	Strategy            string   `json:"strategy,omitempty"`
	PollIntervalSeconds int      `json:"poll_interval_seconds,omitempty"`
	CountryCode         string   `json:"country_code,omitempty"`
	ProcessNames        []string `json:"process_names,omitempty"`
	BundlePrefixes      []string `json:"bundle_prefixes,omitempty"`
	LogRetentionDays    int      `json:"log_retention_days,omitempty"`
	History             *bool    `json:"history,omitempty"`
}

// Config is the resolved runtime configuration.
type Config struct {
	Strategy         watcher.Strategy
	PollInterval     time.Duration
	Country          string
	ProcessNames     []string // empty means the platform defaults
	BundlePrefixes   []string // empty means the Edge defaults
	LogRetentionDays int
	History          bool
}

// Overrides carries CLI flag values. Zero values are ignored.
type Overrides struct {
	Strategy     string
	PollInterval time.Duration
}

// LoadFile reads config.json at path.
// Returns a zero-value File (all defaults) if the file doesn't exist.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304 - path from the app install directory or --config
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &File{}, nil
		}
		return nil, err
	}

	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &f, nil
}

// Load resolves configuration with the following priority:
// 1. CLI flags (highest)
// 2. Environment variables (EDGE_HELPER_STRATEGY, EDGE_HELPER_POLL_INTERVAL, EDGE_HELPER_COUNTRY)
// 3. config.json at path
// 4. Built-in defaults.
func Load(path string, flags Overrides) (*Config, error) {
	f, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	return Resolve(f, os.Getenv, flags)
}

// Resolve applies environment and flag overrides to f and validates the
// result.
func Resolve(f *File, getenv func(string) string, flags Overrides) (*Config, error) {
	if getenv == nil {
		getenv = func(string) string { return "" }
	}

	strategy := f.Strategy
	interval := time.Duration(f.PollIntervalSeconds) * time.Second
	country := f.CountryCode

	if v := getenv("EDGE_HELPER_STRATEGY"); v != "" {
		strategy = v
	}
	if v := getenv("EDGE_HELPER_POLL_INTERVAL"); v != "" {
		d, err := parseInterval(v)
		if err != nil {
			return nil, fmt.Errorf("EDGE_HELPER_POLL_INTERVAL: %w", err)
		}
		interval = d
	}
	if v := getenv("EDGE_HELPER_COUNTRY"); v != "" {
		country = v
	}

	if flags.Strategy != "" {
		strategy = flags.Strategy
	}
	if flags.PollInterval != 0 {
		interval = flags.PollInterval
	}

	cfg := &Config{
		ProcessNames:     f.ProcessNames,
		BundlePrefixes:   f.BundlePrefixes,
		LogRetentionDays: f.LogRetentionDays,
		History:          f.History == nil || *f.History,
	}

	var err error
	cfg.Strategy, err = watcher.ParseStrategy(strategy)
	if err != nil {
		return nil, err
	}

	if interval < 0 {
		return nil, fmt.Errorf("poll interval must be positive, got %s", interval)
	}
	if interval == 0 {
		interval = watcher.DefaultPollInterval
	}
	cfg.PollInterval = interval

	if country == "" {
		country = patch.DefaultCountry
	}
	country = strings.ToUpper(country)
	if !validCountry(country) {
		return nil, fmt.Errorf("country code must be two letters, got %q", country)
	}
	cfg.Country = country

	if cfg.LogRetentionDays <= 0 {
		cfg.LogRetentionDays = DefaultLogRetentionDays
	}
	return cfg, nil
}

// parseInterval accepts a Go duration ("5s") or whole seconds ("5").
func parseInterval(s string) (time.Duration, error) {
	if n, err := strconv.Atoi(s); err == nil {
		return time.Duration(n) * time.Second, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid interval %q", s)
	}
	return d, nil
}

func validCountry(s string) bool {
	if len(s) != 2 {
		return false
	}
	for _, r := range s {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}
