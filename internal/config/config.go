// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading for ollachat.
//
// The Ollama connection comes from the environment (optionally seeded by a
// .env file). Ambient settings come from an optional TOML file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Environment variable names.
const (
	EnvHost       = "OLLAMA_HOST"
	EnvPort       = "OLLAMA_PORT"
	EnvModel      = "OLLAMA_MODEL"
	EnvConfigPath = "OLLACHAT_CONFIG"
	EnvUIMode     = "OLLACHAT_UI"
)

// UI modes.
const (
	UIModeAuto = "auto"
	UIModeTUI  = "tui"
	UIModeLine = "line"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config is the complete, validated configuration. It is built once at
// startup and handed to constructors; nothing reads it through a global.
type Config struct {
	// Ollama connection, from the environment only.
	Ollama OllamaConfig `toml:"-"`

	// RequestTimeout bounds one generation call. Zero means no limit.
	RequestTimeout Duration `toml:"request_timeout"`

	Log     LogConfig     `toml:"log"`
	Metrics MetricsConfig `toml:"metrics"`
	UI      UIConfig      `toml:"ui"`
}

// OllamaConfig locates the inference server.
type OllamaConfig struct {
	Host  string
	Port  uint16
	Model string
}

// LogConfig controls the structured log. The terminal belongs to the UI,
// so logs always go to a file.
type LogConfig struct {
	Level  string `toml:"level"`
	File   string `toml:"file"`
	Pretty bool   `toml:"pretty"`
}

// MetricsConfig controls the Prometheus endpoint. Empty Addr disables it.
type MetricsConfig struct {
	Addr string `toml:"addr"`
}

// UIConfig selects the front end: "auto", "tui" or "line".
type UIConfig struct {
	Mode string `toml:"mode"`
}

// Duration is a time.Duration that decodes from strings like "90s".
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// BaseURL returns the HTTP base URL for the Ollama API.
//
// Host may be bare ("localhost") or carry a scheme ("https://gpu-box"); a
// bare host gets http://. The port always comes from OLLAMA_PORT.
func (o OllamaConfig) BaseURL() (string, error) {
	raw := o.Host
	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	if u.Hostname() == "" {
		return "", errors.New("no host name")
	}
	u.Host = net.JoinHostPort(u.Hostname(), strconv.Itoa(int(o.Port)))
	u.Path = strings.TrimRight(u.Path, "/")
	return u.String(), nil
}

// =============================================================================
// DEFAULTS AND PATHS
// =============================================================================

// Default returns the configuration used when no TOML file exists.
func Default() *Config {
	logFile := "ollachat.log"
	if dir, err := ConfigDir(); err == nil {
		logFile = filepath.Join(dir, "ollachat.log")
	}
	return &Config{
		Log: LogConfig{
			Level: "info",
			File:  logFile,
		},
		UI: UIConfig{Mode: UIModeAuto},
	}
}

// ConfigDir returns ~/.ollachat.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".ollachat"), nil
}

// ConfigPath returns the TOML path: $OLLACHAT_CONFIG or ~/.ollachat/config.toml.
func ConfigPath(lookup LookupFunc) (string, error) {
	if p, ok := lookup(EnvConfigPath); ok && p != "" {
		return p, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// =============================================================================
// LOADING
// =============================================================================

// LookupFunc reads one environment variable, like os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// Load builds the configuration from the process environment, ./.env and
// the TOML file.
func Load() (*Config, error) {
	return LoadFrom(".env", os.LookupEnv)
}

// LoadFrom is Load with an explicit .env path and environment lookup.
// Variables from the environment win over the .env file. A missing .env or
// TOML file is fine; an unreadable or malformed one is an error.
func LoadFrom(envFile string, lookup LookupFunc) (*Config, error) {
	if envFile != "" {
		vars, err := godotenv.Read(envFile)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read %s: %w", envFile, err)
		}
		lookup = withFallback(lookup, vars)
	}

	cfg := Default()

	path, err := ConfigPath(lookup)
	if err != nil {
		return nil, err
	}
	if err := LoadTOML(cfg, path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	if err := cfg.applyEnv(lookup); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadTOML loads configuration from a TOML file into cfg.
func LoadTOML(cfg *Config, path string) error {
	if _, err := os.Stat(path); err != nil {
		return err
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("failed to decode TOML file %s: %w", path, err)
	}
	return nil
}

func withFallback(lookup LookupFunc, vars map[string]string) LookupFunc {
	return func(key string) (string, bool) {
		if v, ok := lookup(key); ok {
			return v, true
		}
		v, ok := vars[key]
		return v, ok
	}
}

// applyEnv reads the required Ollama variables. All problems are collected
// so the user can fix them in one go.
func (c *Config) applyEnv(lookup LookupFunc) error {
	var errs ValidateErrors

	require := func(key string) string {
		v, ok := lookup(key)
		v = strings.TrimSpace(v)
		if !ok || v == "" {
			errs = append(errs, ValidationError{Field: key, Message: "environment variable must be set"})
		}
		return v
	}

	c.Ollama.Host = require(EnvHost)
	portStr := require(EnvPort)
	c.Ollama.Model = require(EnvModel)

	if portStr != "" {
		port, err := strconv.ParseUint(portStr, 10, 16)
		if err != nil {
			errs = append(errs, ValidationError{
				Field:   EnvPort,
				Message: fmt.Sprintf("must be a port number between 0 and 65535, got %q", portStr),
			})
		}
		c.Ollama.Port = uint16(port)
	}

	if mode, ok := lookup(EnvUIMode); ok && mode != "" {
		c.UI.Mode = strings.ToLower(strings.TrimSpace(mode))
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError describes one invalid setting.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors collects every ValidationError found.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 1 {
		return e[0].Error()
	}
	msgs := make([]string, len(e))
	for i, err := range e {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("%d configuration errors: %s", len(e), strings.Join(msgs, "; "))
}

// Has reports whether field is among the errors.
func (e ValidateErrors) Has(field string) bool {
	for _, err := range e {
		if err.Field == field {
			return true
		}
	}
	return false
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	var errs ValidateErrors

	if c.Ollama.Host != "" {
		if _, err := c.Ollama.BaseURL(); err != nil {
			errs = append(errs, ValidationError{
				Field:   EnvHost,
				Message: fmt.Sprintf("invalid host %q: %v", c.Ollama.Host, err),
			})
		}
	}

	if c.RequestTimeout.Duration < 0 {
		errs = append(errs, ValidationError{
			Field:   "request_timeout",
			Message: "must be non-negative",
		})
	}

	switch c.Log.Level {
	case "", "debug", "info", "warn", "error":
	default:
		errs = append(errs, ValidationError{
			Field:   "log.level",
			Message: fmt.Sprintf("must be debug, info, warn or error, got %q", c.Log.Level),
		})
	}

	if c.Metrics.Addr != "" {
		if _, _, err := net.SplitHostPort(c.Metrics.Addr); err != nil {
			errs = append(errs, ValidationError{
				Field:   "metrics.addr",
				Message: fmt.Sprintf("invalid listen address: %v", err),
			})
		}
	}

	switch c.UI.Mode {
	case "", UIModeAuto, UIModeTUI, UIModeLine:
	default:
		errs = append(errs, ValidationError{
			Field:   "ui.mode",
			Message: fmt.Sprintf("must be auto, tui or line, got %q", c.UI.Mode),
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}
