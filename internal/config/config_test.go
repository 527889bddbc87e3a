// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// envMap returns a LookupFunc over vars. OLLACHAT_CONFIG points at a file
// that does not exist unless the test sets it, so a developer's real
// ~/.ollachat/config.toml never leaks into results.
func envMap(t *testing.T, vars map[string]string) LookupFunc {
	t.Helper()
	if _, ok := vars[EnvConfigPath]; !ok {
		vars[EnvConfigPath] = filepath.Join(t.TempDir(), "missing.toml")
	}
	return func(key string) (string, bool) {
		v, ok := vars[key]
		return v, ok
	}
}

func validEnv() map[string]string {
	return map[string]string{
		EnvHost:  "localhost",
		EnvPort:  "11434",
		EnvModel: "llama3",
	}
}

func TestLoadFrom_Valid(t *testing.T) {
	cfg, err := LoadFrom("", envMap(t, validEnv()))
	require.NoError(t, err)

	assert.Equal(t, "localhost", cfg.Ollama.Host)
	assert.Equal(t, uint16(11434), cfg.Ollama.Port)
	assert.Equal(t, "llama3", cfg.Ollama.Model)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, UIModeAuto, cfg.UI.Mode)
	assert.Zero(t, cfg.RequestTimeout.Duration, "no timeout unless configured")

	url, err := cfg.Ollama.BaseURL()
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:11434", url)
}

func TestLoadFrom_MissingPortNamesVariable(t *testing.T) {
	env := validEnv()
	delete(env, EnvPort)

	_, err := LoadFrom("", envMap(t, env))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "OLLAMA_PORT")

	var verrs ValidateErrors
	require.True(t, errors.As(err, &verrs))
	assert.True(t, verrs.Has(EnvPort))
	assert.False(t, verrs.Has(EnvHost))
}

func TestLoadFrom_ReportsEveryMissingVariable(t *testing.T) {
	_, err := LoadFrom("", envMap(t, map[string]string{EnvHost: "  "}))
	require.Error(t, err)

	var verrs ValidateErrors
	require.True(t, errors.As(err, &verrs))
	assert.Len(t, verrs, 3)
	for _, key := range []string{EnvHost, EnvPort, EnvModel} {
		assert.True(t, verrs.Has(key), "missing %s", key)
	}
}

func TestLoadFrom_InvalidPort(t *testing.T) {
	for _, port := range []string{"abc", "-1", "65536", "11434.5"} {
		t.Run(port, func(t *testing.T) {
			env := validEnv()
			env[EnvPort] = port

			_, err := LoadFrom("", envMap(t, env))
			require.Error(t, err)
			assert.Contains(t, err.Error(), "OLLAMA_PORT: must be a port number")
		})
	}
}

func TestLoadFrom_PortBounds(t *testing.T) {
	for _, port := range []string{"0", "65535"} {
		env := validEnv()
		env[EnvPort] = port
		_, err := LoadFrom("", envMap(t, env))
		assert.NoError(t, err, "port %s", port)
	}
}

func TestLoadFrom_DotEnvFallback(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("OLLAMA_HOST=from-file\nOLLAMA_PORT=1234\nOLLAMA_MODEL=mistral\n"), 0o600))

	cfg, err := LoadFrom(envFile, envMap(t, map[string]string{EnvModel: "llama3"}))
	require.NoError(t, err)

	assert.Equal(t, "from-file", cfg.Ollama.Host)
	assert.Equal(t, uint16(1234), cfg.Ollama.Port)
	assert.Equal(t, "llama3", cfg.Ollama.Model, "process environment wins over .env")
}

func TestLoadFrom_MissingDotEnvIsFine(t *testing.T) {
	_, err := LoadFrom(filepath.Join(t.TempDir(), ".env"), envMap(t, validEnv()))
	assert.NoError(t, err)
}

func TestLoadFrom_TOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
request_timeout = "90s"

[log]
level = "debug"
file = "/tmp/ollachat-test.log"

[metrics]
addr = "127.0.0.1:9464"

[ui]
mode = "line"
`), 0o600))

	env := validEnv()
	env[EnvConfigPath] = path

	cfg, err := LoadFrom("", envMap(t, env))
	require.NoError(t, err)

	assert.Equal(t, 90*time.Second, cfg.RequestTimeout.Duration)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "/tmp/ollachat-test.log", cfg.Log.File)
	assert.Equal(t, "127.0.0.1:9464", cfg.Metrics.Addr)
	assert.Equal(t, UIModeLine, cfg.UI.Mode)
}

func TestLoadFrom_UIModeEnvOverridesTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[ui]\nmode = \"line\"\n"), 0o600))

	env := validEnv()
	env[EnvConfigPath] = path
	env[EnvUIMode] = "TUI"

	cfg, err := LoadFrom("", envMap(t, env))
	require.NoError(t, err)
	assert.Equal(t, UIModeTUI, cfg.UI.Mode)
}

func TestLoadFrom_MalformedTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("request_timeout = [oops"), 0o600))

	env := validEnv()
	env[EnvConfigPath] = path

	_, err := LoadFrom("", envMap(t, env))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to decode TOML file")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name  string
		edit  func(c *Config)
		field string
	}{
		{"bad log level", func(c *Config) { c.Log.Level = "loud" }, "log.level"},
		{"negative timeout", func(c *Config) { c.RequestTimeout.Duration = -time.Second }, "request_timeout"},
		{"bad metrics addr", func(c *Config) { c.Metrics.Addr = "9464" }, "metrics.addr"},
		{"bad ui mode", func(c *Config) { c.UI.Mode = "gui" }, "ui.mode"},
		{"empty host name", func(c *Config) { c.Ollama.Host = "http://" }, EnvHost},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			cfg.Ollama = OllamaConfig{Host: "localhost", Port: 11434, Model: "llama3"}
			require.NoError(t, cfg.Validate())

			tc.edit(cfg)
			err := cfg.Validate()
			require.Error(t, err)

			var verrs ValidateErrors
			require.True(t, errors.As(err, &verrs))
			assert.True(t, verrs.Has(tc.field), "got %v", err)
		})
	}
}

func TestOllamaConfig_BaseURL(t *testing.T) {
	tests := []struct {
		host string
		port uint16
		want string
	}{
		{"localhost", 11434, "http://localhost:11434"},
		{"http://localhost", 11434, "http://localhost:11434"},
		{"https://gpu-box.lan/", 443, "https://gpu-box.lan:443"},
		{"http://10.0.0.5:9999", 11434, "http://10.0.0.5:11434"},
		{"[::1]", 8080, "http://[::1]:8080"},
	}

	for _, tc := range tests {
		t.Run(tc.host, func(t *testing.T) {
			got, err := OllamaConfig{Host: tc.host, Port: tc.port}.BaseURL()
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}
