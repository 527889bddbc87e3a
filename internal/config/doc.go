// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading for ollachat.
//
// # Sources
//
// Configuration is assembled once at startup from (highest precedence first):
//   - Environment variables (OLLAMA_HOST, OLLAMA_PORT, OLLAMA_MODEL, OLLACHAT_UI)
//   - ./.env, read with godotenv without touching the process environment
//   - ~/.ollachat/config.toml or $OLLACHAT_CONFIG for ambient settings
//   - Built-in defaults
//
// The three OLLAMA_* variables are required. Missing or malformed values
// produce a ValidateErrors naming every offending variable.
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    fmt.Fprintf(os.Stderr, "Error: %v\n", err)
//	    os.Exit(1)
//	}
//	baseURL, _ := cfg.Ollama.BaseURL()
package config
