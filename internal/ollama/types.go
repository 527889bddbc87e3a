// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package ollama provides the HTTP client for communicating with Ollama API.
package ollama

import "time"

// =============================================================================
// CONTINUATION
// =============================================================================

// Continuation is the opaque "context" Ollama returns from /api/generate.
// Feeding it into the next request lets the model remember the previous
// turns. Callers must treat it as a value to pass back, nothing more.
type Continuation []int

// IsEmpty reports whether there is no continuation to send.
func (c Continuation) IsEmpty() bool {
	return len(c) == 0
}

// Clone returns a copy that does not share the backing array.
func (c Continuation) Clone() Continuation {
	if c == nil {
		return nil
	}
	out := make(Continuation, len(c))
	copy(out, c)
	return out
}

// =============================================================================
// REQUEST TYPES
// =============================================================================

// GenerateRequest is the request body for /api/generate endpoint.
type GenerateRequest struct {
	Model   string       `json:"model"`
	Prompt  string       `json:"prompt"`
	Stream  bool         `json:"stream"`
	System  string       `json:"system,omitempty"`
	Context Continuation `json:"context,omitempty"`
}

// =============================================================================
// RESPONSE TYPES
// =============================================================================

// GenerateResponse is the response from /api/generate endpoint.
type GenerateResponse struct {
	Model              string       `json:"model"`
	CreatedAt          time.Time    `json:"created_at"`
	Response           string       `json:"response"`
	Done               bool         `json:"done"`
	DoneReason         string       `json:"done_reason,omitempty"`
	Context            Continuation `json:"context,omitempty"`
	TotalDuration      int64        `json:"total_duration,omitempty"`
	LoadDuration       int64        `json:"load_duration,omitempty"`
	PromptEvalCount    int          `json:"prompt_eval_count,omitempty"`
	PromptEvalDuration int64        `json:"prompt_eval_duration,omitempty"`
	EvalCount          int          `json:"eval_count,omitempty"`
	EvalDuration       int64        `json:"eval_duration,omitempty"`
}

// GenerateResult is what a successful generation hands back to the caller.
type GenerateResult struct {
	// Text is the model's reply with surrounding whitespace removed.
	Text string

	// Context replaces the previous continuation. Nil when the server
	// returned none.
	Context Continuation

	Model         string
	EvalCount     int
	TotalDuration time.Duration
}

// OllamaError represents an error from the Ollama API.
type OllamaError struct {
	Error string `json:"error"`
}

// TokensPerSecond calculates the generation speed from a response.
func (r *GenerateResponse) TokensPerSecond() float64 {
	if r.EvalDuration == 0 {
		return 0
	}
	seconds := float64(r.EvalDuration) / 1e9
	return float64(r.EvalCount) / seconds
}
