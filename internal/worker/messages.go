// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package worker

import (
	"github.com/google/uuid"
)

// =============================================================================
// REQUESTS (UI -> WORKER)
// =============================================================================

// Message is a request to the worker: Generate or Shutdown.
type Message interface {
	workerMessage()
}

// Generate asks for a reply to Text.
type Generate struct {
	ID   string
	Text string
}

// Shutdown stops the worker once everything queued before it is done.
type Shutdown struct{}

func (Generate) workerMessage() {}
func (Shutdown) workerMessage() {}

// NewGenerate creates a Generate request with a fresh ID.
func NewGenerate(text string) Generate {
	return Generate{ID: uuid.NewString(), Text: text}
}

// =============================================================================
// EVENTS (WORKER -> UI)
// =============================================================================

// Event is a result the worker posts back to the UI.
type Event interface {
	RequestID() string
}

// Reply carries the assistant's text for a Generate request.
type Reply struct {
	ID   string
	Text string
}

// Failure reports a Generate request that did not produce a reply.
type Failure struct {
	ID  string
	Err error
}

func (r Reply) RequestID() string   { return r.ID }
func (f Failure) RequestID() string { return f.ID }

// Poster schedules an event onto the UI's own execution context. The worker
// calls Post from its goroutine; implementations must not block for long
// and may drop events once the UI is gone.
type Poster interface {
	Post(Event)
}

// PosterFunc adapts a function to Poster.
type PosterFunc func(Event)

// Post calls f(e).
func (f PosterFunc) Post(e Event) {
	f(e)
}
