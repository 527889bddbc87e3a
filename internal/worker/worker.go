// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/jeranaias/ollachat/internal/logger"
	"github.com/jeranaias/ollachat/internal/metrics"
	"github.com/jeranaias/ollachat/internal/ollama"
)

// ErrStopped is returned by Send once Shutdown has been requested.
var ErrStopped = errors.New("worker is shut down")

// Generator produces one reply. *ollama.Client satisfies it.
type Generator interface {
	Generate(ctx context.Context, model, prompt string, continuation ollama.Continuation) (*ollama.GenerateResult, error)
}

// =============================================================================
// STATE
// =============================================================================

// State is the worker's lifecycle state.
type State int32

const (
	StateIdle State = iota
	StateGenerating
	StateTerminated
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateGenerating:
		return "generating"
	case StateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// =============================================================================
// WORKER
// =============================================================================

// Config configures a Worker.
type Config struct {
	// Model is the model name sent with every request.
	Model string

	// RequestTimeout bounds each generation call. Zero means no limit.
	RequestTimeout time.Duration

	Logger  zerolog.Logger
	Metrics *metrics.Metrics
}

// Worker owns the continuation token and issues generation calls one at a
// time, in the order requests were sent.
type Worker struct {
	gen    Generator
	poster Poster
	cfg    Config
	log    zerolog.Logger

	queue *Queue
	state atomic.Int32

	// continuation is written only by the run goroutine. mu lets
	// Continuation() take a consistent snapshot.
	mu           sync.Mutex
	continuation ollama.Continuation

	startOnce    sync.Once
	shutdownOnce sync.Once
	started      atomic.Bool
	done         chan struct{}
}

// New creates a worker. Call Start to begin processing.
func New(gen Generator, poster Poster, cfg Config) *Worker {
	return &Worker{
		gen:    gen,
		poster: poster,
		cfg:    cfg,
		log:    logger.Component(cfg.Logger, "worker"),
		queue:  NewQueue(),
		done:   make(chan struct{}),
	}
}

// Start launches the worker goroutine. Subsequent calls do nothing.
func (w *Worker) Start() {
	w.startOnce.Do(func() {
		w.started.Store(true)
		go w.run()
	})
}

// Send enqueues msg without blocking. Sending Shutdown is the same as
// calling Shutdown.
func (w *Worker) Send(msg Message) error {
	if _, ok := msg.(Shutdown); ok {
		w.Shutdown()
		return nil
	}
	if err := w.queue.Push(msg); err != nil {
		return ErrStopped
	}
	w.cfg.Metrics.SetQueueDepth(w.queue.Len())
	return nil
}

// Shutdown asks the worker to stop after the messages already queued. It
// does not cancel a call in flight. Safe to call any number of times.
func (w *Worker) Shutdown() {
	w.shutdownOnce.Do(func() {
		_ = w.queue.Push(Shutdown{})
		w.queue.Close()
	})
}

// Join blocks until the worker goroutine has exited. It returns at once if
// Start was never called.
func (w *Worker) Join() {
	if !w.started.Load() {
		return
	}
	<-w.done
}

// Done is closed when the worker goroutine exits.
func (w *Worker) Done() <-chan struct{} {
	return w.done
}

// State returns the current lifecycle state.
func (w *Worker) State() State {
	return State(w.state.Load())
}

// Continuation returns a copy of the current continuation token.
func (w *Worker) Continuation() ollama.Continuation {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.continuation.Clone()
}

// =============================================================================
// PROCESSING
// =============================================================================

func (w *Worker) run() {
	defer close(w.done)
	defer w.state.Store(int32(StateTerminated))

	w.log.Debug().Str("model", w.cfg.Model).Msg("worker started")

	for {
		msg, err := w.queue.Pop(context.Background())
		if err != nil {
			// Only ErrQueueClosed is possible with a background context.
			w.log.Debug().Msg("queue closed, worker exiting")
			return
		}
		w.cfg.Metrics.SetQueueDepth(w.queue.Len())

		switch m := msg.(type) {
		case Generate:
			w.handleGenerate(m)
		case Shutdown:
			w.log.Debug().Int("dropped", w.queue.Len()).Msg("shutdown received, worker exiting")
			return
		default:
			w.log.Warn().Str("type", fmt.Sprintf("%T", msg)).Msg("ignoring unknown worker message")
		}
	}
}

func (w *Worker) handleGenerate(req Generate) {
	w.state.Store(int32(StateGenerating))
	defer w.state.Store(int32(StateIdle))

	var ctx context.Context
	var cancel context.CancelFunc
	if w.cfg.RequestTimeout > 0 {
		ctx, cancel = context.WithTimeout(context.Background(), w.cfg.RequestTimeout)
	} else {
		ctx, cancel = context.WithCancel(context.Background())
	}
	defer cancel()

	w.mu.Lock()
	cont := w.continuation.Clone()
	w.mu.Unlock()

	log := w.log.With().Str("request_id", req.ID).Logger()
	log.Debug().Int("prompt_len", len(req.Text)).Int("context_len", len(cont)).Msg("generating")

	w.cfg.Metrics.StartGeneration()
	start := time.Now()
	res, err := w.gen.Generate(ctx, w.cfg.Model, req.Text, cont)
	elapsed := time.Since(start)

	if err != nil {
		errType := ollama.TypeOf(err).String()
		w.cfg.Metrics.RecordGeneration(errType, elapsed)
		log.Error().Err(err).Str("error_type", errType).Dur("elapsed", elapsed).Msg("generation failed")
		w.poster.Post(Failure{ID: req.ID, Err: err})
		return
	}
	w.cfg.Metrics.RecordGeneration("", elapsed)

	w.mu.Lock()
	w.continuation = res.Context.Clone()
	w.mu.Unlock()

	log.Info().
		Dur("elapsed", elapsed).
		Int("eval_count", res.EvalCount).
		Int("reply_len", len(res.Text)).
		Msg("generation finished")

	w.poster.Post(Reply{ID: req.ID, Text: res.Text})
}
