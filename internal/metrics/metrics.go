// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package metrics defines the Prometheus metrics exported by the worker.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Outcome labels for GenerationsTotal.
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

// Metrics holds every collector. A nil *Metrics is valid and records
// nothing, so components can take one unconditionally.
type Metrics struct {
	Registry *prometheus.Registry

	GenerationsTotal   *prometheus.CounterVec
	GenerationDuration prometheus.Histogram
	GenerationsActive  prometheus.Gauge
	QueueDepth         prometheus.Gauge
}

// New creates the collectors on a private registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		GenerationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ollachat_generations_total",
				Help: "Total number of generation requests by outcome and error type",
			},
			[]string{"outcome", "error_type"},
		),

		GenerationDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "ollachat_generation_duration_seconds",
				Help:    "Duration of generation requests in seconds",
				Buckets: []float64{.25, .5, 1, 2.5, 5, 10, 30, 60, 120, 300},
			},
		),

		GenerationsActive: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "ollachat_generations_in_flight",
				Help: "Number of generation requests currently being processed",
			},
		),

		QueueDepth: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "ollachat_worker_queue_depth",
				Help: "Number of worker messages waiting to be processed",
			},
		),
	}
}

// StartGeneration marks a request as in flight.
func (m *Metrics) StartGeneration() {
	if m == nil {
		return
	}
	m.GenerationsActive.Inc()
}

// RecordGeneration marks the request finished. errorType is empty on success.
func (m *Metrics) RecordGeneration(errorType string, duration time.Duration) {
	if m == nil {
		return
	}
	m.GenerationsActive.Dec()
	outcome := OutcomeSuccess
	if errorType != "" {
		outcome = OutcomeError
	}
	m.GenerationsTotal.WithLabelValues(outcome, errorType).Inc()
	m.GenerationDuration.Observe(duration.Seconds())
}

// SetQueueDepth records the current queue length.
func (m *Metrics) SetQueueDepth(n int) {
	if m == nil {
		return
	}
	m.QueueDepth.Set(float64(n))
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}

// =============================================================================
// HTTP SERVER
// =============================================================================

// Server exposes /metrics on a local address.
type Server struct {
	server *http.Server
	log    zerolog.Logger
}

// NewServer creates a metrics HTTP server listening on addr.
func NewServer(addr string, m *Metrics, log zerolog.Logger) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())

	return &Server{
		server: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
		log: log,
	}
}

// Start serves in the background. Listen errors are logged, not fatal:
// the chat works without metrics.
func (s *Server) Start() {
	go func() {
		s.log.Info().Str("addr", s.server.Addr).Msg("metrics server listening")
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error().Err(err).Msg("metrics server failed")
		}
	}()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
