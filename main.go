// ollachat - a terminal chat client for a local Ollama server.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/jeranaias/ollachat/internal/config"
	"github.com/jeranaias/ollachat/internal/logger"
	"github.com/jeranaias/ollachat/internal/metrics"
	"github.com/jeranaias/ollachat/internal/ollama"
	"github.com/jeranaias/ollachat/internal/ui/chat"
	"github.com/jeranaias/ollachat/internal/ui/line"
	"github.com/jeranaias/ollachat/internal/ui/styles"
	"github.com/jeranaias/ollachat/internal/worker"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// app is everything the front ends share.
type app struct {
	cfg     *config.Config
	log     zerolog.Logger
	baseURL string
	client  *ollama.Client
	metrics *metrics.Metrics
}

func run() error {
	// Configuration errors end the process before any UI is shown.
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log := logger.Nop()
	if f, err := logger.OpenFile(cfg.Log.File); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: logging disabled: %v\n", err)
	} else {
		defer f.Close()
		log = logger.New(logger.Config{Level: cfg.Log.Level, Pretty: cfg.Log.Pretty, Output: f})
	}

	baseURL, err := cfg.Ollama.BaseURL()
	if err != nil {
		return err
	}

	log.Info().
		Str("version", Version).
		Str("commit", GitCommit).
		Str("ollama", baseURL).
		Str("model", cfg.Ollama.Model).
		Dur("request_timeout", cfg.RequestTimeout.Duration).
		Msg("starting ollachat")

	m := metrics.New()
	if cfg.Metrics.Addr != "" {
		srv := metrics.NewServer(cfg.Metrics.Addr, m, logger.Component(log, "metrics"))
		srv.Start()
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = srv.Stop(ctx)
		}()
	}

	a := &app{
		cfg:     cfg,
		log:     log,
		baseURL: baseURL,
		client: ollama.NewClientWithConfig(&ollama.ClientConfig{
			BaseURL:      baseURL,
			DefaultModel: cfg.Ollama.Model,
		}),
		metrics: m,
	}

	if useLineMode(cfg.UI.Mode) {
		return a.runLine()
	}
	return a.runTUI()
}

func useLineMode(mode string) bool {
	switch mode {
	case config.UIModeLine:
		return true
	case config.UIModeTUI:
		return false
	default:
		return !line.StdinIsTerminal()
	}
}

func (a *app) workerConfig() worker.Config {
	return worker.Config{
		Model:          a.cfg.Ollama.Model,
		RequestTimeout: a.cfg.RequestTimeout.Duration,
		Logger:         a.log,
		Metrics:        a.metrics,
	}
}

// runTUI runs the full-screen chat window.
func (a *app) runTUI() error {
	poster := &chat.ProgramPoster{}
	w := worker.New(a.client, poster, a.workerConfig())

	ui := chat.New(chat.Options{
		Theme:       styles.NewTheme(),
		Sender:      w,
		Model:       a.cfg.Ollama.Model,
		ServerURL:   a.baseURL,
		CheckServer: a.client.CheckRunning,
		Logger:      a.log,
	})

	p := tea.NewProgram(
		ui,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)
	poster.Attach(p)

	w.Start()
	_, err := p.Run()

	// A reply still in flight is allowed to finish; Post drops it once
	// the program is gone.
	w.Shutdown()
	w.Join()
	a.log.Info().Msg("ollachat stopped")

	if err != nil {
		return fmt.Errorf("running chat window: %w", err)
	}
	return nil
}

// runLine runs the line-oriented front end.
func (a *app) runLine() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	interactive := line.StdinIsTerminal()

	checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	if err := a.client.CheckRunning(checkCtx); err != nil {
		a.log.Warn().Err(err).Str("url", a.baseURL).Msg("ollama not reachable")
		fmt.Fprintf(os.Stderr, "Warning: Ollama is not reachable at %s\n", a.baseURL)
	}
	cancel()

	historyPath := ""
	if interactive {
		if dir, err := config.ConfigDir(); err == nil {
			historyPath = filepath.Join(dir, "history")
		}
	}
	reader := line.NewReader(historyPath)
	defer reader.Close()

	// The worker posts only after Send, by which time session is set.
	var session *line.Session
	w := worker.New(a.client, worker.PosterFunc(func(e worker.Event) {
		session.Post(e)
	}), a.workerConfig())

	session = line.New(line.Options{
		Reader: reader,
		Out:    os.Stdout,
		Sender: w,
		Model:  a.cfg.Ollama.Model,
		Echo:   !interactive,
		Logger: a.log,
	})

	w.Start()
	err := session.Run(ctx)
	w.Shutdown()
	w.Join()
	a.log.Info().Msg("ollachat stopped")

	if err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}
