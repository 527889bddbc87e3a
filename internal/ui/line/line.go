// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package line provides a plain line-oriented chat front end, used when
// stdin is not a terminal or the full-screen UI is turned off.
package line

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/peterh/liner"
	"github.com/rs/zerolog"

	"github.com/jeranaias/ollachat/internal/logger"
	"github.com/jeranaias/ollachat/internal/model"
	"github.com/jeranaias/ollachat/internal/ollama"
	"github.com/jeranaias/ollachat/internal/worker"
)

// LineReader reads one line of input. *Reader satisfies it.
type LineReader interface {
	Prompt(prompt string) (string, error)
}

// Sender accepts prompts for generation. *worker.Worker satisfies it.
type Sender interface {
	Send(worker.Message) error
}

// Options configures a Session.
type Options struct {
	Reader LineReader
	Out    io.Writer
	Sender Sender
	Model  string

	// Echo prints the user's own lines, for when input is piped and
	// would not otherwise appear in the transcript.
	Echo bool

	Logger zerolog.Logger
}

// eventBuffer is how many worker events may wait for the loop.
const eventBuffer = 64

// Session runs the line-mode chat loop. The conversation is only touched
// from Run's goroutine; the worker delivers events through Post.
type Session struct {
	reader       LineReader
	out          io.Writer
	sender       Sender
	modelName    string
	echo         bool
	log          zerolog.Logger
	conversation *model.Conversation

	events chan worker.Event
	done   chan struct{}

	// pending counts prompts sent and not yet answered.
	pending int

	userLabel      func(a ...interface{}) string
	assistantLabel func(a ...interface{}) string
	systemLabel    func(a ...interface{}) string
}

// New creates a Session.
func New(opts Options) *Session {
	return &Session{
		reader:       opts.Reader,
		out:          opts.Out,
		sender:       opts.Sender,
		modelName:    opts.Model,
		echo:         opts.Echo,
		log:          logger.Component(opts.Logger, "line"),
		conversation: model.NewConversationWithModel(opts.Model),
		events:       make(chan worker.Event, eventBuffer),
		done:         make(chan struct{}),

		userLabel:      color.New(color.FgCyan, color.Bold).SprintFunc(),
		assistantLabel: color.New(color.FgMagenta, color.Bold).SprintFunc(),
		systemLabel:    color.New(color.FgYellow, color.Bold).SprintFunc(),
	}
}

// Post implements worker.Poster. Events posted after Run has returned are
// dropped.
func (s *Session) Post(e worker.Event) {
	select {
	case s.events <- e:
	case <-s.done:
	}
}

// Conversation returns the session's conversation. Only safe to read once
// Run has returned.
func (s *Session) Conversation() *model.Conversation {
	return s.conversation
}

// Run reads lines until EOF, Ctrl+C, or ctx is done. On EOF it waits for
// outstanding replies before returning, so piped input gets every answer.
func (s *Session) Run(ctx context.Context) error {
	defer close(s.done)

	lines := make(chan string)
	readErr := make(chan error, 1)
	go s.readLoop(lines, readErr)

	eof := false
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case text := <-lines:
			s.submit(text)

		case err := <-readErr:
			if errors.Is(err, liner.ErrPromptAborted) {
				return nil
			}
			if !errors.Is(err, io.EOF) {
				s.log.Error().Err(err).Msg("reading input failed")
			}
			eof = true
			lines, readErr = nil, nil

		case e := <-s.events:
			s.handle(e)
		}

		if eof && s.pending == 0 {
			return nil
		}
	}
}

func (s *Session) readLoop(lines chan<- string, readErr chan<- error) {
	for {
		text, err := s.reader.Prompt("> ")
		if err != nil {
			readErr <- err
			return
		}
		select {
		case lines <- text:
		case <-s.done:
			return
		}
	}
}

// submit sends one line for generation. Blank lines are ignored.
func (s *Session) submit(text string) {
	if strings.TrimSpace(text) == "" {
		return
	}

	msg := s.conversation.AddUserMessage(text)
	if s.echo {
		s.print(msg)
	}

	if err := s.sender.Send(worker.NewGenerate(text)); err != nil {
		s.log.Error().Err(err).Msg("worker rejected prompt")
		s.print(s.conversation.AddSystemMessage(fmt.Sprintf("Message not sent: %v", err)))
		return
	}
	s.pending++
}

func (s *Session) handle(e worker.Event) {
	s.pending = max(s.pending-1, 0)

	switch e := e.(type) {
	case worker.Reply:
		s.print(s.conversation.AddAssistantMessage(e.Text))
	case worker.Failure:
		s.print(s.conversation.AddSystemMessage(ollama.Describe(e.Err, s.modelName)))
	}
}

func (s *Session) print(msg model.Message) {
	var label string
	switch msg.Role {
	case model.RoleUser:
		label = s.userLabel(msg.Role.DisplayName() + ":")
	case model.RoleAssistant:
		label = s.assistantLabel(msg.Role.DisplayName() + ":")
	default:
		label = s.systemLabel(msg.Role.DisplayName() + ":")
	}
	fmt.Fprintf(s.out, "%s %s\n", label, msg.Content)
}
