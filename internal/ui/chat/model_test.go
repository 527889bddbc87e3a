// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/ollachat/internal/model"
	"github.com/jeranaias/ollachat/internal/ollama"
	"github.com/jeranaias/ollachat/internal/ui/styles"
	"github.com/jeranaias/ollachat/internal/worker"
)

type fakeSender struct {
	sent []worker.Message
	err  error
}

func (s *fakeSender) Send(msg worker.Message) error {
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, msg)
	return nil
}

func newTestModel(sender Sender) Model {
	return New(Options{
		Theme:     styles.NewThemeWithProfile(termenv.Ascii, true),
		Sender:    sender,
		Model:     "llama3",
		ServerURL: "http://localhost:11434",
	})
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	out, ok := next.(Model)
	require.True(t, ok, "Update must return a chat.Model")
	return out, cmd
}

func typeAndSubmit(t *testing.T, m Model, text string) (Model, tea.Cmd) {
	t.Helper()
	m.input.SetValue(text)
	return update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
}

func roles(c *model.Conversation) []model.Role {
	var out []model.Role
	for _, msg := range c.Messages() {
		out = append(out, msg.Role)
	}
	return out
}

// =============================================================================
// SUBMIT
// =============================================================================

func TestSubmit_AppendsUserMessageImmediately(t *testing.T) {
	sender := &fakeSender{}
	m := newTestModel(sender)

	m, cmd := typeAndSubmit(t, m, "Hello")

	msgs := m.Conversation().Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, model.RoleUser, msgs[0].Role)
	assert.Equal(t, "Hello", msgs[0].Content)

	require.Len(t, sender.sent, 1)
	gen, ok := sender.sent[0].(worker.Generate)
	require.True(t, ok)
	assert.Equal(t, "Hello", gen.Text)
	assert.NotEmpty(t, gen.ID)

	assert.Equal(t, 1, m.Pending())
	assert.Empty(t, m.Input())
	assert.NotNil(t, cmd, "first pending request starts the spinner")
}

func TestSubmit_IgnoresBlankInput(t *testing.T) {
	sender := &fakeSender{}
	m := newTestModel(sender)

	for _, blank := range []string{"", "   ", "\t"} {
		m, _ = typeAndSubmit(t, m, blank)
	}

	assert.True(t, m.Conversation().IsEmpty())
	assert.Empty(t, sender.sent)
	assert.Equal(t, 0, m.Pending())
}

func TestSubmit_SendErrorShowsSystemMessage(t *testing.T) {
	sender := &fakeSender{err: worker.ErrStopped}
	m := newTestModel(sender)

	m, _ = typeAndSubmit(t, m, "Hello")

	assert.Equal(t, []model.Role{model.RoleUser, model.RoleSystem}, roles(m.Conversation()))
	last, _ := m.Conversation().Last()
	assert.Contains(t, last.Content, worker.ErrStopped.Error())
	assert.Equal(t, 0, m.Pending())
}

// =============================================================================
// WORKER EVENTS
// =============================================================================

func TestReply_Interleaving(t *testing.T) {
	m := newTestModel(&fakeSender{})

	m, _ = typeAndSubmit(t, m, "m1")
	m, _ = update(t, m, worker.Reply{Text: "r1"})
	m, _ = typeAndSubmit(t, m, "m2")
	m, _ = update(t, m, worker.Reply{Text: "r2"})

	var got []string
	for _, msg := range m.Conversation().Messages() {
		got = append(got, msg.Role.DisplayName()+":"+msg.Content)
	}
	assert.Equal(t, []string{"You:m1", "Assistant:r1", "You:m2", "Assistant:r2"}, got)
	assert.Equal(t, 0, m.Pending())
}

func TestReply_HelloExample(t *testing.T) {
	m := newTestModel(&fakeSender{})

	m, _ = typeAndSubmit(t, m, "Hello")
	assert.Equal(t, []model.Role{model.RoleUser}, roles(m.Conversation()))

	m, _ = update(t, m, worker.Reply{Text: "Hi there!"})
	last, ok := m.Conversation().Last()
	require.True(t, ok)
	assert.Equal(t, model.RoleAssistant, last.Role)
	assert.Equal(t, "Hi there!", last.Content)
}

func TestFailure_AppendsSystemMessage(t *testing.T) {
	m := newTestModel(&fakeSender{})

	m, _ = typeAndSubmit(t, m, "Hello")
	m, _ = update(t, m, worker.Failure{Err: ollama.ErrModelNotFound})

	assert.Equal(t, []model.Role{model.RoleUser, model.RoleSystem}, roles(m.Conversation()))
	last, _ := m.Conversation().Last()
	assert.Equal(t, ollama.Describe(ollama.ErrModelNotFound, "llama3"), last.Content)
	assert.Equal(t, 0, m.Pending())

	// The chat keeps working after a failure.
	m, _ = typeAndSubmit(t, m, "again")
	assert.Equal(t, 1, m.Pending())
}

func TestPendingNeverNegative(t *testing.T) {
	m := newTestModel(&fakeSender{})
	m, _ = update(t, m, worker.Reply{Text: "stray"})
	assert.Equal(t, 0, m.Pending())
}

func TestServerStatus(t *testing.T) {
	m := newTestModel(&fakeSender{})

	m, _ = update(t, m, ServerStatusMsg{})
	assert.True(t, m.Conversation().IsEmpty())

	m, _ = update(t, m, ServerStatusMsg{Err: ollama.ErrNotRunning})
	last, ok := m.Conversation().Last()
	require.True(t, ok)
	assert.Equal(t, model.RoleSystem, last.Role)
	assert.Contains(t, last.Content, "http://localhost:11434")
}

func TestCheckServerCmd(t *testing.T) {
	boom := errors.New("refused")
	msg := checkServerCmd(func(ctx context.Context) error {
		_, hasDeadline := ctx.Deadline()
		assert.True(t, hasDeadline)
		return boom
	})()

	status, ok := msg.(ServerStatusMsg)
	require.True(t, ok)
	assert.ErrorIs(t, status.Err, boom)
}

// =============================================================================
// KEYS AND LAYOUT
// =============================================================================

func TestQuitKeys(t *testing.T) {
	for _, k := range []tea.KeyType{tea.KeyCtrlC, tea.KeyEscape} {
		m := newTestModel(&fakeSender{})
		_, cmd := update(t, m, tea.KeyMsg{Type: k})
		require.NotNil(t, cmd)
		assert.Equal(t, tea.QuitMsg{}, cmd())
	}
}

func TestTypingGoesToInput(t *testing.T) {
	m := newTestModel(&fakeSender{})
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("hi")})
	assert.Equal(t, "hi", m.Input())
}

func TestResize(t *testing.T) {
	m := newTestModel(&fakeSender{})
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 100, Height: 30})

	assert.Equal(t, 100, m.viewport.Width)
	assert.Equal(t, 30-chromeHeight, m.viewport.Height)
	require.NotNil(t, m.renderer)

	view := m.View()
	assert.Contains(t, view, "ollachat")
	assert.Contains(t, view, "llama3")
	assert.Contains(t, view, "Ready")
}

func TestAssistantMarkdownIsCached(t *testing.T) {
	m := newTestModel(&fakeSender{})
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 80, Height: 24})
	m, _ = update(t, m, worker.Reply{Text: "**bold** reply"})

	last, _ := m.Conversation().Last()
	_, cached := m.rendered[last.ID]
	assert.True(t, cached)
}

func TestViewShowsPending(t *testing.T) {
	m := newTestModel(&fakeSender{})
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 120, Height: 30})
	m, _ = typeAndSubmit(t, m, "one")
	m, _ = typeAndSubmit(t, m, "two")

	view := m.View()
	assert.Contains(t, view, "Waiting for llama3")
	assert.Contains(t, view, "(1 queued)")
}

// =============================================================================
// WRAPPING
// =============================================================================

func TestWrapText(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		width int
		want  string
	}{
		{"fits", "short", 10, "short"},
		{"word boundary", "hello world foo", 11, "hello\nworld foo"},
		{"long word", "abcdefghij", 4, "abcd\nefgh\nij"},
		{"wide runes", "日本語テキスト", 6, "日本語\nテキス\nト"},
		{"keeps newlines", "a\nb", 5, "a\nb"},
		{"zero width", "anything", 0, "anything"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, wrapText(tc.in, tc.width))
		})
	}
}

func TestWrapText_NoLineTooWide(t *testing.T) {
	text := strings.Repeat("lorem ipsum dolor sit amet ", 20)
	for _, line := range strings.Split(wrapText(text, 30), "\n") {
		assert.LessOrEqual(t, len(line), 30, "line %q", line)
	}
}
