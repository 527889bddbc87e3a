// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/rs/zerolog"

	"github.com/jeranaias/ollachat/internal/logger"
	"github.com/jeranaias/ollachat/internal/model"
	"github.com/jeranaias/ollachat/internal/ollama"
	"github.com/jeranaias/ollachat/internal/ui/styles"
	"github.com/jeranaias/ollachat/internal/worker"
)

// Sender accepts prompts for generation. *worker.Worker satisfies it.
type Sender interface {
	Send(worker.Message) error
}

// Options configures a chat Model.
type Options struct {
	Theme  *styles.Theme
	Sender Sender

	// Conversation to display. A new one for Model is created when nil.
	Conversation *model.Conversation
	Model        string

	// ServerURL is shown in the header.
	ServerURL string

	// CheckServer, if set, is run once from Init. A failure is shown as a
	// system message; the chat stays usable.
	CheckServer func(context.Context) error

	Logger zerolog.Logger
}

// Model is the chat window.
type Model struct {
	theme  *styles.Theme
	keys   KeyMap
	sender Sender
	log    zerolog.Logger

	conversation *model.Conversation
	modelName    string
	serverURL    string
	checkServer  func(context.Context) error

	viewport viewport.Model
	input    textinput.Model
	spinner  spinner.Model

	// renderer is nil until the first resize, or if glamour failed.
	renderer *glamour.TermRenderer
	rendered map[string]string

	// pending counts prompts sent and not yet answered.
	pending int

	width  int
	height int
}

// Layout rows outside the viewport: header, status bar, input border, input.
const chromeHeight = 4

// New creates a chat model.
func New(opts Options) Model {
	theme := opts.Theme
	if theme == nil {
		theme = styles.NewTheme()
	}

	conv := opts.Conversation
	if conv == nil {
		conv = model.NewConversationWithModel(opts.Model)
	}
	modelName := opts.Model
	if modelName == "" {
		modelName = conv.Model
	}

	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Type a message..."
	ti.CharLimit = 4096
	ti.PromptStyle = theme.InputPrompt
	ti.Focus()

	vp := viewport.New(80, 20)
	vp.SetContent("")

	sp := spinner.New()
	sp.Spinner = spinner.Spinner{
		Frames: []string{"|", "/", "-", "\\"},
		FPS:    time.Second / 10,
	}
	sp.Style = theme.Spinner

	m := Model{
		theme:        theme,
		keys:         DefaultKeyMap(),
		sender:       opts.Sender,
		log:          logger.Component(opts.Logger, "chat"),
		conversation: conv,
		modelName:    modelName,
		serverURL:    opts.ServerURL,
		checkServer:  opts.CheckServer,
		viewport:     vp,
		input:        ti,
		spinner:      sp,
		rendered:     make(map[string]string),
	}
	m.refresh()
	return m
}

// =============================================================================
// BUBBLE TEA INTERFACE
// =============================================================================

// Init starts the cursor blink and the optional server probe.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{textinput.Blink}
	if m.checkServer != nil {
		cmds = append(cmds, checkServerCmd(m.checkServer))
	}
	return tea.Batch(cmds...)
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleResize(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd

	case worker.Reply:
		m.receive(msg)
		return m, nil

	case worker.Failure:
		m.fail(msg)
		return m, nil

	case ServerStatusMsg:
		if msg.Err != nil {
			m.log.Warn().Err(msg.Err).Str("url", m.serverURL).Msg("ollama not reachable")
			m.conversation.AddSystemMessage(fmt.Sprintf("Ollama is not reachable at %s. Messages will fail until it is started.", m.serverURL))
			m.refresh()
		}
		return m, nil

	case spinner.TickMsg:
		if m.pending > 0 {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// =============================================================================
// EVENT HANDLERS
// =============================================================================

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Submit):
		return m.submit()

	case key.Matches(msg, m.keys.PageUp):
		m.viewport.HalfViewUp()
		return m, nil

	case key.Matches(msg, m.keys.PageDown):
		m.viewport.HalfViewDown()
		return m, nil

	case key.Matches(msg, m.keys.Top):
		m.viewport.GotoTop()
		return m, nil

	case key.Matches(msg, m.keys.Bottom):
		m.viewport.GotoBottom()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleResize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width = msg.Width
	m.height = msg.Height
	m.theme.SetSize(msg.Width, msg.Height)

	m.viewport.Width = max(msg.Width, 1)
	m.viewport.Height = max(msg.Height-chromeHeight, 1)

	// InputContainer pads by 1 on each side; the prompt takes 2.
	m.input.Width = max(msg.Width-4, 10)

	renderer, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(m.theme.GlamourStyle()),
		glamour.WithWordWrap(m.theme.BubbleWidth()),
	)
	if err != nil {
		m.log.Warn().Err(err).Msg("markdown renderer unavailable, showing plain text")
		renderer = nil
	}
	m.renderer = renderer
	m.rendered = make(map[string]string)

	m.refresh()
	return m, nil
}

// submit sends the input line for generation. Blank input is ignored.
func (m Model) submit() (tea.Model, tea.Cmd) {
	text := m.input.Value()
	if strings.TrimSpace(text) == "" {
		return m, nil
	}
	m.input.Reset()

	m.conversation.AddUserMessage(text)
	if err := m.sender.Send(worker.NewGenerate(text)); err != nil {
		m.log.Error().Err(err).Msg("worker rejected prompt")
		m.conversation.AddSystemMessage(fmt.Sprintf("Message not sent: %v", err))
		m.refresh()
		return m, nil
	}

	m.pending++
	m.refresh()
	if m.pending == 1 {
		return m, m.spinner.Tick
	}
	return m, nil
}

// receive appends the assistant's reply.
func (m *Model) receive(r worker.Reply) {
	m.pending = max(m.pending-1, 0)
	m.conversation.AddAssistantMessage(r.Text)
	m.refresh()
}

// fail appends a system message describing a failed request.
func (m *Model) fail(f worker.Failure) {
	m.pending = max(m.pending-1, 0)
	m.conversation.AddSystemMessage(ollama.Describe(f.Err, m.modelName))
	m.refresh()
}

// refresh rebuilds the viewport content and scrolls to the newest message.
func (m *Model) refresh() {
	m.viewport.SetContent(m.renderMessages())
	m.viewport.GotoBottom()
}

// =============================================================================
// ACCESSORS
// =============================================================================

// Conversation returns the displayed conversation.
func (m Model) Conversation() *model.Conversation {
	return m.conversation
}

// Pending returns the number of prompts awaiting a reply.
func (m Model) Pending() int {
	return m.pending
}

// Input returns the current contents of the input line.
func (m Model) Input() string {
	return m.input.Value()
}
