// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/jeranaias/ollachat/internal/model"
)

// View renders the chat window.
func (m Model) View() string {
	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteByte('\n')
	b.WriteString(m.viewport.View())
	b.WriteByte('\n')
	b.WriteString(m.renderStatus())
	b.WriteByte('\n')
	b.WriteString(m.theme.InputContainer.Width(max(m.width, 1)).Render(m.input.View()))
	return b.String()
}

func (m Model) renderHeader() string {
	title := m.theme.HeaderTitle.Render("ollachat")
	sub := m.theme.HeaderSubtitle.Render(fmt.Sprintf(" %s @ %s", m.modelName, m.serverURL))
	return m.theme.Header.Width(max(m.width, 1)).Render(title + sub)
}

func (m Model) renderStatus() string {
	var left string
	if m.pending > 0 {
		left = m.spinner.View() + " " + m.theme.ThinkingText.Render("Waiting for "+m.modelName)
		if m.pending > 1 {
			left += m.theme.ThinkingText.Render(fmt.Sprintf(" (%d queued)", m.pending-1))
		}
	} else {
		left = m.theme.StatusIdle.Render("Ready")
	}

	var help []string
	for _, k := range m.keys.ShortHelp() {
		h := k.Help()
		help = append(help, m.theme.ShortcutKey.Render(h.Key)+" "+m.theme.ShortcutDesc.Render(h.Desc))
	}
	right := strings.Join(help, "  ")

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if gap < 1 {
		return m.theme.StatusBar.Render(left)
	}
	return m.theme.StatusBar.Render(left + strings.Repeat(" ", gap) + right)
}

// =============================================================================
// MESSAGES
// =============================================================================

// renderMessages renders the whole conversation.
func (m *Model) renderMessages() string {
	msgs := m.conversation.Messages()
	if len(msgs) == 0 {
		return m.theme.ThinkingText.Render("Say something to start the conversation.")
	}

	parts := make([]string, 0, len(msgs))
	for _, msg := range msgs {
		parts = append(parts, m.renderMessage(msg))
	}
	return strings.Join(parts, "\n")
}

func (m *Model) renderMessage(msg model.Message) string {
	width := m.theme.BubbleWidth()
	stamp := m.theme.Timestamp.Render(msg.Timestamp.Format("15:04"))

	switch msg.Role {
	case model.RoleUser:
		label := m.theme.UserLabel.Render(msg.Role.DisplayName()) + " " + stamp
		body := m.theme.UserBubble.Render(wrapText(msg.Content, width))
		return lipgloss.JoinVertical(lipgloss.Right, label, body)

	case model.RoleAssistant:
		label := m.theme.AssistantLabel.Render(msg.Role.DisplayName()) + " " + stamp
		body := m.theme.AssistantBubble.Render(m.renderMarkdown(msg))
		return lipgloss.JoinVertical(lipgloss.Left, label, body)

	default:
		label := m.theme.SystemLabel.Render(msg.Role.DisplayName()) + " " + stamp
		body := m.theme.SystemBubble.Render(wrapText(msg.Content, width))
		return lipgloss.JoinVertical(lipgloss.Left, label, body)
	}
}

// renderMarkdown renders assistant text with glamour, caching by message
// ID. Falls back to wrapped plain text without a renderer.
func (m *Model) renderMarkdown(msg model.Message) string {
	if m.renderer == nil {
		return wrapText(msg.Content, m.theme.BubbleWidth())
	}
	if out, ok := m.rendered[msg.ID]; ok {
		return out
	}

	out, err := m.renderer.Render(msg.Content)
	if err != nil {
		m.log.Debug().Err(err).Msg("markdown render failed")
		return wrapText(msg.Content, m.theme.BubbleWidth())
	}
	out = strings.Trim(out, "\n")
	m.rendered[msg.ID] = out
	return out
}

// wrapText wraps s to width display columns, breaking at spaces where
// possible. Wide runes count as two columns.
func wrapText(s string, width int) string {
	if width <= 0 {
		return s
	}

	var out strings.Builder
	for i, line := range strings.Split(s, "\n") {
		if i > 0 {
			out.WriteByte('\n')
		}
		out.WriteString(wrapLine(line, width))
	}
	return out.String()
}

func wrapLine(line string, width int) string {
	if runewidth.StringWidth(line) <= width {
		return line
	}

	var out strings.Builder
	var cur []rune
	curWidth := 0
	lastSpace := -1

	flush := func(upto int) {
		out.WriteString(strings.TrimRight(string(cur[:upto]), " "))
		out.WriteByte('\n')
		cur = append([]rune(nil), cur[upto:]...)
		for len(cur) > 0 && cur[0] == ' ' {
			cur = cur[1:]
		}
		curWidth = runewidth.StringWidth(string(cur))
		lastSpace = -1
		for i, r := range cur {
			if r == ' ' {
				lastSpace = i
			}
		}
	}

	for _, r := range line {
		rw := runewidth.RuneWidth(r)
		for curWidth+rw > width && len(cur) > 0 {
			if lastSpace > 0 {
				flush(lastSpace)
			} else {
				flush(len(cur))
			}
		}
		if r == ' ' {
			lastSpace = len(cur)
		}
		cur = append(cur, r)
		curWidth += rw
	}
	out.WriteString(string(cur))
	return out.String()
}
