// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// ServerStatusMsg reports the result of the startup reachability probe.
type ServerStatusMsg struct {
	Err error
}

// serverCheckTimeout bounds the startup probe.
const serverCheckTimeout = 5 * time.Second

// checkServerCmd runs check off the update loop.
func checkServerCmd(check func(context.Context) error) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), serverCheckTimeout)
		defer cancel()
		return ServerStatusMsg{Err: check(ctx)}
	}
}
