// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/ollachat/internal/worker"
)

// ProgramPoster delivers worker events to a running tea.Program, where they
// arrive in Model.Update. The program is attached after construction
// because the worker must exist before the program does.
type ProgramPoster struct {
	mu      sync.Mutex
	program *tea.Program
}

// Attach sets the program events are sent to.
func (p *ProgramPoster) Attach(program *tea.Program) {
	p.mu.Lock()
	p.program = program
	p.mu.Unlock()
}

// Post sends e to the program. Events posted before Attach are dropped, as
// are events sent after the program has exited.
func (p *ProgramPoster) Post(e worker.Event) {
	p.mu.Lock()
	program := p.program
	p.mu.Unlock()

	if program != nil {
		program.Send(e)
	}
}
