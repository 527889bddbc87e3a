// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package line

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"
	"golang.org/x/term"
)

// StdinIsTerminal reports whether stdin is an interactive terminal.
func StdinIsTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// Reader is a LineReader backed by liner, with history kept in a file.
type Reader struct {
	state       *liner.State
	historyPath string
}

// NewReader creates a Reader. historyPath may be empty to disable history.
func NewReader(historyPath string) *Reader {
	state := liner.NewLiner()
	state.SetCtrlCAborts(true)

	r := &Reader{state: state, historyPath: historyPath}
	if historyPath != "" {
		if f, err := os.Open(historyPath); err == nil {
			_, _ = state.ReadHistory(f)
			f.Close()
		}
	}
	return r
}

// Prompt reads one line. Non-blank lines are added to history.
func (r *Reader) Prompt(prompt string) (string, error) {
	input, err := r.state.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		r.state.AppendHistory(input)
	}
	return input, nil
}

// Close saves history and restores the terminal.
func (r *Reader) Close() error {
	if r.historyPath != "" {
		if err := os.MkdirAll(filepath.Dir(r.historyPath), 0700); err == nil {
			if f, err := os.OpenFile(r.historyPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600); err == nil {
				_, _ = r.state.WriteHistory(f)
				f.Close()
			}
		}
	}
	return r.state.Close()
}
