// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the Bubble Tea chat window.
//
// Model owns the conversation and runs entirely on Bubble Tea's update
// loop. Submitting a line appends the user's message at once and hands a
// worker.Generate to the Sender; the reply comes back later as a
// worker.Reply or worker.Failure, delivered by ProgramPoster through
// tea.Program.Send.
//
// # Key Types
//
//   - Model: the tea.Model for the chat window
//   - Sender: where submitted prompts go (a *worker.Worker)
//   - ProgramPoster: worker.Poster that forwards events into a tea.Program
//   - KeyMap: keyboard bindings
package chat
