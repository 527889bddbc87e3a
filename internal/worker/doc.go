// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package worker runs generation requests on a single background goroutine.
//
// The UI never calls the inference client directly. It sends Generate
// messages to a Worker over an unbounded FIFO Queue and receives Reply or
// Failure events through a Poster, which must hand them to the UI's own
// event loop (tea.Program.Send in the terminal UI).
//
// The Worker is the only owner of the conversation's continuation token.
// Requests are processed strictly one at a time, so turn n always sees the
// token produced by turn n-1. A failed request leaves the token as it was
// and the worker keeps serving.
//
// # Lifecycle
//
//	w := worker.New(client, poster, worker.Config{Model: "llama3"})
//	w.Start()
//	_ = w.Send(worker.NewGenerate("Hello"))
//	...
//	w.Shutdown()
//	w.Join()
package worker
