// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package ollama provides the HTTP client for communicating with Ollama API.
//
// This package implements a small client for the Ollama local LLM server's
// /api/generate endpoint. Generation is non-streaming: one request, one
// complete reply.
//
// # Key Types
//
//   - Client: HTTP client for Ollama API communication
//   - Continuation: opaque context returned by the server and fed back in
//   - GenerateResult: trimmed reply text plus the replacement continuation
//   - ClientError: every failure, categorized by ErrorType
//
// # Usage
//
// Thread the continuation through successive turns:
//
//	var cont ollama.Continuation
//	res, err := client.Generate(ctx, "llama3", "Hello", cont)
//	if err != nil {
//	    return err
//	}
//	cont = res.Context
//
// The client never retries. Retry policy, if any, belongs to the caller.
package ollama
