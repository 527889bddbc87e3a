// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and messages.
//
// # Key Types
//
//   - Conversation: append-only list of messages for the chat view
//   - Message: immutable bubble with role, content and timestamp
//   - Role: user, assistant or system
//
// # Usage
//
//	conv := model.NewConversation()
//	conv.AddUserMessage("Hello!")
//	conv.AddAssistantMessage("Hi there!")
//
// The continuation token is not stored here. It lives in the worker, and
// the conversation text is never used to rebuild it.
package model
