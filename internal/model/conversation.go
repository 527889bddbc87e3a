// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and messages.
package model

import (
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// CONVERSATION TYPE
// =============================================================================

// Conversation is the append-only list of messages shown in the chat view.
//
// A Conversation belongs to the UI's execution context and is not safe for
// concurrent use. Background work reaches it only by posting an event that
// the UI loop applies.
type Conversation struct {
	ID        string
	Model     string
	CreatedAt time.Time
	UpdatedAt time.Time

	messages []Message
}

// NewConversation creates a new conversation with a generated ID.
func NewConversation() *Conversation {
	now := time.Now()
	return &Conversation{
		ID:        uuid.NewString(),
		CreatedAt: now,
		UpdatedAt: now,
		messages:  make([]Message, 0),
	}
}

// NewConversationWithModel creates a new conversation with a specific model.
func NewConversationWithModel(model string) *Conversation {
	conv := NewConversation()
	conv.Model = model
	return conv
}

// =============================================================================
// MESSAGE MANAGEMENT
// =============================================================================

// Append adds a message to the end of the conversation.
func (c *Conversation) Append(msg Message) Message {
	c.messages = append(c.messages, msg)
	c.UpdatedAt = time.Now()
	return msg
}

// AddUserMessage creates and adds a user message.
func (c *Conversation) AddUserMessage(content string) Message {
	return c.Append(NewMessage(RoleUser, content))
}

// AddAssistantMessage creates and adds an assistant message.
func (c *Conversation) AddAssistantMessage(content string) Message {
	return c.Append(NewMessage(RoleAssistant, content))
}

// AddSystemMessage creates and adds a system notice, e.g. a failed request.
func (c *Conversation) AddSystemMessage(content string) Message {
	return c.Append(NewMessage(RoleSystem, content))
}

// Messages returns a copy of the messages in conversation order.
func (c *Conversation) Messages() []Message {
	out := make([]Message, len(c.messages))
	copy(out, c.messages)
	return out
}

// Last returns the most recent message.
func (c *Conversation) Last() (Message, bool) {
	if len(c.messages) == 0 {
		return Message{}, false
	}
	return c.messages[len(c.messages)-1], true
}

// MessageCount returns the number of messages.
func (c *Conversation) MessageCount() int {
	return len(c.messages)
}

// IsEmpty returns true if there are no messages.
func (c *Conversation) IsEmpty() bool {
	return len(c.messages) == 0
}
