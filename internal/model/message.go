// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// Message is one transcript entry.
type Message struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	IsBot     bool      `json:"is_bot"`
	Mode      Mode      `json:"mode,omitempty"`
	CreatedAt time.Time `json:"created_at"`

	// Query holds the SQL the backend appended after its answer, if any.
	// It is displayed separately and never sent back as part of Text.
	Query string `json:"query,omitempty"`

	// Synthetic marks client-generated entries (greeting, error notices).
	// They are shown but not sent to the backend.
	Synthetic bool `json:"synthetic,omitempty"`
}

// NewUserMessage creates a message typed by the user.
func NewUserMessage(text string, mode Mode) Message {
	return Message{
		ID:        uuid.NewString(),
		Text:      text,
		Mode:      mode,
		CreatedAt: time.Now(),
	}
}

// NewBotMessage creates a message returned by the backend.
func NewBotMessage(text, query string, mode Mode) Message {
	return Message{
		ID:        uuid.NewString(),
		Text:      text,
		IsBot:     true,
		Mode:      mode,
		Query:     query,
		CreatedAt: time.Now(),
	}
}

// NewNotice creates a synthetic bot message generated on the client.
func NewNotice(text string) Message {
	m := NewBotMessage(text, "", "")
	m.Synthetic = true
	return m
}

// Author returns the label shown next to the message.
func (m Message) Author() string {
	if m.IsBot {
		return "Bot"
	}
	return "You"
}
