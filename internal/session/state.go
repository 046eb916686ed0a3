// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"github.com/jeranaias/geochat-tui/internal/geo"
	"github.com/jeranaias/geochat-tui/internal/model"
)

// =============================================================================
// STATE
// =============================================================================

// State is the whole chat session as one value. It is never mutated in
// place: Reduce returns a new State and slices are copied on write, so a
// State handed to a background effect stays valid.
type State struct {
	// Input is the text currently in the input box.
	Input string

	// Transcript is the ordered conversation shown to the user.
	Transcript []model.Message

	// SessionID is the backend id of this conversation; nil until stored.
	SessionID *string

	// Sessions lists prior stored conversations, newest first.
	Sessions []model.SessionSummary

	// Mode is applied to the next outgoing message.
	Mode model.Mode

	// SimilarQuestion is a pending follow-up suggestion from the backend.
	SimilarQuestion string

	// Features is the FeatureSet of the latest mapping answer.
	Features geo.FeatureSet

	// HasMap is true once a mapping answer arrived in this session.
	HasMap bool

	// Pending counts requests awaiting an answer.
	Pending int

	// Status is a transient one-line notice for the status bar.
	Status string
}

// Initial returns the state of a fresh session. A non-nil greeting is shown
// as the first transcript entry.
func Initial(mode model.Mode, greeting *model.Message) State {
	if !mode.Valid() {
		mode = model.ModeGeneration
	}
	s := State{Mode: mode}
	if greeting != nil {
		s.Transcript = []model.Message{*greeting}
	}
	return s
}

// ID returns the session id or "" when the session is not stored yet.
func (s State) ID() string {
	if s.SessionID == nil {
		return ""
	}
	return *s.SessionID
}

// Busy reports whether an exchange is in flight.
func (s State) Busy() bool {
	return s.Pending > 0
}

// HasConversation reports whether the transcript holds anything the backend
// has seen. Client-side notices and the greeting do not count.
func (s State) HasConversation() bool {
	for _, m := range s.Transcript {
		if !m.Synthetic {
			return true
		}
	}
	return false
}

// LastBotMessage returns the most recent bot entry, if any.
func (s State) LastBotMessage() (model.Message, bool) {
	for i := len(s.Transcript) - 1; i >= 0; i-- {
		if s.Transcript[i].IsBot {
			return s.Transcript[i], true
		}
	}
	return model.Message{}, false
}

func appendMessage(msgs []model.Message, m model.Message) []model.Message {
	out := make([]model.Message, len(msgs), len(msgs)+1)
	copy(out, msgs)
	return append(out, m)
}

func copyMessages(msgs []model.Message) []model.Message {
	if msgs == nil {
		return nil
	}
	return append([]model.Message(nil), msgs...)
}

func stringPtr(s string) *string {
	return &s
}
