// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"github.com/jeranaias/geochat-tui/internal/geo"
	"github.com/jeranaias/geochat-tui/internal/model"
)

// =============================================================================
// EVENTS
// =============================================================================

// Event is something that happened to the session. Events carry every
// impure value (ids, timestamps, parsed responses) so transitions stay pure.
type Event interface {
	event()
}

// InputChanged replaces the input text.
type InputChanged struct {
	Text string
}

// ModeSelected changes the mode for subsequent messages.
type ModeSelected struct {
	Mode model.Mode
}

// Submitted appends the user's message, clears the input and marks a
// request in flight.
type Submitted struct {
	Message model.Message
}

// AnswerReceived appends the bot reply. When HasMap is set the session's
// FeatureSet is replaced by Features.
type AnswerReceived struct {
	Message         model.Message
	SimilarQuestion string
	Features        geo.FeatureSet
	HasMap          bool
}

// ExchangeFailed ends a request with a synthetic notice in the transcript.
type ExchangeFailed struct {
	Notice model.Message
	Err    error
}

// OperationFailed reports a failed background operation on the status line
// without touching the transcript.
type OperationFailed struct {
	Op  string
	Err error
}

// NewSessionStarted clears the conversation. Greeting, if set, becomes the
// first entry of the new transcript.
type NewSessionStarted struct {
	Greeting *model.Message
}

// SessionsLoaded replaces the list of prior sessions.
type SessionsLoaded struct {
	Sessions []model.SessionSummary
}

// HistoryLoaded replaces the transcript with a stored session.
type HistoryLoaded struct {
	SessionID string
	Messages  []model.Message
}

// SessionCommitted records a successful commit-to-store.
type SessionCommitted struct {
	ChatID string
}

// SuggestionAccepted moves the pending similar question into the input.
type SuggestionAccepted struct{}

// StatusSet shows a client-side notice on the status line.
type StatusSet struct {
	Text string
}

// StatusCleared drops the transient status line.
type StatusCleared struct{}

func (InputChanged) event()       {}
func (ModeSelected) event()       {}
func (Submitted) event()          {}
func (AnswerReceived) event()     {}
func (ExchangeFailed) event()     {}
func (OperationFailed) event()    {}
func (NewSessionStarted) event()  {}
func (SessionsLoaded) event()     {}
func (HistoryLoaded) event()      {}
func (SessionCommitted) event()   {}
func (SuggestionAccepted) event() {}
func (StatusSet) event()          {}
func (StatusCleared) event()      {}
