// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"fmt"
	"strings"

	"github.com/jeranaias/geochat-tui/internal/geo"
	"github.com/jeranaias/geochat-tui/internal/model"
)

// ErrorNotice is the transcript text shown when an exchange fails.
const ErrorNotice = "Error processing message"

// =============================================================================
// REDUCER
// =============================================================================

// Reduce applies ev to s and returns the new state. It has no side effects
// and does not modify s. Unknown events return s unchanged.
func Reduce(s State, ev Event) State {
	switch e := ev.(type) {
	case InputChanged:
		return changeInput(s, e)
	case ModeSelected:
		return selectMode(s, e)
	case Submitted:
		return submit(s, e)
	case AnswerReceived:
		return receiveAnswer(s, e)
	case ExchangeFailed:
		return failExchange(s, e)
	case OperationFailed:
		return failOperation(s, e)
	case NewSessionStarted:
		return startNewSession(s, e)
	case SessionsLoaded:
		return loadSessions(s, e)
	case HistoryLoaded:
		return loadHistory(s, e)
	case SessionCommitted:
		return commitSession(s, e)
	case SuggestionAccepted:
		return acceptSuggestion(s)
	case StatusSet:
		s.Status = e.Text
		return s
	case StatusCleared:
		s.Status = ""
		return s
	default:
		return s
	}
}

// ReduceAll folds a sequence of events.
func ReduceAll(s State, events ...Event) State {
	for _, ev := range events {
		s = Reduce(s, ev)
	}
	return s
}

// =============================================================================
// TRANSITIONS
// =============================================================================

func changeInput(s State, e InputChanged) State {
	s.Input = e.Text
	return s
}

func selectMode(s State, e ModeSelected) State {
	if !e.Mode.Valid() {
		return s
	}
	s.Mode = e.Mode
	s.Status = "Mode: " + e.Mode.DisplayName()
	return s
}

// submit ignores blank messages so an accidental Enter sends nothing.
func submit(s State, e Submitted) State {
	if strings.TrimSpace(e.Message.Text) == "" {
		return s
	}
	s.Transcript = appendMessage(s.Transcript, e.Message)
	s.Input = ""
	s.SimilarQuestion = ""
	s.Pending++
	s.Status = ""
	return s
}

func receiveAnswer(s State, e AnswerReceived) State {
	s.Transcript = appendMessage(s.Transcript, e.Message)
	s.SimilarQuestion = e.SimilarQuestion
	if e.HasMap {
		s.Features = append(geo.FeatureSet{}, e.Features...)
		s.HasMap = true
		s.Status = "Map: " + e.Features.Summary()
	}
	s.Pending = done(s.Pending)
	return s
}

func failExchange(s State, e ExchangeFailed) State {
	notice := e.Notice
	if notice.Text == "" {
		notice.Text = ErrorNotice
	}
	notice.IsBot = true
	notice.Synthetic = true
	s.Transcript = appendMessage(s.Transcript, notice)
	s.Pending = done(s.Pending)
	if e.Err != nil {
		s.Status = e.Err.Error()
	}
	return s
}

func failOperation(s State, e OperationFailed) State {
	if e.Err != nil {
		s.Status = fmt.Sprintf("%s failed: %v", e.Op, e.Err)
	} else {
		s.Status = e.Op + " failed"
	}
	return s
}

// startNewSession drops everything tied to the current conversation. The
// session list and the selected mode carry over.
func startNewSession(s State, e NewSessionStarted) State {
	s.Transcript = nil
	if e.Greeting != nil {
		s.Transcript = []model.Message{*e.Greeting}
	}
	s.SessionID = nil
	s.SimilarQuestion = ""
	s.Features = nil
	s.HasMap = false
	s.Status = "New chat"
	return s
}

func loadSessions(s State, e SessionsLoaded) State {
	s.Sessions = append([]model.SessionSummary(nil), e.Sessions...)
	return s
}

func loadHistory(s State, e HistoryLoaded) State {
	s.Transcript = copyMessages(e.Messages)
	s.SessionID = stringPtr(e.SessionID)
	s.SimilarQuestion = ""
	s.Features = nil
	s.HasMap = false
	s.Status = fmt.Sprintf("Opened chat %s (%d messages)", e.SessionID, len(e.Messages))
	return s
}

func commitSession(s State, e SessionCommitted) State {
	if e.ChatID != "" {
		s.SessionID = stringPtr(e.ChatID)
		s.Status = "Saved as chat " + e.ChatID
	} else {
		s.Status = "Saved"
	}
	return s
}

func acceptSuggestion(s State) State {
	if s.SimilarQuestion == "" {
		return s
	}
	s.Input = s.SimilarQuestion
	s.SimilarQuestion = ""
	return s
}

func done(pending int) int {
	if pending > 0 {
		return pending - 1
	}
	return 0
}
