// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/jeranaias/geochat-tui/internal/geo"
	"github.com/jeranaias/geochat-tui/internal/model"
)

func TestInitial(t *testing.T) {
	greeting := model.NewNotice("hi i am djangogpt")
	s := Initial(model.ModeMapping, &greeting)
	if s.Mode != model.ModeMapping {
		t.Errorf("Mode = %q, want mapping", s.Mode)
	}
	if len(s.Transcript) != 1 || s.Transcript[0].Text != "hi i am djangogpt" {
		t.Errorf("Transcript = %+v, want greeting only", s.Transcript)
	}
	if s.HasConversation() {
		t.Error("greeting alone should not count as a conversation")
	}
	if got := Initial("bogus", nil).Mode; got != model.ModeGeneration {
		t.Errorf("invalid mode fell back to %q, want generation", got)
	}
}

func TestSubmitAppendsAndClearsInput(t *testing.T) {
	s := Initial(model.ModeGeneration, nil)
	s = Reduce(s, InputChanged{Text: "parks"})
	s.SimilarQuestion = "old suggestion"

	msg := model.NewUserMessage("parks", model.ModeGeneration)
	next := Reduce(s, Submitted{Message: msg})

	if next.Input != "" {
		t.Errorf("Input = %q, want cleared", next.Input)
	}
	if len(next.Transcript) != 1 || next.Transcript[0].ID != msg.ID {
		t.Errorf("Transcript = %+v, want the submitted message", next.Transcript)
	}
	if !next.Busy() {
		t.Error("state should be busy after submit")
	}
	if next.SimilarQuestion != "" {
		t.Errorf("SimilarQuestion = %q, want cleared", next.SimilarQuestion)
	}
	if s.Input != "parks" || len(s.Transcript) != 0 {
		t.Error("Reduce modified its input state")
	}
}

func TestSubmitIgnoresBlank(t *testing.T) {
	s := Initial(model.ModeGeneration, nil)
	next := Reduce(s, Submitted{Message: model.NewUserMessage("   ", model.ModeGeneration)})
	if diff := cmp.Diff(s, next); diff != "" {
		t.Errorf("blank submit changed state (-before +after):\n%s", diff)
	}
}

func TestTranscriptIsCopiedOnWrite(t *testing.T) {
	base := Initial(model.ModeGeneration, nil)
	base = Reduce(base, Submitted{Message: model.NewUserMessage("one", model.ModeGeneration)})

	a := Reduce(base, AnswerReceived{Message: model.NewBotMessage("A", "", model.ModeGeneration)})
	b := Reduce(base, AnswerReceived{Message: model.NewBotMessage("B", "", model.ModeGeneration)})

	if a.Transcript[1].Text != "A" || b.Transcript[1].Text != "B" {
		t.Errorf("branches share storage: a=%q b=%q", a.Transcript[1].Text, b.Transcript[1].Text)
	}
	if len(base.Transcript) != 1 {
		t.Errorf("base transcript grew to %d", len(base.Transcript))
	}
}

func TestAnswerReceivedMapping(t *testing.T) {
	s := Reduce(Initial(model.ModeMapping, nil), Submitted{Message: model.NewUserMessage("q", model.ModeMapping)})
	fs := geo.FeatureSet{geo.NewFeature([2]float64{1, 2})}

	s = Reduce(s, AnswerReceived{Message: model.NewBotMessage("Answer text", "", model.ModeMapping), Features: fs, HasMap: true})

	if s.Busy() {
		t.Error("answer should end the pending request")
	}
	if !s.HasMap || len(s.Features) != 1 {
		t.Errorf("Features = %v HasMap = %v, want 1 feature", s.Features, s.HasMap)
	}

	// A later mapping answer replaces, never merges.
	s = Reduce(s, AnswerReceived{Message: model.NewBotMessage("none", "", model.ModeMapping), Features: geo.FeatureSet{}, HasMap: true})
	if len(s.Features) != 0 {
		t.Errorf("Features = %v, want replaced by empty set", s.Features)
	}

	// Non-mapping answers leave the map alone.
	s = Reduce(s, AnswerReceived{Message: model.NewBotMessage("text", "", model.ModeGeneration), SimilarQuestion: "and rivers?"})
	if !s.HasMap {
		t.Error("non-mapping answer cleared the map")
	}
	if s.SimilarQuestion != "and rivers?" {
		t.Errorf("SimilarQuestion = %q", s.SimilarQuestion)
	}
}

func TestExchangeFailedAddsNotice(t *testing.T) {
	s := Reduce(Initial(model.ModeGeneration, nil), Submitted{Message: model.NewUserMessage("q", model.ModeGeneration)})
	s = Reduce(s, ExchangeFailed{Err: errors.New("connection refused")})

	last, ok := s.LastBotMessage()
	if !ok || last.Text != ErrorNotice || !last.Synthetic {
		t.Errorf("last bot message = %+v, want synthetic %q", last, ErrorNotice)
	}
	if s.Busy() {
		t.Error("failure should end the pending request")
	}
	if s.Status != "connection refused" {
		t.Errorf("Status = %q", s.Status)
	}
	if s.Pending != 0 {
		t.Errorf("Pending = %d", s.Pending)
	}
	// Extra completions never drive the counter negative.
	s = Reduce(s, ExchangeFailed{})
	if s.Pending != 0 {
		t.Errorf("Pending = %d after extra failure, want 0", s.Pending)
	}
}

func TestNewSessionClearsConversation(t *testing.T) {
	s := Initial(model.ModeMapping, nil)
	s = ReduceAll(s,
		Submitted{Message: model.NewUserMessage("q", model.ModeMapping)},
		AnswerReceived{Message: model.NewBotMessage("a", "", model.ModeMapping), Features: geo.FeatureSet{{}}, HasMap: true, SimilarQuestion: "x"},
		SessionCommitted{ChatID: "9"},
		SessionsLoaded{Sessions: []model.SessionSummary{{ID: "9"}}},
	)
	if s.ID() != "9" {
		t.Fatalf("ID = %q, want 9", s.ID())
	}

	greeting := model.NewNotice("hello")
	s = Reduce(s, NewSessionStarted{Greeting: &greeting})

	if s.SessionID != nil {
		t.Errorf("SessionID = %v, want nil", *s.SessionID)
	}
	if len(s.Transcript) != 1 || s.Transcript[0].Text != "hello" {
		t.Errorf("Transcript = %+v, want greeting only", s.Transcript)
	}
	if s.Features != nil || s.HasMap || s.SimilarQuestion != "" {
		t.Errorf("map/suggestion not cleared: %+v", s)
	}
	if len(s.Sessions) != 1 || s.Mode != model.ModeMapping {
		t.Error("session list and mode should survive a new session")
	}
}

func TestHistoryLoaded(t *testing.T) {
	msgs := model.FromEntries([]model.Entry{{Text: "hi"}, {Text: "hello", IsBot: true}})
	s := Reduce(Initial(model.ModeGeneration, nil), HistoryLoaded{SessionID: "4", Messages: msgs})

	if s.ID() != "4" {
		t.Errorf("ID = %q, want 4", s.ID())
	}
	if len(s.Transcript) != 2 {
		t.Fatalf("len(Transcript) = %d, want 2", len(s.Transcript))
	}
	msgs[0].Text = "mutated"
	if s.Transcript[0].Text != "hi" {
		t.Error("HistoryLoaded kept a reference to the caller's slice")
	}
}

func TestSessionCommittedWithoutID(t *testing.T) {
	s := Reduce(Initial(model.ModeGeneration, nil), SessionCommitted{})
	if s.SessionID != nil {
		t.Error("empty chat id should not set a session id")
	}
	if s.Status != "Saved" {
		t.Errorf("Status = %q", s.Status)
	}
}

func TestSuggestionAccepted(t *testing.T) {
	s := Initial(model.ModeGeneration, nil)
	s.SimilarQuestion = "What about rivers?"
	s = Reduce(s, SuggestionAccepted{})
	if s.Input != "What about rivers?" || s.SimilarQuestion != "" {
		t.Errorf("Input = %q SimilarQuestion = %q", s.Input, s.SimilarQuestion)
	}
	if again := Reduce(s, SuggestionAccepted{}); again.Input != s.Input {
		t.Error("accepting with no suggestion changed the input")
	}
}

func TestModeSelected(t *testing.T) {
	s := Reduce(Initial(model.ModeGeneration, nil), ModeSelected{Mode: model.ModeComparative})
	if s.Mode != model.ModeComparative {
		t.Errorf("Mode = %q", s.Mode)
	}
	if Reduce(s, ModeSelected{Mode: "nope"}).Mode != model.ModeComparative {
		t.Error("invalid mode was accepted")
	}
}

func TestOperationFailedOnlyTouchesStatus(t *testing.T) {
	s := Initial(model.ModeGeneration, nil)
	next := Reduce(s, OperationFailed{Op: "list sessions", Err: errors.New("timeout")})
	if next.Status != "list sessions failed: timeout" {
		t.Errorf("Status = %q", next.Status)
	}
	next.Status = ""
	if diff := cmp.Diff(s, next); diff != "" {
		t.Errorf("unexpected change (-want +got):\n%s", diff)
	}
	if Reduce(next, StatusCleared{}).Status != "" {
		t.Error("StatusCleared kept the status")
	}
}

func TestStatusSetAndCleared(t *testing.T) {
	s := Reduce(Initial(model.ModeGeneration, nil), StatusSet{Text: "Exported to chat.md"})
	if s.Status != "Exported to chat.md" {
		t.Errorf("Status = %q", s.Status)
	}
	if Reduce(s, StatusCleared{}).Status != "" {
		t.Error("StatusCleared kept the status")
	}
}
