// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package controller

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/jeranaias/geochat-tui/internal/answer"
	"github.com/jeranaias/geochat-tui/internal/backend"
	"github.com/jeranaias/geochat-tui/internal/geo"
	"github.com/jeranaias/geochat-tui/internal/model"
	"github.com/jeranaias/geochat-tui/internal/session"
	"github.com/jeranaias/geochat-tui/internal/storage"
)

// =============================================================================
// EFFECTS
// =============================================================================

// Exchange sends the snapshot's transcript to save-to-cache and turns the
// reply into AnswerReceived, or ExchangeFailed on any transport, status or
// shape problem. The mode is the one the last user message was sent with.
func (c *Controller) Exchange(ctx context.Context, snapshot session.State) session.Event {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	mode := lastUserMode(snapshot)
	resp, err := c.backend.SaveToCache(ctx, model.ToEntries(snapshot.Transcript), mode)
	if err != nil {
		c.logFailure("save to cache", mode, err)
		return failed(err)
	}

	res := answer.Extract(resp.AnswerMarkup)
	msg := model.NewBotMessage(res.Text, res.Query, mode)

	if mode != model.ModeMapping {
		return session.AnswerReceived{Message: msg, SimilarQuestion: resp.SimilarQuestion}
	}

	fs, err := geo.ParseFeatureSet(resp.MappingData)
	if err != nil {
		err = &backend.ClientError{Type: backend.ErrTypeMalformed, Message: "mapping_data is not a feature list", Cause: err}
		c.logFailure("parse mapping data", mode, err)
		return failed(err)
	}
	return session.AnswerReceived{Message: msg, Features: fs, HasMap: true}
}

// StartNewSession commits a non-empty conversation under the current
// session id, then starts a fresh session and reloads the session list.
// A failed commit is reported but does not stop the reset.
func (c *Controller) StartNewSession(ctx context.Context, snapshot session.State) []session.Event {
	var events []session.Event
	if snapshot.HasConversation() {
		events = append(events, c.Save(ctx, snapshot))
	}
	events = append(events, session.NewSessionStarted{Greeting: c.greetingMessage()})
	events = append(events, c.RefreshSessions(ctx))
	return events
}

// Save commits the cached conversation. The snapshot's session id is passed
// through as is (nil for a conversation never stored).
func (c *Controller) Save(ctx context.Context, snapshot session.State) session.Event {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	res, err := c.backend.CommitToStore(ctx, snapshot.SessionID)
	if err != nil {
		c.logFailure("commit", snapshot.Mode, err)
		return session.OperationFailed{Op: "save", Err: err}
	}
	c.archiveTranscript(ctx, snapshot, res.ChatID)
	return session.SessionCommitted{ChatID: res.ChatID}
}

// OpenSession loads a stored conversation.
func (c *Controller) OpenSession(ctx context.Context, id string) session.Event {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	entries, err := c.backend.FetchHistory(ctx, id)
	if err != nil {
		c.logFailure("fetch history", "", err)
		return session.OperationFailed{Op: "open chat " + id, Err: err}
	}
	return session.HistoryLoaded{SessionID: id, Messages: model.FromEntries(entries)}
}

// RefreshSessions reloads the list of stored conversations.
func (c *Controller) RefreshSessions(ctx context.Context) session.Event {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	sessions, err := c.backend.ListSessions(ctx)
	if err != nil {
		c.logFailure("list sessions", "", err)
		return session.OperationFailed{Op: "list sessions", Err: err}
	}
	return session.SessionsLoaded{Sessions: sessions}
}

// =============================================================================
// SYNCHRONOUS HELPERS
// =============================================================================

// Send submits text and waits for the answer. It is the line-mode
// equivalent of Submit followed by Exchange and Dispatch. A failed exchange
// still returns the state with the error notice, plus the error.
func (c *Controller) Send(ctx context.Context, text string) (session.State, error) {
	snapshot, ok := c.Submit(text)
	if !ok {
		return snapshot, nil
	}
	ev := c.Exchange(ctx, snapshot)
	st := c.Dispatch(ev)
	if f, isFail := ev.(session.ExchangeFailed); isFail {
		return st, f.Err
	}
	return st, nil
}

// NewSession runs StartNewSession against the current state.
func (c *Controller) NewSession(ctx context.Context) session.State {
	return c.DispatchAll(c.StartNewSession(ctx, c.State())...)
}

// Open loads a stored conversation and applies it.
func (c *Controller) Open(ctx context.Context, id string) (session.State, error) {
	ev := c.OpenSession(ctx, id)
	st := c.Dispatch(ev)
	if f, isFail := ev.(session.OperationFailed); isFail {
		return st, f.Err
	}
	return st, nil
}

// Refresh reloads the session list and applies it.
func (c *Controller) Refresh(ctx context.Context) (session.State, error) {
	ev := c.RefreshSessions(ctx)
	st := c.Dispatch(ev)
	if f, isFail := ev.(session.OperationFailed); isFail {
		return st, f.Err
	}
	return st, nil
}

// SaveNow commits the current conversation and applies the result.
func (c *Controller) SaveNow(ctx context.Context) (session.State, error) {
	ev := c.Save(ctx, c.State())
	st := c.Dispatch(ev)
	if f, isFail := ev.(session.OperationFailed); isFail {
		return st, f.Err
	}
	return st, nil
}

// =============================================================================
// HELPERS
// =============================================================================

func failed(err error) session.Event {
	return session.ExchangeFailed{Notice: model.NewNotice(session.ErrorNotice), Err: err}
}

func lastUserMode(s session.State) model.Mode {
	for i := len(s.Transcript) - 1; i >= 0; i-- {
		m := s.Transcript[i]
		if !m.IsBot && m.Mode.Valid() {
			return m.Mode
		}
	}
	return s.Mode
}

func (c *Controller) logFailure(op string, mode model.Mode, err error) {
	fields := []zap.Field{zap.String("op", op), zap.Error(err)}
	if mode != "" {
		fields = append(fields, zap.Stringer("mode", mode))
	}
	var ce *backend.ClientError
	if errors.As(err, &ce) {
		fields = append(fields, zap.Stringer("kind", ce.Type))
		if ce.Status != 0 {
			fields = append(fields, zap.Int("status", ce.Status))
		}
	}
	c.log.Warn("backend operation failed", fields...)
}

func (c *Controller) archiveTranscript(ctx context.Context, snapshot session.State, chatID string) {
	if c.archive == nil || !snapshot.HasConversation() {
		return
	}
	t := TranscriptOf(snapshot)
	if chatID != "" {
		t.SessionID = chatID
	}
	_, err := c.archive.Put(ctx, t)
	if err != nil {
		c.log.Warn("archive transcript", zap.String("chat_id", chatID), zap.Error(err))
	}
}

// TranscriptOf converts a session state into an archivable transcript. The
// local ID is left empty; Title and CreatedAt come from the messages.
func TranscriptOf(st session.State) storage.Transcript {
	t := storage.Transcript{
		SessionID: st.ID(),
		Title:     storage.Title(st.Transcript),
		Mode:      st.Mode,
		Messages:  st.Transcript,
		Features:  st.Features,
	}
	if len(st.Transcript) > 0 {
		t.CreatedAt = st.Transcript[0].CreatedAt
		t.UpdatedAt = st.Transcript[len(st.Transcript)-1].CreatedAt
	}
	return t
}
