// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package controller

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/jeranaias/geochat-tui/internal/backend"
	"github.com/jeranaias/geochat-tui/internal/geo"
	"github.com/jeranaias/geochat-tui/internal/mapview"
	"github.com/jeranaias/geochat-tui/internal/model"
	"github.com/jeranaias/geochat-tui/internal/session"
	"github.com/jeranaias/geochat-tui/internal/storage"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		// keep-alive connections of the shared HTTP transport
		goleak.IgnoreTopFunction("net/http.(*persistConn).readLoop"),
		goleak.IgnoreTopFunction("net/http.(*persistConn).writeLoop"),
		goleak.IgnoreTopFunction("internal/poll.runtime_pollWait"),
	)
}

// =============================================================================
// FAKES
// =============================================================================

type fakeBackend struct {
	mu    sync.Mutex
	calls []string

	cache    *backend.CacheResponse
	cacheErr error

	commit    *backend.CommitResult
	commitErr error

	history    []model.Entry
	historyErr error

	sessions []model.SessionSummary
	listErr  error

	lastEntries []model.Entry
	lastMode    model.Mode
	lastChatID  *string
}

func (f *fakeBackend) record(call string) {
	f.mu.Lock()
	f.calls = append(f.calls, call)
	f.mu.Unlock()
}

func (f *fakeBackend) SaveToCache(_ context.Context, entries []model.Entry, mode model.Mode) (*backend.CacheResponse, error) {
	f.record("cache")
	f.lastEntries, f.lastMode = entries, mode
	return f.cache, f.cacheErr
}

func (f *fakeBackend) CommitToStore(_ context.Context, chatID *string) (*backend.CommitResult, error) {
	f.record("commit")
	f.lastChatID = chatID
	if f.commitErr != nil {
		return nil, f.commitErr
	}
	if f.commit == nil {
		return &backend.CommitResult{}, nil
	}
	return f.commit, nil
}

func (f *fakeBackend) FetchHistory(_ context.Context, id string) ([]model.Entry, error) {
	f.record("history:" + id)
	return f.history, f.historyErr
}

func (f *fakeBackend) ListSessions(context.Context) ([]model.SessionSummary, error) {
	f.record("list")
	return f.sessions, f.listErr
}

type fakeArchive struct {
	puts []storage.Transcript
}

func (a *fakeArchive) Put(_ context.Context, t storage.Transcript) (string, error) {
	a.puts = append(a.puts, t)
	return "local", nil
}

func newTestController(b Backend) *Controller {
	return New(b, Options{
		Greeting: "hi i am djangogpt",
		Renderer: mapview.NewRenderer(mapview.Options{Seed: 1}),
	})
}

// =============================================================================
// EXCHANGE
// =============================================================================

func TestMappingExchange(t *testing.T) {
	fb := &fakeBackend{cache: &backend.CacheResponse{
		Mode:         model.ModeMapping,
		AnswerMarkup: "<p>Answer text</p>SQL_query: SELECT *",
		MappingData:  "[]",
	}}
	c := newTestController(fb)
	canvas := mapview.NewCanvasSurface(20, 6)
	c.Attach(canvas)
	c.SelectMode(model.ModeMapping)

	st, err := c.Send(context.Background(), "where are the parks")
	require.NoError(t, err)

	last, ok := st.LastBotMessage()
	require.True(t, ok)
	assert.Equal(t, "Answer text", last.Text)
	assert.Equal(t, "SELECT *", last.Query)
	assert.True(t, st.HasMap)
	assert.Empty(t, st.Features)
	assert.False(t, st.Busy())

	assert.Equal(t, model.ModeMapping, fb.lastMode)
	require.Len(t, fb.lastEntries, 1, "greeting is not sent")
	assert.Equal(t, model.Entry{Text: "where are the parks", Option: model.ModeMapping}, fb.lastEntries[0])

	m := c.CurrentMap()
	require.NotNil(t, m)
	assert.Equal(t, mapview.DefaultView, m.View)
	assert.True(t, canvas.Mounted(), "attached surfaces receive the map")
}

func TestMappingExchangeDrawsFeatures(t *testing.T) {
	fb := &fakeBackend{cache: &backend.CacheResponse{
		AnswerMarkup: "ok",
		MappingData:  `[{"coordinates": [[1], [10, 20]]}, {"coordinates": [[0, 0], [0, 1], [1, 1]]}]`,
	}}
	c := newTestController(fb)
	mem := mapview.NewMemorySurface()
	c.Attach(mem)
	c.SelectMode(model.ModeMapping)

	_, err := c.Send(context.Background(), "q")
	require.NoError(t, err)

	require.Len(t, mem.Current().Polygons, 2)
	assert.Equal(t, []geo.LatLng{{Lat: 20, Lng: 10}}, mem.Current().Polygons[0].LatLngs)
	assert.Equal(t, 1, c.LastRender().Dropped)
	assert.Equal(t, c.CurrentMap().View, mem.Current().View, "surfaces share the record's center")
}

func TestNonMappingExchange(t *testing.T) {
	fb := &fakeBackend{cache: &backend.CacheResponse{
		Mode:            model.ModeRetrieval,
		AnswerMarkup:    "<b>Three</b> results",
		SimilarQuestion: "What about rivers?",
	}}
	c := newTestController(fb)
	c.SelectMode(model.ModeRetrieval)

	st, err := c.Send(context.Background(), "how many parks")
	require.NoError(t, err)

	last, _ := st.LastBotMessage()
	assert.Equal(t, "Three results", last.Text)
	assert.Equal(t, "What about rivers?", st.SimilarQuestion)
	assert.False(t, st.HasMap)
	assert.Nil(t, c.CurrentMap(), "renderer is not invoked outside mapping mode")

	st = c.AcceptSuggestion()
	assert.Equal(t, "What about rivers?", st.Input)
}

func TestExchangeFailureAddsNotice(t *testing.T) {
	fb := &fakeBackend{cacheErr: backend.ErrUnreachable}
	c := newTestController(fb)

	st, err := c.Send(context.Background(), "hello")
	assert.ErrorIs(t, err, backend.ErrUnreachable)

	require.Len(t, st.Transcript, 3)
	last := st.Transcript[2]
	assert.True(t, last.IsBot)
	assert.Equal(t, "Error processing message", last.Text)
	assert.False(t, st.Busy())
}

func TestMalformedMappingDataFails(t *testing.T) {
	fb := &fakeBackend{cache: &backend.CacheResponse{AnswerMarkup: "a", MappingData: `{"not": "a list"}`}}
	c := newTestController(fb)
	c.SelectMode(model.ModeMapping)

	st, err := c.Send(context.Background(), "q")
	assert.ErrorIs(t, err, backend.ErrMalformed)
	last, _ := st.LastBotMessage()
	assert.Equal(t, session.ErrorNotice, last.Text)
	assert.False(t, st.HasMap)
}

func TestExchangeUsesModeOfSubmittedMessage(t *testing.T) {
	fb := &fakeBackend{cache: &backend.CacheResponse{AnswerMarkup: "a", MappingData: "[]"}}
	c := newTestController(fb)
	c.SelectMode(model.ModeMapping)

	snapshot, ok := c.Submit("q")
	require.True(t, ok)
	c.SelectMode(model.ModeGeneration) // changed while the request is in flight

	ev := c.Exchange(context.Background(), snapshot)
	got, isAnswer := ev.(session.AnswerReceived)
	require.True(t, isAnswer)
	assert.True(t, got.HasMap)
	assert.Equal(t, model.ModeMapping, fb.lastMode)
}

func TestSubmitIgnoresBlankInput(t *testing.T) {
	fb := &fakeBackend{}
	c := newTestController(fb)
	st, err := c.Send(context.Background(), " \n\t ")
	require.NoError(t, err)
	assert.Len(t, st.Transcript, 1)
	assert.Empty(t, fb.calls)
}

// =============================================================================
// SESSIONS
// =============================================================================

func TestNewSessionCommitsBeforeClearing(t *testing.T) {
	fb := &fakeBackend{
		cache:    &backend.CacheResponse{AnswerMarkup: "a", MappingData: "[[[0, 0], [1, 1], [0, 1]]]"},
		commit:   &backend.CommitResult{ChatID: "5"},
		sessions: []model.SessionSummary{{ID: "5"}},
	}
	archive := &fakeArchive{}
	c := New(fb, Options{Greeting: "hello", Archive: archive})
	mem := mapview.NewMemorySurface()
	c.Attach(mem)
	c.SelectMode(model.ModeMapping)

	_, err := c.Send(context.Background(), "q")
	require.NoError(t, err)
	require.NotNil(t, mem.Current())

	st := c.NewSession(context.Background())

	assert.Equal(t, []string{"cache", "commit", "list"}, fb.calls)
	assert.Nil(t, fb.lastChatID, "first commit has no session id")
	assert.Nil(t, st.SessionID)
	require.Len(t, st.Transcript, 1)
	assert.Equal(t, "hello", st.Transcript[0].Text)
	assert.Nil(t, st.Features)
	assert.False(t, st.HasMap)
	assert.Equal(t, []model.SessionSummary{{ID: "5"}}, st.Sessions)
	assert.Nil(t, mem.Current(), "map cleared with the session")
	assert.Nil(t, c.CurrentMap())

	require.Len(t, archive.puts, 1)
	assert.Equal(t, "5", archive.puts[0].SessionID)
	assert.Len(t, archive.puts[0].Features, 1)
}

func TestNewSessionWithEmptyTranscriptSkipsCommit(t *testing.T) {
	fb := &fakeBackend{}
	c := newTestController(fb)

	c.NewSession(context.Background())
	assert.Equal(t, []string{"list"}, fb.calls)
}

func TestNewSessionSurvivesCommitFailure(t *testing.T) {
	fb := &fakeBackend{
		cache:     &backend.CacheResponse{AnswerMarkup: "a"},
		commitErr: &backend.ClientError{Type: backend.ErrTypeNotFound, Message: "No chat data in cache"},
	}
	c := newTestController(fb)
	_, err := c.Send(context.Background(), "q")
	require.NoError(t, err)

	st := c.NewSession(context.Background())
	assert.Len(t, st.Transcript, 1, "reset still happens")
	assert.Equal(t, []string{"cache", "commit", "list"}, fb.calls)
}

func TestSaveKeepsSessionID(t *testing.T) {
	fb := &fakeBackend{
		cache:  &backend.CacheResponse{AnswerMarkup: "a"},
		commit: &backend.CommitResult{ChatID: "8"},
	}
	c := newTestController(fb)
	_, err := c.Send(context.Background(), "q")
	require.NoError(t, err)

	st, err := c.SaveNow(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "8", st.ID())

	_, err = c.SaveNow(context.Background())
	require.NoError(t, err)
	require.NotNil(t, fb.lastChatID)
	assert.Equal(t, "8", *fb.lastChatID, "later commits pass the current id")
}

func TestOpenSession(t *testing.T) {
	fb := &fakeBackend{history: []model.Entry{{Text: "hi"}, {Text: "hello", IsBot: true}}}
	c := newTestController(fb)

	st, err := c.Open(context.Background(), "3")
	require.NoError(t, err)
	assert.Equal(t, "3", st.ID())
	assert.Len(t, st.Transcript, 2)
	assert.Equal(t, []string{"history:3"}, fb.calls)

	fb.historyErr = backend.ErrNotFound
	st, err = c.Open(context.Background(), "99")
	assert.ErrorIs(t, err, backend.ErrNotFound)
	assert.Equal(t, "3", st.ID(), "failed open keeps the current session")
	assert.Contains(t, st.Status, "open chat 99 failed")
}

func TestRefreshFailure(t *testing.T) {
	fb := &fakeBackend{listErr: errors.New("down")}
	c := newTestController(fb)
	st, err := c.Refresh(context.Background())
	assert.Error(t, err)
	assert.Equal(t, "list sessions failed: down", st.Status)
}

func TestDetach(t *testing.T) {
	fb := &fakeBackend{cache: &backend.CacheResponse{AnswerMarkup: "a", MappingData: "[]"}}
	c := newTestController(fb)
	mem := mapview.NewMemorySurface()
	c.Attach(mem)
	c.Detach(mem)
	c.SelectMode(model.ModeMapping)
	_, err := c.Send(context.Background(), "q")
	require.NoError(t, err)
	assert.Nil(t, mem.Current())
	assert.NotNil(t, c.CurrentMap())
}

func TestTranscriptOf(t *testing.T) {
	fb := &fakeBackend{
		cache:  &backend.CacheResponse{AnswerMarkup: "a", MappingData: `[{"coordinates": [[1, 2], [3, 4]]}]`},
		commit: &backend.CommitResult{ChatID: "5"},
	}
	archive := &fakeArchive{}
	c := New(fb, Options{
		Greeting: "hi",
		Renderer: mapview.NewRenderer(mapview.Options{Seed: 1}),
		Archive:  archive,
	})
	c.SelectMode(model.ModeMapping)
	st, err := c.Send(context.Background(), "Where are the parks?")
	require.NoError(t, err)

	tr := TranscriptOf(st)
	assert.Empty(t, tr.SessionID)
	assert.Equal(t, "Where are the parks?", tr.Title)
	assert.Equal(t, model.ModeMapping, tr.Mode)
	assert.Len(t, tr.Messages, 3)
	assert.Equal(t, 1, tr.Features.PolygonCount())
	assert.Equal(t, st.Transcript[0].CreatedAt, tr.CreatedAt)

	_, err = c.SaveNow(context.Background())
	require.NoError(t, err)
	require.Len(t, archive.puts, 1)
	assert.Equal(t, "5", archive.puts[0].SessionID)
}

func TestArchiveKeepsSessionIDWhenCommitOmitsIt(t *testing.T) {
	fb := &fakeBackend{
		history: []model.Entry{{Text: "hi"}, {Text: "hello", IsBot: true}},
		cache:   &backend.CacheResponse{AnswerMarkup: "a"},
	}
	archive := &fakeArchive{}
	c := New(fb, Options{Greeting: "hi", Archive: archive})

	_, err := c.Open(context.Background(), "3")
	require.NoError(t, err)
	_, err = c.Send(context.Background(), "q")
	require.NoError(t, err)

	_, err = c.SaveNow(context.Background())
	require.NoError(t, err)
	require.NotNil(t, fb.lastChatID)
	assert.Equal(t, "3", *fb.lastChatID)
	require.Len(t, archive.puts, 1)
	assert.Equal(t, "3", archive.puts[0].SessionID)
}

// =============================================================================
// END TO END
// =============================================================================

func TestAgainstHTTPBackend(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/save_chat_to_cache/":
			w.Write([]byte(`{"response_data": {"generation_data": {"answer": "<p>Two parks</p>"}, "mapping_data": "[{\"coordinates\": [[-1.55, 53.8], [-1.54, 53.8], [-1.54, 53.81]]}]"}}`))
		case "/save_cache_to_db/":
			w.WriteHeader(http.StatusCreated)
			w.Write([]byte(`{"id": 21, "created_at": "2024-05-01T10:00:00Z"}`))
		case "/list_chats/":
			w.Write([]byte(`[{"id": 21, "created_at": "2024-05-01T10:00:00Z"}]`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	client := backend.NewClientWithConfig(&backend.ClientConfig{BaseURL: server.URL})
	c := New(client, Options{Mode: model.ModeMapping, Renderer: mapview.NewRenderer(mapview.Options{Seed: 4})})
	mem := mapview.NewMemorySurface()
	c.Attach(mem)

	st, err := c.Send(context.Background(), "parks in Leeds")
	require.NoError(t, err)
	assert.Len(t, st.Features, 1)
	assert.Equal(t, geo.LatLng{Lat: 53.8, Lng: -1.55}, mem.Current().View.Center)

	st = c.NewSession(context.Background())
	require.Len(t, st.Sessions, 1)
	assert.Equal(t, "21", st.Sessions[0].ID)
	assert.Empty(t, st.Transcript)
}
