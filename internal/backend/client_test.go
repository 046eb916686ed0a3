// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package backend

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/geochat-tui/internal/model"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClientWithConfig(&ClientConfig{BaseURL: server.URL, Timeout: 5 * time.Second})
}

func TestSaveToCacheMapping(t *testing.T) {
	var got map[string]any
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/save_chat_to_cache/", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &got))
		w.Write([]byte(`{"response_data": {"generation_data": {"answer": "<p>Answer text</p>SQL_query: SELECT *"}, "mapping_data": "[{\"coordinates\": [[10, 20]]}]"}}`))
	})

	entries := []model.Entry{{Text: "parks", Option: model.ModeMapping}}
	resp, err := client.SaveToCache(context.Background(), entries, model.ModeMapping)
	require.NoError(t, err)

	assert.Equal(t, "mapping", got["option"])
	chat := got["chat_data"].([]any)
	require.Len(t, chat, 1)
	assert.Equal(t, map[string]any{"text": "parks", "isBot": false, "option": "mapping"}, chat[0])

	assert.Equal(t, model.ModeMapping, resp.Mode)
	assert.Equal(t, "<p>Answer text</p>SQL_query: SELECT *", resp.AnswerMarkup)
	assert.Equal(t, `[{"coordinates": [[10, 20]]}]`, resp.MappingData)
}

func TestSaveToCacheMappingVariants(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    string
		wantErr bool
	}{
		{"literal array", `{"response_data": {"generation_data": {"answer": "a"}, "mapping_data": [[1, 2]]}}`, "[[1, 2]]", false},
		{"missing mapping data", `{"response_data": {"generation_data": {"answer": "a"}}}`, "", false},
		{"null mapping data", `{"response_data": {"generation_data": {"answer": "a"}, "mapping_data": null}}`, "", false},
		{"missing answer", `{"response_data": {"mapping_data": "[]"}}`, "", true},
		{"answer not string", `{"response_data": {"generation_data": {"answer": 5}}}`, "", true},
		{"mapping data object", `{"response_data": {"generation_data": {"answer": "a"}, "mapping_data": {}}}`, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.body))
			})
			resp, err := client.SaveToCache(context.Background(), nil, model.ModeMapping)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrMalformed)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, resp.MappingData)
		})
	}
}

func TestSaveToCacheChat(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"chat_data": [{"text": "q", "isBot": false}, {"text": "<b>first</b>", "isBot": true}, {"text": "final", "isBot": true}], "similar_question": "What about rivers?"}`))
	})

	resp, err := client.SaveToCache(context.Background(), []model.Entry{{Text: "q"}}, model.ModeRetrieval)
	require.NoError(t, err)
	assert.Equal(t, "final", resp.AnswerMarkup)
	assert.Equal(t, "What about rivers?", resp.SimilarQuestion)
	assert.Len(t, resp.ChatData, 3)
	assert.Empty(t, resp.MappingData)
}

func TestSaveToCacheChatMalformed(t *testing.T) {
	for name, body := range map[string]string{
		"no bot entry":  `{"chat_data": [{"text": "q", "isBot": false}]}`,
		"no chat data":  `{"message": "Chat saved to cache"}`,
		"not an object": `[1, 2]`,
		"not json":      `<html>oops</html>`,
	} {
		t.Run(name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(body))
			})
			_, err := client.SaveToCache(context.Background(), nil, model.ModeGeneration)
			assert.ErrorIs(t, err, ErrMalformed)
			var ce *ClientError
			require.True(t, errors.As(err, &ce))
			assert.Equal(t, ErrTypeMalformed, ce.Type)
		})
	}
}

func TestCommitToStore(t *testing.T) {
	var bodies []string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/save_cache_to_db/", r.URL.Path)
		b, _ := io.ReadAll(r.Body)
		bodies = append(bodies, string(b))
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id": 17, "input_response_pairs": [], "created_at": "2024-05-01T10:00:00.123456Z"}`))
	})

	res, err := client.CommitToStore(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "17", res.ChatID)
	assert.Equal(t, 2024, res.CreatedAt.Year())

	existing := "17"
	_, err = client.CommitToStore(context.Background(), &existing)
	require.NoError(t, err)

	assert.Equal(t, []string{`{"chat_id":null}`, `{"chat_id":"17"}`}, bodies)
}

func TestCommitToStoreEmptyCache(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error": "No chat data in cache"}`))
	})

	_, err := client.CommitToStore(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "No chat data in cache")
}

func TestFetchHistory(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/fetch_chat_from_db/42/", r.URL.Path)
		w.Write([]byte(`[{"id": 1, "text": "hi", "isBot": false}, {"id": 2, "text": "hello", "isBot": true}]`))
	})

	entries, err := client.FetchHistory(context.Background(), "42")
	require.NoError(t, err)
	assert.Equal(t, []model.Entry{{Text: "hi"}, {Text: "hello", IsBot: true}}, entries)

	_, err = client.FetchHistory(context.Background(), "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListSessions(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		w.Write([]byte(`[
			{"id": 1, "created_at": "2024-05-01T10:00:00Z", "input_response_pairs": [{"text": "hi i am djangogpt", "isBot": true}, {"text": "old question\nmore", "isBot": false}]},
			{"id": "abc", "created_at": "2024-06-01T10:00:00Z"}
		]`))
	})

	sessions, err := client.ListSessions(context.Background())
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, "abc", sessions[0].ID, "newest first")
	assert.Equal(t, "1", sessions[1].ID)
	assert.Equal(t, "old question", sessions[1].Preview)
}

func TestCreateChat(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/save_chat/", r.URL.Path)
		var req map[string][]model.Entry
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Len(t, req["input_response_pairs"], 2)
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id": 3}`))
	})

	res, err := client.CreateChat(context.Background(), []model.Entry{{Text: "a"}, {Text: "b", IsBot: true}})
	require.NoError(t, err)
	assert.Equal(t, "3", res.ChatID)
}

func TestTransportErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	client := NewClientWithConfig(&ClientConfig{BaseURL: url})
	_, err := client.ListSessions(context.Background())
	assert.ErrorIs(t, err, ErrUnreachable)
	assert.Error(t, client.CheckReachable(context.Background()))
}

func TestTimeout(t *testing.T) {
	release := make(chan struct{})
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := client.ListSessions(ctx)
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestServerErrorStatus(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})
	_, err := client.ListSessions(context.Background())
	var ce *ClientError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, ErrTypeStatus, ce.Type)
	assert.Equal(t, http.StatusInternalServerError, ce.Status)
}
