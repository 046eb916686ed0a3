// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/buger/jsonparser"
	"go.uber.org/zap"

	"github.com/jeranaias/geochat-tui/internal/model"
	"github.com/jeranaias/geochat-tui/internal/util"
)

// =============================================================================
// ENDPOINTS
// =============================================================================

const (
	pathSaveToCache  = "save_chat_to_cache/"
	pathCommit       = "save_cache_to_db/"
	pathFetchHistory = "fetch_chat_from_db/%s/"
	pathListSessions = "list_chats/"
	pathCreateChat   = "save_chat/"
)

// =============================================================================
// RESPONSE TYPES
// =============================================================================

// CacheResponse is the backend's reply to save-to-cache, normalized across
// modes.
type CacheResponse struct {
	Mode model.Mode

	// AnswerMarkup is the raw answer: the generation answer in mapping mode,
	// otherwise the text of the last bot entry of the returned chat data.
	AnswerMarkup string

	// MappingData is the JSON-encoded feature list (mapping mode only).
	MappingData string

	// SimilarQuestion is a follow-up suggestion (non-mapping modes, optional).
	SimilarQuestion string

	// ChatData is the transcript echoed back (non-mapping modes).
	ChatData []model.Entry
}

// CommitResult is returned by commit-to-store and create-chat.
type CommitResult struct {
	ChatID    string
	CreatedAt time.Time
}

// id accepts both numeric and string identifiers.
type id string

func (i *id) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*i = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*i = id(s)
		return nil
	}
	n, err := strconv.ParseFloat(string(b), 64)
	if err != nil {
		return fmt.Errorf("id %s is neither string nor number", b)
	}
	*i = id(strconv.FormatFloat(n, 'f', -1, 64))
	return nil
}

// timestamp tolerates missing or unparseable times.
type timestamp time.Time

func (t *timestamp) UnmarshalJSON(b []byte) error {
	var s string
	if json.Unmarshal(b, &s) != nil || s == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999", "2006-01-02 15:04:05"} {
		if parsed, err := time.Parse(layout, s); err == nil {
			*t = timestamp(parsed)
			return nil
		}
	}
	return nil
}

type storedChat struct {
	ID        id            `json:"id"`
	ChatID    id            `json:"chat_id"`
	CreatedAt timestamp     `json:"created_at"`
	Pairs     []model.Entry `json:"input_response_pairs"`
}

func (s storedChat) result() CommitResult {
	cid := string(s.ChatID)
	if cid == "" {
		cid = string(s.ID)
	}
	return CommitResult{ChatID: cid, CreatedAt: time.Time(s.CreatedAt)}
}

// =============================================================================
// OPERATIONS
// =============================================================================

// SaveToCache sends the whole transcript with the selected mode and returns
// the backend's answer. Responses missing the fields the mode requires are
// reported as ErrMalformed.
func (c *Client) SaveToCache(ctx context.Context, entries []model.Entry, mode model.Mode) (*CacheResponse, error) {
	if entries == nil {
		entries = []model.Entry{}
	}
	req := struct {
		ChatData []model.Entry `json:"chat_data"`
		Option   model.Mode    `json:"option"`
	}{entries, mode}

	body, err := c.do(ctx, http.MethodPost, pathSaveToCache, req)
	if err != nil {
		return nil, err
	}

	if mode == model.ModeMapping {
		return parseMappingResponse(body)
	}
	return parseChatResponse(body, mode)
}

// parseMappingResponse reads
// {"response_data": {"generation_data": {"answer": ...}, "mapping_data": "..."}}.
// mapping_data is normally a JSON-encoded string; a literal array is
// accepted too.
func parseMappingResponse(body []byte) (*CacheResponse, error) {
	ans, typ, _, err := jsonparser.Get(body, "response_data", "generation_data", "answer")
	if err != nil {
		return nil, malformed("mapping response has no response_data.generation_data.answer", err)
	}
	if typ != jsonparser.String {
		return nil, malformed(fmt.Sprintf("mapping answer is a %s, want string", typ), nil)
	}
	answerText, err := jsonparser.ParseString(ans)
	if err != nil {
		return nil, malformed("mapping answer is not a valid string", err)
	}

	resp := &CacheResponse{Mode: model.ModeMapping, AnswerMarkup: answerText}

	data, typ, _, err := jsonparser.Get(body, "response_data", "mapping_data")
	switch {
	case errors.Is(err, jsonparser.KeyPathNotFoundError):
		// no shapes
	case err != nil:
		return nil, malformed("mapping_data unreadable", err)
	case typ == jsonparser.String:
		s, err := jsonparser.ParseString(data)
		if err != nil {
			return nil, malformed("mapping_data is not a valid string", err)
		}
		resp.MappingData = s
	case typ == jsonparser.Array:
		resp.MappingData = string(data)
	case typ == jsonparser.Null:
	default:
		return nil, malformed(fmt.Sprintf("mapping_data is a %s, want string", typ), nil)
	}
	return resp, nil
}

// parseChatResponse reads {"chat_data": [...], "similar_question": "..."}.
// The answer is the last bot entry; a reply without one is malformed.
func parseChatResponse(body []byte, mode model.Mode) (*CacheResponse, error) {
	var payload struct {
		ChatData        *[]model.Entry `json:"chat_data"`
		SimilarQuestion *string        `json:"similar_question"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, malformed("response is not a chat_data object", err)
	}
	if payload.ChatData == nil {
		return nil, malformed("response has no chat_data", nil)
	}

	resp := &CacheResponse{Mode: mode, ChatData: *payload.ChatData}
	if payload.SimilarQuestion != nil {
		resp.SimilarQuestion = *payload.SimilarQuestion
	}

	for i := len(resp.ChatData) - 1; i >= 0; i-- {
		if resp.ChatData[i].IsBot {
			resp.AnswerMarkup = resp.ChatData[i].Text
			return resp, nil
		}
	}
	return nil, malformed("chat_data has no bot entry", nil)
}

// CommitToStore asks the backend to persist the cached conversation.
// chatID is the current session id, or nil for a conversation the backend
// has not stored yet; both are valid.
func (c *Client) CommitToStore(ctx context.Context, chatID *string) (*CommitResult, error) {
	req := struct {
		ChatID *string `json:"chat_id"`
	}{chatID}

	body, err := c.do(ctx, http.MethodPost, pathCommit, req)
	if err != nil {
		return nil, err
	}

	var stored storedChat
	if len(bytes.TrimSpace(body)) > 0 {
		if err := json.Unmarshal(body, &stored); err != nil {
			return nil, malformed("commit response is not an object", err)
		}
	}
	res := stored.result()
	if res.ChatID == "" && chatID != nil {
		res.ChatID = *chatID
	}
	c.log.Info("session committed", zap.String("chat_id", res.ChatID))
	return &res, nil
}

// FetchHistory loads the stored transcript of a session.
func (c *Client) FetchHistory(ctx context.Context, sessionID string) ([]model.Entry, error) {
	if sessionID == "" {
		return nil, &ClientError{Type: ErrTypeNotFound, Message: "empty session id"}
	}
	body, err := c.do(ctx, http.MethodGet, fmt.Sprintf(pathFetchHistory, url.PathEscape(sessionID)), nil)
	if err != nil {
		return nil, err
	}
	var entries []model.Entry
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, malformed("history is not a list of entries", err)
	}
	return entries, nil
}

// ListSessions returns stored sessions, newest first.
func (c *Client) ListSessions(ctx context.Context) ([]model.SessionSummary, error) {
	body, err := c.do(ctx, http.MethodGet, pathListSessions, nil)
	if err != nil {
		return nil, err
	}
	var chats []storedChat
	if err := json.Unmarshal(body, &chats); err != nil {
		return nil, malformed("session list is not an array", err)
	}

	sessions := make([]model.SessionSummary, 0, len(chats))
	for _, ch := range chats {
		s := model.SessionSummary{
			ID:        string(ch.ID),
			CreatedAt: time.Time(ch.CreatedAt),
		}
		for _, e := range ch.Pairs {
			if !e.IsBot {
				s.Preview = util.FirstLine(e.Text)
				break
			}
		}
		sessions = append(sessions, s)
	}
	model.SortNewestFirst(sessions)
	return sessions, nil
}

// CreateChat stores a complete transcript directly, bypassing the cache.
func (c *Client) CreateChat(ctx context.Context, entries []model.Entry) (*CommitResult, error) {
	if entries == nil {
		entries = []model.Entry{}
	}
	req := struct {
		Pairs []model.Entry `json:"input_response_pairs"`
	}{entries}

	body, err := c.do(ctx, http.MethodPost, pathCreateChat, req)
	if err != nil {
		return nil, err
	}
	var stored storedChat
	if len(bytes.TrimSpace(body)) > 0 {
		if err := json.Unmarshal(body, &stored); err != nil {
			return nil, malformed("create response is not an object", err)
		}
	}
	res := stored.result()
	return &res, nil
}
