// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/jeranaias/geochat-tui/internal/geo"
	"github.com/jeranaias/geochat-tui/internal/model"
	"github.com/jeranaias/geochat-tui/internal/util"
)

// ErrTranscriptNotFound is returned when no transcript matches an id.
var ErrTranscriptNotFound = errors.New("transcript not found")

// =============================================================================
// TRANSCRIPT TYPES
// =============================================================================

// Transcript is a conversation archived on this machine.
type Transcript struct {
	// ID is the local archive id.
	ID string `json:"id"`

	// SessionID is the backend id, empty for conversations never committed.
	SessionID string `json:"session_id,omitempty"`

	Title     string          `json:"title"`
	Mode      model.Mode      `json:"mode,omitempty"`
	Messages  []model.Message `json:"messages"`
	Features  geo.FeatureSet  `json:"-"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// TranscriptInfo is the list view of a transcript.
type TranscriptInfo struct {
	ID           string
	SessionID    string
	Title        string
	MessageCount int
	HasMap       bool
	UpdatedAt    time.Time
}

// =============================================================================
// ARCHIVE
// =============================================================================

// Archive keeps transcripts in a local SQLite database so they can be
// reviewed and exported offline. It is safe for concurrent use.
type Archive struct {
	db   *sql.DB
	path string
}

// Open opens or creates the archive at path.
func Open(path string) (*Archive, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
			return nil, fmt.Errorf("failed to create archive directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive: %w", err)
	}

	// SQLite has a single writer; one connection also keeps :memory: intact.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}
	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &Archive{db: db, path: path}, nil
}

// Path returns the database location.
func (a *Archive) Path() string {
	return a.path
}

// Close closes the database.
func (a *Archive) Close() error {
	return a.db.Close()
}

// Put stores t. A transcript with a SessionID replaces any earlier copy of
// the same backend session. Missing ID, Title and timestamps are filled in
// and the stored ID is returned.
func (a *Archive) Put(ctx context.Context, t Transcript) (string, error) {
	now := time.Now()
	if t.SessionID != "" && t.ID == "" {
		err := a.db.QueryRowContext(ctx,
			"SELECT id FROM transcripts WHERE session_id = ?", t.SessionID).Scan(&t.ID)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return "", fmt.Errorf("failed to look up session: %w", err)
		}
	}
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.Title == "" {
		t.Title = Title(t.Messages)
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	t.UpdatedAt = now

	messages, err := json.Marshal(t.Messages)
	if err != nil {
		return "", fmt.Errorf("failed to encode messages: %w", err)
	}
	var features []byte
	if len(t.Features) > 0 {
		if features, err = t.Features.GeoJSON().MarshalJSON(); err != nil {
			return "", fmt.Errorf("failed to encode features: %w", err)
		}
	}

	_, err = a.db.ExecContext(ctx, `
		INSERT INTO transcripts (id, session_id, title, mode, messages, features, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			session_id = excluded.session_id,
			title      = excluded.title,
			mode       = excluded.mode,
			messages   = excluded.messages,
			features   = excluded.features,
			updated_at = excluded.updated_at`,
		t.ID, t.SessionID, t.Title, string(t.Mode), string(messages), string(features),
		t.CreatedAt.UnixMilli(), t.UpdatedAt.UnixMilli())
	if err != nil {
		return "", fmt.Errorf("failed to store transcript: %w", err)
	}
	return t.ID, nil
}

// Get loads a transcript by local id or backend session id.
func (a *Archive) Get(ctx context.Context, id string) (*Transcript, error) {
	row := a.db.QueryRowContext(ctx, `
		SELECT id, session_id, title, mode, messages, features, created_at, updated_at
		FROM transcripts WHERE id = ? OR session_id = ?
		ORDER BY id = ? DESC LIMIT 1`, id, id, id)

	var (
		t                 Transcript
		mode, msgs, feats string
		created, updated  int64
	)
	if err := row.Scan(&t.ID, &t.SessionID, &t.Title, &mode, &msgs, &feats, &created, &updated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTranscriptNotFound
		}
		return nil, fmt.Errorf("failed to read transcript: %w", err)
	}
	t.Mode = model.Mode(mode)
	t.CreatedAt = time.UnixMilli(created)
	t.UpdatedAt = time.UnixMilli(updated)

	if err := json.Unmarshal([]byte(msgs), &t.Messages); err != nil {
		return nil, fmt.Errorf("failed to decode messages: %w", err)
	}
	if feats != "" {
		fs, err := geo.DecodeFile([]byte(feats))
		if err != nil {
			return nil, fmt.Errorf("failed to decode features: %w", err)
		}
		t.Features = fs
	}
	return &t, nil
}

// List returns transcripts, most recently updated first. limit <= 0 means
// no limit.
func (a *Archive) List(ctx context.Context, limit int) ([]TranscriptInfo, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := a.db.QueryContext(ctx, `
		SELECT id, session_id, title, json_array_length(messages), features != '', updated_at
		FROM transcripts ORDER BY updated_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list transcripts: %w", err)
	}
	defer rows.Close()

	var out []TranscriptInfo
	for rows.Next() {
		var (
			info    TranscriptInfo
			updated int64
		)
		if err := rows.Scan(&info.ID, &info.SessionID, &info.Title, &info.MessageCount, &info.HasMap, &updated); err != nil {
			return nil, fmt.Errorf("failed to scan transcript: %w", err)
		}
		info.UpdatedAt = time.UnixMilli(updated)
		out = append(out, info)
	}
	return out, rows.Err()
}

// Delete removes a transcript by local id or session id.
func (a *Archive) Delete(ctx context.Context, id string) error {
	res, err := a.db.ExecContext(ctx, "DELETE FROM transcripts WHERE id = ? OR session_id = ?", id, id)
	if err != nil {
		return fmt.Errorf("failed to delete transcript: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrTranscriptNotFound
	}
	return nil
}

// Title derives a list title from the first user message.
func Title(msgs []model.Message) string {
	for _, m := range msgs {
		if m.IsBot || m.Synthetic {
			continue
		}
		if line := util.FirstLine(m.Text); line != "" {
			return util.TruncateWidth(line, 60)
		}
	}
	return "Untitled chat"
}
