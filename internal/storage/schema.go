// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

// Schema creates the transcript archive tables.
const Schema = `
CREATE TABLE IF NOT EXISTS transcripts (
	id          TEXT PRIMARY KEY,
	session_id  TEXT NOT NULL DEFAULT '',
	title       TEXT NOT NULL,
	mode        TEXT NOT NULL DEFAULT '',
	messages    TEXT NOT NULL,
	features    TEXT NOT NULL DEFAULT '',
	created_at  INTEGER NOT NULL,
	updated_at  INTEGER NOT NULL
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_transcripts_session
	ON transcripts(session_id) WHERE session_id != '';
CREATE INDEX IF NOT EXISTS idx_transcripts_updated ON transcripts(updated_at);
`
