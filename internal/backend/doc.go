// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package backend provides the HTTP client for the chat backend.
//
// The backend keeps the running conversation in a cache and answers each
// save-to-cache call. Mapping-mode replies carry an answer plus a
// JSON-encoded list of polygons; other modes echo the transcript with the
// bot reply appended. Commit-to-store persists the cache as a session.
//
// # Key Types
//
//   - Client: the API client, safe for concurrent use
//   - CacheResponse: a save-to-cache reply normalized across modes
//   - ClientError: typed failure (connection, timeout, status, not found,
//     malformed)
//
// # Usage
//
//	client := backend.NewClientWithConfig(&backend.ClientConfig{
//	    BaseURL: "http://localhost:8000/",
//	    Logger:  log,
//	})
//	resp, err := client.SaveToCache(ctx, entries, model.ModeMapping)
//	if errors.Is(err, backend.ErrMalformed) {
//	    // unexpected response shape
//	}
package backend
