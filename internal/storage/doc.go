// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage provides the local transcript archive.
//
// Every committed conversation is also written to a SQLite database under
// ~/.geochat so it can be listed, reopened and exported without the backend.
// The last map of a conversation is kept as GeoJSON.
//
// # Usage
//
//	archive, err := storage.Open(cfg.Storage.ArchivePath)
//	if err != nil {
//	    return err
//	}
//	defer archive.Close()
//	id, err := archive.Put(ctx, storage.Transcript{SessionID: "12", Messages: msgs})
package storage
