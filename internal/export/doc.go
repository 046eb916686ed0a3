// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export writes archived transcripts and their maps to files.
//
// # Formats
//
//   - Markdown: YAML front matter, one heading per message, SQL in fences
//   - JSON: the full transcript, with map features as GeoJSON
//   - HTML: standalone page with embedded CSS and highlighted SQL
//
// Maps are exported separately as a Leaflet page or a GeoJSON file, drawn
// by the same renderer the TUI uses.
//
// # Usage
//
//	exp, _ := export.ForFormat("md", nil)
//	path, err := export.ExportToFile(transcript, exp, nil)
package export
