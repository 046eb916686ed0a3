// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small helpers shared across geochat.
//
// # Key Functions
//
// Text:
//   - TruncateWidth, PadRight, StringWidth: terminal-cell aware sizing
//   - NormalizeInput: NFC normalization and control-character cleanup
//   - FirstLine: first non-empty line, used for session previews
//
// Files:
//   - AtomicWriteFile: crash-safe file writing with fsync
//
// # Usage
//
//	title := util.TruncateWidth(summary, 24)
//	text := util.NormalizeInput(rawInput)
//	err := util.AtomicWriteFile(path, data, 0644)
package util
