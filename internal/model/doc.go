// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures shared by the chat client.
//
// # Key Types
//
//   - Mode: generation, retrieval, comparative or mapping
//   - Message: one transcript entry, user or bot
//   - SessionSummary: a stored conversation as listed by the backend
//   - Entry: the {text, isBot, option} wire element
//
// # Usage
//
//	msg := model.NewUserMessage("parks in Leeds", model.ModeMapping)
//	entries := model.ToEntries(transcript)
package model
