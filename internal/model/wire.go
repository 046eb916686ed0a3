// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

// =============================================================================
// WIRE FORMAT
// =============================================================================

// Entry is the transcript element exchanged with the backend:
// {"text": ..., "isBot": ..., "option": ...}.
type Entry struct {
	Text   string `json:"text"`
	IsBot  bool   `json:"isBot"`
	Option Mode   `json:"option,omitempty"`
}

// ToEntries converts a transcript to its wire form. Synthetic messages are
// left out; the backend never saw them.
func ToEntries(msgs []Message) []Entry {
	entries := make([]Entry, 0, len(msgs))
	for _, m := range msgs {
		if m.Synthetic {
			continue
		}
		entries = append(entries, Entry{Text: m.Text, IsBot: m.IsBot, Option: m.Mode})
	}
	return entries
}

// FromEntries rebuilds a transcript from stored wire entries.
func FromEntries(entries []Entry) []Message {
	msgs := make([]Message, 0, len(entries))
	for _, e := range entries {
		var m Message
		if e.IsBot {
			m = NewBotMessage(e.Text, "", e.Option)
		} else {
			m = NewUserMessage(e.Text, e.Option)
		}
		msgs = append(msgs, m)
	}
	return msgs
}
