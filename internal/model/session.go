// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"sort"
	"time"
)

// SessionSummary describes a stored conversation in the session list.
type SessionSummary struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`

	// Preview is the first user line when the backend includes the pairs.
	Preview string `json:"preview,omitempty"`
}

// Title returns a short label for list displays.
func (s SessionSummary) Title() string {
	if s.Preview != "" {
		return s.Preview
	}
	if !s.CreatedAt.IsZero() {
		return "Chat " + s.ID + " · " + s.CreatedAt.Local().Format("Jan 2 15:04")
	}
	return "Chat " + s.ID
}

// SortNewestFirst orders summaries by CreatedAt descending. Entries without a
// timestamp keep their relative order at the end.
func SortNewestFirst(sessions []SessionSummary) {
	sort.SliceStable(sessions, func(i, j int) bool {
		a, b := sessions[i].CreatedAt, sessions[j].CreatedAt
		if a.IsZero() != b.IsZero() {
			return !a.IsZero()
		}
		return a.After(b)
	})
}
