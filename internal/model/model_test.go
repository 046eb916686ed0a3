// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"encoding/json"
	"testing"
	"time"
)

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{"mapping", ModeMapping, false},
		{"MAP", ModeMapping, false},
		{" retrieval ", ModeRetrieval, false},
		{"gen", ModeGeneration, false},
		{"c", ModeComparative, false},
		{"", "", true},
		{"weather", "", true},
	}
	for _, tt := range tests {
		got, err := ParseMode(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseMode(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseMode(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestModeNextWraps(t *testing.T) {
	m := ModeGeneration
	for range AllModes {
		m = m.Next()
	}
	if m != ModeGeneration {
		t.Errorf("cycling through all modes ended at %q, want %q", m, ModeGeneration)
	}
	if got := Mode("bogus").Next(); got != ModeGeneration {
		t.Errorf("Mode(bogus).Next() = %q, want %q", got, ModeGeneration)
	}
}

func TestEntryWireFormat(t *testing.T) {
	msgs := []Message{
		NewUserMessage("where are the parks", ModeMapping),
		NewNotice("Error processing message"),
		NewBotMessage("Here they are", "SELECT 1", ModeMapping),
	}
	data, err := json.Marshal(ToEntries(msgs))
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	want := `[{"text":"where are the parks","isBot":false,"option":"mapping"},{"text":"Here they are","isBot":true,"option":"mapping"}]`
	if string(data) != want {
		t.Errorf("wire entries =\n%s\nwant\n%s", data, want)
	}
}

func TestFromEntries(t *testing.T) {
	msgs := FromEntries([]Entry{{Text: "hi"}, {Text: "hello", IsBot: true}})
	if len(msgs) != 2 {
		t.Fatalf("len = %d, want 2", len(msgs))
	}
	if msgs[0].IsBot || !msgs[1].IsBot {
		t.Errorf("IsBot flags = %v,%v, want false,true", msgs[0].IsBot, msgs[1].IsBot)
	}
	if msgs[0].ID == "" || msgs[0].ID == msgs[1].ID {
		t.Errorf("messages need distinct ids, got %q and %q", msgs[0].ID, msgs[1].ID)
	}
}

func TestSortNewestFirst(t *testing.T) {
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	sessions := []SessionSummary{
		{ID: "old", CreatedAt: base},
		{ID: "none"},
		{ID: "new", CreatedAt: base.Add(time.Hour)},
	}
	SortNewestFirst(sessions)
	got := []string{sessions[0].ID, sessions[1].ID, sessions[2].ID}
	want := []string{"new", "old", "none"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}
}
