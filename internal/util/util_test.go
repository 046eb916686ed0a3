// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package util

import (
	"os"
	"path/filepath"
	"testing"
)

func TestTruncateWidth(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		width int
		want  string
	}{
		{"fits", "hello", 10, "hello"},
		{"exact", "hello", 5, "hello"},
		{"ellipsis", "hello world", 8, "hello..."},
		{"tiny", "hello", 2, "he"},
		{"zero", "hello", 0, ""},
		{"wide runes", "日本語テキスト", 7, "日本..."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TruncateWidth(tt.in, tt.width); got != tt.want {
				t.Errorf("TruncateWidth(%q, %d) = %q, want %q", tt.in, tt.width, got, tt.want)
			}
		})
	}
}

func TestPadRight(t *testing.T) {
	if got := PadRight("ab", 5); got != "ab   " {
		t.Errorf("PadRight = %q, want %q", got, "ab   ")
	}
	if got := StringWidth(PadRight("日本", 5)); got != 5 {
		t.Errorf("PadRight width = %d, want 5", got)
	}
}

func TestNormalizeInput(t *testing.T) {
	// "e" + combining acute accent composes to U+00E9.
	decomposed := "cafe\u0301"
	if got := NormalizeInput(decomposed); got != "caf\u00e9" {
		t.Errorf("NormalizeInput(%q) = %q, want composed form", decomposed, got)
	}
	if got := NormalizeInput("  line one\nline\ttwo\x07 "); got != "line one line two" {
		t.Errorf("NormalizeInput = %q", got)
	}
}

func TestFirstLine(t *testing.T) {
	if got := FirstLine("\n\n  first \nsecond"); got != "first" {
		t.Errorf("FirstLine = %q, want %q", got, "first")
	}
	if got := FirstLine("  \n "); got != "" {
		t.Errorf("FirstLine of blank = %q, want empty", got)
	}
}

func TestAtomicWriteFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "out.txt")

	if err := AtomicWriteFile(path, []byte("first"), 0644); err != nil {
		t.Fatalf("AtomicWriteFile: %v", err)
	}
	if err := AtomicWriteFile(path, []byte("second"), 0600); err != nil {
		t.Fatalf("AtomicWriteFile overwrite: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(data) != "second" {
		t.Errorf("contents = %q, want %q", data, "second")
	}

	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("directory has %d entries, want 1 (temp files must be cleaned up)", len(entries))
	}
}
