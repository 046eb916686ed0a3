// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMessageRenderer_CachesPerWidth(t *testing.T) {
	r := NewMessageRenderer("dark")

	first := r.Markdown("m1", "**bold** answer", 40)
	assert.Contains(t, first, "answer")
	assert.Equal(t, first, r.Markdown("m1", "**bold** answer", 40))
	assert.Equal(t, 1, r.Len())

	r.Markdown("m1", "**bold** answer", 60)
	assert.Equal(t, 2, r.Len())

	// uncached
	r.Markdown("", "scratch", 40)
	assert.Equal(t, 2, r.Len())
}

func TestMessageRenderer_SetStylePurges(t *testing.T) {
	r := NewMessageRenderer("dark")
	r.Markdown("m1", "text", 40)

	r.SetStyle("dark")
	assert.Equal(t, 1, r.Len())

	r.SetStyle("light")
	assert.Equal(t, 0, r.Len())
}

func TestHighlightSQL_KeepsQueryText(t *testing.T) {
	out := HighlightSQL("SELECT name FROM parks")
	for _, word := range []string{"SELECT", "name", "FROM", "parks"} {
		assert.Contains(t, out, word)
	}
}
