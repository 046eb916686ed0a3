// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/jeranaias/geochat-tui/internal/model"
)

func TestNewTheme_ExplicitBackground(t *testing.T) {
	dark := NewTheme("dark")
	assert.True(t, dark.IsDark)

	light := NewTheme("LIGHT")
	assert.False(t, light.IsDark)
}

func TestModeColor_DistinctPerMode(t *testing.T) {
	seen := map[string]model.Mode{}
	for _, m := range model.AllModes {
		c := ModeColor(m)
		if prev, ok := seen[c.Dark]; ok {
			t.Errorf("%s and %s share color %s", prev, m, c.Dark)
		}
		seen[c.Dark] = m
	}
	assert.Equal(t, TextMuted, ModeColor(model.Mode("other")))
}

func TestModeBadge_ContainsName(t *testing.T) {
	theme := NewTheme("dark")
	for _, m := range model.AllModes {
		assert.Contains(t, theme.ModeBadge(m), m.DisplayName())
	}
}

func TestLayoutMode(t *testing.T) {
	theme := NewTheme("dark")
	tests := []struct {
		width int
		want  LayoutMode
	}{
		{40, LayoutNarrow},
		{59, LayoutNarrow},
		{60, LayoutMedium},
		{99, LayoutMedium},
		{100, LayoutWide},
		{200, LayoutWide},
	}
	for _, tt := range tests {
		theme.SetSize(tt.width, 24)
		assert.Equal(t, tt.want, theme.GetLayoutMode(), "width %d", tt.width)
	}
}

func TestSpinnerDuration(t *testing.T) {
	assert.Equal(t, time.Second/6, GlobeSpinner.Duration())
	assert.Equal(t, time.Second/10, SpinnerConfig{}.Duration())
}
