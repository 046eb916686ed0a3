// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/geochat-tui/internal/model"
	"github.com/jeranaias/geochat-tui/internal/ui/styles"
)

// Line-mode output styles. lipgloss drops the colors when stdout is not a
// terminal.
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(styles.Cyan)

	promptStyle = lipgloss.NewStyle().
			Foreground(styles.Cyan).
			Bold(true)

	dimStyle = lipgloss.NewStyle().
			Foreground(styles.TextMuted)

	successStyle = lipgloss.NewStyle().
			Foreground(styles.Emerald)

	errorStyle = lipgloss.NewStyle().
			Foreground(styles.Rose).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(styles.Amber)

	queryStyle = lipgloss.NewStyle().
			Foreground(styles.TextSecondary).
			Italic(true)
)

func modeLabel(m model.Mode) string {
	return lipgloss.NewStyle().
		Foreground(styles.ModeColor(m)).
		Bold(true).
		Render("[" + m.DisplayName() + "]")
}
