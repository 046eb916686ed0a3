// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/jeranaias/geochat-tui/internal/model"
)

// Theme holds all the styled components for the application.
type Theme struct {
	// Terminal capabilities
	IsDark       bool
	HasTrueColor bool
	ColorProfile termenv.Profile

	// Layout dimensions
	Width  int
	Height int

	// Header
	Header      lipgloss.Style
	HeaderTitle lipgloss.Style
	HeaderInfo  lipgloss.Style

	// Messages
	UserBubble   lipgloss.Style
	BotBubble    lipgloss.Style
	NoticeBubble lipgloss.Style
	Author       lipgloss.Style
	Timestamp    lipgloss.Style
	QueryBox     lipgloss.Style
	QueryLabel   lipgloss.Style
	Suggestion   lipgloss.Style
	SuggestKey   lipgloss.Style

	// Input
	InputContainer lipgloss.Style
	InputPrompt    lipgloss.Style

	// Status bar
	StatusBar    lipgloss.Style
	StatusText   lipgloss.Style
	StatusError  lipgloss.Style
	ShortcutKey  lipgloss.Style
	ShortcutDesc lipgloss.Style

	// Sidebar (saved sessions)
	Sidebar         lipgloss.Style
	SidebarTitle    lipgloss.Style
	SessionItem     lipgloss.Style
	SessionSelected lipgloss.Style
	SessionCurrent  lipgloss.Style

	// Map pane
	MapPane    lipgloss.Style
	MapCaption lipgloss.Style

	// Misc
	Spinner lipgloss.Style
	Help    lipgloss.Style
	Muted   lipgloss.Style
}

// NewTheme creates a theme. name is "dark", "light" or "auto"; auto asks the
// terminal for its background.
func NewTheme(name string) *Theme {
	colorProfile := termenv.ColorProfile()

	var isDark bool
	switch strings.ToLower(name) {
	case "dark":
		isDark = true
	case "light":
		isDark = false
	default:
		isDark = termenv.HasDarkBackground()
	}
	lipgloss.SetHasDarkBackground(isDark)

	t := &Theme{
		IsDark:       isDark,
		HasTrueColor: colorProfile == termenv.TrueColor,
		ColorProfile: colorProfile,
	}
	t.initStyles()
	return t
}

func (t *Theme) initStyles() {
	t.Header = lipgloss.NewStyle().
		Background(SurfaceDim).
		Padding(0, 1)

	t.HeaderTitle = lipgloss.NewStyle().
		Bold(true).
		Foreground(Cyan)

	t.HeaderInfo = lipgloss.NewStyle().
		Foreground(TextSecondary)

	t.UserBubble = lipgloss.NewStyle().
		Foreground(UserBubbleFg).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(UserBubbleBorder).
		Padding(0, 1).
		MarginLeft(4)

	t.BotBubble = lipgloss.NewStyle().
		Foreground(BotBubbleFg).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(BotBubbleBorder).
		Padding(0, 1).
		MarginRight(4)

	t.NoticeBubble = lipgloss.NewStyle().
		Foreground(NoticeFg).
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(NoticeBorder).
		Padding(0, 1).
		Italic(true)

	t.Author = lipgloss.NewStyle().Bold(true)
	t.Timestamp = lipgloss.NewStyle().Foreground(TextMuted)

	t.QueryBox = lipgloss.NewStyle().
		Background(SurfaceDim).
		Padding(0, 1)
	t.QueryLabel = lipgloss.NewStyle().
		Foreground(TextMuted).
		Bold(true)

	t.Suggestion = lipgloss.NewStyle().Foreground(TextSecondary)
	t.SuggestKey = lipgloss.NewStyle().
		Foreground(Cyan).
		Bold(true)

	t.InputContainer = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Overlay).
		Padding(0, 1)
	t.InputPrompt = lipgloss.NewStyle().
		Foreground(Cyan).
		Bold(true)

	t.StatusBar = lipgloss.NewStyle().
		Background(SurfaceDim).
		Foreground(TextSecondary).
		Padding(0, 1)
	t.StatusText = lipgloss.NewStyle().Foreground(TextSecondary)
	t.StatusError = lipgloss.NewStyle().
		Foreground(Rose).
		Bold(true)
	t.ShortcutKey = lipgloss.NewStyle().
		Foreground(Cyan).
		Bold(true)
	t.ShortcutDesc = lipgloss.NewStyle().Foreground(TextMuted)

	t.Sidebar = lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderRight(true).
		BorderForeground(Overlay).
		Padding(0, 1)
	t.SidebarTitle = lipgloss.NewStyle().
		Bold(true).
		Foreground(Purple).
		MarginBottom(1)
	t.SessionItem = lipgloss.NewStyle().Foreground(TextPrimary)
	t.SessionSelected = lipgloss.NewStyle().
		Foreground(TextPrimary).
		Background(SelectionBg).
		Bold(true)
	t.SessionCurrent = lipgloss.NewStyle().Foreground(Cyan)

	t.MapPane = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(MapBlue)
	t.MapCaption = lipgloss.NewStyle().
		Foreground(TextMuted).
		Italic(true)

	t.Spinner = lipgloss.NewStyle().Foreground(Purple)
	t.Help = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Purple).
		Padding(1, 2)
	t.Muted = lipgloss.NewStyle().Foreground(TextMuted)
}

// ModeBadge renders the mode as a colored badge.
func (t *Theme) ModeBadge(m model.Mode) string {
	return lipgloss.NewStyle().
		Foreground(TextInverse).
		Background(ModeColor(m)).
		Bold(true).
		Padding(0, 1).
		Render(m.DisplayName())
}

// SetSize updates the theme dimensions for responsive layouts.
func (t *Theme) SetSize(width, height int) {
	t.Width = width
	t.Height = height
}

// GetLayoutMode returns the current layout mode based on width.
func (t *Theme) GetLayoutMode() LayoutMode {
	if t.Width < 60 {
		return LayoutNarrow
	}
	if t.Width < 100 {
		return LayoutMedium
	}
	return LayoutWide
}

// LayoutMode represents the current responsive layout mode.
type LayoutMode int

const (
	LayoutNarrow LayoutMode = iota // < 60 columns: transcript only
	LayoutMedium                   // 60-100 columns: transcript and map
	LayoutWide                     // > 100 columns: sidebar, transcript and map
)

// =============================================================================
// SPINNER
// =============================================================================

// SpinnerConfig holds the frames of a spinner animation.
type SpinnerConfig struct {
	Frames []string
	FPS    int
}

// Duration returns the duration for each frame.
func (s SpinnerConfig) Duration() time.Duration {
	if s.FPS <= 0 {
		return time.Second / 10
	}
	return time.Second / time.Duration(s.FPS)
}

// GlobeSpinner is shown while an exchange is pending.
var GlobeSpinner = SpinnerConfig{
	Frames: []string{"(|  )", "( | )", "(  |)", "( | )"},
	FPS:    6,
}
