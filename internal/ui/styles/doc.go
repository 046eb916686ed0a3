// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package styles provides the visual styling system for the geochat TUI.
//
// Colors are lipgloss.AdaptiveColor values; NewTheme fixes the background
// (dark, light, or detected through termenv) and builds every style the
// chat view uses. Each query mode has its own badge color.
package styles
