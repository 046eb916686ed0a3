// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"github.com/jeranaias/geochat-tui/internal/config"
	"github.com/jeranaias/geochat-tui/internal/session"
)

// =============================================================================
// SESSION MESSAGES
// =============================================================================

// eventsMsg carries the events a background effect produced. They are
// dispatched in order on the UI goroutine.
type eventsMsg struct {
	events []session.Event
}

// statusExpiredMsg clears the status line if nothing newer replaced it.
type statusExpiredMsg struct {
	seq int
}

// =============================================================================
// EXPORT MESSAGES
// =============================================================================

// exportDoneMsg reports a finished export.
type exportDoneMsg struct {
	what string
	path string
	err  error
}

// =============================================================================
// CONFIG MESSAGES
// =============================================================================

// ConfigReloadedMsg tells a running Model that the config file changed.
// Only view settings are applied live; backend settings need a restart.
type ConfigReloadedMsg struct {
	Config *config.Config
	Err    error
}
