// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package chat provides the main chat view of the geochat TUI.

The Model is a Bubble Tea model wrapped around a controller.Controller. All
session state lives in the controller; the Model keeps only view state
(focus, scroll position, which panes are open) and a copy of the last
session.State it rendered.

# Layout

	┌ header: title, mode badge, chat id, spinner ─────────────────────┐
	│ sessions │ transcript (viewport)             │ map pane (canvas) │
	│          │                                   │ caption           │
	├──────────┴───────────────────────────────────┴───────────────────┤
	│ similar question hint                                             │
	│ > input                                                           │
	└ status bar ──────────────────────────────────────────────────────┘

The sidebar and map pane collapse on narrow terminals.

# Event Flow

Key presses update the input and call the controller's synchronous
operations (Submit, SelectMode, AcceptSuggestion). Backend work runs in a
tea.Cmd over the state snapshot returned by the controller and comes back as
an eventsMsg, which Update feeds to Controller.DispatchAll on the UI
goroutine. Mapping answers are drawn by the controller onto the attached
mapview.CanvasSurface.

# Commands

Lines starting with "/" are commands:

	/help              show keys and commands
	/new               save this chat and start a new one
	/save              commit this chat to the store
	/sessions          reload the session list
	/open N|ID         open session N from the list, or by id
	/mode [NAME]       show or set the mode
	/map [html|geojson] toggle the map pane, or export the current map
	/export md|json|html export the transcript
	/quit              exit
*/
package chat
