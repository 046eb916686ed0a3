// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/jeranaias/geochat-tui/internal/session"
	"github.com/jeranaias/geochat-tui/internal/ui/styles"
)

// =============================================================================
// UPDATE
// =============================================================================

// Update handles all messages for the chat screen.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.ready = true
		m.layout()
		m.refreshViewport(false)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case eventsMsg:
		cmd := m.apply(m.ctrl.DispatchAll(msg.events...))
		return m, cmd

	case statusExpiredMsg:
		if msg.seq == m.statusSeq {
			m.state = m.ctrl.Dispatch(session.StatusCleared{})
		}
		return m, nil

	case exportDoneMsg:
		if msg.err != nil {
			return m, m.fail(msg.what, msg.err)
		}
		return m, m.notify("Exported " + msg.what + " to " + msg.path)

	case ConfigReloadedMsg:
		return m.handleConfigReload(msg)

	case spinner.TickMsg:
		if !m.state.Busy() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// =============================================================================
// KEYS
// =============================================================================

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = !m.showHelp
		return m, nil

	case m.showHelp && key.Matches(msg, m.keys.Back):
		m.showHelp = false
		return m, nil
	}

	if m.focus == focusSidebar {
		return m.handleSidebarKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Submit):
		return m.submit(m.input.Value())

	case key.Matches(msg, m.keys.CycleMode):
		return m, m.apply(m.ctrl.CycleMode())

	case key.Matches(msg, m.keys.NewChat):
		return m, m.newSessionCmd()

	case key.Matches(msg, m.keys.Save):
		return m, m.saveCmd()

	case key.Matches(msg, m.keys.Accept):
		if m.state.SimilarQuestion == "" {
			return m, nil
		}
		return m, m.apply(m.ctrl.AcceptSuggestion())

	case key.Matches(msg, m.keys.Sessions):
		m.focus = focusSidebar
		m.showSidebar = true
		m.input.Blur()
		m.layout()
		return m, nil

	case key.Matches(msg, m.keys.ToggleMap):
		m.toggleMap()
		return m, nil

	case key.Matches(msg, m.keys.PageUp):
		m.viewport.HalfViewUp()
		return m, nil

	case key.Matches(msg, m.keys.PageDown):
		m.viewport.HalfViewDown()
		return m, nil
	}

	if text, ok := m.starterFor(msg); ok {
		return m.submit(text)
	}

	before := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if after := m.input.Value(); after != before {
		m.state = m.ctrl.SetInput(after)
	}
	return m, cmd
}

func (m Model) handleSidebarKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back), key.Matches(msg, m.keys.Sessions):
		m.focusInput()
		return m, nil

	case key.Matches(msg, m.keys.Up):
		if m.selected > 0 {
			m.selected--
		}
		return m, nil

	case key.Matches(msg, m.keys.Down):
		if m.selected < len(m.state.Sessions)-1 {
			m.selected++
		}
		return m, nil

	case key.Matches(msg, m.keys.Submit):
		if m.selected >= len(m.state.Sessions) {
			return m, nil
		}
		id := m.state.Sessions[m.selected].ID
		m.focusInput()
		return m, m.openCmd(id)
	}
	return m, nil
}

func (m *Model) focusInput() {
	m.focus = focusInput
	m.input.Focus()
	m.layout()
}

// starterFor maps the number keys to starter questions while the chat is
// still empty.
func (m Model) starterFor(msg tea.KeyMsg) (string, bool) {
	if m.input.Value() != "" || m.state.HasConversation() || msg.Type != tea.KeyRunes || len(msg.Runes) != 1 {
		return "", false
	}
	r := msg.Runes[0]
	if r < '1' || r > '9' {
		return "", false
	}
	i := int(r - '1')
	if i >= len(m.opts.Starters) {
		return "", false
	}
	return m.opts.Starters[i], true
}

// submit sends text as a message, or runs it as a command when it starts
// with "/".
func (m Model) submit(text string) (tea.Model, tea.Cmd) {
	if strings.HasPrefix(strings.TrimSpace(text), "/") {
		m.input.SetValue("")
		m.state = m.ctrl.SetInput("")
		return m.runCommand(strings.TrimSpace(text))
	}

	snapshot, ok := m.ctrl.Submit(text)
	if !ok {
		return m, nil
	}
	cmd := m.apply(snapshot)
	m.log.Debug("message submitted",
		zap.Stringer("mode", snapshot.Mode),
		zap.Int("transcript", len(snapshot.Transcript)))
	return m, tea.Batch(cmd, m.exchangeCmd(snapshot))
}

func (m *Model) toggleMap() {
	m.showMap = !m.showMap
	m.layout()
	m.refreshViewport(false)
}

// =============================================================================
// CONFIG RELOAD
// =============================================================================

func (m Model) handleConfigReload(msg ConfigReloadedMsg) (tea.Model, tea.Cmd) {
	if msg.Err != nil {
		m.log.Warn("config reload failed", zap.Error(msg.Err))
		return m, m.fail("reload config", msg.Err)
	}
	cfg := msg.Config
	m.opts.ShowQuery = cfg.UI.ShowQuery
	m.opts.MapPane = cfg.UI.MapPane
	m.opts.Starters = cfg.Chat.Starters

	if cfg.UI.Theme != m.opts.Theme {
		m.opts.Theme = cfg.UI.Theme
		m.theme = styles.NewTheme(cfg.UI.Theme)
		m.input.PromptStyle = m.theme.InputPrompt
		m.spinner.Style = m.theme.Spinner
		if m.theme.IsDark {
			m.renderer.SetStyle("dark")
		} else {
			m.renderer.SetStyle("light")
		}
	}
	m.log.Info("config reloaded", zap.String("theme", cfg.UI.Theme))
	m.layout()
	m.refreshViewport(false)
	return m, m.notify("Config reloaded")
}
