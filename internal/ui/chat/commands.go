// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/jeranaias/geochat-tui/internal/controller"
	"github.com/jeranaias/geochat-tui/internal/export"
	"github.com/jeranaias/geochat-tui/internal/model"
	"github.com/jeranaias/geochat-tui/internal/util"
)

// =============================================================================
// COMMAND REGISTRY
// =============================================================================

// Command is a slash command available in the input box.
type Command struct {
	Name        string
	Aliases     []string
	Args        string
	Description string
	Handler     func(m Model, args []string) (tea.Model, tea.Cmd)
}

// commands is filled in init so handlers can refer to the list.
var commands []Command

func init() {
	commands = []Command{
		{Name: "help", Aliases: []string{"h", "?"}, Description: "Show keys and commands", Handler: cmdHelp},
		{Name: "new", Aliases: []string{"n"}, Description: "Save this chat and start a new one", Handler: cmdNew},
		{Name: "save", Aliases: []string{"s"}, Description: "Commit this chat to the store", Handler: cmdSave},
		{Name: "sessions", Aliases: []string{"ls", "list"}, Description: "Reload the session list", Handler: cmdSessions},
		{Name: "open", Aliases: []string{"o"}, Args: "N|ID", Description: "Open a stored chat", Handler: cmdOpen},
		{Name: "mode", Aliases: []string{"m"}, Args: "[NAME]", Description: "Show or set the mode", Handler: cmdMode},
		{Name: "map", Args: "[html|geojson]", Description: "Toggle the map pane or export the map", Handler: cmdMap},
		{Name: "export", Aliases: []string{"e"}, Args: "md|json|html", Description: "Export the transcript", Handler: cmdExport},
		{Name: "quit", Aliases: []string{"q", "exit"}, Description: "Exit", Handler: cmdQuit},
	}
}

// Commands returns the registered slash commands.
func Commands() []Command {
	return commands
}

// LookupCommand finds a command by name or alias. The leading "/" is
// optional.
func LookupCommand(name string) (Command, bool) {
	name = strings.ToLower(strings.TrimPrefix(name, "/"))
	for _, c := range commands {
		if c.Name == name {
			return c, true
		}
		for _, a := range c.Aliases {
			if a == name {
				return c, true
			}
		}
	}
	return Command{}, false
}

func (m Model) runCommand(line string) (tea.Model, tea.Cmd) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return m, nil
	}
	cmd, ok := LookupCommand(fields[0])
	if !ok {
		return m, m.fail(fields[0], errors.New("unknown command, try /help"))
	}
	m.log.Debug("command", zap.String("name", cmd.Name), zap.Strings("args", fields[1:]))
	return cmd.Handler(m, fields[1:])
}

// =============================================================================
// HANDLERS
// =============================================================================

func cmdHelp(m Model, _ []string) (tea.Model, tea.Cmd) {
	m.showHelp = true
	return m, nil
}

func cmdQuit(m Model, _ []string) (tea.Model, tea.Cmd) {
	m.quitting = true
	return m, tea.Quit
}

func cmdNew(m Model, _ []string) (tea.Model, tea.Cmd) {
	return m, m.newSessionCmd()
}

func cmdSave(m Model, _ []string) (tea.Model, tea.Cmd) {
	if !m.state.HasConversation() {
		return m, m.notify("Nothing to save yet")
	}
	return m, m.saveCmd()
}

func cmdSessions(m Model, _ []string) (tea.Model, tea.Cmd) {
	m.showSidebar = true
	m.layout()
	return m, m.refreshCmd()
}

func cmdOpen(m Model, args []string) (tea.Model, tea.Cmd) {
	if len(args) == 0 {
		return m, m.fail("open", errors.New("usage: /open N|ID"))
	}
	id := args[0]
	// Small numbers pick from the list as shown; anything else is an id.
	if n, err := strconv.Atoi(id); err == nil && n >= 1 && n <= len(m.state.Sessions) {
		id = m.state.Sessions[n-1].ID
	}
	return m, m.openCmd(id)
}

func cmdMode(m Model, args []string) (tea.Model, tea.Cmd) {
	if len(args) == 0 {
		names := make([]string, len(model.AllModes))
		for i, mode := range model.AllModes {
			names[i] = string(mode)
		}
		return m, m.notify(fmt.Sprintf("Mode: %s (available: %s)",
			m.state.Mode.DisplayName(), strings.Join(names, ", ")))
	}
	mode, err := model.ParseMode(args[0])
	if err != nil {
		return m, m.fail("mode", err)
	}
	return m, m.apply(m.ctrl.SelectMode(mode))
}

func cmdMap(m Model, args []string) (tea.Model, tea.Cmd) {
	if !m.state.HasMap {
		return m, m.notify("No map in this chat yet; ask in mapping mode")
	}
	if len(args) == 0 {
		m.toggleMap()
		return m, nil
	}
	return m, m.exportMapCmd(strings.ToLower(args[0]))
}

func cmdExport(m Model, args []string) (tea.Model, tea.Cmd) {
	format := "md"
	if len(args) > 0 {
		format = strings.ToLower(args[0])
	}
	if !m.state.HasConversation() {
		return m, m.notify("Nothing to export yet")
	}
	return m, m.exportCmd(format)
}

// =============================================================================
// EXPORT COMMANDS
// =============================================================================

func (m Model) exportOptions() *export.Options {
	opts := export.DefaultOptions()
	opts.OutputDir = m.opts.ExportDir
	opts.IncludeQueries = m.opts.ShowQuery
	if !m.theme.IsDark {
		opts.Theme = "light"
	}
	return opts
}

func (m Model) exportCmd(format string) tea.Cmd {
	t := controller.TranscriptOf(m.state)
	opts := m.exportOptions()
	return func() tea.Msg {
		exporter, err := export.ForFormat(format, opts)
		if err != nil {
			return exportDoneMsg{what: "transcript", err: err}
		}
		path, err := export.ExportToFile(&t, exporter, opts)
		return exportDoneMsg{what: "transcript", path: path, err: err}
	}
}

// exportMapCmd writes the map as shown in the pane. HTML replays the
// rendered map so the page opens on the same center.
func (m Model) exportMapCmd(format string) tea.Cmd {
	t := controller.TranscriptOf(m.state)
	opts := m.exportOptions()
	current := m.ctrl.CurrentMap()
	return func() tea.Msg {
		switch format {
		case "html", "htm":
			doc, err := export.ReplayHTML(current, t.Title)
			if err != nil {
				return exportDoneMsg{what: "map", err: err}
			}
			path := filepath.Join(opts.OutputDir, export.Filename(&t, "_map.html", time.Now()))
			if err := util.AtomicWriteFile(path, doc, 0644); err != nil {
				return exportDoneMsg{what: "map", err: err}
			}
			return exportDoneMsg{what: "map", path: path}
		case "geojson", "json":
			path, err := export.ExportMap(&t, nil, "geojson", opts)
			return exportDoneMsg{what: "map", path: path, err: err}
		default:
			return exportDoneMsg{what: "map", err: fmt.Errorf("unsupported map format: %s", format)}
		}
	}
}
