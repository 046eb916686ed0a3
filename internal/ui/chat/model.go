// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/jeranaias/geochat-tui/internal/controller"
	"github.com/jeranaias/geochat-tui/internal/mapview"
	"github.com/jeranaias/geochat-tui/internal/session"
	"github.com/jeranaias/geochat-tui/internal/ui/styles"
)

// statusTTL is how long a status notice stays in the status bar.
const statusTTL = 5 * time.Second

// =============================================================================
// OPTIONS
// =============================================================================

// Options configures the chat view.
type Options struct {
	// Theme is "auto", "dark" or "light".
	Theme string

	// ShowQuery shows the SQL reported with each answer.
	ShowQuery bool

	// MapPane opens the map pane when a mapping answer arrives.
	MapPane bool

	// Starters are suggested first questions, picked with keys 1-9 while the
	// chat is empty.
	Starters []string

	// ExportDir receives /export and /map files (default ".").
	ExportDir string

	Logger *zap.Logger
}

// =============================================================================
// MODEL
// =============================================================================

type focus int

const (
	focusInput focus = iota
	focusSidebar
)

// Model is the Bubble Tea model of the chat screen.
type Model struct {
	ctrl     *controller.Controller
	opts     Options
	theme    *styles.Theme
	keys     KeyMap
	log      *zap.Logger
	renderer *MessageRenderer

	input    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model
	canvas   *mapview.CanvasSurface

	// state is the last snapshot returned by the controller.
	state session.State

	width  int
	height int
	ready  bool
	panes  panes

	focus    focus
	selected int

	showHelp    bool
	showMap     bool
	showSidebar bool

	// statusSeq numbers status notices so only the latest one expires.
	statusSeq int
	quitting  bool
}

// New creates the chat model. The map canvas is attached to ctrl right away
// so a map rendered before the first frame still shows up.
func New(ctrl *controller.Controller, opts Options) Model {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.ExportDir == "" {
		opts.ExportDir = "."
	}

	theme := styles.NewTheme(opts.Theme)

	ti := textinput.New()
	ti.Placeholder = "Ask about your data, or /help"
	ti.Prompt = "> "
	ti.PromptStyle = theme.InputPrompt
	ti.CharLimit = 4000
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Spinner{
		Frames: styles.GlobeSpinner.Frames,
		FPS:    styles.GlobeSpinner.Duration(),
	}
	sp.Style = theme.Spinner

	canvas := mapview.NewCanvasSurface(40, 16)
	ctrl.Attach(canvas)

	style := "dark"
	if !theme.IsDark {
		style = "light"
	}

	st := ctrl.State()
	return Model{
		ctrl:        ctrl,
		opts:        opts,
		theme:       theme,
		keys:        DefaultKeyMap(),
		log:         opts.Logger.Named("tui"),
		renderer:    NewMessageRenderer(style),
		input:       ti,
		viewport:    viewport.New(80, 20),
		spinner:     sp,
		canvas:      canvas,
		state:       st,
		showSidebar: true,
		showMap:     opts.MapPane && st.HasMap,
	}
}

// Init starts the cursor blink and loads the session list.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.refreshCmd())
}

// State returns the snapshot the view is showing.
func (m Model) State() session.State {
	return m.state
}

// Canvas returns the map pane surface.
func (m Model) Canvas() *mapview.CanvasSurface {
	return m.canvas
}

// Close detaches the map canvas from the controller.
func (m Model) Close() {
	m.ctrl.Detach(m.canvas)
}

// =============================================================================
// EFFECT COMMANDS
// =============================================================================

func (m Model) exchangeCmd(snapshot session.State) tea.Cmd {
	ctrl := m.ctrl
	return func() tea.Msg {
		return eventsMsg{events: []session.Event{ctrl.Exchange(context.Background(), snapshot)}}
	}
}

func (m Model) newSessionCmd() tea.Cmd {
	ctrl, snapshot := m.ctrl, m.state
	return func() tea.Msg {
		return eventsMsg{events: ctrl.StartNewSession(context.Background(), snapshot)}
	}
}

func (m Model) saveCmd() tea.Cmd {
	ctrl, snapshot := m.ctrl, m.state
	return func() tea.Msg {
		return eventsMsg{events: []session.Event{ctrl.Save(context.Background(), snapshot)}}
	}
}

func (m Model) openCmd(id string) tea.Cmd {
	ctrl := m.ctrl
	return func() tea.Msg {
		return eventsMsg{events: []session.Event{ctrl.OpenSession(context.Background(), id)}}
	}
}

func (m Model) refreshCmd() tea.Cmd {
	ctrl := m.ctrl
	return func() tea.Msg {
		return eventsMsg{events: []session.Event{ctrl.RefreshSessions(context.Background())}}
	}
}

// =============================================================================
// STATE SYNC
// =============================================================================

// apply takes a new controller snapshot into the view: the input box follows
// the state (cleared on submit, filled by an accepted suggestion) and the map
// pane opens when the first map of a session arrives.
func (m *Model) apply(st session.State) tea.Cmd {
	prev := m.state
	m.state = st

	if m.input.Value() != st.Input {
		m.input.SetValue(st.Input)
		m.input.CursorEnd()
	}
	if st.HasMap && !prev.HasMap && m.opts.MapPane {
		m.showMap = true
	}
	if !st.HasMap {
		m.showMap = false
	}
	if m.selected >= len(st.Sessions) {
		m.selected = max(len(st.Sessions)-1, 0)
	}

	m.layout()
	m.refreshViewport(len(st.Transcript) != len(prev.Transcript))

	var cmds []tea.Cmd
	if st.Status != "" && st.Status != prev.Status {
		cmds = append(cmds, m.expireStatus())
	}
	if st.Busy() && !prev.Busy() {
		cmds = append(cmds, m.spinner.Tick)
	}
	return tea.Batch(cmds...)
}

// notify shows a client-side notice. It expires like any other status.
func (m *Model) notify(text string) tea.Cmd {
	return m.apply(m.ctrl.Dispatch(session.StatusSet{Text: text}))
}

// fail reports a failed local operation on the status line.
func (m *Model) fail(op string, err error) tea.Cmd {
	return m.apply(m.ctrl.Dispatch(session.OperationFailed{Op: op, Err: err}))
}

func (m *Model) expireStatus() tea.Cmd {
	m.statusSeq++
	seq := m.statusSeq
	return tea.Tick(statusTTL, func(time.Time) tea.Msg {
		return statusExpiredMsg{seq: seq}
	})
}
