// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/geochat-tui/internal/model"
	"github.com/jeranaias/geochat-tui/internal/ui/styles"
	"github.com/jeranaias/geochat-tui/internal/util"
)

const (
	sidebarWidth = 30
	headerHeight = 1
	inputHeight  = 3
	statusHeight = 1
)

// =============================================================================
// LAYOUT
// =============================================================================

// panes holds the computed widths of the body columns. A zero width means
// the pane is hidden.
type panes struct {
	sidebar int
	chat    int
	mapPane int
	body    int // body height
}

// layout recomputes pane sizes for the current window and toggles.
func (m *Model) layout() {
	if !m.ready {
		return
	}
	m.theme.SetSize(m.width, m.height)

	p := panes{chat: m.width}
	switch m.theme.GetLayoutMode() {
	case styles.LayoutNarrow:
		// One pane at a time.
		switch {
		case m.focus == focusSidebar:
			p.sidebar, p.chat = m.width, 0
		case m.showMap:
			p.mapPane, p.chat = m.width, 0
		}
	case styles.LayoutMedium:
		if m.focus == focusSidebar {
			p.sidebar = sidebarWidth
		}
		if m.showMap {
			p.mapPane = (m.width - p.sidebar) / 2
		}
	default:
		if m.showSidebar || m.focus == focusSidebar {
			p.sidebar = sidebarWidth
		}
		if m.showMap {
			p.mapPane = (m.width - p.sidebar) * 2 / 5
		}
	}
	if p.chat != 0 {
		p.chat = m.width - p.sidebar - p.mapPane
	}

	footer := inputHeight + statusHeight
	if m.state.SimilarQuestion != "" {
		footer++
	}
	p.body = max(m.height-headerHeight-footer, 3)
	m.panes = p

	m.viewport.Width = max(p.chat, 1)
	m.viewport.Height = p.body
	m.input.Width = max(m.width-6, 10)
	if p.mapPane > 0 {
		// border on each side, caption below
		m.canvas.Resize(p.mapPane-2, p.body-3)
	}
}

// refreshViewport rebuilds the transcript. The view follows the newest
// message when toBottom is set or it was already at the bottom.
func (m *Model) refreshViewport(toBottom bool) {
	follow := toBottom || m.viewport.AtBottom()
	m.viewport.SetContent(m.renderTranscript(max(m.panes.chat, 20)))
	if follow {
		m.viewport.GotoBottom()
	}
}

// =============================================================================
// VIEW
// =============================================================================

// View renders the chat screen.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if !m.ready {
		return "Loading..."
	}

	var body string
	if m.showHelp {
		body = lipgloss.Place(m.width, m.panes.body, lipgloss.Center, lipgloss.Center, m.renderHelp())
	} else {
		body = m.renderBody()
	}

	parts := []string{m.renderHeader(), body}
	if hint := m.renderSuggestion(); hint != "" {
		parts = append(parts, hint)
	}
	parts = append(parts, m.renderInput(), m.renderStatusBar())
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m Model) renderBody() string {
	var cols []string
	if m.panes.sidebar > 0 {
		cols = append(cols, m.renderSidebar(m.panes.sidebar, m.panes.body))
	}
	if m.panes.chat > 0 {
		cols = append(cols, lipgloss.NewStyle().
			Width(m.panes.chat).
			Height(m.panes.body).
			Render(m.viewport.View()))
	}
	if m.panes.mapPane > 0 {
		cols = append(cols, m.renderMapPane(m.panes.mapPane, m.panes.body))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cols...)
}

// =============================================================================
// HEADER
// =============================================================================

func (m Model) renderHeader() string {
	title := m.theme.HeaderTitle.Render("geochat")
	badge := m.theme.ModeBadge(m.state.Mode)

	chat := "new chat"
	if id := m.state.ID(); id != "" {
		chat = "chat " + id
	}
	info := m.theme.HeaderInfo.Render(chat)

	left := lipgloss.JoinHorizontal(lipgloss.Center, title, " ", badge, " ", info)
	right := ""
	if m.state.Busy() {
		right = m.spinner.View() + m.theme.Muted.Render(fmt.Sprintf(" waiting (%d)", m.state.Pending))
	} else if m.state.HasMap {
		right = styles.StatusIndicators.Map
	}

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		return left
	}
	return left + strings.Repeat(" ", gap) + right
}

// =============================================================================
// TRANSCRIPT
// =============================================================================

func (m Model) renderTranscript(width int) string {
	var blocks []string
	for _, msg := range m.state.Transcript {
		blocks = append(blocks, m.renderMessage(msg, width))
	}
	if !m.state.HasConversation() && len(m.opts.Starters) > 0 {
		blocks = append(blocks, m.renderStarters(width))
	}
	return strings.Join(blocks, "\n\n")
}

func (m Model) renderMessage(msg model.Message, width int) string {
	bubbleWidth := max(width-6, 16)
	inner := bubbleWidth - 4

	header := m.theme.Author.Render(msg.Author())
	if !msg.CreatedAt.IsZero() {
		header += " " + m.theme.Timestamp.Render(msg.CreatedAt.Local().Format("15:04"))
	}
	if !msg.IsBot && msg.Mode.Valid() {
		header += " " + m.theme.ModeBadge(msg.Mode)
	}

	var body string
	var style lipgloss.Style
	switch {
	case msg.Synthetic:
		body, style = msg.Text, m.theme.NoticeBubble
	case msg.IsBot:
		body, style = m.renderer.Markdown(msg.ID, msg.Text, inner), m.theme.BotBubble
	default:
		body, style = msg.Text, m.theme.UserBubble
	}

	if m.opts.ShowQuery && msg.Query != "" {
		query := m.theme.QueryBox.Width(inner).Render(HighlightSQL(msg.Query))
		body += "\n\n" + m.theme.QueryLabel.Render("SQL") + "\n" + query
	}

	block := lipgloss.JoinVertical(lipgloss.Left, header, style.Width(bubbleWidth).Render(body))
	if !msg.IsBot {
		return lipgloss.PlaceHorizontal(width, lipgloss.Right, block)
	}
	return block
}

func (m Model) renderStarters(width int) string {
	lines := []string{m.theme.Muted.Render("Try one of these:")}
	for i, s := range m.opts.Starters {
		if i >= 9 {
			break
		}
		line := m.theme.SuggestKey.Render(fmt.Sprintf("%d", i+1)) + "  " +
			m.theme.Suggestion.Render(util.TruncateWidth(s, width-4))
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

// =============================================================================
// SIDEBAR
// =============================================================================

func (m Model) renderSidebar(width, height int) string {
	inner := max(width-3, 4)
	lines := []string{m.theme.SidebarTitle.Render("Sessions")}

	if len(m.state.Sessions) == 0 {
		lines = append(lines, m.theme.Muted.Render("No saved chats"))
	}
	current := m.state.ID()
	for i, s := range m.state.Sessions {
		label := util.TruncateWidth(fmt.Sprintf("%d %s", i+1, s.Title()), inner)
		switch {
		case m.focus == focusSidebar && i == m.selected:
			label = m.theme.SessionSelected.Render(util.PadRight(label, inner))
		case s.ID == current:
			label = m.theme.SessionCurrent.Render(label)
		default:
			label = m.theme.SessionItem.Render(label)
		}
		lines = append(lines, label)
	}

	// keep the selection visible
	visible := height - 2
	if len(lines) > visible && visible > 1 {
		start := 0
		if m.focus == focusSidebar && m.selected+2 > visible {
			start = m.selected + 2 - visible
		}
		lines = append(lines[:1:1], lines[1+start:min(len(lines), start+visible)]...)
	}

	return m.theme.Sidebar.
		Width(width - 1).
		Height(height).
		Render(strings.Join(lines, "\n"))
}

// =============================================================================
// MAP PANE
// =============================================================================

func (m Model) renderMapPane(width, height int) string {
	content := m.canvas.View()
	if content == "" {
		content = m.theme.Muted.Render("No map yet")
	}
	frame := m.theme.MapPane.
		Width(width - 2).
		Height(height - 3).
		Render(content)

	caption := m.canvas.Caption()
	if m.state.HasMap {
		caption = m.state.Features.Summary() + " · " + caption
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		frame,
		m.theme.MapCaption.Render(util.TruncateWidth(caption, width)))
}

// =============================================================================
// FOOTER
// =============================================================================

func (m Model) renderSuggestion() string {
	q := m.state.SimilarQuestion
	if q == "" {
		return ""
	}
	hint := m.theme.SuggestKey.Render("C-y") + " " + m.theme.Muted.Render("similar:") + " "
	return hint + m.theme.Suggestion.Render(util.TruncateWidth(q, m.width-lipgloss.Width(hint)))
}

func (m Model) renderInput() string {
	return m.theme.InputContainer.Width(max(m.width-2, 10)).Render(m.input.View())
}

func (m Model) renderStatusBar() string {
	status := m.state.Status
	left := m.theme.StatusText.Render(status)
	if strings.Contains(status, "failed") {
		left = m.theme.StatusError.Render(styles.StatusIndicators.Error + " " + status)
	}

	var keys []string
	for _, b := range m.keys.ShortHelp() {
		h := b.Help()
		keys = append(keys, m.theme.ShortcutKey.Render(h.Key)+" "+m.theme.ShortcutDesc.Render(h.Desc))
	}
	right := strings.Join(keys, "  ")

	avail := m.width - 2
	if lipgloss.Width(left)+lipgloss.Width(right)+1 > avail {
		right = ""
	}
	gap := max(avail-lipgloss.Width(left)-lipgloss.Width(right), 1)
	return m.theme.StatusBar.Width(m.width).Render(left + strings.Repeat(" ", gap) + right)
}

// =============================================================================
// HELP
// =============================================================================

func (m Model) renderHelp() string {
	var b strings.Builder
	b.WriteString(m.theme.SidebarTitle.Render("Keys"))
	b.WriteString("\n")
	for _, group := range m.keys.FullHelp() {
		for _, k := range group {
			h := k.Help()
			b.WriteString(m.theme.ShortcutKey.Render(util.PadRight(h.Key, 10)))
			b.WriteString(m.theme.ShortcutDesc.Render(h.Desc))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(m.theme.SidebarTitle.Render("Commands"))
	b.WriteString("\n")
	for _, c := range Commands() {
		usage := "/" + c.Name
		if c.Args != "" {
			usage += " " + c.Args
		}
		b.WriteString(m.theme.ShortcutKey.Render(util.PadRight(usage, 24)))
		b.WriteString(m.theme.ShortcutDesc.Render(c.Description))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(m.theme.Muted.Render("Esc or F1 to close"))
	return m.theme.Help.Render(b.String())
}
