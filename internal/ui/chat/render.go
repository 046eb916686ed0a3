// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"fmt"
	"strings"
	"sync"

	"github.com/alecthomas/chroma/v2/quick"
	"github.com/charmbracelet/glamour"
	lru "github.com/hashicorp/golang-lru"
)

// renderCacheSize bounds how many rendered message bodies are kept.
const renderCacheSize = 256

// =============================================================================
// MESSAGE RENDERER
// =============================================================================

// MessageRenderer turns bot answers into styled terminal text. Answers are
// rendered as markdown and cached per message, width and style, so the
// transcript can be rebuilt on every update without re-running glamour.
type MessageRenderer struct {
	mu        sync.Mutex
	style     string
	cache     *lru.Cache
	renderers map[int]*glamour.TermRenderer
}

// NewMessageRenderer creates a renderer. style is "dark" or "light".
func NewMessageRenderer(style string) *MessageRenderer {
	cache, err := lru.New(renderCacheSize)
	if err != nil {
		// lru.New only fails for a non-positive size.
		panic(err)
	}
	return &MessageRenderer{
		style:     normalizeStyle(style),
		cache:     cache,
		renderers: make(map[int]*glamour.TermRenderer),
	}
}

// SetStyle switches the glamour style and drops everything cached.
func (r *MessageRenderer) SetStyle(style string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	style = normalizeStyle(style)
	if style == r.style {
		return
	}
	r.style = style
	r.renderers = make(map[int]*glamour.TermRenderer)
	r.cache.Purge()
}

// Markdown renders text at the given wrap width. id keys the cache; an empty
// id disables caching. On a glamour failure the text is returned as is.
func (r *MessageRenderer) Markdown(id, text string, width int) string {
	if width < 10 {
		width = 10
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	key := fmt.Sprintf("%s:%d:%s", id, width, r.style)
	if id != "" {
		if v, ok := r.cache.Get(key); ok {
			return v.(string)
		}
	}

	out := text
	if tr := r.termRenderer(width); tr != nil {
		if rendered, err := tr.Render(text); err == nil {
			out = strings.Trim(rendered, "\n")
		}
	}
	if id != "" {
		r.cache.Add(key, out)
	}
	return out
}

// Len returns the number of cached entries.
func (r *MessageRenderer) Len() int {
	return r.cache.Len()
}

func (r *MessageRenderer) termRenderer(width int) *glamour.TermRenderer {
	if tr, ok := r.renderers[width]; ok {
		return tr
	}
	tr, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(r.style),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil
	}
	r.renderers[width] = tr
	return tr
}

func normalizeStyle(style string) string {
	if strings.EqualFold(style, "light") {
		return "light"
	}
	return "dark"
}

// =============================================================================
// SQL HIGHLIGHTING
// =============================================================================

// HighlightSQL colors a query for 256-color terminals. The plain query is
// returned when highlighting fails.
func HighlightSQL(query string) string {
	var b strings.Builder
	if err := quick.Highlight(&b, query, "sql", "terminal256", "monokai"); err != nil {
		return query
	}
	return strings.TrimRight(b.String(), "\n")
}
