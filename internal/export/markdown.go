// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"strings"
	"time"

	"github.com/jeranaias/geochat-tui/internal/model"
	"github.com/jeranaias/geochat-tui/internal/storage"
)

// =============================================================================
// MARKDOWN EXPORTER
// =============================================================================

// MarkdownExporter exports transcripts to Markdown format.
type MarkdownExporter struct {
	options *Options
	now     func() time.Time
}

// NewMarkdownExporter creates a new Markdown exporter.
func NewMarkdownExporter(opts *Options) *MarkdownExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &MarkdownExporter{options: opts, now: time.Now}
}

// Export converts a transcript to Markdown format.
func (e *MarkdownExporter) Export(t *storage.Transcript) ([]byte, error) {
	if err := validate(t); err != nil {
		return nil, err
	}

	var sb strings.Builder

	// YAML frontmatter with metadata
	if e.options.IncludeMetadata {
		sb.WriteString("---\n")
		sb.WriteString(fmt.Sprintf("title: %s\n", escapeYAML(t.Title)))
		if t.SessionID != "" {
			sb.WriteString(fmt.Sprintf("chat_id: %s\n", escapeYAML(t.SessionID)))
		}
		if t.Mode != "" {
			sb.WriteString(fmt.Sprintf("mode: %s\n", t.Mode))
		}
		sb.WriteString(fmt.Sprintf("date: %s\n", t.CreatedAt.Format(time.RFC3339)))
		sb.WriteString(fmt.Sprintf("messages: %d\n", len(t.Messages)))
		if n := t.Features.PolygonCount(); n > 0 {
			sb.WriteString(fmt.Sprintf("polygons: %d\n", n))
		}
		sb.WriteString(fmt.Sprintf("exported: %s\n", e.now().Format(time.RFC3339)))
		sb.WriteString("generator: geochat\n")
		sb.WriteString("---\n\n")
	}

	sb.WriteString(fmt.Sprintf("# %s\n\n", escapeMarkdown(t.Title)))

	for i, msg := range t.Messages {
		label := roleLabel(msg)
		if e.options.IncludeTimestamps && !msg.CreatedAt.IsZero() {
			sb.WriteString(fmt.Sprintf("### %s <sub>%s</sub>\n\n", label, formatShortTimestamp(msg.CreatedAt)))
		} else {
			sb.WriteString(fmt.Sprintf("### %s\n\n", label))
		}

		sb.WriteString(strings.TrimSpace(msg.Text))
		sb.WriteString("\n\n")

		if e.options.IncludeQueries && msg.Query != "" {
			sb.WriteString("```sql\n")
			sb.WriteString(strings.TrimSpace(msg.Query))
			sb.WriteString("\n```\n\n")
		}

		if i < len(t.Messages)-1 {
			sb.WriteString("---\n\n")
		}
	}

	if n := t.Features.PolygonCount(); n > 0 {
		sb.WriteString(fmt.Sprintf("> Map: %s. Export with `geochat export --map` to view it.\n\n", t.Features.Summary()))
	}

	sb.WriteString(fmt.Sprintf("*Exported from geochat on %s*\n",
		e.now().Format("January 2, 2006 at 3:04 PM")))

	return []byte(sb.String()), nil
}

// FileExtension returns the file extension for Markdown.
func (e *MarkdownExporter) FileExtension() string {
	return ".md"
}

// MimeType returns the MIME type for Markdown.
func (e *MarkdownExporter) MimeType() string {
	return "text/markdown"
}

// roleLabel returns the heading for a message, with the mode for user turns.
func roleLabel(msg model.Message) string {
	switch {
	case msg.IsBot:
		return "[Bot]"
	case msg.Mode != "":
		return fmt.Sprintf("[You · %s]", msg.Mode.DisplayName())
	default:
		return "[You]"
	}
}

// =============================================================================
// ESCAPING HELPERS
// =============================================================================

// escapeMarkdown escapes special Markdown characters in plain text.
func escapeMarkdown(s string) string {
	// Only escape characters that would break formatting in titles/headings
	s = strings.ReplaceAll(s, "#", "\\#")
	s = strings.ReplaceAll(s, "*", "\\*")
	s = strings.ReplaceAll(s, "_", "\\_")
	s = strings.ReplaceAll(s, "[", "\\[")
	s = strings.ReplaceAll(s, "]", "\\]")
	return s
}

// escapeYAML quotes YAML values that contain special characters.
func escapeYAML(s string) string {
	if strings.ContainsAny(s, ":#|>@`\"'[]{}!%&*\n\r\\") || strings.HasPrefix(s, " ") || strings.HasSuffix(s, " ") {
		s = strings.ReplaceAll(s, "\\", "\\\\")
		s = strings.ReplaceAll(s, "\"", "\\\"")
		s = strings.ReplaceAll(s, "\n", "\\n")
		s = strings.ReplaceAll(s, "\r", "\\r")
		return fmt.Sprintf("\"%s\"", s)
	}
	return s
}
