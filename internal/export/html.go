// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	chromaStyles "github.com/alecthomas/chroma/v2/styles"

	"github.com/jeranaias/geochat-tui/internal/model"
	"github.com/jeranaias/geochat-tui/internal/storage"
)

// =============================================================================
// HTML EXPORTER
// =============================================================================

// HTMLExporter exports transcripts to a standalone HTML page with embedded CSS.
type HTMLExporter struct {
	options *Options
	now     func() time.Time
}

// NewHTMLExporter creates a new HTML exporter.
func NewHTMLExporter(opts *Options) *HTMLExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &HTMLExporter{options: opts, now: time.Now}
}

// Export converts a transcript to HTML format.
func (e *HTMLExporter) Export(t *storage.Transcript) ([]byte, error) {
	if err := validate(t); err != nil {
		return nil, err
	}

	theme := e.options.Theme
	if theme != "light" {
		theme = "dark"
	}

	var sb strings.Builder

	sb.WriteString("<!DOCTYPE html>\n")
	sb.WriteString("<html lang=\"en\">\n")
	sb.WriteString("<head>\n")
	sb.WriteString("    <meta charset=\"UTF-8\">\n")
	sb.WriteString("    <meta name=\"viewport\" content=\"width=device-width, initial-scale=1.0\">\n")
	sb.WriteString(fmt.Sprintf("    <title>%s</title>\n", html.EscapeString(t.Title)))
	sb.WriteString("    <meta name=\"generator\" content=\"geochat\">\n")
	sb.WriteString(fmt.Sprintf("    <meta name=\"date\" content=\"%s\">\n", t.CreatedAt.Format(time.RFC3339)))
	sb.WriteString(pageCSS)
	sb.WriteString("</head>\n")
	sb.WriteString(fmt.Sprintf("<body class=\"%s-theme\">\n", theme))
	sb.WriteString("    <div class=\"container\">\n")

	if e.options.IncludeMetadata {
		sb.WriteString(e.renderHeader(t))
	}

	sb.WriteString("        <main class=\"conversation\">\n")
	for _, msg := range t.Messages {
		sb.WriteString(e.renderMessage(msg))
	}
	sb.WriteString("        </main>\n")

	sb.WriteString("        <footer class=\"footer\">\n")
	sb.WriteString(fmt.Sprintf("            <p>Exported from <strong>geochat</strong> on %s</p>\n",
		e.now().Format("January 2, 2006 at 3:04 PM")))
	sb.WriteString("        </footer>\n")
	sb.WriteString("    </div>\n")
	sb.WriteString("</body>\n")
	sb.WriteString("</html>\n")

	return []byte(sb.String()), nil
}

// FileExtension returns the file extension for HTML.
func (e *HTMLExporter) FileExtension() string {
	return ".html"
}

// MimeType returns the MIME type for HTML.
func (e *HTMLExporter) MimeType() string {
	return "text/html"
}

// =============================================================================
// RENDERING FUNCTIONS
// =============================================================================

func (e *HTMLExporter) renderHeader(t *storage.Transcript) string {
	var sb strings.Builder

	sb.WriteString("        <header class=\"header\">\n")
	sb.WriteString(fmt.Sprintf("            <h1>%s</h1>\n", html.EscapeString(t.Title)))
	sb.WriteString("            <div class=\"metadata\">\n")
	if t.SessionID != "" {
		sb.WriteString(fmt.Sprintf("                <span class=\"meta-item\"><strong>Chat:</strong> %s</span>\n", html.EscapeString(t.SessionID)))
	}
	if t.Mode != "" {
		sb.WriteString(fmt.Sprintf("                <span class=\"meta-item\"><strong>Mode:</strong> %s</span>\n", html.EscapeString(t.Mode.DisplayName())))
	}
	sb.WriteString(fmt.Sprintf("                <span class=\"meta-item\"><strong>Created:</strong> %s</span>\n", formatTimestamp(t.CreatedAt)))
	sb.WriteString(fmt.Sprintf("                <span class=\"meta-item\"><strong>Messages:</strong> %d</span>\n", len(t.Messages)))
	if t.Features.PolygonCount() > 0 {
		sb.WriteString(fmt.Sprintf("                <span class=\"meta-item\"><strong>Map:</strong> %s</span>\n", html.EscapeString(t.Features.Summary())))
	}
	sb.WriteString("            </div>\n")
	sb.WriteString("        </header>\n")

	return sb.String()
}

func (e *HTMLExporter) renderMessage(msg model.Message) string {
	var sb strings.Builder

	class := "message user-message"
	if msg.IsBot {
		class = "message bot-message"
	}
	if msg.Synthetic {
		class += " notice"
	}

	sb.WriteString(fmt.Sprintf("            <div class=\"%s\">\n", class))
	sb.WriteString("                <div class=\"message-header\">\n")
	sb.WriteString(fmt.Sprintf("                    <span class=\"role-label\">%s</span>\n", html.EscapeString(roleLabel(msg))))
	if e.options.IncludeTimestamps && !msg.CreatedAt.IsZero() {
		sb.WriteString(fmt.Sprintf("                    <span class=\"timestamp\">%s</span>\n", formatShortTimestamp(msg.CreatedAt)))
	}
	sb.WriteString("                </div>\n")

	sb.WriteString("                <div class=\"message-content\">\n")
	sb.WriteString(formatParagraphs(msg.Text))
	sb.WriteString("                </div>\n")

	if e.options.IncludeQueries && msg.Query != "" {
		sb.WriteString("                <div class=\"query\">\n")
		sb.WriteString("                    <div class=\"code-lang\">sql</div>\n")
		sb.WriteString(highlightSQL(msg.Query))
		sb.WriteString("\n                </div>\n")
	}

	sb.WriteString("            </div>\n")
	return sb.String()
}

// formatParagraphs escapes text and splits it into paragraphs on blank lines.
func formatParagraphs(text string) string {
	var sb strings.Builder
	for _, para := range strings.Split(strings.TrimSpace(text), "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		lines := strings.Split(para, "\n")
		for i, l := range lines {
			lines[i] = html.EscapeString(strings.TrimSpace(l))
		}
		sb.WriteString("                    <p>")
		sb.WriteString(strings.Join(lines, "<br>\n"))
		sb.WriteString("</p>\n")
	}
	return sb.String()
}

// highlightSQL renders query as highlighted HTML with inline styles. On any
// formatter error it falls back to an escaped <pre> block.
func highlightSQL(query string) string {
	query = strings.TrimSpace(query)
	fallback := fmt.Sprintf("<pre><code>%s</code></pre>", html.EscapeString(query))

	lexer := lexers.Get("sql")
	if lexer == nil {
		return fallback
	}
	lexer = chroma.Coalesce(lexer)

	style := chromaStyles.Get("monokai")
	if style == nil {
		style = chromaStyles.Fallback
	}

	iterator, err := lexer.Tokenise(nil, query)
	if err != nil {
		return fallback
	}

	var buf strings.Builder
	formatter := chromahtml.New(chromahtml.WithClasses(false), chromahtml.TabWidth(4))
	if err := formatter.Format(&buf, style, iterator); err != nil {
		return fallback
	}
	return buf.String()
}

// =============================================================================
// EMBEDDED CSS
// =============================================================================

const pageCSS = `    <style>
        * { margin: 0; padding: 0; box-sizing: border-box; }

        .dark-theme {
            --bg-primary: #1a1b26;
            --bg-secondary: #24283b;
            --bg-tertiary: #414868;
            --text-primary: #c0caf5;
            --text-muted: #565f89;
            --user-bg: #1f2335;
            --bot-bg: #24283b;
            --accent: #7aa2f7;
        }

        .light-theme {
            --bg-primary: #ffffff;
            --bg-secondary: #f7f8fa;
            --bg-tertiary: #e1e4e8;
            --text-primary: #24292e;
            --text-muted: #6a737d;
            --user-bg: #f6f8fa;
            --bot-bg: #ffffff;
            --accent: #0366d6;
        }

        body {
            font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif;
            line-height: 1.6;
            color: var(--text-primary);
            background: var(--bg-primary);
            padding: 20px;
        }

        .container { max-width: 900px; margin: 0 auto; background: var(--bg-secondary); border-radius: 12px; overflow: hidden; }
        .header { padding: 32px; background: var(--bg-tertiary); }
        .header h1 { font-size: 26px; margin-bottom: 12px; }
        .metadata { display: flex; flex-wrap: wrap; gap: 16px; font-size: 14px; }
        .conversation { padding: 24px 32px; }
        .message { margin-bottom: 20px; padding: 16px 20px; border-radius: 8px; border-left: 4px solid var(--accent); }
        .user-message { background: var(--user-bg); }
        .bot-message { background: var(--bot-bg); }
        .notice { opacity: 0.7; font-style: italic; }
        .message-header { display: flex; justify-content: space-between; margin-bottom: 8px; font-weight: 600; }
        .timestamp { color: var(--text-muted); font-weight: normal; font-size: 13px; }
        .message-content p { margin-bottom: 10px; }
        .query { margin-top: 12px; }
        .query pre { padding: 12px; border-radius: 6px; overflow-x: auto; font-size: 13px; }
        .code-lang { font-size: 12px; color: var(--text-muted); text-transform: uppercase; }
        .footer { padding: 16px 32px; font-size: 13px; color: var(--text-muted); }
    </style>
`
