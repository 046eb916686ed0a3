// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package answer

import (
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"
)

// QueryDelimiter separates the prose answer from the SQL the backend ran.
// Everything from its first occurrence on is not part of the answer text.
const QueryDelimiter = "SQL_query:"

// Result is a backend answer reduced to display text.
type Result struct {
	// Text is the plain-text answer shown in the transcript.
	Text string

	// Query is whatever followed QueryDelimiter, trimmed. Empty if absent.
	Query string
}

// HasQuery reports whether the answer carried a trailing query.
func (r Result) HasQuery() bool {
	return r.Query != ""
}

var (
	// SECURITY: only structural elements survive, without attributes. Script
	// and style bodies are dropped with their tags.
	structural = bluemonday.NewPolicy().AllowElements(
		"br", "p", "div", "h1", "h2", "h3", "h4", "h5", "h6",
		"ul", "ol", "li", "table", "tr", "pre", "blockquote",
	)

	// blockElements end with a line break.
	blockElements = map[string]bool{
		"p": true, "div": true, "h1": true, "h2": true, "h3": true,
		"h4": true, "h5": true, "h6": true, "ul": true, "ol": true,
		"table": true, "tr": true, "pre": true, "blockquote": true,
	}

	blankRuns = regexp.MustCompile(`\n{3,}`)
)

// Extract converts answer markup to plain text and splits off the query.
// Block-level tags become line breaks, list items become "- " lines, all
// remaining tags are dropped and entities are decoded.
func Extract(markup string) Result {
	text := PlainText(markup)

	idx := strings.Index(text, QueryDelimiter)
	if idx < 0 {
		return Result{Text: text}
	}
	return Result{
		Text:  tidy(text[:idx]),
		Query: strings.TrimSpace(text[idx+len(QueryDelimiter):]),
	}
}

// Text is Extract without the query, for callers that only display prose.
func Text(markup string) string {
	return Extract(markup).Text
}

// PlainText strips markup from s, keeping line structure.
func PlainText(s string) string {
	if s == "" {
		return ""
	}
	doc, err := html.Parse(strings.NewReader(structural.Sanitize(s)))
	if err != nil {
		return tidy(s)
	}
	var sb strings.Builder
	writeText(doc, &sb)
	return tidy(sb.String())
}

// writeText appends the text of n and its children to sb. br and block ends
// become line breaks, li starts a "- " line.
func writeText(n *html.Node, sb *strings.Builder) {
	switch n.Type {
	case html.TextNode:
		sb.WriteString(n.Data)
		return
	case html.ElementNode:
		switch n.Data {
		case "script", "style", "noscript":
			return
		case "br":
			sb.WriteString("\n")
			return
		case "li":
			sb.WriteString("\n- ")
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		writeText(c, sb)
	}
	if n.Type == html.ElementNode && blockElements[n.Data] {
		sb.WriteString("\n")
	}
}

// tidy trims trailing space on every line, collapses blank runs to a single
// empty line and trims the whole text.
func tidy(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t ")
	}
	s = strings.Join(lines, "\n")
	s = blankRuns.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}
