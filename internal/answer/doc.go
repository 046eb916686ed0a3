// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package answer turns backend answer markup into transcript text.
//
// Answers arrive as HTML fragments, optionally followed by the SQL the
// backend executed after the "SQL_query:" marker. Extract returns the prose
// and the query separately.
//
// # Usage
//
//	res := answer.Extract("<p>Answer text</p>SQL_query: SELECT *")
//	// res.Text == "Answer text", res.Query == "SELECT *"
package answer
