// geochat - A terminal client for chatting with your data and mapping the answers.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"os"

	"github.com/jeranaias/geochat-tui/internal/cli"
)

// Set at build time via -ldflags "-X main.version=...".
var (
	version   = ""
	gitCommit = ""
	buildDate = ""
)

func main() {
	if version != "" {
		cli.Version = version
	}
	if gitCommit != "" {
		cli.GitCommit = gitCommit
	}
	if buildDate != "" {
		cli.BuildDate = buildDate
	}
	os.Exit(cli.Execute())
}
