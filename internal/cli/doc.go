// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements the geochat command tree.
//
// Running geochat without a subcommand starts the TUI. The other commands
// work in line mode and are safe to pipe:
//
//	geochat chat                          interactive REPL
//	geochat ask "question" --mode mapping one question, answer on stdout
//	geochat sessions                      list stored chats
//	geochat sessions rm ID                 remove an archived transcript
//	geochat history ID                    print a stored chat
//	geochat export ID --format md         export a chat to a file
//	geochat map FILE --html out.html      render a saved feature list
//	geochat config show|path|init         inspect or create the config
//
// Every command loads the configuration once in PersistentPreRunE and logs
// to the configured file, never to the terminal.
package cli
