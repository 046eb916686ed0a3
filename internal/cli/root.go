// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jeranaias/geochat-tui/internal/config"
	"github.com/jeranaias/geochat-tui/internal/ui/chat"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// =============================================================================
// ROOT COMMAND
// =============================================================================

// NewRootCmd builds the full command tree. Each call returns an independent
// tree with its own state.
func NewRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "geochat",
		Short: "Chat with your data and see answers on a map",
		Long: `geochat is a terminal client for the chat backend.

Questions are sent in one of four modes: generation, retrieval, comparative
or mapping. Mapping answers come with polygons, drawn in the terminal map
pane or exported as a Leaflet page.

Run without a subcommand to start the interactive TUI.`,
		Version:           fmt.Sprintf("%s (commit %s, built %s)", Version, GitCommit, BuildDate),
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
		PersistentPostRun: func(*cobra.Command, []string) { a.close() },
		RunE:              a.runTUI,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "config file (default ~/.geochat/config.toml)")
	flags.StringVar(&a.backendURL, "backend", "", "backend URL (overrides config)")
	flags.StringVarP(&a.mode, "mode", "m", "", "initial mode: generation, retrieval, comparative, mapping")
	flags.StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error")
	flags.BoolVar(&a.noArchive, "no-archive", false, "do not use the local transcript archive")

	root.AddCommand(
		newChatCmd(a),
		newAskCmd(a),
		newSessionsCmd(a),
		newHistoryCmd(a),
		newExportCmd(a),
		newMapCmd(a),
		newConfigCmd(a),
	)
	return root
}

// Execute runs the command line and returns the process exit code.
func Execute() int {
	return run(NewRootCmd(), os.Args[1:], os.Stderr)
}

func run(root *cobra.Command, args []string, stderr io.Writer) int {
	root.SetArgs(args)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(stderr, errorStyle.Render("Error:"), err)
		return 1
	}
	return 0
}

// =============================================================================
// TUI
// =============================================================================

func (a *app) runTUI(cmd *cobra.Command, _ []string) error {
	if err := RequiresTTY("run the TUI"); err != nil {
		return fmt.Errorf("%w (try 'geochat chat' or 'geochat ask')", err)
	}

	m := chat.New(a.newController(), chat.Options{
		Theme:     a.cfg.UI.Theme,
		ShowQuery: a.cfg.UI.ShowQuery,
		MapPane:   a.cfg.UI.MapPane,
		Starters:  a.cfg.Chat.Starters,
		Logger:    a.log,
	})
	defer m.Close()

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(cmd.Context()))

	if path := a.watchedConfigPath(); path != "" {
		w, err := config.Watch(path, config.DefaultDebounce, func(cfg *config.Config, err error) {
			if err == nil {
				config.SetGlobal(cfg)
			}
			p.Send(chat.ConfigReloadedMsg{Config: cfg, Err: err})
		})
		if err != nil {
			a.log.Warn("config watch disabled", zap.String("path", path), zap.Error(err))
		} else {
			defer w.Close()
		}
	}

	a.log.Info("tui started",
		zap.String("backend", a.cfg.Backend.URL),
		zap.Stringer("mode", a.cfg.Mode()))
	_, err := p.Run()
	return err
}
