// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jeranaias/geochat-tui/internal/export"
	"github.com/jeranaias/geochat-tui/internal/model"
	"github.com/jeranaias/geochat-tui/internal/storage"
)

type exportFlags struct {
	format    string
	outDir    string
	mapFormat string
	local     bool
	push      bool
	open      bool
	noQueries bool
}

func newExportCmd(a *app) *cobra.Command {
	var f exportFlags
	cmd := &cobra.Command{
		Use:   "export <id>",
		Short: "Export a stored chat to a file",
		Long: `Export a stored chat as Markdown, JSON or a standalone HTML page.

The id is a backend session id, or a local archive id with --local.
Archived transcripts keep the polygons of their last mapping answer; use
--map to write them as a Leaflet page or GeoJSON as well. --push stores an
archived transcript on the backend as a new chat.`,
		Example: `  geochat export 42 --format html
  geochat export --local 3f2a... --map geojson --out exports/`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runExport(cmd, args[0], f)
		},
	}
	cmd.Flags().StringVarP(&f.format, "format", "f", "md", "export format: "+strings.Join(export.Formats, ", "))
	cmd.Flags().StringVarP(&f.outDir, "out", "o", ".", "output directory")
	cmd.Flags().StringVar(&f.mapFormat, "map", "", "also export the map: html or geojson")
	cmd.Flags().BoolVar(&f.local, "local", false, "read from the local archive")
	cmd.Flags().BoolVar(&f.push, "push", false, "store an archived transcript on the backend (requires --local)")
	cmd.Flags().BoolVar(&f.open, "open", false, "open the exported file")
	cmd.Flags().BoolVar(&f.noQueries, "no-queries", false, "leave out the SQL behind each answer")
	return cmd
}

func (a *app) runExport(cmd *cobra.Command, id string, f exportFlags) error {
	if f.push && !f.local {
		return errors.New("--push requires --local")
	}
	if f.mapFormat != "" && !f.local {
		return errors.New("--map requires --local; backend history carries no map data")
	}

	t, err := a.exportTranscript(cmd, id, f.local)
	if err != nil {
		return err
	}

	opts := export.DefaultOptions()
	opts.OutputDir = f.outDir
	opts.OpenAfterExport = f.open
	opts.IncludeQueries = !f.noQueries
	if a.cfg.UI.Theme == "light" {
		opts.Theme = "light"
	}

	exporter, err := export.ForFormat(f.format, opts)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	path, err := export.ExportToFile(t, exporter, opts)
	if err != nil {
		return err
	}
	a.log.Info("transcript exported", zap.String("id", id), zap.String("path", path))
	fmt.Fprintln(out, successStyle.Render("Exported to "+path))

	if f.mapFormat != "" {
		mapPath, err := export.ExportMap(t, a.renderer(), f.mapFormat, opts)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, successStyle.Render("Map exported to "+mapPath))
	}

	if f.push {
		return a.pushTranscript(cmd, t)
	}
	return nil
}

// exportTranscript builds the transcript to export. Backend history becomes
// a transcript without features.
func (a *app) exportTranscript(cmd *cobra.Command, id string, local bool) (*storage.Transcript, error) {
	if local {
		return a.loadTranscript(cmd, id)
	}
	msgs, err := a.loadMessages(cmd, id, false)
	if err != nil {
		return nil, err
	}
	t := &storage.Transcript{
		SessionID: id,
		Title:     storage.Title(msgs),
		Messages:  msgs,
	}
	for _, m := range msgs {
		if m.IsBot && m.Mode.Valid() {
			t.Mode = m.Mode
		}
	}
	if len(msgs) > 0 {
		t.CreatedAt = msgs[0].CreatedAt
		t.UpdatedAt = msgs[len(msgs)-1].CreatedAt
	}
	return t, nil
}

// pushTranscript stores t on the backend and records the new session id in
// the archive.
func (a *app) pushTranscript(cmd *cobra.Command, t *storage.Transcript) error {
	res, err := a.backendClient().CreateChat(cmd.Context(), model.ToEntries(t.Messages))
	if err != nil {
		return fmt.Errorf("push transcript: %w", err)
	}
	if res.ChatID != "" {
		t.SessionID = res.ChatID
		if archive, err := a.openArchive(); err == nil && archive != nil {
			if _, err := archive.Put(cmd.Context(), *t); err != nil {
				a.log.Warn("record pushed session", zap.Error(err))
			}
		}
	}
	a.log.Info("transcript pushed", zap.String("id", t.ID), zap.String("session", res.ChatID))
	fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render("Stored on the backend as chat "+res.ChatID))
	return nil
}
