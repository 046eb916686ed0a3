// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jeranaias/geochat-tui/internal/model"
	"github.com/jeranaias/geochat-tui/internal/storage"
	"github.com/jeranaias/geochat-tui/internal/util"
)

// errArchiveDisabled is returned by --local commands when the archive is off.
var errArchiveDisabled = errors.New("local archive is disabled (storage.enabled = false or --no-archive)")

func newSessionsCmd(a *app) *cobra.Command {
	var (
		local bool
		limit int
	)
	cmd := &cobra.Command{
		Use:     "sessions",
		Aliases: []string{"ls"},
		Short:   "List stored chats",
		Long: `List the chats stored on the backend, newest first.

With --local, list the transcripts archived on this machine instead.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			if local {
				archive, err := a.openArchive()
				if err != nil {
					return err
				}
				if archive == nil {
					return errArchiveDisabled
				}
				infos, err := archive.List(cmd.Context(), limit)
				if err != nil {
					return err
				}
				printArchive(out, infos)
				return nil
			}

			sessions, err := a.backendClient().ListSessions(cmd.Context())
			if err != nil {
				return err
			}
			model.SortNewestFirst(sessions)
			if limit > 0 && len(sessions) > limit {
				sessions = sessions[:limit]
			}
			printSessions(out, sessions)
			return nil
		},
	}
	cmd.Flags().BoolVar(&local, "local", false, "list the local archive")
	cmd.Flags().IntVarP(&limit, "limit", "n", 50, "maximum number of entries (0 for all)")
	cmd.AddCommand(newSessionsRmCmd(a))
	return cmd
}

func newSessionsRmCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <id>...",
		Short: "Remove transcripts from the local archive",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			archive, err := a.openArchive()
			if err != nil {
				return err
			}
			if archive == nil {
				return errArchiveDisabled
			}
			for _, id := range args {
				if err := archive.Delete(cmd.Context(), id); err != nil {
					return fmt.Errorf("remove %s: %w", id, err)
				}
				a.log.Info("transcript removed", zap.String("id", id))
				fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render("Removed "+id))
			}
			return nil
		},
	}
}

func newHistoryCmd(a *app) *cobra.Command {
	var local bool
	cmd := &cobra.Command{
		Use:   "history <id>",
		Short: "Print a stored chat",
		Long: `Print the messages of a stored chat.

The id is a backend session id, or a local archive id with --local.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			msgs, err := a.loadMessages(cmd, args[0], local)
			if err != nil {
				return err
			}
			printMessages(cmd.OutOrStdout(), msgs, a.cfg.UI.ShowQuery)
			return nil
		},
	}
	cmd.Flags().BoolVar(&local, "local", false, "read from the local archive")
	return cmd
}

// loadMessages fetches a transcript by id from the backend or the archive.
func (a *app) loadMessages(cmd *cobra.Command, id string, local bool) ([]model.Message, error) {
	if local {
		t, err := a.loadTranscript(cmd, id)
		if err != nil {
			return nil, err
		}
		return t.Messages, nil
	}
	entries, err := a.backendClient().FetchHistory(cmd.Context(), id)
	if err != nil {
		return nil, err
	}
	return model.FromEntries(entries), nil
}

func (a *app) loadTranscript(cmd *cobra.Command, id string) (*storage.Transcript, error) {
	archive, err := a.openArchive()
	if err != nil {
		return nil, err
	}
	if archive == nil {
		return nil, errArchiveDisabled
	}
	return archive.Get(cmd.Context(), id)
}

// =============================================================================
// OUTPUT
// =============================================================================

func printSessions(w io.Writer, sessions []model.SessionSummary) {
	if len(sessions) == 0 {
		fmt.Fprintln(w, dimStyle.Render("No stored chats."))
		return
	}
	fmt.Fprintln(w, titleStyle.Render(fmt.Sprintf("Stored chats (%d)", len(sessions))))
	for i, s := range sessions {
		fmt.Fprintf(w, "%3d. %s  %s\n", i+1, util.PadRight(s.ID, 8), util.TruncateWidth(s.Title(), 60))
	}
}

func printArchive(w io.Writer, infos []storage.TranscriptInfo) {
	if len(infos) == 0 {
		fmt.Fprintln(w, dimStyle.Render("Archive is empty."))
		return
	}
	fmt.Fprintln(w, titleStyle.Render(fmt.Sprintf("Archived transcripts (%d)", len(infos))))
	for _, t := range infos {
		flags := ""
		if t.HasMap {
			flags = " [map]"
		}
		if t.SessionID != "" {
			flags += " #" + t.SessionID
		}
		fmt.Fprintf(w, "%s  %s  %s (%d messages)%s\n",
			t.ID,
			t.UpdatedAt.Local().Format("2006-01-02 15:04"),
			util.TruncateWidth(t.Title, 50),
			t.MessageCount,
			dimStyle.Render(flags))
	}
}

func printMessages(w io.Writer, msgs []model.Message, showQuery bool) {
	for _, m := range msgs {
		label := promptStyle.Render(m.Author() + ":")
		if m.Synthetic {
			label = dimStyle.Render(m.Author() + ":")
		}
		fmt.Fprintln(w, label, m.Text)
		if showQuery && m.Query != "" {
			fmt.Fprintln(w, queryStyle.Render("  SQL: "+m.Query))
		}
	}
}
