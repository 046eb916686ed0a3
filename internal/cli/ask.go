// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jeranaias/geochat-tui/internal/export"
	"github.com/jeranaias/geochat-tui/internal/model"
	"github.com/jeranaias/geochat-tui/internal/session"
	"github.com/jeranaias/geochat-tui/internal/storage"
	"github.com/jeranaias/geochat-tui/internal/util"
)

type askFlags struct {
	mapHTML    string
	mapGeoJSON string
	asJSON     bool
	save       bool
}

// askResult is the --json output of ask.
type askResult struct {
	Question        string `json:"question"`
	Mode            string `json:"mode"`
	Answer          string `json:"answer"`
	Query           string `json:"query,omitempty"`
	SimilarQuestion string `json:"similar_question,omitempty"`
	Polygons        int    `json:"polygons"`
	SessionID       string `json:"session_id,omitempty"`
}

func newAskCmd(a *app) *cobra.Command {
	var f askFlags
	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Ask one question and print the answer",
		Long: `Ask a single question and exit.

Use --mode to pick the mode. Mapping answers can be written to a Leaflet
page with --map or to a GeoJSON file with --geojson. With --save the chat
is committed to the backend store afterwards.`,
		Example: `  geochat ask "How many parcels are zoned residential?"
  geochat ask -m mapping "Show flood zones" --map zones.html`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runAsk(cmd, strings.Join(args, " "), f)
		},
	}
	cmd.Flags().StringVar(&f.mapHTML, "map", "", "write the map of a mapping answer to this HTML file")
	cmd.Flags().StringVar(&f.mapGeoJSON, "geojson", "", "write the polygons of a mapping answer to this file")
	cmd.Flags().BoolVar(&f.asJSON, "json", false, "print the result as JSON")
	cmd.Flags().BoolVar(&f.save, "save", false, "commit the chat to the backend store")
	return cmd
}

func (a *app) runAsk(cmd *cobra.Command, question string, f askFlags) error {
	question = util.NormalizeInput(question)
	if question == "" {
		return fmt.Errorf("question is empty")
	}
	out := cmd.OutOrStdout()
	ctrl := a.newController()

	st, err := ctrl.Send(cmd.Context(), question)
	if err != nil {
		return err
	}
	bot, _ := st.LastBotMessage()

	if st.HasMap {
		if f.mapHTML != "" {
			doc, err := export.ReplayHTML(ctrl.CurrentMap(), storage.Title(st.Transcript))
			if err != nil {
				return err
			}
			if err := util.AtomicWriteFile(f.mapHTML, doc, 0644); err != nil {
				return err
			}
		}
		if f.mapGeoJSON != "" {
			data, err := export.MapGeoJSON(st.Features)
			if err != nil {
				return err
			}
			if err := util.AtomicWriteFile(f.mapGeoJSON, data, 0644); err != nil {
				return err
			}
		}
	} else if f.mapHTML != "" || f.mapGeoJSON != "" {
		fmt.Fprintln(cmd.ErrOrStderr(), warningStyle.Render("Warning:"), "answer has no map; nothing written")
	}

	if f.save {
		saved, err := ctrl.SaveNow(cmd.Context())
		if err != nil {
			return err
		}
		st = saved
	}

	a.log.Info("question answered",
		zap.Stringer("mode", bot.Mode),
		zap.Int("polygons", st.Features.PolygonCount()),
		zap.Bool("saved", f.save))

	if f.asJSON {
		res := askResult{
			Question:        question,
			Mode:            string(bot.Mode),
			Answer:          bot.Text,
			Query:           bot.Query,
			SimilarQuestion: st.SimilarQuestion,
			Polygons:        st.Features.PolygonCount(),
		}
		if f.save {
			res.SessionID = st.ID()
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}

	printAskResult(cmd, a.cfg.UI.ShowQuery, st, bot, f)
	return nil
}

func printAskResult(cmd *cobra.Command, showQuery bool, st session.State, bot model.Message, f askFlags) {
	out := cmd.OutOrStdout()
	displayAnswer(out, bot.Text)
	if showQuery && bot.Query != "" {
		fmt.Fprintln(out, queryStyle.Render("SQL: "+bot.Query))
	}
	if st.HasMap {
		fmt.Fprintln(out, dimStyle.Render(st.Features.Summary()))
		if f.mapHTML != "" {
			fmt.Fprintln(out, successStyle.Render("Map written to "+f.mapHTML))
		}
		if f.mapGeoJSON != "" {
			fmt.Fprintln(out, successStyle.Render("GeoJSON written to "+f.mapGeoJSON))
		}
	}
	if st.SimilarQuestion != "" {
		fmt.Fprintln(out, dimStyle.Render("Similar question: "+st.SimilarQuestion))
	}
	if f.save {
		fmt.Fprintln(out, successStyle.Render(st.Status))
	}
}
