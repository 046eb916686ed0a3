// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jeranaias/geochat-tui/internal/export"
	"github.com/jeranaias/geochat-tui/internal/geo"
	"github.com/jeranaias/geochat-tui/internal/mapview"
	"github.com/jeranaias/geochat-tui/internal/util"
)

type mapFlags struct {
	html    string
	geojson string
	term    bool
	width   int
	height  int
	title   string
}

func newMapCmd(a *app) *cobra.Command {
	var f mapFlags
	cmd := &cobra.Command{
		Use:   "map <file|->",
		Short: "Render polygons from a file",
		Long: `Render polygons without asking the backend.

The input is either a GeoJSON document or mapping_data as the backend
sends it: an array of features, each a list of [lat, lon] pairs. Use "-"
to read stdin. Without --html or --geojson the map is drawn in the
terminal.`,
		Example: `  geochat map zones.json --html zones.html
  cat reply.json | geochat map - --term --width 100`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runMap(cmd, args[0], f)
		},
	}
	cmd.Flags().StringVar(&f.html, "html", "", "write a Leaflet page to this file")
	cmd.Flags().StringVar(&f.geojson, "geojson", "", "write the drawable polygons as GeoJSON to this file")
	cmd.Flags().BoolVar(&f.term, "term", false, "draw the map in the terminal")
	cmd.Flags().IntVar(&f.width, "width", 0, "terminal map width in cells (default: terminal width)")
	cmd.Flags().IntVar(&f.height, "height", 20, "terminal map height in cells")
	cmd.Flags().StringVar(&f.title, "title", "", "page title (default: file name)")
	return cmd
}

func (a *app) runMap(cmd *cobra.Command, src string, f mapFlags) error {
	data, err := readInput(cmd.InOrStdin(), src)
	if err != nil {
		return err
	}
	features, err := geo.DecodeFile(data)
	if err != nil {
		return fmt.Errorf("decode %s: %w", src, err)
	}

	title := f.title
	if title == "" {
		title = "Map"
		if src != "-" {
			title = strings.TrimSuffix(filepath.Base(src), filepath.Ext(src))
		}
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, dimStyle.Render(features.Summary()))

	if f.html != "" {
		doc, rep, err := export.MapHTML(features, a.renderer(), title)
		if err != nil {
			return err
		}
		if err := util.AtomicWriteFile(f.html, doc, 0644); err != nil {
			return err
		}
		a.log.Info("map written", zap.String("path", f.html), zap.Stringer("report", rep))
		fmt.Fprintln(out, successStyle.Render("Map written to "+f.html), dimStyle.Render("("+rep.String()+")"))
	}
	if f.geojson != "" {
		doc, err := export.MapGeoJSON(features)
		if err != nil {
			return err
		}
		if err := util.AtomicWriteFile(f.geojson, doc, 0644); err != nil {
			return err
		}
		fmt.Fprintln(out, successStyle.Render("GeoJSON written to "+f.geojson))
	}

	if f.term || (f.html == "" && f.geojson == "") {
		width := f.width
		if width <= 0 {
			width = GetTerminalWidth() - 2
		}
		canvas := mapview.NewCanvasSurface(width, max(f.height, 4))
		rep := a.renderer().Render(canvas, features)
		if rep.MountErr != nil {
			return fmt.Errorf("mount map: %w", rep.MountErr)
		}
		view := canvas.Plain()
		if ColorsEnabled() {
			view = canvas.View()
		}
		fmt.Fprintln(out, view)
		fmt.Fprintln(out, dimStyle.Render(canvas.Caption()+" · "+rep.String()))
	}
	return nil
}

// readInput reads a named file, or stdin for "-".
func readInput(stdin io.Reader, src string) ([]byte, error) {
	if src == "-" {
		return io.ReadAll(stdin)
	}
	return os.ReadFile(src)
}
