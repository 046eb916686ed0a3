// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/jeranaias/geochat-tui/internal/geo"
	"github.com/jeranaias/geochat-tui/internal/mapview"
	"github.com/jeranaias/geochat-tui/internal/storage"
	"github.com/jeranaias/geochat-tui/internal/util"
)

// =============================================================================
// MAP DOCUMENTS
// =============================================================================

// ErrNoMap is returned when a map export is requested for a transcript
// without drawable features.
var ErrNoMap = errors.New("transcript has no map")

// MapHTML renders features with r onto a Leaflet page. The report tells
// which features were drawn; a mount failure is returned as the error.
func MapHTML(features geo.FeatureSet, r *mapview.Renderer, title string) ([]byte, mapview.Report, error) {
	surface := mapview.NewHTMLSurface(title)
	rep := r.Render(surface, features)
	if rep.MountErr != nil {
		return nil, rep, fmt.Errorf("mount map: %w", rep.MountErr)
	}
	doc, err := surface.Document()
	if err != nil {
		return nil, rep, err
	}
	return doc, rep, nil
}

// ReplayHTML writes an already rendered map onto a Leaflet page, keeping its
// center and polygons.
func ReplayHTML(m *mapview.MemoryMap, title string) ([]byte, error) {
	if m == nil {
		return nil, mapview.ErrNothingMounted
	}
	surface := mapview.NewHTMLSurface(title)
	if err := m.Replay(surface); err != nil {
		return nil, err
	}
	return surface.Document()
}

// MapGeoJSON encodes the drawable features as a FeatureCollection.
func MapGeoJSON(features geo.FeatureSet) ([]byte, error) {
	return features.GeoJSON().MarshalJSON()
}

// ExportMap writes the transcript's map to OutputDir in the given format
// ("html" or "geojson") and returns the file path.
func ExportMap(t *storage.Transcript, r *mapview.Renderer, format string, opts *Options) (string, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	if t == nil || t.Features.PolygonCount() == 0 {
		return "", ErrNoMap
	}

	var (
		content []byte
		ext     string
		err     error
	)
	switch strings.ToLower(format) {
	case "", "html", "htm":
		content, _, err = MapHTML(t.Features, r, t.Title)
		ext = "_map.html"
	case "geojson", "json":
		content, err = MapGeoJSON(t.Features)
		ext = ".geojson"
	default:
		return "", fmt.Errorf("unsupported map format: %s", format)
	}
	if err != nil {
		return "", fmt.Errorf("export map: %w", err)
	}

	outputPath := filepath.Join(opts.OutputDir, Filename(t, ext, time.Now()))
	if err := util.AtomicWriteFile(outputPath, content, 0644); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}

	if opts.OpenAfterExport {
		if err := openFile(outputPath); err != nil {
			return outputPath, fmt.Errorf("exported to %s but could not open it: %w", outputPath, err)
		}
	}
	return outputPath, nil
}
