// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package mapview

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/paulmach/orb/maptile"

	"github.com/jeranaias/geochat-tui/internal/geo"
)

// =============================================================================
// TILE LAYER
// =============================================================================

const (
	// OSMTileURL is the OpenStreetMap standard tile template.
	OSMTileURL = "https://{s}.tile.openstreetmap.org/{z}/{x}/{y}.png"

	// OSMMaxZoom is the deepest zoom OSM serves.
	OSMMaxZoom = 19

	// OSMAttribution must be shown wherever OSM tiles are displayed.
	OSMAttribution = "© OpenStreetMap contributors"

	maxTileZoom = 24
)

// TileLayer describes a slippy-map raster tile source.
type TileLayer struct {
	URLTemplate string   `json:"url"`
	MaxZoom     int      `json:"maxZoom"`
	Attribution string   `json:"attribution"`
	Subdomains  []string `json:"subdomains"`
}

// OSM returns the OpenStreetMap base layer.
func OSM() TileLayer {
	return TileLayer{
		URLTemplate: OSMTileURL,
		MaxZoom:     OSMMaxZoom,
		Attribution: OSMAttribution,
		Subdomains:  []string{"a", "b", "c"},
	}
}

// Validate checks that the template can address tiles.
func (t TileLayer) Validate() error {
	for _, p := range []string{"{z}", "{x}", "{y}"} {
		if !strings.Contains(t.URLTemplate, p) {
			return fmt.Errorf("tile url %q is missing %s", t.URLTemplate, p)
		}
	}
	if strings.Contains(t.URLTemplate, "{s}") && len(t.Subdomains) == 0 {
		return fmt.Errorf("tile url %q uses {s} but no subdomains are set", t.URLTemplate)
	}
	if t.MaxZoom < 0 || t.MaxZoom > maxTileZoom {
		return fmt.Errorf("tile max zoom %d out of range", t.MaxZoom)
	}
	return nil
}

// URL expands the template for one tile. The subdomain rotates with the
// tile position, so neighbouring tiles spread across hosts.
func (t TileLayer) URL(tile maptile.Tile) string {
	sub := ""
	if n := len(t.Subdomains); n > 0 {
		sub = t.Subdomains[int(tile.X+tile.Y)%n]
	}
	r := strings.NewReplacer(
		"{s}", sub,
		"{z}", strconv.Itoa(int(tile.Z)),
		"{x}", strconv.FormatUint(uint64(tile.X), 10),
		"{y}", strconv.FormatUint(uint64(tile.Y), 10),
	)
	return r.Replace(t.URLTemplate)
}

// TileAt returns the tile covering a position, with zoom capped at MaxZoom.
func (t TileLayer) TileAt(ll geo.LatLng, zoom int) maptile.Tile {
	if zoom > t.MaxZoom {
		zoom = t.MaxZoom
	}
	if zoom < 0 {
		zoom = 0
	}
	return maptile.At(clampPoint(ll).Point(), maptile.Zoom(zoom))
}
