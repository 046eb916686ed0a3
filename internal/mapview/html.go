// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package mapview

import (
	"bytes"
	"errors"
	"html/template"
	"sync"

	"github.com/jeranaias/geochat-tui/internal/geo"
)

// =============================================================================
// HTML (LEAFLET) SURFACE
// =============================================================================

// ErrNothingMounted is returned when a document is requested before Mount.
var ErrNothingMounted = errors.New("no map mounted")

// LeafletVersion is the Leaflet release the generated pages load.
const LeafletVersion = "1.9.4"

// HTMLSurface builds a standalone web page showing the map with Leaflet,
// using the same tiles, view and polygon styles as the terminal canvas.
type HTMLSurface struct {
	Title string

	mu   sync.Mutex
	live *htmlMap
	gone bool
}

type htmlMap struct {
	Initial   View        `json:"initial"`
	View      View        `json:"view"`
	Tiles     []TileLayer `json:"tiles"`
	Polygons  []Polygon   `json:"polygons"`
	destroyed bool
}

// NewHTMLSurface creates a surface for a page with the given title.
func NewHTMLSurface(title string) *HTMLSurface {
	return &HTMLSurface{Title: title}
}

// Reset drops the live map.
func (h *HTMLSurface) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.live != nil {
		h.live.destroyed = true
		h.live = nil
	}
}

// Mount starts a new page map.
func (h *HTMLSurface) Mount(initial View) (Map, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.gone {
		return nil, ErrDestroyed
	}
	if h.live != nil {
		return nil, ErrAlreadyMounted
	}
	h.live = &htmlMap{Initial: initial, View: initial}
	return &htmlHandle{surface: h, m: h.live}, nil
}

// Destroy drops the live map and refuses further mounts.
func (h *HTMLSurface) Destroy() {
	h.Reset()
	h.mu.Lock()
	h.gone = true
	h.mu.Unlock()
}

type htmlHandle struct {
	surface *HTMLSurface
	m       *htmlMap
}

func (hh *htmlHandle) AddTileLayer(layer TileLayer) error {
	hh.surface.mu.Lock()
	defer hh.surface.mu.Unlock()
	if hh.m.destroyed {
		return ErrDestroyed
	}
	hh.m.Tiles = append(hh.m.Tiles, layer)
	return nil
}

func (hh *htmlHandle) SetView(center geo.LatLng, zoom int) error {
	hh.surface.mu.Lock()
	defer hh.surface.mu.Unlock()
	if hh.m.destroyed {
		return ErrDestroyed
	}
	hh.m.View = View{Center: center, Zoom: zoom}
	return nil
}

func (hh *htmlHandle) AddPolygon(latlngs []geo.LatLng, style PathStyle) error {
	hh.surface.mu.Lock()
	defer hh.surface.mu.Unlock()
	if hh.m.destroyed {
		return ErrDestroyed
	}
	hh.m.Polygons = append(hh.m.Polygons, Polygon{LatLngs: append([]geo.LatLng(nil), latlngs...), Style: style})
	return nil
}

// Document renders the page.
func (h *HTMLSurface) Document() ([]byte, error) {
	h.mu.Lock()
	if h.live == nil {
		h.mu.Unlock()
		return nil, ErrNothingMounted
	}
	data := struct {
		Title   string
		Version string
		Map     htmlMap
	}{
		Title:   h.Title,
		Version: LeafletVersion,
		Map: htmlMap{
			Initial:  h.live.Initial,
			View:     h.live.View,
			Tiles:    append([]TileLayer(nil), h.live.Tiles...),
			Polygons: append([]Polygon{}, h.live.Polygons...),
		},
	}
	h.mu.Unlock()

	if data.Title == "" {
		data.Title = "geochat map"
	}
	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

var pageTemplate = template.Must(template.New("map").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>{{.Title}}</title>
<link rel="stylesheet" href="https://unpkg.com/leaflet@{{.Version}}/dist/leaflet.css">
<script src="https://unpkg.com/leaflet@{{.Version}}/dist/leaflet.js"></script>
<style>
  html, body { height: 100%; margin: 0; }
  #map { height: 100%; }
</style>
</head>
<body>
<div id="map"></div>
<script>
  var state = {{.Map}};
  var map = L.map('map').setView(state.initial.center, state.initial.zoom);
  (state.tiles || []).forEach(function (t) {
    L.tileLayer(t.url, { maxZoom: t.maxZoom, attribution: t.attribution, subdomains: t.subdomains || 'abc' }).addTo(map);
  });
  map.setView(state.view.center, state.view.zoom);
  (state.polygons || []).forEach(function (p) {
    L.polygon(p.latlngs, p.style).addTo(map);
  });
</script>
</body>
</html>
`))
