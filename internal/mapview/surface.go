// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package mapview

import (
	"errors"

	"github.com/jeranaias/geochat-tui/internal/geo"
)

// =============================================================================
// SURFACE ABSTRACTION
// =============================================================================

var (
	// ErrAlreadyMounted is returned by Mount when a map is still attached.
	ErrAlreadyMounted = errors.New("surface already has a live map")

	// ErrDestroyed is returned by Map methods after the map was torn down.
	ErrDestroyed = errors.New("map has been destroyed")
)

// View is a map position and zoom level.
type View struct {
	Center geo.LatLng `json:"center"`
	Zoom   int        `json:"zoom"`
}

// PathStyle is the stroke and fill used for a polygon.
type PathStyle struct {
	Color       string  `json:"color"`
	Weight      float64 `json:"weight"`
	Opacity     float64 `json:"opacity"`
	FillColor   string  `json:"fillColor"`
	FillOpacity float64 `json:"fillOpacity"`
}

// DefaultPolygonStyle is applied to every drawn feature.
var DefaultPolygonStyle = PathStyle{
	Color:       "#3388ff",
	Weight:      4,
	Opacity:     0.8,
	FillColor:   "#3388ff",
	FillOpacity: 0.4,
}

// Surface is a display region a map can be mounted on. Implementations own
// the map instance they hand out; the renderer only talks to them through
// this interface.
type Surface interface {
	// Reset destroys the attached map, if any, and clears the region.
	Reset()

	// Mount creates a map on the region with an initial view.
	// At most one map is live per surface.
	Mount(initial View) (Map, error)

	// Destroy releases the surface for good.
	Destroy()
}

// Map is a mounted map instance.
type Map interface {
	AddTileLayer(layer TileLayer) error
	SetView(center geo.LatLng, zoom int) error
	AddPolygon(latlngs []geo.LatLng, style PathStyle) error
}

// Polygon is a drawn shape as recorded by a surface.
type Polygon struct {
	LatLngs []geo.LatLng `json:"latlngs"`
	Style   PathStyle    `json:"style"`
}
