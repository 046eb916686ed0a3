// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package mapview

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/project"

	"github.com/jeranaias/geochat-tui/internal/geo"
)

const (
	// mercatorPole is half the Web Mercator world width in meters.
	mercatorPole = 20037508.342789244

	// maxMercatorLat is where the square Web Mercator world ends.
	maxMercatorLat = 85.05112878

	tileSize = 256
)

func clampPoint(ll geo.LatLng) geo.LatLng {
	ll.Lat = math.Max(-maxMercatorLat, math.Min(maxMercatorLat, ll.Lat))
	ll.Lng = math.Max(-180, math.Min(180, ll.Lng))
	return ll
}

// pixelAt projects a position to global pixel coordinates at zoom, with
// (0,0) at the north-west corner of the world, as tile servers count.
func pixelAt(ll geo.LatLng, zoom float64) (x, y float64) {
	m := project.WGS84.ToMercator(clampPoint(ll).Point())
	world := tileSize * math.Exp2(zoom)
	x = (m[0] + mercatorPole) / (2 * mercatorPole) * world
	y = (mercatorPole - m[1]) / (2 * mercatorPole) * world
	return x, y
}

// fitZoom returns the largest zoom not above maxZoom at which bound, drawn
// around center, fits in a w by h pixel window.
func fitZoom(center geo.LatLng, bound orb.Bound, w, h float64, maxZoom int) int {
	for z := maxZoom; z > 0; z-- {
		cx, cy := pixelAt(center, float64(z))
		minX, maxY := pixelAt(geo.LatLng{Lat: bound.Min.Lat(), Lng: bound.Min.Lon()}, float64(z))
		maxX, minY := pixelAt(geo.LatLng{Lat: bound.Max.Lat(), Lng: bound.Max.Lon()}, float64(z))
		if math.Abs(minX-cx) <= w/2 && math.Abs(maxX-cx) <= w/2 &&
			math.Abs(minY-cy) <= h/2 && math.Abs(maxY-cy) <= h/2 {
			return z
		}
	}
	return 0
}
