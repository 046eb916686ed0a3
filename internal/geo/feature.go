// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package geo

import (
	"fmt"

	"github.com/paulmach/orb"
)

// =============================================================================
// COORDINATES
// =============================================================================

// LatLng is a map position in latitude-first order, the order map views use.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// String formats the position as "[lat, lng]".
func (l LatLng) String() string {
	return fmt.Sprintf("[%g, %g]", l.Lat, l.Lng)
}

// Point converts to an orb point (longitude first).
func (l LatLng) Point() orb.Point {
	return orb.Point{l.Lng, l.Lat}
}

// Position is one [longitude, latitude] pair as received from the backend.
// Pairs that were not a 2-element numeric array are kept with Valid false
// and their raw JSON text, so callers can report what was dropped.
type Position struct {
	Lon   float64
	Lat   float64
	Valid bool
	Raw   string
}

// Pos builds a valid position from longitude and latitude.
func Pos(lon, lat float64) Position {
	return Position{Lon: lon, Lat: lat, Valid: true}
}

// LatLng swaps the pair into latitude-first order.
func (p Position) LatLng() LatLng {
	return LatLng{Lat: p.Lat, Lng: p.Lon}
}

// =============================================================================
// FEATURES
// =============================================================================

// Feature is one polygon ring. Err is set when the feature itself could not
// be read (for example "coordinates" was not an array); such a feature has
// no coordinates.
type Feature struct {
	Coordinates []Position
	Err         error
}

// NewFeature builds a feature from [lon, lat] pairs.
func NewFeature(pairs ...[2]float64) Feature {
	f := Feature{Coordinates: make([]Position, 0, len(pairs))}
	for _, p := range pairs {
		f.Coordinates = append(f.Coordinates, Pos(p[0], p[1]))
	}
	return f
}

// First returns the first coordinate and whether the feature has one.
func (f Feature) First() (Position, bool) {
	if len(f.Coordinates) == 0 {
		return Position{}, false
	}
	return f.Coordinates[0], true
}

// Valid returns the well-formed coordinates in order.
func (f Feature) Valid() []Position {
	out := make([]Position, 0, len(f.Coordinates))
	for _, p := range f.Coordinates {
		if p.Valid {
			out = append(out, p)
		}
	}
	return out
}

// Invalid returns the malformed coordinates in order.
func (f Feature) Invalid() []Position {
	var out []Position
	for _, p := range f.Coordinates {
		if !p.Valid {
			out = append(out, p)
		}
	}
	return out
}

// Ring returns the valid coordinates as an orb ring (longitude first).
// The ring is not closed; orb treats rings as implicitly closed.
func (f Feature) Ring() orb.Ring {
	valid := f.Valid()
	ring := make(orb.Ring, 0, len(valid))
	for _, p := range valid {
		ring = append(ring, orb.Point{p.Lon, p.Lat})
	}
	return ring
}

// FeatureSet is the ordered list of features from one mapping response.
type FeatureSet []Feature

// Bound returns the bounding box of every valid coordinate in the set.
// ok is false when the set has no valid coordinate at all.
func (fs FeatureSet) Bound() (b orb.Bound, ok bool) {
	for _, f := range fs {
		for _, p := range f.Coordinates {
			if !p.Valid {
				continue
			}
			pt := orb.Point{p.Lon, p.Lat}
			if !ok {
				b = pt.Bound()
				ok = true
				continue
			}
			b = b.Extend(pt)
		}
	}
	return b, ok
}

// PolygonCount returns how many features have at least one valid coordinate.
func (fs FeatureSet) PolygonCount() int {
	n := 0
	for _, f := range fs {
		if len(f.Valid()) > 0 {
			n++
		}
	}
	return n
}
