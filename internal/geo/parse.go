// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package geo

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/buger/jsonparser"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

var (
	// ErrNotArray is returned when the mapping payload is not a JSON array.
	ErrNotArray = errors.New("feature set is not a JSON array")

	// ErrNoCoordinates marks a feature without a usable "coordinates" array.
	ErrNoCoordinates = errors.New("feature has no coordinates array")
)

// ParseFeatureSet decodes the JSON-encoded feature list carried in a mapping
// response. Each element is normally {"coordinates": [[lon, lat], ...]};
// a bare ring, a GeoJSON Feature and GeoJSON polygon nesting are accepted
// too, keeping the outer ring.
//
// Parsing is tolerant below the top level: a malformed pair becomes an
// invalid Position, a malformed feature carries Err. Only a payload that is
// not an array at all fails. An empty string is an empty set.
func ParseFeatureSet(s string) (FeatureSet, error) {
	data := bytes.TrimSpace([]byte(s))
	if len(data) == 0 {
		return FeatureSet{}, nil
	}

	_, typ, _, err := jsonparser.Get(data)
	if err != nil {
		return nil, fmt.Errorf("parse feature set: %w", err)
	}
	if typ != jsonparser.Array {
		return nil, fmt.Errorf("parse feature set: %w (got %s)", ErrNotArray, typ)
	}

	fs := FeatureSet{}
	_, err = jsonparser.ArrayEach(data, func(value []byte, dataType jsonparser.ValueType, _ int, _ error) {
		fs = append(fs, parseFeature(value, dataType))
	})
	if err != nil {
		return nil, fmt.Errorf("parse feature set: %w", err)
	}
	return fs, nil
}

func parseFeature(value []byte, typ jsonparser.ValueType) Feature {
	switch typ {
	case jsonparser.Array:
		return parseCoordinates(value)
	case jsonparser.Object:
		coords, ctyp, _, err := jsonparser.Get(value, "coordinates")
		if errors.Is(err, jsonparser.KeyPathNotFoundError) {
			coords, ctyp, _, err = jsonparser.Get(value, "geometry", "coordinates")
		}
		if err != nil || ctyp != jsonparser.Array {
			return Feature{Err: ErrNoCoordinates}
		}
		return parseCoordinates(coords)
	default:
		return Feature{Err: fmt.Errorf("feature is a %s, want object: %w", typ, ErrNoCoordinates)}
	}
}

// parseCoordinates reads a ring, descending into polygon nesting
// ([[[lon,lat],...],...]) by always taking the first (outer) ring.
func parseCoordinates(data []byte) Feature {
	for isRingList(data) {
		first, _, _, _ := jsonparser.Get(data, "[0]")
		data = first
	}

	f := Feature{Coordinates: []Position{}}
	_, err := jsonparser.ArrayEach(data, func(value []byte, dataType jsonparser.ValueType, _ int, _ error) {
		f.Coordinates = append(f.Coordinates, parsePair(value, dataType))
	})
	if err != nil {
		return Feature{Err: fmt.Errorf("read coordinates: %w", err)}
	}
	return f
}

// isRingList reports whether every element of data is an array of arrays.
// A ring with one nested malformed pair is not a ring list.
func isRingList(data []byte) bool {
	n := 0
	nested := true
	_, err := jsonparser.ArrayEach(data, func(value []byte, typ jsonparser.ValueType, _ int, _ error) {
		n++
		if !nested {
			return
		}
		if typ != jsonparser.Array {
			nested = false
			return
		}
		if _, ityp, _, err := jsonparser.Get(value, "[0]"); err != nil || ityp != jsonparser.Array {
			nested = false
		}
	})
	return err == nil && n > 0 && nested
}

func parsePair(value []byte, typ jsonparser.ValueType) Position {
	raw := rawText(value, typ)
	if typ != jsonparser.Array {
		return Position{Raw: raw}
	}

	var nums []float64
	ok := true
	_, err := jsonparser.ArrayEach(value, func(v []byte, t jsonparser.ValueType, _ int, _ error) {
		if t != jsonparser.Number {
			ok = false
			return
		}
		n, err := jsonparser.ParseFloat(v)
		if err != nil {
			ok = false
			return
		}
		nums = append(nums, n)
	})
	if err != nil || !ok || len(nums) != 2 {
		return Position{Raw: raw}
	}
	return Position{Lon: nums[0], Lat: nums[1], Valid: true, Raw: raw}
}

func rawText(value []byte, typ jsonparser.ValueType) string {
	if typ == jsonparser.String {
		return `"` + string(value) + `"`
	}
	return string(value)
}

// =============================================================================
// GEOJSON
// =============================================================================

// DecodeFile reads either a raw feature list or a GeoJSON FeatureCollection.
// It backs "geochat map", which accepts saved mapping payloads and exports.
func DecodeFile(data []byte) (FeatureSet, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		fc, err := geojson.UnmarshalFeatureCollection(trimmed)
		if err != nil {
			return nil, fmt.Errorf("decode geojson: %w", err)
		}
		return FromGeoJSON(fc), nil
	}
	return ParseFeatureSet(string(trimmed))
}

// FromGeoJSON keeps the outer ring of every polygon in the collection.
// Other geometry types are ignored.
func FromGeoJSON(fc *geojson.FeatureCollection) FeatureSet {
	fs := FeatureSet{}
	add := func(ring orb.Ring) {
		f := Feature{Coordinates: make([]Position, 0, len(ring))}
		for _, p := range ring {
			f.Coordinates = append(f.Coordinates, Pos(p.Lon(), p.Lat()))
		}
		fs = append(fs, f)
	}
	for _, feat := range fc.Features {
		switch g := feat.Geometry.(type) {
		case orb.Polygon:
			if len(g) > 0 {
				add(g[0])
			}
		case orb.MultiPolygon:
			for _, p := range g {
				if len(p) > 0 {
					add(p[0])
				}
			}
		case orb.Ring:
			add(g)
		}
	}
	return fs
}

// GeoJSON converts the drawable features to a FeatureCollection of closed
// polygons. Features without valid coordinates are left out; the
// "index" property keeps the position in the original set.
func (fs FeatureSet) GeoJSON() *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for i, f := range fs {
		ring := f.Ring()
		if len(ring) == 0 {
			continue
		}
		if !ring.Closed() {
			ring = append(ring, ring[0])
		}
		gf := geojson.NewFeature(orb.Polygon{ring})
		gf.Properties["index"] = i
		if n := len(f.Invalid()); n > 0 {
			gf.Properties["dropped_pairs"] = n
		}
		fc.Append(gf)
	}
	return fc
}

// Summary describes the set for status lines, e.g. "3 polygons, 1 skipped".
func (fs FeatureSet) Summary() string {
	drawn := fs.PolygonCount()
	var parts []string
	parts = append(parts, plural(drawn, "polygon"))
	if skipped := len(fs) - drawn; skipped > 0 {
		parts = append(parts, fmt.Sprintf("%d skipped", skipped))
	}
	return strings.Join(parts, ", ")
}

func plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}
