// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package geo holds the polygon data returned by mapping responses.
//
// The backend sends mapping data as a JSON-encoded string of features, each a
// ring of [longitude, latitude] pairs. ParseFeatureSet reads it tolerantly:
// a bad pair or a bad feature is recorded, not fatal, so the renderer can draw
// whatever is usable and log the rest.
//
// # Key Types
//
//   - FeatureSet: ordered features from one response
//   - Feature: one ring, possibly with malformed pairs
//   - Position: a [lon, lat] pair with validity flag
//   - LatLng: latitude-first position used by map views
//
// # Usage
//
//	fs, err := geo.ParseFeatureSet(resp.MappingData)
//	if err != nil {
//	    return err // payload was not an array
//	}
//	fc := fs.GeoJSON()
package geo
