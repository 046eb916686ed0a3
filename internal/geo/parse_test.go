// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package geo

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFeatureSet(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  FeatureSet
	}{
		{
			name:  "empty string",
			input: "",
			want:  FeatureSet{},
		},
		{
			name:  "empty array",
			input: "[]",
			want:  FeatureSet{},
		},
		{
			name:  "single ring",
			input: `[{"coordinates": [[-0.1, 51.5], [-0.2, 51.6], [-0.3, 51.5]]}]`,
			want: FeatureSet{
				{Coordinates: []Position{Pos(-0.1, 51.5), Pos(-0.2, 51.6), Pos(-0.3, 51.5)}},
			},
		},
		{
			name:  "malformed pair kept as invalid",
			input: `[{"coordinates": [[1], [10, 20]]}]`,
			want: FeatureSet{
				{Coordinates: []Position{{Raw: "[1]"}, Pos(10, 20)}},
			},
		},
		{
			name:  "non numeric members",
			input: `[{"coordinates": [["a", 1], [1, 2, 3], null, "x", [3, 4]]}]`,
			want: FeatureSet{
				{Coordinates: []Position{
					{Raw: `["a", 1]`},
					{Raw: "[1, 2, 3]"},
					{Raw: "null"},
					{Raw: `"x"`},
					Pos(3, 4),
				}},
			},
		},
		{
			name:  "polygon nesting uses outer ring",
			input: `[{"coordinates": [[[0, 0], [0, 1], [1, 1]], [[0.2, 0.2], [0.3, 0.3]]]}]`,
			want: FeatureSet{
				{Coordinates: []Position{Pos(0, 0), Pos(0, 1), Pos(1, 1)}},
			},
		},
		{
			name:  "nested malformed first pair keeps the rest of the ring",
			input: `[{"coordinates": [[[1,2]],[10,20],[30,40]]}]`,
			want: FeatureSet{
				{Coordinates: []Position{{Raw: "[[1,2]]"}, Pos(10, 20), Pos(30, 40)}},
			},
		},
		{
			name:  "polygon with malformed hole is still nesting",
			input: `[{"coordinates": [[[0, 0], [0, 1], [1, 1]], [[0.2, 0.2], "x"]]}]`,
			want: FeatureSet{
				{Coordinates: []Position{Pos(0, 0), Pos(0, 1), Pos(1, 1)}},
			},
		},
		{
			name:  "bare ring",
			input: `[[[5, 6], [7, 8]]]`,
			want: FeatureSet{
				{Coordinates: []Position{Pos(5, 6), Pos(7, 8)}},
			},
		},
		{
			name:  "geojson feature",
			input: `[{"type": "Feature", "geometry": {"type": "Polygon", "coordinates": [[[1, 2], [3, 4]]]}}]`,
			want: FeatureSet{
				{Coordinates: []Position{Pos(1, 2), Pos(3, 4)}},
			},
		},
		{
			name:  "feature without coordinates",
			input: `[{"name": "nothing"}, {"coordinates": "oops"}, 7]`,
			want: FeatureSet{
				{Err: ErrNoCoordinates},
				{Err: ErrNoCoordinates},
				{Err: ErrNoCoordinates},
			},
		},
	}

	ignoreRaw := cmpopts.IgnoreFields(Position{}, "Raw")
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseFeatureSet(tt.input)
			require.NoError(t, err)
			require.Len(t, got, len(tt.want))
			for i := range tt.want {
				if tt.want[i].Err != nil {
					assert.ErrorIs(t, got[i].Err, ErrNoCoordinates, "feature %d", i)
					assert.Empty(t, got[i].Coordinates, "feature %d", i)
					continue
				}
				assert.NoError(t, got[i].Err, "feature %d", i)
				opts := cmp.Options{cmpopts.EquateEmpty()}
				for j, p := range tt.want[i].Coordinates {
					if !p.Valid {
						assert.Equal(t, p.Raw, got[i].Coordinates[j].Raw, "feature %d pair %d raw", i, j)
					}
				}
				if diff := cmp.Diff(tt.want[i].Coordinates, got[i].Coordinates, append(opts, ignoreRaw)...); diff != "" {
					t.Errorf("feature %d coordinates mismatch (-want +got):\n%s", i, diff)
				}
			}
		})
	}
}

func TestParseFeatureSetRejectsNonArray(t *testing.T) {
	for _, input := range []string{`{"coordinates": []}`, `"[]"`, `42`} {
		_, err := ParseFeatureSet(input)
		if !errors.Is(err, ErrNotArray) {
			t.Errorf("ParseFeatureSet(%s) error = %v, want ErrNotArray", input, err)
		}
	}
	if _, err := ParseFeatureSet(`[{"coordinates": [[1, 2]`); err == nil {
		t.Error("truncated payload should fail")
	}
}

func TestFeatureRingAndBound(t *testing.T) {
	fs, err := ParseFeatureSet(`[{"coordinates": [[1], [10, 20], [12, 22]]}, {"coordinates": []}]`)
	require.NoError(t, err)

	assert.Equal(t, orb.Ring{{10, 20}, {12, 22}}, fs[0].Ring())
	assert.Len(t, fs[0].Invalid(), 1)
	assert.Equal(t, 1, fs.PolygonCount())
	assert.Equal(t, "1 polygon, 1 skipped", fs.Summary())

	b, ok := fs.Bound()
	require.True(t, ok)
	assert.Equal(t, orb.Point{10, 20}, b.Min)
	assert.Equal(t, orb.Point{12, 22}, b.Max)

	_, ok = FeatureSet{{Coordinates: []Position{{Raw: "[1]"}}}}.Bound()
	assert.False(t, ok)
}

func TestGeoJSONRoundTrip(t *testing.T) {
	fs := FeatureSet{
		NewFeature([2]float64{0, 0}, [2]float64{0, 1}, [2]float64{1, 1}),
		{Coordinates: []Position{{Raw: "[]"}}},
		NewFeature([2]float64{5, 5}, [2]float64{6, 6}, [2]float64{5, 6}),
	}

	fc := fs.GeoJSON()
	require.Len(t, fc.Features, 2)
	poly, ok := fc.Features[0].Geometry.(orb.Polygon)
	require.True(t, ok)
	assert.True(t, poly[0].Closed(), "exported rings are closed")
	assert.Equal(t, 2, fc.Features[1].Properties["index"])

	data, err := fc.MarshalJSON()
	require.NoError(t, err)

	back, err := DecodeFile(data)
	require.NoError(t, err)
	require.Len(t, back, 2)
	first, ok := back[1].First()
	require.True(t, ok)
	assert.Equal(t, Pos(5, 5), first)
}

func TestLatLngSwap(t *testing.T) {
	p := Pos(10, 20)
	assert.Equal(t, LatLng{Lat: 20, Lng: 10}, p.LatLng())
	assert.Equal(t, orb.Point{10, 20}, p.LatLng().Point())
}
