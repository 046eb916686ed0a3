// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package mapview

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/geochat-tui/internal/geo"
)

func TestCanvasDrawsPolygonAroundCenter(t *testing.T) {
	r, _ := testRenderer(t, 1)
	canvas := NewCanvasSurface(20, 8)

	assert.Equal(t, "", canvas.Plain(), "nothing mounted yet")

	r.Render(canvas, geo.FeatureSet{square(-0.1, 51.5, 0.01)})
	require.True(t, canvas.Mounted())

	plain := canvas.Plain()
	lines := strings.Split(plain, "\n")
	require.Len(t, lines, 8)
	for _, l := range lines {
		assert.Equal(t, 20, len([]rune(l)))
	}
	assert.NotEqual(t, strings.Repeat(" ", 20), lines[3], "polygon should cover the row above the center")
	assert.Contains(t, canvas.Caption(), "1 shapes")
	assert.Contains(t, canvas.Caption(), OSMAttribution)
	assert.Contains(t, canvas.TileURL(), "tile.openstreetmap.org/13/")
}

func TestCanvasZoomsOutToFitShapes(t *testing.T) {
	r, _ := testRenderer(t, 1)
	canvas := NewCanvasSurface(30, 10)
	// A country-sized square cannot fit at zoom 13 in 60x40 dots.
	r.Render(canvas, geo.FeatureSet{square(-3, 50, 4)})

	caption := canvas.Caption()
	assert.NotContains(t, caption, "z13")
	assert.NotEqual(t, strings.TrimSpace(canvas.Plain()), "")
}

func TestCanvasResetClears(t *testing.T) {
	r, _ := testRenderer(t, 1)
	canvas := NewCanvasSurface(10, 4)
	r.Render(canvas, geo.FeatureSet{square(-0.1, 51.5, 0.01)})
	canvas.Reset()
	assert.False(t, canvas.Mounted())
	assert.Equal(t, "", canvas.View())
	assert.Equal(t, "no map", canvas.Caption())
}

func TestFillPolygonEvenOdd(t *testing.T) {
	var got [][2]int
	pts := [][2]float64{{0, 0}, {4, 0}, {4, 2}, {0, 2}}
	fillPolygon(pts, 10, 10, func(x, y int) { got = append(got, [2]int{x, y}) })
	// Dot centers at x+0.5 in (0,4) and y+0.5 in (0,2): 4 columns, 2 rows.
	assert.Len(t, got, 8)
}

func TestHTMLSurfaceDocument(t *testing.T) {
	r, _ := testRenderer(t, 1)
	page := NewHTMLSurface("Parks")

	_, err := page.Document()
	assert.ErrorIs(t, err, ErrNothingMounted)

	r.Render(page, geo.FeatureSet{square(-0.1, 51.5, 0.01)})
	doc, err := page.Document()
	require.NoError(t, err)

	html := string(doc)
	assert.Contains(t, html, "<title>Parks</title>")
	assert.Contains(t, html, "leaflet@"+LeafletVersion)
	assert.Contains(t, html, "L.polygon")
	assert.Contains(t, html, `"fillOpacity":0.4`)
	assert.Contains(t, html, "tile.openstreetmap.org")
}

func TestHTMLSurfaceDestroyRefusesMount(t *testing.T) {
	page := NewHTMLSurface("Parks")
	m, err := page.Mount(DefaultView)
	require.NoError(t, err)

	page.Destroy()
	assert.ErrorIs(t, m.AddTileLayer(OSM()), ErrDestroyed)

	_, err = page.Mount(DefaultView)
	assert.ErrorIs(t, err, ErrDestroyed)

	r, _ := testRenderer(t, 1)
	rep := r.Render(page, geo.FeatureSet{square(0, 0, 1)})
	assert.ErrorIs(t, rep.MountErr, ErrDestroyed)
}

func TestReplayCopiesRecordedMap(t *testing.T) {
	r, _ := testRenderer(t, 1)
	mem := NewMemorySurface()
	r.Render(mem, geo.FeatureSet{square(0, 0, 1), square(1, 1, 1)})

	dst := NewMemorySurface()
	require.NoError(t, mem.Current().Replay(dst))
	assert.Equal(t, mem.Current().View, dst.Current().View)
	assert.Len(t, dst.Current().Polygons, 2)
}
