// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package mapview

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/paulmach/orb"

	"github.com/jeranaias/geochat-tui/internal/geo"
)

// =============================================================================
// TERMINAL CANVAS SURFACE
// =============================================================================

// CanvasSurface draws maps as braille dot graphics in a terminal region.
// Each cell holds a 2x4 dot grid and one dot is one Web Mercator pixel.
//
// The canvas has no tile imagery; the tile layer only feeds the caption.
// When the drawn polygons would not fit around the view center at the view
// zoom, the canvas zooms out for display. The map's recorded view is not
// changed by this.
type CanvasSurface struct {
	mu     sync.Mutex
	width  int
	height int
	live   *canvasMap
	gone   bool
}

type canvasMap struct {
	view      View
	tiles     *TileLayer
	polys     []Polygon
	destroyed bool
}

type dotKind uint8

const (
	dotNone dotKind = iota
	dotFill
	dotLine
)

type cell struct {
	bits  uint8
	kind  dotKind
	style PathStyle
}

// brailleBits maps a dot position (x 0-1, y 0-3) to its braille bit.
var brailleBits = [2][4]uint8{
	{0x01, 0x02, 0x04, 0x40},
	{0x08, 0x10, 0x20, 0x80},
}

// NewCanvasSurface creates a canvas of width by height terminal cells.
func NewCanvasSurface(width, height int) *CanvasSurface {
	return &CanvasSurface{width: max(width, 1), height: max(height, 1)}
}

// Resize changes the canvas size. The live map is kept.
func (c *CanvasSurface) Resize(width, height int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.width, c.height = max(width, 1), max(height, 1)
}

// Size returns the canvas size in cells.
func (c *CanvasSurface) Size() (width, height int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.width, c.height
}

// Reset destroys the live map and clears the canvas.
func (c *CanvasSurface) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.live != nil {
		c.live.destroyed = true
		c.live = nil
	}
}

// Mount attaches a new map.
func (c *CanvasSurface) Mount(initial View) (Map, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gone {
		return nil, ErrDestroyed
	}
	if c.live != nil {
		return nil, ErrAlreadyMounted
	}
	m := &canvasMap{view: initial}
	c.live = m
	return &canvasHandle{surface: c, m: m}, nil
}

// Destroy releases the canvas.
func (c *CanvasSurface) Destroy() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.live != nil {
		c.live.destroyed = true
		c.live = nil
	}
	c.gone = true
}

// Mounted reports whether a map is live.
func (c *CanvasSurface) Mounted() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.live != nil
}

// canvasHandle serializes map calls through the surface lock.
type canvasHandle struct {
	surface *CanvasSurface
	m       *canvasMap
}

func (h *canvasHandle) AddTileLayer(layer TileLayer) error {
	h.surface.mu.Lock()
	defer h.surface.mu.Unlock()
	if h.m.destroyed {
		return ErrDestroyed
	}
	h.m.tiles = &layer
	return nil
}

func (h *canvasHandle) SetView(center geo.LatLng, zoom int) error {
	h.surface.mu.Lock()
	defer h.surface.mu.Unlock()
	if h.m.destroyed {
		return ErrDestroyed
	}
	h.m.view = View{Center: center, Zoom: zoom}
	return nil
}

func (h *canvasHandle) AddPolygon(latlngs []geo.LatLng, style PathStyle) error {
	h.surface.mu.Lock()
	defer h.surface.mu.Unlock()
	if h.m.destroyed {
		return ErrDestroyed
	}
	h.m.polys = append(h.m.polys, Polygon{LatLngs: append([]geo.LatLng(nil), latlngs...), Style: style})
	return nil
}

// =============================================================================
// RASTERIZATION
// =============================================================================

// raster is one rasterized frame.
type raster struct {
	cells [][]cell
	zoom  int
}

func (c *CanvasSurface) rasterize() (raster, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.live == nil {
		return raster{}, false
	}
	m := c.live
	dotsW, dotsH := c.width*2, c.height*4

	cells := make([][]cell, c.height)
	for y := range cells {
		cells[y] = make([]cell, c.width)
	}

	zoom := m.view.Zoom
	if b, ok := polygonBound(m.polys); ok {
		zoom = fitZoom(m.view.Center, b, float64(dotsW), float64(dotsH), m.view.Zoom)
	}
	cx, cy := pixelAt(m.view.Center, float64(zoom))
	ox, oy := cx-float64(dotsW)/2, cy-float64(dotsH)/2

	set := func(x, y int, kind dotKind, style PathStyle) {
		if x < 0 || y < 0 || x >= dotsW || y >= dotsH {
			return
		}
		ce := &cells[y/4][x/2]
		ce.bits |= brailleBits[x%2][y%4]
		if kind >= ce.kind {
			ce.kind = kind
			ce.style = style
		}
	}

	for _, p := range m.polys {
		pts := make([][2]float64, len(p.LatLngs))
		for i, ll := range p.LatLngs {
			x, y := pixelAt(ll, float64(zoom))
			pts[i] = [2]float64{x - ox, y - oy}
		}
		if p.Style.FillOpacity > 0 && len(pts) >= 3 {
			fillPolygon(pts, dotsW, dotsH, func(x, y int) {
				if p.Style.FillOpacity >= 0.75 || (x+y)%2 == 0 {
					set(x, y, dotFill, p.Style)
				}
			})
		}
		if len(pts) == 1 {
			set(int(pts[0][0]), int(pts[0][1]), dotLine, p.Style)
			continue
		}
		for i := range pts {
			a, b := pts[i], pts[(i+1)%len(pts)]
			line(a, b, func(x, y int) { set(x, y, dotLine, p.Style) })
		}
	}

	return raster{cells: cells, zoom: zoom}, true
}

func polygonBound(polys []Polygon) (orb.Bound, bool) {
	var b orb.Bound
	ok := false
	for _, p := range polys {
		for _, ll := range p.LatLngs {
			pt := clampPoint(ll).Point()
			if !ok {
				b, ok = pt.Bound(), true
				continue
			}
			b = b.Extend(pt)
		}
	}
	return b, ok
}

// fillPolygon calls plot for every dot of a width by height grid whose center
// lies inside the polygon under the even-odd rule.
func fillPolygon(pts [][2]float64, width, height int, plot func(x, y int)) {
	xs := make([]float64, 0, 8)
	for y := 0; y < height; y++ {
		sy := float64(y) + 0.5
		xs = xs[:0]
		for i := range pts {
			a, b := pts[i], pts[(i+1)%len(pts)]
			if (a[1] <= sy) == (b[1] <= sy) {
				continue
			}
			xs = append(xs, a[0]+(sy-a[1])*(b[0]-a[0])/(b[1]-a[1]))
		}
		sort.Float64s(xs)
		for i := 0; i+1 < len(xs); i += 2 {
			from := int(math.Max(0, math.Ceil(xs[i]-0.5)))
			to := int(math.Min(float64(width-1), math.Floor(xs[i+1]-0.5)))
			for x := from; x <= to; x++ {
				plot(x, y)
			}
		}
	}
}

// line plots a segment with Bresenham's algorithm. Segments far outside the
// canvas are clipped to a generous box first so huge zoom offsets stay cheap.
func line(a, b [2]float64, plot func(x, y int)) {
	const limit = 1 << 16
	if math.Abs(a[0]) > limit || math.Abs(a[1]) > limit || math.Abs(b[0]) > limit || math.Abs(b[1]) > limit {
		return
	}
	x0, y0 := int(math.Floor(a[0])), int(math.Floor(a[1]))
	x1, y1 := int(math.Floor(b[0])), int(math.Floor(b[1]))
	dx, dy := abs(x1-x0), -abs(y1-y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	e := dx + dy
	for {
		plot(x0, y0)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x0 += sx
		}
		if e2 <= dx {
			e += dx
			y0 += sy
		}
	}
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// =============================================================================
// OUTPUT
// =============================================================================

// Plain returns the canvas as unstyled braille text, one line per row.
// Empty cells are spaces. Returns "" when no map is mounted.
func (c *CanvasSurface) Plain() string {
	r, ok := c.rasterize()
	if !ok {
		return ""
	}
	lines := make([]string, len(r.cells))
	for y, row := range r.cells {
		var b strings.Builder
		for _, ce := range row {
			b.WriteRune(ce.glyph())
		}
		lines[y] = b.String()
	}
	return strings.Join(lines, "\n")
}

// View returns the canvas colored with each polygon's style. Outline cells
// use the stroke color, fill-only cells the faint fill color.
func (c *CanvasSurface) View() string {
	r, ok := c.rasterize()
	if !ok {
		return ""
	}
	lines := make([]string, len(r.cells))
	for y, row := range r.cells {
		var b strings.Builder
		var run strings.Builder
		runKey := ""
		var runStyle lipgloss.Style
		flush := func() {
			if run.Len() == 0 {
				return
			}
			if runKey == "" {
				b.WriteString(run.String())
			} else {
				b.WriteString(runStyle.Render(run.String()))
			}
			run.Reset()
		}
		for _, ce := range row {
			key, style := ce.styleKey()
			if key != runKey {
				flush()
				runKey, runStyle = key, style
			}
			run.WriteRune(ce.glyph())
		}
		flush()
		lines[y] = b.String()
	}
	return strings.Join(lines, "\n")
}

// Caption describes the current view: center, display zoom, center tile and
// tile attribution.
func (c *CanvasSurface) Caption() string {
	r, ok := c.rasterize()
	if !ok {
		return "no map"
	}
	c.mu.Lock()
	m := c.live
	var view View
	var tiles *TileLayer
	var polys int
	if m != nil {
		view, tiles, polys = m.view, m.tiles, len(m.polys)
	}
	c.mu.Unlock()

	parts := []string{
		view.Center.String(),
		fmt.Sprintf("z%d", r.zoom),
		fmt.Sprintf("%d shapes", polys),
	}
	if tiles != nil {
		t := tiles.TileAt(view.Center, r.zoom)
		parts = append(parts, fmt.Sprintf("tile %d/%d/%d", t.Z, t.X, t.Y))
		if tiles.Attribution != "" {
			parts = append(parts, tiles.Attribution)
		}
	}
	return strings.Join(parts, " · ")
}

// TileURL returns the URL of the tile under the view center, or "".
func (c *CanvasSurface) TileURL() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.live == nil || c.live.tiles == nil {
		return ""
	}
	t := c.live.tiles.TileAt(c.live.view.Center, c.live.view.Zoom)
	return c.live.tiles.URL(t)
}

func (ce cell) glyph() rune {
	if ce.bits == 0 {
		return ' '
	}
	return rune(0x2800 + int(ce.bits))
}

func (ce cell) styleKey() (string, lipgloss.Style) {
	switch ce.kind {
	case dotLine:
		return "l" + ce.style.Color, lipgloss.NewStyle().Foreground(lipgloss.Color(ce.style.Color)).Bold(true)
	case dotFill:
		return "f" + ce.style.FillColor, lipgloss.NewStyle().Foreground(lipgloss.Color(ce.style.FillColor)).Faint(true)
	default:
		return "", lipgloss.Style{}
	}
}
