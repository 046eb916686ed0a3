// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package mapview

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/jeranaias/geochat-tui/internal/geo"
)

// =============================================================================
// RENDERER CONFIGURATION
// =============================================================================

// DefaultView is where a freshly mounted map starts (central London).
var DefaultView = View{Center: geo.LatLng{Lat: 51.505, Lng: -0.09}, Zoom: 13}

// Options configures a Renderer.
type Options struct {
	// Initial is the mount view and the fallback center.
	Initial View

	// FeatureZoom is applied together with the chosen center.
	FeatureZoom int

	Tiles TileLayer
	Style PathStyle

	// Seed feeds center selection. Zero seeds from the clock.
	Seed int64

	Logger *zap.Logger
}

// DefaultOptions returns the standard OSM setup.
func DefaultOptions() Options {
	return Options{
		Initial:     DefaultView,
		FeatureZoom: DefaultView.Zoom,
		Tiles:       OSM(),
		Style:       DefaultPolygonStyle,
	}
}

// Report summarizes one Render call.
type Report struct {
	Center  geo.LatLng
	Zoom    int
	Drawn   []int // indexes of features drawn
	Skipped []int // indexes of features with nothing drawable
	Failed  []int // indexes whose drawing raised an error
	Dropped int   // malformed pairs removed across all features

	// MountErr is set when no map could be created; nothing was drawn.
	MountErr error
}

// =============================================================================
// RENDERER
// =============================================================================

// Renderer draws feature sets onto surfaces. It keeps no map state between
// calls; every Render starts from a reset surface.
type Renderer struct {
	opts Options
	log  *zap.Logger

	mu  sync.Mutex
	rng *rand.Rand
}

// NewRenderer creates a renderer, filling zero-valued options from
// DefaultOptions.
func NewRenderer(opts Options) *Renderer {
	def := DefaultOptions()
	if opts.Initial == (View{}) {
		opts.Initial = def.Initial
	}
	if opts.FeatureZoom == 0 {
		opts.FeatureZoom = opts.Initial.Zoom
	}
	if opts.Tiles.URLTemplate == "" {
		opts.Tiles = def.Tiles
	}
	if opts.Tiles.MaxZoom == 0 {
		opts.Tiles.MaxZoom = OSMMaxZoom
	}
	if opts.Style == (PathStyle{}) {
		opts.Style = def.Style
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Renderer{
		opts: opts,
		log:  opts.Logger.Named("mapview"),
		rng:  rand.New(rand.NewSource(seed)),
	}
}

// NewRendererWithRand uses the given random source for center selection.
func NewRendererWithRand(opts Options, rng *rand.Rand) *Renderer {
	r := NewRenderer(opts)
	if rng != nil {
		r.rng = rng
	}
	return r
}

// Options returns the effective configuration.
func (r *Renderer) Options() Options {
	return r.opts
}

// Render resets surface, mounts a new map with the tile layer, centers it
// on a randomly chosen feature and draws every feature that has at least one
// well-formed pair. Problems are logged and reported, never returned.
func (r *Renderer) Render(surface Surface, features geo.FeatureSet) Report {
	rep := Report{Center: r.opts.Initial.Center, Zoom: r.opts.Initial.Zoom}

	surface.Reset()
	m, err := surface.Mount(r.opts.Initial)
	if err != nil {
		r.log.Error("mount map", zap.Error(err))
		rep.MountErr = err
		return rep
	}

	if err := m.AddTileLayer(r.opts.Tiles); err != nil {
		r.log.Warn("add tile layer", zap.String("url", r.opts.Tiles.URLTemplate), zap.Error(err))
	}

	center := r.chooseCenter(features)
	if err := m.SetView(center, r.opts.FeatureZoom); err != nil {
		r.log.Warn("set view", zap.Stringer("center", center), zap.Error(err))
	} else {
		rep.Center, rep.Zoom = center, r.opts.FeatureZoom
	}

	for i, f := range features {
		r.drawFeature(m, i, f, &rep)
	}

	r.log.Debug("render complete",
		zap.Int("features", len(features)),
		zap.Int("drawn", len(rep.Drawn)),
		zap.Int("skipped", len(rep.Skipped)),
		zap.Int("dropped_pairs", rep.Dropped))
	return rep
}

// chooseCenter picks one feature uniformly at random and returns its first
// pair in latitude-first order. An empty set, an empty feature or a
// malformed first pair yields the initial center.
func (r *Renderer) chooseCenter(features geo.FeatureSet) geo.LatLng {
	if len(features) == 0 {
		return r.opts.Initial.Center
	}
	r.mu.Lock()
	idx := r.rng.Intn(len(features))
	r.mu.Unlock()

	first, ok := features[idx].First()
	if !ok || !first.Valid {
		r.log.Debug("center feature has no usable first pair", zap.Int("feature", idx))
		return r.opts.Initial.Center
	}
	return first.LatLng()
}

func (r *Renderer) drawFeature(m Map, i int, f geo.Feature, rep *Report) {
	defer func() {
		if rec := recover(); rec != nil {
			r.log.Error("draw feature panicked", zap.Int("feature", i), zap.Any("panic", rec))
			rep.Failed = append(rep.Failed, i)
		}
	}()

	if f.Err != nil {
		r.log.Warn("skip unreadable feature", zap.Int("feature", i), zap.Error(f.Err))
		rep.Skipped = append(rep.Skipped, i)
		return
	}

	latlngs := make([]geo.LatLng, 0, len(f.Coordinates))
	for j, p := range f.Coordinates {
		if !p.Valid {
			r.log.Warn("drop malformed pair",
				zap.Int("feature", i), zap.Int("pair", j), zap.String("raw", p.Raw))
			rep.Dropped++
			continue
		}
		latlngs = append(latlngs, p.LatLng())
	}

	if len(latlngs) == 0 {
		r.log.Warn("skip feature without valid coordinates", zap.Int("feature", i))
		rep.Skipped = append(rep.Skipped, i)
		return
	}

	if err := m.AddPolygon(latlngs, r.opts.Style); err != nil {
		r.log.Error("draw feature", zap.Int("feature", i), zap.Error(err))
		rep.Failed = append(rep.Failed, i)
		return
	}
	rep.Drawn = append(rep.Drawn, i)
}

// String summarizes the report for status lines.
func (rep Report) String() string {
	if rep.MountErr != nil {
		return fmt.Sprintf("map unavailable: %v", rep.MountErr)
	}
	s := fmt.Sprintf("%d drawn", len(rep.Drawn))
	if n := len(rep.Skipped); n > 0 {
		s += fmt.Sprintf(", %d skipped", n)
	}
	if n := len(rep.Failed); n > 0 {
		s += fmt.Sprintf(", %d failed", n)
	}
	if rep.Dropped > 0 {
		s += fmt.Sprintf(", %d bad pairs", rep.Dropped)
	}
	return s + " @ " + rep.Center.String()
}
