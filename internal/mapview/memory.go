// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package mapview

import (
	"sync"

	"github.com/jeranaias/geochat-tui/internal/geo"
)

// =============================================================================
// MEMORY SURFACE
// =============================================================================

// MemorySurface records everything drawn on it. The TUI keeps one to export
// the current map; tests use it to inspect renders.
type MemorySurface struct {
	mu      sync.Mutex
	maps    []*MemoryMap
	live    *MemoryMap
	cleared int
	gone    bool
}

// NewMemorySurface returns an empty surface.
func NewMemorySurface() *MemorySurface {
	return &MemorySurface{}
}

// Reset destroys the live map and clears the surface.
func (s *MemorySurface) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.live != nil {
		s.live.destroy()
		s.live = nil
	}
	s.cleared++
}

// Mount attaches a new map. It fails while another map is live.
func (s *MemorySurface) Mount(initial View) (Map, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gone {
		return nil, ErrDestroyed
	}
	if s.live != nil {
		return nil, ErrAlreadyMounted
	}
	m := &MemoryMap{Initial: initial, View: initial}
	s.maps = append(s.maps, m)
	s.live = m
	return m, nil
}

// Destroy tears down the live map and refuses further mounts.
func (s *MemorySurface) Destroy() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.live != nil {
		s.live.destroy()
		s.live = nil
	}
	s.gone = true
}

// Current returns a snapshot of the live map, or nil.
func (s *MemorySurface) Current() *MemoryMap {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.live == nil {
		return nil
	}
	return s.live.snapshot()
}

// LiveMaps counts mounted maps that have not been destroyed.
func (s *MemorySurface) LiveMaps() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, m := range s.maps {
		m.mu.Lock()
		if !m.destroyed {
			n++
		}
		m.mu.Unlock()
	}
	return n
}

// Mounts returns how many maps were ever mounted.
func (s *MemorySurface) Mounts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.maps)
}

// MemoryMap is the map instance handed out by MemorySurface.
type MemoryMap struct {
	mu sync.Mutex

	Initial  View
	View     View
	Tiles    []TileLayer
	Polygons []Polygon

	destroyed bool
}

// AddTileLayer records the layer.
func (m *MemoryMap) AddTileLayer(layer TileLayer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.destroyed {
		return ErrDestroyed
	}
	m.Tiles = append(m.Tiles, layer)
	return nil
}

// SetView records the view.
func (m *MemoryMap) SetView(center geo.LatLng, zoom int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.destroyed {
		return ErrDestroyed
	}
	m.View = View{Center: center, Zoom: zoom}
	return nil
}

// AddPolygon records the polygon.
func (m *MemoryMap) AddPolygon(latlngs []geo.LatLng, style PathStyle) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.destroyed {
		return ErrDestroyed
	}
	m.Polygons = append(m.Polygons, Polygon{
		LatLngs: append([]geo.LatLng(nil), latlngs...),
		Style:   style,
	})
	return nil
}

// Destroyed reports whether the map was torn down.
func (m *MemoryMap) Destroyed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.destroyed
}

func (m *MemoryMap) destroy() {
	m.mu.Lock()
	m.destroyed = true
	m.mu.Unlock()
}

func (m *MemoryMap) snapshot() *MemoryMap {
	m.mu.Lock()
	defer m.mu.Unlock()
	return &MemoryMap{
		Initial:   m.Initial,
		View:      m.View,
		Tiles:     append([]TileLayer(nil), m.Tiles...),
		Polygons:  append([]Polygon(nil), m.Polygons...),
		destroyed: m.destroyed,
	}
}

// Replay draws the recorded map onto another surface. Exports use it to
// turn the on-screen map into an HTML document.
func (m *MemoryMap) Replay(dst Surface) error {
	snap := m.snapshot()
	dst.Reset()
	out, err := dst.Mount(snap.Initial)
	if err != nil {
		return err
	}
	for _, t := range snap.Tiles {
		if err := out.AddTileLayer(t); err != nil {
			return err
		}
	}
	if err := out.SetView(snap.View.Center, snap.View.Zoom); err != nil {
		return err
	}
	for _, p := range snap.Polygons {
		if err := out.AddPolygon(p.LatLngs, p.Style); err != nil {
			return err
		}
	}
	return nil
}
