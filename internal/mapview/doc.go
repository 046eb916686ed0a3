// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package mapview renders mapping-mode feature sets onto map surfaces.
//
// A Surface is a display region that can host one map at a time. The
// Renderer resets the surface, mounts a map at the initial view, adds the
// tile layer, centers on a randomly chosen feature and draws each feature as
// a filled polygon. Bad pairs and bad features are logged and skipped; a
// Render call never fails.
//
// # Surfaces
//
//   - MemorySurface: records maps and polygons; used by tests and exports
//   - CanvasSurface: braille dot graphics for the terminal map pane
//   - HTMLSurface: a standalone Leaflet page
//
// # Usage
//
//	r := mapview.NewRenderer(mapview.Options{Seed: 42, Logger: log})
//	canvas := mapview.NewCanvasSurface(60, 20)
//	report := r.Render(canvas, features)
//	fmt.Println(canvas.View())
package mapview
