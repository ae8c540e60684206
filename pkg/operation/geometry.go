// Operation geometry sources
//
// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package operation

import "wirecam/pkg/cam"

// Geometry produces the toolpaths and tab regions for an operation. It
// stands in for the polygon engine (offsetting, pocketing, V carving).
type Geometry interface {
	CamPaths(op Operation) ([]cam.CamPath, []cam.Polygon, error)
}

// StaticGeometry serves paths that were computed ahead of time.
type StaticGeometry struct {
	Paths []cam.CamPath
	Tabs  []cam.Polygon
}

// CamPaths returns deep copies, so callers may snap points in place.
func (g StaticGeometry) CamPaths(Operation) ([]cam.CamPath, []cam.Polygon, error) {
	paths := make([]cam.CamPath, len(g.Paths))
	for i, p := range g.Paths {
		paths[i] = cam.CamPath{
			Points:      append([]cam.Point(nil), p.Points...),
			SafeToClose: p.SafeToClose,
		}
	}
	tabs := make([]cam.Polygon, len(g.Tabs))
	for i, t := range g.Tabs {
		tabs[i] = append(cam.Polygon(nil), t...)
	}
	return paths, tabs, nil
}
