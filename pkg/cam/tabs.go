// Tab splitting
//
// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package cam

import "sort"

// TabSplitter splits a path at tab region boundaries. The result
// alternates outside/inside sub-paths starting with an outside one, which
// is empty when the path starts inside a tab. Adjacent sub-paths share
// their boundary point.
type TabSplitter interface {
	SeparateTabs(path []Point, tabs []Polygon) [][]Point
}

// TabSplitterFunc adapts a function to TabSplitter.
type TabSplitterFunc func(path []Point, tabs []Polygon) [][]Point

func (f TabSplitterFunc) SeparateTabs(path []Point, tabs []Polygon) [][]Point {
	return f(path, tabs)
}

// PolygonSplitter splits paths with segment/edge intersection and
// even-odd containment against the union of the tab polygons.
type PolygonSplitter struct{}

const splitEpsilon = 1e-9

func (PolygonSplitter) SeparateTabs(path []Point, tabs []Polygon) [][]Point {
	if len(path) == 0 {
		return nil
	}
	if len(tabs) == 0 {
		return [][]Point{path}
	}

	var out [][]Point
	inside := insideAny(path[0], tabs)
	if inside {
		out = append(out, nil)
	}
	cur := []Point{path[0]}

	for i := 1; i < len(path); i++ {
		a, b := path[i-1], path[i]
		ts := crossings(a, b, tabs)
		for k, t := range ts {
			next := 1.0
			if k+1 < len(ts) {
				next = ts[k+1]
			}
			after := insideAny(lerp(a, b, (t+next)/2), tabs)
			if after != inside {
				p := lerp(a, b, t)
				cur = append(cur, p)
				out = append(out, cur)
				cur = []Point{p}
				inside = after
			}
		}
		cur = append(cur, b)
	}
	return append(out, cur)
}

func lerp(a, b Point, t float64) Point {
	return Point{
		X: a.X + (b.X-a.X)*t,
		Y: a.Y + (b.Y-a.Y)*t,
		Z: a.Z + (b.Z-a.Z)*t,
	}
}

// crossings returns the sorted, de-duplicated parameters in (0, 1) where
// segment a-b crosses a polygon edge.
func crossings(a, b Point, tabs []Polygon) []float64 {
	var ts []float64
	dx, dy := b.X-a.X, b.Y-a.Y
	for _, poly := range tabs {
		for i := range poly {
			c, d := poly[i], poly[(i+1)%len(poly)]
			ex, ey := d.X-c.X, d.Y-c.Y
			denom := dx*ey - dy*ex
			if denom == 0 {
				continue
			}
			t := ((c.X-a.X)*ey - (c.Y-a.Y)*ex) / denom
			u := ((c.X-a.X)*dy - (c.Y-a.Y)*dx) / denom
			if t > splitEpsilon && t < 1-splitEpsilon && u >= -splitEpsilon && u <= 1+splitEpsilon {
				ts = append(ts, t)
			}
		}
	}
	sort.Float64s(ts)
	out := ts[:0]
	for _, t := range ts {
		if len(out) == 0 || t-out[len(out)-1] > splitEpsilon {
			out = append(out, t)
		}
	}
	return out
}

func insideAny(p Point, tabs []Polygon) bool {
	for _, poly := range tabs {
		if pointInPolygon(p, poly) {
			return true
		}
	}
	return false
}

// pointInPolygon is the even-odd ray casting test.
func pointInPolygon(p Point, poly Polygon) bool {
	in := false
	for i, j := 0, len(poly)-1; i < len(poly); j, i = i, i+1 {
		a, b := poly[i], poly[j]
		if (a.Y > p.Y) != (b.Y > p.Y) &&
			p.X < (b.X-a.X)*(p.Y-a.Y)/(b.Y-a.Y)+a.X {
			in = !in
		}
	}
	return in
}
