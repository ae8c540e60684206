// Toolpath inputs and parameters
//
// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

// Package cam compiles machining paths into wire programs: depth passes,
// ramped or straight plunges, tab avoidance and retracts, with the
// structural markers the wear pass relies on.
package cam

import (
	"math"

	"wirecam/pkg/gcode"
)

// Point is a path vertex. Z is only used when Params.UseZ is set.
type Point struct {
	X, Y, Z float64
}

// CamPath is one path produced by the geometry engine.
type CamPath struct {
	Points []Point
	// SafeToClose means the tool may re-enter the path without retracting.
	SafeToClose bool
}

// Polygon is a closed ring; the closing edge is implicit.
type Polygon []Point

// Params are the per-operation compile inputs, in output units.
type Params struct {
	Ramp        bool
	LengthScale float64 // path units to output units; zero means 1
	UseZ        bool
	OffsetX     float64
	OffsetY     float64
	Decimal     int // precision of emitted values; zero means gcode.DefaultDecimals
	TopZ        float64
	BotZ        float64
	SafeZ       float64
	PassDepth   float64
	PlungeFeed  float64
	CutFeed     float64
	Tabs        []Polygon
	TabZ        float64
	ToolSpeed   float64 // zero omits the S word
}

// Normalized applies defaults and the tab invariant: with no tab regions,
// or with TabZ at or below BotZ, tabs are dropped and TabZ equals BotZ.
func (p Params) Normalized() Params {
	if p.LengthScale == 0 {
		p.LengthScale = 1
	}
	if p.Decimal <= 0 {
		p.Decimal = gcode.DefaultDecimals
	}
	if len(p.Tabs) == 0 || p.TabZ <= p.BotZ {
		p.Tabs = nil
		p.TabZ = p.BotZ
	}
	return p
}

func (p Params) round(v float64) float64 {
	scale := math.Pow10(p.Decimal)
	return math.Round(v*scale) / scale
}

func (p Params) x(pt Point) float64 { return pt.X*p.LengthScale + p.OffsetX }
func (p Params) y(pt Point) float64 { return pt.Y*p.LengthScale + p.OffsetY }

func (p Params) dist(a, b Point) float64 {
	return gcode.DistXY(p.x(a), p.y(a), p.x(b), p.y(b))
}

// SnapPaths rounds every X/Y to the nearest multiple of grid, in place.
func SnapPaths(paths []CamPath, grid float64) {
	if grid <= 0 {
		return
	}
	for _, path := range paths {
		for i := range path.Points {
			path.Points[i].X = math.Round(path.Points[i].X/grid) * grid
			path.Points[i].Y = math.Round(path.Points[i].Y/grid) * grid
		}
	}
}
