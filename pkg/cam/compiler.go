// Wire toolpath compiler
//
// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package cam

import (
	"math"

	"wirecam/pkg/errors"
	"wirecam/pkg/gcode"
	"wirecam/pkg/log"
)

var logger = log.GetLogger("cam")

// Compiler turns CamPaths into an annotated program.
type Compiler struct {
	Splitter TabSplitter
}

// NewCompiler returns a compiler using the built-in polygon tab splitter.
func NewCompiler() *Compiler {
	return &Compiler{Splitter: PolygonSplitter{}}
}

// Compile is a convenience for NewCompiler().Compile.
func Compile(paths []CamPath, params Params) (gcode.Program, error) {
	return NewCompiler().Compile(paths, params)
}

// emitter accumulates program lines with values rounded to the output
// precision, so the typed program equals its own decoded text.
type emitter struct {
	p    Params
	prog gcode.Program
}

func (e *emitter) add(l gcode.Line) {
	e.prog = append(e.prog, l)
}

func (e *emitter) move(m gcode.Move) {
	r := e.p.round
	if m.Is(gcode.FieldX) {
		m.X = r(m.X)
	}
	if m.Is(gcode.FieldY) {
		m.Y = r(m.Y)
	}
	if m.Is(gcode.FieldZ) {
		m.Z = r(m.Z)
	}
	if m.Is(gcode.FieldF) {
		m.F = r(m.F)
	}
	e.add(gcode.MoveLine(m))
}

// xy returns a move to pt's output XY, with path Z when useZ is set.
func (e *emitter) xy(m gcode.Move, pt Point, useZ bool) gcode.Move {
	m = m.WithXY(e.p.x(pt), e.p.y(pt))
	if useZ {
		m = m.WithZ(pt.Z*e.p.LengthScale + e.p.TopZ)
	}
	return m
}

func (e *emitter) speed(m gcode.Move) gcode.Move {
	if e.p.ToolSpeed != 0 {
		m = m.WithS(e.p.ToolSpeed)
	}
	return m
}

func (e *emitter) retract(z float64) {
	e.add(gcode.Retract())
	e.move(gcode.G0().WithZ(z))
}

// Compile emits depth passes for every non-empty path. Each pass rapids to
// the path start, descends by ramp or plunge to the pass depth (tab depth
// over tab regions) and cuts along the path; every path ends with a
// retract to SafeZ.
func (c *Compiler) Compile(paths []CamPath, params Params) (gcode.Program, error) {
	p := params.Normalized()
	if !p.UseZ && p.PassDepth <= 0 {
		return nil, errors.ParamRangeError("pass_depth", "must be greater than 0")
	}
	if p.PlungeFeed <= 0 {
		return nil, errors.ParamRangeError("plunge_feed", "must be greater than 0")
	}
	splitter := c.Splitter
	if splitter == nil {
		splitter = PolygonSplitter{}
	}

	e := &emitter{p: p}
	e.retract(p.SafeZ)

	for pathIndex, path := range paths {
		orig := path.Points
		if len(orig) == 0 {
			continue
		}
		separated := splitter.SeparateTabs(orig, p.Tabs)

		e.add(gcode.Blank())
		e.add(gcode.PathStart(pathIndex))

		currentZ := p.SafeZ
		finishedZ := p.TopZ
		for finishedZ > p.BotZ || p.UseZ {
			nextZ := math.Max(finishedZ-p.PassDepth, p.BotZ)
			if currentZ < p.SafeZ && (!path.SafeToClose || len(p.Tabs) > 0) {
				e.retract(p.SafeZ)
				currentZ = p.SafeZ
			}

			if len(p.Tabs) == 0 {
				currentZ = finishedZ
			} else {
				currentZ = math.Max(finishedZ, p.TabZ)
			}
			e.add(gcode.RapidToStart())
			e.move(e.xy(gcode.G0(), orig[0], false))
			e.move(gcode.G0().WithZ(currentZ))

			selected := separated
			if nextZ >= p.TabZ || p.UseZ {
				selected = [][]Point{orig}
			}

			for idx, sub := range selected {
				if len(sub) == 0 {
					continue
				}
				if !p.UseZ {
					targetZ := nextZ
					if idx&1 == 1 {
						targetZ = p.TabZ
					}
					if targetZ < currentZ {
						if !(p.Ramp && e.ramp(sub, currentZ, targetZ)) {
							e.add(gcode.PlungeStart())
							e.move(e.speed(gcode.G1().WithZ(targetZ).WithF(p.PlungeFeed)))
						}
					} else if targetZ > currentZ {
						e.add(gcode.RetractForTab())
						e.move(gcode.G0().WithZ(p.TabZ))
					}
					currentZ = targetZ
				}

				e.add(gcode.CutStart())
				for i := 1; i < len(sub); i++ {
					m := e.xy(gcode.G1(), sub[i], p.UseZ)
					if i == 1 {
						m = e.speed(m.WithF(p.CutFeed))
					}
					e.move(m)
				}
			}

			finishedZ = nextZ
			if p.UseZ {
				break
			}
		}
		e.retract(p.SafeZ)
	}

	logger.Debug("compiled %d paths into %d lines", len(paths), len(e.prog))
	return e.prog, nil
}

// ramp descends from currentZ to targetZ while travelling forward along
// sub and back again. It reports false when the path has no length to
// ramp over.
func (e *emitter) ramp(sub []Point, currentZ, targetZ float64) bool {
	p := e.p
	minPlungeTime := (currentZ - targetZ) / p.PlungeFeed
	idealDist := p.CutFeed * minPlungeTime

	end := 1
	totalDist := 0.0
	for ; end < len(sub); end++ {
		if totalDist > idealDist {
			break
		}
		totalDist += 2 * p.dist(sub[end-1], sub[end])
	}
	if totalDist <= 0 {
		return false
	}

	rampPath := make([]Point, 0, 2*end-1)
	rampPath = append(rampPath, sub[:end]...)
	for i := end - 2; i >= 0; i-- {
		rampPath = append(rampPath, sub[i])
	}

	e.add(gcode.RampStart())
	travelled := 0.0
	for i := 1; i < len(rampPath); i++ {
		travelled += p.dist(rampPath[i-1], rampPath[i])
		z := currentZ + travelled/totalDist*(targetZ-currentZ)
		m := e.xy(gcode.G1(), rampPath[i], false).WithZ(z)
		if i == 1 {
			m = e.speed(m.WithF(math.Min(totalDist/minPlungeTime, p.CutFeed)))
		}
		e.move(m)
	}
	return true
}
