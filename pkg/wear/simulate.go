// Electrode wear simulation
//
// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package wear

import (
	"math"

	"wirecam/pkg/gcode"
)

// State is the running wear simulation: the last XY the wire was at, the
// compensated depth, and the depth the source program itself asked for.
type State struct {
	X, Y       float64
	HasX, HasY bool
	Z          float64
	FileZ      float64
}

// NewState starts a simulation one pass depth below startZ.
func NewState(startZ, passDepth float64) State {
	z := startZ - passDepth
	return State{Z: z, FileZ: z}
}

// distance is the XY length of m from the last known position. Axes m
// omits are taken from the last position; it is zero until both axes
// are known. A block's first move therefore wears nothing: the path
// start reached by the plunge block is not fed into the state, so a
// single-segment cut is never deepened.
func (s State) distance(m gcode.Move) float64 {
	if !m.HasAnyXY() || !s.HasX || !s.HasY {
		return 0
	}
	x, y := s.X, s.Y
	if m.Is(gcode.FieldX) {
		x = m.X
	}
	if m.Is(gcode.FieldY) {
		y = m.Y
	}
	return math.Hypot(x-s.X, y-s.Y)
}

// Step folds one move into the state. The returned move carries the
// compensated Z: the previous depth, lowered by distance*ratio, plus any
// depth change the move itself requested.
func (s State) Step(m gcode.Move, ratio float64) (gcode.Move, State) {
	var fileDelta float64
	if m.Is(gcode.FieldZ) {
		fileDelta = m.Z - s.FileZ
	}
	s.Z += fileDelta - s.distance(m)*ratio
	s.FileZ += fileDelta
	if m.Is(gcode.FieldX) {
		s.X, s.HasX = m.X, true
	}
	if m.Is(gcode.FieldY) {
		s.Y, s.HasY = m.Y, true
	}
	return m.WithZ(s.Z), s
}

// Simulate applies Step to every move in lines; other lines pass through.
func Simulate(lines gcode.Program, s State, ratio float64) (gcode.Program, State) {
	out := make(gcode.Program, len(lines))
	for i, l := range lines {
		if l.IsMove() {
			l.Move, s = s.Step(l.Move, ratio)
		}
		out[i] = l
	}
	return out, s
}
