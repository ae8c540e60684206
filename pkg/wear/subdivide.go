// Cut block subdivision
//
// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package wear

import (
	"math"

	"wirecam/pkg/gcode"
)

const coincident = 1e-9

// nextWaypoint scans forward from lines[i+1] for the XY the tool moves
// to after lines[i]. Axes no later move sets are taken from (x, y).
// ok is false when no later move carries X or Y.
func nextWaypoint(lines gcode.Program, i int, x, y float64) (nx, ny float64, ok bool) {
	haveX, haveY := false, false
	for _, l := range lines[i+1:] {
		if !l.IsMove() {
			continue
		}
		if !haveX && l.Move.Is(gcode.FieldX) {
			nx, haveX = l.Move.X, true
		}
		if !haveY && l.Move.Is(gcode.FieldY) {
			ny, haveY = l.Move.Y, true
		}
		if haveX && haveY {
			break
		}
	}
	if !haveX && !haveY {
		return 0, 0, false
	}
	if !haveX {
		nx = x
	}
	if !haveY {
		ny = y
	}
	return nx, ny, true
}

// Subdivide inserts intermediate moves so that no XY segment within the
// block is longer than threshold. Each move is emitted unchanged and
// followed by points every threshold units towards the next waypoint;
// the waypoint itself is supplied by the following move. Intermediate
// moves copy every other field of the move they follow. A move with no
// later waypoint ends subdivision and the remaining lines pass through.
// The second result is the number of moves inserted.
func Subdivide(lines gcode.Program, threshold float64) (gcode.Program, int) {
	out := make(gcode.Program, 0, len(lines))
	inserted := 0
	for i, l := range lines {
		if !l.IsMove() || !l.Move.HasAnyXY() {
			out = append(out, l)
			continue
		}
		m := l.Move
		nx, ny, ok := nextWaypoint(lines, i, m.X, m.Y)
		if !ok {
			out = append(out, lines[i:]...)
			break
		}
		out = append(out, l)

		var dx, dy float64
		switch {
		case m.HasXY():
			dx, dy = nx-m.X, ny-m.Y
		case m.Is(gcode.FieldX):
			dx = nx - m.X
		default:
			dy = ny - m.Y
		}
		d := math.Hypot(dx, dy)
		if d <= threshold {
			continue
		}
		ux, uy := dx/d, dy/d
		steps := int(math.Floor(d / threshold))
		for k := 1; k <= steps; k++ {
			s := float64(k) * threshold
			if d-s < coincident {
				break
			}
			p := m
			if m.Is(gcode.FieldX) {
				p.X = m.X + ux*s
			}
			if m.Is(gcode.FieldY) {
				p.Y = m.Y + uy*s
			}
			out = append(out, gcode.MoveLine(p))
			inserted++
		}
	}
	return out, inserted
}
