// Plunge block feeds and resume depth
//
// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package wear

import "wirecam/pkg/gcode"

// Refeed returns a copy of b with every move linear and fed at the wire
// rates: retract and descent at the retract feed, travel at the travel
// feed, and the plunge (or first ramp move) at the plunge feed.
func (b PlungeBlock) Refeed(p Params) PlungeBlock {
	b.Lines = b.Lines.Clone()
	set := func(i int, feed float64) {
		if i >= 0 {
			b.Lines[i].Move = b.Lines[i].Move.AsLinear().WithF(feed)
		}
	}
	if b.Retract >= 0 && b.Lines[b.Retract].Move.Is(gcode.FieldZ) &&
		p.RapidZ != 0 && b.Lines[b.Retract].Move.Z != p.RapidZ {
		logger.Warn("retract to Z%g differs from rapid Z %g", b.Lines[b.Retract].Move.Z, p.RapidZ)
	}
	set(b.Retract, p.RetractFeed)
	if b.Complete() {
		set(b.Travel, p.TravelFeed)
		set(b.Descent, p.RetractFeed)
		set(b.Plunge, p.PlungeFeed)
	}
	return b
}

// EndZ is the depth the block plunges to, if it plunges at all.
func (b PlungeBlock) EndZ() (float64, bool) {
	if b.RampEnd < 0 || !b.Lines[b.RampEnd].Move.Is(gcode.FieldZ) {
		return 0, false
	}
	return b.Lines[b.RampEnd].Move.Z, true
}

// Resume returns a copy of b whose plunge ends at z. Ramp depths are
// rescaled so the ramp keeps its shape between the descent depth and z.
func (b PlungeBlock) Resume(z float64) PlungeBlock {
	endZ, ok := b.EndZ()
	if !ok {
		return b
	}
	b.Lines = b.Lines.Clone()
	if !b.Ramp || b.Descent < 0 {
		b.Lines[b.RampEnd].Move = b.Lines[b.RampEnd].Move.WithZ(z)
		return b
	}
	z0 := b.Lines[b.Descent].Move.Z
	span := endZ - z0
	for i := b.Plunge; i <= b.RampEnd; i++ {
		m := b.Lines[i].Move
		if !m.Is(gcode.FieldZ) {
			continue
		}
		if span == 0 {
			m.Z = z
		} else {
			m.Z = z0 + (m.Z-z0)/span*(z-z0)
		}
		b.Lines[i].Move = m
	}
	b.Lines[b.RampEnd].Move = b.Lines[b.RampEnd].Move.WithZ(z)
	return b
}

// seating returns the block's lines without its approach markers.
func (b PlungeBlock) seating() gcode.Program {
	out := make(gcode.Program, 0, len(b.Lines))
	for _, l := range b.Lines {
		if isApproachMarker(l.Kind) {
			continue
		}
		out = append(out, l)
	}
	return out
}
