// Cut and plunge block extraction
//
// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package wear

import "wirecam/pkg/gcode"

// CutBlock is a "; cut" marker and the moves that follow it, up to the
// next marker. LastZ is the depth the block ends at after simulation.
type CutBlock struct {
	Lines gcode.Program
	LastZ float64
}

// ExtractCuts moves every cut block out of prog, leaving a CutRef
// placeholder in its place. A "; cut" marker opens a block (closing any
// open one); any other non-move line closes it.
func ExtractCuts(prog gcode.Program) ([]CutBlock, gcode.Program) {
	var blocks []CutBlock
	rest := make(gcode.Program, 0, len(prog))
	var cur gcode.Program
	open := false

	closeBlock := func() {
		rest = append(rest, gcode.CutRef(len(blocks)))
		blocks = append(blocks, CutBlock{Lines: cur})
		cur, open = nil, false
	}

	for _, l := range prog {
		switch l.Kind {
		case gcode.KindCutStart:
			if open {
				closeBlock()
			}
			cur = gcode.Program{l}
			open = true
		case gcode.KindMove, gcode.KindBlank:
			if open {
				cur = append(cur, l)
			} else {
				rest = append(rest, l)
			}
		default:
			if open {
				closeBlock()
			}
			rest = append(rest, l)
		}
	}
	if open {
		closeBlock()
	}
	return blocks, rest
}

// PlungeBlock is the retract/approach/descent sequence that starts at a
// "; Retract" marker. Role fields index into Lines and are -1 when the
// role is absent.
type PlungeBlock struct {
	Lines   gcode.Program
	Retract int // retract move
	Travel  int // XY move to the next start point
	Descent int // Z move down to the pass start depth
	Plunge  int // straight plunge move, or first ramp move
	RampEnd int // last ramp move; equal to Plunge for a straight plunge
	Ramp    bool
}

// Complete reports whether the block descends back into the work.
func (b PlungeBlock) Complete() bool {
	return b.Descent >= 0
}

// ExtractPlunges moves every plunge block out of prog, leaving a
// PlungeRef placeholder in its place. "; Retract for tab" is not a
// plunge block.
func ExtractPlunges(prog gcode.Program) ([]PlungeBlock, gcode.Program) {
	var blocks []PlungeBlock
	rest := make(gcode.Program, 0, len(prog))
	for i := 0; i < len(prog); {
		if prog[i].Kind != gcode.KindRetract {
			rest = append(rest, prog[i])
			i++
			continue
		}
		b, next := parsePlunge(prog, i)
		rest = append(rest, gcode.PlungeRef(len(blocks)))
		blocks = append(blocks, b)
		i = next
	}
	return blocks, rest
}

func isApproachMarker(k gcode.Kind) bool {
	return k == gcode.KindBlank || k == gcode.KindPathStart || k == gcode.KindRapidToStart
}

// parsePlunge reads the block starting at the retract marker prog[i] and
// returns it with the index of the first line after it. Each stage is
// only consumed when complete; anything else is left for the caller.
func parsePlunge(prog gcode.Program, i int) (PlungeBlock, int) {
	b := PlungeBlock{Retract: -1, Travel: -1, Descent: -1, Plunge: -1, RampEnd: -1}
	b.Lines = gcode.Program{prog[i]}
	j := i + 1
	n := len(prog)

	if j >= n || !prog[j].IsMove() {
		return b, j
	}
	b.Retract = len(b.Lines)
	b.Lines = append(b.Lines, prog[j])
	j++

	k := j
	for k < n && isApproachMarker(prog[k].Kind) {
		k++
	}
	if k+1 >= n || !prog[k].IsMove() || !prog[k].Move.HasAnyXY() ||
		!prog[k+1].IsMove() || !isDescent(prog[k+1].Move) {
		return b, j
	}
	b.Lines = append(b.Lines, prog[j:k]...)
	b.Travel = len(b.Lines)
	b.Descent = len(b.Lines) + 1
	b.Lines = append(b.Lines, prog[k], prog[k+1])
	j = k + 2

	switch {
	case j+1 < n && prog[j].Kind == gcode.KindPlungeStart && prog[j+1].IsMove():
		b.Plunge = len(b.Lines) + 1
		b.RampEnd = b.Plunge
		b.Lines = append(b.Lines, prog[j], prog[j+1])
		j += 2
	case j < n && prog[j].Kind == gcode.KindRampStart:
		k = j + 1
		for k < n && prog[k].IsMove() {
			k++
		}
		if k > j+1 {
			b.Ramp = true
			b.Plunge = len(b.Lines) + 1
			b.Lines = append(b.Lines, prog[j:k]...)
			b.RampEnd = len(b.Lines) - 1
			j = k
		}
	}
	return b, j
}

func isDescent(m gcode.Move) bool {
	return m.Is(gcode.FieldZ) && !m.HasAnyXY()
}
