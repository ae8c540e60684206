// Block reassembly and plunge seating
//
// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package wear

import (
	"wirecam/pkg/errors"
	"wirecam/pkg/gcode"
)

// Reassemble substitutes blocks back into rest. Every plunge after the
// first cut block is made to resume at the depth the most recent cut
// block ended at. Each handle must name an existing block and every
// block must be referenced exactly once.
func Reassemble(rest gcode.Program, cuts []CutBlock, plunges []PlungeBlock) (gcode.Program, error) {
	usedCut := make([]bool, len(cuts))
	usedPlunge := make([]bool, len(plunges))
	out := make(gcode.Program, 0, len(rest)*2)
	lastCut := -1

	for _, l := range rest {
		switch l.Kind {
		case gcode.KindCutRef:
			n := l.Index
			if n < 0 || n >= len(cuts) {
				return nil, errors.ProgramHandleError("cut", n, "no such block")
			}
			if usedCut[n] {
				return nil, errors.ProgramHandleError("cut", n, "referenced more than once")
			}
			usedCut[n] = true
			out = append(out, cuts[n].Lines...)
			lastCut = n
		case gcode.KindPlungeRef:
			n := l.Index
			if n < 0 || n >= len(plunges) {
				return nil, errors.ProgramHandleError("plunge", n, "no such block")
			}
			if usedPlunge[n] {
				return nil, errors.ProgramHandleError("plunge", n, "referenced more than once")
			}
			usedPlunge[n] = true
			b := plunges[n]
			if lastCut >= 0 {
				b = b.Resume(cuts[lastCut].LastZ)
			}
			out = append(out, b.Lines...)
		default:
			out = append(out, l)
		}
	}

	for n, ok := range usedCut {
		if !ok {
			return nil, errors.ProgramHandleError("cut", n, "never referenced")
		}
	}
	for n, ok := range usedPlunge {
		if !ok {
			return nil, errors.ProgramHandleError("plunge", n, "never referenced")
		}
	}
	return out, nil
}

// Seat inserts a copy of every complete plunge block after the wear
// ratio header line (and the ";" that closes the header). Without
// exactly one header line the program is returned unchanged and the
// problem is logged. The second result is the number of blocks seated.
func Seat(prog gcode.Program, plunges []PlungeBlock) (gcode.Program, int) {
	at := prog.Index(gcode.KindWearRatio, 0)
	if at < 0 {
		logger.Error("MAJOR ERROR: no wear ratio header, seating block not inserted")
		return prog, 0
	}
	if again := prog.Index(gcode.KindWearRatio, at+1); again >= 0 {
		logger.Error("MAJOR ERROR: wear ratio header repeated at line %d, seating block not inserted", again+1)
		return prog, 0
	}
	at++
	if at < len(prog) && prog[at].Kind == gcode.KindComment && prog[at].Text == ";" {
		at++
	}

	var seat gcode.Program
	seated := 0
	for _, b := range plunges {
		if !b.Complete() {
			continue
		}
		seat = append(seat, b.seating()...)
		seated++
	}
	if seated == 0 {
		return prog, 0
	}

	out := make(gcode.Program, 0, len(prog)+len(seat))
	out = append(out, prog[:at]...)
	out = append(out, seat...)
	out = append(out, prog[at:]...)
	return out, seated
}
