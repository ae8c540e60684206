// Cut depth validation
//
// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

// Package validate checks that a finished program never raises the tool
// while cutting. Raising is only expected across a retract.
package validate

import (
	"wirecam/pkg/gcode"
	"wirecam/pkg/log"
)

var logger = log.GetLogger("validate")

// MaxReported caps the violations kept in a Report. Count is not capped.
const MaxReported = 50

// Violation is a move that ends shallower than the move before it.
// Line numbers are 1-based.
type Violation struct {
	Line   int
	PrevZ  float64
	Z      float64
	Move   gcode.Move
	Before gcode.Move
}

// Report is the result of checking one program.
type Report struct {
	Count      int
	Violations []Violation
}

// OK reports whether no violation was found.
func (r Report) OK() bool { return r.Count == 0 }

// Check scans the program body, starting after the first "; Rapid to
// initial position" marker, for adjacent moves that both set Z where the
// later one is higher. Retract markers end the current comparison. The
// program is not modified.
func Check(prog gcode.Program) Report {
	var r Report
	start := prog.Index(gcode.KindRapidToStart, 0)
	if start < 0 {
		return r
	}

	var prev gcode.Move
	havePrev := false
	for i := start + 1; i < len(prog); i++ {
		l := prog[i]
		switch l.Kind {
		case gcode.KindRetract, gcode.KindRetractForTab:
			havePrev = false
			continue
		case gcode.KindMove:
		default:
			continue
		}
		m := l.Move
		if havePrev && m.Is(gcode.FieldZ) && prev.Is(gcode.FieldZ) && m.Z > prev.Z {
			r.Count++
			if len(r.Violations) < MaxReported {
				v := Violation{Line: i + 1, PrevZ: prev.Z, Z: m.Z, Move: m, Before: prev}
				r.Violations = append(r.Violations, v)
				logger.WithFields(log.Fields{
					"line":   v.Line,
					"prev_z": v.PrevZ,
					"z":      v.Z,
				}).Warn("depth increases without a retract")
			}
		}
		prev, havePrev = m, true
	}
	if r.Count > MaxReported {
		logger.Warn("%d depth violations, %d reported", r.Count, MaxReported)
	}
	return r
}
