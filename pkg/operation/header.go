// Operation parameter header and hooks
//
// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package operation

import (
	"strconv"

	"wirecam/pkg/gcode"
)

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Header returns the parameter summary that precedes an operation's
// program. Its "; Wear Ratio:" line is where the seating block goes.
func Header(index int, op Operation, paths int, feedUnits string) gcode.Program {
	return gcode.Program{
		gcode.Blank(),
		gcode.Comment(";"),
		gcode.Comment("; Operation:    " + strconv.Itoa(index)),
		gcode.Comment("; Type:         " + string(op.Type)),
		gcode.Comment("; Paths:        " + strconv.Itoa(paths)),
		gcode.Comment("; Direction:    " + string(op.Direction)),
		gcode.Comment("; Rapid Z:      " + num(op.RapidZ)),
		gcode.Comment("; Start Z:      " + num(op.StartZ)),
		gcode.Comment("; End Z:        " + num(op.EndZ)),
		gcode.Comment("; Pass Depth:   " + num(op.PassDepth)),
		gcode.Comment("; Plunge rate:  " + num(op.PlungeRate) + " " + feedUnits),
		gcode.Comment("; Cut rate:     " + num(op.CutRate) + " " + feedUnits),
		gcode.WearRatio(gcode.PrefixWearRatio + "   " + num(op.WearRatio)),
		gcode.Comment(";"),
	}
}

// hook decodes user supplied start/end text.
func hook(text string) gcode.Program {
	if text == "" {
		return nil
	}
	return gcode.DecodeProgram(text)
}
