// Operation parameter checks
//
// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package operation

import (
	"fmt"

	"wirecam/pkg/errors"
)

// Severity of a check message.
type Severity string

const (
	SeverityDanger Severity = "danger"
)

// Message is one failed constraint.
type Message struct {
	Severity Severity
	Param    string
	Text     string
}

// Outcome is the result of checking an operation's parameters.
type Outcome struct {
	OK       bool
	Messages []Message
}

// Err returns the failures as *errors.ParamErrors, or nil when OK.
func (o Outcome) Err(name string) error {
	if o.OK {
		return nil
	}
	perr := &errors.ParamErrors{Operation: name}
	for _, m := range o.Messages {
		perr.Errors = append(perr.Errors, errors.ParamRangeError(m.Param, m.Text))
	}
	return perr
}

// Check validates the parameters of op. Every failed constraint is
// reported, not just the first.
func Check(op Operation) Outcome {
	o := Outcome{OK: true}
	fail := func(param, format string, args ...interface{}) {
		o.OK = false
		o.Messages = append(o.Messages, Message{Severity: SeverityDanger, Param: param, Text: fmt.Sprintf(format, args...)})
	}

	known := false
	for _, k := range Kinds {
		known = known || op.Type == k
	}
	if !known {
		fail("type", "unknown operation type %q", op.Type)
	}
	if op.Direction != Conventional && op.Direction != Climb {
		fail("direction", "direction must be %s or %s", Conventional, Climb)
	}

	if op.StartZ > op.RapidZ {
		fail("start_z", "Start Z must be <= Rapid Z")
	}
	if op.PassDepth <= 0 {
		fail("pass_depth", "Pass Depth must be greater than 0")
	}
	if op.Type == VCarve {
		if op.ToolAngle <= 0 || op.ToolAngle >= 180 {
			fail("tool_angle", "Tool Angle must be in range (0, 180)")
		}
	} else {
		if op.EndZ >= op.StartZ {
			fail("end_z", "End Z must be < Start Z")
		}
		if op.Type != Cut && op.ToolDiameter <= 0 {
			fail("tool_diameter", "Tool Diameter must be greater than 0")
		}
		if op.StepOver <= 0 || op.StepOver > 100 {
			fail("step_over", "Step Over must be in range 0-100%%")
		}
	}
	if op.PlungeRate <= 0 {
		fail("plunge_rate", "Plunge Rate must be greater than 0")
	}
	if op.CutRate <= 0 {
		fail("cut_rate", "Cut Rate must be greater than 0")
	}
	if op.WearRatio <= 0 {
		fail("wear_ratio", "Wear Ratio must be greater than 0")
	}
	return o
}
