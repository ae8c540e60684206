// Wire ECM operations
//
// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

// Package operation turns one wire ECM operation into a finished program:
// parameter checks, header, toolpath compilation, wear compensation and
// depth validation.
package operation

import (
	"strings"

	"wirecam/pkg/errors"
	"wirecam/pkg/log"
)

var logger = log.GetLogger("operation")

// Kind is the operation type.
type Kind string

const (
	Pocket     Kind = "Virtual Wire ECM Pocket"
	Cut        Kind = "Virtual Wire ECM Cut"
	CutInside  Kind = "Virtual Wire ECM Cut Inside"
	CutOutside Kind = "Virtual Wire ECM Cut Outside"
	VCarve     Kind = "Virtual Wire ECM V Carve"
)

// Kinds lists every operation type.
var Kinds = []Kind{Pocket, Cut, CutInside, CutOutside, VCarve}

// Direction is the cutting direction handed to the geometry engine.
type Direction string

const (
	Conventional Direction = "Conventional"
	Climb        Direction = "Climb"
)

// ParseKind accepts a full type name or its short form ("pocket", "cut",
// "cut inside", "cut outside", "v carve"), case-insensitively.
func ParseKind(s string) (Kind, error) {
	want := strings.ToLower(strings.TrimSpace(s))
	names := make([]string, len(Kinds))
	for i, k := range Kinds {
		full := strings.ToLower(string(k))
		if want == full || want == strings.TrimPrefix(full, "virtual wire ecm ") {
			return k, nil
		}
		names[i] = string(k)
	}
	return "", errors.ParamChoiceError("type", s, names)
}

// ParseDirection accepts "Conventional" or "Climb" in any case. An empty
// string means Conventional.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "conventional":
		return Conventional, nil
	case "climb":
		return Climb, nil
	}
	return "", errors.ParamChoiceError("direction", s, []string{string(Conventional), string(Climb)})
}

// Operation holds the parameters of one operation. Lengths are in output
// units; rates are in the machine's feed units.
type Operation struct {
	Name      string
	Type      Kind
	Direction Direction

	RapidZ    float64
	StartZ    float64
	EndZ      float64
	PassDepth float64
	TabDepth  float64

	PlungeRate float64
	CutRate    float64
	WearRatio  float64
	ToolSpeed  float64
	Ramp       bool

	// Used by the geometry engine only.
	ToolDiameter float64
	StepOver     float64 // percent
	ToolAngle    float64 // degrees, V carve only
	Margin       float64
	CutWidth     float64

	HookStart string
	HookEnd   string
}

// Climb reports whether paths should be generated in climb direction.
func (op Operation) Climb() bool { return op.Direction == Climb }

// UsesZ reports whether path points carry their own depth.
func (op Operation) UsesZ() bool { return op.Type == VCarve }
