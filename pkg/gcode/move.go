// Typed rapid and linear moves
//
// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

// Package gcode is the typed representation of wire programs: rapid and
// linear moves with optional X/Y/Z/F/S words, structural marker comments,
// and the text encoding shared by every pipeline stage.
package gcode

import "math"

// Op is the motion opcode of a move.
type Op uint8

const (
	Rapid  Op = iota // G0
	Linear           // G1
)

func (o Op) String() string {
	if o == Linear {
		return "G1"
	}
	return "G0"
}

// Field is a bit set of the words present on a move.
type Field uint8

const (
	FieldX Field = 1 << iota
	FieldY
	FieldZ
	FieldF
	FieldS

	FieldXY = FieldX | FieldY
)

// Move is one machine instruction. Only the words flagged in Has are
// meaningful; absent words are neither encoded nor modified by the
// With* helpers. Move is comparable.
type Move struct {
	Op            Op
	X, Y, Z, F, S float64
	Has           Field
}

// G0 returns an empty rapid move.
func G0() Move { return Move{Op: Rapid} }

// G1 returns an empty linear move.
func G1() Move { return Move{Op: Linear} }

// Is reports whether every field in f is present.
func (m Move) Is(f Field) bool { return m.Has&f == f }

// HasXY reports whether both X and Y are present.
func (m Move) HasXY() bool { return m.Is(FieldXY) }

// HasAnyXY reports whether X or Y is present.
func (m Move) HasAnyXY() bool { return m.Has&FieldXY != 0 }

// WithX sets X.
func (m Move) WithX(v float64) Move { m.X = v; m.Has |= FieldX; return m }

// WithY sets Y.
func (m Move) WithY(v float64) Move { m.Y = v; m.Has |= FieldY; return m }

// WithXY sets X and Y.
func (m Move) WithXY(x, y float64) Move { return m.WithX(x).WithY(y) }

// WithZ sets Z.
func (m Move) WithZ(v float64) Move { m.Z = v; m.Has |= FieldZ; return m }

// WithF sets the feed rate.
func (m Move) WithF(v float64) Move { m.F = v; m.Has |= FieldF; return m }

// WithS sets the tool speed.
func (m Move) WithS(v float64) Move { m.S = v; m.Has |= FieldS; return m }

// Without clears the given fields.
func (m Move) Without(f Field) Move {
	m.Has &^= f
	if f&FieldX != 0 {
		m.X = 0
	}
	if f&FieldY != 0 {
		m.Y = 0
	}
	if f&FieldZ != 0 {
		m.Z = 0
	}
	if f&FieldF != 0 {
		m.F = 0
	}
	if f&FieldS != 0 {
		m.S = 0
	}
	return m
}

// AsLinear returns the move with a G1 opcode.
func (m Move) AsLinear() Move { m.Op = Linear; return m }

// DistXY is the planar distance between two points.
func DistXY(x1, y1, x2, y2 float64) float64 {
	return math.Hypot(x2-x1, y2-y1)
}
