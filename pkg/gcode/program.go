// Program helpers
//
// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package gcode

import "strings"

// Program is an ordered sequence of lines; order is the motion sequence.
type Program []Line

// DecodeProgram splits text on LF (dropping CR) and decodes every line.
// A trailing terminator does not produce an extra blank line.
func DecodeProgram(text string) Program {
	text = strings.TrimSuffix(text, "\n")
	if text == "" {
		return Program{}
	}
	raw := strings.Split(text, "\n")
	p := make(Program, 0, len(raw))
	for _, r := range raw {
		p = append(p, Decode(strings.TrimSuffix(r, "\r")))
	}
	return p
}

// Encode writes the program in the default format.
func (p Program) Encode() string {
	return DefaultFormat.Program(p)
}

// Clone returns an independent copy.
func (p Program) Clone() Program {
	return append(Program(nil), p...)
}

// CountKind returns how many lines have kind k.
func (p Program) CountKind(k Kind) int {
	n := 0
	for _, l := range p {
		if l.Kind == k {
			n++
		}
	}
	return n
}

// Moves returns the moves of the program in order.
func (p Program) Moves() []Move {
	var out []Move
	for _, l := range p {
		if l.Kind == KindMove {
			out = append(out, l.Move)
		}
	}
	return out
}

// Index returns the position of the first line with kind k at or after
// from, or -1.
func (p Program) Index(k Kind, from int) int {
	for i := from; i < len(p); i++ {
		if p[i].Kind == k {
			return i
		}
	}
	return -1
}
