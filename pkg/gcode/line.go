// Program lines and structural markers
//
// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package gcode

import "strconv"

// Kind tags what a program line is. Marker kinds carry the structure the
// compiler emits and the wear pass consumes.
type Kind uint8

const (
	KindMove          Kind = iota
	KindBlank              // empty line
	KindComment            // opaque ";" text
	KindPathStart          // "; Path N"
	KindCutStart           // "; cut"
	KindPlungeStart        // "; plunge"
	KindRampStart          // "; ramp"
	KindRetract            // "; Retract"
	KindRetractForTab      // "; Retract for tab"
	KindRapidToStart       // "; Rapid to initial position"
	KindWearRatio          // "; Wear Ratio:" header line
	KindCutRef             // "; add cut N" placeholder
	KindPlungeRef          // "; add plunge N" placeholder
)

var kindNames = [...]string{
	KindMove:          "move",
	KindBlank:         "blank",
	KindComment:       "comment",
	KindPathStart:     "path",
	KindCutStart:      "cut",
	KindPlungeStart:   "plunge",
	KindRampStart:     "ramp",
	KindRetract:       "retract",
	KindRetractForTab: "retract-for-tab",
	KindRapidToStart:  "rapid-to-start",
	KindWearRatio:     "wear-ratio",
	KindCutRef:        "cut-ref",
	KindPlungeRef:     "plunge-ref",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// Marker text. These strings are the program's structural sub-protocol
// and must be emitted verbatim.
const (
	TextCut           = "; cut"
	TextPlunge        = "; plunge"
	TextRamp          = "; ramp"
	TextRetract       = "; Retract"
	TextRetractForTab = "; Retract for tab"
	TextRapidToStart  = "; Rapid to initial position"
	PrefixPath        = "; Path "
	PrefixWearRatio   = "; Wear Ratio:"
	PrefixCutRef      = "; add cut "
	PrefixPlungeRef   = "; add plunge "
)

// Line is one program line. Move is set for KindMove; Text holds the
// verbatim comment for KindComment and KindWearRatio; Index is the path
// index for KindPathStart and the block handle for the *Ref kinds.
type Line struct {
	Kind  Kind
	Move  Move
	Text  string
	Index int
}

// MoveLine wraps a move.
func MoveLine(m Move) Line { return Line{Kind: KindMove, Move: m} }

// Blank returns an empty line.
func Blank() Line { return Line{Kind: KindBlank} }

// Comment returns an opaque comment line; text is emitted verbatim.
func Comment(text string) Line { return Line{Kind: KindComment, Text: text} }

// PathStart returns a "; Path N" marker.
func PathStart(i int) Line { return Line{Kind: KindPathStart, Index: i} }

// CutStart returns a "; cut" marker.
func CutStart() Line { return Line{Kind: KindCutStart} }

// PlungeStart returns a "; plunge" marker.
func PlungeStart() Line { return Line{Kind: KindPlungeStart} }

// RampStart returns a "; ramp" marker.
func RampStart() Line { return Line{Kind: KindRampStart} }

// Retract returns a "; Retract" marker.
func Retract() Line { return Line{Kind: KindRetract} }

// RetractForTab returns a "; Retract for tab" marker.
func RetractForTab() Line { return Line{Kind: KindRetractForTab} }

// RapidToStart returns a "; Rapid to initial position" marker.
func RapidToStart() Line { return Line{Kind: KindRapidToStart} }

// WearRatio returns the header line carrying the wear ratio.
func WearRatio(text string) Line { return Line{Kind: KindWearRatio, Text: text} }

// CutRef returns a placeholder for cut block n.
func CutRef(n int) Line { return Line{Kind: KindCutRef, Index: n} }

// PlungeRef returns a placeholder for plunge block n.
func PlungeRef(n int) Line { return Line{Kind: KindPlungeRef, Index: n} }

// IsMove reports whether the line is a move.
func (l Line) IsMove() bool { return l.Kind == KindMove }

// IsMarker reports whether the line is anything other than a move or blank.
func (l Line) IsMarker() bool { return l.Kind != KindMove && l.Kind != KindBlank }

// AsComment returns a non-move line as an opaque comment with the same text.
func (l Line) AsComment() Line {
	if l.Kind == KindMove {
		return l
	}
	return Comment(l.text())
}

// text returns the comment text of a non-move line.
func (l Line) text() string {
	switch l.Kind {
	case KindBlank:
		return ""
	case KindPathStart:
		return PrefixPath + strconv.Itoa(l.Index)
	case KindCutStart:
		return TextCut
	case KindPlungeStart:
		return TextPlunge
	case KindRampStart:
		return TextRamp
	case KindRetract:
		return TextRetract
	case KindRetractForTab:
		return TextRetractForTab
	case KindRapidToStart:
		return TextRapidToStart
	case KindCutRef:
		return PrefixCutRef + strconv.Itoa(l.Index)
	case KindPlungeRef:
		return PrefixPlungeRef + strconv.Itoa(l.Index)
	}
	return l.Text
}
