// Program line encoding and decoding
//
// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package gcode

import (
	"strconv"
	"strings"

	"wirecam/pkg/log"
	"wirecam/pkg/pool"
)

var logger = log.GetLogger("gcode")

// DefaultDecimals is the fixed precision of X/Y/Z/F words.
const DefaultDecimals = 3

// Format controls program encoding. X, Y, Z and F are written with
// Decimals fixed places in that order; S is written in shortest form.
type Format struct {
	Decimals int
	EOL      string
}

// DefaultFormat writes three decimals and CRLF line endings.
var DefaultFormat = Format{Decimals: DefaultDecimals, EOL: "\r\n"}

var wordOrder = [...]struct {
	field  Field
	letter byte
}{
	{FieldX, 'X'},
	{FieldY, 'Y'},
	{FieldZ, 'Z'},
	{FieldF, 'F'},
}

func (m Move) value(f Field) float64 {
	switch f {
	case FieldX:
		return m.X
	case FieldY:
		return m.Y
	case FieldZ:
		return m.Z
	case FieldF:
		return m.F
	}
	return m.S
}

func (f Format) appendLine(buf *pool.ByteBuffer, l Line) {
	if l.Kind != KindMove {
		buf.WriteString(l.text())
		return
	}
	m := l.Move
	buf.WriteString(m.Op.String())
	for _, w := range wordOrder {
		if m.Has&w.field == 0 {
			continue
		}
		buf.WriteByte(' ')
		buf.WriteByte(w.letter)
		buf.AppendFloat(m.value(w.field), f.Decimals)
	}
	if m.Has&FieldS != 0 {
		buf.WriteString(" S")
		buf.AppendFloat(m.S, -1)
	}
}

// Line encodes a single line without a terminator.
func (f Format) Line(l Line) string {
	buf := pool.GetByteBuffer()
	defer pool.PutByteBuffer(buf)
	f.appendLine(buf, l)
	return buf.String()
}

// Program encodes every line, each followed by EOL.
func (f Format) Program(p Program) string {
	buf := pool.GetByteBuffer()
	defer pool.PutByteBuffer(buf)
	for _, l := range p {
		f.appendLine(buf, l)
		buf.WriteString(f.EOL)
	}
	return buf.String()
}

// Encode encodes a line with the given precision.
func Encode(l Line, decimals int) string {
	return Format{Decimals: decimals}.Line(l)
}

// EncodeProgram encodes a program with CRLF line endings.
func EncodeProgram(p Program, decimals int) string {
	return Format{Decimals: decimals, EOL: "\r\n"}.Program(p)
}

// Decode parses one line of program text. Lines starting with G0/G1 are
// moves; ";" lines are classified into marker kinds; anything else is
// kept as an opaque comment. Malformed move words are logged and dropped.
func Decode(text string) Line {
	s := strings.TrimSpace(text)
	if s == "" {
		return Blank()
	}
	if s[0] == ';' {
		return classifyComment(s)
	}

	code := s
	if i := strings.IndexByte(code, ';'); i >= 0 {
		code = strings.TrimSpace(code[:i])
	}
	tokens := pool.GetStringSlice()
	defer pool.PutStringSlice(tokens)
	*tokens = appendFields(*tokens, code)

	var m Move
	switch strings.ToUpper((*tokens)[0]) {
	case "G0", "G00":
		m.Op = Rapid
	case "G1", "G01":
		m.Op = Linear
	default:
		logger.Warn("not a move, keeping as comment: %q", s)
		return Comment(s)
	}
	for _, tok := range (*tokens)[1:] {
		v, err := strconv.ParseFloat(tok[1:], 64)
		if err != nil || len(tok) < 2 {
			logger.Warn("dropping unparsable word %q in %q", tok, s)
			continue
		}
		switch tok[0] {
		case 'X', 'x':
			m = m.WithX(v)
		case 'Y', 'y':
			m = m.WithY(v)
		case 'Z', 'z':
			m = m.WithZ(v)
		case 'F', 'f':
			m = m.WithF(v)
		case 'S', 's':
			m = m.WithS(v)
		default:
			logger.Warn("dropping unknown word %q in %q", tok, s)
		}
	}
	return MoveLine(m)
}

// appendFields splits s on spaces and tabs.
func appendFields(dst []string, s string) []string {
	start := -1
	for i := 0; i < len(s); i++ {
		if s[i] == ' ' || s[i] == '\t' {
			if start >= 0 {
				dst = append(dst, s[start:i])
				start = -1
			}
		} else if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		dst = append(dst, s[start:])
	}
	return dst
}

// classifyComment maps structural comments onto line kinds. Block
// placeholders are only made by the wear pass and decode as plain comments.
func classifyComment(s string) Line {
	switch s {
	case TextCut:
		return CutStart()
	case TextPlunge:
		return PlungeStart()
	case TextRamp:
		return RampStart()
	case TextRetract:
		return Retract()
	case TextRetractForTab:
		return RetractForTab()
	case TextRapidToStart:
		return RapidToStart()
	}
	if strings.HasPrefix(s, PrefixWearRatio) {
		return WearRatio(s)
	}
	if rest, ok := strings.CutPrefix(s, PrefixPath); ok {
		if n, err := strconv.Atoi(rest); err == nil && n >= 0 {
			return PathStart(n)
		}
	}
	return Comment(s)
}
