package gcode

import (
	"math/rand"
	"strings"
	"testing"
)

func TestEncodeMoveWordOrder(t *testing.T) {
	m := G1().WithF(100).WithZ(-1).WithY(2.5).WithX(1).WithS(12000)
	got := Encode(MoveLine(m), 3)
	want := "G1 X1.000 Y2.500 Z-1.000 F100.000 S12000"
	if got != want {
		t.Errorf("Encode = %q, want %q", got, want)
	}

	if got := Encode(MoveLine(G0().WithZ(5)), 2); got != "G0 Z5.00" {
		t.Errorf("Encode rapid = %q", got)
	}
	if got := Encode(MoveLine(G0()), 3); got != "G0" {
		t.Errorf("Encode empty = %q", got)
	}
}

func TestEncodeMarkers(t *testing.T) {
	tests := []struct {
		line Line
		want string
	}{
		{PathStart(3), "; Path 3"},
		{CutStart(), "; cut"},
		{PlungeStart(), "; plunge"},
		{RampStart(), "; ramp"},
		{Retract(), "; Retract"},
		{RetractForTab(), "; Retract for tab"},
		{RapidToStart(), "; Rapid to initial position"},
		{CutRef(7), "; add cut 7"},
		{PlungeRef(0), "; add plunge 0"},
		{Comment("; Type:         Virtual Wire ECM Cut"), "; Type:         Virtual Wire ECM Cut"},
		{Blank(), ""},
	}
	for _, tc := range tests {
		if got := Encode(tc.line, 3); got != tc.want {
			t.Errorf("Encode(%v) = %q, want %q", tc.line.Kind, got, tc.want)
		}
	}
}

func TestDecodeClassifiesMarkers(t *testing.T) {
	tests := []struct {
		text  string
		kind  Kind
		index int
	}{
		{"; Path 12", KindPathStart, 12},
		{"; cut", KindCutStart, 0},
		{"; plunge", KindPlungeStart, 0},
		{"; ramp", KindRampStart, 0},
		{"; Retract", KindRetract, 0},
		{"; Retract for tab", KindRetractForTab, 0},
		{"; Rapid to initial position", KindRapidToStart, 0},
		{"; Wear Ratio:   0.1", KindWearRatio, 0},
		{"; add cut 4", KindComment, 0},
		{"; add plunge 2", KindComment, 0},
		{"; Paths:        3", KindComment, 0},
		{"; Path x", KindComment, 0},
		{"; Rapid Z:      5", KindComment, 0},
		{";", KindComment, 0},
		{"", KindBlank, 0},
		{"   ", KindBlank, 0},
	}
	for _, tc := range tests {
		l := Decode(tc.text)
		if l.Kind != tc.kind || l.Index != tc.index {
			t.Errorf("Decode(%q) = %v/%d, want %v/%d", tc.text, l.Kind, l.Index, tc.kind, tc.index)
		}
	}
}

func TestDecodeMove(t *testing.T) {
	l := Decode("G1 X1.5 Y-2 Z0.25 F60 S1000")
	if l.Kind != KindMove {
		t.Fatalf("expected move, got %v", l.Kind)
	}
	want := G1().WithXY(1.5, -2).WithZ(0.25).WithF(60).WithS(1000)
	if l.Move != want {
		t.Errorf("Decode = %+v, want %+v", l.Move, want)
	}
}

func TestDecodeDropsBadWords(t *testing.T) {
	l := Decode("G0 X1 Qfoo Yabc Z2 ; trailing")
	want := G0().WithX(1).WithZ(2)
	if l.Kind != KindMove || l.Move != want {
		t.Errorf("Decode = %+v, want %+v", l, want)
	}
	if l.Move.Is(FieldY) {
		t.Error("unparsable Y must be absent, not zero")
	}
}

func TestDecodeUnknownCommandIsComment(t *testing.T) {
	l := Decode("M3 S1000")
	if l.Kind != KindComment || l.Text != "M3 S1000" {
		t.Errorf("expected opaque comment, got %+v", l)
	}
	if Encode(l, 3) != "M3 S1000" {
		t.Errorf("opaque text must pass through verbatim")
	}
}

func TestRoundTripRandomMoves(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	exact := func() float64 {
		// Integers in thousandths are exact at three decimals.
		return float64(rng.Intn(2000001)-1000000) / 1000
	}
	for i := 0; i < 2000; i++ {
		m := Move{Op: Op(rng.Intn(2))}
		has := Field(rng.Intn(32))
		if has&FieldX != 0 {
			m = m.WithX(exact())
		}
		if has&FieldY != 0 {
			m = m.WithY(exact())
		}
		if has&FieldZ != 0 {
			m = m.WithZ(exact())
		}
		if has&FieldF != 0 {
			m = m.WithF(float64(rng.Intn(5000)))
		}
		if has&FieldS != 0 {
			m = m.WithS(float64(rng.Intn(30000)) / 4)
		}
		text := Encode(MoveLine(m), 3)
		got := Decode(text)
		if got.Kind != KindMove || got.Move != m {
			t.Fatalf("round trip of %+v via %q gave %+v", m, text, got.Move)
		}
	}
}

func TestProgramRoundTrip(t *testing.T) {
	p := Program{
		Retract(),
		MoveLine(G0().WithZ(5)),
		Blank(),
		PathStart(0),
		RapidToStart(),
		MoveLine(G0().WithXY(0, 0)),
		PlungeStart(),
		MoveLine(G1().WithZ(-1).WithF(50)),
		CutStart(),
		MoveLine(G1().WithXY(10, 0).WithF(100)),
	}
	text := p.Encode()
	if !strings.HasSuffix(text, "\r\n") || strings.Count(text, "\r\n") != len(p) {
		t.Fatalf("expected %d CRLF-terminated lines, got %q", len(p), text)
	}
	back := DecodeProgram(text)
	if len(back) != len(p) {
		t.Fatalf("decoded %d lines, want %d", len(back), len(p))
	}
	for i := range p {
		if back[i] != p[i] {
			t.Errorf("line %d: got %+v, want %+v", i, back[i], p[i])
		}
	}
}

func TestFormatLF(t *testing.T) {
	p := Program{CutStart(), MoveLine(G1().WithX(1))}
	got := Format{Decimals: 1, EOL: "\n"}.Program(p)
	if got != "; cut\nG1 X1.0\n" {
		t.Errorf("unexpected LF program %q", got)
	}
}

func TestMoveWithout(t *testing.T) {
	m := G1().WithXY(1, 2).WithF(3).Without(FieldF | FieldX)
	if m != G1().WithY(2) {
		t.Errorf("Without left %+v", m)
	}
}

func TestProgramHelpers(t *testing.T) {
	p := DecodeProgram("; cut\nG1 X1\n; cut\nG1 X2\n")
	if p.CountKind(KindCutStart) != 2 {
		t.Errorf("expected 2 cut markers")
	}
	if len(p.Moves()) != 2 {
		t.Errorf("expected 2 moves")
	}
	if p.Index(KindCutStart, 1) != 2 || p.Index(KindRetract, 0) != -1 {
		t.Errorf("unexpected Index results")
	}
	c := p.Clone()
	c[0] = Blank()
	if p[0].Kind != KindCutStart {
		t.Error("Clone must not share storage")
	}
}
