package validate

import (
	"testing"

	"wirecam/pkg/gcode"
)

func z(v float64) gcode.Line { return gcode.MoveLine(gcode.G1().WithZ(v)) }

func xyz(x, y, zv float64) gcode.Line {
	return gcode.MoveLine(gcode.G1().WithXY(x, y).WithZ(zv))
}

func TestCheckMonotonicProgram(t *testing.T) {
	prog := gcode.Program{
		gcode.RapidToStart(),
		gcode.MoveLine(gcode.G0().WithXY(0, 0)),
		z(0), z(-1),
		gcode.CutStart(), xyz(1, 0, -1), xyz(2, 0, -1.1),
	}
	if r := Check(prog); !r.OK() || len(r.Violations) != 0 {
		t.Errorf("report = %+v, want no violations", r)
	}
}

func TestCheckFindsRise(t *testing.T) {
	prog := gcode.Program{
		gcode.RapidToStart(),
		z(-1),
		gcode.CutStart(),
		xyz(1, 0, -1.2),
		xyz(2, 0, -0.9),
	}
	r := Check(prog)
	if r.Count != 1 || len(r.Violations) != 1 {
		t.Fatalf("report = %+v, want one violation", r)
	}
	v := r.Violations[0]
	if v.Line != 5 || v.PrevZ != -1.2 || v.Z != -0.9 {
		t.Errorf("violation = %+v", v)
	}
}

func TestCheckIgnoresHeaderRegion(t *testing.T) {
	prog := gcode.Program{
		z(-2), z(5),
		gcode.RapidToStart(),
		z(0),
	}
	if r := Check(prog); !r.OK() {
		t.Errorf("report = %+v, want no violations before the first rapid marker", r)
	}
	if r := Check(gcode.Program{z(-1), z(1)}); !r.OK() {
		t.Errorf("program without rapid marker reported %d violations", r.Count)
	}
}

func TestCheckRetractsSeparateBlocks(t *testing.T) {
	prog := gcode.Program{
		gcode.RapidToStart(),
		z(-1),
		gcode.Retract(), z(5),
		gcode.RapidToStart(), z(-1),
		gcode.RetractForTab(), z(-0.5),
	}
	if r := Check(prog); !r.OK() {
		t.Errorf("report = %+v, want retracts excluded", r)
	}
}

func TestCheckSkipsMovesWithoutZ(t *testing.T) {
	prog := gcode.Program{
		gcode.RapidToStart(),
		z(-1),
		gcode.MoveLine(gcode.G1().WithXY(1, 1)),
		z(-0.5),
	}
	// The move without Z breaks the pair.
	if r := Check(prog); !r.OK() {
		t.Errorf("report = %+v", r)
	}
}

func TestCheckCapsReportedViolations(t *testing.T) {
	prog := gcode.Program{gcode.RapidToStart()}
	for i := 0; i < 2*MaxReported; i++ {
		prog = append(prog, z(-1), z(0))
	}
	r := Check(prog)
	if r.Count != 2*MaxReported {
		t.Errorf("Count = %d, want %d", r.Count, 2*MaxReported)
	}
	if len(r.Violations) != MaxReported {
		t.Errorf("reported %d violations, want %d", len(r.Violations), MaxReported)
	}
}

func TestCheckIdempotent(t *testing.T) {
	prog := gcode.Program{
		gcode.RapidToStart(),
		z(-1), z(-0.5), z(-2), z(-1.5),
	}
	before := prog.Clone()
	first := Check(prog)
	second := Check(prog)
	if first.Count != 2 || second.Count != first.Count {
		t.Errorf("counts = %d then %d, want 2 both times", first.Count, second.Count)
	}
	for i := range prog {
		if prog[i] != before[i] {
			t.Fatalf("Check modified line %d", i)
		}
	}
}
