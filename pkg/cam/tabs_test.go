package cam

import (
	"math"
	"testing"
)

var square = Polygon{{X: 4, Y: -1}, {X: 6, Y: -1}, {X: 6, Y: 1}, {X: 4, Y: 1}}

func near(a, b Point) bool {
	return math.Abs(a.X-b.X) < 1e-9 && math.Abs(a.Y-b.Y) < 1e-9
}

func TestSeparateTabsNoTabs(t *testing.T) {
	path := []Point{{X: 0}, {X: 10}}
	got := PolygonSplitter{}.SeparateTabs(path, nil)
	if len(got) != 1 || len(got[0]) != 2 {
		t.Errorf("expected the whole path, got %v", got)
	}
}

func TestSeparateTabsCrossing(t *testing.T) {
	path := []Point{{X: 0}, {X: 10}}
	got := PolygonSplitter{}.SeparateTabs(path, []Polygon{square})
	if len(got) != 3 {
		t.Fatalf("expected outside/inside/outside, got %v", got)
	}
	want := [][]Point{
		{{X: 0}, {X: 4}},
		{{X: 4}, {X: 6}},
		{{X: 6}, {X: 10}},
	}
	for i := range want {
		if len(got[i]) != len(want[i]) {
			t.Fatalf("sub-path %d = %v, want %v", i, got[i], want[i])
		}
		for j := range want[i] {
			if !near(got[i][j], want[i][j]) {
				t.Errorf("sub-path %d point %d = %v, want %v", i, j, got[i][j], want[i][j])
			}
		}
	}
}

func TestSeparateTabsStartsInside(t *testing.T) {
	path := []Point{{X: 5}, {X: 10}}
	got := PolygonSplitter{}.SeparateTabs(path, []Polygon{square})
	if len(got) != 3 {
		t.Fatalf("expected empty outside, inside, outside; got %v", got)
	}
	if len(got[0]) != 0 {
		t.Errorf("first sub-path must be empty when starting inside, got %v", got[0])
	}
	if !near(got[1][1], Point{X: 6}) || !near(got[2][0], Point{X: 6}) {
		t.Errorf("boundary point must be shared: %v", got)
	}
}

func TestSeparateTabsMultiVertexPath(t *testing.T) {
	path := []Point{{X: 0}, {X: 5}, {X: 5, Y: 5}}
	got := PolygonSplitter{}.SeparateTabs(path, []Polygon{square})
	if len(got) != 3 {
		t.Fatalf("expected 3 sub-paths, got %v", got)
	}
	inside := got[1]
	if len(inside) != 3 || !near(inside[0], Point{X: 4}) || !near(inside[1], Point{X: 5}) || !near(inside[2], Point{X: 5, Y: 1}) {
		t.Errorf("unexpected inside sub-path %v", inside)
	}
}

func TestPointInPolygon(t *testing.T) {
	if !pointInPolygon(Point{X: 5}, square) {
		t.Error("centre should be inside")
	}
	if pointInPolygon(Point{X: 7}, square) {
		t.Error("point right of square should be outside")
	}
}

func TestTabSplitterFunc(t *testing.T) {
	called := false
	c := &Compiler{Splitter: TabSplitterFunc(func(path []Point, tabs []Polygon) [][]Point {
		called = true
		return [][]Point{path}
	})}
	params := baseParams()
	if _, err := c.Compile(straightPath(), params); err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if !called {
		t.Error("custom splitter was not used")
	}
}
