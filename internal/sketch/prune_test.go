package sketch

import (
	"slices"
	"testing"
)

func TestPruneDanglingTail(t *testing.T) {
	a, b, c := Pt("A", 0, 0), Pt("B", 1, 0), Pt("C", 0, 1)
	d, e := Pt("D", -1, 0), Pt("E", -2, 0)
	sk := NewSketch(Polyline(true, a, b, c)...)
	sk.Add(NewLine(a, d), NewLine(d, e))

	got, err := Prune(sk)
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(got.Segments, sk.Segments[:3]) {
		t.Errorf("got %d segments, want the three triangle segments of the input", len(got.Segments))
	}

	g, err := BuildGraph(got)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := g.Points["D"]; ok {
		t.Error("D survived pruning")
	}
	if _, ok := g.Points["E"]; ok {
		t.Error("E survived pruning")
	}
}

func TestPruneOpenPathCascades(t *testing.T) {
	sk := NewSketch(Polyline(false, Pt("A", 0, 0), Pt("B", 1, 0), Pt("C", 2, 0))...)

	got, err := Prune(sk)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Segments) != 0 || len(got.Points) != 0 {
		t.Errorf("got %d segments and %d points, want an empty sketch", len(got.Segments), len(got.Points))
	}
}

func TestPruneFreePoints(t *testing.T) {
	sk := NewSketch(Polyline(true, Pt("A", 0, 0), Pt("B", 1, 0), Pt("C", 0, 1))...)
	sk.AddPoint(Pt("Z", 4, 4))
	// A free point that is also a vertex stays with its segments.
	sk.AddPoint(Pt("A", 0, 0))

	got, err := Prune(sk)
	if err != nil {
		t.Fatal(err)
	}
	diff(t, []Point{Pt("A", 0, 0)}, got.Points)
	if len(got.Segments) != 3 {
		t.Errorf("got %d segments, want 3", len(got.Segments))
	}
}

func TestPruneIdempotent(t *testing.T) {
	a, b, c, d := Pt("A", 0, 0), Pt("B", 1, 0), Pt("C", 1, 1), Pt("D", 0, 1)
	sk := NewSketch(Polyline(true, a, b, c, d)...)
	sk.Add(NewLine(a, c), NewLine(c, Pt("X", 3, 3)))

	once, err := Prune(sk)
	if err != nil {
		t.Fatal(err)
	}
	twice, err := Prune(once)
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(once.Segments, twice.Segments) {
		t.Error("second prune changed the segment set")
	}
	if len(once.Segments) != 5 {
		t.Errorf("got %d segments, want 5", len(once.Segments))
	}
}

func TestPruneKeepsOrder(t *testing.T) {
	a, b, c := Pt("A", 0, 0), Pt("B", 1, 0), Pt("C", 0, 1)
	sk := NewSketch(
		NewLine(Pt("P", 9, 9), Pt("Q", 8, 8)),
		NewLine(a, b),
		NewLine(b, c),
		NewLine(Pt("R", 7, 7), Pt("S", 6, 6)),
		NewLine(c, a),
	)

	got, err := Prune(sk)
	if err != nil {
		t.Fatal(err)
	}
	want := []*Segment{sk.Segments[1], sk.Segments[2], sk.Segments[4]}
	if !slices.Equal(got.Segments, want) {
		t.Error("surviving segments are not the input segments in input order")
	}
}
