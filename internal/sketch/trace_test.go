package sketch

import (
	"errors"
	"math"
	"testing"
)

func traceSketch(t *testing.T, sk *Sketch) []Ring {
	t.Helper()
	g, err := BuildGraph(sk)
	if err != nil {
		t.Fatal(err)
	}
	rings, err := TraceRings(sk, g)
	if err != nil {
		t.Fatal(err)
	}
	return rings
}

func TestTraceTriangle(t *testing.T) {
	sk := NewSketch(Polyline(true, Pt("A", 0, 0), Pt("B", 1, 0), Pt("C", 0, 1))...)
	rings := traceSketch(t, sk)

	if len(rings) != 2 {
		t.Fatalf("got %d rings, want 2", len(rings))
	}
	diff(t, []PointID{"A", "B", "C"}, ringIDs(rings[0]))
	diff(t, []PointID{"B", "A", "C"}, ringIDs(rings[1]))

	if got := rings[0].SignedArea(); !approxEqual(got, 0.5) {
		t.Errorf("bounded ring area: got %v, want 0.5", got)
	}
	if got := rings[1].SignedArea(); !approxEqual(got, -0.5) {
		t.Errorf("outline ring area: got %v, want -0.5", got)
	}
}

func TestTraceSharedEdge(t *testing.T) {
	a, b, c, d := Pt("A", 0, 0), Pt("B", 1, 0), Pt("C", 1, 1), Pt("D", 0, 1)
	sk := NewSketch(Polyline(true, a, b, c, d)...)
	sk.Add(NewLine(a, c))

	rings := traceSketch(t, sk)
	if len(rings) != 3 {
		t.Fatalf("got %d rings, want 3", len(rings))
	}
	diff(t, []PointID{"A", "B", "C"}, ringIDs(rings[0]))
	diff(t, []PointID{"B", "A", "D", "C"}, ringIDs(rings[1]))
	diff(t, []PointID{"C", "D", "A"}, ringIDs(rings[2]))

	seen := make(map[[2]int]bool)
	for _, r := range rings {
		if !r.Closed() {
			t.Errorf("ring %s is not closed", r)
		}
		for _, s := range r.Segments {
			key := [2]int{s.Index, int(s.Direction)}
			if seen[key] {
				t.Errorf("segment %d %s used by two rings", s.Index, s.Direction)
			}
			seen[key] = true
		}
	}
	if len(seen) != 2*len(sk.Segments) {
		t.Errorf("rings use %d segment directions, want %d", len(seen), 2*len(sk.Segments))
	}
	for i, seg := range sk.Segments {
		if !seg.Used(Forward) || !seg.Used(Backward) {
			t.Errorf("segment %d not used in both directions", i)
		}
	}
}

func TestTracePinchVertex(t *testing.T) {
	a := Pt("A", 0, 0)
	sk := NewSketch(Polyline(true, a, Pt("B", 1, 0), Pt("C", 1, 1))...)
	sk.Add(Polyline(true, a, Pt("D", -1, 0), Pt("E", -1, -1))...)

	rings := traceSketch(t, sk)
	if len(rings) != 3 {
		t.Fatalf("got %d rings, want 3", len(rings))
	}
	// The outline passes through A twice and only closes on its first step.
	diff(t, []PointID{"B", "A", "E", "D", "A", "C"}, ringIDs(rings[1]))
	if got := rings[1].SignedArea(); !approxEqual(got, -1) {
		t.Errorf("outline area: got %v, want -1", got)
	}
}

func TestTraceCircle(t *testing.T) {
	a, b := Pt("A", -1, 0), Pt("B", 1, 0)
	sk := NewSketch(
		NewArc(a, b, Pt("N", 0, 1)),
		NewArc(b, a, Pt("S", 0, -1)),
	)

	rings := traceSketch(t, sk)
	if len(rings) != 2 {
		t.Fatalf("got %d rings, want 2", len(rings))
	}
	if got := rings[0].SignedArea(); !approxEqual(got, -math.Pi) {
		t.Errorf("forward ring area: got %v, want %v", got, -math.Pi)
	}
	if got := rings[1].SignedArea(); !approxEqual(got, math.Pi) {
		t.Errorf("backward ring area: got %v, want %v", got, math.Pi)
	}
	if !rings[1].Contains(0, 0.9) || rings[1].Contains(0, 1.1) {
		t.Error("flattened circle gives wrong containment near its top")
	}
}

func TestTraceArcTangentToLine(t *testing.T) {
	// The arc leaves B with the same tangent as the line B->C but bends
	// upward, so from the bottom edge the walk turns onto the arc first.
	a, b, c := Pt("A", 0, 0), Pt("B", 2, 0), Pt("C", 2, 2)
	sk := NewSketch(
		NewLine(a, b),
		NewLine(b, c),
		NewArc(b, Pt("D", 0, 2), Pt("T", math.Sqrt2, math.Sqrt2)),
		NewLine(c, Pt("D", 0, 2)),
		NewLine(Pt("D", 0, 2), a),
	)

	rings := traceSketch(t, sk)
	for _, r := range rings {
		if !r.Closed() {
			t.Errorf("ring %s is not closed", r)
		}
	}
	diff(t, []PointID{"A", "B", "D"}, ringIDs(rings[0]))
}

func TestTraceDeadEnd(t *testing.T) {
	// Unpruned spur B-X: the walk turns back along it.
	sk := NewSketch(Polyline(true, Pt("A", 0, 0), Pt("B", 1, 0), Pt("C", 0, 1))...)
	sk.Add(NewLine(Pt("B", 1, 0), Pt("X", 2, 0)))

	rings := traceSketch(t, sk)
	for _, r := range rings {
		if !r.Closed() {
			t.Errorf("ring %s is not closed", r)
		}
	}
	diff(t, []PointID{"B", "A", "C", "B", "X"}, ringIDs(rings[1]))
}

func TestTraceAmbiguousTurn(t *testing.T) {
	a, b, c := Pt("A", 0, 0), Pt("B", 1, 0), Pt("C", 0, 1)
	sk := NewSketch(Polyline(true, a, b, c)...)
	sk.Add(NewLine(a, b))

	g, err := BuildGraph(sk)
	if err != nil {
		t.Fatal(err)
	}
	_, err = TraceRings(sk, g)
	if !errors.Is(err, ErrAmbiguousTurn) {
		t.Fatalf("got %v, want %v", err, ErrAmbiguousTurn)
	}
	var e *Error
	if errors.As(err, &e) && e.PointID != "A" {
		t.Errorf("got point %s, want A", e.PointID)
	}
}

func TestTraceRejectsUsedSeed(t *testing.T) {
	sk := NewSketch(Polyline(true, Pt("A", 0, 0), Pt("B", 1, 0), Pt("C", 0, 1))...)
	g, err := BuildGraph(sk)
	if err != nil {
		t.Fatal(err)
	}
	tr := &tracer{sketch: sk, graph: g, limit: g.Entries(), logger: discardLogger}
	if _, err := tr.trace(DirectedSegment{Index: 0, Direction: Forward, Curve: sk.Segments[0].LineOrArc()}); err != nil {
		t.Fatal(err)
	}

	_, err = tr.trace(DirectedSegment{Index: 1, Direction: Forward, Curve: sk.Segments[1].LineOrArc()})
	if !errors.Is(err, ErrAlreadyUsed) {
		t.Fatalf("got %v, want %v", err, ErrAlreadyUsed)
	}
}

func TestTurnSweep(t *testing.T) {
	tests := []struct {
		name           string
		out, outCurv   float64
		back, backCurv float64
		want           float64
	}{
		{"quarter", 0, 0, math.Pi / 2, 0, math.Pi / 2},
		{"straight on", 0, 0, math.Pi, 0, math.Pi},
		{"same line", 0, 0, 0, 0, 2 * math.Pi},
		{"candidate bends left of back", 0, 1, 0, 0, 2 * math.Pi},
		{"candidate bends right of back", 0, -1, 0, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := turnSweep(tt.out, tt.outCurv, tt.back, tt.backCurv)
			if !approxEqual(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}
