package sketch

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func diff(t *testing.T, want, got any, opts ...cmp.Option) {
	t.Helper()
	if d := cmp.Diff(want, got, opts...); d != "" {
		t.Error(d)
	}
}

func approxEqual(x, y float64) bool {
	return math.Abs(x-y) < 1e-9
}

// ringIDs lists the point ids a ring visits, starting at its first tail.
func ringIDs(r Ring) []PointID {
	ids := make([]PointID, len(r.Segments))
	for i, s := range r.Segments {
		ids[i] = s.Tail().ID
	}
	return ids
}

// square returns the closed polyline through the corners of the axis
// aligned square [x0, x1]², counter-clockwise from the lower left corner.
func square(ids [4]PointID, x0, x1 float64) []Curve {
	return Polyline(true,
		Pt(ids[0], x0, x0),
		Pt(ids[1], x1, x0),
		Pt(ids[2], x1, x1),
		Pt(ids[3], x0, x1),
	)
}

// ringOf builds a ring of lines through points, closing back to the first.
func ringOf(points ...Point) Ring {
	var r Ring
	for i, c := range Polyline(true, points...) {
		r.Segments = append(r.Segments, DirectedSegment{Index: i, Direction: Forward, Curve: c})
	}
	return r
}
