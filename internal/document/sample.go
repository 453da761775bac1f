package document

import (
	"time"

	"github.com/inamate/facefinder/internal/typeid"
)

// NewSampleSketch returns a sketch with one of each interesting shape: a
// triangle with a dangling tail, a square with a square hole and a slot
// rounded by two arcs.
func NewSampleSketch(sketchID string) *Sketch {
	now := time.Now().UTC().Format(time.RFC3339)

	s := &Sketch{
		ID:        sketchID,
		Name:      "Sample",
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
		Points:    map[string]Point{},
		Segments:  []Segment{},
	}

	pt := func(x, y float64) string {
		id := typeid.NewPointID()
		s.Points[id] = Point{X: x, Y: y}
		return id
	}
	line := func(start, end string) {
		s.Segments = append(s.Segments, Segment{
			ID:    typeid.NewSegmentID(),
			Type:  SegmentTypeLine,
			Start: start,
			End:   end,
		})
	}
	arc := func(start, end, transit string) {
		s.Segments = append(s.Segments, Segment{
			ID:      typeid.NewSegmentID(),
			Type:    SegmentTypeArc,
			Start:   start,
			End:     end,
			Transit: transit,
		})
	}
	loop := func(ids ...string) {
		for i := range ids {
			line(ids[i], ids[(i+1)%len(ids)])
		}
	}

	// Triangle, plus a tail that pruning removes
	a, b, c := pt(0, 0), pt(2, 0), pt(0, 2)
	loop(a, b, c)
	d, e := pt(-1, 0), pt(-2, 0)
	line(a, d)
	line(d, e)

	// Square with a hole
	loop(pt(4, 0), pt(8, 0), pt(8, 4), pt(4, 4))
	loop(pt(5, 1), pt(7, 1), pt(7, 3), pt(5, 3))

	// Slot
	p1, p2, p3, p4 := pt(11, 0), pt(14, 0), pt(14, 2), pt(11, 2)
	line(p1, p2)
	arc(p2, p3, pt(15, 1))
	line(p3, p4)
	arc(p4, p1, pt(10, 1))

	return s
}
