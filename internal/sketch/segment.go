package sketch

// Direction is one of the two ways a segment can be traversed.
type Direction uint8

const (
	// Forward runs from the curve's start to its end.
	Forward Direction = iota
	// Backward runs from the curve's end to its start.
	Backward
)

func (d Direction) String() string {
	if d == Forward {
		return "forward"
	}
	return "backward"
}

// Opposite returns the other direction.
func (d Direction) Opposite() Direction {
	if d == Forward {
		return Backward
	}
	return Forward
}

// Segment wraps a curve and records which traversal directions have been
// consumed by a ring.
type Segment struct {
	curve        Curve
	usedForward  bool
	usedBackward bool
}

// NewSegment wraps c with both directions unused.
func NewSegment(c Curve) *Segment {
	return &Segment{curve: c}
}

// LineOrArc returns the underlying curve.
func (s *Segment) LineOrArc() Curve {
	return s.curve
}

// Reverse returns a new segment on the reversed curve with fresh usage
// flags. It does not share state with s.
func (s *Segment) Reverse() *Segment {
	return NewSegment(s.curve.Reverse())
}

// Used reports whether direction d has been consumed.
func (s *Segment) Used(d Direction) bool {
	if d == Forward {
		return s.usedForward
	}
	return s.usedBackward
}

// MarkUsed consumes direction d. Consuming a direction twice is an
// ErrAlreadyUsed error.
func (s *Segment) MarkUsed(d Direction) error {
	if s.Used(d) {
		return newError(ErrAlreadyUsed, -1, s.curve.Start().ID, "%s direction of %v", d, s.curve)
	}
	if d == Forward {
		s.usedForward = true
	} else {
		s.usedBackward = true
	}
	return nil
}

// ResetUsage clears both direction flags.
func (s *Segment) ResetUsage() {
	s.usedForward = false
	s.usedBackward = false
}

// directed returns the curve oriented for traversal in direction d.
func (s *Segment) directed(d Direction) Curve {
	if d == Forward {
		return s.curve
	}
	return s.Reverse().LineOrArc()
}

// Sketch is the unit of input: an ordered arena of segments plus any free
// points that are not attached to a segment.
type Sketch struct {
	Segments []*Segment
	Points   []Point
}

// NewSketch builds a sketch from curves, in order.
func NewSketch(curves ...Curve) *Sketch {
	sk := &Sketch{}
	sk.Add(curves...)
	return sk
}

// Add appends segments for curves.
func (sk *Sketch) Add(curves ...Curve) {
	for _, c := range curves {
		sk.Segments = append(sk.Segments, NewSegment(c))
	}
}

// AddPoint registers a free point.
func (sk *Sketch) AddPoint(p Point) {
	sk.Points = append(sk.Points, p)
}

// ResetUsage clears the direction flags of every segment so the sketch can be
// traced again.
func (sk *Sketch) ResetUsage() {
	for _, s := range sk.Segments {
		s.ResetUsage()
	}
}

// Polyline returns lines joining points in order, closing back to the first
// point when closed is set.
func Polyline(closed bool, points ...Point) []Curve {
	var curves []Curve
	for i := 0; i+1 < len(points); i++ {
		curves = append(curves, NewLine(points[i], points[i+1]))
	}
	if closed && len(points) > 2 {
		curves = append(curves, NewLine(points[len(points)-1], points[0]))
	}
	return curves
}
