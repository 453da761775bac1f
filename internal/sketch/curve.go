package sketch

import (
	"fmt"
	"math"
)

// Curve is the capability shared by lines and arcs. The face tracer only
// ever goes through this interface.
type Curve interface {
	Start() Point
	End() Point
	// AngleAt returns the tangent direction at an endpoint, oriented from
	// start to end.
	AngleAt(p Point) (float64, error)
	// Reverse returns the same geometry traversed end to start.
	Reverse() Curve
	// Curvature is 0 for lines and ±1/r for arcs, positive when the curve
	// bends counter-clockwise.
	Curvature() float64
	Validate() error
}

var (
	_ Curve = Line{}
	_ Curve = Arc{}
)

// Line is a straight segment from Start to End.
type Line struct {
	P0 Point
	P1 Point
}

// NewLine returns the line from start to end.
func NewLine(start, end Point) Line {
	return Line{P0: start, P1: end}
}

func (l Line) Start() Point { return l.P0 }
func (l Line) End() Point   { return l.P1 }

// AngleAt returns the direction of the line; a line has a single direction
// so p is ignored.
func (l Line) AngleAt(Point) (float64, error) {
	dx, dy := l.P1.sub(l.P0)
	return math.Atan2(dy, dx), nil
}

func (l Line) Reverse() Curve {
	return Line{P0: l.P1, P1: l.P0}
}

func (l Line) Curvature() float64 { return 0 }

func (l Line) Validate() error {
	if l.P0.ID == l.P1.ID {
		return newError(ErrDegenerateCurve, -1, l.P0.ID, "line starts and ends at the same point")
	}
	return nil
}

func (l Line) String() string {
	return fmt.Sprintf("line %s->%s", l.P0.ID, l.P1.ID)
}

// Arc is a circular arc from Start to End passing through Transit.
type Arc struct {
	P0      Point
	P1      Point
	Transit Point
}

// NewArc returns the arc from start through transit to end.
func NewArc(start, end, transit Point) Arc {
	return Arc{P0: start, P1: end, Transit: transit}
}

func (a Arc) Start() Point { return a.P0 }
func (a Arc) End() Point   { return a.P1 }

// Reverse swaps the endpoints. The transit point is unchanged, so the sweep
// direction flips with it.
func (a Arc) Reverse() Curve {
	return Arc{P0: a.P1, P1: a.P0, Transit: a.Transit}
}

// Circle is the circle an arc lies on.
type Circle struct {
	CX, CY float64
	Radius float64
}

// Circle returns the circumcircle of start, transit and end.
func (a Arc) Circle() (Circle, error) {
	if !a.nonCollinear() {
		return Circle{}, newError(ErrDegenerateArc, -1, a.Transit.ID,
			"start %s, transit %s and end %s are collinear", a.P0.ID, a.Transit.ID, a.P1.ID)
	}
	ax, ay := a.P0.X, a.P0.Y
	bx, by := a.Transit.X, a.Transit.Y
	cx, cy := a.P1.X, a.P1.Y

	d := 2 * (ax*(by-cy) + bx*(cy-ay) + cx*(ay-by))
	a2 := ax*ax + ay*ay
	b2 := bx*bx + by*by
	c2 := cx*cx + cy*cy
	ux := (a2*(by-cy) + b2*(cy-ay) + c2*(ay-by)) / d
	uy := (a2*(cx-bx) + b2*(ax-cx) + c2*(bx-ax)) / d

	return Circle{CX: ux, CY: uy, Radius: math.Hypot(ax-ux, ay-uy)}, nil
}

// orientation is the cross product of start→transit and start→end. Positive
// means the transit lies right of the chord start→end, which is a
// counter-clockwise sweep.
func (a Arc) orientation() float64 {
	tx, ty := a.Transit.sub(a.P0)
	ex, ey := a.P1.sub(a.P0)
	return cross(tx, ty, ex, ey)
}

func (a Arc) nonCollinear() bool {
	tx, ty := a.Transit.sub(a.P0)
	ex, ey := a.P1.sub(a.P0)
	scale := max(tx*tx+ty*ty, ex*ex+ey*ey)
	return math.Abs(cross(tx, ty, ex, ey)) > 1e-12*scale
}

// CounterClockwise reports whether the arc sweeps counter-clockwise around
// its centre.
func (a Arc) CounterClockwise() bool {
	return a.orientation() > 0
}

// Sweep returns the signed sweep angle, positive for counter-clockwise arcs.
func (a Arc) Sweep() (float64, error) {
	c, err := a.Circle()
	if err != nil {
		return 0, err
	}
	start := math.Atan2(a.P0.Y-c.CY, a.P0.X-c.CX)
	end := math.Atan2(a.P1.Y-c.CY, a.P1.X-c.CX)
	if a.CounterClockwise() {
		return normalizePositive(end - start), nil
	}
	return -normalizePositive(start - end), nil
}

// AngleAt returns the tangent at p: the radius through p rotated a quarter
// turn toward the direction of travel.
func (a Arc) AngleAt(p Point) (float64, error) {
	c, err := a.Circle()
	if err != nil {
		return 0, err
	}
	rx, ry := p.X-c.CX, p.Y-c.CY
	if a.CounterClockwise() {
		return math.Atan2(rx, -ry), nil
	}
	return math.Atan2(-rx, ry), nil
}

func (a Arc) Curvature() float64 {
	c, err := a.Circle()
	if err != nil {
		return 0
	}
	if a.CounterClockwise() {
		return 1 / c.Radius
	}
	return -1 / c.Radius
}

func (a Arc) Validate() error {
	if a.P0.ID == a.P1.ID {
		return newError(ErrDegenerateCurve, -1, a.P0.ID, "arc starts and ends at the same point")
	}
	if _, err := a.Circle(); err != nil {
		return err
	}
	return nil
}

func (a Arc) String() string {
	return fmt.Sprintf("arc %s->%s via %s", a.P0.ID, a.P1.ID, a.Transit.ID)
}
