package sketch

import (
	"math"
	"strings"
)

// arcFlattenStep is the largest angle between consecutive samples when an
// arc is approximated by a polyline for containment tests.
const arcFlattenStep = math.Pi / 64

// DirectedSegment is one step of a ring: a segment of the sketch used in a
// particular direction. Curve is oriented in the direction of travel.
type DirectedSegment struct {
	Index     int
	Direction Direction
	Curve     Curve
}

// Tail is the point the step departs from.
func (d DirectedSegment) Tail() Point { return d.Curve.Start() }

// Head is the point the step arrives at.
func (d DirectedSegment) Head() Point { return d.Curve.End() }

func (d DirectedSegment) same(o DirectedSegment) bool {
	return d.Index == o.Index && d.Direction == o.Direction
}

// Ring is a closed walk over directed segments: the head of each step is the
// tail of the next, and the head of the last step is the tail of the first.
type Ring struct {
	Segments []DirectedSegment
}

// Len returns the number of steps.
func (r Ring) Len() int {
	return len(r.Segments)
}

// Closed reports whether the ring satisfies the closure invariant.
func (r Ring) Closed() bool {
	n := len(r.Segments)
	if n == 0 {
		return false
	}
	for i := range r.Segments {
		if r.Segments[i].Head().ID != r.Segments[(i+1)%n].Tail().ID {
			return false
		}
	}
	return true
}

// Vertices returns the tail of every step, in order.
func (r Ring) Vertices() []Point {
	pts := make([]Point, len(r.Segments))
	for i, s := range r.Segments {
		pts[i] = s.Tail()
	}
	return pts
}

// SignedArea is the exact enclosed area: positive for counter-clockwise
// rings, negative for clockwise ones. Each arc adds the circular segment
// between its chord and the curve.
func (r Ring) SignedArea() float64 {
	var area float64
	for _, s := range r.Segments {
		p0, p1 := s.Tail(), s.Head()
		area += cross(p0.X, p0.Y, p1.X, p1.Y) / 2

		arc, ok := s.Curve.(Arc)
		if !ok {
			continue
		}
		c, err := arc.Circle()
		if err != nil {
			continue
		}
		sweep, _ := arc.Sweep()
		area += c.Radius * c.Radius / 2 * (sweep - math.Sin(sweep))
	}
	return area
}

// Polygon flattens the ring into a closed polyline (the closing vertex is
// not repeated). Arcs are sampled along their sweep.
func (r Ring) Polygon() [][2]float64 {
	var poly [][2]float64
	for _, s := range r.Segments {
		tail := s.Tail()
		poly = append(poly, [2]float64{tail.X, tail.Y})

		arc, ok := s.Curve.(Arc)
		if !ok {
			continue
		}
		c, err := arc.Circle()
		if err != nil {
			continue
		}
		sweep, _ := arc.Sweep()
		n := int(math.Ceil(math.Abs(sweep) / arcFlattenStep))
		start := math.Atan2(tail.Y-c.CY, tail.X-c.CX)
		for k := 1; k < n; k++ {
			theta := start + sweep*float64(k)/float64(n)
			poly = append(poly, [2]float64{
				c.CX + c.Radius*math.Cos(theta),
				c.CY + c.Radius*math.Sin(theta),
			})
		}
	}
	return poly
}

// Bounds returns the bounding box of the flattened ring.
func (r Ring) Bounds() (minX, minY, maxX, maxY float64) {
	poly := r.Polygon()
	if len(poly) == 0 {
		return 0, 0, 0, 0
	}
	minX, minY = poly[0][0], poly[0][1]
	maxX, maxY = minX, minY
	for _, p := range poly[1:] {
		minX = math.Min(minX, p[0])
		minY = math.Min(minY, p[1])
		maxX = math.Max(maxX, p[0])
		maxY = math.Max(maxY, p[1])
	}
	return minX, minY, maxX, maxY
}

// Contains reports whether (x, y) lies inside the ring, by ray casting
// against the flattened boundary.
func (r Ring) Contains(x, y float64) bool {
	return polygonContains(r.Polygon(), x, y)
}

func polygonContains(poly [][2]float64, x, y float64) bool {
	inside := false
	n := len(poly)
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		xi, yi := poly[i][0], poly[i][1]
		xj, yj := poly[j][0], poly[j][1]
		if (yi > y) != (yj > y) && x < (xj-xi)*(y-yi)/(yj-yi)+xi {
			inside = !inside
		}
	}
	return inside
}

func (r Ring) String() string {
	var b strings.Builder
	for i, s := range r.Segments {
		if i == 0 {
			b.WriteString(string(s.Tail().ID))
		}
		b.WriteString("->")
		b.WriteString(string(s.Head().ID))
	}
	return b.String()
}
