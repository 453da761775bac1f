package sketch

import (
	"fmt"
	"math"
)

// PointID identifies a point. It is the identity used for hashing and for
// deterministic ordering; coordinates are purely geometric.
type PointID string

// Point is an immutable sketch point.
type Point struct {
	X  float64
	Y  float64
	ID PointID
}

// Pt returns the point (x, y) with the given id.
func Pt(id PointID, x, y float64) Point {
	return Point{X: x, Y: y, ID: id}
}

// Equal reports whether p and o have the same id and coordinates.
func (p Point) Equal(o Point) bool {
	return p.ID == o.ID && p.X == o.X && p.Y == o.Y
}

func (p Point) String() string {
	return fmt.Sprintf("%s(%g, %g)", p.ID, p.X, p.Y)
}

func (p Point) sub(o Point) (float64, float64) {
	return p.X - o.X, p.Y - o.Y
}

// FindAngle returns the counter-clockwise angle at b from ray b→a to ray b→c,
// in (0, 2π]. Identical rays give 2π.
func FindAngle(a, b, c Point) float64 {
	baX, baY := a.sub(b)
	bcX, bcY := c.sub(b)
	return normalizePositive(math.Atan2(bcY, bcX) - math.Atan2(baY, baX))
}

// normalizePositive maps an angle into (0, 2π].
func normalizePositive(theta float64) float64 {
	theta = math.Mod(theta, 2*math.Pi)
	if theta <= 0 {
		theta += 2 * math.Pi
	}
	return theta
}

func cross(ax, ay, bx, by float64) float64 {
	return ax*by - ay*bx
}
