package sketch

import (
	"log/slog"
	"math"
)

// angleTolerance is how close two tangents must be to count as the same
// direction.
const angleTolerance = 1e-9

// TraceRings walks every unused segment direction of a pruned sketch and
// returns the closed rings found, in discovery order. At each vertex the walk
// takes the hardest counter-clockwise turn, so bounded regions come out
// counter-clockwise and the outside boundary of every connected piece comes
// out clockwise. A walk closes when it would take its first step again, not
// when it first returns to its starting point, so a ring may pass through a
// pinch vertex twice. Direction flags on the sketch's segments are consumed.
func TraceRings(sk *Sketch, g *Graph) ([]Ring, error) {
	t := &tracer{sketch: sk, graph: g, limit: g.Entries(), logger: discardLogger}
	return t.traceAll()
}

type tracer struct {
	sketch *Sketch
	graph  *Graph
	limit  int
	logger *slog.Logger
}

func (t *tracer) traceAll() ([]Ring, error) {
	var rings []Ring
	for i, seg := range t.sketch.Segments {
		for _, d := range []Direction{Forward, Backward} {
			if seg.Used(d) {
				continue
			}
			ring, err := t.trace(DirectedSegment{Index: i, Direction: d, Curve: seg.directed(d)})
			if err != nil {
				return nil, err
			}
			t.logger.Debug("traced ring", "ring", ring.String(), "area", ring.SignedArea())
			rings = append(rings, ring)
		}
	}
	return rings, nil
}

// trace follows the turn rule from seed until the walk would take seed again.
func (t *tracer) trace(seed DirectedSegment) (Ring, error) {
	if err := t.sketch.Segments[seed.Index].MarkUsed(seed.Direction); err != nil {
		return Ring{}, withSegment(err, seed.Index)
	}

	ring := Ring{Segments: []DirectedSegment{seed}}
	start := seed.Tail()
	current := seed

	for steps := 1; ; steps++ {
		if steps > t.limit {
			return Ring{}, newError(ErrNoClosureFound, seed.Index, start.ID,
				"walk exceeded %d steps", t.limit)
		}

		next, err := t.next(current)
		if err != nil {
			return Ring{}, err
		}
		if next.same(seed) && current.Head().ID == start.ID {
			return ring, nil
		}

		if err := t.sketch.Segments[next.Index].MarkUsed(next.Direction); err != nil {
			return Ring{}, withSegment(err, next.Index)
		}
		ring.Segments = append(ring.Segments, next)
		current = next
	}
}

// next picks the step leaving current's head with the smallest clockwise
// sweep from the candidate to the ray pointing back along current, which is
// the hardest left turn.
func (t *tracer) next(current DirectedSegment) (DirectedSegment, error) {
	vertex := current.Head()

	back := current.Curve.Reverse()
	backAngle, err := back.AngleAt(vertex)
	if err != nil {
		return DirectedSegment{}, withSegment(err, current.Index)
	}
	backCurvature := back.Curvature()

	var (
		best      DirectedSegment
		bestSweep = math.Inf(1)
		bestCurve float64
		found     bool
		tied      bool
	)
	for _, conn := range t.graph.Connections[vertex.ID] {
		if conn.Segment == current.Index {
			continue
		}
		out := conn.Outgoing()
		outAngle, err := out.AngleAt(vertex)
		if err != nil {
			return DirectedSegment{}, withSegment(err, conn.Segment)
		}
		curvature := out.Curvature()
		sweep := turnSweep(outAngle, curvature, backAngle, backCurvature)

		switch {
		case !found || sweep < bestSweep-angleTolerance:
			tied = false
		case math.Abs(sweep-bestSweep) <= angleTolerance:
			// Same tangent: the curve bending further left sits closer to
			// the back ray when measured clockwise.
			if curvature == bestCurve {
				tied = true
				continue
			}
			if curvature < bestCurve {
				continue
			}
			tied = false
		default:
			continue
		}

		best = DirectedSegment{Index: conn.Segment, Direction: conn.Direction(), Curve: out}
		bestSweep = sweep
		bestCurve = curvature
		found = true
	}

	if tied {
		return DirectedSegment{}, newError(ErrAmbiguousTurn, current.Index, vertex.ID,
			"several segments leave at %.6f rad", bestSweep)
	}
	if !found {
		// Dead end: the only way on is back along the same segment.
		return DirectedSegment{
			Index:     current.Index,
			Direction: current.Direction.Opposite(),
			Curve:     back,
		}, nil
	}
	return best, nil
}

// turnSweep is the counter-clockwise angle from the outgoing tangent to the
// back tangent, in (0, 2π]. When the two tangents coincide the curvatures
// decide whether the candidate sits just clockwise of the back ray (sweep
// near 0) or just counter-clockwise of it (sweep near 2π).
func turnSweep(outAngle, outCurvature, backAngle, backCurvature float64) float64 {
	sweep := normalizePositive(backAngle - outAngle)
	if sweep > angleTolerance && sweep < 2*math.Pi-angleTolerance {
		return sweep
	}
	if backCurvature > outCurvature {
		return 0
	}
	return 2 * math.Pi
}

func withSegment(err error, index int) error {
	if e, ok := err.(*Error); ok && e.Segment < 0 {
		e.Segment = index
	}
	return err
}
