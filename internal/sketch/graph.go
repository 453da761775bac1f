package sketch

// Connection is one end of a curve as seen from a point.
type Connection struct {
	Neighbor PointID
	Curve    Curve
	// Forward is true at the curve's start and false at its end.
	Forward bool
	// Segment indexes the owning segment in the sketch.
	Segment int
}

// Direction is the traversal direction that leaves the point through c.
func (c Connection) Direction() Direction {
	if c.Forward {
		return Forward
	}
	return Backward
}

// Outgoing returns the curve oriented away from the point.
func (c Connection) Outgoing() Curve {
	if c.Forward {
		return c.Curve
	}
	return c.Curve.Reverse()
}

// Graph is the point registry and adjacency derived from a sketch.
type Graph struct {
	Points      map[PointID]Point
	Connections map[PointID][]Connection
}

// Degree returns the number of curve ends at id.
func (g *Graph) Degree(id PointID) int {
	return len(g.Connections[id])
}

// Entries returns the total number of adjacency entries.
func (g *Graph) Entries() int {
	n := 0
	for _, conns := range g.Connections {
		n += len(conns)
	}
	return n
}

// BuildGraph validates every curve of sk and derives its graph. The sketch
// is not modified.
func BuildGraph(sk *Sketch) (*Graph, error) {
	g := &Graph{
		Points:      make(map[PointID]Point),
		Connections: make(map[PointID][]Connection),
	}

	for _, p := range sk.Points {
		g.Points[p.ID] = p
	}

	for i, seg := range sk.Segments {
		c := seg.LineOrArc()
		if err := c.Validate(); err != nil {
			if e, ok := err.(*Error); ok {
				e.Segment = i
			}
			return nil, err
		}

		start, end := c.Start(), c.End()
		g.Points[start.ID] = start
		g.Points[end.ID] = end

		g.Connections[start.ID] = append(g.Connections[start.ID], Connection{
			Neighbor: end.ID,
			Curve:    c,
			Forward:  true,
			Segment:  i,
		})
		g.Connections[end.ID] = append(g.Connections[end.ID], Connection{
			Neighbor: start.ID,
			Curve:    c,
			Forward:  false,
			Segment:  i,
		})
	}

	return g, nil
}
