package sketch

import (
	"log/slog"
	"slices"
)

// Prune repeatedly removes points that cannot lie on a closed loop (fewer
// than two curve ends) together with the segments touching them, until no
// such point remains. The surviving segments are the same values as in sk,
// in the same order. An empty result is valid.
func Prune(sk *Sketch) (*Sketch, error) {
	return prune(sk, discardLogger)
}

func prune(sk *Sketch, logger *slog.Logger) (*Sketch, error) {
	for pass := 1; ; pass++ {
		g, err := BuildGraph(sk)
		if err != nil {
			return nil, err
		}

		degens := degeneratePoints(g)
		if len(degens) == 0 {
			return sk, nil
		}

		next := &Sketch{}
		for _, seg := range sk.Segments {
			c := seg.LineOrArc()
			if degens[c.Start().ID] || degens[c.End().ID] {
				continue
			}
			next.Segments = append(next.Segments, seg)
		}
		for _, p := range sk.Points {
			if !degens[p.ID] {
				next.Points = append(next.Points, p)
			}
		}

		logger.Debug("pruned degenerate points",
			"pass", pass,
			"points", sortedIDs(degens),
			"segments_removed", len(sk.Segments)-len(next.Segments))
		sk = next
	}
}

// degeneratePoints returns every registered point with at most one curve end.
func degeneratePoints(g *Graph) map[PointID]bool {
	degens := make(map[PointID]bool)
	for id := range g.Points {
		if g.Degree(id) <= 1 {
			degens[id] = true
		}
	}
	return degens
}

func sortedIDs(set map[PointID]bool) []PointID {
	ids := make([]PointID, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
