package sketch

import (
	"cmp"
	"errors"
	"log/slog"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/peterstace/simplefeatures/rtree"
)

// areaEpsilon is the smallest |signed area| a ring needs to bound anything.
const areaEpsilon = 1e-12

// Face is a bounded region: an outer ring and the holes cut out of it.
type Face struct {
	Outer Ring
	Holes []Ring
}

// Area is the outer area minus the hole areas.
func (f Face) Area() float64 {
	area := f.Outer.SignedArea()
	for _, h := range f.Holes {
		area += h.SignedArea()
	}
	return area
}

// Contains reports whether (x, y) is inside the outer ring and outside every
// hole.
func (f Face) Contains(x, y float64) bool {
	if !f.Outer.Contains(x, y) {
		return false
	}
	for _, h := range f.Holes {
		if h.Contains(x, y) {
			return false
		}
	}
	return true
}

type assemblyRing struct {
	ring      Ring
	area      float64
	component int
	poly      [][2]float64
	exterior  bool

	// parent is the outer ring a hole was attached to.
	parent *assemblyRing
	// mirrors is the attached hole an outer ring retraces in reverse.
	mirrors *assemblyRing
}

func (a *assemblyRing) contains(p Point) bool {
	return polygonContains(a.poly, p.X, p.Y)
}

// AssembleFaces groups traced rings into faces. Counter-clockwise rings are
// outer candidates and clockwise rings are hole candidates. The clockwise ring
// around each connected piece of the drawing either sits inside some outer
// ring, where it is a hole, or bounds the unbounded region and is dropped.
// Every other clockwise ring must be enclosed by an outer ring or the result
// is an ErrOrphanHole error.
//
// Every counter-clockwise ring becomes a face, islands and rings around
// further drawing included, except the empty inside of a hole cut straight
// into another face. WithNestedFaces reports that one too.
func AssembleFaces(rings []Ring, opts ...Option) ([]Face, error) {
	o := newOptions(opts)
	return assemble(rings, o)
}

func assemble(rings []Ring, o *options) ([]Face, error) {
	components := ringComponents(rings)

	var outers, holes []*assemblyRing
	for i, r := range rings {
		area := r.SignedArea()
		if math.Abs(area) <= areaEpsilon {
			o.logger.Debug("dropped zero-area ring", "ring", r.String())
			continue
		}
		ar := &assemblyRing{ring: r, area: area, component: components[i], poly: r.Polygon()}
		if area > 0 {
			outers = append(outers, ar)
		} else {
			holes = append(holes, ar)
		}
	}
	markExteriors(holes)

	items := make([]rtree.BulkItem, len(outers))
	for i, ar := range outers {
		items[i] = rtree.BulkItem{Box: ringBox(ar.poly), RecordID: i}
	}
	index := rtree.BulkLoad(items)

	// enclosing returns the smallest outer candidate from another component
	// that strictly contains p.
	enclosing := func(component int, p Point) *assemblyRing {
		var best *assemblyRing
		_ = index.RangeSearch(rtree.Box{MinX: p.X, MinY: p.Y, MaxX: p.X, MaxY: p.Y}, func(id int) error {
			cand := outers[id]
			if cand.component == component || !cand.contains(p) {
				return nil
			}
			if best == nil || cand.area < best.area {
				best = cand
			}
			return nil
		})
		return best
	}

	holesOf := make(map[*assemblyRing][]Ring)
	attached := make(map[string]*assemblyRing)
	var orphans []error
	for _, h := range holes {
		rep := h.ring.Segments[0].Tail()
		parent := enclosing(h.component, rep)
		switch {
		case parent != nil:
			h.parent = parent
			holesOf[parent] = append(holesOf[parent], h.ring)
			attached[segmentKey(h.ring)] = h
		case h.exterior:
			o.logger.Debug("dropped unbounded boundary", "ring", h.ring.String())
		default:
			orphans = append(orphans, newError(ErrOrphanHole, h.ring.Segments[0].Index, rep.ID,
				"ring %s is not inside any outer ring", h.ring.String()))
		}
	}
	if len(orphans) > 0 {
		return nil, errors.Join(orphans...)
	}
	for _, ar := range outers {
		ar.mirrors = attached[segmentKey(ar.ring)]
	}

	var faces []Face
	for _, ar := range outers {
		if !o.nested && ar.holeInterior(len(holesOf[ar])) {
			o.logger.Debug("dropped empty hole interior", "ring", ar.ring.String())
			continue
		}
		faces = append(faces, Face{Outer: ar.ring, Holes: holesOf[ar]})
	}

	slices.SortStableFunc(faces, func(a, b Face) int {
		if c := cmp.Compare(b.Outer.SignedArea(), a.Outer.SignedArea()); c != 0 {
			return c
		}
		return cmp.Compare(a.Outer.Segments[0].Tail().ID, b.Outer.Segments[0].Tail().ID)
	})
	return faces, nil
}

// holeInterior reports whether an outer ring with n holes only retraces a
// hole of a face that is not itself the inside of a hole. Such a ring
// bounds the void the hole cuts out. Drawing inside the hole, or a hole cut
// into a region that is already inside a hole, makes the ring a face.
func (a *assemblyRing) holeInterior(n int) bool {
	if a.mirrors == nil || n > 0 {
		return false
	}
	return a.mirrors.parent.mirrors == nil
}

// segmentKey identifies a ring by the segments it uses, ignoring direction
// and starting point.
func segmentKey(r Ring) string {
	steps := make([]string, len(r.Segments))
	for i, s := range r.Segments {
		a, b := string(s.Tail().ID), string(s.Head().ID)
		if b < a {
			a, b = b, a
		}
		steps[i] = strconv.Itoa(s.Index) + ":" + a + "-" + b
	}
	slices.Sort(steps)
	return strings.Join(steps, ",")
}

// markExteriors flags, per connected component, the clockwise ring with the
// largest area: the boundary between that piece and whatever surrounds it.
func markExteriors(holes []*assemblyRing) {
	largest := make(map[int]*assemblyRing)
	for _, h := range holes {
		if cur, ok := largest[h.component]; !ok || h.area < cur.area {
			largest[h.component] = h
		}
	}
	for _, h := range largest {
		h.exterior = true
	}
}

// ringComponents labels each ring with the connected component of the
// points it passes through.
func ringComponents(rings []Ring) []int {
	parent := make(map[PointID]PointID)
	var find func(PointID) PointID
	find = func(id PointID) PointID {
		p, ok := parent[id]
		if !ok || p == id {
			parent[id] = id
			return id
		}
		root := find(p)
		parent[id] = root
		return root
	}
	union := func(a, b PointID) {
		ra, rb := find(a), find(b)
		if ra != rb {
			parent[ra] = rb
		}
	}

	for _, r := range rings {
		for _, s := range r.Segments {
			union(s.Tail().ID, s.Head().ID)
		}
	}

	labels := make(map[PointID]int)
	out := make([]int, len(rings))
	for i, r := range rings {
		root := find(r.Segments[0].Tail().ID)
		label, ok := labels[root]
		if !ok {
			label = len(labels)
			labels[root] = label
		}
		out[i] = label
	}
	return out
}

func ringBox(poly [][2]float64) rtree.Box {
	box := rtree.Box{MinX: poly[0][0], MinY: poly[0][1], MaxX: poly[0][0], MaxY: poly[0][1]}
	for _, p := range poly[1:] {
		box.MinX = math.Min(box.MinX, p[0])
		box.MinY = math.Min(box.MinY, p[1])
		box.MaxX = math.Max(box.MaxX, p[0])
		box.MaxY = math.Max(box.MaxY, p[1])
	}
	return box
}

var discardLogger = slog.New(slog.DiscardHandler)
