package engine

import (
	"math"

	"github.com/inamate/facefinder/internal/document"
	"github.com/inamate/facefinder/internal/sketch"
)

// FacePalette is cycled through to fill faces.
var FacePalette = []string{"#e94560", "#0f3460", "#53d769", "#f5a623", "#8e44ad", "#16a085"}

// BuildScene builds a render-ready scene from a document and the faces solved
// from it. faces may be nil when solving failed; segments are still drawn.
func BuildScene(doc *document.Sketch, faces []sketch.Face) *Scene {
	sc := &Scene{}
	if doc == nil {
		return sc
	}

	sc.Bounds = pointBounds(doc)

	for i, f := range faces {
		node := &FaceNode{
			Index: i,
			Face:  f,
			Area:  f.Area(),
			Path:  ringPath(f.Outer),
			Fill:  FacePalette[i%len(FacePalette)],
		}
		for _, h := range f.Holes {
			node.Path = append(node.Path, ringPath(h)...)
		}
		node.Bounds = RectFromBounds(f.Outer.Bounds())
		sc.Faces = append(sc.Faces, node)
	}

	for _, seg := range doc.Segments {
		if path := segmentPath(doc, seg); path != nil {
			sc.Segments = append(sc.Segments, &SegmentNode{ID: seg.ID, Path: path})
		}
	}

	return sc
}

// ringPath generates a closed sub-path that walks the ring.
func ringPath(r sketch.Ring) []PathCommand {
	if r.Len() == 0 {
		return nil
	}

	start := r.Segments[0].Tail()
	path := []PathCommand{{"M", start.X, start.Y}}
	for _, s := range r.Segments {
		path = append(path, curveCommand(s.Curve))
	}
	return append(path, PathCommand{"Z"})
}

// curveCommand draws c from the current point to its end.
func curveCommand(c sketch.Curve) PathCommand {
	end := c.End()
	arc, ok := c.(sketch.Arc)
	if !ok {
		return PathCommand{"L", end.X, end.Y}
	}
	circle, err := arc.Circle()
	if err != nil {
		return PathCommand{"L", end.X, end.Y}
	}
	sweep, _ := arc.Sweep()
	a0 := math.Atan2(arc.P0.Y-circle.CY, arc.P0.X-circle.CX)
	// Canvas angles grow in the direction of increasing sketch angle, so a
	// clockwise (negative) sweep draws anticlockwise.
	return PathCommand{"A", circle.CX, circle.CY, circle.Radius, a0, a0 + sweep, sweep < 0}
}

// segmentPath generates an open path for one document segment, or nil when
// it references missing points.
func segmentPath(doc *document.Sketch, seg document.Segment) []PathCommand {
	start, ok := doc.Points[seg.Start]
	if !ok {
		return nil
	}
	end, ok := doc.Points[seg.End]
	if !ok {
		return nil
	}

	p0 := sketch.Pt(sketch.PointID(seg.Start), start.X, start.Y)
	p1 := sketch.Pt(sketch.PointID(seg.End), end.X, end.Y)
	var c sketch.Curve = sketch.NewLine(p0, p1)
	if seg.Type == document.SegmentTypeArc {
		if t, ok := doc.Points[seg.Transit]; ok {
			c = sketch.NewArc(p0, p1, sketch.Pt(sketch.PointID(seg.Transit), t.X, t.Y))
		}
	}
	return []PathCommand{{"M", p0.X, p0.Y}, curveCommand(c)}
}

// pointBounds computes the bounding box of every point in the document.
func pointBounds(doc *document.Sketch) Rect {
	first := true
	var minX, minY, maxX, maxY float64
	for _, p := range doc.Points {
		if first {
			minX, maxX = p.X, p.X
			minY, maxY = p.Y, p.Y
			first = false
			continue
		}
		minX = math.Min(minX, p.X)
		maxX = math.Max(maxX, p.X)
		minY = math.Min(minY, p.Y)
		maxY = math.Max(maxY, p.Y)
	}
	if first {
		return Rect{}
	}
	return RectFromBounds(minX, minY, maxX, maxY)
}
