package document

import (
	"errors"
	"fmt"
	"slices"

	"github.com/inamate/facefinder/internal/sketch"
)

var (
	ErrUnknownPoint       = errors.New("segment references an unknown point")
	ErrUnknownSegmentType = errors.New("unknown segment type")
	ErrMissingTransit     = errors.New("arc has no transit point")
)

// ToCore converts s into the solver's representation. Points that no segment
// starts or ends at become free points, in id order.
func (s *Sketch) ToCore() (*sketch.Sketch, error) {
	lookup := func(seg int, id string) (sketch.Point, error) {
		p, ok := s.Points[id]
		if !ok {
			return sketch.Point{}, fmt.Errorf("segment %d: %w: %q", seg, ErrUnknownPoint, id)
		}
		return sketch.Pt(sketch.PointID(id), p.X, p.Y), nil
	}

	core := &sketch.Sketch{}
	attached := make(map[string]bool)
	for i, seg := range s.Segments {
		start, err := lookup(i, seg.Start)
		if err != nil {
			return nil, err
		}
		end, err := lookup(i, seg.End)
		if err != nil {
			return nil, err
		}
		attached[seg.Start] = true
		attached[seg.End] = true

		switch seg.Type {
		case SegmentTypeLine:
			core.Add(sketch.NewLine(start, end))
		case SegmentTypeArc:
			if seg.Transit == "" {
				return nil, fmt.Errorf("segment %d: %w", i, ErrMissingTransit)
			}
			transit, err := lookup(i, seg.Transit)
			if err != nil {
				return nil, err
			}
			attached[seg.Transit] = true
			core.Add(sketch.NewArc(start, end, transit))
		default:
			return nil, fmt.Errorf("segment %d: %w: %q", i, ErrUnknownSegmentType, seg.Type)
		}
	}

	var free []string
	for id := range s.Points {
		if !attached[id] {
			free = append(free, id)
		}
	}
	slices.Sort(free)
	for _, id := range free {
		p := s.Points[id]
		core.AddPoint(sketch.Pt(sketch.PointID(id), p.X, p.Y))
	}
	return core, nil
}

// FacesFromCore converts solved faces to their wire form. segments is the
// sketch the faces were solved from and supplies segment ids; it may be nil.
func FacesFromCore(faces []sketch.Face, segments []Segment) []Face {
	out := make([]Face, 0, len(faces))
	for _, f := range faces {
		wf := Face{
			Outer: ringFromCore(f.Outer, segments),
			Holes: make([]Ring, 0, len(f.Holes)),
			Area:  f.Area(),
		}
		for _, h := range f.Holes {
			wf.Holes = append(wf.Holes, ringFromCore(h, segments))
		}
		out = append(out, wf)
	}
	return out
}

func ringFromCore(r sketch.Ring, segments []Segment) Ring {
	wr := Ring{
		Steps:    make([]Step, 0, r.Len()),
		Vertices: make([]string, 0, r.Len()),
		Area:     r.SignedArea(),
	}
	for _, s := range r.Segments {
		step := Step{
			Segment: s.Index,
			Start:   string(s.Tail().ID),
			End:     string(s.Head().ID),
			Forward: s.Direction == sketch.Forward,
		}
		if s.Index < len(segments) {
			step.SegmentID = segments[s.Index].ID
		}
		wr.Steps = append(wr.Steps, step)
		wr.Vertices = append(wr.Vertices, step.Start)
	}
	return wr
}
