// Package sketch extracts closed planar faces from a 2D sketch of line and
// circular-arc segments that meet at shared points.
//
// FindFaces runs the whole pipeline: every curve is validated, points that
// cannot lie on a closed loop are pruned until none remain, rings are traced
// over the connectivity graph by always taking the hardest left turn, and the
// rings are assembled into faces with holes by containment.
//
// The y axis points up: counter-clockwise rings have positive signed area
// and bound faces, clockwise rings are holes or the outline of a connected
// piece of the drawing.
package sketch

import (
	"errors"
	"log/slog"
)

// Option configures FindFaces and AssembleFaces.
type Option func(*options)

type options struct {
	logger    *slog.Logger
	nested    bool
	stepLimit int
}

func newOptions(opts []Option) *options {
	o := &options{logger: discardLogger}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithLogger logs pruning passes, traced rings and assembly decisions at
// debug level.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithNestedFaces reports every counter-clockwise ring as a face. By default
// the empty inside of a hole cut into a face is left out, since it only
// retraces the hole.
func WithNestedFaces() Option {
	return func(o *options) {
		o.nested = true
	}
}

// WithStepLimit bounds the length of a single ring walk. The default is the
// number of adjacency entries in the pruned graph, which no valid ring can
// exceed.
func WithStepLimit(n int) Option {
	return func(o *options) {
		o.stepLimit = n
	}
}

// FindFaces returns the faces bounded by the segments of sk. The sketch's
// segment usage flags are reset before tracing, so a sketch can be solved
// more than once. It returns either every face or a single error, never both.
func FindFaces(sk *Sketch, opts ...Option) ([]Face, error) {
	o := newOptions(opts)

	cleaned, err := prune(sk, o.logger)
	if err != nil {
		return nil, err
	}
	if len(cleaned.Segments) == 0 {
		return nil, nil
	}
	cleaned.ResetUsage()

	g, err := BuildGraph(cleaned)
	if err != nil {
		return nil, err
	}

	t := &tracer{sketch: cleaned, graph: g, limit: g.Entries(), logger: o.logger}
	if o.stepLimit > 0 {
		t.limit = o.stepLimit
	}

	// Ring steps and errors refer to positions in sk, not in the pruned copy.
	origin := segmentOrigins(sk, cleaned)
	rings, err := t.traceAll()
	if err != nil {
		var e *Error
		if errors.As(err, &e) && e.Segment >= 0 {
			e.Segment = origin[e.Segment]
		}
		return nil, err
	}
	for _, r := range rings {
		for i := range r.Segments {
			r.Segments[i].Index = origin[r.Segments[i].Index]
		}
	}
	o.logger.Debug("traced rings", "count", len(rings), "segments", len(cleaned.Segments))

	return assemble(rings, o)
}

// segmentOrigins maps each segment position in pruned to its position in sk.
func segmentOrigins(sk, pruned *Sketch) []int {
	pos := make(map[*Segment]int, len(sk.Segments))
	for i, seg := range sk.Segments {
		pos[seg] = i
	}
	origin := make([]int, len(pruned.Segments))
	for i, seg := range pruned.Segments {
		origin[i] = pos[seg]
	}
	return origin
}
