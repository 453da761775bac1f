package engine

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"

	"github.com/inamate/facefinder/internal/document"
	"github.com/inamate/facefinder/internal/sketch"
)

// Solve converts doc and extracts its faces.
func Solve(doc *document.Sketch, opts ...sketch.Option) ([]sketch.Face, error) {
	core, err := doc.ToCore()
	if err != nil {
		return nil, err
	}
	return sketch.FindFaces(core, opts...)
}

// Result is the outcome of solving one sketch of a batch.
type Result struct {
	SketchID string          `json:"sketchId"`
	Faces    []document.Face `json:"faces"`
	Code     string          `json:"error,omitempty"`
	Detail   string          `json:"detail,omitempty"`
	Err      error           `json:"-"`
}

// SolveBatch solves independent sketches on at most workers goroutines
// (unlimited when workers <= 0). Results are in input order; a sketch that
// fails to solve records its error in its Result. The returned error is
// non-nil only when ctx is done before every sketch was solved.
func SolveBatch(ctx context.Context, docs []*document.Sketch, workers int, opts ...sketch.Option) ([]Result, error) {
	g, ctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}

	results := make([]Result, len(docs))
	for i, doc := range docs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			faces, err := Solve(doc, opts...)
			res := Result{SketchID: doc.ID, Err: err}
			if err != nil {
				res.Code = ErrorCode(err)
				res.Detail = err.Error()
			} else {
				res.Faces = document.FacesFromCore(faces, doc.Segments)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// ErrorCode names the kind of a solve failure for clients.
func ErrorCode(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, sketch.ErrDegenerateArc):
		return "degenerate_arc"
	case errors.Is(err, sketch.ErrDegenerateCurve):
		return "degenerate_curve"
	case errors.Is(err, sketch.ErrAlreadyUsed):
		return "already_used"
	case errors.Is(err, sketch.ErrAmbiguousTurn):
		return "ambiguous_turn"
	case errors.Is(err, sketch.ErrNoClosureFound):
		return "no_closure_found"
	case errors.Is(err, sketch.ErrOrphanHole):
		return "orphan_hole"
	case errors.Is(err, document.ErrUnknownPoint),
		errors.Is(err, document.ErrUnknownSegmentType),
		errors.Is(err, document.ErrMissingTransit):
		return "invalid_document"
	default:
		return "internal"
	}
}
