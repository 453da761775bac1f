package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/inamate/facefinder/internal/document"
	"github.com/inamate/facefinder/internal/sketch"
)

func triangleDoc(id string, x float64) *document.Sketch {
	return &document.Sketch{
		ID: id,
		Points: map[string]document.Point{
			"A": {X: x, Y: 0},
			"B": {X: x + 1, Y: 0},
			"C": {X: x, Y: 1},
		},
		Segments: []document.Segment{
			{ID: "ab", Type: document.SegmentTypeLine, Start: "A", End: "B"},
			{ID: "bc", Type: document.SegmentTypeLine, Start: "B", End: "C"},
			{ID: "ca", Type: document.SegmentTypeLine, Start: "C", End: "A"},
		},
	}
}

func TestSolveBatch(t *testing.T) {
	var docs []*document.Sketch
	for i := range 8 {
		docs = append(docs, triangleDoc(fmt.Sprintf("sketch_%d", i), float64(i)))
	}
	broken := triangleDoc("sketch_broken", 0)
	broken.Segments[1].End = "missing"
	docs = append(docs, broken)

	results, err := SolveBatch(context.Background(), docs, 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != len(docs) {
		t.Fatalf("got %d results, want %d", len(results), len(docs))
	}
	for i, res := range results[:8] {
		if res.SketchID != docs[i].ID {
			t.Errorf("result %d is for %s, want %s", i, res.SketchID, docs[i].ID)
		}
		if res.Err != nil || len(res.Faces) != 1 {
			t.Errorf("result %d: got %d faces, err %v", i, len(res.Faces), res.Err)
		}
	}

	last := results[8]
	if !errors.Is(last.Err, document.ErrUnknownPoint) {
		t.Errorf("got %v, want %v", last.Err, document.ErrUnknownPoint)
	}
	diff(t, "invalid_document", last.Code)
}

func TestSolveBatchNoFaces(t *testing.T) {
	open := triangleDoc("sketch_open", 0)
	open.Segments = open.Segments[:2]

	results, err := SolveBatch(context.Background(), []*document.Sketch{open}, 1)
	if err != nil {
		t.Fatal(err)
	}
	if results[0].Err != nil {
		t.Fatal(results[0].Err)
	}
	data, err := json.Marshal(results[0])
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"faces":[]`) {
		t.Errorf("got %s, want an empty faces array", data)
	}
}

func TestSolveBatchCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := SolveBatch(ctx, []*document.Sketch{triangleDoc("a", 0), triangleDoc("b", 2)}, 1)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("got %v, want %v", err, context.Canceled)
	}
}

func TestErrorCode(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{sketch.ErrDegenerateArc, "degenerate_arc"},
		{sketch.ErrDegenerateCurve, "degenerate_curve"},
		{sketch.ErrAlreadyUsed, "already_used"},
		{sketch.ErrAmbiguousTurn, "ambiguous_turn"},
		{sketch.ErrNoClosureFound, "no_closure_found"},
		{errors.Join(sketch.ErrOrphanHole, sketch.ErrOrphanHole), "orphan_hole"},
		{fmt.Errorf("segment 2: %w", document.ErrMissingTransit), "invalid_document"},
		{errors.New("boom"), "internal"},
	}
	for _, tt := range tests {
		if got := ErrorCode(tt.err); got != tt.want {
			t.Errorf("ErrorCode(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}
