package engine

import (
	"encoding/json"

	"github.com/inamate/facefinder/internal/document"
	"github.com/inamate/facefinder/internal/sketch"
)

// Engine owns a sketch document and its solved faces. Faces are recomputed
// lazily after the document changes. It is not safe for concurrent use.
type Engine struct {
	// Document state
	doc  *document.Sketch
	opts []sketch.Option

	// Solved state, valid when dirty is false
	faces []sketch.Face
	err   error
	scene *Scene

	// Sketch space to screen space
	view Matrix2D

	// Dirty flag - faces need re-solving
	dirty bool
}

// NewEngine creates a new engine instance. opts are passed to every solve.
func NewEngine(opts ...sketch.Option) *Engine {
	return &Engine{
		opts:  opts,
		view:  Identity(),
		scene: &Scene{},
		dirty: true,
	}
}

// --- Commands (frontend → backend) ---

// LoadDocument loads a document from JSON and resets the view.
func (e *Engine) LoadDocument(jsonData string) error {
	var doc document.Sketch
	if err := json.Unmarshal([]byte(jsonData), &doc); err != nil {
		return err
	}

	e.SetDocument(&doc)
	e.view = Identity()
	return nil
}

// UpdateDocument reloads a document from JSON while preserving the view.
// Used when the document changes during editing.
func (e *Engine) UpdateDocument(jsonData string) error {
	var doc document.Sketch
	if err := json.Unmarshal([]byte(jsonData), &doc); err != nil {
		return err
	}

	e.SetDocument(&doc)
	return nil
}

// LoadSample loads the built-in sample sketch.
func (e *Engine) LoadSample(sketchID string) {
	e.SetDocument(document.NewSampleSketch(sketchID))
	e.view = Identity()
}

// SetDocument replaces the document. The engine keeps doc; callers must not
// modify it afterwards.
func (e *Engine) SetDocument(doc *document.Sketch) {
	e.doc = doc
	e.dirty = true
}

// SetView sets the sketch-to-screen transform used by Render and HitTest.
func (e *Engine) SetView(m Matrix2D) {
	e.view = m
}

// View returns the current sketch-to-screen transform.
func (e *Engine) View() Matrix2D {
	return e.view
}

// FitView fits the whole sketch into a width x height viewport.
func (e *Engine) FitView(width, height, margin float64) {
	e.solve()
	e.view = FitView(e.scene.Bounds, width, height, margin)
}

// --- Queries (frontend ← backend) ---

// Faces returns the faces of the current document, solving it if needed.
func (e *Engine) Faces() ([]sketch.Face, error) {
	e.solve()
	return e.faces, e.err
}

// FacesJSON returns the faces in wire form, or the solve error, as JSON.
func (e *Engine) FacesJSON() string {
	faces, err := e.Faces()
	var payload any
	if err != nil {
		payload = map[string]string{
			"error":  ErrorCode(err),
			"detail": err.Error(),
		}
	} else {
		var segments []document.Segment
		if e.doc != nil {
			segments = e.doc.Segments
		}
		payload = map[string]any{"faces": document.FacesFromCore(faces, segments)}
	}
	data, _ := json.Marshal(payload)
	return string(data)
}

// Render returns draw commands for the current document as JSON.
func (e *Engine) Render() string {
	if e.doc == nil {
		return "[]"
	}
	e.solve()

	commands := CompileDrawCommands(e.scene, e.view)
	result, _ := DrawCommandsToJSON(commands)
	return result
}

// HitTest returns the index of the innermost face under the screen point
// (x, y), or -1.
func (e *Engine) HitTest(x, y float64) int {
	if e.doc == nil {
		return -1
	}
	e.solve()
	return HitTest(e.scene, e.view, x, y)
}

// GetBounds returns the bounding box of the sketch's points as JSON.
func (e *Engine) GetBounds() string {
	e.solve()
	return RectToJSON(e.scene.Bounds)
}

// GetDocument returns the full document as JSON (for debugging/sync).
func (e *Engine) GetDocument() string {
	if e.doc == nil {
		return "{}"
	}
	data, _ := json.Marshal(e.doc)
	return string(data)
}

// Document returns the current document.
func (e *Engine) Document() *document.Sketch {
	return e.doc
}

func (e *Engine) solve() {
	if !e.dirty {
		return
	}
	e.dirty = false

	if e.doc == nil {
		e.faces, e.err = nil, nil
		e.scene = &Scene{}
		return
	}

	e.faces, e.err = Solve(e.doc, e.opts...)
	e.scene = BuildScene(e.doc, e.faces)
}
