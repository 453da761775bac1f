//go:build js && wasm

package main

import (
	"syscall/js"

	"github.com/inamate/facefinder/internal/engine"
	"github.com/inamate/facefinder/internal/sketch"
)

var eng *engine.Engine

func main() {
	eng = engine.NewEngine()

	// Create the engine API object
	faceEngine := js.Global().Get("Object").New()

	// --- Commands (frontend → backend) ---
	faceEngine.Set("loadDocument", js.FuncOf(loadDocument))
	faceEngine.Set("updateDocument", js.FuncOf(updateDocument))
	faceEngine.Set("loadSample", js.FuncOf(loadSample))
	faceEngine.Set("setView", js.FuncOf(setView))
	faceEngine.Set("fitView", js.FuncOf(fitView))
	faceEngine.Set("setNestedFaces", js.FuncOf(setNestedFaces))

	// --- Queries (frontend ← backend) ---
	faceEngine.Set("getFaces", js.FuncOf(getFaces))
	faceEngine.Set("render", js.FuncOf(render))
	faceEngine.Set("hitTest", js.FuncOf(hitTest))
	faceEngine.Set("getBounds", js.FuncOf(getBounds))
	faceEngine.Set("getDocument", js.FuncOf(getDocument))

	// Register on global scope
	js.Global().Set("faceEngine", faceEngine)

	// Signal that WASM is ready
	js.Global().Set("faceEngineReady", js.ValueOf(true))

	// Keep Go runtime alive
	select {}
}

// --- Command Handlers ---

func loadDocument(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return js.ValueOf(map[string]interface{}{"error": "missing document JSON"})
	}

	if err := eng.LoadDocument(args[0].String()); err != nil {
		return js.ValueOf(map[string]interface{}{"error": err.Error()})
	}

	return js.ValueOf(map[string]interface{}{"ok": true})
}

func updateDocument(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return js.ValueOf(map[string]interface{}{"error": "missing document JSON"})
	}

	if err := eng.UpdateDocument(args[0].String()); err != nil {
		return js.ValueOf(map[string]interface{}{"error": err.Error()})
	}

	return js.ValueOf(map[string]interface{}{"ok": true})
}

func loadSample(this js.Value, args []js.Value) interface{} {
	sketchID := "sketch_sample"
	if len(args) > 0 && args[0].Type() == js.TypeString {
		sketchID = args[0].String()
	}

	eng.LoadSample(sketchID)
	return js.ValueOf(map[string]interface{}{"ok": true})
}

// setView takes the six affine components [a, b, c, d, e, f].
func setView(this js.Value, args []js.Value) interface{} {
	if len(args) < 6 {
		return nil
	}
	var m engine.Matrix2D
	for i := range m {
		m[i] = args[i].Float()
	}
	eng.SetView(m)
	return nil
}

func fitView(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return nil
	}
	margin := 0.0
	if len(args) > 2 {
		margin = args[2].Float()
	}
	eng.FitView(args[0].Float(), args[1].Float(), margin)
	return nil
}

// setNestedFaces switches nested face reporting and re-solves on next query.
// The current document and view are kept.
func setNestedFaces(this js.Value, args []js.Value) interface{} {
	var opts []sketch.Option
	if len(args) > 0 && args[0].Truthy() {
		opts = append(opts, sketch.WithNestedFaces())
	}
	doc := eng.Document()
	view := eng.View()
	eng = engine.NewEngine(opts...)
	if doc != nil {
		eng.SetDocument(doc)
	}
	eng.SetView(view)
	return nil
}

// --- Query Handlers ---

func getFaces(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.FacesJSON())
}

func render(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.Render())
}

func hitTest(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return js.ValueOf(-1)
	}
	return js.ValueOf(eng.HitTest(args[0].Float(), args[1].Float()))
}

func getBounds(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.GetBounds())
}

func getDocument(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.GetDocument())
}
