package engine

import (
	"encoding/json"
	"fmt"
)

const (
	segmentStroke      = "#e0e0e0"
	segmentStrokeWidth = 1.5
	faceOpacity        = 0.6
)

// DrawCommand represents a single drawing operation for the frontend to execute.
// The frontend receives a list of these and executes them on a Canvas2D context.
type DrawCommand struct {
	Op          string        `json:"op"`                    // Operation: "face" or "segment"
	ID          string        `json:"id,omitempty"`          // For hit correlation
	Transform   []float64     `json:"transform,omitempty"`   // [a, b, c, d, e, f] affine matrix
	Path        []PathCommand `json:"path,omitempty"`        // Path data
	Fill        string        `json:"fill,omitempty"`        // Fill color
	FillRule    string        `json:"fillRule,omitempty"`    // "evenodd" so holes stay open
	Stroke      string        `json:"stroke,omitempty"`      // Stroke color
	StrokeWidth float64       `json:"strokeWidth,omitempty"` // Stroke width in screen pixels
	Opacity     float64       `json:"opacity,omitempty"`     // Global alpha
}

// FaceCommandID is the draw command id of the face at index i.
func FaceCommandID(i int) string {
	return fmt.Sprintf("face-%d", i)
}

// CompileDrawCommands generates a draw command buffer from a scene.
// Faces are emitted largest first so nested faces paint over their parents,
// then every segment is stroked on top.
func CompileDrawCommands(sc *Scene, view Matrix2D) []DrawCommand {
	if sc == nil {
		return nil
	}

	transform := view.ToSlice()
	commands := make([]DrawCommand, 0, len(sc.Faces)+len(sc.Segments))
	for _, f := range sc.Faces {
		commands = append(commands, DrawCommand{
			Op:        "face",
			ID:        FaceCommandID(f.Index),
			Transform: transform,
			Path:      f.Path,
			Fill:      f.Fill,
			FillRule:  "evenodd",
			Opacity:   faceOpacity,
		})
	}
	for _, s := range sc.Segments {
		commands = append(commands, DrawCommand{
			Op:          "segment",
			ID:          s.ID,
			Transform:   transform,
			Path:        s.Path,
			Stroke:      segmentStroke,
			StrokeWidth: segmentStrokeWidth,
			Opacity:     1,
		})
	}
	return commands
}

// DrawCommandsToJSON serializes draw commands to JSON.
func DrawCommandsToJSON(commands []DrawCommand) (string, error) {
	data, err := json.Marshal(commands)
	if err != nil {
		return "[]", err
	}
	return string(data), nil
}

// HitTest returns the index of the innermost face containing the view-space
// point (x, y), or -1. Points inside a hole do not hit the face around it.
func HitTest(sc *Scene, view Matrix2D, x, y float64) int {
	if sc == nil {
		return -1
	}

	wx, wy := view.Invert().TransformPoint(x, y)

	hit := -1
	var hitArea float64
	for _, f := range sc.Faces {
		if !f.Bounds.Contains(wx, wy) || !f.Face.Contains(wx, wy) {
			continue
		}
		area := f.Face.Outer.SignedArea()
		if hit < 0 || area < hitArea {
			hit, hitArea = f.Index, area
		}
	}
	return hit
}

// RectToJSON serializes a Rect to JSON.
func RectToJSON(r Rect) string {
	data, _ := json.Marshal(map[string]float64{
		"x":      r.X,
		"y":      r.Y,
		"width":  r.Width,
		"height": r.Height,
	})
	return string(data)
}
