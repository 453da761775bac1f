package engine

import (
	"math"
	"testing"
)

func TestMatrixInvert(t *testing.T) {
	m := Translate(5, -3).Multiply(Rotate(0.7)).Multiply(Scale(2, 3))
	x, y := m.TransformPoint(1.5, -2)
	bx, by := m.Invert().TransformPoint(x, y)
	if math.Abs(bx-1.5) > 1e-9 || math.Abs(by+2) > 1e-9 {
		t.Errorf("round trip gave (%v, %v), want (1.5, -2)", bx, by)
	}
	if !m.Multiply(m.Invert()).IsIdentity() {
		t.Error("m * m⁻¹ is not the identity")
	}
	if !Scale(0, 1).Invert().IsIdentity() {
		t.Error("singular matrix did not invert to identity")
	}
}

func TestFitView(t *testing.T) {
	tests := []struct {
		name   string
		bounds Rect
		in     [2]float64
		want   [2]float64
	}{
		{"origin", Rect{0, 0, 10, 10}, [2]float64{0, 0}, [2]float64{10, 110}},
		{"far corner", Rect{0, 0, 10, 10}, [2]float64{10, 10}, [2]float64{110, 10}},
		{"wide is centred vertically", Rect{0, 0, 20, 10}, [2]float64{0, 0}, [2]float64{10, 85}},
		{"empty keeps scale", Rect{3, 3, 0, 0}, [2]float64{3, 3}, [2]float64{60, 60}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := FitView(tt.bounds, 120, 120, 10)
			x, y := m.TransformPoint(tt.in[0], tt.in[1])
			if math.Abs(x-tt.want[0]) > 1e-9 || math.Abs(y-tt.want[1]) > 1e-9 {
				t.Errorf("got (%v, %v), want %v", x, y, tt.want)
			}
		})
	}
}

func TestRect(t *testing.T) {
	r := RectFromBounds(1, 2, 4, 6)
	diff(t, Rect{X: 1, Y: 2, Width: 3, Height: 4}, r)
	if !r.Contains(1, 2) || r.Contains(0, 0) {
		t.Error("contains is wrong at the corners")
	}
	diff(t, Rect{X: 0, Y: 0, Width: 4, Height: 6}, r.Union(Rect{Width: 1, Height: 1}))
	diff(t, r, Rect{}.Union(r))

	scaled := Scale(2, -1).TransformRect(r)
	diff(t, Rect{X: 2, Y: -6, Width: 6, Height: 4}, scaled)
	if x, y := scaled.Center(); x != 5 || y != -4 {
		t.Errorf("got centre (%v, %v), want (5, -4)", x, y)
	}
}
