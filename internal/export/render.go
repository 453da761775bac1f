package export

import (
	"fmt"
	"image"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/fogleman/gg"

	"github.com/inamate/facefinder/internal/engine"
)

const (
	background   = "#ffffff"
	outlineColor = "#1a1a2e"
	outlineWidth = 1.5
	faceAlpha    = 0.6
)

// pather receives a path in screen space.
type pather interface {
	MoveTo(x, y float64)
	LineTo(x, y float64)
	// Arc continues the path along a circle from angle a0 to a1. The
	// direction is given by the sign of a1 - a0.
	Arc(cx, cy, r, a0, a1 float64)
	ClosePath()
}

// replay walks draw path commands through view into p.
func replay(p pather, path []engine.PathCommand, view engine.Matrix2D) {
	flip := view.Determinant() < 0
	scale := math.Sqrt(math.Abs(view.Determinant()))

	for _, cmd := range path {
		if len(cmd) == 0 {
			continue
		}
		op, _ := cmd[0].(string)
		switch op {
		case "M", "L":
			x, y := view.TransformPoint(num(cmd, 1), num(cmd, 2))
			if op == "M" {
				p.MoveTo(x, y)
			} else {
				p.LineTo(x, y)
			}
		case "A":
			cx, cy, r := num(cmd, 1), num(cmd, 2), num(cmd, 3)
			a0, a1 := num(cmd, 4), num(cmd, 5)
			sx, sy := view.TransformPoint(cx+r*math.Cos(a0), cy+r*math.Sin(a0))
			scx, scy := view.TransformPoint(cx, cy)
			start := math.Atan2(sy-scy, sx-scx)
			sweep := a1 - a0
			if flip {
				sweep = -sweep
			}
			p.Arc(scx, scy, r*scale, start, start+sweep)
		case "Z":
			p.ClosePath()
		}
	}
}

func num(cmd engine.PathCommand, i int) float64 {
	if i >= len(cmd) {
		return 0
	}
	v, _ := cmd[i].(float64)
	return v
}

// --- PNG ---

type ggPather struct {
	dc *gg.Context
}

func (g ggPather) MoveTo(x, y float64) { g.dc.MoveTo(x, y) }
func (g ggPather) LineTo(x, y float64) { g.dc.LineTo(x, y) }
func (g ggPather) ClosePath()          { g.dc.ClosePath() }

func (g ggPather) Arc(cx, cy, r, a0, a1 float64) {
	g.dc.DrawArc(cx, cy, r, a0, a1)
}

// RenderPNG draws the scene into a size x size image: faces filled even-odd
// in palette colours, then every segment stroked.
func RenderPNG(sc *engine.Scene, size int) image.Image {
	dc := gg.NewContext(size, size)
	dc.SetHexColor(background)
	dc.Clear()

	view := viewFor(sc, size)
	p := ggPather{dc: dc}

	dc.SetFillRule(gg.FillRuleEvenOdd)
	for _, f := range sc.Faces {
		replay(p, f.Path, view)
		r, g, b, _ := hexRGB(f.Fill)
		dc.SetRGBA255(r, g, b, int(faceAlpha*255))
		dc.Fill()
	}

	dc.SetHexColor(outlineColor)
	dc.SetLineWidth(outlineWidth)
	for _, s := range sc.Segments {
		replay(p, s.Path, view)
		dc.Stroke()
	}
	return dc.Image()
}

// --- SVG ---

type svgPather struct {
	b    strings.Builder
	x, y float64
}

func (s *svgPather) MoveTo(x, y float64) {
	fmt.Fprintf(&s.b, "M%s %s ", f(x), f(y))
	s.x, s.y = x, y
}

func (s *svgPather) LineTo(x, y float64) {
	fmt.Fprintf(&s.b, "L%s %s ", f(x), f(y))
	s.x, s.y = x, y
}

func (s *svgPather) ClosePath() {
	s.b.WriteString("Z ")
}

// Arc splits sweeps beyond a half turn so every SVG arc is a small arc and
// full circles survive.
func (s *svgPather) Arc(cx, cy, r, a0, a1 float64) {
	x0, y0 := cx+r*math.Cos(a0), cy+r*math.Sin(a0)
	if math.Abs(x0-s.x) > 1e-9 || math.Abs(y0-s.y) > 1e-9 {
		s.LineTo(x0, y0)
	}
	if math.Abs(a1-a0) > math.Pi {
		mid := (a0 + a1) / 2
		s.Arc(cx, cy, r, a0, mid)
		s.Arc(cx, cy, r, mid, a1)
		return
	}
	sweepFlag := 0
	if a1 > a0 {
		sweepFlag = 1
	}
	x1, y1 := cx+r*math.Cos(a1), cy+r*math.Sin(a1)
	fmt.Fprintf(&s.b, "A%s %s 0 0 %d %s %s ", f(r), f(r), sweepFlag, f(x1), f(y1))
	s.x, s.y = x1, y1
}

func (s *svgPather) String() string {
	return strings.TrimSpace(s.b.String())
}

// WriteSVG writes the scene as a size x size SVG document.
func WriteSVG(w io.Writer, sc *engine.Scene, size int) error {
	view := viewFor(sc, size)

	var out strings.Builder
	fmt.Fprintf(&out, `<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">`+"\n", size, size, size, size)
	fmt.Fprintf(&out, `<rect width="100%%" height="100%%" fill="%s"/>`+"\n", background)
	for _, fn := range sc.Faces {
		p := &svgPather{}
		replay(p, fn.Path, view)
		fmt.Fprintf(&out, `<path id="%s" d="%s" fill="%s" fill-opacity="%s" fill-rule="evenodd"/>`+"\n",
			engine.FaceCommandID(fn.Index), p, fn.Fill, f(faceAlpha))
	}
	for _, s := range sc.Segments {
		p := &svgPather{}
		replay(p, s.Path, view)
		fmt.Fprintf(&out, `<path d="%s" fill="none" stroke="%s" stroke-width="%s"/>`+"\n", p, outlineColor, f(outlineWidth))
	}
	out.WriteString("</svg>\n")

	_, err := io.WriteString(w, out.String())
	return err
}

func viewFor(sc *engine.Scene, size int) engine.Matrix2D {
	s := float64(size)
	return engine.FitView(sc.Bounds, s, s, s*0.05)
}

// f formats a coordinate with at most three decimals.
func f(v float64) string {
	return strconv.FormatFloat(math.Round(v*1000)/1000, 'f', -1, 64)
}

func hexRGB(hex string) (r, g, b int, ok bool) {
	hex = strings.TrimPrefix(hex, "#")
	if len(hex) != 6 {
		return 0, 0, 0, false
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return 0, 0, 0, false
	}
	return int(v >> 16 & 0xff), int(v >> 8 & 0xff), int(v & 0xff), true
}
