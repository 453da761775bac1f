package engine

import "github.com/inamate/facefinder/internal/sketch"

// Scene is the render-ready state of a solved sketch, in sketch space. It is
// rebuilt whenever the document changes; the view transform is applied at
// draw and hit-test time.
type Scene struct {
	Faces    []*FaceNode
	Segments []*SegmentNode
	Bounds   Rect // bounding box of every point in the sketch
}

// FaceNode is one solved face ready for rendering.
type FaceNode struct {
	Index int
	Face  sketch.Face
	Area  float64

	// Outer ring followed by one sub-path per hole
	Path []PathCommand
	Fill string

	// Hit testing
	Bounds Rect
}

// SegmentNode is one sketch segment drawn as a stroke.
type SegmentNode struct {
	ID   string
	Path []PathCommand
}

// PathCommand represents a single path segment for rendering.
// Format matches Canvas2D: ["M", x, y], ["L", x, y],
// ["A", cx, cy, r, startAngle, endAngle, anticlockwise], ["Z"].
type PathCommand []interface{}

// Rect represents an axis-aligned bounding box.
type Rect struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

// RectFromBounds builds a Rect from min/max corners.
func RectFromBounds(minX, minY, maxX, maxY float64) Rect {
	return Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}

// Contains checks if a point is inside the rect.
func (r Rect) Contains(x, y float64) bool {
	return x >= r.X && x <= r.X+r.Width && y >= r.Y && y <= r.Y+r.Height
}

// IsEmpty checks if the rect has zero or negative area.
func (r Rect) IsEmpty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Union returns the smallest rect containing both rects.
func (r Rect) Union(other Rect) Rect {
	if r.IsEmpty() {
		return other
	}
	if other.IsEmpty() {
		return r
	}

	minX := min(r.X, other.X)
	minY := min(r.Y, other.Y)
	maxX := max(r.X+r.Width, other.X+other.Width)
	maxY := max(r.Y+r.Height, other.Y+other.Height)

	return RectFromBounds(minX, minY, maxX, maxY)
}

// Center returns the center point of the rect.
func (r Rect) Center() (float64, float64) {
	return r.X + r.Width/2, r.Y + r.Height/2
}
