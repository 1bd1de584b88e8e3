// Package geometry provides the coordinate primitives for the Snapstack
// layout engine.
//
// Two coordinate systems are in play:
//
//   - Workspace units: the logical canvas space all layout math runs in.
//     Block positions, sizes and connection points are stored in workspace
//     units regardless of how the workspace is displayed.
//   - View units: physical display space. A single scale factor converts
//     workspace units to view units (view = workspace × scale).
//
// All types in this package hold workspace units unless a name says
// otherwise. Conversion happens at the edges: [Point.Scaled], [Size.Scaled]
// and [Rect.Scaled] produce view-space values for consumers that draw.
package geometry

import (
	"fmt"
	"math"
)

// Point is a position in the workspace coordinate system.
type Point struct {
	X float64
	Y float64
}

// Pt is shorthand for Point{X: x, Y: y}.
func Pt(x, y float64) Point { return Point{X: x, Y: y} }

// Add returns p + q component-wise.
func (p Point) Add(q Point) Point { return Point{X: p.X + q.X, Y: p.Y + q.Y} }

// Sub returns p - q component-wise.
func (p Point) Sub(q Point) Point { return Point{X: p.X - q.X, Y: p.Y - q.Y} }

// DistanceTo returns the Euclidean distance between two points.
func (p Point) DistanceTo(q Point) float64 {
	dx := p.X - q.X
	dy := p.Y - q.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// Scaled converts the point to view units using the given scale factor.
func (p Point) Scaled(scale float64) Point {
	return Point{X: p.X * scale, Y: p.Y * scale}
}

// String formats the point for logs and test failures.
func (p Point) String() string { return fmt.Sprintf("(%.2f, %.2f)", p.X, p.Y) }

// Size is a width/height pair in the workspace coordinate system.
type Size struct {
	Width  float64
	Height float64
}

// Sz is shorthand for Size{Width: w, Height: h}.
func Sz(w, h float64) Size { return Size{Width: w, Height: h} }

// IsZero reports whether both dimensions are zero.
func (s Size) IsZero() bool { return s.Width == 0 && s.Height == 0 }

// Union returns the smallest size covering both s and t.
func (s Size) Union(t Size) Size {
	return Size{Width: math.Max(s.Width, t.Width), Height: math.Max(s.Height, t.Height)}
}

// Scaled converts the size to view units using the given scale factor.
func (s Size) Scaled(scale float64) Size {
	return Size{Width: s.Width * scale, Height: s.Height * scale}
}

// String formats the size for logs and test failures.
func (s Size) String() string { return fmt.Sprintf("%.2f×%.2f", s.Width, s.Height) }

// Rect is an axis-aligned rectangle in the workspace coordinate system.
// Origin is the top-left corner; Y grows downward.
type Rect struct {
	Origin Point
	Size   Size
}

// NewRect creates a rectangle from origin coordinates and dimensions.
func NewRect(x, y, w, h float64) Rect {
	return Rect{Origin: Point{X: x, Y: y}, Size: Size{Width: w, Height: h}}
}

// MaxX returns the right edge coordinate.
func (r Rect) MaxX() float64 { return r.Origin.X + r.Size.Width }

// MaxY returns the bottom edge coordinate.
func (r Rect) MaxY() float64 { return r.Origin.Y + r.Size.Height }

// Contains reports whether the point lies inside the rectangle.
// Points on the left/top edges are inside, right/bottom edges are not.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.Origin.X && p.X < r.MaxX() && p.Y >= r.Origin.Y && p.Y < r.MaxY()
}

// Intersects reports whether two rectangles overlap with positive area.
func (r Rect) Intersects(o Rect) bool {
	return r.Origin.X < o.MaxX() && o.Origin.X < r.MaxX() &&
		r.Origin.Y < o.MaxY() && o.Origin.Y < r.MaxY()
}

// Union returns the smallest rectangle covering both r and o.
// A rectangle with zero size is treated as empty and does not expand the result.
func (r Rect) Union(o Rect) Rect {
	if r.Size.IsZero() {
		return o
	}
	if o.Size.IsZero() {
		return r
	}
	minX := math.Min(r.Origin.X, o.Origin.X)
	minY := math.Min(r.Origin.Y, o.Origin.Y)
	maxX := math.Max(r.MaxX(), o.MaxX())
	maxY := math.Max(r.MaxY(), o.MaxY())
	return NewRect(minX, minY, maxX-minX, maxY-minY)
}

// Scaled converts the rectangle to view units using the given scale factor.
func (r Rect) Scaled(scale float64) Rect {
	return Rect{Origin: r.Origin.Scaled(scale), Size: r.Size.Scaled(scale)}
}

// String formats the rectangle for logs and test failures.
func (r Rect) String() string {
	return fmt.Sprintf("[%.2f %.2f %.2f %.2f]", r.Origin.X, r.Origin.Y, r.Size.Width, r.Size.Height)
}

// EdgeInsets describes inset distances from each edge of a rectangle,
// in workspace units. Leading/Trailing rather than Left/Right so that
// right-to-left layouts can flip horizontally without touching stored values.
type EdgeInsets struct {
	Top      float64
	Leading  float64
	Bottom   float64
	Trailing float64
}

// Insets creates edge insets with the given values for each edge.
func Insets(top, leading, bottom, trailing float64) EdgeInsets {
	return EdgeInsets{Top: top, Leading: leading, Bottom: bottom, Trailing: trailing}
}

// Horizontal returns the combined leading+trailing inset.
func (e EdgeInsets) Horizontal() float64 { return e.Leading + e.Trailing }

// Vertical returns the combined top+bottom inset.
func (e EdgeInsets) Vertical() float64 { return e.Top + e.Bottom }

// Left returns the left-edge inset for the given text direction.
func (e EdgeInsets) Left(rtl bool) float64 {
	if rtl {
		return e.Trailing
	}
	return e.Leading
}

// Right returns the right-edge inset for the given text direction.
func (e EdgeInsets) Right(rtl bool) float64 {
	if rtl {
		return e.Leading
	}
	return e.Trailing
}

// Scaled converts the insets to view units using the given scale factor.
func (e EdgeInsets) Scaled(scale float64) EdgeInsets {
	return EdgeInsets{
		Top:      e.Top * scale,
		Leading:  e.Leading * scale,
		Bottom:   e.Bottom * scale,
		Trailing: e.Trailing * scale,
	}
}
