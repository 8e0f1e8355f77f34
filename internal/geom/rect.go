// Package geom provides the rectangle math used by the board: centers,
// the center-proximity overlap test, outer-edge snapping and containment.
// All values are pixels in a single coordinate space; callers must not mix
// container-relative and window-relative rectangles.
package geom

import "math"

// DefaultOverlapTolerance is the center distance (per axis) below which two
// pieces are considered dropped onto each other.
const DefaultOverlapTolerance = 10.0

// Point is a 2D position in pixels.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Size is a width/height pair in pixels.
type Size struct {
	W float64 `json:"width"`
	H float64 `json:"height"`
}

// Empty reports whether either dimension is zero or negative.
func (s Size) Empty() bool {
	return s.W <= 0 || s.H <= 0
}

// Rect is an axis-aligned rectangle given by its top-left corner and size.
type Rect struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"width"`
	H float64 `json:"height"`
}

// NewRect builds a rectangle from a position and size.
func NewRect(p Point, s Size) Rect {
	return Rect{X: p.X, Y: p.Y, W: s.W, H: s.H}
}

// Right returns the x coordinate of the right edge.
func (r Rect) Right() float64 { return r.X + r.W }

// Bottom returns the y coordinate of the bottom edge.
func (r Rect) Bottom() float64 { return r.Y + r.H }

// Point returns the top-left corner.
func (r Rect) Point() Point { return Point{X: r.X, Y: r.Y} }

// Size returns the width and height.
func (r Rect) Size() Size { return Size{W: r.W, H: r.H} }

// Center returns the midpoint of the rectangle. A zero-size rectangle's
// center is its corner.
func (r Rect) Center() Point {
	return Point{X: r.X + r.W/2, Y: r.Y + r.H/2}
}

// MoveTo returns the rectangle with its top-left corner at p.
func (r Rect) MoveTo(p Point) Rect {
	r.X, r.Y = p.X, p.Y
	return r
}

// Translate shifts the rectangle by dx, dy.
func (r Rect) Translate(dx, dy float64) Rect {
	r.X += dx
	r.Y += dy
	return r
}

// Scale multiplies offset and size by f. The offset is scaled from the
// origin, not from the rectangle's center, so gaps between rectangles shrink
// or grow with the factor.
func (r Rect) Scale(f float64) Rect {
	return Rect{X: r.X * f, Y: r.Y * f, W: r.W * f, H: r.H * f}
}

// Overlaps is the center-proximity test: it reports whether the centers of a
// and b are closer than tolerance on both axes (strictly). It is not a true
// intersection test. Rectangles whose edges cross can fail it when their
// centers are far apart, and rectangles that don't touch can pass it when
// they are small.
func Overlaps(a, b Rect, tolerance float64) bool {
	ca, cb := a.Center(), b.Center()
	dx := math.Abs(ca.X - cb.X)
	dy := math.Abs(ca.Y - cb.Y)
	return dx < tolerance && dy < tolerance
}

// CentersNear is Overlaps with DefaultOverlapTolerance.
func CentersNear(a, b Rect) bool {
	return Overlaps(a, b, DefaultOverlapTolerance)
}

// Clamp keeps r inside the box [0, bounds.W] x [0, bounds.H]. A rectangle
// larger than the bounds on an axis is pinned to 0 on that axis.
func Clamp(r Rect, bounds Size) Rect {
	r.X = clampAxis(r.X, r.W, bounds.W)
	r.Y = clampAxis(r.Y, r.H, bounds.H)
	return r
}

func clampAxis(pos, length, limit float64) float64 {
	if pos+length > limit {
		pos = limit - length
	}
	if pos < 0 {
		pos = 0
	}
	return pos
}

// Bounds returns the smallest size, anchored at the origin, that encloses
// every rectangle: the maximum right edge and the maximum bottom edge.
func Bounds(rects []Rect) Size {
	var s Size
	for _, r := range rects {
		if r.Right() > s.W {
			s.W = r.Right()
		}
		if r.Bottom() > s.H {
			s.H = r.Bottom()
		}
	}
	return s
}
