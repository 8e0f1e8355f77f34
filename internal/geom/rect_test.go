package geom

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEdgesAndParts(t *testing.T) {
	r := Rect{X: 10, Y: 20, W: 100, H: 50}
	assert.Equal(t, 110.0, r.Right())
	assert.Equal(t, 70.0, r.Bottom())
	assert.Equal(t, Point{X: 10, Y: 20}, r.Point())
	assert.Equal(t, Size{W: 100, H: 50}, r.Size())
	assert.Equal(t, r, NewRect(r.Point(), r.Size()))
}

func TestCenter(t *testing.T) {
	r := Rect{X: 10, Y: 20, W: 100, H: 50}
	c := r.Center()
	assert.InDelta(t, 60.0, c.X, 0.001)
	assert.InDelta(t, 45.0, c.Y, 0.001)

	// Zero-size rect: center is the corner
	z := Rect{X: 7, Y: 9}
	assert.Equal(t, Point{X: 7, Y: 9}, z.Center())
}

func TestOverlaps_Symmetric(t *testing.T) {
	cases := []struct {
		a, b Rect
	}{
		{Rect{0, 0, 100, 100}, Rect{5, 5, 100, 100}},
		{Rect{0, 0, 100, 100}, Rect{200, 200, 100, 100}},
		{Rect{0, 0, 10, 10}, Rect{0, 9, 10, 10}},
		{Rect{-30, 4, 60, 2}, Rect{-25, 0, 50, 10}},
		{Rect{0, 0, 0, 0}, Rect{3, 3, 0, 0}},
	}
	for _, c := range cases {
		assert.Equal(t, Overlaps(c.a, c.b, DefaultOverlapTolerance), Overlaps(c.b, c.a, DefaultOverlapTolerance),
			"overlap should be symmetric for %v / %v", c.a, c.b)
	}
}

func TestOverlaps_Reflexive(t *testing.T) {
	for _, r := range []Rect{{0, 0, 100, 100}, {50, 50, 0, 0}, {-10, 3, 7, 1000}} {
		assert.True(t, CentersNear(r, r), "a rect always overlaps itself: %v", r)
	}
}

func TestOverlaps_StrictBoundary(t *testing.T) {
	a := Rect{X: 0, Y: 0, W: 100, H: 100}

	// centers exactly 10 apart horizontally, 0 vertically
	b := Rect{X: 10, Y: 0, W: 100, H: 100}
	assert.False(t, CentersNear(a, b), "distance of exactly 10 must not overlap")

	// same vertically
	b = Rect{X: 0, Y: 10, W: 100, H: 100}
	assert.False(t, CentersNear(a, b))

	// just inside
	b = Rect{X: 9.999, Y: 9.999, W: 100, H: 100}
	assert.True(t, CentersNear(a, b))
}

func TestOverlaps_IsCenterProximityNotIntersection(t *testing.T) {
	// Large pieces with crossing edges but distant centers do not overlap.
	a := Rect{X: 0, Y: 0, W: 400, H: 400}
	b := Rect{X: 300, Y: 300, W: 400, H: 400}
	assert.False(t, CentersNear(a, b), "intersecting edges with far centers is not an overlap")

	// Differently sized rects sharing a center overlap even though one
	// contains the other.
	inner := Rect{X: 190, Y: 190, W: 20, H: 20}
	outer := Rect{X: 0, Y: 0, W: 400, H: 400}
	assert.True(t, CentersNear(inner, outer))
}

func TestOverlaps_CustomTolerance(t *testing.T) {
	a := Rect{X: 0, Y: 0, W: 20, H: 20}
	b := Rect{X: 15, Y: 0, W: 20, H: 20}
	assert.False(t, Overlaps(a, b, 10))
	assert.True(t, Overlaps(a, b, 16))
	assert.False(t, Overlaps(a, a, 0), "zero tolerance never matches because the test is strict")
}

func TestScale_FromOrigin(t *testing.T) {
	r := Rect{X: 200, Y: 100, W: 100, H: 50}.Scale(0.5)
	assert.Equal(t, Rect{X: 100, Y: 50, W: 50, H: 25}, r)
}

func TestClamp(t *testing.T) {
	bounds := Size{W: 300, H: 200}

	r := Clamp(Rect{X: -20, Y: -5, W: 50, H: 50}, bounds)
	assert.Equal(t, Rect{X: 0, Y: 0, W: 50, H: 50}, r)

	r = Clamp(Rect{X: 280, Y: 190, W: 50, H: 50}, bounds)
	assert.Equal(t, Rect{X: 250, Y: 150, W: 50, H: 50}, r)

	// Inside stays put
	r = Clamp(Rect{X: 10, Y: 10, W: 50, H: 50}, bounds)
	assert.Equal(t, Rect{X: 10, Y: 10, W: 50, H: 50}, r)

	// Larger than bounds is pinned to origin
	r = Clamp(Rect{X: 40, Y: 40, W: 500, H: 20}, bounds)
	assert.InDelta(t, 0.0, r.X, 0.001)
	assert.InDelta(t, 40.0, r.Y, 0.001)
}

func TestBounds(t *testing.T) {
	assert.Equal(t, Size{}, Bounds(nil))

	s := Bounds([]Rect{
		{X: 0, Y: 0, W: 100, H: 100},
		{X: 200, Y: 150, W: 100, H: 100},
		{X: 50, Y: 260, W: 10, H: 10},
	})
	assert.Equal(t, Size{W: 300, H: 270}, s)
	assert.False(t, s.Empty())
	assert.True(t, Size{W: 10}.Empty())
}
