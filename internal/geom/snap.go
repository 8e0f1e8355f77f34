package geom

import "math"

// DefaultSnapTolerance is the edge distance within which a dragged piece
// snaps against a neighbour.
const DefaultSnapTolerance = 50.0

// SnapOuter aligns moving against the outer edges of others. On the X axis
// the moving left edge may snap to a neighbour's right edge and the moving
// right edge to a neighbour's left edge; on the Y axis top snaps to bottom
// and bottom to top. A neighbour only counts when the two rectangles are
// within tolerance of each other on the perpendicular axis. Each axis takes
// the nearest candidate; on a tie the earlier neighbour wins.
// A tolerance <= 0 disables snapping.
func SnapOuter(moving Rect, others []Rect, tolerance float64) Rect {
	if tolerance <= 0 {
		return moving
	}

	bestX, bestXDist := moving.X, math.Inf(1)
	bestY, bestYDist := moving.Y, math.Inf(1)

	for _, o := range others {
		// Vertical overlap (expanded) is required to snap horizontally.
		if spansNear(moving.Y, moving.Bottom(), o.Y, o.Bottom(), tolerance) {
			// left edge against neighbour's right edge
			if d := math.Abs(moving.X - o.Right()); d <= tolerance && d < bestXDist {
				bestX, bestXDist = o.Right(), d
			}
			// right edge against neighbour's left edge
			if d := math.Abs(moving.Right() - o.X); d <= tolerance && d < bestXDist {
				bestX, bestXDist = o.X-moving.W, d
			}
		}
		if spansNear(moving.X, moving.Right(), o.X, o.Right(), tolerance) {
			// top edge against neighbour's bottom edge
			if d := math.Abs(moving.Y - o.Bottom()); d <= tolerance && d < bestYDist {
				bestY, bestYDist = o.Bottom(), d
			}
			// bottom edge against neighbour's top edge
			if d := math.Abs(moving.Bottom() - o.Y); d <= tolerance && d < bestYDist {
				bestY, bestYDist = o.Y-moving.H, d
			}
		}
	}

	moving.X, moving.Y = bestX, bestY
	return moving
}

// spansNear reports whether [a0,a1] and [b0,b1] overlap once b is grown by
// tolerance on both ends.
func spansNear(a0, a1, b0, b1, tolerance float64) bool {
	return a0 <= b1+tolerance && a1 >= b0-tolerance
}
