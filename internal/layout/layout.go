// Package layout fits the board into the viewport. The container is the
// bounding box of all pieces; every piece and the container are then
// scaled by one aspect-preserving factor.
//
// Layout is recomputed after structural changes to the piece set (load,
// assemble, reset, undo). It is not re-run when the viewport is resized;
// the UI exposes an explicit fit action for that.
package layout

import (
	"math"

	"github.com/piwi3910/Jigsaw/internal/geom"
	"github.com/piwi3910/Jigsaw/internal/model"
)

// Result is the outcome of a layout pass.
type Result struct {
	Scale     float64       // uniform factor applied to everything
	Container geom.Size     // scaled container size
	Pieces    []model.Piece // scaled pieces, same order as the input
}

// Bounds returns the unscaled container size: the maximum right edge and
// maximum bottom edge over all pieces, measured from the board origin.
func Bounds(pieces []model.Piece) geom.Size {
	return geom.Bounds(model.Rects(pieces))
}

// ScaleFactor returns min(viewport.W/container.W, viewport.H/container.H).
// The second return is false when either size is empty, in which case no
// factor exists.
func ScaleFactor(container, viewport geom.Size) (float64, bool) {
	if container.Empty() || viewport.Empty() {
		return 0, false
	}
	return math.Min(viewport.W/container.W, viewport.H/container.H), true
}

// Recompute scales pieces so their bounding box fits viewport. Offsets are
// scaled from the origin, which tightens or widens the gaps between pieces
// along with their size. It returns false, and computes nothing, for an
// empty piece set, a zero-size container or an empty viewport.
func Recompute(pieces []model.Piece, viewport geom.Size) (Result, bool) {
	if len(pieces) == 0 {
		return Result{}, false
	}

	container := Bounds(pieces)
	scale, ok := ScaleFactor(container, viewport)
	if !ok {
		return Result{}, false
	}

	scaled := make([]model.Piece, len(pieces))
	for i, p := range pieces {
		scaled[i] = p.WithRect(p.Rect().Scale(scale))
	}

	return Result{
		Scale:     scale,
		Container: geom.Size{W: container.W * scale, H: container.H * scale},
		Pieces:    scaled,
	}, true
}
