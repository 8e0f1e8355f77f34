package model

import (
	"time"

	"github.com/google/uuid"

	"github.com/piwi3910/Jigsaw/internal/geom"
)

// Piece is one rectangular image tile of the puzzle. The ID is assigned by
// the puzzle service; geometry is in pixels relative to the board origin.
type Piece struct {
	ID     string  `json:"id"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Rect returns the piece's bounds.
func (p Piece) Rect() geom.Rect {
	return geom.Rect{X: p.X, Y: p.Y, W: p.Width, H: p.Height}
}

// WithRect returns a copy of the piece with the given bounds.
func (p Piece) WithRect(r geom.Rect) Piece {
	p.X, p.Y, p.Width, p.Height = r.X, r.Y, r.W, r.H
	return p
}

// Rects returns the bounds of every piece, in order.
func Rects(pieces []Piece) []geom.Rect {
	rects := make([]geom.Rect, len(pieces))
	for i, p := range pieces {
		rects[i] = p.Rect()
	}
	return rects
}

// CopyPieces returns a copy of a pieces slice.
func CopyPieces(pieces []Piece) []Piece {
	if pieces == nil {
		return nil
	}
	cp := make([]Piece, len(pieces))
	copy(cp, pieces)
	return cp
}

// VisualState is how a piece view is drawn. Every state other than
// StateNormal is elevated above the normal pieces.
type VisualState int

const (
	StateNormal      VisualState = iota // resting on the board
	StateDragging                       // under the pointer
	StateOverlapping                    // being pushed out of the way
)

func (s VisualState) String() string {
	switch s {
	case StateDragging:
		return "Dragging"
	case StateOverlapping:
		return "Overlapping"
	default:
		return "Normal"
	}
}

// Elevated reports whether the view should render above normal pieces.
func (s VisualState) Elevated() bool {
	return s != StateNormal
}

// Arrangement is a saved snapshot of the board.
type Arrangement struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt string    `json:"created_at"`
	Container geom.Size `json:"container"`
	Pieces    []Piece   `json:"pieces"`
}

// NewArrangement snapshots pieces under a fresh short id.
func NewArrangement(name string, container geom.Size, pieces []Piece) Arrangement {
	return Arrangement{
		ID:        uuid.New().String()[:8],
		Name:      name,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
		Container: container,
		Pieces:    CopyPieces(pieces),
	}
}
