package model

import (
	"testing"

	"github.com/piwi3910/Jigsaw/internal/geom"
)

func TestPieceRectRoundTrip(t *testing.T) {
	p := Piece{ID: "7", X: 10, Y: 20, Width: 30, Height: 40}
	r := p.Rect()
	if r != (geom.Rect{X: 10, Y: 20, W: 30, H: 40}) {
		t.Fatalf("unexpected rect %+v", r)
	}

	moved := p.WithRect(r.Translate(5, -5))
	if moved.ID != "7" {
		t.Errorf("WithRect must keep the id, got %q", moved.ID)
	}
	if moved.X != 15 || moved.Y != 15 {
		t.Errorf("expected (15,15), got (%f,%f)", moved.X, moved.Y)
	}
	if p.X != 10 {
		t.Error("WithRect must not modify the receiver")
	}
}

func TestCopyPiecesIsIndependent(t *testing.T) {
	if CopyPieces(nil) != nil {
		t.Error("copy of nil should be nil")
	}

	orig := []Piece{{ID: "a", X: 1}, {ID: "b", X: 2}}
	cp := CopyPieces(orig)
	cp[0].X = 99
	if orig[0].X != 1 {
		t.Error("modifying the copy changed the original")
	}
}

func TestRects(t *testing.T) {
	rects := Rects([]Piece{{ID: "a", Width: 1, Height: 2}, {ID: "b", X: 3, Width: 4, Height: 5}})
	if len(rects) != 2 {
		t.Fatalf("expected 2 rects, got %d", len(rects))
	}
	if rects[1].X != 3 || rects[1].W != 4 {
		t.Errorf("unexpected rect %+v", rects[1])
	}
}

func TestVisualState(t *testing.T) {
	if StateNormal.Elevated() {
		t.Error("normal pieces are not elevated")
	}
	if !StateDragging.Elevated() || !StateOverlapping.Elevated() {
		t.Error("dragging and overlapping pieces are elevated")
	}
	if StateOverlapping.String() != "Overlapping" {
		t.Errorf("unexpected name %q", StateOverlapping.String())
	}
}

func TestNewArrangement(t *testing.T) {
	pieces := []Piece{{ID: "1", Width: 10, Height: 10}}
	a := NewArrangement("Morning", geom.Size{W: 10, H: 10}, pieces)

	if len(a.ID) != 8 {
		t.Errorf("expected 8-char id, got %q", a.ID)
	}
	if a.CreatedAt == "" {
		t.Error("CreatedAt should be set")
	}
	pieces[0].X = 50
	if a.Pieces[0].X != 0 {
		t.Error("arrangement must hold its own copy of the pieces")
	}
}
