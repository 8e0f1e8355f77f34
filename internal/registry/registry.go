// Package registry holds the pieces of the current puzzle in the order the
// puzzle service returned them. That order is authoritative: the drop scan
// walks it and the first match wins.
package registry

import (
	"errors"
	"fmt"
	"sync"

	"github.com/piwi3910/Jigsaw/internal/geom"
	"github.com/piwi3910/Jigsaw/internal/model"
)

var (
	// ErrUnknownPiece is returned for an id that is not registered.
	ErrUnknownPiece = errors.New("unknown piece")
	// ErrDuplicateID is returned when a piece set repeats an id.
	ErrDuplicateID = errors.New("duplicate piece id")
	// ErrEmptyID is returned for a piece without an id.
	ErrEmptyID = errors.New("piece has no id")
)

// Registry is an ordered, id-unique collection of pieces. It is safe for
// concurrent use.
type Registry struct {
	mu     sync.RWMutex
	pieces []model.Piece
	index  map[string]int
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{index: map[string]int{}}
}

// Replace swaps the whole piece set. Nothing changes if the set is invalid.
func (r *Registry) Replace(pieces []model.Piece) error {
	index := make(map[string]int, len(pieces))
	for i, p := range pieces {
		if p.ID == "" {
			return fmt.Errorf("piece %d: %w", i, ErrEmptyID)
		}
		if _, dup := index[p.ID]; dup {
			return fmt.Errorf("%w: %q", ErrDuplicateID, p.ID)
		}
		index[p.ID] = i
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.pieces = model.CopyPieces(pieces)
	r.index = index
	return nil
}

// Apply updates the geometry of already registered pieces, keeping the
// registry order. Either every update is applied or none is.
func (r *Registry) Apply(updates []model.Piece) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range updates {
		if _, ok := r.index[u.ID]; !ok {
			return fmt.Errorf("%w: %q", ErrUnknownPiece, u.ID)
		}
	}
	for _, u := range updates {
		r.pieces[r.index[u.ID]] = u
	}
	return nil
}

// SetRect moves and resizes a single piece.
func (r *Registry) SetRect(id string, rect geom.Rect) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	i, ok := r.index[id]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownPiece, id)
	}
	r.pieces[i] = r.pieces[i].WithRect(rect)
	return nil
}

// Get returns the piece with the given id.
func (r *Registry) Get(id string) (model.Piece, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	i, ok := r.index[id]
	if !ok {
		return model.Piece{}, false
	}
	return r.pieces[i], true
}

// Pieces returns a copy of all pieces in registry order.
func (r *Registry) Pieces() []model.Piece {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if len(r.pieces) == 0 {
		return []model.Piece{}
	}
	return model.CopyPieces(r.pieces)
}

// IDs returns the registered ids in registry order.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, len(r.pieces))
	for i, p := range r.pieces {
		ids[i] = p.ID
	}
	return ids
}

// Len returns the number of pieces.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.pieces)
}

// Clear removes every piece.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pieces = nil
	r.index = map[string]int{}
}
