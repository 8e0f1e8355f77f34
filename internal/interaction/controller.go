// Package interaction implements the drag gesture on the board: a two-state
// machine (Idle, Dragging) that moves one piece under the pointer, snaps it
// to its neighbours' edges and, on release, pushes a piece it was dropped
// onto back to where the dragged piece started.
package interaction

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/piwi3910/Jigsaw/internal/geom"
	"github.com/piwi3910/Jigsaw/internal/model"
	"github.com/piwi3910/Jigsaw/internal/registry"
)

var (
	// ErrDragActive is returned by Begin while another drag is in progress.
	ErrDragActive = errors.New("a drag is already in progress")
	// ErrNotDragging is returned by DragTo and End when no drag is active.
	ErrNotDragging = errors.New("no drag in progress")
)

// State is the controller's gesture state.
type State int

const (
	Idle State = iota
	Dragging
)

func (s State) String() string {
	if s == Dragging {
		return "Dragging"
	}
	return "Idle"
}

// Surface is whatever draws the board. The controller never touches a
// toolkit directly.
type Surface interface {
	CreatePieceView(p model.Piece)
	UpdatePieceView(id string, r geom.Rect)
	RemoveAllPieceViews()
	ResizeContainer(s geom.Size)
	SetPieceState(id string, s model.VisualState)
}

// Animator moves a point from one position to another over d, calling step
// for intermediate positions and done once the end is reached. step and
// done may be called from any goroutine.
type Animator interface {
	Animate(from, to geom.Point, d time.Duration, step func(geom.Point), done func())
}

// Observer is told about every completed drop. before holds the registry
// as it was when the drag began.
type Observer interface {
	Dropped(before []model.Piece, out Outcome)
}

// Config holds the two unrelated distances used by the controller and the
// snap-back animation length.
type Config struct {
	OverlapTolerance float64       // center distance that counts as dropped onto
	SnapTolerance    float64       // edge distance for snapping while dragging, 0 = off
	SnapDuration     time.Duration // snap-back animation length
}

// DefaultConfig returns the stock tolerances.
func DefaultConfig() Config {
	return Config{
		OverlapTolerance: geom.DefaultOverlapTolerance,
		SnapTolerance:    geom.DefaultSnapTolerance,
		SnapDuration:     200 * time.Millisecond,
	}
}

// ConfigFrom derives the controller config from the app config.
func ConfigFrom(c model.AppConfig) Config {
	return Config{
		OverlapTolerance: c.OverlapTolerance,
		SnapTolerance:    c.SnapTolerance,
		SnapDuration:     c.SnapDurationValue(),
	}
}

// Outcome describes a resolved drop.
type Outcome struct {
	Dragged string
	From    geom.Point // dragged piece before the gesture
	To      geom.Point // dragged piece after the drop

	Target     string     // piece dropped onto, "" if none
	TargetFrom geom.Point // target's position before it was pushed
}

// Matched reports whether the drop landed on another piece.
func (o Outcome) Matched() bool { return o.Target != "" }

type dragSession struct {
	id      string
	initial geom.Point
	rect    geom.Rect
	before  []model.Piece
}

type animation struct {
	token int
	rect  geom.Rect // last drawn position
	final geom.Rect
}

// Controller owns the drag state machine. All methods are safe to call
// from multiple goroutines; transitions are serialised.
type Controller struct {
	mu        sync.Mutex
	reg       *registry.Registry
	surface   Surface
	animator  Animator
	cfg       Config
	observer  Observer
	container geom.Size

	state      State
	drag       *dragSession
	animations map[string]*animation
	nextToken  int
}

// New creates a controller over reg that draws on surface.
func New(reg *registry.Registry, surface Surface, animator Animator, cfg Config) *Controller {
	return &Controller{
		reg:        reg,
		surface:    surface,
		animator:   animator,
		cfg:        cfg,
		animations: map[string]*animation{},
	}
}

// SetObserver installs the drop observer.
func (c *Controller) SetObserver(o Observer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.observer = o
}

// SetConfig replaces the tolerances. It applies from the next gesture.
func (c *Controller) SetConfig(cfg Config) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cfg = cfg
}

// SetContainer sets the bounds dragged pieces are kept within. An empty
// size disables containment.
func (c *Controller) SetContainer(s geom.Size) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.container = s
}

// State returns the current gesture state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Active returns the id of the piece being dragged, or "".
func (c *Controller) Active() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.drag == nil {
		return ""
	}
	return c.drag.id
}

// Begin starts dragging piece id.
func (c *Controller) Begin(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == Dragging {
		return ErrDragActive
	}
	// A piece grabbed mid-animation stays where the animation left it.
	if a, ok := c.animations[id]; ok {
		delete(c.animations, id)
		if err := c.reg.SetRect(id, a.rect); err != nil {
			return err
		}
	}
	p, ok := c.reg.Get(id)
	if !ok {
		return fmt.Errorf("%w: %q", registry.ErrUnknownPiece, id)
	}

	c.drag = &dragSession{
		id:      id,
		initial: p.Rect().Point(),
		rect:    p.Rect(),
		before:  c.settledPieces(),
	}
	c.state = Dragging
	c.surface.SetPieceState(id, model.StateDragging)
	return nil
}

// DragTo moves the dragged piece's top-left corner to pos, then snaps it to
// nearby outer edges and keeps it inside the container. It returns the
// rectangle actually used.
func (c *Controller) DragTo(pos geom.Point) (geom.Rect, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != Dragging {
		return geom.Rect{}, ErrNotDragging
	}

	r := c.drag.rect.MoveTo(pos)
	r = geom.SnapOuter(r, c.otherRects(c.drag.id), c.cfg.SnapTolerance)
	if !c.container.Empty() {
		r = geom.Clamp(r, c.container)
	}
	c.drag.rect = r
	c.surface.UpdatePieceView(c.drag.id, r)
	return r, nil
}

// End drops the dragged piece where it is. The first other piece in
// registry order whose center lies within OverlapTolerance of the dropped
// piece's center is animated to the dragged piece's starting position.
func (c *Controller) End() (Outcome, error) {
	c.mu.Lock()

	if c.state != Dragging {
		c.mu.Unlock()
		return Outcome{}, ErrNotDragging
	}

	d := c.drag
	c.surface.SetPieceState(d.id, model.StateNormal)
	if err := c.reg.SetRect(d.id, d.rect); err != nil {
		// The piece vanished from the registry mid-drag (board reset).
		c.state, c.drag = Idle, nil
		c.mu.Unlock()
		return Outcome{}, err
	}

	out := Outcome{Dragged: d.id, From: d.initial, To: d.rect.Point()}

	// Pieces still snapping back are matched where they are drawn.
	var target model.Piece
	for _, p := range c.drawnPieces() {
		if p.ID == d.id {
			continue
		}
		if geom.Overlaps(d.rect, p.Rect(), c.cfg.OverlapTolerance) {
			target = p
			break
		}
	}

	var anim *animation
	if target.ID != "" {
		from := target.Rect()
		out.Target = target.ID
		out.TargetFrom = from.Point()

		c.nextToken++
		anim = &animation{token: c.nextToken, rect: from, final: geom.NewRect(out.From, from.Size())}
		c.animations[target.ID] = anim
		c.surface.SetPieceState(target.ID, model.StateOverlapping)
	}

	c.state, c.drag = Idle, nil
	observer, duration := c.observer, c.cfg.SnapDuration
	c.mu.Unlock()

	log.Debug().
		Str("piece", out.Dragged).
		Str("target", out.Target).
		Float64("x", out.To.X).
		Float64("y", out.To.Y).
		Msg("piece dropped")

	if anim != nil {
		id, token, size, final := target.ID, anim.token, anim.rect.Size(), anim.final
		c.animator.Animate(out.TargetFrom, out.From, duration,
			func(p geom.Point) { c.animationStep(id, token, geom.NewRect(p, size)) },
			func() { c.animationDone(id, token, final) },
		)
	}
	if observer != nil {
		observer.Dropped(d.before, out)
	}
	return out, nil
}

// Cancel aborts an active drag and puts the piece back where it started.
func (c *Controller) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != Dragging {
		return
	}
	d := c.drag
	c.surface.UpdatePieceView(d.id, d.rect.MoveTo(d.initial))
	c.surface.SetPieceState(d.id, model.StateNormal)
	c.state, c.drag = Idle, nil
}

// Reset forgets any drag and running animations, e.g. when the board is
// rebuilt. Pending animation callbacks become no-ops.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state, c.drag = Idle, nil
	c.animations = map[string]*animation{}
}

// Settle brings the board to rest: an active drag is cancelled and every
// running snap-back jumps to its end position. Use it before replacing
// piece geometry from outside the controller.
func (c *Controller) Settle() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == Dragging {
		d := c.drag
		c.surface.UpdatePieceView(d.id, d.rect.MoveTo(d.initial))
		c.surface.SetPieceState(d.id, model.StateNormal)
		c.state, c.drag = Idle, nil
	}
	for id, a := range c.animations {
		delete(c.animations, id)
		if err := c.reg.SetRect(id, a.final); err != nil {
			continue
		}
		c.surface.UpdatePieceView(id, a.final)
		c.surface.SetPieceState(id, model.StateNormal)
	}
}

// Animating reports whether piece id is currently being pushed back.
func (c *Controller) Animating(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.animations[id]
	return ok
}

func (c *Controller) animationStep(id string, token int, r geom.Rect) {
	c.mu.Lock()
	defer c.mu.Unlock()

	a, ok := c.animations[id]
	if !ok || a.token != token {
		return
	}
	a.rect = r
	c.surface.UpdatePieceView(id, r)
}

func (c *Controller) animationDone(id string, token int, final geom.Rect) {
	c.mu.Lock()
	defer c.mu.Unlock()

	a, ok := c.animations[id]
	if !ok || a.token != token {
		return
	}
	delete(c.animations, id)
	if err := c.reg.SetRect(id, final); err != nil {
		log.Warn().Err(err).Str("piece", id).Msg("snap-back finished for a piece that is gone")
		return
	}
	c.surface.UpdatePieceView(id, final)
	c.surface.SetPieceState(id, model.StateNormal)
}

// drawnPieces returns the registered pieces with every animating piece at
// the position it is currently drawn at.
func (c *Controller) drawnPieces() []model.Piece {
	pieces := c.reg.Pieces()
	for i, p := range pieces {
		if a, ok := c.animations[p.ID]; ok {
			pieces[i] = p.WithRect(a.rect)
		}
	}
	return pieces
}

// settledPieces returns the registered pieces with every animating piece at
// the position its snap-back ends at.
func (c *Controller) settledPieces() []model.Piece {
	pieces := c.reg.Pieces()
	for i, p := range pieces {
		if a, ok := c.animations[p.ID]; ok {
			pieces[i] = p.WithRect(a.final)
		}
	}
	return pieces
}

// otherRects returns the on-screen bounds of every piece except id.
func (c *Controller) otherRects(id string) []geom.Rect {
	pieces := c.drawnPieces()
	rects := make([]geom.Rect, 0, len(pieces))
	for _, p := range pieces {
		if p.ID != id {
			rects = append(rects, p.Rect())
		}
	}
	return rects
}
