// Package session ties the board together: it sequences calls to the
// puzzle service, applies their results to the registry and the surface,
// re-runs the layout after every structural change and keeps the undo
// history of piece moves.
//
// Remote operations (Load, Check, Assemble, Reset) block on the network
// and are meant to be called off the UI goroutine; every change they make
// to the board goes through the Dispatch function. Local operations (Fit,
// Undo, Redo, ApplyArrangement) run on the caller's goroutine, which must
// be the one Dispatch targets.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/piwi3910/Jigsaw/internal/geom"
	"github.com/piwi3910/Jigsaw/internal/interaction"
	"github.com/piwi3910/Jigsaw/internal/layout"
	"github.com/piwi3910/Jigsaw/internal/model"
	"github.com/piwi3910/Jigsaw/internal/registry"
)

// ErrSuperseded is returned when a later Load, Assemble or Reset started
// while this one was waiting on the service. Its result was discarded.
var ErrSuperseded = errors.New("superseded by a later request")

// Messages shown after a service answer.
const (
	MsgCorrect   = "Puzzle is correct!"
	MsgIncorrect = "Puzzle is incorrect!"
	MsgAssembled = "Puzzle successfully assembled!"
)

// Service is the puzzle service as the session uses it. *remote.Client
// implements it.
type Service interface {
	Upload(ctx context.Context, filename string, data []byte) error
	ListPieces(ctx context.Context) ([]model.Piece, error)
	CheckArrangement(ctx context.Context, pieces []model.Piece) (bool, error)
	Assemble(ctx context.Context) ([]model.Piece, error)
	Reset(ctx context.Context) error
}

// Notifier shows messages to the user.
type Notifier interface {
	Info(title, message string)
	Error(title string, err error)
}

// Dispatch runs f on the goroutine that owns the surface and returns once
// f has run.
type Dispatch func(f func())

// Sync is a Dispatch that runs f directly.
func Sync(f func()) { f() }

// Option configures a Session.
type Option func(*Session)

// WithDispatch sets how board changes are scheduled. The default is Sync.
func WithDispatch(d Dispatch) Option {
	return func(s *Session) { s.dispatch = d }
}

// WithConfig sets the drag tolerances.
func WithConfig(cfg interaction.Config) Option {
	return func(s *Session) { s.cfg = cfg }
}

// WithViewport sets the initial area the layout fits pieces into.
func WithViewport(v geom.Size) Option {
	return func(s *Session) { s.viewport = v }
}

// Session is one puzzle board.
type Session struct {
	svc      Service
	surface  interaction.Surface
	notify   Notifier
	dispatch Dispatch
	cfg      interaction.Config

	reg  *registry.Registry
	ctrl *interaction.Controller

	mu        sync.Mutex
	gen       uint64
	viewport  geom.Size
	container geom.Size
	scale     float64
	history   *History
}

// New creates an empty board drawn on surface.
func New(svc Service, surface interaction.Surface, animator interaction.Animator, notify Notifier, opts ...Option) *Session {
	s := &Session{
		svc:      svc,
		surface:  surface,
		notify:   notify,
		dispatch: Sync,
		cfg:      interaction.DefaultConfig(),
		reg:      registry.New(),
		history:  NewHistory(),
		scale:    1,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.ctrl = interaction.New(s.reg, surface, animator, s.cfg)
	s.ctrl.SetObserver(s)
	return s
}

// Controller returns the drag controller the surface feeds gestures to.
func (s *Session) Controller() *interaction.Controller { return s.ctrl }

// Pieces returns the current piece geometry in registry order.
func (s *Session) Pieces() []model.Piece { return s.reg.Pieces() }

// Container returns the container size of the last layout pass.
func (s *Session) Container() geom.Size {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.container
}

// Scale returns the factor applied by the last layout pass.
func (s *Session) Scale() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scale
}

// SetViewport records the visible board area. The layout is not re-run;
// call Fit for that.
func (s *Session) SetViewport(v geom.Size) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.viewport = v
}

// SetConfig changes the drag tolerances from the next gesture on.
func (s *Session) SetConfig(cfg interaction.Config) {
	s.ctrl.SetConfig(cfg)
}

// Load clears the board, uploads an image and shows the pieces the service
// cut it into. The registry is only replaced once both the upload and the
// listing succeeded; on failure the previous pieces are drawn again.
func (s *Session) Load(ctx context.Context, filename string, data []byte) error {
	token := s.begin()
	s.dispatch(func() {
		s.ctrl.Settle()
		s.surface.RemoveAllPieceViews()
	})

	if err := s.svc.Upload(ctx, filename, data); err != nil {
		return s.loadFailed(token, "Upload failed", err)
	}
	if !s.current(token) {
		return s.superseded("load")
	}

	pieces, err := s.svc.ListPieces(ctx)
	if err != nil {
		return s.loadFailed(token, "Loading pieces failed", err)
	}

	var applyErr error
	s.dispatch(func() {
		if !s.current(token) {
			applyErr = ErrSuperseded
			return
		}
		applyErr = s.rebuild(pieces)
		if applyErr != nil {
			s.redraw()
			s.notify.Error("Loading pieces failed", applyErr)
		}
	})
	if errors.Is(applyErr, ErrSuperseded) {
		return s.superseded("load")
	}
	if applyErr != nil {
		log.Error().Err(applyErr).Str("file", filename).Msg("service returned an unusable piece list")
		return applyErr
	}

	log.Info().Str("file", filename).Int("pieces", len(pieces)).Msg("puzzle loaded")
	return nil
}

// Check asks the service whether the current arrangement is solved and
// tells the user. The board is never changed.
func (s *Session) Check(ctx context.Context) (bool, error) {
	correct, err := s.svc.CheckArrangement(ctx, s.reg.Pieces())
	if err != nil {
		log.Error().Err(err).Msg("check failed")
		s.dispatch(func() { s.notify.Error("Check failed", err) })
		return false, err
	}

	msg := MsgIncorrect
	if correct {
		msg = MsgCorrect
	}
	log.Info().Bool("correct", correct).Msg("arrangement checked")
	s.dispatch(func() { s.notify.Info("Check", msg) })
	return correct, nil
}

// Assemble moves every piece to the position the service says it belongs
// and re-runs the layout. On failure nothing changes.
func (s *Session) Assemble(ctx context.Context) error {
	token := s.begin()

	pieces, err := s.svc.Assemble(ctx)
	if err != nil {
		if !s.current(token) {
			return s.superseded("assemble")
		}
		log.Error().Err(err).Msg("assemble failed")
		s.dispatch(func() { s.notify.Error("Assemble failed", err) })
		return err
	}

	var applyErr error
	s.dispatch(func() {
		if !s.current(token) {
			applyErr = ErrSuperseded
			return
		}
		s.ctrl.Settle()
		before := s.reg.Pieces()
		if applyErr = s.reg.Apply(pieces); applyErr != nil {
			s.notify.Error("Assemble failed", applyErr)
			return
		}
		s.record(MakeSnapshot(before, "Assemble"))
		s.refresh()
		s.fit()
		s.notify.Info("Assemble", MsgAssembled)
	})
	if errors.Is(applyErr, ErrSuperseded) {
		return s.superseded("assemble")
	}
	if applyErr != nil {
		log.Error().Err(applyErr).Msg("service returned an unusable solution")
		return applyErr
	}
	log.Info().Int("pieces", len(pieces)).Msg("puzzle assembled")
	return nil
}

// Reset asks the service to discard the puzzle and then empties the board
// whatever the answer was. A failed reset is still reported, since the
// service may keep the old puzzle while the board shows none.
func (s *Session) Reset(ctx context.Context) error {
	token := s.begin()
	err := s.svc.Reset(ctx)

	superseded := false
	s.dispatch(func() {
		if !s.current(token) {
			superseded = true
			return
		}
		s.clear()
		if err != nil {
			s.notify.Error("Reset failed", fmt.Errorf("the board was cleared but the service may still hold the puzzle: %w", err))
		}
	})
	if superseded {
		return s.superseded("reset")
	}
	if err != nil {
		log.Error().Err(err).Msg("reset failed, board cleared anyway")
		return err
	}
	log.Info().Msg("puzzle reset")
	return nil
}

// Fit rescales the board to the current viewport.
func (s *Session) Fit() {
	s.ctrl.Settle()
	s.fit()
}

// ApplyArrangement moves the pieces of the current puzzle to the saved
// positions in pieces. Every id must belong to the current puzzle.
func (s *Session) ApplyArrangement(pieces []model.Piece, label string) error {
	s.ctrl.Settle()
	before := s.reg.Pieces()
	if err := s.reg.Apply(pieces); err != nil {
		return fmt.Errorf("apply arrangement: %w", err)
	}
	s.record(MakeSnapshot(before, label))
	s.refresh()
	s.fit()
	return nil
}

// Undo restores the board to before the last move. It reports whether
// there was anything to undo.
func (s *Session) Undo() bool {
	s.ctrl.Settle()
	current := MakeSnapshot(s.reg.Pieces(), "")

	s.mu.Lock()
	snap, ok := s.history.Undo(current)
	s.mu.Unlock()
	if !ok {
		return false
	}
	s.restore(snap)
	return true
}

// Redo reapplies the last undone change.
func (s *Session) Redo() bool {
	s.ctrl.Settle()
	current := MakeSnapshot(s.reg.Pieces(), "")

	s.mu.Lock()
	snap, ok := s.history.Redo(current)
	s.mu.Unlock()
	if !ok {
		return false
	}
	s.restore(snap)
	return true
}

// CanUndo reports whether Undo would change anything.
func (s *Session) CanUndo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.CanUndo()
}

// CanRedo reports whether Redo would change anything.
func (s *Session) CanRedo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.CanRedo()
}

// UndoLabel describes the change Undo would revert.
func (s *Session) UndoLabel() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.UndoLabel()
}

// Dropped records an undo step for every drop that moved something.
func (s *Session) Dropped(before []model.Piece, out interaction.Outcome) {
	if out.From == out.To && !out.Matched() {
		return
	}
	label := "Move piece " + out.Dragged
	if out.Matched() {
		label = fmt.Sprintf("Swap pieces %s and %s", out.Dragged, out.Target)
	}
	s.record(MakeSnapshot(before, label))
}

func (s *Session) record(snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history.Push(snap)
}

func (s *Session) restore(snap Snapshot) {
	if err := s.reg.Apply(snap.Pieces); err != nil {
		log.Error().Err(err).Str("label", snap.Label).Msg("history snapshot no longer matches the board")
		return
	}
	s.refresh()
	s.fit()
}

// begin starts a structural request and returns its generation token.
func (s *Session) begin() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	return s.gen
}

func (s *Session) current(token uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen == token
}

func (s *Session) superseded(op string) error {
	log.Debug().Str("op", op).Msg("discarding superseded response")
	return ErrSuperseded
}

// loadFailed reports a failed upload or listing and redraws the pieces
// that were on the board before.
func (s *Session) loadFailed(token uint64, title string, err error) error {
	if !s.current(token) {
		return s.superseded("load")
	}
	log.Error().Err(err).Msg(title)
	s.dispatch(func() {
		if s.current(token) {
			s.redraw()
		}
		s.notify.Error(title, err)
	})
	return err
}

// rebuild replaces the whole board with pieces.
func (s *Session) rebuild(pieces []model.Piece) error {
	if err := s.reg.Replace(pieces); err != nil {
		return err
	}
	s.ctrl.Reset()
	s.mu.Lock()
	s.history.Clear()
	s.mu.Unlock()

	s.surface.RemoveAllPieceViews()
	for _, p := range s.reg.Pieces() {
		s.surface.CreatePieceView(p)
	}
	s.fit()
	return nil
}

// refresh moves every view to its registry geometry. The set of pieces
// must not have changed since the views were created.
func (s *Session) refresh() {
	for _, p := range s.reg.Pieces() {
		s.surface.UpdatePieceView(p.ID, p.Rect())
	}
}

// redraw recreates every view from the registry.
func (s *Session) redraw() {
	s.surface.RemoveAllPieceViews()
	for _, p := range s.reg.Pieces() {
		s.surface.CreatePieceView(p)
	}
}

func (s *Session) clear() {
	s.ctrl.Settle()
	s.ctrl.Reset()
	s.reg.Clear()
	s.surface.RemoveAllPieceViews()
	s.surface.ResizeContainer(geom.Size{})
	s.ctrl.SetContainer(geom.Size{})

	s.mu.Lock()
	s.history.Clear()
	s.container = geom.Size{}
	s.scale = 1
	s.mu.Unlock()
}

// fit runs the layout over the registry and pushes the result to the
// registry, the surface and the controller. Nothing happens when there is
// nothing to lay out or no viewport yet.
func (s *Session) fit() {
	s.mu.Lock()
	viewport := s.viewport
	s.mu.Unlock()

	res, ok := layout.Recompute(s.reg.Pieces(), viewport)
	if !ok {
		return
	}
	if err := s.reg.Apply(res.Pieces); err != nil {
		log.Error().Err(err).Msg("layout produced pieces the registry does not know")
		return
	}
	for _, p := range res.Pieces {
		s.surface.UpdatePieceView(p.ID, p.Rect())
	}
	s.surface.ResizeContainer(res.Container)
	s.ctrl.SetContainer(res.Container)

	s.mu.Lock()
	s.container = res.Container
	s.scale = res.Scale
	s.mu.Unlock()

	log.Debug().Float64("scale", res.Scale).Float64("w", res.Container.W).Float64("h", res.Container.H).Msg("layout applied")
}
