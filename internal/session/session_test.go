package session

import (
	"context"
	"errors"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piwi3910/Jigsaw/internal/geom"
	"github.com/piwi3910/Jigsaw/internal/interaction"
	"github.com/piwi3910/Jigsaw/internal/model"
	"github.com/piwi3910/Jigsaw/internal/remote"
	"github.com/piwi3910/Jigsaw/internal/remote/remotetest"
)

var errBoom = errors.New("boom")

// fakeService answers from canned data. lists is keyed by the name of the
// last uploaded file.
type fakeService struct {
	mu       sync.Mutex
	calls    []string
	uploaded string
	lists    map[string][]model.Piece
	solved   []model.Piece
	correct  bool
	checked  []model.Piece

	uploadErr, listErr, checkErr, assembleErr, resetErr error

	onUpload func()
	onReset  func()
}

func (f *fakeService) call(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, name)
}

func (f *fakeService) Upload(_ context.Context, filename string, _ []byte) error {
	f.call("upload")
	if f.uploadErr != nil {
		return f.uploadErr
	}
	f.uploaded = filename
	if hook := f.onUpload; hook != nil {
		f.onUpload = nil
		hook()
	}
	return nil
}

func (f *fakeService) ListPieces(context.Context) ([]model.Piece, error) {
	f.call("list")
	if f.listErr != nil {
		return nil, f.listErr
	}
	return model.CopyPieces(f.lists[f.uploaded]), nil
}

func (f *fakeService) CheckArrangement(_ context.Context, pieces []model.Piece) (bool, error) {
	f.call("check")
	f.checked = model.CopyPieces(pieces)
	return f.correct, f.checkErr
}

func (f *fakeService) Assemble(context.Context) ([]model.Piece, error) {
	f.call("assemble")
	if f.assembleErr != nil {
		return nil, f.assembleErr
	}
	return model.CopyPieces(f.solved), nil
}

func (f *fakeService) Reset(context.Context) error {
	f.call("reset")
	if hook := f.onReset; hook != nil {
		f.onReset = nil
		hook()
	}
	return f.resetErr
}

type fakeSurface struct {
	views     map[string]geom.Rect
	states    map[string]model.VisualState
	container geom.Size
	creates   int
}

func newFakeSurface() *fakeSurface {
	return &fakeSurface{views: map[string]geom.Rect{}, states: map[string]model.VisualState{}}
}

func (s *fakeSurface) CreatePieceView(p model.Piece) {
	s.creates++
	s.views[p.ID] = p.Rect()
}
func (s *fakeSurface) UpdatePieceView(id string, r geom.Rect) { s.views[id] = r }
func (s *fakeSurface) RemoveAllPieceViews() {
	s.views = map[string]geom.Rect{}
	s.states = map[string]model.VisualState{}
}
func (s *fakeSurface) ResizeContainer(size geom.Size)                 { s.container = size }
func (s *fakeSurface) SetPieceState(id string, st model.VisualState) { s.states[id] = st }

// instantAnimator jumps straight to the end.
type instantAnimator struct{}

func (instantAnimator) Animate(_, to geom.Point, _ time.Duration, step func(geom.Point), done func()) {
	step(to)
	done()
}

// heldAnimator keeps animations running until the test lets go.
type heldAnimator struct{ steps []func(geom.Point) }

func (h *heldAnimator) Animate(_, _ geom.Point, _ time.Duration, step func(geom.Point), _ func()) {
	h.steps = append(h.steps, step)
}

type recordingNotifier struct {
	infos  []string
	errors []string
}

func (n *recordingNotifier) Info(_, message string)  { n.infos = append(n.infos, message) }
func (n *recordingNotifier) Error(title string, _ error) { n.errors = append(n.errors, title) }

func row(ids ...string) []model.Piece {
	pieces := make([]model.Piece, len(ids))
	for i, id := range ids {
		pieces[i] = model.Piece{ID: id, X: float64(i) * 100, Width: 100, Height: 100}
	}
	return pieces
}

type fixture struct {
	s      *Session
	svc    *fakeService
	surf   *fakeSurface
	notify *recordingNotifier
}

func newFixture(t *testing.T, viewport geom.Size, opts ...Option) *fixture {
	t.Helper()
	f := &fixture{
		svc:    &fakeService{lists: map[string][]model.Piece{}},
		surf:   newFakeSurface(),
		notify: &recordingNotifier{},
	}
	cfg := interaction.DefaultConfig()
	cfg.SnapTolerance = 0
	opts = append([]Option{WithViewport(viewport), WithConfig(cfg)}, opts...)
	f.s = New(f.svc, f.surf, instantAnimator{}, f.notify, opts...)
	return f
}

func (f *fixture) load(t *testing.T, name string, pieces []model.Piece) {
	t.Helper()
	f.svc.lists[name] = pieces
	require.NoError(t, f.s.Load(context.Background(), name, nil))
}

func ids(pieces []model.Piece) []string {
	out := make([]string, len(pieces))
	for i, p := range pieces {
		out[i] = p.ID
	}
	return out
}

func TestLoad_UploadsThenListsThenLaysOut(t *testing.T) {
	f := newFixture(t, geom.Size{W: 100, H: 100})
	f.load(t, "img.png", row("1", "2"))

	assert.Equal(t, []string{"upload", "list"}, f.svc.calls)
	assert.Equal(t, []string{"1", "2"}, ids(f.s.Pieces()))

	// 200x100 fitted into 100x100 halves everything
	assert.Equal(t, 0.5, f.s.Scale())
	assert.Equal(t, geom.Size{W: 100, H: 50}, f.s.Container())
	assert.Equal(t, geom.Size{W: 100, H: 50}, f.surf.container)
	assert.Equal(t, geom.Rect{X: 50, Y: 0, W: 50, H: 50}, f.surf.views["2"])
	assert.Empty(t, f.notify.errors)
}

func TestLoad_ReplacesPreviousPuzzle(t *testing.T) {
	f := newFixture(t, geom.Size{W: 300, H: 100})
	f.load(t, "first.png", row("1", "2", "3"))
	f.load(t, "second.png", row("7", "8"))

	assert.Equal(t, []string{"7", "8"}, ids(f.s.Pieces()))
	assert.Len(t, f.surf.views, 2)
}

func TestLoad_UploadFailureKeepsBoard(t *testing.T) {
	f := newFixture(t, geom.Size{W: 200, H: 100})
	f.load(t, "ok.png", row("1", "2"))

	f.svc.uploadErr = errBoom
	err := f.s.Load(context.Background(), "bad.png", nil)
	assert.ErrorIs(t, err, errBoom)

	assert.Equal(t, []string{"upload", "list", "upload"}, f.svc.calls, "no listing after a failed upload")
	assert.Equal(t, []string{"1", "2"}, ids(f.s.Pieces()))
	assert.Len(t, f.surf.views, 2, "previous pieces are drawn again")
	assert.Equal(t, []string{"Upload failed"}, f.notify.errors)
}

func TestLoad_ListFailureKeepsBoard(t *testing.T) {
	f := newFixture(t, geom.Size{W: 200, H: 100})
	f.load(t, "ok.png", row("1", "2"))

	f.svc.listErr = errBoom
	err := f.s.Load(context.Background(), "next.png", nil)
	assert.ErrorIs(t, err, errBoom)
	assert.Equal(t, []string{"1", "2"}, ids(f.s.Pieces()))
	assert.Equal(t, []string{"Loading pieces failed"}, f.notify.errors)
}

func TestLoad_RejectsDuplicateIDs(t *testing.T) {
	f := newFixture(t, geom.Size{W: 200, H: 100})
	f.load(t, "ok.png", row("1", "2"))

	f.svc.lists["dup.png"] = row("5", "5")
	err := f.s.Load(context.Background(), "dup.png", nil)
	require.Error(t, err)
	assert.Equal(t, []string{"1", "2"}, ids(f.s.Pieces()))
	assert.Len(t, f.notify.errors, 1)
}

func TestLoad_SupersededResultIsDiscarded(t *testing.T) {
	f := newFixture(t, geom.Size{W: 300, H: 100})
	f.svc.lists["old.png"] = row("1", "2", "3")
	f.svc.lists["new.png"] = row("9")

	// A second load starts and finishes while the first waits on upload.
	var second error
	f.svc.onUpload = func() {
		second = f.s.Load(context.Background(), "new.png", nil)
	}
	first := f.s.Load(context.Background(), "old.png", nil)

	require.NoError(t, second)
	assert.ErrorIs(t, first, ErrSuperseded)
	assert.Equal(t, []string{"9"}, ids(f.s.Pieces()))
	assert.Empty(t, f.notify.errors, "superseded responses are not reported")
}

func TestCheck_Messages(t *testing.T) {
	f := newFixture(t, geom.Size{W: 200, H: 100})
	f.load(t, "img.png", row("1", "2"))
	before := f.s.Pieces()

	f.svc.correct = true
	ok, err := f.s.Check(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)

	f.svc.correct = false
	ok, err = f.s.Check(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)

	assert.Equal(t, []string{MsgCorrect, MsgIncorrect}, f.notify.infos)
	assert.Equal(t, before, f.svc.checked, "the registry is sent as is")
	assert.Equal(t, before, f.s.Pieces())
}

func TestCheck_FailureIsReported(t *testing.T) {
	f := newFixture(t, geom.Size{W: 200, H: 100})
	f.load(t, "img.png", row("1", "2"))
	before := f.s.Pieces()

	f.svc.checkErr = errBoom
	ok, err := f.s.Check(context.Background())
	assert.False(t, ok)
	assert.ErrorIs(t, err, errBoom)
	assert.Equal(t, []string{"Check failed"}, f.notify.errors)
	assert.Empty(t, f.notify.infos)
	assert.Equal(t, before, f.s.Pieces())
}

func TestAssemble_AppliesSolutionAndLayout(t *testing.T) {
	f := newFixture(t, geom.Size{W: 200, H: 200})
	f.load(t, "img.png", row("1", "2"))
	require.Equal(t, 1.0, f.s.Scale())

	f.svc.solved = []model.Piece{
		{ID: "1", X: 0, Y: 100, Width: 100, Height: 100},
		{ID: "2", X: 0, Y: 0, Width: 100, Height: 100},
	}
	require.NoError(t, f.s.Assemble(context.Background()))

	// 100x200 fitted into 200x200 keeps scale 1
	p1, _ := f.s.reg.Get("1")
	assert.Equal(t, geom.Rect{X: 0, Y: 100, W: 100, H: 100}, p1.Rect())
	assert.Equal(t, p1.Rect(), f.surf.views["1"])
	assert.Equal(t, geom.Size{W: 100, H: 200}, f.s.Container())
	assert.Equal(t, []string{MsgAssembled}, f.notify.infos)

	require.True(t, f.s.CanUndo())
	assert.Equal(t, "Assemble", f.s.UndoLabel())
	require.True(t, f.s.Undo())
	p1, _ = f.s.reg.Get("1")
	assert.Equal(t, 0.0, p1.Y)
}

func TestAssemble_FailureChangesNothing(t *testing.T) {
	f := newFixture(t, geom.Size{W: 200, H: 100})
	f.load(t, "img.png", row("1", "2"))
	before := f.s.Pieces()

	f.svc.assembleErr = errBoom
	assert.ErrorIs(t, f.s.Assemble(context.Background()), errBoom)
	assert.Equal(t, before, f.s.Pieces())
	assert.Equal(t, []string{"Assemble failed"}, f.notify.errors)
	assert.False(t, f.s.CanUndo())
}

func TestAssemble_UnknownIDChangesNothing(t *testing.T) {
	f := newFixture(t, geom.Size{W: 200, H: 100})
	f.load(t, "img.png", row("1", "2"))
	before := f.s.Pieces()

	f.svc.solved = []model.Piece{{ID: "1", X: 100, Width: 100, Height: 100}, {ID: "x", Width: 100, Height: 100}}
	assert.Error(t, f.s.Assemble(context.Background()))
	assert.Equal(t, before, f.s.Pieces())
	assert.Empty(t, f.notify.infos)
}

func TestReset_ClearsBoard(t *testing.T) {
	f := newFixture(t, geom.Size{W: 200, H: 100})
	f.load(t, "img.png", row("1", "2"))

	require.NoError(t, f.s.Reset(context.Background()))
	assert.Empty(t, f.s.Pieces())
	assert.Empty(t, f.surf.views)
	assert.Equal(t, geom.Size{}, f.surf.container)
	assert.Equal(t, geom.Size{}, f.s.Container())
	assert.Empty(t, f.notify.errors)
}

func TestReset_FailureStillClearsAndReports(t *testing.T) {
	f := newFixture(t, geom.Size{W: 200, H: 100})
	f.load(t, "img.png", row("1", "2"))

	f.svc.resetErr = errBoom
	assert.ErrorIs(t, f.s.Reset(context.Background()), errBoom)
	assert.Empty(t, f.s.Pieces())
	assert.Empty(t, f.surf.views)
	assert.Equal(t, []string{"Reset failed"}, f.notify.errors)
}

func TestReset_SupersededByLoad(t *testing.T) {
	f := newFixture(t, geom.Size{W: 200, H: 100})
	f.svc.lists["img.png"] = row("1", "2")

	var loadErr error
	f.svc.onReset = func() {
		loadErr = f.s.Load(context.Background(), "img.png", nil)
	}
	assert.ErrorIs(t, f.s.Reset(context.Background()), ErrSuperseded)
	require.NoError(t, loadErr)
	assert.Len(t, f.s.Pieces(), 2, "a late reset does not wipe the newer puzzle")
}

func TestDragUndoRedo(t *testing.T) {
	f := newFixture(t, geom.Size{W: 200, H: 100})
	f.load(t, "img.png", row("a", "b"))
	ctrl := f.s.Controller()

	require.NoError(t, ctrl.Begin("a"))
	_, err := ctrl.DragTo(geom.Point{X: 100, Y: 0})
	require.NoError(t, err)
	out, err := ctrl.End()
	require.NoError(t, err)
	require.Equal(t, "b", out.Target)

	a, _ := f.s.reg.Get("a")
	b, _ := f.s.reg.Get("b")
	assert.Equal(t, 100.0, a.X)
	assert.Equal(t, 0.0, b.X)
	assert.Equal(t, "Swap pieces a and b", f.s.UndoLabel())

	require.True(t, f.s.Undo())
	a, _ = f.s.reg.Get("a")
	b, _ = f.s.reg.Get("b")
	assert.Equal(t, 0.0, a.X)
	assert.Equal(t, 100.0, b.X)
	assert.Equal(t, geom.Rect{X: 100, W: 100, H: 100}, f.surf.views["b"])
	assert.True(t, f.s.CanRedo())

	require.True(t, f.s.Redo())
	a, _ = f.s.reg.Get("a")
	assert.Equal(t, 100.0, a.X)
	assert.False(t, f.s.Redo())
}

func TestUndo_FinishesRunningAnimation(t *testing.T) {
	f := newFixture(t, geom.Size{W: 200, H: 100})
	anim := &heldAnimator{}
	f.s = New(f.svc, f.surf, anim, f.notify, WithViewport(geom.Size{W: 200, H: 100}), WithConfig(interaction.Config{OverlapTolerance: 10}))
	f.load(t, "img.png", row("a", "b"))
	ctrl := f.s.Controller()

	require.NoError(t, ctrl.Begin("a"))
	_, _ = ctrl.DragTo(geom.Point{X: 100, Y: 0})
	_, err := ctrl.End()
	require.NoError(t, err)
	require.True(t, ctrl.Animating("b"))

	require.True(t, f.s.Undo())
	assert.False(t, ctrl.Animating("b"))
	b, _ := f.s.reg.Get("b")
	assert.Equal(t, 100.0, b.X)

	// A late tick from the dropped animation is ignored
	anim.steps[0](geom.Point{X: 50, Y: 0})
	assert.Equal(t, 100.0, f.surf.views["b"].X)
}

func TestUndo_DropDuringSnapBackLeavesNoOverlap(t *testing.T) {
	f := newFixture(t, geom.Size{W: 300, H: 100})
	anim := &heldAnimator{}
	f.s = New(f.svc, f.surf, anim, f.notify, WithViewport(geom.Size{W: 300, H: 100}), WithConfig(interaction.Config{OverlapTolerance: 10}))
	f.load(t, "img.png", row("a", "b", "c"))
	ctrl := f.s.Controller()

	require.NoError(t, ctrl.Begin("a"))
	_, _ = ctrl.DragTo(geom.Point{X: 100, Y: 0})
	out, err := ctrl.End()
	require.NoError(t, err)
	require.Equal(t, "b", out.Target)
	require.True(t, ctrl.Animating("b"))

	// c is moved while b is still on its way back
	require.NoError(t, ctrl.Begin("c"))
	_, _ = ctrl.DragTo(geom.Point{X: 190, Y: 0})
	out, err = ctrl.End()
	require.NoError(t, err)
	require.False(t, out.Matched())
	require.Equal(t, "Move piece c", f.s.UndoLabel())

	require.True(t, f.s.Undo())
	a, _ := f.s.reg.Get("a")
	b, _ := f.s.reg.Get("b")
	c, _ := f.s.reg.Get("c")
	assert.Equal(t, 100.0, a.X)
	assert.Equal(t, 0.0, b.X, "b is restored where its snap-back ended")
	assert.Equal(t, 200.0, c.X)
	assert.False(t, geom.Overlaps(a.Rect(), b.Rect(), 10))
}

func TestDrop_InPlaceIsNotRecorded(t *testing.T) {
	f := newFixture(t, geom.Size{W: 200, H: 100})
	f.load(t, "img.png", row("a", "b"))
	ctrl := f.s.Controller()

	require.NoError(t, ctrl.Begin("a"))
	_, err := ctrl.End()
	require.NoError(t, err)
	assert.False(t, f.s.CanUndo())
}

func TestFit_UsesCurrentViewport(t *testing.T) {
	f := newFixture(t, geom.Size{})
	f.load(t, "img.png", row("1", "2"))

	// No viewport yet: layout is a no-op
	assert.Equal(t, 1.0, f.s.Scale())
	assert.Equal(t, geom.Size{}, f.s.Container())

	f.s.SetViewport(geom.Size{W: 400, H: 400})
	f.s.Fit()
	assert.Equal(t, 2.0, f.s.Scale())
	assert.Equal(t, geom.Size{W: 400, H: 200}, f.surf.container)

	// Fitting again is stable
	f.s.Fit()
	assert.Equal(t, 1.0, f.s.Scale())
	assert.Equal(t, geom.Size{W: 400, H: 200}, f.s.Container())
}

func TestApplyArrangement(t *testing.T) {
	f := newFixture(t, geom.Size{W: 200, H: 100})
	f.load(t, "img.png", row("1", "2"))

	swapped := []model.Piece{
		{ID: "1", X: 100, Width: 100, Height: 100},
		{ID: "2", X: 0, Width: 100, Height: 100},
	}
	require.NoError(t, f.s.ApplyArrangement(swapped, "Open arrangement"))
	p1, _ := f.s.reg.Get("1")
	assert.Equal(t, 100.0, p1.X)
	assert.Equal(t, "Open arrangement", f.s.UndoLabel())

	err := f.s.ApplyArrangement([]model.Piece{{ID: "zz"}}, "bad")
	assert.Error(t, err)
	p1, _ = f.s.reg.Get("1")
	assert.Equal(t, 100.0, p1.X)
}

func TestAgainstStubService(t *testing.T) {
	stub := remotetest.New(remotetest.WithGrid(3, 2), remotetest.WithSeed(11))
	ts := httptest.NewServer(stub)
	defer ts.Close()

	client, err := remote.New(ts.URL)
	require.NoError(t, err)

	surf := newFakeSurface()
	notify := &recordingNotifier{}
	s := New(client, surf, instantAnimator{}, notify, WithViewport(geom.Size{W: 600, H: 400}))
	ctx := context.Background()

	require.NoError(t, s.Load(ctx, "photo.png", remotetest.PNG(300, 200)))
	require.Len(t, s.Pieces(), 6)
	assert.Equal(t, 2.0, s.Scale())

	require.NoError(t, s.Assemble(ctx))
	ok, err := s.Check(ctx)
	require.NoError(t, err)
	assert.True(t, ok, "an assembled and rescaled board still checks out")

	require.NoError(t, s.Reset(ctx))
	assert.Empty(t, s.Pieces())
	assert.Equal(t, 0, stub.Sessions())
	assert.Equal(t, []string{MsgAssembled, MsgCorrect}, notify.infos)
	assert.Empty(t, notify.errors)
}
