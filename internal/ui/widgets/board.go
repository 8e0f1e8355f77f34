package widgets

import (
	"context"
	"image/color"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"github.com/rs/zerolog/log"

	"github.com/piwi3910/Jigsaw/internal/geom"
	"github.com/piwi3910/Jigsaw/internal/interaction"
	"github.com/piwi3910/Jigsaw/internal/model"
)

// ColorNameBoard is the theme color behind the pieces.
const ColorNameBoard fyne.ThemeColorName = "jigsawBoard"

// Piece colors used until a piece's image has arrived.
var pieceColors = []color.NRGBA{
	{R: 76, G: 175, B: 80, A: 200},  // green
	{R: 33, G: 150, B: 243, A: 200}, // blue
	{R: 255, G: 152, B: 0, A: 200},  // orange
	{R: 156, G: 39, B: 176, A: 200}, // purple
	{R: 0, G: 188, B: 212, A: 200},  // cyan
	{R: 244, G: 67, B: 54, A: 200},  // red
}

// ImageSource fetches the image of one piece. *remote.Client implements it.
type ImageSource interface {
	PieceImage(ctx context.Context, id string) ([]byte, error)
}

// Board draws the puzzle pieces and turns drags on them into controller
// gestures. It implements interaction.Surface; every Surface method must be
// called on the Fyne goroutine.
type Board struct {
	widget.BaseWidget

	bg     *canvas.Rectangle
	pieces *fyne.Container

	ctrl      *interaction.Controller
	source    ImageSource
	container geom.Size
	views     map[string]*PieceView

	mu     sync.Mutex
	images map[string][]byte

	// OnResized is called with the board's new size whenever it changes.
	OnResized func(fyne.Size)
	// OnDropped is called after a drag on a piece has ended.
	OnDropped func(interaction.Outcome)
}

// NewBoard creates an empty board. source may be nil, in which case pieces
// are drawn as colored tiles.
func NewBoard(source ImageSource) *Board {
	b := &Board{
		bg:     canvas.NewRectangle(theme.Color(ColorNameBoard)),
		pieces: container.NewWithoutLayout(),
		source: source,
		views:  map[string]*PieceView{},
		images: map[string][]byte{},
	}
	b.ExtendBaseWidget(b)
	return b
}

// SetController installs the controller that drags are fed to.
func (b *Board) SetController(c *interaction.Controller) {
	b.ctrl = c
}

// Images returns the piece images fetched so far, keyed by piece id.
func (b *Board) Images() map[string][]byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make(map[string][]byte, len(b.images))
	for id, data := range b.images {
		out[id] = data
	}
	return out
}

// View returns the view of piece id.
func (b *Board) View(id string) (*PieceView, bool) {
	v, ok := b.views[id]
	return v, ok
}

// ContainerSize returns the size of the area the pieces are laid out in.
func (b *Board) ContainerSize() geom.Size {
	return b.container
}

func (b *Board) CreatePieceView(p model.Piece) {
	v := newPieceView(b, p.ID, pieceColors[len(b.views)%len(pieceColors)])
	b.views[p.ID] = v
	b.pieces.Add(v)
	b.place(v, p.Rect())

	if b.source != nil {
		go b.fetchImage(v)
	}
}

func (b *Board) UpdatePieceView(id string, r geom.Rect) {
	if v, ok := b.views[id]; ok {
		b.place(v, r)
	}
}

func (b *Board) RemoveAllPieceViews() {
	b.pieces.RemoveAll()
	b.views = map[string]*PieceView{}

	b.mu.Lock()
	b.images = map[string][]byte{}
	b.mu.Unlock()
}

func (b *Board) ResizeContainer(s geom.Size) {
	b.container = s
	b.bg.Resize(fyne.NewSize(float32(s.W), float32(s.H)))
	b.bg.Refresh()
}

func (b *Board) SetPieceState(id string, s model.VisualState) {
	v, ok := b.views[id]
	if !ok {
		return
	}
	v.setState(s)
	if s.Elevated() {
		// Last child is drawn on top
		b.pieces.Remove(v)
		b.pieces.Add(v)
	}
}

// Resize keeps the board filling its cell and reports the new size.
func (b *Board) Resize(size fyne.Size) {
	old := b.Size()
	b.BaseWidget.Resize(size)
	if size != old && b.OnResized != nil {
		b.OnResized(size)
	}
}

func (b *Board) MinSize() fyne.Size {
	return fyne.NewSize(200, 150)
}

func (b *Board) CreateRenderer() fyne.WidgetRenderer {
	return &boardRenderer{board: b}
}

func (b *Board) place(v *PieceView, r geom.Rect) {
	v.Move(fyne.NewPos(float32(r.X), float32(r.Y)))
	v.Resize(fyne.NewSize(float32(r.W), float32(r.H)))
}

// fetchImage loads the image of v off the UI goroutine. A result for a view
// that was removed in the meantime is dropped.
func (b *Board) fetchImage(v *PieceView) {
	data, err := b.source.PieceImage(context.Background(), v.id)
	if err != nil {
		log.Warn().Err(err).Str("piece", v.id).Msg("failed to fetch piece image")
		return
	}
	fyne.Do(func() {
		if b.views[v.id] != v {
			return
		}
		b.mu.Lock()
		b.images[v.id] = data
		b.mu.Unlock()
		v.setImage(data)
	})
}

// dragged moves piece id by delta, starting a gesture on the first call.
func (b *Board) dragged(v *PieceView, delta fyne.Delta) {
	if b.ctrl == nil {
		return
	}
	if !v.dragging {
		if err := b.ctrl.Begin(v.id); err != nil {
			log.Debug().Err(err).Str("piece", v.id).Msg("drag refused")
			return
		}
		v.dragging = true
		v.grab = v.Position()
	}
	v.grab = v.grab.Add(delta)
	if _, err := b.ctrl.DragTo(geom.Point{X: float64(v.grab.X), Y: float64(v.grab.Y)}); err != nil {
		log.Debug().Err(err).Str("piece", v.id).Msg("drag lost")
		v.dragging = false
	}
}

func (b *Board) dragEnd(v *PieceView) {
	if !v.dragging {
		return
	}
	v.dragging = false
	out, err := b.ctrl.End()
	if err != nil {
		log.Debug().Err(err).Str("piece", v.id).Msg("drop ignored")
		return
	}
	if b.OnDropped != nil {
		b.OnDropped(out)
	}
}

type boardRenderer struct {
	board *Board
}

func (r *boardRenderer) Layout(size fyne.Size) {
	r.board.pieces.Resize(size)
}

func (r *boardRenderer) MinSize() fyne.Size {
	return r.board.MinSize()
}

func (r *boardRenderer) Refresh() {
	r.board.bg.FillColor = theme.Color(ColorNameBoard)
	r.board.bg.Refresh()
	r.board.pieces.Refresh()
}

func (r *boardRenderer) Objects() []fyne.CanvasObject {
	return []fyne.CanvasObject{r.board.bg, r.board.pieces}
}

func (r *boardRenderer) Destroy() {}
