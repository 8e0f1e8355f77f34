package widgets

import (
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/widget"

	"github.com/piwi3910/Jigsaw/internal/model"
)

var (
	normalStroke   = color.NRGBA{R: 30, G: 30, B: 30, A: 255}
	elevatedStroke = color.NRGBA{R: 255, G: 193, B: 7, A: 255}
)

// PieceView is the on-board view of one piece. Dragging it drives the
// board's controller.
type PieceView struct {
	widget.BaseWidget

	board *Board
	id    string
	state model.VisualState

	fill   *canvas.Rectangle
	image  *canvas.Image
	border *canvas.Rectangle
	label  *canvas.Text

	dragging bool
	grab     fyne.Position // unsnapped pointer position of the piece's top-left
}

func newPieceView(b *Board, id string, col color.NRGBA) *PieceView {
	v := &PieceView{
		board:  b,
		id:     id,
		fill:   canvas.NewRectangle(col),
		border: canvas.NewRectangle(color.Transparent),
		label:  canvas.NewText(id, color.Black),
	}
	v.border.StrokeColor = normalStroke
	v.border.StrokeWidth = 1
	v.label.TextSize = 10
	v.ExtendBaseWidget(v)
	return v
}

// ID returns the piece id.
func (v *PieceView) ID() string { return v.id }

// State returns how the piece is currently drawn.
func (v *PieceView) State() model.VisualState { return v.state }

// HasImage reports whether the piece image has been loaded.
func (v *PieceView) HasImage() bool { return v.image != nil }

func (v *PieceView) Dragged(ev *fyne.DragEvent) {
	v.board.dragged(v, ev.Dragged)
}

func (v *PieceView) DragEnd() {
	v.board.dragEnd(v)
}

func (v *PieceView) setState(s model.VisualState) {
	v.state = s
	if s.Elevated() {
		v.border.StrokeColor = elevatedStroke
		v.border.StrokeWidth = 3
	} else {
		v.border.StrokeColor = normalStroke
		v.border.StrokeWidth = 1
	}
	v.Refresh()
}

func (v *PieceView) setImage(data []byte) {
	img := canvas.NewImageFromResource(fyne.NewStaticResource("piece-"+v.id, data))
	img.FillMode = canvas.ImageFillStretch
	v.image = img
	v.Refresh()
}

func (v *PieceView) CreateRenderer() fyne.WidgetRenderer {
	return &pieceViewRenderer{view: v}
}

type pieceViewRenderer struct {
	view *PieceView
}

func (r *pieceViewRenderer) Layout(size fyne.Size) {
	v := r.view
	v.fill.Resize(size)
	v.border.Resize(size)
	if v.image != nil {
		v.image.Resize(size)
	}
	v.label.Move(fyne.NewPos(3, 2))
}

func (r *pieceViewRenderer) MinSize() fyne.Size {
	return fyne.NewSize(1, 1)
}

func (r *pieceViewRenderer) Refresh() {
	r.Layout(r.view.Size())
	r.view.border.Refresh()
	if r.view.image != nil {
		r.view.image.Refresh()
	}
	r.view.label.Refresh()
}

func (r *pieceViewRenderer) Objects() []fyne.CanvasObject {
	v := r.view
	if v.image != nil {
		return []fyne.CanvasObject{v.image, v.border}
	}
	objects := []fyne.CanvasObject{v.fill, v.border}
	if v.Size().Width > 30 && v.Size().Height > 16 {
		objects = append(objects, v.label)
	}
	return objects
}

func (r *pieceViewRenderer) Destroy() {}
