package export

import (
	"fmt"

	"github.com/yofu/dxf"
	"github.com/yofu/dxf/drawing"

	"github.com/piwi3910/Jigsaw/internal/model"
)

// Layer names used in the DXF export. Each piece outline sits on its own
// layer named PiecePrefix + id.
const (
	BoardLayer  = "BOARD"
	PiecePrefix = "PIECE_"
)

// ExportDXF writes the board outline and one closed rectangle of lines per
// piece. The Y axis is flipped so the drawing reads the same way up in CAD.
func ExportDXF(path string, a model.Arrangement) error {
	if len(a.Pieces) == 0 {
		return ErrNothingToExport
	}
	boardW, boardH := boardSize(a)

	d := dxf.NewDrawing()
	if _, err := d.AddLayer(BoardLayer, dxf.DefaultColor, dxf.DefaultLineType, true); err != nil {
		return fmt.Errorf("failed to add board layer: %w", err)
	}
	if err := rectangle(d, 0, 0, boardW, boardH, boardH); err != nil {
		return err
	}

	for _, p := range a.Pieces {
		if _, err := d.AddLayer(PiecePrefix+p.ID, dxf.DefaultColor, dxf.DefaultLineType, true); err != nil {
			return fmt.Errorf("failed to add layer for piece %q: %w", p.ID, err)
		}
		if err := rectangle(d, p.X, p.Y, p.Width, p.Height, boardH); err != nil {
			return fmt.Errorf("piece %q: %w", p.ID, err)
		}
	}

	if err := d.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save DXF: %w", err)
	}
	return nil
}

// rectangle draws x,y,w,h (top-left origin) as four lines in a Y-up
// drawing of height boardH.
func rectangle(d *drawing.Drawing, x, y, w, h, boardH float64) error {
	top := boardH - y
	bottom := boardH - (y + h)
	corners := [][2]float64{
		{x, top},
		{x + w, top},
		{x + w, bottom},
		{x, bottom},
	}
	for i := range corners {
		a, b := corners[i], corners[(i+1)%len(corners)]
		if _, err := d.Line(a[0], a[1], 0, b[0], b[1], 0); err != nil {
			return fmt.Errorf("failed to draw line: %w", err)
		}
	}
	return nil
}
