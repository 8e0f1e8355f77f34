// Package export writes a board arrangement to printable and
// machine-readable files: a PDF drawing, QR-coded piece cards, an XLSX
// piece table and DXF outlines.
package export

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"math"

	"github.com/go-pdf/fpdf"

	"github.com/piwi3910/Jigsaw/internal/layout"
	"github.com/piwi3910/Jigsaw/internal/model"
)

// ErrNothingToExport is returned for an arrangement without pieces.
var ErrNothingToExport = errors.New("no pieces to export")

// pieceColor represents an RGB fill for a piece without an image.
type pieceColor struct {
	R, G, B int
}

// pieceColors mirrors the fallback colours of the board widget.
var pieceColors = []pieceColor{
	{R: 76, G: 175, B: 80},  // green
	{R: 33, G: 150, B: 243}, // blue
	{R: 255, G: 152, B: 0},  // orange
	{R: 156, G: 39, B: 176}, // purple
	{R: 0, G: 188, B: 212},  // cyan
	{R: 244, G: 67, B: 54},  // red
	{R: 255, G: 235, B: 59}, // yellow
	{R: 121, G: 85, B: 72},  // brown
}

// Page layout constants (A4 landscape in mm).
const (
	pageWidth    = 297.0
	pageHeight   = 210.0
	marginLeft   = 15.0
	marginRight  = 15.0
	marginTop    = 15.0
	marginBottom = 15.0
	headerHeight = 12.0
	legendHeight = 20.0
	drawAreaTop  = marginTop + headerHeight + 5.0
)

// fpdf image types keyed by image.DecodeConfig format names.
var pdfImageTypes = map[string]string{
	"png":  "PNG",
	"jpeg": "JPG",
	"gif":  "GIF",
}

// ExportPDF renders the arrangement on one page, drawn to scale, followed
// by a page listing every piece. images holds encoded piece images by id;
// pieces without a usable image are drawn as coloured rectangles.
func ExportPDF(path string, a model.Arrangement, images map[string][]byte) error {
	if len(a.Pieces) == 0 {
		return ErrNothingToExport
	}
	if w, h := boardSize(a); w <= 0 || h <= 0 {
		return fmt.Errorf("%w: board has no area", ErrNothingToExport)
	}

	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetAutoPageBreak(false, marginBottom)

	pdf.AddPage()
	renderBoardPage(pdf, a, images)

	pdf.AddPage()
	renderPieceTable(pdf, a)

	return pdf.OutputFileAndClose(path)
}

// boardSize is the container of the arrangement, or the pieces' bounding
// box when none was recorded.
func boardSize(a model.Arrangement) (float64, float64) {
	if !a.Container.Empty() {
		return a.Container.W, a.Container.H
	}
	b := layout.Bounds(a.Pieces)
	return b.W, b.H
}

// renderBoardPage draws the board on the current PDF page.
func renderBoardPage(pdf *fpdf.Fpdf, a model.Arrangement, images map[string][]byte) {
	boardW, boardH := boardSize(a)

	// Title
	pdf.SetFont("Helvetica", "B", 14)
	pdf.SetXY(marginLeft, marginTop)
	title := fmt.Sprintf("%s (%.0f x %.0f px)", displayName(a), boardW, boardH)
	pdf.CellFormat(pageWidth-marginLeft-marginRight, headerHeight, title, "", 0, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	pdf.SetXY(marginLeft, marginTop+headerHeight)
	stats := fmt.Sprintf("Pieces: %d | Saved: %s", len(a.Pieces), a.CreatedAt)
	pdf.CellFormat(pageWidth-marginLeft-marginRight, 5, stats, "", 0, "L", false, 0, "")

	drawWidth := pageWidth - marginLeft - marginRight
	drawHeight := pageHeight - drawAreaTop - marginBottom - legendHeight

	scale := math.Min(drawWidth/boardW, drawHeight/boardH)
	canvasW := boardW * scale
	canvasH := boardH * scale

	// Center the drawing horizontally
	offsetX := marginLeft + (drawWidth-canvasW)/2
	offsetY := drawAreaTop

	pdf.SetFillColor(240, 240, 240)
	pdf.SetDrawColor(100, 100, 100)
	pdf.SetLineWidth(0.5)
	pdf.Rect(offsetX, offsetY, canvasW, canvasH, "FD")

	for i, p := range a.Pieces {
		px := offsetX + p.X*scale
		py := offsetY + p.Y*scale
		pw := p.Width * scale
		ph := p.Height * scale

		if !drawPieceImage(pdf, p.ID, images[p.ID], px, py, pw, ph) {
			col := pieceColors[i%len(pieceColors)]
			pdf.SetFillColor(col.R, col.G, col.B)
			pdf.Rect(px, py, pw, ph, "F")
		}
		pdf.SetDrawColor(30, 30, 30)
		pdf.SetLineWidth(0.3)
		pdf.Rect(px, py, pw, ph, "D")

		// Id label (only if rectangle is large enough)
		if pw > 8 && ph > 6 {
			pdf.SetFont("Helvetica", "B", labelFontSize(pw, ph))
			pdf.SetTextColor(0, 0, 0)
			labelW := pdf.GetStringWidth(p.ID)
			if labelW < pw-2 {
				pdf.SetFillColor(255, 255, 255)
				pdf.SetXY(px+(pw-labelW)/2-1, py+ph/2-2)
				pdf.CellFormat(labelW+2, 4, p.ID, "", 0, "C", true, 0, "")
			}
		}
	}

	drawDimensionAnnotations(pdf, boardW, boardH, offsetX, offsetY, canvasW, canvasH)
}

// drawPieceImage places an encoded image in the given rectangle. It reports
// false when there is no image or it cannot be decoded.
func drawPieceImage(pdf *fpdf.Fpdf, id string, data []byte, x, y, w, h float64) bool {
	if len(data) == 0 {
		return false
	}
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return false
	}
	imgType, ok := pdfImageTypes[format]
	if !ok {
		return false
	}
	name := "piece_" + id
	opts := fpdf.ImageOptions{ImageType: imgType}
	pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(data))
	if !pdf.Ok() {
		pdf.ClearError()
		return false
	}
	pdf.ImageOptions(name, x, y, w, h, false, opts, 0, "")
	return true
}

// drawDimensionAnnotations adds width and height labels outside the board.
func drawDimensionAnnotations(pdf *fpdf.Fpdf, boardW, boardH, offsetX, offsetY, canvasW, canvasH float64) {
	pdf.SetFont("Helvetica", "", 8)
	pdf.SetTextColor(80, 80, 80)

	// Width annotation (below the board)
	widthLabel := fmt.Sprintf("%.0f px", boardW)
	wLabelW := pdf.GetStringWidth(widthLabel)
	pdf.SetXY(offsetX+(canvasW-wLabelW)/2, offsetY+canvasH+1)
	pdf.CellFormat(wLabelW, 4, widthLabel, "", 0, "C", false, 0, "")

	// Height annotation (to the left of the board, rotated)
	heightLabel := fmt.Sprintf("%.0f px", boardH)
	pdf.TransformBegin()
	pdf.TransformRotate(90, offsetX-3, offsetY+canvasH/2)
	hLabelW := pdf.GetStringWidth(heightLabel)
	pdf.SetXY(offsetX-3-hLabelW/2, offsetY+canvasH/2-2)
	pdf.CellFormat(hLabelW, 4, heightLabel, "", 0, "C", false, 0, "")
	pdf.TransformEnd()

	pdf.SetTextColor(0, 0, 0)
}

// renderPieceTable lists every piece in registry order.
func renderPieceTable(pdf *fpdf.Fpdf, a model.Arrangement) {
	pdf.SetFont("Helvetica", "B", 16)
	pdf.SetXY(marginLeft, marginTop)
	pdf.CellFormat(pageWidth-marginLeft-marginRight, 10, "Pieces", "", 0, "L", false, 0, "")

	pdf.SetDrawColor(0, 0, 0)
	pdf.SetLineWidth(0.5)
	pdf.Line(marginLeft, marginTop+12, pageWidth-marginRight, marginTop+12)

	y := marginTop + 18
	colWidths := []float64{20, 50, 35, 35, 35, 35}
	headers := []string{"#", "Piece", "X", "Y", "Width", "Height"}

	header := func() {
		pdf.SetFont("Helvetica", "B", 9)
		pdf.SetFillColor(230, 230, 230)
		xPos := marginLeft
		for i, h := range headers {
			pdf.SetXY(xPos, y)
			pdf.CellFormat(colWidths[i], 6, h, "1", 0, "C", true, 0, "")
			xPos += colWidths[i]
		}
		y += 6
		pdf.SetFont("Helvetica", "", 9)
	}
	header()

	for i, p := range a.Pieces {
		if y > pageHeight-marginBottom-6 {
			pdf.AddPage()
			y = marginTop
			header()
		}

		// Alternate row background
		if i%2 == 0 {
			pdf.SetFillColor(245, 245, 245)
		} else {
			pdf.SetFillColor(255, 255, 255)
		}

		row := []string{
			fmt.Sprintf("%d", i+1),
			p.ID,
			fmt.Sprintf("%.1f", p.X),
			fmt.Sprintf("%.1f", p.Y),
			fmt.Sprintf("%.1f", p.Width),
			fmt.Sprintf("%.1f", p.Height),
		}
		xPos := marginLeft
		for j, cell := range row {
			pdf.SetXY(xPos, y)
			pdf.CellFormat(colWidths[j], 6, cell, "1", 0, "C", true, 0, "")
			xPos += colWidths[j]
		}
		y += 6
	}

	// Footer
	pdf.SetFont("Helvetica", "I", 8)
	pdf.SetTextColor(120, 120, 120)
	pdf.SetXY(marginLeft, pageHeight-marginBottom)
	pdf.CellFormat(pageWidth-marginLeft-marginRight, 4, "Generated by Jigsaw", "", 0, "C", false, 0, "")
	pdf.SetTextColor(0, 0, 0)
}

// labelFontSize returns an appropriate font size based on the rectangle dimensions.
func labelFontSize(w, h float64) float64 {
	minDim := math.Min(w, h)
	switch {
	case minDim > 40:
		return 10
	case minDim > 20:
		return 8
	default:
		return 6
	}
}

func displayName(a model.Arrangement) string {
	if a.Name != "" {
		return a.Name
	}
	return "Arrangement " + a.ID
}
