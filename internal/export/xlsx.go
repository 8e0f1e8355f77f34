package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/piwi3910/Jigsaw/internal/model"
)

// Sheet names and header of the XLSX export. The importer reads the same
// header back.
const (
	PiecesSheet  = "Pieces"
	SummarySheet = "Summary"
)

// PieceHeader is the header row of the piece table.
var PieceHeader = []string{"ID", "X", "Y", "Width", "Height"}

// ExportXLSX writes the arrangement as a workbook with a piece table and a
// summary sheet.
func ExportXLSX(path string, a model.Arrangement) error {
	if len(a.Pieces) == 0 {
		return ErrNothingToExport
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), PiecesSheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	rows := make([][]interface{}, 0, len(a.Pieces)+1)
	header := make([]interface{}, len(PieceHeader))
	for i, h := range PieceHeader {
		header[i] = h
	}
	rows = append(rows, header)
	for _, p := range a.Pieces {
		rows = append(rows, []interface{}{p.ID, p.X, p.Y, p.Width, p.Height})
	}
	if err := writeRows(f, PiecesSheet, rows); err != nil {
		return err
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}
	last, err := excelize.CoordinatesToCellName(len(PieceHeader), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(PiecesSheet, "A1", last, bold); err != nil {
		return fmt.Errorf("failed to style header: %w", err)
	}

	if _, err := f.NewSheet(SummarySheet); err != nil {
		return fmt.Errorf("failed to add summary sheet: %w", err)
	}
	w, h := boardSize(a)
	summary := [][]interface{}{
		{"Name", displayName(a)},
		{"Saved", a.CreatedAt},
		{"Pieces", len(a.Pieces)},
		{"Board width", w},
		{"Board height", h},
	}
	if err := writeRows(f, SummarySheet, summary); err != nil {
		return err
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}

func writeRows(f *excelize.File, sheet string, rows [][]interface{}) error {
	for i, row := range rows {
		for j, cell := range row {
			ref, err := excelize.CoordinatesToCellName(j+1, i+1)
			if err != nil {
				return fmt.Errorf("failed to create cell reference: %w", err)
			}
			if err := f.SetCellValue(sheet, ref, cell); err != nil {
				return fmt.Errorf("failed to set %s!%s: %w", sheet, ref, err)
			}
		}
	}
	return nil
}
