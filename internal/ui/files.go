package ui

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"github.com/rs/zerolog/log"

	"github.com/piwi3910/Jigsaw/internal/export"
	"github.com/piwi3910/Jigsaw/internal/importer"
	"github.com/piwi3910/Jigsaw/internal/model"
	"github.com/piwi3910/Jigsaw/internal/project"
)

// imageExtensions are the files offered by Open Image.
var imageExtensions = []string{".png", ".jpg", ".jpeg", ".gif", ".bmp", ".tif", ".tiff"}

// fileDialog is the part of the Fyne file dialogs the helpers below set up.
type fileDialog interface {
	SetLocation(fyne.ListableURI)
	Show()
}

// ─── Image ─────────────────────────────────────────────────

func (a *App) openImage() {
	d := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil || reader == nil {
			return
		}
		defer reader.Close()

		data, err := io.ReadAll(reader)
		if err != nil {
			dialog.ShowError(fmt.Errorf("failed to read image: %w", err), a.window)
			return
		}
		name := reader.URI().Name()
		a.run("Loading "+name, func(ctx context.Context) error {
			return a.session.Load(ctx, name, data)
		})
	}, a.window)
	d.SetFilter(storage.NewExtensionFileFilter(imageExtensions))
	a.showIn(d)
}

// ─── Arrangements ──────────────────────────────────────────

// arrangement snapshots the board for saving and exporting.
func (a *App) arrangement() model.Arrangement {
	return model.NewArrangement(a.window.Title(), a.session.Container(), a.session.Pieces())
}

func (a *App) saveArrangement() {
	if len(a.session.Pieces()) == 0 {
		dialog.ShowInformation("Nothing to save", "Open an image first.", a.window)
		return
	}
	d := dialog.NewFileSave(func(writer fyne.URIWriteCloser, err error) {
		if err != nil || writer == nil {
			return
		}
		defer writer.Close()
		path, err := project.SaveArrangement(writer.URI().Path(), a.arrangement())
		if err != nil {
			dialog.ShowError(err, a.window)
			return
		}
		a.rememberDir(path)
		a.setStatus("Saved " + filepath.Base(path))
	}, a.window)
	d.SetFileName("arrangement" + project.ArrangementExt)
	a.showIn(d)
}

func (a *App) openArrangement() {
	d := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil || reader == nil {
			return
		}
		defer reader.Close()
		path := reader.URI().Path()
		arr, err := project.LoadArrangement(path)
		if err != nil {
			dialog.ShowError(err, a.window)
			return
		}
		a.applyPieces(arr.Pieces, "Open "+filepath.Base(path))
	}, a.window)
	d.SetFilter(storage.NewExtensionFileFilter([]string{project.ArrangementExt}))
	a.showIn(d)
}

// applyPieces moves the board's pieces to the given geometry as one
// undoable step.
func (a *App) applyPieces(pieces []model.Piece, label string) {
	if err := a.session.ApplyArrangement(pieces, label); err != nil {
		dialog.ShowError(fmt.Errorf("%s: %w", label, err), a.window)
		return
	}
	a.setStatus(label)
	a.refreshHistoryActions()
}

// ─── Import ────────────────────────────────────────────────

func (a *App) importPieceTable() {
	d := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil || reader == nil {
			return
		}
		defer reader.Close()

		path := reader.URI().Path()
		var result importer.ImportResult
		if isSpreadsheet(path) {
			result = importer.ImportExcel(path, export.PiecesSheet)
		} else {
			result = importer.ImportCSV(path)
		}
		a.handleImportResult(filepath.Base(path), result)
	}, a.window)
	d.SetFilter(storage.NewExtensionFileFilter([]string{".csv", ".txt", ".xlsx"}))
	a.showIn(d)
}

func (a *App) handleImportResult(name string, result importer.ImportResult) {
	if len(result.Warnings) > 0 {
		log.Info().Strs("warnings", result.Warnings).Str("file", name).Msg("import warnings")
	}
	// A partial table would move only some pieces; refuse it.
	if len(result.Errors) > 0 {
		errorMsg := "Errors encountered during import:\n\n" + strings.Join(result.Errors, "\n")
		dialog.ShowError(fmt.Errorf("%s", errorMsg), a.window)
		return
	}
	a.applyPieces(result.Pieces, "Import "+name)
}

func isSpreadsheet(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".xlsx")
}

// ─── Export ────────────────────────────────────────────────

func (a *App) exportPDF() {
	images := a.board.Images()
	a.exportTo("Export PDF", "puzzle.pdf", func(path string, arr model.Arrangement) error {
		return export.ExportPDF(path, arr, images)
	})
}

func (a *App) exportLabels() {
	a.exportTo("Export Piece Cards", "piece-cards.pdf", export.ExportLabels)
}

func (a *App) exportXLSX() {
	a.exportTo("Export Excel", "pieces.xlsx", export.ExportXLSX)
}

func (a *App) exportDXF() {
	a.exportTo("Export DXF", "pieces.dxf", export.ExportDXF)
}

// exportTo asks for a file name and writes the current arrangement with
// write.
func (a *App) exportTo(title, defaultName string, write func(string, model.Arrangement) error) {
	arr := a.arrangement()
	if len(arr.Pieces) == 0 {
		dialog.ShowInformation("Nothing to export", "Open an image first.", a.window)
		return
	}
	d := dialog.NewFileSave(func(writer fyne.URIWriteCloser, err error) {
		if err != nil || writer == nil {
			return
		}
		defer writer.Close()
		path := writer.URI().Path()
		if err := write(path, arr); err != nil {
			dialog.ShowError(fmt.Errorf("%s: %w", title, err), a.window)
			return
		}
		a.rememberDir(path)
		dialog.ShowInformation("Export Complete", fmt.Sprintf("Saved to %s", path), a.window)
	}, a.window)
	d.SetFileName(defaultName)
	a.showIn(d)
}

// showIn opens d in the last used directory, if there is one.
func (a *App) showIn(d fileDialog) {
	if dir := a.config.LastExportDir; dir != "" {
		if lister, err := storage.ListerForURI(storage.NewFileURI(dir)); err == nil {
			d.SetLocation(lister)
		}
	}
	d.Show()
}

func (a *App) rememberDir(path string) {
	dir := filepath.Dir(path)
	if dir == a.config.LastExportDir {
		return
	}
	a.config.LastExportDir = dir
	a.saveConfig()
}
