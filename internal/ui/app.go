package ui

import (
	"context"
	"errors"
	"fmt"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"github.com/rs/zerolog/log"

	ttwidget "github.com/dweymouth/fyne-tooltip/widget"

	"github.com/piwi3910/Jigsaw/internal/geom"
	"github.com/piwi3910/Jigsaw/internal/interaction"
	"github.com/piwi3910/Jigsaw/internal/model"
	"github.com/piwi3910/Jigsaw/internal/project"
	"github.com/piwi3910/Jigsaw/internal/remote"
	"github.com/piwi3910/Jigsaw/internal/session"
	"github.com/piwi3910/Jigsaw/internal/ui/widgets"
)

// App holds all application state and UI references.
type App struct {
	app        fyne.App
	window     fyne.Window
	config     model.AppConfig
	configPath string
	client     *remote.Client

	theme   *JigsawTheme
	board   *widgets.Board
	session *session.Session

	// UI references for dynamic updates
	status   *widget.Label
	undoBtn  *ttwidget.Button
	redoBtn  *ttwidget.Button
	mainMenu *fyne.MainMenu
	undoItem *fyne.MenuItem
	redoItem *fyne.MenuItem
}

// NewApp wires the board, the session and the puzzle service client into
// one window. configPath is where preference changes are saved.
func NewApp(application fyne.App, window fyne.Window, cfg model.AppConfig, configPath string, client *remote.Client) *App {
	a := &App{
		app:        application,
		window:     window,
		config:     cfg,
		configPath: configPath,
		client:     client,
		theme:      NewJigsawTheme(cfg.Theme),
		board:      widgets.NewBoard(client),
		status:     widget.NewLabel("Open an image to start."),
	}
	application.Settings().SetTheme(a.theme)

	a.session = session.New(client, a.board, widgets.NewAnimator(), &dialogNotifier{window: window},
		session.WithDispatch(fyne.DoAndWait),
		session.WithConfig(interaction.ConfigFrom(cfg)),
	)
	a.board.SetController(a.session.Controller())
	a.board.OnResized = func(s fyne.Size) {
		a.session.SetViewport(geom.Size{W: float64(s.Width), H: float64(s.Height)})
	}
	a.board.OnDropped = func(interaction.Outcome) {
		a.refreshHistoryActions()
	}
	return a
}

// SetupMenus creates the native menu bar for the application.
func (a *App) SetupMenus() {
	exportMenu := fyne.NewMenuItem("Export", nil)
	exportMenu.ChildMenu = fyne.NewMenu("",
		fyne.NewMenuItem("PDF Report...", a.exportPDF),
		fyne.NewMenuItem("Piece Cards (PDF)...", a.exportLabels),
		fyne.NewMenuItem("Piece Table (Excel)...", a.exportXLSX),
		fyne.NewMenuItem("Outlines (DXF)...", a.exportDXF),
	)

	// File Menu
	fileMenu := fyne.NewMenu("File",
		fyne.NewMenuItem("Open Image...", a.openImage),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Open Arrangement...", a.openArrangement),
		fyne.NewMenuItem("Save Arrangement...", a.saveArrangement),
		fyne.NewMenuItem("Import Piece Table...", a.importPieceTable),
		exportMenu,
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Preferences...", a.showPreferencesDialog),
	)

	// Edit Menu
	a.undoItem = fyne.NewMenuItem("Undo", a.undo)
	a.redoItem = fyne.NewMenuItem("Redo", a.redo)
	editMenu := fyne.NewMenu("Edit", a.undoItem, a.redoItem)

	// Puzzle Menu
	puzzleMenu := fyne.NewMenu("Puzzle",
		fyne.NewMenuItem("Check", a.check),
		fyne.NewMenuItem("Assemble", a.assemble),
		fyne.NewMenuItem("Reset", a.reset),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Fit to Window", a.fit),
	)

	// Help Menu
	helpMenu := fyne.NewMenu("Help",
		fyne.NewMenuItem("About", a.showAboutDialog),
	)

	a.mainMenu = fyne.NewMainMenu(fileMenu, editMenu, puzzleMenu, helpMenu)
	a.window.SetMainMenu(a.mainMenu)
	a.refreshHistoryActions()
}

func (a *App) showAboutDialog() {
	dialog.ShowInformation(
		"About Jigsaw",
		"Jigsaw: Image Puzzle Board\n\n"+
			"Cut an image into pieces on a puzzle server,\n"+
			"rearrange them by dragging and let the server check\n"+
			"or assemble the result.\n\n"+
			"Server: "+a.client.BaseURL()+"\n"+
			"Version 1.0.0",
		a.window,
	)
}

// Build constructs the full UI and returns the root container.
func (a *App) Build() fyne.CanvasObject {
	a.undoBtn = newIconButtonWithTooltip(theme.ContentUndoIcon(), "Undo the last move", a.undo)
	a.redoBtn = newIconButtonWithTooltip(theme.ContentRedoIcon(), "Redo", a.redo)

	toolbar := container.NewHBox(
		newIconButtonWithTooltip(theme.FolderOpenIcon(), "Open an image and cut it into pieces", a.openImage),
		newIconButtonWithTooltip(theme.DocumentSaveIcon(), "Save the arrangement", a.saveArrangement),
		widget.NewSeparator(),
		newIconButtonWithTooltip(theme.ConfirmIcon(), "Check whether the puzzle is solved", a.check),
		newIconButtonWithTooltip(theme.MediaPlayIcon(), "Let the server assemble the puzzle", a.assemble),
		newIconButtonWithTooltip(theme.ViewRefreshIcon(), "Reset the puzzle", a.reset),
		widget.NewSeparator(),
		a.undoBtn,
		a.redoBtn,
		newIconButtonWithTooltip(theme.ZoomFitIcon(), "Fit the pieces to the window", a.fit),
		layout.NewSpacer(),
	)
	a.refreshHistoryActions()

	content := container.NewBorder(toolbar, a.status, nil, nil, a.board)
	return withToolTipLayer(content, a.window)
}

// Close saves the window size before the window goes away.
func (a *App) Close() {
	if size := a.window.Canvas().Size(); size.Width > 0 && size.Height > 0 {
		a.config.WindowWidth = float64(size.Width)
		a.config.WindowHeight = float64(size.Height)
	}
	a.saveConfig()
}

// ─── Puzzle Actions ────────────────────────────────────────

func (a *App) check() {
	a.run("Check", func(ctx context.Context) error {
		_, err := a.session.Check(ctx)
		return err
	})
}

func (a *App) assemble() {
	a.run("Assemble", a.session.Assemble)
}

func (a *App) reset() {
	dialog.ShowConfirm("Reset Puzzle", "Discard the current puzzle on the server?", func(ok bool) {
		if ok {
			a.run("Reset", a.session.Reset)
		}
	}, a.window)
}

func (a *App) fit() {
	a.session.Fit()
	a.setStatus(fmt.Sprintf("Scale %.2f", a.session.Scale()))
}

func (a *App) undo() {
	label := a.session.UndoLabel()
	if a.session.Undo() {
		a.setStatus("Undid " + label)
	}
	a.refreshHistoryActions()
}

func (a *App) redo() {
	if a.session.Redo() {
		a.setStatus("Redid " + a.session.UndoLabel())
	}
	a.refreshHistoryActions()
}

// run calls op off the UI goroutine and reports how it ended in the status
// bar. Failures are shown to the user by the session itself.
func (a *App) run(name string, op func(ctx context.Context) error) {
	a.setStatus(name + "...")
	go func() {
		err := op(context.Background())
		fyne.Do(func() {
			switch {
			case err == nil:
				a.setStatus(name + " done.")
			case errors.Is(err, session.ErrSuperseded):
				a.setStatus(name + " was superseded.")
			default:
				a.setStatus(name + " failed.")
			}
			a.refreshHistoryActions()
		})
	}()
}

func (a *App) setStatus(text string) {
	log.Debug().Str("status", text).Msg("status")
	a.status.SetText(text)
}

// refreshHistoryActions enables undo and redo to match the history.
func (a *App) refreshHistoryActions() {
	canUndo, canRedo := a.session.CanUndo(), a.session.CanRedo()

	if a.undoBtn != nil {
		setEnabled(a.undoBtn, canUndo)
		if canUndo {
			a.undoBtn.SetToolTip("Undo " + a.session.UndoLabel())
		} else {
			a.undoBtn.SetToolTip("Nothing to undo")
		}
	}
	if a.redoBtn != nil {
		setEnabled(a.redoBtn, canRedo)
	}
	if a.mainMenu != nil {
		a.undoItem.Disabled = !canUndo
		a.redoItem.Disabled = !canRedo
		a.mainMenu.Refresh()
	}
}

func setEnabled(btn *ttwidget.Button, enabled bool) {
	if enabled {
		btn.Enable()
	} else {
		btn.Disable()
	}
}

func (a *App) saveConfig() {
	if a.configPath == "" {
		return
	}
	if err := project.SaveAppConfig(a.configPath, a.config); err != nil {
		log.Warn().Err(err).Str("path", a.configPath).Msg("failed to save config")
	}
}
