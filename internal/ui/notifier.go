package ui

import (
	"fmt"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/dialog"
	"github.com/rs/zerolog/log"
)

// dialogNotifier shows session messages as dialogs. It may be called from
// any goroutine.
type dialogNotifier struct {
	window fyne.Window
}

func (n *dialogNotifier) Info(title, message string) {
	log.Info().Str("title", title).Msg(message)
	fyne.Do(func() {
		dialog.ShowInformation(title, message, n.window)
	})
}

func (n *dialogNotifier) Error(title string, err error) {
	log.Error().Err(err).Str("title", title).Msg("operation failed")
	fyne.Do(func() {
		dialog.ShowError(fmt.Errorf("%s: %w", title, err), n.window)
	})
}
