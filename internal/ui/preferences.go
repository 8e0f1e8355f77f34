package ui

import (
	"fmt"
	"strconv"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"

	"github.com/piwi3910/Jigsaw/internal/interaction"
	"github.com/piwi3910/Jigsaw/internal/model"
)

// preferenceFields is the text of the preferences form.
type preferenceFields struct {
	ServerURL        string
	RequestTimeout   string
	OverlapTolerance string
	SnapTolerance    string
	SnapDuration     string
	Theme            string
}

func fieldsFrom(c model.AppConfig) preferenceFields {
	return preferenceFields{
		ServerURL:        c.ServerURL,
		RequestTimeout:   strconv.Itoa(c.RequestTimeout),
		OverlapTolerance: strconv.FormatFloat(c.OverlapTolerance, 'f', -1, 64),
		SnapTolerance:    strconv.FormatFloat(c.SnapTolerance, 'f', -1, 64),
		SnapDuration:     strconv.Itoa(c.SnapDuration),
		Theme:            c.Theme,
	}
}

// apply parses the form onto base. Nothing is changed on error.
func (f preferenceFields) apply(base model.AppConfig) (model.AppConfig, error) {
	out := base
	out.ServerURL = strings.TrimSpace(f.ServerURL)
	if out.ServerURL == "" {
		return base, fmt.Errorf("server URL must not be empty")
	}

	var err error
	if out.RequestTimeout, err = nonNegativeInt("request timeout", f.RequestTimeout); err != nil {
		return base, err
	}
	if out.SnapDuration, err = nonNegativeInt("snap duration", f.SnapDuration); err != nil {
		return base, err
	}
	if out.OverlapTolerance, err = nonNegativeFloat("overlap tolerance", f.OverlapTolerance); err != nil {
		return base, err
	}
	if out.OverlapTolerance == 0 {
		return base, fmt.Errorf("overlap tolerance must be greater than 0")
	}
	if out.SnapTolerance, err = nonNegativeFloat("snap tolerance", f.SnapTolerance); err != nil {
		return base, err
	}

	switch f.Theme {
	case ThemeLight, ThemeDark, ThemeSystem:
		out.Theme = f.Theme
	default:
		out.Theme = ThemeSystem
	}
	return out, nil
}

func nonNegativeInt(name, s string) (int, error) {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || v < 0 {
		return 0, fmt.Errorf("%s must be a whole number >= 0, got %q", name, s)
	}
	return v, nil
}

func nonNegativeFloat(name, s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("%s must be a number >= 0, got %q", name, s)
	}
	return v, nil
}

// showPreferencesDialog edits the app config. Tolerances and theme apply
// immediately; the server address applies on the next start.
func (a *App) showPreferencesDialog() {
	f := fieldsFrom(a.config)

	entry := func(val *string) *widget.Entry {
		e := widget.NewEntry()
		e.SetText(*val)
		e.OnChanged = func(text string) { *val = text }
		return e
	}

	themeSelect := widget.NewSelect([]string{ThemeSystem, ThemeLight, ThemeDark}, func(s string) {
		f.Theme = s
	})
	themeSelect.SetSelected(f.Theme)

	serverSection := widget.NewCard("Puzzle Server", "Changes apply after a restart",
		container.NewGridWithColumns(2,
			widget.NewLabel("Server URL"), entry(&f.ServerURL),
			widget.NewLabel("Request Timeout (s, 0 = none)"), entry(&f.RequestTimeout),
		))

	boardSection := widget.NewCard("Board", "Distances are in board pixels",
		container.NewGridWithColumns(2,
			widget.NewLabel("Overlap Tolerance"), entry(&f.OverlapTolerance),
			widget.NewLabel("Snap Tolerance (0 = off)"), entry(&f.SnapTolerance),
			widget.NewLabel("Snap-Back Duration (ms)"), entry(&f.SnapDuration),
		))

	lookSection := widget.NewCard("Appearance", "",
		container.NewGridWithColumns(2,
			widget.NewLabel("Theme"), themeSelect,
		))

	d := dialog.NewCustomConfirm("Preferences", "Save", "Cancel",
		container.NewVBox(serverSection, boardSection, lookSection),
		func(ok bool) {
			if !ok {
				return
			}
			cfg, err := f.apply(a.config)
			if err != nil {
				dialog.ShowError(err, a.window)
				return
			}
			a.applyConfig(cfg)
		}, a.window)
	d.Resize(fyne.NewSize(480, 420))
	d.Show()
}

func (a *App) applyConfig(cfg model.AppConfig) {
	a.config = cfg
	a.session.SetConfig(interaction.ConfigFrom(cfg))
	a.theme.SetName(cfg.Theme)
	a.app.Settings().SetTheme(a.theme)
	a.saveConfig()
	a.setStatus("Preferences saved.")
}
