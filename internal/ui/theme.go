// Package ui provides the Jigsaw application UI components.
//
// This file defines a custom compact Fyne theme and the board background color.

package ui

import (
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/theme"

	"github.com/piwi3910/Jigsaw/internal/ui/widgets"
)

// Theme names stored in the app config.
const (
	ThemeSystem = "system"
	ThemeLight  = "light"
	ThemeDark   = "dark"
)

var (
	boardLight = color.NRGBA{R: 236, G: 229, B: 214, A: 255}
	boardDark  = color.NRGBA{R: 48, G: 44, B: 40, A: 255}
)

// JigsawTheme wraps the default Fyne theme with compact sizing overrides
// and an optional fixed light/dark variant.
type JigsawTheme struct {
	base    fyne.Theme
	variant fyne.ThemeVariant
	fixed   bool
}

// NewJigsawTheme creates a theme for one of the config theme names. Unknown
// names follow the system variant.
func NewJigsawTheme(name string) *JigsawTheme {
	t := &JigsawTheme{base: theme.DefaultTheme()}
	t.SetName(name)
	return t
}

// SetName switches between the system, light and dark variants.
func (t *JigsawTheme) SetName(name string) {
	switch name {
	case ThemeLight:
		t.variant, t.fixed = theme.VariantLight, true
	case ThemeDark:
		t.variant, t.fixed = theme.VariantDark, true
	default:
		t.fixed = false
	}
}

// Color delegates to the base theme, honouring a fixed variant.
func (t *JigsawTheme) Color(name fyne.ThemeColorName, variant fyne.ThemeVariant) color.Color {
	if t.fixed {
		variant = t.variant
	}
	if name == widgets.ColorNameBoard {
		if variant == theme.VariantLight {
			return boardLight
		}
		return boardDark
	}
	return t.base.Color(name, variant)
}

// Font delegates to the base theme.
func (t *JigsawTheme) Font(style fyne.TextStyle) fyne.Resource {
	return t.base.Font(style)
}

// Icon delegates to the base theme.
func (t *JigsawTheme) Icon(name fyne.ThemeIconName) fyne.Resource {
	return t.base.Icon(name)
}

// Size returns compact sizing overrides for a dense layout.
func (t *JigsawTheme) Size(name fyne.ThemeSizeName) float32 {
	switch name {
	case theme.SizeNameText:
		return 12
	case theme.SizeNameCaptionText:
		return 9
	case theme.SizeNameHeadingText:
		return 20
	case theme.SizeNameSubHeadingText:
		return 15
	case theme.SizeNamePadding:
		return 3
	case theme.SizeNameInnerPadding:
		return 6
	case theme.SizeNameInlineIcon:
		return 16
	default:
		return t.base.Size(name)
	}
}
