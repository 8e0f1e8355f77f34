// Package ui provides the Jigsaw application UI components.
//
// This file provides tooltip-enabled button helpers using the fyne-tooltip library.

package ui

import (
	"fyne.io/fyne/v2"

	fynetooltip "github.com/dweymouth/fyne-tooltip"
	ttwidget "github.com/dweymouth/fyne-tooltip/widget"
)

// newIconButtonWithTooltip creates an icon-only button with a tooltip that appears on hover.
func newIconButtonWithTooltip(icon fyne.Resource, tooltip string, tapped func()) *ttwidget.Button {
	btn := ttwidget.NewButtonWithIcon("", icon, tapped)
	btn.SetToolTip(tooltip)
	return btn
}

// withToolTipLayer wraps window content so tooltips can be drawn above it.
func withToolTipLayer(content fyne.CanvasObject, w fyne.Window) fyne.CanvasObject {
	return fynetooltip.AddWindowToolTipLayer(content, w.Canvas())
}
