package widgets

import (
	"time"

	"fyne.io/fyne/v2"

	"github.com/piwi3910/Jigsaw/internal/geom"
)

// Animator runs snap-back animations with Fyne's animation loop, so step
// and done are called on the Fyne goroutine.
type Animator struct {
	Curve fyne.AnimationCurve
}

// NewAnimator returns an animator with an ease-in-out curve.
func NewAnimator() *Animator {
	return &Animator{Curve: fyne.AnimationEaseInOut}
}

func (a *Animator) Animate(from, to geom.Point, d time.Duration, step func(geom.Point), done func()) {
	if d <= 0 {
		step(to)
		done()
		return
	}
	anim := fyne.NewAnimation(d, func(progress float32) {
		step(lerp(from, to, float64(progress)))
		if progress >= 1 {
			done()
		}
	})
	anim.Curve = a.Curve
	anim.Start()
}

func lerp(from, to geom.Point, t float64) geom.Point {
	return geom.Point{
		X: from.X + (to.X-from.X)*t,
		Y: from.Y + (to.Y-from.Y)*t,
	}
}
