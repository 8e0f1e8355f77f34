package model

import (
	"time"

	"github.com/piwi3910/Jigsaw/internal/geom"
)

// AppConfig holds application-wide preferences.
type AppConfig struct {
	// Puzzle service
	ServerURL      string `json:"server_url"`
	RequestTimeout int    `json:"request_timeout"` // seconds, 0 = no timeout

	// Board interaction
	OverlapTolerance float64 `json:"overlap_tolerance"` // center distance for drop-on-piece
	SnapTolerance    float64 `json:"snap_tolerance"`    // edge distance for snapping, 0 = off
	SnapDuration     int     `json:"snap_duration"`     // ms for the snap-back animation

	// Window
	WindowWidth  float64 `json:"window_width"`
	WindowHeight float64 `json:"window_height"`
	Theme        string  `json:"theme"` // "light", "dark", "system"

	LastExportDir string `json:"last_export_dir"`
}

// DefaultAppConfig returns an AppConfig populated with sensible defaults.
func DefaultAppConfig() AppConfig {
	return AppConfig{
		ServerURL:        "http://localhost:8080",
		RequestTimeout:   0,
		OverlapTolerance: geom.DefaultOverlapTolerance,
		SnapTolerance:    geom.DefaultSnapTolerance,
		SnapDuration:     200,
		WindowWidth:      1200,
		WindowHeight:     800,
		Theme:            "system",
	}
}

// SnapDurationValue returns the snap-back animation length.
func (c AppConfig) SnapDurationValue() time.Duration {
	return time.Duration(c.SnapDuration) * time.Millisecond
}

// RequestTimeoutValue returns the HTTP timeout; zero means none.
func (c AppConfig) RequestTimeoutValue() time.Duration {
	return time.Duration(c.RequestTimeout) * time.Second
}

// WindowSize returns the configured window size.
func (c AppConfig) WindowSize() geom.Size {
	return geom.Size{W: c.WindowWidth, H: c.WindowHeight}
}
