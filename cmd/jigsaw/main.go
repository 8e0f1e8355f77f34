// Jigsaw: image puzzle board for a remote puzzle server
//
// A cross-platform desktop application that uploads an image to a puzzle
// server, shows the pieces it was cut into and lets the user rearrange
// them, check the arrangement or have the server assemble it.
//
// Build:
//   go build -o jigsaw ./cmd/jigsaw
//
// Configuration is read from ~/.jigsaw/config.json (or $JIGSAW_CONFIG_DIR),
// then from a .env file in the working directory and the environment:
//   JIGSAW_SERVER_URL, JIGSAW_SNAP_TOLERANCE, JIGSAW_OVERLAP_TOLERANCE, LOG_LEVEL

package main

import (
	"os"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/piwi3910/Jigsaw/internal/model"
	"github.com/piwi3910/Jigsaw/internal/project"
	"github.com/piwi3910/Jigsaw/internal/remote"
	"github.com/piwi3910/Jigsaw/internal/ui"
)

func main() {
	if err := project.LoadEnvFile(".env"); err != nil {
		log.Warn().Err(err).Msg("ignoring .env file")
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	if lvl, err := zerolog.ParseLevel(project.GetEnv(project.EnvLogLevel, "info")); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}

	configPath := project.DefaultConfigPath()
	cfg, err := project.LoadAppConfig(configPath)
	if err != nil {
		log.Warn().Err(err).Str("path", configPath).Msg("using default config")
		cfg = model.DefaultAppConfig()
	}
	if cfg, err = project.ApplyEnv(cfg); err != nil {
		log.Warn().Err(err).Msg("ignoring environment overrides")
	}

	client, err := remote.New(cfg.ServerURL, remote.WithTimeout(cfg.RequestTimeoutValue()))
	if err != nil {
		log.Fatal().Err(err).Str("url", cfg.ServerURL).Msg("invalid server URL")
	}
	log.Info().Str("server", client.BaseURL()).Msg("starting jigsaw")

	application := app.NewWithID("com.piwi3910.jigsaw")
	window := application.NewWindow("Jigsaw")

	appUI := ui.NewApp(application, window, cfg, configPath, client)
	appUI.SetupMenus()
	window.SetContent(appUI.Build())
	window.Resize(fyne.NewSize(float32(cfg.WindowWidth), float32(cfg.WindowHeight)))
	window.CenterOnScreen()
	window.SetCloseIntercept(func() {
		appUI.Close()
		window.Close()
	})

	window.ShowAndRun()
}
