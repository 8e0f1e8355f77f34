package project

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/piwi3910/Jigsaw/internal/model"
)

// Environment variables that override the config file.
const (
	EnvServerURL        = "JIGSAW_SERVER_URL"
	EnvSnapTolerance    = "JIGSAW_SNAP_TOLERANCE"
	EnvOverlapTolerance = "JIGSAW_OVERLAP_TOLERANCE"
	EnvConfigDir        = "JIGSAW_CONFIG_DIR"
	EnvLogLevel         = "LOG_LEVEL"
)

// LoadEnvFile loads variables from a .env file into the process
// environment without overriding ones already set. A missing file is not
// an error.
func LoadEnvFile(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// ApplyEnv returns config with the JIGSAW_* environment overrides applied.
// Unset or empty variables leave the field alone; malformed numbers are an
// error and leave config unchanged.
func ApplyEnv(config model.AppConfig) (model.AppConfig, error) {
	out := config
	if v := os.Getenv(EnvServerURL); v != "" {
		out.ServerURL = v
	}
	if err := envFloat(EnvSnapTolerance, &out.SnapTolerance); err != nil {
		return config, err
	}
	if err := envFloat(EnvOverlapTolerance, &out.OverlapTolerance); err != nil {
		return config, err
	}
	return out, nil
}

// GetEnv returns the value of k, or def when it is unset or empty.
func GetEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func envFloat(k string, dst *float64) error {
	v := os.Getenv(k)
	if v == "" {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", k, v, err)
	}
	if f < 0 {
		return fmt.Errorf("invalid %s %q: must not be negative", k, v)
	}
	*dst = f
	return nil
}
