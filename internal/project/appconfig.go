package project

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/piwi3910/Jigsaw/internal/model"
)

const (
	configDirName  = ".jigsaw"
	configFileName = "config.json"
)

// ErrInvalidConfig marks a config whose board or window settings cannot be
// used.
var ErrInvalidConfig = errors.New("invalid jigsaw config")

// DefaultConfigDir returns the directory holding the jigsaw client's
// preferences: $JIGSAW_CONFIG_DIR when set, otherwise ~/.jigsaw.
func DefaultConfigDir() string {
	if dir := os.Getenv(EnvConfigDir); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, configDirName)
}

// DefaultConfigPath returns the default path for the application config file.
func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), configFileName)
}

// ValidateAppConfig rejects settings the board cannot work with.
func ValidateAppConfig(c model.AppConfig) error {
	switch {
	case c.ServerURL == "":
		return fmt.Errorf("%w: empty server URL", ErrInvalidConfig)
	case c.OverlapTolerance <= 0:
		return fmt.Errorf("%w: overlap tolerance %v must be positive", ErrInvalidConfig, c.OverlapTolerance)
	case c.SnapTolerance < 0:
		return fmt.Errorf("%w: negative snap tolerance %v", ErrInvalidConfig, c.SnapTolerance)
	case c.SnapDuration < 0:
		return fmt.Errorf("%w: negative snap duration %dms", ErrInvalidConfig, c.SnapDuration)
	case c.RequestTimeout < 0:
		return fmt.Errorf("%w: negative request timeout %ds", ErrInvalidConfig, c.RequestTimeout)
	case c.WindowWidth <= 0 || c.WindowHeight <= 0:
		return fmt.Errorf("%w: window size %vx%v", ErrInvalidConfig, c.WindowWidth, c.WindowHeight)
	}
	switch c.Theme {
	case "light", "dark", "system":
	default:
		return fmt.Errorf("%w: unknown theme %q", ErrInvalidConfig, c.Theme)
	}
	return nil
}

// SaveAppConfig validates config and writes it to path as JSON, creating
// missing parent directories.
func SaveAppConfig(path string, config model.AppConfig) error {
	if err := ValidateAppConfig(config); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create jigsaw config directory: %w", err)
	}
	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode jigsaw config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write jigsaw config %s: %w", path, err)
	}
	return nil
}

// LoadAppConfig reads the preferences at path. A missing file yields
// DefaultAppConfig; fields absent from the file keep their defaults. A file
// that parses but fails ValidateAppConfig is an error.
func LoadAppConfig(path string) (model.AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return model.DefaultAppConfig(), nil
		}
		return model.AppConfig{}, fmt.Errorf("failed to read jigsaw config %s: %w", path, err)
	}
	config := model.DefaultAppConfig()
	if err := json.Unmarshal(data, &config); err != nil {
		return model.AppConfig{}, fmt.Errorf("failed to parse jigsaw config %s: %w", path, err)
	}
	if err := ValidateAppConfig(config); err != nil {
		return model.AppConfig{}, fmt.Errorf("%s: %w", path, err)
	}
	return config, nil
}
