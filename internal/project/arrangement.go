package project

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/piwi3910/Jigsaw/internal/model"
)

// ArrangementExt is the file extension of saved arrangements.
const ArrangementExt = ".jigsaw"

const arrangementVersion = "1.0.0"

// ArrangementFile is the on-disk form of a saved board.
type ArrangementFile struct {
	Version     string            `json:"version"`
	Arrangement model.Arrangement `json:"arrangement"`
}

// SaveArrangement writes an arrangement to path, adding the extension when
// it is missing. It returns the path actually written.
func SaveArrangement(path string, a model.Arrangement) (string, error) {
	if !strings.EqualFold(filepath.Ext(path), ArrangementExt) {
		path += ArrangementExt
	}

	data, err := json.MarshalIndent(ArrangementFile{Version: arrangementVersion, Arrangement: a}, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal arrangement: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create arrangement directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write arrangement file: %w", err)
	}
	return path, nil
}

// LoadArrangement reads an arrangement written by SaveArrangement.
func LoadArrangement(path string) (model.Arrangement, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.Arrangement{}, fmt.Errorf("failed to read arrangement file: %w", err)
	}
	var file ArrangementFile
	if err := json.Unmarshal(data, &file); err != nil {
		return model.Arrangement{}, fmt.Errorf("failed to parse arrangement file: %w", err)
	}
	if file.Version == "" {
		return model.Arrangement{}, fmt.Errorf("invalid arrangement file: missing version field")
	}
	a := file.Arrangement
	// Ensure Pieces is never nil
	if a.Pieces == nil {
		a.Pieces = []model.Piece{}
	}
	return a, nil
}
