// Package importer reads piece tables back from CSV and Excel files, such
// as those written by the XLSX export or edited by hand. It supports
// automatic delimiter detection, flexible column mapping, and
// case-insensitive header recognition.
package importer

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/piwi3910/Jigsaw/internal/model"
)

// ImportResult holds the results of an import operation.
type ImportResult struct {
	Pieces   []model.Piece
	Errors   []string
	Warnings []string
}

// OK reports whether the import produced pieces without errors.
func (r ImportResult) OK() bool {
	return len(r.Errors) == 0 && len(r.Pieces) > 0
}

// ColumnMapping maps semantic column roles to their indices in the data.
type ColumnMapping struct {
	ID     int
	X      int
	Y      int
	Width  int
	Height int
}

// headerAliases maps canonical column names to their accepted aliases (all lowercase).
var headerAliases = map[string][]string{
	"id":     {"id", "piece", "piece id", "name", "label"},
	"x":      {"x", "left", "x position"},
	"y":      {"y", "top", "y position"},
	"width":  {"width", "w"},
	"height": {"height", "h"},
}

// DetectCSVDelimiter reads the file content and determines the most likely CSV delimiter.
// It tries comma, semicolon, tab, and pipe. The delimiter that produces the most
// consistent (non-one) column count across lines wins.
func DetectCSVDelimiter(data []byte) rune {
	candidates := []rune{',', ';', '\t', '|'}
	bestDelimiter := ','
	bestScore := 0

	for _, delim := range candidates {
		reader := csv.NewReader(bytes.NewReader(data))
		reader.Comma = delim
		reader.LazyQuotes = true
		reader.FieldsPerRecord = -1

		records, err := reader.ReadAll()
		if err != nil || len(records) < 1 {
			continue
		}

		// Only consider delimiters that produce more than 1 column
		firstCols := len(records[0])
		if firstCols < 2 {
			continue
		}

		score := 0
		for _, row := range records {
			if len(row) == firstCols {
				score++
			}
		}

		// Prefer delimiters with higher consistency and more columns
		weighted := score*10 + firstCols
		if weighted > bestScore {
			bestScore = weighted
			bestDelimiter = delim
		}
	}

	return bestDelimiter
}

// DetectColumns examines a header row and returns a ColumnMapping.
// It performs case-insensitive matching against known aliases for each column role.
// Returns the mapping and true if a header was detected, or the positional
// mapping ID, X, Y, Width, Height and false if no header was found.
func DetectColumns(row []string) (ColumnMapping, bool) {
	mapping := ColumnMapping{ID: -1, X: -1, Y: -1, Width: -1, Height: -1}
	roles := map[string]*int{
		"id":     &mapping.ID,
		"x":      &mapping.X,
		"y":      &mapping.Y,
		"width":  &mapping.Width,
		"height": &mapping.Height,
	}

	isHeader := false
	for i, cell := range row {
		normalized := strings.ToLower(strings.TrimSpace(cell))
		for role, aliases := range headerAliases {
			for _, alias := range aliases {
				if normalized == alias {
					isHeader = true
					if idx := roles[role]; *idx == -1 {
						*idx = i
					}
				}
			}
		}
	}

	if !isHeader {
		return ColumnMapping{ID: 0, X: 1, Y: 2, Width: 3, Height: 4}, false
	}
	return mapping, true
}

// missing lists the header columns that were not found.
func (m ColumnMapping) missing() []string {
	var out []string
	for _, c := range []struct {
		name string
		idx  int
	}{{"ID", m.ID}, {"X", m.X}, {"Y", m.Y}, {"Width", m.Width}, {"Height", m.Height}} {
		if c.idx == -1 {
			out = append(out, c.name)
		}
	}
	return out
}

// getCell safely retrieves a cell value from a row by column index.
// Returns empty string if the index is out of range or negative.
func getCell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func parseNumber(row []string, idx int, rowLabel, name string) (float64, string) {
	s := getCell(row, idx)
	if s == "" {
		return 0, fmt.Sprintf("%s: Missing %s value", rowLabel, name)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Sprintf("%s: Invalid %s '%s'", rowLabel, name, s)
	}
	return v, ""
}

// parseRow extracts a Piece from a row using the given column mapping.
// Returns the piece and an error message, empty on success.
func parseRow(row []string, mapping ColumnMapping, rowLabel string) (model.Piece, string) {
	id := getCell(row, mapping.ID)
	if id == "" {
		return model.Piece{}, fmt.Sprintf("%s: Missing piece id", rowLabel)
	}

	var vals [4]float64
	for i, col := range []struct {
		idx  int
		name string
	}{{mapping.X, "x"}, {mapping.Y, "y"}, {mapping.Width, "width"}, {mapping.Height, "height"}} {
		v, msg := parseNumber(row, col.idx, rowLabel, col.name)
		if msg != "" {
			return model.Piece{}, msg
		}
		vals[i] = v
	}

	if vals[0] < 0 || vals[1] < 0 {
		return model.Piece{}, fmt.Sprintf("%s: Position must not be negative", rowLabel)
	}
	if vals[2] <= 0 || vals[3] <= 0 {
		return model.Piece{}, fmt.Sprintf("%s: Width and height must be positive", rowLabel)
	}

	return model.Piece{ID: id, X: vals[0], Y: vals[1], Width: vals[2], Height: vals[3]}, ""
}

// isEmptyRow returns true if the row has no meaningful content.
func isEmptyRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// ImportCSV imports pieces from a CSV file.
// It automatically detects the delimiter and maps columns by header names.
// Supports comma, semicolon, tab, and pipe delimiters.
func ImportCSV(path string) ImportResult {
	result := ImportResult{}

	data, err := os.ReadFile(path)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot open file: %v", err))
		return result
	}

	if len(bytes.TrimSpace(data)) == 0 {
		result.Errors = append(result.Errors, "File is empty")
		return result
	}

	delimiter := DetectCSVDelimiter(data)
	if delimiter != ',' {
		delimName := map[rune]string{';': "semicolon", '\t': "tab", '|': "pipe"}[delimiter]
		result.Warnings = append(result.Warnings, fmt.Sprintf("Detected %s delimiter", delimName))
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = delimiter
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot read CSV: %v", err))
		return result
	}

	return importFromRows(records, "Line", result.Warnings)
}

// ImportCSVFromReader imports pieces from a CSV reader with a specific delimiter.
func ImportCSVFromReader(reader io.Reader, delimiter rune) ImportResult {
	result := ImportResult{}

	csvReader := csv.NewReader(reader)
	csvReader.Comma = delimiter
	csvReader.LazyQuotes = true
	csvReader.FieldsPerRecord = -1

	records, err := csvReader.ReadAll()
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot read CSV: %v", err))
		return result
	}

	if len(records) == 0 {
		result.Errors = append(result.Errors, "File is empty")
		return result
	}

	return importFromRows(records, "Line", nil)
}

// ImportExcel imports pieces from an Excel (.xlsx) file. It reads the
// sheet named sheet when present, otherwise the first sheet.
func ImportExcel(path, sheet string) ImportResult {
	result := ImportResult{}

	f, err := excelize.OpenFile(path)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot open Excel file: %v", err))
		return result
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		result.Errors = append(result.Errors, "Excel file has no sheets")
		return result
	}
	name := sheets[0]
	for _, s := range sheets {
		if s == sheet {
			name = s
			break
		}
	}

	rows, err := f.GetRows(name)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot read Excel data: %v", err))
		return result
	}

	if len(rows) == 0 {
		result.Errors = append(result.Errors, "Sheet is empty")
		return result
	}

	return importFromRows(rows, "Row", nil)
}

// importFromRows is the shared import logic for both CSV and Excel data.
// It detects headers, maps columns, and parses each row into pieces.
// Duplicate ids are reported and the later row is dropped.
func importFromRows(rows [][]string, rowPrefix string, initialWarnings []string) ImportResult {
	result := ImportResult{
		Warnings: initialWarnings,
	}

	if len(rows) == 0 {
		result.Errors = append(result.Errors, "No data rows found")
		return result
	}

	mapping, hasHeader := DetectColumns(rows[0])
	startRow := 0
	if hasHeader {
		startRow = 1
		if missing := mapping.missing(); len(missing) > 0 {
			result.Errors = append(result.Errors, fmt.Sprintf("Required columns not found in header: %s", strings.Join(missing, ", ")))
			return result
		}
	} else if len(rows[0]) >= 5 {
		// An unrecognised header still has a non-numeric x column
		if _, err := strconv.ParseFloat(strings.TrimSpace(rows[0][1]), 64); err != nil {
			startRow = 1
			result.Warnings = append(result.Warnings, "Detected header row, skipping")
		}
	}

	seen := map[string]int{}
	for i := startRow; i < len(rows); i++ {
		row := rows[i]
		lineNum := i + 1

		if isEmptyRow(row) {
			continue
		}

		rowLabel := fmt.Sprintf("%s %d", rowPrefix, lineNum)
		piece, errMsg := parseRow(row, mapping, rowLabel)
		if errMsg != "" {
			result.Errors = append(result.Errors, errMsg)
			continue
		}
		if first, dup := seen[piece.ID]; dup {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: Duplicate piece id '%s' (first on %s %d)", rowLabel, piece.ID, rowPrefix, first))
			continue
		}
		seen[piece.ID] = lineNum
		result.Pieces = append(result.Pieces, piece)
	}

	if len(result.Pieces) == 0 && len(result.Errors) == 0 {
		result.Errors = append(result.Errors, "No data rows found")
	}
	return result
}
