package remote

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"

	"github.com/piwi3910/Jigsaw/internal/model"
)

// pieceID is a piece id as it travels on the wire. The puzzle service uses
// integers; the client keeps ids as strings. Integer-looking ids are sent as
// JSON numbers, anything else as a string.
type pieceID string

func (id pieceID) MarshalJSON() ([]byte, error) {
	s := string(id)
	if n, err := strconv.ParseInt(s, 10, 64); err == nil && strconv.FormatInt(n, 10) == s {
		return []byte(s), nil
	}
	return json.Marshal(s)
}

func (id *pieceID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = pieceID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*id = pieceID(n.String())
	return nil
}

// pieceDTO is one element of the list/assemble responses.
type pieceDTO struct {
	ID     pieceID `json:"id"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func (d pieceDTO) piece() model.Piece {
	return model.Piece{ID: string(d.ID), X: d.X, Y: d.Y, Width: d.Width, Height: d.Height}
}

func toPieces(dtos []pieceDTO) []model.Piece {
	pieces := make([]model.Piece, len(dtos))
	for i, d := range dtos {
		pieces[i] = d.piece()
	}
	return pieces
}

// checkDTO is one element of the check request. The service expects
// integers: positions are truncated and sizes rounded, matching what the
// browser reported for a positioned element.
type checkDTO struct {
	ID     pieceID `json:"id"`
	X      int     `json:"x"`
	Y      int     `json:"y"`
	Width  int     `json:"width"`
	Height int     `json:"height"`
}

func toCheckDTOs(pieces []model.Piece) []checkDTO {
	dtos := make([]checkDTO, len(pieces))
	for i, p := range pieces {
		dtos[i] = checkDTO{
			ID:     pieceID(p.ID),
			X:      int(p.X),
			Y:      int(p.Y),
			Width:  int(math.Round(p.Width)),
			Height: int(math.Round(p.Height)),
		}
	}
	return dtos
}
