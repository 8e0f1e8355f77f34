// Package remote is the client for the puzzle service: upload an image,
// list the pieces it was cut into, fetch piece images, check an
// arrangement, ask for the solved layout and reset.
//
// The service keeps puzzle state per HTTP session, so a Client holds a
// cookie jar and must be reused for the whole puzzle.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/piwi3910/Jigsaw/internal/model"
)

const (
	apiRoot = "/api/puzzles"

	// maxErrorBody caps how much of an error response is kept.
	maxErrorBody = 4 << 10
)

// Client talks to one puzzle service.
type Client struct {
	base *url.URL
	http *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient uses h for requests. A cookie jar is added when h has none.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		cp := *h
		if cp.Jar == nil {
			cp.Jar = c.http.Jar
		}
		c.http = &cp
	}
}

// WithTimeout bounds every request. Zero means no timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.http.Timeout = d
	}
}

// New creates a client for the service at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid server URL %q: %w", baseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid server URL %q: scheme must be http or https", baseURL)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("invalid server URL %q: missing host", baseURL)
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	c := &Client{base: u, http: &http.Client{Jar: jar}}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the service root.
func (c *Client) BaseURL() string { return c.base.String() }

// Upload sends an image to be cut into pieces. The bytes are checked
// locally first; formats the service cannot read fail with
// ErrUnsupportedImage without a request being made.
func (c *Client) Upload(ctx context.Context, filename string, data []byte) error {
	if _, err := DetectImageFormat(data); err != nil {
		return fmt.Errorf("upload %q: %w", filename, err)
	}

	body, contentType, err := multipartImage(filename, data)
	if err != nil {
		return fmt.Errorf("upload %q: %w", filename, err)
	}

	resp, err := c.do(ctx, "upload", http.MethodPost, apiRoot+"/upload", body, contentType)
	if err != nil {
		return err
	}
	return drain(resp)
}

// ListPieces returns the pieces of the current puzzle in service order.
func (c *Client) ListPieces(ctx context.Context) ([]model.Piece, error) {
	var dtos []pieceDTO
	if err := c.doJSON(ctx, "list pieces", http.MethodGet, apiRoot, nil, &dtos); err != nil {
		return nil, err
	}
	return toPieces(dtos), nil
}

// PieceImageURL returns the URL of a piece's image.
func (c *Client) PieceImageURL(id string) string {
	u := *c.base
	u.Path = path.Join(u.Path, apiRoot, id, "image")
	return u.String()
}

// PieceImage downloads the image of one piece.
func (c *Client) PieceImage(ctx context.Context, id string) ([]byte, error) {
	resp, err := c.do(ctx, "piece image", http.MethodGet, path.Join(apiRoot, id, "image"), nil, "")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("piece image %q: failed to read body: %w", id, err)
	}
	return data, nil
}

// CheckArrangement asks whether pieces form the solved picture.
func (c *Client) CheckArrangement(ctx context.Context, pieces []model.Piece) (bool, error) {
	payload, err := json.Marshal(toCheckDTOs(pieces))
	if err != nil {
		return false, fmt.Errorf("check: failed to encode pieces: %w", err)
	}

	var correct bool
	if err := c.doJSON(ctx, "check", http.MethodPost, apiRoot+"/check", bytes.NewReader(payload), &correct); err != nil {
		return false, err
	}
	return correct, nil
}

// Assemble asks the service for the solved layout.
func (c *Client) Assemble(ctx context.Context) ([]model.Piece, error) {
	var dtos []pieceDTO
	if err := c.doJSON(ctx, "assemble", http.MethodPost, apiRoot+"/assemble", nil, &dtos); err != nil {
		return nil, err
	}
	return toPieces(dtos), nil
}

// Reset discards the puzzle on the service.
func (c *Client) Reset(ctx context.Context) error {
	resp, err := c.do(ctx, "reset", http.MethodPost, apiRoot+"/reset", nil, "")
	if err != nil {
		return err
	}
	return drain(resp)
}

// doJSON performs a request and decodes a JSON response into out. A JSON
// request body is assumed when body is non-nil.
func (c *Client) doJSON(ctx context.Context, op, method, p string, body io.Reader, out any) error {
	contentType := ""
	if body != nil {
		contentType = "application/json"
	}
	resp, err := c.do(ctx, op, method, p, body, contentType)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: failed to decode response: %w", op, err)
	}
	return nil
}

// do sends a request and returns the response for a 2xx status. Any other
// status is turned into a *StatusError and the body is closed.
func (c *Client) do(ctx context.Context, op, method, p string, body io.Reader, contentType string) (*http.Response, error) {
	u := *c.base
	u.Path = path.Join(u.Path, p)

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to build request: %w", op, err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	reqID := uuid.NewString()
	req.Header.Set("X-Request-ID", reqID)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		log.Error().Err(err).Str("op", op).Str("request_id", reqID).Msg("puzzle service unreachable")
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	log.Debug().
		Str("op", op).
		Str("method", method).
		Str("path", u.Path).
		Int("status", resp.StatusCode).
		Str("request_id", reqID).
		Dur("elapsed", time.Since(start)).
		Msg("puzzle service call")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &StatusError{
			Op:         op,
			Method:     method,
			Path:       u.Path,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(msg)),
		}
	}
	return resp, nil
}

// drain discards and closes a response body whose content is ignored.
func drain(resp *http.Response) error {
	defer resp.Body.Close()
	_, err := io.Copy(io.Discard, resp.Body)
	return err
}
