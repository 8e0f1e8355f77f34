// Package remotetest provides an in-memory puzzle service speaking the same
// HTTP protocol as the real one, for tests. It cuts an uploaded image into a
// grid of tiles, hands out shuffled ids, and checks arrangements by reading
// order.
package remotetest

import (
	"bytes"
	"encoding/json"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"math/rand"
	"net/http"
	"sort"
	"strconv"
	"sync"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

// SessionCookie is the cookie the stub keys puzzle state by.
const SessionCookie = "JSESSIONID"

// Piece is the wire form of a piece.
type Piece struct {
	ID     int `json:"id"`
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

type tile struct {
	id       int
	solution Piece // where the tile belongs
	current  Piece // where the service last placed it
	image    []byte
}

type puzzle struct {
	tileW, tileH int
	tiles        map[int]*tile
	order        []int // ids by solved grid position
}

// Server is the stub service. Its zero value is not usable; call New.
type Server struct {
	mu       sync.Mutex
	router   chi.Router
	cols     int
	rows     int
	rng      *rand.Rand
	sessions map[string]*puzzle
	calls    []string
	failures map[string]int
}

// Option configures a Server.
type Option func(*Server)

// WithGrid sets the number of tiles per row and column.
func WithGrid(cols, rows int) Option {
	return func(s *Server) { s.cols, s.rows = cols, rows }
}

// WithSeed fixes the id shuffle.
func WithSeed(seed int64) Option {
	return func(s *Server) { s.rng = rand.New(rand.NewSource(seed)) }
}

// New returns a stub service with a 2x2 grid.
func New(opts ...Option) *Server {
	s := &Server{
		cols:     2,
		rows:     2,
		rng:      rand.New(rand.NewSource(1)),
		sessions: map[string]*puzzle{},
		failures: map[string]int{},
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(s.record)
	r.Route("/api/puzzles", func(r chi.Router) {
		r.Post("/upload", s.handleUpload)
		r.Group(func(r chi.Router) {
			r.Use(s.requireSession)
			r.Get("/", s.handleList)
			r.Get("/{id}/image", s.handleImage)
			r.Post("/check", s.handleCheck)
			r.Post("/assemble", s.handleAssemble)
			r.Post("/reset", s.handleReset)
		})
	})
	s.router = r
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// FailNext makes the next request to path answer with status.
func (s *Server) FailNext(path string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[path] = status
}

// Calls returns "METHOD path" for every request received, in order.
func (s *Server) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

// Solution returns the solved position of every piece of every session,
// keyed by id. It is meant for single-session tests.
func (s *Server) Solution() map[int]Piece {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := map[int]Piece{}
	for _, p := range s.sessions {
		for id, t := range p.tiles {
			out[id] = t.solution
		}
	}
	return out
}

// Sessions returns the number of live puzzles.
func (s *Server) Sessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.calls = append(s.calls, r.Method+" "+r.URL.Path)
		status, fail := s.failures[r.URL.Path]
		delete(s.failures, r.URL.Path)
		s.mu.Unlock()

		if fail {
			writeJSON(w, status, map[string]string{"error": http.StatusText(status)})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := r.Cookie(SessionCookie)
		if err != nil || c.Value == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing session"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) session(r *http.Request) (string, *puzzle) {
	c, err := r.Cookie(SessionCookie)
	if err != nil {
		return "", nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return c.Value, s.sessions[c.Value]
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	file, _, err := r.FormFile("image")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing image field"})
		return
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
		return
	}

	sid, _ := s.session(r)
	if sid == "" {
		sid = uuid.NewString()
		http.SetCookie(w, &http.Cookie{Name: SessionCookie, Value: sid, Path: "/", HttpOnly: true})
	}

	p, err := s.cut(img)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	s.mu.Lock()
	s.sessions[sid] = p
	s.mu.Unlock()
	w.WriteHeader(http.StatusOK)
}

// cut splits img into the grid. The tile at grid index k gets id perm[k];
// a piece's starting position is the grid cell of its id, so the board
// starts scrambled.
func (s *Server) cut(img image.Image) (*puzzle, error) {
	b := img.Bounds()
	tw, th := b.Dx()/s.cols, b.Dy()/s.rows
	n := s.cols * s.rows

	s.mu.Lock()
	perm := s.rng.Perm(n)
	s.mu.Unlock()

	p := &puzzle{tileW: tw, tileH: th, tiles: map[int]*tile{}, order: make([]int, n)}
	sub, canSub := img.(interface {
		SubImage(r image.Rectangle) image.Image
	})

	for gy := 0; gy < s.rows; gy++ {
		for gx := 0; gx < s.cols; gx++ {
			k := gy*s.cols + gx
			id := perm[k]
			t := &tile{
				id:       id,
				solution: Piece{ID: id, X: gx * tw, Y: gy * th, Width: tw, Height: th},
				current:  Piece{ID: id, X: id % s.cols * tw, Y: id / s.cols * th, Width: tw, Height: th},
			}
			if canSub {
				rect := image.Rect(b.Min.X+gx*tw, b.Min.Y+gy*th, b.Min.X+(gx+1)*tw, b.Min.Y+(gy+1)*th)
				var buf bytes.Buffer
				if err := png.Encode(&buf, sub.SubImage(rect)); err != nil {
					return nil, err
				}
				t.image = buf.Bytes()
			}
			p.tiles[id] = t
			p.order[k] = id
		}
	}
	return p, nil
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	_, p := s.session(r)
	if p == nil {
		writeJSON(w, http.StatusOK, []Piece{})
		return
	}
	s.mu.Lock()
	out := p.pieces(func(t *tile) Piece { return t.current })
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleImage(w http.ResponseWriter, r *http.Request) {
	_, p := s.session(r)
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || p == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no such piece"})
		return
	}
	s.mu.Lock()
	t, ok := p.tiles[id]
	s.mu.Unlock()
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no such piece"})
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(t.image)
}

// handleCheck sorts the submitted pieces into reading order (rows are
// bands half a tile high) and compares the ids with the solved grid.
func (s *Server) handleCheck(w http.ResponseWriter, r *http.Request) {
	var sent []Piece
	if err := json.NewDecoder(r.Body).Decode(&sent); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	_, p := s.session(r)
	if p == nil || len(sent) != len(p.order) {
		writeJSON(w, http.StatusOK, false)
		return
	}

	band := p.tileH / 2
	if len(sent) > 0 && sent[0].Height > 0 {
		band = sent[0].Height / 2
	}
	sort.SliceStable(sent, func(i, j int) bool {
		a, b := sent[i], sent[j]
		if abs(a.Y-b.Y) < band {
			return a.X < b.X
		}
		return a.Y < b.Y
	})

	correct := true
	for i, piece := range sent {
		if piece.ID != p.order[i] {
			correct = false
			break
		}
	}
	writeJSON(w, http.StatusOK, correct)
}

func (s *Server) handleAssemble(w http.ResponseWriter, r *http.Request) {
	_, p := s.session(r)
	if p == nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "no puzzle"})
		return
	}
	s.mu.Lock()
	for _, t := range p.tiles {
		t.current = t.solution
	}
	out := p.pieces(func(t *tile) Piece { return t.solution })
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	sid, _ := s.session(r)
	s.mu.Lock()
	delete(s.sessions, sid)
	s.mu.Unlock()
	w.WriteHeader(http.StatusOK)
}

// pieces returns every tile ordered by id, the order the real service's
// id-keyed map yields.
func (p *puzzle) pieces(pick func(*tile) Piece) []Piece {
	ids := make([]int, 0, len(p.tiles))
	for id := range p.tiles {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	out := make([]Piece, len(ids))
	for i, id := range ids {
		out[i] = pick(p.tiles[id])
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
