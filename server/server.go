// Package server exposes the chess game, position analysis and the arcade
// leaderboard over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"chess-arcade/config"
	"chess-arcade/engine"
	"chess-arcade/leaderboard"
	"chess-arcade/position"
)

type Server struct {
	config      *config.Store
	games       *Manager
	leaderboard *leaderboard.Store
	logger      zerolog.Logger
	seed        atomic.Uint64
}

type Option func(s *Server)

func WithLogger(l zerolog.Logger) Option {
	return func(s *Server) {
		s.logger = l
	}
}

// WithSeed fixes the seed of the first game's random strategy. Later games use
// the following seeds.
func WithSeed(seed uint64) Option {
	return func(s *Server) {
		s.seed.Store(seed)
	}
}

func New(cfg *config.Store, board *leaderboard.Store, options ...Option) *Server {
	c := cfg.Get()
	s := &Server{
		config:      cfg,
		games:       NewManager(c.GameTTL(), c.MaxGames),
		leaderboard: board,
		logger:      zerolog.Nop(),
	}
	s.seed.Store(uint64(time.Now().UnixNano()))
	for _, option := range options {
		option(s)
	}
	return s
}

func (s *Server) Games() *Manager { return s.games }

// Routes builds the HTTP handler.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.logger))
	r.Use(middleware.Recoverer)

	r.Get("/api/ping", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	})

	r.Route("/api/chess", func(r chi.Router) {
		r.Post("/games", s.createGame)
		r.Get("/games/{id}", s.getGame)
		r.Delete("/games/{id}", s.deleteGame)
		r.Post("/games/{id}/moves", s.playMove)
		r.Post("/evaluate", s.evaluate)
	})

	r.Get("/ws/analysis", s.serveAnalysis)

	r.Post("/report_result", s.reportResult)
	r.Get("/leaderboard", s.getLeaderboard)
	return r
}

func (s *Server) searchOptions() []engine.Option {
	cfg := s.config.Get()
	return []engine.Option{
		engine.WithLogger(s.logger),
		engine.WithNodeLimit(cfg.NodeLimit),
	}
}

// moveContext bounds one computer move by the configured timeout.
func (s *Server) moveContext(parent context.Context) (context.Context, context.CancelFunc) {
	if timeout := s.config.Get().MoveTimeout(); timeout > 0 {
		return context.WithTimeout(parent, timeout)
	}
	return context.WithCancel(parent)
}

func (s *Server) createGame(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Difficulty int    `json:"difficulty"`
		FEN        string `json:"fen"`
	}
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
			return
		}
	}

	pos := position.New()
	if payload.FEN != "" {
		var err error
		if pos, err = position.FromFEN(payload.FEN); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
	}

	difficulty := s.config.Get().Difficulty(payload.Difficulty)
	g := s.games.NewGame(pos, difficulty, s.seed.Add(1)-1, s.searchOptions()...)
	s.logger.Info().Str("game", g.ID).Int("difficulty", difficulty).Str("strategy", g.strategy.Name()).Msg("game created")

	// A position with black to move starts with the computer's move.
	ctx, cancel := s.moveContext(r.Context())
	defer cancel()
	g.mu.Lock()
	g.reply(ctx, s.logger)
	g.mu.Unlock()

	writeJSON(w, http.StatusCreated, g.view())
}

func (s *Server) getGame(w http.ResponseWriter, r *http.Request) {
	g, err := s.games.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, g.view())
}

func (s *Server) deleteGame(w http.ResponseWriter, r *http.Request) {
	if err := s.games.Delete(chi.URLParam(r, "id")); err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

func (s *Server) playMove(w http.ResponseWriter, r *http.Request) {
	g, err := s.games.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		return
	}
	var payload struct {
		Move string `json:"move"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
		return
	}

	ctx, cancel := s.moveContext(r.Context())
	defer cancel()
	aiMove, err := g.PlayHuman(ctx, payload.Move, s.logger)
	switch {
	case errors.Is(err, ErrGameOver), errors.Is(err, ErrNotYourTurn):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
		return
	case errors.Is(err, position.ErrIllegalMove):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	case err != nil:
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, struct {
		AIMove string   `json:"ai_move"`
		Game   gameView `json:"game"`
	}{aiMove, g.view()})
}

type evaluation struct {
	FEN        string `json:"fen"`
	Score      int    `json:"score"`
	SideToMove string `json:"side_to_move"`
	// Relative is the score seen by the side to move.
	Relative   int    `json:"relative"`
	StatusText string `json:"status_text"`
}

func (s *Server) evaluate(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		FEN string `json:"fen"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
		return
	}
	pos, err := position.FromFEN(payload.FEN)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	score := engine.Material.Evaluate(pos.Board())
	writeJSON(w, http.StatusOK, evaluation{
		FEN:        pos.FEN(),
		Score:      int(score),
		SideToMove: pos.SideToMove().String(),
		Relative:   int(engine.Orient(score, pos.SideToMove())),
		StatusText: pos.StatusText(),
	})
}

func (s *Server) reportResult(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Game   string `json:"game"`
		Result string `json:"result"`
		Score  int    `json:"score"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
		return
	}
	if err := s.leaderboard.Report(payload.Game, payload.Result, payload.Score); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, leaderboard.ErrInvalidEntry) {
			status = http.StatusBadRequest
		}
		writeJSON(w, status, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
}

// getLeaderboard returns the whole board, or with ?game= the best entries of one game.
func (s *Server) getLeaderboard(w http.ResponseWriter, r *http.Request) {
	game := r.URL.Query().Get("game")
	if game == "" {
		writeJSON(w, http.StatusOK, s.leaderboard.All())
		return
	}
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 {
		limit = 10
	}
	writeJSON(w, http.StatusOK, map[string][]leaderboard.Entry{game: s.leaderboard.Top(game, limit)})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
