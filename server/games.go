package server

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"chess-arcade/engine"
	"chess-arcade/position"
)

var (
	ErrGameNotFound = errors.New("game not found")
	ErrGameOver     = errors.New("game is over")
	ErrNotYourTurn  = errors.New("human plays white")
)

// historyEntry is one played move.
type historyEntry struct {
	Move      string  `json:"move"`
	Side      string  `json:"side"`
	IsAI      bool    `json:"is_ai"`
	ElapsedMs float64 `json:"elapsed_ms"`
}

// Game is a human (white) against the computer (black). All access goes through mu
// except touched, which the manager reads without it.
type Game struct {
	ID         string
	Difficulty int
	CreatedAt  time.Time

	// touched is the unix nano time of the last move, or creation.
	touched atomic.Int64

	mu       sync.Mutex
	pos      *position.Position
	strategy engine.Strategy[position.Move]
	fallback engine.Strategy[position.Move]
	history  []historyEntry
}

// Manager owns the live games. Games idle for longer than ttl are swept, and
// when maxGames are live a new game evicts the least recently active one.
// A zero ttl or maxGames disables that limit.
type Manager struct {
	mu       sync.RWMutex
	games    map[string]*Game
	ttl      time.Duration
	maxGames int
}

func NewManager(ttl time.Duration, maxGames int) *Manager {
	return &Manager{
		games:    make(map[string]*Game),
		ttl:      ttl,
		maxGames: maxGames,
	}
}

// NewGame registers a game at pos played against the strategy of the given difficulty.
func (m *Manager) NewGame(pos *position.Position, difficulty int, seed uint64, options ...engine.Option) *Game {
	now := time.Now()
	g := &Game{
		ID:         uuid.NewString(),
		Difficulty: difficulty,
		CreatedAt:  now,
		pos:        pos,
		strategy:   engine.StrategyFor[position.Move](difficulty, seed, options...),
		fallback:   engine.NewRandomStrategy[position.Move](seed),
	}
	g.touch(now)

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.maxGames > 0 && len(m.games) >= m.maxGames {
		m.sweepLocked(now)
		for len(m.games) >= m.maxGames {
			m.evictOldestLocked()
		}
	}
	m.games[g.ID] = g
	return g
}

// Sweep drops the games idle for longer than the TTL and returns how many went.
func (m *Manager) Sweep(now time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sweepLocked(now)
}

func (m *Manager) sweepLocked(now time.Time) int {
	if m.ttl <= 0 {
		return 0
	}
	swept := 0
	for id, g := range m.games {
		if now.Sub(g.LastActive()) > m.ttl {
			delete(m.games, id)
			swept++
		}
	}
	return swept
}

func (m *Manager) evictOldestLocked() {
	var oldest *Game
	for _, g := range m.games {
		if oldest == nil || g.touched.Load() < oldest.touched.Load() {
			oldest = g
		}
	}
	if oldest != nil {
		delete(m.games, oldest.ID)
	}
}

// RunSweeper sweeps every interval until ctx is done.
func (m *Manager) RunSweeper(ctx context.Context, interval time.Duration, logger zerolog.Logger) {
	if m.ttl <= 0 || interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if n := m.Sweep(now); n > 0 {
				logger.Info().Int("swept", n).Int("live", m.Len()).Msg("idle games dropped")
			}
		}
	}
}

func (m *Manager) Get(id string) (*Game, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	g, ok := m.games[id]
	if !ok {
		return nil, ErrGameNotFound
	}
	return g, nil
}

func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.games[id]; !ok {
		return ErrGameNotFound
	}
	delete(m.games, id)
	return nil
}

func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.games)
}

// PlayHuman applies the human's move and lets the computer answer. It returns
// the computer's move, empty when the game ended before its turn.
func (g *Game) PlayHuman(ctx context.Context, uci string, logger zerolog.Logger) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.pos.IsGameOver() {
		return "", ErrGameOver
	}
	if g.pos.SideToMove() != engine.White {
		return "", ErrNotYourTurn
	}
	start := time.Now()
	m, err := g.pos.Play(uci)
	if err != nil {
		return "", err
	}
	g.record(m, false, start)
	return g.reply(ctx, logger), nil
}

// reply plays the computer's move if it is black to move. g.mu must be held.
func (g *Game) reply(ctx context.Context, logger zerolog.Logger) string {
	if g.pos.IsGameOver() || g.pos.SideToMove() != engine.Black {
		return ""
	}
	start := time.Now()
	move, found, err := g.strategy.ChooseMove(ctx, g.pos)
	if err != nil {
		logger.Warn().Err(err).Str("game", g.ID).Str("strategy", g.strategy.Name()).Bool("found", found).Msg("ai move cut short")
	}
	if !found {
		// Out of time before any root move finished.
		move, found, _ = g.fallback.ChooseMove(context.Background(), g.pos)
	}
	if !found {
		return ""
	}
	g.pos.Apply(move)
	g.record(move, true, start)
	logger.Debug().Str("game", g.ID).Str("move", move.String()).Dur("elapsed", time.Since(start)).Msg("ai moved")
	return move.String()
}

func (g *Game) record(m position.Move, ai bool, start time.Time) {
	g.history = append(g.history, historyEntry{
		Move:      m.String(),
		Side:      g.pos.SideToMove().Other().String(),
		IsAI:      ai,
		ElapsedMs: float64(time.Since(start).Microseconds()) / 1000,
	})
	g.touch(time.Now())
}

func (g *Game) touch(t time.Time) {
	g.touched.Store(t.UnixNano())
}

// LastActive is the time of the last move played, or of creation.
func (g *Game) LastActive() time.Time {
	return time.Unix(0, g.touched.Load())
}

// view snapshots the game for the API.
func (g *Game) view() gameView {
	g.mu.Lock()
	defer g.mu.Unlock()
	v := gameView{
		ID:         g.ID,
		FEN:        g.pos.FEN(),
		Status:     g.pos.Status().String(),
		StatusText: g.pos.StatusText(),
		SideToMove: g.pos.SideToMove().String(),
		InCheck:    g.pos.InCheck(),
		GameOver:   g.pos.IsGameOver(),
		Difficulty: g.Difficulty,
		Strategy:   g.strategy.Name(),
		History:    append([]historyEntry{}, g.history...),
		LegalMoves: []string{},
	}
	if winner, ok := g.pos.Winner(); ok {
		v.Winner = winner.String()
	}
	for _, m := range g.pos.LegalMoves() {
		v.LegalMoves = append(v.LegalMoves, m.String())
	}
	return v
}

type gameView struct {
	ID         string         `json:"id"`
	FEN        string         `json:"fen"`
	Status     string         `json:"status"`
	StatusText string         `json:"status_text"`
	SideToMove string         `json:"side_to_move"`
	InCheck    bool           `json:"in_check"`
	GameOver   bool           `json:"game_over"`
	Winner     string         `json:"winner,omitempty"`
	Difficulty int            `json:"difficulty"`
	Strategy   string         `json:"strategy"`
	LegalMoves []string       `json:"legal_moves"`
	History    []historyEntry `json:"history"`
}
