package engine

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/exp/rand"
)

// Difficulty levels exposed to players. Level 1 plays random moves, every other
// level searches level+1 plies.
const (
	MinDifficulty = 1
	MaxDifficulty = 5
)

// Strategy picks the automated player's move for a position.
type Strategy[M comparable] interface {
	ChooseMove(ctx context.Context, pos Position[M]) (move M, found bool, err error)
	Name() string
}

// ClampDifficulty forces level into [MinDifficulty, MaxDifficulty].
func ClampDifficulty(level int) int {
	return min(max(level, MinDifficulty), MaxDifficulty)
}

// DepthForDifficulty returns the search depth used at a difficulty level, or 0
// for the random-move level.
func DepthForDifficulty(level int) int {
	level = ClampDifficulty(level)
	if level == MinDifficulty {
		return 0
	}
	return level + 1
}

// StrategyFor builds the strategy for a difficulty level. seed feeds the
// random-move strategy; options configure the searcher of the other levels.
func StrategyFor[M comparable](level int, seed uint64, options ...Option) Strategy[M] {
	depth := DepthForDifficulty(level)
	if depth == 0 {
		return NewRandomStrategy[M](seed)
	}
	return NewSearchStrategy(NewSearcher[M](options...), depth)
}

// RandomStrategy plays a uniformly random legal move.
type RandomStrategy[M comparable] struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func NewRandomStrategy[M comparable](seed uint64) *RandomStrategy[M] {
	return &RandomStrategy[M]{rng: rand.New(rand.NewSource(seed))}
}

func (r *RandomStrategy[M]) ChooseMove(ctx context.Context, pos Position[M]) (M, bool, error) {
	var none M
	if err := ctx.Err(); err != nil {
		return none, false, fmt.Errorf("%w: %w", ErrSearchAborted, err)
	}
	moves := pos.LegalMoves()
	if len(moves) == 0 {
		return none, false, nil
	}
	r.mu.Lock()
	idx := r.rng.Intn(len(moves))
	r.mu.Unlock()
	return moves[idx], true, nil
}

func (r *RandomStrategy[M]) Name() string { return "random" }

// SearchStrategy runs a fixed-depth alpha-beta search.
type SearchStrategy[M comparable] struct {
	searcher *Searcher[M]
	depth    int
}

func NewSearchStrategy[M comparable](searcher *Searcher[M], depth int) *SearchStrategy[M] {
	return &SearchStrategy[M]{searcher: searcher, depth: depth}
}

func (s *SearchStrategy[M]) ChooseMove(ctx context.Context, pos Position[M]) (M, bool, error) {
	return s.searcher.ChooseMove(ctx, pos, s.depth)
}

func (s *SearchStrategy[M]) Depth() int { return s.depth }

func (s *SearchStrategy[M]) Name() string { return fmt.Sprintf("alphabeta depth %d", s.depth) }
