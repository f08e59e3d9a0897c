package engine

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"
)

// =============================================================================
// SCORE CONSTANTS
// =============================================================================
const (
	// rootFloor is the starting best score of the root driver.
	rootFloor Score = -9999
	// infinity is the window of every root child. Evaluator scores have no fixed range.
	infinity Score = math.MaxInt
)

var (
	// ErrInvalidDepth is returned for searches requested with depth < 1.
	ErrInvalidDepth = errors.New("search depth must be at least 1")
	// ErrSearchAborted wraps the cause of a search stopped by its context or node budget.
	ErrSearchAborted = errors.New("search aborted")
)

// LeafMode selects how a leaf turns the white-positive evaluation into a search value.
type LeafMode uint8

const (
	// LeafSideRelative orients leaf scores to the side that replies to the root
	// move and searches that side as the maximizing player. Root values are then
	// from the root mover's point of view.
	LeafSideRelative LeafMode = iota
	// LeafLegacy always returns the negated white-positive evaluation and searches
	// the reply as the minimizing player, reproducing the browser arcade's AI.
	// Past depth 1 it does not play sound chess for either side.
	LeafLegacy
)

func (m LeafMode) String() string {
	switch m {
	case LeafSideRelative:
		return "side-relative"
	case LeafLegacy:
		return "legacy"
	default:
		return fmt.Sprintf("LeafMode(%d)", uint8(m))
	}
}

type Option func(s *settings)

type settings struct {
	evaluator Evaluator
	leafMode  LeafMode
	nodeLimit uint64
	logger    zerolog.Logger
}

// WithEvaluator replaces the material evaluator used at the leaves.
func WithEvaluator(e Evaluator) Option {
	return func(s *settings) {
		if e != nil {
			s.evaluator = e
		}
	}
}

// WithLeafMode selects the leaf orientation.
func WithLeafMode(mode LeafMode) Option {
	return func(s *settings) {
		s.leafMode = mode
	}
}

// WithNodeLimit aborts searches after n visited nodes. Zero means unlimited.
func WithNodeLimit(n uint64) Option {
	return func(s *settings) {
		s.nodeLimit = n
	}
}

// WithLogger sets the logger receiving one debug event per search.
func WithLogger(l zerolog.Logger) Option {
	return func(s *settings) {
		s.logger = l
	}
}

// Searcher picks moves with depth-limited minimax and alpha-beta pruning.
// It keeps no state between calls; one Searcher may serve many positions as
// long as each call has exclusive use of its position.
type Searcher[M comparable] struct {
	settings
}

func NewSearcher[M comparable](options ...Option) *Searcher[M] {
	s := &Searcher[M]{settings{ // Default values
		evaluator: Material,
		leafMode:  LeafSideRelative,
		logger:    zerolog.Nop(),
	}}
	for _, option := range options {
		option(&s.settings)
	}
	return s
}

// Result is the outcome of a search.
type Result[M comparable] struct {
	Move  M
	Found bool
	// Score is the value of Move from the root mover's point of view
	// (under LeafLegacy it is whatever the legacy convention produces).
	Score Score
	Depth int
	Stats Stats
}

// ChooseMove returns the best move for the side to move in pos, searching depth
// plies (depth 1 evaluates right after each root move). found is false when the
// side to move has no legal moves. The position is left exactly as it was.
func (s *Searcher[M]) ChooseMove(ctx context.Context, pos Position[M], depth int) (move M, found bool, err error) {
	res, err := s.Search(ctx, pos, depth)
	return res.Move, res.Found, err
}

// Search is ChooseMove with the chosen score and search statistics.
//
// When ctx is done or the node limit is hit, the search unwinds, undoing every
// move it made, and returns the best root move whose subtree was fully searched
// (if any) together with an error wrapping ErrSearchAborted.
func (s *Searcher[M]) Search(ctx context.Context, pos Position[M], depth int) (Result[M], error) {
	res := Result[M]{Depth: depth, Score: rootFloor}
	if depth < 1 {
		return res, fmt.Errorf("%w: got %d", ErrInvalidDepth, depth)
	}

	start := time.Now()
	r := &run[M]{
		pos:    pos,
		eval:   s.evaluator,
		leaf:   s.leafMode,
		budget: newBudget(ctx, s.nodeLimit),
		// The reply side maximizes below the root.
		pivot: pos.SideToMove().Other(),
	}
	replyMaximizing := s.leafMode == LeafSideRelative

	for _, move := range pos.LegalMoves() {
		pos.Apply(move)
		value := -r.alphabeta(depth-1, -infinity, infinity, replyMaximizing)
		pos.Undo()

		if r.budget.stopped {
			break
		}
		// Strictly greater keeps the earliest of equal moves. The first move is
		// always taken so that a legal move is never dropped below the floor.
		if !res.Found || value > res.Score {
			res.Score = value
			res.Move = move
			res.Found = true
		}
	}

	r.stats.Elapsed = time.Since(start)
	res.Stats = r.stats

	if r.budget.stopped {
		s.logger.Warn().
			Int("depth", depth).
			Bool("found", res.Found).
			Err(r.budget.cause).
			EmbedObject(res.Stats).
			Msg("search aborted")
		return res, fmt.Errorf("%w: %w", ErrSearchAborted, r.budget.cause)
	}

	s.logger.Debug().
		Int("depth", depth).
		Stringer("leaf", s.leafMode).
		Bool("found", res.Found).
		Str("move", moveString(res.Move, res.Found)).
		Int("score", int(res.Score)).
		EmbedObject(res.Stats).
		Msg("search complete")
	return res, nil
}

// run holds the per-call state of one search.
type run[M comparable] struct {
	pos    Position[M]
	eval   Evaluator
	leaf   LeafMode
	pivot  Color
	budget *budget
	stats  Stats
}

func (r *run[M]) alphabeta(depth int, alpha Score, beta Score, maximizing bool) Score {
	if r.budget.exceeded(r.stats.Nodes) {
		return 0
	}
	r.stats.Nodes++

	if depth == 0 || r.pos.IsGameOver() {
		return r.leafScore()
	}

	moves := r.pos.LegalMoves()
	if len(moves) == 0 {
		// An oracle without a game-over predicate for this node; treat it as a leaf.
		return r.leafScore()
	}

	if maximizing {
		best := -infinity
		for _, move := range moves {
			r.pos.Apply(move)
			value := r.alphabeta(depth-1, alpha, beta, false)
			r.pos.Undo()
			if r.budget.stopped {
				return 0
			}
			best = max(best, value)
			alpha = max(alpha, value)
			if beta <= alpha {
				r.stats.Cutoffs++
				break
			}
		}
		return best
	}

	best := infinity
	for _, move := range moves {
		r.pos.Apply(move)
		value := r.alphabeta(depth-1, alpha, beta, true)
		r.pos.Undo()
		if r.budget.stopped {
			return 0
		}
		best = min(best, value)
		beta = min(beta, value)
		if beta <= alpha {
			r.stats.Cutoffs++
			break
		}
	}
	return best
}

func (r *run[M]) leafScore() Score {
	r.stats.Leaves++
	score := r.eval.Evaluate(r.pos.Board())
	if r.leaf == LeafLegacy {
		return -score
	}
	return Orient(score, r.pivot)
}

func moveString[M comparable](m M, found bool) string {
	if !found {
		return "(none)"
	}
	// Oracle move types may implement String on the pointer.
	if s, ok := any(&m).(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprint(m)
}
