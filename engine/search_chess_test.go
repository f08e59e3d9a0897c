package engine_test

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"chess-arcade/engine"
	"chess-arcade/position"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

const kiwipete = "r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1"

func mustFEN(t *testing.T, fen string) *position.Position {
	t.Helper()
	pos, err := position.FromFEN(fen)
	require.NoError(t, err)
	return pos
}

type snapshot struct {
	fen   string
	hash  uint64
	ply   int
	side  engine.Color
	moves int
}

func snap(p *position.Position) snapshot {
	return snapshot{p.FEN(), p.Hash(), p.Ply(), p.SideToMove(), len(p.LegalMoves())}
}

func TestStartPositionIsLevel(t *testing.T) {
	pos := position.New()
	require.Equal(t, engine.Score(0), engine.EvaluateMaterial(pos.Board()))

	res, err := engine.NewSearcher[position.Move]().Search(context.Background(), pos, 2)
	require.NoError(t, err)
	require.True(t, res.Found)
	require.Equal(t, engine.Score(0), res.Score)
	// Nothing can be captured within two plies, so every move ties and the
	// first generated one is kept.
	require.Equal(t, pos.LegalMoves()[0], res.Move)
	require.Len(t, pos.LegalMoves(), 20)
}

func TestBlackTakesHangingQueen(t *testing.T) {
	for depth := 1; depth <= 3; depth++ {
		pos := mustFEN(t, "7k/8/8/3p4/4Q3/8/8/4K3 b - - 0 1")
		move, found, err := engine.NewSearcher[position.Move]().ChooseMove(context.Background(), pos, depth)
		require.NoError(t, err)
		require.True(t, found)
		require.Equal(t, "d5e4", move.String(), "depth %d", depth)
	}
}

func TestWhiteTakesHangingRook(t *testing.T) {
	pos := mustFEN(t, "4k3/8/8/8/3r4/8/8/3RK3 w - - 0 1")
	move, found, err := engine.NewSearcher[position.Move]().ChooseMove(context.Background(), pos, 2)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "d1d4", move.String())
}

func TestSearchAvoidsDefendedPawn(t *testing.T) {
	// Qxd5 wins a pawn and loses the queen to exd5.
	pos := mustFEN(t, "4k3/8/4p3/3p4/8/8/3Q4/4K3 w - - 0 1")
	greedy, _, err := engine.NewSearcher[position.Move]().ChooseMove(context.Background(), pos, 1)
	require.NoError(t, err)
	require.Equal(t, "d2d5", greedy.String())

	deeper, _, err := engine.NewSearcher[position.Move]().ChooseMove(context.Background(), pos, 2)
	require.NoError(t, err)
	require.NotEqual(t, "d2d5", deeper.String())
}

func TestSearchStalemateHasNoMove(t *testing.T) {
	pos := mustFEN(t, "k7/P7/K7/8/8/8/8/8 b - - 0 1")
	require.Equal(t, position.Stalemate, pos.Status())

	move, found, err := engine.NewSearcher[position.Move]().ChooseMove(context.Background(), pos, 3)
	require.NoError(t, err)
	require.False(t, found)
	require.Zero(t, move)
}

func TestSearchLeavesPositionUntouched(t *testing.T) {
	for _, fen := range []string{
		"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1",
		kiwipete,
		"8/2p5/3p4/KP5r/1R3p1k/8/4P1P1/8 w - - 0 1",
	} {
		pos := mustFEN(t, fen)
		before := snap(pos)
		for depth := 1; depth <= 3; depth++ {
			_, _, err := engine.NewSearcher[position.Move]().ChooseMove(context.Background(), pos, depth)
			require.NoError(t, err)
			require.Equal(t, before, snap(pos), "%s depth %d", fen, depth)
		}

		_, _, err := engine.NewSearcher[position.Move](engine.WithNodeLimit(200)).ChooseMove(context.Background(), pos, 4)
		require.ErrorIs(t, err, engine.ErrSearchAborted)
		require.Equal(t, before, snap(pos), "%s after abort", fen)
	}
}

// minimax is the unpruned reference: the value of the position for the side to move.
func minimax(p *position.Position, depth int) engine.Score {
	if depth == 0 || p.IsGameOver() {
		return engine.Orient(engine.EvaluateMaterial(p.Board()), p.SideToMove())
	}
	best := engine.Score(-1 << 30)
	for _, m := range p.LegalMoves() {
		p.Apply(m)
		best = max(best, -minimax(p, depth-1))
		p.Undo()
	}
	return best
}

func TestPruningDoesNotChangeChessResults(t *testing.T) {
	for _, fen := range []string{
		"4k3/8/8/3q4/8/2N5/8/4K2R w K - 0 1",
		"8/2p5/3p4/KP5r/1R3p1k/8/4P1P1/8 w - - 0 1",
		"r3k3/1p6/8/8/8/8/6P1/4K2R b - - 0 1",
	} {
		for depth := 1; depth <= 3; depth++ {
			pos := mustFEN(t, fen)
			var wantMove position.Move
			wantScore, found := engine.Score(0), false
			for _, m := range pos.LegalMoves() {
				pos.Apply(m)
				v := -minimax(pos, depth-1)
				pos.Undo()
				if !found || v > wantScore {
					wantMove, wantScore, found = m, v, true
				}
			}

			res, err := engine.NewSearcher[position.Move]().Search(context.Background(), pos, depth)
			require.NoError(t, err)
			require.Equal(t, wantScore, res.Score, "%s depth %d", fen, depth)
			require.Equal(t, wantMove, res.Move, "%s depth %d", fen, depth)
		}
	}
}

func TestSearchLogsStats(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf).Level(zerolog.DebugLevel)
	s := engine.NewSearcher[position.Move](engine.WithLogger(logger))

	_, err := s.Search(context.Background(), position.New(), 2)
	require.NoError(t, err)

	var event map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &event))
	require.Equal(t, "search complete", event["message"])
	require.Equal(t, float64(2), event["depth"])
	require.Equal(t, "side-relative", event["leaf"])
	require.Contains(t, event, "nodes")
	require.Contains(t, event, "cutoffs")
}

func TestSearchHonorsDeadline(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	pos := mustFEN(t, kiwipete)
	before := snap(pos)

	_, _, err := engine.NewSearcher[position.Move]().ChooseMove(ctx, pos, 8)
	require.ErrorIs(t, err, engine.ErrSearchAborted)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.Equal(t, before, snap(pos))
}

func TestStrategyForChess(t *testing.T) {
	pos := position.New()
	for _, level := range []int{engine.MinDifficulty, 2} {
		s := engine.StrategyFor[position.Move](level, 42)
		move, found, err := s.ChooseMove(context.Background(), pos)
		require.NoError(t, err, s.Name())
		require.True(t, found)
		_, err = pos.FindMove(move.String())
		require.NoError(t, err)
	}
}
