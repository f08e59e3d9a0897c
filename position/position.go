// Package position is the chess move oracle driven by the search engine. It wraps
// a dragontoothmg board with an undo stack, draw tracking and game status.
package position

import (
	"errors"
	"fmt"
	"strings"

	"chess-arcade/engine"

	"github.com/dylhunn/dragontoothmg"
)

// Move is the oracle's move token.
type Move = dragontoothmg.Move

// ErrIllegalMove is returned by Play for moves that are not legal in the position.
var ErrIllegalMove = errors.New("illegal move")

var _ engine.Position[Move] = (*Position)(nil)

// Position is a chess game in progress. It is not safe for concurrent use.
type Position struct {
	board   dragontoothmg.Board
	undo    []func()
	played  []Move
	history []state

	// Legal moves of the current node, dropped on every Apply/Undo.
	moves      []Move
	movesValid bool
}

// New returns the standard starting position.
func New() *Position {
	p, err := FromFEN(dragontoothmg.Startpos)
	if err != nil {
		panic(err)
	}
	return p
}

// FromFEN parses a FEN string. Four-field FENs get default move clocks.
func FromFEN(fen string) (*Position, error) {
	f, err := parseFEN(fen)
	if err != nil {
		return nil, err
	}
	board, err := loadBoard(f.String())
	if err != nil {
		return nil, err
	}
	p := &Position{board: board}
	p.history = append(p.history, state{hash: board.Hash(), rule50: f.halfmove})
	return p, nil
}

func loadBoard(fen string) (board dragontoothmg.Board, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("invalid fen %q: %v", fen, r)
		}
	}()
	return dragontoothmg.ParseFen(fen), nil
}

// LegalMoves returns the legal moves of the side to move. The returned slice is
// shared with the position and must not be modified.
func (p *Position) LegalMoves() []Move {
	if !p.movesValid {
		p.moves = p.board.GenerateLegalMoves()
		p.movesValid = true
	}
	return p.moves
}

// Apply plays m. It panics if the origin square does not hold a piece of the
// side to move, which means m did not come from LegalMoves.
func (p *Position) Apply(m Move) {
	own := p.ownBitboards()
	from := uint64(1) << m.From()
	if own.All&from == 0 {
		panic(fmt.Sprintf("position.Apply: move %s does not start on a %v piece in %s", m.String(), p.SideToMove(), p.FEN()))
	}

	rule50 := p.top().rule50 + 1
	if own.Pawns&from != 0 || dragontoothmg.IsCapture(m, &p.board) {
		rule50 = 0
	}

	p.undo = append(p.undo, p.board.Apply(m))
	p.played = append(p.played, m)
	p.history = append(p.history, state{hash: p.board.Hash(), rule50: rule50})
	p.movesValid = false
}

// Undo takes back the last applied move. It panics when nothing is left to undo.
func (p *Position) Undo() {
	n := len(p.undo)
	if n == 0 {
		panic("position.Undo: no move to undo")
	}
	p.undo[n-1]()
	p.undo[n-1] = nil
	p.undo = p.undo[:n-1]
	p.played = p.played[:n-1]
	p.history = p.history[:len(p.history)-1]
	p.movesValid = false
}

// Play applies a move given in long algebraic notation (e2e4, e7e8q).
func (p *Position) Play(uci string) (Move, error) {
	m, err := p.FindMove(uci)
	if err != nil {
		return 0, err
	}
	p.Apply(m)
	return m, nil
}

// FindMove looks up a legal move by its long algebraic notation.
func (p *Position) FindMove(uci string) (Move, error) {
	want := strings.ToLower(strings.TrimSpace(uci))
	for _, m := range p.LegalMoves() {
		if m.String() == want {
			return m, nil
		}
	}
	return 0, fmt.Errorf("%w: %q in %s", ErrIllegalMove, uci, p.FEN())
}

// IsGameOver reports checkmate, stalemate and the automatic draws.
func (p *Position) IsGameOver() bool { return p.Status() != Ongoing }

// SideToMove returns the side whose turn it is.
func (p *Position) SideToMove() engine.Color {
	if p.board.Wtomove {
		return engine.White
	}
	return engine.Black
}

// InCheck reports whether the side to move is in check.
func (p *Position) InCheck() bool { return p.board.OurKingInCheck() }

// Board returns the piece placement with row 0 holding rank 8.
func (p *Position) Board() engine.Board {
	var b engine.Board
	fill(&b, &p.board.White, engine.White)
	fill(&b, &p.board.Black, engine.Black)
	return b
}

func fill(b *engine.Board, bbs *dragontoothmg.Bitboards, c engine.Color) {
	for sq := 0; sq < 64; sq++ {
		pt, ok := pieceTypeAt(uint8(sq), bbs)
		if !ok {
			continue
		}
		b[7-sq/8][sq%8] = engine.Piece{Type: pt, Color: c}
	}
}

func pieceTypeAt(sq uint8, bbs *dragontoothmg.Bitboards) (engine.PieceType, bool) {
	bit := uint64(1) << sq
	switch {
	case bbs.All&bit == 0:
		return engine.NoPieceType, false
	case bbs.Pawns&bit != 0:
		return engine.Pawn, true
	case bbs.Knights&bit != 0:
		return engine.Knight, true
	case bbs.Bishops&bit != 0:
		return engine.Bishop, true
	case bbs.Rooks&bit != 0:
		return engine.Rook, true
	case bbs.Queens&bit != 0:
		return engine.Queen, true
	case bbs.Kings&bit != 0:
		return engine.King, true
	}
	return engine.NoPieceType, false
}

// FEN returns the position in Forsyth-Edwards notation.
func (p *Position) FEN() string { return p.board.ToFen() }

// Hash returns the Zobrist key of the position.
func (p *Position) Hash() uint64 { return p.board.Hash() }

// Ply returns the number of moves applied since the position was created.
func (p *Position) Ply() int { return len(p.played) }

// Moves returns the moves applied so far, oldest first.
func (p *Position) Moves() []Move {
	out := make([]Move, len(p.played))
	copy(out, p.played)
	return out
}

func (p *Position) ownBitboards() *dragontoothmg.Bitboards {
	if p.board.Wtomove {
		return &p.board.White
	}
	return &p.board.Black
}
