package position

import (
	"math/bits"

	"chess-arcade/engine"
)

const fiftyMoveLimit = 100

// Squares of one color, used to tell same-colored bishops apart.
const lightSquares uint64 = 0x55AA55AA55AA55AA

// state is what repetition and fifty-move detection need about a past position.
type state struct {
	hash   uint64
	rule50 int
}

func (p *Position) top() state { return p.history[len(p.history)-1] }

// Status is the outcome of the game at the current position.
type Status uint8

const (
	Ongoing Status = iota
	Checkmate
	Stalemate
	FiftyMoveDraw
	ThreefoldRepetition
	InsufficientMaterial
)

func (s Status) String() string {
	switch s {
	case Ongoing:
		return "ongoing"
	case Checkmate:
		return "checkmate"
	case Stalemate:
		return "stalemate"
	case FiftyMoveDraw:
		return "fifty-move rule"
	case ThreefoldRepetition:
		return "threefold repetition"
	case InsufficientMaterial:
		return "insufficient material"
	}
	return "unknown"
}

// IsDraw reports whether s ends the game without a winner.
func (s Status) IsDraw() bool { return s != Ongoing && s != Checkmate }

// Status classifies the current position.
func (p *Position) Status() Status {
	if len(p.LegalMoves()) == 0 {
		if p.InCheck() {
			return Checkmate
		}
		return Stalemate
	}
	if p.top().rule50 >= fiftyMoveLimit {
		return FiftyMoveDraw
	}
	if p.repetitions() >= 2 {
		return ThreefoldRepetition
	}
	if p.insufficientMaterial() {
		return InsufficientMaterial
	}
	return Ongoing
}

// StatusText describes the position the way the arcade status line does.
func (p *Position) StatusText() string {
	mover := p.SideToMove().String()
	switch status := p.Status(); {
	case status == Checkmate:
		return "Game over, " + mover + " is in checkmate."
	case status.IsDraw():
		return "Game over, drawn position."
	case p.InCheck():
		return mover + " to move, " + mover + " is in check!"
	default:
		return mover + " to move"
	}
}

// Winner returns the side that delivered mate, if any.
func (p *Position) Winner() (engine.Color, bool) {
	if p.Status() != Checkmate {
		return engine.White, false
	}
	return p.SideToMove().Other(), true
}

// repetitions counts earlier occurrences of the current position with the same
// side to move since the last irreversible move.
func (p *Position) repetitions() int {
	curr := p.top()
	start := len(p.history) - 1 - curr.rule50
	if start < 0 {
		start = 0
	}
	count := 0
	for i := len(p.history) - 3; i >= start; i -= 2 {
		if p.history[i].hash == curr.hash {
			count++
		}
	}
	return count
}

func (p *Position) insufficientMaterial() bool {
	w, b := &p.board.White, &p.board.Black
	if w.Pawns|b.Pawns|w.Rooks|b.Rooks|w.Queens|b.Queens != 0 {
		return false
	}
	knights := w.Knights | b.Knights
	bishops := w.Bishops | b.Bishops
	minors := bits.OnesCount64(knights | bishops)
	if minors <= 1 {
		return true
	}
	if knights != 0 {
		return false
	}
	return bishops&lightSquares == 0 || bishops&^lightSquares == 0
}
