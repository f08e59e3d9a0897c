package engine

// Position is the move oracle the searcher drives. It owns the game state;
// the searcher only enumerates, applies and undoes moves on it.
//
// Apply and Undo follow strict stack discipline: every Undo reverses the most
// recent Apply that has not been undone yet. Implementations are expected to
// panic when that contract is broken or when Apply receives a move that did not
// come from LegalMoves, since both indicate a programming error.
type Position[M comparable] interface {
	// LegalMoves returns every legal move for the side to move, in any order.
	LegalMoves() []M
	// Apply plays m and hands the move to the other side.
	Apply(m M)
	// Undo takes back the most recently applied move.
	Undo()
	// IsGameOver reports checkmate, stalemate or any other terminal draw.
	IsGameOver() bool
	// Board returns a snapshot of the piece placement.
	Board() Board
	// SideToMove returns the side whose turn it is.
	SideToMove() Color
}
