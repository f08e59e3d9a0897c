package engine

// Score is a position value in centipawns. Positive favors white.
type Score int

// Color is the side owning a piece or the side to move.
type Color uint8

const (
	White Color = 0
	Black Color = 1
)

// Other returns the opposing side.
func (c Color) Other() Color { return c ^ 1 }

func (c Color) String() string {
	if c == White {
		return "White"
	}
	return "Black"
}

// PieceType is the colorless kind of a piece. NoPieceType marks an empty cell.
type PieceType uint8

const (
	NoPieceType PieceType = 0
	Pawn        PieceType = 1
	Knight      PieceType = 2
	Bishop      PieceType = 3
	Rook        PieceType = 4
	Queen       PieceType = 5
	King        PieceType = 6
)

// Piece is the content of a board cell. The zero value is an empty cell.
type Piece struct {
	Type  PieceType
	Color Color
}

// Empty reports whether the cell holds no piece.
func (p Piece) Empty() bool { return p.Type == NoPieceType }

// Board is a read-only 8x8 view of a position used for evaluation.
// Row 0 is rank 8 and column 0 is file a.
type Board [8][8]Piece

// PieceValues holds the material weight of each piece type, indexed by PieceType.
// The king weight doubles as a sentinel for extreme positions.
var PieceValues = [7]Score{
	NoPieceType: 0,
	Pawn:        100,
	Knight:      320,
	Bishop:      330,
	Rook:        500,
	Queen:       900,
	King:        20000,
}

// Evaluator maps a board to a white-positive score. Implementations must be pure.
type Evaluator interface {
	Evaluate(b Board) Score
}

// EvaluatorFunc adapts a plain function to the Evaluator interface.
type EvaluatorFunc func(b Board) Score

func (f EvaluatorFunc) Evaluate(b Board) Score { return f(b) }

// Material is the default evaluator: plain material balance.
var Material Evaluator = EvaluatorFunc(EvaluateMaterial)

// EvaluateMaterial sums the piece values on the board, adding white pieces and
// subtracting black ones.
func EvaluateMaterial(b Board) Score {
	var total Score
	for _, row := range b {
		for _, p := range row {
			if p.Empty() {
				continue
			}
			if p.Color == White {
				total += PieceValues[p.Type]
			} else {
				total -= PieceValues[p.Type]
			}
		}
	}
	return total
}

// Orient converts a white-positive score to the perspective of side.
func Orient(s Score, side Color) Score {
	if side == Black {
		return -s
	}
	return s
}
