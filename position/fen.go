package position

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidFEN is returned by FromFEN for malformed input.
var ErrInvalidFEN = errors.New("invalid fen")

type fenFields struct {
	placement string
	side      string
	castling  string
	enPassant string
	halfmove  int
	fullmove  int
}

func (f fenFields) String() string {
	return fmt.Sprintf("%s %s %s %s %d %d", f.placement, f.side, f.castling, f.enPassant, f.halfmove, f.fullmove)
}

// parseFEN validates a FEN before it reaches the move generator, which does not
// check its input.
func parseFEN(fen string) (fenFields, error) {
	fields := strings.Fields(fen)
	if len(fields) < 4 || len(fields) > 6 {
		return fenFields{}, fmt.Errorf("%w: expected 4 to 6 fields, got %d", ErrInvalidFEN, len(fields))
	}
	f := fenFields{
		placement: fields[0],
		side:      fields[1],
		castling:  fields[2],
		enPassant: fields[3],
		fullmove:  1,
	}
	if err := checkPlacement(f.placement); err != nil {
		return fenFields{}, err
	}
	if f.side != "w" && f.side != "b" {
		return fenFields{}, fmt.Errorf("%w: side to move %q", ErrInvalidFEN, f.side)
	}
	if f.castling != "-" {
		for _, ch := range f.castling {
			if !strings.ContainsRune("KQkq", ch) {
				return fenFields{}, fmt.Errorf("%w: castling rights %q", ErrInvalidFEN, f.castling)
			}
		}
	}
	if f.enPassant != "-" {
		ep := f.enPassant
		if len(ep) != 2 || ep[0] < 'a' || ep[0] > 'h' || (ep[1] != '3' && ep[1] != '6') {
			return fenFields{}, fmt.Errorf("%w: en passant square %q", ErrInvalidFEN, ep)
		}
	}
	var err error
	if len(fields) > 4 {
		if f.halfmove, err = strconv.Atoi(fields[4]); err != nil || f.halfmove < 0 {
			return fenFields{}, fmt.Errorf("%w: halfmove clock %q", ErrInvalidFEN, fields[4])
		}
	}
	if len(fields) > 5 {
		if f.fullmove, err = strconv.Atoi(fields[5]); err != nil || f.fullmove < 1 {
			return fenFields{}, fmt.Errorf("%w: fullmove number %q", ErrInvalidFEN, fields[5])
		}
	}
	return f, nil
}

func checkPlacement(placement string) error {
	ranks := strings.Split(placement, "/")
	if len(ranks) != 8 {
		return fmt.Errorf("%w: expected 8 ranks, got %d", ErrInvalidFEN, len(ranks))
	}
	kings := map[rune]int{}
	for i, rank := range ranks {
		files := 0
		for _, ch := range rank {
			switch {
			case ch >= '1' && ch <= '8':
				files += int(ch - '0')
			case strings.ContainsRune("pnbrqkPNBRQK", ch):
				files++
				if ch == 'k' || ch == 'K' {
					kings[ch]++
				}
				if (ch == 'p' || ch == 'P') && (i == 0 || i == 7) {
					return fmt.Errorf("%w: pawn on back rank", ErrInvalidFEN)
				}
			default:
				return fmt.Errorf("%w: unexpected %q in placement", ErrInvalidFEN, ch)
			}
		}
		if files != 8 {
			return fmt.Errorf("%w: rank %d has %d files", ErrInvalidFEN, 8-i, files)
		}
	}
	if kings['K'] != 1 || kings['k'] != 1 {
		return fmt.Errorf("%w: each side needs exactly one king", ErrInvalidFEN)
	}
	return nil
}
