package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"chess-arcade/engine"
	"chess-arcade/position"
)

const defaultDifficulty = 2

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, NoColor: true})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	uciLoop(os.Stdin, os.Stdout, log.Logger)
}

// session is the state kept between protocol commands.
type session struct {
	out        io.Writer
	logger     zerolog.Logger
	pos        *position.Position
	difficulty int
	seed       uint64
}

func uciLoop(in io.Reader, out io.Writer, logger zerolog.Logger) {
	s := &session{
		out:        out,
		logger:     logger,
		pos:        position.New(),
		difficulty: defaultDifficulty,
		seed:       uint64(time.Now().UnixNano()),
	}
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		line := scanner.Text()
		tokens := strings.Fields(line)
		if len(tokens) == 0 { // ignore blank lines
			continue
		}
		switch strings.ToLower(tokens[0]) {
		case "uci":
			s.println("id name chess-arcade")
			s.println("id author arcade")
			s.printf("option name Difficulty type spin default %d min %d max %d\n", defaultDifficulty, engine.MinDifficulty, engine.MaxDifficulty)
			s.println("uciok")
		case "isready":
			s.println("readyok")
		case "ucinewgame":
			s.pos = position.New()
		case "quit":
			return
		case "stop":
			// Searches run synchronously; nothing to stop.
		case "position":
			s.position(tokens[1:])
		case "go":
			s.goCommand(tokens[1:])
		case "eval":
			score := engine.Material.Evaluate(s.pos.Board())
			s.printf("info string eval %d cp (white), %d cp (%s)\n", score, engine.Orient(score, s.pos.SideToMove()), s.pos.SideToMove())
		case "d":
			s.display()
		case "setoption":
			s.setOption(tokens[1:])
		default:
			s.println("info string Unknown command:", line)
		}
	}
}

func (s *session) println(a ...any) { fmt.Fprintln(s.out, a...) }

func (s *session) printf(format string, a ...any) { fmt.Fprintf(s.out, format, a...) }

// position handles "startpos [moves ...]" and "fen <fen> [moves ...]".
func (s *session) position(args []string) {
	if len(args) == 0 {
		s.println("info string Malformed position command")
		return
	}
	var pos *position.Position
	rest := args[1:]
	switch strings.ToLower(args[0]) {
	case "startpos":
		pos = position.New()
	case "fen":
		var fen []string
		for len(rest) > 0 && strings.ToLower(rest[0]) != "moves" {
			fen = append(fen, rest[0])
			rest = rest[1:]
		}
		var err error
		if pos, err = position.FromFEN(strings.Join(fen, " ")); err != nil {
			s.println("info string Invalid fen position:", err)
			return
		}
	default:
		s.println("info string Invalid position subcommand")
		return
	}

	// The session keeps its previous position unless every move applies.
	if len(rest) > 0 && strings.ToLower(rest[0]) == "moves" {
		for _, mv := range rest[1:] {
			if _, err := pos.Play(mv); err != nil {
				s.println("info string Move", mv, "not found for position", pos.FEN())
				return
			}
		}
	}
	s.pos = pos
}

func (s *session) goCommand(args []string) {
	depth, difficulty := 0, s.difficulty
	var moveTime time.Duration
	var nodes uint64
	for i := 0; i < len(args); i++ {
		sub := strings.ToLower(args[i])
		switch sub {
		case "infinite":
			continue
		case "depth", "difficulty", "movetime", "nodes":
		default:
			s.println("info string Unknown go subcommand", sub)
			continue
		}
		if i+1 >= len(args) {
			s.println("info string Malformed go command option", sub)
			continue
		}
		i++
		n, err := strconv.Atoi(args[i])
		if err != nil || n < 0 {
			s.println("info string Malformed go command option; could not convert", sub)
			continue
		}
		switch sub {
		case "depth":
			depth = n
		case "difficulty":
			difficulty = engine.ClampDifficulty(n)
		case "movetime":
			moveTime = time.Duration(n) * time.Millisecond
		case "nodes":
			nodes = uint64(n)
		}
	}

	ctx := context.Background()
	if moveTime > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, moveTime)
		defer cancel()
	}
	options := []engine.Option{engine.WithLogger(s.logger), engine.WithNodeLimit(nodes)}

	var (
		move  position.Move
		found bool
		err   error
	)
	if depth == 0 {
		depth = engine.DepthForDifficulty(difficulty)
	}
	if depth == 0 {
		s.seed++
		move, found, err = engine.NewRandomStrategy[position.Move](s.seed).ChooseMove(ctx, s.pos)
	} else {
		var res engine.Result[position.Move]
		res, err = engine.NewSearcher[position.Move](options...).Search(ctx, s.pos, depth)
		move, found = res.Move, res.Found
		if res.Found {
			s.printf("info depth %d score cp %d nodes %d time %d nps %d pv %s\n",
				depth, res.Score, res.Stats.Nodes, res.Stats.Elapsed.Milliseconds(), res.Stats.NodesPerSecond(), res.Move.String())
		}
	}
	if err != nil {
		s.println("info string search stopped:", err)
	}
	if !found {
		s.println("bestmove 0000")
		return
	}
	s.println("bestmove", move.String())
}

func (s *session) setOption(args []string) {
	// setoption name <id> value <x>
	if len(args) < 4 || strings.ToLower(args[0]) != "name" || strings.ToLower(args[2]) != "value" {
		s.println("info string Malformed setoption command")
		return
	}
	switch strings.ToLower(args[1]) {
	case "difficulty":
		n, err := strconv.Atoi(args[3])
		if err != nil {
			s.println("info string Malformed setoption value", args[3])
			return
		}
		s.difficulty = engine.ClampDifficulty(n)
	default:
		s.println("info string Unknown option", args[1])
	}
}

var pieceLetters = [...]byte{engine.NoPieceType: '.', engine.Pawn: 'p', engine.Knight: 'n', engine.Bishop: 'b', engine.Rook: 'r', engine.Queen: 'q', engine.King: 'k'}

func (s *session) display() {
	board := s.pos.Board()
	for row := 0; row < 8; row++ {
		var sb strings.Builder
		fmt.Fprintf(&sb, "%d ", 8-row)
		for col := 0; col < 8; col++ {
			p := board[row][col]
			letter := pieceLetters[p.Type]
			if !p.Empty() && p.Color == engine.White {
				letter -= 'a' - 'A'
			}
			sb.WriteByte(letter)
			if col < 7 {
				sb.WriteByte(' ')
			}
		}
		s.println(sb.String())
	}
	s.println("  a b c d e f g h")
	s.println("Fen:", s.pos.FEN())
	s.println("Status:", s.pos.StatusText())
}
