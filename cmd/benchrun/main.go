// Command benchrun drives the bench package and the perft and searchbench tools
// in one go, printing their output in sequence.
package main

import (
	"errors"
	"flag"
	"os"
	"os/exec"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const kiwipete = "r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1"

type step struct {
	title string
	args  []string
}

func main() {
	fen := flag.String("fen", kiwipete, "FEN of the middlegame position")
	perftDepth := flag.Int("depth", 5, "deepest start position perft")
	searchDepth := flag.Int("searchdepth", 4, "start position search depth")
	benchtime := flag.String("benchtime", "1s", "go test -benchtime")
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	steps := []step{{
		title: "microbenchmarks",
		args:  []string{"test", "./bench", "-run", "^$", "-bench", ".", "-benchmem", "-benchtime=" + *benchtime},
	}}
	for depth := 3; depth <= *perftDepth; depth++ {
		steps = append(steps, step{
			title: "perft start position",
			args:  []string{"run", "./cmd/perft", "-depth", strconv.Itoa(depth), "-label", "Initial"},
		})
	}
	steps = append(steps,
		step{"perft middlegame", []string{"run", "./cmd/perft", "-fen", *fen, "-depth", "3", "-label", "Kiwipete"}},
		step{"search start position", []string{"run", "./cmd/searchbench", "-depth", strconv.Itoa(*searchDepth)}},
		step{"search middlegame", []string{"run", "./cmd/searchbench", "-depth", "3", "-fen", *fen}},
	)

	for i, s := range steps {
		log.Info().Str("step", s.title).Strs("args", s.args).Msg("running")
		cmd := exec.Command("go", s.args...)
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
		if err := cmd.Run(); err != nil {
			code := 1
			var exitErr *exec.ExitError
			if errors.As(err, &exitErr) {
				code = exitErr.ExitCode()
			}
			log.Error().Err(err).Str("step", s.title).Msg("step failed")
			// The microbenchmarks gate the rest; the tool runs are independent.
			if i == 0 {
				os.Exit(code)
			}
		}
	}
}
