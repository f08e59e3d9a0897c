package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"runtime"
	"runtime/pprof"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"chess-arcade/engine"
	"chess-arcade/position"
)

func main() {
	depthFlag := flag.Int("depth", 4, "search depth in plies")
	repeatFlag := flag.Int("repeat", 1, "number of searches to run")
	fenFlag := flag.String("fen", "", "FEN to search (empty = startpos)")
	legacy := flag.Bool("legacy", false, "use the legacy leaf orientation")
	nodes := flag.Uint64("nodes", 0, "node limit per search (0 = none)")
	verbose := flag.Bool("v", false, "log every search")
	cpuProfile := flag.String("cpuprofile", "", "write CPU profile to file")
	memProfile := flag.String("memprofile", "", "write memory profile (heap) to file")
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if *verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	if *depthFlag <= 0 {
		log.Fatal().Int("depth", *depthFlag).Msg("depth must be positive")
	}

	if *cpuProfile != "" {
		cpuFile, err := os.Create(*cpuProfile)
		if err != nil {
			log.Fatal().Err(err).Msg("could not create CPU profile")
		}
		if err := pprof.StartCPUProfile(cpuFile); err != nil {
			log.Fatal().Err(err).Msg("could not start CPU profile")
		}
		defer func() {
			pprof.StopCPUProfile()
			cpuFile.Close()
		}()
	}

	options := []engine.Option{engine.WithLogger(log.Logger), engine.WithNodeLimit(*nodes)}
	if *legacy {
		options = append(options, engine.WithLeafMode(engine.LeafLegacy))
	}
	searcher := engine.NewSearcher[position.Move](options...)

	fmt.Printf("searchbench: fen=%q depth=%d repeat=%d\n", *fenFlag, *depthFlag, *repeatFlag)

	var total engine.Stats
	startAll := time.Now()
	for i := 0; i < *repeatFlag; i++ {
		// Fresh position for each run
		pos := position.New()
		if *fenFlag != "" {
			var err error
			if pos, err = position.FromFEN(*fenFlag); err != nil {
				log.Fatal().Err(err).Msg("bad fen")
			}
		}

		res, err := searcher.Search(context.Background(), pos, *depthFlag)
		if err != nil {
			log.Warn().Err(err).Int("iteration", i+1).Msg("search stopped early")
		}
		total.Nodes += res.Stats.Nodes
		total.Cutoffs += res.Stats.Cutoffs
		total.Elapsed += res.Stats.Elapsed

		best := "(none)"
		if res.Found {
			best = res.Move.String()
		}
		fmt.Printf("iteration %d: bestmove %s score %d nodes %d cutoffs %d time=%v\n",
			i+1, best, res.Score, res.Stats.Nodes, res.Stats.Cutoffs, res.Stats.Elapsed)
	}
	fmt.Printf("total time: %v nodes %d nps %d\n", time.Since(startAll), total.Nodes, total.NodesPerSecond())

	if *memProfile != "" {
		f, err := os.Create(*memProfile)
		if err != nil {
			log.Fatal().Err(err).Msg("could not create memory profile")
		}
		defer f.Close()

		runtime.GC() // get up-to-date heap info
		if err := pprof.WriteHeapProfile(f); err != nil {
			log.Fatal().Err(err).Msg("could not write memory profile")
		}
	}
}
