package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"chess-arcade/config"
	"chess-arcade/leaderboard"
	"chess-arcade/server"
)

func main() {
	configPath := flag.String("config", "arcade.json", "JSON config file (missing file = defaults)")
	addr := flag.String("addr", "", "listen address, overrides the config")
	board := flag.String("leaderboard", "", "leaderboard file, overrides the config")
	level := flag.String("log-level", "", "log level, overrides the config")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", *configPath).Msg("load config")
	}
	if *addr != "" {
		cfg.ListenAddr = *addr
	}
	if *board != "" {
		cfg.LeaderboardPath = *board
	}
	if *level != "" {
		cfg.LogLevel = *level
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}

	if cfg.PrettyLogs {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
	zerolog.SetGlobalLevel(cfg.Level())

	results, err := leaderboard.Open(cfg.LeaderboardPath)
	if err != nil {
		log.Fatal().Err(err).Msg("open leaderboard")
	}

	srv := server.New(config.NewStore(cfg), results, server.WithLogger(log.Logger))
	httpServer := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: srv.Routes(),
	}
	serverErrCh := make(chan error, 1)
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrCh <- err
		}
		close(serverErrCh)
	}()

	sigCtx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()
	go srv.Games().RunSweeper(sigCtx, time.Minute, log.Logger)

	log.Info().Str("addr", cfg.ListenAddr).Int("difficulty", cfg.DefaultDifficulty).Msg("arcade listening")
	select {
	case <-sigCtx.Done():
		log.Info().Msg("shutdown signal received")
	case err, ok := <-serverErrCh:
		if ok {
			log.Error().Err(err).Msg("server error")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error().Err(err).Msg("graceful shutdown failed")
		_ = httpServer.Close()
	}
}
