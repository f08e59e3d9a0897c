// Package config holds the arcade server settings.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"chess-arcade/engine"
)

type Config struct {
	ListenAddr        string `json:"listen_addr"`
	LeaderboardPath   string `json:"leaderboard_path"`
	DefaultDifficulty int    `json:"default_difficulty"`
	MaxDifficulty     int    `json:"max_difficulty"`
	NodeLimit         uint64 `json:"node_limit"`
	MoveTimeoutMs     int    `json:"move_timeout_ms"`
	AnalysisMaxDepth  int    `json:"analysis_max_depth"`
	GameTTLMs         int64  `json:"game_ttl_ms"`
	MaxGames          int    `json:"max_games"`
	LogLevel          string `json:"log_level"`
	PrettyLogs        bool   `json:"pretty_logs"`
}

func DefaultConfig() Config {
	return Config{
		ListenAddr:      ":8080",
		LeaderboardPath: "leaderboard.json",

		// Depth 3 answers in well under a second on a laptop.
		DefaultDifficulty: 2,
		MaxDifficulty:     engine.MaxDifficulty,

		NodeLimit:        0, // unlimited; the timeout bounds the search
		MoveTimeoutMs:    5000,
		AnalysisMaxDepth: 5,

		GameTTLMs: (30 * time.Minute).Milliseconds(),
		MaxGames:  1000,

		LogLevel:   "info",
		PrettyLogs: true,
	}
}

// Load reads a JSON config file on top of the defaults. A missing file is not
// an error.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	if c.ListenAddr == "" {
		return errors.New("listen_addr is required")
	}
	if c.LeaderboardPath == "" {
		return errors.New("leaderboard_path is required")
	}
	if c.MaxDifficulty < engine.MinDifficulty || c.MaxDifficulty > engine.MaxDifficulty {
		return fmt.Errorf("max_difficulty %d outside [%d, %d]", c.MaxDifficulty, engine.MinDifficulty, engine.MaxDifficulty)
	}
	if c.DefaultDifficulty < engine.MinDifficulty || c.DefaultDifficulty > c.MaxDifficulty {
		return fmt.Errorf("default_difficulty %d outside [%d, %d]", c.DefaultDifficulty, engine.MinDifficulty, c.MaxDifficulty)
	}
	if c.MoveTimeoutMs < 0 {
		return fmt.Errorf("move_timeout_ms %d is negative", c.MoveTimeoutMs)
	}
	if c.AnalysisMaxDepth < 1 {
		return fmt.Errorf("analysis_max_depth %d must be at least 1", c.AnalysisMaxDepth)
	}
	if c.GameTTLMs < 0 {
		return fmt.Errorf("game_ttl_ms %d is negative", c.GameTTLMs)
	}
	if c.MaxGames < 0 {
		return fmt.Errorf("max_games %d is negative", c.MaxGames)
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}
	return nil
}

// MoveTimeout is the deadline of one AI move, zero meaning none.
func (c Config) MoveTimeout() time.Duration {
	return time.Duration(c.MoveTimeoutMs) * time.Millisecond
}

// GameTTL is how long a game may sit without a move, zero meaning forever.
func (c Config) GameTTL() time.Duration {
	return time.Duration(c.GameTTLMs) * time.Millisecond
}

// Level parses LogLevel, falling back to info.
func (c Config) Level() zerolog.Level {
	level, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil {
		return zerolog.InfoLevel
	}
	return level
}

// Difficulty clamps a requested level to what the server allows. Zero picks the default.
func (c Config) Difficulty(requested int) int {
	if requested == 0 {
		return c.DefaultDifficulty
	}
	return min(max(requested, engine.MinDifficulty), c.MaxDifficulty)
}

type Store struct {
	mu     sync.RWMutex
	config Config
}

func NewStore(cfg Config) *Store {
	return &Store{config: cfg}
}

func (s *Store) Get() Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.config
}

// Update replaces the config if it validates.
func (s *Store) Update(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	s.config = cfg
	s.mu.Unlock()
	return nil
}
