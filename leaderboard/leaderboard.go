// Package leaderboard keeps arcade game results in a JSON file.
package leaderboard

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

var ErrInvalidEntry = errors.New("invalid leaderboard entry")

// Entry is one reported game result.
type Entry struct {
	Result string `json:"result"`
	Score  int    `json:"score"`
}

// Board maps game names to their reported results, oldest first.
type Board map[string][]Entry

// Store persists a Board to a single JSON file. Every report rewrites the file.
type Store struct {
	mu    sync.Mutex
	path  string
	board Board
}

// Open loads the leaderboard at path, creating an empty one if the file does not exist.
func Open(path string) (*Store, error) {
	s := &Store{path: path, board: Board{}}
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		if err := s.save(); err != nil {
			return nil, err
		}
		return s, nil
	case err != nil:
		return nil, fmt.Errorf("read leaderboard: %w", err)
	}
	if err := json.Unmarshal(data, &s.board); err != nil {
		return nil, fmt.Errorf("parse leaderboard %s: %w", path, err)
	}
	if s.board == nil {
		s.board = Board{}
	}
	return s, nil
}

// Report appends a result for game and saves the file.
func (s *Store) Report(game, result string, score int) error {
	if game == "" || result == "" {
		return fmt.Errorf("%w: game and result are required", ErrInvalidEntry)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.board[game] = append(s.board[game], Entry{Result: result, Score: score})
	if err := s.save(); err != nil {
		// Keep memory and disk in step.
		s.board[game] = s.board[game][:len(s.board[game])-1]
		if len(s.board[game]) == 0 {
			delete(s.board, game)
		}
		return err
	}
	return nil
}

// All returns a copy of the whole board.
func (s *Store) All() Board {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(Board, len(s.board))
	for game, entries := range s.board {
		out[game] = append([]Entry(nil), entries...)
	}
	return out
}

// Top returns up to n entries of game with the highest scores. Equal scores keep
// their report order.
func (s *Store) Top(game string, n int) []Entry {
	s.mu.Lock()
	entries := append([]Entry(nil), s.board[game]...)
	s.mu.Unlock()

	sort.SliceStable(entries, func(i, j int) bool { return entries[i].Score > entries[j].Score })
	if n >= 0 && n < len(entries) {
		entries = entries[:n]
	}
	return entries
}

func (s *Store) save() error {
	data, err := json.MarshalIndent(s.board, "", "    ")
	if err != nil {
		return err
	}
	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".leaderboard-*.json")
	if err != nil {
		return fmt.Errorf("save leaderboard: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("save leaderboard: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("save leaderboard: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("save leaderboard: %w", err)
	}
	return nil
}
