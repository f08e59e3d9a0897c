package leaderboard

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenCreatesEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "leaderboard.json")
	s, err := Open(path)
	require.NoError(t, err)
	require.Empty(t, s.All())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.JSONEq(t, `{}`, string(data))
}

func TestReportPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "leaderboard.json")
	s, err := Open(path)
	require.NoError(t, err)

	require.NoError(t, s.Report("chess", "win", 0))
	require.NoError(t, s.Report("snake", "score", 42))
	require.NoError(t, s.Report("chess", "loss", 3))

	reopened, err := Open(path)
	require.NoError(t, err)
	require.Equal(t, Board{
		"chess": {{Result: "win", Score: 0}, {Result: "loss", Score: 3}},
		"snake": {{Result: "score", Score: 42}},
	}, reopened.All())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var raw map[string][]map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	require.Equal(t, "loss", raw["chess"][1]["result"])
}

func TestReportRejectsEmptyFields(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "leaderboard.json"))
	require.NoError(t, err)
	require.ErrorIs(t, s.Report("", "win", 1), ErrInvalidEntry)
	require.ErrorIs(t, s.Report("chess", "", 1), ErrInvalidEntry)
	require.Empty(t, s.All())
}

func TestReportRollsBackOnWriteFailure(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(filepath.Join(dir, "leaderboard.json"))
	require.NoError(t, err)
	// Point the store at a directory that does not exist so saving fails.
	s.path = filepath.Join(dir, "missing", "leaderboard.json")

	require.Error(t, s.Report("chess", "win", 1))
	require.Empty(t, s.All())
}

func TestTop(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "leaderboard.json"))
	require.NoError(t, err)
	for _, e := range []Entry{{"a", 10}, {"b", 30}, {"c", 20}, {"d", 30}} {
		require.NoError(t, s.Report("flappy", e.Result, e.Score))
	}

	require.Equal(t, []Entry{{"b", 30}, {"d", 30}}, s.Top("flappy", 2))
	require.Len(t, s.Top("flappy", -1), 4)
	require.Empty(t, s.Top("memory", 3))
}

func TestAllReturnsCopy(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "leaderboard.json"))
	require.NoError(t, err)
	require.NoError(t, s.Report("rps", "win", 1))

	all := s.All()
	all["rps"][0].Score = 99
	all["other"] = nil
	require.Equal(t, 1, s.All()["rps"][0].Score)
	require.NotContains(t, s.All(), "other")
}

func TestOpenRejectsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "leaderboard.json")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0o644))
	_, err := Open(path)
	require.Error(t, err)
}

func TestConcurrentReports(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "leaderboard.json"))
	require.NoError(t, err)
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, s.Report("2048", "score", i))
		}(i)
	}
	wg.Wait()
	require.Len(t, s.All()["2048"], 16)
}
