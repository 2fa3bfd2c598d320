package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestMain(m *testing.M) {
	zerolog.SetGlobalLevel(zerolog.WarnLevel)
	os.Exit(m.Run())
}

func openTest(t *testing.T) *Storage {
	t.Helper()
	s, err := Open("")
	if err != nil {
		t.Fatalf("Failed to open in-memory storage: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSettings(t *testing.T) {
	s := openTest(t)

	settings, err := s.LoadSettings()
	if err != nil {
		t.Fatalf("LoadSettings: %v", err)
	}
	if !settings.OwnBook || settings.MaxDepth != 64 {
		t.Errorf("Expected defaults, got %+v", settings)
	}

	settings.OwnBook = false
	settings.BookFile = "book.bin"
	settings.MaxDepth = 8
	if err := s.SaveSettings(settings); err != nil {
		t.Fatalf("SaveSettings: %v", err)
	}

	loaded, err := s.LoadSettings()
	if err != nil {
		t.Fatalf("LoadSettings: %v", err)
	}
	if loaded.OwnBook || loaded.BookFile != "book.bin" || loaded.MaxDepth != 8 {
		t.Errorf("Settings not persisted: %+v", loaded)
	}
	if loaded.LastPlayed.IsZero() {
		t.Error("Expected LastPlayed to be set")
	}
}

func TestRecordGame(t *testing.T) {
	s := openTest(t)

	results := []GameResult{
		{Won: true, Color: "white", Duration: time.Minute},
		{Won: true, Color: "black", Duration: time.Minute},
		{Draw: true, Duration: time.Minute},
		{Won: true, Color: "white", Duration: time.Minute},
		{Duration: time.Minute},
	}
	for _, r := range results {
		if err := s.RecordGame(r); err != nil {
			t.Fatalf("RecordGame: %v", err)
		}
	}

	stats, err := s.LoadStats()
	if err != nil {
		t.Fatalf("LoadStats: %v", err)
	}
	if stats.GamesPlayed != 5 || stats.Wins != 3 || stats.Draws != 1 || stats.Losses != 1 {
		t.Errorf("Unexpected stats %+v", stats)
	}
	if stats.LongestWinStrk != 2 || stats.CurrentStreak != 0 {
		t.Errorf("Unexpected streaks: longest %d, current %d", stats.LongestWinStrk, stats.CurrentStreak)
	}
	if stats.WinsByColor["white"] != 2 || stats.WinsByColor["black"] != 1 {
		t.Errorf("Unexpected wins by color %v", stats.WinsByColor)
	}
	if stats.TotalPlayTime != 5*time.Minute {
		t.Errorf("Expected 5m play time, got %v", stats.TotalPlayTime)
	}
	if rate := stats.GetWinRate(); rate != 60 {
		t.Errorf("Expected 60%% win rate, got %.2f%%", rate)
	}
}

func TestBookMoves(t *testing.T) {
	s := openTest(t)

	if _, err := s.BookMoves(42); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}

	moves := []BookMove{{Move: "e2e4", Weight: 10}, {Move: "d2d4", Weight: 5}}
	if err := s.PutBookMoves(42, moves); err != nil {
		t.Fatalf("PutBookMoves: %v", err)
	}
	got, err := s.BookMoves(42)
	if err != nil {
		t.Fatalf("BookMoves: %v", err)
	}
	if len(got) != 2 || got[0] != moves[0] || got[1] != moves[1] {
		t.Errorf("BookMoves = %v, want %v", got, moves)
	}
}

func TestBookBatchAndIterate(t *testing.T) {
	s := openTest(t)

	batch := map[uint64][]BookMove{
		1:          {{Move: "e2e4", Weight: 1}},
		0xdeadbeef: {{Move: "g1f3", Weight: 2}},
		1 << 63:    {{Move: "c2c4", Weight: 3}},
	}
	if err := s.PutBookBatch(batch); err != nil {
		t.Fatalf("PutBookBatch: %v", err)
	}
	// Settings must not show up as book positions.
	if err := s.SaveSettings(DefaultSettings()); err != nil {
		t.Fatalf("SaveSettings: %v", err)
	}

	var keys []uint64
	err := s.ForEachBookPosition(func(key uint64, moves []BookMove) error {
		keys = append(keys, key)
		if want := batch[key]; len(moves) != 1 || moves[0] != want[0] {
			t.Errorf("Key %x: got %v, want %v", key, moves, want)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("ForEachBookPosition: %v", err)
	}

	want := []uint64{1, 0xdeadbeef, 1 << 63}
	if len(keys) != len(want) {
		t.Fatalf("Got keys %v, want %v", keys, want)
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Errorf("Key %d = %x, want %x", i, keys[i], want[i])
		}
	}
}

func TestForEachStopsOnError(t *testing.T) {
	s := openTest(t)
	s.PutBookMoves(1, []BookMove{{Move: "e2e4"}})
	s.PutBookMoves(2, []BookMove{{Move: "d2d4"}})

	stop := errors.New("stop")
	calls := 0
	err := s.ForEachBookPosition(func(uint64, []BookMove) error {
		calls++
		return stop
	})
	if !errors.Is(err, stop) || calls != 1 {
		t.Errorf("Expected one call and the callback error, got %d calls, %v", calls, err)
	}
}

func TestDataDirOverride(t *testing.T) {
	home := t.TempDir()
	t.Setenv(HomeEnv, home)

	dbDir, err := GetDatabaseDir()
	if err != nil {
		t.Fatalf("GetDatabaseDir: %v", err)
	}
	if want := filepath.Join(home, "db"); dbDir != want {
		t.Errorf("Expected %s, got %s", want, dbDir)
	}
	if info, err := os.Stat(dbDir); err != nil || !info.IsDir() {
		t.Fatalf("Database directory not created: %v", err)
	}

	s, err := OpenDefault()
	if err != nil {
		t.Fatalf("OpenDefault: %v", err)
	}
	if err := s.RecordGame(GameResult{Won: true, Color: "white", Duration: time.Minute}); err != nil {
		t.Fatalf("RecordGame: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	// Results survive reopening.
	s, err = OpenDefault()
	if err != nil {
		t.Fatalf("OpenDefault: %v", err)
	}
	defer s.Close()
	stats, err := s.LoadStats()
	if err != nil {
		t.Fatalf("LoadStats: %v", err)
	}
	if stats.GamesPlayed != 1 || stats.Wins != 1 {
		t.Errorf("Expected one recorded win, got %+v", stats)
	}
}
