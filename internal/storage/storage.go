package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/rs/zerolog/log"
)

// Storage keys
const (
	keySettings   = "settings"
	keyStats      = "stats"
	bookKeyPrefix = "book/"
)

// ErrNotFound is returned when a book position is not stored.
var ErrNotFound = errors.New("storage: not found")

// Settings stores engine preferences between sessions.
type Settings struct {
	OwnBook    bool      `json:"own_book"`
	BookFile   string    `json:"book_file"`
	MaxDepth   int       `json:"max_depth"`
	TTBits     int       `json:"tt_bits"`
	LastPlayed time.Time `json:"last_played"`
}

// DefaultSettings returns default engine settings
func DefaultSettings() *Settings {
	return &Settings{
		OwnBook:  true,
		MaxDepth: 64,
		TTBits:   18,
	}
}

// GameStats stores results of games played against the engine
type GameStats struct {
	GamesPlayed    int            `json:"games_played"`
	Wins           int            `json:"wins"`
	Losses         int            `json:"losses"`
	Draws          int            `json:"draws"`
	WinsByColor    map[string]int `json:"wins_by_color"`
	TotalPlayTime  time.Duration  `json:"total_play_time"`
	LongestWinStrk int            `json:"longest_win_streak"`
	CurrentStreak  int            `json:"current_streak"`
}

// NewGameStats returns empty game statistics
func NewGameStats() *GameStats {
	return &GameStats{
		WinsByColor: make(map[string]int),
	}
}

// GameResult is the outcome of a completed game from the human's side.
type GameResult struct {
	Won      bool
	Draw     bool
	Color    string // "white" or "black"
	Duration time.Duration
}

// BookMove is one stored book continuation.
type BookMove struct {
	Move   string `json:"move"`
	Weight uint16 `json:"weight"`
}

// Storage wraps BadgerDB for persistent storage
type Storage struct {
	db *badger.DB
}

// Open opens the database in dir. An empty dir opens an in-memory database.
func Open(dir string) (*Storage, error) {
	opts := badger.DefaultOptions(dir)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	opts.Logger = nil // Disable logging

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open database %q: %w", dir, err)
	}
	log.Debug().Str("dir", dir).Msg("storage-opened")
	return &Storage{db: db}, nil
}

// OpenDefault opens the database in the platform data directory.
func OpenDefault() (*Storage, error) {
	dbDir, err := GetDatabaseDir()
	if err != nil {
		return nil, err
	}
	return Open(dbDir)
}

// Close closes the database
func (s *Storage) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *Storage) putJSON(key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), data)
	})
}

// getJSON decodes the value at key into v. A missing key reports false.
func (s *Storage) getJSON(key string, v any) (bool, error) {
	found := false
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, v)
		})
	})
	return found, err
}

// SaveSettings saves engine settings
func (s *Storage) SaveSettings(settings *Settings) error {
	settings.LastPlayed = time.Now()
	return s.putJSON(keySettings, settings)
}

// LoadSettings loads engine settings, returns defaults if not found
func (s *Storage) LoadSettings() (*Settings, error) {
	settings := DefaultSettings()
	_, err := s.getJSON(keySettings, settings)
	return settings, err
}

// SaveStats saves game statistics
func (s *Storage) SaveStats(stats *GameStats) error {
	return s.putJSON(keyStats, stats)
}

// LoadStats loads game statistics, returns empty stats if not found
func (s *Storage) LoadStats() (*GameStats, error) {
	stats := NewGameStats()
	_, err := s.getJSON(keyStats, stats)
	return stats, err
}

// RecordGame records a completed game and updates statistics
func (s *Storage) RecordGame(result GameResult) error {
	stats, err := s.LoadStats()
	if err != nil {
		return err
	}

	stats.GamesPlayed++
	stats.TotalPlayTime += result.Duration

	switch {
	case result.Draw:
		stats.Draws++
		stats.CurrentStreak = 0
	case result.Won:
		stats.Wins++
		stats.CurrentStreak++
		stats.LongestWinStrk = max(stats.LongestWinStrk, stats.CurrentStreak)
		stats.WinsByColor[result.Color]++
	default:
		stats.Losses++
		stats.CurrentStreak = 0
	}

	return s.SaveStats(stats)
}

// GetWinRate returns the win rate as a percentage (0-100)
func (s *GameStats) GetWinRate() float64 {
	if s.GamesPlayed == 0 {
		return 0
	}
	return float64(s.Wins) / float64(s.GamesPlayed) * 100
}

func bookKey(key uint64) []byte {
	return []byte(fmt.Sprintf("%s%016x", bookKeyPrefix, key))
}

// PutBookMoves stores the book moves for a position key, replacing any
// earlier entry.
func (s *Storage) PutBookMoves(key uint64, moves []BookMove) error {
	data, err := json.Marshal(moves)
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(bookKey(key), data)
	})
}

// PutBookBatch stores many positions in one write batch.
func (s *Storage) PutBookBatch(entries map[uint64][]BookMove) error {
	wb := s.db.NewWriteBatch()
	defer wb.Cancel()

	for key, moves := range entries {
		data, err := json.Marshal(moves)
		if err != nil {
			return err
		}
		if err := wb.Set(bookKey(key), data); err != nil {
			return fmt.Errorf("book batch: %w", err)
		}
	}
	return wb.Flush()
}

// BookMoves returns the book moves stored for a position key.
func (s *Storage) BookMoves(key uint64) ([]BookMove, error) {
	var moves []BookMove
	found, err := s.getJSON(string(bookKey(key)), &moves)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrNotFound
	}
	return moves, nil
}

// ForEachBookPosition calls fn for every stored book position in key order.
func (s *Storage) ForEachBookPosition(fn func(key uint64, moves []BookMove) error) error {
	return s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(bookKeyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			hexKey := strings.TrimPrefix(string(item.Key()), bookKeyPrefix)
			key, err := strconv.ParseUint(hexKey, 16, 64)
			if err != nil {
				return fmt.Errorf("bad book key %q: %w", item.Key(), err)
			}

			var moves []BookMove
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &moves)
			}); err != nil {
				return err
			}
			if err := fn(key, moves); err != nil {
				return err
			}
		}
		return nil
	})
}
