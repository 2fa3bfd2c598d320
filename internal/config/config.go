// Package config loads engine configuration from JSON files.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/hailam/chesscore/internal/engine"
)

// ErrInvalid is returned when a configuration value is out of range.
var ErrInvalid = errors.New("config: invalid value")

// Config holds the engine and front-end settings.
type Config struct {
	TTBits   int    `json:"tt_bits"`
	MaxDepth int    `json:"max_depth"`
	OwnBook  bool   `json:"own_book"`
	BookFile string `json:"book_file"`
	BookDB   string `json:"book_db"`
	LogLevel string `json:"log_level"`
	Fallback Budget `json:"fallback"`
}

// Budget is the search budget used when the opening book has no move.
type Budget struct {
	TimeLeftMs  int `json:"time_left_ms"`
	IncrementMs int `json:"increment_ms"`
	MovesToGo   int `json:"moves_to_go"`
	MaxDepth    int `json:"max_depth"`
}

func DefaultConfig() Config {
	return Config{
		TTBits:   engine.DefaultTTBits,
		MaxDepth: 64,
		OwnBook:  true,
		LogLevel: "info",
		Fallback: Budget{
			TimeLeftMs:  5000,
			IncrementMs: 200,
			MovesToGo:   40,
			MaxDepth:    4,
		},
	}
}

// Load reads a JSON configuration file over the defaults. Fields missing from
// the file keep their default values.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %q: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// LoadOptional loads path when it is set and returns the defaults otherwise.
func LoadOptional(path string) (Config, error) {
	if path == "" {
		return DefaultConfig(), nil
	}
	return Load(path)
}

// Validate checks every field is in range.
func (c Config) Validate() error {
	if c.TTBits < 1 || c.TTBits > 30 {
		return fmt.Errorf("%w: tt_bits %d not in [1, 30]", ErrInvalid, c.TTBits)
	}
	if c.MaxDepth < 1 || c.MaxDepth >= engine.MaxPly {
		return fmt.Errorf("%w: max_depth %d not in [1, %d)", ErrInvalid, c.MaxDepth, engine.MaxPly)
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: log_level %q", ErrInvalid, c.LogLevel)
	}
	f := c.Fallback
	if f.TimeLeftMs < 0 || f.IncrementMs < 0 || f.MovesToGo < 0 || f.MaxDepth < 0 {
		return fmt.Errorf("%w: negative fallback budget", ErrInvalid)
	}
	return nil
}

// Level returns the configured zerolog level.
func (c Config) Level() zerolog.Level {
	level, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil {
		return zerolog.InfoLevel
	}
	return level
}

// EngineOptions converts the configuration to engine options.
func (c Config) EngineOptions() engine.Options {
	return engine.Options{
		TTBits:   c.TTBits,
		MaxDepth: c.MaxDepth,
		Fallback: engine.SearchLimits{
			TimeLeft:  time.Duration(c.Fallback.TimeLeftMs) * time.Millisecond,
			Increment: time.Duration(c.Fallback.IncrementMs) * time.Millisecond,
			MovesToGo: c.Fallback.MovesToGo,
			MaxDepth:  c.Fallback.MaxDepth,
		},
	}
}
