package engine

import (
	"testing"

	"github.com/hailam/chesscore/internal/board"
)

func TestTTRoundTrip(t *testing.T) {
	tt := NewTranspositionTable(10)
	pos := board.NewPosition()
	key := pos.Key()
	m, _ := pos.ParseMove("e2e4")

	tt.Store(key, 5, 42, TTExact, m)

	for _, depth := range []int{0, 3, 5} {
		score, ok := tt.Probe(key, depth, -100, 100)
		if !ok || score != 42 {
			t.Errorf("Probe at depth %d = (%d, %v), want (42, true)", depth, score, ok)
		}
	}
	if _, ok := tt.Probe(key, 6, -100, 100); ok {
		t.Error("Probe must miss when the entry is shallower than requested")
	}

	e, ok := tt.Entry(key)
	if !ok || e.BestMove != m || e.Flag != TTExact {
		t.Errorf("Entry = %+v, %v", e, ok)
	}
}

func TestTTBounds(t *testing.T) {
	tt := NewTranspositionTable(10)
	const lower, upper = uint64(0x1234), uint64(0x5678)

	tt.Store(lower, 4, 150, TTLowerBound, board.NoMove)
	if _, ok := tt.Probe(lower, 4, -100, 100); !ok {
		t.Error("LowerBound at or above beta should be usable")
	}
	if _, ok := tt.Probe(lower, 4, -100, 200); ok {
		t.Error("LowerBound below beta must not be usable")
	}

	tt.Store(upper, 4, -150, TTUpperBound, board.NoMove)
	if _, ok := tt.Probe(upper, 4, -100, 100); !ok {
		t.Error("UpperBound at or below alpha should be usable")
	}
	if _, ok := tt.Probe(upper, 4, -200, 100); ok {
		t.Error("UpperBound above alpha must not be usable")
	}
}

func TestTTCollisionOverwrites(t *testing.T) {
	tt := NewTranspositionTable(4)
	a := uint64(3)
	b := a + uint64(tt.Size()) // same slot, different key

	tt.Store(a, 8, 10, TTExact, board.NoMove)
	tt.Store(b, 1, 20, TTExact, board.NoMove)

	if _, ok := tt.Probe(a, 0, -100, 100); ok {
		t.Error("Overwritten entry should not be found")
	}
	if score, ok := tt.Probe(b, 0, -100, 100); !ok || score != 20 {
		t.Errorf("Probe(b) = (%d, %v), want (20, true)", score, ok)
	}
}

func TestTTClear(t *testing.T) {
	tt := NewTranspositionTable(10)
	tt.Store(99, 3, 7, TTExact, board.NoMove)
	tt.Probe(99, 3, -10, 10)
	if tt.HitRate() == 0 {
		t.Error("Expected a hit to be counted")
	}

	tt.Clear()
	if _, ok := tt.Entry(99); ok {
		t.Error("Entry survived Clear")
	}
	if tt.HashFull() != 0 || tt.HitRate() != 0 {
		t.Errorf("Stats not reset: hashfull %d, hit rate %.1f", tt.HashFull(), tt.HitRate())
	}
}

func TestTTDefaultSize(t *testing.T) {
	if got := NewTranspositionTable(0).Size(); got != 1<<DefaultTTBits {
		t.Errorf("Size = %d, want %d", got, 1<<DefaultTTBits)
	}
}
