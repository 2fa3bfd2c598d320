package engine

import (
	"github.com/hailam/chesscore/internal/board"
)

// TTFlag indicates the type of bound stored in the transposition table.
type TTFlag uint8

const (
	TTExact      TTFlag = iota // Exact score
	TTLowerBound               // Failed high (beta cutoff)
	TTUpperBound               // Failed low
)

// DefaultTTBits gives the default table of 1<<18 slots.
const DefaultTTBits = 18

// TTEntry represents an entry in the transposition table.
type TTEntry struct {
	Key      uint64     // Full position key, checked on probe
	BestMove board.Move // Best move found, NoMove after a fail-low
	Score    int32
	Depth    int16
	Flag     TTFlag
	used     bool
}

// TranspositionTable is a single-slot, always-replace hash table.
// Distinct positions that share a slot overwrite each other.
type TranspositionTable struct {
	entries []TTEntry
	mask    uint64

	hits   uint64
	probes uint64
}

// NewTranspositionTable creates a table with 1<<bits slots.
func NewTranspositionTable(bits int) *TranspositionTable {
	if bits < 1 {
		bits = DefaultTTBits
	}
	size := uint64(1) << uint(bits)
	return &TranspositionTable{
		entries: make([]TTEntry, size),
		mask:    size - 1,
	}
}

// Entry returns the raw entry stored for key, if its key matches.
func (tt *TranspositionTable) Entry(key uint64) (TTEntry, bool) {
	e := tt.entries[key&tt.mask]
	if e.used && e.Key == key {
		return e, true
	}
	return TTEntry{}, false
}

// Probe returns a stored score usable for a search of the given depth and window:
// the entry must match the key and be at least as deep, and its bound must be
// consistent with the window.
func (tt *TranspositionTable) Probe(key uint64, depth, alpha, beta int) (int, bool) {
	tt.probes++

	e, ok := tt.Entry(key)
	if !ok || int(e.Depth) < depth {
		return 0, false
	}

	score := int(e.Score)
	switch e.Flag {
	case TTExact:
	case TTLowerBound:
		if score < beta {
			return 0, false
		}
	case TTUpperBound:
		if score > alpha {
			return 0, false
		}
	}

	tt.hits++
	return score, true
}

// Store unconditionally overwrites the slot for key.
func (tt *TranspositionTable) Store(key uint64, depth, score int, flag TTFlag, bestMove board.Move) {
	tt.entries[key&tt.mask] = TTEntry{
		Key:      key,
		BestMove: bestMove,
		Score:    int32(score),
		Depth:    int16(depth),
		Flag:     flag,
		used:     true,
	}
}

// Clear empties the table.
func (tt *TranspositionTable) Clear() {
	clear(tt.entries)
	tt.hits = 0
	tt.probes = 0
}

// HashFull returns the permille (parts per thousand) of the table that is used.
func (tt *TranspositionTable) HashFull() int {
	// Sample first 1000 entries
	sampleSize := min(1000, len(tt.entries))
	used := 0
	for i := 0; i < sampleSize; i++ {
		if tt.entries[i].used {
			used++
		}
	}
	return used * 1000 / sampleSize
}

// HitRate returns the share of probes that returned a usable score, as a percentage.
func (tt *TranspositionTable) HitRate() float64 {
	if tt.probes == 0 {
		return 0
	}
	return float64(tt.hits) / float64(tt.probes) * 100
}

// Size returns the number of slots in the table.
func (tt *TranspositionTable) Size() int {
	return len(tt.entries)
}
