package engine

// DefaultPawnTableBits gives the default pawn table of 1<<14 slots.
const DefaultPawnTableBits = 14

// PawnEntry caches the pawn-only evaluation terms of one pawn structure.
type PawnEntry struct {
	Key   uint64
	Score int32 // White's view
	used  bool
}

// PawnTable is an always-replace cache of pawn structure scores keyed by
// the pawn key. Pawn structures change rarely during a search, so most
// lookups hit.
type PawnTable struct {
	entries []PawnEntry
	mask    uint64

	hits   uint64
	probes uint64
}

// NewPawnTable creates a pawn table with 1<<bits slots.
func NewPawnTable(bits int) *PawnTable {
	if bits < 1 {
		bits = DefaultPawnTableBits
	}
	size := uint64(1) << uint(bits)
	return &PawnTable{
		entries: make([]PawnEntry, size),
		mask:    size - 1,
	}
}

// Probe returns the cached score for key.
func (pt *PawnTable) Probe(key uint64) (int, bool) {
	pt.probes++
	e := &pt.entries[key&pt.mask]
	if e.used && e.Key == key {
		pt.hits++
		return int(e.Score), true
	}
	return 0, false
}

// Store caches the score of the pawn structure with the given key.
func (pt *PawnTable) Store(key uint64, score int) {
	pt.entries[key&pt.mask] = PawnEntry{Key: key, Score: int32(score), used: true}
}

// Clear empties the table and its counters.
func (pt *PawnTable) Clear() {
	clear(pt.entries)
	pt.hits, pt.probes = 0, 0
}

// HitRate returns the share of probes that found an entry, as a percentage.
func (pt *PawnTable) HitRate() float64 {
	if pt.probes == 0 {
		return 0
	}
	return float64(pt.hits) / float64(pt.probes) * 100
}
