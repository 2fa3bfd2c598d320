// Package book reads opening books and picks weighted book moves.
package book

import (
	"cmp"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/samber/lo"
	"lukechampine.com/frand"

	"github.com/hailam/chesscore/internal/board"
	"github.com/hailam/chesscore/internal/storage"
)

// ErrNotFound is returned when the book has no playable move for a position.
var ErrNotFound = errors.New("book: position not found")

// Entry is a single book continuation in the book's own move form, where
// castling is written as the king capturing its rook (e1h1 for e1g1).
type Entry struct {
	From      board.Square
	To        board.Square
	Promotion board.PieceType
	Weight    uint16
}

// String returns the move in UCI notation.
func (e Entry) String() string {
	s := e.From.String() + e.To.String()
	if e.Promotion != board.NoPieceType {
		s += string(e.Promotion.Char())
	}
	return s
}

// Book represents an opening book.
type Book struct {
	entries map[uint64][]Entry
}

// New creates an empty book.
func New() *Book {
	return &Book{
		entries: make(map[uint64][]Entry),
	}
}

// Add appends a continuation for a position key.
func (b *Book) Add(key uint64, e Entry) {
	b.entries[key] = append(b.entries[key], e)
}

// LoadFile loads a book in the 16-byte record format from a file.
func LoadFile(filename string) (*Book, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("open book: %w", err)
	}
	defer file.Close()

	b, err := LoadReader(file)
	if err != nil {
		return nil, fmt.Errorf("read book %q: %w", filename, err)
	}
	return b, nil
}

// LoadReader loads a book from a reader.
func LoadReader(r io.Reader) (*Book, error) {
	book := New()

	// Entry format:
	// 8 bytes: position key (big-endian)
	// 2 bytes: move (big-endian)
	// 2 bytes: weight (big-endian)
	// 4 bytes: learn data (ignored)
	var record [16]byte

	for {
		_, err := io.ReadFull(r, record[:])
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		key := binary.BigEndian.Uint64(record[0:8])
		e, ok := decodeMove(binary.BigEndian.Uint16(record[8:10]))
		if !ok {
			continue
		}
		e.Weight = binary.BigEndian.Uint16(record[10:12])
		book.Add(key, e)
	}

	return book, nil
}

// WriteTo writes the book in the 16-byte record format, keys ascending.
func (b *Book) WriteTo(w io.Writer) (int64, error) {
	keys := lo.Keys(b.entries)
	slices.Sort(keys)

	var n int64
	var record [16]byte
	for _, key := range keys {
		for _, e := range b.entries[key] {
			binary.BigEndian.PutUint64(record[0:8], key)
			binary.BigEndian.PutUint16(record[8:10], encodeMove(e))
			binary.BigEndian.PutUint16(record[10:12], e.Weight)
			binary.BigEndian.PutUint32(record[12:16], 0)
			written, err := w.Write(record[:])
			n += int64(written)
			if err != nil {
				return n, err
			}
		}
	}
	return n, nil
}

var promoCodes = []board.PieceType{board.NoPieceType, board.Knight, board.Bishop, board.Rook, board.Queen}

// Castling is stored as the king capturing its own rook.
var castles = []struct {
	king, rook, target board.Square
}{
	{board.E1, board.H1, board.G1},
	{board.E1, board.A1, board.C1},
	{board.E8, board.H8, board.G8},
	{board.E8, board.A8, board.C8},
}

// NewEntry converts a legal move of pos to its book form. Only a castling
// king is rewritten; a rook travelling between the same squares is kept as is.
func NewEntry(pos *board.Position, m board.Move, weight uint16) Entry {
	e := Entry{From: m.From(), To: m.To(), Promotion: m.Promotion(), Weight: weight}
	if pos.MovedPiece(m) != board.King {
		return e
	}
	for _, c := range castles {
		if e.From == c.king && e.To == c.target {
			e.To = c.rook
		}
	}
	return e
}

// Move resolves the entry against the legal moves of pos. The
// king-captures-rook form only reads as castling when a king stands on the
// origin square.
func (e Entry) Move(pos *board.Position) (board.Move, bool) {
	if m, ok := pos.FindMove(e.From, e.To, e.Promotion); ok {
		return m, true
	}
	if _, pt := pos.PieceAt(e.From); pt != board.King {
		return board.NoMove, false
	}
	for _, c := range castles {
		if e.From == c.king && e.To == c.rook {
			return pos.FindMove(c.king, c.target, board.NoPieceType)
		}
	}
	return board.NoMove, false
}

// decodeMove converts the packed move encoding to an entry.
// Move format (bits):
// 0-5: to square
// 6-11: from square
// 12-14: promotion piece (0=none, 1=knight, 2=bishop, 3=rook, 4=queen)
func decodeMove(data uint16) (Entry, bool) {
	toFile := data & 7
	toRank := (data >> 3) & 7
	fromFile := (data >> 6) & 7
	fromRank := (data >> 9) & 7
	promo := (data >> 12) & 7

	if promo >= uint16(len(promoCodes)) {
		return Entry{}, false
	}
	from := board.NewSquare(int(fromFile), int(fromRank))
	to := board.NewSquare(int(toFile), int(toRank))
	if from == to {
		return Entry{}, false
	}
	return Entry{From: from, To: to, Promotion: promoCodes[promo]}, true
}

// encodeMove is the inverse of decodeMove.
func encodeMove(e Entry) uint16 {
	data := uint16(e.To.File()) | uint16(e.To.Rank())<<3 |
		uint16(e.From.File())<<6 | uint16(e.From.Rank())<<9
	if i := slices.Index(promoCodes, e.Promotion); i > 0 {
		data |= uint16(i) << 12
	}
	return data
}

type candidate struct {
	move   board.Move
	weight uint16
}

// Probe looks up a position in the book and returns a move using weighted
// random selection among the entries that are legal in pos.
func (b *Book) Probe(pos *board.Position) (board.Move, error) {
	candidates := b.candidates(pos)
	if len(candidates) == 0 {
		return board.NoMove, ErrNotFound
	}

	total := lo.SumBy(candidates, func(c candidate) int { return int(c.weight) })
	if total == 0 {
		// All weights are 0, just pick the first
		return candidates[0].move, nil
	}

	r := frand.Intn(total)
	for _, c := range candidates {
		r -= int(c.weight)
		if r < 0 {
			return c.move, nil
		}
	}
	return candidates[0].move, nil
}

// ProbeAll returns all legal book moves for the position, highest weight first.
func (b *Book) ProbeAll(pos *board.Position) []board.Move {
	return lo.Map(b.candidates(pos), func(c candidate, _ int) board.Move { return c.move })
}

func (b *Book) candidates(pos *board.Position) []candidate {
	if b == nil {
		return nil
	}
	candidates := lo.FilterMap(b.entries[pos.BookKey()], func(e Entry, _ int) (candidate, bool) {
		m, ok := e.Move(pos)
		return candidate{move: m, weight: e.Weight}, ok
	})
	slices.SortStableFunc(candidates, func(a, b candidate) int {
		return cmp.Compare(b.weight, a.weight)
	})
	return candidates
}

// Size returns the number of unique positions in the book.
func (b *Book) Size() int {
	if b == nil {
		return 0
	}
	return len(b.entries)
}

// Save writes every position of the book into the storage book table.
func (b *Book) Save(st *storage.Storage) error {
	batch := lo.MapValues(b.entries, func(entries []Entry, _ uint64) []storage.BookMove {
		return lo.Map(entries, func(e Entry, _ int) storage.BookMove {
			return storage.BookMove{Move: e.String(), Weight: e.Weight}
		})
	})
	if err := st.PutBookBatch(batch); err != nil {
		return fmt.Errorf("save book: %w", err)
	}
	return nil
}

// LoadStorage reads the whole storage book table into a book.
func LoadStorage(st *storage.Storage) (*Book, error) {
	book := New()
	err := st.ForEachBookPosition(func(key uint64, moves []storage.BookMove) error {
		for _, m := range moves {
			e, err := parseEntry(m.Move)
			if err != nil {
				return fmt.Errorf("book key %016x: %w", key, err)
			}
			e.Weight = m.Weight
			book.Add(key, e)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("load book: %w", err)
	}
	return book, nil
}

func parseEntry(s string) (Entry, error) {
	if len(s) != 4 && len(s) != 5 {
		return Entry{}, fmt.Errorf("bad move %q", s)
	}
	from, err := board.ParseSquare(s[0:2])
	if err != nil {
		return Entry{}, err
	}
	to, err := board.ParseSquare(s[2:4])
	if err != nil {
		return Entry{}, err
	}
	e := Entry{From: from, To: to}
	if len(s) == 5 {
		i := slices.IndexFunc(promoCodes, func(pt board.PieceType) bool {
			return pt != board.NoPieceType && pt.Char() == s[4]
		})
		if i < 0 {
			return Entry{}, fmt.Errorf("bad promotion in %q", s)
		}
		e.Promotion = promoCodes[i]
	}
	return e, nil
}

// Stored serves book moves straight from the storage book table without
// loading it into memory.
type Stored struct {
	st *storage.Storage
}

// NewStored creates a book backed by st.
func NewStored(st *storage.Storage) *Stored {
	return &Stored{st: st}
}

// Probe picks a weighted legal move stored for pos.
func (s *Stored) Probe(pos *board.Position) (board.Move, error) {
	key := pos.BookKey()
	moves, err := s.st.BookMoves(key)
	if errors.Is(err, storage.ErrNotFound) {
		return board.NoMove, ErrNotFound
	}
	if err != nil {
		return board.NoMove, err
	}

	b := New()
	for _, m := range moves {
		e, err := parseEntry(m.Move)
		if err != nil {
			return board.NoMove, fmt.Errorf("book key %016x: %w", key, err)
		}
		e.Weight = m.Weight
		b.Add(key, e)
	}
	return b.Probe(pos)
}

// Prober is anything that can pick a book move for a position.
type Prober interface {
	Probe(pos *board.Position) (board.Move, error)
}

// Open returns the configured book: the storage table in dbDir when set,
// otherwise the record file. The returned close function releases the
// database. With neither configured it returns a nil Prober.
func Open(file, dbDir string) (Prober, func() error, error) {
	noop := func() error { return nil }
	switch {
	case dbDir != "":
		st, err := storage.Open(dbDir)
		if err != nil {
			return nil, noop, err
		}
		return NewStored(st), st.Close, nil
	case file != "":
		b, err := LoadFile(file)
		if err != nil {
			return nil, noop, err
		}
		return b, noop, nil
	}
	return nil, noop, nil
}
