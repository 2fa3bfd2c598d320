package board

import "strings"

// Zobrist keys for the opening-table key.
// The generator's own hash is fine for the transposition table, but book files
// outlive the process, so their keys come from a fixed-seed PRNG.
var (
	zobristPiece      [2][PieceTypeCount][64]uint64
	zobristEnPassant  [8]uint64
	zobristCastling   [4]uint64 // K, Q, k, q
	zobristSideToMove uint64
)

func init() {
	rng := newPRNG(0x98F107A2BEEF1234)

	for c := White; c <= Black; c++ {
		for pt := Pawn; pt <= King; pt++ {
			for sq := Square(0); sq < NoSquare; sq++ {
				zobristPiece[c][pt][sq] = rng.next()
			}
		}
	}
	for file := range zobristEnPassant {
		zobristEnPassant[file] = rng.next()
	}
	for i := range zobristCastling {
		zobristCastling[i] = rng.next()
	}
	zobristSideToMove = rng.next()
}

// Simple PRNG for reproducible Zobrist keys
type prng struct {
	state uint64
}

func newPRNG(seed uint64) *prng {
	return &prng{state: seed}
}

// xorshift64* algorithm
func (p *prng) next() uint64 {
	p.state ^= p.state >> 12
	p.state ^= p.state << 25
	p.state ^= p.state >> 27
	return p.state * 0x2545F4914F6CDD1D
}

// BookKey returns the stable key used to index opening tables.
// It covers piece placement, castling rights, the en passant file and side to move.
func (p *Position) BookKey() uint64 {
	var key uint64
	for c := White; c <= Black; c++ {
		for pt := Pawn; pt <= King; pt++ {
			for bb := p.Pieces(c, pt); bb != 0; {
				key ^= zobristPiece[c][pt][bb.PopLSB()]
			}
		}
	}

	// Castling and en passant are not exported by the generator, so read them back from FEN.
	fields := strings.Fields(p.FEN())
	if len(fields) > 2 {
		for i, ch := range "KQkq" {
			if strings.ContainsRune(fields[2], ch) {
				key ^= zobristCastling[i]
			}
		}
	}
	if len(fields) > 3 && fields[3] != "-" {
		if sq, err := ParseSquare(fields[3]); err == nil {
			key ^= zobristEnPassant[sq.File()]
		}
	}

	if p.SideToMove() == Black {
		key ^= zobristSideToMove
	}
	return key
}

// PawnKey hashes the pawn placement of both colors with the book key's piece
// table. Positions sharing a pawn structure share this key.
func (p *Position) PawnKey() uint64 {
	var key uint64
	for c := White; c <= Black; c++ {
		for bb := p.Pieces(c, Pawn); bb != 0; {
			key ^= zobristPiece[c][Pawn][bb.PopLSB()]
		}
	}
	return key
}
