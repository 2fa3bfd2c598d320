package board

import "github.com/dylhunn/dragontoothmg"

// Pre-computed attack tables for non-sliding pieces
var (
	knightAttacks [64]Bitboard
	kingAttacks   [64]Bitboard
	pawnAttacks   [2][64]Bitboard // [Color][Square]
)

func init() {
	for sq := Square(0); sq < NoSquare; sq++ {
		f, r := sq.File(), sq.Rank()
		knightAttacks[sq] = stepAttacks(f, r, [][2]int{{1, 2}, {2, 1}, {2, -1}, {1, -2}, {-1, -2}, {-2, -1}, {-2, 1}, {-1, 2}})
		kingAttacks[sq] = stepAttacks(f, r, [][2]int{{1, 0}, {1, 1}, {0, 1}, {-1, 1}, {-1, 0}, {-1, -1}, {0, -1}, {1, -1}})
		pawnAttacks[White][sq] = stepAttacks(f, r, [][2]int{{-1, 1}, {1, 1}})
		pawnAttacks[Black][sq] = stepAttacks(f, r, [][2]int{{-1, -1}, {1, -1}})
	}
}

func stepAttacks(file, rank int, deltas [][2]int) Bitboard {
	var bb Bitboard
	for _, d := range deltas {
		f, r := file+d[0], rank+d[1]
		if f >= 0 && f < 8 && r >= 0 && r < 8 {
			bb |= SquareBB(NewSquare(f, r))
		}
	}
	return bb
}

// KnightAttacks returns the squares a knight on sq attacks.
func KnightAttacks(sq Square) Bitboard {
	return knightAttacks[sq]
}

// KingAttacks returns the squares a king on sq attacks.
func KingAttacks(sq Square) Bitboard {
	return kingAttacks[sq]
}

// PawnAttacks returns the squares a pawn of color c on sq attacks.
func PawnAttacks(c Color, sq Square) Bitboard {
	return pawnAttacks[c][sq]
}

// BishopAttacks returns diagonal attacks from sq given the occupancy.
func BishopAttacks(sq Square, occupied Bitboard) Bitboard {
	return Bitboard(dragontoothmg.CalculateBishopMoveBitboard(uint8(sq), uint64(occupied&^SquareBB(sq))))
}

// RookAttacks returns orthogonal attacks from sq given the occupancy.
func RookAttacks(sq Square, occupied Bitboard) Bitboard {
	return Bitboard(dragontoothmg.CalculateRookMoveBitboard(uint8(sq), uint64(occupied&^SquareBB(sq))))
}

// QueenAttacks returns the union of bishop and rook attacks.
func QueenAttacks(sq Square, occupied Bitboard) Bitboard {
	return BishopAttacks(sq, occupied) | RookAttacks(sq, occupied)
}

// Attacks returns the attack set of a piece of type pt and color c on sq.
func Attacks(c Color, pt PieceType, sq Square, occupied Bitboard) Bitboard {
	switch pt {
	case Pawn:
		return pawnAttacks[c][sq]
	case Knight:
		return knightAttacks[sq]
	case Bishop:
		return BishopAttacks(sq, occupied)
	case Rook:
		return RookAttacks(sq, occupied)
	case Queen:
		return QueenAttacks(sq, occupied)
	case King:
		return kingAttacks[sq]
	}
	return 0
}

// AttackersTo returns pieces of both colors attacking sq under the given occupancy.
// Pieces outside occupied are ignored, which lets exchange evaluation reveal x-rays.
func (p *Position) AttackersTo(sq Square, occupied Bitboard) Bitboard {
	var attackers Bitboard
	for _, c := range [2]Color{White, Black} {
		attackers |= pawnAttacks[c.Other()][sq] & p.Pieces(c, Pawn)
		attackers |= knightAttacks[sq] & p.Pieces(c, Knight)
		attackers |= kingAttacks[sq] & p.Pieces(c, King)
		diag := p.Pieces(c, Bishop) | p.Pieces(c, Queen)
		attackers |= BishopAttacks(sq, occupied) & diag
		orth := p.Pieces(c, Rook) | p.Pieces(c, Queen)
		attackers |= RookAttacks(sq, occupied) & orth
	}
	return attackers & occupied
}

// IsAttacked reports whether any piece of color by attacks sq.
func (p *Position) IsAttacked(sq Square, by Color) bool {
	return p.AttackersTo(sq, p.Occupied())&p.ByColor(by) != 0
}

// AttackedBy returns every square attacked by pieces of color c.
func (p *Position) AttackedBy(c Color) Bitboard {
	occ := p.Occupied()
	var att Bitboard
	for pt := Pawn; pt <= King; pt++ {
		for bb := p.Pieces(c, pt); bb != 0; {
			att |= Attacks(c, pt, bb.PopLSB(), occ)
		}
	}
	return att
}
