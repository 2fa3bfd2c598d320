package engine

import (
	"github.com/hailam/chesscore/internal/board"
)

// SEE returns the static exchange evaluation of a move in centipawns: the
// material balance of the capture sequence on the destination square when both
// sides keep recapturing with their least valuable attacker and may stop at
// any point. Non-captures start from zero material.
func SEE(pos *board.Position, m board.Move) int {
	to := m.To()
	from := m.From()
	us := pos.SideToMove()

	var gain [32]int
	gain[0] = pieceValues[pos.CapturedPiece(m)]
	attackerValue := pieceValues[pos.MovedPiece(m)]
	if promo := m.Promotion(); promo != board.NoPieceType {
		gain[0] += pieceValues[promo] - PawnValue
		attackerValue = pieceValues[promo]
	}

	occupied := pos.Occupied() &^ board.SquareBB(from)
	if pos.CapturedPiece(m) == board.Pawn && !pos.Occupied().IsSet(to) {
		// En passant: the captured pawn sits behind the destination square.
		occupied &^= board.SquareBB(board.NewSquare(to.File(), from.Rank()))
	}

	side := us.Other()
	n := 1
	for n < len(gain) {
		sq, pt := leastValuableAttacker(pos, to, side, occupied)
		if pt == board.NoPieceType {
			break
		}
		// Speculative: the side to move captures whatever stands on the square.
		gain[n] = attackerValue - gain[n-1]
		occupied &^= board.SquareBB(sq)
		attackerValue = pieceValues[pt]
		side = side.Other()
		n++
		// Neither side can improve by continuing.
		if max(-gain[n-2], gain[n-1]) < 0 {
			break
		}
	}

	for n--; n > 0; n-- {
		gain[n-1] = -max(-gain[n-1], gain[n])
	}
	return gain[0]
}

// leastValuableAttacker returns the cheapest piece of color c attacking sq
// under the given occupancy.
func leastValuableAttacker(pos *board.Position, sq board.Square, c board.Color, occupied board.Bitboard) (board.Square, board.PieceType) {
	attackers := pos.AttackersTo(sq, occupied) & pos.ByColor(c)
	if attackers == 0 {
		return board.NoSquare, board.NoPieceType
	}
	for pt := board.Pawn; pt <= board.King; pt++ {
		if bb := attackers & pos.Pieces(c, pt); bb != 0 {
			return bb.LSB(), pt
		}
	}
	return board.NoSquare, board.NoPieceType
}
