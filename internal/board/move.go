package board

import (
	"errors"
	"fmt"

	"github.com/dylhunn/dragontoothmg"
)

// ErrIllegalMove is returned when a move string does not match a legal move.
var ErrIllegalMove = errors.New("illegal move")

// Move is a move in the generator's 16-bit encoding.
// It is comparable; the zero value is NoMove (a1a1 is never legal).
type Move uint16

// NoMove signals the absence of a move.
const NoMove Move = 0

func (m Move) raw() dragontoothmg.Move {
	return dragontoothmg.Move(m)
}

// From returns the origin square.
func (m Move) From() Square {
	dm := m.raw()
	return Square(dm.From())
}

// To returns the destination square.
func (m Move) To() Square {
	dm := m.raw()
	return Square(dm.To())
}

// Promotion returns the promotion piece, or NoPieceType.
func (m Move) Promotion() PieceType {
	dm := m.raw()
	return PieceType(dm.Promote())
}

// IsPromotion reports whether the move promotes a pawn.
func (m Move) IsPromotion() bool {
	return m.Promotion() != NoPieceType
}

// String returns the move in UCI coordinate notation ("e2e4", "e7e8q").
func (m Move) String() string {
	if m == NoMove {
		return "0000"
	}
	dm := m.raw()
	return dm.String()
}

// ParseMove resolves a UCI move string against the legal moves of the position.
func (p *Position) ParseMove(s string) (Move, error) {
	for _, m := range p.LegalMoves() {
		if m.String() == s {
			return m, nil
		}
	}
	return NoMove, fmt.Errorf("%w: %s", ErrIllegalMove, s)
}

// FindMove returns the legal move matching the given squares and promotion.
func (p *Position) FindMove(from, to Square, promo PieceType) (Move, bool) {
	for _, m := range p.LegalMoves() {
		if m.From() == from && m.To() == to && m.Promotion() == promo {
			return m, true
		}
	}
	return NoMove, false
}
