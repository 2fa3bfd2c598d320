// Package board adapts the dragontoothmg move generator to the small set of
// types the search core works with: colors, piece kinds, squares, bitboards,
// moves and a Position with scoped make/unmake.
package board

import "fmt"

// Square represents a square on the chess board (0-63).
// Uses Little-Endian Rank-File Mapping: A1=0, H1=7, A8=56, H8=63.
type Square uint8

// Squares referenced by name in the engine and the book decoder.
const (
	A1 Square = 0
	C1 Square = 2
	E1 Square = 4
	G1 Square = 6
	H1 Square = 7
	D4 Square = 27
	E4 Square = 28
	D5 Square = 35
	E5 Square = 36
	A8 Square = 56
	C8 Square = 58
	E8 Square = 60
	G8 Square = 62
	H8 Square = 63

	NoSquare Square = 64
)

// NewSquare creates a square from file and rank (0-indexed).
func NewSquare(file, rank int) Square {
	return Square(rank*8 + file)
}

// ParseSquare parses algebraic notation (e.g., "e4") into a Square.
func ParseSquare(s string) (Square, error) {
	if len(s) != 2 {
		return NoSquare, fmt.Errorf("invalid square: %q", s)
	}
	file := int(s[0]) - 'a'
	rank := int(s[1]) - '1'
	if file < 0 || file > 7 || rank < 0 || rank > 7 {
		return NoSquare, fmt.Errorf("invalid square: %q", s)
	}
	return NewSquare(file, rank), nil
}

// File returns the file of the square (0=a, 7=h).
func (sq Square) File() int {
	return int(sq) & 7
}

// Rank returns the rank of the square (0=1st rank, 7=8th rank).
func (sq Square) Rank() int {
	return int(sq) >> 3
}

// Mirror flips the square vertically, mapping White's tables onto Black.
func (sq Square) Mirror() Square {
	return sq ^ 56
}

// RelativeRank returns the rank from a given color's side of the board.
func (sq Square) RelativeRank(c Color) int {
	if c == White {
		return sq.Rank()
	}
	return 7 - sq.Rank()
}

// String returns the algebraic notation for the square (e.g., "e4").
func (sq Square) String() string {
	if sq >= NoSquare {
		return "-"
	}
	return fmt.Sprintf("%c%c", 'a'+sq.File(), '1'+sq.Rank())
}

// Distance returns the Manhattan distance between two squares.
func Distance(a, b Square) int {
	return abs(a.File()-b.File()) + abs(a.Rank()-b.Rank())
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
