package board

// Color represents the color of a piece or player.
type Color uint8

const (
	White Color = iota
	Black
)

// Other returns the opposite color.
func (c Color) Other() Color {
	return c ^ 1
}

// String returns the color name.
func (c Color) String() string {
	if c == White {
		return "White"
	}
	return "Black"
}

// PieceType represents the kind of a chess piece.
// The numbering matches the move generator's piece codes, so values convert directly.
type PieceType uint8

const (
	NoPieceType PieceType = iota
	Pawn
	Knight
	Bishop
	Rook
	Queen
	King
)

// PieceTypeCount is the size of lookup tables indexed by PieceType.
const PieceTypeCount = 7

// String returns the piece type name.
func (pt PieceType) String() string {
	switch pt {
	case Pawn:
		return "Pawn"
	case Knight:
		return "Knight"
	case Bishop:
		return "Bishop"
	case Rook:
		return "Rook"
	case Queen:
		return "Queen"
	case King:
		return "King"
	default:
		return "None"
	}
}

// Char returns the lowercase FEN letter of the piece type.
func (pt PieceType) Char() byte {
	return " pnbrqk"[pt]
}

// Symbol returns the FEN letter for a piece of the given color.
func Symbol(c Color, pt PieceType) byte {
	ch := pt.Char()
	if c == White && pt != NoPieceType {
		ch -= 'a' - 'A'
	}
	return ch
}
