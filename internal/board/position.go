package board

import (
	"strings"

	"github.com/dylhunn/dragontoothmg"
)

// Position is a chess position backed by the dragontoothmg board.
// All mutation goes through MakeMove and MakeNullMove, which return the
// closure that restores the previous state.
type Position struct {
	b dragontoothmg.Board
}

// NewPosition returns the standard starting position.
func NewPosition() *Position {
	return &Position{b: dragontoothmg.ParseFen(dragontoothmg.Startpos)}
}

// Copy returns an independent copy of the position.
func (p *Position) Copy() *Position {
	cp := *p
	return &cp
}

// SideToMove returns the color to move.
func (p *Position) SideToMove() Color {
	if p.b.Wtomove {
		return White
	}
	return Black
}

// Key returns the generator's incrementally updated position hash.
func (p *Position) Key() uint64 {
	return p.b.Hash()
}

// HalfmoveClock returns the number of half-moves since the last capture or pawn move.
func (p *Position) HalfmoveClock() int {
	return int(p.b.Halfmoveclock)
}

// FullmoveNumber returns the current move number.
func (p *Position) FullmoveNumber() int {
	return int(p.b.Fullmoveno)
}

// LegalMoves generates all legal moves in generation order.
func (p *Position) LegalMoves() []Move {
	raw := p.b.GenerateLegalMoves()
	moves := make([]Move, len(raw))
	for i, m := range raw {
		moves[i] = Move(m)
	}
	return moves
}

// HasLegalMoves reports whether the side to move has any legal move.
func (p *Position) HasLegalMoves() bool {
	return len(p.b.GenerateLegalMoves()) > 0
}

// MakeMove applies a legal move and returns the closure that undoes it.
// Callers pair the two with defer so every exit path restores the position.
func (p *Position) MakeMove(m Move) (undo func()) {
	return p.b.Apply(dragontoothmg.Move(m))
}

// MakeNullMove passes the turn and returns the closure that undoes it.
// The generator has no null move, so the side to move is flipped through a
// FEN round trip, which also clears the en passant square and rehashes.
func (p *Position) MakeNullMove() (undo func()) {
	saved := p.b
	fields := strings.Fields(p.b.ToFen())
	if fields[1] == "w" {
		fields[1] = "b"
	} else {
		fields[1] = "w"
	}
	fields[3] = "-"
	p.b = dragontoothmg.ParseFen(strings.Join(fields, " "))
	return func() { p.b = saved }
}

// InCheck reports whether the side to move is in check.
func (p *Position) InCheck() bool {
	return p.b.OurKingInCheck()
}

// GivesCheck reports whether the move leaves the opponent in check.
func (p *Position) GivesCheck(m Move) bool {
	undo := p.MakeMove(m)
	defer undo()
	return p.InCheck()
}

// IsCheckmate reports whether the side to move is checkmated.
func (p *Position) IsCheckmate() bool {
	return p.InCheck() && !p.HasLegalMoves()
}

// IsStalemate reports whether the side to move has no legal move and is not in check.
func (p *Position) IsStalemate() bool {
	return !p.InCheck() && !p.HasLegalMoves()
}

// IsInsufficientMaterial reports whether neither side can possibly mate:
// bare kings, a single minor piece, or only bishops all on one square colour.
func (p *Position) IsInsufficientMaterial() bool {
	heavy := p.Pieces(White, Pawn) | p.Pieces(Black, Pawn) |
		p.Pieces(White, Rook) | p.Pieces(Black, Rook) |
		p.Pieces(White, Queen) | p.Pieces(Black, Queen)
	if heavy != 0 {
		return false
	}
	knights := p.Pieces(White, Knight) | p.Pieces(Black, Knight)
	bishops := p.Pieces(White, Bishop) | p.Pieces(Black, Bishop)
	if (knights | bishops).PopCount() <= 1 {
		return true
	}
	if knights == 0 && (bishops&DarkSquares == 0 || bishops&LightSquares == 0) {
		return true
	}
	return false
}

func (p *Position) side(c Color) *dragontoothmg.Bitboards {
	if c == White {
		return &p.b.White
	}
	return &p.b.Black
}

// Pieces returns the squares holding pieces of the given color and type.
func (p *Position) Pieces(c Color, pt PieceType) Bitboard {
	s := p.side(c)
	switch pt {
	case Pawn:
		return Bitboard(s.Pawns)
	case Knight:
		return Bitboard(s.Knights)
	case Bishop:
		return Bitboard(s.Bishops)
	case Rook:
		return Bitboard(s.Rooks)
	case Queen:
		return Bitboard(s.Queens)
	case King:
		return Bitboard(s.Kings)
	}
	return 0
}

// ByColor returns all squares occupied by the given color.
func (p *Position) ByColor(c Color) Bitboard {
	return Bitboard(p.side(c).All)
}

// Occupied returns all occupied squares.
func (p *Position) Occupied() Bitboard {
	return Bitboard(p.b.White.All | p.b.Black.All)
}

// PieceAt returns the color and type of the piece on sq.
// The type is NoPieceType for an empty square.
func (p *Position) PieceAt(sq Square) (Color, PieceType) {
	bb := SquareBB(sq)
	for _, c := range [2]Color{White, Black} {
		if p.ByColor(c)&bb == 0 {
			continue
		}
		for pt := Pawn; pt <= King; pt++ {
			if p.Pieces(c, pt)&bb != 0 {
				return c, pt
			}
		}
	}
	return White, NoPieceType
}

// KingSquare returns the king square of the given color.
func (p *Position) KingSquare(c Color) Square {
	return p.Pieces(c, King).LSB()
}

// MovedPiece returns the type of the piece making the move.
func (p *Position) MovedPiece(m Move) PieceType {
	_, pt := p.PieceAt(m.From())
	return pt
}

// IsCapture reports whether the move captures, including en passant.
func (p *Position) IsCapture(m Move) bool {
	return p.CapturedPiece(m) != NoPieceType
}

// CapturedPiece returns the type of the captured piece, or NoPieceType.
func (p *Position) CapturedPiece(m Move) PieceType {
	us := p.SideToMove()
	if p.ByColor(us.Other()).IsSet(m.To()) {
		_, pt := p.PieceAt(m.To())
		return pt
	}
	// A pawn changing file onto an empty square is an en passant capture.
	if p.Pieces(us, Pawn).IsSet(m.From()) && m.From().File() != m.To().File() {
		return Pawn
	}
	return NoPieceType
}

// IsQuiet reports whether the move is neither a capture nor a promotion.
func (p *Position) IsQuiet(m Move) bool {
	return !m.IsPromotion() && !p.IsCapture(m)
}

// HasNonPawnMaterial reports whether color c has any piece besides pawns and king.
func (p *Position) HasNonPawnMaterial(c Color) bool {
	return p.Pieces(c, Knight)|p.Pieces(c, Bishop)|p.Pieces(c, Rook)|p.Pieces(c, Queen) != 0
}

// String renders the board with rank 8 on top.
func (p *Position) String() string {
	var sb strings.Builder
	for rank := 7; rank >= 0; rank-- {
		sb.WriteByte(byte('1' + rank))
		sb.WriteByte(' ')
		for file := 0; file < 8; file++ {
			c, pt := p.PieceAt(NewSquare(file, rank))
			if pt == NoPieceType {
				sb.WriteByte('.')
			} else {
				sb.WriteByte(Symbol(c, pt))
			}
			sb.WriteByte(' ')
		}
		sb.WriteByte('\n')
	}
	sb.WriteString("  a b c d e f g h\n")
	return sb.String()
}
