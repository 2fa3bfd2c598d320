package board

import (
	"fmt"
	"strings"
)

// SAN returns the move in Standard Algebraic Notation ("Nbd7", "exd5",
// "e8=Q+", "O-O"). m must be legal in p.
func (p *Position) SAN(m Move) string {
	if m == NoMove {
		return "-"
	}

	from, to := m.From(), m.To()
	pt := p.MovedPiece(m)

	var sb strings.Builder
	switch {
	case pt == King && to.File()-from.File() == 2:
		sb.WriteString("O-O")
	case pt == King && from.File()-to.File() == 2:
		sb.WriteString("O-O-O")
	default:
		if pt != Pawn {
			sb.WriteByte(Symbol(White, pt))
			sb.WriteString(p.disambiguation(m, pt))
		}
		if p.IsCapture(m) {
			if pt == Pawn {
				sb.WriteByte('a' + byte(from.File()))
			}
			sb.WriteByte('x')
		}
		sb.WriteString(to.String())
		if m.IsPromotion() {
			sb.WriteByte('=')
			sb.WriteByte(Symbol(White, m.Promotion()))
		}
	}

	undo := p.MakeMove(m)
	switch {
	case p.IsCheckmate():
		sb.WriteByte('#')
	case p.InCheck():
		sb.WriteByte('+')
	}
	undo()
	return sb.String()
}

// disambiguation returns the origin file, rank or square needed to tell m
// apart from other moves of the same piece type to the same square.
func (p *Position) disambiguation(m Move, pt PieceType) string {
	from := m.From()
	sameFile, sameRank, ambiguous := false, false, false
	for _, other := range p.LegalMoves() {
		if other.To() != m.To() || other.From() == from || p.MovedPiece(other) != pt {
			continue
		}
		ambiguous = true
		sameFile = sameFile || other.From().File() == from.File()
		sameRank = sameRank || other.From().Rank() == from.Rank()
	}

	switch {
	case !ambiguous:
		return ""
	case !sameFile:
		return string(rune('a' + from.File()))
	case !sameRank:
		return string(rune('1' + from.Rank()))
	}
	return from.String()
}

// ParseSAN resolves a move in Standard Algebraic Notation against the legal
// moves of the position. Check and annotation suffixes are ignored, and
// castling may be written with zeros.
func (p *Position) ParseSAN(s string) (Move, error) {
	text := strings.TrimRight(strings.TrimSpace(s), "+#!?")

	switch text {
	case "O-O", "0-0":
		return p.castle(2, s)
	case "O-O-O", "0-0-0":
		return p.castle(-2, s)
	}

	promo := NoPieceType
	if i := strings.IndexByte(text, '='); i >= 0 {
		if i != len(text)-2 {
			return NoMove, fmt.Errorf("%w: %s", ErrIllegalMove, s)
		}
		if promo = pieceFromLetter(text[i+1]); promo == NoPieceType || promo == King || promo == Pawn {
			return NoMove, fmt.Errorf("%w: %s", ErrIllegalMove, s)
		}
		text = text[:i]
	}

	pt := Pawn
	if len(text) > 0 {
		if letter := pieceFromLetter(text[0]); letter != NoPieceType {
			pt = letter
			text = text[1:]
		}
	}
	capture := strings.Contains(text, "x")
	text = strings.Replace(text, "x", "", 1)

	if len(text) < 2 {
		return NoMove, fmt.Errorf("%w: %s", ErrIllegalMove, s)
	}
	to, err := ParseSquare(text[len(text)-2:])
	if err != nil {
		return NoMove, fmt.Errorf("%w: %s", ErrIllegalMove, s)
	}

	file, rank := -1, -1
	for _, ch := range text[:len(text)-2] {
		switch {
		case ch >= 'a' && ch <= 'h':
			file = int(ch - 'a')
		case ch >= '1' && ch <= '8':
			rank = int(ch - '1')
		default:
			return NoMove, fmt.Errorf("%w: %s", ErrIllegalMove, s)
		}
	}

	found := NoMove
	for _, m := range p.LegalMoves() {
		from := m.From()
		switch {
		case m.To() != to, p.MovedPiece(m) != pt, m.Promotion() != promo:
			continue
		case file >= 0 && from.File() != file, rank >= 0 && from.Rank() != rank:
			continue
		case capture && !p.IsCapture(m):
			continue
		}
		if found != NoMove {
			return NoMove, fmt.Errorf("%w: ambiguous %s", ErrIllegalMove, s)
		}
		found = m
	}
	if found == NoMove {
		return NoMove, fmt.Errorf("%w: %s", ErrIllegalMove, s)
	}
	return found, nil
}

// castle finds the king move of df files from the king's square.
func (p *Position) castle(df int, s string) (Move, error) {
	king := p.KingSquare(p.SideToMove())
	for _, m := range p.LegalMoves() {
		if m.From() == king && m.To().Rank() == king.Rank() && m.To().File()-king.File() == df {
			return m, nil
		}
	}
	return NoMove, fmt.Errorf("%w: %s", ErrIllegalMove, s)
}

func pieceFromLetter(ch byte) PieceType {
	switch ch {
	case 'N':
		return Knight
	case 'B':
		return Bishop
	case 'R':
		return Rook
	case 'Q':
		return Queen
	case 'K':
		return King
	}
	return NoPieceType
}
