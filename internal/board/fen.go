package board

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/dylhunn/dragontoothmg"
)

// StartFEN is the FEN string for the starting position.
const StartFEN = dragontoothmg.Startpos

// ErrInvalidFEN is wrapped by every FEN parsing error.
var ErrInvalidFEN = errors.New("invalid FEN")

// ParseFEN validates a FEN string and returns the Position it describes.
// The half-move clock and move number are optional and default to "0 1".
func ParseFEN(fen string) (pos *Position, err error) {
	parts := strings.Fields(fen)
	if len(parts) < 4 || len(parts) > 6 {
		return nil, fmt.Errorf("%w: need 4 to 6 fields, got %d", ErrInvalidFEN, len(parts))
	}
	if err := validatePlacement(parts[0]); err != nil {
		return nil, err
	}
	if parts[1] != "w" && parts[1] != "b" {
		return nil, fmt.Errorf("%w: invalid side to move %q", ErrInvalidFEN, parts[1])
	}
	if parts[2] != "-" && strings.Trim(parts[2], "KQkq") != "" {
		return nil, fmt.Errorf("%w: invalid castling rights %q", ErrInvalidFEN, parts[2])
	}
	if parts[3] != "-" {
		if _, err := ParseSquare(parts[3]); err != nil {
			return nil, fmt.Errorf("%w: invalid en passant square %q", ErrInvalidFEN, parts[3])
		}
	}
	defaults := []string{"0", "1"}
	for i := 4; i < 6; i++ {
		if i < len(parts) {
			if _, err := strconv.Atoi(parts[i]); err != nil {
				return nil, fmt.Errorf("%w: invalid counter %q", ErrInvalidFEN, parts[i])
			}
			continue
		}
		parts = append(parts, defaults[i-4])
	}

	defer func() {
		if r := recover(); r != nil {
			pos, err = nil, fmt.Errorf("%w: %v", ErrInvalidFEN, r)
		}
	}()
	return &Position{b: dragontoothmg.ParseFen(strings.Join(parts, " "))}, nil
}

func validatePlacement(placement string) error {
	ranks := strings.Split(placement, "/")
	if len(ranks) != 8 {
		return fmt.Errorf("%w: need 8 ranks, got %d", ErrInvalidFEN, len(ranks))
	}
	kings := map[rune]int{}
	for i, rank := range ranks {
		width := 0
		for _, ch := range rank {
			switch {
			case ch >= '1' && ch <= '8':
				width += int(ch - '0')
			case strings.ContainsRune("pnbrqkPNBRQK", ch):
				width++
				if ch == 'k' || ch == 'K' {
					kings[ch]++
				}
			default:
				return fmt.Errorf("%w: invalid piece %q", ErrInvalidFEN, ch)
			}
		}
		if width != 8 {
			return fmt.Errorf("%w: rank %d has %d squares", ErrInvalidFEN, 8-i, width)
		}
	}
	if kings['K'] != 1 || kings['k'] != 1 {
		return fmt.Errorf("%w: each side needs exactly one king", ErrInvalidFEN)
	}
	return nil
}

// FEN returns the FEN string of the position.
func (p *Position) FEN() string {
	return p.b.ToFen()
}
