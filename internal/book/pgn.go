package book

import (
	"cmp"
	"fmt"
	"io"
	"math"
	"slices"

	"github.com/notnil/chess"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/hailam/chesscore/internal/board"
)

// DefaultBuildPlies is how deep into each game FromPGN records moves.
const DefaultBuildPlies = 16

// FromPGN builds a book from the games in r. Every move played within the
// first maxPly plies of a game adds one to the weight of that continuation.
// Games that start from a custom position are skipped. It returns the book
// and the number of games used.
func FromPGN(r io.Reader, maxPly int) (*Book, int, error) {
	if maxPly <= 0 {
		maxPly = DefaultBuildPlies
	}

	counts := make(map[uint64]map[Entry]int)
	games := 0
	scanner := chess.NewScanner(r)
	for scanner.Scan() {
		game := scanner.Next()
		if game.GetTagPair("FEN") != nil {
			continue
		}

		pos := board.NewPosition()
		for ply, played := range game.Moves() {
			if ply >= maxPly {
				break
			}
			m, err := pos.ParseMove(played.String())
			if err != nil {
				log.Debug().Int("game", games+1).Int("ply", ply).Str("move", played.String()).Msg("pgn-move-rejected")
				break
			}
			key := pos.BookKey()
			if counts[key] == nil {
				counts[key] = make(map[Entry]int)
			}
			counts[key][NewEntry(pos, m, 0)]++
			pos.MakeMove(m)
		}
		games++
	}
	if err := scanner.Err(); err != nil {
		return nil, games, fmt.Errorf("read pgn: %w", err)
	}

	b := New()
	for key, moves := range counts {
		ordered := lo.Keys(moves)
		slices.SortFunc(ordered, func(a, c Entry) int {
			if n := cmp.Compare(moves[c], moves[a]); n != 0 {
				return n
			}
			return cmp.Compare(encodeMove(a), encodeMove(c))
		})
		for _, e := range ordered {
			e.Weight = uint16(min(moves[e], math.MaxUint16))
			b.Add(key, e)
		}
	}
	log.Debug().Int("games", games).Int("positions", b.Size()).Msg("pgn-book-built")
	return b, games, nil
}
