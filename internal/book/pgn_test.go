package book

import (
	"slices"
	"strings"
	"testing"

	"github.com/hailam/chesscore/internal/board"
)

const twoGames = `[Event "One"]
[White "A"]
[Black "B"]
[Result "1-0"]

1. e4 e5 2. Nf3 Nc6 3. Bb5 a6 1-0

[Event "Two"]
[White "C"]
[Black "D"]
[Result "0-1"]

1. e4 c5 2. Nf3 d6 0-1
`

func TestFromPGN(t *testing.T) {
	b, games, err := FromPGN(strings.NewReader(twoGames), 3)
	if err != nil {
		t.Fatalf("FromPGN: %v", err)
	}
	if games != 2 {
		t.Errorf("Expected 2 games, got %d", games)
	}

	start := board.NewPosition()
	if got := b.ProbeAll(start); len(got) != 1 || got[0].String() != "e2e4" {
		t.Fatalf("Expected only e2e4 from the start, got %v", got)
	}
	if w := b.entries[start.BookKey()][0].Weight; w != 2 {
		t.Errorf("Expected e2e4 weight 2, got %d", w)
	}

	afterE4 := start.Copy()
	m, _ := afterE4.ParseMove("e2e4")
	afterE4.MakeMove(m)
	replies := b.ProbeAll(afterE4)
	names := make([]string, len(replies))
	for i, r := range replies {
		names[i] = r.String()
	}
	slices.Sort(names)
	if !slices.Equal(names, []string{"c7c5", "e7e5"}) {
		t.Errorf("Expected replies c7c5 and e7e5, got %v", names)
	}

	// Three plies: the fourth move of each game is not recorded.
	deep := afterE4.Copy()
	for _, s := range []string{"e7e5", "g1f3"} {
		m, err := deep.ParseMove(s)
		if err != nil {
			t.Fatalf("ParseMove(%s): %v", s, err)
		}
		deep.MakeMove(m)
	}
	if got := b.ProbeAll(deep); len(got) != 0 {
		t.Errorf("Expected no moves past the ply limit, got %v", got)
	}
}

func TestFromPGNSkipsCustomStart(t *testing.T) {
	pgn := `[Event "Endgame"]
[FEN "8/8/8/4k3/8/8/4P3/4K3 w - - 0 1"]
[SetUp "1"]
[Result "*"]

1. e4 *
`
	b, games, err := FromPGN(strings.NewReader(pgn), 0)
	if err != nil {
		t.Fatalf("FromPGN: %v", err)
	}
	if games != 0 || b.Size() != 0 {
		t.Errorf("Expected the game to be skipped, got %d games and %d positions", games, b.Size())
	}
}

func TestFromPGNCastling(t *testing.T) {
	pgn := `[Event "Castle"]
[Result "*"]

1. e4 e5 2. Nf3 Nc6 3. Bc4 Bc5 4. O-O Nf6 *
`
	b, _, err := FromPGN(strings.NewReader(pgn), 0)
	if err != nil {
		t.Fatalf("FromPGN: %v", err)
	}

	pos := board.NewPosition()
	for _, s := range []string{"e2e4", "e7e5", "g1f3", "b8c6", "f1c4", "f8c5"} {
		m, err := pos.ParseMove(s)
		if err != nil {
			t.Fatalf("ParseMove(%s): %v", s, err)
		}
		pos.MakeMove(m)
	}

	entries := b.entries[pos.BookKey()]
	if len(entries) != 1 || entries[0].String() != "e1h1" {
		t.Fatalf("Expected the castle stored as e1h1, got %v", entries)
	}
	if got := b.ProbeAll(pos); len(got) != 1 || got[0].String() != "e1g1" {
		t.Errorf("Expected castling e1g1, got %v", got)
	}
}
