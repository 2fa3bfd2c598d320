package board

import "testing"

// perft counts leaf nodes and checks that every undo restores the key.
func perft(t *testing.T, p *Position, depth int) int64 {
	if depth == 0 {
		return 1
	}

	moves := p.LegalMoves()
	if depth == 1 {
		return int64(len(moves))
	}

	var nodes int64
	key := p.Key()
	for _, m := range moves {
		undo := p.MakeMove(m)
		nodes += perft(t, p, depth-1)
		undo()
		if p.Key() != key {
			t.Fatalf("Undo of %s did not restore the position: %s", m, p.FEN())
		}
	}
	return nodes
}

func TestPerft(t *testing.T) {
	tests := []struct {
		name     string
		fen      string
		depth    int
		expected int64
	}{
		{"start", StartFEN, 1, 20},
		{"start", StartFEN, 2, 400},
		{"start", StartFEN, 3, 8902},
		{"start", StartFEN, 4, 197281},
		// Castling, pins and promotions
		{"kiwipete", "r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq -", 1, 48},
		{"kiwipete", "r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq -", 2, 2039},
		{"kiwipete", "r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq -", 3, 97862},
		// En passant edge cases
		{"position3", "8/2p5/3p4/KP5r/1R3p1k/8/4P1P1/8 w - -", 1, 14},
		{"position3", "8/2p5/3p4/KP5r/1R3p1k/8/4P1P1/8 w - -", 2, 191},
		{"position3", "8/2p5/3p4/KP5r/1R3p1k/8/4P1P1/8 w - -", 3, 2812},
		{"position3", "8/2p5/3p4/KP5r/1R3p1k/8/4P1P1/8 w - -", 4, 43238},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			pos := mustParse(t, tc.fen)
			if got := perft(t, pos, tc.depth); got != tc.expected {
				t.Errorf("perft(%d) = %d, want %d", tc.depth, got, tc.expected)
			}
		})
	}
}

// The pawn on e4 may not take en passant: it would expose the king on a4 to
// the rook on h4.
func TestPerftEnPassantPin(t *testing.T) {
	pos := mustParse(t, "8/8/8/8/k2Pp2R/8/8/4K3 b - d3 0 1")

	if _, err := pos.ParseMove("e4d3"); err == nil {
		t.Error("En passant e4d3 should be illegal (horizontal pin)")
	}

	// Ka3, Ka5, Kb3, Kb4, Kb5 and e3
	if got := perft(t, pos, 1); got != 6 {
		t.Errorf("perft(1) = %d, want 6", got)
	}
	if got := perft(t, pos, 2); got != 94 {
		t.Errorf("perft(2) = %d, want 94", got)
	}
}
