package engine

import (
	"testing"

	"github.com/hailam/chesscore/internal/board"
)

func TestKillersBoundedAndUnique(t *testing.T) {
	pos := board.NewPosition()
	moves := pos.LegalMoves()
	mo := NewMoveOrderer()

	const ply = 3
	sequence := []int{0, 1, 2, 1, 3, 4, 5, 5, 0, 2}
	for _, i := range sequence {
		mo.RecordCutoff(moves[i], ply, 4, true)

		killers := mo.Killers(ply)
		if len(killers) > MaxKillers {
			t.Fatalf("Killer list has %d entries", len(killers))
		}
		seen := make(map[board.Move]bool)
		for _, k := range killers {
			if seen[k] {
				t.Fatalf("Duplicate killer %s in %v", k, killers)
			}
			seen[k] = true
		}
		if killers[0] != moves[i] {
			t.Errorf("Most recent killer should be first: got %s, want %s", killers[0], moves[i])
		}
	}

	want := []board.Move{moves[2], moves[0], moves[5], moves[4]}
	got := mo.Killers(ply)
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Killer %d = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestCaptureCutoffIsNotKiller(t *testing.T) {
	mo := NewMoveOrderer()
	pos := mustParse(t, "4k3/8/8/3q4/4P3/8/8/4K3 w - - 0 1")
	m, _ := pos.ParseMove("e4d5")

	mo.RecordCutoff(m, 0, 3, false)
	if len(mo.Killers(0)) != 0 {
		t.Error("Captures must not become killers")
	}
	if mo.CounterMove(0) != m {
		t.Error("Expected the capture to be the counter move")
	}
	if mo.History(m) != 2*3*3 {
		t.Errorf("History = %d, want %d", mo.History(m), 18)
	}

	mo.RecordBest(m, 2)
	if mo.History(m) != 18+4 {
		t.Errorf("History = %d, want %d", mo.History(m), 22)
	}
}

func TestOrderMovesPriority(t *testing.T) {
	pos := mustParse(t, "4k3/8/8/3q4/4P3/8/8/R3K3 w - - 0 1")
	mo := NewMoveOrderer()
	parse := func(s string) board.Move {
		m, err := pos.ParseMove(s)
		if err != nil {
			t.Fatalf("ParseMove(%s): %v", s, err)
		}
		return m
	}

	ttMove := parse("a1a2")
	counter := parse("e1f1")
	killer := parse("a1b1")
	older := parse("a1c1")
	capture := parse("e4d5")

	const ply = 2
	mo.RecordCutoff(older, ply, 1, true)
	mo.RecordCutoff(killer, ply, 1, true)
	mo.RecordCutoff(counter, ply, 1, false)

	ordered := mo.OrderMoves(pos, pos.LegalMoves(), ply, ttMove)
	want := []board.Move{ttMove, counter, killer, older, capture}
	for i, m := range want {
		if ordered[i] != m {
			t.Errorf("Position %d: got %s, want %s", i, ordered[i], m)
		}
	}
}

func TestOrderMovesStable(t *testing.T) {
	pos := board.NewPosition()
	moves := pos.LegalMoves()
	ordered := NewMoveOrderer().OrderMoves(pos, moves, 0, board.NoMove)
	for i := range moves {
		if ordered[i] != moves[i] {
			t.Fatalf("Equal scores must keep generation order: %v vs %v", ordered, moves)
		}
	}
}

func TestOrderCaptures(t *testing.T) {
	// Pawn takes queen beats rook takes defended pawn.
	pos := mustParse(t, "4k3/8/2p5/1p1q4/4P3/8/8/1R2K3 w - - 0 1")
	captures := NewMoveOrderer().OrderCaptures(pos, 0, board.NoMove)
	if len(captures) != 2 {
		t.Fatalf("Expected 2 captures, got %v", captures)
	}
	if captures[0].String() != "e4d5" || captures[1].String() != "b1b5" {
		t.Errorf("Unexpected capture order %v", captures)
	}
}

func TestOrdererClear(t *testing.T) {
	pos := board.NewPosition()
	m := pos.LegalMoves()[0]
	mo := NewMoveOrderer()
	mo.RecordCutoff(m, 1, 5, true)
	mo.Clear()

	if len(mo.Killers(1)) != 0 || mo.CounterMove(1) != board.NoMove || mo.History(m) != 0 {
		t.Error("Clear left heuristic state behind")
	}
	if mo.Killers(MaxPly) != nil || mo.CounterMove(MaxPly) != board.NoMove {
		t.Error("Out of range plies should be empty")
	}
}
