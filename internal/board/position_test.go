package board

import (
	"errors"
	"testing"
)

func mustParse(t *testing.T, fen string) *Position {
	t.Helper()
	pos, err := ParseFEN(fen)
	if err != nil {
		t.Fatalf("ParseFEN(%q): %v", fen, err)
	}
	return pos
}

func TestStartingPosition(t *testing.T) {
	pos := NewPosition()
	if pos.SideToMove() != White {
		t.Errorf("Expected White to move")
	}
	if n := len(pos.LegalMoves()); n != 20 {
		t.Errorf("Expected 20 legal moves, got %d", n)
	}
	if pos.KingSquare(White) != E1 || pos.KingSquare(Black) != E8 {
		t.Errorf("Unexpected king squares %s %s", pos.KingSquare(White), pos.KingSquare(Black))
	}
	if pos.Occupied().PopCount() != 32 {
		t.Errorf("Expected 32 pieces, got %d", pos.Occupied().PopCount())
	}
}

func TestParseFENErrors(t *testing.T) {
	tests := []string{
		"",
		"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP w KQkq - 0 1",
		"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR x KQkq - 0 1",
		"rnbqkbnr/pppppppp/9/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1",
		"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQQBNR w KQkq - 0 1",
		"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQxq - 0 1",
		"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq z9 0 1",
	}
	for _, fen := range tests {
		if _, err := ParseFEN(fen); !errors.Is(err, ErrInvalidFEN) {
			t.Errorf("ParseFEN(%q) = %v, want ErrInvalidFEN", fen, err)
		}
	}
}

func TestParseFENShortForm(t *testing.T) {
	pos := mustParse(t, "4k3/8/8/8/8/8/8/4K3 b - -")
	if pos.SideToMove() != Black {
		t.Errorf("Expected Black to move")
	}
	if pos.FullmoveNumber() != 1 {
		t.Errorf("Expected move number 1, got %d", pos.FullmoveNumber())
	}
}

func TestCheckmate(t *testing.T) {
	// Back rank mate: Black king boxed in by its own pawns
	pos := mustParse(t, "R6k/6pp/8/8/8/8/8/K7 b - - 0 1")
	if !pos.InCheck() {
		t.Error("Expected Black to be in check")
	}
	if !pos.IsCheckmate() {
		t.Error("Expected checkmate")
	}
	if pos.IsStalemate() {
		t.Error("Checkmate reported as stalemate")
	}
}

func TestNotCheckmate(t *testing.T) {
	// King can capture the checking rook
	pos := mustParse(t, "6Rk/8/8/8/8/8/8/K7 b - - 0 1")
	if pos.IsCheckmate() {
		t.Error("Expected not checkmate")
	}
	if _, err := pos.ParseMove("h8g8"); err != nil {
		t.Errorf("Expected Kxg8 to be legal: %v", err)
	}
}

func TestStalemate(t *testing.T) {
	pos := mustParse(t, "7k/5Q2/6K1/8/8/8/8/8 b - - 0 1")
	if !pos.IsStalemate() {
		t.Error("Expected stalemate")
	}
	if pos.IsCheckmate() {
		t.Error("Stalemate reported as checkmate")
	}
}

func TestInsufficientMaterial(t *testing.T) {
	tests := []struct {
		fen  string
		want bool
	}{
		{"8/8/8/4k3/8/8/8/4K3 w - - 0 1", true},
		{"8/8/8/4k3/8/8/8/4KB2 w - - 0 1", true},
		{"8/8/8/4k3/8/8/8/4KN2 w - - 0 1", true},
		{"8/8/8/4k3/8/8/2b5/4KB2 w - - 0 1", true},
		{"8/8/8/4k3/8/8/1b6/4KB2 w - - 0 1", false},
		{"8/8/8/4k3/8/8/8/3QK3 w - - 0 1", false},
		{"8/8/8/4k3/8/8/4P3/4K3 w - - 0 1", false},
		{"8/8/8/4k3/8/8/8/3NKN2 w - - 0 1", false},
	}
	for _, tt := range tests {
		pos := mustParse(t, tt.fen)
		if got := pos.IsInsufficientMaterial(); got != tt.want {
			t.Errorf("IsInsufficientMaterial(%q) = %v, want %v", tt.fen, got, tt.want)
		}
	}
}

func TestMakeMoveUndo(t *testing.T) {
	pos := NewPosition()
	fen, key := pos.FEN(), pos.Key()

	m, err := pos.ParseMove("e2e4")
	if err != nil {
		t.Fatalf("ParseMove: %v", err)
	}
	func() {
		undo := pos.MakeMove(m)
		defer undo()
		if pos.SideToMove() != Black {
			t.Error("Expected Black to move after e2e4")
		}
		if pos.Key() == key {
			t.Error("Key should change after a move")
		}
	}()

	if pos.FEN() != fen {
		t.Errorf("FEN not restored: %s != %s", pos.FEN(), fen)
	}
	if pos.Key() != key {
		t.Errorf("Key not restored: %x != %x", pos.Key(), key)
	}
}

func TestNullMove(t *testing.T) {
	pos := mustParse(t, "4k3/8/8/3pP3/8/8/8/4K3 w - d6 0 2")
	fen, key := pos.FEN(), pos.Key()

	undo := pos.MakeNullMove()
	if pos.SideToMove() != Black {
		t.Error("Expected Black to move after null move")
	}
	if pos.Key() == key {
		t.Error("Key should change after a null move")
	}
	for _, m := range pos.LegalMoves() {
		if pos.IsCapture(m) {
			t.Errorf("Unexpected capture %s after null move", m)
		}
	}
	undo()

	if pos.FEN() != fen || pos.Key() != key {
		t.Errorf("Null move not undone: %s", pos.FEN())
	}
}

func TestCaptures(t *testing.T) {
	pos := mustParse(t, "4k3/8/8/3pP3/8/8/8/4K3 w - d6 0 2")

	ep, err := pos.ParseMove("e5d6")
	if err != nil {
		t.Fatalf("Expected en passant to be legal: %v", err)
	}
	if !pos.IsCapture(ep) || pos.CapturedPiece(ep) != Pawn {
		t.Errorf("Expected en passant to capture a pawn")
	}

	push, err := pos.ParseMove("e5e6")
	if err != nil {
		t.Fatalf("ParseMove: %v", err)
	}
	if !pos.IsQuiet(push) {
		t.Errorf("Expected e5e6 to be quiet")
	}
	if pos.MovedPiece(push) != Pawn {
		t.Errorf("Expected a pawn move, got %s", pos.MovedPiece(push))
	}
}

func TestParseMoveIllegal(t *testing.T) {
	pos := NewPosition()
	if _, err := pos.ParseMove("e2e5"); !errors.Is(err, ErrIllegalMove) {
		t.Errorf("Expected ErrIllegalMove, got %v", err)
	}
}

func TestPromotionMoves(t *testing.T) {
	pos := mustParse(t, "8/4P3/8/8/8/k7/8/4K3 w - - 0 1")
	m, err := pos.ParseMove("e7e8q")
	if err != nil {
		t.Fatalf("ParseMove: %v", err)
	}
	if m.Promotion() != Queen || m.From().String() != "e7" || m.To() != E8 {
		t.Errorf("Unexpected promotion move %s", m)
	}
	if found, ok := pos.FindMove(m.From(), E8, Knight); !ok || found.Promotion() != Knight {
		t.Errorf("FindMove did not return the knight promotion")
	}
}

func TestGivesCheck(t *testing.T) {
	pos := mustParse(t, "6k1/5ppp/8/8/8/8/8/R5K1 w - - 0 1")
	m, err := pos.ParseMove("a1a8")
	if err != nil {
		t.Fatalf("ParseMove: %v", err)
	}
	if !pos.GivesCheck(m) {
		t.Error("Expected Ra8 to give check")
	}
	if pos.SideToMove() != White {
		t.Error("GivesCheck must leave the position unchanged")
	}
}

func TestAttackersTo(t *testing.T) {
	pos := mustParse(t, "4k3/8/8/4q3/3P4/8/8/B3K3 w - - 0 1")
	e5, _ := ParseSquare("e5")
	d4, _ := ParseSquare("d4")

	att := pos.AttackersTo(e5, pos.Occupied()) & pos.ByColor(White)
	if !att.IsSet(d4) {
		t.Errorf("Expected d4 pawn to attack e5")
	}
	// The a1 bishop is blocked by the d4 pawn until it is removed.
	if att.IsSet(A1) {
		t.Errorf("Bishop should be blocked")
	}
	xray := pos.AttackersTo(e5, pos.Occupied()&^SquareBB(d4)) & pos.ByColor(White)
	if !xray.IsSet(A1) {
		t.Errorf("Expected bishop x-ray once d4 is removed")
	}
	if !pos.IsAttacked(d4, Black) {
		t.Errorf("Expected the queen to attack d4")
	}
}

func TestBookKey(t *testing.T) {
	pos := NewPosition()
	key := pos.BookKey()
	if key != NewPosition().BookKey() {
		t.Error("BookKey is not deterministic")
	}

	m, _ := pos.ParseMove("g1f3")
	undo := pos.MakeMove(m)
	afterMove := pos.BookKey()
	undo()
	if afterMove == key {
		t.Error("BookKey should change after a move")
	}
	if pos.BookKey() != key {
		t.Error("BookKey not restored after undo")
	}

	noCastle := mustParse(t, "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w - - 0 1")
	if noCastle.BookKey() == key {
		t.Error("BookKey should depend on castling rights")
	}
}

func TestSAN(t *testing.T) {
	tests := []struct {
		name string
		fen  string
		move string
		san  string
	}{
		{"pawn push", StartFEN, "e2e4", "e4"},
		{"knight", StartFEN, "g1f3", "Nf3"},
		{"short castle", "r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1", "e1g1", "O-O"},
		{"long castle", "r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1", "e1c1", "O-O-O"},
		{"black castle", "r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R b KQkq - 0 1", "e8g8", "O-O"},
		{"promotion with check", "8/P7/8/8/8/8/8/k6K w - - 0 1", "a7a8q", "a8=Q+"},
		{"underpromotion", "8/P7/8/8/8/8/8/k6K w - - 0 1", "a7a8n", "a8=N"},
		{"en passant", "rnbqkbnr/ppp1p1pp/8/3pPp2/8/8/PPPP1PPP/RNBQKBNR w KQkq f6 0 3", "e5f6", "exf6"},
		{"file disambiguation", "k7/8/8/8/8/8/8/R4RK1 w - - 0 1", "a1d1", "Rad1"},
		{"rank disambiguation", "7k/8/8/R7/8/8/8/R5K1 w - - 0 1", "a1a3", "R1a3"},
		{"square disambiguation", "8/7k/8/8/8/Q7/8/Q1Q4K w - - 0 1", "a1b2", "Qa1b2"},
		{"checkmate", "6k1/5ppp/8/8/8/8/8/R5K1 w - - 0 1", "a1a8", "Ra8#"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			pos := mustParse(t, tc.fen)
			m, err := pos.ParseMove(tc.move)
			if err != nil {
				t.Fatalf("ParseMove(%s): %v", tc.move, err)
			}
			key := pos.Key()
			if got := pos.SAN(m); got != tc.san {
				t.Errorf("SAN(%s) = %s, want %s", tc.move, got, tc.san)
			}
			if pos.Key() != key {
				t.Error("SAN modified the position")
			}

			parsed, err := pos.ParseSAN(tc.san)
			if err != nil || parsed != m {
				t.Errorf("ParseSAN(%s) = %s, %v; want %s", tc.san, parsed, err, tc.move)
			}
		})
	}
}

// Every legal move must survive SAN and back.
func TestSANRoundTrip(t *testing.T) {
	for _, fen := range []string{
		StartFEN,
		"r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1",
		"r3k2r/Pppp1ppp/1b3nbN/nP6/BBP1P3/q4N2/Pp1P2PP/R2Q1RK1 w kq - 0 1",
		"rnbq1k1r/pp1Pbppp/2p5/8/2B5/8/PPP1NnPP/RNBQK2R w KQ - 1 8",
	} {
		pos := mustParse(t, fen)
		for _, m := range pos.LegalMoves() {
			san := pos.SAN(m)
			got, err := pos.ParseSAN(san)
			if err != nil || got != m {
				t.Errorf("%s: %s -> %s -> %s, %v", fen, m, san, got, err)
			}
		}
	}
}

func TestParseSANVariants(t *testing.T) {
	pos := mustParse(t, "r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1")
	tests := map[string]string{
		"0-0":    "e1g1",
		"0-0-0":  "e1c1",
		"O-O+":   "e1g1",
		"Nxf7":   "e5f7",
		"Nf7!?":  "e5f7",
		"Qxf6":   "f3f6",
		"dxe6":   "d5e6",
		"Bxa6":   "e2a6",
		"gxh3":   "g2h3",
		"Ng4":    "e5g4",
		"Kf1":    "e1f1",
		"Rb1":    "a1b1",
		"Rab1":   "a1b1",
		"Ra1b1":  "a1b1",
	}
	for san, want := range tests {
		m, err := pos.ParseSAN(san)
		if err != nil || m.String() != want {
			t.Errorf("ParseSAN(%s) = %s, %v; want %s", san, m, err, want)
		}
	}

	ambiguous := mustParse(t, "k7/8/8/8/8/8/8/R4RK1 w - - 0 1")
	for _, san := range []string{"", "Rd1", "Nf3", "e9", "a8=K", "Zd1", "R-d1"} {
		if _, err := ambiguous.ParseSAN(san); !errors.Is(err, ErrIllegalMove) {
			t.Errorf("ParseSAN(%q) = %v, want ErrIllegalMove", san, err)
		}
	}
}
