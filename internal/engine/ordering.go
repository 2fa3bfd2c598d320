package engine

import (
	"cmp"
	"slices"

	"github.com/hailam/chesscore/internal/board"
)

// Move ordering priorities
const (
	TTMoveScore      = 10000000 // TT move gets highest priority
	CounterMoveScore = 9750000  // Last cutoff move at this ply
	KillerScore1     = 9000000  // Most recent killer
	KillerScore2     = 8000000  // Older killers
	SEEScale         = 100      // Captures score SEE*SEEScale + history
)

// MaxKillers is the number of killer moves kept per ply.
const MaxKillers = 4

// MoveOrderer holds the killer, history and counter-move tables.
// It lives as long as the engine session and is only wiped by Clear.
type MoveOrderer struct {
	// Killer moves (quiet moves that caused beta cutoffs), most recent first
	killers [MaxPly][MaxKillers]board.Move

	// History heuristic indexed by the 16-bit move
	history [1 << 16]int

	// Counter move heuristic (indexed by ply)
	counterMoves [MaxPly]board.Move
}

// NewMoveOrderer creates a new move orderer.
func NewMoveOrderer() *MoveOrderer {
	return &MoveOrderer{}
}

// Clear wipes all heuristic tables.
func (mo *MoveOrderer) Clear() {
	*mo = MoveOrderer{}
}

type scoredMove struct {
	move  board.Move
	score int
}

// OrderMoves returns moves sorted by descending ordering score.
// Moves with equal scores keep their generation order.
func (mo *MoveOrderer) OrderMoves(pos *board.Position, moves []board.Move, ply int, ttMove board.Move) []board.Move {
	scored := make([]scoredMove, len(moves))
	for i, m := range moves {
		scored[i] = scoredMove{move: m, score: mo.ScoreMove(pos, m, ply, ttMove)}
	}
	slices.SortStableFunc(scored, func(a, b scoredMove) int {
		return cmp.Compare(b.score, a.score)
	})

	ordered := make([]board.Move, len(scored))
	for i, sm := range scored {
		ordered[i] = sm.move
	}
	return ordered
}

// OrderCaptures returns the position's captures in ordering sequence.
func (mo *MoveOrderer) OrderCaptures(pos *board.Position, ply int, ttMove board.Move) []board.Move {
	var captures []board.Move
	for _, m := range mo.OrderMoves(pos, pos.LegalMoves(), ply, ttMove) {
		if pos.IsCapture(m) {
			captures = append(captures, m)
		}
	}
	return captures
}

// ScoreMove returns the ordering score for a single move.
func (mo *MoveOrderer) ScoreMove(pos *board.Position, m board.Move, ply int, ttMove board.Move) int {
	if m == ttMove && m != board.NoMove {
		return TTMoveScore
	}

	if ply < MaxPly {
		if m == mo.counterMoves[ply] {
			return CounterMoveScore
		}
		killers := &mo.killers[ply]
		if m == killers[0] {
			return KillerScore1
		}
		for _, k := range killers[1:] {
			if m == k && k != board.NoMove {
				return KillerScore2
			}
		}
	}

	if pos.IsCapture(m) {
		return SEE(pos, m)*SEEScale + mo.history[m]
	}
	return mo.history[m]
}

// RecordCutoff updates the tables after m caused a beta cutoff.
// Only quiet moves become killers.
func (mo *MoveOrderer) RecordCutoff(m board.Move, ply, depth int, quiet bool) {
	if ply < MaxPly {
		mo.counterMoves[ply] = m
		if quiet {
			mo.updateKillers(m, ply)
		}
	}
	mo.history[m] += depth * depth * 2
}

// RecordBest rewards the best move of a node that did not cut off.
func (mo *MoveOrderer) RecordBest(m board.Move, depth int) {
	mo.history[m] += depth * depth
}

// updateKillers moves m to the front of the ply's killer list, dropping any
// earlier copy of it and the least recent entry when full.
func (mo *MoveOrderer) updateKillers(m board.Move, ply int) {
	killers := &mo.killers[ply]
	pos := len(killers) - 1
	for i, k := range killers {
		if k == m {
			pos = i
			break
		}
	}
	copy(killers[1:pos+1], killers[:pos])
	killers[0] = m
}

// Killers returns the killer moves stored for a ply, most recent first.
func (mo *MoveOrderer) Killers(ply int) []board.Move {
	if ply >= MaxPly {
		return nil
	}
	var out []board.Move
	for _, k := range mo.killers[ply] {
		if k != board.NoMove {
			out = append(out, k)
		}
	}
	return out
}

// CounterMove returns the last cutoff move at a ply.
func (mo *MoveOrderer) CounterMove(ply int) board.Move {
	if ply >= MaxPly {
		return board.NoMove
	}
	return mo.counterMoves[ply]
}

// History returns the accumulated history score of a move.
func (mo *MoveOrderer) History(m board.Move) int {
	return mo.history[m]
}
