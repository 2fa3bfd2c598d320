package engine

import (
	"context"
	"sync/atomic"

	"github.com/hailam/chesscore/internal/board"
)

// MaxPly bounds the recursion depth and sizes the per-ply heuristic tables.
const MaxPly = 128

// Pruning constants
const (
	multiCutDepth     = 6 // Minimum depth for multi-cut
	multiCutReduction = 3 // Depth reduction of the multi-cut probes
	multiCutMoves     = 3 // Moves probed by multi-cut
	multiCutRequired  = 2 // Fail-highs needed to prune the node

	lmrDepth = 3 // Minimum depth for late move reduction

	maxNullReduction = 3

	pollInterval = 2048 // Nodes between cancellation checks
)

// Razoring margins by remaining depth
var razorMargin = map[int]int{1: 200, 2: 200, 3: 150}

// LMP (Late Move Pruning) thresholds by depth
// At depth d, skip quiet moves once lmpThreshold[d] of them have been tried
var lmpThreshold = [4]int{0, 4, 6, 10}

// Searcher runs the negascout search over a single position.
// The transposition table, pawn table and move orderer outlive a search and
// are shared with the owning Engine.
type Searcher struct {
	pos     *board.Position
	tt      *TranspositionTable
	pawns   *PawnTable
	orderer *MoveOrderer

	ctx      context.Context
	stopFlag *atomic.Bool
	nodes    uint64

	// afterNull[ply] is set when the move leading to ply was a null move
	afterNull [MaxPly + 1]bool
}

// NewSearcher creates a searcher over the given tables. pawns may be nil to
// evaluate without caching. stopFlag is shared with whoever may interrupt the
// search.
func NewSearcher(tt *TranspositionTable, pawns *PawnTable, orderer *MoveOrderer, stopFlag *atomic.Bool) *Searcher {
	return &Searcher{
		tt:       tt,
		pawns:    pawns,
		orderer:  orderer,
		stopFlag: stopFlag,
		ctx:      context.Background(),
	}
}

// InitSearch prepares the searcher for a new root position.
func (s *Searcher) InitSearch(ctx context.Context, pos *board.Position) {
	s.pos = pos
	s.ctx = ctx
	s.nodes = 0
	s.afterNull = [MaxPly + 1]bool{}
}

// Nodes returns the number of nodes visited since InitSearch.
func (s *Searcher) Nodes() uint64 {
	return s.nodes
}

// Stopped reports whether the search was interrupted.
func (s *Searcher) Stopped() bool {
	return s.stopFlag.Load()
}

// SearchDepth searches the root position to depth within (alpha, beta).
// The result is meaningless when Stopped reports true afterwards.
func (s *Searcher) SearchDepth(depth, alpha, beta int) (board.Move, int) {
	return s.negascout(depth, alpha, beta, 0)
}

// evaluate returns the static evaluation relative to the side to move.
func (s *Searcher) evaluate() int {
	return sign(s.pos.SideToMove()) * evaluate(s.pos, s.pawns)
}

// visit counts a node and polls for cancellation every pollInterval nodes.
func (s *Searcher) visit() bool {
	s.nodes++
	if s.nodes%pollInterval == 0 && s.ctx.Err() != nil {
		s.stopFlag.Store(true)
	}
	return s.stopFlag.Load()
}

// negascout is a fail-hard principal variation search. Scores are relative to
// the side to move.
func (s *Searcher) negascout(depth, alpha, beta, ply int) (board.Move, int) {
	if s.visit() {
		return board.NoMove, 0
	}

	pos := s.pos
	moves := pos.LegalMoves()
	if len(moves) == 0 || pos.IsInsufficientMaterial() {
		return board.NoMove, s.evaluate()
	}
	if ply >= MaxPly {
		return board.NoMove, s.evaluate()
	}

	inCheck := pos.InCheck()
	key := pos.Key()

	// Razoring
	if margin, ok := razorMargin[depth]; ok && ply > 0 && !inCheck {
		if static := s.evaluate(); static+margin < alpha {
			return board.NoMove, static
		}
	}

	var ttMove board.Move
	if e, ok := s.tt.Entry(key); ok {
		ttMove = e.BestMove
	}

	// Multi-cut
	if depth >= multiCutDepth && ply > 0 {
		cuts := 0
		ordered := s.orderer.OrderMoves(pos, moves, ply, ttMove)
		for _, m := range ordered[:min(multiCutMoves, len(ordered))] {
			score := s.searchMove(m, depth-multiCutReduction, beta-1, beta, ply)
			if s.Stopped() {
				return board.NoMove, 0
			}
			if score >= beta {
				cuts++
				if cuts >= multiCutRequired {
					return board.NoMove, beta
				}
			}
		}
	}

	// The root always searches so that it can report a move.
	if ply > 0 {
		if score, ok := s.tt.Probe(key, depth, alpha, beta); ok {
			return ttMove, score
		}
	}

	if depth <= 0 {
		return board.NoMove, s.quiesce(alpha, beta, 0, ply)
	}

	// Null move pruning
	if ply > 0 && !inCheck && !s.afterNull[ply] && pos.HasNonPawnMaterial(pos.SideToMove()) {
		r := min(maxNullReduction, max(1, depth/4))
		if depth > r+1 {
			score := s.searchNull(depth-r-1, beta, ply)
			if s.Stopped() {
				return board.NoMove, 0
			}
			if score >= beta {
				return board.NoMove, beta
			}
		}
	}

	bestMove := board.NoMove
	quietsTried := 0
	for i, m := range s.orderer.OrderMoves(pos, moves, ply, ttMove) {
		quiet := pos.IsQuiet(m)
		givesCheck := pos.GivesCheck(m)

		// Late move pruning
		if quiet && !givesCheck {
			if ply > 0 && !inCheck && depth < len(lmpThreshold) && quietsTried >= lmpThreshold[depth] {
				continue
			}
			quietsTried++
		}

		ext := 0
		if givesCheck && ply < MaxPly/2 {
			ext = 1
		}
		newDepth := depth - 1 + ext

		var score int
		if i == 0 {
			score = s.searchMove(m, newDepth, alpha, beta, ply)
		} else {
			if quiet && !givesCheck && depth >= lmrDepth {
				score = s.searchMove(m, depth-2, alpha, alpha+1, ply)
				if score > alpha && !s.Stopped() {
					score = s.searchMove(m, newDepth, alpha, alpha+1, ply)
				}
			} else {
				score = s.searchMove(m, newDepth, alpha, alpha+1, ply)
			}
			if score > alpha && score < beta && !s.Stopped() {
				score = s.searchMove(m, newDepth, alpha, beta, ply)
			}
		}
		if s.Stopped() {
			return board.NoMove, 0
		}

		if score > alpha {
			alpha = score
			bestMove = m
		}
		if alpha >= beta {
			s.tt.Store(key, depth, beta, TTLowerBound, m)
			s.orderer.RecordCutoff(m, ply, depth, quiet)
			return m, beta
		}
	}

	if bestMove != board.NoMove {
		s.orderer.RecordBest(bestMove, depth)
		s.tt.Store(key, depth, alpha, TTExact, bestMove)
	} else {
		s.tt.Store(key, depth, alpha, TTUpperBound, board.NoMove)
	}
	return bestMove, alpha
}

// searchMove plays m, searches the reply and returns the score from the
// mover's side.
func (s *Searcher) searchMove(m board.Move, depth, alpha, beta, ply int) int {
	undo := s.pos.MakeMove(m)
	defer undo()

	s.afterNull[ply+1] = false
	_, score := s.negascout(depth, -beta, -alpha, ply+1)
	return -score
}

// searchNull passes the turn and searches with a null window around beta.
func (s *Searcher) searchNull(depth, beta, ply int) int {
	undo := s.pos.MakeNullMove()
	defer undo()

	s.afterNull[ply+1] = true
	_, score := s.negascout(depth, -beta, -beta+1, ply+1)
	return -score
}
