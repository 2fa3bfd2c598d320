package engine

import (
	"github.com/hailam/chesscore/internal/board"
)

// Quiescence constants
const (
	maxQuiescenceDepth  = 4
	quiescenceFutility  = 100 // Per remaining quiescence ply
	quiescenceSEEMargin = 50
)

// quiesce resolves captures until the position is quiet enough for the
// static evaluation. Fail-hard, side-to-move relative.
func (s *Searcher) quiesce(alpha, beta, qdepth, ply int) int {
	if s.visit() {
		return 0
	}

	pos := s.pos
	standPat := s.evaluate()
	if qdepth >= maxQuiescenceDepth || ply >= MaxPly {
		return standPat
	}
	if standPat+quiescenceFutility*(maxQuiescenceDepth-qdepth) < alpha {
		return standPat
	}

	if standPat >= beta {
		return beta
	}
	alpha = max(alpha, standPat)

	for _, m := range s.orderer.OrderCaptures(pos, ply, board.NoMove) {
		// Captures that cannot lift the score near alpha
		if standPat+SEE(pos, m)+quiescenceSEEMargin < alpha {
			continue
		}

		score := s.quiesceMove(m, alpha, beta, qdepth, ply)
		if s.Stopped() {
			return 0
		}
		if score >= beta {
			return beta
		}
		alpha = max(alpha, score)
	}
	return alpha
}

func (s *Searcher) quiesceMove(m board.Move, alpha, beta, qdepth, ply int) int {
	undo := s.pos.MakeMove(m)
	defer undo()

	return -s.quiesce(-beta, -alpha, qdepth+1, ply+1)
}
