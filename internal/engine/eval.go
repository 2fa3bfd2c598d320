package engine

import (
	"golang.org/x/exp/constraints"

	"github.com/hailam/chesscore/internal/board"
)

// Piece values in centipawns
const (
	PawnValue   = 100
	KnightValue = 320
	BishopValue = 330
	RookValue   = 500
	QueenValue  = 900
	KingValue   = 20000
)

// MateScore is the magnitude of a checkmate score.
// Infinity lies beyond every reachable score and bounds the full window.
const (
	MateScore = 99999
	Infinity  = 1000000
)

var pieceValues = [board.PieceTypeCount]int{0, PawnValue, KnightValue, BishopValue, RookValue, QueenValue, KingValue}

// PieceValue returns the material value of a piece type.
func PieceValue(pt board.PieceType) int {
	return pieceValues[pt]
}

// Evaluation weights
const (
	bishopPairBonus        = 50
	doubledPawnPenalty     = 20
	isolatedPawnPenalty    = 20
	centerBonus            = 25
	passedPawnBonus        = 30
	rookOpenFileBonus      = 20
	outpostBonus           = 40
	shieldHolePenalty      = 10
	openFlankPenalty       = 20
	kingZonePenalty        = 10
	maxKingZoneAttacks     = 4
	stormStepBonus         = 5
	stormSupportBonus      = 3
	outpostDefenderBonus   = 10
	outpostDistancePenalty = 2
	seventhRankBonus       = 30
	bishopOpenFileBonus    = 5
	maxBishopOpenFile      = 20
	knightNoPawnPenalty    = 10
	imbalanceBonus         = 15
)

// Game phase weights; a full set of pieces is phase 24
const (
	knightPhase = 1
	bishopPhase = 1
	rookPhase   = 2
	queenPhase  = 4
	totalPhase  = 24
)

var centerSquares = [4]board.Square{board.D4, board.E4, board.D5, board.E5}

// Piece-square tables from White's side: index 0 is a1, the first row is rank 1.
// Black looks up the mirrored square.

var pawnPST = [64]int{
	0, 0, 0, 0, 0, 0, 0, 0,
	5, 10, 10, -20, -20, 10, 10, 5,
	5, -5, -10, 0, 0, -10, -5, 5,
	0, 0, 0, 20, 20, 0, 0, 0,
	5, 5, 10, 25, 25, 10, 5, 5,
	10, 10, 20, 30, 30, 20, 10, 10,
	50, 50, 50, 50, 50, 50, 50, 50,
	0, 0, 0, 0, 0, 0, 0, 0,
}

var knightPST = [64]int{
	-50, -40, -30, -30, -30, -30, -40, -50,
	-40, -20, 0, 5, 5, 0, -20, -40,
	-30, 5, 10, 15, 15, 10, 5, -30,
	-30, 0, 15, 20, 20, 15, 0, -30,
	-30, 5, 15, 20, 20, 15, 5, -30,
	-30, 0, 10, 15, 15, 10, 0, -30,
	-40, -20, 0, 0, 0, 0, -20, -40,
	-50, -40, -30, -30, -30, -30, -40, -50,
}

var bishopPST = [64]int{
	-20, -10, -10, -10, -10, -10, -10, -20,
	-10, 5, 0, 0, 0, 0, 5, -10,
	-10, 10, 10, 10, 10, 10, 10, -10,
	-10, 0, 10, 10, 10, 10, 0, -10,
	-10, 5, 5, 10, 10, 5, 5, -10,
	-10, 0, 5, 10, 10, 5, 0, -10,
	-10, 0, 0, 0, 0, 0, 0, -10,
	-20, -10, -10, -10, -10, -10, -10, -20,
}

var rookPST = [64]int{
	0, 0, 0, 5, 5, 0, 0, 0,
	-5, 0, 0, 0, 0, 0, 0, -5,
	-5, 0, 0, 0, 0, 0, 0, -5,
	-5, 0, 0, 0, 0, 0, 0, -5,
	-5, 0, 0, 0, 0, 0, 0, -5,
	-5, 0, 0, 0, 0, 0, 0, -5,
	5, 10, 10, 10, 10, 10, 10, 5,
	0, 0, 0, 0, 0, 0, 0, 0,
}

var queenPST = [64]int{
	-20, -10, -10, -5, -5, -10, -10, -20,
	-10, 0, 5, 0, 0, 0, 0, -10,
	-10, 5, 5, 5, 5, 5, 0, -10,
	0, 0, 5, 5, 5, 5, 0, -5,
	-5, 0, 5, 5, 5, 5, 0, -5,
	-10, 0, 5, 5, 5, 5, 0, -10,
	-10, 0, 0, 0, 0, 0, 0, -10,
	-20, -10, -10, -5, -5, -10, -10, -20,
}

var kingMidgamePST = [64]int{
	20, 30, 10, 0, 0, 10, 30, 20,
	20, 20, 0, 0, 0, 0, 20, 20,
	-10, -20, -20, -20, -20, -20, -20, -10,
	-20, -30, -30, -40, -40, -30, -30, -20,
	-30, -40, -40, -50, -50, -40, -40, -30,
	-30, -40, -40, -50, -50, -40, -40, -30,
	-30, -40, -40, -50, -50, -40, -40, -30,
	-30, -40, -40, -50, -50, -40, -40, -30,
}

var kingEndgamePST = [64]int{
	-50, -30, -30, -30, -30, -30, -30, -50,
	-30, -30, 0, 0, 0, 0, -30, -30,
	-30, -10, 20, 30, 30, 20, -10, -30,
	-30, -10, 30, 40, 40, 30, -10, -30,
	-30, -10, 30, 40, 40, 30, -10, -30,
	-30, -10, 20, 30, 30, 20, -10, -30,
	-30, -20, -10, 0, 0, -10, -20, -30,
	-50, -40, -30, -20, -20, -30, -40, -50,
}

var psts = [board.PieceTypeCount]*[64]int{
	board.Pawn:   &pawnPST,
	board.Knight: &knightPST,
	board.Bishop: &bishopPST,
	board.Rook:   &rookPST,
	board.Queen:  &queenPST,
}

func clamp[T constraints.Ordered](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func sign(c board.Color) int {
	if c == board.White {
		return 1
	}
	return -1
}

// pstSquare maps a square onto White's tables.
func pstSquare(c board.Color, sq board.Square) board.Square {
	if c == board.White {
		return sq
	}
	return sq.Mirror()
}

// forward returns the rank step towards the opponent.
func forward(c board.Color) int {
	if c == board.White {
		return 1
	}
	return -1
}

// Evaluate returns the static evaluation in centipawns, positive favouring White.
// Checkmate scores MateScore against the side to move; stalemate and
// insufficient material score zero.
func Evaluate(pos *board.Position) int {
	return evaluate(pos, nil)
}

// evaluate is Evaluate with the pawn terms served from pawns when it is
// non-nil.
func evaluate(pos *board.Position, pawns *PawnTable) int {
	moves := pos.LegalMoves()
	if len(moves) == 0 {
		if pos.InCheck() {
			return -sign(pos.SideToMove()) * MateScore
		}
		return 0
	}
	if pos.IsInsufficientMaterial() {
		return 0
	}

	e := evaluator{pos: pos, occupied: pos.Occupied()}
	e.attacks[board.White] = pos.AttackedBy(board.White)
	e.attacks[board.Black] = pos.AttackedBy(board.Black)
	e.allPawns = pos.Pieces(board.White, board.Pawn) | pos.Pieces(board.Black, board.Pawn)

	score := 0
	for _, c := range [2]board.Color{board.White, board.Black} {
		s := e.material(c) +
			e.kingPlacement(c, e.phase()) +
			e.bishopPair(c) +
			e.center(c) +
			e.openFileRooks(c) +
			e.outposts(c) +
			e.kingSafety(c) +
			e.pawnStorm(c) +
			e.advancedOutposts(c) +
			e.rookOnSeventh(c) +
			e.bishopsVersusKnights(c) +
			e.materialImbalance(c)
		score += sign(c) * s
	}

	score += e.pawnScore(pawns)
	score += sign(pos.SideToMove()) * mobility(moves, e.allPawns)
	return score
}

// EvaluateFor returns the static evaluation from color c's side.
func EvaluateFor(pos *board.Position, c board.Color) int {
	return sign(c) * Evaluate(pos)
}

// EvaluateRelative returns the static evaluation from the side to move's side,
// which is what negamax consumes.
func EvaluateRelative(pos *board.Position) int {
	return EvaluateFor(pos, pos.SideToMove())
}

type evaluator struct {
	pos      *board.Position
	occupied board.Bitboard
	allPawns board.Bitboard
	attacks  [2]board.Bitboard
}

// phase returns the remaining non-pawn material on a 0 (bare) to 24 (full) scale.
func (e *evaluator) phase() int {
	p := 0
	for _, c := range [2]board.Color{board.White, board.Black} {
		p += knightPhase * e.pos.Pieces(c, board.Knight).PopCount()
		p += bishopPhase * e.pos.Pieces(c, board.Bishop).PopCount()
		p += rookPhase * e.pos.Pieces(c, board.Rook).PopCount()
		p += queenPhase * e.pos.Pieces(c, board.Queen).PopCount()
	}
	return clamp(p, 0, totalPhase)
}

func (e *evaluator) material(c board.Color) int {
	score := 0
	for pt := board.Pawn; pt <= board.Queen; pt++ {
		for bb := e.pos.Pieces(c, pt); bb != 0; {
			sq := bb.PopLSB()
			score += pieceValues[pt] + psts[pt][pstSquare(c, sq)]
		}
	}
	return score
}

func (e *evaluator) kingPlacement(c board.Color, phase int) int {
	sq := pstSquare(c, e.pos.KingSquare(c))
	return (kingMidgamePST[sq]*phase + kingEndgamePST[sq]*(totalPhase-phase)) / totalPhase
}

func (e *evaluator) bishopPair(c board.Color) int {
	if e.pos.Pieces(c, board.Bishop).PopCount() >= 2 {
		return bishopPairBonus
	}
	return 0
}

// pawnScore returns the terms that depend on pawn placement alone, from
// White's view.
func (e *evaluator) pawnScore(pawns *PawnTable) int {
	var key uint64
	if pawns != nil {
		key = e.pos.PawnKey()
		if score, ok := pawns.Probe(key); ok {
			return score
		}
	}

	score := 0
	for _, c := range [2]board.Color{board.White, board.Black} {
		score += sign(c) * (e.pawnStructure(c) + e.passedPawns(c))
	}
	if pawns != nil {
		pawns.Store(key, score)
	}
	return score
}

// pawnStructure penalises doubled pawns per extra pawn and isolated pawn files.
func (e *evaluator) pawnStructure(c board.Color) int {
	pawns := e.pos.Pieces(c, board.Pawn)
	score := 0
	for f := 0; f < 8; f++ {
		cnt := (pawns & board.FileMask(f)).PopCount()
		if cnt == 0 {
			continue
		}
		if cnt > 1 {
			score -= doubledPawnPenalty * (cnt - 1)
		}
		if pawns&adjacentFiles(f) == 0 {
			score -= isolatedPawnPenalty
		}
	}
	return score
}

func adjacentFiles(f int) board.Bitboard {
	var bb board.Bitboard
	if f > 0 {
		bb |= board.FileMask(f - 1)
	}
	if f < 7 {
		bb |= board.FileMask(f + 1)
	}
	return bb
}

func (e *evaluator) center(c board.Color) int {
	own := e.pos.ByColor(c)
	score := 0
	for _, sq := range centerSquares {
		if own.IsSet(sq) {
			score += centerBonus
		}
	}
	return score
}

// frontSpan returns the squares ahead of sq on the given files, from c's side.
func frontSpan(c board.Color, sq board.Square, files board.Bitboard) board.Bitboard {
	var ranks board.Bitboard
	if c == board.White {
		for r := sq.Rank() + 1; r < 8; r++ {
			ranks |= board.RankMask(r)
		}
	} else {
		for r := sq.Rank() - 1; r >= 0; r-- {
			ranks |= board.RankMask(r)
		}
	}
	return ranks & files
}

func isPassedPawn(pos *board.Position, c board.Color, sq board.Square) bool {
	files := board.FileMask(sq.File()) | adjacentFiles(sq.File())
	return frontSpan(c, sq, files)&pos.Pieces(c.Other(), board.Pawn) == 0
}

func (e *evaluator) passedPawns(c board.Color) int {
	score := 0
	for bb := e.pos.Pieces(c, board.Pawn); bb != 0; {
		if isPassedPawn(e.pos, c, bb.PopLSB()) {
			score += passedPawnBonus
		}
	}
	return score
}

func (e *evaluator) openFileRooks(c board.Color) int {
	score := 0
	for bb := e.pos.Pieces(c, board.Rook); bb != 0; {
		sq := bb.PopLSB()
		if e.allPawns&board.FileMask(sq.File()) == 0 {
			score += rookOpenFileBonus
		}
	}
	return score
}

// outposts rewards minor pieces on ranks four to six that a pawn defends and
// no enemy pawn can ever attack.
func (e *evaluator) outposts(c board.Color) int {
	ownPawns := e.pos.Pieces(c, board.Pawn)
	enemyPawns := e.pos.Pieces(c.Other(), board.Pawn)
	score := 0
	for bb := e.pos.Pieces(c, board.Knight) | e.pos.Pieces(c, board.Bishop); bb != 0; {
		sq := bb.PopLSB()
		if rr := sq.RelativeRank(c); rr < 3 || rr > 5 {
			continue
		}
		if board.PawnAttacks(c.Other(), sq)&ownPawns == 0 {
			continue
		}
		if frontSpan(c, sq, adjacentFiles(sq.File()))&enemyPawns != 0 {
			continue
		}
		score += outpostBonus
	}
	return score
}

// kingSafety counts holes in the three files by three ranks in front of the
// king, an open flank on the h-file and attacked squares around the king.
func (e *evaluator) kingSafety(c board.Color) int {
	ksq := e.pos.KingSquare(c)
	kf, kr := ksq.File(), ksq.Rank()
	score := 0
	for df := -1; df <= 1; df++ {
		f := kf + df
		if f < 0 || f > 7 {
			continue
		}
		for dr := 1; dr <= 3; dr++ {
			r := kr + dr*forward(c)
			if r < 0 || r > 7 {
				continue
			}
			if !e.allPawns.IsSet(board.NewSquare(f, r)) {
				score -= shieldHolePenalty
			}
		}
	}
	if e.allPawns&board.FileMask(7) == 0 && kf >= 6 {
		score -= openFlankPenalty
	}
	attacked := (board.KingAttacks(ksq) & e.attacks[c.Other()]).PopCount()
	score -= kingZonePenalty * min(attacked, maxKingZoneAttacks)
	return score
}

// pawnStorm rewards pawns advancing on the files next to the enemy king.
func (e *evaluator) pawnStorm(c board.Color) int {
	ekf := e.pos.KingSquare(c.Other()).File()
	support := e.pos.Pieces(c, board.Pawn) | e.pos.Pieces(c, board.Knight) | e.pos.Pieces(c, board.Bishop)
	score := 0
	for bb := e.pos.Pieces(c, board.Pawn); bb != 0; {
		sq := bb.PopLSB()
		if abs(sq.File()-ekf) > 1 {
			continue
		}
		adv := sq.RelativeRank(c) - 3
		if adv <= 0 {
			continue
		}
		neighbours := 0
		f, r := sq.File(), sq.Rank()
		for _, d := range [4][2]int{{-1, 0}, {1, 0}, {0, 1}, {0, -1}} {
			nf, nr := f+d[0], r+d[1]
			if nf >= 0 && nf < 8 && nr >= 0 && nr < 8 && support.IsSet(board.NewSquare(nf, nr)) {
				neighbours++
			}
		}
		score += stormStepBonus*adv + stormSupportBonus*neighbours
	}
	return score
}

// advancedOutposts rewards minor pieces out of reach of enemy pawns by the
// number of own defenders, less a penalty for straying far from the king.
func (e *evaluator) advancedOutposts(c board.Color) int {
	ksq := e.pos.KingSquare(c)
	enemyPawns := e.pos.Pieces(c.Other(), board.Pawn)
	own := e.pos.ByColor(c)
	score := 0
	for bb := e.pos.Pieces(c, board.Knight) | e.pos.Pieces(c, board.Bishop); bb != 0; {
		sq := bb.PopLSB()
		if board.PawnAttacks(c, sq)&enemyPawns != 0 {
			continue
		}
		defenders := (e.pos.AttackersTo(sq, e.occupied) & own).PopCount()
		score += outpostDefenderBonus*defenders - outpostDistancePenalty*max(0, board.Distance(sq, ksq)-2)
	}
	return score
}

func (e *evaluator) rookOnSeventh(c board.Color) int {
	enemyPawns := e.pos.Pieces(c.Other(), board.Pawn)
	score := 0
	for bb := e.pos.Pieces(c, board.Rook); bb != 0; {
		sq := bb.PopLSB()
		if sq.RelativeRank(c) != 6 {
			continue
		}
		front := board.NewSquare(sq.File(), sq.Rank()+forward(c))
		if !enemyPawns.IsSet(front) {
			score += seventhRankBonus
		}
	}
	return score
}

// bishopsVersusKnights favours the bishop pair in open positions and
// penalises knights with no pawn ahead of them to lean on.
func (e *evaluator) bishopsVersusKnights(c board.Color) int {
	score := 0
	if e.pos.Pieces(c, board.Bishop).PopCount() >= 2 {
		openFiles := 0
		for f := 0; f < 8; f++ {
			if e.allPawns&board.FileMask(f) == 0 {
				openFiles++
			}
		}
		score += min(maxBishopOpenFile, bishopOpenFileBonus*openFiles)
	}
	for bb := e.pos.Pieces(c, board.Knight); bb != 0; {
		sq := bb.PopLSB()
		if frontSpan(c, sq, board.FileMask(sq.File()))&e.allPawns == 0 {
			score -= knightNoPawnPenalty
		}
	}
	return score
}

func (e *evaluator) materialImbalance(c board.Color) int {
	knights := e.pos.Pieces(c, board.Knight).PopCount()
	bishops := e.pos.Pieces(c, board.Bishop).PopCount()
	pawns := e.pos.Pieces(c, board.Pawn).PopCount()
	if knights >= 2 && bishops == 1 && pawns >= 1 {
		return imbalanceBonus
	}
	return 0
}

// mobility scores the side to move's legal moves, one point each, plus half a
// point per unit of destination quality: central squares count two, open
// files and edge files one each.
func mobility(moves []board.Move, allPawns board.Bitboard) int {
	quality := 0
	for _, m := range moves {
		to := m.To()
		f, r := to.File(), to.Rank()
		if f >= 2 && f <= 5 && r >= 2 && r <= 5 {
			quality += 2
		}
		if allPawns&board.FileMask(f) == 0 {
			quality++
		}
		if f == 0 || f == 7 {
			quality++
		}
	}
	return len(moves) + quality/2
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
