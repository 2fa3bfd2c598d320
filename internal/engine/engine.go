package engine

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/hailam/chesscore/internal/board"
)

// SearchInfo contains information about the current search.
type SearchInfo struct {
	Depth    int
	Score    int
	Nodes    uint64
	Time     time.Duration
	HashFull int // Permille of hash table used
	Move     board.Move
}

// SearchLimits specifies constraints on the search.
type SearchLimits struct {
	TimeLeft  time.Duration // Remaining clock time (0 = no clock)
	Increment time.Duration // Increment per move
	MovesToGo int           // Moves until the next time control (0 = treated as 1)
	MaxDepth  int           // Depth ceiling (0 = engine default)
}

// Result is the outcome of a search.
type Result struct {
	Move     board.Move
	Score    int // Relative to the side to move
	Depth    int // Deepest completed iteration
	Nodes    uint64
	FromBook bool
	Elapsed  time.Duration
}

// OpeningBook supplies precomputed moves for known positions.
type OpeningBook interface {
	Probe(pos *board.Position) (board.Move, error)
}

// Options configures an Engine.
type Options struct {
	TTBits   int          // log2 of transposition table slots
	MaxDepth int          // Depth ceiling when SearchLimits leaves it unset
	Fallback SearchLimits // Budget used by OpeningMove when the book misses
}

// DefaultFallback is the budget OpeningMove searches with when the book has
// no move for the position.
var DefaultFallback = SearchLimits{
	TimeLeft:  5 * time.Second,
	Increment: 200 * time.Millisecond,
	MovesToGo: 40,
	MaxDepth:  4,
}

// DefaultOptions returns the options used by New when fields are left zero.
func DefaultOptions() Options {
	return Options{
		TTBits:   DefaultTTBits,
		MaxDepth: 64,
		Fallback: DefaultFallback,
	}
}

// Aspiration window parameters
const (
	aspirationMinWindow = 50
	aspirationDivisor   = 10 // Window grows to |score|/10 for large scores
)

// Engine owns a search session: the transposition table, pawn table and move
// ordering heuristics persist between searches until Reset.
type Engine struct {
	id       string
	opts     Options
	tt       *TranspositionTable
	pawns    *PawnTable
	orderer  *MoveOrderer
	searcher *Searcher
	stopFlag atomic.Bool
	book     OpeningBook
	logger   zerolog.Logger
	now      func() time.Time

	// Callbacks
	OnInfo func(SearchInfo)
}

// New creates an engine. Zero option fields take their defaults.
func New(opts Options) *Engine {
	def := DefaultOptions()
	if opts.TTBits <= 0 {
		opts.TTBits = def.TTBits
	}
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = def.MaxDepth
	}
	if opts.Fallback == (SearchLimits{}) {
		opts.Fallback = def.Fallback
	}

	e := &Engine{
		id:      uuid.NewString(),
		opts:    opts,
		tt:      NewTranspositionTable(opts.TTBits),
		pawns:   NewPawnTable(DefaultPawnTableBits),
		orderer: NewMoveOrderer(),
		now:     time.Now,
	}
	e.searcher = NewSearcher(e.tt, e.pawns, e.orderer, &e.stopFlag)
	e.logger = log.With().Str("engine", e.id).Logger()
	e.logger.Debug().Int("ttSlots", e.tt.Size()).Int("maxDepth", opts.MaxDepth).Msg("engine-created")
	return e
}

// ID returns the engine session id.
func (e *Engine) ID() string {
	return e.id
}

// SetBook attaches an opening book. A nil book detaches it.
func (e *Engine) SetBook(b OpeningBook) {
	e.book = b
}

// Stop interrupts a running search. The search returns the result of the
// last completed iteration.
func (e *Engine) Stop() {
	e.stopFlag.Store(true)
}

// Reset clears the transposition and pawn tables and the killer, history and
// counter-move tables.
func (e *Engine) Reset() {
	e.tt.Clear()
	e.pawns.Clear()
	e.orderer.Clear()
	e.logger.Debug().Msg("engine-reset")
}

// Search returns the book move for pos if one is attached and knows the
// position, and otherwise the best move found by iterative deepening within
// limits. pos is not modified.
func (e *Engine) Search(ctx context.Context, pos *board.Position, limits SearchLimits) Result {
	start := e.now()
	if m, ok := e.probeBook(pos); ok {
		return Result{Move: m, FromBook: true, Elapsed: e.now().Sub(start)}
	}
	return e.iterate(ctx, pos, limits)
}

// OpeningMove plays from the book when possible and otherwise searches with
// the fallback budget.
func (e *Engine) OpeningMove(ctx context.Context, pos *board.Position) Result {
	return e.Search(ctx, pos, e.opts.Fallback)
}

func (e *Engine) probeBook(pos *board.Position) (board.Move, bool) {
	if e.book == nil {
		return board.NoMove, false
	}
	m, err := e.book.Probe(pos)
	if err != nil {
		e.logger.Debug().Err(err).Str("fen", pos.FEN()).Msg("book-miss")
		return board.NoMove, false
	}
	e.logger.Debug().Str("move", m.String()).Msg("book-hit")
	return m, true
}

// iterate is the iterative deepening driver. The deadline is only checked
// between depths, so one slow iteration can overrun its budget; Stop and ctx
// interrupt mid-iteration.
func (e *Engine) iterate(ctx context.Context, pos *board.Position, limits SearchLimits) Result {
	start := e.now()
	e.stopFlag.Store(false)

	root := pos.Copy()
	moves := root.LegalMoves()
	if len(moves) == 0 {
		return Result{Move: board.NoMove, Score: EvaluateRelative(root), Elapsed: e.now().Sub(start)}
	}

	maxDepth := limits.MaxDepth
	if maxDepth <= 0 {
		maxDepth = e.opts.MaxDepth
	}
	maxDepth = min(maxDepth, MaxPly-1)

	tm := newTimeManager(limits.TimeLeft, limits.Increment, limits.MovesToGo, e.now)
	e.searcher.InitSearch(ctx, root)

	var best Result
	prevScore := 0
	for depth := 1; depth <= maxDepth; depth++ {
		deadline := e.now().Add(tm.Allocate(root))

		window := max(aspirationMinWindow, abs(prevScore)/aspirationDivisor)
		alpha, beta := prevScore-window, prevScore+window
		move, score := e.searcher.SearchDepth(depth, alpha, beta)
		if !e.searcher.Stopped() && (score <= alpha || score >= beta) {
			e.logger.Debug().Int("depth", depth).Int("alpha", alpha).Int("beta", beta).Int("score", score).Msg("aspiration-fail")
			move, score = e.searcher.SearchDepth(depth, -Infinity, Infinity)
		}
		if e.searcher.Stopped() {
			e.logger.Debug().Int("depth", depth).Msg("iteration-interrupted")
			break
		}

		if move != board.NoMove {
			best.Move = move
			best.Score = score
			best.Depth = depth
			prevScore = score
		}

		elapsed := e.now().Sub(start)
		e.logger.Debug().
			Int("depth", depth).
			Int("score", score).
			Str("move", move.String()).
			Uint64("nodes", e.searcher.Nodes()).
			Float64("pawnHits", e.pawns.HitRate()).
			Dur("elapsed", elapsed).
			Msg("depth-complete")
		if e.OnInfo != nil {
			e.OnInfo(SearchInfo{
				Depth:    depth,
				Score:    best.Score,
				Nodes:    e.searcher.Nodes(),
				Time:     elapsed,
				HashFull: e.tt.HashFull(),
				Move:     best.Move,
			})
		}

		// Early termination: found mate
		if abs(score) >= MateScore {
			break
		}
		if e.now().After(deadline) {
			break
		}
	}

	if best.Move == board.NoMove {
		// Interrupted before the first iteration completed, or a drawn
		// position the search never needs a move for.
		best.Move = moves[0]
		best.Score = EvaluateRelative(root)
	}
	best.Nodes = e.searcher.Nodes()
	best.Elapsed = e.now().Sub(start)
	return best
}

// Perft counts the leaf nodes of the legal move tree to depth.
func Perft(pos *board.Position, depth int) uint64 {
	if depth == 0 {
		return 1
	}

	moves := pos.LegalMoves()
	if depth == 1 {
		return uint64(len(moves))
	}

	var nodes uint64
	for _, m := range moves {
		undo := pos.MakeMove(m)
		nodes += Perft(pos, depth-1)
		undo()
	}
	return nodes
}

// ScoreToString converts a side-relative score to a human-readable string.
func ScoreToString(score int) string {
	switch {
	case score >= MateScore:
		return "mate"
	case score <= -MateScore:
		return "mated"
	}
	return fmt.Sprintf("%+.2f", float64(score)/100)
}
