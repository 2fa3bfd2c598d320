// Package uci implements the Universal Chess Interface front-end.
package uci

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hailam/chesscore/internal/board"
	"github.com/hailam/chesscore/internal/book"
	"github.com/hailam/chesscore/internal/engine"
)

// UCI implements the Universal Chess Interface protocol.
type UCI struct {
	engine   *engine.Engine
	position *board.Position

	// Opening book configuration
	ownBook  bool
	bookFile string
	book     engine.OpeningBook

	maxDepth int

	// Search state
	searchDone   chan struct{}
	cancelSearch context.CancelFunc

	in    io.Reader
	out   io.Writer
	outMu sync.Mutex
}

// New creates a new UCI protocol handler reading commands from in and
// writing responses to out.
func New(eng *engine.Engine, in io.Reader, out io.Writer) *UCI {
	return &UCI{
		engine:   eng,
		position: board.NewPosition(),
		in:       in,
		out:      out,
	}
}

// SetBook attaches an opening book and enables it.
func (u *UCI) SetBook(b engine.OpeningBook) {
	u.book = b
	u.ownBook = b != nil
	u.applyBook()
}

func (u *UCI) printf(format string, args ...any) {
	u.outMu.Lock()
	defer u.outMu.Unlock()
	fmt.Fprintf(u.out, format, args...)
}

// Run processes commands until "quit" or the end of input. At end of input a
// running search is allowed to finish.
func (u *UCI) Run(ctx context.Context) error {
	scanner := bufio.NewScanner(u.in)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		parts := strings.Fields(line)
		cmd := parts[0]
		args := parts[1:]

		switch cmd {
		case "uci":
			u.handleUCI()
		case "isready":
			u.printf("readyok\n")
		case "ucinewgame":
			u.handleNewGame()
		case "position":
			u.handlePosition(args)
		case "go":
			u.handleGo(ctx, args)
		case "stop":
			u.handleStop()
		case "quit":
			u.handleStop()
			return nil
		case "setoption":
			u.handleSetOption(args)
		// Debug commands
		case "d":
			u.printf("%s\nFen: %s\nKey: %016x\n", u.position.String(), u.position.FEN(), u.position.Key())
		case "perft":
			u.handlePerft(args)
		default:
			log.Debug().Str("command", cmd).Msg("unknown-command")
		}
	}

	u.waitSearch()
	return scanner.Err()
}

// handleUCI responds to the "uci" command.
func (u *UCI) handleUCI() {
	u.printf("id name ChessCore\n")
	u.printf("id author ChessCore Team\n")
	u.printf("\n")
	u.printf("option name OwnBook type check default %t\n", u.ownBook)
	u.printf("option name BookFile type string default <empty>\n")
	u.printf("option name MaxDepth type spin default 0 min 0 max %d\n", engine.MaxPly-1)
	u.printf("uciok\n")
}

// handleNewGame resets the engine for a new game.
func (u *UCI) handleNewGame() {
	u.handleStop()
	u.engine.Reset()
	u.position = board.NewPosition()
}

// handlePosition parses and sets up a position.
// Formats:
//   - position startpos
//   - position startpos moves e2e4 e7e5
//   - position fen <fen>
//   - position fen <fen> moves e2e4
func (u *UCI) handlePosition(args []string) {
	if len(args) == 0 {
		return
	}

	// Find "moves" keyword
	movesAt := len(args)
	for i, arg := range args {
		if arg == "moves" {
			movesAt = i
			break
		}
	}

	var pos *board.Position
	switch args[0] {
	case "startpos":
		pos = board.NewPosition()
	case "fen":
		var err error
		pos, err = board.ParseFEN(strings.Join(args[1:movesAt], " "))
		if err != nil {
			u.printf("info string Invalid FEN: %v\n", err)
			return
		}
	default:
		return
	}

	if movesAt < len(args) {
		for _, moveStr := range args[movesAt+1:] {
			m, err := pos.ParseMove(moveStr)
			if err != nil {
				u.printf("info string Invalid move: %s\n", moveStr)
				return
			}
			pos.MakeMove(m)
		}
	}
	u.position = pos
}

// GoOptions holds parsed "go" command options.
type GoOptions struct {
	Depth     int
	MoveTime  time.Duration
	Infinite  bool
	WTime     time.Duration
	BTime     time.Duration
	WInc      time.Duration
	BInc      time.Duration
	MovesToGo int
}

// handleGo starts a search with the given parameters.
func (u *UCI) handleGo(ctx context.Context, args []string) {
	u.handleStop()

	opts := parseGoOptions(args)
	limits := u.calculateLimits(opts)

	var searchCtx context.Context
	var cancel context.CancelFunc
	if opts.MoveTime > 0 {
		searchCtx, cancel = context.WithTimeout(ctx, opts.MoveTime)
	} else {
		searchCtx, cancel = context.WithCancel(ctx)
	}
	u.cancelSearch = cancel
	u.searchDone = make(chan struct{})

	u.engine.OnInfo = u.sendInfo
	pos := u.position.Copy()
	done := u.searchDone

	go func() {
		defer close(done)
		defer cancel()

		res := u.engine.Search(searchCtx, pos, limits)
		if res.FromBook {
			u.printf("info string book move\n")
		}
		if res.Move == board.NoMove {
			// Only for checkmate/stalemate (no legal moves)
			u.printf("bestmove 0000\n")
			return
		}
		u.printf("bestmove %s\n", res.Move)
	}()
}

func parseGoOptions(args []string) GoOptions {
	opts := GoOptions{}

	next := func(i int) int {
		if i+1 < len(args) {
			n, _ := strconv.Atoi(args[i+1])
			return n
		}
		return 0
	}
	ms := func(i int) time.Duration {
		return time.Duration(next(i)) * time.Millisecond
	}

	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "depth":
			opts.Depth = next(i)
			i++
		case "movetime":
			opts.MoveTime = ms(i)
			i++
		case "infinite":
			opts.Infinite = true
		case "wtime":
			opts.WTime = ms(i)
			i++
		case "btime":
			opts.BTime = ms(i)
			i++
		case "winc":
			opts.WInc = ms(i)
			i++
		case "binc":
			opts.BInc = ms(i)
			i++
		case "movestogo":
			opts.MovesToGo = next(i)
			i++
		}
	}

	return opts
}

// calculateLimits converts GoOptions to engine.SearchLimits.
func (u *UCI) calculateLimits(opts GoOptions) engine.SearchLimits {
	limits := engine.SearchLimits{MaxDepth: u.maxDepth}
	if opts.Depth > 0 {
		limits.MaxDepth = opts.Depth
	}

	switch {
	case opts.Infinite:
		limits.MaxDepth = engine.MaxPly - 1
	case opts.MoveTime > 0:
		// The context deadline enforces movetime; the bank keeps the driver
		// from starting depths it cannot finish.
		limits.TimeLeft = opts.MoveTime
		limits.MovesToGo = 1
	default:
		limits.TimeLeft, limits.Increment = opts.WTime, opts.WInc
		if u.position.SideToMove() == board.Black {
			limits.TimeLeft, limits.Increment = opts.BTime, opts.BInc
		}
		limits.MovesToGo = opts.MovesToGo
		if limits.MovesToGo == 0 && limits.TimeLeft > 0 {
			limits.MovesToGo = estimateMovesRemaining(u.position)
		}
	}

	return limits
}

// estimateMovesRemaining estimates remaining moves based on piece count.
func estimateMovesRemaining(pos *board.Position) int {
	totalPieces := pos.Occupied().PopCount()

	if totalPieces > 24 {
		return 40 // Opening/early middlegame
	} else if totalPieces > 12 {
		return 30 // Middlegame
	}
	return 20 // Endgame
}

// uciScore formats a score for an info line. Mate scores carry no distance,
// so they are reported as mate in one for the winning side.
func uciScore(score int) string {
	switch {
	case score >= engine.MateScore:
		return "score mate 1"
	case score <= -engine.MateScore:
		return "score mate -1"
	}
	return fmt.Sprintf("score cp %d", score)
}

// sendInfo outputs search info in UCI format.
func (u *UCI) sendInfo(info engine.SearchInfo) {
	parts := []string{
		fmt.Sprintf("depth %d", info.Depth),
		uciScore(info.Score),
		fmt.Sprintf("nodes %d", info.Nodes),
		fmt.Sprintf("time %d", info.Time.Milliseconds()),
	}

	// NPS
	if info.Time > 0 {
		nps := uint64(float64(info.Nodes) / info.Time.Seconds())
		parts = append(parts, fmt.Sprintf("nps %d", nps))
	}

	// Hash fullness
	if info.HashFull > 0 {
		parts = append(parts, fmt.Sprintf("hashfull %d", info.HashFull))
	}

	if info.Move != board.NoMove {
		parts = append(parts, "pv "+info.Move.String())
	}

	u.printf("info %s\n", strings.Join(parts, " "))
}

// handleStop stops the current search and waits for its bestmove.
func (u *UCI) handleStop() {
	if u.searchDone == nil {
		return
	}
	u.engine.Stop()
	u.cancelSearch()
	u.waitSearch()
}

func (u *UCI) waitSearch() {
	if u.searchDone == nil {
		return
	}
	<-u.searchDone
	u.searchDone = nil
}

// handleSetOption processes "setoption" commands.
func (u *UCI) handleSetOption(args []string) {
	// Format: setoption name <name> value <value>
	var name, value []string
	var target *[]string
	for _, arg := range args {
		switch arg {
		case "name":
			target = &name
		case "value":
			target = &value
		default:
			if target != nil {
				*target = append(*target, arg)
			}
		}
	}
	val := strings.Join(value, " ")

	switch strings.ToLower(strings.Join(name, " ")) {
	case "ownbook":
		u.ownBook = strings.ToLower(val) == "true"
		u.applyBook()
	case "bookfile":
		u.bookFile = val
		if val == "" || val == "<empty>" {
			u.book = nil
			u.applyBook()
			return
		}
		b, err := book.LoadFile(val)
		if err != nil {
			u.printf("info string Failed to load book: %v\n", err)
			return
		}
		u.book = b
		u.applyBook()
		u.printf("info string Book loaded: %d positions\n", b.Size())
	case "maxdepth":
		depth, err := strconv.Atoi(val)
		if err != nil || depth < 0 || depth >= engine.MaxPly {
			u.printf("info string Invalid MaxDepth: %s\n", val)
			return
		}
		u.maxDepth = depth
	}
}

func (u *UCI) applyBook() {
	if u.ownBook && u.book != nil {
		u.engine.SetBook(u.book)
		return
	}
	u.engine.SetBook(nil)
}

// handlePerft runs a perft test.
func (u *UCI) handlePerft(args []string) {
	depth := 5
	if len(args) > 0 {
		depth, _ = strconv.Atoi(args[0])
	}

	start := time.Now()
	nodes := engine.Perft(u.position.Copy(), depth)
	elapsed := time.Since(start)

	u.printf("Nodes: %d\n", nodes)
	u.printf("Time: %v\n", elapsed)
	if elapsed > 0 {
		u.printf("NPS: %.0f\n", float64(nodes)/elapsed.Seconds())
	}
}
