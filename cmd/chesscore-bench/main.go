package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"

	"github.com/hailam/chesscore/internal/board"
	"github.com/hailam/chesscore/internal/config"
	"github.com/hailam/chesscore/internal/engine"
)

var (
	configPath = flag.String("config", "", "JSON configuration file")
	fenFile    = flag.String("fens", "", "file with one FEN per line (default: built-in suite)")
	depth      = flag.Int("depth", 6, "search depth per position")
	moveTime   = flag.Duration("movetime", 0, "time limit per position (0 = depth only)")
	jobs       = flag.Int("jobs", runtime.NumCPU(), "positions searched in parallel")
	ttBits     = flag.Int("ttbits", 0, "log2 transposition table slots per engine (overrides config)")
)

var suite = []string{
	board.StartFEN,
	"r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1",
	"8/2p5/3p4/KP5r/1R3p1k/8/4P1P1/8 w - - 0 1",
	"r1bqkbnr/pppp1ppp/2n5/4p3/4P3/5N2/PPPP1PPP/RNBQKB1R w KQkq - 2 3",
	"rnbq1k1r/pp1Pbppp/2p5/8/2B5/8/PPP1NnPP/RNBQK2R w KQ - 1 8",
	"6k1/5ppp/8/8/8/8/8/R5K1 w - - 0 1",
	"4k3/7p/8/3r4/8/4N3/P7/4K3 w - - 0 1",
}

type benchResult struct {
	fen string
	res engine.Result
}

func main() {
	flag.Parse()

	cfg, err := config.LoadOptional(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("load-config")
	}
	cfg.SetupLogger(os.Stderr)

	fens := suite
	if *fenFile != "" {
		if fens, err = readFENs(*fenFile); err != nil {
			log.Fatal().Err(err).Msg("read-fens")
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	opts := cfg.EngineOptions()
	if *ttBits > 0 {
		opts.TTBits = *ttBits
	}

	start := time.Now()
	results, err := run(ctx, opts, fens)
	if err != nil {
		log.Fatal().Err(err).Msg("bench")
	}

	for i, r := range results {
		fmt.Printf("%3d  %-6s %8s  depth %2d  nodes %10d  %8v  %s\n",
			i+1, r.res.Move, engine.ScoreToString(r.res.Score), r.res.Depth,
			r.res.Nodes, r.res.Elapsed.Round(time.Millisecond), r.fen)
	}

	elapsed := time.Since(start)
	nodes := lo.SumBy(results, func(r benchResult) uint64 { return r.res.Nodes })
	fmt.Printf("\nPositions: %d\nNodes: %d\nTime: %v\n", len(results), nodes, elapsed.Round(time.Millisecond))
	if elapsed > 0 {
		fmt.Printf("NPS: %.0f\n", float64(nodes)/elapsed.Seconds())
	}
}

// run searches every position with its own engine. Engines share nothing, so
// they run in parallel up to the jobs limit.
func run(ctx context.Context, opts engine.Options, fens []string) ([]benchResult, error) {
	positions := make([]*board.Position, len(fens))
	for i, fen := range fens {
		pos, err := board.ParseFEN(fen)
		if err != nil {
			return nil, fmt.Errorf("position %d: %w", i+1, err)
		}
		positions[i] = pos
	}

	limits := engine.SearchLimits{MaxDepth: *depth}
	if *moveTime > 0 {
		limits.TimeLeft = *moveTime
		limits.MovesToGo = 1
	}

	results := make([]benchResult, len(positions))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, *jobs))
	for i, pos := range positions {
		i, pos := i, pos
		g.Go(func() error {
			searchCtx, cancel := ctx, context.CancelFunc(func() {})
			if *moveTime > 0 {
				searchCtx, cancel = context.WithTimeout(ctx, *moveTime)
			}
			defer cancel()

			eng := engine.New(opts)
			res := eng.Search(searchCtx, pos, limits)
			log.Debug().Int("position", i+1).Str("move", res.Move.String()).Int("depth", res.Depth).Msg("bench-position")
			results[i] = benchResult{fen: fens[i], res: res}
			return ctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func readFENs(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lines = append(lines, strings.TrimSpace(scanner.Text()))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	fens := lo.Filter(lines, func(line string, _ int) bool {
		return line != "" && !strings.HasPrefix(line, "#")
	})
	if len(fens) == 0 {
		return nil, fmt.Errorf("%s: no positions", path)
	}
	return fens, nil
}
