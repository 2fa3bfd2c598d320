package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hailam/chesscore/internal/board"
	"github.com/hailam/chesscore/internal/book"
	"github.com/hailam/chesscore/internal/config"
	"github.com/hailam/chesscore/internal/engine"
	"github.com/hailam/chesscore/internal/storage"
)

var (
	configPath = flag.String("config", "", "JSON configuration file")
	color      = flag.String("color", "white", "side the human plays (white or black)")
	fen        = flag.String("fen", board.StartFEN, "starting position")
	noStats    = flag.Bool("nostats", false, "ignore stored settings and do not record the result")
)

func main() {
	flag.Parse()

	// Stored settings seed the configuration when no file is given.
	var st *storage.Storage
	if !*noStats {
		var err error
		if st, err = storage.OpenDefault(); err != nil {
			log.Warn().Err(err).Msg("storage unavailable")
		} else {
			defer st.Close()
		}
	}

	cfg, err := config.LoadOptional(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("load-config")
	}
	if *configPath == "" && st != nil {
		if settings, err := st.LoadSettings(); err == nil {
			applySettings(&cfg, settings)
		}
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("validate-config")
	}
	cfg.SetupLogger(os.Stderr)

	human := board.White
	switch strings.ToLower(*color) {
	case "white", "w":
	case "black", "b":
		human = board.Black
	default:
		log.Fatal().Str("color", *color).Msg("unknown color")
	}

	pos, err := board.ParseFEN(*fen)
	if err != nil {
		log.Fatal().Err(err).Msg("parse-fen")
	}

	eng := engine.New(cfg.EngineOptions())
	if cfg.OwnBook {
		b, closeBook, err := book.Open(cfg.BookFile, cfg.BookDB)
		if err != nil {
			log.Warn().Err(err).Msg("opening book not loaded")
		}
		defer closeBook()
		if b != nil {
			eng.SetBook(b)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	g := &game{
		pos:   pos,
		eng:   eng,
		human: human,
		in:    bufio.NewScanner(os.Stdin),
		out:   os.Stdout,
	}
	start := time.Now()
	outcome := g.play(ctx)
	fmt.Fprintln(g.out, "Game over:", outcome)

	if st == nil || outcome == abandoned {
		return
	}
	recordResult(st, outcome, human, time.Since(start))
}

func applySettings(cfg *config.Config, s *storage.Settings) {
	cfg.OwnBook = s.OwnBook
	if s.BookFile != "" {
		cfg.BookFile = s.BookFile
	}
	if s.MaxDepth > 0 {
		cfg.MaxDepth = s.MaxDepth
	}
	if s.TTBits > 0 {
		cfg.TTBits = s.TTBits
	}
}

type result int

const (
	abandoned result = iota
	whiteWins
	blackWins
	draw
)

func (r result) String() string {
	switch r {
	case whiteWins:
		return "1-0"
	case blackWins:
		return "0-1"
	case draw:
		return "1/2-1/2"
	}
	return "*"
}

type game struct {
	pos   *board.Position
	eng   *engine.Engine
	human board.Color
	in    *bufio.Scanner
	out   io.Writer
}

// play alternates human and engine moves until the game ends or the human
// quits.
func (g *game) play(ctx context.Context) result {
	fmt.Fprintf(g.out, "%s\n\n", g.pos)
	for {
		if r, over := g.outcome(); over {
			return r
		}

		if g.pos.SideToMove() == g.human {
			m, ok := g.readMove()
			if !ok {
				return abandoned
			}
			g.pos.MakeMove(m)
		} else {
			res := g.eng.OpeningMove(ctx, g.pos)
			if ctx.Err() != nil {
				return abandoned
			}
			if res.Move == board.NoMove {
				fmt.Fprintln(g.out, "No moves left!")
				return abandoned
			}
			source := "search"
			if res.FromBook {
				source = "book"
			}
			fmt.Fprintf(g.out, "%s plays %s  |  Eval = %s (%s, depth %d)\n",
				g.pos.SideToMove(), g.pos.SAN(res.Move), engine.ScoreToString(res.Score), source, res.Depth)
			g.pos.MakeMove(res.Move)
		}
		fmt.Fprintf(g.out, "%s\n\n", g.pos)
	}
}

func (g *game) outcome() (result, bool) {
	switch {
	case g.pos.IsCheckmate():
		if g.pos.SideToMove() == board.White {
			return blackWins, true
		}
		return whiteWins, true
	case g.pos.IsStalemate(), g.pos.IsInsufficientMaterial():
		return draw, true
	}
	return abandoned, false
}

// readMove prompts until the human enters a legal move, in SAN ("Nf3",
// "O-O") or UCI ("g1f3") notation. It reports false on "quit" or end of
// input.
func (g *game) readMove() (board.Move, bool) {
	for {
		fmt.Fprintf(g.out, "%s's move: ", g.pos.SideToMove())
		if !g.in.Scan() {
			return board.NoMove, false
		}
		text := strings.TrimSpace(g.in.Text())
		switch text {
		case "":
			continue
		case "quit", "resign":
			return board.NoMove, false
		case "moves":
			moves := g.pos.LegalMoves()
			names := make([]string, len(moves))
			for i, m := range moves {
				names[i] = g.pos.SAN(m)
			}
			fmt.Fprintln(g.out, strings.Join(names, " "))
			continue
		}
		m, err := g.pos.ParseSAN(text)
		if err != nil {
			m, err = g.pos.ParseMove(text)
		}
		if err != nil {
			fmt.Fprintf(g.out, "Invalid move %q, try again.\n", text)
			continue
		}
		return m, true
	}
}

func recordResult(st *storage.Storage, r result, human board.Color, played time.Duration) {
	humanWins := whiteWins
	if human == board.Black {
		humanWins = blackWins
	}
	err := st.RecordGame(storage.GameResult{
		Won:      r == humanWins,
		Draw:     r == draw,
		Color:    strings.ToLower(human.String()),
		Duration: played,
	})
	if err != nil {
		log.Warn().Err(err).Msg("stats not recorded")
		return
	}

	if settings, err := st.LoadSettings(); err == nil {
		settings.LastPlayed = time.Now()
		if err := st.SaveSettings(settings); err != nil {
			log.Warn().Err(err).Msg("settings not saved")
		}
	}
	if stats, err := st.LoadStats(); err == nil {
		log.Info().Int("games", stats.GamesPlayed).Float64("winRate", stats.GetWinRate()).Msg("stats-recorded")
	}
}
