package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"runtime/pprof"

	"github.com/rs/zerolog/log"

	"github.com/hailam/chesscore/internal/book"
	"github.com/hailam/chesscore/internal/config"
	"github.com/hailam/chesscore/internal/engine"
	"github.com/hailam/chesscore/internal/uci"
)

var (
	configPath = flag.String("config", "", "JSON configuration file")
	cpuprofile = flag.String("cpuprofile", "", "write cpu profile to file")
	bookFile   = flag.String("book", "", "opening book file (overrides config)")
	bookDB     = flag.String("bookdb", "", "opening book database directory (overrides config)")
	maxDepth   = flag.Int("depth", 0, "default depth ceiling (overrides config)")
	logLevel   = flag.String("log-level", "", "log level (overrides config)")
)

func main() {
	flag.Parse()

	cfg, err := config.LoadOptional(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("load-config")
	}
	if *bookFile != "" {
		cfg.BookFile = *bookFile
	}
	if *bookDB != "" {
		cfg.BookDB = *bookDB
	}
	if *maxDepth > 0 {
		cfg.MaxDepth = *maxDepth
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("validate-config")
	}
	// stdout is the protocol channel
	cfg.SetupLogger(os.Stderr)

	// Start CPU profiling if requested (via flag or environment variable)
	profilePath := *cpuprofile
	if profilePath == "" {
		profilePath = os.Getenv("CPUPROFILE")
	}
	if profilePath != "" {
		f, err := os.Create(profilePath)
		if err != nil {
			log.Fatal().Err(err).Msg("could not create CPU profile")
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			log.Fatal().Err(err).Msg("could not start CPU profile")
		}
		defer pprof.StopCPUProfile()
		log.Info().Str("path", profilePath).Msg("cpu-profiling")
	}

	eng := engine.New(cfg.EngineOptions())
	protocol := uci.New(eng, os.Stdin, os.Stdout)

	b, closeBook, err := book.Open(cfg.BookFile, cfg.BookDB)
	if err != nil {
		log.Warn().Err(err).Msg("opening book not loaded")
	}
	defer closeBook()
	if b != nil && cfg.OwnBook {
		protocol.SetBook(b)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := protocol.Run(ctx); err != nil {
		log.Error().Err(err).Msg("uci")
	}
}
