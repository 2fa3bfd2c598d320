package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/hailam/chesscore/internal/board"
	"github.com/hailam/chesscore/internal/book"
	"github.com/hailam/chesscore/internal/config"
	"github.com/hailam/chesscore/internal/storage"
)

var (
	configPath = flag.String("config", "", "JSON configuration file")
	plies      = flag.Int("plies", book.DefaultBuildPlies, "plies of each game recorded by build")
)

const usage = `usage: chesscore-book [flags] <command> [args]

commands:
  import <book.bin> <dbdir>   copy an opening record file into a book database
  build <games.pgn> <dbdir>   count the opening moves of PGN games into a book database
  export <dbdir> <book.bin>   write a book database back to a record file
  dump <dbdir>                list every stored position and its moves
  probe <dbdir|book.bin> <fen> pick a book move for a position
`

func main() {
	flag.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	cfg, err := config.LoadOptional(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("load-config")
	}
	cfg.SetupLogger(os.Stderr)

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	switch cmd, rest := args[0], args[1:]; {
	case cmd == "import" && len(rest) == 2:
		err = importBook(rest[0], rest[1])
	case cmd == "build" && len(rest) == 2:
		err = buildBook(rest[0], rest[1])
	case cmd == "export" && len(rest) == 2:
		err = exportBook(rest[0], rest[1])
	case cmd == "dump" && len(rest) == 1:
		err = dump(rest[0])
	case cmd == "probe" && len(rest) >= 2:
		err = probe(rest[0], strings.Join(rest[1:], " "))
	default:
		flag.Usage()
		os.Exit(2)
	}
	if err != nil {
		log.Fatal().Err(err).Str("command", args[0]).Msg("chesscore-book")
	}
}

func importBook(file, dbDir string) error {
	b, err := book.LoadFile(file)
	if err != nil {
		return err
	}
	st, err := storage.Open(dbDir)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := b.Save(st); err != nil {
		return err
	}
	fmt.Printf("Imported %d positions into %s\n", b.Size(), dbDir)
	return nil
}

func buildBook(pgnFile, dbDir string) error {
	f, err := os.Open(pgnFile)
	if err != nil {
		return err
	}
	defer f.Close()

	b, games, err := book.FromPGN(f, *plies)
	if err != nil {
		return err
	}
	st, err := storage.Open(dbDir)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := b.Save(st); err != nil {
		return err
	}
	fmt.Printf("Built %d positions from %d games into %s\n", b.Size(), games, dbDir)
	return nil
}

func exportBook(dbDir, file string) error {
	st, err := storage.Open(dbDir)
	if err != nil {
		return err
	}
	defer st.Close()

	b, err := book.LoadStorage(st)
	if err != nil {
		return err
	}
	f, err := os.Create(file)
	if err != nil {
		return err
	}
	if _, err := b.WriteTo(f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", file, err)
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Printf("Exported %d positions to %s\n", b.Size(), file)
	return nil
}

func dump(dbDir string) error {
	st, err := storage.Open(dbDir)
	if err != nil {
		return err
	}
	defer st.Close()

	positions := 0
	err = st.ForEachBookPosition(func(key uint64, moves []storage.BookMove) error {
		positions++
		fmt.Printf("%016x %s\n", key, strings.Join(lo.Map(moves, func(m storage.BookMove, _ int) string {
			return fmt.Sprintf("%s:%d", m.Move, m.Weight)
		}), " "))
		return nil
	})
	if err != nil {
		return err
	}
	fmt.Printf("%d positions\n", positions)
	return nil
}

func probe(source, fen string) error {
	pos, err := board.ParseFEN(fen)
	if err != nil {
		return err
	}

	var b *book.Book
	if info, statErr := os.Stat(source); statErr == nil && info.IsDir() {
		st, openErr := storage.Open(source)
		if openErr != nil {
			return openErr
		}
		defer st.Close()
		b, err = book.LoadStorage(st)
	} else {
		b, err = book.LoadFile(source)
	}
	if err != nil {
		return err
	}

	m, err := b.Probe(pos)
	if errors.Is(err, book.ErrNotFound) {
		fmt.Println("no book move")
		return nil
	}
	if err != nil {
		return err
	}
	all := lo.Map(b.ProbeAll(pos), func(m board.Move, _ int) string { return m.String() })
	fmt.Printf("%s (candidates: %s)\n", m, strings.Join(all, " "))
	return nil
}
