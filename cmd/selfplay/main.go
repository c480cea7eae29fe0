package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"

	"github.com/hailam/chessbot/internal/engine"
	"github.com/hailam/chessbot/internal/selfplay"
	"github.com/hailam/chessbot/internal/storage"
)

var (
	games      = flag.Int("games", 1, "number of games to play")
	depth      = flag.Int("depth", envInt("CHESSBOT_DEPTH", engine.DefaultDepth), "search depth in plies")
	workers    = flag.Int("workers", envInt("CHESSBOT_WORKERS", engine.DefaultMaxWorkers), "maximum root search goroutines")
	startFEN   = flag.String("fen", "", "starting position (default: standard start)")
	openMoves  = flag.String("moves", "", "space-separated UCI moves to play from the start position first")
	maxPlies   = flag.Int("max-plies", 400, "stop a game after this many plies, 0 for no limit")
	pgnPath    = flag.String("pgn", "", "append finished games to this PGN file")
	journalDir = flag.String("journal", os.Getenv("CHESSBOT_JOURNAL"), "record game results in this BadgerDB directory")
	logLevel   = flag.String("log-level", "info", "log level (trace, debug, info, warn, error)")
	quiet      = flag.Bool("q", false, "do not print every ply")
)

func main() {
	flag.Parse()

	lvl, err := zerolog.ParseLevel(*logLevel)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}).
		Level(lvl).
		With().Timestamp().
		Logger()

	eng := engine.NewEngine(engine.Config{
		Depth:      *depth,
		MaxWorkers: *workers,
		Logger:     logger,
	})

	var journal *storage.Storage
	if *journalDir != "" {
		journal, err = storage.Open(storage.Options{Dir: *journalDir, Logger: logger})
		if err != nil {
			logger.Fatal().Err(err).Msg("journal unavailable")
		}
		defer journal.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	opts := selfplay.Options{FEN: *startFEN, Moves: strings.Fields(*openMoves), MaxPlies: *maxPlies, Logger: logger}
	if !*quiet {
		opts.Out = os.Stdout
	}

	var total time.Duration
	var nodes uint64
	for i := 1; i <= *games; i++ {
		res, err := selfplay.Play(ctx, eng, opts)
		if err != nil {
			logger.Error().Err(err).Int("game", i).Msg("game aborted")
			break
		}
		total += res.Duration
		nodes += res.Nodes

		if *pgnPath != "" {
			if err := appendPGN(*pgnPath, res.PGN); err != nil {
				logger.Error().Err(err).Msg("could not write PGN")
			}
		}
		if journal != nil {
			err := journal.RecordGame(storage.GameResult{
				Outcome:  string(res.Outcome),
				Method:   selfplay.MethodName(res.Method),
				Plies:    res.Plies,
				Duration: res.Duration,
			})
			if err != nil {
				logger.Error().Err(err).Msg("could not record game")
			}
		}
	}

	fmt.Printf("Played %d game(s) in %s, %s nodes\n", *games, total.Round(time.Millisecond), humanize.Comma(int64(nodes)))

	if journal != nil {
		stats, err := journal.LoadStats()
		if err != nil {
			logger.Error().Err(err).Msg("could not load stats")
			return
		}
		fmt.Printf("All time: %d games, %d wins, %d draws, %d losses (%.1f%% wins), %s plies\n",
			stats.GamesPlayed, stats.Wins, stats.Draws, stats.Losses, stats.GetWinRate(),
			humanize.Comma(int64(stats.TotalPlies)))
	}
}

func appendPGN(path, pgn string) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(f, "%s\n\n", pgn); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func envInt(name string, def int) int {
	if v, err := strconv.Atoi(os.Getenv(name)); err == nil {
		return v
	}
	return def
}
