package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime/pprof"
	"strconv"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/hailam/chessbot/internal/engine"
	"github.com/hailam/chessbot/internal/storage"
	"github.com/hailam/chessbot/internal/uci"
)

var (
	depth      = flag.Int("depth", envInt("CHESSBOT_DEPTH", engine.DefaultDepth), "search depth in plies")
	workers    = flag.Int("workers", envInt("CHESSBOT_WORKERS", engine.DefaultMaxWorkers), "maximum root search goroutines")
	strategy   = flag.String("eval", "incremental", "leaf evaluation: incremental, recompute or checked")
	moveTime   = flag.Duration("movetime", 0, "time limit per query, 0 for none")
	journalDir = flag.String("journal", os.Getenv("CHESSBOT_JOURNAL"), "record answered queries in this BadgerDB directory")
	logLevel   = flag.String("log-level", envString("CHESSBOT_LOG_LEVEL", "info"), "log level (trace, debug, info, warn, error)")
	cpuprofile = flag.String("cpuprofile", "", "write cpu profile to file")
)

func main() {
	flag.Parse()

	logger := newLogger(*logLevel)
	if err := run(logger); err != nil {
		logger.Error().Err(err).Msg("stopped")
		os.Exit(1)
	}
}

func run(logger zerolog.Logger) error {
	// Start CPU profiling if requested (via flag or environment variable)
	profilePath := *cpuprofile
	if profilePath == "" {
		profilePath = os.Getenv("CPUPROFILE")
	}
	if profilePath != "" {
		f, err := os.Create(profilePath)
		if err != nil {
			return fmt.Errorf("could not create CPU profile: %w", err)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			return fmt.Errorf("could not start CPU profile: %w", err)
		}
		defer pprof.StopCPUProfile()
		logger.Info().Str("path", profilePath).Msg("CPU profiling enabled")
	}

	evalStrategy, ok := engine.ParseEvalStrategy(*strategy)
	if !ok {
		return fmt.Errorf("unknown evaluation strategy %q", *strategy)
	}

	eng := engine.NewEngine(engine.Config{
		Depth:      *depth,
		MaxWorkers: *workers,
		Strategy:   evalStrategy,
		Logger:     logger,
	})

	opts := uci.Options{Logger: logger, MoveTime: *moveTime}
	journaled := -1
	if *journalDir != "" {
		journal, err := storage.Open(storage.Options{Dir: *journalDir, Logger: logger})
		if err != nil {
			return err
		}
		defer journal.Close()
		opts.Journal = journal

		if journaled, err = journal.QueryCount(); err != nil {
			return fmt.Errorf("count journal: %w", err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := eng.Config()
	logger.Debug().
		Int("depth", cfg.Depth).
		Int("workers", cfg.MaxWorkers).
		Stringer("eval", cfg.Strategy).
		Int("journaled", journaled).
		Msg("ready")

	return uci.New(eng, opts).Run(ctx, os.Stdin, os.Stdout)
}

func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "bad log level %q, using info\n", level)
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}).
		Level(lvl).
		With().Timestamp().
		Logger()
}

func envInt(name string, def int) int {
	if v, err := strconv.Atoi(os.Getenv(name)); err == nil {
		return v
	}
	return def
}

func envString(name, def string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return def
}
