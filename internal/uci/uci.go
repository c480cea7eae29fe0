// Package uci implements the engine's line protocol: each input line holds a
// FEN, each output line the chosen move in UCI long algebraic notation.
package uci

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/hailam/chessbot/internal/engine"
	"github.com/hailam/chessbot/internal/rules"
	"github.com/hailam/chessbot/internal/storage"
)

// nullMove is printed when there is nothing to play.
const nullMove = "0000"

// Journal records answered queries. *storage.Storage implements it.
type Journal interface {
	LookupQuery(fen string) (*storage.QueryRecord, bool, error)
	RecordQuery(rec storage.QueryRecord) error
}

// Options configures the protocol loop.
type Options struct {
	Logger zerolog.Logger
	// Journal, if set, receives every answered query.
	Journal Journal
	// MoveTime bounds each query. Zero means no limit. A query that runs out
	// of time answers 0000.
	MoveTime time.Duration
}

// UCI serves queries from a line-oriented stream.
type UCI struct {
	engine *engine.Engine
	opts   Options
	log    zerolog.Logger

	queries int
}

// New creates a new protocol handler.
func New(eng *engine.Engine, opts Options) *UCI {
	return &UCI{
		engine: eng,
		opts:   opts,
		log:    opts.Logger,
	}
}

// Run reads FEN lines from r and writes one move per query to w until a
// "quit" line, EOF or cancellation of ctx. Blank lines are ignored.
func (u *UCI) Run(ctx context.Context, r io.Reader, w io.Writer) error {
	scanner := bufio.NewScanner(r)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		switch line {
		case "":
			continue
		case "quit":
			u.log.Debug().Int("queries", u.queries).Msg("quit")
			return nil
		}

		move, err := u.handleFEN(ctx, line)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintln(w, move); err != nil {
			return fmt.Errorf("write move: %w", err)
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	u.log.Debug().Int("queries", u.queries).Msg("end of input")
	return nil
}

// handleFEN answers one query. Only cancellation of ctx is returned as an
// error; every other failure answers 0000.
func (u *UCI) handleFEN(ctx context.Context, fen string) (string, error) {
	u.queries++

	pos, err := rules.Parse(fen)
	if err != nil {
		u.log.Error().Err(err).Str("fen", fen).Msg("skipping query")
		return nullMove, nil
	}

	qctx := ctx
	if u.opts.MoveTime > 0 {
		var cancel context.CancelFunc
		qctx, cancel = context.WithTimeout(ctx, u.opts.MoveTime)
		defer cancel()
	}

	res, err := u.engine.Search(qctx, pos)
	switch {
	case ctx.Err() != nil:
		return "", ctx.Err()
	case errors.Is(err, context.DeadlineExceeded):
		u.log.Warn().Str("fen", fen).Dur("movetime", u.opts.MoveTime).Msg("search timed out")
		return nullMove, nil
	case err != nil:
		u.log.Error().Err(err).Str("fen", fen).Msg("search failed")
		return nullMove, nil
	}

	move := res.Move.String()
	if res.Move.IsNull() {
		u.log.Info().Str("fen", fen).Msg("no legal move")
	}
	u.record(pos.FEN(), res)

	return move, nil
}

func (u *UCI) record(fen string, res engine.Result) {
	if u.opts.Journal == nil {
		return
	}

	prev, seen, err := u.opts.Journal.LookupQuery(fen)
	if err != nil {
		u.log.Error().Err(err).Msg("journal read failed")
	}
	if seen {
		u.log.Debug().
			Str("fen", fen).
			Str("previous", prev.Move).
			Str("move", res.Move.String()).
			Bool("changed", prev.Move != res.Move.String()).
			Msg("position answered before")
	}

	candidates := make([]string, len(res.Candidates))
	for i, m := range res.Candidates {
		candidates[i] = m.String()
	}

	err = u.opts.Journal.RecordQuery(storage.QueryRecord{
		FEN:        fen,
		Move:       res.Move.String(),
		Score:      res.Score,
		Candidates: candidates,
		Depth:      res.Depth,
		Nodes:      res.Nodes,
		Elapsed:    res.Elapsed,
	})
	if err != nil {
		u.log.Error().Err(err).Msg("journal write failed")
	}
}
