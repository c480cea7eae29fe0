package engine

import (
	"context"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"
	"lukechampine.com/frand"

	"github.com/hailam/chessbot/internal/rules"
)

// Default configuration values.
const (
	DefaultDepth      = 4
	DefaultMaxWorkers = 32
)

// Config configures an Engine. Zero fields take their defaults.
type Config struct {
	Depth      int // plies, root move included
	MaxWorkers int // upper bound on root goroutines per query
	Strategy   EvalStrategy

	// Test switches. Neither changes a score.
	DisablePruning  bool
	DisableOrdering bool

	Logger zerolog.Logger
	// Rand breaks ties between equal candidates. Nil means a fresh unseeded
	// source per query.
	Rand Rand
}

func (c Config) withDefaults() Config {
	if c.Depth <= 0 {
		c.Depth = DefaultDepth
	}
	if c.MaxWorkers <= 0 {
		c.MaxWorkers = DefaultMaxWorkers
	}
	return c
}

// Result is the outcome of one query.
type Result struct {
	Move       rules.Move   // rules.NoMove when the root has no legal move
	Score      int          // maximum root score
	Scores     []ScoredMove // every root move, in generator order
	Candidates []rules.Move // the tied set Move was drawn from
	Depth      int
	Workers    int
	Nodes      uint64
	Violations uint64 // only counted with EvalChecked
	Elapsed    time.Duration
}

// Engine is the chess AI engine. It always chooses a move for White and
// keeps no state between queries.
type Engine struct {
	cfg Config
}

// NewEngine creates a new chess engine.
func NewEngine(cfg Config) *Engine {
	return &Engine{cfg: cfg.withDefaults()}
}

// Config returns the effective configuration.
func (e *Engine) Config() Config {
	return e.cfg
}

// Search finds the best move for White in pos. pos is not modified.
// If ctx is cancelled before the search completes, Search returns ctx.Err().
func (e *Engine) Search(ctx context.Context, pos *rules.Position) (Result, error) {
	start := time.Now()
	res := Result{Move: rules.NoMove, Depth: e.cfg.Depth}

	moves := pos.LegalMoves()
	if len(moves) == 0 {
		e.cfg.Logger.Debug().Str("fen", pos.FEN()).Msg("no legal moves")
		return res, nil
	}

	var stop atomic.Bool
	cancel := context.AfterFunc(ctx, func() { stop.Store(true) })
	defer cancel()

	rootEval := Evaluate(pos)
	scores, stats, err := searchRoot(ctx, pos, moves, rootEval, e.cfg, &stop)
	res.Workers = stats.workers
	res.Nodes = stats.nodes
	res.Violations = stats.violations
	res.Elapsed = time.Since(start)
	if err != nil {
		return res, fmt.Errorf("search %q: %w", pos.FEN(), err)
	}

	rng := e.cfg.Rand
	if rng == nil {
		rng = frand.New()
	}
	res.Scores = scores
	res.Move, res.Score, res.Candidates = SelectMove(pos, scores, rng)

	e.cfg.Logger.Debug().
		Str("fen", pos.FEN()).
		Int("depth", res.Depth).
		Int("workers", res.Workers).
		Int("root_moves", len(moves)).
		Str("nodes", humanize.Comma(int64(res.Nodes))).
		Dur("elapsed", res.Elapsed).
		Str("score", ScoreToString(res.Score, res.Depth)).
		Int("candidates", len(res.Candidates)).
		Stringer("move", res.Move).
		Msg("search done")

	return res, nil
}

// ScoreToString converts a root score from a search of the given depth to a
// human-readable string. Mate distances are in full moves.
func ScoreToString(score, depth int) string {
	if score >= MateScore {
		plies := depth - (score - MateScore)
		return "Mate in " + strconv.Itoa((plies+1)/2)
	}
	if score <= -MateScore {
		plies := depth - (-score - MateScore)
		return "Mated in " + strconv.Itoa(plies/2)
	}

	// Convert centipawns to pawns
	sign := ""
	if score < 0 {
		sign = "-"
		score = -score
	}
	return fmt.Sprintf("%s%d.%02d", sign, score/100, score%100)
}
