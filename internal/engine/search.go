package engine

import (
	"math"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/hailam/chessbot/internal/rules"
)

// Search constants
const (
	Infinity  = math.MaxInt
	MateScore = math.MaxInt32 / 2
)

// stopCheckInterval is how often (in nodes) a searcher polls the stop flag.
const stopCheckInterval = 4096

// EvalStrategy selects how leaf evaluations are produced.
type EvalStrategy uint8

const (
	// EvalIncremental carries the material balance down the tree, adjusting
	// it by Delta before each move.
	EvalIncremental EvalStrategy = iota
	// EvalRecompute ignores the carried value and evaluates every leaf from scratch.
	EvalRecompute
	// EvalChecked carries the incremental value and also recomputes it at
	// every leaf, counting any mismatch as a violation.
	EvalChecked
)

// String returns the strategy name.
func (s EvalStrategy) String() string {
	switch s {
	case EvalRecompute:
		return "recompute"
	case EvalChecked:
		return "checked"
	default:
		return "incremental"
	}
}

// ParseEvalStrategy maps a strategy name back to its value.
func ParseEvalStrategy(name string) (EvalStrategy, bool) {
	switch name {
	case "incremental", "":
		return EvalIncremental, true
	case "recompute":
		return EvalRecompute, true
	case "checked":
		return EvalChecked, true
	}
	return EvalIncremental, false
}

// Searcher performs the depth-limited alpha-beta minimax search. Scores are
// on an absolute scale: White maximizes, Black minimizes. A Searcher is
// owned by one goroutine.
type Searcher struct {
	strategy EvalStrategy
	pruning  bool
	orderer  *MoveOrderer
	logger   zerolog.Logger

	stopFlag *atomic.Bool
	stopped  bool

	nodes      uint64
	violations uint64
}

// NewSearcher creates a searcher configured from cfg. stop may be nil.
func NewSearcher(cfg Config, stop *atomic.Bool) *Searcher {
	cfg = cfg.withDefaults()
	return &Searcher{
		strategy: cfg.Strategy,
		pruning:  !cfg.DisablePruning,
		orderer:  NewMoveOrderer(cfg.DisableOrdering),
		logger:   cfg.Logger,
		stopFlag: stop,
	}
}

// Nodes returns the number of nodes searched.
func (s *Searcher) Nodes() uint64 {
	return s.nodes
}

// Violations returns how many leaves had an incremental evaluation that
// disagreed with a full recomputation. Only EvalChecked counts them.
func (s *Searcher) Violations() uint64 {
	return s.violations
}

// IsStopped returns true if the search has been stopped.
func (s *Searcher) IsStopped() bool {
	return s.stopped
}

// Search returns the minimax value of pos searched to depth plies.
// maximizing marks a ply of the side being optimized for. Plies alternate
// from the minimizing reply below the root, whatever color is to move at
// the node. eval is the material balance of pos. Once the stop flag is seen
// the return values are meaningless and the caller must discard them.
func (s *Searcher) Search(pos *rules.Position, depth, alpha, beta int, maximizing bool, eval int) int {
	s.nodes++
	if s.nodes%stopCheckInterval == 0 && s.stopFlag != nil && s.stopFlag.Load() {
		s.stopped = true
	}
	if s.stopped {
		return 0
	}

	moves := pos.LegalMoves()
	switch pos.Status(moves) {
	case rules.Loss:
		// Faster mates (more remaining depth) score further from zero.
		if maximizing {
			return -MateScore - depth
		}
		return MateScore + depth
	case rules.Draw:
		return 0
	}

	if depth == 0 {
		return s.leaf(pos, eval)
	}

	s.orderer.Order(pos, moves)

	if maximizing {
		best := -Infinity
		for _, m := range moves {
			child := s.childEval(pos, eval, m)
			pos.Apply(m)
			score := s.Search(pos, depth-1, alpha, beta, false, child)
			pos.Undo()

			best = max(best, score)
			alpha = max(alpha, score)
			if s.pruning && beta <= alpha {
				break
			}
		}
		return best
	}

	best := Infinity
	for _, m := range moves {
		child := s.childEval(pos, eval, m)
		pos.Apply(m)
		score := s.Search(pos, depth-1, alpha, beta, true, child)
		pos.Undo()

		best = min(best, score)
		beta = min(beta, score)
		if s.pruning && beta <= alpha {
			break
		}
	}
	return best
}

// childEval returns the evaluation to carry into the child reached by m.
func (s *Searcher) childEval(pos *rules.Position, eval int, m rules.Move) int {
	if s.strategy == EvalRecompute {
		return eval
	}
	return Incremental(pos, eval, m)
}

func (s *Searcher) leaf(pos *rules.Position, eval int) int {
	switch s.strategy {
	case EvalRecompute:
		return Evaluate(pos)
	case EvalChecked:
		full := Evaluate(pos)
		if full != eval {
			s.violations++
			s.logger.Warn().
				Str("fen", pos.FEN()).
				Int("incremental", eval).
				Int("recomputed", full).
				Msg("incremental evaluation drifted")
		}
		return full
	}
	return eval
}
