package engine

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/hailam/chessbot/internal/rules"
)

var errBadPartition = errors.New("bad root partition")

// ScoredMove is a root move with its minimax value.
type ScoredMove struct {
	Move  rules.Move
	Score int
}

// chunk is the half-open index range [start, end) of root moves owned by one worker.
type chunk struct {
	start, end int
}

func (c chunk) len() int { return c.end - c.start }

// partition splits n root moves into at most workers contiguous chunks of
// ceil(n/workers) moves; the last chunk may be shorter. Empty chunks are
// not produced.
func partition(n, workers int) []chunk {
	if n <= 0 {
		return nil
	}
	workers = max(1, min(workers, n))
	size := (n + workers - 1) / workers

	chunks := make([]chunk, 0, workers)
	for start := 0; start < n; start += size {
		chunks = append(chunks, chunk{start: start, end: min(start+size, n)})
	}
	return chunks
}

// validatePartition checks that chunks cover [0, n) exactly once, in order,
// with no empty chunk.
func validatePartition(chunks []chunk, n int) error {
	next := 0
	for i, c := range chunks {
		if c.start != next {
			return fmt.Errorf("%w: chunk %d starts at %d, want %d", errBadPartition, i, c.start, next)
		}
		if c.len() <= 0 {
			return fmt.Errorf("%w: chunk %d is empty", errBadPartition, i)
		}
		next = c.end
	}
	if next != n {
		return fmt.Errorf("%w: covered %d of %d moves", errBadPartition, next, n)
	}
	return nil
}

// Worker searches a contiguous slice of root moves on its own copy of the
// root position. It writes only to its own sub-slice of the result.
type Worker struct {
	// Per-worker position copy
	pos *rules.Position

	searcher *Searcher
	moves    []rules.Move
	out      []ScoredMove
}

// NewWorker creates a new search worker over moves, writing into out.
// len(out) must equal len(moves).
func NewWorker(root *rules.Position, moves []rules.Move, out []ScoredMove, cfg Config, stop *atomic.Bool) *Worker {
	return &Worker{
		pos:      root.Clone(),
		searcher: NewSearcher(cfg, stop),
		moves:    moves,
		out:      out,
	}
}

// Nodes returns the number of nodes searched.
func (w *Worker) Nodes() uint64 {
	return w.searcher.Nodes()
}

// Run scores each of the worker's moves with a full-window search of
// depth-1 plies below it. The engine always plays for White, so the reply
// is a minimizing node whichever color is actually to move.
func (w *Worker) Run(depth, rootEval int) {
	for i, m := range w.moves {
		eval := w.searcher.childEval(w.pos, rootEval, m)
		w.pos.Apply(m)
		score := w.searcher.Search(w.pos, depth-1, -Infinity, Infinity, false, eval)
		w.pos.Undo()

		w.out[i] = ScoredMove{Move: m, Score: score}
		if w.searcher.IsStopped() {
			return
		}
	}
}

// rootStats aggregates per-worker counters after the join.
type rootStats struct {
	workers    int
	nodes      uint64
	violations uint64
}

// searchRoot fans the root moves out over at most cfg.MaxWorkers goroutines
// and waits for all of them. The returned slice is index-aligned with moves.
func searchRoot(ctx context.Context, root *rules.Position, moves []rules.Move, rootEval int, cfg Config, stop *atomic.Bool) ([]ScoredMove, rootStats, error) {
	chunks := partition(len(moves), cfg.MaxWorkers)
	if err := validatePartition(chunks, len(moves)); err != nil {
		return nil, rootStats{}, err
	}

	out := make([]ScoredMove, len(moves))
	workers := make([]*Worker, len(chunks))
	for i, c := range chunks {
		workers[i] = NewWorker(root, moves[c.start:c.end], out[c.start:c.end], cfg, stop)
	}

	var g errgroup.Group
	for _, w := range workers {
		w := w
		g.Go(func() error {
			w.Run(cfg.Depth, rootEval)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, rootStats{}, err
	}

	stats := rootStats{workers: len(workers)}
	for _, w := range workers {
		stats.nodes += w.Nodes()
		stats.violations += w.searcher.Violations()
	}

	if err := ctx.Err(); err != nil {
		return nil, stats, err
	}
	return out, stats, nil
}
