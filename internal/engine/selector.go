package engine

import (
	"github.com/samber/lo"

	"github.com/hailam/chessbot/internal/rules"
)

// Rand is the random source used to break ties between equally scored moves.
// *frand.RNG and *math/rand.Rand both satisfy it.
type Rand interface {
	Intn(n int) int
}

// SelectMove picks the move to play from the scored root moves. Among the
// moves sharing the maximum score, captures (destination occupied in root)
// are preferred; one candidate is drawn uniformly with rng. It returns the
// chosen move, the maximum score and the candidate set the draw was made
// from. An empty results slice yields rules.NoMove.
func SelectMove(root *rules.Position, results []ScoredMove, rng Rand) (rules.Move, int, []rules.Move) {
	if len(results) == 0 {
		return rules.NoMove, 0, nil
	}

	best := lo.MaxBy(results, func(a, b ScoredMove) bool {
		return a.Score > b.Score
	}).Score

	ties := lo.FilterMap(results, func(r ScoredMove, _ int) (rules.Move, bool) {
		return r.Move, r.Score == best
	})
	captures := lo.Filter(ties, func(m rules.Move, _ int) bool {
		return !root.IsEmpty(m.To)
	})

	candidates := ties
	if len(captures) > 0 {
		candidates = captures
	}

	return candidates[rng.Intn(len(candidates))], best, candidates
}
