package engine

import (
	"testing"

	"github.com/hailam/chessbot/internal/rules"
)

// fixedRand always draws the same index, wrapped into range.
type fixedRand int

func (r fixedRand) Intn(n int) int { return int(r) % n }

func scored(t *testing.T, pos *rules.Position, scores map[string]int) []ScoredMove {
	t.Helper()
	var out []ScoredMove
	for _, m := range pos.LegalMoves() {
		s, ok := scores[m.String()]
		if !ok {
			s = -Infinity
		}
		out = append(out, ScoredMove{Move: m, Score: s})
	}
	return out
}

func moveNames(moves []rules.Move) map[string]bool {
	names := make(map[string]bool, len(moves))
	for _, m := range moves {
		names[m.String()] = true
	}
	return names
}

func TestSelectMovePrefersCaptures(t *testing.T) {
	pos := mustParse(t, "4k3/8/2p5/3n4/8/4N3/8/4K3 w - - 0 1")
	results := scored(t, pos, map[string]int{
		"e3d5": -100, // capture
		"e3c2": -100,
		"e3f5": -100,
		"e3g4": -300,
	})

	for i := 0; i < 4; i++ {
		move, score, candidates := SelectMove(pos, results, fixedRand(i))
		if score != -100 {
			t.Errorf("score = %d, want -100", score)
		}
		if len(candidates) != 1 || move.String() != "e3d5" {
			t.Errorf("draw %d: move %s from %v, want e3d5 alone", i, move, candidates)
		}
	}
}

func TestSelectMoveDrawsAmongTies(t *testing.T) {
	pos := rules.NewPosition()
	results := scored(t, pos, map[string]int{
		"e2e4": 30,
		"d2d4": 30,
		"g1f3": 30,
		"a2a3": 10,
	})

	seen := map[string]bool{}
	for i := 0; i < 3; i++ {
		move, score, candidates := SelectMove(pos, results, fixedRand(i))
		if score != 30 {
			t.Errorf("score = %d, want 30", score)
		}
		names := moveNames(candidates)
		if len(names) != 3 || !names["e2e4"] || !names["d2d4"] || !names["g1f3"] {
			t.Fatalf("candidates = %v", candidates)
		}
		seen[move.String()] = true
	}
	if len(seen) != 3 {
		t.Errorf("draws picked %v, want all three ties", seen)
	}
}

func TestSelectMoveEnPassantIsNotPreferred(t *testing.T) {
	// The en passant target square is empty in the root position, so it does
	// not count as a capture for the tie-break.
	pos := mustParse(t, "4k3/8/8/3pP3/8/8/8/4K3 w - d6 0 1")
	results := scored(t, pos, map[string]int{"e5d6": 0, "e5e6": 0})

	_, _, candidates := SelectMove(pos, results, fixedRand(0))
	names := moveNames(candidates)
	if len(names) != 2 || !names["e5d6"] || !names["e5e6"] {
		t.Errorf("candidates = %v, want both tied moves", candidates)
	}
}

func TestSelectMoveEmpty(t *testing.T) {
	move, _, candidates := SelectMove(rules.NewPosition(), nil, fixedRand(0))
	if !move.IsNull() || candidates != nil {
		t.Errorf("SelectMove(nil) = %s, %v", move, candidates)
	}
}
