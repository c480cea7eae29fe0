package selfplay

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/notnil/chess"

	"github.com/hailam/chessbot/internal/engine"
)

func TestPlayMateInOne(t *testing.T) {
	var out bytes.Buffer
	eng := engine.NewEngine(engine.Config{Depth: 2})

	res, err := Play(context.Background(), eng, Options{
		FEN: "6k1/5ppp/8/8/8/8/8/R5K1 w - - 0 1",
		Out: &out,
	})
	if err != nil {
		t.Fatalf("Play: %v", err)
	}
	if res.Outcome != chess.WhiteWon || res.Method != chess.Checkmate {
		t.Errorf("result = %s by %s, want 1-0 by checkmate", res.Outcome, MethodName(res.Method))
	}
	if res.Plies != 1 || res.Turns != 1 {
		t.Errorf("plies %d, turns %d, want 1 and 1", res.Plies, res.Turns)
	}
	if !strings.Contains(out.String(), "White plays: a1a8") {
		t.Errorf("report missing the mating move:\n%s", out.String())
	}
	if !strings.Contains(out.String(), "Result: White wins.") {
		t.Errorf("report missing the result:\n%s", out.String())
	}
	if !strings.Contains(res.PGN, "1-0") {
		t.Errorf("PGN missing result: %s", res.PGN)
	}
	t.Log(out.String())
}

func TestPlayPlyLimit(t *testing.T) {
	var out bytes.Buffer
	eng := engine.NewEngine(engine.Config{Depth: 1})

	res, err := Play(context.Background(), eng, Options{MaxPlies: 4, Out: &out})
	if err != nil {
		t.Fatalf("Play: %v", err)
	}
	if res.Plies != 4 || res.Turns != 2 {
		t.Errorf("plies %d, turns %d, want 4 and 2", res.Plies, res.Turns)
	}
	if res.Outcome != chess.NoOutcome {
		t.Errorf("outcome = %s, want unfinished", res.Outcome)
	}
	if n := strings.Count(out.String(), "Black plays:"); n != 2 {
		t.Errorf("%d black moves reported, want 2", n)
	}
}

func TestPlayClaimsDraws(t *testing.T) {
	shuffle := []string{"g1f3", "g8f6", "f3g1", "f6g8"}

	tests := []struct {
		name   string
		opts   Options
		method chess.Method
		plies  int
		turns  int
	}{
		{
			name:   "threefold repetition",
			opts:   Options{Moves: append(append([]string{}, shuffle...), shuffle...)},
			method: chess.ThreefoldRepetition,
			plies:  8,
		},
		{
			name:   "fifty-move rule",
			opts:   Options{FEN: "4k3/8/8/8/8/8/8/R3K3 w - - 99 80"},
			method: chess.FiftyMoveRule,
			plies:  1,
			turns:  1,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var out bytes.Buffer
			tc.opts.Out = &out
			tc.opts.MaxPlies = 40

			res, err := Play(context.Background(), engine.NewEngine(engine.Config{Depth: 1}), tc.opts)
			if err != nil {
				t.Fatalf("Play: %v", err)
			}
			if res.Outcome != chess.Draw || res.Method != tc.method {
				t.Errorf("result = %s by %s, want draw by %s", res.Outcome, MethodName(res.Method), MethodName(tc.method))
			}
			if res.Plies != tc.plies || res.Turns != tc.turns {
				t.Errorf("plies %d, turns %d, want %d and %d", res.Plies, res.Turns, tc.plies, tc.turns)
			}
			if !strings.Contains(out.String(), "Result: Draw.") {
				t.Errorf("report missing the draw:\n%s", out.String())
			}
		})
	}
}

func TestPlayBadOpeningMove(t *testing.T) {
	_, err := Play(context.Background(), engine.NewEngine(engine.Config{Depth: 1}), Options{Moves: []string{"e2e5"}})
	if err == nil {
		t.Error("expected an error for an illegal opening move")
	}
}

func TestPlayBadFEN(t *testing.T) {
	_, err := Play(context.Background(), engine.NewEngine(engine.Config{}), Options{FEN: "not a fen"})
	if err == nil {
		t.Error("expected an error for a bad start position")
	}
}

func TestDescribe(t *testing.T) {
	tests := map[chess.Outcome]string{
		chess.WhiteWon:  "White wins.",
		chess.BlackWon:  "Black wins.",
		chess.Draw:      "Draw.",
		chess.NoOutcome: "Unfinished.",
	}
	for o, want := range tests {
		if got := Describe(o); got != want {
			t.Errorf("Describe(%s) = %q, want %q", o, got, want)
		}
	}
}
