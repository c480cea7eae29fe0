package rules

import "testing"

func TestStatus(t *testing.T) {
	tests := []struct {
		name string
		fen  string
		want Status
	}{
		{"start", StartFEN, Ongoing},
		{"back rank mate", "R6k/6pp/8/8/8/8/8/K7 b - - 0 1", Loss},
		{"stalemate", "7k/5Q2/6K1/8/8/8/8/8 b - - 0 1", Draw},
		{"bare kings", "8/8/4k3/8/8/3K4/8/8 w - - 0 1", Draw},
		{"king and knight", "8/8/4k3/8/8/3KN3/8/8 w - - 0 1", Draw},
		{"same color bishops", "8/8/4kb2/8/8/3KB3/8/8 w - - 0 1", Draw},
		{"opposite color bishops", "8/8/4k1b1/8/8/3KB3/8/8 w - - 0 1", Ongoing},
		{"king and rook", "8/8/4k3/8/8/3K4/4R3/8 w - - 0 1", Ongoing},
		{"fifty moves", "8/8/4k3/8/8/3K4/4R3/8 w - - 100 80", Draw},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			pos := mustParse(t, tc.fen)
			if got := pos.Status(nil); got != tc.want {
				t.Errorf("Status = %v, want %v", got, tc.want)
			}
			if got := pos.Status(pos.LegalMoves()); got != tc.want {
				t.Errorf("Status with precomputed moves = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestThreefoldRepetition(t *testing.T) {
	pos := NewPosition()
	shuffle := []string{"g1f3", "g8f6", "f3g1", "f6g8"}

	for _, uci := range shuffle {
		pos.Apply(findMove(t, pos, uci))
	}
	if got := pos.Status(nil); got != Ongoing {
		t.Fatalf("second occurrence: Status = %v, want Ongoing", got)
	}

	for _, uci := range shuffle {
		pos.Apply(findMove(t, pos, uci))
	}
	if got := pos.Status(nil); got != Draw {
		t.Errorf("third occurrence: Status = %v, want Draw", got)
	}

	// The clone carries the history, so it sees the same repetition.
	if got := pos.Clone().Status(nil); got != Draw {
		t.Errorf("clone: Status = %v, want Draw", got)
	}

	pos.Undo()
	if got := pos.Status(nil); got != Ongoing {
		t.Errorf("after undo: Status = %v, want Ongoing", got)
	}
}
