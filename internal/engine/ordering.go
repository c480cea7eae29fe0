package engine

import (
	"github.com/hailam/chessbot/internal/rules"
)

// MVV-LVA (Most Valuable Victim - Least Valuable Attacker) scores
// Higher score = search first
// Score = victimRank * 10 + 5 - attackerRank
var mvvLva = [6][6]int{
	//       P    N    B    R    Q    K  (attacker)
	/* P */ {15, 14, 13, 12, 11, 10}, // Pawn victim
	/* N */ {25, 24, 23, 22, 21, 20}, // Knight victim
	/* B */ {35, 34, 33, 32, 31, 30}, // Bishop victim
	/* R */ {45, 44, 43, 42, 41, 40}, // Rook victim
	/* Q */ {55, 54, 53, 52, 51, 50}, // Queen victim
	/* K */ {0, 0, 0, 0, 0, 0},       // King can't be captured
}

// MoveOrderer sorts moves so that likely-good captures are searched first.
// It holds no per-search state and is safe to share.
type MoveOrderer struct {
	disabled bool
}

// NewMoveOrderer creates a new move orderer. A disabled orderer leaves moves
// in generator order.
func NewMoveOrderer(disabled bool) *MoveOrderer {
	return &MoveOrderer{disabled: disabled}
}

// ScoreMove returns the MVV-LVA score of m in pos. Quiet moves and castles
// score 0; en passant scores as a pawn capture.
func ScoreMove(pos *rules.Position, m rules.Move) int {
	if !m.IsCapture() {
		return 0
	}

	attacker := pos.PieceAt(m.From).Type()
	victim := rules.Pawn
	if !m.IsEnPassant() {
		victim = pos.PieceAt(m.To).Type()
	}
	if attacker > rules.King || victim > rules.King {
		return 0
	}
	return mvvLva[victim][attacker]
}

// ScoreMoves scores every move in moves.
func (mo *MoveOrderer) ScoreMoves(pos *rules.Position, moves []rules.Move) []int {
	scores := make([]int, len(moves))
	for i, m := range moves {
		scores[i] = ScoreMove(pos, m)
	}
	return scores
}

// Order sorts moves in place, highest score first.
func (mo *MoveOrderer) Order(pos *rules.Position, moves []rules.Move) {
	if mo == nil || mo.disabled || len(moves) < 2 {
		return
	}
	SortMoves(moves, mo.ScoreMoves(pos, moves))
}

// SortMoves sorts moves by their scores (descending).
func SortMoves(moves []rules.Move, scores []int) {
	// Simple selection sort (sufficient for ~40 moves)
	n := len(moves)
	for i := 0; i < n-1; i++ {
		best := i
		for j := i + 1; j < n; j++ {
			if scores[j] > scores[best] {
				best = j
			}
		}
		if best != i {
			moves[i], moves[best] = moves[best], moves[i]
			scores[i], scores[best] = scores[best], scores[i]
		}
	}
}
