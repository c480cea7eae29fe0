// Package engine implements the chess AI search engine.
package engine

import (
	"github.com/hailam/chessbot/internal/rules"
)

// Evaluation constants
const (
	PawnValue   = 100
	KnightValue = 320
	BishopValue = 330
	RookValue   = 500
	QueenValue  = 900
	KingValue   = 0 // kings are never captured
)

// Piece values indexed by rules.PieceType; the last slot is NoPieceType.
var pieceValues = [7]int{PawnValue, KnightValue, BishopValue, RookValue, QueenValue, KingValue, 0}

// PieceValue returns the signed material value of p: positive for White,
// negative for Black, zero for kings and empty squares.
func PieceValue(p rules.Piece) int {
	if p == rules.NoPiece {
		return 0
	}
	v := pieceValues[p.Type()]
	if p.Color() == rules.Black {
		return -v
	}
	return v
}

// Evaluate returns the material balance of pos in centipawns from White's
// point of view, regardless of the side to move.
func Evaluate(pos *rules.Position) int {
	score := 0
	for sq := rules.A1; sq <= rules.H8; sq++ {
		score += PieceValue(pos.PieceAt(sq))
	}
	return score
}

// Delta returns the change in Evaluate caused by playing m in pos.
// It must be called before m is applied.
func Delta(pos *rules.Position, m rules.Move) int {
	d := 0

	if m.IsCapture() {
		victimSq := m.To
		if m.IsEnPassant() {
			// The captured pawn sits behind the destination square.
			if pos.SideToMove() == rules.White {
				victimSq = m.To - 8
			} else {
				victimSq = m.To + 8
			}
		}
		d -= PieceValue(pos.PieceAt(victimSq))
	}

	if m.IsPromotion() {
		us := pos.SideToMove()
		d -= PieceValue(rules.NewPiece(rules.Pawn, us))
		d += PieceValue(rules.NewPiece(m.Promo, us))
	}

	return d
}

// Incremental returns the evaluation after m given the evaluation before it,
// so that Incremental(pos, Evaluate(pos), m) equals Evaluate after m.
func Incremental(pos *rules.Position, before int, m rules.Move) int {
	return before + Delta(pos, m)
}
