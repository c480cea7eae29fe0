// Package rules adapts github.com/notnil/chess to the mutable position the
// search engine works on: legal move generation, in-place apply and undo,
// terminal status and per-square piece lookup.
package rules

import (
	"fmt"

	"github.com/notnil/chess"
)

// Square is a board square (0-63), little-endian rank-file: A1=0, H1=7, A8=56, H8=63.
type Square uint8

// Square constants for all 64 squares.
const (
	A1 Square = iota
	B1
	C1
	D1
	E1
	F1
	G1
	H1
	A2
	B2
	C2
	D2
	E2
	F2
	G2
	H2
	A3
	B3
	C3
	D3
	E3
	F3
	G3
	H3
	A4
	B4
	C4
	D4
	E4
	F4
	G4
	H4
	A5
	B5
	C5
	D5
	E5
	F5
	G5
	H5
	A6
	B6
	C6
	D6
	E6
	F6
	G6
	H6
	A7
	B7
	C7
	D7
	E7
	F7
	G7
	H7
	A8
	B8
	C8
	D8
	E8
	F8
	G8
	H8
	NoSquare Square = 64
)

// File returns the file of the square (0=a, 7=h).
func (sq Square) File() int {
	return int(sq) & 7
}

// Rank returns the rank of the square (0=1st rank, 7=8th rank).
func (sq Square) Rank() int {
	return int(sq) >> 3
}

// String returns the algebraic name of the square (e.g. "e4").
func (sq Square) String() string {
	if sq >= NoSquare {
		return "-"
	}
	return fmt.Sprintf("%c%c", 'a'+sq.File(), '1'+sq.Rank())
}

// IsLight reports whether the square is a light square.
func (sq Square) IsLight() bool {
	return (sq.File()+sq.Rank())%2 == 1
}

// NewSquare creates a square from file and rank (0-indexed).
func NewSquare(file, rank int) Square {
	return Square(rank*8 + file)
}

// ParseSquare parses algebraic notation (e.g. "e4").
func ParseSquare(s string) (Square, error) {
	if len(s) != 2 {
		return NoSquare, fmt.Errorf("invalid square: %s", s)
	}

	file := int(s[0]) - 'a'
	rank := int(s[1]) - '1'
	if file < 0 || file > 7 || rank < 0 || rank > 7 {
		return NoSquare, fmt.Errorf("invalid square: %s", s)
	}

	return NewSquare(file, rank), nil
}

// Both libraries use the same A1=0 layout, so conversion is a cast.
func fromChessSquare(sq chess.Square) Square {
	if sq < chess.A1 || sq > chess.H8 {
		return NoSquare
	}
	return Square(sq)
}

func (sq Square) toChess() chess.Square {
	return chess.Square(sq)
}
