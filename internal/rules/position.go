package rules

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/notnil/chess"
)

// ErrInvalidFEN is returned by Parse when the FEN cannot be decoded.
var ErrInvalidFEN = errors.New("invalid FEN")

// StartFEN is the standard initial position.
const StartFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

// Status is the terminal classification of a position.
type Status uint8

const (
	Ongoing Status = iota
	Loss           // side to move is checkmated
	Draw
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case Loss:
		return "Loss"
	case Draw:
		return "Draw"
	default:
		return "Ongoing"
	}
}

type frame struct {
	pos      *chess.Position
	halfMove int
	key      uint64 // repetition key: placement, side, castling, en passant
}

// Position is a mutable chess position. Apply pushes a new immutable
// notnil/chess position and Undo pops it, so an Apply/Undo pair restores the
// exact previous state. A Position must not be shared between goroutines;
// use Clone to give each goroutine its own.
type Position struct {
	stack   []frame
	history []uint64 // keys of positions reached before stack[0], oldest first
}

// NewPosition returns the standard starting position.
func NewPosition() *Position {
	pos, _ := Parse(StartFEN)
	return pos
}

// Parse decodes a FEN string. Four- and five-field FENs get the missing
// clocks filled with "0 1".
func Parse(fen string) (*Position, error) {
	fields := strings.Fields(fen)
	switch len(fields) {
	case 4:
		fields = append(fields, "0", "1")
	case 5:
		fields = append(fields, "1")
	case 6:
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidFEN, fen)
	}

	halfMove, err := strconv.Atoi(fields[4])
	if err != nil || halfMove < 0 {
		return nil, fmt.Errorf("%w: bad half-move clock %q", ErrInvalidFEN, fields[4])
	}

	pos, err := decode(strings.Join(fields, " "))
	if err != nil {
		return nil, err
	}

	return &Position{
		stack: []frame{{pos: pos, halfMove: halfMove, key: positionKey(pos)}},
	}, nil
}

func decode(fen string) (*chess.Position, error) {
	opt, err := chess.FEN(fen)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFEN, err)
	}
	return chess.NewGame(opt).Position(), nil
}

// positionKey hashes the first four FEN fields, which is what threefold
// repetition compares.
func positionKey(pos *chess.Position) uint64 {
	fields := strings.Fields(pos.String())
	if len(fields) > 4 {
		fields = fields[:4]
	}
	return xxhash.Sum64String(strings.Join(fields, " "))
}

func (p *Position) top() *frame {
	return &p.stack[len(p.stack)-1]
}

// Clone returns an independent copy positioned at the current state. The
// copy keeps the repetition history but cannot Undo past its own start.
func (p *Position) Clone() *Position {
	top := p.top()

	history := make([]uint64, 0, len(p.history)+len(p.stack)-1)
	history = append(history, p.history...)
	for _, f := range p.stack[:len(p.stack)-1] {
		history = append(history, f.key)
	}

	// Re-decoding gives the copy its own move-generation cache. The FEN
	// came from notnil/chess itself, so decoding it only fails on a bug
	// there; sharing the immutable position is the fallback.
	pos, err := decode(top.pos.String())
	if err != nil {
		pos = top.pos
	}

	return &Position{
		stack:   []frame{{pos: pos, halfMove: top.halfMove, key: top.key}},
		history: history,
	}
}

// FEN returns the FEN of the current position.
func (p *Position) FEN() string {
	return p.top().pos.String()
}

// String returns the FEN of the current position.
func (p *Position) String() string {
	return p.FEN()
}

// SideToMove returns the color to move.
func (p *Position) SideToMove() Color {
	return fromChessColor(p.top().pos.Turn())
}

// PieceAt returns the piece on sq, or NoPiece.
func (p *Position) PieceAt(sq Square) Piece {
	if sq >= NoSquare {
		return NoPiece
	}
	return fromChessPiece(p.top().pos.Board().Piece(sq.toChess()))
}

// IsEmpty reports whether sq holds no piece.
func (p *Position) IsEmpty(sq Square) bool {
	return p.PieceAt(sq) == NoPiece
}

// HalfMoveClock returns the number of plies since the last capture or pawn move.
func (p *Position) HalfMoveClock() int {
	return p.top().halfMove
}

// Ply returns the number of moves applied since the position was created.
func (p *Position) Ply() int {
	return len(p.stack) - 1
}

// LegalMoves returns all legal moves for the side to move.
func (p *Position) LegalMoves() []Move {
	pos := p.top().pos
	raw := pos.ValidMoves()
	b := pos.Board()

	moves := make([]Move, len(raw))
	for i, m := range raw {
		moves[i] = newMove(b, m)
	}
	return moves
}

// Apply plays m, which must come from LegalMoves of the current position.
func (p *Position) Apply(m Move) {
	top := p.top()

	halfMove := top.halfMove + 1
	if m.IsCapture() || p.PieceAt(m.From).Type() == Pawn {
		halfMove = 0
	}

	next := top.pos.Update(m.raw)
	p.stack = append(p.stack, frame{pos: next, halfMove: halfMove, key: positionKey(next)})
}

// Undo takes back the last applied move. It is a no-op at the position's start.
func (p *Position) Undo() {
	n := len(p.stack)
	if n <= 1 {
		return
	}
	p.stack[n-1] = frame{}
	p.stack = p.stack[:n-1]
}

// Status classifies the position. moves may be the result of LegalMoves for
// this position, to avoid generating twice; nil generates them.
func (p *Position) Status(moves []Move) Status {
	if moves == nil {
		moves = p.LegalMoves()
	}

	top := p.top()
	if len(moves) == 0 {
		if top.pos.Status() == chess.Checkmate {
			return Loss
		}
		return Draw
	}

	if top.halfMove >= 100 || p.insufficientMaterial() || p.isRepetition() {
		return Draw
	}
	return Ongoing
}

// insufficientMaterial detects K v K, K+minor v K and K+B v K+B with both
// bishops on the same square color.
func (p *Position) insufficientMaterial() bool {
	var minors []Square
	for sq := A1; sq <= H8; sq++ {
		switch p.PieceAt(sq).Type() {
		case Pawn, Rook, Queen:
			return false
		case Knight, Bishop:
			minors = append(minors, sq)
			if len(minors) > 2 {
				return false
			}
		}
	}

	switch len(minors) {
	case 0, 1:
		return true
	default:
		a, b := p.PieceAt(minors[0]), p.PieceAt(minors[1])
		return a.Type() == Bishop && b.Type() == Bishop &&
			a.Color() != b.Color() &&
			minors[0].IsLight() == minors[1].IsLight()
	}
}

// isRepetition reports whether the current position occurred twice before
// since the last irreversible move.
func (p *Position) isRepetition() bool {
	top := p.top()
	window := top.halfMove
	count := 0

	for i := len(p.stack) - 2; i >= 0 && window > 0; i-- {
		window--
		if p.stack[i].key == top.key {
			count++
			if count >= 2 {
				return true
			}
		}
	}
	for i := len(p.history) - 1; i >= 0 && window > 0; i-- {
		window--
		if p.history[i] == top.key {
			count++
			if count >= 2 {
				return true
			}
		}
	}
	return false
}
