package rules

import "github.com/notnil/chess"

// Move flags. A quiet move has no flag set; a capturing promotion carries
// both FlagCapture and FlagPromotion.
const (
	FlagCapture uint8 = 1 << iota
	FlagEnPassant
	FlagPromotion
	FlagCastle
)

// Move is a legal move produced by Position.LegalMoves.
type Move struct {
	From  Square
	To    Square
	Flags uint8
	Promo PieceType // only meaningful with FlagPromotion

	raw *chess.Move
}

// NoMove is the null-move sentinel returned when a position has no legal move.
var NoMove = Move{From: NoSquare, To: NoSquare, Promo: NoPieceType}

// IsNull reports whether m is the null-move sentinel.
func (m Move) IsNull() bool {
	return m.raw == nil
}

// IsCapture reports whether the move removes an enemy piece, en passant included.
func (m Move) IsCapture() bool {
	return m.Flags&(FlagCapture|FlagEnPassant) != 0
}

// IsEnPassant reports whether the move is an en passant capture.
func (m Move) IsEnPassant() bool {
	return m.Flags&FlagEnPassant != 0
}

// IsPromotion reports whether the move promotes a pawn.
func (m Move) IsPromotion() bool {
	return m.Flags&FlagPromotion != 0
}

// IsCastle reports whether the move is a castling king move.
func (m Move) IsCastle() bool {
	return m.Flags&FlagCastle != 0
}

// IsQuiet reports whether the move neither captures nor promotes.
func (m Move) IsQuiet() bool {
	return !m.IsCapture() && !m.IsPromotion()
}

// String returns the long algebraic (UCI) form of the move, e.g. "e2e4",
// "e7e8q". The null move encodes as "0000".
func (m Move) String() string {
	if m.IsNull() {
		return "0000"
	}

	s := m.From.String() + m.To.String()
	if m.IsPromotion() {
		s += string(m.Promo.Char())
	}
	return s
}

// newMove classifies a generated move against the board it was generated on.
func newMove(b *chess.Board, raw *chess.Move) Move {
	m := Move{
		From:  fromChessSquare(raw.S1()),
		To:    fromChessSquare(raw.S2()),
		Promo: NoPieceType,
		raw:   raw,
	}

	if b.Piece(raw.S2()) != chess.NoPiece {
		m.Flags |= FlagCapture
	}
	if raw.HasTag(chess.EnPassant) {
		m.Flags |= FlagEnPassant
	}
	if raw.HasTag(chess.KingSideCastle) || raw.HasTag(chess.QueenSideCastle) {
		m.Flags |= FlagCastle
	}
	if raw.Promo() != chess.NoPieceType {
		m.Flags |= FlagPromotion
		m.Promo = fromChessPieceType(raw.Promo())
	}

	return m
}
