// Package selfplay plays the engine (White) against a naive opponent that
// always picks Black's first legal move, with notnil/chess as referee.
package selfplay

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/notnil/chess"
	"github.com/rs/zerolog"

	"github.com/hailam/chessbot/internal/engine"
	"github.com/hailam/chessbot/internal/rules"
)

// Options configures a game.
type Options struct {
	// FEN is the starting position. Empty means the standard start.
	FEN string
	// Moves are played from FEN, in UCI notation, before the engine takes over.
	Moves []string
	// MaxPlies ends the game unfinished after this many plies. Zero means
	// play until the referee declares a result.
	MaxPlies int
	// Out receives one line per ply. Nil discards them.
	Out    io.Writer
	Logger zerolog.Logger
}

// Result summarizes a finished game.
type Result struct {
	Outcome  chess.Outcome
	Method   chess.Method
	Plies    int
	Turns    int // engine moves
	Nodes    uint64
	Duration time.Duration
	PGN      string
}

// Play runs one game to completion, or until MaxPlies or ctx cancellation.
func Play(ctx context.Context, eng *engine.Engine, opts Options) (Result, error) {
	var gameOpts []func(*chess.Game)
	if opts.FEN != "" {
		fen, err := chess.FEN(opts.FEN)
		if err != nil {
			return Result{}, fmt.Errorf("start position: %w", err)
		}
		gameOpts = append(gameOpts, fen)
	}
	game := chess.NewGame(gameOpts...)
	game.AddTagPair("White", "chessbot")
	game.AddTagPair("Black", "first legal move")

	out := opts.Out
	if out == nil {
		out = io.Discard
	}

	var res Result
	start := time.Now()

	for _, uci := range opts.Moves {
		mv, err := chess.UCINotation{}.Decode(game.Position(), uci)
		if err != nil {
			return res, fmt.Errorf("opening move %s: %w", uci, err)
		}
		if err := game.Move(mv); err != nil {
			return res, fmt.Errorf("opening move %s: %w", uci, err)
		}
		res.Plies++
	}

	for {
		claimDraw(game)
		if game.Outcome() != chess.NoOutcome {
			break
		}
		if opts.MaxPlies > 0 && res.Plies >= opts.MaxPlies {
			opts.Logger.Info().Int("plies", res.Plies).Msg("ply limit reached")
			break
		}

		pos := game.Position()
		var mv *chess.Move
		var bestEval string

		if pos.Turn() == chess.White {
			res.Turns++
			root, err := rules.Parse(pos.String())
			if err != nil {
				return res, err
			}
			sr, err := eng.Search(ctx, root)
			if err != nil {
				return res, err
			}
			res.Nodes += sr.Nodes
			if sr.Move.IsNull() {
				break
			}
			mv, err = chess.UCINotation{}.Decode(pos, sr.Move.String())
			if err != nil {
				return res, fmt.Errorf("engine move %s: %w", sr.Move, err)
			}
			bestEval = engine.ScoreToString(sr.Score, sr.Depth)
		} else {
			moves := game.ValidMoves()
			if len(moves) == 0 {
				break
			}
			mv = moves[0]
		}

		uci := chess.UCINotation{}.Encode(pos, mv)
		if err := game.Move(mv); err != nil {
			return res, fmt.Errorf("play %s: %w", uci, err)
		}
		res.Plies++

		after, err := rules.Parse(game.Position().String())
		if err != nil {
			return res, err
		}
		if bestEval != "" {
			fmt.Fprintf(out, "White plays: %s    evaluation: %d    side to move: %s    best_eval: %s\n",
				uci, engine.Evaluate(after), after.SideToMove(), bestEval)
		} else {
			fmt.Fprintf(out, "Black plays: %s    evaluation: %d    side to move: %s\n",
				uci, engine.Evaluate(after), after.SideToMove())
		}
	}

	res.Outcome = game.Outcome()
	res.Method = game.Method()
	res.Duration = time.Since(start)
	res.PGN = game.String()

	fmt.Fprintf(out, "Game over in %d. Took %s. Result: %s\n",
		res.Turns, res.Duration.Round(time.Millisecond), Describe(res.Outcome))

	opts.Logger.Debug().
		Str("outcome", string(res.Outcome)).
		Str("method", MethodName(res.Method)).
		Int("plies", res.Plies).
		Str("nodes", humanize.Comma(int64(res.Nodes))).
		Msg("game finished")

	return res, nil
}

// claimDraw ends the game as soon as a threefold repetition or the fifty-move
// rule applies. The referee only ends games by itself at fivefold repetition
// or the seventy-five-move rule.
func claimDraw(game *chess.Game) {
	if game.Outcome() != chess.NoOutcome {
		return
	}
	for _, m := range game.EligibleDraws() {
		if m == chess.ThreefoldRepetition || m == chess.FiftyMoveRule {
			_ = game.Draw(m)
			return
		}
	}
}

// Describe returns a sentence for an outcome.
func Describe(o chess.Outcome) string {
	switch o {
	case chess.WhiteWon:
		return "White wins."
	case chess.BlackWon:
		return "Black wins."
	case chess.Draw:
		return "Draw."
	default:
		return "Unfinished."
	}
}

// MethodName names the way a game ended.
func MethodName(m chess.Method) string {
	switch m {
	case chess.Checkmate:
		return "Checkmate"
	case chess.Resignation:
		return "Resignation"
	case chess.DrawOffer:
		return "DrawOffer"
	case chess.Stalemate:
		return "Stalemate"
	case chess.ThreefoldRepetition:
		return "ThreefoldRepetition"
	case chess.FivefoldRepetition:
		return "FivefoldRepetition"
	case chess.FiftyMoveRule:
		return "FiftyMoveRule"
	case chess.SeventyFiveMoveRule:
		return "SeventyFiveMoveRule"
	case chess.InsufficientMaterial:
		return "InsufficientMaterial"
	default:
		return "NoMethod"
	}
}
