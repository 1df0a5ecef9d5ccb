package analysis

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/Okami6997/ChessGamesAnalyzer/internal/chess"
	"github.com/Okami6997/ChessGamesAnalyzer/internal/classify"
	"github.com/Okami6997/ChessGamesAnalyzer/internal/engine"
)

// Scorer produces a normalized evaluation for a position. Satisfied by
// *engine.Evaluator.
type Scorer interface {
	Evaluate(ctx context.Context, pos *chess.Position) (engine.Eval, error)
	Close() error
}

// evalRetries bounds re-tries of a failed move evaluation before the
// move is recorded as Unknown.
const evalRetries = 1

// Driver analyzes one game move by move. It owns its Scorer (and with
// it the engine session) for the game's lifetime and releases it on
// every exit path.
type Driver struct {
	scorer     Scorer
	classifier *classify.Classifier
	log        zerolog.Logger
}

// NewDriver creates a driver around a scorer. The driver takes
// ownership of the scorer.
func NewDriver(scorer Scorer, classifier *classify.Classifier, log zerolog.Logger) *Driver {
	if classifier == nil {
		classifier = classify.New()
	}
	return &Driver{scorer: scorer, classifier: classifier, log: log}
}

// Analyze replays the game from the starting position, evaluating
// before and after each move and classifying the swing. A failed
// evaluation marks that move Unknown and analysis continues; a fatal
// session failure or an illegal move aborts the game, returning the
// partial record alongside the error.
func (d *Driver) Analyze(ctx context.Context, game *chess.Game) (rec *GameRecord, err error) {
	defer func() {
		if cerr := d.scorer.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close engine session: %w", cerr)
		}
	}()

	rec = newGameRecord(game)
	pos := chess.StartingPosition()

	for ply, mv := range game.Moves {
		select {
		case <-ctx.Done():
			rec.Partial = true
			rec.FailReason = ctx.Err().Error()
			return rec, ctx.Err()
		default:
		}

		mover := chess.White
		if ply%2 == 1 {
			mover = chess.Black
		}
		moveNumber := ply/2 + 1

		before, berr := d.evaluateWithRetry(ctx, pos)
		if berr != nil && isSessionFatal(berr) {
			rec.Partial = true
			rec.FailReason = berr.Error()
			return rec, fmt.Errorf("move %d (%s): %w", moveNumber, mv.SAN(), berr)
		}

		next, aerr := pos.Apply(mv)
		if aerr != nil {
			rec.Partial = true
			rec.FailReason = aerr.Error()
			return rec, fmt.Errorf("move %d: %w", moveNumber, aerr)
		}

		after, ferr := d.evaluateWithRetry(ctx, next)
		if ferr != nil && isSessionFatal(ferr) {
			rec.Partial = true
			rec.FailReason = ferr.Error()
			return rec, fmt.Errorf("move %d (%s): %w", moveNumber, mv.SAN(), ferr)
		}

		var scoreBefore, scoreAfter *int
		var bestMove string
		if berr == nil {
			cp := before.CP
			scoreBefore = &cp
			bestMove = before.BestMove
		} else {
			d.log.Warn().Err(berr).Int("move", moveNumber).Str("san", mv.SAN()).
				Msg("evaluation before move failed")
		}
		if ferr == nil {
			cp := after.CP
			scoreAfter = &cp
		} else {
			d.log.Warn().Err(ferr).Int("move", moveNumber).Str("san", mv.SAN()).
				Msg("evaluation after move failed")
		}

		label := d.classifier.Classify(classify.Input{
			ScoreBefore: scoreBefore,
			ScoreAfter:  scoreAfter,
			Mover:       mover,
			MoveNumber:  moveNumber,
			Move:        mv.UCI(),
			BestMove:    bestMove,
		})

		rec.Moves = append(rec.Moves, MoveRecord{
			MoveNumber:  moveNumber,
			Player:      mover,
			SAN:         mv.SAN(),
			UCI:         mv.UCI(),
			ScoreBefore: scoreBefore,
			ScoreAfter:  scoreAfter,
			BestMove:    bestMove,
			Class:       label,
		})

		pos = next
	}

	return rec, nil
}

// evaluateWithRetry retries transient failures once; fatal errors and
// context cancellation pass straight through.
func (d *Driver) evaluateWithRetry(ctx context.Context, pos *chess.Position) (engine.Eval, error) {
	ev, err := d.scorer.Evaluate(ctx, pos)
	for attempt := 0; err != nil && attempt < evalRetries; attempt++ {
		if isSessionFatal(err) || ctx.Err() != nil {
			return engine.Eval{}, err
		}
		d.log.Debug().Err(err).Str("fen", pos.FEN()).Msg("retrying evaluation")
		ev, err = d.scorer.Evaluate(ctx, pos)
	}
	return ev, err
}

// isSessionFatal reports whether an evaluation error means the session
// cannot serve further requests for this game.
func isSessionFatal(err error) bool {
	var died *engine.ProcessDiedError
	var start *engine.StartError
	return errors.As(err, &died) || errors.As(err, &start)
}
