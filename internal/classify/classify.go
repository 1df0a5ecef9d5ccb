// Package classify labels move quality from the evaluation swing the
// move caused, using the lichess win-probability transform so a 100cp
// drop in a balanced position weighs more than the same drop in a
// position that was already decided.
package classify

import (
	"math"

	"github.com/Okami6997/ChessGamesAnalyzer/internal/chess"
)

// Classification is the quality label for one move.
type Classification int

const (
	Unknown Classification = iota
	Neutral
	Dubious
	Mistake
	Blunder
)

// String renders the label with its conventional annotation glyphs, as
// used in exports.
func (c Classification) String() string {
	switch c {
	case Neutral:
		return "Neutral"
	case Dubious:
		return "Dubious (?!)"
	case Mistake:
		return "Mistake (?)"
	case Blunder:
		return "Blunder (??)"
	}
	return "Unknown"
}

// DefaultWinPercentK is the slope of the centipawn-to-win% logistic
// transform (the lichess accuracy constant).
const DefaultWinPercentK = 0.00368208

// Win%-loss thresholds, in percentage points, inclusive lower bounds.
const (
	DefaultBlunderLoss = 20.0
	DefaultMistakeLoss = 10.0
	DefaultDubiousLoss = 5.0
)

// Input is one move's classification request. Scores are centipawns
// from White's perspective; a nil score means the evaluation failed.
// Move, BestMove and MoveNumber are carried for annotation tiers that
// need them; the evaluation-delta tiers ignore them.
type Input struct {
	ScoreBefore *int
	ScoreAfter  *int
	Mover       chess.Side
	MoveNumber  int
	Move        string
	BestMove    string
}

// Classifier evaluates the fixed threshold table. The zero value is not
// usable; construct with New.
type Classifier struct {
	K           float64 // logistic slope
	BlunderLoss float64
	MistakeLoss float64
	DubiousLoss float64
}

// New returns a classifier with the default constants.
func New() *Classifier {
	return &Classifier{
		K:           DefaultWinPercentK,
		BlunderLoss: DefaultBlunderLoss,
		MistakeLoss: DefaultMistakeLoss,
		DubiousLoss: DefaultDubiousLoss,
	}
}

// WinPercent maps a centipawn score to a win probability in [0,100].
// Monotonically non-decreasing in cp.
func (c *Classifier) WinPercent(cp float64) float64 {
	return 50 + 50*(2/(1+math.Exp(-c.K*cp))-1)
}

// Classify labels one move. Pure: no I/O, no state. If either score is
// unavailable the result is Unknown, never a defaulted Neutral.
func (c *Classifier) Classify(in Input) Classification {
	if in.ScoreBefore == nil || in.ScoreAfter == nil {
		return Unknown
	}

	before := float64(*in.ScoreBefore)
	after := float64(*in.ScoreAfter)
	if in.Mover == chess.Black {
		before, after = -before, -after
	}

	// positive when the mover's position worsened
	winLoss := c.WinPercent(before) - c.WinPercent(after)
	return c.classifyLoss(winLoss)
}

// classifyLoss applies the threshold table in descending severity, first
// match wins; boundaries belong to the more severe tier.
func (c *Classifier) classifyLoss(winLoss float64) Classification {
	switch {
	case winLoss >= c.BlunderLoss:
		return Blunder
	case winLoss >= c.MistakeLoss:
		return Mistake
	case winLoss >= c.DubiousLoss:
		return Dubious
	}
	return Neutral
}
