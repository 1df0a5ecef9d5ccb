// Package analysis drives games through the evaluate-classify pipeline:
// one driver per game, many drivers under a bounded orchestrator.
package analysis

import (
	"github.com/Okami6997/ChessGamesAnalyzer/internal/chess"
	"github.com/Okami6997/ChessGamesAnalyzer/internal/classify"
)

// MoveRecord is the analysis of one played move. Scores are centipawns
// from White's perspective; nil when the evaluation failed, in which
// case Classification is Unknown.
type MoveRecord struct {
	MoveNumber  int
	Player      chess.Side
	SAN         string
	UCI         string
	ScoreBefore *int
	ScoreAfter  *int
	BestMove    string
	Class       classify.Classification
}

// GameRecord is one game's header metadata plus its move records in
// play order. Partial marks games whose analysis was cut short by a
// session-fatal failure.
type GameRecord struct {
	GameID     string
	White      string
	Black      string
	WhiteElo   string
	BlackElo   string
	URL        string
	Moves      []MoveRecord
	Partial    bool
	FailReason string
}

func newGameRecord(g *chess.Game) *GameRecord {
	return &GameRecord{
		GameID:   g.ID(),
		White:    g.White(),
		Black:    g.Black(),
		WhiteElo: g.WhiteElo(),
		BlackElo: g.BlackElo(),
		URL:      g.URL(),
		Moves:    make([]MoveRecord, 0, len(g.Moves)),
	}
}
