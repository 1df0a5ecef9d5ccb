package analysis

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/Okami6997/ChessGamesAnalyzer/internal/chess"
)

func TestOrchestratorRun(t *testing.T) {
	gameA := mustParse(t, `[Link "https://www.chess.com/game/live/1"]

1. e4 e5 2. Qh5`)
	gameB := mustParse(t, `[Link "https://www.chess.com/game/live/2"]

1. d4 d5`)

	// One shared FEN table covers both games; every worker gets its own
	// scorer so concurrent games cannot cross streams.
	evals := make(map[string]int)
	for i, fen := range fensOf(t, gameA) {
		evals[fen] = 10 * i
	}
	for i, fen := range fensOf(t, gameB) {
		evals[fen] = -10 * i
	}

	o := NewOrchestrator(OrchestratorConfig{
		Workers: 2,
		Logger:  zerolog.Nop(),
	}, func() (Scorer, error) {
		return &stubScorer{evals: evals}, nil
	})

	outcomes, sum := o.Run(context.Background(), []*chess.Game{gameA, gameB})

	if sum.Completed != 2 || sum.Partial != 0 || sum.Failed != 0 {
		t.Errorf("summary = %+v, want 2 completed", sum)
	}
	if len(outcomes) != 2 {
		t.Fatalf("len(outcomes) = %d, want 2", len(outcomes))
	}

	byID := make(map[string]*GameRecord)
	for _, out := range outcomes {
		if out.Err != nil {
			t.Errorf("outcome error: %v", out.Err)
			continue
		}
		byID[out.Record.GameID] = out.Record
	}
	if rec := byID["1"]; rec == nil || len(rec.Moves) != 3 {
		t.Errorf("game 1 record = %+v, want 3 moves", rec)
	}
	if rec := byID["2"]; rec == nil || len(rec.Moves) != 2 {
		t.Errorf("game 2 record = %+v, want 2 moves", rec)
	}
	if rec := byID["2"]; rec != nil && rec.Moves[0].SAN != "d4" {
		t.Errorf("game 2 first move = %q, want d4", rec.Moves[0].SAN)
	}
}

func TestOrchestratorSessionFailureIsolated(t *testing.T) {
	gameA := mustParse(t, `[Link "https://www.chess.com/game/live/1"]

1. e4`)
	gameB := mustParse(t, `[Link "https://www.chess.com/game/live/2"]

1. d4`)

	evals := make(map[string]int)
	for _, fen := range fensOf(t, gameA) {
		evals[fen] = 5
	}
	for _, fen := range fensOf(t, gameB) {
		evals[fen] = 5
	}

	// The first session fails to start; the second game must still be
	// analyzed.
	calls := 0
	o := NewOrchestrator(OrchestratorConfig{
		Workers: 1,
		Logger:  zerolog.Nop(),
	}, func() (Scorer, error) {
		calls++
		if calls == 1 {
			return nil, errors.New("engine binary missing")
		}
		return &stubScorer{evals: evals}, nil
	})

	outcomes, sum := o.Run(context.Background(), []*chess.Game{gameA, gameB})

	if sum.Completed != 1 || sum.Failed != 1 {
		t.Errorf("summary = %+v, want 1 completed 1 failed", sum)
	}
	if len(outcomes) != 2 {
		t.Fatalf("len(outcomes) = %d, want 2", len(outcomes))
	}

	var sawFailure, sawSuccess bool
	for _, out := range outcomes {
		if out.Err != nil {
			sawFailure = true
			if out.Record != nil {
				t.Errorf("failed outcome carries record %+v", out.Record)
			}
		} else {
			sawSuccess = true
			if len(out.Record.Moves) != 1 {
				t.Errorf("successful record has %d moves, want 1", len(out.Record.Moves))
			}
		}
	}
	if !sawFailure || !sawSuccess {
		t.Errorf("outcomes = %+v, want one failure and one success", outcomes)
	}
}

func TestOrchestratorCancelledContext(t *testing.T) {
	game := mustParse(t, "1. e4")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	o := NewOrchestrator(OrchestratorConfig{Logger: zerolog.Nop()}, func() (Scorer, error) {
		t.Error("newScorer called after cancellation")
		return nil, errors.New("unreachable")
	})

	outcomes, sum := o.Run(ctx, []*chess.Game{game, game})
	if len(outcomes) != 0 {
		t.Errorf("len(outcomes) = %d, want 0", len(outcomes))
	}
	if sum.Completed != 0 {
		t.Errorf("summary = %+v, want empty", sum)
	}
}
