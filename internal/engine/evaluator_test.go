package engine

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/Okami6997/ChessGamesAnalyzer/internal/chess"
)

func TestNormalize(t *testing.T) {
	e := &Evaluator{cfg: Config{}.withDefaults(), log: zerolog.Nop()}
	mate := e.cfg.MateScore

	tests := []struct {
		name       string
		res        Result
		stm        chess.Side
		wantCP     int
		wantMate   bool
		wantMateIn int
	}{
		{
			name:   "cp white to move",
			res:    Result{Kind: KindCentipawn, Value: 34, HasScore: true},
			stm:    chess.White,
			wantCP: 34,
		},
		{
			name:   "cp black to move negated",
			res:    Result{Kind: KindCentipawn, Value: 34, HasScore: true},
			stm:    chess.Black,
			wantCP: -34,
		},
		{
			name:       "white mates",
			res:        Result{Kind: KindMate, Value: 3, HasScore: true},
			stm:        chess.White,
			wantCP:     mate,
			wantMate:   true,
			wantMateIn: 3,
		},
		{
			name:       "black mates",
			res:        Result{Kind: KindMate, Value: 3, HasScore: true},
			stm:        chess.Black,
			wantCP:     -mate,
			wantMate:   true,
			wantMateIn: -3,
		},
		{
			name:       "white is getting mated",
			res:        Result{Kind: KindMate, Value: -2, HasScore: true},
			stm:        chess.White,
			wantCP:     -mate,
			wantMate:   true,
			wantMateIn: -2,
		},
		{
			name:       "black is getting mated",
			res:        Result{Kind: KindMate, Value: -2, HasScore: true},
			stm:        chess.Black,
			wantCP:     mate,
			wantMate:   true,
			wantMateIn: 2,
		},
		{
			name:       "white already mated",
			res:        Result{Kind: KindMate, Value: 0, HasScore: true},
			stm:        chess.White,
			wantCP:     -mate,
			wantMate:   true,
			wantMateIn: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := e.normalize(tt.res, tt.stm)
			if ev.CP != tt.wantCP || ev.Mate != tt.wantMate || ev.MateIn != tt.wantMateIn {
				t.Errorf("normalize(%+v, %v) = %+v, want cp %d mate %v matein %d",
					tt.res, tt.stm, ev, tt.wantCP, tt.wantMate, tt.wantMateIn)
			}
		})
	}
}

func TestNormalizeWDLFallback(t *testing.T) {
	e := &Evaluator{cfg: Config{}.withDefaults(), log: zerolog.Nop()}

	// Balanced probabilities land at an even score.
	ev := e.normalize(Result{WDL: &WDL{Win: 0.25, Draw: 0.5, Loss: 0.25}}, chess.White)
	if ev.CP != 0 {
		t.Errorf("balanced WDL cp = %d, want 0", ev.CP)
	}

	// A winning book for the side to move maps to a positive score for
	// White, negative for Black.
	winning := &WDL{Win: 0.8, Draw: 0.15, Loss: 0.05}
	if ev := e.normalize(Result{WDL: winning}, chess.White); ev.CP <= 0 {
		t.Errorf("winning WDL for White cp = %d, want > 0", ev.CP)
	}
	if ev := e.normalize(Result{WDL: winning}, chess.Black); ev.CP >= 0 {
		t.Errorf("winning WDL for Black cp = %d, want < 0", ev.CP)
	}

	// An explicit centipawn score wins over the probabilities.
	ev = e.normalize(Result{Kind: KindCentipawn, Value: 70, HasScore: true, WDL: winning}, chess.White)
	if ev.CP != 70 {
		t.Errorf("cp with WDL present = %d, want 70", ev.CP)
	}

	// An explicit "score cp 0" is a real evaluation, not a miss: skewed
	// probabilities alongside it must not displace the dead-even score.
	ev = e.normalize(Result{Kind: KindCentipawn, Value: 0, HasScore: true, WDL: &WDL{Win: 0.7, Draw: 0.1, Loss: 0.2}}, chess.White)
	if ev.CP != 0 {
		t.Errorf("explicit cp 0 with WDL present = %d, want 0", ev.CP)
	}

	// The raw network value is the last resort: 0 is dead even, positive
	// favors the side to move.
	q := 0.0
	if ev := e.normalize(Result{NNEval: &q}, chess.White); ev.CP != 0 {
		t.Errorf("even nn eval cp = %d, want 0", ev.CP)
	}
	q = 0.6
	if ev := e.normalize(Result{NNEval: &q}, chess.Black); ev.CP >= 0 {
		t.Errorf("winning nn eval for Black cp = %d, want < 0", ev.CP)
	}
}

func TestWdlToCentipawns(t *testing.T) {
	if got := wdlToCentipawns(WDL{Win: 0.5, Draw: 0, Loss: 0.5}); got != 0 {
		t.Errorf("even WDL = %d cp, want 0", got)
	}
	if a, b := wdlToCentipawns(WDL{Win: 0.9, Loss: 0.1}), wdlToCentipawns(WDL{Win: 0.6, Loss: 0.4}); a <= b {
		t.Errorf("higher win probability gave %d cp <= %d cp", a, b)
	}
	// Certain win clamps rather than overflowing.
	got := wdlToCentipawns(WDL{Win: 1})
	if got <= 0 || got > 3000 {
		t.Errorf("certain win = %d cp, want positive and clamped", got)
	}
}

func TestEvalCodecRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		ev   Eval
	}{
		{"plain", Eval{CP: 34, Depth: 15, BestMove: "e2e4"}},
		{"negative", Eval{CP: -250, Depth: 12, BestMove: "g8f6"}},
		{"mate", Eval{CP: 100000, Mate: true, MateIn: 3, Depth: 20, BestMove: "h5f7"}},
		{"mated", Eval{CP: -100000, Mate: true, MateIn: -1, Depth: 5}},
		{"no bestmove", Eval{CP: 0, Depth: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := decodeEval(encodeEval(tt.ev))
			if err != nil {
				t.Fatalf("decodeEval: %v", err)
			}
			if got != tt.ev {
				t.Errorf("round trip = %+v, want %+v", got, tt.ev)
			}
		})
	}
}

func TestDecodeEvalErrors(t *testing.T) {
	if _, err := decodeEval(nil); err == nil {
		t.Error("decodeEval(nil) succeeded, want error")
	}
	if _, err := decodeEval(make([]byte, 5)); err == nil {
		t.Error("decodeEval(short) succeeded, want error")
	}

	// Wrong version byte.
	raw := encodeEval(Eval{CP: 1})
	raw[0] = 0
	if _, err := decodeEval(raw); err == nil {
		t.Error("decodeEval(wrong version) succeeded, want error")
	}

	// Truncated bestmove.
	raw = encodeEval(Eval{CP: 1, BestMove: "e2e4"})
	if _, err := decodeEval(raw[:len(raw)-2]); err == nil {
		t.Error("decodeEval(truncated) succeeded, want error")
	}
}

type mapCache struct {
	m map[string][]byte
}

func (c *mapCache) Get(key string) ([]byte, bool) {
	v, ok := c.m[key]
	return v, ok
}

func (c *mapCache) Set(key string, val []byte) error {
	c.m[key] = val
	return nil
}

func TestEvaluatorCacheReadThrough(t *testing.T) {
	s := fakeSession(t, "normal", Config{})
	cache := &mapCache{m: make(map[string][]byte)}
	e := NewEvaluator(s, cache)

	pos := chess.StartingPosition()
	ev, err := e.Evaluate(context.Background(), pos)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if ev.CP != 34 {
		t.Errorf("CP = %d, want 34", ev.CP)
	}
	if len(cache.m) != 1 {
		t.Fatalf("cache entries = %d, want 1", len(cache.m))
	}

	// A cached position must not touch the engine again. Closing the
	// session proves it: evaluation still succeeds from the cache.
	s.Close()
	ev2, err := e.Evaluate(context.Background(), pos)
	if err != nil {
		t.Fatalf("Evaluate from cache: %v", err)
	}
	if ev2 != ev {
		t.Errorf("cached eval = %+v, want %+v", ev2, ev)
	}
}

func TestEvaluatorCacheKey(t *testing.T) {
	s := NewSession(Config{Path: "stockfish", Depth: 18, Logger: zerolog.Nop()})
	e := NewEvaluator(s, nil)
	if got := e.cacheKey("fen-here"); got != "fen-here|d18" {
		t.Errorf("depth cacheKey = %q, want fen-here|d18", got)
	}

	s = NewSession(Config{Path: "stockfish", MoveTime: 1500 * time.Millisecond, Logger: zerolog.Nop()})
	e = NewEvaluator(s, nil)
	if got := e.cacheKey("fen-here"); got != "fen-here|t1500" {
		t.Errorf("movetime cacheKey = %q, want fen-here|t1500", got)
	}
}
