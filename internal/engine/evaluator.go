package engine

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/rs/zerolog"

	"github.com/Okami6997/ChessGamesAnalyzer/internal/chess"
	"github.com/Okami6997/ChessGamesAnalyzer/internal/classify"
)

// Eval is a normalized evaluation: centipawns from White's perspective
// regardless of whose turn it was, with forced mates saturated to
// ±MateScore so they dominate any realistic centipawn value in
// downstream comparisons.
type Eval struct {
	CP       int
	Mate     bool
	MateIn   int // signed moves-to-mate, White's perspective; 0 unless Mate
	Depth    int
	BestMove string
}

// Cache is a persistent evaluation store. Implementations must be safe
// for concurrent use; misses return ok=false.
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, val []byte) error
}

// Evaluator wraps a session with score normalization and an optional
// read-through cache.
type Evaluator struct {
	session *Session
	cache   Cache
	cfg     Config
	log     zerolog.Logger
}

// NewEvaluator wraps a started-or-startable session. cache may be nil.
func NewEvaluator(session *Session, cache Cache) *Evaluator {
	return &Evaluator{
		session: session,
		cache:   cache,
		cfg:     session.cfg,
		log:     session.log,
	}
}

// Evaluate scores a position. The session must have been started.
func (e *Evaluator) Evaluate(ctx context.Context, pos *chess.Position) (Eval, error) {
	fen := pos.FEN()
	key := e.cacheKey(fen)

	if e.cache != nil {
		if raw, ok := e.cache.Get(key); ok {
			if ev, err := decodeEval(raw); err == nil {
				return ev, nil
			}
		}
	}

	res, err := e.session.Evaluate(ctx, fen)
	if err != nil {
		return Eval{}, err
	}

	ev := e.normalize(res, pos.SideToMove())

	if e.cache != nil {
		if err := e.cache.Set(key, encodeEval(ev)); err != nil {
			e.log.Warn().Err(err).Str("fen", fen).Msg("eval cache write failed")
		}
	}
	return ev, nil
}

// Close releases the underlying session.
func (e *Evaluator) Close() error {
	return e.session.Close()
}

// normalize converts a raw side-to-move result to White's perspective.
func (e *Evaluator) normalize(res Result, stm chess.Side) Eval {
	ev := Eval{Depth: res.Depth, BestMove: res.BestMove}

	switch res.Kind {
	case KindMate:
		ev.Mate = true
		// res.Value > 0 means the side to move delivers mate; 0 means it
		// is already mated
		stmWinning := res.Value > 0
		mateIn := res.Value
		if stm == chess.Black {
			mateIn = -mateIn
		}
		ev.MateIn = mateIn
		if stmWinning == (stm == chess.White) {
			ev.CP = e.cfg.MateScore
		} else {
			ev.CP = -e.cfg.MateScore
		}
	default:
		cp := res.Value
		if stm == chess.Black {
			cp = -cp
		}
		ev.CP = cp
	}

	// When the engine reported only outcome probabilities, recover a
	// centipawn value through the inverse of the win% transform. The raw
	// network value is the fallback of last resort. An explicit score,
	// even cp 0, always wins over the probability fallback.
	if !res.HasScore {
		var cp int
		switch {
		case res.WDL != nil:
			cp = wdlToCentipawns(*res.WDL)
		case res.NNEval != nil:
			cp = expectedScoreToCentipawns((*res.NNEval + 1) / 2)
		default:
			return ev
		}
		if stm == chess.Black {
			cp = -cp
		}
		ev.CP = cp
	}
	return ev
}

func (e *Evaluator) cacheKey(fen string) string {
	if e.cfg.MoveTime > 0 {
		return fmt.Sprintf("%s|t%d", fen, e.cfg.MoveTime.Milliseconds())
	}
	return fmt.Sprintf("%s|d%d", fen, e.cfg.Depth)
}

// wdlToCentipawns inverts winPercent(cp) = 100/(1+exp(-k*cp)) for the
// expected score win + draw/2.
func wdlToCentipawns(wdl WDL) int {
	return expectedScoreToCentipawns(wdl.Win + wdl.Draw/2)
}

func expectedScoreToCentipawns(p float64) int {
	if p < 0.001 {
		p = 0.001
	}
	if p > 0.999 {
		p = 0.999
	}
	return int(math.Round(math.Log(p/(1-p)) / classify.DefaultWinPercentK))
}

// Cache entry codec: flags(1) cp(4) mateIn(4) depth(2) bestmove(1+n).
const evalEntryVersion = 1

func encodeEval(ev Eval) []byte {
	buf := make([]byte, 0, 12+len(ev.BestMove))
	flags := byte(evalEntryVersion) << 4
	if ev.Mate {
		flags |= 1
	}
	buf = append(buf, flags)
	buf = binary.BigEndian.AppendUint32(buf, uint32(int32(ev.CP)))
	buf = binary.BigEndian.AppendUint32(buf, uint32(int32(ev.MateIn)))
	buf = binary.BigEndian.AppendUint16(buf, uint16(ev.Depth))
	buf = append(buf, byte(len(ev.BestMove)))
	buf = append(buf, ev.BestMove...)
	return buf
}

func decodeEval(raw []byte) (Eval, error) {
	if len(raw) < 12 {
		return Eval{}, fmt.Errorf("eval entry too short: %d bytes", len(raw))
	}
	if raw[0]>>4 != evalEntryVersion {
		return Eval{}, fmt.Errorf("eval entry version %d", raw[0]>>4)
	}
	ev := Eval{
		Mate:   raw[0]&1 != 0,
		CP:     int(int32(binary.BigEndian.Uint32(raw[1:5]))),
		MateIn: int(int32(binary.BigEndian.Uint32(raw[5:9]))),
		Depth:  int(binary.BigEndian.Uint16(raw[9:11])),
	}
	n := int(raw[11])
	if len(raw) < 12+n {
		return Eval{}, fmt.Errorf("eval entry truncated")
	}
	ev.BestMove = string(raw[12 : 12+n])
	return ev, nil
}
