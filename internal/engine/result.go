package engine

import (
	"regexp"
	"strconv"
	"strings"
)

// ScoreKind distinguishes centipawn evaluations from forced mates.
type ScoreKind int

const (
	KindCentipawn ScoreKind = iota
	KindMate
)

// WDL holds outcome probabilities as fractions in [0,1], reported by
// engines that expose them (lc0, stockfish with UCI_ShowWDL).
type WDL struct {
	Win  float64
	Draw float64
	Loss float64
}

// Result is one evaluation as reported by the engine, from the
// perspective of the side to move. For KindMate, Value is the signed
// move count to mate, not centipawns.
type Result struct {
	Kind     ScoreKind
	Value    int
	HasScore bool // true once the engine reported an explicit "score cp" or "score mate"
	Depth    int
	BestMove string
	WDL      *WDL     // nil unless the engine reported outcome probabilities
	NNEval   *float64 // lc0 raw network value in [-1,1], nil if absent
}

var (
	lc0WinRe  = regexp.MustCompile(`\bwin=([\d.]+)`)
	lc0DrawRe = regexp.MustCompile(`\bdraw=([\d.]+)`)
	lc0LossRe = regexp.MustCompile(`\bloss=([\d.]+)`)
	lc0NNRe   = regexp.MustCompile(`\bnn eval=([\-\d.]+)`)
)

// parseInfoLine folds one "info ..." line into the result under
// construction. Later lines overwrite earlier ones, so the result ends
// up holding the deepest search output.
func parseInfoLine(line string, res *Result) bool {
	fields := strings.Fields(line)
	updated := false

	for i, f := range fields {
		switch f {
		case "depth":
			if i+1 < len(fields) {
				if d, err := strconv.Atoi(fields[i+1]); err == nil {
					res.Depth = d
				}
			}
		case "score":
			if i+2 >= len(fields) {
				continue
			}
			v, err := strconv.Atoi(fields[i+2])
			if err != nil {
				continue
			}
			switch fields[i+1] {
			case "cp":
				res.Kind = KindCentipawn
				res.Value = v
				res.HasScore = true
				updated = true
			case "mate":
				res.Kind = KindMate
				res.Value = v
				res.HasScore = true
				updated = true
			}
		case "wdl":
			// UCI_ShowWDL: per-mille win/draw/loss for the side to move.
			if i+3 < len(fields) {
				w, errW := strconv.Atoi(fields[i+1])
				d, errD := strconv.Atoi(fields[i+2])
				l, errL := strconv.Atoi(fields[i+3])
				if errW == nil && errD == nil && errL == nil {
					res.WDL = &WDL{
						Win:  float64(w) / 1000,
						Draw: float64(d) / 1000,
						Loss: float64(l) / 1000,
					}
				}
			}
		}
	}

	// lc0 verbose stats report fractional probabilities instead.
	if nm := lc0NNRe.FindStringSubmatch(line); nm != nil {
		if q, err := strconv.ParseFloat(nm[1], 64); err == nil {
			res.NNEval = &q
		}
	}
	if wm := lc0WinRe.FindStringSubmatch(line); wm != nil {
		dm := lc0DrawRe.FindStringSubmatch(line)
		lm := lc0LossRe.FindStringSubmatch(line)
		if dm != nil && lm != nil {
			w, errW := strconv.ParseFloat(wm[1], 64)
			d, errD := strconv.ParseFloat(dm[1], 64)
			l, errL := strconv.ParseFloat(lm[1], 64)
			if errW == nil && errD == nil && errL == nil {
				res.WDL = &WDL{Win: w, Draw: d, Loss: l}
			}
		}
	}

	return updated
}

// parseBestMove extracts the move from a "bestmove e2e4 [ponder ...]"
// line.
func parseBestMove(line string) string {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return ""
	}
	if fields[1] == "(none)" {
		return ""
	}
	return fields[1]
}
