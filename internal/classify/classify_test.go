package classify

import (
	"math"
	"testing"

	"github.com/Okami6997/ChessGamesAnalyzer/internal/chess"
)

func intp(v int) *int { return &v }

func TestWinPercent(t *testing.T) {
	c := New()

	if got := c.WinPercent(0); math.Abs(got-50) > 1e-9 {
		t.Errorf("WinPercent(0) = %v, want 50", got)
	}

	// Bounded in [0,100] even for saturated mate scores.
	for _, cp := range []float64{-100000, -5000, -300, 0, 300, 5000, 100000} {
		got := c.WinPercent(cp)
		if got < 0 || got > 100 {
			t.Errorf("WinPercent(%v) = %v, out of [0,100]", cp, got)
		}
	}

	// Monotonically non-decreasing.
	prev := c.WinPercent(-100000)
	for cp := float64(-1000); cp <= 1000; cp += 50 {
		got := c.WinPercent(cp)
		if got < prev {
			t.Errorf("WinPercent(%v) = %v, less than WinPercent at lower cp (%v)", cp, got, prev)
		}
		prev = got
	}

	// Symmetric around 50.
	if a, b := c.WinPercent(200), c.WinPercent(-200); math.Abs((a-50)-(50-b)) > 1e-9 {
		t.Errorf("WinPercent not symmetric: WP(200)=%v WP(-200)=%v", a, b)
	}
}

func TestClassifyLossBoundaries(t *testing.T) {
	c := New()

	tests := []struct {
		name    string
		winLoss float64
		want    Classification
	}{
		{"well below dubious", 0, Neutral},
		{"just below dubious", 4.999, Neutral},
		{"dubious boundary", 5, Dubious},
		{"mid dubious", 8, Dubious},
		{"just below mistake", 9.999, Dubious},
		{"mistake boundary", 10, Mistake},
		{"mid mistake", 15, Mistake},
		{"just below blunder", 19.999, Mistake},
		{"blunder boundary", 20, Blunder},
		{"huge loss", 95, Blunder},
		{"negative loss (improvement)", -12, Neutral},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.ClassifyLoss(tt.winLoss); got != tt.want {
				t.Errorf("ClassifyLoss(%v) = %v, want %v", tt.winLoss, got, tt.want)
			}
		})
	}
}

func TestClassify(t *testing.T) {
	c := New()

	tests := []struct {
		name string
		in   Input
		want Classification
	}{
		{
			name: "missing before score",
			in:   Input{ScoreBefore: nil, ScoreAfter: intp(0), Mover: chess.White},
			want: Unknown,
		},
		{
			name: "missing after score",
			in:   Input{ScoreBefore: intp(0), ScoreAfter: nil, Mover: chess.White},
			want: Unknown,
		},
		{
			name: "white drops three pawns",
			in:   Input{ScoreBefore: intp(0), ScoreAfter: intp(-300), Mover: chess.White},
			want: Blunder,
		},
		{
			name: "white drops a pawn and a half",
			in:   Input{ScoreBefore: intp(0), ScoreAfter: intp(-150), Mover: chess.White},
			want: Mistake,
		},
		{
			name: "white drops one pawn",
			in:   Input{ScoreBefore: intp(0), ScoreAfter: intp(-100), Mover: chess.White},
			want: Dubious,
		},
		{
			name: "white drops half a pawn",
			in:   Input{ScoreBefore: intp(0), ScoreAfter: intp(-50), Mover: chess.White},
			want: Neutral,
		},
		{
			// Scores stay White-perspective; a rising score is a loss
			// for Black.
			name: "black hangs a piece",
			in:   Input{ScoreBefore: intp(0), ScoreAfter: intp(300), Mover: chess.Black},
			want: Blunder,
		},
		{
			name: "black improves",
			in:   Input{ScoreBefore: intp(100), ScoreAfter: intp(-200), Mover: chess.Black},
			want: Neutral,
		},
		{
			name: "white walks into mate",
			in:   Input{ScoreBefore: intp(50), ScoreAfter: intp(-100000), Mover: chess.White},
			want: Blunder,
		},
		{
			name: "equal position stays equal",
			in:   Input{ScoreBefore: intp(12), ScoreAfter: intp(8), Mover: chess.White},
			want: Neutral,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.Classify(tt.in); got != tt.want {
				t.Errorf("Classify(%+v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestClassificationString(t *testing.T) {
	tests := []struct {
		class Classification
		want  string
	}{
		{Blunder, "Blunder (??)"},
		{Mistake, "Mistake (?)"},
		{Dubious, "Dubious (?!)"},
		{Neutral, "Neutral"},
		{Unknown, "Unknown"},
	}

	for _, tt := range tests {
		if got := tt.class.String(); got != tt.want {
			t.Errorf("%d.String() = %q, want %q", tt.class, got, tt.want)
		}
	}
}
