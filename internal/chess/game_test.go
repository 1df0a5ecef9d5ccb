package chess

import (
	"reflect"
	"strings"
	"testing"
)

const scholarsMatePGN = `[Event "Live Chess"]
[Site "Chess.com"]
[White "alice"]
[Black "bob"]
[Result "1-0"]
[WhiteElo "1200"]
[BlackElo "1150"]
[Link "https://www.chess.com/game/live/12345678"]

1. e4 e5 2. Qh5 Nc6 3. Bc4 Nf6 4. Qxf7# 1-0`

func TestParseGame(t *testing.T) {
	g, err := ParseGame(scholarsMatePGN)
	if err != nil {
		t.Fatalf("ParseGame: %v", err)
	}

	if got := len(g.Moves); got != 7 {
		t.Fatalf("len(Moves) = %d, want 7", got)
	}

	wantSAN := []string{"e4", "e5", "Qh5", "Nc6", "Bc4", "Nf6", "Qxf7#"}
	var gotSAN []string
	for _, mv := range g.Moves {
		gotSAN = append(gotSAN, mv.SAN())
	}
	if !reflect.DeepEqual(gotSAN, wantSAN) {
		t.Errorf("SAN sequence = %v, want %v", gotSAN, wantSAN)
	}

	if got := g.Moves[6].UCI(); got != "h5f7" {
		t.Errorf("last move UCI = %q, want h5f7", got)
	}

	if g.White() != "alice" || g.Black() != "bob" {
		t.Errorf("players = %q/%q, want alice/bob", g.White(), g.Black())
	}
	if g.WhiteElo() != "1200" || g.BlackElo() != "1150" {
		t.Errorf("elos = %q/%q, want 1200/1150", g.WhiteElo(), g.BlackElo())
	}
	if got := g.URL(); got != "https://www.chess.com/game/live/12345678" {
		t.Errorf("URL() = %q", got)
	}
	if got := g.ID(); got != "12345678" {
		t.Errorf("ID() = %q, want 12345678", got)
	}
}

func TestParseGameNoise(t *testing.T) {
	// Comments, a variation, NAGs and black move numbers must all be
	// skipped without disturbing the mainline.
	pgn := `[Event "Test"]

1. e4 {king's pawn} e5 $1 2. Nf3 (2. Qh5 Nc6) 2... Nc6 1/2-1/2`

	g, err := ParseGame(pgn)
	if err != nil {
		t.Fatalf("ParseGame: %v", err)
	}
	wantSAN := []string{"e4", "e5", "Nf3", "Nc6"}
	var gotSAN []string
	for _, mv := range g.Moves {
		gotSAN = append(gotSAN, mv.SAN())
	}
	if !reflect.DeepEqual(gotSAN, wantSAN) {
		t.Errorf("SAN sequence = %v, want %v", gotSAN, wantSAN)
	}
}

func TestParseGameErrors(t *testing.T) {
	tests := []struct {
		name string
		pgn  string
	}{
		{"empty", ""},
		{"tags only", "[Event \"x\"]\n"},
		{"no moves", "[Event \"x\"]\n\n*"},
		{"illegal move", "1. e4 e5 2. Ke3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseGame(tt.pgn); err == nil {
				t.Error("ParseGame succeeded, want error")
			}
		})
	}
}

func TestParseGameIllegalMoveNumbered(t *testing.T) {
	_, err := ParseGame("1. e4 e5 2. Ke3")
	if err == nil {
		t.Fatal("ParseGame succeeded, want error")
	}
	if !strings.Contains(err.Error(), "move 3") {
		t.Errorf("error = %v, want the offending move number", err)
	}
}

func TestParseGameLineComments(t *testing.T) {
	// Rest-of-line comments may contain anything, including text that
	// looks like moves; escape lines are dropped wholesale.
	pgn := `[Event "Live Chess"]
[White "alice"]

%this whole line is an escape: 1. d4 d5
1. e4 ; the king's pawn, better than e3 or d4
e5 2. Nf3 {braces keep ; and " intact} Nc6`

	g, err := ParseGame(pgn)
	if err != nil {
		t.Fatalf("ParseGame: %v", err)
	}
	wantSAN := []string{"e4", "e5", "Nf3", "Nc6"}
	var gotSAN []string
	for _, mv := range g.Moves {
		gotSAN = append(gotSAN, mv.SAN())
	}
	if !reflect.DeepEqual(gotSAN, wantSAN) {
		t.Errorf("SAN sequence = %v, want %v", gotSAN, wantSAN)
	}
	if g.White() != "alice" {
		t.Errorf("White() = %q, want alice", g.White())
	}
}

func TestStripLineComments(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "1. e4 e5", "1. e4 e5"},
		{"semicolon", "1. e4 ; best by test\ne5", "1. e4 \ne5"},
		{"escape line", "%ignore me\n1. e4", "\n1. e4"},
		{"semicolon in brace", "1. e4 {a;b} e5", "1. e4 {a;b} e5"},
		{"semicolon in tag string", `[Event "a;b"]`, `[Event "a;b"]`},
		{"percent mid-line kept", "1. e4 {50% sure} e5", "1. e4 {50% sure} e5"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := stripLineComments(tt.in); got != tt.want {
				t.Errorf("stripLineComments(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestGameID(t *testing.T) {
	tests := []struct {
		name string
		tags map[string]string
		want string
	}{
		{
			name: "chess.com link",
			tags: map[string]string{"Link": "https://www.chess.com/game/live/99"},
			want: "99",
		},
		{
			name: "lichess site",
			tags: map[string]string{"Site": "https://lichess.org/AbCd1234"},
			want: "AbCd1234",
		},
		{
			name: "trailing slash",
			tags: map[string]string{"Link": "https://www.chess.com/game/live/42/"},
			want: "42",
		},
		{
			name: "link preferred over site",
			tags: map[string]string{
				"Site": "Chess.com",
				"Link": "https://www.chess.com/game/live/7",
			},
			want: "7",
		},
		{
			name: "non-url site",
			tags: map[string]string{"Site": "Chess.com"},
			want: "",
		},
		{
			name: "unrecognized host",
			tags: map[string]string{"Link": "https://example.com/games/5"},
			want: "",
		},
		{
			name: "no tags",
			tags: map[string]string{},
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := &Game{Tags: tt.tags}
			if got := g.ID(); got != tt.want {
				t.Errorf("ID() = %q, want %q", got, tt.want)
			}
		})
	}
}
