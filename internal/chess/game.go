package chess

import (
	"fmt"
	"strings"

	"github.com/freeeve/pgn/v3"
)

// Game is one parsed game: its PGN tag pairs and the mainline moves in
// play order. Moves have already been validated against the replayed
// board, so replaying them with Position.Apply cannot fail.
type Game struct {
	Tags  map[string]string
	Moves []Move
}

// White returns the white player's name.
func (g *Game) White() string { return g.tagOr("White", "Unknown") }

// Black returns the black player's name.
func (g *Game) Black() string { return g.tagOr("Black", "Unknown") }

// WhiteElo returns white's rating tag.
func (g *Game) WhiteElo() string { return g.tagOr("WhiteElo", "") }

// BlackElo returns black's rating tag.
func (g *Game) BlackElo() string { return g.tagOr("BlackElo", "") }

// URL returns the game's source URL, preferring the chess.com Link tag
// over the standard Site tag.
func (g *Game) URL() string {
	if link := g.Tags["Link"]; link != "" {
		return link
	}
	site := g.Tags["Site"]
	if strings.HasPrefix(site, "http") {
		return site
	}
	return ""
}

// ID returns the external game identifier: the last path segment of a
// chess.com or lichess.org URL, or empty if the game has neither.
func (g *Game) ID() string {
	url := g.URL()
	if url == "" {
		return ""
	}
	if !strings.Contains(url, "chess.com") && !strings.Contains(url, "lichess.org") {
		return ""
	}
	url = strings.TrimRight(url, "/")
	if i := strings.LastIndex(url, "/"); i >= 0 {
		return url[i+1:]
	}
	return ""
}

func (g *Game) tagOr(key, fallback string) string {
	if v := g.Tags[key]; v != "" {
		return v
	}
	return fallback
}

// ParseGame parses a single PGN game from a string. The movetext
// (comments, variations, NAGs, results) is handled by the pgn package;
// the mainline is then replayed from the starting position so every
// move carries its SAN and the board it was played from. Texts holding
// several games yield the first.
func ParseGame(text string) (*Game, error) {
	parser := pgn.GamesFromReader(strings.NewReader(stripLineComments(text)), 1)

	var first *pgn.Game
	for g := range parser.Games {
		if first == nil {
			first = g
		}
	}
	if first == nil {
		if err := parser.Err(); err != nil {
			return nil, fmt.Errorf("parse game: %w", err)
		}
		return nil, fmt.Errorf("no moves in game")
	}
	if len(first.Moves) == 0 {
		return nil, fmt.Errorf("no moves in game")
	}

	g := &Game{Tags: first.Tags}
	pos := StartingPosition()
	for i, mv := range first.Moves {
		m := Move{mv: mv, san: sanOf(pos.st, mv)}
		next, err := pos.Apply(m)
		if err != nil {
			return nil, fmt.Errorf("move %d: %w", i+1, err)
		}
		g.Moves = append(g.Moves, m)
		pos = next
	}
	return g, nil
}

// stripLineComments removes the PGN import-format constructs the pgn
// scanner does not recognize: '%' escape lines and ';' rest-of-line
// comments. Semicolons inside brace comments and tag strings are kept.
func stripLineComments(text string) string {
	var b strings.Builder
	var inBrace, inQuote, skipLine bool
	lineStart := true

	for i := 0; i < len(text); i++ {
		c := text[i]
		if c == '\n' {
			skipLine = false
			lineStart = true
			inQuote = false // tag strings do not span lines
			b.WriteByte(c)
			continue
		}
		if skipLine {
			continue
		}
		switch {
		case lineStart && c == '%':
			skipLine = true
			continue
		case c == '"' && !inBrace:
			inQuote = !inQuote
		case c == '{' && !inQuote:
			inBrace = true
		case c == '}' && !inQuote:
			inBrace = false
		case c == ';' && !inBrace && !inQuote:
			skipLine = true
			continue
		}
		lineStart = false
		b.WriteByte(c)
	}
	return b.String()
}
