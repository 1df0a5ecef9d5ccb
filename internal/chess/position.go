// Package chess provides the board model for game analysis: immutable
// positions, moves carrying both UCI and SAN notation, and PGN parsing.
// Board mechanics (legality, FEN) come from freeeve/pgn.
package chess

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/freeeve/pgn/v3"
)

// StartingFEN is the standard initial position.
const StartingFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

// Side identifies the player to move or the player who moved.
type Side int

const (
	White Side = iota
	Black
)

func (s Side) String() string {
	if s == White {
		return "White"
	}
	return "Black"
}

// Other returns the opposing side.
func (s Side) Other() Side {
	if s == White {
		return Black
	}
	return White
}

// IllegalMoveError reports an attempt to apply a move that is not legal
// in the position it was applied to.
type IllegalMoveError struct {
	Move string
	FEN  string
}

func (e *IllegalMoveError) Error() string {
	return fmt.Sprintf("illegal move %q in position %q", e.Move, e.FEN)
}

// Position is an immutable board state. Apply returns a new Position and
// never mutates the receiver, so positions can be held across engine
// calls while the game advances.
type Position struct {
	st *pgn.GameState
}

// StartingPosition returns the standard initial position.
func StartingPosition() *Position {
	return &Position{st: pgn.NewStartingPosition()}
}

// PositionFromFEN parses a FEN string into a Position.
func PositionFromFEN(fen string) (*Position, error) {
	st, err := pgn.NewGame(fen)
	if err != nil {
		return nil, fmt.Errorf("parse FEN %q: %w", fen, err)
	}
	return &Position{st: st}, nil
}

// FEN renders the position in Forsyth-Edwards Notation, the canonical
// form consumed by engines.
func (p *Position) FEN() string {
	return p.st.ToFEN()
}

// SideToMove returns the side whose turn it is.
func (p *Position) SideToMove() Side {
	fields := strings.Fields(p.st.ToFEN())
	if len(fields) > 1 && fields[1] == "b" {
		return Black
	}
	return White
}

// FullMove returns the full-move counter from the position.
func (p *Position) FullMove() int {
	fields := strings.Fields(p.st.ToFEN())
	if len(fields) < 6 {
		return 1
	}
	n, err := strconv.Atoi(fields[5])
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// LegalMoves returns all legal moves in the position.
func (p *Position) LegalMoves() []Move {
	mvs := pgn.GenerateLegalMoves(p.st)
	out := make([]Move, 0, len(mvs))
	for _, mv := range mvs {
		out = append(out, Move{mv: mv, san: sanOf(p.st, mv)})
	}
	return out
}

// ParseSAN resolves a SAN token (as found in PGN movetext) against the
// position. Annotation suffixes (+, #, !, ?) are tolerated.
func (p *Position) ParseSAN(san string) (Move, error) {
	tok := normalizeSAN(san)
	mv, err := pgn.ParseSAN(p.st, tok)
	if err != nil {
		return Move{}, &IllegalMoveError{Move: san, FEN: p.FEN()}
	}
	return Move{mv: mv, san: tok}, nil
}

// Apply plays a legal move and returns the resulting position. The move
// must be legal here; applying a move from a different position fails
// with IllegalMoveError.
func (p *Position) Apply(m Move) (*Position, error) {
	legal := false
	for _, cand := range pgn.GenerateLegalMoves(p.st) {
		if cand.From == m.mv.From && cand.To == m.mv.To && cand.Promo == m.mv.Promo {
			legal = true
			break
		}
	}
	if !legal {
		return nil, &IllegalMoveError{Move: m.UCI(), FEN: p.FEN()}
	}

	next := p.st.Copy()
	if err := pgn.ApplyMove(next, m.mv); err != nil {
		return nil, &IllegalMoveError{Move: m.UCI(), FEN: p.FEN()}
	}
	return &Position{st: next}, nil
}

// Move is a single move tied to the position it was parsed from. It
// carries the engine-facing coordinate notation and the human-readable
// SAN it was written as.
type Move struct {
	mv  pgn.Mv
	san string
}

// SAN returns the move in Standard Algebraic Notation.
func (m Move) SAN() string {
	if m.san != "" {
		return m.san
	}
	return m.mv.String()
}

// UCI returns the move in coordinate notation (e2e4, e7e8q).
func (m Move) UCI() string {
	return m.mv.String()
}

// normalizeSAN strips annotation glyphs and maps zero-style castling to
// letter-O castling.
func normalizeSAN(san string) string {
	tok := strings.TrimRight(san, "+#!?")
	tok = strings.TrimSuffix(tok, " e.p.")
	switch tok {
	case "0-0":
		return "O-O"
	case "0-0-0":
		return "O-O-O"
	}
	return tok
}
