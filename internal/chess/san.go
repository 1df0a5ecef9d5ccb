package chess

import (
	"strings"

	"github.com/freeeve/pgn/v3"
)

// sanOf renders a legal move in Standard Algebraic Notation for the
// position it is played from. The pgn package parses SAN but has no
// writer, so the analyzer renders its own from the board state.
func sanOf(st *pgn.GameState, mv pgn.Mv) string {
	piece := st.PieceAt(mv.From)
	kind := piece &^ 0x20 // uppercase

	var b strings.Builder

	fileDelta := mv.To.File() - mv.From.File()
	switch {
	case kind == 'K' && fileDelta == 2:
		b.WriteString("O-O")
	case kind == 'K' && fileDelta == -2:
		b.WriteString("O-O-O")
	default:
		// En passant targets an empty square, so a pawn changing file is
		// a capture either way.
		capture := st.PieceAt(mv.To) != 0 || (kind == 'P' && fileDelta != 0)

		if kind == 'P' {
			if capture {
				b.WriteByte(byte('a' + mv.From.File()))
			}
		} else {
			b.WriteByte(kind)
			b.WriteString(disambiguation(st, mv, piece))
		}
		if capture {
			b.WriteByte('x')
		}
		b.WriteString(mv.To.String())

		switch mv.Promo {
		case pgn.PromoQueen:
			b.WriteString("=Q")
		case pgn.PromoRook:
			b.WriteString("=R")
		case pgn.PromoBishop:
			b.WriteString("=B")
		case pgn.PromoKnight:
			b.WriteString("=N")
		}
	}

	next := st.Copy()
	if err := pgn.ApplyMove(next, mv); err == nil {
		if next.IsCheckmate() {
			b.WriteByte('#')
		} else if next.IsInCheck() {
			b.WriteByte('+')
		}
	}
	return b.String()
}

// disambiguation returns the origin hint needed when another piece of
// the same kind can also reach the destination: file if it settles the
// ambiguity, else rank, else the full square.
func disambiguation(st *pgn.GameState, mv pgn.Mv, piece byte) string {
	var others, fileClash, rankClash bool
	for _, cand := range pgn.GenerateLegalMoves(st) {
		if cand.From == mv.From || cand.To != mv.To || st.PieceAt(cand.From) != piece {
			continue
		}
		others = true
		if cand.From.File() == mv.From.File() {
			fileClash = true
		}
		if cand.From.Rank() == mv.From.Rank() {
			rankClash = true
		}
	}
	switch {
	case !others:
		return ""
	case !fileClash:
		return string([]byte{byte('a' + mv.From.File())})
	case !rankClash:
		return string([]byte{byte('1' + mv.From.Rank())})
	}
	return mv.From.String()
}
