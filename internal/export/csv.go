// Package export flattens analyzed games into tabular files.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/klauspost/compress/zstd"

	"github.com/Okami6997/ChessGamesAnalyzer/internal/analysis"
)

// Header is the column set of the analysis CSV, one row per move with
// the game header fields repeated.
var Header = []string{
	"GameID", "MoveNumber", "Player", "SAN", "UCI",
	"ScoreBefore", "ScoreAfter", "BestMove", "Classification",
	"Player1", "Player2", "Player1Elo", "Player2Elo", "GameURL",
}

// WriteCSV writes all move records to path. A path ending in .zst is
// zstd-compressed, mirroring the .pgn.zst convention on the input side.
func WriteCSV(path string, records []*analysis.GameRecord) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	var w io.Writer = f
	var zw *zstd.Encoder
	if strings.HasSuffix(path, ".zst") {
		zw, err = zstd.NewWriter(f)
		if err != nil {
			return fmt.Errorf("zstd writer: %w", err)
		}
		w = zw
	}

	if err := writeRows(w, records); err != nil {
		return err
	}
	if zw != nil {
		if err := zw.Close(); err != nil {
			return fmt.Errorf("flush zstd: %w", err)
		}
	}
	return f.Close()
}

func writeRows(w io.Writer, records []*analysis.GameRecord) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, rec := range records {
		for _, m := range rec.Moves {
			row := []string{
				rec.GameID,
				strconv.Itoa(m.MoveNumber),
				m.Player.String(),
				m.SAN,
				m.UCI,
				scoreField(m.ScoreBefore),
				scoreField(m.ScoreAfter),
				m.BestMove,
				m.Class.String(),
				rec.White,
				rec.Black,
				rec.WhiteElo,
				rec.BlackElo,
				rec.URL,
			}
			if err := cw.Write(row); err != nil {
				return fmt.Errorf("write row: %w", err)
			}
		}
	}

	cw.Flush()
	return cw.Error()
}

// scoreField renders a score, empty when the evaluation was
// unavailable so readers can tell "no data" from zero.
func scoreField(cp *int) string {
	if cp == nil {
		return ""
	}
	return strconv.Itoa(*cp)
}
