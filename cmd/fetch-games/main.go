package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Okami6997/ChessGamesAnalyzer/internal/fetch"
	"github.com/Okami6997/ChessGamesAnalyzer/internal/logx"
)

func main() {
	var (
		username   = flag.String("username", "", "chess.com username")
		outputPath = flag.String("output", "./games.json", "Output JSON path")
		workers    = flag.Int("workers", 4, "Parallel archive fetches")
	)
	flag.Parse()

	if *username == "" {
		fmt.Fprintln(os.Stderr, "Usage: fetch-games --username <name> [options]")
		flag.PrintDefaults()
		os.Exit(1)
	}

	logger := logx.NewLogger()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	client := fetch.NewClient(logger)
	pgns, err := client.AllGames(ctx, *username, *workers)
	if err != nil {
		logger.Fatal().Err(err).Str("username", *username).Msg("fetch games")
	}

	data, err := json.MarshalIndent(pgns, "", "  ")
	if err != nil {
		logger.Fatal().Err(err).Msg("encode games")
	}
	if err := os.WriteFile(*outputPath, data, 0o644); err != nil {
		logger.Fatal().Err(err).Str("path", *outputPath).Msg("write output")
	}

	logger.Info().Int("games", len(pgns)).Str("output", *outputPath).Msg("done")
}
