package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/Okami6997/ChessGamesAnalyzer/internal/analysis"
	"github.com/Okami6997/ChessGamesAnalyzer/internal/chess"
	"github.com/Okami6997/ChessGamesAnalyzer/internal/engine"
	"github.com/Okami6997/ChessGamesAnalyzer/internal/evalcache"
	"github.com/Okami6997/ChessGamesAnalyzer/internal/export"
	"github.com/Okami6997/ChessGamesAnalyzer/internal/logx"
)

type options struct {
	inputPath  string
	outputPath string
	enginePath string
	weights    string
	depth      int
	moveTime   time.Duration
	threads    int
	hashMB     int
	minThink   time.Duration
	timeout    time.Duration
	workers    int
	cacheDir   string
	maxGames   int
}

func main() {
	defaultEngine := "stockfish"
	if envPath := os.Getenv("STOCKFISH_PATH"); envPath != "" {
		defaultEngine = envPath
	}

	var opts options
	flag.StringVar(&opts.inputPath, "input", "", "Path to JSON file with an array of PGN strings")
	flag.StringVar(&opts.outputPath, "output", "./analysis.csv", "Output CSV path (supports .zst)")
	flag.StringVar(&opts.enginePath, "engine", defaultEngine, "Path to a UCI engine binary")
	flag.StringVar(&opts.weights, "weights", "", "Network weights file (lc0-style engines)")
	flag.IntVar(&opts.depth, "depth", 15, "Search depth per position")
	flag.DurationVar(&opts.moveTime, "movetime", 0, "Search time per position (overrides depth)")
	flag.IntVar(&opts.threads, "threads", 2, "Engine Threads option")
	flag.IntVar(&opts.hashMB, "hash", 0, "Engine Hash option in MB (0 = engine default)")
	flag.DurationVar(&opts.minThink, "min-think", 30*time.Millisecond, "Engine Minimum Thinking Time option")
	flag.DurationVar(&opts.timeout, "timeout", 30*time.Second, "Per-evaluation timeout")
	flag.IntVar(&opts.workers, "workers", 2, "Number of games analyzed in parallel")
	flag.StringVar(&opts.cacheDir, "cache-dir", "", "Evaluation cache directory (empty = no cache)")
	flag.IntVar(&opts.maxGames, "max-games", 0, "Maximum games to analyze (0 = unlimited)")
	flag.Parse()

	if opts.inputPath == "" {
		fmt.Fprintln(os.Stderr, "Usage: analyze --input <games.json> [options]")
		flag.PrintDefaults()
		os.Exit(1)
	}

	logger := logx.NewLogger()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, logger, opts); err != nil {
		logger.Fatal().Err(err).Msg("analysis failed")
	}
}

// run drives the whole analysis. It returns errors instead of exiting so
// deferred cleanup (the eval cache in particular) runs before main's fatal
// exit.
func run(ctx context.Context, logger zerolog.Logger, opts options) error {
	logger.Info().
		Str("input", opts.inputPath).
		Str("output", opts.outputPath).
		Str("engine", opts.enginePath).
		Int("depth", opts.depth).
		Int("workers", opts.workers).
		Msg("starting analysis")

	games, parseFailures, err := loadGames(opts.inputPath, logger)
	if err != nil {
		return err
	}
	if opts.maxGames > 0 && len(games) > opts.maxGames {
		games = games[:opts.maxGames]
	}
	if len(games) == 0 {
		return fmt.Errorf("no parseable games in %s", opts.inputPath)
	}
	logger.Info().Int("games", len(games)).Int("unparseable", parseFailures).Msg("loaded games")

	var cache *evalcache.Cache
	if opts.cacheDir != "" {
		cache, err = evalcache.Open(opts.cacheDir)
		if err != nil {
			return fmt.Errorf("open eval cache %s: %w", opts.cacheDir, err)
		}
		defer cache.Close()
	}

	engineCfg := engine.Config{
		Path:        opts.enginePath,
		WeightsPath: opts.weights,
		Depth:       opts.depth,
		MoveTime:    opts.moveTime,
		Threads:     opts.threads,
		HashMB:      opts.hashMB,
		MinThink:    opts.minThink,
		Timeout:     opts.timeout,
		Logger:      logger,
	}

	orch := analysis.NewOrchestrator(analysis.OrchestratorConfig{
		Workers: opts.workers,
		Logger:  logger,
	}, func() (analysis.Scorer, error) {
		sess := engine.NewSession(engineCfg)
		if err := sess.Start(); err != nil {
			return nil, err
		}
		ev := engine.NewEvaluator(sess, cacheOrNil(cache))
		return ev, nil
	})

	start := time.Now()
	outcomes, summary := orch.Run(ctx, games)

	records := make([]*analysis.GameRecord, 0, len(outcomes))
	for _, out := range outcomes {
		if out.Record != nil && len(out.Record.Moves) > 0 {
			records = append(records, out.Record)
		}
	}

	if err := export.WriteCSV(opts.outputPath, records); err != nil {
		return fmt.Errorf("write csv %s: %w", opts.outputPath, err)
	}

	if cache != nil {
		if n, err := cache.Len(); err == nil {
			logger.Info().Int("cached_positions", n).Str("dir", opts.cacheDir).Msg("eval cache")
		}
	}

	logger.Info().
		Int("completed", summary.Completed).
		Int("partial", summary.Partial).
		Int("failed", summary.Failed).
		Str("output", opts.outputPath).
		Dur("elapsed", time.Since(start)).
		Msg("analysis finished")
	return nil
}

// loadGames reads a JSON array of PGN strings and parses each into a
// game. Unparseable entries are logged and skipped.
func loadGames(path string, logger zerolog.Logger) ([]*chess.Game, int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, 0, fmt.Errorf("read input: %w", err)
	}

	var pgns []string
	if err := json.Unmarshal(data, &pgns); err != nil {
		return nil, 0, fmt.Errorf("decode input %s (expected JSON array of PGN strings): %w", path, err)
	}

	var games []*chess.Game
	failures := 0
	for i, text := range pgns {
		game, err := chess.ParseGame(text)
		if err != nil {
			logger.Warn().Err(err).Int("index", i).Msg("skipping unparseable game")
			failures++
			continue
		}
		games = append(games, game)
	}
	return games, failures, nil
}

// cacheOrNil avoids storing a typed nil in the evaluator's Cache
// interface when no cache directory was configured.
func cacheOrNil(c *evalcache.Cache) engine.Cache {
	if c == nil {
		return nil
	}
	return c
}
