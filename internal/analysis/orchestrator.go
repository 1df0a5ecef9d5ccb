package analysis

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/Okami6997/ChessGamesAnalyzer/internal/chess"
	"github.com/Okami6997/ChessGamesAnalyzer/internal/classify"
)

// OrchestratorConfig configures the concurrent analysis run.
type OrchestratorConfig struct {
	Workers    int // concurrently analyzed games (default 1)
	Classifier *classify.Classifier
	Logger     zerolog.Logger
}

// Outcome pairs a game's record with the error that ended it, if any.
// Partial records carry both.
type Outcome struct {
	Record *GameRecord
	Err    error
}

// Summary tallies a run.
type Summary struct {
	Completed int
	Partial   int
	Failed    int
}

// Orchestrator fans games out to a bounded pool of workers. Each game
// gets its own engine session (sessions are single-flight, so sharing
// one would serialize the whole run); one game's failure never cancels
// another's analysis.
type Orchestrator struct {
	cfg       OrchestratorConfig
	log       zerolog.Logger
	newScorer func() (Scorer, error)

	analyzed atomic.Int64
}

// NewOrchestrator creates an orchestrator. newScorer is invoked once
// per game, on the worker that runs it.
func NewOrchestrator(cfg OrchestratorConfig, newScorer func() (Scorer, error)) *Orchestrator {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	return &Orchestrator{
		cfg:       cfg,
		log:       cfg.Logger,
		newScorer: newScorer,
	}
}

// Run analyzes all games and returns their outcomes in completion
// order, plus a tally. Games that fail to parse or whose session fails
// are reported individually; Run itself only stops early on ctx
// cancellation, and even then returns what finished.
func (o *Orchestrator) Run(ctx context.Context, games []*chess.Game) ([]Outcome, Summary) {
	o.log.Info().Int("games", len(games)).Int("workers", o.cfg.Workers).Msg("analysis run started")

	work := make(chan *chess.Game)
	results := make(chan Outcome, len(games))

	var wg sync.WaitGroup
	for i := 0; i < o.cfg.Workers; i++ {
		workerID := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			o.runWorker(ctx, workerID, work, results)
		}()
	}

feed:
	for _, g := range games {
		select {
		case work <- g:
		case <-ctx.Done():
			break feed
		}
	}
	close(work)
	wg.Wait()
	close(results)

	outcomes := make([]Outcome, 0, len(games))
	var sum Summary
	for out := range results {
		outcomes = append(outcomes, out)
		switch {
		case out.Err == nil:
			sum.Completed++
		case out.Record != nil && len(out.Record.Moves) > 0:
			sum.Partial++
		default:
			sum.Failed++
		}
	}

	o.log.Info().
		Int("completed", sum.Completed).
		Int("partial", sum.Partial).
		Int("failed", sum.Failed).
		Msg("analysis run finished")
	return outcomes, sum
}

func (o *Orchestrator) runWorker(ctx context.Context, workerID int, work <-chan *chess.Game, results chan<- Outcome) {
	log := o.log.With().Int("worker_id", workerID).Logger()

	for game := range work {
		select {
		case <-ctx.Done():
			return
		default:
		}

		scorer, err := o.newScorer()
		if err != nil {
			log.Error().Err(err).Str("game", game.ID()).Msg("engine session unavailable")
			results <- Outcome{Record: nil, Err: err}
			continue
		}

		driver := NewDriver(scorer, o.cfg.Classifier, log.With().Str("game", game.ID()).Logger())
		rec, err := driver.Analyze(ctx, game)
		if err != nil {
			log.Warn().Err(err).Str("game", game.ID()).Int("moves_done", len(rec.Moves)).
				Msg("game analysis incomplete")
		} else {
			log.Info().Str("game", game.ID()).Int("moves", len(rec.Moves)).
				Int64("total", o.analyzed.Add(1)).Msg("game analyzed")
		}
		results <- Outcome{Record: rec, Err: err}
	}
}
