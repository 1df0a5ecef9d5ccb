// Package fetch pulls game archives from the chess.com public API.
package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const defaultBaseURL = "https://api.chess.com/pub"

// The public API rejects requests without a real-looking user agent.
const userAgent = "Mozilla/5.0 (compatible; chess-games-analyzer)"

// Client fetches archives and games for a chess.com user.
type Client struct {
	http    *http.Client
	baseURL string
	log     zerolog.Logger
}

// NewClient creates a client. log is used for per-archive progress.
func NewClient(log zerolog.Logger) *Client {
	return &Client{
		http:    &http.Client{Timeout: 30 * time.Second},
		baseURL: defaultBaseURL,
		log:     log,
	}
}

// Archives lists the monthly archive URLs for a username.
func (c *Client) Archives(ctx context.Context, username string) ([]string, error) {
	url := fmt.Sprintf("%s/player/%s/games/archives", c.baseURL, username)

	var body struct {
		Archives []string `json:"archives"`
	}
	if err := c.getJSON(ctx, url, &body); err != nil {
		return nil, fmt.Errorf("fetch archives for %s: %w", username, err)
	}
	return body.Archives, nil
}

// ArchiveGames fetches one monthly archive and returns its games as PGN
// strings.
func (c *Client) ArchiveGames(ctx context.Context, archiveURL string) ([]string, error) {
	var body struct {
		Games []struct {
			PGN string `json:"pgn"`
		} `json:"games"`
	}
	if err := c.getJSON(ctx, archiveURL, &body); err != nil {
		return nil, fmt.Errorf("fetch archive %s: %w", archiveURL, err)
	}

	pgns := make([]string, 0, len(body.Games))
	for _, g := range body.Games {
		if g.PGN != "" {
			pgns = append(pgns, g.PGN)
		}
	}
	return pgns, nil
}

// AllGames fetches every archive for a username with a bounded number
// of parallel requests. A failed archive is logged and skipped; order
// follows the archive list (oldest first).
func (c *Client) AllGames(ctx context.Context, username string, workers int) ([]string, error) {
	if workers <= 0 {
		workers = 4
	}

	archives, err := c.Archives(ctx, username)
	if err != nil {
		return nil, err
	}
	c.log.Info().Str("username", username).Int("archives", len(archives)).Msg("fetching archives")

	type result struct {
		idx  int
		pgns []string
	}

	work := make(chan int)
	results := make(chan result, len(archives))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range work {
				pgns, err := c.ArchiveGames(ctx, archives[idx])
				if err != nil {
					c.log.Warn().Err(err).Str("archive", archives[idx]).Msg("archive fetch failed")
					continue
				}
				c.log.Debug().Str("archive", archives[idx]).Int("games", len(pgns)).Msg("archive fetched")
				results <- result{idx: idx, pgns: pgns}
			}
		}()
	}

feed:
	for i := range archives {
		select {
		case work <- i:
		case <-ctx.Done():
			break feed
		}
	}
	close(work)
	wg.Wait()
	close(results)

	byIdx := make([][]string, len(archives))
	for r := range results {
		byIdx[r.idx] = r.pgns
	}

	var all []string
	for _, pgns := range byIdx {
		all = append(all, pgns...)
	}
	return all, ctx.Err()
}

func (c *Client) getJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("GET %s: status %d: %s", url, resp.StatusCode, snippet)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
