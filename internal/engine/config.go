package engine

import (
	"time"

	"github.com/rs/zerolog"
)

// Config configures one engine session. Zero values fall back to
// defaults in NewSession; nothing is reconfigurable after Start.
type Config struct {
	Path        string        // engine binary
	WeightsPath string        // neural-network weights file (lc0 family), empty for stockfish family
	Args        []string      // extra command-line arguments
	Depth       int           // search depth per request (default 15)
	MoveTime    time.Duration // fixed think time per request; 0 = depth-limited search
	Threads     int           // engine worker threads (default 2)
	HashMB      int           // hash table size (0 = engine default)
	MinThink    time.Duration // Minimum Thinking Time option (default 30ms)
	Timeout     time.Duration // handshake and per-request response timeout (default 30s)
	MateScore   int           // saturation magnitude for forced mates (default 100000)
	Logger      zerolog.Logger
}

func (c Config) withDefaults() Config {
	if c.Depth == 0 {
		c.Depth = 15
	}
	if c.Threads == 0 {
		c.Threads = 2
	}
	if c.MinThink == 0 {
		c.MinThink = 30 * time.Millisecond
	}
	if c.Timeout == 0 {
		c.Timeout = 30 * time.Second
	}
	if c.MateScore == 0 {
		c.MateScore = 100000
	}
	return c
}
