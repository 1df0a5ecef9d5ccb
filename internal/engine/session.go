// Package engine drives an external UCI move-search process over its
// line-oriented stdin/stdout protocol and turns its streamed output into
// evaluation results.
package engine

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/Okami6997/ChessGamesAnalyzer/internal/chess"
)

// State is the lifecycle state of a session.
type State int32

const (
	StateStarting State = iota
	StateReady
	StateBusy
	StateFailed
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateStarting:
		return "starting"
	case StateReady:
		return "ready"
	case StateBusy:
		return "busy"
	case StateFailed:
		return "failed"
	case StateClosed:
		return "closed"
	}
	return "unknown"
}

// stderrCap bounds how much engine stderr is retained for diagnostics.
const stderrCap = 8 * 1024

// Session owns exactly one engine subprocess. The protocol is not
// multiplexed, so a session admits one in-flight request; concurrent
// callers serialize on the session's lock rather than corrupting the
// stream. A session is not restartable: once Failed or Closed it stays
// that way.
type Session struct {
	cfg Config
	log zerolog.Logger

	mu    sync.Mutex // serializes handshake and evaluations
	wmu   sync.Mutex // serializes writes; held by Close while mu may be busy
	state atomic.Int32

	cmd      *exec.Cmd
	stdin    io.WriteCloser
	lines    chan string
	quit     chan struct{}
	waitDone chan struct{}

	errMu   sync.Mutex
	exitErr error
	errBuf  []byte

	closeOnce sync.Once
}

// NewSession creates a session for the configured engine. Start must be
// called before Evaluate.
func NewSession(cfg Config) *Session {
	cfg = cfg.withDefaults()
	s := &Session{
		cfg:      cfg,
		log:      cfg.Logger,
		lines:    make(chan string, 256),
		quit:     make(chan struct{}),
		waitDone: make(chan struct{}),
	}
	s.state.Store(int32(StateStarting))
	return s
}

// State returns the session's current lifecycle state.
func (s *Session) State() State {
	return State(s.state.Load())
}

// Start launches the subprocess and performs the identification and
// readiness handshake. It fails with *StartError if the binary is
// missing, the process exits prematurely, or an acknowledgement token
// does not arrive within the configured timeout.
func (s *Session) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if st := s.State(); st != StateStarting {
		return &StartError{Path: s.cfg.Path, Err: fmt.Errorf("session is %s", st)}
	}
	if _, err := os.Stat(s.cfg.Path); err != nil {
		s.state.Store(int32(StateFailed))
		return &StartError{Path: s.cfg.Path, Err: err}
	}

	args := append([]string{}, s.cfg.Args...)
	if s.cfg.WeightsPath != "" {
		args = append(args, "--weights="+s.cfg.WeightsPath)
	}
	cmd := exec.Command(s.cfg.Path, args...)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		s.state.Store(int32(StateFailed))
		return &StartError{Path: s.cfg.Path, Err: err}
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		s.state.Store(int32(StateFailed))
		return &StartError{Path: s.cfg.Path, Err: err}
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		s.state.Store(int32(StateFailed))
		return &StartError{Path: s.cfg.Path, Err: err}
	}
	if err := cmd.Start(); err != nil {
		s.state.Store(int32(StateFailed))
		return &StartError{Path: s.cfg.Path, Err: err}
	}

	s.cmd = cmd
	s.stdin = stdin

	stderrDone := make(chan struct{})
	go s.readStderr(stderr, stderrDone)
	go s.readStdout(stdout, stderrDone)

	if err := s.handshake(); err != nil {
		s.state.Store(int32(StateFailed))
		s.Close()
		return &StartError{Path: s.cfg.Path, Err: err}
	}

	s.state.Store(int32(StateReady))
	s.log.Debug().Str("path", s.cfg.Path).Int("depth", s.cfg.Depth).Msg("engine session ready")
	return nil
}

// handshake runs uci/uciok and isready/readyok, with engine options in
// between for stockfish-family engines (lc0 takes weights on argv).
func (s *Session) handshake() error {
	if err := s.send("uci"); err != nil {
		return err
	}
	if _, err := s.waitFor("uciok"); err != nil {
		return err
	}
	if s.cfg.WeightsPath == "" {
		if err := s.send(fmt.Sprintf("setoption name Threads value %d", s.cfg.Threads)); err != nil {
			return err
		}
		if s.cfg.HashMB > 0 {
			if err := s.send(fmt.Sprintf("setoption name Hash value %d", s.cfg.HashMB)); err != nil {
				return err
			}
		}
		if err := s.send(fmt.Sprintf("setoption name Minimum Thinking Time value %d",
			s.cfg.MinThink.Milliseconds())); err != nil {
			return err
		}
	}
	if err := s.send("isready"); err != nil {
		return err
	}
	_, err := s.waitFor("readyok")
	return err
}

// Evaluate runs one search on the given position and blocks until the
// terminal bestmove line, the session timeout, or ctx cancellation.
// Concurrent calls serialize; the returned score is from the side to
// move's perspective.
func (s *Session) Evaluate(ctx context.Context, fen string) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.State() {
	case StateReady:
	case StateClosed:
		return Result{}, fmt.Errorf("session closed")
	case StateFailed:
		return Result{}, &ProcessDiedError{Err: s.waitErr(), Stderr: s.stderrText()}
	default:
		return Result{}, fmt.Errorf("session not started")
	}

	s.state.Store(int32(StateBusy))
	defer func() {
		// resync or process death may have moved the state off Busy
		s.state.CompareAndSwap(int32(StateBusy), int32(StateReady))
	}()

	if err := s.sendRequest(fen); err != nil {
		s.state.Store(int32(StateFailed))
		return Result{}, &ProcessDiedError{Err: err, Stderr: s.stderrText()}
	}

	timer := time.NewTimer(s.cfg.Timeout)
	defer timer.Stop()

	var (
		res      Result
		lastLine string
	)
	for {
		select {
		case <-ctx.Done():
			s.resync()
			return Result{}, ctx.Err()

		case line, ok := <-s.lines:
			if !ok {
				s.state.Store(int32(StateFailed))
				return Result{}, &ProcessDiedError{Err: s.waitErr(), Stderr: s.stderrText()}
			}
			lastLine = line
			if strings.HasPrefix(line, "info") {
				parseInfoLine(line, &res)
				continue
			}
			if strings.HasPrefix(line, "bestmove") {
				res.BestMove = parseBestMove(line)
				if !res.HasScore && res.WDL == nil && res.NNEval == nil {
					return Result{}, &ProtocolError{Line: line}
				}
				return res, nil
			}

		case <-timer.C:
			terr := &TimeoutError{
				WaitingFor: "bestmove",
				Timeout:    s.cfg.Timeout,
				LastLine:   lastLine,
				Stderr:     s.stderrText(),
			}
			s.resync()
			return Result{}, terr
		}
	}
}

// sendRequest resets the engine and transmits the position and search
// directive.
func (s *Session) sendRequest(fen string) error {
	if err := s.send("ucinewgame"); err != nil {
		return err
	}
	pos := "position fen " + fen
	if fen == chess.StartingFEN {
		pos = "position startpos"
	}
	if err := s.send(pos); err != nil {
		return err
	}
	goCmd := fmt.Sprintf("go depth %d", s.cfg.Depth)
	if s.cfg.MoveTime > 0 {
		goCmd = fmt.Sprintf("go movetime %d", s.cfg.MoveTime.Milliseconds())
	}
	return s.send(goCmd)
}

// resync tries to bring the protocol back to an idle state after an
// abandoned search: stop the engine and drain until the late bestmove.
// If the engine stays silent the session is marked failed, which the
// caller's next request surfaces as a process-level error.
func (s *Session) resync() {
	if err := s.send("stop"); err != nil {
		s.state.Store(int32(StateFailed))
		return
	}
	grace := s.cfg.Timeout
	if grace > 2*time.Second {
		grace = 2 * time.Second
	}
	timer := time.NewTimer(grace)
	defer timer.Stop()
	for {
		select {
		case line, ok := <-s.lines:
			if !ok {
				s.state.Store(int32(StateFailed))
				return
			}
			if strings.HasPrefix(line, "bestmove") {
				return
			}
		case <-timer.C:
			s.log.Warn().Msg("engine did not answer stop, marking session failed")
			s.state.Store(int32(StateFailed))
			return
		}
	}
}

// Close terminates the subprocess: best-effort quit, then a kill if the
// process lingers. Idempotent, never blocks indefinitely, and safe to
// call while an evaluation is stuck.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		if s.State() != StateFailed {
			s.state.Store(int32(StateClosed))
		}
		close(s.quit)
		if s.cmd == nil || s.cmd.Process == nil {
			return
		}
		_ = s.send("quit")
		select {
		case <-s.waitDone:
		case <-time.After(2 * time.Second):
			_ = s.cmd.Process.Kill()
		}
	})
	return nil
}

// send writes one command line. Guarded separately from the request lock
// so Close can issue quit while an evaluation holds the session.
func (s *Session) send(cmd string) error {
	s.wmu.Lock()
	defer s.wmu.Unlock()
	if s.stdin == nil {
		return fmt.Errorf("engine stdin not open")
	}
	_, err := io.WriteString(s.stdin, cmd+"\n")
	return err
}

// waitFor consumes output lines until one contains the token.
func (s *Session) waitFor(token string) (string, error) {
	timer := time.NewTimer(s.cfg.Timeout)
	defer timer.Stop()

	var lastLine string
	for {
		select {
		case line, ok := <-s.lines:
			if !ok {
				return "", &ProcessDiedError{Err: s.waitErr(), Stderr: s.stderrText()}
			}
			lastLine = line
			if strings.Contains(line, token) {
				return line, nil
			}
		case <-timer.C:
			return "", &TimeoutError{
				WaitingFor: token,
				Timeout:    s.cfg.Timeout,
				LastLine:   lastLine,
				Stderr:     s.stderrText(),
			}
		}
	}
}

// readStdout pumps engine output into the line channel, then reaps the
// process once both streams are drained.
func (s *Session) readStdout(stdout io.Reader, stderrDone <-chan struct{}) {
	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		select {
		case s.lines <- scanner.Text():
		case <-s.quit:
			// session abandoned; keep draining so the process can exit
		}
	}
	close(s.lines)

	<-stderrDone
	err := s.cmd.Wait()
	s.errMu.Lock()
	s.exitErr = err
	s.errMu.Unlock()
	close(s.waitDone)
}

func (s *Session) readStderr(stderr io.Reader, done chan<- struct{}) {
	defer close(done)
	scanner := bufio.NewScanner(stderr)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		s.errMu.Lock()
		s.errBuf = append(s.errBuf, scanner.Text()...)
		s.errBuf = append(s.errBuf, '\n')
		if len(s.errBuf) > stderrCap {
			s.errBuf = s.errBuf[len(s.errBuf)-stderrCap:]
		}
		s.errMu.Unlock()
	}
}

func (s *Session) stderrText() string {
	s.errMu.Lock()
	defer s.errMu.Unlock()
	return string(s.errBuf)
}

func (s *Session) waitErr() error {
	select {
	case <-s.waitDone:
	case <-time.After(time.Second):
	}
	s.errMu.Lock()
	defer s.errMu.Unlock()
	if s.exitErr != nil {
		return s.exitErr
	}
	return fmt.Errorf("engine process exited")
}
