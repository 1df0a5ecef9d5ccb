package engine

import (
	"fmt"
	"time"
)

// StartError reports a session that never reached the ready state: the
// binary is missing, the process exited during startup, or the handshake
// token did not arrive in time.
type StartError struct {
	Path string
	Err  error
}

func (e *StartError) Error() string {
	return fmt.Sprintf("start engine %s: %v", e.Path, e.Err)
}

func (e *StartError) Unwrap() error { return e.Err }

// TimeoutError reports a request whose terminal marker did not arrive
// within the session timeout. LastLine and Stderr carry whatever the
// engine produced, for diagnosis.
type TimeoutError struct {
	WaitingFor string
	Timeout    time.Duration
	LastLine   string
	Stderr     string
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("timeout after %s waiting for %q (last line: %q, stderr: %q)",
		e.Timeout, e.WaitingFor, e.LastLine, e.Stderr)
}

// ProtocolError reports a terminal marker that arrived without a
// parsable evaluation.
type ProtocolError struct {
	Line string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("engine protocol error: no score before terminal line %q", e.Line)
}

// ProcessDiedError reports an engine subprocess that exited while a
// request was outstanding or before one could be issued. It is fatal to
// the session.
type ProcessDiedError struct {
	Err    error
	Stderr string
}

func (e *ProcessDiedError) Error() string {
	return fmt.Sprintf("engine process died: %v (stderr: %q)", e.Err, e.Stderr)
}

func (e *ProcessDiedError) Unwrap() error { return e.Err }
