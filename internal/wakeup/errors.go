package wakeup

import (
	"errors"
	"fmt"
)

var (
	// ErrExhausted is returned when every allowed attempt failed.
	ErrExhausted = errors.New("endpoint did not become ready")
	// ErrInvalidURL is returned before any attempt when the URL cannot be probed.
	ErrInvalidURL = errors.New("invalid probe url")
	// ErrAttemptTimeout marks an attempt aborted by its own timeout.
	ErrAttemptTimeout = errors.New("attempt timed out")
)

// AttemptError describes why a single attempt failed. It never reaches the
// caller of Probe on its own; the retry loop absorbs it.
type AttemptError struct {
	Attempt    int
	StatusCode int
	Cause      error
}

func (e *AttemptError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("attempt %d: status %d", e.Attempt+1, e.StatusCode)
	}
	return fmt.Sprintf("attempt %d: %v", e.Attempt+1, e.Cause)
}

func (e *AttemptError) Unwrap() error { return e.Cause }

// Timeout reports whether the attempt was cut off by the per-attempt timeout.
func (e *AttemptError) Timeout() bool {
	return errors.Is(e.Cause, ErrAttemptTimeout)
}

// ExhaustedError is the terminal failure of Probe. It matches ErrExhausted
// with errors.Is and keeps the last attempt failure for logging.
type ExhaustedError struct {
	Attempts int
	Last     error
}

func (e *ExhaustedError) Error() string {
	if e.Last == nil {
		return fmt.Sprintf("%v after %d attempt(s)", ErrExhausted, e.Attempts)
	}
	return fmt.Sprintf("%v after %d attempt(s): %v", ErrExhausted, e.Attempts, e.Last)
}

func (e *ExhaustedError) Is(target error) bool { return target == ErrExhausted }

func (e *ExhaustedError) Unwrap() error { return e.Last }
