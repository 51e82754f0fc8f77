package agent

import (
	"errors"
	"fmt"
)

var (
	// ErrBackendFailed is matched by every *BackendError.
	ErrBackendFailed = errors.New("language model backend failed")
	// ErrPromptRejected is returned when a prompt fails PII or content checks.
	ErrPromptRejected = errors.New("prompt rejected")
	// ErrCorpusUnavailable wraps failures to load the requested corpus.
	ErrCorpusUnavailable = errors.New("corpus unavailable")
	// ErrTokenBudgetExceeded stops a Chat whose model usage passed its token
	// limit. It matches ErrPromptRejected.
	ErrTokenBudgetExceeded = fmt.Errorf("%w: token budget exceeded", ErrPromptRejected)
)

// BackendError reports a Chat call that ended in FAILED because the model
// backend could not be reached or kept answering badly.
type BackendError struct {
	Round    int
	Attempts int
	// Trace holds the tool calls completed before the failure.
	Trace []TraceEntry
	Err   error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("model call failed in round %d after %d attempts: %v", e.Round, e.Attempts, e.Err)
}

func (e *BackendError) Unwrap() error { return e.Err }

// Is reports whether target is ErrBackendFailed.
func (e *BackendError) Is(target error) bool { return target == ErrBackendFailed }
