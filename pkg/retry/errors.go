package retry

import (
	"fmt"

	"github.com/rohmanhakim/query-crawler/pkg/failure"
)

type RetryErrorCause string

const (
	ErrZeroAttempt       = "zero attempt"
	ErrExhaustedAttempts = "exhausted attempt"
)

// RetryError reports a failure of the retry loop itself, as opposed to a
// terminal task error, which is returned unchanged. Attempts records how
// many tries were spent before giving up.
type RetryError struct {
	Message  string
	Cause    RetryErrorCause
	Attempts int
}

func (e *RetryError) Error() string {
	return fmt.Sprintf("retry error: %s, %s", e.Cause, e.Message)
}

func (e *RetryError) Severity() failure.Severity {
	// Exhausting the seed query shrinks the run to an empty summary; it
	// never aborts the process.
	return failure.SeverityRecoverable
}

func (e *RetryError) IsRetryable() bool {
	return true
}

// Is allows errors.Is to match RetryError types
func (e *RetryError) Is(target error) bool {
	_, ok := target.(*RetryError)
	return ok
}
