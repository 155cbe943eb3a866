package logger

import (
	"fmt"

	"github.com/rohmanhakim/query-crawler/pkg/failure"
)

type LogErrorCause string

const (
	ErrCauseOpenFailure  = "failed to open log file"
	ErrCauseWriteFailure = "failed to write log line"
)

type LogError struct {
	Message   string
	Retryable bool
	Cause     LogErrorCause
	Path      string
}

func (e *LogError) Error() string {
	return fmt.Sprintf("log error: %s", e.Cause)
}

func (e *LogError) Severity() failure.Severity {
	if e.Retryable {
		return failure.SeverityRecoverable
	}
	return failure.SeverityFatal
}
