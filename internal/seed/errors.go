package seed

import (
	"fmt"

	"github.com/rohmanhakim/query-crawler/internal/metadata"
	"github.com/rohmanhakim/query-crawler/pkg/failure"
)

type SeedErrorCause string

const (
	ErrCausePreRequestFailure = "failed before making request"
	ErrCauseRequestFailure    = "failed to query search endpoint"
	ErrCauseServerError       = "search endpoint server error"
	ErrCauseClientError       = "search endpoint rejected query"
	ErrCauseParseError        = "failed to parse search results"
)

type SeedError struct {
	Message   string
	Retryable bool
	Cause     SeedErrorCause
}

func (e *SeedError) Error() string {
	return fmt.Sprintf("seed error: %s", e.Cause)
}

func (e *SeedError) Severity() failure.Severity {
	// A failed seed query only ever shrinks the seed list; the run
	// degrades to an empty summary instead of aborting.
	return failure.SeverityRecoverable
}

func (e *SeedError) IsRetryable() bool {
	return e.Retryable
}

// mapSeedErrorToMetadataCause maps seed-local error semantics
// to the canonical metadata.ErrorCause table.
func mapSeedErrorToMetadataCause(err *SeedError) metadata.ErrorCause {
	switch err.Cause {
	case ErrCauseRequestFailure, ErrCauseServerError:
		return metadata.CauseNetworkFailure
	case ErrCauseClientError:
		return metadata.CausePolicyDisallow
	case ErrCauseParseError:
		return metadata.CauseContentInvalid
	default:
		return metadata.CauseUnknown
	}
}
