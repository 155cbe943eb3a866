package fetcher

import (
	"github.com/rohmanhakim/query-crawler/internal/metadata"
)

type FetchErrorCause string

const (
	ErrCauseTransportFailure   = "network issues"
	ErrCauseReadBodyFailure    = "failed to read response body"
	ErrCauseContentTypeInvalid = "non-HTML content"
	ErrCauseDecodeFailure      = "failed to decode body"
)

// mapFetchErrorToMetadataCause maps fetcher-local failure semantics to the
// canonical metadata.ErrorCause table. Fetch failures never surface as
// errors; they are reported in-band (status 0 or an empty body), so this
// mapping is observational only.
func mapFetchErrorToMetadataCause(cause FetchErrorCause) metadata.ErrorCause {
	switch cause {
	case ErrCauseTransportFailure:
		return metadata.CauseNetworkFailure
	case ErrCauseReadBodyFailure:
		return metadata.CauseNetworkFailure
	case ErrCauseContentTypeInvalid:
		return metadata.CauseContentInvalid
	case ErrCauseDecodeFailure:
		return metadata.CauseContentInvalid
	default:
		return metadata.CauseUnknown
	}
}
