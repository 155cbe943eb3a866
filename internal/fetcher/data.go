package fetcher

import "net/url"

// HTTP boundary

// Meta is the per-fetch metadata recorded for every attempt, successful or
// not. StatusCode 0 denotes a transport-level failure (DNS, connect, read
// timeout): no complete HTTP response was received.
type Meta struct {
	statusCode    int
	contentLength int
	timestamp     string
	bodyDigest    string
}

func (m Meta) StatusCode() int {
	return m.statusCode
}

func (m Meta) ContentLength() int {
	return m.contentLength
}

// Timestamp is the fetch completion time as an ISO-8601 UTC string.
func (m Meta) Timestamp() string {
	return m.timestamp
}

// BodyDigest is the blake3 hex digest of the raw body, empty when no body
// was read. Observational only.
func (m Meta) BodyDigest() string {
	return m.bodyDigest
}

// FetchResult carries the landing URL after redirect resolution, the
// decoded HTML (empty for failures and non-HTML content), and the fetch
// metadata. Fetch failures are reported in-band through Meta, never as
// errors.
type FetchResult struct {
	finalURL url.URL
	html     string
	meta     Meta
}

func (f *FetchResult) FinalURL() url.URL {
	return f.finalURL
}

func (f *FetchResult) HTML() string {
	return f.html
}

func (f *FetchResult) Meta() Meta {
	return f.meta
}

// NewFetchResultForTest creates a FetchResult for testing purposes.
// This allows test packages to construct FetchResult values without
// accessing unexported fields directly.
func NewFetchResultForTest(
	finalURL url.URL,
	html string,
	statusCode int,
	contentLength int,
	timestamp string,
) FetchResult {
	return FetchResult{
		finalURL: finalURL,
		html:     html,
		meta: Meta{
			statusCode:    statusCode,
			contentLength: contentLength,
			timestamp:     timestamp,
		},
	}
}
