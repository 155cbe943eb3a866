package fetcher

import (
	"bytes"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/html/charset"

	"github.com/rohmanhakim/query-crawler/internal/metadata"
	"github.com/rohmanhakim/query-crawler/pkg/hashutil"
)

/*
Responsibilities

- Perform HTTP requests with a bounded timeout
- Follow redirects and report the landing URL
- Skip non-HTML content
- Decompress and decode bodies to text

Fetch Semantics

- All transport errors are reported in-band as status 0
- Non-2xx responses carry their true status and no body
- Non-HTML and undecodable bodies keep their status and drop the body
- Every attempt is recorded with metadata

The fetcher never parses content; it only returns text and metadata.
*/

type Fetcher interface {
	Fetch(ctx context.Context, u url.URL) FetchResult
}

type HtmlFetcher struct {
	metadataSink metadata.MetadataSink
	httpClient   *http.Client
	userAgent    string
}

func NewHtmlFetcher(metadataSink metadata.MetadataSink, userAgent string, timeout time.Duration) HtmlFetcher {
	return HtmlFetcher{
		metadataSink: metadataSink,
		httpClient:   &http.Client{Timeout: timeout},
		userAgent:    userAgent,
	}
}

// NewHtmlFetcherWithClient creates an HtmlFetcher with a custom HTTP
// client. This is useful for testing.
func NewHtmlFetcherWithClient(metadataSink metadata.MetadataSink, userAgent string, httpClient *http.Client) HtmlFetcher {
	return HtmlFetcher{
		metadataSink: metadataSink,
		httpClient:   httpClient,
		userAgent:    userAgent,
	}
}

// Fetch retrieves one page. The returned result always carries a usable
// final URL and metadata; failures degrade the result instead of aborting.
func (h *HtmlFetcher) Fetch(ctx context.Context, u url.URL) FetchResult {
	startTime := time.Now()
	result := h.performFetch(ctx, u)

	h.metadataSink.RecordFetch(metadata.NewFetchEvent(
		result.finalURL.String(),
		result.meta.statusCode,
		time.Since(startTime),
		result.meta.contentLength,
		result.meta.bodyDigest,
		0,
	))

	return result
}

func (h *HtmlFetcher) performFetch(ctx context.Context, u url.URL) FetchResult {
	meta := Meta{
		statusCode:    0,
		contentLength: 0,
		timestamp:     utcTimestamp(),
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		h.recordFailure(u, ErrCauseTransportFailure, fmt.Sprintf("failed to create request: %v", err))
		return FetchResult{finalURL: u, meta: meta}
	}
	for key, value := range requestHeaders(h.userAgent) {
		req.Header.Set(key, value)
	}

	resp, err := h.httpClient.Do(req)
	if err != nil {
		// DNS failures, connect errors, timeouts, redirect loops: no
		// HTTP status was produced, so the status stays 0.
		h.recordFailure(u, ErrCauseTransportFailure, fmt.Sprintf("request failed: %v", err))
		return FetchResult{finalURL: u, meta: meta}
	}
	defer resp.Body.Close()

	// The client followed redirects; the request attached to the
	// response points at the landing URL.
	finalURL := u
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = *resp.Request.URL
	}

	meta.statusCode = resp.StatusCode
	meta.timestamp = utcTimestamp()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return FetchResult{finalURL: finalURL, meta: meta}
	}

	contentType := resp.Header.Get("Content-Type")
	if !isHTMLContent(contentType) {
		return FetchResult{finalURL: finalURL, meta: meta}
	}

	rawBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		// Read timeouts count like any other transport failure for the
		// caller: status 0, no body.
		h.recordFailure(finalURL, ErrCauseReadBodyFailure, fmt.Sprintf("failed to read response body: %v", err))
		meta.statusCode = 0
		return FetchResult{finalURL: finalURL, meta: meta}
	}

	// net/http decompresses transparently unless the server forced an
	// encoding we must undo ourselves.
	if strings.EqualFold(resp.Header.Get("Content-Encoding"), "gzip") {
		decompressed, err := gunzip(rawBytes)
		if err != nil {
			h.recordFailure(finalURL, ErrCauseDecodeFailure, fmt.Sprintf("failed to decompress body: %v", err))
			return FetchResult{finalURL: finalURL, meta: meta}
		}
		rawBytes = decompressed
	}

	html, err := decodeToUTF8(rawBytes, contentType)
	if err != nil {
		h.recordFailure(finalURL, ErrCauseDecodeFailure, fmt.Sprintf("failed to decode body: %v", err))
		return FetchResult{finalURL: finalURL, meta: meta}
	}

	meta.contentLength = len(rawBytes)
	meta.bodyDigest = hashutil.BodyDigest(rawBytes)

	return FetchResult{
		finalURL: finalURL,
		html:     html,
		meta:     meta,
	}
}

func (h *HtmlFetcher) recordFailure(u url.URL, cause FetchErrorCause, message string) {
	h.metadataSink.RecordError(
		time.Now(),
		"fetcher",
		"HtmlFetcher.Fetch",
		mapFetchErrorToMetadataCause(cause),
		message,
		[]metadata.Attribute{
			metadata.NewAttr(metadata.AttrURL, u.String()),
		},
	)
}

func gunzip(data []byte) ([]byte, error) {
	reader, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer reader.Close()
	return io.ReadAll(reader)
}

// decodeToUTF8 converts the raw body to a UTF-8 string, honoring the
// charset declared in the Content-Type header or sniffed from the bytes.
func decodeToUTF8(rawBytes []byte, contentType string) (string, error) {
	reader, err := charset.NewReader(bytes.NewReader(rawBytes), contentType)
	if err != nil {
		return "", err
	}
	decoded, err := io.ReadAll(reader)
	if err != nil {
		return "", err
	}
	return string(decoded), nil
}

func utcTimestamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}

func isHTMLContent(contentType string) bool {
	contentType = strings.ToLower(contentType)
	return strings.Contains(contentType, "text/html") ||
		strings.Contains(contentType, "application/xhtml")
}

func requestHeaders(userAgent string) map[string]string {
	return map[string]string{
		"User-Agent":      userAgent,
		"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
		"Accept-Language": "en-US,en;q=0.9",
	}
}
