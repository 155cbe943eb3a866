package seed

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/rohmanhakim/query-crawler/internal/metadata"
	"github.com/rohmanhakim/query-crawler/pkg/failure"
	"github.com/rohmanhakim/query-crawler/pkg/retry"
	"github.com/rohmanhakim/query-crawler/pkg/timeutil"
)

/*
Responsibilities

- Submit the seed query to the public search endpoint
- Parse organic result links out of the response
- Skip sponsored links

The finder is the only component allowed to talk to the search endpoint.
Its results are treated like any other URL: canonicalization, admission,
and robots checks all happen downstream in the scheduler.
*/

// Finder discovers seed URLs for a query. A failed discovery returns the
// classified error alongside any results obtained before the failure.
type Finder interface {
	Discover(ctx context.Context, query string, maxResults int) ([]url.URL, failure.ClassifiedError)
}

type DdgFinder struct {
	metadataSink metadata.MetadataSink
	httpClient   *http.Client
	userAgent    string
	retryParam   retry.RetryParam
	sleeper      timeutil.Sleeper
	endpoint     string
}

func NewDdgFinder(
	metadataSink metadata.MetadataSink,
	userAgent string,
	timeout time.Duration,
	retryParam retry.RetryParam,
) DdgFinder {
	sleeper := timeutil.NewRealSleeper()
	return DdgFinder{
		metadataSink: metadataSink,
		httpClient:   &http.Client{Timeout: timeout},
		userAgent:    userAgent,
		retryParam:   retryParam,
		sleeper:      &sleeper,
		endpoint:     searchEndpoint,
	}
}

// NewDdgFinderWithEndpoint creates a DdgFinder querying a custom endpoint
// and waiting out retry backoff through the given Sleeper.
// This is useful for testing.
func NewDdgFinderWithEndpoint(
	metadataSink metadata.MetadataSink,
	userAgent string,
	httpClient *http.Client,
	retryParam retry.RetryParam,
	sleeper timeutil.Sleeper,
	endpoint string,
) DdgFinder {
	return DdgFinder{
		metadataSink: metadataSink,
		httpClient:   httpClient,
		userAgent:    userAgent,
		retryParam:   retryParam,
		sleeper:      sleeper,
		endpoint:     endpoint,
	}
}

// Discover submits the query and returns up to maxResults organic result
// URLs. Transient endpoint failures are retried with exponential backoff;
// a terminal failure returns an empty slice and the classified error.
func (f *DdgFinder) Discover(ctx context.Context, query string, maxResults int) ([]url.URL, failure.ClassifiedError) {
	result := retry.Retry(f.retryParam, f.sleeper, func() ([]url.URL, failure.ClassifiedError) {
		return f.queryOnce(ctx, query, maxResults)
	})

	if err := result.Err(); err != nil {
		var classified failure.ClassifiedError
		if errors.As(err, &classified) {
			f.recordFailure(query, classified)
			return nil, classified
		}
		seedErr := &SeedError{
			Message:   err.Error(),
			Retryable: false,
			Cause:     ErrCauseRequestFailure,
		}
		f.recordFailure(query, seedErr)
		return nil, seedErr
	}

	return result.Value(), nil
}

func (f *DdgFinder) queryOnce(ctx context.Context, query string, maxResults int) ([]url.URL, failure.ClassifiedError) {
	form := url.Values{"q": {query}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, &SeedError{
			Message:   fmt.Sprintf("failed to create request: %v", err),
			Retryable: false,
			Cause:     ErrCausePreRequestFailure,
		}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, &SeedError{
			Message:   fmt.Sprintf("request failed: %v", err),
			Retryable: true,
			Cause:     ErrCauseRequestFailure,
		}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 500:
		return nil, &SeedError{
			Message:   fmt.Sprintf("server error: %d", resp.StatusCode),
			Retryable: true,
			Cause:     ErrCauseServerError,
		}
	case resp.StatusCode >= 400:
		return nil, &SeedError{
			Message:   fmt.Sprintf("client error: %d", resp.StatusCode),
			Retryable: false,
			Cause:     ErrCauseClientError,
		}
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, &SeedError{
			Message:   fmt.Sprintf("failed to parse results: %v", err),
			Retryable: false,
			Cause:     ErrCauseParseError,
		}
	}

	var results []url.URL
	doc.Find(resultSelector).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		href, _ := sel.Attr("href")
		if strings.HasPrefix(href, adLinkPrefix) {
			// sponsored result
			return true
		}
		if !strings.HasPrefix(href, "http") {
			return true
		}
		parsed, err := url.Parse(href)
		if err != nil {
			return true
		}
		results = append(results, *parsed)
		return len(results) < maxResults
	})

	return results, nil
}

func (f *DdgFinder) recordFailure(query string, err failure.ClassifiedError) {
	cause := metadata.ErrorCause(metadata.CauseUnknown)
	var seedErr *SeedError
	if errors.As(err, &seedErr) {
		cause = mapSeedErrorToMetadataCause(seedErr)
	}
	f.metadataSink.RecordError(
		time.Now(),
		"seed",
		"DdgFinder.Discover",
		cause,
		err.Error(),
		[]metadata.Attribute{
			metadata.NewAttr(metadata.AttrField, fmt.Sprintf("query: %s", query)),
		},
	)
}
