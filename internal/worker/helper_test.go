package worker

import (
	"context"
	"net/url"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rohmanhakim/query-crawler/internal/fetcher"
	"github.com/rohmanhakim/query-crawler/internal/logger"
	"github.com/rohmanhakim/query-crawler/internal/metadata"
	"github.com/rohmanhakim/query-crawler/internal/state"
)

// stubFetcher serves canned FetchResults keyed by requested URL. URLs
// without an entry behave like a transport failure (status 0, no body).
type stubFetcher struct {
	pages   map[string]fetcher.FetchResult
	fetches atomic.Int64
}

func (s *stubFetcher) Fetch(_ context.Context, u url.URL) fetcher.FetchResult {
	s.fetches.Add(1)
	if result, ok := s.pages[u.String()]; ok {
		return result
	}
	return fetcher.NewFetchResultForTest(u, "", 0, 0, testTimestamp)
}

// stubExtractor returns canned outbound links keyed by page URL.
type stubExtractor struct {
	links map[string][]string
}

func (s *stubExtractor) Extract(base url.URL, _ string) []url.URL {
	var out []url.URL
	for _, raw := range s.links[base.String()] {
		parsed, err := url.Parse(raw)
		if err != nil {
			continue
		}
		out = append(out, *parsed)
	}
	return out
}

// stubRobot denies exactly the URLs in its deny set.
type stubRobot struct {
	denied map[string]struct{}
}

func (s *stubRobot) IsAllowed(u url.URL) bool {
	_, denied := s.denied[u.String()]
	return !denied
}

const testTimestamp = "2026-08-01T12:00:00Z"

func htmlPage(t *testing.T, pageURL string, contentLength int) fetcher.FetchResult {
	t.Helper()
	u, err := url.Parse(pageURL)
	require.NoError(t, err)
	return fetcher.NewFetchResultForTest(*u, "<html>stub</html>", 200, contentLength, testTimestamp)
}

func redirectedPage(t *testing.T, finalURL string) fetcher.FetchResult {
	t.Helper()
	u, err := url.Parse(finalURL)
	require.NoError(t, err)
	return fetcher.NewFetchResultForTest(*u, "<html>stub</html>", 200, 10, testTimestamp)
}

func failedFetch(t *testing.T, pageURL string) fetcher.FetchResult {
	t.Helper()
	u, err := url.Parse(pageURL)
	require.NoError(t, err)
	return fetcher.NewFetchResultForTest(*u, "", 0, 0, testTimestamp)
}

func notFoundPage(t *testing.T, u url.URL) fetcher.FetchResult {
	t.Helper()
	return fetcher.NewFetchResultForTest(u, "", 404, 0, testTimestamp)
}

type workerFixture struct {
	worker      Worker
	fetcher     *stubFetcher
	extractor   *stubExtractor
	robot       *stubRobot
	sharedState *state.SharedState
	logPath     string
}

func newWorkerFixture(t *testing.T, limits Limits) *workerFixture {
	t.Helper()

	logPath := filepath.Join(t.TempDir(), "log.txt")
	crawlLog, logErr := logger.Open(logPath)
	require.Nil(t, logErr)
	t.Cleanup(func() { crawlLog.Close() })

	recorder := metadata.NewRecorder(false)
	f := &stubFetcher{pages: make(map[string]fetcher.FetchResult)}
	e := &stubExtractor{links: make(map[string][]string)}
	r := &stubRobot{denied: make(map[string]struct{})}
	sharedState := state.NewSharedState()

	return &workerFixture{
		worker:      NewWorker(f, e, r, sharedState, crawlLog, &recorder, limits),
		fetcher:     f,
		extractor:   e,
		robot:       r,
		sharedState: sharedState,
		logPath:     logPath,
	}
}

func defaultLimits() Limits {
	return Limits{
		MaxPages:    100,
		MaxTime:     time.Minute,
		MaxTimeouts: 2,
		StartTime:   time.Now(),
	}
}
