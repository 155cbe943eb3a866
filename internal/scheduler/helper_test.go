package scheduler

import (
	"context"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rohmanhakim/query-crawler/internal/config"
	"github.com/rohmanhakim/query-crawler/internal/fetcher"
	"github.com/rohmanhakim/query-crawler/internal/logger"
	"github.com/rohmanhakim/query-crawler/internal/metadata"
	"github.com/rohmanhakim/query-crawler/pkg/failure"
)

const testTimestamp = "2026-08-01T12:00:00Z"

// fakeFinder returns a fixed seed list without touching the network.
type fakeFinder struct {
	seeds []string
	err   failure.ClassifiedError
}

func (f *fakeFinder) Discover(_ context.Context, _ string, maxResults int) ([]url.URL, failure.ClassifiedError) {
	var out []url.URL
	for _, raw := range f.seeds {
		if len(out) >= maxResults {
			break
		}
		parsed, err := url.Parse(raw)
		if err != nil {
			continue
		}
		out = append(out, *parsed)
	}
	return out, f.err
}

// siteFetcher serves a static site graph: every known URL responds 200
// HTML, everything else is a transport failure.
type siteFetcher struct {
	mu      sync.Mutex
	known   map[string]bool
	fetched []string
}

func newSiteFetcher(urls ...string) *siteFetcher {
	known := make(map[string]bool, len(urls))
	for _, u := range urls {
		known[u] = true
	}
	return &siteFetcher{known: known}
}

func (s *siteFetcher) Fetch(_ context.Context, u url.URL) fetcher.FetchResult {
	s.mu.Lock()
	s.fetched = append(s.fetched, u.String())
	s.mu.Unlock()

	if s.known[u.String()] {
		return fetcher.NewFetchResultForTest(u, "<html>site</html>", 200, 100, testTimestamp)
	}
	return fetcher.NewFetchResultForTest(u, "", 0, 0, testTimestamp)
}

func (s *siteFetcher) fetchCount(target string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int
	for _, f := range s.fetched {
		if f == target {
			n++
		}
	}
	return n
}

// graphExtractor returns each page's outbound links from a static map.
type graphExtractor struct {
	links map[string][]string
}

func (g *graphExtractor) Extract(base url.URL, _ string) []url.URL {
	var out []url.URL
	for _, raw := range g.links[base.String()] {
		parsed, err := url.Parse(raw)
		if err != nil {
			continue
		}
		out = append(out, *parsed)
	}
	return out
}

// permissiveRobot allows everything; denyListRobot denies its entries.
type permissiveRobot struct {
	checks atomic.Int64
}

func (p *permissiveRobot) IsAllowed(_ url.URL) bool {
	p.checks.Add(1)
	return true
}

type denyListRobot struct {
	denied map[string]struct{}
}

func (d *denyListRobot) IsAllowed(u url.URL) bool {
	_, denied := d.denied[u.String()]
	return !denied
}

type schedulerFixture struct {
	scheduler *Scheduler
	fetcher   *siteFetcher
	extractor *graphExtractor
	logPath   string
}

func newSchedulerFixture(
	t *testing.T,
	cfg config.Config,
	finder *fakeFinder,
	site *siteFetcher,
	graph *graphExtractor,
	robot interface{ IsAllowed(url.URL) bool },
) *schedulerFixture {
	t.Helper()

	logPath := filepath.Join(t.TempDir(), "log.txt")
	crawlLog, logErr := logger.Open(logPath)
	require.Nil(t, logErr)

	recorder := metadata.NewRecorder(false)
	sched := NewSchedulerWithDeps(cfg, &recorder, finder, site, graph, robot, crawlLog)

	return &schedulerFixture{
		scheduler: sched,
		fetcher:   site,
		extractor: graph,
		logPath:   logPath,
	}
}

func testConfig(t *testing.T, maxPages int, workers int) config.Config {
	t.Helper()
	cfg, err := config.WithDefault("test query").
		MaxPages(maxPages).
		MaxTime(30 * time.Second).
		Workers(workers).
		Build()
	require.NoError(t, err)
	return cfg
}

// urlLines returns the tab-separated per-URL lines, excluding the summary.
func urlLines(t *testing.T, path string) []string {
	t.Helper()
	content, err := os.ReadFile(path)
	require.NoError(t, err)

	var lines []string
	for _, line := range strings.Split(string(content), "\n") {
		if strings.Count(line, "\t") == 5 {
			lines = append(lines, line)
		}
	}
	return lines
}
