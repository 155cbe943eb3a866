package robots

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/temoto/robotstxt"
	"golang.org/x/sync/singleflight"

	"github.com/rohmanhakim/query-crawler/internal/metadata"
)

// robots.txt responses beyond this size are truncated before parsing.
const maxRobotsSize = 500 * 1024

// CachedRobot is the standard Policy: a per-origin read-through cache over
// HTTP robots.txt fetches.
//
// Guarantees:
//   - At most one robots.txt fetch is ever initiated per origin across the
//     run, even under concurrent queries: concurrent callers for the same
//     origin wait on the in-flight fetch and share its result.
//   - Any failure (network, HTTP >= 400, parse) stores the fail-open
//     sentinel; the origin is treated as permissive for the rest of the run.
type CachedRobot struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry

	inflight     singleflight.Group
	httpClient   *http.Client
	userAgent    string
	metadataSink metadata.MetadataSink
}

func NewCachedRobot(metadataSink metadata.MetadataSink, userAgent string, timeout time.Duration) *CachedRobot {
	return &CachedRobot{
		entries:      make(map[string]cacheEntry),
		httpClient:   &http.Client{Timeout: timeout},
		userAgent:    userAgent,
		metadataSink: metadataSink,
	}
}

// NewCachedRobotWithClient creates a CachedRobot with a custom HTTP client.
// This is useful for testing.
func NewCachedRobotWithClient(metadataSink metadata.MetadataSink, userAgent string, httpClient *http.Client) *CachedRobot {
	return &CachedRobot{
		entries:      make(map[string]cacheEntry),
		httpClient:   httpClient,
		userAgent:    userAgent,
		metadataSink: metadataSink,
	}
}

// IsAllowed resolves the robots decision for the URL's origin, fetching
// and caching the origin's robots.txt on first reference.
func (c *CachedRobot) IsAllowed(u url.URL) bool {
	origin := Origin(u)

	c.mu.RLock()
	entry, cached := c.entries[origin]
	c.mu.RUnlock()

	if cached {
		return entry.allows(u)
	}

	// Collapse concurrent first references into one fetch. The winner
	// stores the entry before Do returns, so every caller reads the same
	// resolved state.
	resolved, _, _ := c.inflight.Do(origin, func() (any, error) {
		e := c.fetchRuleset(origin)
		c.mu.Lock()
		c.entries[origin] = e
		c.mu.Unlock()
		return e, nil
	})

	return resolved.(cacheEntry).allows(u)
}

// fetchRuleset retrieves and parses origin/robots.txt. Every failure path
// returns the fail-open sentinel after recording the cause.
func (c *CachedRobot) fetchRuleset(origin string) cacheEntry {
	robotsURL := origin + "/robots.txt"

	req, err := http.NewRequest(http.MethodGet, robotsURL, nil)
	if err != nil {
		c.recordFailure(robotsURL, &RobotsError{
			Message: fmt.Sprintf("failed to create request: %v", err),
			Cause:   ErrCausePreFetchFailure,
		})
		return cacheEntry{}
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "text/plain,text/html,*/*")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.recordFailure(robotsURL, &RobotsError{
			Message: fmt.Sprintf("failed to fetch robots.txt: %v", err),
			Cause:   ErrCauseHttpFetchFailure,
		})
		return cacheEntry{}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		c.recordFailure(robotsURL, &RobotsError{
			Message: fmt.Sprintf("status %d for %s", resp.StatusCode, robotsURL),
			Cause:   ErrCauseHttpUnexpectedStatus,
		})
		return cacheEntry{}
	}

	content, err := io.ReadAll(io.LimitReader(resp.Body, maxRobotsSize))
	if err != nil {
		c.recordFailure(robotsURL, &RobotsError{
			Message: fmt.Sprintf("failed to read robots.txt body: %v", err),
			Cause:   ErrCauseHttpFetchFailure,
		})
		return cacheEntry{}
	}

	ruleset, err := robotstxt.FromBytes(content)
	if err != nil {
		c.recordFailure(robotsURL, &RobotsError{
			Message: fmt.Sprintf("failed to parse robots.txt: %v", err),
			Cause:   ErrCauseParseError,
		})
		return cacheEntry{}
	}

	return cacheEntry{ruleset: ruleset}
}

func (c *CachedRobot) recordFailure(robotsURL string, robotsErr *RobotsError) {
	c.metadataSink.RecordError(
		time.Now(),
		"robots",
		"CachedRobot.fetchRuleset",
		mapRobotsErrorToMetadataCause(robotsErr),
		robotsErr.Message,
		[]metadata.Attribute{
			metadata.NewAttr(metadata.AttrURL, robotsURL),
		},
	)
}

// CachedOrigins returns the number of origins resolved so far.
func (c *CachedRobot) CachedOrigins() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
