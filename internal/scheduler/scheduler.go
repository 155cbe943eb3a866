package scheduler

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/rohmanhakim/query-crawler/internal/config"
	"github.com/rohmanhakim/query-crawler/internal/extractor"
	"github.com/rohmanhakim/query-crawler/internal/fetcher"
	"github.com/rohmanhakim/query-crawler/internal/frontier"
	"github.com/rohmanhakim/query-crawler/internal/logger"
	"github.com/rohmanhakim/query-crawler/internal/metadata"
	"github.com/rohmanhakim/query-crawler/internal/robots"
	"github.com/rohmanhakim/query-crawler/internal/seed"
	"github.com/rohmanhakim/query-crawler/internal/state"
	"github.com/rohmanhakim/query-crawler/internal/worker"
	"github.com/rohmanhakim/query-crawler/pkg/failure"
	"github.com/rohmanhakim/query-crawler/pkg/retry"
	"github.com/rohmanhakim/query-crawler/pkg/timeutil"
	"github.com/rohmanhakim/query-crawler/pkg/urlutil"
)

/*
Scheduler is the sole control-plane authority of the crawl.

Admission guarantees:
  - The scheduler (at seeding) and its workers (at link discovery) are the
    only paths onto the frontier, and both go through the same admission
    pipeline: canonicalize → syntactic filter → dedup → robots → score.
  - The frontier only ever receives already-admitted, already-scheduled
    URLs, and only the scheduler's run loop touches it.

Pool lifecycle:
  - Filling: pop the highest-score entry and dispatch it to a worker slot
    until the pool is full, the frontier is empty, or a limit fires.
    Entries whose URL was collapsed into an already-visited page by a
    redirect are dropped here and the next entry is popped instead.
  - Waiting: block until a worker completes, push its returned entries,
    then refill.
  - Termination: page cap, wall-clock budget, or frontier empty with an
    idle pool. On a limit the exit flag stops further dispatch; in-flight
    workers run to completion and their results are recorded normally.

Dispatch follows heap order, but completion does not: workers run in
parallel, so log lines appear in completion order.
*/

type Scheduler struct {
	cfg          config.Config
	metadataSink metadata.MetadataSink
	seedFinder   seed.Finder
	htmlFetcher  fetcher.Fetcher
	domExtractor extractor.Extractor
	robot        robots.Policy
	sharedState  *state.SharedState
	frontier     *frontier.Frontier
	crawlLog     *logger.CrawlLog
}

func NewScheduler(cfg config.Config) (*Scheduler, failure.ClassifiedError) {
	recorder := metadata.NewRecorder(cfg.Debug())
	robot := robots.NewCachedRobot(&recorder, cfg.UserAgent(), cfg.FetchTimeout())
	htmlFetcher := fetcher.NewHtmlFetcher(&recorder, cfg.UserAgent(), cfg.FetchTimeout())
	domExtractor := extractor.NewDomExtractor(&recorder)
	seedFinder := seed.NewDdgFinder(&recorder, cfg.UserAgent(), cfg.FetchTimeout(), RetryParam(cfg))

	crawlLog, err := logger.Open(cfg.LogPath())
	if err != nil {
		return nil, err
	}

	crawlFrontier := frontier.NewFrontier()
	return &Scheduler{
		cfg:          cfg,
		metadataSink: &recorder,
		seedFinder:   &seedFinder,
		htmlFetcher:  &htmlFetcher,
		domExtractor: &domExtractor,
		robot:        robot,
		sharedState:  state.NewSharedState(),
		frontier:     &crawlFrontier,
		crawlLog:     crawlLog,
	}, nil
}

// NewSchedulerWithDeps creates a Scheduler with injected dependencies for
// testing. This constructor allows tests to provide fake fetchers,
// extractors, robots policies, and seed finders to verify scheduling
// behavior without real network traffic.
func NewSchedulerWithDeps(
	cfg config.Config,
	metadataSink metadata.MetadataSink,
	seedFinder seed.Finder,
	htmlFetcher fetcher.Fetcher,
	domExtractor extractor.Extractor,
	robot robots.Policy,
	crawlLog *logger.CrawlLog,
) *Scheduler {
	crawlFrontier := frontier.NewFrontier()
	return &Scheduler{
		cfg:          cfg,
		metadataSink: metadataSink,
		seedFinder:   seedFinder,
		htmlFetcher:  htmlFetcher,
		domExtractor: domExtractor,
		robot:        robot,
		sharedState:  state.NewSharedState(),
		frontier:     &crawlFrontier,
		crawlLog:     crawlLog,
	}
}

// ExecuteCrawling runs the whole crawl: seed discovery, seeding, the
// worker-pool loop, drain, and the summary. It returns the terminal
// execution record; a seed-discovery failure is not fatal, the run just
// completes immediately with an empty summary.
func (s *Scheduler) ExecuteCrawling(ctx context.Context) (CrawlingExecution, failure.ClassifiedError) {
	startTime := time.Now()
	defer s.crawlLog.Close()

	seeds, seedErr := s.seedFinder.Discover(ctx, s.cfg.Query(), s.cfg.MaxSeedResults())
	if seedErr != nil && len(seeds) == 0 {
		fmt.Printf("No seeds for query %q; finishing with empty summary\n", s.cfg.Query())
	}

	admitted := s.seedFrontier(seeds)

	s.runPool(ctx, startTime)

	elapsed := time.Since(startTime)
	stats := s.sharedState.Snapshot()
	if err := s.crawlLog.LogSummary(stats, elapsed, s.cfg.Debug()); err != nil {
		return CrawlingExecution{}, err
	}

	return CrawlingExecution{
		Stats:   stats,
		Elapsed: elapsed,
		Seeds:   admitted,
	}, nil
}

// seedFrontier admits the discovered seeds. Seeds enter at score 0 and
// depth 0; they are not marked visited here, the fetch accounts them like
// any other page.
func (s *Scheduler) seedFrontier(seeds []url.URL) int {
	var admitted int
	for _, rawSeed := range seeds {
		seedURL := urlutil.Canonicalize(rawSeed)
		key := seedURL.String()

		if !urlutil.IsValid(seedURL) || urlutil.IsCGI(seedURL) || urlutil.IsBlockedExtension(seedURL) {
			s.sharedState.AddSkip(metadata.SkipInvalid)
			s.metadataSink.RecordSkip(metadata.SkipInvalid, key)
			continue
		}
		if s.sharedState.IsDisallowed(key) {
			s.sharedState.AddSkip(metadata.SkipRobots)
			s.metadataSink.RecordSkip(metadata.SkipRobots, key)
			continue
		}
		if !s.robot.IsAllowed(seedURL) {
			s.sharedState.Disallow(key)
			s.sharedState.AddSkip(metadata.SkipRobots)
			s.metadataSink.RecordSkip(metadata.SkipRobots, key)
			continue
		}
		if !s.sharedState.TrySchedule(key) {
			s.sharedState.AddSkip(metadata.SkipDuplicate)
			s.metadataSink.RecordSkip(metadata.SkipDuplicate, key)
			continue
		}

		s.frontier.Push(frontier.NewEntry(0, seedURL, 0))
		admitted++
	}
	return admitted
}

// runPool drives the fixed-size worker pool until a termination condition
// fires and all in-flight workers have drained.
func (s *Scheduler) runPool(ctx context.Context, startTime time.Time) {
	limits := worker.Limits{
		MaxPages:    s.cfg.MaxPages(),
		MaxTime:     s.cfg.MaxTime(),
		MaxTimeouts: s.cfg.MaxTimeouts(),
		StartTime:   startTime,
	}
	crawlWorker := worker.NewWorker(
		s.htmlFetcher,
		s.domExtractor,
		s.robot,
		s.sharedState,
		s.crawlLog,
		s.metadataSink,
		limits,
	)

	results := make(chan []frontier.Entry)
	inFlight := 0
	exitAnnounced := false

	for {
		// Filling
		for inFlight < s.cfg.Workers() && !s.sharedState.ShouldExit() {
			pageCount := s.sharedState.VisitedCount()
			if pageCount >= s.cfg.MaxPages() || limits.Expired(time.Now()) {
				s.sharedState.RequestExit()
				if !exitAnnounced {
					exitAnnounced = true
					fmt.Printf("[EXIT] Reached limit - fetched %d pages in %.2f seconds\n",
						pageCount, time.Since(startTime).Seconds())
				}
				break
			}
			// Dispatching beyond the remaining page budget could let
			// concurrent completions overshoot the cap.
			if pageCount+inFlight >= s.cfg.MaxPages() {
				break
			}

			entry, ok := s.frontier.Pop()
			if !ok {
				break
			}
			// Admitted before a redirect collapsed it into a page that
			// has since been visited: drop and pop again.
			entryURL := entry.URL()
			if s.sharedState.IsVisited(entryURL.String()) {
				continue
			}

			inFlight++
			go func(e frontier.Entry) {
				results <- crawlWorker.Process(ctx, e)
			}(entry)
		}

		if inFlight == 0 {
			break
		}

		// Waiting: collect one completion, push its links, refill.
		newEntries := <-results
		inFlight--
		for _, e := range newEntries {
			s.frontier.Push(e)
		}
	}
}

func RetryParam(cfg config.Config) retry.RetryParam {
	return retry.NewRetryParam(
		cfg.Jitter(),
		cfg.RandomSeed(),
		cfg.MaxAttempt(),
		timeutil.NewBackoffParam(
			cfg.BackoffInitialDuration(),
			cfg.BackoffMultiplier(),
			cfg.BackoffMaxDuration(),
		),
	)
}

// FrontierLen returns the number of pending frontier entries.
// This is a test helper method.
func (s *Scheduler) FrontierLen() int {
	return s.frontier.Len()
}

// VisitedCount returns the number of URLs fetched so far.
// This is a test helper method to verify shared state.
func (s *Scheduler) VisitedCount() int {
	return s.sharedState.VisitedCount()
}
