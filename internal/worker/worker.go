package worker

import (
	"context"
	"net/url"
	"time"

	"github.com/rohmanhakim/query-crawler/internal/extractor"
	"github.com/rohmanhakim/query-crawler/internal/fetcher"
	"github.com/rohmanhakim/query-crawler/internal/frontier"
	"github.com/rohmanhakim/query-crawler/internal/logger"
	"github.com/rohmanhakim/query-crawler/internal/metadata"
	"github.com/rohmanhakim/query-crawler/internal/priority"
	"github.com/rohmanhakim/query-crawler/internal/robots"
	"github.com/rohmanhakim/query-crawler/internal/state"
	"github.com/rohmanhakim/query-crawler/pkg/urlutil"
)

/*
Worker processes one popped frontier entry end to end:
fetch → post-redirect admission → accounting → logging → link filtering.

Failure semantics:
  - Fetch errors arrive in-band (status 0) and never propagate.
  - Robots fetch failures are absorbed inside the cache (fail-open).
  - A malformed link skips that link only; the rest of the page survives.
  - A log write failure is recorded and the page keeps processing.

Workers observe the exit flag at start and between fetch and link
extraction; a fetch already in flight runs to completion and its result
is recorded normally.
*/

type Worker struct {
	htmlFetcher  fetcher.Fetcher
	domExtractor extractor.Extractor
	robot        robots.Policy
	sharedState  *state.SharedState
	crawlLog     *logger.CrawlLog
	metadataSink metadata.MetadataSink
	limits       Limits
}

func NewWorker(
	htmlFetcher fetcher.Fetcher,
	domExtractor extractor.Extractor,
	robot robots.Policy,
	sharedState *state.SharedState,
	crawlLog *logger.CrawlLog,
	metadataSink metadata.MetadataSink,
	limits Limits,
) Worker {
	return Worker{
		htmlFetcher:  htmlFetcher,
		domExtractor: domExtractor,
		robot:        robot,
		sharedState:  sharedState,
		crawlLog:     crawlLog,
		metadataSink: metadataSink,
		limits:       limits,
	}
}

// Process crawls one frontier entry and returns the admitted child
// entries to be pushed back onto the frontier.
func (w *Worker) Process(ctx context.Context, entry frontier.Entry) []frontier.Entry {
	if w.reachedLimits() {
		w.sharedState.RequestExit()
		return nil
	}

	// Fetch first to resolve any redirects
	result := w.htmlFetcher.Fetch(ctx, entry.URL())
	finalURL := urlutil.Canonicalize(result.FinalURL())
	finalKey := finalURL.String()
	meta := result.Meta()

	// Post-redirect admission: the landing URL may differ from the
	// admitted one and must pass robots and dedup on its own.
	if !w.robot.IsAllowed(finalURL) {
		w.sharedState.Disallow(finalKey)
		w.metadataSink.RecordSkip(metadata.SkipRobots, finalKey)
		return nil
	}
	if !w.sharedState.MarkVisited(finalKey) {
		w.metadataSink.RecordSkip(metadata.SkipDuplicate, finalKey)
		return nil
	}

	host := urlutil.Host(finalURL)
	superdomain := urlutil.RegisteredDomain(finalURL)

	// Track transport failures per host
	if meta.StatusCode() == 0 && meta.ContentLength() == 0 {
		w.sharedState.AddTimeout(host)
	}

	if err := w.crawlLog.LogURL(
		finalKey,
		meta.Timestamp(),
		meta.ContentLength(),
		entry.Depth(),
		meta.StatusCode(),
		entry.Score(),
	); err != nil {
		w.metadataSink.RecordError(
			time.Now(),
			"worker",
			"Worker.Process",
			metadata.CauseStorageFailure,
			err.Error(),
			[]metadata.Attribute{
				metadata.NewAttr(metadata.AttrURL, finalKey),
			},
		)
	}

	// Update crawl stats
	w.sharedState.AddBytes(meta.ContentLength())
	w.sharedState.AddStatus(meta.StatusCode())

	// Skip link extraction if fetch failed or not html
	if meta.StatusCode() != 200 || result.HTML() == "" {
		return nil
	}

	w.sharedState.RecordPageSuccess(host, superdomain)

	if w.reachedLimits() {
		w.sharedState.RequestExit()
		return nil
	}

	return w.admitLinks(finalURL, result.HTML(), entry.Depth())
}

// admitLinks runs the admission pipeline over every link extracted from
// the page and returns the entries that survived.
func (w *Worker) admitLinks(base url.URL, html string, depth int) []frontier.Entry {
	var admitted []frontier.Entry

	for _, link := range w.domExtractor.Extract(base, html) {
		cleaned := urlutil.Canonicalize(link)
		key := cleaned.String()

		if !urlutil.IsValid(cleaned) || urlutil.IsCGI(cleaned) || urlutil.IsBlockedExtension(cleaned) {
			w.skip(metadata.SkipInvalid, key)
			continue
		}
		if w.sharedState.AlreadySeen(key) {
			w.skip(metadata.SkipDuplicate, key)
			continue
		}
		if w.sharedState.IsDisallowed(key) {
			w.skip(metadata.SkipRobots, key)
			continue
		}

		linkHost := urlutil.Host(cleaned)
		if w.sharedState.TimeoutExceeded(linkHost, w.limits.MaxTimeouts) {
			w.skip(metadata.SkipTimeout, key)
			continue
		}
		if !w.robot.IsAllowed(cleaned) {
			w.sharedState.Disallow(key)
			w.skip(metadata.SkipRobots, key)
			continue
		}

		// The host joins its registered-domain group before scoring so
		// the group size already reflects this link.
		linkSuperdomain := urlutil.RegisteredDomain(cleaned)
		superdomainDomains := w.sharedState.ObserveSuperdomain(linkSuperdomain, linkHost)
		domainCrawls := w.sharedState.DomainCrawlCount(linkHost)
		score := priority.Compute(domainCrawls, superdomainDomains)

		// Another worker may have admitted the same link in the
		// meantime; TrySchedule decides exactly one winner.
		if !w.sharedState.TrySchedule(key) {
			w.skip(metadata.SkipDuplicate, key)
			continue
		}

		admitted = append(admitted, frontier.NewEntry(score, cleaned, depth+1))
	}

	return admitted
}

func (w *Worker) skip(reason metadata.SkipReason, url string) {
	w.sharedState.AddSkip(reason)
	w.metadataSink.RecordSkip(reason, url)
}

func (w *Worker) reachedLimits() bool {
	if w.sharedState.ShouldExit() {
		return true
	}
	if w.sharedState.VisitedCount() >= w.limits.MaxPages {
		return true
	}
	return w.limits.Expired(time.Now())
}
