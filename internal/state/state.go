package state

import (
	"sync"
	"sync/atomic"

	"github.com/rohmanhakim/query-crawler/internal/metadata"
)

/*
SharedState is the one process-wide record every worker mutates.

Each field group carries its own lock, mirroring the access patterns:

  - scheduled / visited / disallowed: membership test + insert is one
    atomic step under the group's mutex.
  - timeoutCounts / domainCrawlCounts / statusCounts / totalBytes / skip
    counters: read-modify-write under countsMu (totalBytes and skips are
    plain atomics).
  - superdomainDomains: the insert-then-read-size pair is a single
    critical section, because the size feeds directly into the priority
    computed for the link being admitted.
  - exit: a broadcast-read flag; workers observe the transition at their
    next check without any lock.

The frontier is deliberately NOT here: the scheduler holds the only
reference to it.
*/

type SharedState struct {
	urlsMu     sync.Mutex
	scheduled  Set
	visited    Set
	disallowed Set

	countsMu          sync.Mutex
	timeoutCounts     map[string]int
	domainCrawlCounts map[string]int
	statusCounts      map[int]int

	superdomainsMu     sync.Mutex
	superdomainDomains map[string]Set

	totalBytes atomic.Int64

	skippedInvalid atomic.Int64
	skippedDupes   atomic.Int64
	skippedRobots  atomic.Int64
	skippedTimeout atomic.Int64

	exit atomic.Bool
}

func NewSharedState() *SharedState {
	return &SharedState{
		scheduled:          NewSet(),
		visited:            NewSet(),
		disallowed:         NewSet(),
		timeoutCounts:      make(map[string]int),
		domainCrawlCounts:  make(map[string]int),
		statusCounts:       make(map[int]int),
		superdomainDomains: make(map[string]Set),
	}
}

// TrySchedule atomically tests and inserts the URL into the scheduled set.
// It returns true when the URL was not scheduled before; false means some
// other admission already claimed it and the caller must not enqueue.
// A URL enters scheduled at most once per run.
func (s *SharedState) TrySchedule(url string) bool {
	s.urlsMu.Lock()
	defer s.urlsMu.Unlock()

	if s.scheduled.Contains(url) {
		return false
	}
	s.scheduled.Add(url)
	return true
}

// AlreadySeen reports whether the URL is in the scheduled or visited set.
// Used as the duplicate filter for discovered links.
func (s *SharedState) AlreadySeen(url string) bool {
	s.urlsMu.Lock()
	defer s.urlsMu.Unlock()

	return s.scheduled.Contains(url) || s.visited.Contains(url)
}

// MarkVisited atomically tests and inserts the URL into the visited set.
// It returns true when the URL is newly visited. Two workers can race here
// when different frontier URLs redirect to the same final URL; exactly one
// observes true and accounts the page.
func (s *SharedState) MarkVisited(url string) bool {
	s.urlsMu.Lock()
	defer s.urlsMu.Unlock()

	if s.visited.Contains(url) {
		return false
	}
	// A redirect may land on a URL that was never admitted; claiming its
	// scheduled slot here keeps visited a subset of scheduled and blocks
	// any later re-admission of the landing URL.
	s.scheduled.Add(url)
	s.visited.Add(url)
	return true
}

func (s *SharedState) IsVisited(url string) bool {
	s.urlsMu.Lock()
	defer s.urlsMu.Unlock()

	return s.visited.Contains(url)
}

func (s *SharedState) VisitedCount() int {
	s.urlsMu.Lock()
	defer s.urlsMu.Unlock()

	return s.visited.Size()
}

// Disallow records a URL denied by robots. Disallowed URLs are never
// admitted to the frontier and never re-checked.
func (s *SharedState) Disallow(url string) {
	s.urlsMu.Lock()
	defer s.urlsMu.Unlock()

	s.disallowed.Add(url)
}

func (s *SharedState) IsDisallowed(url string) bool {
	s.urlsMu.Lock()
	defer s.urlsMu.Unlock()

	return s.disallowed.Contains(url)
}

// AddTimeout increments the transport-failure count for a host.
func (s *SharedState) AddTimeout(host string) {
	s.countsMu.Lock()
	defer s.countsMu.Unlock()

	s.timeoutCounts[host]++
}

// TimeoutExceeded reports whether the host has reached the
// transport-failure cap and must no longer be admitted.
func (s *SharedState) TimeoutExceeded(host string, maxTimeouts int) bool {
	s.countsMu.Lock()
	defer s.countsMu.Unlock()

	return s.timeoutCounts[host] >= maxTimeouts
}

// RecordPageSuccess accounts one successfully crawled HTML page: the
// host's crawl count rises and the host joins its registered domain's
// group.
func (s *SharedState) RecordPageSuccess(host string, superdomain string) {
	s.countsMu.Lock()
	s.domainCrawlCounts[host]++
	s.countsMu.Unlock()

	s.superdomainsMu.Lock()
	defer s.superdomainsMu.Unlock()
	s.domainsOf(superdomain).Add(host)
}

// DomainCrawlCount returns the number of pages successfully crawled on the
// given host so far.
func (s *SharedState) DomainCrawlCount(host string) int {
	s.countsMu.Lock()
	defer s.countsMu.Unlock()

	return s.domainCrawlCounts[host]
}

// ObserveSuperdomain adds the host under its registered domain and returns
// the resulting number of distinct hosts in that group. Insert and
// size-read happen in one critical section: the size feeds the priority of
// the link being admitted.
func (s *SharedState) ObserveSuperdomain(superdomain string, host string) int {
	s.superdomainsMu.Lock()
	defer s.superdomainsMu.Unlock()

	domains := s.domainsOf(superdomain)
	domains.Add(host)
	return domains.Size()
}

// domainsOf returns the host group for a registered domain, creating it on
// first reference. Caller must hold superdomainsMu.
func (s *SharedState) domainsOf(superdomain string) Set {
	domains, exists := s.superdomainDomains[superdomain]
	if !exists {
		domains = NewSet()
		s.superdomainDomains[superdomain] = domains
	}
	return domains
}

func (s *SharedState) AddStatus(code int) {
	s.countsMu.Lock()
	defer s.countsMu.Unlock()

	s.statusCounts[code]++
}

func (s *SharedState) AddBytes(n int) {
	s.totalBytes.Add(int64(n))
}

// AddSkip bumps the debug counter for a rejected link.
func (s *SharedState) AddSkip(reason metadata.SkipReason) {
	switch reason {
	case metadata.SkipInvalid:
		s.skippedInvalid.Add(1)
	case metadata.SkipDuplicate:
		s.skippedDupes.Add(1)
	case metadata.SkipRobots:
		s.skippedRobots.Add(1)
	case metadata.SkipTimeout:
		s.skippedTimeout.Add(1)
	}
}

// RequestExit flips the exit flag. The transition is one-way: nothing
// clears it for the rest of the run.
func (s *SharedState) RequestExit() {
	s.exit.Store(true)
}

// ShouldExit is checked by the scheduler before each dispatch and by
// workers at their suspension points.
func (s *SharedState) ShouldExit() bool {
	return s.exit.Load()
}

// Snapshot copies the aggregate counters for the end-of-run summary.
func (s *SharedState) Snapshot() Stats {
	stats := Stats{
		TotalPages:     s.VisitedCount(),
		TotalBytes:     s.totalBytes.Load(),
		SkippedInvalid: int(s.skippedInvalid.Load()),
		SkippedDupes:   int(s.skippedDupes.Load()),
		SkippedRobots:  int(s.skippedRobots.Load()),
		SkippedTimeout: int(s.skippedTimeout.Load()),
	}

	s.countsMu.Lock()
	defer s.countsMu.Unlock()

	stats.StatusCounts = make(map[int]int, len(s.statusCounts))
	for code, count := range s.statusCounts {
		stats.StatusCounts[code] = count
	}
	stats.DomainCrawlCounts = make(map[string]int, len(s.domainCrawlCounts))
	for host, count := range s.domainCrawlCounts {
		stats.DomainCrawlCounts[host] = count
	}
	return stats
}
