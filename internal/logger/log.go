package logger

import (
	"bufio"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/rohmanhakim/query-crawler/internal/state"
	"github.com/rohmanhakim/query-crawler/pkg/failure"
	"github.com/rohmanhakim/query-crawler/pkg/fileutil"
	"github.com/rohmanhakim/query-crawler/pkg/urlutil"
)

/*
Responsibilities
- Append one line per fetched URL
- Write the end-of-run summary after the pool drains

Output Characteristics
- Fixed line contract: url, timestamp, content length, depth, status
  code, priority (6 decimals), tab-separated
- Every line is fully flushed before the next one starts
- Lines appear in completion order, not dispatch order
*/

type CrawlLog struct {
	mu     sync.Mutex
	file   *os.File
	writer *bufio.Writer
	path   string
}

// Open creates (or truncates) the crawl log at the given path.
func Open(path string) (*CrawlLog, failure.ClassifiedError) {
	if err := fileutil.EnsureParentDir(path); err != nil {
		return nil, err
	}
	file, err := os.Create(path)
	if err != nil {
		return nil, &LogError{
			Message:   err.Error(),
			Retryable: false,
			Cause:     ErrCauseOpenFailure,
			Path:      path,
		}
	}
	return &CrawlLog{
		file:   file,
		writer: bufio.NewWriter(file),
		path:   path,
	}, nil
}

// LogURL appends one per-URL line. Writes are serialized and flushed so
// concurrent workers never interleave partial lines.
func (l *CrawlLog) LogURL(
	url string,
	timestamp string,
	contentLength int,
	depth int,
	statusCode int,
	score float64,
) failure.ClassifiedError {
	l.mu.Lock()
	defer l.mu.Unlock()

	_, err := fmt.Fprintf(l.writer, "%s\t%s\t%d\t%d\t%d\t%.6f\n",
		url, timestamp, contentLength, depth, statusCode, score)
	if err == nil {
		err = l.writer.Flush()
	}
	if err != nil {
		return &LogError{
			Message:   err.Error(),
			Retryable: true,
			Cause:     ErrCauseWriteFailure,
			Path:      l.path,
		}
	}
	return nil
}

// LogSummary writes the human-readable end-of-run block. Call exactly
// once, after every worker has completed.
func (l *CrawlLog) LogSummary(stats state.Stats, totalTime time.Duration, debug bool) failure.ClassifiedError {
	l.mu.Lock()
	defer l.mu.Unlock()

	fmt.Fprintf(l.writer, "\nFetch Summary:\n")
	fmt.Fprintf(l.writer, "Total pages: %d\n", stats.TotalPages)
	fmt.Fprintf(l.writer, "Total size: %d bytes\n", stats.TotalBytes)
	fmt.Fprintf(l.writer, "Total time: %.2f seconds\n", totalTime.Seconds())

	for _, status := range sortedStatusCodes(stats.StatusCounts) {
		fmt.Fprintf(l.writer, "%d responses: %d\n", status, stats.StatusCounts[status])
	}

	fmt.Fprintf(l.writer, "Total crawled pages: %d\n", totalCrawled(stats.DomainCrawlCounts))

	if debug {
		fmt.Fprintf(l.writer, "\nSkip Summary:\n")
		fmt.Fprintf(l.writer, "Invalid URLs: %d\n", stats.SkippedInvalid)
		fmt.Fprintf(l.writer, "Duplicates: %d\n", stats.SkippedDupes)
		fmt.Fprintf(l.writer, "Blocked by robots.txt: %d\n", stats.SkippedRobots)
		fmt.Fprintf(l.writer, "Timeout failures: %d\n", stats.SkippedTimeout)
	}

	fmt.Fprintf(l.writer, "\nDomain Summary:\n")
	for _, entry := range superdomainCounts(stats.DomainCrawlCounts) {
		fmt.Fprintf(l.writer, "%s: %d pages\n", entry.superdomain, entry.count)
	}

	if err := l.writer.Flush(); err != nil {
		return &LogError{
			Message:   err.Error(),
			Retryable: false,
			Cause:     ErrCauseWriteFailure,
			Path:      l.path,
		}
	}
	return nil
}

func (l *CrawlLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.writer.Flush()
	return l.file.Close()
}

func sortedStatusCodes(statusCounts map[int]int) []int {
	codes := make([]int, 0, len(statusCounts))
	for code := range statusCounts {
		codes = append(codes, code)
	}
	sort.Ints(codes)
	return codes
}

func totalCrawled(domainCrawlCounts map[string]int) int {
	var total int
	for _, count := range domainCrawlCounts {
		total += count
	}
	return total
}

type superdomainCount struct {
	superdomain string
	count       int
}

// superdomainCounts aggregates per-host crawl counts into registered
// domains, sorted by count descending (name ascending on ties).
func superdomainCounts(domainCrawlCounts map[string]int) []superdomainCount {
	aggregated := make(map[string]int)
	for host, count := range domainCrawlCounts {
		aggregated[urlutil.RegisteredDomainOfHost(host)] += count
	}

	entries := make([]superdomainCount, 0, len(aggregated))
	for superdomain, count := range aggregated {
		entries = append(entries, superdomainCount{superdomain: superdomain, count: count})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].count != entries[j].count {
			return entries[i].count > entries[j].count
		}
		return entries[i].superdomain < entries[j].superdomain
	})
	return entries
}
