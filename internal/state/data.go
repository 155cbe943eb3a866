package state

// Stats is a point-in-time copy of the run's aggregate counters, taken for
// the end-of-run summary. Reads during the run need not see a globally
// consistent snapshot; the summary is taken after the pool has drained.
type Stats struct {
	TotalPages        int
	TotalBytes        int64
	StatusCounts      map[int]int
	DomainCrawlCounts map[string]int

	// debug-only skip accounting
	SkippedInvalid int
	SkippedDupes   int
	SkippedRobots  int
	SkippedTimeout int
}
