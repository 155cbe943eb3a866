package scheduler

import (
	"time"

	"github.com/rohmanhakim/query-crawler/internal/state"
)

// CrawlingExecution is the terminal outcome of a run: the aggregate
// counters at drain time plus the wall-clock spent.
type CrawlingExecution struct {
	Stats   state.Stats
	Elapsed time.Duration
	Seeds   int
}
