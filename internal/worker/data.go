package worker

import "time"

// Limits carries the run-wide bounds every worker re-checks at its
// suspension points. StartTime anchors the wall-clock budget.
type Limits struct {
	MaxPages    int
	MaxTime     time.Duration
	MaxTimeouts int
	StartTime   time.Time
}

// Expired reports whether the wall-clock budget has been spent.
func (l Limits) Expired(now time.Time) bool {
	return now.Sub(l.StartTime) >= l.MaxTime
}
