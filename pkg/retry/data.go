package retry

import (
	"time"

	"github.com/rohmanhakim/query-crawler/pkg/failure"
	"github.com/rohmanhakim/query-crawler/pkg/timeutil"
)

// Task is an operation worth repeating: it either produces a value or a
// classified error that decides whether another attempt makes sense.
type Task[T any] func() (T, failure.ClassifiedError)

// RetryParam holds the knobs for one retry site. The crawl path itself
// never retries (a fetch failure is data, not an error), so these
// parameters only reach the seed query.
type RetryParam struct {
	Jitter       time.Duration
	RandomSeed   int64
	MaxAttempts  int
	BackoffParam timeutil.BackoffParam
}

// NewRetryParam creates a new RetryParam with the given settings.
func NewRetryParam(
	jitter time.Duration,
	randomSeed int64,
	maxAttempts int,
	backoffParam timeutil.BackoffParam,
) RetryParam {
	return RetryParam{
		Jitter:       jitter,
		RandomSeed:   randomSeed,
		MaxAttempts:  maxAttempts,
		BackoffParam: backoffParam,
	}
}

// Result holds the outcome of a retried task: the value on success, the
// last classified error otherwise, and how many attempts were spent.
type Result[T any] struct {
	value    T
	err      error
	attempts int
}

func (r Result[T]) Value() T {
	return r.value
}

func (r Result[T]) Err() error {
	return r.err
}

func (r Result[T]) Attempts() int {
	return r.attempts
}
