package retry

import (
	"fmt"
	"math/rand"

	"github.com/rohmanhakim/query-crawler/pkg/failure"
	"github.com/rohmanhakim/query-crawler/pkg/timeutil"
)

// Retry runs the task until it succeeds, fails terminally, or exhausts
// MaxAttempts. Between attempts it waits for an exponential backoff delay
// (with jitter) through the given Sleeper, so callers under test can
// inject a fake clock instead of waiting out real delays.
//
// Only errors that failure.IsRetryable accepts trigger another attempt;
// everything else is returned as-is after the attempt that produced it.
func Retry[T any](retryParam RetryParam, sleeper timeutil.Sleeper, task Task[T]) Result[T] {
	if retryParam.MaxAttempts < 1 {
		return Result[T]{
			err: &RetryError{
				Message: "max attempt cannot be 0",
				Cause:   ErrZeroAttempt,
			},
		}
	}

	rng := rand.New(rand.NewSource(retryParam.RandomSeed))

	var lastErr failure.ClassifiedError
	for attempt := 1; ; attempt++ {
		value, err := task()
		if err == nil {
			return Result[T]{value: value, attempts: attempt}
		}
		lastErr = err

		if !failure.IsRetryable(err) {
			return Result[T]{err: err, attempts: attempt}
		}
		if attempt == retryParam.MaxAttempts {
			break
		}

		sleeper.Sleep(timeutil.ExponentialBackoffDelay(
			attempt,
			retryParam.Jitter,
			*rng,
			retryParam.BackoffParam,
		))
	}

	return Result[T]{
		err: &RetryError{
			Message:  fmt.Sprintf("exhausted %d attempts. Last error: %v", retryParam.MaxAttempts, lastErr),
			Cause:    ErrExhaustedAttempts,
			Attempts: retryParam.MaxAttempts,
		},
		attempts: retryParam.MaxAttempts,
	}
}
