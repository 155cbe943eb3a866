package retry

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rohmanhakim/query-crawler/pkg/failure"
	"github.com/rohmanhakim/query-crawler/pkg/timeutil"
)

type fakeError struct {
	retryable bool
}

func (e *fakeError) Error() string { return "fake error" }

func (e *fakeError) Severity() failure.Severity {
	if e.retryable {
		return failure.SeverityRecoverable
	}
	return failure.SeverityFatal
}

func (e *fakeError) IsRetryable() bool { return e.retryable }

// fakeSleeper records the backoff delays Retry asks for instead of
// actually waiting.
type fakeSleeper struct {
	slept []time.Duration
}

func (s *fakeSleeper) Sleep(d time.Duration) {
	s.slept = append(s.slept, d)
}

func backoffParam(maxAttempts int) RetryParam {
	return NewRetryParam(
		0,
		1,
		maxAttempts,
		timeutil.NewBackoffParam(time.Second, 2.0, 10*time.Second),
	)
}

func TestRetrySucceedsFirstAttempt(t *testing.T) {
	sleeper := &fakeSleeper{}
	result := Retry(backoffParam(3), sleeper, func() (int, failure.ClassifiedError) {
		return 42, nil
	})

	require.NoError(t, result.Err())
	assert.Equal(t, 42, result.Value())
	assert.Equal(t, 1, result.Attempts())
	assert.Empty(t, sleeper.slept)
}

func TestRetryRecoversAfterTransientFailures(t *testing.T) {
	var calls int
	sleeper := &fakeSleeper{}
	result := Retry(backoffParam(5), sleeper, func() (string, failure.ClassifiedError) {
		calls++
		if calls < 3 {
			return "", &fakeError{retryable: true}
		}
		return "ok", nil
	})

	require.NoError(t, result.Err())
	assert.Equal(t, "ok", result.Value())
	assert.Equal(t, 3, result.Attempts())
	// one backoff per failed attempt, doubling each time
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, sleeper.slept)
}

func TestRetryStopsOnTerminalError(t *testing.T) {
	var calls int
	terminal := &fakeError{retryable: false}
	sleeper := &fakeSleeper{}
	result := Retry(backoffParam(5), sleeper, func() (string, failure.ClassifiedError) {
		calls++
		return "", terminal
	})

	assert.Equal(t, 1, calls)
	assert.Equal(t, terminal, result.Err())
	assert.Empty(t, sleeper.slept)
}

func TestRetryExhaustsAttempts(t *testing.T) {
	var calls int
	sleeper := &fakeSleeper{}
	result := Retry(backoffParam(3), sleeper, func() (string, failure.ClassifiedError) {
		calls++
		return "", &fakeError{retryable: true}
	})

	assert.Equal(t, 3, calls)
	assert.Len(t, sleeper.slept, 2, "no sleep after the last attempt")

	var retryErr *RetryError
	require.True(t, errors.As(result.Err(), &retryErr))
	assert.Equal(t, RetryErrorCause(ErrExhaustedAttempts), retryErr.Cause)
	assert.Equal(t, 3, retryErr.Attempts)
}

func TestRetryRejectsZeroAttempts(t *testing.T) {
	result := Retry(backoffParam(0), &fakeSleeper{}, func() (string, failure.ClassifiedError) {
		t.Fatal("task must not run")
		return "", nil
	})

	var retryErr *RetryError
	require.True(t, errors.As(result.Err(), &retryErr))
	assert.Equal(t, RetryErrorCause(ErrZeroAttempt), retryErr.Cause)
	assert.Equal(t, 0, result.Attempts())
}
