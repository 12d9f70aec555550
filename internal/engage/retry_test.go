package engage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRetrySucceedsAfterTransientFailures(t *testing.T) {
	h := NewHealthTracker(DefaultConfig())
	calls := 0

	v, ok := Retry(context.Background(), h, "judgment", 3, time.Millisecond,
		func(ctx context.Context) (string, error) {
			calls++
			if calls < 3 {
				return "", errors.New("timeout")
			}
			return "yes", nil
		})

	require.True(t, ok)
	require.Equal(t, "yes", v)
	require.Equal(t, 3, calls)

	st := h.Status()
	require.Equal(t, int64(3), st.Attempts, "every attempt counted")
	require.Equal(t, 0, st.ConsecutiveFailures, "success clears the streak")
	require.Empty(t, st.ErrorCounts, "no error reported on eventual success")
}

func TestRetryExhaustionReportsExactlyOneError(t *testing.T) {
	h := NewHealthTracker(DefaultConfig())

	v, ok := Retry(context.Background(), h, "delivery", 3, time.Millisecond,
		func(ctx context.Context) (int, error) { return 0, errors.New("boom") })

	require.False(t, ok)
	require.Zero(t, v)

	st := h.Status()
	require.Equal(t, 1, st.ErrorCounts["delivery"], "three attempts, one report")
	require.Equal(t, 1, st.ConsecutiveFailures)
	require.Equal(t, int64(3), st.Attempts)
}

func TestRetryContextCancelReturnsUnknownWithoutError(t *testing.T) {
	h := NewHealthTracker(DefaultConfig())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, ok := Retry(ctx, h, "activity-check", 3, time.Hour,
		func(ctx context.Context) (bool, error) { return false, errors.New("unreachable host") })

	require.False(t, ok)
	require.Empty(t, h.Status().ErrorCounts, "shutdown is not a failure")
}

func TestRetryNormalizesZeroAttempts(t *testing.T) {
	h := NewHealthTracker(DefaultConfig())
	calls := 0

	_, ok := Retry(context.Background(), h, "judgment", 0, time.Millisecond,
		func(ctx context.Context) (string, error) {
			calls++
			return "ok", nil
		})

	require.True(t, ok)
	require.Equal(t, 1, calls)
}
