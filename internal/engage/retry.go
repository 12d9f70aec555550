package engage

import (
	"context"
	"log"
	"time"
)

// Retry runs op up to attempts times with linear backoff (baseDelay ×
// attempt number) between failures. Every attempt is counted against
// the tracker's lifetime totals; a success records one success, and
// exhausting all attempts records exactly one error under name. The
// second return is false when no attempt succeeded; call sites treat
// that "unknown" result according to their own fallback policy.
//
// Context cancellation during a backoff sleep returns unknown without
// recording an error: a shutdown is not a failure.
func Retry[T any](ctx context.Context, h *HealthTracker, name string, attempts int, baseDelay time.Duration, op func(context.Context) (T, error)) (T, bool) {
	var zero T
	if attempts < 1 {
		attempts = 1
	}

	for attempt := 1; attempt <= attempts; attempt++ {
		h.RecordAttempt()

		v, err := op(ctx)
		if err == nil {
			h.RecordSuccess()
			if attempt > 1 {
				log.Printf("[RETRY] op=%s succeeded on attempt %d/%d", name, attempt, attempts)
			}
			return v, true
		}

		log.Printf("[RETRY] op=%s attempt=%d/%d failed: %v", name, attempt, attempts, err)

		if attempt == attempts {
			break
		}
		delay := baseDelay * time.Duration(attempt)
		select {
		case <-ctx.Done():
			return zero, false
		case <-time.After(delay):
		}
	}

	h.RecordError(name)
	return zero, false
}
