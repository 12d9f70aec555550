package engage

import (
	"log"
	"sync"
	"time"
)

// successRateFloor is the safe-mode minimum lifetime success rate.
const successRateFloor = 0.3

// HealthState classifies the tracker for status reporting.
type HealthState string

const (
	StateHealthy  HealthState = "healthy"
	StateDegraded HealthState = "degraded"
	StateCooldown HealthState = "cooldown"
)

// HealthTracker gatekeeps whether any engagement attempt may proceed.
// Two thresholds: a soft one that enters a timed cooldown the system
// recovers from on its own, and a hard stop that holds regardless of
// elapsed time. Process-lifetime state only; nothing here is persisted.
type HealthTracker struct {
	mu          sync.Mutex
	consecutive int
	lastError   time.Time
	errCounts   map[string]int
	inCooldown  bool
	attempts    int64
	successes   int64

	cooldownAfter int
	stopAfter     int
	cooldownFor   time.Duration
	safeMode      bool

	now func() time.Time
}

func NewHealthTracker(cfg Config) *HealthTracker {
	return &HealthTracker{
		errCounts:     make(map[string]int),
		cooldownAfter: cfg.CooldownAfterFailures,
		stopAfter:     cfg.StopAfterFailures,
		cooldownFor:   cfg.CooldownDuration,
		safeMode:      cfg.SafeMode,
		now:           time.Now,
	}
}

// RecordAttempt counts one operation attempt (success or failure) for
// lifetime success-rate accounting. Called by the retry executor.
func (h *HealthTracker) RecordAttempt() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.attempts++
}

// RecordError notes a failed operation. Reaching the soft threshold
// enters cooldown.
func (h *HealthTracker) RecordError(category string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.errCounts[category]++
	h.consecutive++
	h.lastError = h.now()

	log.Printf("[HEALTH] error category=%s consecutive=%d", category, h.consecutive)

	if h.consecutive >= h.cooldownAfter && !h.inCooldown {
		h.inCooldown = true
		log.Printf("[HEALTH] entering %s cooldown after %d consecutive failures", h.cooldownFor, h.consecutive)
	}
}

// RecordSuccess resets the consecutive-failure streak and releases an
// active cooldown early.
func (h *HealthTracker) RecordSuccess() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.consecutive = 0
	h.successes++
	if h.inCooldown {
		h.inCooldown = false
		log.Printf("[HEALTH] success, cooldown released early")
	}
}

// Healthy reports whether attempts may proceed. An expired cooldown
// auto-transitions back to healthy on this check.
func (h *HealthTracker) Healthy() bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	// The hard stop holds regardless of elapsed time; only a success
	// or an explicit Reset clears it.
	if h.consecutive >= h.stopAfter {
		log.Printf("[HEALTH] hard stop: %d consecutive failures", h.consecutive)
		return false
	}

	if h.inCooldown {
		end := h.lastError.Add(h.cooldownFor)
		if h.now().Before(end) {
			return false
		}
		h.inCooldown = false
		h.consecutive = 0
		log.Printf("[HEALTH] cooldown expired, system recovered")
	}

	// Safe mode additionally refuses to run on a collapsed lifetime
	// success rate, but only while a failure streak is live: a trailing
	// success always restores service.
	if h.safeMode && h.attempts > 0 && h.consecutive > 0 {
		rate := float64(h.successes) / float64(h.attempts)
		if rate < successRateFloor {
			log.Printf("[HEALTH] safe mode: success rate %.0f%% below floor", rate*100)
			return false
		}
	}

	return true
}

// State classifies the tracker without the side effects of Healthy.
func (h *HealthTracker) State() HealthState {
	h.mu.Lock()
	defer h.mu.Unlock()

	switch {
	case h.inCooldown:
		return StateCooldown
	case h.consecutive > 0:
		return StateDegraded
	default:
		return StateHealthy
	}
}

// Reset clears all counters and cooldown. Administrative escape hatch.
func (h *HealthTracker) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.consecutive = 0
	h.inCooldown = false
	h.lastError = time.Time{}
	h.errCounts = make(map[string]int)
	log.Printf("[HEALTH] state reset")
}

// HealthStatus is a point-in-time snapshot for status reporting.
type HealthStatus struct {
	State               HealthState
	ConsecutiveFailures int
	InCooldown          bool
	CooldownRemaining   time.Duration
	Attempts            int64
	Successes           int64
	SuccessRate         float64
	ErrorCounts         map[string]int
	LastErrorAt         time.Time
}

func (h *HealthTracker) Status() HealthStatus {
	h.mu.Lock()
	defer h.mu.Unlock()

	st := HealthStatus{
		ConsecutiveFailures: h.consecutive,
		InCooldown:          h.inCooldown,
		Attempts:            h.attempts,
		Successes:           h.successes,
		LastErrorAt:         h.lastError,
		ErrorCounts:         make(map[string]int, len(h.errCounts)),
	}
	for k, v := range h.errCounts {
		st.ErrorCounts[k] = v
	}
	if h.attempts > 0 {
		st.SuccessRate = float64(h.successes) / float64(h.attempts)
	}
	switch {
	case h.inCooldown:
		st.State = StateCooldown
		if rem := h.lastError.Add(h.cooldownFor).Sub(h.now()); rem > 0 {
			st.CooldownRemaining = rem
		}
	case h.consecutive > 0:
		st.State = StateDegraded
	default:
		st.State = StateHealthy
	}
	return st
}
