package engage

import (
	"log"
	"sync"
	"time"
)

// dateLayout is the local calendar day the counters are keyed by.
const dateLayout = "2006-01-02"

// RateLimiter enforces the daily trigger budget: per-kind caps, a
// global cap, and a minimum spacing between any two triggers. The
// active DayRecord is rolled over on every access the moment the local
// date changes, and every mutation is written through to the DayStore
// before the call returns.
type RateLimiter struct {
	mu          sync.Mutex
	maxDaily    int
	kindCaps    map[TriggerKind]int
	minInterval time.Duration
	store       DayStore
	rec         *DayRecord
	now         func() time.Time
}

// NewRateLimiter loads the persisted record once at startup. A missing
// or corrupt record starts a fresh day.
func NewRateLimiter(cfg Config, store DayStore) *RateLimiter {
	rl := &RateLimiter{
		maxDaily: cfg.MaxDailyTriggers,
		kindCaps: map[TriggerKind]int{
			TriggerMood:   cfg.MoodMaxDaily,
			TriggerRandom: cfg.RandomMaxDaily,
		},
		minInterval: cfg.MinInterval,
		store:       store,
		now:         time.Now,
	}

	today := rl.now().Format(dateLayout)
	if store != nil {
		rec, err := store.LoadDay()
		if err != nil {
			log.Printf("[LIMITER] load failed, starting fresh day: %v", err)
		} else if rec != nil && rec.Date == today {
			if rec.Counts == nil {
				rec.Counts = make(map[TriggerKind]int)
			}
			if rec.LastByKind == nil {
				rec.LastByKind = make(map[TriggerKind]time.Time)
			}
			rl.rec = rec
		}
	}
	if rl.rec == nil {
		rl.rec = freshDay(today)
	}

	log.Printf("[LIMITER] ready date=%s total=%d/%d mood=%d/%d random=%d/%d min_interval=%s",
		rl.rec.Date, rl.rec.Total, rl.maxDaily,
		rl.rec.Counts[TriggerMood], rl.kindCaps[TriggerMood],
		rl.rec.Counts[TriggerRandom], rl.kindCaps[TriggerRandom],
		rl.minInterval)
	return rl
}

func freshDay(date string) *DayRecord {
	return &DayRecord{
		Date:       date,
		Counts:     make(map[TriggerKind]int),
		LastByKind: make(map[TriggerKind]time.Time),
	}
}

// gate blocks a trigger for one named reason. Gates are evaluated in a
// fixed order; the first blocking gate wins and later gates are not
// consulted.
type gate struct {
	name  string
	block func(rec *DayRecord, kind TriggerKind, now time.Time) bool
}

func (rl *RateLimiter) gates() []gate {
	return []gate{
		{"kind-cap", func(rec *DayRecord, kind TriggerKind, _ time.Time) bool {
			return rec.Counts[kind] >= rl.kindCaps[kind]
		}},
		{"global-cap", func(rec *DayRecord, _ TriggerKind, _ time.Time) bool {
			return rec.Total >= rl.maxDaily
		}},
		{"min-interval", func(rec *DayRecord, _ TriggerKind, now time.Time) bool {
			return !rec.LastTrigger.IsZero() && now.Sub(rec.LastTrigger) < rl.minInterval
		}},
	}
}

// CanTrigger reports whether a trigger of this kind is allowed right
// now. A failed check has no side effects beyond the day rollover.
func (rl *RateLimiter) CanTrigger(kind TriggerKind) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	rl.rollover(now)

	for _, g := range rl.gates() {
		if g.block(rl.rec, kind, now) {
			log.Printf("[LIMITER] blocked kind=%s gate=%s", kind, g.name)
			return false
		}
	}
	return true
}

// RecordTrigger counts a genuinely delivered trigger. Calling it
// speculatively would corrupt the daily budget; the pipeline only calls
// it after the transport confirmed delivery. Because CanTrigger and
// RecordTrigger bracket a whole attempt, two concurrent loop wakes can
// both pass the gate before either records. The caps are re-checked
// here under the lock so a racing second delivery never pushes the
// persisted counters past a cap; the interval stamp still moves, the
// message did go out.
func (rl *RateLimiter) RecordTrigger(kind TriggerKind) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	rl.rollover(now)

	atCap := rl.rec.Counts[kind] >= rl.kindCaps[kind] || rl.rec.Total >= rl.maxDaily
	if atCap {
		log.Printf("[LIMITER] delivery raced past a cap, not counted kind=%s today=%d/%d total=%d/%d",
			kind, rl.rec.Counts[kind], rl.kindCaps[kind], rl.rec.Total, rl.maxDaily)
	} else {
		rl.rec.Counts[kind]++
		rl.rec.Total++
	}
	rl.rec.LastTrigger = now
	rl.rec.LastByKind[kind] = now
	rl.persist()

	if !atCap {
		log.Printf("[LIMITER] recorded kind=%s today=%d/%d total=%d/%d",
			kind, rl.rec.Counts[kind], rl.kindCaps[kind], rl.rec.Total, rl.maxDaily)
	}
}

// Summary is a read-only snapshot of the current day's budget.
type Summary struct {
	Date        string
	Counts      map[TriggerKind]int
	Total       int
	LastTrigger time.Time
	GlobalLimit int
	KindLimits  map[TriggerKind]int
}

// DailySummary rolls the record forward, then snapshots it.
func (rl *RateLimiter) DailySummary() Summary {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.rollover(rl.now())

	counts := make(map[TriggerKind]int, len(rl.rec.Counts))
	for k, v := range rl.rec.Counts {
		counts[k] = v
	}
	limits := make(map[TriggerKind]int, len(rl.kindCaps))
	for k, v := range rl.kindCaps {
		limits[k] = v
	}
	return Summary{
		Date:        rl.rec.Date,
		Counts:      counts,
		Total:       rl.rec.Total,
		LastTrigger: rl.rec.LastTrigger,
		GlobalLimit: rl.maxDaily,
		KindLimits:  limits,
	}
}

// NextPossibleTime is the earliest instant a trigger could pass the
// min-interval gate, clamped to now when already past.
func (rl *RateLimiter) NextPossibleTime() time.Time {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	rl.rollover(now)

	if rl.rec.LastTrigger.IsZero() {
		return now
	}
	next := rl.rec.LastTrigger.Add(rl.minInterval)
	if next.Before(now) {
		return now
	}
	return next
}

// rollover replaces the record with a zeroed one when the local date
// changed. Callers hold rl.mu.
func (rl *RateLimiter) rollover(now time.Time) {
	today := now.Format(dateLayout)
	if rl.rec.Date == today {
		return
	}
	log.Printf("[LIMITER] new day %s -> %s, counters reset", rl.rec.Date, today)
	rl.rec = freshDay(today)
	rl.persist()
}

// persist writes the record through to durable storage. Callers hold
// rl.mu. A save failure is logged, never fatal.
func (rl *RateLimiter) persist() {
	if rl.store == nil {
		return
	}
	if err := rl.store.SaveDay(rl.rec); err != nil {
		log.Printf("[LIMITER] save failed: %v", err)
	}
}
