package engage

import (
	"context"
	"log"
	"math/rand"
	"sync"
	"time"

	"icebreaker/pkg/jobmgr"
)

const (
	moodJobName   = "mood-trigger"
	randomJobName = "random-trigger"

	debugMoodCheck     = 5 * time.Second
	debugRandomMinWait = 72 * time.Second
	debugRandomMaxWait = 180 * time.Second
)

// Collaborators bundles the external services the engine drives.
// Everything is an interface so the engine never knows about the
// chat platform or the model provider behind them.
type Collaborators struct {
	Store     DayStore
	Signals   SignalDetector
	Activity  ActivityChecker
	Judge     Judge
	Generator ContentGenerator
	Transport Transport
	Directory Directory
}

// Engine owns the trigger loops and the shared limiter, health tracker
// and follow-up boost store. Start and Stop are idempotent.
type Engine struct {
	cfg      Config
	limiter  *RateLimiter
	health   *HealthTracker
	boost    *BoostStore
	pipeline *Pipeline
	signals  SignalDetector
	jobs     *jobmgr.Manager

	mu      sync.Mutex
	running bool

	// Injected for deterministic tests.
	randFloat func() float64
	randIntn  func(int) int
}

// NewEngine builds the engine and its pipeline. cfg is normalized
// in place; invalid knobs fall back to defaults.
func NewEngine(cfg Config, c Collaborators) *Engine {
	cfg.Normalize()

	limiter := NewRateLimiter(cfg, c.Store)
	health := NewHealthTracker(cfg)
	boost := NewBoostStore(cfg)

	return &Engine{
		cfg:      cfg,
		limiter:  limiter,
		health:   health,
		boost:    boost,
		pipeline: NewPipeline(cfg, limiter, health, boost, c.Activity, c.Judge, c.Generator, c.Transport, c.Directory),
		signals:  c.Signals,
		jobs: jobmgr.NewManager(func(msg string) {
			log.Printf("[JOBS] %s", msg)
		}),
		randFloat: rand.Float64,
		randIntn:  rand.Intn,
	}
}

// Start launches the enabled trigger loops. Calling Start while
// already running is a no-op.
func (e *Engine) Start(ctx context.Context) {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		log.Printf("[ENGINE] start ignored: already running")
		return
	}
	e.running = true
	e.mu.Unlock()

	if e.cfg.MoodEnabled {
		if err := e.jobs.StartAsync(ctx, moodJobName, e.moodLoop); err != nil {
			log.Printf("[ENGINE] mood loop start failed error=%v", err)
		}
	}
	if e.cfg.RandomEnabled {
		if err := e.jobs.StartAsync(ctx, randomJobName, e.randomLoop); err != nil {
			log.Printf("[ENGINE] random loop start failed error=%v", err)
		}
	}
	log.Printf("[ENGINE] started mood=%v random=%v debug=%v", e.cfg.MoodEnabled, e.cfg.RandomEnabled, e.cfg.DebugMode)
}

// Stop cancels every trigger loop. Safe to call more than once.
func (e *Engine) Stop() {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return
	}
	e.running = false
	e.mu.Unlock()

	e.jobs.StopAll()
	log.Printf("[ENGINE] stopped")
}

// Running reports whether the trigger loops are active.
func (e *Engine) Running() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.running
}

// Status is a point-in-time snapshot of the whole subsystem, suitable
// for rendering in a chat reply.
type Status struct {
	Running bool
	Jobs    []string
	Health  HealthStatus
	Daily   Summary
	Next    time.Time
}

// Status assembles the current engine, health and daily-budget state.
func (e *Engine) Status() Status {
	return Status{
		Running: e.Running(),
		Jobs:    e.jobs.List(),
		Health:  e.health.Status(),
		Daily:   e.limiter.DailySummary(),
		Next:    e.limiter.NextPossibleTime(),
	}
}

// Health exposes the tracker for admin commands (reset) and follow-up
// handling in the adapter.
func (e *Engine) Health() *HealthTracker { return e.health }

// Boost exposes the follow-up boost store to the adapter.
func (e *Engine) Boost() *BoostStore { return e.boost }

// moodLoop polls the signal detector on a short interval and fires an
// attempt when a significant mood swing passes the probability draw.
func (e *Engine) moodLoop(ctx context.Context) error {
	interval := e.cfg.MoodCheck
	if e.cfg.DebugMode {
		interval = debugMoodCheck
	}
	log.Printf("[ENGINE] mood loop interval=%s probability=%.2f", interval, e.cfg.MoodProbability)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if !e.limiter.CanTrigger(TriggerMood) {
				continue
			}
			sig := e.signalOrNil()
			if sig == nil {
				continue
			}
			if e.randFloat() >= e.cfg.MoodProbability {
				log.Printf("[ENGINE] mood signal=%s skipped by probability draw", sig.Label)
				continue
			}
			e.attempt(ctx, TriggerMood, &TriggerContext{
				Label:       sig.Label,
				Intensity:   sig.Intensity,
				ChangeClass: sig.ChangeClass,
			})
		}
	}
}

// randomLoop sleeps a uniform random duration between the configured
// bounds, then fires an attempt. The wait is redrawn every cycle.
func (e *Engine) randomLoop(ctx context.Context) error {
	for {
		wait := e.nextRandomWait()
		log.Printf("[ENGINE] random loop next attempt in %s", wait.Round(time.Second))

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(wait):
			if !e.limiter.CanTrigger(TriggerRandom) {
				continue
			}
			e.attempt(ctx, TriggerRandom, nil)
		}
	}
}

func (e *Engine) nextRandomWait() time.Duration {
	min, max := e.cfg.RandomMinWait, e.cfg.RandomMaxWait
	if e.cfg.DebugMode {
		min, max = debugRandomMinWait, debugRandomMaxWait
	}
	if max <= min {
		return min
	}
	return min + time.Duration(e.randIntn(int(max-min)))
}

func (e *Engine) signalOrNil() *Signal {
	if e.signals == nil {
		return nil
	}
	return e.signals.DetectSignal()
}

// attempt shields the loops from pipeline panics. A panicking stage is
// recorded as a failure so the health tracker can cool the system down.
func (e *Engine) attempt(ctx context.Context, kind TriggerKind, trig *TriggerContext) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[ENGINE] kind=%s attempt panicked: %v", kind, r)
			e.health.RecordError("panic")
		}
	}()
	e.pipeline.Attempt(ctx, kind, trig)
}
