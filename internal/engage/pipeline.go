package engage

import (
	"context"
	"log"
	"math/rand"
	"time"
)

// Pipeline runs one engagement attempt end to end: health gate, target
// selection, activity check, advisory judgment, content generation,
// delivery, outcome recording. Stages are strictly sequential and
// short-circuit; no error escapes Attempt.
type Pipeline struct {
	cfg       Config
	limiter   *RateLimiter
	health    *HealthTracker
	activity  ActivityChecker
	judge     Judge
	generator ContentGenerator
	transport Transport
	directory Directory
	boost     *BoostStore

	// Injected for deterministic tests.
	now       func() time.Time
	randFloat func() float64
	randIntn  func(int) int
}

// NewPipeline wires the collaborators. limiter and health must be the
// engine's shared singletons.
func NewPipeline(cfg Config, limiter *RateLimiter, health *HealthTracker, boost *BoostStore,
	activity ActivityChecker, judge Judge, generator ContentGenerator, transport Transport, directory Directory) *Pipeline {
	return &Pipeline{
		cfg:       cfg,
		limiter:   limiter,
		health:    health,
		boost:     boost,
		activity:  activity,
		judge:     judge,
		generator: generator,
		transport: transport,
		directory: directory,
		now:       time.Now,
		randFloat: rand.Float64,
		randIntn:  rand.Intn,
	}
}

// Attempt runs one proactive engagement attempt. trig is non-nil only
// for mood-triggered attempts. The only externally observable effect
// of any internal failure is that no message was sent this cycle.
func (p *Pipeline) Attempt(ctx context.Context, kind TriggerKind, trig *TriggerContext) {
	// 1. Health gate. A rejection is expected behavior, not an error.
	if !p.health.Healthy() {
		log.Printf("[ENGAGE] kind=%s skipped: system unhealthy", kind)
		return
	}

	// 2. Target selection.
	targets := p.eligibleTargets()
	if len(targets) == 0 {
		return
	}
	target := targets[p.randIntn(len(targets))]
	log.Printf("[ENGAGE] kind=%s target=%s", kind, target.Key())

	// 3. Activity check: back off when the conversation is already
	// alive.
	active, known := Retry(ctx, p.health, "activity-check", p.cfg.MaxRetryAttempts, p.cfg.RetryBaseDelay,
		func(ctx context.Context) (bool, error) { return p.activity.CheckActivity(ctx, target) })
	if !known {
		if !p.cfg.FallbackEnabled && p.cfg.SafeMode {
			log.Printf("[ENGAGE] kind=%s aborted: activity check failed in safe mode", kind)
			return
		}
		if !p.cfg.ActivityUnknownIsInactive {
			log.Printf("[ENGAGE] kind=%s aborted: activity unknown", kind)
			return
		}
		log.Printf("[ENGAGE] kind=%s activity unknown, assuming inactive", kind)
		active = false
	}
	if active {
		log.Printf("[ENGAGE] kind=%s target=%s currently active, not interrupting", kind, target.Key())
		return
	}

	// 4. Advisory judgment.
	if p.cfg.UseJudge && !p.judgmentAllows(ctx, kind, target, trig) {
		log.Printf("[ENGAGE] kind=%s judged: do not speak", kind)
		return
	}

	// 5. Content generation with fallback chain.
	prof := p.profileFor(ctx, target)
	var snippets []string
	if p.cfg.UseRecentContext && p.directory != nil {
		snippets = p.directory.RecentSnippets(ctx, target, p.cfg.RecentMessages)
	}
	content := p.composeContent(ctx, prof, snippets, kind, trig)
	if content == "" {
		log.Printf("[ENGAGE] kind=%s aborted: no content from any strategy", kind)
		return
	}

	// 6. Delivery. Only a confirmed send touches the daily budget.
	sent, known := Retry(ctx, p.health, "delivery", p.cfg.MaxRetryAttempts, p.cfg.RetryBaseDelay,
		func(ctx context.Context) (bool, error) { return p.transport.Deliver(ctx, target, content) })
	if !known || !sent {
		log.Printf("[ENGAGE] kind=%s delivery failed target=%s", kind, target.Key())
		return
	}

	p.limiter.RecordTrigger(kind)
	if p.boost != nil {
		p.boost.NotifyEngaged(target.Key())
	}
	log.Printf("[ENGAGE] kind=%s sent target=%s len=%d", kind, target.Key(), len(content))
}

// judgmentAllows consults the advisory oracle and interprets its
// free-text reply. An exhausted judge falls back to the configured
// failure allow-rate instead of aborting outright.
func (p *Pipeline) judgmentAllows(ctx context.Context, kind TriggerKind, target Target, trig *TriggerContext) bool {
	prompt := buildJudgePrompt(kind, target, p.now(), trig)
	reply, known := Retry(ctx, p.health, "judgment", p.cfg.MaxRetryAttempts, p.cfg.RetryBaseDelay,
		func(ctx context.Context) (string, error) { return p.judge.Judge(ctx, prompt) })
	if !known {
		if !p.cfg.FallbackEnabled && p.cfg.SafeMode {
			return false
		}
		allowed := p.randFloat() < p.cfg.FailureAllowRate
		log.Printf("[ENGAGE] judge unavailable, fallback draw rate=%.0f%% -> %v", p.cfg.FailureAllowRate*100, allowed)
		return allowed
	}

	switch interpretVerdict(reply) {
	case VerdictAllow:
		return true
	case VerdictDeny:
		return false
	default:
		rate := p.cfg.ambiguousAllowRate(kind)
		if p.cfg.PositiveBias && isHedged(reply) && rate < p.cfg.PositiveBiasFloor {
			rate = p.cfg.PositiveBiasFloor
		}
		allowed := p.randFloat() < rate
		log.Printf("[ENGAGE] judge ambiguous (%q), draw rate=%.0f%% -> %v", truncate(reply, 40), rate*100, allowed)
		return allowed
	}
}

// profileFor asks the directory, defaulting when none is wired.
func (p *Pipeline) profileFor(ctx context.Context, target Target) Profile {
	if p.directory == nil {
		return Profile{Nickname: "friend", Relationship: "unknown", ChatStyle: "casual"}
	}
	return p.directory.Profile(ctx, target)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
