package engage

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

var errTest = errors.New("backend unavailable")

// fakeCollab implements every pipeline collaborator with canned
// behavior the tests poke at.
type fakeCollab struct {
	active     bool
	activeErr  error
	judgeFn    func(prompt string) (string, error)
	judgeErr   error
	genText    string
	genErr     error
	deliverOK  bool
	deliverErr error
	sent       []string
	sentTo     []string
	direct     []string
	group      []string
}

func (f *fakeCollab) CheckActivity(ctx context.Context, t Target) (bool, error) {
	return f.active, f.activeErr
}

func (f *fakeCollab) Judge(ctx context.Context, prompt string) (string, error) {
	if f.judgeErr != nil {
		return "", f.judgeErr
	}
	if f.judgeFn != nil {
		return f.judgeFn(prompt)
	}
	return "yes", nil
}

func (f *fakeCollab) GenerateContent(ctx context.Context, prompt string) (string, error) {
	if f.genErr != nil {
		return "", f.genErr
	}
	return f.genText, nil
}

func (f *fakeCollab) Deliver(ctx context.Context, t Target, text string) (bool, error) {
	if f.deliverErr != nil {
		return false, f.deliverErr
	}
	if f.deliverOK {
		f.sent = append(f.sent, text)
		f.sentTo = append(f.sentTo, t.Key())
	}
	return f.deliverOK, nil
}

func (f *fakeCollab) ResolveAllowlists() (direct []string, group []string) {
	return f.direct, f.group
}

func (f *fakeCollab) Profile(ctx context.Context, t Target) Profile {
	return Profile{Nickname: "Sam", Relationship: "friend", ChatStyle: "casual"}
}

func (f *fakeCollab) RecentSnippets(ctx context.Context, t Target, n int) []string {
	return nil
}

type pipelineHarness struct {
	*fakeCollab
	pipeline *Pipeline
	limiter  *RateLimiter
	health   *HealthTracker
	boost    *BoostStore
	store    *memStore
}

func newTestPipeline(t *testing.T, cfg Config) *pipelineHarness {
	t.Helper()
	cfg.Normalize()
	cfg.RetryBaseDelay = 0
	if len(cfg.DirectAllowlist) == 0 {
		cfg.DirectAllowlist = []string{"42"}
	}

	fake := &fakeCollab{
		genText:   "Hey Sam, how has your week been treating you?",
		deliverOK: true,
	}
	store := &memStore{}
	limiter := NewRateLimiter(cfg, store)
	health := NewHealthTracker(cfg)
	boost := NewBoostStore(cfg)
	p := NewPipeline(cfg, limiter, health, boost, fake, fake, fake, fake, fake)
	p.randFloat = func() float64 { return 0 } // draws always pass
	p.randIntn = func(n int) int { return 0 }

	return &pipelineHarness{
		fakeCollab: fake,
		pipeline:   p,
		limiter:    limiter,
		health:     health,
		boost:      boost,
		store:      store,
	}
}

func TestPipelineHappyPathRecordsAndBoosts(t *testing.T) {
	h := newTestPipeline(t, DefaultConfig())

	h.pipeline.Attempt(context.Background(), TriggerMood, &TriggerContext{Label: "cheerful", Intensity: 0.7, ChangeClass: "significant"})

	require.Len(t, h.sent, 1)
	require.Equal(t, []string{"direct:42"}, h.sentTo)
	require.Equal(t, 1, h.limiter.DailySummary().Total, "delivery recorded against the budget")

	gain, ok := h.boost.Gain("direct:42")
	require.True(t, ok, "boost window armed after a send")
	require.Equal(t, 0.85, gain)
}

func TestPipelineUnhealthySkipsEverything(t *testing.T) {
	h := newTestPipeline(t, DefaultConfig())
	for i := 0; i < 10; i++ {
		h.health.RecordError("delivery")
	}

	h.pipeline.Attempt(context.Background(), TriggerRandom, nil)

	require.Empty(t, h.sent)
	require.Equal(t, 0, h.limiter.DailySummary().Total)
}

func TestPipelineActiveTargetNotInterrupted(t *testing.T) {
	h := newTestPipeline(t, DefaultConfig())
	h.active = true

	h.pipeline.Attempt(context.Background(), TriggerRandom, nil)

	require.Empty(t, h.sent)
}

func TestPipelineActivityUnknownDefaultsToInactive(t *testing.T) {
	h := newTestPipeline(t, DefaultConfig())
	h.activeErr = errTest

	h.pipeline.Attempt(context.Background(), TriggerRandom, nil)

	require.Len(t, h.sent, 1, "unknown activity treated as inactive, attempt continues")
}

func TestPipelineActivityUnknownAbortsInStrictSafeMode(t *testing.T) {
	cfg := DefaultConfig()
	cfg.FallbackEnabled = false
	cfg.SafeMode = true
	h := newTestPipeline(t, cfg)
	h.activeErr = errTest

	h.pipeline.Attempt(context.Background(), TriggerRandom, nil)

	require.Empty(t, h.sent)
}

func TestPipelineJudgeDenyAborts(t *testing.T) {
	h := newTestPipeline(t, DefaultConfig())
	h.judgeFn = func(prompt string) (string, error) { return "no, it is deep night", nil }

	h.pipeline.Attempt(context.Background(), TriggerMood, nil)

	require.Empty(t, h.sent)
	require.Equal(t, 0, h.limiter.DailySummary().Total)
}

func TestPipelineGeneratorFailureFallsBackToTemplate(t *testing.T) {
	h := newTestPipeline(t, DefaultConfig())
	h.genErr = errTest

	h.pipeline.Attempt(context.Background(), TriggerMood, nil)

	require.Len(t, h.sent, 1, "template layer still produced content")
	require.NotEmpty(t, h.sent[0])
}

func TestPipelineDeliveryFailureDoesNotTouchBudget(t *testing.T) {
	h := newTestPipeline(t, DefaultConfig())
	h.deliverErr = errTest

	h.pipeline.Attempt(context.Background(), TriggerMood, nil)

	require.Equal(t, 0, h.limiter.DailySummary().Total, "only confirmed sends count")
	_, ok := h.boost.Gain("direct:42")
	require.False(t, ok, "no boost without a send")
}

func TestPipelineReportedDeliveryFailureNotRetried(t *testing.T) {
	h := newTestPipeline(t, DefaultConfig())
	h.deliverOK = false // (false, nil): transport reported failure

	h.pipeline.Attempt(context.Background(), TriggerMood, nil)

	require.Equal(t, 0, h.limiter.DailySummary().Total)
	require.Empty(t, h.health.Status().ErrorCounts["delivery"], "a reported failure is not an error")
}

func TestPipelineNoTargetsIsQuietNoop(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DirectAllowlist = []string{} // force empty
	cfg.EnableGroup = false
	h := newTestPipeline(t, cfg)
	h.fakeCollab.direct = nil

	// Harness injects a default allowlist only when none set; bypass it.
	h.pipeline.cfg.DirectAllowlist = nil

	h.pipeline.Attempt(context.Background(), TriggerRandom, nil)
	require.Empty(t, h.sent)
}

func TestPipelineBudgetExhaustionEndToEnd(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxDailyTriggers = 1
	cfg.MinInterval = 0
	h := newTestPipeline(t, cfg)

	h.pipeline.Attempt(context.Background(), TriggerMood, nil)
	require.Len(t, h.sent, 1)

	require.False(t, h.limiter.CanTrigger(TriggerRandom), "global cap reached")
}
