package engage

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestInterpretVerdict(t *testing.T) {
	tests := []struct {
		reply string
		want  Verdict
	}{
		{"yes", VerdictAllow},
		{"Yes, go ahead.", VerdictAllow},
		{"no", VerdictDeny},
		{"No, it is too late.", VerdictDeny},
		{"yes but also no", VerdictAllow}, // affirmative wins
		{"hmm, hard to say", VerdictAmbiguous},
		{"", VerdictAmbiguous},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, interpretVerdict(tt.reply), "reply=%q", tt.reply)
	}
}

func TestIsHedged(t *testing.T) {
	require.True(t, isHedged("maybe, could be fun"))
	require.True(t, isHedged("I guess?"))
	require.False(t, isHedged("absolutely under every circumstance"))
}

func TestHourSuitability(t *testing.T) {
	ok, _ := hourSuitability(3)
	require.False(t, ok, "sleeping hours")
	ok, note := hourSuitability(12)
	require.True(t, ok)
	require.Contains(t, note, "lunch")
	ok, _ = hourSuitability(15)
	require.True(t, ok)
}

func TestJudgePromptCarriesMoodContext(t *testing.T) {
	now := time.Date(2026, 8, 30, 15, 0, 0, 0, time.UTC)
	trig := &TriggerContext{Label: "down", Intensity: 0.8, ChangeClass: "significant"}

	prompt := buildJudgePrompt(TriggerMood, Target{Kind: TargetDirect, Address: "42"}, now, trig)

	require.Contains(t, prompt, "Trigger: mood")
	require.Contains(t, prompt, "down")
	require.True(t, strings.Contains(prompt, "yes or no"))

	random := buildJudgePrompt(TriggerRandom, Target{Kind: TargetGroup, Address: "1"}, now, nil)
	require.NotContains(t, random, "Detected mood")
}

func TestJudgmentHedgedAmbiguousGetsPositiveBiasFloor(t *testing.T) {
	cfg := DefaultConfig()
	cfg.AmbiguousAllowRateRandom = 0.5
	p := newTestPipeline(t, cfg)
	p.judgeFn = func(prompt string) (string, error) { return "maybe, could be fun", nil }

	// A draw of 0.65 sits above the base rate 0.5 but below the biased
	// floor 0.7, so the hedge decides the outcome.
	p.pipeline.randFloat = func() float64 { return 0.65 }
	require.True(t, p.pipeline.judgmentAllows(context.Background(), TriggerRandom, Target{Kind: TargetDirect, Address: "42"}, nil))

	p.pipeline.randFloat = func() float64 { return 0.75 }
	require.False(t, p.pipeline.judgmentAllows(context.Background(), TriggerRandom, Target{Kind: TargetDirect, Address: "42"}, nil))
}

func TestJudgmentExhaustionFallsBackToFailureRate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RetryBaseDelay = 0
	cfg.FailureAllowRate = 0.5
	p := newTestPipeline(t, cfg)
	p.judgeErr = errTest

	p.pipeline.randFloat = func() float64 { return 0.4 }
	require.True(t, p.pipeline.judgmentAllows(context.Background(), TriggerMood, Target{Kind: TargetDirect, Address: "42"}, nil))

	p.pipeline.randFloat = func() float64 { return 0.6 }
	require.False(t, p.pipeline.judgmentAllows(context.Background(), TriggerMood, Target{Kind: TargetDirect, Address: "42"}, nil))
}
