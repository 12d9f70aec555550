package engage

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func noonAt() time.Time {
	return time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
}

func TestValidateContentLengthBounds(t *testing.T) {
	require.NotEmpty(t, validateContent("hi", 10, 240), "too short")
	require.NotEmpty(t, validateContent(strings.Repeat("a", 300), 10, 240), "too long")
	require.Empty(t, validateContent("Hey, how has your day been?", 10, 240))
}

func TestValidateContentCountsRunesNotBytes(t *testing.T) {
	// 12 CJK runes, 36 bytes: must pass a 10..240 rune bound.
	require.Empty(t, validateContent("你好你好你好你好你好你好", 10, 240))
}

func TestValidateContentRejectsRefusals(t *testing.T) {
	require.NotEmpty(t, validateContent("Sorry, I cannot start conversations.", 10, 240))
	require.NotEmpty(t, validateContent("As an AI, I must decline this one.", 10, 240))
}

func TestGeneratedContentStripsAvoidPhrases(t *testing.T) {
	cfg := DefaultConfig()
	cfg.AvoidPhrases = []string{"[bot]"}
	h := newTestPipeline(t, cfg)
	h.genText = "[bot] Hey Sam, thinking of you, how are things?"

	text, ok := h.pipeline.generatedContent(context.Background(), Profile{Nickname: "Sam"}, nil, TriggerMood, nil)

	require.True(t, ok)
	require.NotContains(t, text, "[bot]")
}

func TestGeneratedContentFlattensNewlines(t *testing.T) {
	h := newTestPipeline(t, DefaultConfig())
	h.genText = "Hey Sam,\nhow have you been lately?"

	text, ok := h.pipeline.generatedContent(context.Background(), Profile{Nickname: "Sam"}, nil, TriggerMood, nil)

	require.True(t, ok)
	require.NotContains(t, text, "\n")
}

func TestComposeContentFallsThroughToTemplates(t *testing.T) {
	h := newTestPipeline(t, DefaultConfig())
	h.genText = "ok" // too short, generator layer rejected

	text := h.pipeline.composeContent(context.Background(), Profile{Nickname: "Sam", Relationship: "friend"}, nil, TriggerMood, nil)

	require.NotEmpty(t, text)
	require.Contains(t, text, "Sam", "template is personalized")
}

func TestTemplateContentGroupPool(t *testing.T) {
	h := newTestPipeline(t, DefaultConfig())
	h.pipeline.now = func() time.Time { return noonAt() }

	text, ok := h.pipeline.templateContent(Profile{Relationship: "group_member"}, TriggerRandom)
	require.True(t, ok)
	require.NotEmpty(t, text)
}

func TestBuildContentPromptIncludesContext(t *testing.T) {
	cfg := DefaultConfig()
	prof := Profile{Nickname: "Sam", Relationship: "friend", ChatStyle: "casual"}
	snips := []string{"Sam: just got back from the gym"}
	trig := &TriggerContext{Label: "cheerful", Intensity: 0.6}

	prompt := buildContentPrompt(cfg, prof, snips, TriggerMood, noonAt(), trig, "question", "")

	require.Contains(t, prompt, "Sam")
	require.Contains(t, prompt, "gym")
	require.Contains(t, prompt, "cheerful")
	require.Contains(t, prompt, "midday")
}

func TestPickStyleHonorsWeights(t *testing.T) {
	cfg := DefaultConfig()
	cfg.VarietyStyles = []string{"question", "teaser"}
	cfg.StyleWeights = map[string]float64{"question": 1.0, "teaser": 3.0}
	h := newTestPipeline(t, cfg)

	h.pipeline.randFloat = func() float64 { return 0.1 } // draw 0.4, inside question's share
	require.Equal(t, "question", h.pipeline.pickStyle())

	h.pipeline.randFloat = func() float64 { return 0.5 } // draw 2.0, inside teaser's share
	require.Equal(t, "teaser", h.pipeline.pickStyle())
}

func TestPickStyleMissingWeightCountsAsOne(t *testing.T) {
	cfg := DefaultConfig()
	cfg.VarietyStyles = []string{"question", "observation"}
	cfg.StyleWeights = map[string]float64{}
	h := newTestPipeline(t, cfg)

	h.pipeline.randFloat = func() float64 { return 0.9 } // draw 1.8 out of 2.0
	require.Equal(t, "observation", h.pipeline.pickStyle())
}

func TestPickOpenerOnlyForRandomTriggers(t *testing.T) {
	h := newTestPipeline(t, DefaultConfig()) // randFloat 0 lands every draw

	require.Empty(t, h.pipeline.pickOpener(TriggerMood))
	require.Equal(t, boredOpener, h.pipeline.pickOpener(TriggerRandom))
}

func TestPickOpenerThemedWhenBoredDeclined(t *testing.T) {
	cfg := DefaultConfig()
	cfg.OpenerThemes = []string{"campus", "food"}
	h := newTestPipeline(t, cfg)
	draws := []float64{0.1, 0.9} // opener fires, bored does not
	h.pipeline.randFloat = func() float64 { v := draws[0]; draws = draws[1:]; return v }
	h.pipeline.randIntn = func(n int) int { return 1 }

	require.Equal(t, "food", h.pipeline.pickOpener(TriggerRandom))
}

func TestPickOpenerSkippedAboveProbability(t *testing.T) {
	h := newTestPipeline(t, DefaultConfig())
	h.pipeline.randFloat = func() float64 { return 0.9 }

	require.Empty(t, h.pipeline.pickOpener(TriggerRandom))
}

func TestBuildContentPromptCarriesStyleAndOpener(t *testing.T) {
	cfg := DefaultConfig()
	prof := Profile{Nickname: "Sam", Relationship: "friend", ChatStyle: "casual"}

	prompt := buildContentPrompt(cfg, prof, nil, TriggerRandom, noonAt(), nil, "observation", "campus")

	require.Contains(t, prompt, "Style for this message: observation")
	require.Contains(t, prompt, styleHints["observation"])
	require.Contains(t, prompt, `theme "campus"`)
	require.Contains(t, prompt, "about 20 characters")
}

func TestBuildContentPromptBoredOpener(t *testing.T) {
	prompt := buildContentPrompt(DefaultConfig(), Profile{Nickname: "Sam"}, nil, TriggerRandom, noonAt(), nil, "question", boredOpener)

	require.Contains(t, prompt, "bored")
	require.NotContains(t, prompt, "everyday event")
}

func TestTimePeriod(t *testing.T) {
	require.Equal(t, "morning", timePeriod(8))
	require.Equal(t, "midday", timePeriod(12))
	require.Equal(t, "afternoon", timePeriod(15))
	require.Equal(t, "evening", timePeriod(20))
	require.Equal(t, "late night", timePeriod(2))
}
