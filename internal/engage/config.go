package engage

import "time"

// Config holds every knob of the engagement engine. Zero/missing values
// are normalized by Normalize, so a partially filled Config is never
// fatal.
type Config struct {
	// Frequency control.
	MaxDailyTriggers int           // global cap across all kinds
	MoodMaxDaily     int           // per-kind cap for mood triggers
	RandomMaxDaily   int           // per-kind cap for random triggers
	MinInterval      time.Duration // minimum spacing between any two triggers

	// Mood trigger loop.
	MoodEnabled     bool
	MoodCheck       time.Duration // wake interval of the mood loop
	MoodProbability float64       // chance an observed signal leads to an attempt

	// Random trigger loop.
	RandomEnabled   bool
	RandomMinWait   time.Duration
	RandomMaxWait   time.Duration

	// Advisory judgment.
	UseJudge                 bool
	AmbiguousAllowRateMood   float64
	AmbiguousAllowRateRandom float64
	FailureAllowRate         float64 // used when the judge call exhausts retries
	PositiveBias             bool
	PositiveBiasFloor        float64 // effective allow-rate floor on hedged replies

	// Retry executor.
	MaxRetryAttempts int
	RetryBaseDelay   time.Duration

	// Health tracking.
	CooldownAfterFailures int // consecutive failures before cooldown
	StopAfterFailures     int // consecutive failures before hard stop
	CooldownDuration      time.Duration
	SafeMode              bool
	FallbackEnabled       bool // false: exhausted retries are treated as faults

	// Stage default bias for an unknown activity-check result.
	// True (default): assume inactive and continue cautiously.
	// False: abort the attempt.
	ActivityUnknownIsInactive bool
	ActivityWindow            time.Duration // how far back to look for recent messages
	ActivityRecency           time.Duration // "most recent message this fresh" => active
	ActiveMessageThreshold    int           // this many recent messages => active

	// Content generation.
	ContentMinLength int // runes
	ContentMaxLength int // runes
	Tone             string
	UseRecentContext bool
	RecentMessages   int
	MaxSnippetChars  int
	AvoidPhrases     []string
	AskFollowUpProb  float64
	ShortMode        bool // ask the generator to stay near TargetLength
	TargetLength     int  // runes

	// Style variety. Each generation draws one style from VarietyStyles,
	// biased by StyleWeights (missing weight counts as 1.0).
	VarietyStyles []string
	StyleWeights  map[string]float64

	// Random-event openers. A random trigger may open with a small
	// invented everyday event around one of OpenerThemes, or the plain
	// bored opener.
	RandomOpenerEnabled bool
	RandomOpenerProb    float64
	OpenerThemes        []string
	AllowBoredOpener    bool
	BoredOpenerProb     float64

	// Targeting. Engine-scoped allowlists; when one is empty the
	// adapter-scoped pool from Directory.ResolveAllowlists applies.
	EnableDirect    bool
	EnableGroup     bool
	DirectAllowlist []string
	GroupAllowlist  []string

	// Follow-up boost side channel.
	BoostWindow  time.Duration
	BoostWilling float64

	// Debug compresses every loop interval to a fast testing cadence.
	DebugMode bool
}

// DefaultConfig mirrors the shipped defaults.
func DefaultConfig() Config {
	return Config{
		MaxDailyTriggers: 5,
		MoodMaxDaily:     2,
		RandomMaxDaily:   3,
		MinInterval:      2 * time.Hour,

		MoodEnabled:     true,
		MoodCheck:       30 * time.Second,
		MoodProbability: 0.15,

		RandomEnabled: true,
		RandomMinWait: 3 * time.Hour,
		RandomMaxWait: 8 * time.Hour,

		UseJudge:                 true,
		AmbiguousAllowRateMood:   0.6,
		AmbiguousAllowRateRandom: 0.5,
		FailureAllowRate:         0.5,
		PositiveBias:             true,
		PositiveBiasFloor:        0.7,

		MaxRetryAttempts: 3,
		RetryBaseDelay:   5 * time.Second,

		CooldownAfterFailures: 5,
		StopAfterFailures:     10,
		CooldownDuration:      30 * time.Minute,
		SafeMode:              true,
		FallbackEnabled:       true,

		ActivityUnknownIsInactive: true,
		ActivityWindow:            10 * time.Minute,
		ActivityRecency:           3 * time.Minute,
		ActiveMessageThreshold:    3,

		ContentMinLength: 10,
		ContentMaxLength: 240,
		Tone:             "warm_natural",
		UseRecentContext: true,
		RecentMessages:   3,
		MaxSnippetChars:  80,
		AskFollowUpProb:  0.6,
		ShortMode:        true,
		TargetLength:     20,

		VarietyStyles: []string{"question", "observation", "context", "emoji", "teaser"},
		StyleWeights: map[string]float64{
			"question":    1.0,
			"observation": 1.0,
			"context":     1.0,
			"emoji":       0.8,
			"teaser":      0.8,
		},

		RandomOpenerEnabled: true,
		RandomOpenerProb:    0.55,
		OpenerThemes:        []string{"anime", "campus", "daily", "work", "games", "travel", "food"},
		AllowBoredOpener:    true,
		BoredOpenerProb:     0.35,

		EnableDirect: true,
		EnableGroup:  false,

		BoostWindow:  5 * time.Minute,
		BoostWilling: 0.85,
	}
}

// Normalize fills invalid values with defaults so a bad config can
// never wedge the engine.
func (c *Config) Normalize() {
	d := DefaultConfig()
	if c.MaxDailyTriggers < 0 {
		c.MaxDailyTriggers = 0
	}
	if c.MoodMaxDaily < 0 {
		c.MoodMaxDaily = 0
	}
	if c.RandomMaxDaily < 0 {
		c.RandomMaxDaily = 0
	}
	if c.MinInterval < 0 {
		c.MinInterval = 0
	}
	if c.MoodCheck <= 0 {
		c.MoodCheck = d.MoodCheck
	}
	if c.MoodProbability <= 0 || c.MoodProbability > 1 {
		c.MoodProbability = d.MoodProbability
	}
	if c.RandomMinWait <= 0 {
		c.RandomMinWait = d.RandomMinWait
	}
	if c.RandomMaxWait < c.RandomMinWait {
		c.RandomMaxWait = c.RandomMinWait
	}
	if c.MaxRetryAttempts < 1 {
		c.MaxRetryAttempts = d.MaxRetryAttempts
	}
	if c.RetryBaseDelay < 0 {
		c.RetryBaseDelay = d.RetryBaseDelay
	}
	if c.CooldownAfterFailures < 1 {
		c.CooldownAfterFailures = d.CooldownAfterFailures
	}
	if c.StopAfterFailures < c.CooldownAfterFailures {
		c.StopAfterFailures = d.StopAfterFailures
	}
	if c.CooldownDuration <= 0 {
		c.CooldownDuration = d.CooldownDuration
	}
	if c.PositiveBiasFloor <= 0 || c.PositiveBiasFloor > 1 {
		c.PositiveBiasFloor = d.PositiveBiasFloor
	}
	if c.ContentMinLength < 1 {
		c.ContentMinLength = d.ContentMinLength
	}
	if c.ContentMaxLength < c.ContentMinLength {
		c.ContentMaxLength = d.ContentMaxLength
	}
	if c.ActivityWindow <= 0 {
		c.ActivityWindow = d.ActivityWindow
	}
	if c.ActivityRecency <= 0 {
		c.ActivityRecency = d.ActivityRecency
	}
	if c.ActiveMessageThreshold < 1 {
		c.ActiveMessageThreshold = d.ActiveMessageThreshold
	}
	if c.RecentMessages < 1 {
		c.RecentMessages = d.RecentMessages
	}
	if c.MaxSnippetChars < 1 {
		c.MaxSnippetChars = d.MaxSnippetChars
	}
	if c.TargetLength < 1 {
		c.TargetLength = d.TargetLength
	}
	if len(c.VarietyStyles) == 0 {
		c.VarietyStyles = d.VarietyStyles
	}
	if c.StyleWeights == nil {
		c.StyleWeights = d.StyleWeights
	}
	if c.RandomOpenerProb < 0 || c.RandomOpenerProb > 1 {
		c.RandomOpenerProb = d.RandomOpenerProb
	}
	if len(c.OpenerThemes) == 0 {
		c.OpenerThemes = d.OpenerThemes
	}
	if c.BoredOpenerProb < 0 || c.BoredOpenerProb > 1 {
		c.BoredOpenerProb = d.BoredOpenerProb
	}
	if c.BoostWindow <= 0 {
		c.BoostWindow = d.BoostWindow
	}
	if c.BoostWilling < 0 || c.BoostWilling > 1 {
		c.BoostWilling = d.BoostWilling
	}
}

// ambiguousAllowRate returns the allow-rate used when the judge's reply
// is neither clearly yes nor clearly no.
func (c *Config) ambiguousAllowRate(kind TriggerKind) float64 {
	if kind == TriggerMood {
		return c.AmbiguousAllowRateMood
	}
	return c.AmbiguousAllowRateRandom
}
