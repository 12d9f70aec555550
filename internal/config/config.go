// /internal/config/config.go
package config

import (
	"log"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"icebreaker/internal/engage"
)

func init() {
	err := godotenv.Load()
	if err != nil {
		log.Println("No .env file found, falling back to system environment variables")
	}
}

// Config is the full application configuration, populated from the
// environment. Engagement knobs mirror engage.Config; invalid values
// are normalized downstream rather than rejected here.
type Config struct {
	DiscordToken string `env:"DISCORD_TOKEN"`
	StoragePath  string `env:"STORAGE_PATH" envDefault:"datastore.json"`
	AIProvider   string `env:"AI_PROVIDER" envDefault:"pollinations"`

	// Adapter-level allowlists. The engagement engine's own lists
	// (ENGAGE_*) take precedence when set.
	DirectAllowlist []string `env:"DISCORD_DIRECT_ALLOWLIST" envSeparator:","`
	GroupAllowlist  []string `env:"DISCORD_GROUP_ALLOWLIST" envSeparator:","`

	// Outbound message throttle, messages per second.
	SendRate float64 `env:"DISCORD_SEND_RATE" envDefault:"1"`

	MaxDailyTriggers int           `env:"ENGAGE_MAX_DAILY" envDefault:"5"`
	MoodMaxDaily     int           `env:"ENGAGE_MOOD_MAX_DAILY" envDefault:"2"`
	RandomMaxDaily   int           `env:"ENGAGE_RANDOM_MAX_DAILY" envDefault:"3"`
	MinInterval      time.Duration `env:"ENGAGE_MIN_INTERVAL" envDefault:"2h"`

	MoodEnabled     bool          `env:"ENGAGE_MOOD_ENABLED" envDefault:"true"`
	MoodCheck       time.Duration `env:"ENGAGE_MOOD_CHECK" envDefault:"30s"`
	MoodProbability float64       `env:"ENGAGE_MOOD_PROBABILITY" envDefault:"0.15"`

	RandomEnabled bool          `env:"ENGAGE_RANDOM_ENABLED" envDefault:"true"`
	RandomMinWait time.Duration `env:"ENGAGE_RANDOM_MIN_WAIT" envDefault:"3h"`
	RandomMaxWait time.Duration `env:"ENGAGE_RANDOM_MAX_WAIT" envDefault:"8h"`

	UseJudge bool `env:"ENGAGE_USE_JUDGE" envDefault:"true"`

	MaxRetryAttempts int           `env:"ENGAGE_RETRY_ATTEMPTS" envDefault:"3"`
	RetryBaseDelay   time.Duration `env:"ENGAGE_RETRY_BASE_DELAY" envDefault:"5s"`

	SafeMode        bool `env:"ENGAGE_SAFE_MODE" envDefault:"true"`
	FallbackEnabled bool `env:"ENGAGE_FALLBACK_ENABLED" envDefault:"true"`

	EnableDirect        bool     `env:"ENGAGE_ENABLE_DIRECT" envDefault:"true"`
	EnableGroup         bool     `env:"ENGAGE_ENABLE_GROUP" envDefault:"false"`
	EngageDirectTargets []string `env:"ENGAGE_DIRECT_ALLOWLIST" envSeparator:","`
	EngageGroupTargets  []string `env:"ENGAGE_GROUP_ALLOWLIST" envSeparator:","`

	Tone             string   `env:"ENGAGE_TONE" envDefault:"warm, casual"`
	UseRecentContext bool     `env:"ENGAGE_USE_RECENT_CONTEXT" envDefault:"true"`
	AvoidPhrases     []string `env:"ENGAGE_AVOID_PHRASES" envSeparator:","`

	VarietyStyles       []string `env:"ENGAGE_VARIETY_STYLES" envSeparator:","`
	RandomOpenerEnabled bool     `env:"ENGAGE_RANDOM_OPENER" envDefault:"true"`
	RandomOpenerProb    float64  `env:"ENGAGE_RANDOM_OPENER_PROBABILITY" envDefault:"0.55"`
	OpenerThemes        []string `env:"ENGAGE_OPENER_THEMES" envSeparator:","`

	DebugMode bool `env:"ENGAGE_DEBUG" envDefault:"false"`
}

func New() *Config {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		log.Printf("[CONFIG] parse error, using defaults where possible: %v", err)
	}

	if cfg.DiscordToken == "" {
		log.Fatal("DISCORD_TOKEN is not set")
	}

	return cfg
}

// Engage maps the environment-sourced knobs onto the engagement
// engine's config, starting from its defaults so knobs without an
// env var keep their documented values.
func (c *Config) Engage() engage.Config {
	ec := engage.DefaultConfig()

	ec.MaxDailyTriggers = c.MaxDailyTriggers
	ec.MoodMaxDaily = c.MoodMaxDaily
	ec.RandomMaxDaily = c.RandomMaxDaily
	ec.MinInterval = c.MinInterval

	ec.MoodEnabled = c.MoodEnabled
	ec.MoodCheck = c.MoodCheck
	ec.MoodProbability = c.MoodProbability

	ec.RandomEnabled = c.RandomEnabled
	ec.RandomMinWait = c.RandomMinWait
	ec.RandomMaxWait = c.RandomMaxWait

	ec.UseJudge = c.UseJudge

	ec.MaxRetryAttempts = c.MaxRetryAttempts
	ec.RetryBaseDelay = c.RetryBaseDelay

	ec.SafeMode = c.SafeMode
	ec.FallbackEnabled = c.FallbackEnabled

	ec.EnableDirect = c.EnableDirect
	ec.EnableGroup = c.EnableGroup
	ec.DirectAllowlist = c.EngageDirectTargets
	ec.GroupAllowlist = c.EngageGroupTargets

	ec.Tone = c.Tone
	ec.UseRecentContext = c.UseRecentContext
	ec.AvoidPhrases = c.AvoidPhrases

	if len(c.VarietyStyles) > 0 {
		ec.VarietyStyles = c.VarietyStyles
	}
	ec.RandomOpenerEnabled = c.RandomOpenerEnabled
	ec.RandomOpenerProb = c.RandomOpenerProb
	if len(c.OpenerThemes) > 0 {
		ec.OpenerThemes = c.OpenerThemes
	}

	ec.DebugMode = c.DebugMode

	ec.Normalize()
	return ec
}
