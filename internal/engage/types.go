package engage

import (
	"context"
	"time"
)

// TriggerKind identifies which trigger path produced an attempt.
type TriggerKind string

const (
	TriggerMood   TriggerKind = "mood"
	TriggerRandom TriggerKind = "random"
)

// TargetKind distinguishes direct conversations from group channels.
type TargetKind string

const (
	TargetDirect TargetKind = "direct"
	TargetGroup  TargetKind = "group"
)

// Target is one place the bot may reach out to. Lives for a single
// pipeline attempt, never retained.
type Target struct {
	Kind    TargetKind
	Address string
}

// Key returns the canonical "kind:address" form used for boost tagging
// and logging.
func (t Target) Key() string {
	return string(t.Kind) + ":" + t.Address
}

// TriggerContext carries the mood signal that caused a mood-triggered
// attempt. Nil for random-triggered attempts.
type TriggerContext struct {
	Label       string  // e.g. "cheerful", "down"
	Intensity   float64 // 0..1
	ChangeClass string  // e.g. "significant"
}

// Signal is what a SignalDetector reports when it observes a notable
// state change.
type Signal struct {
	Label       string
	Intensity   float64
	ChangeClass string
}

// Profile is the directory's view of a target, used to condition
// generated content.
type Profile struct {
	Nickname     string
	Relationship string // "friend", "group_member", "unknown"
	ChatStyle    string // "casual", "group"
	RecentTopics []string
}

// SignalDetector is polled by the mood trigger loop. Returns nil when
// nothing notable happened since the last poll.
type SignalDetector interface {
	DetectSignal() *Signal
}

// ActivityChecker reports whether a target is currently active
// (recently chatting), so the bot does not barge in.
type ActivityChecker interface {
	CheckActivity(ctx context.Context, t Target) (bool, error)
}

// Judge is the advisory oracle: free-text reply to a judgment prompt.
type Judge interface {
	Judge(ctx context.Context, prompt string) (string, error)
}

// ContentGenerator produces the outgoing message text from a prompt.
type ContentGenerator interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
}

// Transport delivers text to a target. A (false, nil) return means the
// transport reported failure without erroring; it is not retried.
type Transport interface {
	Deliver(ctx context.Context, t Target, text string) (bool, error)
}

// Directory resolves adapter-scoped allowlists and per-target context.
type Directory interface {
	// ResolveAllowlists returns the adapter-scoped direct and group
	// pools, used when the engine's own allowlists are empty.
	ResolveAllowlists() (direct []string, group []string)
	Profile(ctx context.Context, t Target) Profile
	RecentSnippets(ctx context.Context, t Target, n int) []string
}

// DayRecord is the durable daily counter record. Exactly one is active
// per process; it is replaced with a zeroed record the moment the
// wall-clock date differs from Date. Owned and mutated only by
// RateLimiter.
type DayRecord struct {
	Date        string                    `json:"date"`
	Counts      map[TriggerKind]int       `json:"counts_by_kind"`
	Total       int                       `json:"total_count"`
	LastTrigger time.Time                 `json:"last_trigger_time,omitzero"`
	LastByKind  map[TriggerKind]time.Time `json:"last_trigger_time_per_kind,omitempty"`
}

// DayStore persists the active DayRecord. Load errors are treated as
// "start a fresh day", never as fatal.
type DayStore interface {
	LoadDay() (*DayRecord, error)
	SaveDay(rec *DayRecord) error
}
