package engage

import (
	"fmt"
	"strings"
	"time"
)

// Verdict is the interpretation of the judge's free-text reply.
type Verdict int

const (
	VerdictAmbiguous Verdict = iota
	VerdictAllow
	VerdictDeny
)

var hedgeTokens = []string{"maybe", "perhaps", "possibly", "might", "could", "i guess", "why not", "ok"}

// interpretVerdict scans the reply for affirmative and negative tokens,
// affirmative first. Anything else is ambiguous and resolved by an
// allow-rate draw.
func interpretVerdict(reply string) Verdict {
	r := strings.ToLower(strings.TrimSpace(reply))
	switch {
	case strings.Contains(r, "yes"):
		return VerdictAllow
	case strings.Contains(r, "no"):
		return VerdictDeny
	default:
		return VerdictAmbiguous
	}
}

// isHedged reports whether an ambiguous reply leans positive ("maybe",
// "could be fun"), which raises the allow-rate to the positive-bias
// floor.
func isHedged(reply string) bool {
	r := strings.ToLower(reply)
	for _, tok := range hedgeTokens {
		if strings.Contains(r, tok) {
			return true
		}
	}
	return false
}

// hourSuitability classifies the local hour for the judge prompt.
// Sleeping hours are unsuitable outright; meal times warrant caution.
func hourSuitability(hour int) (suitable bool, note string) {
	switch {
	case hour < 7:
		return false, "too early, the user is likely asleep"
	case hour > 23:
		return false, "too late, the user is likely asleep"
	case hour >= 12 && hour <= 13:
		return true, "lunch time, be careful"
	case hour >= 18 && hour <= 19:
		return true, "dinner time, be careful"
	default:
		return true, "a reasonable time"
	}
}

// buildJudgePrompt assembles the advisory-judgment request: trigger
// kind, target, time-of-day suitability, and the mood context when
// present. The judge answers yes or no.
func buildJudgePrompt(kind TriggerKind, t Target, now time.Time, trig *TriggerContext) string {
	suitable, note := hourSuitability(now.Hour())

	var b strings.Builder
	b.WriteString("You are the judgment system of a chat bot deciding whether it should start a conversation right now.\n\n")
	b.WriteString("Facts:\n")
	fmt.Fprintf(&b, "- Trigger: %s\n", kind)
	fmt.Fprintf(&b, "- Target: %s conversation\n", t.Kind)
	fmt.Fprintf(&b, "- Local time: %s (%s)\n", now.Format("2006-01-02 15:04"), note)
	fmt.Fprintf(&b, "- Time suitable: %v\n", suitable)
	if trig != nil {
		fmt.Fprintf(&b, "- Detected mood: %s (intensity %.2f, %s)\n", trig.Label, trig.Intensity, trig.ChangeClass)
	}
	b.WriteString(`
Principles:
1. Never disturb people during sleeping hours (23:00-7:00).
2. Keep proactive messages rare; random triggers deserve extra caution.
3. A mood trigger may be slightly more permissive, depending on the mood.
4. The message should feel natural, not intrusive.

Answer with a single word: yes or no.
`)
	return b.String()
}
