package engage

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"
	"unicode/utf8"
)

// refusalWords reject generated output that apologizes or declines
// instead of saying something.
var refusalWords = []string{"sorry", "apolog", "i cannot", "i can't", "unable to", "as an ai"}

// fallbackPhrases is the last resort when both the generator and the
// template layer produced nothing.
var fallbackPhrases = []string{
	"Hey! How have you been?",
	"You crossed my mind, what are you up to?",
	"Got a minute to chat?",
	"Felt like talking to you all of a sudden~",
}

// styleHints spells out what each variety style asks of the generator.
var styleHints = map[string]string{
	"question":    "ask one small, concrete question",
	"observation": "open with an observation about the time or situation, then follow up",
	"context":     "pick up a small piece of the recent conversation",
	"emoji":       "include one fitting emoji, never a pile of them",
	"teaser":      "open with a light, playful hook",
}

// boredOpener is the plain "felt like talking" opener a random trigger
// may use instead of a themed everyday event.
const boredOpener = "bored"

// contentStrategy yields engagement text, or reports itself
// unavailable. Strategies are tried in a fixed order; the first one
// that yields wins.
type contentStrategy func() (string, bool)

// composeContent runs the ordered fallback chain: LLM generation,
// relationship/time-of-day templates, fixed phrases. An empty return
// means every layer failed and the attempt must be aborted.
func (p *Pipeline) composeContent(ctx context.Context, prof Profile, snippets []string, kind TriggerKind, trig *TriggerContext) string {
	strategies := []contentStrategy{
		func() (string, bool) { return p.generatedContent(ctx, prof, snippets, kind, trig) },
		func() (string, bool) { return p.templateContent(prof, kind) },
		func() (string, bool) { return fallbackPhrases[p.randIntn(len(fallbackPhrases))], true },
	}
	for _, s := range strategies {
		if text, ok := s(); ok {
			return text
		}
	}
	return ""
}

// pickStyle draws one variety style, biased by the configured weights.
// A missing weight counts as 1.0.
func (p *Pipeline) pickStyle() string {
	styles := p.cfg.VarietyStyles
	if len(styles) == 0 {
		return ""
	}
	total := 0.0
	for _, s := range styles {
		total += p.styleWeight(s)
	}
	if total <= 0 {
		return styles[p.randIntn(len(styles))]
	}
	draw := p.randFloat() * total
	for _, s := range styles {
		draw -= p.styleWeight(s)
		if draw < 0 {
			return s
		}
	}
	return styles[len(styles)-1]
}

func (p *Pipeline) styleWeight(style string) float64 {
	if w, ok := p.cfg.StyleWeights[style]; ok && w > 0 {
		return w
	}
	return 1.0
}

// pickOpener decides whether a random trigger opens with a small
// invented everyday event, and which one. Empty means no opener; mood
// triggers never get one, their opener is the detected mood itself.
func (p *Pipeline) pickOpener(kind TriggerKind) string {
	if kind != TriggerRandom || !p.cfg.RandomOpenerEnabled {
		return ""
	}
	if p.randFloat() >= p.cfg.RandomOpenerProb {
		return ""
	}
	if p.cfg.AllowBoredOpener && p.randFloat() < p.cfg.BoredOpenerProb {
		return boredOpener
	}
	themes := p.cfg.OpenerThemes
	if len(themes) == 0 {
		return "daily"
	}
	return themes[p.randIntn(len(themes))]
}

// generatedContent asks the content generator and validates the result.
func (p *Pipeline) generatedContent(ctx context.Context, prof Profile, snippets []string, kind TriggerKind, trig *TriggerContext) (string, bool) {
	prompt := buildContentPrompt(p.cfg, prof, snippets, kind, p.now(), trig, p.pickStyle(), p.pickOpener(kind))
	reply, ok := Retry(ctx, p.health, "content-generation", p.cfg.MaxRetryAttempts, p.cfg.RetryBaseDelay,
		func(ctx context.Context) (string, error) { return p.generator.GenerateContent(ctx, prompt) })
	if !ok {
		return "", false
	}

	text := strings.TrimSpace(strings.ReplaceAll(reply, "\n", " "))
	for _, phrase := range p.cfg.AvoidPhrases {
		if phrase != "" {
			text = strings.ReplaceAll(text, phrase, "")
		}
	}
	text = strings.TrimSpace(text)

	if reason := validateContent(text, p.cfg.ContentMinLength, p.cfg.ContentMaxLength); reason != "" {
		log.Printf("[ENGAGE] generated content rejected: %s", reason)
		return "", false
	}
	return text, true
}

// validateContent returns a non-empty rejection reason for output that
// breaks the length bounds or contains refusal vocabulary.
func validateContent(text string, minLen, maxLen int) string {
	n := utf8.RuneCountInString(text)
	if n < minLen || n > maxLen {
		return fmt.Sprintf("length %d outside %d-%d", n, minLen, maxLen)
	}
	lower := strings.ToLower(text)
	for _, w := range refusalWords {
		if strings.Contains(lower, w) {
			return "contains refusal vocabulary"
		}
	}
	return ""
}

// templateContent picks a canned opener keyed by relationship category
// and time of day.
func (p *Pipeline) templateContent(prof Profile, kind TriggerKind) (string, bool) {
	hour := p.now().Hour()
	nick := prof.Nickname
	if nick == "" {
		nick = "friend"
	}

	var pool []string
	switch prof.Relationship {
	case "friend", "close_friend":
		if kind == TriggerMood {
			pool = []string{
				fmt.Sprintf("%s, you just popped into my head~", nick),
				fmt.Sprintf("Hey %s, how's it going lately?", nick),
				fmt.Sprintf("%s, what are you busy with?", nick),
			}
		} else {
			pool = []string{
				fmt.Sprintf("%s, free for a chat?", nick),
				fmt.Sprintf("Thought of you, %s. Doing alright?", nick),
				fmt.Sprintf("%s, how was your day?", nick),
			}
		}
	case "group_member":
		pool = []string{
			"Hey everyone, let's talk~",
			"It's quiet in here, anyone around?",
			"Suddenly felt like chatting with you all",
		}
	default:
		pool = []string{
			fmt.Sprintf("Hello %s, I was hoping we could talk", nick),
			fmt.Sprintf("%s, how have you been?", nick),
			fmt.Sprintf("Felt like catching up with %s", nick),
		}
	}

	// Softer tone in sleeping hours.
	if hour >= 23 || hour < 7 {
		if prof.Relationship == "friend" || prof.Relationship == "close_friend" {
			pool = []string{
				fmt.Sprintf("%s, still awake?", nick),
				fmt.Sprintf("%s, fellow night owl~", nick),
			}
		} else {
			pool = []string{fmt.Sprintf("%s, sorry to reach out this late", nick)}
		}
	}

	return pool[p.randIntn(len(pool))], true
}

// timePeriod names the part of the day for the content prompt.
func timePeriod(hour int) string {
	switch {
	case hour >= 5 && hour < 11:
		return "morning"
	case hour >= 11 && hour < 13:
		return "midday"
	case hour >= 13 && hour < 18:
		return "afternoon"
	case hour >= 18 && hour < 22:
		return "evening"
	default:
		return "late night"
	}
}

// buildContentPrompt conditions the generator on the target profile,
// recent conversation snippets, the trigger context, the configured
// tone, the drawn variety style, and an optional opener.
func buildContentPrompt(cfg Config, prof Profile, snippets []string, kind TriggerKind, now time.Time, trig *TriggerContext, style, opener string) string {
	var b strings.Builder
	b.WriteString("You are a chat bot starting a natural, friendly conversation on your own initiative.\n\n")
	b.WriteString("About the person:\n")
	fmt.Fprintf(&b, "- Nickname: %s\n", prof.Nickname)
	fmt.Fprintf(&b, "- Relationship: %s\n", prof.Relationship)
	fmt.Fprintf(&b, "- Chat style: %s\n", prof.ChatStyle)
	if len(prof.RecentTopics) > 0 {
		fmt.Fprintf(&b, "- Recent topics: %s\n", strings.Join(prof.RecentTopics, ", "))
	}

	b.WriteString("\nSituation:\n")
	fmt.Fprintf(&b, "- Local time: %s (%s)\n", now.Format("2006-01-02 15:04"), timePeriod(now.Hour()))
	fmt.Fprintf(&b, "- Trigger: %s\n", kind)
	if trig != nil {
		fmt.Fprintf(&b, "- Detected mood: %s (intensity %.2f)\n", trig.Label, trig.Intensity)
	}
	if cfg.UseRecentContext && len(snippets) > 0 {
		b.WriteString("- Recent conversation fragments:\n")
		for _, s := range snippets {
			fmt.Fprintf(&b, "  - %s\n", s)
		}
	}

	if opener == boredOpener {
		b.WriteString("\nOpener:\n- Open as if slightly bored and in the mood to talk. Direct and natural, no reason given, short sentences.\n")
	} else if opener != "" {
		fmt.Fprintf(&b, "\nOpener:\n- Open with a very small everyday event around the theme %q. Keep it generic, invent no specific names or places, one or two sentences at most.\n", opener)
	}

	fmt.Fprintf(&b, `
Rules:
1. Sound like you genuinely thought of them, never like a system.
2. Match the %s and the relationship; keep it light.
3. Tone: %s.
4. One or two short sentences, %d-%d characters.
5. Never mention being proactive, triggers, or anything technical.
6. You may pick up a recent topic without repeating it.
7. Ending on a light question is welcome (roughly %.0f%% of the time).
`, timePeriod(now.Hour()), cfg.Tone, cfg.ContentMinLength, cfg.ContentMaxLength, cfg.AskFollowUpProb*100)

	if style != "" {
		if hint, ok := styleHints[style]; ok {
			fmt.Fprintf(&b, "8. Style for this message: %s (%s).\n", style, hint)
		} else {
			fmt.Fprintf(&b, "8. Style for this message: %s.\n", style)
		}
	}
	if cfg.ShortMode {
		fmt.Fprintf(&b, "9. Stay brief, aim for about %d characters.\n", cfg.TargetLength)
	}
	b.WriteString("\nOutput only the message itself, no explanations or quotes.\n")

	return b.String()
}
