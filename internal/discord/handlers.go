package discord

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"icebreaker/internal/ai"
	"icebreaker/internal/engage"
)

var positiveMarkers = []string{"haha", "lol", "nice", "love", "great", "thanks", "cool", ":)", "😀", "😂", "❤"}
var negativeMarkers = []string{"ugh", "tired", "sad", "hate", "awful", "annoying", ":(", "😞", "😡"}

// onMessageCreate feeds the mood tracker, answers admin commands when
// mentioned, and occasionally follows up right after a proactive send.
func (b *Bot) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.ID == s.State.User.ID {
		return
	}

	b.observeMood(m.Content)

	if b.isMentioned(s, m) {
		b.handleCommand(s, m)
		return
	}

	b.maybeFollowUp(s, m)
}

func (b *Bot) observeMood(content string) {
	l := strings.ToLower(content)
	for _, w := range positiveMarkers {
		if strings.Contains(l, w) {
			b.moods.Observe(true, 0.6)
			return
		}
	}
	for _, w := range negativeMarkers {
		if strings.Contains(l, w) {
			b.moods.Observe(false, 0.6)
			return
		}
	}
	b.moods.Observe(true, 0.1)
}

func (b *Bot) isMentioned(s *discordgo.Session, m *discordgo.MessageCreate) bool {
	for _, user := range m.Mentions {
		if user.ID == s.State.User.ID {
			return true
		}
	}
	return false
}

func (b *Bot) handleCommand(s *discordgo.Session, m *discordgo.MessageCreate) {
	engine := b.currentEngine()
	if engine == nil {
		return
	}

	l := strings.ToLower(m.Content)
	switch {
	case strings.Contains(l, "status"):
		if _, err := s.ChannelMessageSend(m.ChannelID, formatStatus(engine.Status())); err != nil {
			log.Println("[ERR] Error sending status:", err)
		}
	case strings.Contains(l, "reset"):
		engine.Health().Reset()
		log.Printf("[INFO] health state reset by %s", m.Author.ID)
		if _, err := s.ChannelMessageSend(m.ChannelID, "Health state reset. Back to normal."); err != nil {
			log.Println("[ERR] Error sending reset ack:", err)
		}
	}
}

// maybeFollowUp sends one extra reply when a user answers shortly
// after a proactive message, at the boost store's elevated rate.
func (b *Bot) maybeFollowUp(s *discordgo.Session, m *discordgo.MessageCreate) {
	engine := b.currentEngine()
	if engine == nil {
		return
	}

	target := b.targetForMessage(s, m)
	gain, ok := engine.Boost().Gain(target.Key())
	if !ok || rand.Float64() >= gain {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	prompt := fmt.Sprintf(
		"You just started a conversation and they replied: %q\nWrite one short, warm follow-up in the same language. No preamble, just the message.",
		m.Content,
	)
	reply, err := b.provider.Generate(ctx, []ai.Message{{Role: "user", Content: prompt}})
	if err != nil {
		log.Println("[WARN] follow-up generation failed:", err)
		return
	}

	sent, err := b.Deliver(ctx, target, reply)
	if err != nil || !sent {
		log.Printf("[WARN] follow-up delivery failed target=%s error=%v", target.Key(), err)
	}
}

func (b *Bot) targetForMessage(s *discordgo.Session, m *discordgo.MessageCreate) engage.Target {
	if m.GuildID == "" {
		return engage.Target{Kind: engage.TargetDirect, Address: m.Author.ID}
	}
	return engage.Target{Kind: engage.TargetGroup, Address: m.ChannelID}
}

func formatStatus(st engage.Status) string {
	var sb strings.Builder
	running := "stopped"
	if st.Running {
		running = "running"
	}
	fmt.Fprintf(&sb, "**Proactive engagement: %s**\n", running)
	fmt.Fprintf(&sb, "Jobs: %s\n", strings.Join(st.Jobs, ", "))
	fmt.Fprintf(&sb, "Health: %s (failures=%d, success rate=%.0f%%)\n",
		st.Health.State, st.Health.ConsecutiveFailures, st.Health.SuccessRate*100)
	if st.Health.InCooldown {
		fmt.Fprintf(&sb, "Cooldown remaining: %s\n", st.Health.CooldownRemaining.Round(time.Second))
	}
	fmt.Fprintf(&sb, "Today (%s): %d total", st.Daily.Date, st.Daily.Total)
	for kind, n := range st.Daily.Counts {
		fmt.Fprintf(&sb, ", %s=%d", kind, n)
	}
	sb.WriteString("\n")
	if !st.Next.IsZero() {
		fmt.Fprintf(&sb, "Next possible trigger: %s\n", st.Next.Format("15:04:05"))
	}
	return sb.String()
}
