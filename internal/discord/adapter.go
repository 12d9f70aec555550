package discord

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"icebreaker/internal/engage"
)

const historyFetchLimit = 20

// CheckActivity reports whether a target conversation is currently
// alive. A conversation counts as active when it has a burst of recent
// messages, a message in the last few minutes, or one of our own
// messages inside the lookback window (we already spoke, no need to
// poke again).
func (b *Bot) CheckActivity(ctx context.Context, t engage.Target) (bool, error) {
	channelID, err := b.channelFor(t)
	if err != nil {
		return false, err
	}

	msgs, err := b.dg.ChannelMessages(channelID, historyFetchLimit, "", "", "", discordgo.WithContext(ctx))
	if err != nil {
		return false, fmt.Errorf("failed to fetch history for %s: %w", t.Key(), err)
	}

	now := time.Now()
	selfID := b.selfID()
	recent := 0
	var latest time.Time

	for _, m := range msgs {
		ts := m.Timestamp
		if ts.After(latest) {
			latest = ts
		}
		if now.Sub(ts) <= b.ec.ActivityWindow {
			recent++
			if m.Author != nil && m.Author.ID == selfID {
				return true, nil
			}
		}
	}

	if recent >= b.ec.ActiveMessageThreshold {
		return true, nil
	}
	if !latest.IsZero() && now.Sub(latest) <= b.ec.ActivityRecency {
		return true, nil
	}
	return false, nil
}

// Deliver sends text to the target, throttled by the shared outbound
// limiter. A send that the API rejects outright is an error; an empty
// payload is a reported failure.
func (b *Bot) Deliver(ctx context.Context, t engage.Target, text string) (bool, error) {
	if strings.TrimSpace(text) == "" {
		return false, nil
	}

	channelID, err := b.channelFor(t)
	if err != nil {
		return false, err
	}

	if err := b.sendLimit.Wait(ctx); err != nil {
		return false, err
	}

	if _, err := b.dg.ChannelMessageSend(channelID, text, discordgo.WithContext(ctx)); err != nil {
		return false, fmt.Errorf("failed to send to %s: %w", t.Key(), err)
	}
	return true, nil
}

// ResolveAllowlists returns the adapter-level target pools from the
// environment config.
func (b *Bot) ResolveAllowlists() (direct []string, group []string) {
	return b.cfg.DirectAllowlist, b.cfg.GroupAllowlist
}

// Profile describes a target for content conditioning. Lookups are
// best-effort; a failed lookup degrades to a generic profile.
func (b *Bot) Profile(ctx context.Context, t engage.Target) engage.Profile {
	if t.Kind == engage.TargetDirect {
		prof := engage.Profile{Nickname: "friend", Relationship: "friend", ChatStyle: "casual"}
		if u, err := b.dg.User(t.Address, discordgo.WithContext(ctx)); err == nil {
			if u.GlobalName != "" {
				prof.Nickname = u.GlobalName
			} else {
				prof.Nickname = u.Username
			}
		} else {
			log.Printf("[WARN] user lookup failed for %s: %v", t.Address, err)
		}
		return prof
	}

	prof := engage.Profile{Nickname: "everyone", Relationship: "group_member", ChatStyle: "group"}
	if ch, err := b.dg.Channel(t.Address, discordgo.WithContext(ctx)); err == nil && ch.Name != "" {
		prof.Nickname = ch.Name
	}
	return prof
}

// RecentSnippets returns up to n recent messages from the target
// conversation, oldest first, trimmed for prompt use. Slash commands
// and empty messages are skipped.
func (b *Bot) RecentSnippets(ctx context.Context, t engage.Target, n int) []string {
	if n <= 0 {
		return nil
	}

	channelID, err := b.channelFor(t)
	if err != nil {
		return nil
	}

	msgs, err := b.dg.ChannelMessages(channelID, historyFetchLimit, "", "", "", discordgo.WithContext(ctx))
	if err != nil {
		log.Printf("[WARN] snippet fetch failed for %s: %v", t.Key(), err)
		return nil
	}

	// ChannelMessages returns newest first.
	out := make([]string, 0, n)
	for i := len(msgs) - 1; i >= 0; i-- {
		m := msgs[i]
		text := strings.TrimSpace(m.Content)
		if text == "" || strings.HasPrefix(text, "/") {
			continue
		}
		if len([]rune(text)) > b.ec.MaxSnippetChars {
			text = string([]rune(text)[:b.ec.MaxSnippetChars]) + "..."
		}
		author := "someone"
		if m.Author != nil {
			author = m.Author.Username
		}
		out = append(out, author+": "+text)
		if len(out) == n {
			break
		}
	}
	return out
}

func (b *Bot) selfID() string {
	if b.dg != nil && b.dg.State != nil && b.dg.State.User != nil {
		return b.dg.State.User.ID
	}
	return ""
}

var _ engage.ActivityChecker = (*Bot)(nil)
var _ engage.Transport = (*Bot)(nil)
var _ engage.Directory = (*Bot)(nil)
