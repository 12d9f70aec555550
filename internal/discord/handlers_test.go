package discord

import (
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/require"

	"icebreaker/internal/engage"
	"icebreaker/internal/mood"
)

func TestObserveMoodClassifiesMarkers(t *testing.T) {
	b := &Bot{moods: mood.NewTracker()}

	for i := 0; i < 5; i++ {
		b.observeMood("haha that is so great, love it")
	}
	sig := b.moods.DetectSignal()
	require.NotNil(t, sig)
	require.Equal(t, "cheerful", sig.Label)

	b2 := &Bot{moods: mood.NewTracker()}
	for i := 0; i < 5; i++ {
		b2.observeMood("ugh, today was awful and I am tired")
	}
	sig = b2.moods.DetectSignal()
	require.NotNil(t, sig)
	require.Equal(t, "down", sig.Label)
}

func TestTargetForMessageKinds(t *testing.T) {
	b := &Bot{}

	dm := b.targetForMessage(nil, &discordgo.MessageCreate{
		Message: &discordgo.Message{Author: &discordgo.User{ID: "u1"}, ChannelID: "c1"},
	})
	require.Equal(t, engage.Target{Kind: engage.TargetDirect, Address: "u1"}, dm)

	guild := b.targetForMessage(nil, &discordgo.MessageCreate{
		Message: &discordgo.Message{Author: &discordgo.User{ID: "u1"}, ChannelID: "c1", GuildID: "g1"},
	})
	require.Equal(t, engage.Target{Kind: engage.TargetGroup, Address: "c1"}, guild)
}

func TestFormatStatus(t *testing.T) {
	out := formatStatus(engage.Status{
		Running: true,
		Jobs:    []string{"mood-trigger"},
		Health: engage.HealthStatus{
			State:             engage.StateCooldown,
			InCooldown:        true,
			SuccessRate:       0.5,
			CooldownRemaining: 10 * time.Minute,
		},
		Daily: engage.Summary{Date: "2026-08-30", Total: 2, Counts: map[engage.TriggerKind]int{engage.TriggerMood: 2}},
		Next:  time.Date(2026, 8, 30, 16, 0, 0, 0, time.UTC),
	})

	require.Contains(t, out, "running")
	require.Contains(t, out, "mood-trigger")
	require.Contains(t, out, "cooldown")
	require.Contains(t, out, "mood=2")
	require.Contains(t, out, "16:00:00")
}
