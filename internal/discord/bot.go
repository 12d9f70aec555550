package discord

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/bwmarrin/discordgo"
	"golang.org/x/time/rate"

	"icebreaker/internal/ai"
	"icebreaker/internal/config"
	"icebreaker/internal/engage"
	"icebreaker/internal/mood"
)

// Bot is the Discord adapter. It implements the engagement engine's
// ActivityChecker, Transport and Directory contracts and feeds the
// mood tracker from incoming messages.
type Bot struct {
	dg       *discordgo.Session
	cfg      *config.Config
	ec       engage.Config
	provider ai.Provider
	moods    *mood.Tracker

	// Outbound throttle shared by proactive sends and replies.
	sendLimit *rate.Limiter

	mu      sync.Mutex
	dmCache map[string]string // user ID -> DM channel ID
	engine  *engage.Engine
}

func New(cfg *config.Config, provider ai.Provider, moods *mood.Tracker) *Bot {
	perSec := cfg.SendRate
	if perSec <= 0 {
		perSec = 1
	}
	return &Bot{
		cfg:       cfg,
		ec:        cfg.Engage(),
		provider:  provider,
		moods:     moods,
		sendLimit: rate.NewLimiter(rate.Limit(perSec), 1),
		dmCache:   make(map[string]string),
	}
}

// SetEngine wires the engine after construction. The bot needs the
// engine for status and reset commands; the engine needs the bot as
// its transport. Call before Run.
func (b *Bot) SetEngine(e *engage.Engine) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.engine = e
}

// Run connects to Discord and blocks until ctx is cancelled.
func (b *Bot) Run(ctx context.Context) error {
	dg, err := discordgo.New("Bot " + b.cfg.DiscordToken)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}

	b.dg = dg

	b.configureIntents()
	dg.AddHandler(b.onReady)
	dg.AddHandler(b.onMessageCreate)

	if err := dg.Open(); err != nil {
		return fmt.Errorf("failed to open Discord session: %w", err)
	}
	defer dg.Close()

	<-ctx.Done()
	log.Println("[INFO] ❎ Shutdown signal received. Cleaning up...")
	return nil
}

func (b *Bot) configureIntents() {
	b.dg.Identify.Intents = discordgo.IntentsGuildMessages |
		discordgo.IntentsDirectMessages |
		discordgo.IntentsMessageContent
}

func (b *Bot) onReady(s *discordgo.Session, r *discordgo.Ready) {
	botInfo, err := s.User("@me")
	if err != nil {
		log.Println("[WARN] Error retrieving bot user:", err)
		return
	}
	log.Printf("[INFO] ✅ Discord bot %v is running.", botInfo.Username)
}

func (b *Bot) currentEngine() *engage.Engine {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.engine
}

// dmChannel resolves and caches the DM channel for a user.
func (b *Bot) dmChannel(userID string) (string, error) {
	b.mu.Lock()
	if ch, ok := b.dmCache[userID]; ok {
		b.mu.Unlock()
		return ch, nil
	}
	b.mu.Unlock()

	ch, err := b.dg.UserChannelCreate(userID)
	if err != nil {
		return "", fmt.Errorf("failed to open DM with %s: %w", userID, err)
	}

	b.mu.Lock()
	b.dmCache[userID] = ch.ID
	b.mu.Unlock()
	return ch.ID, nil
}

// channelFor maps an engagement target onto a concrete channel ID.
func (b *Bot) channelFor(t engage.Target) (string, error) {
	if t.Kind == engage.TargetDirect {
		return b.dmChannel(t.Address)
	}
	return t.Address, nil
}
