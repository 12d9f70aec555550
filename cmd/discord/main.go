// cmd/discord/main.go
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"icebreaker/internal/ai"
	"icebreaker/internal/config"
	"icebreaker/internal/discord"
	"icebreaker/internal/engage"
	"icebreaker/internal/mood"
	"icebreaker/internal/storage"
	v "icebreaker/internal/version"
)

func main() {
	log.Printf("[INFO] Starting %v bot...", v.AppName)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := config.New()

	store, err := storage.New(cfg.StoragePath)
	if err != nil {
		log.Fatal(err)
	}
	defer store.Close()

	provider, err := ai.NewProvider(cfg.AIProvider)
	if err != nil {
		log.Fatal(err)
	}

	moods := mood.NewTracker()
	bot := discord.New(cfg, provider, moods)

	oracle := ai.NewOracle(provider)
	engine := engage.NewEngine(cfg.Engage(), engage.Collaborators{
		Store:     store,
		Signals:   moods,
		Activity:  bot,
		Judge:     oracle,
		Generator: oracle,
		Transport: bot,
		Directory: bot,
	})
	bot.SetEngine(engine)

	engine.Start(ctx)
	defer engine.Stop()

	errCh := make(chan error, 1)
	go func() {
		if err := bot.Run(ctx); err != nil {
			errCh <- err
		}
		close(errCh)
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	select {
	case s := <-sig:
		log.Printf("[INFO] Received signal %s, shutting down...\n", s)
		cancel()
	case err := <-errCh:
		if err != nil {
			log.Println("[ERR] Discord bot error:", err)
		}
		cancel()
	case <-ctx.Done():
	}

	log.Println("[INFO] Discord bot exited cleanly")
}
