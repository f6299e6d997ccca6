package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/alpha-radar/pkg/chain"
	"github.com/alpha-radar/pkg/config"
	"github.com/alpha-radar/pkg/db"
	"github.com/alpha-radar/pkg/hub"
	"github.com/alpha-radar/pkg/market"
	"github.com/alpha-radar/pkg/scan"
	"github.com/alpha-radar/pkg/server"
	"github.com/alpha-radar/pkg/twitter"
)

func main() {
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}).With().Timestamp().Logger()
	log.Info().Msg("📡 Alpha Radar starting...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("config invalid")
	}

	store, err := db.NewStore(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Msg("database init failed")
	}
	defer store.Close()

	// Restore per-source cursors so a restart resumes where we left off
	// instead of re-reading everyone's timeline.
	sources := make([]*twitter.Source, 0, len(cfg.AlphaHunters))
	for _, h := range cfg.AlphaHunters {
		src := &twitter.Source{Handle: h}
		if userID, tweetID, err := store.LoadCursor(h); err == nil {
			src.UserID = userID
			src.LastTweetID = tweetID
		}
		sources = append(sources, src)
	}

	reader := twitter.NewReader(cfg)
	inspector := chain.NewInspector(cfg.SolanaRPCURL, cfg.SignatureFetchLimit)
	enricher := market.NewEnricher(cfg.DexScreenerAPI, cfg.JupiterTokenAPI)

	events := hub.New()
	orch := scan.NewOrchestrator(cfg, sources, reader, inspector, enricher,
		scan.NewCache(), events, store)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	events.SetScanRequestHandler(func() {
		orch.Trigger(ctx)
	})

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		events.Run(ctx.Done())
		return nil
	})

	g.Go(func() error {
		api := server.New(cfg, orch, inspector, enricher, events, store)
		return api.Run(ctx)
	})

	g.Go(func() error {
		// First scan right away, then on the fixed schedule.
		orch.RunCycle(ctx)

		c := cron.New()
		if _, err := c.AddFunc(fmt.Sprintf("@every %s", cfg.ScanInterval), func() {
			orch.RunCycle(ctx)
		}); err != nil {
			return fmt.Errorf("schedule scan: %w", err)
		}
		c.Start()
		<-ctx.Done()
		<-c.Stop().Done()
		return nil
	})

	printBanner(cfg)

	if err := g.Wait(); err != nil && err != context.Canceled {
		log.Error().Err(err).Msg("shutdown with error")
	}
	log.Info().Msg("goodbye 👋")
}

func printBanner(cfg *config.Config) {
	line := strings.Repeat("═", 60)
	color.Cyan(line)
	color.Cyan("  📡 ALPHA RADAR - SCANNING")
	color.Cyan(line)
	fmt.Printf("  Hunters:   %d accounts (%d top)\n", len(cfg.AlphaHunters), len(cfg.TopHunters))
	fmt.Printf("  Interval:  every %s\n", cfg.ScanInterval)
	fmt.Printf("  RPC:       %s\n", cfg.SolanaRPCURL)
	twitterMode := "Nitter RSS fallback"
	if cfg.TwitterBearerToken != "" {
		twitterMode = "Twitter API v2"
	}
	fmt.Printf("  Source:    %s\n", twitterMode)
	fmt.Printf("  API:       http://localhost:%d/api/scan\n", cfg.Port)
	fmt.Printf("  Feed:      ws://localhost:%d/ws\n", cfg.Port)
	color.Cyan(line)
}
