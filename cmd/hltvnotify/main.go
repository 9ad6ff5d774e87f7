package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/hltvnotify/hltv-notify-bot/internal/bot"
	"github.com/hltvnotify/hltv-notify-bot/internal/config"
	"github.com/hltvnotify/hltv-notify-bot/internal/database"
	"github.com/hltvnotify/hltv-notify-bot/internal/health"
	"github.com/hltvnotify/hltv-notify-bot/internal/ingest"
	"github.com/hltvnotify/hltv-notify-bot/internal/notify"
	"github.com/hltvnotify/hltv-notify-bot/internal/scraper"
)

const version = "v0.2.0"

func main() {
	config.Load()
	setupLogging()

	log.Infof("Welcome to hltvnotify, version: %s", version)

	err := database.Init(config.DatabaseType, config.GetDatabaseConnectionString())
	if err != nil {
		log.Fatalf("Error initializing database: %v", err)
	}
	defer database.Close()

	repo := database.NewRepository()

	scrapeAggregator := health.NewAggregator(repo, "hltv_scraper")
	scrapeAggregator.Start(time.Duration(config.HealthFlushSeconds) * time.Second)

	tgBot, err := bot.New(repo)
	if err != nil {
		log.Fatalf("Error creating bot: %v", err)
	}
	tgBot.Start()

	retryDelay := time.Duration(config.FetchRetryDelaySeconds) * time.Second
	fetcher := &scraper.RetryingFetcher{
		Inner:    scraper.NewChromeFetcher(time.Duration(config.PageLoadTimeoutSeconds) * time.Second),
		Delay:    retryDelay,
		Recorder: scrapeAggregator,
	}

	reconciler := ingest.NewReconciler(repo, config.BaseURL)
	dispatcher := notify.NewDispatcher(repo, tgBot, &ingest.LiveStreamSource{
		Fetcher: fetcher,
		Delay:   retryDelay,
	})
	poller := ingest.NewPoller(
		fetcher,
		reconciler,
		dispatcher,
		config.MatchesURL,
		config.EventsURL,
		config.RankingURL,
		time.Duration(config.BaselineIntervalHours)*time.Hour,
		time.Duration(config.RefreshIntervalHours)*time.Hour,
		retryDelay,
	)

	ctx, cancel := context.WithCancel(context.Background())
	go poller.Run(ctx)

	// Wait for a SIGINT or SIGTERM signal
	sc := make(chan os.Signal, 1)
	signal.Notify(sc, syscall.SIGINT, syscall.SIGTERM)
	<-sc

	cancel()
	tgBot.Stop()
}

func setupLogging() {
	if err := os.MkdirAll(filepath.Dir(config.LogFilePath), 0o755); err == nil {
		file, err := os.OpenFile(config.LogFilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err == nil {
			log.SetOutput(io.MultiWriter(os.Stdout, file))
		}
	}
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
}
