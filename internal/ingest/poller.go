package ingest

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/hltvnotify/hltv-notify-bot/internal/notify"
	"github.com/hltvnotify/hltv-notify-bot/internal/scraper"
)

// Poller sequences one ingestion cycle after another for the process
// lifetime: refresh teams/events on a daily cadence, refresh matches every
// cycle, dispatch notifications, then sleep until the recomputed interval.
//
// All scheduling state lives on the struct so cycles are deterministic under
// test; nothing ambient.
type Poller struct {
	Fetcher    scraper.Fetcher
	Reconciler *Reconciler
	Dispatcher *notify.Dispatcher

	MatchesURL string
	EventsURL  string
	RankingURL string

	Baseline   time.Duration
	RetryDelay time.Duration
	refresh    *RefreshTracker
	interval   time.Duration
}

func NewPoller(fetcher scraper.Fetcher, rec *Reconciler, disp *notify.Dispatcher, matchesURL, eventsURL, rankingURL string, baseline, refreshWindow, retryDelay time.Duration) *Poller {
	return &Poller{
		Fetcher:    fetcher,
		Reconciler: rec,
		Dispatcher: disp,
		MatchesURL: matchesURL,
		EventsURL:  eventsURL,
		RankingURL: rankingURL,
		Baseline:   baseline,
		RetryDelay: retryDelay,
		refresh:    NewRefreshTracker(refreshWindow),
		interval:   baseline,
	}
}

// Run loops until the context is cancelled. A failed or panicking cycle is
// logged and the loop sleeps on the last computed interval; one bad cycle
// must never take the process down.
func (p *Poller) Run(ctx context.Context) {
	for {
		if err := p.runCycleSafely(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Errorf("Ingestion cycle failed: %v", err)
		}

		log.Infof("Next ingestion cycle in %s", p.interval)
		select {
		case <-ctx.Done():
			return
		case <-time.After(p.interval):
		}
	}
}

func (p *Poller) runCycleSafely(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in ingestion cycle: %v", r)
		}
	}()
	return p.RunCycle(ctx)
}

// RunCycle executes one full ingestion pass.
func (p *Poller) RunCycle(ctx context.Context) error {
	log.Info("Starting ingestion cycle")
	now := time.Now().UTC()

	if p.refresh.Due(now) {
		if err := p.refreshTeamsEvents(ctx); err != nil {
			return err
		}
		p.refresh.MarkRefreshed(now)
	}

	if err := p.refreshMatches(ctx); err != nil {
		return err
	}

	return p.Dispatcher.Dispatch(ctx)
}

// Interval returns the sleep computed by the latest cycle.
func (p *Poller) Interval() time.Duration {
	return p.interval
}

// refreshTeamsEvents re-scrapes the team ranking and the events calendar.
// Both pages are client-rendered and never legitimately empty, so an empty
// extraction is retried like a fetch failure.
func (p *Poller) refreshTeamsEvents(ctx context.Context) error {
	var teams []string
	for {
		html, err := p.Fetcher.Fetch(ctx, p.RankingURL)
		if err != nil {
			return err
		}
		teams, err = scraper.ExtractTeams(html)
		if err == nil && len(teams) > 0 {
			break
		}
		log.Errorf("Error extracting team ranking, retrying: %v", err)
		if err := p.wait(ctx); err != nil {
			return err
		}
	}

	var events []scraper.EventRecord
	for {
		html, err := p.Fetcher.Fetch(ctx, p.EventsURL)
		if err != nil {
			return err
		}
		events, err = scraper.ExtractEvents(html)
		if err == nil && len(events) > 0 {
			break
		}
		log.Errorf("Error extracting events calendar, retrying: %v", err)
		if err := p.wait(ctx); err != nil {
			return err
		}
	}

	p.Reconciler.ReconcileTeams(teams)
	p.Reconciler.ReconcileEvents(events)
	p.Reconciler.PruneEvents(time.Now().UTC())
	log.Infof("Refreshed %d teams and %d events", len(teams), len(events))
	return nil
}

// refreshMatches re-scrapes the matches listing, reconciles it and recomputes
// the polling interval. An empty upcoming section is a legal result; a
// listing page without its structural anchors is retried.
func (p *Poller) refreshMatches(ctx context.Context) error {
	var upcoming, live []scraper.MatchRecord
	for {
		html, err := p.Fetcher.Fetch(ctx, p.MatchesURL)
		if err != nil {
			return err
		}
		upcoming, err = scraper.ExtractUpcomingMatches(html)
		if err == nil {
			live, err = scraper.ExtractLiveMatches(html)
		}
		if err == nil {
			break
		}
		log.Errorf("Error extracting matches listing, retrying: %v", err)
		if err := p.wait(ctx); err != nil {
			return err
		}
	}

	now := time.Now().UTC()
	urls, startTimes := p.Reconciler.ReconcileMatches(upcoming, live, now)
	p.interval = NextInterval(startTimes, now, p.Baseline)
	p.Reconciler.PruneMatches(urls)
	log.Infof("Reconciled %d upcoming and %d live matches", len(upcoming), len(live))
	return nil
}

func (p *Poller) wait(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(p.RetryDelay):
		return nil
	}
}
