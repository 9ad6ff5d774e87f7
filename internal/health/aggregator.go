package health

import (
	"sync/atomic"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/hltvnotify/hltv-notify-bot/internal/database"
)

// Aggregator holds scrape health stats in memory to reduce database writes.
// The scraping layer is the brittle part of the system; the success ratio in
// scrape_health_stats is the operator's early warning for selector rot.
type Aggregator struct {
	repo               *database.Repository
	serviceName        string
	totalRequests      atomic.Uint64
	successfulRequests atomic.Uint64
}

// NewAggregator creates a health aggregator for one scrape target.
func NewAggregator(repo *database.Repository, serviceName string) *Aggregator {
	return &Aggregator{
		repo:        repo,
		serviceName: serviceName,
	}
}

// RecordCall increments the in-memory counters for a fetch attempt. This is
// non-blocking and fast.
func (a *Aggregator) RecordCall(success bool) {
	a.totalRequests.Add(1)
	if success {
		a.successfulRequests.Add(1)
	}
}

// FlushToDB writes the aggregated counts to the database and resets the
// counters.
func (a *Aggregator) FlushToDB() {
	total := a.totalRequests.Swap(0)
	successful := a.successfulRequests.Swap(0)

	if total == 0 {
		return
	}

	if err := a.repo.UpdateScrapeHealthBulk(a.serviceName, total, successful); err != nil {
		log.Errorf("Failed to flush scrape health stats for %s: %v", a.serviceName, err)
	}
}

// Start starts a background goroutine to periodically flush stats to the
// database.
func (a *Aggregator) Start(interval time.Duration) {
	log.Infof("Health aggregator for %q started with a %s flush interval", a.serviceName, interval)
	ticker := time.NewTicker(interval)
	go func() {
		for range ticker.C {
			a.FlushToDB()
		}
	}()
}
