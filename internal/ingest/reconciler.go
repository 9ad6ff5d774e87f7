package ingest

import (
	"errors"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/hltvnotify/hltv-notify-bot/internal/database"
	"github.com/hltvnotify/hltv-notify-bot/internal/scraper"
)

// liveWindow is how close to its start time an upcoming match is considered
// live already: the listing keeps showing matches for a while after they
// begin.
const liveWindow = 15 * time.Minute

// eventRetention is how long after its end date an event survives before
// pruning.
const eventRetention = 24 * time.Hour

// Reconciler merges freshly scraped records into the store: upserts, change
// application, pruning of rows absent from the latest scrape.
type Reconciler struct {
	Repo    *database.Repository
	BaseURL string
}

func NewReconciler(repo *database.Repository, baseURL string) *Reconciler {
	return &Reconciler{Repo: repo, BaseURL: baseURL}
}

// ReconcileTeams creates any team not seen before. Existing teams are never
// touched.
func (r *Reconciler) ReconcileTeams(names []string) {
	for _, name := range names {
		if err := r.Repo.UpsertTeam(name); err != nil {
			log.Errorf("Error upserting team %q: %v", name, err)
		}
	}
}

// ReconcileEvents upserts every scraped event by name.
func (r *Reconciler) ReconcileEvents(records []scraper.EventRecord) {
	for _, record := range records {
		if err := r.Repo.UpsertEvent(record.Name, record.StartDate(), record.EndDate()); err != nil {
			log.Errorf("Error upserting event %q: %v", record.Name, err)
		}
	}
}

// ReconcileMatches applies one full matches-listing pass: upcoming records
// first, then the live section. It returns the absolute URLs seen (the
// survivor set for pruning) and the scraped start times (scheduler input).
func (r *Reconciler) ReconcileMatches(upcoming, live []scraper.MatchRecord, now time.Time) (urls []string, startTimes []int64) {
	for _, record := range upcoming {
		url := r.BaseURL + record.URL
		// The listing keeps a match in the upcoming section briefly
		// after start; flag it live once inside the window.
		ongoing := time.UnixMilli(record.StartTimeMS).Sub(now) < liveWindow
		r.upsertMatch(record, url, ongoing, record.StartTime())
		urls = append(urls, url)
		startTimes = append(startTimes, record.StartTimeMS/1000)
	}

	for _, record := range live {
		url := r.BaseURL + record.URL
		r.upsertMatch(record, url, true, nil)
		urls = append(urls, url)
	}

	return urls, startTimes
}

func (r *Reconciler) upsertMatch(record scraper.MatchRecord, url string, ongoing bool, startTime *time.Time) {
	err := r.Repo.UpsertMatch(record.Event, record.TeamNames(), url, record.Format, ongoing, startTime)
	if errors.Is(err, database.ErrEventNotFound) {
		// The match and event scrapes race; the record lands once the
		// event does, on a later cycle.
		log.Warnf("Skipping match %s: %v", url, err)
		return
	}
	if err != nil {
		log.Errorf("Error upserting match %s: %v", url, err)
	}
}

// PruneMatches deletes every match absent from the freshly scraped URL set.
func (r *Reconciler) PruneMatches(urls []string) {
	deleted, err := r.Repo.DeleteMatchesNotIn(urls)
	if err != nil {
		log.Errorf("Error pruning matches: %v", err)
		return
	}
	if deleted > 0 {
		log.Infof("Pruned %d stale matches", deleted)
	}
}

// PruneEvents deletes events that ended more than a day ago.
func (r *Reconciler) PruneEvents(now time.Time) {
	deleted, err := r.Repo.DeleteEndedEvents(now.Add(-eventRetention))
	if err != nil {
		log.Errorf("Error pruning events: %v", err)
		return
	}
	if deleted > 0 {
		log.Infof("Pruned %d ended events", deleted)
	}
}
