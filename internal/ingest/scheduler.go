package ingest

import (
	"time"
)

const (
	// StartLead is how far ahead of a match start the next cycle must run,
	// so the live transition and its stream links are picked up in time.
	StartLead = 10 * time.Minute

	// MinInterval keeps a near-immediate re-poll from spinning hot while a
	// match start sits inside the lead window.
	MinInterval = time.Minute
)

// NextInterval computes how long to sleep before the next ingestion cycle:
// the smallest `start - now - lead` over all future match starts, floored at
// MinInterval. With no upcoming match the baseline applies.
func NextInterval(startTimes []int64, now time.Time, baseline time.Duration) time.Duration {
	best := baseline
	found := false
	for _, start := range startTimes {
		remaining := time.Duration(start-now.Unix()) * time.Second
		if remaining <= 0 {
			// Already started; the ongoing flag covers it.
			continue
		}
		interval := remaining - StartLead
		if interval < MinInterval {
			interval = MinInterval
		}
		if !found || interval < best {
			best = interval
			found = true
		}
	}
	return best
}

// RefreshTracker gates the teams/events refresh to once per rolling window.
type RefreshTracker struct {
	last   time.Time
	window time.Duration
}

func NewRefreshTracker(window time.Duration) *RefreshTracker {
	return &RefreshTracker{window: window}
}

// Due reports whether a refresh is owed. The zero tracker is always due, so
// the first cycle after process start refreshes unconditionally.
func (t *RefreshTracker) Due(now time.Time) bool {
	return t.last.IsZero() || now.Sub(t.last) >= t.window
}

func (t *RefreshTracker) MarkRefreshed(now time.Time) {
	t.last = now
}
