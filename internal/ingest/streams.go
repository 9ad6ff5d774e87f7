package ingest

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/hltvnotify/hltv-notify-bot/internal/scraper"
)

// LiveStreamSource discovers stream links by fetching the match page and
// re-fetching until at least one embed is present. The streams block renders
// late, so an empty result is treated like a failed render.
type LiveStreamSource struct {
	Fetcher     scraper.Fetcher
	Delay       time.Duration
	MaxAttempts int // 0 retries indefinitely
}

func (s *LiveStreamSource) StreamLinks(ctx context.Context, matchURL string) (map[string]string, error) {
	var lastErr error
	for attempt := 1; s.MaxAttempts == 0 || attempt <= s.MaxAttempts; attempt++ {
		html, err := s.Fetcher.Fetch(ctx, matchURL)
		if err == nil {
			var links map[string]string
			links, err = scraper.ExtractStreamLinks(html)
			if err == nil && len(links) > 0 {
				return links, nil
			}
		}
		if err != nil {
			lastErr = err
			log.Errorf("Error getting stream links for %s (attempt %d): %v", matchURL, attempt, err)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(s.Delay):
		}
	}
	if lastErr == nil {
		lastErr = scraper.ErrParse
	}
	return nil, lastErr
}
