package notify

import (
	"context"

	log "github.com/sirupsen/logrus"

	"github.com/hltvnotify/hltv-notify-bot/internal/database"
)

// Sender delivers one notification to one chat. Implemented by the bot.
type Sender interface {
	SendMatchAlert(chatID int64, text string, streamLinks map[string]string) error
}

// StreamSource discovers the live-stream links of an ongoing match.
type StreamSource interface {
	StreamLinks(ctx context.Context, matchURL string) (map[string]string, error)
}

// Dispatcher fans out at-most-once notifications for matches that just went
// live. The persisted notified flag is the sole de-duplication mechanism, so
// a restart never re-announces a match.
type Dispatcher struct {
	Repo    *database.Repository
	Sender  Sender
	Streams StreamSource
}

func NewDispatcher(repo *database.Repository, sender Sender, streams StreamSource) *Dispatcher {
	return &Dispatcher{Repo: repo, Sender: sender, Streams: streams}
}

// Dispatch processes every ongoing, not-yet-announced match: discovers and
// records its stream links, messages every subscriber, then marks the match
// notified exactly once. A match with no subscribers is still marked.
func (d *Dispatcher) Dispatch(ctx context.Context) error {
	matches, err := d.Repo.GetOngoingMatches()
	if err != nil {
		return err
	}

	for _, match := range matches {
		if match.Notified {
			continue
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		links, err := d.Streams.StreamLinks(ctx, match.URL)
		if err != nil {
			// Leave the flag untouched; the match is retried next
			// cycle while it stays in the live listing.
			log.Errorf("Error discovering streams for %s: %v", match.URL, err)
			continue
		}
		for name, link := range links {
			if _, err := d.Repo.AddStreamToMatch(match.URL, name, link); err != nil {
				log.Errorf("Error attaching stream %q to %s: %v", name, match.URL, err)
			}
		}

		users, err := d.Repo.GetUsersSubscribedToMatch(match.URL)
		if err != nil {
			log.Errorf("Error loading subscribers of %s: %v", match.URL, err)
			continue
		}

		streamLinks := make(map[string]string)
		streams, err := d.Repo.GetStreamsForMatch(match.URL)
		if err != nil {
			log.Errorf("Error loading streams of %s: %v", match.URL, err)
		}
		for _, stream := range streams {
			streamLinks[stream.Name] = stream.Link
		}

		text := RenderMatchAlert(match)
		for _, user := range users {
			if err := d.Sender.SendMatchAlert(user.ID, text, streamLinks); err != nil {
				log.Errorf("Error notifying user %d about %s: %v", user.ID, match.URL, err)
			}
		}

		if err := d.Repo.SetMatchNotified(match.URL); err != nil {
			log.Errorf("Error marking %s notified: %v", match.URL, err)
			continue
		}
		log.Infof("Announced match %s to %d subscribers", match.URL, len(users))
	}

	return nil
}
