package ingest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hltvnotify/hltv-notify-bot/internal/scraper"
)

const matchPageWithStreams = `
<div class="streams">
  <div class="stream-box">
    <div class="stream-box-embed" data-stream-embed="https://player.twitch.tv/?channel=esl_csgo">ESL (Main)</div>
  </div>
</div>`

type sequenceFetcher struct {
	pages []string
	calls int
}

func (f *sequenceFetcher) Fetch(ctx context.Context, url string) (string, error) {
	page := f.pages[f.calls]
	if f.calls < len(f.pages)-1 {
		f.calls++
	}
	return page, nil
}

func TestStreamLinksRetriesUntilEmbedAppears(t *testing.T) {
	// The streams block renders late; the first loads miss it.
	fetcher := &sequenceFetcher{pages: []string{
		`<div class="match-page"></div>`,
		`<div class="streams"></div>`,
		matchPageWithStreams,
	}}
	source := &LiveStreamSource{Fetcher: fetcher, Delay: time.Millisecond}

	links, err := source.StreamLinks(context.Background(), "https://www.hltv.org/matches/1/x-vs-y")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"ESL (Main)": "https://player.twitch.tv/?channel=esl_csgo"}, links)
	assert.Equal(t, 2, fetcher.calls)
}

func TestStreamLinksBoundedAttempts(t *testing.T) {
	fetcher := &sequenceFetcher{pages: []string{`<div class="match-page"></div>`}}
	source := &LiveStreamSource{Fetcher: fetcher, Delay: time.Millisecond, MaxAttempts: 2}

	_, err := source.StreamLinks(context.Background(), "https://www.hltv.org/matches/1/x-vs-y")
	assert.ErrorIs(t, err, scraper.ErrParse)
}

func TestStreamLinksStopsOnCancel(t *testing.T) {
	fetcher := &sequenceFetcher{pages: []string{`<div class="match-page"></div>`}}
	source := &LiveStreamSource{Fetcher: fetcher, Delay: 50 * time.Millisecond}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err := source.StreamLinks(ctx, "https://www.hltv.org/matches/1/x-vs-y")
	assert.ErrorIs(t, err, context.Canceled)
}
