package scraper

import (
	"context"
	"time"

	"github.com/chromedp/chromedp"
	log "github.com/sirupsen/logrus"
)

const desktopUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Fetcher loads a page and returns its rendered HTML.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// Recorder receives the outcome of every fetch attempt.
type Recorder interface {
	RecordCall(success bool)
}

// ChromeFetcher renders pages in headless Chrome. The site builds its
// listings client-side, so a plain GET returns an empty shell.
type ChromeFetcher struct {
	Timeout time.Duration
}

func NewChromeFetcher(timeout time.Duration) *ChromeFetcher {
	return &ChromeFetcher{Timeout: timeout}
}

func (f *ChromeFetcher) Fetch(ctx context.Context, url string) (string, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.UserAgent(desktopUserAgent),
	)
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	tabCtx, cancelTab := chromedp.NewContext(allocCtx)
	defer cancelTab()

	tabCtx, cancelTimeout := context.WithTimeout(tabCtx, f.Timeout)
	defer cancelTimeout()

	log.Infof("Fetching page %s", url)
	var html string
	err := chromedp.Run(tabCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body"),
		chromedp.OuterHTML("html", &html),
	)
	if err != nil {
		return "", err
	}
	return html, nil
}

// RetryingFetcher wraps a Fetcher with a retry-until-success policy. A zero
// MaxAttempts retries indefinitely; tests set a bound and a short delay.
type RetryingFetcher struct {
	Inner       Fetcher
	Delay       time.Duration
	MaxAttempts int
	Recorder    Recorder
}

func (f *RetryingFetcher) Fetch(ctx context.Context, url string) (string, error) {
	var lastErr error
	for attempt := 1; f.MaxAttempts == 0 || attempt <= f.MaxAttempts; attempt++ {
		html, err := f.Inner.Fetch(ctx, url)
		if f.Recorder != nil {
			f.Recorder.RecordCall(err == nil)
		}
		if err == nil {
			return html, nil
		}
		lastErr = err
		log.Errorf("Error fetching %s (attempt %d): %v", url, attempt, err)

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(f.Delay):
		}
	}
	return "", lastErr
}
