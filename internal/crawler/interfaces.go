package crawler

import (
	"context"
	"net/url"
)

// Fetcher performs one GET without following redirects. It never fails:
// transport errors are reported as a status-0 page.
type Fetcher interface {
	Fetch(ctx context.Context, pageURL string, base *url.URL) FetchedPage
}

// Limiter paces fetches. ratelimit.Limiter satisfies it.
type Limiter interface {
	Wait(ctx context.Context) error
}
