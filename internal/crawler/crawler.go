package crawler

import (
	"context"
	"net/url"

	"go.uber.org/zap"

	"github.com/JakeFAU/site-structure-audit/internal/urlnorm"
)

// Crawler drains a FIFO queue one entry at a time. Fetches are strictly
// sequential so the visited set, depth bookkeeping and inlink graph are only
// ever mutated by one goroutine.
type Crawler struct {
	fetcher Fetcher
	limiter Limiter
	logger  *zap.Logger
}

// Option customizes a Crawler.
type Option func(*Crawler)

// WithLimiter waits on l before every fetch.
func WithLimiter(l Limiter) Option {
	return func(c *Crawler) {
		c.limiter = l
	}
}

// WithLogger sets the crawler logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Crawler) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New creates a Crawler around fetcher.
func New(fetcher Fetcher, opts ...Option) *Crawler {
	c := &Crawler{fetcher: fetcher, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type crawlState struct {
	queue   []QueueItem
	visited urlnorm.Set
	pages   map[string]FetchedPage
	inlinks map[string]urlnorm.Set
}

func (s *crawlState) push(u string, depth int) {
	s.queue = append(s.queue, QueueItem{URL: u, Depth: depth})
}

func (s *crawlState) pop() QueueItem {
	item := s.queue[0]
	s.queue = s.queue[1:]
	return item
}

func (s *crawlState) addInlink(target, source string) {
	if target == source {
		return
	}
	sources, ok := s.inlinks[target]
	if !ok {
		sources = urlnorm.Set{}
		s.inlinks[target] = sources
	}
	sources.Add(source)
}

// Crawl walks the site from seeds (already normalized) and returns every
// fetched page plus the inlink graph. Seeds are depth 0. A page at maxDepth is
// recorded but its outlinks are not followed; redirect targets are followed
// hop by hop while depth+1 <= maxDepth.
func (c *Crawler) Crawl(ctx context.Context, seeds []string, maxDepth int, base *url.URL) Result {
	state := &crawlState{
		visited: urlnorm.Set{},
		pages:   make(map[string]FetchedPage),
		inlinks: make(map[string]urlnorm.Set),
	}
	for _, seed := range seeds {
		state.push(seed, 0)
	}

	for len(state.queue) > 0 {
		current := state.pop()
		if state.visited.Has(current.URL) {
			continue
		}
		state.visited.Add(current.URL)

		page := c.fetch(ctx, current, base)
		state.pages[current.URL] = page

		if page.RedirectTarget != "" {
			target, ok := urlnorm.NormalizeInternal(page.RedirectTarget, base)
			if ok && !state.visited.Has(target) && current.Depth+1 <= maxDepth {
				state.push(target, current.Depth+1)
			}
		}

		if current.Depth >= maxDepth {
			continue
		}

		for _, target := range page.Outlinks {
			state.addInlink(target, current.URL)
			if !state.visited.Has(target) {
				state.push(target, current.Depth+1)
			}
		}
	}

	c.logger.Info("crawl finished",
		zap.Int("pages", len(state.pages)),
		zap.Int("link_targets", len(state.inlinks)),
	)
	return Result{Pages: state.pages, Inlinks: state.inlinks, Visited: state.visited}
}

// FetchMissing fetches every URL in urls that the crawl never reached and
// records it in result. These fetches contribute no inlinks.
func (c *Crawler) FetchMissing(ctx context.Context, urls []string, base *url.URL, result *Result) int {
	fetched := 0
	for _, u := range urls {
		if result.Visited.Has(u) {
			continue
		}
		result.Visited.Add(u)
		result.Pages[u] = c.fetch(ctx, QueueItem{URL: u, Depth: -1}, base)
		fetched++
	}
	return fetched
}

func (c *Crawler) fetch(ctx context.Context, item QueueItem, base *url.URL) FetchedPage {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			c.logger.Warn("rate limiter wait failed", zap.String("url", item.URL), zap.Error(err))
		}
	}
	page := c.fetcher.Fetch(ctx, item.URL, base)
	c.logger.Debug("page fetched",
		zap.String("url", item.URL),
		zap.Int("depth", item.Depth),
		zap.Int("status", page.Status),
		zap.Int("outlinks", len(page.Outlinks)),
	)
	return page
}
