// Package collyfetcher implements the audit's HTTP access on gocolly: single
// page fetches that observe redirects instead of following them, and plain
// GETs for sitemap documents.
package collyfetcher

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"

	"github.com/JakeFAU/site-structure-audit/internal/crawler"
	"github.com/JakeFAU/site-structure-audit/internal/htmlmeta"
	"github.com/JakeFAU/site-structure-audit/internal/metrics"
	"github.com/JakeFAU/site-structure-audit/internal/urlnorm"
)

// DefaultUserAgent identifies audit traffic in server logs.
const DefaultUserAgent = "OneCompanyStructureAuditBot/1.0 (+https://onecompany.global)"

// Config controls collector behavior.
type Config struct {
	UserAgent string
	// Timeout bounds each request. Zero leaves the transport defaults in place.
	Timeout time.Duration
}

// Fetcher implements crawler.Fetcher and sitemap.Getter using Colly.
type Fetcher struct {
	cfg           Config
	pageCollector *colly.Collector
	getCollector  *colly.Collector
	logger        *zap.Logger
}

type collectorHooks interface {
	OnRequest(colly.RequestCallback)
	OnResponse(colly.ResponseCallback)
	OnError(colly.ErrorCallback)
}

// New builds a Fetcher.
func New(cfg Config, logger *zap.Logger) *Fetcher {
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	metrics.Init()

	transport := newHTTPTransport()

	page := newCollector(cfg, transport)
	// Redirects must be observed, never followed.
	page.SetRedirectHandler(func(_ *http.Request, _ []*http.Request) error {
		return http.ErrUseLastResponse
	})

	return &Fetcher{
		cfg:           cfg,
		pageCollector: page,
		getCollector:  newCollector(cfg, transport),
		logger:        logger,
	}
}

func newCollector(cfg Config, transport http.RoundTripper) *colly.Collector {
	c := colly.NewCollector(
		colly.UserAgent(cfg.UserAgent),
		colly.AllowURLRevisit(),
	)
	c.IgnoreRobotsTxt = true
	c.ParseHTTPErrorResponse = true
	c.WithTransport(transport)
	if cfg.Timeout > 0 {
		c.SetRequestTimeout(cfg.Timeout)
	}
	return c
}

// response is the subset of a colly.Response the audit keeps.
type response struct {
	status  int
	headers http.Header
	body    []byte
	url     *url.URL
}

// Fetch performs one GET of pageURL and reduces it to a FetchedPage. Transport
// failures produce a status-0 page carrying the error text.
func (f *Fetcher) Fetch(ctx context.Context, pageURL string, base *url.URL) crawler.FetchedPage {
	resp, err := f.do(ctx, f.pageCollector, pageURL)
	if err != nil {
		f.logger.Warn("page fetch failed", zap.String("url", pageURL), zap.Error(err))
		metrics.ObservePage(0)
		return crawler.FetchErrorPage(err)
	}
	metrics.ObservePage(resp.status)

	pageRef := resp.url
	if pageRef == nil {
		if pageRef, err = url.Parse(pageURL); err != nil {
			return crawler.FetchErrorPage(err)
		}
	}
	if base == nil {
		base = pageRef
	}
	return buildPage(resp, pageRef, base, f.logger)
}

func buildPage(resp response, pageRef, base *url.URL, logger *zap.Logger) crawler.FetchedPage {
	page := crawler.FetchedPage{
		Status:      resp.status,
		XRobotsTag:  strings.Join(resp.headers.Values("X-Robots-Tag"), ", "),
		HreflangMap: map[string]string{},
	}

	if location := resp.headers.Get("Location"); location != "" {
		if normalized, ok := urlnorm.NormalizeAbsolute(location, pageRef); ok {
			page.RedirectTarget = normalized
		} else {
			page.RedirectTarget = location
		}
	}

	if !strings.Contains(strings.ToLower(resp.headers.Get("Content-Type")), "text/html") {
		return page
	}
	meta, err := htmlmeta.Parse(resp.body, pageRef, base)
	if err != nil {
		logger.Warn("html parse failed", zap.String("url", pageRef.String()), zap.Error(err))
		return page
	}
	page.Canonical = meta.Canonical
	page.HreflangMap = meta.Hreflang
	page.MetaRobots = meta.MetaRobots
	page.Outlinks = meta.Outlinks
	return page
}

// Get performs a GET that follows redirects and returns the final status and
// body. Used for sitemap documents.
func (f *Fetcher) Get(ctx context.Context, rawURL string) (int, []byte, error) {
	resp, err := f.do(ctx, f.getCollector, rawURL)
	if err != nil {
		return 0, nil, err
	}
	return resp.status, resp.body, nil
}

func (f *Fetcher) do(ctx context.Context, base *colly.Collector, rawURL string) (response, error) {
	var (
		result   response
		fetchErr error
	)
	collector := base.Clone()
	configureCollectorHooks(collector, &result, &fetchErr)
	if err := runCollector(ctx, collector, rawURL, &fetchErr); err != nil {
		return response{}, err
	}
	return result, nil
}

func configureCollectorHooks(hooks collectorHooks, result *response, fetchErr *error) {
	hooks.OnRequest(func(r *colly.Request) {
		r.Headers.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	})

	hooks.OnResponse(func(r *colly.Response) {
		headers := http.Header{}
		if r.Headers != nil {
			headers = r.Headers.Clone()
		}
		var u *url.URL
		if r.Request != nil {
			u = r.Request.URL
		}
		*result = response{
			status:  r.StatusCode,
			headers: headers,
			body:    append([]byte(nil), r.Body...),
			url:     u,
		}
	})

	hooks.OnError(func(_ *colly.Response, err error) {
		*fetchErr = err
	})
}

func runCollector(ctx context.Context, collector *colly.Collector, rawURL string, fetchErr *error) error {
	done := make(chan error, 1)
	go func() {
		done <- collector.Visit(rawURL)
	}()

	select {
	case <-ctx.Done():
		return fmt.Errorf("colly fetch canceled: %w", ctx.Err())
	case err := <-done:
		if err != nil {
			return fmt.Errorf("colly visit failed: %w", err)
		}
		if *fetchErr != nil {
			return fmt.Errorf("colly response failed: %w", *fetchErr)
		}
		return nil
	}
}

func newHTTPTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   15 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
	}
}
