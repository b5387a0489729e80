package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"

	"go.uber.org/zap"

	"github.com/JakeFAU/site-structure-audit/internal/audit"
	"github.com/JakeFAU/site-structure-audit/internal/clock"
	"github.com/JakeFAU/site-structure-audit/internal/clock/system"
	"github.com/JakeFAU/site-structure-audit/internal/content"
	"github.com/JakeFAU/site-structure-audit/internal/crawler"
	"github.com/JakeFAU/site-structure-audit/internal/expected"
	"github.com/JakeFAU/site-structure-audit/internal/gate"
	"github.com/JakeFAU/site-structure-audit/internal/id/uuid"
	"github.com/JakeFAU/site-structure-audit/internal/metrics"
	"github.com/JakeFAU/site-structure-audit/internal/policy"
	"github.com/JakeFAU/site-structure-audit/internal/ratelimit"
	"github.com/JakeFAU/site-structure-audit/internal/report"
	"github.com/JakeFAU/site-structure-audit/internal/sitemap"
	"github.com/JakeFAU/site-structure-audit/internal/storage"
	"github.com/JakeFAU/site-structure-audit/internal/urlnorm"
)

// ErrGateFailed is returned by Run when the report lists at least one gate
// failure. The report has been fully written by then.
var ErrGateFailed = errors.New("seo structure gate failed")

// PageClient fetches pages for the crawler and documents for the sitemap
// reader.
type PageClient interface {
	crawler.Fetcher
	sitemap.Getter
}

// Publisher sends the run notification.
type Publisher interface {
	Publish(ctx context.Context, topic string, payload any) (string, error)
}

// IDGenerator produces run identifiers.
type IDGenerator interface {
	NewID() (string, error)
}

// Deps are the collaborators of one run.
type Deps struct {
	Client    PageClient
	Content   content.Reader
	Store     storage.BlobStore
	Policy    *policy.Policy
	Clock     clock.Clock
	IDs       IDGenerator
	Publisher Publisher
	Logger    *zap.Logger
	Stdout    io.Writer
	Stderr    io.Writer
}

// Options are the validated run parameters.
type Options struct {
	Base         *url.URL
	Locales      []string
	MaxDepth     int
	RateLimitRPS float64

	JSONName     string
	CSVName      string
	ListingLimit int

	NotifyTopic     string
	MetricsTextfile string
}

// Notification is the run summary published after the report is stored.
type Notification struct {
	RunID         string `json:"run_id"`
	BaseURL       string `json:"base_url"`
	GeneratedAt   string `json:"generated_at"`
	GateFailures  int    `json:"gate_failures"`
	ReportJSONURI string `json:"report_json_uri"`
	ReportCSVURI  string `json:"report_csv_uri"`
	Passed        bool   `json:"passed"`
}

// Result is what a completed run produced.
type Result struct {
	Document  report.Document
	Artifacts report.Artifacts
}

// Run audits the site once: it builds the expected URL set, reads the
// sitemap, crawls from the seeds, back-fills unreached expected URLs, then
// assembles rows, evaluates the gate and stores the report. A sitemap or
// persistence failure aborts the run before any report is written. When the
// gate fails the full Result is returned together with ErrGateFailed.
func Run(ctx context.Context, deps Deps, opts Options) (Result, error) {
	deps = withDefaults(deps)
	logger := deps.Logger
	pol := deps.Policy
	base := opts.Base
	origin := urlnorm.Origin(base)

	report.PrintBanner(deps.Stdout, report.Banner{
		BaseURL:           origin,
		Locales:           opts.Locales,
		MaxDepth:          opts.MaxDepth,
		IndexablePatterns: len(pol.IndexablePatterns()),
		NoindexPatterns:   len(pol.NoindexPatterns()),
	})

	runID, err := deps.IDs.NewID()
	if err != nil {
		return Result{}, err
	}
	logger = logger.With(zap.String("run_id", runID))

	expectedURLs, err := expected.Build(ctx, base, opts.Locales, pol, deps.Content)
	if err != nil {
		return Result{}, fmt.Errorf("build expected urls: %w", err)
	}

	sitemapURLs, err := sitemap.NewReader(deps.Client, logger).Collect(ctx, base)
	if err != nil {
		return Result{}, fmt.Errorf("collect sitemap: %w", err)
	}

	crawlOpts := []crawler.Option{crawler.WithLogger(logger)}
	if opts.RateLimitRPS > 0 {
		crawlOpts = append(crawlOpts, crawler.WithLimiter(ratelimit.New(ratelimit.Config{RPS: opts.RateLimitRPS})))
	}
	crawl := crawler.New(deps.Client, crawlOpts...)

	result := crawl.Crawl(ctx, Seeds(base, opts.Locales, pol), opts.MaxDepth, base)
	backfilled := crawl.FetchMissing(ctx, expectedURLs.Sorted(), base, &result)
	logger.Info("expected urls back-filled", zap.Int("count", backfilled))

	input := audit.Input{Crawl: result, Sitemap: sitemapURLs, Expected: expectedURLs}
	rows := audit.BuildRows(input, pol)
	failures := gate.Evaluate(rows, expectedURLs, base, opts.Locales, pol)

	doc := report.NewDocument(report.Params{
		RunID:     runID,
		Generated: deps.Clock.Now(),
		BaseURL:   origin,
		Locales:   opts.Locales,
		MaxDepth:  opts.MaxDepth,
		Policy: report.PolicySnapshot{
			IndexablePatterns: pol.IndexablePatterns(),
			NoindexPatterns:   pol.NoindexPatterns(),
		},
		Summary:  audit.Summarize(input, rows),
		Failures: failures,
		Rows:     rows,
	})

	sink, err := report.NewSink(deps.Store, opts.JSONName, opts.CSVName, logger)
	if err != nil {
		return Result{}, err
	}
	artifacts, err := sink.Write(ctx, doc)
	if err != nil {
		return Result{}, fmt.Errorf("write report: %w", err)
	}

	recordMetrics(doc, opts.MetricsTextfile, logger)
	notify(ctx, deps.Publisher, opts.NotifyTopic, doc, artifacts, logger)

	report.PrintOutcome(deps.Stdout, deps.Stderr, artifacts.URIs(), doc.Failures, opts.ListingLimit)

	out := Result{Document: doc, Artifacts: artifacts}
	if !doc.Passed() {
		return out, fmt.Errorf("%w: %d failures", ErrGateFailed, len(doc.Failures))
	}
	return out, nil
}

// Seeds returns the crawl entry points: the root, every locale home, the
// locale-agnostic public prefixes and the noindex prefixes, de-duplicated
// and normalized in that order.
func Seeds(base *url.URL, locales []string, pol *policy.Policy) []string {
	paths := []string{"/"}
	for _, locale := range locales {
		paths = append(paths, "/"+locale)
	}
	paths = append(paths, pol.PublicPrefixes()...)
	paths = append(paths, pol.NoindexPrefixes()...)

	seen := urlnorm.NewSet()
	seeds := make([]string, 0, len(paths))
	for _, p := range paths {
		normalized, ok := urlnorm.NormalizeInternal(p, base)
		if !ok || seen.Has(normalized) {
			continue
		}
		seen.Add(normalized)
		seeds = append(seeds, normalized)
	}
	return seeds
}

func recordMetrics(doc report.Document, textfile string, logger *zap.Logger) {
	for _, f := range doc.Failures {
		metrics.ObserveGateFailure(string(f.Rule))
	}
	metrics.ObserveRun(len(doc.Rows), doc.Summary.ExpectedIndexableURLs, doc.Passed())
	if textfile == "" {
		return
	}
	if err := metrics.WriteTextfile(textfile); err != nil {
		logger.Warn("metrics textfile not written", zap.String("path", textfile), zap.Error(err))
	}
}

func notify(ctx context.Context, pub Publisher, topic string, doc report.Document, artifacts report.Artifacts, logger *zap.Logger) {
	if pub == nil || topic == "" {
		return
	}
	msg := Notification{
		RunID:         doc.RunID,
		BaseURL:       doc.BaseURL,
		GeneratedAt:   doc.GeneratedAt,
		GateFailures:  len(doc.Failures),
		ReportJSONURI: artifacts.JSONURI,
		ReportCSVURI:  artifacts.CSVURI,
		Passed:        doc.Passed(),
	}
	id, err := pub.Publish(ctx, topic, msg)
	if err != nil {
		logger.Warn("run notification failed", zap.String("topic", topic), zap.Error(err))
		return
	}
	logger.Info("run notification published", zap.String("topic", topic), zap.String("message_id", id))
}

func withDefaults(deps Deps) Deps {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Stdout == nil {
		deps.Stdout = io.Discard
	}
	if deps.Stderr == nil {
		deps.Stderr = io.Discard
	}
	if deps.Policy == nil {
		deps.Policy = policy.Default()
	}
	if deps.Clock == nil {
		deps.Clock = system.New()
	}
	if deps.IDs == nil {
		deps.IDs = uuid.New()
	}
	return deps
}
