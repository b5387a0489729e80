// Package app wires configuration into the services an audit run needs and
// drives the run.
package app

import (
	"context"
	"fmt"
	"io"

	"cloud.google.com/go/storage"
	"go.uber.org/zap"

	"github.com/JakeFAU/site-structure-audit/internal/clock/system"
	"github.com/JakeFAU/site-structure-audit/internal/config"
	"github.com/JakeFAU/site-structure-audit/internal/content"
	collyfetcher "github.com/JakeFAU/site-structure-audit/internal/fetcher/colly"
	"github.com/JakeFAU/site-structure-audit/internal/id/uuid"
	"github.com/JakeFAU/site-structure-audit/internal/policy"
	pubsubpublisher "github.com/JakeFAU/site-structure-audit/internal/publisher/pubsub"
	blobstore "github.com/JakeFAU/site-structure-audit/internal/storage"
	"github.com/JakeFAU/site-structure-audit/internal/storage/gcs"
	"github.com/JakeFAU/site-structure-audit/internal/storage/local"
	"github.com/JakeFAU/site-structure-audit/internal/storage/memory"
)

// App holds the long-lived services of one audit invocation.
type App struct {
	cfg     config.Config
	logger  *zap.Logger
	deps    Deps
	closers []func() error
}

// NewApp builds every service named by cfg. It fails fast on the first
// service that cannot be initialized and releases the ones already built.
func NewApp(ctx context.Context, cfg config.Config, logger *zap.Logger, stdout, stderr io.Writer) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &App{cfg: cfg, logger: logger}

	pc := policy.DefaultConfig()
	pc.DefaultLocale = cfg.Site.DefaultLocale
	pol, err := policy.New(pc)
	if err != nil {
		return nil, fmt.Errorf("build policy: %w", err)
	}

	reader, err := a.contentReader(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}

	store, err := a.blobStore(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}

	var publisher Publisher
	if cfg.Notify.PubSub.Enabled() {
		pub, err := pubsubpublisher.Dial(ctx, cfg.Notify.PubSub.ProjectID)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("initialize notification: %w", err)
		}
		a.closers = append(a.closers, pub.Close)
		publisher = pub
		logger.Info("run notification enabled", zap.String("topic", cfg.Notify.PubSub.Topic))
	}

	a.deps = Deps{
		Client: collyfetcher.New(collyfetcher.Config{
			UserAgent: cfg.Audit.UserAgent,
			Timeout:   cfg.Audit.RequestTimeout,
		}, logger),
		Content:   reader,
		Store:     store,
		Policy:    pol,
		Clock:     system.New(),
		IDs:       uuid.New(),
		Publisher: publisher,
		Logger:    logger,
		Stdout:    stdout,
		Stderr:    stderr,
	}
	return a, nil
}

func (a *App) contentReader(ctx context.Context) (content.Reader, error) {
	switch a.cfg.Content.Provider {
	case config.ContentProviderPostgres:
		a.logger.Info("reading content from postgres")
		store, err := content.NewPostgresStore(ctx, content.PostgresConfig{
			DSN:             a.cfg.Content.Postgres.DSN,
			PostsTable:      a.cfg.Content.Postgres.PostsTable,
			CategoriesTable: a.cfg.Content.Postgres.CategoriesTable,
		})
		if err != nil {
			return nil, fmt.Errorf("initialize content store: %w", err)
		}
		a.closers = append(a.closers, func() error { store.Close(); return nil })
		return store, nil
	case config.ContentProviderFile:
		a.logger.Info("reading content from files", zap.String("path", a.cfg.Content.SiteContentPath))
		store, err := content.NewFileStore(a.cfg.Content.SiteContentPath, a.cfg.Content.CategoriesPath, a.logger)
		if err != nil {
			return nil, fmt.Errorf("initialize content store: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown content provider: %s", a.cfg.Content.Provider)
	}
}

func (a *App) blobStore(ctx context.Context) (blobstore.BlobStore, error) {
	switch a.cfg.Report.Provider {
	case config.ReportProviderLocal:
		store, err := local.New(local.Config{Dir: a.cfg.Report.Dir})
		if err != nil {
			return nil, fmt.Errorf("initialize report store: %w", err)
		}
		return store, nil
	case config.ReportProviderGCS:
		client, err := storage.NewClient(ctx)
		if err != nil {
			return nil, fmt.Errorf("create storage client: %w", err)
		}
		a.closers = append(a.closers, client.Close)
		store, err := gcs.New(client, gcs.Config{Bucket: a.cfg.Report.GCS.Bucket, Prefix: a.cfg.Report.GCS.Prefix})
		if err != nil {
			return nil, fmt.Errorf("initialize report store: %w", err)
		}
		a.logger.Info("writing reports to gcs", zap.String("bucket", a.cfg.Report.GCS.Bucket))
		return store, nil
	case config.ReportProviderMemory:
		a.logger.Info("report kept in memory; nothing is persisted")
		return memory.NewBlobStore(), nil
	default:
		return nil, fmt.Errorf("unknown report provider: %s", a.cfg.Report.Provider)
	}
}

// Options derives the run parameters from the configuration.
func (a *App) Options() Options {
	return OptionsFromConfig(a.cfg)
}

// OptionsFromConfig maps a loaded configuration onto run options.
func OptionsFromConfig(cfg config.Config) Options {
	return Options{
		Base:            cfg.Base(),
		Locales:         cfg.Site.Locales,
		MaxDepth:        cfg.Audit.MaxDepth,
		RateLimitRPS:    cfg.Audit.RateLimitRPS,
		JSONName:        cfg.Report.JSONName,
		CSVName:         cfg.Report.CSVName,
		ListingLimit:    cfg.Report.FailureListingLimit,
		NotifyTopic:     cfg.Notify.PubSub.Topic,
		MetricsTextfile: cfg.Metrics.Textfile,
	}
}

// Run performs one audit with the configured services.
func (a *App) Run(ctx context.Context) (Result, error) {
	return Run(ctx, a.deps, a.Options())
}

// Close releases every service in reverse construction order.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Warn("error closing service", zap.Error(err))
		}
	}
	a.closers = nil
	// Flushing is best-effort; stderr sync fails on some terminals.
	_ = a.logger.Sync()
}
