// Package config loads and validates audit configuration via Viper.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/JakeFAU/site-structure-audit/internal/policy"
	"github.com/JakeFAU/site-structure-audit/internal/urlnorm"
)

// EnvPrefix prefixes every environment override, e.g. AUDIT_AUDIT_MAX_DEPTH.
const EnvPrefix = "AUDIT"

// Startup errors. None of them is reached after network activity begins.
var (
	ErrInvalidBaseURL     = errors.New("base URL must be an absolute http(s) URL")
	ErrNoSupportedLocales = errors.New("no supported locales provided")
	ErrInvalidMaxDepth    = errors.New("max depth must be a non-negative integer")
)

// Provider names.
const (
	ContentProviderFile     = "file"
	ContentProviderPostgres = "postgres"

	ReportProviderLocal  = "local"
	ReportProviderGCS    = "gcs"
	ReportProviderMemory = "memory"
)

// Config captures all audit configuration knobs loaded via Viper.
type Config struct {
	Site    SiteConfig    `mapstructure:"site"`
	Audit   AuditConfig   `mapstructure:"audit"`
	Content ContentConfig `mapstructure:"content"`
	Report  ReportConfig  `mapstructure:"report"`
	Notify  NotifyConfig  `mapstructure:"notify"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// SiteConfig identifies the audited site. After Load, BaseURL is reduced to
// its origin and Locales holds only supported, de-duplicated locales.
type SiteConfig struct {
	BaseURL       string   `mapstructure:"base_url"`
	Locales       []string `mapstructure:"locales"`
	DefaultLocale string   `mapstructure:"default_locale"`
}

// AuditConfig governs the crawl.
type AuditConfig struct {
	MaxDepth  int    `mapstructure:"max_depth"`
	UserAgent string `mapstructure:"user_agent"`
	// RequestTimeout of 0 keeps the transport default.
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	// RateLimitRPS of 0 disables the politeness limiter.
	RateLimitRPS float64 `mapstructure:"rate_limit_rps"`
}

// ContentConfig selects where blog and category metadata comes from.
type ContentConfig struct {
	Provider        string         `mapstructure:"provider"`
	SiteContentPath string         `mapstructure:"site_content_path"`
	CategoriesPath  string         `mapstructure:"categories_path"`
	Postgres        PostgresConfig `mapstructure:"postgres"`
}

// PostgresConfig configures the Postgres content store.
type PostgresConfig struct {
	DSN             string `mapstructure:"dsn"`
	PostsTable      string `mapstructure:"posts_table"`
	CategoriesTable string `mapstructure:"categories_table"`
}

// ReportConfig selects where artifacts are written.
type ReportConfig struct {
	Provider            string    `mapstructure:"provider"`
	Dir                 string    `mapstructure:"dir"`
	GCS                 GCSConfig `mapstructure:"gcs"`
	JSONName            string    `mapstructure:"json_name"`
	CSVName             string    `mapstructure:"csv_name"`
	FailureListingLimit int       `mapstructure:"failure_listing_limit"`
}

// GCSConfig configures the Cloud Storage report sink.
type GCSConfig struct {
	Bucket string `mapstructure:"bucket"`
	Prefix string `mapstructure:"prefix"`
}

// NotifyConfig configures the run notification.
type NotifyConfig struct {
	PubSub PubSubConfig `mapstructure:"pubsub"`
}

// PubSubConfig holds the notification topic. Both fields empty disables it.
type PubSubConfig struct {
	ProjectID string `mapstructure:"project_id"`
	Topic     string `mapstructure:"topic"`
}

// Enabled reports whether a notification should be published.
func (p PubSubConfig) Enabled() bool {
	return p.Topic != ""
}

// MetricsConfig configures the Prometheus textfile export.
type MetricsConfig struct {
	Textfile string `mapstructure:"textfile"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool   `mapstructure:"development"`
	Level       string `mapstructure:"level"`
}

// NewViper returns a Viper instance with defaults and environment
// overrides registered. Callers may bind command-line flags to it before
// calling Load.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	return v
}

// Load reads the optional config file at path into v, unmarshals it and
// validates the result.
func Load(v *viper.Viper, path string) (Config, error) {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.resolve(); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("site.base_url", "https://onecompany.global")
	v.SetDefault("site.locales", policy.DefaultLocales)
	v.SetDefault("site.default_locale", "ua")
	v.SetDefault("audit.max_depth", 4)
	v.SetDefault("audit.user_agent", "OneCompanyStructureAuditBot/1.0 (+https://onecompany.global)")
	v.SetDefault("audit.request_timeout", "0s")
	v.SetDefault("audit.rate_limit_rps", 0)
	v.SetDefault("content.provider", ContentProviderFile)
	v.SetDefault("content.site_content_path", "public/config/site-content.json")
	v.SetDefault("content.categories_path", "")
	v.SetDefault("content.postgres.dsn", "")
	v.SetDefault("content.postgres.posts_table", "blog_posts")
	v.SetDefault("content.postgres.categories_table", "categories")
	v.SetDefault("report.provider", ReportProviderLocal)
	v.SetDefault("report.dir", "reports")
	v.SetDefault("report.gcs.bucket", "")
	v.SetDefault("report.gcs.prefix", "")
	v.SetDefault("report.json_name", "seo-structure-report.json")
	v.SetDefault("report.csv_name", "seo-structure-report.csv")
	v.SetDefault("report.failure_listing_limit", 20)
	v.SetDefault("notify.pubsub.project_id", "")
	v.SetDefault("notify.pubsub.topic", "")
	v.SetDefault("metrics.textfile", "")
	v.SetDefault("logging.development", true)
	v.SetDefault("logging.level", "info")
}

func (c *Config) resolve() error {
	base, err := ParseBaseURL(c.Site.BaseURL)
	if err != nil {
		return err
	}
	c.Site.BaseURL = urlnorm.Origin(base)

	locales, err := ResolveLocales(c.Site.Locales, policy.DefaultLocales)
	if err != nil {
		return err
	}
	c.Site.Locales = locales
	return nil
}

// ParseBaseURL parses raw as an absolute http(s) URL.
func ParseBaseURL(raw string) (*url.URL, error) {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %w", ErrInvalidBaseURL, raw, err)
	}
	scheme := strings.ToLower(parsed.Scheme)
	if (scheme != "http" && scheme != "https") || parsed.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidBaseURL, raw)
	}
	return parsed, nil
}

// ResolveLocales trims the requested locales, splits comma-joined entries,
// keeps only supported ones and drops duplicates, preserving request order.
func ResolveLocales(requested, supported []string) ([]string, error) {
	allowed := make(map[string]struct{}, len(supported))
	for _, locale := range supported {
		allowed[locale] = struct{}{}
	}

	seen := make(map[string]struct{})
	var out []string
	for _, entry := range requested {
		for _, locale := range strings.Split(entry, ",") {
			locale = strings.TrimSpace(locale)
			if _, ok := allowed[locale]; !ok {
				continue
			}
			if _, dup := seen[locale]; dup {
				continue
			}
			seen[locale] = struct{}{}
			out = append(out, locale)
		}
	}

	if len(out) == 0 {
		return nil, fmt.Errorf("%w: supported values: %s", ErrNoSupportedLocales, strings.Join(supported, ", "))
	}
	return out, nil
}

// Base returns the parsed origin. It is only valid after Load.
func (c Config) Base() *url.URL {
	base, err := url.Parse(c.Site.BaseURL)
	if err != nil {
		return &url.URL{}
	}
	return base
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Audit.MaxDepth < 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidMaxDepth, c.Audit.MaxDepth)
	}
	if !contains(policy.DefaultLocales, c.Site.DefaultLocale) {
		return fmt.Errorf("site.default_locale %q is not a supported locale", c.Site.DefaultLocale)
	}
	if c.Audit.RequestTimeout < 0 {
		return errors.New("audit.request_timeout must be >= 0")
	}
	if c.Audit.RateLimitRPS < 0 {
		return errors.New("audit.rate_limit_rps must be >= 0")
	}

	switch c.Content.Provider {
	case ContentProviderFile:
		if strings.TrimSpace(c.Content.SiteContentPath) == "" {
			return errors.New("content.site_content_path is required for the file provider")
		}
	case ContentProviderPostgres:
		if strings.TrimSpace(c.Content.Postgres.DSN) == "" {
			return errors.New("content.postgres.dsn is required for the postgres provider")
		}
	default:
		return fmt.Errorf("content.provider %q is not supported", c.Content.Provider)
	}

	switch c.Report.Provider {
	case ReportProviderLocal:
		if strings.TrimSpace(c.Report.Dir) == "" {
			return errors.New("report.dir is required for the local provider")
		}
	case ReportProviderGCS:
		if strings.TrimSpace(c.Report.GCS.Bucket) == "" {
			return errors.New("report.gcs.bucket is required for the gcs provider")
		}
	case ReportProviderMemory:
	default:
		return fmt.Errorf("report.provider %q is not supported", c.Report.Provider)
	}
	if c.Report.FailureListingLimit < 0 {
		return errors.New("report.failure_listing_limit must be >= 0")
	}

	if c.Notify.PubSub.Enabled() && c.Notify.PubSub.ProjectID == "" {
		return errors.New("notify.pubsub.project_id must be set when notify.pubsub.topic is set")
	}
	return nil
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
