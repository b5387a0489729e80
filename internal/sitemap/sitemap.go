// Package sitemap reads a site's XML sitemap, following sitemap indexes,
// into the set of URLs the site declares.
package sitemap

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/JakeFAU/site-structure-audit/internal/metrics"
	"github.com/JakeFAU/site-structure-audit/internal/urlnorm"
)

// ErrSitemapUnavailable is returned when any sitemap document cannot be read.
var ErrSitemapUnavailable = errors.New("sitemap unavailable")

// Getter performs a plain GET, following redirects.
type Getter interface {
	Get(ctx context.Context, rawURL string) (int, []byte, error)
}

var locPattern = regexp.MustCompile(`<loc>([^<]+)</loc>`)

const indexMarker = "<sitemapindex"

var entityReplacer = strings.NewReplacer(
	"&amp;", "&",
	"&lt;", "<",
	"&gt;", ">",
	"&quot;", `"`,
	"&#39;", "'",
)

// Reader collects page URLs from a sitemap tree.
type Reader struct {
	getter Getter
	logger *zap.Logger
}

// NewReader returns a Reader that fetches documents with getter.
func NewReader(getter Getter, logger *zap.Logger) *Reader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reader{getter: getter, logger: logger}
}

// Collect reads {origin}/sitemap.xml and every sitemap it references.
// Each sitemap URL is fetched at most once, so index cycles terminate.
func (r *Reader) Collect(ctx context.Context, base *url.URL) (urlnorm.Set, error) {
	pages := urlnorm.NewSet()
	visited := urlnorm.NewSet()
	pending := []string{urlnorm.Origin(base) + "/sitemap.xml"}

	for len(pending) > 0 {
		current := pending[0]
		pending = pending[1:]
		if visited.Has(current) {
			continue
		}
		visited.Add(current)

		locs, isIndex, err := r.read(ctx, current)
		if err != nil {
			r.logger.Error("sitemap read failed", zap.String("sitemap", current), zap.Error(err))
			return nil, err
		}

		for _, loc := range locs {
			normalized, ok := urlnorm.NormalizeAbsolute(loc, base)
			if !ok {
				continue
			}
			if isIndex {
				pending = append(pending, normalized)
				continue
			}
			pages.Add(normalized)
		}
	}

	r.logger.Debug("sitemap collected", zap.Int("urls", len(pages)), zap.Int("sitemaps", len(visited)))
	return pages, nil
}

func (r *Reader) read(ctx context.Context, sitemapURL string) ([]string, bool, error) {
	status, body, err := r.getter.Get(ctx, sitemapURL)
	metrics.ObserveSitemap()
	if err != nil {
		return nil, false, fmt.Errorf("%w: %s: %w", ErrSitemapUnavailable, sitemapURL, err)
	}
	if status < 200 || status >= 300 {
		return nil, false, fmt.Errorf("%w: %s: status %d", ErrSitemapUnavailable, sitemapURL, status)
	}

	xml := string(body)
	return ExtractLocs(xml), strings.Contains(xml, indexMarker), nil
}

// ExtractLocs returns the trimmed, entity-decoded <loc> values of a sitemap
// document in document order. Empty values are skipped.
func ExtractLocs(xml string) []string {
	matches := locPattern.FindAllStringSubmatch(xml, -1)
	locs := make([]string, 0, len(matches))
	for _, match := range matches {
		value := DecodeEntities(strings.TrimSpace(match[1]))
		if value == "" {
			continue
		}
		locs = append(locs, value)
	}
	return locs
}

// DecodeEntities replaces the five predefined XML entities.
func DecodeEntities(value string) string {
	return entityReplacer.Replace(value)
}
