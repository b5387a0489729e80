// Package audit merges crawl, sitemap and expected-URL data into one report
// row per URL.
package audit

import (
	"strings"

	"github.com/JakeFAU/site-structure-audit/internal/crawler"
	"github.com/JakeFAU/site-structure-audit/internal/urlnorm"
)

// Classifier answers the policy questions a row depends on.
type Classifier interface {
	IsIndexablePath(pathname string) bool
	IsNoindexPath(pathname string) bool
}

// Row is the per-URL record written to the report.
type Row struct {
	URL                     string            `json:"url"`
	Status                  int               `json:"status"`
	RedirectTarget          string            `json:"redirect_target"`
	Canonical               string            `json:"canonical"`
	HreflangMap             map[string]string `json:"hreflang_map"`
	XRobotsTag              string            `json:"x_robots_tag"`
	MetaRobots              string            `json:"meta_robots"`
	InSitemap               bool              `json:"in_sitemap"`
	InlinkCount             int               `json:"inlink_count"`
	IsOrphan                bool              `json:"is_orphan"`
	DuplicateCanonicalGroup string            `json:"duplicate_canonical_group"`
}

// Input is everything gathered before rows are assembled.
type Input struct {
	Crawl    crawler.Result
	Sitemap  urlnorm.Set
	Expected urlnorm.Set
}

// IsSuccess reports whether status is in [200,300).
func IsSuccess(status int) bool {
	return status >= 200 && status < 300
}

// HasNoindexSignal reports whether either robots signal contains "noindex".
func HasNoindexSignal(metaRobots, xRobotsTag string) bool {
	return strings.Contains(strings.ToLower(metaRobots+","+xRobotsTag), "noindex")
}

// IsIndexable reports whether the row's path is indexable by policy, it
// answered with a 2xx status and it carries no noindex signal.
func IsIndexable(row Row, classifier Classifier) bool {
	if !classifier.IsIndexablePath(urlnorm.Pathname(row.URL)) {
		return false
	}
	if !IsSuccess(row.Status) {
		return false
	}
	return !HasNoindexSignal(row.MetaRobots, row.XRobotsTag)
}

// BuildRows returns one row per URL in crawled ∪ sitemap ∪ expected, sorted
// by URL. URLs that were never fetched get zero-valued page fields.
func BuildRows(in Input, classifier Classifier) []Row {
	all := urlnorm.NewSet()
	for u := range in.Crawl.Pages {
		all.Add(u)
	}
	for u := range in.Sitemap {
		all.Add(u)
	}
	for u := range in.Expected {
		all.Add(u)
	}

	urls := all.Sorted()
	rows := make([]Row, 0, len(urls))
	for _, u := range urls {
		page := in.Crawl.Pages[u]
		hreflang := make(map[string]string, len(page.HreflangMap))
		for tag, href := range page.HreflangMap {
			hreflang[tag] = href
		}
		row := Row{
			URL:            u,
			Status:         page.Status,
			RedirectTarget: page.RedirectTarget,
			Canonical:      page.Canonical,
			HreflangMap:    hreflang,
			XRobotsTag:     page.XRobotsTag,
			MetaRobots:     page.MetaRobots,
			InSitemap:      in.Sitemap.Has(u),
			InlinkCount:    in.Crawl.InlinkCount(u),
		}
		row.IsOrphan = row.InlinkCount == 0 && IsIndexable(row, classifier)
		rows = append(rows, row)
	}

	markDuplicateCanonicals(rows)
	return rows
}

func markDuplicateCanonicals(rows []Row) {
	groups := make(map[string]int)
	for _, row := range rows {
		if row.Canonical != "" {
			groups[row.Canonical]++
		}
	}
	for i := range rows {
		if rows[i].Canonical != "" && groups[rows[i].Canonical] > 1 {
			rows[i].DuplicateCanonicalGroup = rows[i].Canonical
		}
	}
}

// Summary holds the report's headline counts.
type Summary struct {
	CrawledURLs           int `json:"crawled_urls"`
	ExpectedIndexableURLs int `json:"expected_indexable_urls"`
	SitemapURLs           int `json:"sitemap_urls"`
	ReportRows            int `json:"report_rows"`
	OrphanIndexableURLs   int `json:"orphan_indexable_urls"`
	GateFailures          int `json:"gate_failures"`
}

// Summarize counts in and rows. GateFailures is left for the caller.
func Summarize(in Input, rows []Row) Summary {
	orphans := 0
	for _, row := range rows {
		if row.IsOrphan {
			orphans++
		}
	}
	return Summary{
		CrawledURLs:           len(in.Crawl.Pages),
		ExpectedIndexableURLs: len(in.Expected),
		SitemapURLs:           len(in.Sitemap),
		ReportRows:            len(rows),
		OrphanIndexableURLs:   orphans,
	}
}

// Index maps each row's URL to its position in rows.
func Index(rows []Row) map[string]int {
	out := make(map[string]int, len(rows))
	for i, row := range rows {
		out[row.URL] = i
	}
	return out
}
