package audit

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/site-structure-audit/internal/crawler"
	"github.com/JakeFAU/site-structure-audit/internal/policy"
	"github.com/JakeFAU/site-structure-audit/internal/urlnorm"
)

type prefixClassifier struct{}

func (prefixClassifier) IsIndexablePath(pathname string) bool {
	return strings.HasPrefix(pathname, "/ua") || strings.HasPrefix(pathname, "/en")
}

func (prefixClassifier) IsNoindexPath(pathname string) bool {
	return strings.HasPrefix(pathname, "/admin")
}

func TestIsIndexable(t *testing.T) {
	testCases := []struct {
		name string
		row  Row
		want bool
	}{
		{"ok", Row{URL: "https://x.com/ua", Status: 200}, true},
		{"path outside policy", Row{URL: "https://x.com/admin", Status: 200}, false},
		{"redirect", Row{URL: "https://x.com/ua", Status: 301}, false},
		{"unreachable", Row{URL: "https://x.com/ua", Status: 0}, false},
		{"meta noindex", Row{URL: "https://x.com/ua", Status: 200, MetaRobots: "NoIndex, follow"}, false},
		{"header noindex", Row{URL: "https://x.com/ua", Status: 204, XRobotsTag: "noindex"}, false},
		{"index follow", Row{URL: "https://x.com/en", Status: 200, MetaRobots: "index,follow"}, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, IsIndexable(tc.row, prefixClassifier{}))
		})
	}
}

func TestBuildRows(t *testing.T) {
	in := Input{
		Crawl: crawler.Result{
			Pages: map[string]crawler.FetchedPage{
				"https://x.com/ua":       {Status: 200, Canonical: "https://x.com/ua", HreflangMap: map[string]string{"uk": "https://x.com/ua"}},
				"https://x.com/ua/about": {Status: 200, Canonical: "https://x.com/ua"},
				"https://x.com/admin":    {Status: 200},
			},
			Inlinks: map[string]urlnorm.Set{
				"https://x.com/ua/about": urlnorm.NewSet("https://x.com/ua"),
			},
		},
		Sitemap:  urlnorm.NewSet("https://x.com/ua", "https://x.com/en"),
		Expected: urlnorm.NewSet("https://x.com/ua", "https://x.com/en/blog/post"),
	}

	rows := BuildRows(in, prefixClassifier{})
	require.Len(t, rows, 5)

	urls := make([]string, 0, len(rows))
	for _, row := range rows {
		urls = append(urls, row.URL)
	}
	assert.Equal(t, []string{
		"https://x.com/admin",
		"https://x.com/en",
		"https://x.com/en/blog/post",
		"https://x.com/ua",
		"https://x.com/ua/about",
	}, urls)

	byURL := Index(rows)

	en := rows[byURL["https://x.com/en"]]
	assert.Equal(t, 0, en.Status)
	assert.True(t, en.InSitemap)
	assert.NotNil(t, en.HreflangMap)
	assert.False(t, en.IsOrphan, "unreachable URLs are never indexable")

	ua := rows[byURL["https://x.com/ua"]]
	assert.True(t, ua.IsOrphan)
	assert.Equal(t, "https://x.com/ua", ua.DuplicateCanonicalGroup)

	about := rows[byURL["https://x.com/ua/about"]]
	assert.Equal(t, 1, about.InlinkCount)
	assert.False(t, about.IsOrphan)
	assert.False(t, about.InSitemap)
	assert.Equal(t, "https://x.com/ua", about.DuplicateCanonicalGroup)

	admin := rows[byURL["https://x.com/admin"]]
	assert.False(t, admin.IsOrphan)
	assert.Empty(t, admin.DuplicateCanonicalGroup)
}

func TestBuildRowsCopiesHreflang(t *testing.T) {
	page := crawler.FetchedPage{Status: 200, HreflangMap: map[string]string{"en": "https://x.com/en"}}
	in := Input{Crawl: crawler.Result{Pages: map[string]crawler.FetchedPage{"https://x.com/en": page}}}

	rows := BuildRows(in, policy.Default())
	rows[0].HreflangMap["en"] = "changed"
	assert.Equal(t, "https://x.com/en", page.HreflangMap["en"])
}

func TestSummarize(t *testing.T) {
	in := Input{
		Crawl: crawler.Result{Pages: map[string]crawler.FetchedPage{
			"https://x.com/ua": {Status: 200},
			"https://x.com/en": {Status: 200},
		}},
		Sitemap:  urlnorm.NewSet("https://x.com/ua"),
		Expected: urlnorm.NewSet("https://x.com/ua", "https://x.com/en", "https://x.com/en/about"),
	}
	rows := BuildRows(in, prefixClassifier{})

	got := Summarize(in, rows)
	assert.Equal(t, Summary{
		CrawledURLs:           2,
		ExpectedIndexableURLs: 3,
		SitemapURLs:           1,
		ReportRows:            3,
		OrphanIndexableURLs:   2,
	}, got)
}

func TestHasNoindexSignal(t *testing.T) {
	assert.True(t, HasNoindexSignal("", "NOINDEX"))
	assert.True(t, HasNoindexSignal("noindex,nofollow", ""))
	assert.False(t, HasNoindexSignal("index", "all"))
}
