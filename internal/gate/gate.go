// Package gate evaluates audit rows against the fixed set of indexing rules
// that decide whether a deployment passes.
package gate

import (
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/JakeFAU/site-structure-audit/internal/audit"
	"github.com/JakeFAU/site-structure-audit/internal/urlnorm"
)

// Rule identifies a gate check.
type Rule string

// The closed set of gate rules.
const (
	RuleMissingReportRow   Rule = "indexable-url-missing-report-row"
	RuleNot200             Rule = "indexable-url-not-200"
	RuleMissingSelfCanon   Rule = "indexable-url-missing-self-canonical"
	RuleMissingHreflang    Rule = "indexable-url-missing-hreflang-pair"
	RuleMissingInSitemap   Rule = "indexable-url-missing-in-sitemap"
	RuleOrphan             Rule = "indexable-url-orphan"
	RuleNoindexZoneLeaking Rule = "noindex-zone-missing-noindex-signal"
)

// XDefaultTag is the hreflang fallback key.
const XDefaultTag = "x-default"

// Failure is one rule violation.
type Failure struct {
	Rule    Rule   `json:"rule"`
	URL     string `json:"url"`
	Details string `json:"details"`
}

// String renders the console form of f.
func (f Failure) String() string {
	return fmt.Sprintf("[FAIL] %s :: %s :: %s", f.Rule, f.URL, f.Details)
}

// Policy is the subset of the indexing policy the gate consults.
type Policy interface {
	audit.Classifier
	Locales() []string
	DefaultLocale() string
	HreflangTag(locale string) string
	ExtractLocale(pathname string) (string, bool)
	StripLocale(pathname string) string
	PeerLocalePath(pathname, target string) string
}

// HreflangEntry is one expected tag/href pair.
type HreflangEntry struct {
	Tag  string
	Href string
}

// ExpectedHreflang returns the alternates a localized URL must declare: one
// per policy locale followed by x-default, which points at the default
// locale's variant. ok is false for URLs without a locale prefix.
func ExpectedHreflang(u string, base *url.URL, pol Policy) ([]HreflangEntry, bool) {
	pathname := urlnorm.Pathname(u)
	if _, ok := pol.ExtractLocale(pathname); !ok {
		return nil, false
	}
	origin := urlnorm.Origin(base)

	entries := make([]HreflangEntry, 0, len(pol.Locales())+1)
	for _, locale := range pol.Locales() {
		entries = append(entries, HreflangEntry{
			Tag:  pol.HreflangTag(locale),
			Href: origin + pol.PeerLocalePath(pathname, locale),
		})
	}
	entries = append(entries, HreflangEntry{
		Tag:  XDefaultTag,
		Href: origin + pol.PeerLocalePath(pathname, pol.DefaultLocale()),
	})
	return entries, true
}

// Evaluate runs every rule and returns the failures ordered by URL. Rules
// for one URL keep their evaluation order.
func Evaluate(rows []audit.Row, expected urlnorm.Set, base *url.URL, locales []string, pol Policy) []Failure {
	origin := urlnorm.Origin(base)
	byURL := audit.Index(rows)

	entryPoints := urlnorm.NewSet()
	for _, locale := range locales {
		entryPoints.Add(origin + "/" + locale)
	}

	targets := urlnorm.NewSet()
	for u := range expected {
		targets.Add(u)
	}
	for _, row := range rows {
		if audit.IsIndexable(row, pol) {
			targets.Add(row.URL)
		}
	}

	var failures []Failure
	for _, u := range targets.Sorted() {
		i, ok := byURL[u]
		if !ok {
			failures = append(failures, Failure{Rule: RuleMissingReportRow, URL: u, Details: "URL missing from audit rows."})
			continue
		}
		failures = append(failures, checkIndexable(rows[i], base, entryPoints, pol)...)
	}

	for _, row := range rows {
		if !pol.IsNoindexPath(urlnorm.Pathname(row.URL)) {
			continue
		}
		if audit.HasNoindexSignal(row.MetaRobots, row.XRobotsTag) {
			continue
		}
		failures = append(failures, Failure{
			Rule:    RuleNoindexZoneLeaking,
			URL:     row.URL,
			Details: "Service URL should emit noindex in meta robots or X-Robots-Tag.",
		})
	}

	sort.SliceStable(failures, func(a, b int) bool { return failures[a].URL < failures[b].URL })
	return failures
}

func checkIndexable(row audit.Row, base *url.URL, entryPoints urlnorm.Set, pol Policy) []Failure {
	if !audit.IsSuccess(row.Status) {
		return []Failure{{
			Rule:    RuleNot200,
			URL:     row.URL,
			Details: fmt.Sprintf("Expected indexable URL to return 200 but got %d.", row.Status),
		}}
	}

	var failures []Failure
	if row.Canonical != row.URL {
		actual := row.Canonical
		if actual == "" {
			actual = "(missing)"
		}
		failures = append(failures, Failure{
			Rule:    RuleMissingSelfCanon,
			URL:     row.URL,
			Details: fmt.Sprintf("Canonical mismatch. expected=%s actual=%s", row.URL, actual),
		})
	}

	if want, ok := ExpectedHreflang(row.URL, base, pol); ok && !hreflangMatches(row.HreflangMap, want) {
		failures = append(failures, Failure{
			Rule:    RuleMissingHreflang,
			URL:     row.URL,
			Details: "Expected hreflang " + formatHreflang(want),
		})
	}

	if !row.InSitemap {
		failures = append(failures, Failure{
			Rule:    RuleMissingInSitemap,
			URL:     row.URL,
			Details: "Indexable URL is absent in sitemap.",
		})
	}

	if row.IsOrphan && !entryPoints.Has(row.URL) {
		failures = append(failures, Failure{
			Rule:    RuleOrphan,
			URL:     row.URL,
			Details: "Indexable URL has zero internal inlinks.",
		})
	}
	return failures
}

func hreflangMatches(actual map[string]string, want []HreflangEntry) bool {
	for _, entry := range want {
		if actual[entry.Tag] != entry.Href {
			return false
		}
	}
	return true
}

func formatHreflang(entries []HreflangEntry) string {
	parts := make([]string, 0, len(entries))
	for _, entry := range entries {
		parts = append(parts, entry.Tag+"="+entry.Href)
	}
	return strings.Join(parts, ", ")
}
