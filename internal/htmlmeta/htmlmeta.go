// Package htmlmeta extracts the indexing signals of an HTML document:
// canonical link, hreflang alternates, robots meta and internal anchors.
package htmlmeta

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/JakeFAU/site-structure-audit/internal/urlnorm"
)

// Meta holds the signals found in one document.
type Meta struct {
	Canonical  string
	Hreflang   map[string]string
	MetaRobots string
	Outlinks   []string
}

// Parse reads body as HTML. Canonical and hreflang hrefs resolve against
// pageURL; anchors resolve against base and are kept only when internal.
func Parse(body []byte, pageURL, base *url.URL) (Meta, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return Meta{}, fmt.Errorf("parse html: %w", err)
	}
	return Extract(doc, pageURL, base), nil
}

// Extract reads the signals from an already parsed document.
func Extract(doc *goquery.Document, pageURL, base *url.URL) Meta {
	meta := Meta{Hreflang: map[string]string{}}

	if href, ok := doc.Find(`link[rel="canonical"]`).First().Attr("href"); ok && href != "" {
		if normalized, ok := urlnorm.NormalizeAbsolute(href, pageURL); ok {
			meta.Canonical = normalized
		} else {
			meta.Canonical = href
		}
	}

	doc.Find(`link[rel="alternate"][hreflang]`).Each(func(_ int, s *goquery.Selection) {
		tag := strings.ToLower(strings.TrimSpace(s.AttrOr("hreflang", "")))
		href := strings.TrimSpace(s.AttrOr("href", ""))
		if tag == "" || href == "" {
			return
		}
		if normalized, ok := urlnorm.NormalizeAbsolute(href, pageURL); ok {
			meta.Hreflang[tag] = normalized
		}
	})

	meta.MetaRobots = strings.TrimSpace(firstContent(doc, `meta[name="robots"]`, `meta[name="googlebot"]`))

	seen := urlnorm.Set{}
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href := strings.TrimSpace(s.AttrOr("href", ""))
		if href == "" {
			return
		}
		normalized, ok := urlnorm.NormalizeInternal(href, anchorBase(pageURL, base))
		if !ok || seen.Has(normalized) {
			return
		}
		seen.Add(normalized)
		meta.Outlinks = append(meta.Outlinks, normalized)
	})

	return meta
}

// firstContent returns the content of the first selector that matches an
// element carrying a content attribute.
func firstContent(doc *goquery.Document, selectors ...string) string {
	for _, sel := range selectors {
		if content, ok := doc.Find(sel).First().Attr("content"); ok {
			return content
		}
	}
	return ""
}

// anchorBase is the run base; pageURL stands in only when no base is given.
func anchorBase(pageURL, base *url.URL) *url.URL {
	if base == nil {
		return pageURL
	}
	return base
}
