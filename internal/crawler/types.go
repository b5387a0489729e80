package crawler

import "github.com/JakeFAU/site-structure-audit/internal/urlnorm"

// FetchedPage is everything observed about one URL by a single GET.
type FetchedPage struct {
	// Status is the HTTP status code, or 0 when the request itself failed.
	Status int
	// RedirectTarget is the normalized Location header, empty without one.
	RedirectTarget string
	// Canonical is the first rel=canonical href, empty when absent.
	Canonical string
	// HreflangMap maps a lowercase hreflang tag to its normalized target.
	HreflangMap map[string]string
	// XRobotsTag holds the X-Robots-Tag header. For failed requests it holds
	// "fetch-error: <reason>" since status 0 already marks the page unreachable.
	XRobotsTag string
	// MetaRobots is the raw content of the robots (or googlebot) meta tag.
	MetaRobots string
	// Outlinks are de-duplicated same-origin page links in document order.
	Outlinks []string
}

// FetchErrorPage builds the record for a request that produced no response.
func FetchErrorPage(err error) FetchedPage {
	return FetchedPage{
		XRobotsTag:  "fetch-error: " + err.Error(),
		HreflangMap: map[string]string{},
	}
}

// QueueItem is one pending BFS entry.
type QueueItem struct {
	URL   string
	Depth int
}

// Result is the outcome of one crawl. All keys are normalized URLs.
type Result struct {
	Pages map[string]FetchedPage
	// Inlinks maps a target to the set of distinct pages linking to it.
	Inlinks map[string]urlnorm.Set
	Visited urlnorm.Set
}

// InlinkCount returns the number of distinct pages linking to u.
func (r Result) InlinkCount(u string) int {
	return len(r.Inlinks[u])
}
