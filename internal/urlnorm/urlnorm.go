// Package urlnorm reduces URLs and pathnames to the single canonical string
// form every other audit component compares and keys maps by.
package urlnorm

import (
	"net/url"
	"regexp"
	"sort"
	"strings"
)

// staticFilePattern matches a final path segment ending in a 2 to 8
// character extension (".jpg", ".xml", ...). Such paths are never crawled.
var staticFilePattern = regexp.MustCompile(`(?i)\.[a-z0-9]{2,8}$`)

// NormalizePathname strips any query or fragment, guarantees a leading slash
// and removes trailing slashes unless the result is the root path.
func NormalizePathname(pathname string) string {
	if i := strings.IndexAny(pathname, "?#"); i >= 0 {
		pathname = pathname[:i]
	}
	if pathname == "" {
		return "/"
	}
	if !strings.HasPrefix(pathname, "/") {
		pathname = "/" + pathname
	}
	trimmed := strings.TrimRight(pathname, "/")
	if trimmed == "" {
		return "/"
	}
	return trimmed
}

// Origin returns scheme://host for u with the scheme and host lowercased and
// the default port for the scheme removed.
func Origin(u *url.URL) string {
	scheme := strings.ToLower(u.Scheme)
	host := strings.ToLower(u.Host)
	if scheme == "http" {
		host = strings.TrimSuffix(host, ":80")
	}
	if scheme == "https" {
		host = strings.TrimSuffix(host, ":443")
	}
	return scheme + "://" + host
}

// SameOrigin reports whether a and b share an origin.
func SameOrigin(a, b *url.URL) bool {
	if a == nil || b == nil {
		return false
	}
	return Origin(a) == Origin(b)
}

// NormalizeAbsolute resolves raw against base and returns its canonical
// absolute form: http(s) only, no query, no fragment and no trailing slash
// unless the path is "/". The boolean is false for input that cannot be
// resolved; callers treat that as "skip", never as a failure.
func NormalizeAbsolute(raw string, base *url.URL) (string, bool) {
	ref, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", false
	}
	resolved := ref
	if base != nil {
		resolved = base.ResolveReference(ref)
	}
	scheme := strings.ToLower(resolved.Scheme)
	if scheme != "http" && scheme != "https" {
		return "", false
	}
	if resolved.Opaque != "" || resolved.Host == "" {
		return "", false
	}
	return Origin(resolved) + NormalizePathname(resolved.EscapedPath()), true
}

// NormalizeInternal is NormalizeAbsolute restricted to URLs on base's origin
// whose final segment does not look like a static file.
func NormalizeInternal(raw string, base *url.URL) (string, bool) {
	normalized, ok := NormalizeAbsolute(raw, base)
	if !ok || base == nil {
		return "", false
	}
	parsed, err := url.Parse(normalized)
	if err != nil {
		return "", false
	}
	if !SameOrigin(parsed, base) {
		return "", false
	}
	if staticFilePattern.MatchString(parsed.EscapedPath()) {
		return "", false
	}
	return normalized, true
}

// Pathname returns the normalized pathname of an already-normalized URL.
func Pathname(normalized string) string {
	parsed, err := url.Parse(normalized)
	if err != nil {
		return "/"
	}
	return NormalizePathname(parsed.EscapedPath())
}

// Set is a set of normalized URLs.
type Set map[string]struct{}

// NewSet builds a Set holding items.
func NewSet(items ...string) Set {
	s := make(Set, len(items))
	for _, item := range items {
		s.Add(item)
	}
	return s
}

// Add inserts u.
func (s Set) Add(u string) {
	s[u] = struct{}{}
}

// Has reports whether u is a member.
func (s Set) Has(u string) bool {
	_, ok := s[u]
	return ok
}

// Sorted returns the members in lexicographic order.
func (s Set) Sorted() []string {
	out := make([]string, 0, len(s))
	for u := range s {
		out = append(out, u)
	}
	sort.Strings(out)
	return out
}
