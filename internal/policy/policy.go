// Package policy classifies site pathnames for indexing and exposes the
// locale helpers the audit uses to derive hreflang peers.
package policy

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/JakeFAU/site-structure-audit/internal/urlnorm"
)

// Config describes a site's indexing policy.
type Config struct {
	// Locales are the site's internal locale keys, in hreflang output order.
	Locales       []string
	DefaultLocale string
	// HreflangTags maps an internal locale key to its external IETF tag.
	// Locales without an entry use their key unchanged.
	HreflangTags      map[string]string
	IndexablePatterns []string
	NoindexPatterns   []string
	// StaticSlugs are appended to "/{locale}" to build expected pages; "" is
	// the locale home page.
	StaticSlugs []string
	// PublicPrefixes are locale-agnostic entry paths that redirect into a locale.
	PublicPrefixes  []string
	NoindexPrefixes []string
}

// Policy is a compiled indexing policy. It is read-only after construction.
type Policy struct {
	cfg       Config
	indexable []*regexp.Regexp
	noindex   []*regexp.Regexp
	locales   map[string]struct{}
}

// New compiles cfg.
func New(cfg Config) (*Policy, error) {
	if len(cfg.Locales) == 0 {
		return nil, fmt.Errorf("policy requires at least one locale")
	}
	if cfg.DefaultLocale == "" {
		cfg.DefaultLocale = cfg.Locales[0]
	}
	p := &Policy{cfg: cfg, locales: make(map[string]struct{}, len(cfg.Locales))}
	for _, l := range cfg.Locales {
		p.locales[l] = struct{}{}
	}
	if _, ok := p.locales[cfg.DefaultLocale]; !ok {
		return nil, fmt.Errorf("default locale %q is not a supported locale", cfg.DefaultLocale)
	}
	var err error
	if p.indexable, err = compileAll(cfg.IndexablePatterns); err != nil {
		return nil, fmt.Errorf("indexable patterns: %w", err)
	}
	if p.noindex, err = compileAll(cfg.NoindexPatterns); err != nil {
		return nil, fmt.Errorf("noindex patterns: %w", err)
	}
	return p, nil
}

func compileAll(patterns []string) ([]*regexp.Regexp, error) {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, raw := range patterns {
		re, err := regexp.Compile(raw)
		if err != nil {
			return nil, fmt.Errorf("compile %q: %w", raw, err)
		}
		out = append(out, re)
	}
	return out, nil
}

// IsNoindexPath reports whether pathname lies in a zone that must carry a
// noindex signal.
func (p *Policy) IsNoindexPath(pathname string) bool {
	normalized := urlnorm.NormalizePathname(pathname)
	for _, re := range p.noindex {
		if re.MatchString(normalized) {
			return true
		}
	}
	return false
}

// IsIndexablePath reports whether pathname should be indexed. Noindex zones
// take precedence: a path matching both lists is never indexable.
func (p *Policy) IsIndexablePath(pathname string) bool {
	normalized := urlnorm.NormalizePathname(pathname)
	if p.IsNoindexPath(normalized) {
		return false
	}
	for _, re := range p.indexable {
		if re.MatchString(normalized) {
			return true
		}
	}
	return false
}

// IndexablePatterns returns the indexable pattern sources.
func (p *Policy) IndexablePatterns() []string {
	return append([]string(nil), p.cfg.IndexablePatterns...)
}

// NoindexPatterns returns the noindex pattern sources.
func (p *Policy) NoindexPatterns() []string {
	return append([]string(nil), p.cfg.NoindexPatterns...)
}

// Locales returns the supported locale keys.
func (p *Policy) Locales() []string {
	return append([]string(nil), p.cfg.Locales...)
}

// DefaultLocale returns the locale used for x-default alternates.
func (p *Policy) DefaultLocale() string {
	return p.cfg.DefaultLocale
}

// StaticSlugs returns the per-locale static page slugs.
func (p *Policy) StaticSlugs() []string {
	return append([]string(nil), p.cfg.StaticSlugs...)
}

// PublicPrefixes returns locale-agnostic public paths.
func (p *Policy) PublicPrefixes() []string {
	return append([]string(nil), p.cfg.PublicPrefixes...)
}

// NoindexPrefixes returns the service path prefixes.
func (p *Policy) NoindexPrefixes() []string {
	return append([]string(nil), p.cfg.NoindexPrefixes...)
}

// HreflangTag maps an internal locale key to its hreflang tag.
func (p *Policy) HreflangTag(locale string) string {
	if tag, ok := p.cfg.HreflangTags[locale]; ok {
		return tag
	}
	return locale
}

// IsSupportedLocale reports whether locale is one of the policy's locales.
func (p *Policy) IsSupportedLocale(locale string) bool {
	_, ok := p.locales[locale]
	return ok
}

// ExtractLocale returns the locale prefix of pathname, if any.
func (p *Policy) ExtractLocale(pathname string) (string, bool) {
	normalized := urlnorm.NormalizePathname(pathname)
	first := strings.TrimPrefix(normalized, "/")
	if i := strings.IndexByte(first, '/'); i >= 0 {
		first = first[:i]
	}
	if !p.IsSupportedLocale(first) {
		return "", false
	}
	return first, true
}

// StripLocale removes a leading locale segment; the root is returned as "/".
func (p *Policy) StripLocale(pathname string) string {
	normalized := urlnorm.NormalizePathname(pathname)
	locale, ok := p.ExtractLocale(normalized)
	if !ok {
		return normalized
	}
	stripped := strings.TrimPrefix(normalized, "/"+locale)
	if stripped == "" {
		return "/"
	}
	return stripped
}

// PeerLocalePath returns pathname rewritten under target. Paths without a
// locale prefix are prefixed.
func (p *Policy) PeerLocalePath(pathname, target string) string {
	stripped := p.StripLocale(pathname)
	if stripped == "/" {
		return "/" + target
	}
	return "/" + target + stripped
}

// LocalizedPath joins a locale and a slug into a normalized pathname.
func LocalizedPath(locale, slug string) string {
	return urlnorm.NormalizePathname("/" + locale + slug)
}
