// Package expected derives the set of URLs a site must publish and index
// from the policy's static slugs and the content store.
package expected

import (
	"context"
	"fmt"
	"net/url"

	"github.com/JakeFAU/site-structure-audit/internal/content"
	"github.com/JakeFAU/site-structure-audit/internal/policy"
	"github.com/JakeFAU/site-structure-audit/internal/urlnorm"
)

// SlugSource lists the static slugs every locale publishes.
type SlugSource interface {
	StaticSlugs() []string
}

// Build returns the expected indexable URLs for locales. Per locale it adds
// every static slug, every category page and every published blog post.
func Build(ctx context.Context, base *url.URL, locales []string, slugs SlugSource, reader content.Reader) (urlnorm.Set, error) {
	siteContent, err := reader.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("read site content: %w", err)
	}

	origin := urlnorm.Origin(base)
	published := siteContent.PublishedSlugs()
	out := urlnorm.NewSet()

	for _, locale := range locales {
		for _, slug := range slugs.StaticSlugs() {
			out.Add(origin + policy.LocalizedPath(locale, slug))
		}
		for _, category := range siteContent.Categories {
			out.Add(origin + CategoryPath(locale, category))
		}
		for _, slug := range published {
			out.Add(origin + BlogPostPath(locale, slug))
		}
	}
	return out, nil
}

// CategoryPath is the pathname of a category page.
func CategoryPath(locale string, category content.Category) string {
	return urlnorm.NormalizePathname("/" + locale + "/" + category.Segment + "/categories/" + category.Slug)
}

// BlogPostPath is the pathname of a blog post.
func BlogPostPath(locale, slug string) string {
	return urlnorm.NormalizePathname("/" + locale + "/blog/" + slug)
}
