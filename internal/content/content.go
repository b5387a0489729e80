// Package content reads the blog and category metadata that determine which
// pages a site is expected to publish.
package content

import (
	"context"
	"strings"
)

// PostStatusPublished marks a blog post visible on the live site.
const PostStatusPublished = "published"

// BlogPost is the subset of blog metadata the audit needs.
type BlogPost struct {
	Slug   string `json:"slug" yaml:"slug"`
	Status string `json:"status" yaml:"status"`
}

// Category is a product category page under a segment ("auto", "moto").
type Category struct {
	Segment string `json:"segment" yaml:"segment"`
	Slug    string `json:"slug" yaml:"slug"`
}

// Content is one read of the content store.
type Content struct {
	Posts      []BlogPost
	Categories []Category
}

// Reader provides read-only access to site content.
type Reader interface {
	Read(ctx context.Context) (Content, error)
}

// PublishedSlugs returns the non-empty slugs of published posts in store
// order. Drafts and any other status are excluded.
func (c Content) PublishedSlugs() []string {
	out := make([]string, 0, len(c.Posts))
	for _, post := range c.Posts {
		if post.Status != PostStatusPublished {
			continue
		}
		slug := strings.TrimSpace(post.Slug)
		if slug == "" {
			continue
		}
		out = append(out, slug)
	}
	return out
}

// DefaultPosts is the built-in blog, used when the site-content document is
// unavailable or has no blog section.
var DefaultPosts = []BlogPost{
	{Slug: "darwinpro-bmw8-widetrack", Status: PostStatusPublished},
	{Slug: "3d-design-bmw-exhaust-tips", Status: PostStatusPublished},
	{Slug: "urban-range-rover-widetrack", Status: PostStatusPublished},
	{Slug: "brabus-performance", Status: PostStatusPublished},
	{Slug: "ct-carbon-rsq8", Status: PostStatusPublished},
	{Slug: "ipe-exhaust-valvetronic", Status: PostStatusPublished},
	{Slug: "eventuri-intake", Status: PostStatusPublished},
	{Slug: "adro-bmw-g8x-carbon", Status: PostStatusPublished},
	{Slug: "akrapovic-titanium", Status: PostStatusPublished},
	{Slug: "onecompany-premium-import", Status: PostStatusPublished},
}

// DefaultCategories is the built-in category catalog.
var DefaultCategories = []Category{
	{Segment: "auto", Slug: "exhaust"},
	{Segment: "auto", Slug: "suspension"},
	{Segment: "auto", Slug: "wheels"},
	{Segment: "auto", Slug: "brakes"},
	{Segment: "auto", Slug: "intake"},
	{Segment: "auto", Slug: "interior"},
	{Segment: "auto", Slug: "performance"},
}

// Static is a fixed Reader, used for dry runs and tests.
type Static Content

// Read returns the fixed content.
func (s Static) Read(context.Context) (Content, error) {
	return Content(s), nil
}
