package content

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishedSlugsExcludesDrafts(t *testing.T) {
	t.Parallel()

	c := Content{Posts: []BlogPost{
		{Slug: "launch", Status: "published"},
		{Slug: "secret", Status: "draft"},
		{Slug: "", Status: "published"},
		{Slug: "  spaced  ", Status: "published"},
		{Slug: "archived", Status: "archived"},
	}}
	assert.Equal(t, []string{"launch", "spaced"}, c.PublishedSlugs())
}

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestFileStoreRead(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	sitePath := writeFile(t, dir, "site-content.json", `{
		"hero": {"title": "ignored"},
		"blog": {"posts": [
			{"slug": "first", "status": "published", "title": "x"},
			{"slug": "wip", "status": "draft"}
		]}
	}`)

	t.Run("DefaultCategories", func(t *testing.T) {
		store, err := NewFileStore(sitePath, "", nil)
		require.NoError(t, err)
		got, err := store.Read(context.Background())
		require.NoError(t, err)
		assert.Len(t, got.Posts, 2)
		assert.Equal(t, DefaultCategories, got.Categories)
	})

	t.Run("YAMLCategories", func(t *testing.T) {
		catPath := writeFile(t, dir, "categories.yaml", "categories:\n  - segment: moto\n    slug: exhaust\n")
		store, err := NewFileStore(sitePath, catPath, nil)
		require.NoError(t, err)
		got, err := store.Read(context.Background())
		require.NoError(t, err)
		assert.Equal(t, []Category{{Segment: "moto", Slug: "exhaust"}}, got.Categories)
	})

	t.Run("IncompleteCategory", func(t *testing.T) {
		catPath := writeFile(t, dir, "bad.yaml", "categories:\n  - segment: moto\n")
		store, err := NewFileStore(sitePath, catPath, nil)
		require.NoError(t, err)
		_, err = store.Read(context.Background())
		assert.Error(t, err)
	})

	t.Run("MissingFileUsesDefaultPosts", func(t *testing.T) {
		store, err := NewFileStore(filepath.Join(dir, "nope.json"), "", nil)
		require.NoError(t, err)
		got, err := store.Read(context.Background())
		require.NoError(t, err)
		assert.Equal(t, DefaultPosts, got.Posts)
		assert.Len(t, got.PublishedSlugs(), len(DefaultPosts))
	})

	t.Run("MalformedJSONUsesDefaultPosts", func(t *testing.T) {
		bad := writeFile(t, dir, "bad.json", "{")
		store, err := NewFileStore(bad, "", nil)
		require.NoError(t, err)
		got, err := store.Read(context.Background())
		require.NoError(t, err)
		assert.Equal(t, DefaultPosts, got.Posts)
	})

	t.Run("NoBlogSectionUsesDefaultPosts", func(t *testing.T) {
		noBlog := writeFile(t, dir, "no-blog.json", `{"hero": {"title": "x"}}`)
		store, err := NewFileStore(noBlog, "", nil)
		require.NoError(t, err)
		got, err := store.Read(context.Background())
		require.NoError(t, err)
		assert.Equal(t, DefaultPosts, got.Posts)
	})

	t.Run("EmptyBlogIsKept", func(t *testing.T) {
		empty := writeFile(t, dir, "empty-blog.json", `{"blog": {"posts": []}}`)
		store, err := NewFileStore(empty, "", nil)
		require.NoError(t, err)
		got, err := store.Read(context.Background())
		require.NoError(t, err)
		assert.Empty(t, got.Posts)
	})
}

func TestNewFileStoreRequiresPath(t *testing.T) {
	t.Parallel()

	_, err := NewFileStore(" ", "", nil)
	assert.Error(t, err)
}

func TestStaticRead(t *testing.T) {
	t.Parallel()

	want := Content{Posts: []BlogPost{{Slug: "a", Status: "published"}}}
	got, err := Static(want).Read(context.Background())
	require.NoError(t, err)
	assert.Equal(t, want, got)
}
