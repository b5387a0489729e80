// Package local_test tests the local filesystem blob store.
package local_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/site-structure-audit/internal/storage/local"
)

func TestNew(t *testing.T) {
	t.Run("ExistingDir", func(t *testing.T) {
		tempDir := t.TempDir()
		store, err := local.New(local.Config{Dir: tempDir})
		require.NoError(t, err)
		assert.Equal(t, tempDir, store.Dir())
	})

	t.Run("CreatesMissingDir", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "reports", "nested")
		_, err := local.New(local.Config{Dir: dir})
		require.NoError(t, err)
		info, err := os.Stat(dir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	})

	t.Run("MissingDir", func(t *testing.T) {
		_, err := local.New(local.Config{})
		assert.Error(t, err)
	})

	t.Run("DirIsAFile", func(t *testing.T) {
		file := filepath.Join(t.TempDir(), "report.json")
		require.NoError(t, os.WriteFile(file, []byte("{}"), 0o600))

		_, err := local.New(local.Config{Dir: file})
		assert.Error(t, err)
	})

	t.Run("DirNotWritable", func(t *testing.T) {
		if os.Geteuid() == 0 {
			t.Skip("root ignores directory permissions")
		}
		tempDir := t.TempDir()
		// #nosec G302 -- directory permissions adjusted intentionally for test coverage.
		require.NoError(t, os.Chmod(tempDir, 0o500))
		t.Cleanup(func() {
			// #nosec G302 -- reverting permissions to allow cleanup in the test environment.
			_ = os.Chmod(tempDir, 0o700)
		})

		_, err := local.New(local.Config{Dir: tempDir})
		assert.Error(t, err)
	})
}

func TestPutObject(t *testing.T) {
	tempDir := t.TempDir()
	store, err := local.New(local.Config{Dir: tempDir})
	require.NoError(t, err)

	t.Run("WritesFile", func(t *testing.T) {
		uri, err := store.PutObject(context.Background(), "seo-structure-report.csv", "text/csv", strings.NewReader(`"url"`))
		require.NoError(t, err)

		fullPath := filepath.Join(tempDir, "seo-structure-report.csv")
		assert.Equal(t, "file://"+fullPath, uri)

		// #nosec G304 -- test reads from the controlled temp directory.
		data, err := os.ReadFile(fullPath)
		require.NoError(t, err)
		assert.Equal(t, `"url"`, string(data))
	})

	t.Run("CreatesSubdirectories", func(t *testing.T) {
		_, err := store.PutObject(context.Background(), "runs/1/report.json", "application/json", strings.NewReader("{}"))
		require.NoError(t, err)
		assert.FileExists(t, filepath.Join(tempDir, "runs", "1", "report.json"))
	})

	t.Run("EmptyPath", func(t *testing.T) {
		_, err := store.PutObject(context.Background(), " ", "", strings.NewReader(""))
		assert.Error(t, err)
	})

	t.Run("PathTraversal", func(t *testing.T) {
		_, err := store.PutObject(context.Background(), "../outside.json", "", strings.NewReader("{}"))
		assert.Error(t, err)
	})
}
