// Package storage defines the blob store abstraction report artifacts are
// persisted through. Implementations live in the local, memory and gcs
// subpackages.
package storage

import (
	"context"
	"io"
)

// Content types of the report artifacts.
const (
	ContentTypeJSON = "application/json"
	ContentTypeCSV  = "text/csv; charset=utf-8"
)

// BlobStore persists one object and returns a URI identifying it.
type BlobStore interface {
	PutObject(ctx context.Context, path string, contentType string, r io.Reader) (string, error)
}
