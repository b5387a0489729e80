package report

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/JakeFAU/site-structure-audit/internal/storage"
)

// Default artifact names.
const (
	DefaultJSONName = "seo-structure-report.json"
	DefaultCSVName  = "seo-structure-report.csv"
)

// Artifacts are the URIs of a persisted report.
type Artifacts struct {
	JSONURI string
	CSVURI  string
}

// URIs lists the artifact URIs in write order.
func (a Artifacts) URIs() []string {
	return []string{a.JSONURI, a.CSVURI}
}

// Sink persists a Document as a JSON and a CSV artifact.
type Sink struct {
	store    storage.BlobStore
	jsonName string
	csvName  string
	logger   *zap.Logger
}

// NewSink returns a Sink writing through store. Empty names fall back to
// the defaults.
func NewSink(store storage.BlobStore, jsonName, csvName string, logger *zap.Logger) (*Sink, error) {
	if store == nil {
		return nil, errors.New("blob store is required")
	}
	if jsonName == "" {
		jsonName = DefaultJSONName
	}
	if csvName == "" {
		csvName = DefaultCSVName
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sink{store: store, jsonName: jsonName, csvName: csvName, logger: logger}, nil
}

// Write encodes both artifacts before storing either, so an encoding error
// never leaves a partial report behind.
func (s *Sink) Write(ctx context.Context, doc Document) (Artifacts, error) {
	jsonBody, err := EncodeJSON(doc)
	if err != nil {
		return Artifacts{}, err
	}
	csvBody, err := EncodeCSV(doc.Rows)
	if err != nil {
		return Artifacts{}, fmt.Errorf("encode report csv: %w", err)
	}

	jsonURI, err := s.store.PutObject(ctx, s.jsonName, storage.ContentTypeJSON, bytes.NewReader(jsonBody))
	if err != nil {
		return Artifacts{}, fmt.Errorf("store %s: %w", s.jsonName, err)
	}
	csvURI, err := s.store.PutObject(ctx, s.csvName, storage.ContentTypeCSV, bytes.NewReader(csvBody))
	if err != nil {
		return Artifacts{}, fmt.Errorf("store %s: %w", s.csvName, err)
	}

	s.logger.Info("report stored",
		zap.String("json_uri", jsonURI),
		zap.String("csv_uri", csvURI),
		zap.Int("rows", len(doc.Rows)),
		zap.Int("failures", len(doc.Failures)),
	)
	return Artifacts{JSONURI: jsonURI, CSVURI: csvURI}, nil
}
