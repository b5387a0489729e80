// Package report renders an audit run into its JSON and CSV artifacts and
// the console listing, and persists the artifacts through a blob store.
package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/JakeFAU/site-structure-audit/internal/audit"
	"github.com/JakeFAU/site-structure-audit/internal/gate"
)

// TimestampLayout renders generated_at as UTC with millisecond precision.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

// PolicySnapshot records the patterns a run was evaluated against.
type PolicySnapshot struct {
	IndexablePatterns []string `json:"indexablePatterns"`
	NoindexPatterns   []string `json:"noindexPatterns"`
}

// Document is the JSON report.
type Document struct {
	RunID       string         `json:"run_id"`
	GeneratedAt string         `json:"generated_at"`
	BaseURL     string         `json:"base_url"`
	Locales     []string       `json:"locales"`
	MaxDepth    int            `json:"max_depth"`
	Policy      PolicySnapshot `json:"policy"`
	Summary     audit.Summary  `json:"summary"`
	Failures    []gate.Failure `json:"failures"`
	Rows        []audit.Row    `json:"rows"`
}

// Params is everything a Document is assembled from.
type Params struct {
	RunID     string
	Generated time.Time
	BaseURL   string
	Locales   []string
	MaxDepth  int
	Policy    PolicySnapshot
	Summary   audit.Summary
	Failures  []gate.Failure
	Rows      []audit.Row
}

// NewDocument builds the report. Nil slices become empty so the JSON never
// carries null lists, and the summary's failure count is taken from Failures.
func NewDocument(p Params) Document {
	summary := p.Summary
	summary.GateFailures = len(p.Failures)

	return Document{
		RunID:       p.RunID,
		GeneratedAt: p.Generated.UTC().Format(TimestampLayout),
		BaseURL:     p.BaseURL,
		Locales:     nonNil(p.Locales),
		MaxDepth:    p.MaxDepth,
		Policy: PolicySnapshot{
			IndexablePatterns: nonNil(p.Policy.IndexablePatterns),
			NoindexPatterns:   nonNil(p.Policy.NoindexPatterns),
		},
		Summary:  summary,
		Failures: nonNil(p.Failures),
		Rows:     nonNil(p.Rows),
	}
}

// Passed reports whether the run produced no gate failures.
func (d Document) Passed() bool {
	return len(d.Failures) == 0
}

// EncodeJSON renders d with two-space indentation and no trailing newline.
// HTML characters are left unescaped so URLs stay readable.
func EncodeJSON(d Document) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(d); err != nil {
		return nil, fmt.Errorf("encode report json: %w", err)
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

func nonNil[T any](in []T) []T {
	if in == nil {
		return []T{}
	}
	return in
}
