package report

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/site-structure-audit/internal/audit"
	"github.com/JakeFAU/site-structure-audit/internal/gate"
	"github.com/JakeFAU/site-structure-audit/internal/storage/memory"
)

func sampleRows() []audit.Row {
	return []audit.Row{
		{
			URL:         "https://x.com/en",
			Status:      200,
			Canonical:   "https://x.com/en",
			HreflangMap: map[string]string{"x-default": "https://x.com/ua", "en": "https://x.com/en", "uk": "https://x.com/ua"},
			MetaRobots:  `index,"follow"`,
			InSitemap:   true,
			InlinkCount: 1,
		},
		{
			URL:            "https://x.com/old",
			Status:         301,
			RedirectTarget: "https://x.com/ua",
			HreflangMap:    map[string]string{},
			IsOrphan:       false,
		},
	}
}

func sampleDocument(failures []gate.Failure) Document {
	return NewDocument(Params{
		RunID:     "0190b6a4-0000-7000-8000-000000000000",
		Generated: time.Date(2026, 3, 1, 9, 30, 15, 123456789, time.FixedZone("EET", 2*3600)),
		BaseURL:   "https://x.com",
		Locales:   []string{"ua", "en"},
		MaxDepth:  4,
		Policy: PolicySnapshot{
			IndexablePatterns: []string{`^/(ua|en)$`},
			NoindexPatterns:   []string{`^/admin(?:/.*)?$`},
		},
		Summary:  audit.Summary{CrawledURLs: 2, ReportRows: 2},
		Failures: failures,
		Rows:     sampleRows(),
	})
}

func TestNewDocument(t *testing.T) {
	doc := NewDocument(Params{Generated: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)})
	assert.Equal(t, "2026-01-02T03:04:05.000Z", doc.GeneratedAt)
	assert.NotNil(t, doc.Failures)
	assert.NotNil(t, doc.Rows)
	assert.NotNil(t, doc.Locales)
	assert.True(t, doc.Passed())

	failing := sampleDocument([]gate.Failure{{Rule: gate.RuleOrphan, URL: "https://x.com/en"}})
	assert.Equal(t, "2026-03-01T07:30:15.123Z", failing.GeneratedAt)
	assert.Equal(t, 1, failing.Summary.GateFailures)
	assert.False(t, failing.Passed())
}

func TestEncodeJSON(t *testing.T) {
	body, err := EncodeJSON(sampleDocument(nil))
	require.NoError(t, err)
	assert.False(t, bytes.HasSuffix(body, []byte("\n")))
	assert.Contains(t, string(body), "\n  \"generated_at\": \"2026-03-01T07:30:15.123Z\"")
	assert.Contains(t, string(body), `"indexablePatterns": [`)
	assert.Contains(t, string(body), `"failures": []`)
	assert.NotContains(t, string(body), `&`)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(body, &decoded))
	summary, ok := decoded["summary"].(map[string]any)
	require.True(t, ok)
	for _, key := range []string{"crawled_urls", "expected_indexable_urls", "sitemap_urls", "report_rows", "orphan_indexable_urls", "gate_failures"} {
		assert.Contains(t, summary, key)
	}
	rows, ok := decoded["rows"].([]any)
	require.True(t, ok)
	require.Len(t, rows, 2)
	first, ok := rows[0].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "https://x.com/en", first["url"])
	assert.Equal(t, true, first["in_sitemap"])
}

func TestEncodeCSV(t *testing.T) {
	body, err := EncodeCSV(sampleRows())
	require.NoError(t, err)

	lines := strings.Split(string(body), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "url,status,redirect_target,canonical,hreflang_map,x_robots_tag,meta_robots,in_sitemap,inlink_count,is_orphan,duplicate_canonical_group", lines[0])
	assert.Equal(t,
		`"https://x.com/en","200","","https://x.com/en","{""en"":""https://x.com/en"",""uk"":""https://x.com/ua"",""x-default"":""https://x.com/ua""}","","index,""follow""","true","1","false",""`,
		lines[1])
	assert.Equal(t, `"https://x.com/old","301","https://x.com/ua","","{}","","","false","0","false",""`, lines[2])
}

func TestEncodeCSVHeaderOnly(t *testing.T) {
	body, err := EncodeCSV(nil)
	require.NoError(t, err)
	assert.Equal(t, strings.Join(CSVColumns, ","), string(body))
}

func TestPrintBanner(t *testing.T) {
	var out bytes.Buffer
	PrintBanner(&out, Banner{BaseURL: "https://x.com", Locales: []string{"ua", "en"}, MaxDepth: 2, IndexablePatterns: 2, NoindexPatterns: 3})
	assert.Equal(t, "SEO structure audit started\n"+
		"- baseUrl: https://x.com\n"+
		"- locales: ua,en\n"+
		"- maxDepth: 2\n"+
		"- policy patterns: indexable=2, noindex=3\n", out.String())
}

func TestPrintOutcome(t *testing.T) {
	t.Run("Passed", func(t *testing.T) {
		var out, errOut bytes.Buffer
		PrintOutcome(&out, &errOut, []string{"file:///r.json", "file:///r.csv"}, nil, 20)
		assert.Equal(t, "Report saved: file:///r.json\nReport saved: file:///r.csv\nGate failures: 0\nSEO structure gate passed.\n", out.String())
		assert.Empty(t, errOut.String())
	})

	t.Run("Truncated", func(t *testing.T) {
		failures := []gate.Failure{
			{Rule: gate.RuleOrphan, URL: "https://x.com/a", Details: "one"},
			{Rule: gate.RuleOrphan, URL: "https://x.com/b", Details: "two"},
			{Rule: gate.RuleOrphan, URL: "https://x.com/c", Details: "three"},
		}
		var out, errOut bytes.Buffer
		PrintOutcome(&out, &errOut, nil, failures, 2)
		assert.Equal(t, "Gate failures: 3\n", out.String())
		assert.Equal(t, "[FAIL] indexable-url-orphan :: https://x.com/a :: one\n"+
			"[FAIL] indexable-url-orphan :: https://x.com/b :: two\n"+
			"... and 1 more\n", errOut.String())
	})
}

type failingStore struct{ err error }

func (f failingStore) PutObject(context.Context, string, string, io.Reader) (string, error) {
	return "", f.err
}

func TestSinkWrite(t *testing.T) {
	store := memory.NewBlobStore()
	sink, err := NewSink(store, "", "", nil)
	require.NoError(t, err)

	artifacts, err := sink.Write(context.Background(), sampleDocument(nil))
	require.NoError(t, err)
	assert.Equal(t, "memory://"+DefaultJSONName, artifacts.JSONURI)
	assert.Equal(t, "memory://"+DefaultCSVName, artifacts.CSVURI)
	assert.Equal(t, []string{artifacts.JSONURI, artifacts.CSVURI}, artifacts.URIs())

	obj, ok := store.Get(DefaultCSVName)
	require.True(t, ok)
	assert.True(t, strings.HasPrefix(string(obj.Data), "url,status,"))
	assert.Equal(t, "text/csv; charset=utf-8", obj.ContentType)
}

func TestSinkWriteError(t *testing.T) {
	sink, err := NewSink(failingStore{err: errors.New("disk full")}, "r.json", "r.csv", nil)
	require.NoError(t, err)

	_, err = sink.Write(context.Background(), sampleDocument(nil))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store r.json")
}

func TestNewSinkRequiresStore(t *testing.T) {
	_, err := NewSink(nil, "", "", nil)
	require.Error(t, err)
}
