package report

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/JakeFAU/site-structure-audit/internal/audit"
)

// CSVColumns is the fixed column order of the CSV artifact.
var CSVColumns = []string{
	"url",
	"status",
	"redirect_target",
	"canonical",
	"hreflang_map",
	"x_robots_tag",
	"meta_robots",
	"in_sitemap",
	"inlink_count",
	"is_orphan",
	"duplicate_canonical_group",
}

// EncodeCSV renders rows with a header line. Every value is double-quoted
// with embedded quotes doubled; lines are joined by "\n" with no trailing
// newline. The hreflang map is embedded as JSON text.
func EncodeCSV(rows []audit.Row) ([]byte, error) {
	lines := make([]string, 0, len(rows)+1)
	lines = append(lines, strings.Join(CSVColumns, ","))
	for _, row := range rows {
		hreflang, err := hreflangJSON(row.HreflangMap)
		if err != nil {
			return nil, err
		}
		values := []string{
			row.URL,
			strconv.Itoa(row.Status),
			row.RedirectTarget,
			row.Canonical,
			hreflang,
			row.XRobotsTag,
			row.MetaRobots,
			strconv.FormatBool(row.InSitemap),
			strconv.Itoa(row.InlinkCount),
			strconv.FormatBool(row.IsOrphan),
			row.DuplicateCanonicalGroup,
		}
		for i, v := range values {
			values[i] = quote(v)
		}
		lines = append(lines, strings.Join(values, ","))
	}
	return []byte(strings.Join(lines, "\n")), nil
}

func quote(v string) string {
	return `"` + strings.ReplaceAll(v, `"`, `""`) + `"`
}

// hreflangJSON renders the map compactly with keys sorted.
func hreflangJSON(m map[string]string) (string, error) {
	if m == nil {
		m = map[string]string{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(m); err != nil {
		return "", err
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}
