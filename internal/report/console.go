package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/JakeFAU/site-structure-audit/internal/gate"
)

// Banner is the start-of-run summary printed before any network activity.
type Banner struct {
	BaseURL           string
	Locales           []string
	MaxDepth          int
	IndexablePatterns int
	NoindexPatterns   int
}

// PrintBanner writes the run banner to w.
func PrintBanner(w io.Writer, b Banner) {
	fmt.Fprintln(w, "SEO structure audit started")
	fmt.Fprintf(w, "- baseUrl: %s\n", b.BaseURL)
	fmt.Fprintf(w, "- locales: %s\n", strings.Join(b.Locales, ","))
	fmt.Fprintf(w, "- maxDepth: %d\n", b.MaxDepth)
	fmt.Fprintf(w, "- policy patterns: indexable=%d, noindex=%d\n", b.IndexablePatterns, b.NoindexPatterns)
}

// PrintOutcome lists saved artifact URIs and the failure count on out. When
// there are failures, up to limit of them go to errOut followed by a notice
// for the rest; otherwise a pass line goes to out. A limit <= 0 lists all.
func PrintOutcome(out, errOut io.Writer, uris []string, failures []gate.Failure, limit int) {
	for _, uri := range uris {
		fmt.Fprintf(out, "Report saved: %s\n", uri)
	}
	fmt.Fprintf(out, "Gate failures: %d\n", len(failures))

	if len(failures) == 0 {
		fmt.Fprintln(out, "SEO structure gate passed.")
		return
	}

	shown := failures
	if limit > 0 && len(failures) > limit {
		shown = failures[:limit]
	}
	for _, f := range shown {
		fmt.Fprintln(errOut, f.String())
	}
	if rest := len(failures) - len(shown); rest > 0 {
		fmt.Fprintf(errOut, "... and %d more\n", rest)
	}
}
