package ledger

import (
	"fmt"
	"sort"
	"strings"

	"firekey-hq/tally/pkg/usage"
)

// Sink receives the usage records of a run and its final summary.
// Finalize is called at most once; Append is never called after it.
type Sink interface {
	Append(rec *usage.Record) error
	Finalize(summary *usage.Summary) error
}

// SummaryLine renders the trailing summary row. It always starts with "#"
// so it can be told apart from data rows.
func SummaryLine(summary *usage.Summary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Files: %d | Total tokens: %d | Estimated cost: $%s",
		summary.FileCount, summary.TotalTokens, summary.TotalCost.StringFixed(6))

	models := make([]string, 0, len(summary.Models))
	for m := range summary.Models {
		models = append(models, m)
	}
	sort.Strings(models)

	for _, m := range models {
		ms := summary.Models[m]
		fmt.Fprintf(&b, " | %s: %d files, %d tokens, $%s", m, ms.Files, ms.Tokens, ms.Cost.StringFixed(6))
	}
	return b.String()
}
