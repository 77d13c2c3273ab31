package catalog

import (
	"fmt"
	"strings"

	"github.com/doeshing/sqlchat/internal/domain"
)

// FormatRows renders a result set as tab-separated text with a header line.
// At most limit rows are shown; limit <= 0 shows everything.
func FormatRows(result domain.QueryResult, limit int) string {
	var b strings.Builder
	b.WriteString(strings.Join(result.Columns, "\t"))
	rows := result.Rows
	truncated := 0
	if limit > 0 && len(rows) > limit {
		truncated = len(rows) - limit
		rows = rows[:limit]
	}
	for _, row := range rows {
		b.WriteString("\n")
		b.WriteString(strings.Join(row, "\t"))
	}
	if truncated > 0 {
		fmt.Fprintf(&b, "\n... %d more rows", truncated)
	}
	return b.String()
}

// sampleBlock formats sample rows the way schema descriptions show them.
func sampleBlock(table string, sample domain.QueryResult) string {
	return fmt.Sprintf("\n/*\n%d rows from %s table:\n%s\n*/", len(sample.Rows), table, FormatRows(sample, 0))
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
