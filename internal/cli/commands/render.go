package commands

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/leapstack-labs/reportql/pkg/core"
)

// renderResult prints a query result as a light table followed by a row count
// and timing line.
func renderResult(w io.Writer, result *core.QueryResult) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)

	header := make(table.Row, 0, len(result.Columns))
	for _, col := range result.Columns {
		header = append(header, col)
	}
	t.AppendHeader(header)

	for _, row := range result.Rows {
		cells := make(table.Row, 0, len(result.Columns))
		for _, col := range result.Columns {
			cells = append(cells, formatCell(row[col]))
		}
		t.AppendRow(cells)
	}
	t.Render()

	fmt.Fprintf(w, "%d row(s) in %dms\n", len(result.Rows), result.Meta.DurationMS)
}

func formatCell(v any) string {
	if v == nil {
		return "NULL"
	}
	return fmt.Sprintf("%v", v)
}

// printNotes writes builder warnings and errors to the stream. Errors do not
// abort compilation; the caller decides whether to proceed.
func printNotes(w io.Writer, warnings, errors []string) {
	for _, msg := range warnings {
		fmt.Fprintf(w, "warning: %s\n", msg)
	}
	for _, msg := range errors {
		fmt.Fprintf(w, "error: %s\n", msg)
	}
}
