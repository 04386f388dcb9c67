package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
)

// Output formats accepted by --format.
const (
	FormatTable    = "table"
	FormatJSON     = "json"
	FormatCSV      = "csv"
	FormatMarkdown = "markdown"
)

// formats lists the values offered for --format completion.
var formats = []string{FormatTable, FormatJSON, FormatCSV, FormatMarkdown}

// renderRows writes a result set in the requested format. Every row must have
// one value per column.
func renderRows(w io.Writer, format string, cols []string, rows [][]any) error {
	switch format {
	case "", FormatTable:
		return renderTable(w, cols, rows)
	case FormatJSON:
		return renderJSON(w, cols, rows)
	case FormatCSV:
		return renderCSV(w, cols, rows)
	case "md", FormatMarkdown:
		return renderMarkdown(w, cols, rows)
	default:
		return fmt.Errorf("unknown format %q (want one of %s)", format, strings.Join(formats, ", "))
	}
}

func renderTable(w io.Writer, cols []string, rows [][]any) error {
	if len(rows) == 0 {
		_, _ = fmt.Fprintln(w, "(0 rows)")
		return nil
	}

	t := newResultWriter(w, cols, rows)
	t.SetStyle(table.StyleLight)
	t.Render()
	_, _ = fmt.Fprintf(w, "(%d rows)\n", len(rows))
	return nil
}

// newResultWriter loads a result set into a go-pretty writer that mirrors
// its output to w. Nil values show as NULL.
func newResultWriter(w io.Writer, cols []string, rows [][]any) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)

	header := make(table.Row, len(cols))
	for i, col := range cols {
		header[i] = col
	}
	t.AppendHeader(header)

	for _, r := range rows {
		row := make(table.Row, len(r))
		for i, v := range r {
			if v == nil {
				v = "NULL"
			}
			row[i] = v
		}
		t.AppendRow(row)
	}
	return t
}

func renderJSON(w io.Writer, cols []string, rows [][]any) error {
	results := make([]map[string]any, len(rows))
	for i, r := range rows {
		m := make(map[string]any, len(cols))
		for j, col := range cols {
			m[col] = r[j]
		}
		results[i] = m
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(results)
}

func renderCSV(w io.Writer, cols []string, rows [][]any) error {
	newResultWriter(w, cols, rows).RenderCSV()
	return nil
}

func renderMarkdown(w io.Writer, cols []string, rows [][]any) error {
	if len(rows) == 0 {
		_, _ = fmt.Fprintln(w, "(0 rows)")
		return nil
	}
	newResultWriter(w, cols, rows).RenderMarkdown()
	return nil
}
