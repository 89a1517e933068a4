// Package report renders the markdown digest of a scratch directory.
package report

import (
	"os"

	"marketdigest/internal/dataset"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// Placeholder stands in for every dataset that cannot be summarized.
const Placeholder = "(no data)"

// Summarize renders the first `top` rows of the CSV file at `path` as a markdown table.
// When `columns` is not empty only those columns are kept, in that order. Any problem with
// the file (absent, empty, unparsable, missing column) yields Placeholder.
func Summarize(path string, columns []string, top int) string {
	info, err := os.Stat(path)
	if err != nil || info.Size() == 0 {
		return Placeholder
	}
	ds, err := dataset.ReadCSV(path)
	if err != nil || !ds.Valid() {
		return Placeholder
	}
	if len(columns) > 0 {
		ds, err = ds.Project(columns)
		if err != nil {
			return Placeholder
		}
	}
	return renderMarkdown(ds.Head(top))
}

func renderMarkdown(ds dataset.Dataset) string {
	t := table.NewWriter()
	// column names are opaque labels, keep them as written
	style := table.StyleDefault
	style.Format.Header = text.FormatDefault
	t.SetStyle(style)

	header := make(table.Row, len(ds.Columns))
	for i, c := range ds.Columns {
		header[i] = c
	}
	t.AppendHeader(header)

	for _, row := range ds.Rows {
		r := make(table.Row, len(row))
		for i, v := range row {
			r[i] = v
		}
		t.AppendRow(r)
	}
	return t.RenderMarkdown()
}
