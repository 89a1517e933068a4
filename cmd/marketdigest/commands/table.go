package commands

import (
	"fmt"
	"io"

	"marketdigest/internal/collect"

	"github.com/jedib0t/go-pretty/v6/table"
)

func newTable(out io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(out)
	return t
}

func renderOutcomes(out io.Writer, outcomes []collect.Outcome) {
	t := newTable(out)
	t.AppendHeader(table.Row{"Source", "File", "Rows", "Status"})
	for _, o := range outcomes {
		status := "ok"
		if !o.OK() {
			status = fmt.Sprintf("skipped: %v", o.Err)
		}
		t.AppendRow(table.Row{o.Name, o.File, o.Rows, status})
	}
	t.Render()
}
