package executor

import (
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// PrintReport renders one row per executed statement.
func PrintReport(w io.Writer, r *Report) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Stage", "Statement", "Duration", "Status"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 3, Align: text.AlignRight},
		{Number: 4, WidthMax: 80},
	})

	for _, res := range r.Results {
		status := successPrinter.Sprint("ok")
		if res.Err != nil {
			status = failurePrinter.Sprint(res.Err.Error())
		}
		t.AppendRow(table.Row{res.Stage, res.Name, res.Duration.Round(time.Millisecond).String(), status})
	}

	failed := len(r.Failed())
	t.AppendFooter(table.Row{"", "", "failed", failed})
	t.Render()
}
