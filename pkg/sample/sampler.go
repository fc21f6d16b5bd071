package sample

import (
	"context"
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/pkg/errors"

	"github.com/bruin-data/dwh/pkg/executor"
	"github.com/bruin-data/dwh/pkg/logger"
	"github.com/bruin-data/dwh/pkg/query"
	"github.com/bruin-data/dwh/pkg/schema"
)

type Selector interface {
	SelectWithSchema(ctx context.Context, q *query.Query) (*query.QueryResult, error)
}

// Sampler prints a random subset of every table and the results of the analytic queries.
type Sampler struct {
	Conn   Selector
	Logger logger.Logger
	Limit  int
	Tables []schema.Table
}

func NewSampler(conn Selector, logger logger.Logger, limit int) *Sampler {
	return &Sampler{
		Conn:   conn,
		Logger: logger,
		Limit:  limit,
		Tables: schema.Tables,
	}
}

func (s *Sampler) CheckTables(ctx context.Context) {
	printer := executor.PrinterFromContext(ctx)

	for _, t := range s.Tables {
		fmt.Fprintf(printer, "\n===== %s =====\n", t.Name)

		res, err := s.Conn.SelectWithSchema(ctx, t.SampleQuery(s.Limit))
		if err != nil {
			fmt.Fprintln(printer, err)
			s.Logger.Errorw("failed to sample table", "run_id", executor.RunIDFromContext(ctx), "table", t.Name, "error", err)
			continue
		}

		columns := res.Columns
		if len(columns) == 0 || len(columns) == len(t.Columns) {
			columns = t.ColumnNames()
		}
		PrintTable(printer, columns, res.Rows)
	}
}

func (s *Sampler) RunAnalytics(ctx context.Context) error {
	queries, err := schema.AnalyticsQueries()
	if err != nil {
		return errors.Wrap(err, "failed to build the analytic queries")
	}

	printer := executor.PrinterFromContext(ctx)
	fmt.Fprintln(printer, "\n=== Running analytic queries...")

	for _, q := range queries {
		fmt.Fprintf(printer, "\n===== %s =====\n", q.Name)

		res, err := s.Conn.SelectWithSchema(ctx, q)
		if err != nil {
			fmt.Fprintln(printer, err)
			s.Logger.Errorw("analytic query failed", "run_id", executor.RunIDFromContext(ctx), "query", q.Name, "error", err)
			continue
		}

		PrintTable(printer, res.Columns, res.Rows)
	}

	return nil
}

func PrintTable(w io.Writer, columnNames []string, rows [][]interface{}) {
	if len(rows) == 0 {
		fmt.Fprintln(w, "No data available")
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)

	headers := make(table.Row, len(columnNames))
	for i, colName := range columnNames {
		headers[i] = colName
	}
	t.AppendHeader(headers)

	for _, row := range rows {
		rowData := make(table.Row, len(row))
		for i, cell := range row {
			rowData[i] = fmt.Sprintf("%v", cell)
		}
		t.AppendRow(rowData)
	}

	t.SetStyle(table.StyleLight)
	t.Render()
}
