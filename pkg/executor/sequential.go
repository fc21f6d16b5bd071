package executor

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
	"github.com/samber/lo"

	"github.com/bruin-data/dwh/pkg/logger"
	"github.com/bruin-data/dwh/pkg/query"
)

type contextKey int

const (
	KeyPrinter contextKey = iota
	KeyRunID
)

var (
	successPrinter = color.New(color.FgGreen)
	failurePrinter = color.New(color.FgRed)
	faint          = color.New(color.Faint).SprintFunc()
)

// PrinterFromContext returns the writer user-facing progress goes to, io.Discard when none is set.
func PrinterFromContext(ctx context.Context) io.Writer {
	if w, ok := ctx.Value(KeyPrinter).(io.Writer); ok {
		return w
	}
	return io.Discard
}

func RunIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(KeyRunID).(string)
	return id
}

type Execer interface {
	RunQueryWithoutResult(ctx context.Context, q *query.Query) error
}

type Result struct {
	Stage    string
	Name     string
	Duration time.Duration
	Err      error
}

type Report struct {
	Results []*Result
}

func (r *Report) Append(other *Report) {
	if other == nil {
		return
	}
	r.Results = append(r.Results, other.Results...)
}

func (r *Report) Failed() []*Result {
	return lo.Filter(r.Results, func(res *Result, _ int) bool { return res.Err != nil })
}

// Sequential executes statements one after the other. A failing statement is logged and the
// sequence moves on; only a cancelled context stops it early.
type Sequential struct {
	Conn        Execer
	Logger      logger.Logger
	ShowQueries bool
}

func (s Sequential) Run(ctx context.Context, stage string, queries []*query.Query) *Report {
	printer := PrinterFromContext(ctx)
	runID := RunIDFromContext(ctx)
	report := &Report{Results: make([]*Result, 0, len(queries))}

	for _, q := range queries {
		if ctx.Err() != nil {
			s.Logger.Errorw("execution cancelled, skipping the remaining statements", "run_id", runID, "stage", stage, "error", ctx.Err())
			break
		}

		fmt.Fprintf(printer, "%s %s\n", faint("["+stage+"]"), q.Name)
		if s.ShowQueries {
			fmt.Fprintln(printer, q.Query)
		}

		start := time.Now()
		err := s.Conn.RunQueryWithoutResult(ctx, q)
		res := &Result{Stage: stage, Name: q.Name, Duration: time.Since(start), Err: err}
		report.Results = append(report.Results, res)

		if err != nil {
			failurePrinter.Fprintf(printer, "  %v\n", err)
			s.Logger.Errorw("statement failed", "run_id", runID, "stage", stage, "statement", q.Name, "error", err)
			continue
		}

		successPrinter.Fprintln(printer, "  Success!")
		s.Logger.Debugw("statement finished", "run_id", runID, "stage", stage, "statement", q.Name, "duration", res.Duration)
	}

	return report
}
