package etl

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/bruin-data/dwh/pkg/executor"
	"github.com/bruin-data/dwh/pkg/logger"
	"github.com/bruin-data/dwh/pkg/schema"
)

const (
	StageDrop   = "drop"
	StageCreate = "create"
	StageLoad   = "load"
	StageInsert = "insert"
)

// Verifier prints what ended up in the warehouse once the statements ran.
type Verifier interface {
	CheckTables(ctx context.Context)
	RunAnalytics(ctx context.Context) error
}

type Runner struct {
	executor executor.Sequential
	logger   logger.Logger
}

func NewRunner(conn executor.Execer, logger logger.Logger, showQueries bool) *Runner {
	return &Runner{
		executor: executor.Sequential{
			Conn:        conn,
			Logger:      logger,
			ShowQueries: showQueries,
		},
		logger: logger,
	}
}

func (r *Runner) DropTables(ctx context.Context) *executor.Report {
	fmt.Fprintln(executor.PrinterFromContext(ctx), "=== Dropping tables...")
	return r.executor.Run(ctx, StageDrop, schema.DropTableQueries())
}

func (r *Runner) CreateTables(ctx context.Context) *executor.Report {
	fmt.Fprintln(executor.PrinterFromContext(ctx), "=== Creating tables...")
	return r.executor.Run(ctx, StageCreate, schema.CreateTableQueries())
}

// ResetTables drops and recreates every table of the warehouse.
func (r *Runner) ResetTables(ctx context.Context) *executor.Report {
	report := r.DropTables(ctx)
	report.Append(r.CreateTables(ctx))
	return report
}

// LoadStaging copies the raw logs into the staging tables. Only a template that cannot be rendered
// is returned as an error, statement failures end up in the report.
func (r *Runner) LoadStaging(ctx context.Context, src schema.Sources) (*executor.Report, error) {
	queries, err := schema.CopyTableQueries(src)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build the COPY statements")
	}

	fmt.Fprintln(executor.PrinterFromContext(ctx), "=== Loading S3 files into staging tables...")
	return r.executor.Run(ctx, StageLoad, queries), nil
}

func (r *Runner) InsertTables(ctx context.Context) (*executor.Report, error) {
	queries, err := schema.InsertTableQueries()
	if err != nil {
		return nil, errors.Wrap(err, "failed to build the INSERT statements")
	}

	fmt.Fprintln(executor.PrinterFromContext(ctx), "=== Inserting staging data into the final tables...")
	return r.executor.Run(ctx, StageInsert, queries), nil
}

// Run is the whole pipeline: load the staging tables, fill the final tables, then let the verifier
// print samples and the analytic queries.
func (r *Runner) Run(ctx context.Context, src schema.Sources, verifier Verifier) (*executor.Report, error) {
	report, err := r.LoadStaging(ctx, src)
	if err != nil {
		return nil, err
	}

	inserted, err := r.InsertTables(ctx)
	if err != nil {
		return report, err
	}
	report.Append(inserted)
	r.logger.Infow("statements finished", "run_id", executor.RunIDFromContext(ctx), "total", len(report.Results), "failed", len(report.Failed()))

	if verifier == nil {
		return report, nil
	}

	verifier.CheckTables(ctx)
	if err := verifier.RunAnalytics(ctx); err != nil {
		return report, err
	}

	return report, nil
}
