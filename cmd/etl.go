package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/bruin-data/dwh/pkg/etl"
	"github.com/bruin-data/dwh/pkg/executor"
	"github.com/bruin-data/dwh/pkg/sample"
	"github.com/bruin-data/dwh/pkg/schema"
)

var roleARNFlag = &cli.StringFlag{
	Name:  "role-arn",
	Usage: "the role the cluster reads S3 with, defaults to the one recorded by 'dwh cluster create'",
}

func ETL(isDebug *bool) *cli.Command {
	return &cli.Command{
		Name:  "etl",
		Usage: "load the raw logs and build the star schema out of them",
		Subcommands: []*cli.Command{
			ETLRun(isDebug),
			ETLLoad(isDebug),
			ETLInsert(isDebug),
			ETLCheck(isDebug),
			ETLAnalytics(isDebug),
		},
	}
}

func etlFlags(extra ...cli.Flag) []cli.Flag {
	return append(append(projectFlags(), hostFlag, showQueriesFlag), extra...)
}

func ETLRun(isDebug *bool) *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "load the staging tables, fill the final tables, then print samples and the analytic queries",
		Flags: etlFlags(roleARNFlag, &cli.BoolFlag{
			Name:  "skip-checks",
			Usage: "do not sample the tables nor run the analytic queries afterwards",
		}),
		Action: func(c *cli.Context) error {
			return runETLCommand(c, *isDebug, func(ctx context.Context, e *etlSession) (*executor.Report, error) {
				src, err := e.project.sources(c.String(roleARNFlag.Name))
				if err != nil {
					return nil, err
				}

				var verifier etl.Verifier
				if !c.Bool("skip-checks") {
					verifier = e.sampler
				}
				return e.runner.Run(ctx, src, verifier)
			})
		},
	}
}

func ETLLoad(isDebug *bool) *cli.Command {
	return &cli.Command{
		Name:  "load",
		Usage: "copy the raw logs from S3 into the staging tables",
		Flags: etlFlags(roleARNFlag),
		Action: func(c *cli.Context) error {
			return runETLCommand(c, *isDebug, func(ctx context.Context, e *etlSession) (*executor.Report, error) {
				src, err := e.project.sources(c.String(roleARNFlag.Name))
				if err != nil {
					return nil, err
				}
				return e.runner.LoadStaging(ctx, src)
			})
		},
	}
}

func ETLInsert(isDebug *bool) *cli.Command {
	return &cli.Command{
		Name:  "insert",
		Usage: "fill the fact and dimension tables from the staging tables",
		Flags: etlFlags(),
		Action: func(c *cli.Context) error {
			return runETLCommand(c, *isDebug, func(ctx context.Context, e *etlSession) (*executor.Report, error) {
				return e.runner.InsertTables(ctx)
			})
		},
	}
}

func ETLCheck(isDebug *bool) *cli.Command {
	return &cli.Command{
		Name:  "check",
		Usage: "print a random sample of every table",
		Flags: etlFlags(&cli.IntFlag{
			Name:  "limit",
			Usage: "the number of rows to sample per table, defaults to sample.limit of the configuration",
		}),
		Action: func(c *cli.Context) error {
			return runETLCommand(c, *isDebug, func(ctx context.Context, e *etlSession) (*executor.Report, error) {
				if c.IsSet("limit") {
					e.sampler.Limit = c.Int("limit")
				}
				e.sampler.CheckTables(ctx)
				return nil, nil
			})
		},
	}
}

func ETLAnalytics(isDebug *bool) *cli.Command {
	return &cli.Command{
		Name:  "analytics",
		Usage: "run the analytic queries against the final tables",
		Flags: etlFlags(),
		Action: func(c *cli.Context) error {
			return runETLCommand(c, *isDebug, func(ctx context.Context, e *etlSession) (*executor.Report, error) {
				return nil, e.sampler.RunAnalytics(ctx)
			})
		},
	}
}

type etlSession struct {
	project *project
	runner  *etl.Runner
	sampler *sample.Sampler
}

// runETLCommand wires the connection, the runner and the sampler for one invocation. Statement failures
// are only reported, the exit code reflects configuration, template and connection errors.
func runETLCommand(c *cli.Context, isDebug bool, run func(ctx context.Context, e *etlSession) (*executor.Report, error)) error {
	p, err := loadProject(c)
	if err != nil {
		return printErrorAndExit("Failed to load the configuration", err)
	}

	ctx, cancel := commandContext(c, os.Stdout)
	defer cancel()
	ctx, runID := withRunID(ctx)

	logger := makeLogger(isDebug).With("run_id", runID)
	defer func() { _ = logger.Sync() }()

	conn, err := p.connect(ctx, c.String(hostFlag.Name))
	if err != nil {
		return printErrorAndExit("Failed to connect to the warehouse", err)
	}
	defer conn.Close()

	session := &etlSession{
		project: p,
		runner:  etl.NewRunner(conn, logger, c.Bool(showQueriesFlag.Name)),
		sampler: sample.NewSampler(conn, logger, p.config.Sample.Limit),
	}

	start := time.Now()
	report, err := run(ctx, session)
	if report != nil {
		fmt.Println()
		executor.PrintReport(os.Stdout, report)
	}

	var missing *schema.MissingFieldsError
	if errors.As(err, &missing) {
		errorPrinter.Printf("The COPY statements cannot be built, %v\n", missing)
		infoPrinter.Println("Run 'dwh cluster create' to record the role, or pass --role-arn, and fill the sources section of the configuration.")
		return cli.Exit("", 1)
	}
	if err != nil {
		return printErrorAndExit("The ETL run stopped", err)
	}

	logger.Debugw("command finished", "duration", time.Since(start).String())
	if report != nil && len(report.Failed()) > 0 {
		warningPrinter.Printf("%d statement(s) failed, see the errors above.\n", len(report.Failed()))
		return nil
	}

	successPrinter.Println("Done!")
	return nil
}
