package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/bruin-data/dwh/pkg/etl"
	"github.com/bruin-data/dwh/pkg/executor"
	"github.com/bruin-data/dwh/pkg/query"
	"github.com/bruin-data/dwh/pkg/schema"
)

func Tables(isDebug *bool) *cli.Command {
	return &cli.Command{
		Name:  "tables",
		Usage: "manage the staging, fact and dimension tables",
		Subcommands: []*cli.Command{
			TablesCreate(isDebug),
			TablesDrop(isDebug),
			TablesDescribe(),
			TablesRender(),
		},
	}
}

func TablesCreate(isDebug *bool) *cli.Command {
	return &cli.Command{
		Name:  "create",
		Usage: "drop every table and create it again",
		Flags: append(projectFlags(), hostFlag, forceFlag, showQueriesFlag),
		Action: func(c *cli.Context) error {
			return runTablesCommand(c, *isDebug, "This drops every table before creating it again. Are you sure", func(ctx context.Context, r *etl.Runner) *executor.Report {
				return r.ResetTables(ctx)
			})
		},
	}
}

func TablesDrop(isDebug *bool) *cli.Command {
	return &cli.Command{
		Name:  "drop",
		Usage: "drop every table",
		Flags: append(projectFlags(), hostFlag, forceFlag, showQueriesFlag),
		Action: func(c *cli.Context) error {
			return runTablesCommand(c, *isDebug, "This drops every table of the warehouse. Are you sure", func(ctx context.Context, r *etl.Runner) *executor.Report {
				return r.DropTables(ctx)
			})
		},
	}
}

func runTablesCommand(c *cli.Context, isDebug bool, label string, run func(ctx context.Context, r *etl.Runner) *executor.Report) error {
	p, err := loadProject(c)
	if err != nil {
		return printErrorAndExit("Failed to load the configuration", err)
	}

	if err := confirm(label, c.Bool(forceFlag.Name), os.Stdin); err != nil {
		return err
	}

	ctx, cancel := commandContext(c, os.Stdout)
	defer cancel()

	conn, err := p.connect(ctx, c.String(hostFlag.Name))
	if err != nil {
		return printErrorAndExit("Failed to connect to the warehouse", err)
	}
	defer conn.Close()

	runner := etl.NewRunner(conn, makeLogger(isDebug), c.Bool(showQueriesFlag.Name))
	report := run(ctx, runner)

	fmt.Println()
	executor.PrintReport(os.Stdout, report)
	return nil
}

func TablesDescribe() *cli.Command {
	return &cli.Command{
		Name:  "describe",
		Usage: "print the star schema",
		Action: func(c *cli.Context) error {
			fmt.Println(schema.Tree().String())
			return nil
		},
	}
}

func TablesRender() *cli.Command {
	return &cli.Command{
		Name:  "render",
		Usage: "print every statement the warehouse is built with",
		Flags: append(projectFlags(), roleARNFlag),
		Action: func(c *cli.Context) error {
			p, err := loadProject(c)
			if err != nil {
				return printErrorAndExit("Failed to load the configuration", err)
			}

			src, err := p.sources(c.String(roleARNFlag.Name))
			if err != nil {
				return printErrorAndExit("Failed to read the cluster state", err)
			}

			r := RenderCommand{writer: os.Stdout, highlight: highlightCode}
			return r.Run(src)
		},
	}
}

type RenderCommand struct {
	writer    io.Writer
	highlight func(code string, language string) string
}

// Run prints the statements grouped by the stage they run in. COPY statements that cannot be rendered
// are reported without hiding the rest.
func (r *RenderCommand) Run(src schema.Sources) error {
	r.section("drop", schema.DropTableQueries())
	r.section("create", schema.CreateTableQueries())

	copies, err := schema.CopyTableQueries(src)
	if err != nil {
		errorPrinter.Fprintf(r.writer, "-- the COPY statements cannot be rendered: %v\n\n", err)
	} else {
		r.section("load", copies)
	}

	inserts, err := schema.InsertTableQueries()
	if err != nil {
		return printErrorAndExit("Failed to render the INSERT statements", err)
	}
	r.section("insert", inserts)

	analytics, err := schema.AnalyticsQueries()
	if err != nil {
		return printErrorAndExit("Failed to render the analytic queries", err)
	}
	r.section("analytics", analytics)

	return nil
}

func (r *RenderCommand) section(stage string, queries []*query.Query) {
	for _, q := range queries {
		fmt.Fprintf(r.writer, "-- %s: %s\n", stage, q.Name)
		fmt.Fprintf(r.writer, "%s\n\n", r.highlight(q.Query, "sql"))
	}
}
