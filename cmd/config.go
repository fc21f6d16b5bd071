package cmd

import (
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/bruin-data/dwh/pkg/config"
)

func Config() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "inspect the project configuration",
		Subcommands: []*cli.Command{
			ConfigShow(),
			ConfigSchema(),
		},
	}
}

func ConfigShow() *cli.Command {
	return &cli.Command{
		Name:  "show",
		Usage: "print the resolved configuration with the secrets masked",
		Flags: append(projectFlags(), &cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "the output type, possible values are: plain, yaml",
		}),
		Action: func(c *cli.Context) error {
			p, err := loadProject(c)
			if err != nil {
				return printErrorAndExit("Failed to load the configuration", err)
			}

			if c.String("output") == "yaml" {
				out, err := yaml.Marshal(p.config.Redacted())
				if err != nil {
					return printErrorAndExit("Failed to marshal the configuration", err)
				}
				fmt.Print(string(out))
				return nil
			}

			printParameters(p.config)

			state, err := p.state()
			if err != nil {
				return printErrorAndExit("Failed to read the cluster state", err)
			}
			if state.Endpoint == "" {
				fmt.Println(faint("No cluster recorded in " + p.statePath))
				return nil
			}

			fmt.Printf("\nCluster recorded in %s:\n", p.statePath)
			fmt.Printf("  endpoint: %s\n", state.Endpoint)
			fmt.Printf("  role:     %s\n", state.RoleARN)
			fmt.Println(faint("  updated at " + state.UpdatedAt.Format("2006-01-02 15:04:05 MST")))
			return nil
		},
	}
}

func printParameters(c *config.Config) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"Param", "Value"})
	for _, p := range c.Parameters() {
		t.AppendRow(table.Row{p[0], p[1]})
	}
	t.SetStyle(table.StyleLight)
	t.Render()
}

func ConfigSchema() *cli.Command {
	return &cli.Command{
		Name:  "schema",
		Usage: "print the JSON schema of the configuration file",
		Action: func(c *cli.Context) error {
			out, err := config.JSONSchema()
			if err != nil {
				return printErrorAndExit("Failed to generate the schema", err)
			}

			fmt.Println(string(out))
			return nil
		},
	}
}
