package main

import (
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/bruin-data/dwh/cmd"
)

var (
	version = "dev"
	commit  = ""
)

func main() {
	defer cmd.RecoverFromPanic()

	isDebug := false
	color.NoColor = false

	versionCommand := cmd.VersionCmd(commit)

	cli.VersionPrinter = func(cCtx *cli.Context) {
		err := versionCommand.Action(cCtx)
		if err != nil {
			panic(err)
		}
	}

	app := &cli.App{
		Name:     "dwh",
		Version:  version,
		Usage:    "Provision a Redshift cluster and load the song play logs into a star schema",
		Compiled: time.Now(),
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "debug",
				Value:       false,
				Usage:       "show debug information",
				Destination: &isDebug,
			},
		},
		Commands: []*cli.Command{
			cmd.Cluster(&isDebug),
			cmd.Tables(&isDebug),
			cmd.ETL(&isDebug),
			cmd.Manifest(),
			cmd.Config(),
			versionCommand,
		},
	}

	_ = app.Run(os.Args)
}
