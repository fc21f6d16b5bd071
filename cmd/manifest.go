package cmd

import (
	"os"

	"github.com/urfave/cli/v2"

	"github.com/bruin-data/dwh/pkg/cluster"
	"github.com/bruin-data/dwh/pkg/manifest"
)

func Manifest() *cli.Command {
	return &cli.Command{
		Name:  "manifest",
		Usage: "manage the JSONPaths file the event logs are copied with",
		Subcommands: []*cli.Command{
			ManifestWrite(),
			ManifestUpload(),
		},
	}
}

func ManifestWrite() *cli.Command {
	return &cli.Command{
		Name:      "write",
		Usage:     "write the JSONPaths file to disk",
		ArgsUsage: "[output path]",
		Action: func(c *cli.Context) error {
			output := c.Args().Get(0)
			if output == "" {
				output = DefaultManifestFile
			}

			if err := manifest.Write(fs, output); err != nil {
				return printErrorAndExit("Failed to write the manifest", err)
			}

			successPrinter.Printf("Wrote %s\n", output)
			return nil
		},
	}
}

func ManifestUpload() *cli.Command {
	return &cli.Command{
		Name:      "upload",
		Usage:     "upload the JSONPaths file to sources.log_jsonpath",
		ArgsUsage: "[s3 uri, defaults to sources.log_jsonpath]",
		Flags:     projectFlags(),
		Action: func(c *cli.Context) error {
			p, err := loadProject(c)
			if err != nil {
				return printErrorAndExit("Failed to load the configuration", err)
			}

			uri := c.Args().Get(0)
			if uri == "" {
				uri = p.config.Sources.LogJSONPath
			}
			if uri == "" {
				errorPrinter.Println("There is nowhere to upload the manifest to, set sources.log_jsonpath or pass an S3 URI.")
				return cli.Exit("", 1)
			}

			ctx, cancel := commandContext(c, os.Stdout)
			defer cancel()

			clients, err := cluster.NewClients(ctx, p.config.AWS)
			if err != nil {
				return printErrorAndExit("Failed to set up the AWS clients", err)
			}

			if err := manifest.Upload(ctx, clients.S3, uri); err != nil {
				return printErrorAndExit("Failed to upload the manifest", err)
			}

			successPrinter.Printf("Uploaded the manifest to %s\n", uri)
			return nil
		},
	}
}
