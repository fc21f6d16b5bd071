package cmd

import (
	"errors"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/bruin-data/dwh/pkg/cluster"
)

func Cluster(isDebug *bool) *cli.Command {
	return &cli.Command{
		Name:  "cluster",
		Usage: "manage the lifecycle of the Redshift cluster",
		Subcommands: []*cli.Command{
			ClusterCreate(isDebug),
			ClusterDelete(isDebug),
			ClusterStatus(isDebug),
		},
	}
}

func pollingFlags() []cli.Flag {
	return []cli.Flag{
		&cli.DurationFlag{
			Name:  "poll-interval",
			Usage: "how long to wait between two status checks",
			Value: defaultPollInterval,
		},
		&cli.DurationFlag{
			Name:  "timeout",
			Usage: "give up waiting for the cluster after this long",
			Value: defaultTimeout,
		},
	}
}

func newClusterManager(c *cli.Context, p *project, isDebug bool) (*cluster.Manager, error) {
	clients, err := cluster.NewClients(c.Context, p.config.AWS)
	if err != nil {
		return nil, err
	}

	return cluster.NewManager(clients, p.config, p.fs, makeLogger(isDebug), cluster.Options{
		StatePath:    p.statePath,
		PollInterval: c.Duration("poll-interval"),
		Timeout:      c.Duration("timeout"),
	}), nil
}

func ClusterCreate(isDebug *bool) *cli.Command {
	return &cli.Command{
		Name:  "create",
		Usage: "create the IAM role and the cluster, then wait until the cluster is available",
		Flags: append(projectFlags(), pollingFlags()...),
		Action: func(c *cli.Context) error {
			p, err := loadProject(c)
			if err != nil {
				return printErrorAndExit("Failed to load the configuration", err)
			}

			manager, err := newClusterManager(c, p, *isDebug)
			if err != nil {
				return printErrorAndExit("Failed to set up the AWS clients", err)
			}

			ctx, cancel := commandContext(c, os.Stdout)
			defer cancel()

			roleARN, err := manager.EnsureRole(ctx)
			if err != nil {
				return printErrorAndExit("Failed to set up the IAM role", err)
			}

			props, err := manager.Create(ctx, roleARN)
			if err != nil {
				return printErrorAndExit("Failed to create the cluster", err)
			}

			successPrinter.Printf("\nCluster %s is available at %s\n", props.ClusterIdentifier, props.Endpoint)
			infoPrinter.Printf("The endpoint is recorded in %s\n", p.statePath)
			return nil
		},
	}
}

func ClusterDelete(isDebug *bool) *cli.Command {
	return &cli.Command{
		Name:  "delete",
		Usage: "delete the cluster without a final snapshot and remove its IAM role",
		Flags: append(projectFlags(), append(pollingFlags(), forceFlag)...),
		Action: func(c *cli.Context) error {
			p, err := loadProject(c)
			if err != nil {
				return printErrorAndExit("Failed to load the configuration", err)
			}

			label := "This deletes the cluster " + p.config.Cluster.Identifier + " and all of its data. Are you sure"
			if err := confirm(label, c.Bool(forceFlag.Name), os.Stdin); err != nil {
				return err
			}

			manager, err := newClusterManager(c, p, *isDebug)
			if err != nil {
				return printErrorAndExit("Failed to set up the AWS clients", err)
			}

			ctx, cancel := commandContext(c, os.Stdout)
			defer cancel()

			if err := manager.Delete(ctx); err != nil {
				return printErrorAndExit("Failed to delete the cluster", err)
			}

			successPrinter.Printf("Cluster %s is deleted\n", p.config.Cluster.Identifier)
			return nil
		},
	}
}

func ClusterStatus(isDebug *bool) *cli.Command {
	return &cli.Command{
		Name:  "status",
		Usage: "show the properties of the cluster",
		Flags: projectFlags(),
		Action: func(c *cli.Context) error {
			p, err := loadProject(c)
			if err != nil {
				return printErrorAndExit("Failed to load the configuration", err)
			}

			manager, err := newClusterManager(c, p, *isDebug)
			if err != nil {
				return printErrorAndExit("Failed to set up the AWS clients", err)
			}

			ctx, cancel := commandContext(c, os.Stdout)
			defer cancel()

			props, err := manager.Status(ctx)
			if errors.Is(err, cluster.ErrClusterNotFound) {
				warningPrinter.Printf("Cluster %s does not exist\n", p.config.Cluster.Identifier)
				return cli.Exit("", 1)
			}
			if err != nil {
				return printErrorAndExit("Failed to describe the cluster", err)
			}

			cluster.PrintProps(os.Stdout, props)
			return nil
		},
	}
}
