package cmd

import (
	"context"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"github.com/urfave/cli/v2"

	"github.com/bruin-data/dwh/pkg/config"
	"github.com/bruin-data/dwh/pkg/redshift"
	"github.com/bruin-data/dwh/pkg/schema"
)

var (
	configFlag = &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "the project configuration file",
		Value:   DefaultConfigFile,
		EnvVars: []string{"DWH_CONFIG"},
	}
	credentialsFlag = &cli.StringFlag{
		Name:    "credentials",
		Usage:   "the file holding the AWS access keys, optional when the keys come from the environment",
		Value:   DefaultCredentialsFile,
		EnvVars: []string{"DWH_CREDENTIALS"},
	}
	stateFlag = &cli.StringFlag{
		Name:  "state",
		Usage: "the file the cluster endpoint and role are recorded in",
		Value: DefaultStateFile,
	}
	hostFlag = &cli.StringFlag{
		Name:  "host",
		Usage: "connect to this endpoint instead of the one recorded by 'dwh cluster create'",
	}
	forceFlag = &cli.BoolFlag{
		Name:    "force",
		Aliases: []string{"f"},
		Usage:   "skip the confirmation prompt",
	}
	showQueriesFlag = &cli.BoolFlag{
		Name:  "show-queries",
		Usage: "print every statement before running it",
	}
)

// projectFlags are accepted by every command that touches the project files.
func projectFlags() []cli.Flag {
	return []cli.Flag{configFlag, credentialsFlag, stateFlag}
}

type project struct {
	fs        afero.Fs
	config    *config.Config
	statePath string
}

func loadProject(c *cli.Context) (*project, error) {
	cfg, err := config.Load(fs, c.String(configFlag.Name), c.String(credentialsFlag.Name))
	if err != nil {
		return nil, err
	}

	return &project{
		fs:        fs,
		config:    cfg,
		statePath: c.String(stateFlag.Name),
	}, nil
}

func (p *project) state() (*config.State, error) {
	return config.LoadState(p.fs, p.statePath)
}

// connect opens a connection to the cluster recorded in the state file, or to the host given explicitly.
func (p *project) connect(ctx context.Context, host string) (*redshift.Client, error) {
	state, err := p.state()
	if err != nil {
		return nil, err
	}

	rc, err := p.config.RedshiftConfig(state, host)
	if err != nil {
		return nil, err
	}

	client, err := redshift.NewClient(ctx, rc)
	if err != nil {
		return nil, err
	}

	if err := client.Ping(ctx); err != nil {
		client.Close()
		return nil, errors.Wrapf(err, "failed to connect to %s", rc.String())
	}

	return client, nil
}

// sources are the values the COPY statements need. The role ARN comes from the state file unless given.
func (p *project) sources(roleARN string) (schema.Sources, error) {
	if roleARN == "" {
		state, err := p.state()
		if err != nil {
			return schema.Sources{}, err
		}
		roleARN = state.RoleARN
	}

	return schema.Sources{
		RoleARN:     roleARN,
		LogData:     p.config.Sources.LogData,
		SongData:    p.config.Sources.SongData,
		LogJSONPath: p.config.Sources.LogJSONPath,
		Region:      p.config.Sources.Region,
	}, nil
}
