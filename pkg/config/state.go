package config

import (
	stderrors "errors"
	"io/fs"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/afero"

	"github.com/bruin-data/dwh/pkg/path"
	"github.com/bruin-data/dwh/pkg/redshift"
)

// State is what the cluster manager learns about the running cluster and the later commands need.
type State struct {
	ClusterIdentifier string    `yaml:"cluster_identifier"`
	Endpoint          string    `yaml:"endpoint"`
	Port              int       `yaml:"port,omitempty"`
	RoleARN           string    `yaml:"role_arn"`
	UpdatedAt         time.Time `yaml:"updated_at"`
}

// LoadState reads the state file. A missing file yields an empty state.
func LoadState(fs afero.Fs, statePath string) (*State, error) {
	var s State
	if _, err := path.ReadYamlIfExists(fs, statePath, &s); err != nil {
		return nil, err
	}

	return &s, nil
}

// UpdateState applies the mutation on top of the current file contents and persists the result.
func UpdateState(fs afero.Fs, statePath string, mutate func(s *State)) (*State, error) {
	s, err := LoadState(fs, statePath)
	if err != nil {
		return nil, err
	}

	mutate(s)
	s.UpdatedAt = time.Now().UTC()

	if err := path.WriteYaml(fs, statePath, s); err != nil {
		return nil, errors.Wrap(err, "failed to persist the cluster state")
	}

	return s, nil
}

func RemoveState(afs afero.Fs, statePath string) error {
	err := afs.Remove(statePath)
	if err != nil && !stderrors.Is(err, fs.ErrNotExist) {
		return errors.Wrapf(err, "failed to remove the cluster state file %s", statePath)
	}

	return nil
}

// RedshiftConfig builds the database connection details. A non-empty host wins over the endpoint in the state.
func (c *Config) RedshiftConfig(state *State, host string) (*redshift.Config, error) {
	port := c.Redshift.Port
	if host == "" && state != nil {
		host = state.Endpoint
		if state.Port != 0 {
			port = state.Port
		}
	}

	if host == "" {
		return nil, errors.New("the cluster endpoint is unknown, run 'dwh cluster create' first or pass --host")
	}

	return &redshift.Config{
		Username: c.Redshift.Username,
		Password: c.Redshift.Password,
		Host:     host,
		Port:     port,
		Database: c.Redshift.Database,
		Schema:   c.Redshift.Schema,
		SslMode:  c.Redshift.SslMode,
	}, nil
}
