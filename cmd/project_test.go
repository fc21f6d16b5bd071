package cmd

import (
	"context"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bruin-data/dwh/pkg/config"
	"github.com/bruin-data/dwh/pkg/executor"
)

func testProject(t *testing.T, state string) *project {
	t.Helper()

	afs := afero.NewMemMapFs()
	if state != "" {
		require.NoError(t, afero.WriteFile(afs, "cluster.yml", []byte(state), 0o644))
	}

	return &project{
		fs: afs,
		config: &config.Config{
			Redshift: config.Redshift{Database: "dwh", Username: "dwhuser", Password: "Passw0rd", Port: 5439, SslMode: "require"},
			Sources: config.Sources{
				LogData:     "s3://udacity-dend/log_data",
				SongData:    "s3://udacity-dend/song_data",
				LogJSONPath: "s3://dwh-assets/events.jsonpaths",
				Region:      "us-west-2",
			},
		},
		statePath: "cluster.yml",
	}
}

func TestProject_Sources(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		state   string
		roleARN string
		want    string
	}{
		{
			name:  "role from the state file",
			state: "role_arn: arn:aws:iam::123:role/fromState\n",
			want:  "arn:aws:iam::123:role/fromState",
		},
		{
			name:    "explicit role wins",
			state:   "role_arn: arn:aws:iam::123:role/fromState\n",
			roleARN: "arn:aws:iam::123:role/explicit",
			want:    "arn:aws:iam::123:role/explicit",
		},
		{
			name: "no state file",
			want: "",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			src, err := testProject(t, tt.state).sources(tt.roleARN)
			require.NoError(t, err)
			assert.Equal(t, tt.want, src.RoleARN)
			assert.Equal(t, "s3://dwh-assets/events.jsonpaths", src.LogJSONPath)
			assert.Equal(t, "us-west-2", src.Region)
		})
	}
}

func TestProject_ConnectWithoutEndpoint(t *testing.T) {
	t.Parallel()

	_, err := testProject(t, "").connect(context.Background(), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "the cluster endpoint is unknown")
}

func TestConfirm_Force(t *testing.T) {
	t.Parallel()

	require.NoError(t, confirm("Are you sure", true, nil))
}

func TestWithRunID(t *testing.T) {
	t.Parallel()

	ctx, id := withRunID(context.Background())
	assert.NotEmpty(t, id)
	assert.Equal(t, id, executor.RunIDFromContext(ctx))
}
