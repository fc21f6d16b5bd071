package path

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type endpoint struct {
	Address string `yaml:"address"`
	Port    int    `yaml:"port"`
}

type exampleData struct {
	Name     string   `yaml:"name" validate:"required"`
	Nodes    int      `yaml:"nodes" validate:"required,gte=1"`
	Tags     []string `yaml:"tags,omitempty"`
	Endpoint endpoint `yaml:"endpoint"`
}

func TestReadYaml(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		content  string
		path     string
		expected *exampleData
		wantErr  bool
	}{
		{
			name: "valid file is read and validated",
			path: "config.yml",
			content: `name: dwhCluster
nodes: 4
tags: [dev, analytics]
endpoint:
  address: dwh.example.com
  port: 5439
`,
			expected: &exampleData{
				Name:     "dwhCluster",
				Nodes:    4,
				Tags:     []string{"dev", "analytics"},
				Endpoint: endpoint{Address: "dwh.example.com", Port: 5439},
			},
		},
		{
			name:    "validation failure is returned",
			path:    "config.yml",
			content: "name: dwhCluster\n",
			wantErr: true,
		},
		{
			name:    "invalid yaml is returned",
			path:    "config.yml",
			content: "name: [dwhCluster\n",
			wantErr: true,
		},
		{
			name:    "missing file is returned",
			path:    "other.yml",
			content: "name: dwhCluster\nnodes: 1\n",
			wantErr: true,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			fs := afero.NewMemMapFs()
			require.NoError(t, afero.WriteFile(fs, "config.yml", []byte(tt.content), 0o644))

			out := &exampleData{}
			err := ReadYaml(fs, tt.path, out)
			if tt.wantErr {
				require.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.expected, out)
		})
	}
}

func TestReadYamlIfExists(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	out := &exampleData{}

	found, err := ReadYamlIfExists(fs, "missing.yml", out)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, afero.WriteFile(fs, "state.yml", []byte("name: x\n"), 0o644))
	found, err = ReadYamlIfExists(fs, "state.yml", out)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "x", out.Name)
}

func TestWriteYamlRoundTrip(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	in := &exampleData{Name: "dwhCluster", Nodes: 2}

	require.NoError(t, WriteYaml(fs, "nested/dir/out.yml", in))

	out := &exampleData{}
	require.NoError(t, ReadYaml(fs, "nested/dir/out.yml", out))
	assert.Equal(t, in, out)
}

func TestWriteJSON(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	require.NoError(t, WriteJSON(fs, "out.json", map[string][]string{"jsonpaths": {"$['a']"}}))

	buf, err := afero.ReadFile(fs, "out.json")
	require.NoError(t, err)
	assert.JSONEq(t, `{"jsonpaths": ["$['a']"]}`, string(buf))
}
