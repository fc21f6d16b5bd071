package query

import (
	"strings"
	"testing"
	"testing/fstest"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type upperRenderer struct {
	fail bool
}

func (r upperRenderer) Render(s string) (string, error) {
	if r.fail {
		return "", errors.New("missing variable 'role_arn'")
	}
	return strings.ReplaceAll(s, "{{ x }}", "X"), nil
}

func TestTemplateExtractor_ExtractQuery(t *testing.T) {
	t.Parallel()

	files := fstest.MapFS{
		"sql/copy_events.sql": {Data: []byte("-- load events\nCOPY t FROM '{{ x }}';\n/* trailing */")},
		"sql/plain.sql":       {Data: []byte("SELECT 1")},
	}

	tests := []struct {
		name     string
		path     string
		renderer renderer
		want     *Query
		wantErr  string
	}{
		{
			name:     "comments are stripped and template rendered",
			path:     "sql/copy_events.sql",
			renderer: upperRenderer{},
			want:     &Query{Name: "copy_events", Query: "COPY t FROM 'X';"},
		},
		{
			name: "no renderer leaves the query as is",
			path: "sql/plain.sql",
			want: &Query{Name: "plain", Query: "SELECT 1"},
		},
		{
			name:    "missing file",
			path:    "sql/nope.sql",
			wantErr: "could not read file sql/nope.sql",
		},
		{
			name:     "render failure",
			path:     "sql/plain.sql",
			renderer: upperRenderer{fail: true},
			wantErr:  "failed to render sql/plain.sql: missing variable 'role_arn'",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			e := TemplateExtractor{Fs: files, Renderer: tt.renderer}
			got, err := e.ExtractQuery(tt.path)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTemplateExtractor_ExtractQueries(t *testing.T) {
	t.Parallel()

	files := fstest.MapFS{
		"a.sql": {Data: []byte("SELECT 1")},
		"b.sql": {Data: []byte("SELECT 2")},
	}
	e := TemplateExtractor{Fs: files}

	got, err := e.ExtractQueries("a.sql", "b.sql")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "b", got[1].Name)

	_, err = e.ExtractQueries("a.sql", "c.sql")
	require.Error(t, err)
}
