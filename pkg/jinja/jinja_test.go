package jinja

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderer_Render(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		query   string
		args    Context
		want    string
		wantErr bool
	}{
		{
			name:  "copy statement is rendered",
			query: "COPY staging_songs FROM '{{ song_data }}' CREDENTIALS 'aws_iam_role={{ role_arn }}' JSON 'auto' REGION '{{ region }}';",
			args: Context{
				"song_data": "s3://udacity-dend/song_data",
				"role_arn":  "arn:aws:iam::123456789012:role/dwhRole",
				"region":    "us-west-2",
			},
			want: "COPY staging_songs FROM 's3://udacity-dend/song_data' CREDENTIALS 'aws_iam_role=arn:aws:iam::123456789012:role/dwhRole' JSON 'auto' REGION 'us-west-2';",
		},
		{
			name:  "plain sql is untouched",
			query: "SELECT * FROM songplay ORDER BY random() LIMIT 10",
			args:  Context{},
			want:  "SELECT * FROM songplay ORDER BY random() LIMIT 10",
		},
		{
			name:    "missing variables fail the render",
			query:   "COPY staging_events FROM '{{ log_data }}'",
			args:    Context{},
			wantErr: true,
		},
		{
			name:    "unterminated blocks fail the parse",
			query:   "{% if region %}REGION '{{ region }}'",
			args:    Context{"region": "us-west-2"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := NewRenderer(tt.args).Render(tt.query)
			if tt.wantErr {
				require.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
