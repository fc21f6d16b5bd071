package manifest

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventsJSONPaths(t *testing.T) {
	t.Parallel()

	paths := EventsJSONPaths().Paths
	require.Len(t, paths, 18)
	assert.Equal(t, "$['artist']", paths[0])
	assert.Equal(t, "$['itemInSession']", paths[4])
	assert.Equal(t, "$['userId']", paths[17])
}

func TestWrite(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	require.NoError(t, Write(fs, "assets/"+DefaultFileName))

	content, err := afero.ReadFile(fs, "assets/events.jsonpaths")
	require.NoError(t, err)

	var got JSONPaths
	require.NoError(t, json.Unmarshal(content, &got))
	assert.Equal(t, EventsJSONPaths(), got)
}

type fakePutter struct {
	input *s3.PutObjectInput
	body  []byte
	err   error
}

func (f *fakePutter) PutObject(_ context.Context, params *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.input = params
	if params.Body != nil {
		f.body, _ = io.ReadAll(params.Body)
	}
	return &s3.PutObjectOutput{}, f.err
}

func TestUpload(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		uri        string
		putErr     error
		wantErr    string
		wantBucket string
		wantKey    string
	}{
		{
			name:       "bucket and nested key",
			uri:        "s3://dwh-assets/manifests/events.jsonpaths",
			wantBucket: "dwh-assets",
			wantKey:    "manifests/events.jsonpaths",
		},
		{
			name:    "not an s3 uri",
			uri:     "https://example.com/events.jsonpaths",
			wantErr: "manifest URI must look like s3://bucket/key",
		},
		{
			name:    "bucket without key",
			uri:     "s3://dwh-assets",
			wantErr: "manifest URI must look like s3://bucket/key",
		},
		{
			name:    "put fails",
			uri:     "s3://dwh-assets/events.jsonpaths",
			putErr:  errors.New("access denied"),
			wantErr: "access denied",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			client := &fakePutter{err: tt.putErr}
			err := Upload(context.Background(), client, tt.uri)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantBucket, *client.input.Bucket)
			assert.Equal(t, tt.wantKey, *client.input.Key)

			var got JSONPaths
			require.NoError(t, json.Unmarshal(client.body, &got))
			assert.Equal(t, EventsJSONPaths(), got)
		})
	}
}
