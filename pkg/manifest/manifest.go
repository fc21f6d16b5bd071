package manifest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/spf13/afero"

	"github.com/bruin-data/dwh/pkg/path"
	"github.com/bruin-data/dwh/pkg/schema"
)

const DefaultFileName = "events.jsonpaths"

// JSONPaths maps the keys of the raw event logs onto the staging_events columns, in column order.
// The staging columns keep the camel-cased keys of the logs, which 'auto' would not match.
type JSONPaths struct {
	Paths []string `json:"jsonpaths"`
}

func EventsJSONPaths() JSONPaths {
	return JSONPaths{
		Paths: lo.Map(schema.StagingEvents.ColumnNames(), func(col string, _ int) string {
			return fmt.Sprintf("$['%s']", col)
		}),
	}
}

func Write(fs afero.Fs, filePath string) error {
	return path.WriteJSON(fs, filePath, EventsJSONPaths())
}

type objectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

var _ objectPutter = (*s3.Client)(nil)

// Upload puts the manifest at an s3://bucket/key URI.
func Upload(ctx context.Context, client objectPutter, uri string) error {
	target, err := url.Parse(uri)
	if err != nil {
		return errors.Wrapf(err, "error parsing manifest URI '%s'", uri)
	}

	key := strings.TrimPrefix(target.Path, "/")
	if target.Scheme != "s3" || target.Host == "" || key == "" {
		return fmt.Errorf("manifest URI must look like s3://bucket/key, got '%s'", uri)
	}

	body, err := json.MarshalIndent(EventsJSONPaths(), "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to marshal the manifest")
	}

	_, err = client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(target.Host),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("error uploading manifest to %q: %w", uri, err)
	}

	return nil
}
