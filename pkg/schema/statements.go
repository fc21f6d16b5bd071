package schema

import (
	"embed"
	"fmt"
	"strings"

	"github.com/bruin-data/dwh/pkg/jinja"
	"github.com/bruin-data/dwh/pkg/query"
)

//go:embed sql/*.sql
var sqlFiles embed.FS

var (
	copyFiles = []string{
		"sql/copy_staging_events.sql",
		"sql/copy_staging_songs.sql",
	}
	insertFiles = []string{
		"sql/insert_songplay.sql",
		"sql/insert_users.sql",
		"sql/insert_songs.sql",
		"sql/insert_artists.sql",
		"sql/insert_time.sql",
	}
	analyticsFiles = []string{
		"sql/analytics_top_users.sql",
		"sql/analytics_top_locations.sql",
	}
)

type MissingFieldsError struct {
	Fields []string
}

func (e *MissingFieldsError) Error() string {
	return fmt.Sprintf("missing required fields: %v", strings.Join(e.Fields, ", "))
}

// Sources are the values the COPY statements are rendered with.
type Sources struct {
	RoleARN     string
	LogData     string
	SongData    string
	LogJSONPath string
	Region      string
}

func (s Sources) validate() error {
	missing := []string{}
	for _, f := range []struct{ name, value string }{
		{"role_arn", s.RoleARN},
		{"log_data", s.LogData},
		{"song_data", s.SongData},
		{"log_jsonpath", s.LogJSONPath},
		{"region", s.Region},
	} {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}

	if len(missing) > 0 {
		return &MissingFieldsError{Fields: missing}
	}
	return nil
}

func (s Sources) context() jinja.Context {
	return jinja.Context{
		"role_arn":     s.RoleARN,
		"log_data":     s.LogData,
		"song_data":    s.SongData,
		"log_jsonpath": s.LogJSONPath,
		"region":       s.Region,
	}
}

// CopyTableQueries renders the statements loading the raw logs into the staging tables.
func CopyTableQueries(src Sources) ([]*query.Query, error) {
	if err := src.validate(); err != nil {
		return nil, err
	}

	extractor := query.TemplateExtractor{
		Fs:       sqlFiles,
		Renderer: jinja.NewRenderer(src.context()),
	}
	return extractor.ExtractQueries(copyFiles...)
}

// InsertTableQueries transform the staging tables into the fact and dimension tables.
func InsertTableQueries() ([]*query.Query, error) {
	return query.TemplateExtractor{Fs: sqlFiles}.ExtractQueries(insertFiles...)
}

func AnalyticsQueries() ([]*query.Query, error) {
	return query.TemplateExtractor{Fs: sqlFiles}.ExtractQueries(analyticsFiles...)
}
