package query

import (
	"io/fs"
	"path"
	"regexp"
	"strings"

	"github.com/pkg/errors"
)

// Query is a single named SQL statement.
type Query struct {
	Name  string
	Query string
}

func (q Query) String() string {
	return q.Query
}

var queryCommentRegex = regexp.MustCompile(`(?m)(?s)\/\*.*?\*\/|(^|\s)--.*?\n`)

type renderer interface {
	Render(string) (string, error)
}

// TemplateExtractor reads a SQL template from a filesystem, strips its comments and renders it.
// The resulting query is named after the file without its extension.
type TemplateExtractor struct {
	Fs       fs.FS
	Renderer renderer
}

func (f TemplateExtractor) ExtractQuery(filepath string) (*Query, error) {
	contents, err := fs.ReadFile(f.Fs, filepath)
	if err != nil {
		return nil, errors.Wrapf(err, "could not read file %s", filepath)
	}

	cleaned := queryCommentRegex.ReplaceAllLiteralString(string(contents)+"\n", "\n")
	cleaned = strings.TrimSpace(cleaned)

	rendered := cleaned
	if f.Renderer != nil {
		rendered, err = f.Renderer.Render(cleaned)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to render %s", filepath)
		}
	}

	return &Query{
		Name:  strings.TrimSuffix(path.Base(filepath), path.Ext(filepath)),
		Query: strings.TrimSpace(rendered),
	}, nil
}

// ExtractQueries extracts every given file, stopping at the first failure.
func (f TemplateExtractor) ExtractQueries(filepaths ...string) ([]*Query, error) {
	queries := make([]*Query, 0, len(filepaths))
	for _, p := range filepaths {
		q, err := f.ExtractQuery(p)
		if err != nil {
			return nil, err
		}
		queries = append(queries, q)
	}

	return queries, nil
}

// QueryResult holds the rows of a query together with the column names the database reported.
type QueryResult struct {
	Columns []string
	Rows    [][]interface{}
}
