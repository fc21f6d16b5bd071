package executor

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/bruin-data/dwh/pkg/query"
)

type mockExecer struct {
	mock.Mock
}

func (m *mockExecer) RunQueryWithoutResult(ctx context.Context, q *query.Query) error {
	args := m.Called(ctx, q.Name)
	return args.Error(0)
}

func queries(names ...string) []*query.Query {
	out := make([]*query.Query, 0, len(names))
	for _, n := range names {
		out = append(out, &query.Query{Name: n, Query: "SELECT '" + n + "'"})
	}
	return out
}

func TestSequential_RunContinuesAfterFailures(t *testing.T) {
	t.Parallel()

	conn := new(mockExecer)
	conn.On("RunQueryWithoutResult", mock.Anything, "copy_staging_events").Return(errors.New("S3ServiceException: Access Denied"))
	conn.On("RunQueryWithoutResult", mock.Anything, "copy_staging_songs").Return(nil)

	var out bytes.Buffer
	ctx := context.WithValue(context.Background(), KeyPrinter, &out)

	s := Sequential{Conn: conn, Logger: zap.NewNop().Sugar()}
	report := s.Run(ctx, "load", queries("copy_staging_events", "copy_staging_songs"))

	require.Len(t, report.Results, 2)
	assert.Equal(t, "load", report.Results[0].Stage)
	require.Error(t, report.Results[0].Err)
	require.NoError(t, report.Results[1].Err)

	failed := report.Failed()
	require.Len(t, failed, 1)
	assert.Equal(t, "copy_staging_events", failed[0].Name)

	assert.Contains(t, out.String(), "S3ServiceException: Access Denied")
	assert.Contains(t, out.String(), "Success!")
	conn.AssertExpectations(t)
}

func TestSequential_RunPrintsQueriesWhenAsked(t *testing.T) {
	t.Parallel()

	conn := new(mockExecer)
	conn.On("RunQueryWithoutResult", mock.Anything, "drop_users").Return(nil)

	var out bytes.Buffer
	ctx := context.WithValue(context.Background(), KeyPrinter, &out)

	s := Sequential{Conn: conn, Logger: zap.NewNop().Sugar(), ShowQueries: true}
	s.Run(ctx, "drop", queries("drop_users"))

	assert.Contains(t, out.String(), "SELECT 'drop_users'")
}

func TestSequential_RunStopsOnCancelledContext(t *testing.T) {
	t.Parallel()

	conn := new(mockExecer)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := Sequential{Conn: conn, Logger: zap.NewNop().Sugar()}
	report := s.Run(ctx, "insert", queries("insert_songplay", "insert_users"))

	assert.Empty(t, report.Results)
	conn.AssertNotCalled(t, "RunQueryWithoutResult", mock.Anything, mock.Anything)
}

func TestContextHelpers(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	assert.NotNil(t, PrinterFromContext(ctx))
	assert.Empty(t, RunIDFromContext(ctx))

	ctx = context.WithValue(ctx, KeyRunID, "run-1")
	assert.Equal(t, "run-1", RunIDFromContext(ctx))
}

func TestReport_AppendAndPrint(t *testing.T) {
	t.Parallel()

	r := &Report{}
	r.Append(&Report{Results: []*Result{{Stage: "create", Name: "create_users"}}})
	r.Append(&Report{Results: []*Result{{Stage: "insert", Name: "insert_users", Err: errors.New("boom")}}})
	r.Append(nil)

	require.Len(t, r.Results, 2)
	assert.Len(t, r.Failed(), 1)

	var out bytes.Buffer
	PrintReport(&out, r)
	assert.Contains(t, out.String(), "create_users")
	assert.Contains(t, out.String(), "insert_users")
	assert.Contains(t, out.String(), "boom")
}
