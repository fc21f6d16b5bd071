package etl

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/bruin-data/dwh/pkg/executor"
	"github.com/bruin-data/dwh/pkg/query"
	"github.com/bruin-data/dwh/pkg/schema"
)

// recordingConn remembers every statement and fails the ones listed.
type recordingConn struct {
	executed []string
	failing  map[string]error
}

func (c *recordingConn) RunQueryWithoutResult(_ context.Context, q *query.Query) error {
	c.executed = append(c.executed, q.Name)
	return c.failing[q.Name]
}

type mockVerifier struct {
	mock.Mock
}

func (m *mockVerifier) CheckTables(ctx context.Context) {
	m.Called(ctx)
}

func (m *mockVerifier) RunAnalytics(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func sources() schema.Sources {
	return schema.Sources{
		RoleARN:     "arn:aws:iam::123456789012:role/dwhRole",
		LogData:     "s3://udacity-dend/log_data",
		SongData:    "s3://udacity-dend/song_data",
		LogJSONPath: "s3://dwh-assets/events.jsonpaths",
		Region:      "us-west-2",
	}
}

func testContext() (context.Context, *bytes.Buffer) {
	var out bytes.Buffer
	return context.WithValue(context.Background(), executor.KeyPrinter, &out), &out
}

func TestRunner_ResetTables(t *testing.T) {
	t.Parallel()

	conn := &recordingConn{failing: map[string]error{
		"drop_songplay": errors.New("permission denied"),
	}}
	ctx, out := testContext()

	report := NewRunner(conn, zap.NewNop().Sugar(), false).ResetTables(ctx)

	require.Len(t, conn.executed, 14)
	assert.Equal(t, "drop_staging_events", conn.executed[0])
	assert.Equal(t, "drop_time", conn.executed[6])
	assert.Equal(t, "create_staging_events", conn.executed[7])
	assert.Equal(t, "create_time", conn.executed[13])

	require.Len(t, report.Failed(), 1)
	assert.Equal(t, StageDrop, report.Failed()[0].Stage)
	assert.Contains(t, out.String(), "=== Dropping tables...")
	assert.Contains(t, out.String(), "=== Creating tables...")
}

func TestRunner_RunExecutesEveryStage(t *testing.T) {
	t.Parallel()

	conn := &recordingConn{failing: map[string]error{
		"copy_staging_events": errors.New("Load into table 'staging_events' failed"),
	}}
	ctx, _ := testContext()

	verifier := new(mockVerifier)
	verifier.On("CheckTables", mock.Anything).Return()
	verifier.On("RunAnalytics", mock.Anything).Return(nil)

	report, err := NewRunner(conn, zap.NewNop().Sugar(), false).Run(ctx, sources(), verifier)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"copy_staging_events",
		"copy_staging_songs",
		"insert_songplay",
		"insert_users",
		"insert_songs",
		"insert_artists",
		"insert_time",
	}, conn.executed)
	assert.Len(t, report.Results, 7)
	assert.Len(t, report.Failed(), 1)
	verifier.AssertExpectations(t)
}

func TestRunner_RunRejectsIncompleteSources(t *testing.T) {
	t.Parallel()

	conn := &recordingConn{}
	ctx, _ := testContext()

	src := sources()
	src.RoleARN = ""

	_, err := NewRunner(conn, zap.NewNop().Sugar(), false).Run(ctx, src, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing required fields: role_arn")
	assert.Empty(t, conn.executed)
}

func TestRunner_RunReturnsAnalyticsErrors(t *testing.T) {
	t.Parallel()

	conn := &recordingConn{}
	ctx, _ := testContext()

	verifier := new(mockVerifier)
	verifier.On("CheckTables", mock.Anything).Return()
	verifier.On("RunAnalytics", mock.Anything).Return(errors.New("template broken"))

	report, err := NewRunner(conn, zap.NewNop().Sugar(), false).Run(ctx, sources(), verifier)
	require.EqualError(t, err, "template broken")
	assert.Len(t, report.Results, 7)
}

func TestRunner_AgainstPgxMock(t *testing.T) {
	t.Parallel()

	pool, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer pool.Close()

	pool.ExpectExec("INSERT INTO songplay").WillReturnResult(pgxmock.NewResult("INSERT", 6820))
	pool.ExpectExec("INSERT INTO users").WillReturnError(&pgconn.PgError{Code: "42P01", Message: `relation "users" does not exist`})
	pool.ExpectExec("INSERT INTO songs").WillReturnResult(pgxmock.NewResult("INSERT", 14896))
	pool.ExpectExec("INSERT INTO artists").WillReturnResult(pgxmock.NewResult("INSERT", 10025))
	pool.ExpectExec("INSERT INTO time").WillReturnResult(pgxmock.NewResult("INSERT", 6813))

	ctx, _ := testContext()
	report, err := NewRunner(pgxExecer{pool}, zap.NewNop().Sugar(), false).InsertTables(ctx)
	require.NoError(t, err)

	require.Len(t, report.Failed(), 1)
	assert.Equal(t, "insert_users", report.Failed()[0].Name)
	require.NoError(t, pool.ExpectationsWereMet())
}

type pgxExecer struct {
	pool pgxmock.PgxPoolIface
}

func (p pgxExecer) RunQueryWithoutResult(ctx context.Context, q *query.Query) error {
	_, err := p.pool.Exec(ctx, q.String())
	return err
}
