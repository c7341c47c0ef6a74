package postgres

import (
	"context"
	"errors"
	"os"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"example.com/ewm/internal/datetime"
	"example.com/ewm/internal/stats"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return New(sqlx.NewDb(db, "postgres")), mock
}

func TestSaveHitReturnsID(t *testing.T) {
	store, mock := newMockStore(t)
	ts := time.Date(2035, 5, 5, 12, 0, 0, 0, time.Local)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO hits (app, uri, ip, created)")).
		WithArgs("ewm-main-service", "/events/1", "10.0.0.1", ts).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(7)))

	h, err := store.SaveHit(context.Background(), stats.Hit{
		App: "ewm-main-service", URI: "/events/1", IP: "10.0.0.1", Timestamp: datetime.New(ts),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(7), h.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveHitsOneTransaction(t *testing.T) {
	store, mock := newMockStore(t)
	ts := time.Date(2035, 5, 5, 12, 0, 0, 0, time.Local)
	hits := []stats.Hit{
		{App: "ewm-main-service", URI: "/events/1", IP: "10.0.0.1", Timestamp: datetime.New(ts)},
		{App: "ewm-main-service", URI: "/events/2", IP: "10.0.0.2", Timestamp: datetime.New(ts)},
	}

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO hits (app, uri, ip, created)")).
		WithArgs("ewm-main-service", "/events/1", "10.0.0.1", ts).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(12)))
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO hits (app, uri, ip, created)")).
		WithArgs("ewm-main-service", "/events/2", "10.0.0.2", ts).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(11)))
	mock.ExpectCommit()

	out, err := store.SaveHits(context.Background(), hits)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "/events/1", out[0].URI)
	assert.Equal(t, int64(12), out[0].ID)
	assert.Equal(t, "/events/2", out[1].URI)
	assert.Equal(t, int64(11), out[1].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveHitsRollsBackOnFailure(t *testing.T) {
	store, mock := newMockStore(t)
	ts := time.Date(2035, 5, 5, 12, 0, 0, 0, time.Local)
	hits := []stats.Hit{
		{App: "ewm-main-service", URI: "/events/1", IP: "10.0.0.1", Timestamp: datetime.New(ts)},
		{App: "ewm-main-service", URI: "/events/2", IP: "10.0.0.2", Timestamp: datetime.New(ts)},
	}

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO hits")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(1)))
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO hits")).
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	out, err := store.SaveHits(context.Background(), hits)
	require.Error(t, err)
	assert.Nil(t, out)
	assert.Contains(t, err.Error(), "insert hit 2 of 2")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStatsUniqueWithURIs(t *testing.T) {
	store, mock := newMockStore(t)
	start := time.Date(2035, 1, 1, 0, 0, 0, 0, time.Local)
	end := start.Add(24 * time.Hour)

	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT app, uri, COUNT(DISTINCT ip) AS hits FROM hits WHERE created BETWEEN $1 AND $2 AND uri IN ($3, $4) GROUP BY app, uri ORDER BY hits DESC, uri",
	)).
		WithArgs(start, end, "/events/1", "/events/2").
		WillReturnRows(sqlmock.NewRows([]string{"app", "uri", "hits"}).
			AddRow("ewm-main-service", "/events/2", int64(3)).
			AddRow("ewm-main-service", "/events/1", int64(1)))

	out, err := store.Stats(context.Background(), stats.Query{
		Start: start, End: end, URIs: []string{"/events/1", "/events/2"}, Unique: true,
	})
	require.NoError(t, err)
	assert.Equal(t, []stats.ViewStats{
		{App: "ewm-main-service", URI: "/events/2", Hits: 3},
		{App: "ewm-main-service", URI: "/events/1", Hits: 1},
	}, out)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStatsAllURIs(t *testing.T) {
	store, mock := newMockStore(t)
	start := time.Date(2035, 1, 1, 0, 0, 0, 0, time.Local)
	end := start.Add(time.Hour)

	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT app, uri, COUNT(ip) AS hits FROM hits WHERE created BETWEEN $1 AND $2 GROUP BY app, uri",
	)).
		WithArgs(start, end).
		WillReturnRows(sqlmock.NewRows([]string{"app", "uri", "hits"}))

	out, err := store.Stats(context.Background(), stats.Query{Start: start, End: end})
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.NotNil(t, out)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreIntegration(t *testing.T) {
	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TEST_POSTGRES_DSN not set; skipping postgres integration test")
	}
	require.NoError(t, Migrate(dsn))

	store, err := Open(dsn)
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	now := time.Now().Truncate(time.Second)
	uri := "/events/integration-" + now.Format("150405")
	for _, ip := range []string{"10.0.0.1", "10.0.0.1", "10.0.0.2"} {
		_, err := store.SaveHit(ctx, stats.Hit{App: "it", URI: uri, IP: ip, Timestamp: datetime.New(now)})
		require.NoError(t, err)
	}

	out, err := store.Stats(ctx, stats.Query{Start: now.Add(-time.Minute), End: now, URIs: []string{uri}, Unique: true})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, int64(2), out[0].Hits)
}
