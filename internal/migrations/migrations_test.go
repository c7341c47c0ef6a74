package migrations

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithTableKeepsExistingParams(t *testing.T) {
	got, err := withTable("postgres://u:p@localhost:5432/ewm?sslmode=disable", "stats_schema_migrations")
	require.NoError(t, err)

	u, err := url.Parse(got)
	require.NoError(t, err)
	assert.Equal(t, "disable", u.Query().Get("sslmode"))
	assert.Equal(t, "stats_schema_migrations", u.Query().Get("x-migrations-table"))
	assert.Equal(t, "/ewm", u.Path)
}

func TestWithTableEmpty(t *testing.T) {
	got, err := withTable("postgres://localhost/ewm", "")
	require.NoError(t, err)
	assert.Equal(t, "postgres://localhost/ewm", got)
}
