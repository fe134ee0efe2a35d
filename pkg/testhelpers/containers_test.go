package testhelpers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetTestDB_SchemaMigrated(t *testing.T) {
	tdb := GetTestDB(t)
	ctx := context.Background()

	for _, table := range []string{"analytics_events", "analytics_reports"} {
		var exists bool
		err := tdb.DB.QueryRow(ctx,
			"SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_schema = 'public' AND table_name = $1)",
			table).Scan(&exists)
		require.NoError(t, err)
		assert.True(t, exists, "migrations should have created %s", table)
	}
}

func TestGetTestDB_VectorExtension(t *testing.T) {
	tdb := GetTestDB(t)

	var installed bool
	err := tdb.DB.QueryRow(context.Background(),
		"SELECT EXISTS (SELECT 1 FROM pg_extension WHERE extname = 'vector')").Scan(&installed)
	require.NoError(t, err)
	assert.True(t, installed, "pgvector extension should be installed by migrations")
}

func TestGetTestDB_SharedAcrossCalls(t *testing.T) {
	first := GetTestDB(t)
	second := GetTestDB(t)
	assert.Same(t, first, second, "the container is created once per test run")
}
