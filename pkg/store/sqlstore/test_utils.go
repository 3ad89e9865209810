package sqlstore

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/extra/bundebug"
)

// NewTestDB returns a migrated, private in-memory SQLite database that is
// closed when t completes. Set DUCKS_TEST_SQL_DEBUG to log every query.
func NewTestDB(t testing.TB) *bun.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := NewSQLiteConn(dsn)
	require.NoError(t, err)

	if os.Getenv("DUCKS_TEST_SQL_DEBUG") != "" {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}

	require.NoError(t, CreateSchema(context.Background(), db))

	t.Cleanup(func() {
		_ = db.Close()
	})

	return db
}

// CleanDB removes all rows, leaving the schema in place.
func CleanDB(t testing.TB, db *bun.DB) {
	t.Helper()

	_, err := db.NewDelete().
		Model((*DuckFactSchema)(nil)).
		Where("1 = 1").
		Exec(context.Background())
	require.NoError(t, err)

	_, err = db.NewDelete().
		Model((*DuckSchema)(nil)).
		Where("1 = 1").
		Exec(context.Background())
	require.NoError(t, err)
}
