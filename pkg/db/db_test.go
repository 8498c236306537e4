package db

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"feedbook/pkg/domain"
)

func setupTestDB(t *testing.T) *DB {
	t.Helper()

	dsn := "file:" + filepath.Join(t.TempDir(), "test.db") + "?mode=rwc"
	db, err := New(Config{DSN: dsn})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestDB_InitSchema(t *testing.T) {
	db := setupTestDB(t)

	// schema is initialized by New, verify tables exist
	var count int
	err := db.conn.Get(&count, `
		SELECT COUNT(*) FROM sqlite_master
		WHERE type='table' AND name IN ('sources', 'articles')
	`)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestDB_EnsureSource(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	src, err := db.EnsureSource(ctx, "http://example.com/feed", "Example Feed")
	require.NoError(t, err)
	assert.NotZero(t, src.ID)
	assert.Equal(t, "Example Feed", src.Title)

	// second ensure returns the same record, the first title sticks
	again, err := db.EnsureSource(ctx, "http://example.com/feed", "Renamed Feed")
	require.NoError(t, err)
	assert.Equal(t, src.ID, again.ID)
	assert.Equal(t, "Example Feed", again.Title)

	sources, err := db.GetSources(ctx)
	require.NoError(t, err)
	assert.Len(t, sources, 1)
}

func TestDB_GetSourceByURL_NotFound(t *testing.T) {
	db := setupTestDB(t)

	_, err := db.GetSourceByURL(context.Background(), "http://nowhere.example.com/rss")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
