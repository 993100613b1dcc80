package main

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// newTestSQLiteStore returns a sqlite storage backed by a temporary file.
func newTestSQLiteStore(t *testing.T, path string) *sqliteBookStorage {
	t.Helper()
	db, err := GetSQLiteClient(&SQLiteConfig{FilePath: path, BusyTimeout: 5 * time.Second})
	require.NoError(t, err, "failed in creating a test sqlite store")
	ss := NewSQLiteBookStorage(zap.NewNop(), db)
	t.Cleanup(func() { ss.Close() })
	return ss
}

func TestSQLiteStore(t *testing.T) {
	testBookStorage(t, newTestSQLiteStore(t, filepath.Join(t.TempDir(), "books.db")))
}

// TestSQLiteStore_Reopen ensures the schema is applied once and ids keep moving forward.
func TestSQLiteStore_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "books.db")
	ss := newTestSQLiteStore(t, path)
	book, err := ss.Create(context.Background(), "Dune", "Frank Herbert", "/images/dune.jpg")
	require.NoError(t, err)
	assert.Equal(t, int64(1), book.ID)
	found, err := ss.Delete(context.Background(), book.ID)
	require.NoError(t, err)
	assert.True(t, found)
	require.NoError(t, ss.Close())

	ss = newTestSQLiteStore(t, path)
	book, err = ss.Create(context.Background(), "Emma", "Jane Austen", "/images/emma.jpg")
	require.NoError(t, err)
	assert.Equal(t, int64(2), book.ID)
}
