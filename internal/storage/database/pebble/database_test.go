package pebble

import (
	"context"
	"testing"

	"github.com/LeJamon/cpamm/internal/storage/database"
	"github.com/cockroachdb/pebble/vfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openMem(t *testing.T) *DB {
	t.Helper()
	db, err := Open("test", Options{FS: vfs.NewMem(), CacheSize: 1 << 20})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestReadWriteDelete(t *testing.T) {
	ctx := context.Background()
	db := openMem(t)

	_, err := db.Read(ctx, []byte("k"))
	require.ErrorIs(t, err, database.ErrKeyNotFound)

	require.NoError(t, db.Write(ctx, []byte("k"), []byte("v")))
	v, err := db.Read(ctx, []byte("k"))
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), v)

	require.NoError(t, db.Delete(ctx, []byte("k")))
	_, err = db.Read(ctx, []byte("k"))
	require.ErrorIs(t, err, database.ErrKeyNotFound)
}

func TestBatchAndIterator(t *testing.T) {
	ctx := context.Background()
	db := openMem(t)

	require.NoError(t, db.Batch(ctx, []database.BatchOperation{
		{Type: database.BatchPut, Key: []byte("a1"), Value: []byte("1")},
		{Type: database.BatchPut, Key: []byte("a2"), Value: []byte("2")},
		{Type: database.BatchPut, Key: []byte("b1"), Value: []byte("3")},
		{Type: database.BatchPut, Key: []byte("a3"), Value: []byte("x")},
		{Type: database.BatchDelete, Key: []byte("a3")},
	}))

	it, err := db.Iterator(ctx, []byte("a"), database.PrefixEnd([]byte("a")))
	require.NoError(t, err)
	var keys []string
	for it.Next() {
		keys = append(keys, string(it.Key()))
	}
	require.NoError(t, it.Error())
	require.NoError(t, it.Close())
	assert.Equal(t, []string{"a1", "a2"}, keys)

	err = db.Batch(ctx, []database.BatchOperation{{Type: database.BatchOpType(9), Key: []byte("z")}})
	require.ErrorIs(t, err, database.ErrBatchOperationFailed)
}

func TestClosed(t *testing.T) {
	db := openMem(t)
	require.NoError(t, db.Close())
	_, err := db.Read(context.Background(), []byte("k"))
	require.ErrorIs(t, err, database.ErrDBClosed)
}

func TestManager(t *testing.T) {
	m := NewManager("data", Options{FS: vfs.NewMem()})
	a, err := m.OpenDB("state")
	require.NoError(t, err)
	again, err := m.OpenDB("state")
	require.NoError(t, err)
	assert.Same(t, a, again)

	require.NoError(t, m.CloseDB("state"))
	require.Error(t, m.CloseDB("state"))
	require.NoError(t, m.Close())
}
