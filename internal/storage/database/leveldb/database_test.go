package leveldb

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/LeJamon/cpamm/internal/storage/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemDatabase(t *testing.T) {
	ctx := context.Background()
	db, err := OpenMem()
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Read(ctx, []byte("missing"))
	require.ErrorIs(t, err, database.ErrKeyNotFound)

	require.NoError(t, db.Batch(ctx, []database.BatchOperation{
		{Type: database.BatchPut, Key: []byte("p/1"), Value: []byte("one")},
		{Type: database.BatchPut, Key: []byte("p/2"), Value: []byte("two")},
		{Type: database.BatchPut, Key: []byte("q/1"), Value: []byte("other")},
	}))
	require.NoError(t, db.Delete(ctx, []byte("p/2")))
	require.NoError(t, db.Write(ctx, []byte("p/3"), []byte("three")))

	it, err := db.Iterator(ctx, []byte("p/"), database.PrefixEnd([]byte("p/")))
	require.NoError(t, err)
	got := map[string]string{}
	for it.Next() {
		got[string(it.Key())] = string(it.Value())
	}
	require.NoError(t, it.Error())
	require.NoError(t, it.Close())
	assert.Equal(t, map[string]string{"p/1": "one", "p/3": "three"}, got)
}

func TestFileDatabaseReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "state")

	db, err := Open(path, 1<<20)
	require.NoError(t, err)
	require.NoError(t, db.Write(ctx, []byte("k"), []byte("v")))
	require.NoError(t, db.Close())

	_, err = db.Read(ctx, []byte("k"))
	require.ErrorIs(t, err, database.ErrDBClosed)

	db, err = Open(path, 0)
	require.NoError(t, err)
	defer db.Close()
	v, err := db.Read(ctx, []byte("k"))
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), v)
}
