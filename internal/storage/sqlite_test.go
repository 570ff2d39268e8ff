package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shashank-Shivakumar/Docfly/internal/editor"
	"github.com/Shashank-Shivakumar/Docfly/internal/form"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "nested", "docfly.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestDB_PutGet(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.Put(ctx, "a", []byte("one")))
	got, err := db.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, []byte("one"), got)

	require.NoError(t, db.Put(ctx, "a", []byte("two")))
	got, err = db.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, []byte("two"), got)

	assert.Error(t, db.Put(ctx, "", []byte("x")))
}

func TestDB_GetMissing(t *testing.T) {
	db := openTestDB(t)
	_, err := db.Get(context.Background(), "nope")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestDB_DeleteAndList(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	for _, k := range []string{"pdf-document-b", "pdf-document-a", "other"} {
		require.NoError(t, db.Put(ctx, k, []byte(k)))
	}

	keys, err := db.List(ctx, "pdf-document-")
	require.NoError(t, err)
	assert.Equal(t, []string{"pdf-document-a", "pdf-document-b"}, keys)

	all, err := db.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	require.NoError(t, db.Delete(ctx, "pdf-document-a"))
	require.NoError(t, db.Delete(ctx, "pdf-document-a"))
	keys, err = db.List(ctx, "pdf-document-")
	require.NoError(t, err)
	assert.Equal(t, []string{"pdf-document-b"}, keys)
}

func TestDB_ReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "docfly.db")
	db, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, db.Put(context.Background(), "k", []byte("v")))
	require.NoError(t, db.Close())

	db, err = Open(path)
	require.NoError(t, err)
	defer db.Close()
	got, err := db.Get(context.Background(), "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)
	assert.Equal(t, path, db.Path())
}

func TestDB_InMemory(t *testing.T) {
	db, err := Open(":memory:")
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, db.Put(context.Background(), "k", []byte("v")))
}

func TestDB_SessionSaveRestore(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	store := editor.NewStore(editor.DefaultOptions())
	_, err := store.LoadPDF("lease.pdf", "application/pdf", []byte("%PDF-1.4 lease"))
	require.NoError(t, err)
	require.NoError(t, store.UpdateTotalPages(2))
	_, err = store.AddField(form.NewField(form.KindText, 10, 20, 2, time.Now()))
	require.NoError(t, err)

	key, err := store.Save(ctx, db)
	require.NoError(t, err)
	saved := store.Document()

	ids, err := editor.ListSaved(ctx, db)
	require.NoError(t, err)
	assert.Equal(t, []string{saved.ID}, ids)
	assert.Equal(t, "pdf-document-"+saved.ID, key)

	other := editor.NewStore(editor.DefaultOptions())
	restored, err := other.Restore(ctx, db, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, saved.File, restored.File)
	require.Len(t, restored.Fields, 1)
	assert.Equal(t, saved.Fields[0].ID, restored.Fields[0].ID)
	assert.Equal(t, 2, other.TotalPages())
}
