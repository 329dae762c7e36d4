package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type item struct {
	Name  string `json:"name"`
	Value int64  `json:"value"`
}

func TestDocumentStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "store.json")
	store, err := OpenDocumentStore(path)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, store.Update(ctx, func(tx *DocumentTx) error {
		if err := tx.Put("@items", []item{{Name: "a", Value: 1}}); err != nil {
			return err
		}
		return tx.Put("@user", item{Name: "admin"})
	}))

	reopened, err := OpenDocumentStore(path)
	require.NoError(t, err)

	var items []item
	found, err := reopened.Get("@items", &items)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []item{{Name: "a", Value: 1}}, items)

	require.NoError(t, reopened.Delete(ctx, "@user"))
	var user item
	found, err = reopened.Get("@user", &user)
	require.NoError(t, err)
	assert.False(t, found)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}

func TestDocumentStoreFailedUpdateKeepsState(t *testing.T) {
	store, err := OpenDocumentStore(filepath.Join(t.TempDir(), "store.json"))
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, store.Put(ctx, "k", item{Name: "before"}))

	boom := errors.New("boom")
	err = store.Update(ctx, func(tx *DocumentTx) error {
		_ = tx.Put("k", item{Name: "after"})
		return boom
	})
	require.ErrorIs(t, err, boom)

	var got item
	_, err = store.Get("k", &got)
	require.NoError(t, err)
	assert.Equal(t, "before", got.Name)
}

func TestDocumentStoreRejectsCancelledContext(t *testing.T) {
	store, err := OpenDocumentStore(filepath.Join(t.TempDir(), "store.json"))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, store.Put(ctx, "k", 1), context.Canceled)
}

func TestOpenDocumentStoreRejectsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))
	_, err := OpenDocumentStore(path)
	require.Error(t, err)
}
