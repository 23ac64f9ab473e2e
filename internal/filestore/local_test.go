package filestore_test

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/literag/internal/config"
	"github.com/xxxsen/literag/internal/filestore"
)

type memFile struct {
	*bytes.Reader
}

func (m *memFile) Close() error { return nil }

func newMemFile(data string) *memFile {
	return &memFile{Reader: bytes.NewReader([]byte(data))}
}

func newLocalStore(t *testing.T) filestore.Store {
	t.Helper()
	store, err := filestore.New(config.FileStoreConfig{
		Type: "local",
		Data: map[string]interface{}{"dir": t.TempDir()},
	})
	require.NoError(t, err)
	return store
}

func TestLocalStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newLocalStore(t)

	require.NoError(t, store.Save(ctx, "key-1", newMemFile("hello blob"), 10))

	f, err := store.Open(ctx, "key-1")
	require.NoError(t, err)
	data, err := io.ReadAll(f)
	require.NoError(t, err)
	require.NoError(t, f.Close())
	require.Equal(t, "hello blob", string(data))

	require.NoError(t, store.Delete(ctx, "key-1"))
	_, err = store.Open(ctx, "key-1")
	require.Error(t, err)

	// deleting a missing key is not an error
	require.NoError(t, store.Delete(ctx, "key-1"))
}

func TestLocalStoreRejectsPathKeys(t *testing.T) {
	ctx := context.Background()
	store := newLocalStore(t)

	require.Error(t, store.Save(ctx, "../escape", newMemFile("x"), 1))
	require.Error(t, store.Save(ctx, "a/b", newMemFile("x"), 1))
	_, err := store.Open(ctx, "")
	require.Error(t, err)
}

func TestNewUnknownStoreType(t *testing.T) {
	_, err := filestore.New(config.FileStoreConfig{Type: "ftp"})
	require.Error(t, err)
}
