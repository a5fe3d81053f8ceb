package diskcache

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestBlobStoreWriteReadDelete(t *testing.T) {
	b, ok := newBlobStore(t.TempDir(), true)
	require.True(t, ok)

	require.True(t, b.write("f.bin", []byte("data")))
	data, ok := b.read("f.bin")
	require.True(t, ok)
	require.Equal(t, []byte("data"), data)

	require.True(t, b.delete("f.bin"))
	_, ok = b.read("f.bin")
	require.False(t, ok)
}

func TestBlobStoreMoveAllToTrash(t *testing.T) {
	b, ok := newBlobStore(t.TempDir(), true)
	require.True(t, ok)
	require.True(t, b.write("f.bin", []byte("data")))

	require.True(t, b.moveAllToTrash())
	_, err := os.Stat(filepath.Join(b.dataDir, "f.bin"))
	require.True(t, os.IsNotExist(err))
	require.Equal(t, 1, b.trashDepth())
}

func TestBlobStoreEmptyTrashAsyncDrains(t *testing.T) {
	b, ok := newBlobStore(t.TempDir(), true)
	require.True(t, ok)
	require.True(t, b.write("f.bin", []byte("data")))
	require.True(t, b.moveAllToTrash())
	require.Equal(t, 1, b.trashDepth())

	done := make(chan struct{})
	b.emptyTrashAsync(func() { close(done) })

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("trash drain did not complete")
	}
	require.Equal(t, 0, b.trashDepth())
}
