package diskcache

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func openTestEngine(t *testing.T, st StorageType) *Engine {
	t.Helper()
	eng, ok := Open(Options{Path: t.TempDir(), StorageType: st, LogErrors: true})
	require.True(t, ok)
	t.Cleanup(eng.Close)
	return eng
}

func TestSaveAndGetValueRoundTrip(t *testing.T) {
	eng := openTestEngine(t, Mixed)

	require.True(t, eng.Save("k1", []byte("hello"), "", nil))
	value, ok := eng.GetValue("k1")
	require.True(t, ok)
	require.Equal(t, []byte("hello"), value)
}

func TestSaveRejectsEmptyKeyOrValue(t *testing.T) {
	eng := openTestEngine(t, Mixed)

	require.False(t, eng.Save("", []byte("x"), "", nil))
	require.False(t, eng.Save("k", nil, "", nil))
}

func TestGetValueMissReturnsFalse(t *testing.T) {
	eng := openTestEngine(t, Mixed)
	_, ok := eng.GetValue("nope")
	require.False(t, ok)
}

// Boundary scenario 1: inline vs file routing under Mixed.
func TestInlineVsFileRoutingMixed(t *testing.T) {
	eng := openTestEngine(t, Mixed)

	require.True(t, eng.Save("a", make([]byte, 10), "", nil))
	big := make([]byte, 30000)
	require.True(t, eng.Save("b", big, "b.bin", nil))

	rowA, ok := eng.manifest.get("a", false)
	require.True(t, ok)
	require.Empty(t, rowA.Filename)
	require.Len(t, rowA.InlineData, 10)

	rowB, ok := eng.manifest.get("b", false)
	require.True(t, ok)
	require.Equal(t, "b.bin", rowB.Filename)
	require.Empty(t, rowB.InlineData)

	info, err := os.Stat(filepath.Join(eng.path, "data", "b.bin"))
	require.NoError(t, err)
	require.EqualValues(t, 30000, info.Size())
}

func TestFileStorageTypeRejectsInline(t *testing.T) {
	eng := openTestEngine(t, File)
	require.False(t, eng.Save("k", []byte("x"), "", nil))
	require.True(t, eng.Save("k", []byte("x"), "k.bin", nil))
}

func TestSqliteStorageTypeRejectsFilename(t *testing.T) {
	eng := openTestEngine(t, Sqlite)
	require.False(t, eng.Save("k", []byte("x"), "k.bin", nil))
	require.True(t, eng.Save("k", []byte("x"), "", nil))
}

// Boundary scenario 2: LRU eviction to a size budget.
func TestTrimToSizeEvictsOldest(t *testing.T) {
	eng := openTestEngine(t, Mixed)

	for i := 0; i < 100; i++ {
		key := keyFor(i)
		require.True(t, eng.Save(key, make([]byte, 1000), "", nil))
	}

	require.True(t, eng.TrimToSize(50000))
	require.LessOrEqual(t, eng.SizeSum(), int64(50000))

	for i := 50; i < 100; i++ {
		_, ok := eng.GetValue(keyFor(i))
		require.True(t, ok, "expected recent key %d to survive", i)
	}
}

func keyFor(i int) string {
	return "key-" + string(rune('a'+i%26)) + string(rune('0'+i/26))
}

// Boundary scenario 3: fast remove-all.
func TestRemoveAllIsFast(t *testing.T) {
	eng := openTestEngine(t, Mixed)
	for i := 0; i < 50; i++ {
		require.True(t, eng.Save(keyFor(i), []byte("v"), "", nil))
	}
	require.True(t, eng.RemoveAll())
	require.EqualValues(t, 0, eng.Count())
}

// Boundary scenario 4: recovery after out-of-band database deletion.
func TestRecoveryAfterExternalDelete(t *testing.T) {
	dir := t.TempDir()
	eng, ok := Open(Options{Path: dir, StorageType: Mixed, LogErrors: true})
	require.True(t, ok)
	require.True(t, eng.Save("k", []byte("v"), "", nil))
	eng.Close()

	dbPath, shm, wal := dbPaths(dir)
	os.Remove(dbPath)
	os.Remove(shm)
	os.Remove(wal)

	eng2, ok := Open(Options{Path: dir, StorageType: Mixed, LogErrors: true})
	require.True(t, ok)
	defer eng2.Close()
	require.EqualValues(t, 0, eng2.Count())
}

// Property P5: self-healing on externally deleted file.
func TestSelfHealingOnMissingFile(t *testing.T) {
	eng := openTestEngine(t, Mixed)
	require.True(t, eng.Save("k", []byte("v"), "k.bin", nil))
	require.True(t, os.Remove(filepath.Join(eng.path, "data", "k.bin")) == nil)

	_, ok := eng.GetValue("k")
	require.False(t, ok)
	require.False(t, eng.Exists("k"))
}

func TestRemoveDeletesFileAndRow(t *testing.T) {
	eng := openTestEngine(t, Mixed)
	require.True(t, eng.Save("k", []byte("v"), "k.bin", nil))
	require.True(t, eng.Remove("k"))
	_, err := os.Stat(filepath.Join(eng.path, "data", "k.bin"))
	require.True(t, os.IsNotExist(err))
	require.False(t, eng.Exists("k"))
}

func TestTrimOlderThanEvictsByAge(t *testing.T) {
	eng := openTestEngine(t, Mixed)
	require.True(t, eng.Save("old", []byte("v"), "", nil))
	eng.manifest.db.Exec("UPDATE manifest SET last_access_time = 0 WHERE key = 'old'")
	require.True(t, eng.Save("new", []byte("v"), "", nil))

	require.True(t, eng.TrimOlderThan(1))
	require.False(t, eng.Exists("old"))
	require.True(t, eng.Exists("new"))
}
