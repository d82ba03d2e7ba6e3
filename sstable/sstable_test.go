package sstable

import (
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kamishiro/lsmkv/btree"
)

func items(pairs ...[2]string) []btree.Item {
	out := make([]btree.Item, 0, len(pairs))
	for _, p := range pairs {
		out = append(out, btree.Item{Key: []byte(p[0]), Entry: btree.Entry{Value: []byte(p[1])}})
	}
	return out
}

func TestSSTable(t *testing.T) {
	for scenario, fn := range map[string]func(t *testing.T){
		"FlushThenGet":        test_FlushThenGet,
		"GetMissingKey":       test_GetMissingKey,
		"TombstoneRoundTrips": test_TombstoneRoundTrips,
		"ReadIterInOrder":     test_ReadIterInOrder,
		"OpenReloadsSidecars": test_OpenReloadsSidecars,
		"RemoveDeletesFiles":  test_RemoveDeletesFiles,
	} {
		fn := fn // https://github.com/golang/go/wiki/CommonMistakes
		t.Run(scenario, func(t *testing.T) {
			fn(t)
		})
	}
}

func test_FlushThenGet(t *testing.T) {
	dir := t.TempDir()
	sst, err := FlushFromMemtable(dir, 0, items([2]string{"a", "A"}, [2]string{"b", "BB"}, [2]string{"c", "CCC"}), 2, 0.01)
	require.NoError(t, err)
	defer sst.Close()

	value, found, tombstone, err := sst.Get([]byte("b"))
	require.NoError(t, err)
	require.True(t, found)
	require.False(t, tombstone)
	require.Equal(t, []byte("BB"), value)
}

func test_GetMissingKey(t *testing.T) {
	dir := t.TempDir()
	sst, err := FlushFromMemtable(dir, 0, items([2]string{"a", "A"}), 1, 0.01)
	require.NoError(t, err)
	defer sst.Close()

	_, found, _, err := sst.Get([]byte("z"))
	require.NoError(t, err)
	require.False(t, found)
}

func test_TombstoneRoundTrips(t *testing.T) {
	dir := t.TempDir()
	entries := items([2]string{"a", "A"})
	entries = append(entries, btree.Item{Key: []byte("b"), Entry: btree.Entry{Tombstone: true}})

	sst, err := FlushFromMemtable(dir, 0, entries, 1, 0.01)
	require.NoError(t, err)
	defer sst.Close()

	_, found, tombstone, err := sst.Get([]byte("b"))
	require.NoError(t, err)
	require.True(t, found)
	require.True(t, tombstone)
}

func test_ReadIterInOrder(t *testing.T) {
	dir := t.TempDir()
	sst, err := FlushFromMemtable(dir, 0, items([2]string{"a", "A"}, [2]string{"b", "B"}, [2]string{"c", "C"}), 1, 0.01)
	require.NoError(t, err)
	defer sst.Close()

	it, err := sst.ReadIter()
	require.NoError(t, err)
	defer it.Close()

	var keys []string
	for {
		rec, err := it.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		keys = append(keys, string(rec.Key))
	}
	require.Equal(t, []string{"a", "b", "c"}, keys)
}

func test_OpenReloadsSidecars(t *testing.T) {
	dir := t.TempDir()
	sst, err := FlushFromMemtable(dir, 7, items([2]string{"x", "X"}), 1, 0.01)
	require.NoError(t, err)
	require.NoError(t, sst.Close())

	reopened, err := Open(dir, 7)
	require.NoError(t, err)
	defer reopened.Close()

	value, found, _, err := reopened.Get([]byte("x"))
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, []byte("X"), value)
}

func test_RemoveDeletesFiles(t *testing.T) {
	dir := t.TempDir()
	sst, err := FlushFromMemtable(dir, 3, items([2]string{"x", "X"}), 1, 0.01)
	require.NoError(t, err)
	require.NoError(t, sst.Remove())

	_, err = Open(dir, 3)
	require.Error(t, err)
}
