package wal

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeApplier struct {
	puts map[string][]byte
	dels map[string]bool
}

func newFakeApplier() *fakeApplier {
	return &fakeApplier{puts: map[string][]byte{}, dels: map[string]bool{}}
}

func (f *fakeApplier) Put(key, value []byte) {
	f.puts[string(key)] = value
	delete(f.dels, string(key))
}

func (f *fakeApplier) Del(key []byte) {
	f.dels[string(key)] = true
	delete(f.puts, string(key))
}

func TestWAL(t *testing.T) {
	for scenario, fn := range map[string]func(t *testing.T){
		"AppendAndReplay":   test_AppendAndReplay,
		"ResetTruncates":    test_ResetTruncates,
		"ReplayMissingFile": test_ReplayMissingFile,
	} {
		fn := fn // https://github.com/golang/go/wiki/CommonMistakes
		t.Run(scenario, func(t *testing.T) {
			fn(t)
		})
	}
}

func test_AppendAndReplay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.wal")

	w, err := Open(path)
	require.NoError(t, err)

	require.NoError(t, w.Append(Record{Op: OpPut, Key: []byte("a"), Value: []byte("1")}))
	require.NoError(t, w.Append(Record{Op: OpPut, Key: []byte("b"), Value: []byte("2")}))
	require.NoError(t, w.Append(Record{Op: OpDelete, Key: []byte("a")}))
	require.NoError(t, w.Close())

	applier := newFakeApplier()
	require.NoError(t, Replay(path, applier))

	require.Equal(t, []byte("2"), applier.puts["b"])
	require.True(t, applier.dels["a"])
	_, stillPresent := applier.puts["a"]
	require.False(t, stillPresent)
}

func test_ResetTruncates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.wal")

	w, err := Open(path)
	require.NoError(t, err)

	require.NoError(t, w.Append(Record{Op: OpPut, Key: []byte("a"), Value: []byte("1")}))
	require.True(t, w.Size() > 0)

	require.NoError(t, w.Reset())
	require.Equal(t, int64(0), w.Size())

	applier := newFakeApplier()
	require.NoError(t, w.Close())
	require.NoError(t, Replay(path, applier))
	require.Empty(t, applier.puts)
}

func test_ReplayMissingFile(t *testing.T) {
	applier := newFakeApplier()
	require.NoError(t, Replay(filepath.Join(t.TempDir(), "does-not-exist.wal"), applier))
	require.Empty(t, applier.puts)
}
