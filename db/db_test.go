package db

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kamishiro/lsmkv/config"
	"github.com/kamishiro/lsmkv/engine"
)

func TestDB(t *testing.T) {
	for scenario, fn := range map[string]func(t *testing.T){
		"BTreeBackendBasicOps":     test_BTreeBackendBasicOps,
		"BTreeRejectsFuzzyGet":     test_BTreeRejectsFuzzyGet,
		"LSMBackendBasicOps":       test_LSMBackendBasicOps,
		"LSMBackendSupportsFuzzy":  test_LSMBackendSupportsFuzzy,
		"UnrecognizedEngineType":   test_UnrecognizedEngineType,
		"BTreeRejectsCompact":      test_BTreeRejectsCompact,
	} {
		fn := fn // https://github.com/golang/go/wiki/CommonMistakes
		t.Run(scenario, func(t *testing.T) {
			fn(t)
		})
	}
}

func test_BTreeBackendBasicOps(t *testing.T) {
	opts := config.Default()
	opts.Directory = t.TempDir()
	opts.EngineType = "btree"

	handle, err := Open(opts, nil)
	require.NoError(t, err)
	defer handle.Close()

	require.NoError(t, handle.Put([]byte("hello"), []byte("world")))
	value, found, err := handle.Get([]byte("hello"))
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, []byte("world"), value)

	require.NoError(t, handle.Delete([]byte("hello")))
	_, found, err = handle.Get([]byte("hello"))
	require.NoError(t, err)
	require.False(t, found)
}

func test_BTreeRejectsFuzzyGet(t *testing.T) {
	opts := config.Default()
	opts.Directory = t.TempDir()
	opts.EngineType = "btree"

	handle, err := Open(opts, nil)
	require.NoError(t, err)
	defer handle.Close()

	_, err = handle.FuzzyGet([]byte("hello"), 1)
	require.ErrorIs(t, err, engine.ErrCapabilityUnsupported)
}

func test_BTreeRejectsCompact(t *testing.T) {
	opts := config.Default()
	opts.Directory = t.TempDir()
	opts.EngineType = "btree"

	handle, err := Open(opts, nil)
	require.NoError(t, err)
	defer handle.Close()

	require.ErrorIs(t, handle.Compact(), engine.ErrCapabilityUnsupported)
}

func test_LSMBackendBasicOps(t *testing.T) {
	opts := config.Default()
	opts.Directory = t.TempDir()
	opts.EngineType = "lsmtree"
	opts.MemtableThreshold = 1000

	handle, err := Open(opts, nil)
	require.NoError(t, err)
	defer handle.Close()

	require.NoError(t, handle.Put([]byte("a"), []byte("1")))
	value, found, err := handle.Get([]byte("a"))
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, []byte("1"), value)

	require.NoError(t, handle.Compact())
}

func test_LSMBackendSupportsFuzzy(t *testing.T) {
	opts := config.Default()
	opts.Directory = t.TempDir()
	opts.EngineType = "lsmtree"
	opts.MemtableThreshold = 1000

	handle, err := Open(opts, nil)
	require.NoError(t, err)
	defer handle.Close()

	require.NoError(t, handle.Put([]byte("apple"), []byte("fruit")))
	require.NoError(t, handle.Put([]byte("apples"), []byte("fruits")))

	results, err := handle.FuzzyGet([]byte("apple"), 1)
	require.NoError(t, err)
	require.Len(t, results, 2)
}

func test_UnrecognizedEngineType(t *testing.T) {
	opts := config.Default()
	opts.Directory = t.TempDir()
	opts.EngineType = "not-a-real-engine"

	_, err := Open(opts, nil)
	require.ErrorIs(t, err, ErrUnrecognizedEngineType)
}
