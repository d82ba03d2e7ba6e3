package bloom

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFilter(t *testing.T) {
	for scenario, fn := range map[string]func(t *testing.T){
		"NoFalseNegatives": test_NoFalseNegatives,
		"RejectsAbsent":    test_RejectsAbsent,
		"RoundTripsToDisk": test_RoundTripsToDisk,
	} {
		fn := fn // https://github.com/golang/go/wiki/CommonMistakes
		t.Run(scenario, func(t *testing.T) {
			fn(t)
		})
	}
}

func test_NoFalseNegatives(t *testing.T) {
	f := NewWithEstimates(100, 0.01)

	keys := [][]byte{[]byte("apple"), []byte("banana"), []byte("cherry")}
	for _, k := range keys {
		f.Add(k)
	}

	for _, k := range keys {
		require.True(t, f.Contains(k))
	}
}

func test_RejectsAbsent(t *testing.T) {
	f := NewWithEstimates(100, 0.01)
	f.Add([]byte("present"))

	// Not a hard guarantee (false positives are allowed), but a filter
	// sized this generously should reject an obviously absent key.
	require.False(t, f.Contains([]byte("definitely-not-present")))
}

func test_RoundTripsToDisk(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "segment-0.bloom")

	f := NewWithEstimates(10, 0.01)
	f.Add([]byte("a"))
	f.Add([]byte("b"))

	require.NoError(t, f.WriteFile(path))

	loaded, err := LoadFile(path)
	require.NoError(t, err)
	require.True(t, loaded.Contains([]byte("a")))
	require.True(t, loaded.Contains([]byte("b")))
}
