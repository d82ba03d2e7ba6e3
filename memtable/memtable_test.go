package memtable

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMemTable(t *testing.T) {
	for scenario, fn := range map[string]func(t *testing.T){
		"PutGet":            test_PutGet,
		"GetMissing":        test_GetMissing,
		"DelShadowsValue":   test_DelShadowsValue,
		"SizeTracksLiveBytes": test_SizeTracksLiveBytes,
		"ClearResetsState":  test_ClearResetsState,
		"ItemsSortedByKey":  test_ItemsSortedByKey,
	} {
		fn := fn // https://github.com/golang/go/wiki/CommonMistakes
		t.Run(scenario, func(t *testing.T) {
			fn(t)
		})
	}
}

func test_PutGet(t *testing.T) {
	mt := New(3)
	mt.Put([]byte("test"), []byte("test"))
	mt.Put([]byte("a"), []byte(strings.Repeat("a", 4*1024)))

	value, found, tombstone := mt.Get([]byte("test"))
	require.True(t, found)
	require.False(t, tombstone)
	require.Equal(t, []byte("test"), value)

	value, found, tombstone = mt.Get([]byte("a"))
	require.True(t, found)
	require.False(t, tombstone)
	require.Equal(t, []byte(strings.Repeat("a", 4*1024)), value)
}

func test_GetMissing(t *testing.T) {
	mt := New(3)
	_, found, tombstone := mt.Get([]byte("no-entry"))
	require.False(t, found)
	require.False(t, tombstone)
}

func test_DelShadowsValue(t *testing.T) {
	mt := New(3)
	mt.Put([]byte("test"), []byte("test"))
	mt.Del([]byte("test"))

	value, found, tombstone := mt.Get([]byte("test"))
	require.True(t, found)
	require.True(t, tombstone)
	require.Nil(t, value)

	mt.Del([]byte("no-entry"))
	_, found, tombstone = mt.Get([]byte("no-entry"))
	require.True(t, found)
	require.True(t, tombstone)
}

func test_SizeTracksLiveBytes(t *testing.T) {
	mt := New(3)
	mt.Put([]byte("a"), []byte("123"))
	require.Equal(t, uint64(3), mt.Size())

	mt.Put([]byte("a"), []byte("12345"))
	require.Equal(t, uint64(5), mt.Size())

	mt.Del([]byte("a"))
	require.Equal(t, uint64(0), mt.Size())
}

func test_ClearResetsState(t *testing.T) {
	mt := New(3)
	mt.Put([]byte("a"), []byte("1"))
	mt.Clear(3)

	require.Equal(t, 0, mt.Count())
	require.Equal(t, uint64(0), mt.Size())
}

func test_ItemsSortedByKey(t *testing.T) {
	mt := New(3)
	mt.Put([]byte("c"), []byte("C"))
	mt.Put([]byte("a"), []byte("A"))
	mt.Put([]byte("b"), []byte("B"))

	items := mt.Items()
	require.Len(t, items, 3)
	require.Equal(t, []byte("a"), items[0].Key)
	require.Equal(t, []byte("b"), items[1].Key)
	require.Equal(t, []byte("c"), items[2].Key)
}
