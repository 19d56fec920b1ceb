package cache

import (
	"fmt"
	"testing"

	"github.com/ValentinKolb/fKV/lib/gptr"
	"github.com/ValentinKolb/fKV/lib/kvs"
	"github.com/ValentinKolb/fKV/lib/pool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newStores opens two instances of the same store
func newStores(t *testing.T) (kvs.Store, kvs.Store) {
	opts := kvs.DefaultOptions()
	opts.Heap = &pool.Params{Base: "cache-test", User: t.Name(), HeapID: 3, HeapSize: 64 << 20}
	t.Cleanup(func() {
		pool.Destroy(opts.Heap)
	})

	s1, err := kvs.MakeStore(kvs.IndexHashTable, gptr.Null, opts)
	require.NoError(t, err)
	s2, err := kvs.MakeStore(kvs.IndexHashTable, s1.Location(), opts)
	require.NoError(t, err)
	return s1, s2
}

func TestGetHitAndMiss(t *testing.T) {
	s, _ := newStores(t)
	c, err := New(s, 16)
	require.NoError(t, err)

	_, err = c.Get([]byte("missing"))
	assert.ErrorIs(t, err, kvs.ErrKeyDoesNotExist)
	assert.Equal(t, 0, c.Stats().Entries, "absent keys are not cached")

	require.NoError(t, s.Put([]byte("key"), []byte("value")))

	val, err := c.Get([]byte("key"))
	require.NoError(t, err)
	assert.Equal(t, []byte("value"), val)

	val, err = c.Get([]byte("key"))
	require.NoError(t, err)
	assert.Equal(t, []byte("value"), val)

	// returned values are copies of the cached one
	val[0] = 'X'
	val, err = c.Get([]byte("key"))
	require.NoError(t, err)
	assert.Equal(t, []byte("value"), val)

	stats := c.Stats()
	assert.Equal(t, uint64(2), stats.Misses)
	assert.Equal(t, uint64(2), stats.Hits)
	assert.Equal(t, 1, stats.Entries)
}

func TestCoherenceAcrossInstances(t *testing.T) {
	s1, s2 := newStores(t)
	c, err := New(s1, 16)
	require.NoError(t, err)

	require.NoError(t, c.Put([]byte("key"), []byte("v1")))
	val, err := c.Get([]byte("key"))
	require.NoError(t, err)
	assert.Equal(t, []byte("v1"), val)
	assert.Equal(t, uint64(1), c.Stats().Hits)

	// another instance overwrites the value behind the cache's back
	require.NoError(t, s2.Put([]byte("key"), []byte("v2")))
	val, err = c.Get([]byte("key"))
	require.NoError(t, err)
	assert.Equal(t, []byte("v2"), val)
	assert.Equal(t, uint64(1), c.Stats().Refreshes)

	// and deletes it
	require.NoError(t, s2.Del([]byte("key")))
	_, err = c.Get([]byte("key"))
	assert.ErrorIs(t, err, kvs.ErrKeyDoesNotExist)
	_, err = c.Get([]byte("key"))
	assert.ErrorIs(t, err, kvs.ErrKeyDoesNotExist)
	assert.Equal(t, uint64(2), c.Stats().Hits, "cached tombstone is current")
}

func TestPutAndDelThroughCache(t *testing.T) {
	s, _ := newStores(t)
	c, err := New(s, 16)
	require.NoError(t, err)

	assert.ErrorIs(t, c.Del([]byte("key")), kvs.ErrKeyDoesNotExist)

	require.NoError(t, c.Put([]byte("key"), []byte("v1")))
	require.NoError(t, c.Put([]byte("key"), []byte("v2")))
	val, err := s.Get([]byte("key"))
	require.NoError(t, err)
	assert.Equal(t, []byte("v2"), val)

	require.NoError(t, c.Del([]byte("key")))
	_, err = s.Get([]byte("key"))
	assert.ErrorIs(t, err, kvs.ErrKeyDoesNotExist)
	// key node persists
	assert.NoError(t, c.Del([]byte("key")))

	c.Invalidate([]byte("key"))
	assert.NoError(t, c.Del([]byte("key")))
	_, err = c.Get([]byte("key"))
	assert.ErrorIs(t, err, kvs.ErrKeyDoesNotExist)
}

func TestEviction(t *testing.T) {
	s, _ := newStores(t)
	c, err := New(s, 4)
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		require.NoError(t, c.Put([]byte(fmt.Sprintf("key-%d", i)), []byte(fmt.Sprintf("v%d", i))))
	}
	assert.Equal(t, 4, c.Stats().Entries)

	// evicted keys are still served by the store
	val, err := c.Get([]byte("key-0"))
	require.NoError(t, err)
	assert.Equal(t, []byte("v0"), val)
	assert.Equal(t, uint64(1), c.Stats().Misses)

	c.Purge()
	assert.Equal(t, 0, c.Stats().Entries)
}
