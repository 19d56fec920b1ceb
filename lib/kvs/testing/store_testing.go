package testing

import (
	"bytes"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/ValentinKolb/fKV/lib/gptr"
	"github.com/ValentinKolb/fKV/lib/kvs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// StoreFactory opens the store at location, a null location creates a new,
// empty store
type StoreFactory func(location gptr.Gptr) (kvs.Store, error)

// RunStoreTests runs the conformance suite for a store.
// ordered tells whether the index type supports Scan.
func RunStoreTests(t *testing.T, name string, ordered bool, factory StoreFactory) {
	t.Run(name, func(t *testing.T) {
		t.Run("Put&Get", func(t *testing.T) {
			testPutGet(t, newStore(t, factory))
		})

		t.Run("MissingKey", func(t *testing.T) {
			testMissingKey(t, newStore(t, factory))
		})

		t.Run("DeleteKeepsKeyNode", func(t *testing.T) {
			testDeleteKeepsKeyNode(t, newStore(t, factory))
		})

		t.Run("FindOrCreate", func(t *testing.T) {
			testFindOrCreate(t, newStore(t, factory))
		})

		t.Run("FindOrCreateRace", func(t *testing.T) {
			testFindOrCreateRace(t, factory)
		})

		t.Run("PutByKeyRace", func(t *testing.T) {
			testPutByKeyRace(t, factory)
		})

		t.Run("Limits", func(t *testing.T) {
			testLimits(t, newStore(t, factory))
		})

		t.Run("TagMonotonicity", func(t *testing.T) {
			testTagMonotonicity(t, newStore(t, factory))
		})

		t.Run("CacheCoherence", func(t *testing.T) {
			testCacheCoherence(t, newStore(t, factory))
		})

		t.Run("CachedDelete", func(t *testing.T) {
			testCachedDelete(t, newStore(t, factory))
		})

		t.Run("InvalidHandle", func(t *testing.T) {
			testInvalidHandle(t, newStore(t, factory))
		})

		t.Run("SharedLocation", func(t *testing.T) {
			testSharedLocation(t, factory)
		})

		t.Run("Maintenance", func(t *testing.T) {
			testMaintenance(t, newStore(t, factory))
		})

		t.Run("ConcurrentReadWrite", func(t *testing.T) {
			testConcurrentReadWrite(t, newStore(t, factory))
		})

		if !ordered {
			t.Run("ScanUnsupported", func(t *testing.T) {
				testScanUnsupported(t, newStore(t, factory))
			})
			return
		}

		t.Run("ScanOrder", func(t *testing.T) {
			testScanOrder(t, newStore(t, factory))
		})

		t.Run("ScanBounds", func(t *testing.T) {
			testScanBounds(t, newStore(t, factory))
		})

		t.Run("ScanSkipsDeleted", func(t *testing.T) {
			testScanSkipsDeleted(t, newStore(t, factory))
		})

		t.Run("ScanEmpty", func(t *testing.T) {
			testScanEmpty(t, newStore(t, factory))
		})

		t.Run("IteratorHandles", func(t *testing.T) {
			testIteratorHandles(t, newStore(t, factory))
		})
	})
}

// --------------------------------------------------------------------------
// Helper functions
// --------------------------------------------------------------------------

func newStore(t testing.TB, factory StoreFactory) kvs.Store {
	s, err := factory(gptr.Null)
	require.NoError(t, err)
	t.Cleanup(func() {
		s.Close()
	})
	return s
}

func requireCode(t testing.TB, err error, code kvs.RetCode) {
	require.Error(t, err)
	require.Equal(t, code, kvs.CodeOf(err), "unexpected error: %v", err)
}

func mustPut(t testing.TB, s kvs.Store, key, val string) {
	require.NoError(t, s.Put([]byte(key), []byte(val)))
}

// collect drains an iterator that was opened with Scan
func collect(t testing.TB, s kvs.Store, begin []byte, beginIncl bool, end []byte, endIncl bool) []string {
	iter, key, _, err := s.Scan(begin, beginIncl, end, endIncl)
	if errors.Is(err, kvs.ErrNoKeyInRange) {
		return nil
	}
	require.NoError(t, err)

	keys := []string{string(key)}
	for {
		key, _, err = s.GetNext(iter)
		if errors.Is(err, kvs.ErrNoNextKey) {
			return keys
		}
		require.NoError(t, err)
		keys = append(keys, string(key))
	}
}

// --------------------------------------------------------------------------
// Test functions
// --------------------------------------------------------------------------

func testPutGet(t *testing.T, s kvs.Store) {
	mustPut(t, s, "key", "value1")

	val, err := s.Get([]byte("key"))
	require.NoError(t, err)
	assert.Equal(t, []byte("value1"), val)

	mustPut(t, s, "key", "value2")
	val, err = s.Get([]byte("key"))
	require.NoError(t, err)
	assert.Equal(t, []byte("value2"), val)

	// values are copies
	val[0] = 'X'
	val, err = s.Get([]byte("key"))
	require.NoError(t, err)
	assert.Equal(t, []byte("value2"), val)

	// arbitrary bytes round-trip, including empty values and NUL bytes
	for i, v := range [][]byte{{}, {0x00}, {0xff, 0x00, 0x01}, bytes.Repeat([]byte{0xab}, s.MaxValLen())} {
		key := []byte(fmt.Sprintf("binary-%d", i))
		require.NoError(t, s.Put(key, v))
		got, err := s.Get(key)
		require.NoError(t, err)
		assert.True(t, bytes.Equal(v, got), "value %d did not round-trip", i)
	}
}

func testMissingKey(t *testing.T, s kvs.Store) {
	_, err := s.Get([]byte("missing"))
	assert.ErrorIs(t, err, kvs.ErrKeyDoesNotExist)

	err = s.Del([]byte("missing"))
	assert.ErrorIs(t, err, kvs.ErrKeyDoesNotExist)

	val, keyPtr, valPtr, err := s.GetByKey([]byte("missing"))
	require.NoError(t, err)
	assert.Nil(t, val)
	assert.True(t, keyPtr.IsNull())
	assert.True(t, valPtr.IsNull())

	keyPtr, _, err = s.DelByKey([]byte("missing"))
	require.NoError(t, err)
	assert.True(t, keyPtr.IsNull())

	existing, found, err := s.FindOrCreate([]byte("missing"), []byte("now-present"))
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, existing)
}

func testDeleteKeepsKeyNode(t *testing.T, s kvs.Store) {
	mustPut(t, s, "key", "value")
	require.NoError(t, s.Del([]byte("key")))

	_, err := s.Get([]byte("key"))
	assert.ErrorIs(t, err, kvs.ErrKeyDoesNotExist)

	// the key node survives, so deleting again succeeds
	assert.NoError(t, s.Del([]byte("key")))

	val, keyPtr, valPtr, err := s.GetByKey([]byte("key"))
	require.NoError(t, err)
	assert.Nil(t, val)
	assert.False(t, keyPtr.IsNull(), "key node should still exist")
	assert.True(t, valPtr.IsNull(), "value slot should be a tombstone")

	// FindOrCreate finds the tombstoned key node and does not write
	existing, found, err := s.FindOrCreate([]byte("key"), []byte("new"))
	require.NoError(t, err)
	assert.True(t, found)
	assert.Nil(t, existing)
	_, err = s.Get([]byte("key"))
	assert.ErrorIs(t, err, kvs.ErrKeyDoesNotExist)

	// Put revives the key on the same key node
	putKeyPtr, _, err := s.PutByKey([]byte("key"), []byte("again"))
	require.NoError(t, err)
	assert.Equal(t, keyPtr, putKeyPtr)
	val, err = s.Get([]byte("key"))
	require.NoError(t, err)
	assert.Equal(t, []byte("again"), val)
}

func testFindOrCreate(t *testing.T, s kvs.Store) {
	existing, found, err := s.FindOrCreate([]byte("key"), []byte("first"))
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, existing)

	existing, found, err = s.FindOrCreate([]byte("key"), []byte("second"))
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []byte("first"), existing)

	val, err := s.Get([]byte("key"))
	require.NoError(t, err)
	assert.Equal(t, []byte("first"), val, "FindOrCreate must not overwrite")
}

func testFindOrCreateRace(t *testing.T, factory StoreFactory) {
	const (
		rounds  = 100
		callers = 8
	)
	s := newStore(t, factory)

	for r := 0; r < rounds; r++ {
		key := []byte(fmt.Sprintf("race-%d", r))

		var (
			wg       sync.WaitGroup
			mu       sync.Mutex
			inserted []int
		)
		start := make(chan struct{})
		for c := 0; c < callers; c++ {
			wg.Add(1)
			go func(c int) {
				defer wg.Done()
				<-start
				_, found, err := s.FindOrCreate(key, []byte(fmt.Sprintf("v%d", c)))
				if err != nil {
					t.Errorf("FindOrCreate: %v", err)
					return
				}
				if !found {
					mu.Lock()
					inserted = append(inserted, c)
					mu.Unlock()
				}
			}(c)
		}
		close(start)
		wg.Wait()

		require.Len(t, inserted, 1, "round %d: exactly one caller must insert", r)
		val, err := s.Get(key)
		require.NoError(t, err)
		assert.Equal(t, []byte(fmt.Sprintf("v%d", inserted[0])), val)
	}
}

func testLimits(t *testing.T, s kvs.Store) {
	require.Positive(t, s.MaxKeyLen())
	require.Positive(t, s.MaxValLen())

	longKey := bytes.Repeat([]byte("k"), s.MaxKeyLen()+1)
	longVal := bytes.Repeat([]byte("v"), s.MaxValLen()+1)

	requireCode(t, s.Put(longKey, []byte("v")), kvs.RetCError)
	requireCode(t, s.Put([]byte("k"), longVal), kvs.RetCError)
	_, _, err := s.FindOrCreate(longKey, []byte("v"))
	requireCode(t, err, kvs.RetCError)
	_, err = s.Get(longKey)
	requireCode(t, err, kvs.RetCError)

	// rejected writes leave no trace
	_, err = s.Get([]byte("k"))
	assert.ErrorIs(t, err, kvs.ErrKeyDoesNotExist)

	maxKey := bytes.Repeat([]byte("k"), s.MaxKeyLen())
	assert.NoError(t, s.Put(maxKey, []byte("v")))

	keyPtr, _, err := s.PutByKey([]byte("k"), []byte("v"))
	require.NoError(t, err)
	_, err = s.PutByHandle(keyPtr, longVal)
	requireCode(t, err, kvs.RetCError)
}

// testPutByKeyRace checks that concurrent writers creating the same key each
// get back the handle of their own write.
func testPutByKeyRace(t *testing.T, factory StoreFactory) {
	const (
		rounds  = 100
		callers = 8
	)
	s := newStore(t, factory)

	for r := 0; r < rounds; r++ {
		key := []byte(fmt.Sprintf("put-race-%d", r))

		var wg sync.WaitGroup
		handles := make([]gptr.TagGptr, callers)
		start := make(chan struct{})
		for c := 0; c < callers; c++ {
			wg.Add(1)
			go func(c int) {
				defer wg.Done()
				<-start
				_, tp, err := s.PutByKey(key, []byte(fmt.Sprintf("v%d", c)))
				if err != nil {
					t.Errorf("PutByKey: %v", err)
					return
				}
				handles[c] = tp
			}(c)
		}
		close(start)
		wg.Wait()

		tags := make(map[uint64]int, callers)
		ptrs := make(map[gptr.Gptr]int, callers)
		for c, tp := range handles {
			require.False(t, tp.IsNull(), "round %d: caller %d got a null handle", r, c)
			tags[tp.Tag]++
			ptrs[tp.Ptr]++
		}
		assert.Len(t, tags, callers, "round %d: tags must be unique: %v", r, handles)
		assert.Len(t, ptrs, callers, "round %d: payloads must be unique: %v", r, handles)
		assert.Equal(t, 1, tags[1], "round %d: exactly one caller creates the key", r)
	}
}

func testTagMonotonicity(t *testing.T, s kvs.Store) {
	key := []byte("key")

	keyPtr, tp, err := s.PutByKey(key, []byte("v1"))
	require.NoError(t, err)
	tags := []uint64{tp.Tag}

	_, tp, err = s.DelByKey(key)
	require.NoError(t, err)
	assert.True(t, tp.IsNull())
	tags = append(tags, tp.Tag)

	_, tp, err = s.PutByKey(key, []byte("v2"))
	require.NoError(t, err)
	tags = append(tags, tp.Tag)

	tp, err = s.PutByHandle(keyPtr, []byte("v3"))
	require.NoError(t, err)
	tags = append(tags, tp.Tag)

	tp, err = s.DelByHandle(keyPtr)
	require.NoError(t, err)
	tags = append(tags, tp.Tag)

	// deleting a tombstone is still a mutation
	tp, err = s.DelByHandle(keyPtr)
	require.NoError(t, err)
	tags = append(tags, tp.Tag)

	require.NoError(t, s.Put(key, []byte("v4")))
	_, _, tp, err = s.GetByKey(key)
	require.NoError(t, err)
	tags = append(tags, tp.Tag)

	for i := 1; i < len(tags); i++ {
		assert.Greater(t, tags[i], tags[i-1], "tags must strictly increase: %v", tags)
	}
}

func testCacheCoherence(t *testing.T, s kvs.Store) {
	keyPtr, cached, err := s.PutByKey([]byte("key"), []byte("v1"))
	require.NoError(t, err)

	// no mutation: still current, no payload
	live, val, err := s.GetByHandle(keyPtr, cached, false)
	require.NoError(t, err)
	assert.True(t, live.Equal(cached))
	assert.Nil(t, val)

	// forced refresh returns the payload even if current
	live, val, err = s.GetByHandle(keyPtr, cached, true)
	require.NoError(t, err)
	assert.True(t, live.Equal(cached))
	assert.Equal(t, []byte("v1"), val)

	// mutation through the non-cached path invalidates the cached handle
	mustPut(t, s, "key", "v2")
	live, val, err = s.GetByHandle(keyPtr, cached, false)
	require.NoError(t, err)
	assert.False(t, live.Equal(cached))
	assert.NotEqual(t, cached.Tag, live.Tag)
	assert.Equal(t, []byte("v2"), val)

	// rewriting the same bytes still invalidates
	cached = live
	mustPut(t, s, "key", "v2")
	live, val, err = s.GetByHandle(keyPtr, cached, false)
	require.NoError(t, err)
	assert.False(t, live.Equal(cached))
	assert.Equal(t, []byte("v2"), val)

	// GetByKey returns the same handles the cached path sees
	val, gotKeyPtr, valPtr, err := s.GetByKey([]byte("key"))
	require.NoError(t, err)
	assert.Equal(t, keyPtr, gotKeyPtr)
	assert.True(t, valPtr.Equal(live))
	assert.Equal(t, []byte("v2"), val)
}

func testCachedDelete(t *testing.T, s kvs.Store) {
	keyPtr, cached, err := s.PutByKey([]byte("key"), []byte("v1"))
	require.NoError(t, err)

	tomb, err := s.DelByHandle(keyPtr)
	require.NoError(t, err)
	assert.True(t, tomb.IsNull())

	live, val, err := s.GetByHandle(keyPtr, cached, false)
	require.NoError(t, err)
	assert.True(t, live.IsNull())
	assert.True(t, live.Equal(tomb))
	assert.Nil(t, val)

	// a cached tombstone is current as well
	live, val, err = s.GetByHandle(keyPtr, tomb, false)
	require.NoError(t, err)
	assert.True(t, live.Equal(tomb))
	assert.Nil(t, val)

	gotKeyPtr, tomb2, err := s.DelByKey([]byte("key"))
	require.NoError(t, err)
	assert.Equal(t, keyPtr, gotKeyPtr)
	assert.True(t, tomb2.IsNull())
	assert.Greater(t, tomb2.Tag, tomb.Tag)

	_, err = s.PutByHandle(keyPtr, []byte("v2"))
	require.NoError(t, err)
	val, err = s.Get([]byte("key"))
	require.NoError(t, err)
	assert.Equal(t, []byte("v2"), val)
}

func testInvalidHandle(t *testing.T, s kvs.Store) {
	_, valPtr, err := s.PutByKey([]byte("key"), []byte("value"))
	require.NoError(t, err)

	for _, ptr := range []gptr.Gptr{gptr.Null, valPtr.Ptr, s.Location(), gptr.New(0xfe, 64)} {
		_, _, err := s.GetByHandle(ptr, gptr.TagGptr{}, false)
		requireCode(t, err, kvs.RetCError)
		_, err = s.PutByHandle(ptr, []byte("v"))
		requireCode(t, err, kvs.RetCError)
		_, err = s.DelByHandle(ptr)
		requireCode(t, err, kvs.RetCError)
	}

	val, err := s.Get([]byte("key"))
	require.NoError(t, err)
	assert.Equal(t, []byte("value"), val)
}

func testSharedLocation(t *testing.T, factory StoreFactory) {
	s1 := newStore(t, factory)
	require.False(t, s1.Location().IsNull())

	s2, err := factory(s1.Location())
	require.NoError(t, err)
	defer s2.Close()
	assert.Equal(t, s1.Location(), s2.Location())

	keyPtr, cached, err := s1.PutByKey([]byte("key"), []byte("from-s1"))
	require.NoError(t, err)

	val, err := s2.Get([]byte("key"))
	require.NoError(t, err)
	assert.Equal(t, []byte("from-s1"), val)

	// handles are valid across instances
	_, err = s2.PutByHandle(keyPtr, []byte("from-s2"))
	require.NoError(t, err)
	live, val, err := s1.GetByHandle(keyPtr, cached, false)
	require.NoError(t, err)
	assert.False(t, live.Equal(cached))
	assert.Equal(t, []byte("from-s2"), val)

	// another new store in the same heap is independent
	s3 := newStore(t, factory)
	assert.NotEqual(t, s1.Location(), s3.Location())
	_, err = s3.Get([]byte("key"))
	assert.ErrorIs(t, err, kvs.ErrKeyDoesNotExist)

	// a location that is not a store root is rejected
	_, err = factory(keyPtr)
	assert.ErrorIs(t, err, kvs.ErrConfig)
}

func testMaintenance(t *testing.T, s kvs.Store) {
	s.Maintenance()
	base := s.Info().Heap.Objects

	for i := 0; i < 10; i++ {
		mustPut(t, s, "key", fmt.Sprintf("value-%d", i))
	}
	require.NoError(t, s.Del([]byte("key")))

	info := s.Info()
	assert.GreaterOrEqual(t, info.Heap.PendingFrees, 10)

	s.Maintenance()
	info = s.Info()
	assert.Equal(t, 0, info.Heap.PendingFrees)
	// only the key node remains
	assert.Equal(t, base+1, info.Heap.Objects)

	_, err := s.Get([]byte("key"))
	assert.ErrorIs(t, err, kvs.ErrKeyDoesNotExist)
	mustPut(t, s, "key", "alive")
	s.Maintenance()
	val, err := s.Get([]byte("key"))
	require.NoError(t, err)
	assert.Equal(t, []byte("alive"), val, "maintenance must not free a live value")
}

func testConcurrentReadWrite(t *testing.T, s kvs.Store) {
	const (
		writers = 4
		readers = 4
		ops     = 500
	)
	keys := make([][]byte, 16)
	for i := range keys {
		keys[i] = []byte(fmt.Sprintf("key-%02d", i))
		require.NoError(t, s.Put(keys[i], []byte("init")))
	}

	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < ops; i++ {
				key := keys[(w+i)%len(keys)]
				if err := s.Put(key, []byte(fmt.Sprintf("w%d-%d", w, i))); err != nil {
					t.Errorf("Put: %v", err)
				}
				if i%50 == 0 {
					s.Maintenance()
				}
			}
		}(w)
	}
	for r := 0; r < readers; r++ {
		wg.Add(1)
		go func(r int) {
			defer wg.Done()
			for i := 0; i < ops; i++ {
				val, err := s.Get(keys[(r+i)%len(keys)])
				if err != nil {
					t.Errorf("Get: %v", err)
					continue
				}
				if len(val) == 0 {
					t.Errorf("Get returned an empty value")
				}
			}
		}(r)
	}
	wg.Wait()

	s.Maintenance()
	for _, key := range keys {
		_, err := s.Get(key)
		assert.NoError(t, err)
	}
}

func testScanUnsupported(t *testing.T, s kvs.Store) {
	mustPut(t, s, "a", "1")
	_, _, _, err := s.Scan(kvs.OpenBoundaryKey, true, kvs.OpenBoundaryKey, true)
	requireCode(t, err, kvs.RetCUnsupportedOperation)

	// iterator calls report the same code as Scan, not an invalid handle
	_, _, err = s.GetNext(1)
	requireCode(t, err, kvs.RetCUnsupportedOperation)
	requireCode(t, s.EndScan(1), kvs.RetCUnsupportedOperation)
}

func testScanOrder(t *testing.T, s kvs.Store) {
	for _, k := range []string{"c", "a", "b"} {
		mustPut(t, s, k, "val-"+k)
	}

	iter, key, val, err := s.Scan(kvs.OpenBoundaryKey, true, kvs.OpenBoundaryKey, true)
	require.NoError(t, err)
	assert.Equal(t, []byte("a"), key)
	assert.Equal(t, []byte("val-a"), val)

	key, val, err = s.GetNext(iter)
	require.NoError(t, err)
	assert.Equal(t, []byte("b"), key)
	assert.Equal(t, []byte("val-b"), val)

	key, val, err = s.GetNext(iter)
	require.NoError(t, err)
	assert.Equal(t, []byte("c"), key)
	assert.Equal(t, []byte("val-c"), val)

	_, _, err = s.GetNext(iter)
	assert.ErrorIs(t, err, kvs.ErrNoNextKey)
}

func testScanBounds(t *testing.T, s kvs.Store) {
	for _, k := range []string{"a", "b", "c", "d", "ba"} {
		mustPut(t, s, k, k)
	}
	open := kvs.OpenBoundaryKey

	assert.Equal(t, []string{"ba", "c"}, collect(t, s, []byte("b"), false, []byte("c"), true))
	assert.Equal(t, []string{"b", "ba"}, collect(t, s, []byte("a"), false, []byte("c"), false))
	assert.Equal(t, []string{"a", "b", "ba"}, collect(t, s, open, true, []byte("c"), false))
	assert.Equal(t, []string{"c", "d"}, collect(t, s, []byte("c"), true, open, true))
	assert.Equal(t, []string{"b"}, collect(t, s, []byte("b"), true, []byte("b"), true))
	assert.Nil(t, collect(t, s, []byte("b"), false, []byte("b"), true))
	assert.Nil(t, collect(t, s, []byte("d"), true, []byte("a"), true))
	// bounds need not be stored keys
	assert.Equal(t, []string{"b", "ba"}, collect(t, s, []byte("aa"), true, []byte("bz"), true))
}

func testScanSkipsDeleted(t *testing.T, s kvs.Store) {
	for _, k := range []string{"a", "b", "c", "d"} {
		mustPut(t, s, k, k)
	}
	require.NoError(t, s.Del([]byte("a")))
	require.NoError(t, s.Del([]byte("c")))
	open := kvs.OpenBoundaryKey

	assert.Equal(t, []string{"b", "d"}, collect(t, s, open, true, open, true))

	require.NoError(t, s.Del([]byte("b")))
	require.NoError(t, s.Del([]byte("d")))
	_, _, _, err := s.Scan(open, true, open, true)
	assert.ErrorIs(t, err, kvs.ErrNoKeyInRange)
}

func testScanEmpty(t *testing.T, s kvs.Store) {
	open := kvs.OpenBoundaryKey
	_, _, _, err := s.Scan(open, true, open, true)
	assert.ErrorIs(t, err, kvs.ErrNoKeyInRange)

	mustPut(t, s, "m", "m")
	_, _, _, err = s.Scan([]byte("n"), true, open, true)
	assert.ErrorIs(t, err, kvs.ErrNoKeyInRange)
	assert.Equal(t, 0, s.Info().Iterators, "failed scans must not leak iterators")
}

func testIteratorHandles(t *testing.T, s kvs.Store) {
	for _, k := range []string{"a", "b", "c"} {
		mustPut(t, s, k, k)
	}
	open := kvs.OpenBoundaryKey

	it1, k1, _, err := s.Scan(open, true, open, true)
	require.NoError(t, err)
	it2, k2, _, err := s.Scan([]byte("b"), true, open, true)
	require.NoError(t, err)
	assert.NotEqual(t, it1, it2)
	assert.Equal(t, []byte("a"), k1)
	assert.Equal(t, []byte("b"), k2)

	// iterators are independent
	k1, _, err = s.GetNext(it1)
	require.NoError(t, err)
	assert.Equal(t, []byte("b"), k1)
	k2, _, err = s.GetNext(it2)
	require.NoError(t, err)
	assert.Equal(t, []byte("c"), k2)

	// exhausted handles are released
	_, _, err = s.GetNext(it2)
	assert.ErrorIs(t, err, kvs.ErrNoNextKey)
	_, _, err = s.GetNext(it2)
	requireCode(t, err, kvs.RetCError)

	require.NoError(t, s.EndScan(it1))
	_, _, err = s.GetNext(it1)
	requireCode(t, err, kvs.RetCError)
	requireCode(t, s.EndScan(it1), kvs.RetCError)

	_, _, err = s.GetNext(12345)
	requireCode(t, err, kvs.RetCError)
	assert.Equal(t, 0, s.Info().Iterators)
}
