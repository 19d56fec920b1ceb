package testing

import (
	"bytes"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/ValentinKolb/fKV/lib/gptr"
	"github.com/ValentinKolb/fKV/lib/index"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// IndexFactory is a function that creates a new, empty index
type IndexFactory func() index.Index

// RunIndexTests runs the conformance suite for an index implementation.
func RunIndexTests(t *testing.T, name string, factory IndexFactory) {
	t.Run(name, func(t *testing.T) {
		t.Run("LookupMissing", func(t *testing.T) {
			testLookupMissing(t, factory())
		})

		t.Run("CreateOnce", func(t *testing.T) {
			testCreateOnce(t, factory())
		})

		t.Run("CreateError", func(t *testing.T) {
			testCreateError(t, factory())
		})

		t.Run("KeyIsCopied", func(t *testing.T) {
			testKeyIsCopied(t, factory())
		})

		t.Run("ConcurrentCreate", func(t *testing.T) {
			testConcurrentCreate(t, factory())
		})

		t.Run("Info", func(t *testing.T) {
			testInfo(t, factory())
		})

		t.Run("SeekOrder", func(t *testing.T) {
			testSeekOrder(t, factory())
		})

		t.Run("SeekFrom", func(t *testing.T) {
			testSeekFrom(t, factory())
		})
	})
}

// --------------------------------------------------------------------------
// Helper functions
// --------------------------------------------------------------------------

// requireOrdered skips the test if the index does not keep key order
func requireOrdered(t testing.TB, idx index.Index) index.Ordered {
	if !idx.SupportsFeature(index.FeatureOrdered) {
		t.Skip()
	}
	ordered, ok := idx.(index.Ordered)
	require.True(t, ok, "index reports FeatureOrdered but does not implement index.Ordered")
	return ordered
}

// ptrFor returns a distinct fake key node pointer per counter value
func ptrFor(i int) gptr.Gptr {
	return gptr.New(1, uint64(i+1)*64)
}

func insert(t testing.TB, idx index.Index, key string, ptr gptr.Gptr) {
	_, created, err := idx.LoadOrCreate([]byte(key), func() (gptr.Gptr, error) { return ptr, nil })
	require.NoError(t, err)
	require.True(t, created, "key %q should have been created", key)
}

func collect(c index.Cursor) []string {
	var keys []string
	for {
		key, _, ok := c.Next()
		if !ok {
			return keys
		}
		keys = append(keys, string(key))
	}
}

// --------------------------------------------------------------------------
// Test functions
// --------------------------------------------------------------------------

func testLookupMissing(t *testing.T, idx index.Index) {
	ptr, ok := idx.Lookup([]byte("missing"))
	assert.False(t, ok)
	assert.Equal(t, gptr.Null, ptr)
	assert.Equal(t, 0, idx.Len())
}

func testCreateOnce(t *testing.T, idx index.Index) {
	calls := 0
	create := func() (gptr.Gptr, error) {
		calls++
		return ptrFor(calls), nil
	}

	ptr1, created, err := idx.LoadOrCreate([]byte("key"), create)
	require.NoError(t, err)
	assert.True(t, created)

	ptr2, created, err := idx.LoadOrCreate([]byte("key"), create)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, ptr1, ptr2)
	assert.Equal(t, 1, calls, "create must only run for the first insertion")

	found, ok := idx.Lookup([]byte("key"))
	assert.True(t, ok)
	assert.Equal(t, ptr1, found)
	assert.Equal(t, 1, idx.Len())

	// the empty key is a key like any other
	_, created, err = idx.LoadOrCreate([]byte{}, create)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, 2, idx.Len())
}

func testCreateError(t *testing.T, idx index.Index) {
	errAlloc := errors.New("allocation failed")

	_, created, err := idx.LoadOrCreate([]byte("key"), func() (gptr.Gptr, error) {
		return gptr.Null, errAlloc
	})
	assert.ErrorIs(t, err, errAlloc)
	assert.False(t, created)

	_, ok := idx.Lookup([]byte("key"))
	assert.False(t, ok, "a failed create must not leave an entry behind")
	assert.Equal(t, 0, idx.Len())

	// the next attempt creates the key
	ptr, created, err := idx.LoadOrCreate([]byte("key"), func() (gptr.Gptr, error) {
		return ptrFor(1), nil
	})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, ptrFor(1), ptr)
}

func testKeyIsCopied(t *testing.T, idx index.Index) {
	key := []byte("mutable")
	_, _, err := idx.LoadOrCreate(key, func() (gptr.Gptr, error) { return ptrFor(0), nil })
	require.NoError(t, err)

	key[0] = 'X'
	_, ok := idx.Lookup([]byte("mutable"))
	assert.True(t, ok, "index must not alias the caller's key buffer")
	_, ok = idx.Lookup(key)
	assert.False(t, ok)
}

func testConcurrentCreate(t *testing.T, idx index.Index) {
	const (
		goroutines = 16
		keys       = 64
	)

	var (
		calls   atomic.Int64
		created atomic.Int64
		wg      sync.WaitGroup
		results = make([][]gptr.Gptr, goroutines)
	)

	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			results[g] = make([]gptr.Gptr, keys)
			for k := 0; k < keys; k++ {
				ptr, ok, err := idx.LoadOrCreate([]byte(fmt.Sprintf("key-%d", k)), func() (gptr.Gptr, error) {
					return ptrFor(int(calls.Add(1))), nil
				})
				if err != nil {
					t.Error(err)
					return
				}
				if ok {
					created.Add(1)
				}
				results[g][k] = ptr
			}
		}(g)
	}
	wg.Wait()

	assert.Equal(t, int64(keys), created.Load(), "every key must be created exactly once")
	assert.Equal(t, int64(keys), calls.Load(), "create must not run for keys that already exist")
	assert.Equal(t, keys, idx.Len())

	// every goroutine observed the same pointer per key
	for g := 1; g < goroutines; g++ {
		assert.Equal(t, results[0], results[g])
	}
}

func testInfo(t *testing.T, idx index.Index) {
	insert(t, idx, "a", ptrFor(0))
	insert(t, idx, "b", ptrFor(1))

	info := idx.GetInfo()
	assert.NotEmpty(t, info.Impl)
	assert.Equal(t, 2, info.Keys)
	assert.Equal(t, idx.MaxKeyLen(), info.MaxKeyLen)
	assert.Greater(t, info.MaxKeyLen, 0)
	assert.True(t, idx.SupportsFeature(index.FeatureLookup|index.FeatureCreate))
}

func testSeekOrder(t *testing.T, idx index.Index) {
	ordered := requireOrdered(t, idx)

	keys := []string{"delta", "a", "ab", "b", "abc", "c", "\x00", "zz", "B"}
	for i, k := range keys {
		insert(t, ordered, k, ptrFor(i))
	}

	expected := append([]string(nil), keys...)
	sort.Slice(expected, func(i, j int) bool {
		return bytes.Compare([]byte(expected[i]), []byte(expected[j])) < 0
	})

	assert.Equal(t, expected, collect(ordered.Seek(nil)))

	// pointers travel with their keys
	c := ordered.Seek([]byte("delta"))
	key, ptr, ok := c.Next()
	require.True(t, ok)
	assert.Equal(t, "delta", string(key))
	assert.Equal(t, ptrFor(0), ptr)
}

func testSeekFrom(t *testing.T, idx index.Index) {
	ordered := requireOrdered(t, idx)

	for i, k := range []string{"a", "b", "c", "e"} {
		insert(t, ordered, k, ptrFor(i))
	}

	assert.Equal(t, []string{"b", "c", "e"}, collect(ordered.Seek([]byte("b"))))
	assert.Equal(t, []string{"e"}, collect(ordered.Seek([]byte("d"))))
	assert.Empty(t, collect(ordered.Seek([]byte("f"))))
	assert.Equal(t, []string{"a", "b", "c", "e"}, collect(ordered.Seek([]byte{})))
}

// RunCursorSnapshotTest checks that inserting keys while a cursor is open
// never corrupts the cursor: it returns every key that existed before it was
// opened, in order, without duplicates.
func RunCursorSnapshotTest(t *testing.T, idx index.Ordered) {
	for i := 0; i < 100; i += 2 {
		insert(t, idx, fmt.Sprintf("key-%03d", i), ptrFor(i))
	}

	c := idx.Seek(nil)
	var seen []string
	for i := 1; ; i += 2 {
		key, _, ok := c.Next()
		if !ok {
			break
		}
		seen = append(seen, string(key))
		if i < 100 {
			insert(t, idx, fmt.Sprintf("key-%03d", i), ptrFor(i))
		}
	}

	require.True(t, sort.StringsAreSorted(seen))
	for i := 1; i < len(seen); i++ {
		assert.NotEqual(t, seen[i-1], seen[i], "cursor returned a key twice")
	}
	for i := 0; i < 100; i += 2 {
		assert.Contains(t, seen, fmt.Sprintf("key-%03d", i))
	}
}
