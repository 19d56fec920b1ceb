package kvs

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/ValentinKolb/fKV/lib/gptr"
	"github.com/ValentinKolb/fKV/lib/metrics"
	"github.com/ValentinKolb/fKV/lib/pool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testOptions(t *testing.T) *Options {
	opts := DefaultOptions()
	opts.Heap = &pool.Params{
		Base:     "factory-test",
		User:     t.Name(),
		HeapID:   7,
		HeapSize: 16 << 20,
	}
	t.Cleanup(func() {
		pool.Destroy(opts.Heap)
	})
	return opts
}

func TestParseIndexType(t *testing.T) {
	tests := map[string]IndexType{
		"radixtree":     IndexRadixTree,
		"RadixTree":     IndexRadixTree,
		"HASHTABLE":     IndexHashTable,
		"radixtreetiny": IndexRadixTreeTiny,
		" hashtable ":   IndexHashTable,
		"btree":         IndexInvalid,
		"":              IndexInvalid,
	}
	for name, want := range tests {
		assert.Equal(t, want, ParseIndexType(name), name)
	}

	for _, typ := range []IndexType{IndexRadixTree, IndexHashTable, IndexRadixTreeTiny} {
		assert.Equal(t, typ, ParseIndexType(typ.String()))
		assert.True(t, typ.Valid())
	}
	assert.False(t, IndexInvalid.Valid())
	assert.False(t, IndexType(42).Valid())
}

func TestMakeStoreByName(t *testing.T) {
	opts := testOptions(t)

	s, err := MakeStoreByName("RadixTreeTiny", gptr.Null, opts)
	require.NoError(t, err)
	defer s.Close()
	assert.Equal(t, IndexRadixTreeTiny, s.Info().Type)
	assert.Equal(t, opts.Heap.HeapID, s.Location().PoolID())

	_, err = MakeStoreByName("skiplist", gptr.Null, opts)
	assert.ErrorIs(t, err, ErrConfig)
}

func TestMakeStoreConfigErrors(t *testing.T) {
	opts := testOptions(t)

	_, err := MakeStore(IndexInvalid, gptr.Null, opts)
	assert.ErrorIs(t, err, ErrConfig)
	_, err = MakeStore(IndexType(99), gptr.Null, opts)
	assert.ErrorIs(t, err, ErrConfig)

	s, err := MakeStore(IndexRadixTree, gptr.Null, opts)
	require.NoError(t, err)
	defer s.Close()

	// wrong variant for an existing store
	_, err = MakeStore(IndexHashTable, s.Location(), opts)
	assert.ErrorIs(t, err, ErrConfig)

	// location that was never allocated
	_, err = MakeStore(IndexRadixTree, gptr.New(opts.Heap.HeapID, 1<<20), opts)
	assert.ErrorIs(t, err, ErrConfig)

	// location in another pool
	_, err = MakeStore(IndexRadixTree, gptr.New(opts.Heap.HeapID+1, 64), opts)
	assert.ErrorIs(t, err, ErrConfig)

	// heap that cannot be opened
	bad := *opts
	bad.Heap = &pool.Params{HeapID: 9, HeapSize: 0}
	_, err = MakeStore(IndexRadixTree, gptr.Null, &bad)
	assert.ErrorIs(t, err, ErrConfig)
}

func TestMakeStoreOutOfMemory(t *testing.T) {
	opts := testOptions(t)
	opts.Heap.HeapSize = 256
	opts.MaxValLen = 1024

	s, err := MakeStore(IndexHashTable, gptr.Null, opts)
	require.NoError(t, err)
	defer s.Close()

	err = s.Put([]byte("key"), make([]byte, 1024))
	require.Error(t, err)
	assert.Equal(t, RetCError, CodeOf(err))
	assert.ErrorContains(t, err, "out of memory")

	// the failed write did not leak the payload or create a key node
	_, err = s.Get([]byte("key"))
	assert.ErrorIs(t, err, ErrKeyDoesNotExist)
	assert.Equal(t, 1, s.Info().Heap.Objects)
}

func TestMaxValLenIsFixedAtCreation(t *testing.T) {
	opts := testOptions(t)
	opts.MaxValLen = 16

	s, err := MakeStore(IndexRadixTree, gptr.Null, opts)
	require.NoError(t, err)
	defer s.Close()
	assert.Equal(t, 16, s.MaxValLen())

	reopen := *opts
	reopen.MaxValLen = 1 << 20
	s2, err := MakeStore(IndexRadixTree, s.Location(), &reopen)
	require.NoError(t, err)
	defer s2.Close()
	assert.Equal(t, 16, s2.MaxValLen())
}

func TestErrors(t *testing.T) {
	err := errorf(RetCKeyDoesNotExist, "key %q", "k")
	assert.ErrorIs(t, err, ErrKeyDoesNotExist)
	assert.NotErrorIs(t, err, ErrNoNextKey)
	assert.Equal(t, `kvs: KeyDoesNotExist: key "k"`, err.Error())
	assert.Equal(t, "kvs: NoNextKey", ErrNoNextKey.Error())

	wrapped := fmt.Errorf("outer: %w", err)
	assert.ErrorIs(t, wrapped, ErrKeyDoesNotExist)

	assert.Equal(t, RetCSuccess, CodeOf(nil))
	assert.Equal(t, RetCError, CodeOf(errors.New("plain")))
	assert.Equal(t, RetCNoKeyInRange, CodeOf(ErrNoKeyInRange))
}

func TestOpenBoundary(t *testing.T) {
	assert.True(t, IsOpenBoundary(OpenBoundaryKey))
	assert.True(t, IsOpenBoundary([]byte("\x00")))
	assert.False(t, IsOpenBoundary(nil))
	assert.False(t, IsOpenBoundary([]byte{0x00, 0x00}))
	assert.False(t, IsOpenBoundary([]byte("a")))
}

func TestReportMetrics(t *testing.T) {
	opts := testOptions(t)
	path := filepath.Join(t.TempDir(), "kvs_metrics.json")
	opts.Metrics = &metrics.Config{Enabled: true, OutputPath: path, Format: metrics.FormatJSON}

	s, err := MakeStore(IndexRadixTree, gptr.Null, opts)
	require.NoError(t, err)
	defer s.Close()

	keyPtr, valPtr, err := s.PutByKey([]byte("k"), []byte("v"))
	require.NoError(t, err)
	_, _, err = s.GetByHandle(keyPtr, valPtr, false)
	require.NoError(t, err)
	_, _, err = s.GetByHandle(keyPtr, valPtr, true)
	require.NoError(t, err)
	_, err = s.Get([]byte("k"))
	require.NoError(t, err)
	s.ReportMetrics()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var report map[string]map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &report))
	assert.Equal(t, float64(1), report["put"]["count"])
	assert.Equal(t, float64(1), report["get"]["count"])
	assert.Equal(t, float64(1), report["cached_hit"]["count"])
	assert.Equal(t, float64(1), report["cached_miss"]["count"])
}

func TestReportMetricsDisabled(t *testing.T) {
	opts := testOptions(t)
	path := filepath.Join(t.TempDir(), "kvs_metrics.json")
	opts.Metrics = &metrics.Config{Enabled: false, OutputPath: path}

	s, err := MakeStore(IndexRadixTree, gptr.Null, opts)
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Put([]byte("k"), []byte("v")))
	s.ReportMetrics()
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}
