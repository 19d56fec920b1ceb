package kvs_test

import (
	"testing"

	"github.com/ValentinKolb/fKV/lib/gptr"
	"github.com/ValentinKolb/fKV/lib/kvs"
	kvstesting "github.com/ValentinKolb/fKV/lib/kvs/testing"
	"github.com/ValentinKolb/fKV/lib/pool"
)

func factoryFor(tb testing.TB, t kvs.IndexType) kvstesting.StoreFactory {
	params := &pool.Params{
		Base:     "kvs-test",
		User:     tb.Name(),
		HeapID:   pool.DefaultHeapID,
		HeapSize: 64 << 30, // accounting only, benchmarks write a lot
	}
	tb.Cleanup(func() {
		pool.Destroy(params)
	})

	opts := kvs.DefaultOptions()
	opts.Heap = params
	return func(location gptr.Gptr) (kvs.Store, error) {
		return kvs.MakeStore(t, location, opts)
	}
}

func TestRadixTree(t *testing.T) {
	kvstesting.RunStoreTests(t, "RadixTree", true, factoryFor(t, kvs.IndexRadixTree))
}

func TestRadixTreeTiny(t *testing.T) {
	kvstesting.RunStoreTests(t, "RadixTreeTiny", true, factoryFor(t, kvs.IndexRadixTreeTiny))
}

func TestHashTable(t *testing.T) {
	kvstesting.RunStoreTests(t, "HashTable", false, factoryFor(t, kvs.IndexHashTable))
}

func BenchmarkRadixTree(b *testing.B) {
	kvstesting.RunStoreBenchmarks(b, "RadixTree", true, factoryFor(b, kvs.IndexRadixTree))
}

func BenchmarkRadixTreeTiny(b *testing.B) {
	kvstesting.RunStoreBenchmarks(b, "RadixTreeTiny", true, factoryFor(b, kvs.IndexRadixTreeTiny))
}

func BenchmarkHashTable(b *testing.B) {
	kvstesting.RunStoreBenchmarks(b, "HashTable", false, factoryFor(b, kvs.IndexHashTable))
}
