package testing

import (
	"fmt"
	"math/rand"
	"sync/atomic"
	"testing"

	"github.com/ValentinKolb/fKV/lib/gptr"
	"github.com/ValentinKolb/fKV/lib/kvs"
)

// RunStoreBenchmarks runs all benchmarks for a store
func RunStoreBenchmarks(b *testing.B, name string, ordered bool, factory StoreFactory) {
	b.Run(name, func(b *testing.B) {
		b.Run("Put", func(b *testing.B) {
			benchmarkPut(b, newStore(b, factory))
		})

		b.Run("PutExisting", func(b *testing.B) {
			benchmarkPutExisting(b, newStore(b, factory))
		})

		b.Run("Get", func(b *testing.B) {
			benchmarkGet(b, newStore(b, factory))
		})

		b.Run("GetByHandle", func(b *testing.B) {
			benchmarkGetByHandle(b, newStore(b, factory))
		})

		b.Run("FindOrCreate", func(b *testing.B) {
			benchmarkFindOrCreate(b, newStore(b, factory))
		})

		b.Run("MixedUsage", func(b *testing.B) {
			benchmarkMixedUsage(b, newStore(b, factory))
		})

		if ordered {
			b.Run("Scan", func(b *testing.B) {
				benchmarkScan(b, newStore(b, factory))
			})
		}
	})
}

// --------------------------------------------------------------------------
// Benchmark functions
// --------------------------------------------------------------------------

const benchKeys = 10000

func benchKey(i int) []byte {
	return []byte(fmt.Sprintf("bench-key-%08d", i))
}

func fill(b *testing.B, s kvs.Store, n int) {
	val := []byte("bench-value")
	for i := 0; i < n; i++ {
		if err := s.Put(benchKey(i), val); err != nil {
			b.Fatalf("Put: %v", err)
		}
	}
	s.Maintenance()
}

// Benchmark for Put with a new key per operation
func benchmarkPut(b *testing.B, s kvs.Store) {
	val := []byte("bench-value")
	var counter atomic.Int64

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			if err := s.Put(benchKey(int(counter.Add(1))), val); err != nil {
				b.Errorf("Put: %v", err)
			}
		}
	})
}

// Benchmark for Put on a fixed key set, reclaiming old payloads periodically
func benchmarkPutExisting(b *testing.B, s kvs.Store) {
	fill(b, s, benchKeys)
	val := []byte("bench-value-updated")

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		r := rand.New(rand.NewSource(rand.Int63()))
		i := 0
		for pb.Next() {
			if err := s.Put(benchKey(r.Intn(benchKeys)), val); err != nil {
				b.Errorf("Put: %v", err)
			}
			if i++; i%1000 == 0 {
				s.Maintenance()
			}
		}
	})
}

func benchmarkGet(b *testing.B, s kvs.Store) {
	fill(b, s, benchKeys)

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		r := rand.New(rand.NewSource(rand.Int63()))
		for pb.Next() {
			if _, err := s.Get(benchKey(r.Intn(benchKeys))); err != nil {
				b.Errorf("Get: %v", err)
			}
		}
	})
}

// Benchmark for the cached fast path (handle still current)
func benchmarkGetByHandle(b *testing.B, s kvs.Store) {
	keyPtrs := make([]gptr.Gptr, benchKeys)
	valPtrs := make([]gptr.TagGptr, benchKeys)
	for i := 0; i < benchKeys; i++ {
		keyPtr, valPtr, err := s.PutByKey(benchKey(i), []byte("bench-value"))
		if err != nil {
			b.Fatalf("PutByKey: %v", err)
		}
		keyPtrs[i], valPtrs[i] = keyPtr, valPtr
	}

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		r := rand.New(rand.NewSource(rand.Int63()))
		for pb.Next() {
			i := r.Intn(benchKeys)
			if _, _, err := s.GetByHandle(keyPtrs[i], valPtrs[i], false); err != nil {
				b.Errorf("GetByHandle: %v", err)
			}
		}
	})
}

func benchmarkFindOrCreate(b *testing.B, s kvs.Store) {
	val := []byte("bench-value")

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		r := rand.New(rand.NewSource(rand.Int63()))
		for pb.Next() {
			if _, _, err := s.FindOrCreate(benchKey(r.Intn(benchKeys)), val); err != nil {
				b.Errorf("FindOrCreate: %v", err)
			}
		}
	})
}

// Benchmark with 80% reads, 15% writes and 5% deletes
func benchmarkMixedUsage(b *testing.B, s kvs.Store) {
	fill(b, s, benchKeys)
	val := []byte("bench-value")

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		r := rand.New(rand.NewSource(rand.Int63()))
		for pb.Next() {
			key := benchKey(r.Intn(benchKeys))
			switch op := r.Intn(100); {
			case op < 80:
				_, _ = s.Get(key)
			case op < 95:
				_ = s.Put(key, val)
			default:
				_ = s.Del(key)
			}
		}
	})
	b.StopTimer()
	s.Maintenance()
}

// Benchmark for scanning 100 consecutive keys
func benchmarkScan(b *testing.B, s kvs.Store) {
	fill(b, s, benchKeys)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		start := rand.Intn(benchKeys - 100)
		iter, _, _, err := s.Scan(benchKey(start), true, benchKey(start+99), true)
		if err != nil {
			b.Fatalf("Scan: %v", err)
		}
		for {
			if _, _, err := s.GetNext(iter); err != nil {
				break
			}
		}
	}
}
