// Package kvs implements a key-value store that lives in a shared, fabric
// addressable heap (see the pool package). Any number of store instances,
// in one process or emulating many, can open the same store by its location
// and operate on it concurrently.
//
// Key Components:
//
//   - Store Interface: the non-cached operations (Put, Get, FindOrCreate, Del)
//     address values by key. The cached operations (PutByKey, GetByHandle, ...)
//     return and accept a key node pointer plus a tagged value pointer, which
//     lets a caller keep values in local memory and revalidate them with a
//     single comparison.
//
//   - Key Nodes: every key that was ever written has a key node in the heap.
//     It holds the key bytes and a value slot (tagged pointer to the payload).
//     Every write swaps the slot and increments the tag, deleting swaps in a
//     null pointer (tombstone). Key nodes are never removed, so key node
//     pointers stay valid as long as the store exists.
//
//   - Index Types: the key -> key node mapping is one of the index engines
//     (radixtree, radixtreetiny, hashtable), fixed when the store is created.
//     Only the ordered engines support Scan.
//
//   - Reclamation: replaced payloads are not freed right away. They are
//     retired to the heap and released by Maintenance once no reader that
//     could still see them is active.
//
//   - Error System: operations return *Error values with a RetCode. Use
//     errors.Is with the sentinels (ErrKeyDoesNotExist, ErrNoKeyInRange,
//     ErrNoNextKey, ErrConfig) or CodeOf to branch on the outcome.
//
// Usage Example:
//
//	s, err := kvs.MakeStore(kvs.IndexRadixTree, gptr.Null, kvs.DefaultOptions())
//	if err != nil {
//		return err
//	}
//
//	keyPtr, valPtr, err := s.PutByKey([]byte("user:1"), []byte("alice"))
//
//	// later: still current?
//	live, val, err := s.GetByHandle(keyPtr, valPtr, false)
//	if val == nil && live.Equal(valPtr) {
//		// the locally cached copy is up to date
//	}
//
// The testing package (github.com/ValentinKolb/fKV/lib/kvs/testing) contains
// the conformance suite and benchmarks every index type runs.
package kvs
