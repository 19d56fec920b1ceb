// Package index defines the contract for the index structures that back a
// fKV store. An index maps key bytes to the global pointer of a key node,
// everything else (value slots, tags, payloads) lives in the key node and is
// handled by the kvs package.
//
// Key Components:
//
//   - Index Interface: lookup and atomic create-once insertion. Indexes only
//     grow, a key node pointer never changes once it has been published.
//
//   - Ordered Interface: indexes that keep keys in lexicographic order expose
//     Seek, which returns a Cursor. Range scans are built on top of this.
//
//   - Feature Flags: callers discover optional capabilities with
//     SupportsFeature instead of type assertions scattered through the code.
//
// Engines:
//
//   - engines/radixtree: full radix tree on hashicorp/go-immutable-radix. Readers
//     work on an immutable snapshot and never take a lock.
//   - engines/radixtreetiny: compact ordered index on google/btree. Smaller
//     per-key footprint, readers share a RWMutex with writers.
//   - engines/hashtable: hash table on puzpuzpuz/xsync MapOf. No ordering.
//
// The testing package (github.com/ValentinKolb/fKV/lib/index/testing)
// contains the conformance suite every engine runs.
package index
