package kvs

import (
	"github.com/ValentinKolb/fKV/lib/gptr"
)

// --------------------------------------------------------------------------
// Interface Definition
// --------------------------------------------------------------------------

// Store is a key-value store that lives in a shared heap. Every instance
// opened at the same location sees the same data.
//
// Values can be accessed two ways. The non-cached operations take the key
// and walk the index. The cached operations take the key node pointer
// returned by an earlier call and a tagged value pointer the caller keeps
// in its own memory; the tag changes on every write, so a cached entry is
// current iff its tagged pointer equals the live one.
//
// All operations are safe for concurrent use. Returned values are copies
// owned by the caller.
type Store interface {

	// Put inserts or replaces the value for key.
	Put(key, val []byte) (err error)

	// Get returns the value for key. ErrKeyDoesNotExist is returned if the key
	// was never written or its value was deleted.
	Get(key []byte) (val []byte, err error)

	// FindOrCreate inserts val if key has no key node yet. If it already has
	// one, nothing is written and the current value is returned with found=true
	// (existing is nil if the key is deleted). Of concurrent calls for the
	// same new key exactly one creates.
	FindOrCreate(key, val []byte) (existing []byte, found bool, err error)

	// Del deletes the value for key. The key node stays and deleting an
	// already deleted key succeeds. ErrKeyDoesNotExist is returned only if the
	// key was never written.
	Del(key []byte) (err error)

	// PutByKey writes val and returns the key node pointer and the new tagged
	// value pointer for caching.
	PutByKey(key, val []byte) (keyPtr gptr.Gptr, valPtr gptr.TagGptr, err error)

	// PutByHandle writes val through a cached key node pointer.
	PutByHandle(keyPtr gptr.Gptr, val []byte) (valPtr gptr.TagGptr, err error)

	// GetByKey returns the value together with the pointers for caching.
	// keyPtr is null if the key has no key node, a null valPtr means deleted.
	GetByKey(key []byte) (val []byte, keyPtr gptr.Gptr, valPtr gptr.TagGptr, err error)

	// GetByHandle revalidates a cached entry. If cached equals the live tagged
	// value pointer and forceRefresh is false, val is nil and the cached value
	// is still current. Otherwise the live pointer and value are returned
	// (val is nil for a deleted key).
	GetByHandle(keyPtr gptr.Gptr, cached gptr.TagGptr, forceRefresh bool) (valPtr gptr.TagGptr, val []byte, err error)

	// DelByKey deletes the value and returns the key node pointer and the
	// resulting tombstone. keyPtr is null if the key has no key node.
	DelByKey(key []byte) (keyPtr gptr.Gptr, valPtr gptr.TagGptr, err error)

	// DelByHandle deletes the value through a cached key node pointer.
	DelByHandle(keyPtr gptr.Gptr) (valPtr gptr.TagGptr, err error)

	// Scan opens an iterator over the keys between begin and end and returns
	// the first entry. OpenBoundaryKey leaves a side unbounded. Deleted keys
	// are skipped. ErrNoKeyInRange is returned if no live key matches.
	Scan(begin []byte, beginIncl bool, end []byte, endIncl bool) (iter int, key, val []byte, err error)

	// GetNext returns the next entry of an iterator. ErrNoNextKey ends the
	// iteration and releases the handle.
	GetNext(iter int) (key, val []byte, err error)

	// EndScan releases an iterator before it is exhausted.
	EndScan(iter int) (err error)

	// Maintenance reclaims the memory of overwritten and deleted values that
	// no reader can still access. Best effort, never fails.
	Maintenance()

	// Location returns the pointer other instances pass to MakeStore to open
	// this store.
	Location() gptr.Gptr

	// MaxKeyLen returns the maximum key length of the store.
	MaxKeyLen() int

	// MaxValLen returns the maximum value length of the store.
	MaxValLen() int

	// ReportMetrics writes the collected metrics if metrics are enabled.
	ReportMetrics()

	// Info returns information about the store.
	// It is not guaranteed that the information is up-to-date!
	Info() (info Info)

	// Close releases the process-local state of the instance (iterators).
	// The data remains in the heap.
	Close() (err error)
}
