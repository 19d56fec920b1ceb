package cache

import (
	"fmt"
	"sync/atomic"

	"github.com/ValentinKolb/fKV/lib/gptr"
	"github.com/ValentinKolb/fKV/lib/kvs"
	lru "github.com/hashicorp/golang-lru"
	"github.com/lni/dragonboat/v4/logger"
)

var plog = logger.GetLogger("cache")

// DefaultSize is the number of entries a cache holds by default
const DefaultSize = 4096

// entry is immutable once it is added, updates replace it
type entry struct {
	keyPtr gptr.Gptr
	valPtr gptr.TagGptr
	value  []byte // nil for a cached tombstone
}

// Stats counts how reads were served
type Stats struct {
	Hits      uint64 `json:"hits"`      // served from local memory after revalidation
	Refreshes uint64 `json:"refreshes"` // cached entry was stale, value fetched by handle
	Misses    uint64 `json:"misses"`    // key not cached, resolved through the index
	Entries   int    `json:"entries"`
}

// Cache keeps recently used values in local memory in front of a store.
// Every read revalidates the cached tagged value pointer with the store, so
// a read never returns a value that was replaced before the read started,
// no matter which store instance replaced it. A hit saves the copy of the
// payload and the index lookup.
type Cache struct {
	store   kvs.Store
	entries *lru.Cache

	hits      atomic.Uint64
	refreshes atomic.Uint64
	misses    atomic.Uint64
}

// New creates a cache with room for size entries (0 = DefaultSize)
func New(store kvs.Store, size int) (*Cache, error) {
	if size <= 0 {
		size = DefaultSize
	}
	entries, err := lru.NewWithEvict(size, func(key, _ interface{}) {
		plog.Debugf("evicted %q", key)
	})
	if err != nil {
		return nil, fmt.Errorf("create cache: %w", err)
	}
	return &Cache{
		store:   store,
		entries: entries,
	}, nil
}

// Store returns the underlying store
func (c *Cache) Store() kvs.Store {
	return c.store
}

func (c *Cache) lookup(key []byte) (*entry, bool) {
	v, ok := c.entries.Get(string(key))
	if !ok {
		return nil, false
	}
	return v.(*entry), true
}

func (c *Cache) add(key []byte, e *entry) {
	c.entries.Add(string(key), e)
}

func clone(val []byte) []byte {
	if val == nil {
		return nil
	}
	return append(make([]byte, 0, len(val)), val...)
}

// Get returns the value for key, see kvs.Store.Get
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (c *Cache) Get(key []byte) ([]byte, error) {
	if e, ok := c.lookup(key); ok {
		live, val, err := c.store.GetByHandle(e.keyPtr, e.valPtr, false)
		if err != nil {
			c.entries.Remove(string(key))
			return nil, err
		}

		if live.Equal(e.valPtr) {
			c.hits.Add(1)
			if live.IsNull() {
				return nil, kvs.ErrKeyDoesNotExist
			}
			return clone(e.value), nil
		}

		c.refreshes.Add(1)
		c.add(key, &entry{keyPtr: e.keyPtr, valPtr: live, value: val})
		if live.IsNull() {
			return nil, kvs.ErrKeyDoesNotExist
		}
		return clone(val), nil
	}

	c.misses.Add(1)
	val, keyPtr, valPtr, err := c.store.GetByKey(key)
	if err != nil {
		return nil, err
	}
	if keyPtr.IsNull() {
		return nil, kvs.ErrKeyDoesNotExist
	}
	c.add(key, &entry{keyPtr: keyPtr, valPtr: valPtr, value: val})
	if valPtr.IsNull() {
		return nil, kvs.ErrKeyDoesNotExist
	}
	return clone(val), nil
}

// Put writes val and caches it, see kvs.Store.Put
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (c *Cache) Put(key, val []byte) error {
	var (
		valPtr gptr.TagGptr
		err    error
	)
	e, ok := c.lookup(key)
	if ok {
		valPtr, err = c.store.PutByHandle(e.keyPtr, val)
	} else {
		var keyPtr gptr.Gptr
		keyPtr, valPtr, err = c.store.PutByKey(key, val)
		e = &entry{keyPtr: keyPtr}
	}
	if err != nil {
		return err
	}
	c.add(key, &entry{keyPtr: e.keyPtr, valPtr: valPtr, value: clone(val)})
	return nil
}

// Del deletes the value for key, see kvs.Store.Del
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (c *Cache) Del(key []byte) error {
	if e, ok := c.lookup(key); ok {
		tomb, err := c.store.DelByHandle(e.keyPtr)
		if err != nil {
			c.entries.Remove(string(key))
			return err
		}
		c.add(key, &entry{keyPtr: e.keyPtr, valPtr: tomb})
		return nil
	}

	keyPtr, tomb, err := c.store.DelByKey(key)
	if err != nil {
		return err
	}
	if keyPtr.IsNull() {
		return kvs.ErrKeyDoesNotExist
	}
	c.add(key, &entry{keyPtr: keyPtr, valPtr: tomb})
	return nil
}

// Invalidate drops key from the cache
func (c *Cache) Invalidate(key []byte) {
	c.entries.Remove(string(key))
}

// Purge drops all entries
func (c *Cache) Purge() {
	c.entries.Purge()
}

// Stats returns the read statistics of the cache
func (c *Cache) Stats() Stats {
	return Stats{
		Hits:      c.hits.Load(),
		Refreshes: c.refreshes.Load(),
		Misses:    c.misses.Load(),
		Entries:   c.entries.Len(),
	}
}
