// Package cache implements a local memory cache in front of a kvs.Store.
//
// The cache stores, per key, the key node pointer, the tagged value pointer
// and a copy of the value. Reads go through kvs.Store.GetByHandle: if the
// tagged pointer is still current the local copy is returned, otherwise the
// store returns the new value and the entry is replaced. Writes and deletes
// use the cached key node pointer when available and skip the index.
//
// The cache is bounded (LRU, hashicorp/golang-lru). Evicting an entry only
// costs the next read an index lookup.
package cache
