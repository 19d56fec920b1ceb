package index

import (
	"github.com/ValentinKolb/fKV/lib/gptr"
)

// --------------------------------------------------------------------------
// Helper Types
// --------------------------------------------------------------------------

type Implementation string

const (
	ImplRadixTree     Implementation = "radixtree"
	ImplRadixTreeTiny Implementation = "radixtreetiny"
	ImplHashTable     Implementation = "hashtable"
)

// Feature represents index features as bit flags
type Feature uint64

const (
	FeatureLookup  Feature = 1 << iota // Support for Lookup
	FeatureCreate                      // Support for LoadOrCreate
	FeatureOrdered                     // Support for Seek (ordered traversal)
)

func (f Feature) String() string {
	switch f {
	case FeatureLookup:
		return "Lookup"
	case FeatureCreate:
		return "Create"
	case FeatureOrdered:
		return "Ordered"
	default:
		return "Unknown"
	}
}

type Info struct {
	Impl              Implementation `json:"impl"`
	Keys              int            `json:"keys"`
	MaxKeyLen         int            `json:"max_key_len"`
	SupportedFeatures []Feature      `json:"supported_features"`
	Metadata          interface{}    `json:"metadata"`
}

// CreateFunc allocates the key node for a key that is inserted into an index.
// It is called at most once per successful insertion.
type CreateFunc func() (gptr.Gptr, error)

// --------------------------------------------------------------------------
// Index Interface
// --------------------------------------------------------------------------

// Index maps key bytes to the global pointer of the key's key node.
// An index only ever grows: entries are never removed or replaced, which is
// what lets callers cache key node pointers indefinitely.
type Index interface {

	// Lookup returns the key node pointer stored for key.
	Lookup(key []byte) (ptr gptr.Gptr, ok bool)

	// LoadOrCreate returns the key node pointer stored for key. If the key is
	// not present, create is called and its pointer is stored.
	// Concurrent calls for the same key must result in exactly one call to
	// create that succeeds; created reports whether this call inserted.
	// If create fails, nothing is stored and the error is returned.
	LoadOrCreate(key []byte, create CreateFunc) (ptr gptr.Gptr, created bool, err error)

	// Len returns the number of keys in the index.
	Len() int

	// MaxKeyLen returns the maximum key length the index accepts.
	MaxKeyLen() int

	// SupportsFeature checks if the index supports the specified feature(s).
	SupportsFeature(feature Feature) (ok bool)

	// GetInfo returns information about the index.
	GetInfo() (info Info)
}

// Ordered is implemented by indexes that keep their keys in lexicographic
// byte order (FeatureOrdered).
type Ordered interface {
	Index

	// Seek returns a cursor positioned before the first key >= from.
	// A nil or empty from starts at the smallest key.
	Seek(from []byte) Cursor
}

// Cursor walks an ordered index in ascending key order.
// A cursor is owned by a single goroutine. Keys inserted while a cursor is
// open may or may not be observed.
type Cursor interface {
	// Next returns the next key and its key node pointer, ok is false once the
	// cursor is exhausted. The returned key is owned by the caller.
	Next() (key []byte, ptr gptr.Gptr, ok bool)
}
