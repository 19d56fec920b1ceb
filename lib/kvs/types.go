package kvs

import (
	"fmt"
	"strings"

	"github.com/ValentinKolb/fKV/lib/index"
	"github.com/ValentinKolb/fKV/lib/index/engines/hashtable"
	"github.com/ValentinKolb/fKV/lib/index/engines/radixtree"
	"github.com/ValentinKolb/fKV/lib/index/engines/radixtreetiny"
	"github.com/ValentinKolb/fKV/lib/metrics"
	"github.com/ValentinKolb/fKV/lib/pool"
)

// OpenBoundaryKey passed as begin or end of a Scan leaves that side of the
// range unbounded. It is a single NUL byte.
var OpenBoundaryKey = []byte{0x00}

// IsOpenBoundary reports whether key is the open boundary marker
func IsOpenBoundary(key []byte) bool {
	return len(key) == 1 && key[0] == 0x00
}

// DefaultMaxValLen is the maximum value length of a store by default
const DefaultMaxValLen = 4096

// --------------------------------------------------------------------------
// Index Type
// --------------------------------------------------------------------------

// IndexType selects the index structure of a store
type IndexType int

const (
	IndexInvalid IndexType = iota
	IndexRadixTree
	IndexHashTable
	IndexRadixTreeTiny
)

func (t IndexType) String() string {
	switch t {
	case IndexRadixTree:
		return string(index.ImplRadixTree)
	case IndexHashTable:
		return string(index.ImplHashTable)
	case IndexRadixTreeTiny:
		return string(index.ImplRadixTreeTiny)
	default:
		return "invalid"
	}
}

// Valid reports whether t names an index structure
func (t IndexType) Valid() bool {
	return t == IndexRadixTree || t == IndexHashTable || t == IndexRadixTreeTiny
}

// ParseIndexType maps a variant name (case-insensitive) to its IndexType.
// Unknown names return IndexInvalid.
func ParseIndexType(name string) IndexType {
	switch index.Implementation(strings.ToLower(strings.TrimSpace(name))) {
	case index.ImplRadixTree:
		return IndexRadixTree
	case index.ImplHashTable:
		return IndexHashTable
	case index.ImplRadixTreeTiny:
		return IndexRadixTreeTiny
	default:
		return IndexInvalid
	}
}

func (t IndexType) impl() index.Implementation {
	return index.Implementation(t.String())
}

// --------------------------------------------------------------------------
// Options
// --------------------------------------------------------------------------

// Options configures MakeStore. The engine options are only used when a new
// store is created, an existing store keeps the index it was created with.
type Options struct {
	Heap      *pool.Params    // Heap the store lives in (nil = pool.DefaultParams)
	Metrics   *metrics.Config // Metrics configuration (nil = disabled)
	MaxValLen int             // Maximum value length (0 = DefaultMaxValLen)

	RadixTree     *radixtree.Options
	RadixTreeTiny *radixtreetiny.Options
	HashTable     *hashtable.Options
}

// DefaultOptions returns the default store options
func DefaultOptions() *Options {
	return &Options{
		Heap:      pool.DefaultParams(),
		Metrics:   metrics.DefaultConfig(),
		MaxValLen: DefaultMaxValLen,
	}
}

func (t IndexType) newIndex(opts *Options) (index.Index, error) {
	switch t {
	case IndexRadixTree:
		return radixtree.NewRadixTree(opts.RadixTree), nil
	case IndexHashTable:
		return hashtable.NewHashTable(opts.HashTable), nil
	case IndexRadixTreeTiny:
		return radixtreetiny.NewRadixTreeTiny(opts.RadixTreeTiny), nil
	default:
		return nil, fmt.Errorf("unknown index type %d", t)
	}
}

// --------------------------------------------------------------------------
// Info
// --------------------------------------------------------------------------

// Info describes a store
type Info struct {
	Type      IndexType  `json:"type"`
	Location  string     `json:"location"`
	MaxKeyLen int        `json:"max_key_len"`
	MaxValLen int        `json:"max_val_len"`
	Index     index.Info `json:"index"`
	Heap      pool.Stats `json:"heap"`
	Iterators int        `json:"iterators"`
}
