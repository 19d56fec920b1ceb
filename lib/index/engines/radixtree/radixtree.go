package radixtree

import (
	"sync"
	"sync/atomic"

	"github.com/ValentinKolb/fKV/lib/gptr"
	"github.com/ValentinKolb/fKV/lib/index"
	iradix "github.com/hashicorp/go-immutable-radix"
)

const (
	// DefaultMaxKeyLen is the maximum key length of a radix tree by default
	DefaultMaxKeyLen = 255
)

// Options configures the radix tree
type Options struct {
	MaxKeyLen int // Maximum accepted key length (0 = DefaultMaxKeyLen)
}

// DefaultOptions returns the default radix tree options
func DefaultOptions() *Options {
	return &Options{
		MaxKeyLen: DefaultMaxKeyLen,
	}
}

// radixTree is a full radix tree. Every insert produces a new immutable
// root which is published atomically, so readers and cursors never block
// and always see a consistent tree.
type radixTree struct {
	mu        sync.Mutex // serializes writers
	root      atomic.Pointer[iradix.Tree]
	maxKeyLen int
}

// NewRadixTree creates an empty radix tree with the specified options (optional)
func NewRadixTree(opts *Options) index.Ordered {
	if opts == nil {
		opts = DefaultOptions()
	}
	maxKeyLen := opts.MaxKeyLen
	if maxKeyLen <= 0 {
		maxKeyLen = DefaultMaxKeyLen
	}

	t := &radixTree{maxKeyLen: maxKeyLen}
	t.root.Store(iradix.New())
	return t
}

// Lookup returns the key node pointer for key
//
// Thread-safety: This method is thread-safe and lock-free.
func (t *radixTree) Lookup(key []byte) (gptr.Gptr, bool) {
	v, ok := t.root.Load().Get(key)
	if !ok {
		return gptr.Null, false
	}
	return v.(gptr.Gptr), true
}

// LoadOrCreate returns the key node pointer for key, creating it if needed
//
// Thread-safety: This method is thread-safe and can be called concurrently.
// Writers are serialized, the lookup fast path is lock-free.
func (t *radixTree) LoadOrCreate(key []byte, create index.CreateFunc) (gptr.Gptr, bool, error) {
	if ptr, ok := t.Lookup(key); ok {
		return ptr, false, nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	// double-check, another writer may have inserted in the meantime
	tree := t.root.Load()
	if v, ok := tree.Get(key); ok {
		return v.(gptr.Gptr), false, nil
	}

	ptr, err := create()
	if err != nil {
		return gptr.Null, false, err
	}

	// the tree keeps a reference to the key, so it must not alias the caller's buffer
	keyCopy := make([]byte, len(key))
	copy(keyCopy, key)

	newTree, _, _ := tree.Insert(keyCopy, ptr)
	t.root.Store(newTree)
	return ptr, true, nil
}

// Seek returns a cursor on the current snapshot of the tree
//
// Thread-safety: This method is thread-safe and lock-free.
func (t *radixTree) Seek(from []byte) index.Cursor {
	it := t.root.Load().Root().Iterator()
	it.SeekLowerBound(from)
	return &cursor{it: it}
}

func (t *radixTree) Len() int {
	return t.root.Load().Len()
}

func (t *radixTree) MaxKeyLen() int {
	return t.maxKeyLen
}

func (t *radixTree) SupportsFeature(feature index.Feature) bool {
	supported := index.FeatureLookup | index.FeatureCreate | index.FeatureOrdered
	return supported&feature == feature
}

func (t *radixTree) GetInfo() index.Info {
	return index.Info{
		Impl:              index.ImplRadixTree,
		Keys:              t.Len(),
		MaxKeyLen:         t.maxKeyLen,
		SupportedFeatures: []index.Feature{index.FeatureLookup, index.FeatureCreate, index.FeatureOrdered},
	}
}

// --------------------------------------------------------------------------
// Cursor
// --------------------------------------------------------------------------

type cursor struct {
	it *iradix.Iterator
}

func (c *cursor) Next() ([]byte, gptr.Gptr, bool) {
	k, v, ok := c.it.Next()
	if !ok {
		return nil, gptr.Null, false
	}
	key := make([]byte, len(k))
	copy(key, k)
	return key, v.(gptr.Gptr), true
}
