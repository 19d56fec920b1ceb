package radixtreetiny

import (
	"bytes"
	"sync"

	"github.com/ValentinKolb/fKV/lib/gptr"
	"github.com/ValentinKolb/fKV/lib/index"
	"github.com/google/btree"
)

const (
	// DefaultMaxKeyLen is the maximum key length of the compact index by default
	DefaultMaxKeyLen = 40
	// DefaultDegree is the default btree degree
	DefaultDegree = 16
	// number of items a cursor fetches per lock acquisition
	cursorBatch = 64
)

// Options configures the compact index
type Options struct {
	MaxKeyLen int // Maximum accepted key length (0 = DefaultMaxKeyLen)
	Degree    int // Branching degree of the underlying btree (0 = DefaultDegree)
}

// DefaultOptions returns the default compact index options
func DefaultOptions() *Options {
	return &Options{
		MaxKeyLen: DefaultMaxKeyLen,
		Degree:    DefaultDegree,
	}
}

// item is a single (key, key node pointer) pair in the btree
type item struct {
	key []byte
	ptr gptr.Gptr
}

func (a item) Less(than btree.Item) bool {
	return bytes.Compare(a.key, than.(item).key) < 0
}

// tinyTree is the compact ordered index. It stores keys in a btree
// with short keys, which keeps the per-key overhead small compared to
// the node layout of the full radix tree.
type tinyTree struct {
	mu        sync.RWMutex
	tree      *btree.BTree
	maxKeyLen int
}

// NewRadixTreeTiny creates an empty compact index with the specified options (optional)
func NewRadixTreeTiny(opts *Options) index.Ordered {
	if opts == nil {
		opts = DefaultOptions()
	}
	degree := opts.Degree
	if degree < 2 {
		degree = DefaultDegree
	}
	maxKeyLen := opts.MaxKeyLen
	if maxKeyLen <= 0 {
		maxKeyLen = DefaultMaxKeyLen
	}
	return &tinyTree{
		tree:      btree.New(degree),
		maxKeyLen: maxKeyLen,
	}
}

// Lookup returns the key node pointer for key
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (t *tinyTree) Lookup(key []byte) (gptr.Gptr, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.lookupLocked(key)
}

func (t *tinyTree) lookupLocked(key []byte) (gptr.Gptr, bool) {
	found := t.tree.Get(item{key: key})
	if found == nil {
		return gptr.Null, false
	}
	return found.(item).ptr, true
}

// LoadOrCreate returns the key node pointer for key, creating it if needed
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (t *tinyTree) LoadOrCreate(key []byte, create index.CreateFunc) (gptr.Gptr, bool, error) {
	if ptr, ok := t.Lookup(key); ok {
		return ptr, false, nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if ptr, ok := t.lookupLocked(key); ok {
		return ptr, false, nil
	}

	ptr, err := create()
	if err != nil {
		return gptr.Null, false, err
	}

	keyCopy := make([]byte, len(key))
	copy(keyCopy, key)
	t.tree.ReplaceOrInsert(item{key: keyCopy, ptr: ptr})
	return ptr, true, nil
}

// Seek returns a cursor starting at the first key >= from.
// The cursor reads the tree in batches, keys inserted between two batches
// may or may not be observed.
//
// Thread-safety: This method is thread-safe, the returned cursor is not.
func (t *tinyTree) Seek(from []byte) index.Cursor {
	start := make([]byte, len(from))
	copy(start, from)
	return &cursor{tree: t, next: start, inclusive: true}
}

func (t *tinyTree) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.tree.Len()
}

func (t *tinyTree) MaxKeyLen() int {
	return t.maxKeyLen
}

func (t *tinyTree) SupportsFeature(feature index.Feature) bool {
	supported := index.FeatureLookup | index.FeatureCreate | index.FeatureOrdered
	return supported&feature == feature
}

func (t *tinyTree) GetInfo() index.Info {
	return index.Info{
		Impl:              index.ImplRadixTreeTiny,
		Keys:              t.Len(),
		MaxKeyLen:         t.maxKeyLen,
		SupportedFeatures: []index.Feature{index.FeatureLookup, index.FeatureCreate, index.FeatureOrdered},
	}
}

// --------------------------------------------------------------------------
// Cursor
// --------------------------------------------------------------------------

type cursor struct {
	tree      *tinyTree
	next      []byte // resume position
	inclusive bool   // whether next itself is still to be returned
	buf       []item
	done      bool
}

// fill loads the next batch of items after the resume position
func (c *cursor) fill() {
	c.tree.mu.RLock()
	defer c.tree.mu.RUnlock()

	c.tree.tree.AscendGreaterOrEqual(item{key: c.next}, func(i btree.Item) bool {
		it := i.(item)
		if !c.inclusive && bytes.Equal(it.key, c.next) {
			return true
		}
		c.buf = append(c.buf, it)
		return len(c.buf) < cursorBatch
	})
}

func (c *cursor) Next() ([]byte, gptr.Gptr, bool) {
	if c.done {
		return nil, gptr.Null, false
	}
	if len(c.buf) == 0 {
		c.fill()
		if len(c.buf) == 0 {
			c.done = true
			return nil, gptr.Null, false
		}
	}

	it := c.buf[0]
	c.buf = c.buf[1:]
	c.next = it.key
	c.inclusive = false

	key := make([]byte, len(it.key))
	copy(key, it.key)
	return key, it.ptr, true
}
