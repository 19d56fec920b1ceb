package kvs

import (
	"github.com/ValentinKolb/fKV/lib/gptr"
	"github.com/ValentinKolb/fKV/lib/kvs/internal"
	"github.com/ValentinKolb/fKV/lib/metrics"
	"github.com/ValentinKolb/fKV/lib/pool"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/puzpuzpuz/xsync/v3"
)

var plog = logger.GetLogger("kvs")

// MakeStore opens the store at location. A null location creates a new
// store of type t in the heap named by opts.Heap; its location is returned
// by Location. Opening an existing store requires the type it was created
// with.
//
// ErrConfig is returned if t is invalid, the heap cannot be opened or the
// location does not designate a store of type t.
func MakeStore(t IndexType, location gptr.Gptr, opts *Options) (Store, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	if !t.Valid() {
		return nil, errorf(RetCConfigError, "invalid index type %d", t)
	}

	heap, err := pool.Open(opts.Heap)
	if err != nil {
		return nil, errorf(RetCConfigError, "open heap: %v", err)
	}

	var root *internal.Root
	if location.IsNull() {
		root, location, err = createRoot(heap, t, opts)
		if err != nil {
			return nil, err
		}
		plog.Infof("created %s store at %s", t, location)
	} else {
		root, err = loadRoot(heap, t, location)
		if err != nil {
			return nil, err
		}
		plog.Debugf("opened %s store at %s", t, location)
	}

	return &storeImpl{
		typ:       t,
		heap:      heap,
		root:      root,
		location:  location,
		metrics:   metrics.New(opts.Metrics),
		iterators: xsync.NewMapOf[int, *iterator](),
	}, nil
}

// MakeStoreByName is MakeStore with the variant given by name
// ("radixtree", "hashtable", "radixtreetiny", case-insensitive).
func MakeStoreByName(name string, location gptr.Gptr, opts *Options) (Store, error) {
	t := ParseIndexType(name)
	if !t.Valid() {
		return nil, errorf(RetCConfigError, "unknown index type %q", name)
	}
	return MakeStore(t, location, opts)
}

func createRoot(heap *pool.Heap, t IndexType, opts *Options) (*internal.Root, gptr.Gptr, error) {
	idx, err := t.newIndex(opts)
	if err != nil {
		return nil, gptr.Null, errorf(RetCConfigError, "%v", err)
	}

	maxValLen := opts.MaxValLen
	if maxValLen <= 0 {
		maxValLen = DefaultMaxValLen
	}

	root := &internal.Root{
		Impl:      t.impl(),
		Index:     idx,
		MaxValLen: maxValLen,
	}
	location, err := heap.Alloc(root.Size(), root)
	if err != nil {
		return nil, gptr.Null, errorf(RetCConfigError, "allocate store root: %v", err)
	}
	return root, location, nil
}

func loadRoot(heap *pool.Heap, t IndexType, location gptr.Gptr) (*internal.Root, error) {
	obj, err := heap.Load(location)
	if err != nil {
		return nil, errorf(RetCConfigError, "store location %s: %v", location, err)
	}
	root, ok := obj.(*internal.Root)
	if !ok {
		return nil, errorf(RetCConfigError, "store location %s does not designate a store", location)
	}
	if root.Impl != t.impl() {
		return nil, errorf(RetCConfigError, "store at %s was created as %s, not %s", location, root.Impl, t)
	}
	return root, nil
}
