package hashtable

import (
	"github.com/ValentinKolb/fKV/lib/gptr"
	"github.com/ValentinKolb/fKV/lib/index"
	"github.com/puzpuzpuz/xsync/v3"
)

const (
	// DefaultMaxKeyLen is the maximum key length of a hash table by default
	DefaultMaxKeyLen = 255
)

// Options configures the hash table
type Options struct {
	MaxKeyLen int // Maximum accepted key length (0 = DefaultMaxKeyLen)
	Presize   int // Number of keys to allocate buckets for up front (0 = library default)
}

// DefaultOptions returns the default hash table options
func DefaultOptions() *Options {
	return &Options{
		MaxKeyLen: DefaultMaxKeyLen,
	}
}

// hashTable maps keys to key node pointers in a concurrent hash map.
// It has no key order and therefore no cursor.
type hashTable struct {
	data      *xsync.MapOf[string, gptr.Gptr]
	maxKeyLen int
}

// NewHashTable creates an empty hash table with the specified options (optional)
func NewHashTable(opts *Options) index.Index {
	if opts == nil {
		opts = DefaultOptions()
	}
	maxKeyLen := opts.MaxKeyLen
	if maxKeyLen <= 0 {
		maxKeyLen = DefaultMaxKeyLen
	}

	var data *xsync.MapOf[string, gptr.Gptr]
	if opts.Presize > 0 {
		data = xsync.NewMapOf[string, gptr.Gptr](xsync.WithPresize(opts.Presize))
	} else {
		data = xsync.NewMapOf[string, gptr.Gptr]()
	}

	return &hashTable{
		data:      data,
		maxKeyLen: maxKeyLen,
	}
}

// Lookup returns the key node pointer for key
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (h *hashTable) Lookup(key []byte) (gptr.Gptr, bool) {
	return h.data.Load(string(key))
}

// LoadOrCreate returns the key node pointer for key, creating it if needed.
// The create function runs inside the bucket lock of the key, which makes
// creation exclusive per key without blocking other keys.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (h *hashTable) LoadOrCreate(key []byte, create index.CreateFunc) (gptr.Gptr, bool, error) {
	if ptr, ok := h.data.Load(string(key)); ok {
		return ptr, false, nil
	}

	var (
		created bool
		err     error
	)
	ptr, _ := h.data.Compute(string(key), func(old gptr.Gptr, loaded bool) (gptr.Gptr, bool) {
		if loaded {
			return old, false
		}

		var newPtr gptr.Gptr
		newPtr, err = create()
		if err != nil {
			return old, true // set delete to true because else the value will be created
		}
		created = true
		return newPtr, false
	})
	if err != nil {
		return gptr.Null, false, err
	}
	return ptr, created, nil
}

func (h *hashTable) Len() int {
	return h.data.Size()
}

func (h *hashTable) MaxKeyLen() int {
	return h.maxKeyLen
}

func (h *hashTable) SupportsFeature(feature index.Feature) bool {
	supported := index.FeatureLookup | index.FeatureCreate
	return supported&feature == feature
}

func (h *hashTable) GetInfo() index.Info {
	stats := h.data.Stats()
	meta := &struct {
		RootBuckets  int     `json:"root_buckets"`
		TotalBuckets int     `json:"total_buckets"`
		Capacity     int     `json:"capacity"`
		LoadFactor   float64 `json:"load_factor"`
	}{
		RootBuckets:  stats.RootBuckets,
		TotalBuckets: stats.TotalBuckets,
		Capacity:     stats.Capacity,
	}
	if stats.Capacity > 0 {
		meta.LoadFactor = float64(stats.Size) / float64(stats.Capacity)
	}

	return index.Info{
		Impl:              index.ImplHashTable,
		Keys:              stats.Size,
		MaxKeyLen:         h.maxKeyLen,
		SupportedFeatures: []index.Feature{index.FeatureLookup, index.FeatureCreate},
		Metadata:          meta,
	}
}
