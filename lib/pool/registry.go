package pool

import (
	"sync"

	"github.com/ValentinKolb/fKV/lib/gptr"
)

// --------------------------------------------------------------------------
// Fabric registry
// --------------------------------------------------------------------------

// heapKey identifies a heap inside the fabric
type heapKey struct {
	base string
	user string
	id   gptr.PoolID
}

// the fabric: every heap opened by this process
var fabric = struct {
	sync.Mutex
	heaps map[heapKey]*Heap
}{
	heaps: make(map[heapKey]*Heap),
}

// Open returns the heap identified by p, creating it if it does not exist
// yet. Every caller that opens the same (Base, User, HeapID) shares the
// same heap. The size of an existing heap is never changed.
//
// Thread-safety: This function is thread-safe and can be called concurrently.
func Open(p *Params) (*Heap, error) {
	if p == nil {
		p = DefaultParams()
	}
	if err := p.validate(); err != nil {
		return nil, err
	}

	key := heapKey{base: p.Base, user: p.User, id: p.HeapID}

	fabric.Lock()
	defer fabric.Unlock()

	if h, ok := fabric.heaps[key]; ok {
		if h.capacity != p.HeapSize {
			plog.Warningf("heap %d already exists with size %d, ignoring requested size %d", p.HeapID, h.capacity, p.HeapSize)
		}
		return h, nil
	}

	h := newHeap(*p)
	fabric.heaps[key] = h
	plog.Infof("created heap %d (base %q, user %q, %d bytes)", p.HeapID, p.Base, p.User, p.HeapSize)
	return h, nil
}

// Lookup returns the heap identified by p without creating it.
func Lookup(p *Params) (*Heap, bool) {
	if p == nil {
		p = DefaultParams()
	}
	fabric.Lock()
	defer fabric.Unlock()
	h, ok := fabric.heaps[heapKey{base: p.Base, user: p.User, id: p.HeapID}]
	return h, ok
}

// Destroy removes the heap identified by p from the fabric. Stores that
// still hold the heap keep working on their copy, new Open calls create
// a fresh heap. Returns false if no such heap existed.
func Destroy(p *Params) bool {
	if p == nil {
		p = DefaultParams()
	}
	key := heapKey{base: p.Base, user: p.User, id: p.HeapID}

	fabric.Lock()
	defer fabric.Unlock()
	if _, ok := fabric.heaps[key]; !ok {
		return false
	}
	delete(fabric.heaps, key)
	plog.Infof("destroyed heap %d (base %q, user %q)", p.HeapID, p.Base, p.User)
	return true
}
