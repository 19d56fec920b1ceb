package pool

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/ValentinKolb/fKV/lib/gptr"
	"github.com/ValentinKolb/fKV/lib/pool/internal"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/puzpuzpuz/xsync/v3"
)

var plog = logger.GetLogger("pool")

var (
	ErrOutOfMemory    = errors.New("pool: out of memory")
	ErrInvalidPointer = errors.New("pool: invalid pointer")
	ErrInvalidParams  = errors.New("pool: invalid parameters")
)

// --------------------------------------------------------------------------
// Heap
// --------------------------------------------------------------------------

// object is a single allocation inside the heap
type object struct {
	size  uint64
	value any
}

// Heap is an emulated fabric-attached memory pool. Every allocation gets a
// global pointer that is valid for every user of the same heap until the
// allocation is freed.
//
// Allocation is a bump allocator with per-size free lists. Reclamation of
// objects that concurrent readers might still dereference goes through
// DelayedFree and Maintenance (epoch based).
type Heap struct {
	id       gptr.PoolID
	params   Params
	capacity uint64

	// allocator state
	allocMu    sync.Mutex
	nextOffset uint64
	used       uint64
	freeLists  map[uint64][]uint64

	objects *xsync.MapOf[gptr.Gptr, object]

	// deferred reclamation
	epoch      atomic.Uint64
	pins       *xsync.MapOf[uint64, uint64] // reader id -> pinned epoch
	nextReader atomic.Uint64
	retireMu   sync.Mutex
	retired    *internal.RetireHeap
}

// Stats is a snapshot of the heap state
type Stats struct {
	HeapID       gptr.PoolID `json:"heap_id"`
	Capacity     uint64      `json:"capacity"`
	Used         uint64      `json:"used"`
	Objects      int         `json:"objects"`
	PendingFrees int         `json:"pending_frees"`
	Epoch        uint64      `json:"epoch"`
}

func newHeap(p Params) *Heap {
	h := &Heap{
		id:         p.HeapID,
		params:     p,
		capacity:   p.HeapSize,
		nextOffset: blockSize, // offset 0 is never handed out
		freeLists:  make(map[uint64][]uint64),
		objects:    xsync.NewMapOf[gptr.Gptr, object](),
		pins:       xsync.NewMapOf[uint64, uint64](),
		retired:    internal.NewRetireHeap(),
	}
	h.epoch.Store(1)
	return h
}

// ID returns the pool id of the heap
func (h *Heap) ID() gptr.PoolID {
	return h.id
}

// Params returns the parameters the heap was created with
func (h *Heap) Params() Params {
	return h.params
}

// --------------------------------------------------------------------------
// Allocation
// --------------------------------------------------------------------------

func alignedSize(size uint64) uint64 {
	if size == 0 {
		return blockSize
	}
	return (size + blockSize - 1) / blockSize * blockSize
}

// Alloc reserves size bytes and stores value at the new location.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (h *Heap) Alloc(size uint64, value any) (gptr.Gptr, error) {
	size = alignedSize(size)

	h.allocMu.Lock()
	if h.used+size > h.capacity {
		h.allocMu.Unlock()
		return gptr.Null, fmt.Errorf("%w: requested %d bytes, %d of %d in use", ErrOutOfMemory, size, h.used, h.capacity)
	}

	var offset uint64
	if free := h.freeLists[size]; len(free) > 0 {
		offset = free[len(free)-1]
		h.freeLists[size] = free[:len(free)-1]
	} else {
		offset = h.nextOffset
		h.nextOffset += size
	}
	h.used += size
	h.allocMu.Unlock()

	ptr := gptr.New(h.id, offset)
	h.objects.Store(ptr, object{size: size, value: value})
	return ptr, nil
}

// AllocBytes copies data into a new allocation
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (h *Heap) AllocBytes(data []byte) (gptr.Gptr, error) {
	payload := make([]byte, len(data))
	copy(payload, data)
	return h.Alloc(uint64(len(payload)), payload)
}

// Load returns the value stored at ptr
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (h *Heap) Load(ptr gptr.Gptr) (any, error) {
	if ptr.IsNull() || ptr.PoolID() != h.id {
		return nil, fmt.Errorf("%w: %s does not belong to heap %d", ErrInvalidPointer, ptr, h.id)
	}
	obj, ok := h.objects.Load(ptr)
	if !ok {
		return nil, fmt.Errorf("%w: %s is not allocated", ErrInvalidPointer, ptr)
	}
	return obj.value, nil
}

// Bytes returns the payload stored at ptr by AllocBytes.
// The returned slice is shared, callers must not modify it.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (h *Heap) Bytes(ptr gptr.Gptr) ([]byte, error) {
	v, err := h.Load(ptr)
	if err != nil {
		return nil, err
	}
	data, ok := v.([]byte)
	if !ok {
		return nil, fmt.Errorf("%w: %s does not hold a payload", ErrInvalidPointer, ptr)
	}
	return data, nil
}

// Free releases ptr immediately. Use DelayedFree for objects that
// concurrent readers might still dereference.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (h *Heap) Free(ptr gptr.Gptr) error {
	if ptr.IsNull() || ptr.PoolID() != h.id {
		return fmt.Errorf("%w: %s does not belong to heap %d", ErrInvalidPointer, ptr, h.id)
	}
	obj, ok := h.objects.LoadAndDelete(ptr)
	if !ok {
		return fmt.Errorf("%w: double free of %s", ErrInvalidPointer, ptr)
	}

	h.allocMu.Lock()
	h.freeLists[obj.size] = append(h.freeLists[obj.size], ptr.Offset())
	h.used -= obj.size
	h.allocMu.Unlock()
	return nil
}

// --------------------------------------------------------------------------
// Deferred Reclamation
// --------------------------------------------------------------------------

// Guard pins the epoch that was current when a reader entered the heap.
// Objects retired while the guard is held are not reclaimed.
type Guard struct {
	h  *Heap
	id uint64
}

// Enter pins the current epoch. Callers must Exit the guard when they no
// longer dereference pointers loaded inside the critical section.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (h *Heap) Enter() Guard {
	id := h.nextReader.Add(1)
	h.pins.Store(id, h.epoch.Load())
	return Guard{h: h, id: id}
}

// Exit releases the pinned epoch
func (g Guard) Exit() {
	g.h.pins.Delete(g.id)
}

// DelayedFree retires ptr. It is released by a later Maintenance call once
// no reader that could have loaded it is still active.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (h *Heap) DelayedFree(ptr gptr.Gptr) {
	if ptr.IsNull() {
		return
	}
	h.retireMu.Lock()
	h.retired.Retire(ptr, h.epoch.Load())
	h.retireMu.Unlock()
}

// Maintenance advances the epoch and frees every retired pointer that is
// older than all pinned epochs. It returns the number of freed objects.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
// Concurrent DelayedFree calls wait until Maintenance is done.
func (h *Heap) Maintenance() int {
	h.retireMu.Lock()
	defer h.retireMu.Unlock()

	safe := h.epoch.Add(1)
	h.pins.Range(func(_ uint64, pinned uint64) bool {
		if pinned < safe {
			safe = pinned
		}
		return true
	})

	freed := 0
	for {
		r, ok := h.retired.Peek()
		if !ok || r.Epoch >= safe {
			break
		}
		h.retired.PopOldest()
		if err := h.Free(r.Ptr); err != nil {
			plog.Warningf("maintenance: %v", err)
			continue
		}
		freed++
	}

	if freed > 0 {
		plog.Debugf("heap %d: reclaimed %d objects (safe epoch %d, %d pending)", h.id, freed, safe, h.retired.Len())
	}
	return freed
}

// Stats returns a snapshot of the heap state
func (h *Heap) Stats() Stats {
	h.allocMu.Lock()
	used := h.used
	h.allocMu.Unlock()

	h.retireMu.Lock()
	pending := h.retired.Len()
	h.retireMu.Unlock()

	return Stats{
		HeapID:       h.id,
		Capacity:     h.capacity,
		Used:         used,
		Objects:      h.objects.Size(),
		PendingFrees: pending,
		Epoch:        h.epoch.Load(),
	}
}
