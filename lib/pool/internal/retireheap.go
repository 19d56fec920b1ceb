// Package internal
//
// This file provides the retire heap used by the pool for deferred
// reclamation.
//
// The heap combines a binary min-heap (ordered by retire epoch) with a map
// (keyed by global pointer) so that:
//   - the oldest retirees can be peeked and popped in O(log n)
//   - a pointer can be checked for or removed in O(1) / O(log n)
//
// Concurrency: the heap is not thread-safe. The pool guards it with its retire mutex.
package internal

import (
	"container/heap"
	"fmt"

	"github.com/ValentinKolb/fKV/lib/gptr"
)

// Retiree is a pointer waiting for reclamation together with the epoch in
// which it was retired.
type Retiree struct {
	Ptr   gptr.Gptr
	Epoch uint64
	index int // maintained by container/heap
}

func (r *Retiree) String() string {
	return fmt.Sprintf("{Ptr: %s, Epoch: %d}", r.Ptr, r.Epoch)
}

// RetireHeap is a min-heap of retirees with pointer based access.
type RetireHeap struct {
	items []*Retiree
	byPtr map[gptr.Gptr]*Retiree
}

// NewRetireHeap creates an empty retire heap
func NewRetireHeap() *RetireHeap {
	return &RetireHeap{
		items: make([]*Retiree, 0),
		byPtr: make(map[gptr.Gptr]*Retiree),
	}
}

// Len is part of heap.Interface
func (rh *RetireHeap) Len() int { return len(rh.items) }

// Less is part of heap.Interface, older epochs first
func (rh *RetireHeap) Less(i, j int) bool {
	return rh.items[i].Epoch < rh.items[j].Epoch
}

// Swap is part of heap.Interface
func (rh *RetireHeap) Swap(i, j int) {
	rh.items[i], rh.items[j] = rh.items[j], rh.items[i]
	rh.items[i].index = i
	rh.items[j].index = j
}

// Push is part of heap.Interface, use Retire instead
func (rh *RetireHeap) Push(x interface{}) {
	r := x.(*Retiree)
	r.index = len(rh.items)
	rh.items = append(rh.items, r)
	rh.byPtr[r.Ptr] = r
}

// Pop is part of heap.Interface, use PopOldest instead
func (rh *RetireHeap) Pop() interface{} {
	old := rh.items
	n := len(old)
	r := old[n-1]
	old[n-1] = nil // avoid memory leak
	r.index = -1
	rh.items = old[:n-1]
	delete(rh.byPtr, r.Ptr)
	return r
}

// Retire adds ptr with the given epoch. A pointer that is already waiting
// keeps its first (older) epoch.
func (rh *RetireHeap) Retire(ptr gptr.Gptr, epoch uint64) {
	if _, exists := rh.byPtr[ptr]; exists {
		return
	}
	heap.Push(rh, &Retiree{Ptr: ptr, Epoch: epoch})
}

// Peek returns the oldest retiree without removing it
func (rh *RetireHeap) Peek() (*Retiree, bool) {
	if len(rh.items) == 0 {
		return nil, false
	}
	return rh.items[0], true
}

// PopOldest removes and returns the oldest retiree
func (rh *RetireHeap) PopOldest() (*Retiree, bool) {
	if len(rh.items) == 0 {
		return nil, false
	}
	return heap.Pop(rh).(*Retiree), true
}

// Contains reports whether ptr is waiting for reclamation
func (rh *RetireHeap) Contains(ptr gptr.Gptr) bool {
	_, exists := rh.byPtr[ptr]
	return exists
}

// Remove drops ptr from the heap and returns its retire epoch
func (rh *RetireHeap) Remove(ptr gptr.Gptr) (uint64, bool) {
	r, exists := rh.byPtr[ptr]
	if !exists {
		return 0, false
	}
	heap.Remove(rh, r.index)
	return r.Epoch, true
}
