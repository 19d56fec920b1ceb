package internal

import (
	"sync/atomic"

	"github.com/ValentinKolb/fKV/lib/gptr"
	"github.com/ValentinKolb/fKV/lib/index"
)

// --------------------------------------------------------------------------
// Key Node
// --------------------------------------------------------------------------

// keyNodeHeader is the accounted size of a key node without its key bytes
// (slot pointer + tag + key length)
const keyNodeHeader = 24

// KeyNode is the per-key record stored in the heap. It is created once when
// the key is first written and is never removed, deletion only swaps the
// value slot to null. This keeps a key node pointer valid for as long as the
// store exists.
type KeyNode struct {
	Key  []byte
	slot atomic.Pointer[gptr.TagGptr]
}

// NewKeyNode creates a key node for key whose slot designates payload.
// A non-null payload starts at tag 1 so that the creating write counts as
// the first mutation of the slot.
func NewKeyNode(key []byte, payload gptr.Gptr) *KeyNode {
	n := &KeyNode{Key: append([]byte(nil), key...)}
	slot := gptr.TagGptr{}
	if !payload.IsNull() {
		slot = slot.Next(payload)
	}
	n.slot.Store(&slot)
	return n
}

// Size returns the number of heap bytes the key node accounts for
func (n *KeyNode) Size() uint64 {
	return uint64(keyNodeHeader + len(n.Key))
}

// Slot returns the current value slot
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (n *KeyNode) Slot() gptr.TagGptr {
	return *n.slot.Load()
}

// Swap replaces the payload of the slot with ptr (gptr.Null for a tombstone)
// and increments the tag. It returns the replaced and the new slot value.
// Concurrent swaps are linearized by their tags.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (n *KeyNode) Swap(ptr gptr.Gptr) (old, cur gptr.TagGptr) {
	for {
		prev := n.slot.Load()
		next := prev.Next(ptr)
		if n.slot.CompareAndSwap(prev, &next) {
			return *prev, next
		}
	}
}

// --------------------------------------------------------------------------
// Store Root
// --------------------------------------------------------------------------

// rootSize is the accounted size of a store root object
const rootSize = 64

// Root is the object at a store location. It records the index variant the
// store was created with and holds the index itself, so every instance
// opened at the same location shares the key nodes.
type Root struct {
	Impl      index.Implementation
	Index     index.Index
	MaxValLen int
}

// Size returns the number of heap bytes the root accounts for
func (r *Root) Size() uint64 {
	return rootSize
}
