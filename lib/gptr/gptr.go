package gptr

import (
	"fmt"
)

// --------------------------------------------------------------------------
// Global Pointer
// --------------------------------------------------------------------------

// PoolID identifies a memory pool (heap) inside the fabric.
type PoolID uint8

const (
	offsetBits = 56
	offsetMask = (uint64(1) << offsetBits) - 1
)

// Gptr is a global pointer: the poolwide-unique location of a persistent
// object. The upper 8 bits hold the pool id, the lower 56 bits the offset
// inside the pool. A Gptr carries no ownership, the object it designates is
// owned by whoever allocated it (usually an index structure).
type Gptr uint64

// Null designates "no object here".
const Null Gptr = 0

// New builds a global pointer from a pool id and an offset.
// Offsets larger than 56 bits are truncated.
func New(pool PoolID, offset uint64) Gptr {
	return Gptr(uint64(pool)<<offsetBits | offset&offsetMask)
}

// PoolID returns the pool part of the pointer.
func (g Gptr) PoolID() PoolID {
	return PoolID(uint64(g) >> offsetBits)
}

// Offset returns the offset part of the pointer.
func (g Gptr) Offset() uint64 {
	return uint64(g) & offsetMask
}

// IsNull reports whether the pointer is Null.
func (g Gptr) IsNull() bool {
	return g == Null
}

func (g Gptr) String() string {
	if g.IsNull() {
		return "Gptr{null}"
	}
	return fmt.Sprintf("Gptr{pool: %d, offset: %#x}", g.PoolID(), g.Offset())
}

// --------------------------------------------------------------------------
// Tagged Global Pointer
// --------------------------------------------------------------------------

// TagGptr is a global pointer paired with a version tag. The tag of a slot
// increases every time the slot content is replaced, including when it is
// set to Null.
//
// A cached TagGptr is current iff both Ptr and Tag match the live slot.
type TagGptr struct {
	Ptr Gptr
	Tag uint64
}

// Equal reports whether both the address and the tag match.
func (t TagGptr) Equal(other TagGptr) bool {
	return t.Ptr == other.Ptr && t.Tag == other.Tag
}

// IsNull reports whether the pointer part is Null. A null TagGptr with a
// non-zero tag is a tombstone: the slot was written at least once.
func (t TagGptr) IsNull() bool {
	return t.Ptr.IsNull()
}

// Next returns the successor state of a slot that now points at ptr.
func (t TagGptr) Next(ptr Gptr) TagGptr {
	return TagGptr{Ptr: ptr, Tag: t.Tag + 1}
}

func (t TagGptr) String() string {
	return fmt.Sprintf("TagGptr{%s, tag: %d}", t.Ptr, t.Tag)
}
