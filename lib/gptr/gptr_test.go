package gptr

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGptrLayout(t *testing.T) {
	g := New(2, 0x1234)
	assert.Equal(t, PoolID(2), g.PoolID())
	assert.Equal(t, uint64(0x1234), g.Offset())
	assert.False(t, g.IsNull())
	assert.True(t, Null.IsNull())

	// offsets are truncated to 56 bits and never leak into the pool id
	g = New(7, ^uint64(0))
	assert.Equal(t, PoolID(7), g.PoolID())
	assert.Equal(t, offsetMask, g.Offset())
}

func TestTagGptrEquality(t *testing.T) {
	a := TagGptr{Ptr: New(1, 64), Tag: 3}
	b := TagGptr{Ptr: New(1, 64), Tag: 3}
	assert.True(t, a.Equal(b))

	// same address, different tag -> stale
	assert.False(t, a.Equal(TagGptr{Ptr: a.Ptr, Tag: 4}))
	// same tag, different address -> stale
	assert.False(t, a.Equal(TagGptr{Ptr: New(1, 128), Tag: 3}))
}

func TestTagGptrNext(t *testing.T) {
	var slot TagGptr
	assert.True(t, slot.IsNull())

	slot = slot.Next(New(1, 64))
	assert.Equal(t, uint64(1), slot.Tag)
	assert.False(t, slot.IsNull())

	tomb := slot.Next(Null)
	assert.True(t, tomb.IsNull())
	assert.Equal(t, uint64(2), tomb.Tag)
	assert.False(t, tomb.Equal(TagGptr{}), "a tombstone must differ from the never-written state")
}
