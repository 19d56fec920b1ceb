package internal

import (
	"testing"

	"github.com/ValentinKolb/fKV/lib/gptr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRetireHeap(t *testing.T) {
	rh := NewRetireHeap()
	require.NotNil(t, rh)
	assert.Equal(t, 0, rh.Len())

	_, ok := rh.Peek()
	assert.False(t, ok)
	_, ok = rh.PopOldest()
	assert.False(t, ok)
}

func TestRetireHeapOrdersByEpoch(t *testing.T) {
	rh := NewRetireHeap()
	rh.Retire(gptr.New(1, 64), 7)
	rh.Retire(gptr.New(1, 128), 3)
	rh.Retire(gptr.New(1, 192), 5)

	var epochs []uint64
	for rh.Len() > 0 {
		r, ok := rh.PopOldest()
		require.True(t, ok)
		epochs = append(epochs, r.Epoch)
	}
	assert.Equal(t, []uint64{3, 5, 7}, epochs)
}

func TestRetireHeapKeepsOldestEpoch(t *testing.T) {
	rh := NewRetireHeap()
	ptr := gptr.New(1, 64)
	rh.Retire(ptr, 2)
	rh.Retire(ptr, 9)

	assert.Equal(t, 1, rh.Len())
	r, ok := rh.Peek()
	require.True(t, ok)
	assert.Equal(t, uint64(2), r.Epoch)
}

func TestRetireHeapRemove(t *testing.T) {
	rh := NewRetireHeap()
	a, b := gptr.New(1, 64), gptr.New(1, 128)
	rh.Retire(a, 1)
	rh.Retire(b, 2)

	epoch, ok := rh.Remove(a)
	assert.True(t, ok)
	assert.Equal(t, uint64(1), epoch)
	assert.False(t, rh.Contains(a))
	assert.True(t, rh.Contains(b))

	_, ok = rh.Remove(a)
	assert.False(t, ok)

	r, ok := rh.Peek()
	require.True(t, ok)
	assert.Equal(t, b, r.Ptr)
}
