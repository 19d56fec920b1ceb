package pool

import (
	"sync"
	"testing"

	"github.com/ValentinKolb/fKV/lib/gptr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testParams returns params for a heap that is private to the calling test
func testParams(t *testing.T, size uint64) *Params {
	p := &Params{Base: t.TempDir(), User: t.Name(), HeapID: DefaultHeapID, HeapSize: size}
	t.Cleanup(func() { Destroy(p) })
	return p
}

func TestOpenSharesHeaps(t *testing.T) {
	p := testParams(t, 1<<20)

	h1, err := Open(p)
	require.NoError(t, err)
	h2, err := Open(p)
	require.NoError(t, err)
	assert.Same(t, h1, h2)

	other := *p
	other.HeapID = 3
	h3, err := Open(&other)
	require.NoError(t, err)
	t.Cleanup(func() { Destroy(&other) })
	assert.NotSame(t, h1, h3)

	found, ok := Lookup(p)
	assert.True(t, ok)
	assert.Same(t, h1, found)

	assert.True(t, Destroy(p))
	assert.False(t, Destroy(p))
	_, ok = Lookup(p)
	assert.False(t, ok)
}

func TestOpenRejectsInvalidParams(t *testing.T) {
	_, err := Open(&Params{HeapID: 1, HeapSize: 0})
	assert.ErrorIs(t, err, ErrInvalidParams)

	_, err = Open(&Params{HeapID: 1, HeapSize: maxHeapSize + 1})
	assert.ErrorIs(t, err, ErrInvalidParams)
}

func TestAllocLoadFree(t *testing.T) {
	h, err := Open(testParams(t, 1<<20))
	require.NoError(t, err)

	ptr, err := h.AllocBytes([]byte("hello"))
	require.NoError(t, err)
	assert.Equal(t, h.ID(), ptr.PoolID())
	assert.False(t, ptr.IsNull())

	data, err := h.Bytes(ptr)
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), data)
	assert.Equal(t, uint64(blockSize), h.Stats().Used)

	require.NoError(t, h.Free(ptr))
	_, err = h.Bytes(ptr)
	assert.ErrorIs(t, err, ErrInvalidPointer)
	assert.ErrorIs(t, h.Free(ptr), ErrInvalidPointer, "double free must be detected")
	assert.Equal(t, uint64(0), h.Stats().Used)

	// freed blocks are recycled
	again, err := h.AllocBytes([]byte("world"))
	require.NoError(t, err)
	assert.Equal(t, ptr, again)
}

func TestLoadRejectsForeignPointers(t *testing.T) {
	h, err := Open(testParams(t, 1<<20))
	require.NoError(t, err)

	_, err = h.Load(gptr.Null)
	assert.ErrorIs(t, err, ErrInvalidPointer)
	_, err = h.Load(gptr.New(h.ID()+1, blockSize))
	assert.ErrorIs(t, err, ErrInvalidPointer)

	ptr, err := h.Alloc(16, "not a payload")
	require.NoError(t, err)
	_, err = h.Bytes(ptr)
	assert.ErrorIs(t, err, ErrInvalidPointer)
}

func TestAllocOutOfMemory(t *testing.T) {
	h, err := Open(testParams(t, 4*blockSize))
	require.NoError(t, err)

	_, err = h.Alloc(3*blockSize, nil)
	require.NoError(t, err)
	_, err = h.Alloc(2*blockSize, nil)
	assert.ErrorIs(t, err, ErrOutOfMemory)
	_, err = h.Alloc(blockSize, nil)
	assert.NoError(t, err)
}

func TestDelayedFreeWaitsForMaintenance(t *testing.T) {
	h, err := Open(testParams(t, 1<<20))
	require.NoError(t, err)

	ptr, err := h.AllocBytes([]byte("old"))
	require.NoError(t, err)

	h.DelayedFree(ptr)
	_, err = h.Bytes(ptr)
	assert.NoError(t, err, "delayed free must not release immediately")
	assert.Equal(t, 1, h.Stats().PendingFrees)

	assert.Equal(t, 1, h.Maintenance())
	_, err = h.Bytes(ptr)
	assert.ErrorIs(t, err, ErrInvalidPointer)
	assert.Equal(t, 0, h.Stats().PendingFrees)

	// nothing left to do
	assert.Equal(t, 0, h.Maintenance())
}

func TestMaintenanceRespectsPinnedReaders(t *testing.T) {
	h, err := Open(testParams(t, 1<<20))
	require.NoError(t, err)

	ptr, err := h.AllocBytes([]byte("payload"))
	require.NoError(t, err)

	// a reader enters before the object is retired
	guard := h.Enter()
	h.DelayedFree(ptr)

	assert.Equal(t, 0, h.Maintenance(), "object must survive while a reader is pinned")
	data, err := h.Bytes(ptr)
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), data)

	guard.Exit()
	assert.Equal(t, 1, h.Maintenance())
}

func TestMaintenanceKeepsObjectsRetiredUnderGuard(t *testing.T) {
	h, err := Open(testParams(t, 1<<20))
	require.NoError(t, err)

	ptr, err := h.AllocBytes([]byte("payload"))
	require.NoError(t, err)
	h.DelayedFree(ptr)

	// advance the epoch so that the next reader pins a newer epoch
	h.Maintenance()
	ptr2, err := h.AllocBytes([]byte("payload2"))
	require.NoError(t, err)
	h.DelayedFree(ptr2)
	h.Maintenance()

	guard := h.Enter()
	defer guard.Exit()
	ptr3, err := h.AllocBytes([]byte("payload3"))
	require.NoError(t, err)
	h.DelayedFree(ptr3)

	// ptr3 was retired while the guard was held
	assert.Equal(t, 0, h.Maintenance())
	assert.Equal(t, 1, h.Stats().PendingFrees)
}

func TestConcurrentAllocAndReclaim(t *testing.T) {
	h, err := Open(testParams(t, 1<<24))
	require.NoError(t, err)

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				ptr, err := h.AllocBytes([]byte("x"))
				if err != nil {
					t.Error(err)
					return
				}
				g := h.Enter()
				if _, err := h.Bytes(ptr); err != nil {
					t.Error(err)
				}
				g.Exit()
				h.DelayedFree(ptr)
			}
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 50; i++ {
			h.Maintenance()
		}
	}()
	wg.Wait()

	h.Maintenance()
	stats := h.Stats()
	assert.Equal(t, 0, stats.PendingFrees)
	assert.Equal(t, 0, stats.Objects)
	assert.Equal(t, uint64(0), stats.Used)
}
