package internal

import (
	"sync"
	"testing"

	"github.com/ValentinKolb/fKV/lib/gptr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewKeyNode(t *testing.T) {
	key := []byte("key")
	n := NewKeyNode(key, gptr.New(2, 128))
	key[0] = 'X'

	assert.Equal(t, []byte("key"), n.Key, "key must be copied")
	assert.Equal(t, gptr.TagGptr{Ptr: gptr.New(2, 128), Tag: 1}, n.Slot())
	assert.Equal(t, uint64(keyNodeHeader+3), n.Size())

	empty := NewKeyNode([]byte("empty"), gptr.Null)
	assert.Equal(t, gptr.TagGptr{}, empty.Slot())
	assert.True(t, empty.Slot().IsNull())
}

func TestSwapIncrementsTag(t *testing.T) {
	n := NewKeyNode([]byte("k"), gptr.New(2, 64))

	old, cur := n.Swap(gptr.New(2, 128))
	assert.Equal(t, gptr.TagGptr{Ptr: gptr.New(2, 64), Tag: 1}, old)
	assert.Equal(t, gptr.TagGptr{Ptr: gptr.New(2, 128), Tag: 2}, cur)

	// tombstone still counts as a mutation
	old, cur = n.Swap(gptr.Null)
	assert.Equal(t, gptr.New(2, 128), old.Ptr)
	assert.True(t, cur.IsNull())
	assert.Equal(t, uint64(3), cur.Tag)

	// deleting a tombstone too
	_, cur = n.Swap(gptr.Null)
	assert.Equal(t, uint64(4), cur.Tag)
	assert.Equal(t, cur, n.Slot())
}

func TestConcurrentSwapsAreLinearized(t *testing.T) {
	const (
		workers = 8
		swaps   = 1000
	)
	n := NewKeyNode([]byte("k"), gptr.Null)

	var wg sync.WaitGroup
	tags := make(chan uint64, workers*swaps)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < swaps; i++ {
				old, cur := n.Swap(gptr.New(2, uint64(w*swaps+i+1)*64))
				if cur.Tag != old.Tag+1 {
					t.Errorf("tag jumped from %d to %d", old.Tag, cur.Tag)
				}
				tags <- cur.Tag
			}
		}(w)
	}
	wg.Wait()
	close(tags)

	seen := make(map[uint64]bool, workers*swaps)
	for tag := range tags {
		require.False(t, seen[tag], "tag %d observed twice", tag)
		seen[tag] = true
	}
	assert.Len(t, seen, workers*swaps)
	assert.Equal(t, uint64(workers*swaps), n.Slot().Tag)
}
