package radixtreetiny

import (
	"fmt"
	"testing"

	"github.com/ValentinKolb/fKV/lib/gptr"
	"github.com/ValentinKolb/fKV/lib/index"
	indextesting "github.com/ValentinKolb/fKV/lib/index/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test(t *testing.T) {
	indextesting.RunIndexTests(t, "RadixTreeTiny", func() index.Index {
		return NewRadixTreeTiny(nil)
	})
}

// TestCursorAcrossBatches walks more keys than a single cursor batch holds
func TestCursorAcrossBatches(t *testing.T) {
	idx := NewRadixTreeTiny(&Options{Degree: 2})
	n := cursorBatch*3 + 7
	for i := 0; i < n; i++ {
		key := []byte(fmt.Sprintf("key-%04d", i))
		_, created, err := idx.LoadOrCreate(key, func() (gptr.Gptr, error) {
			return gptr.New(1, uint64(i+1)*64), nil
		})
		require.NoError(t, err)
		require.True(t, created)
	}

	c := idx.Seek(nil)
	count := 0
	for {
		key, ptr, ok := c.Next()
		if !ok {
			break
		}
		assert.Equal(t, fmt.Sprintf("key-%04d", count), string(key))
		assert.Equal(t, gptr.New(1, uint64(count+1)*64), ptr)
		count++
	}
	assert.Equal(t, n, count)

	// exhausted cursors stay exhausted
	_, _, ok := c.Next()
	assert.False(t, ok)
}

func TestDefaultsForInvalidOptions(t *testing.T) {
	idx := NewRadixTreeTiny(&Options{Degree: 1, MaxKeyLen: -1})
	assert.Equal(t, DefaultMaxKeyLen, idx.MaxKeyLen())
}
