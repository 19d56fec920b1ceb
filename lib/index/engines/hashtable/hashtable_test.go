package hashtable

import (
	"testing"

	"github.com/ValentinKolb/fKV/lib/index"
	indextesting "github.com/ValentinKolb/fKV/lib/index/testing"
	"github.com/stretchr/testify/assert"
)

func Test(t *testing.T) {
	indextesting.RunIndexTests(t, "HashTable", func() index.Index {
		return NewHashTable(nil)
	})
}

func TestPresized(t *testing.T) {
	indextesting.RunIndexTests(t, "HashTablePresized", func() index.Index {
		return NewHashTable(&Options{Presize: 1024})
	})
}

func TestNotOrdered(t *testing.T) {
	idx := NewHashTable(nil)
	assert.False(t, idx.SupportsFeature(index.FeatureOrdered))
	_, ok := idx.(index.Ordered)
	assert.False(t, ok)
}
