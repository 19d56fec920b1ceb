package radixtree

import (
	"testing"

	"github.com/ValentinKolb/fKV/lib/index"
	indextesting "github.com/ValentinKolb/fKV/lib/index/testing"
)

func Test(t *testing.T) {
	indextesting.RunIndexTests(t, "RadixTree", func() index.Index {
		return NewRadixTree(nil)
	})
}

func TestCursorSnapshot(t *testing.T) {
	indextesting.RunCursorSnapshotTest(t, NewRadixTree(nil))
}
