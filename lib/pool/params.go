package pool

import (
	"fmt"

	"github.com/ValentinKolb/fKV/lib/gptr"
)

const (
	// DefaultHeapID is the pool id used when none is configured
	DefaultHeapID gptr.PoolID = 2
	// DefaultHeapSize is the capacity of a heap when none is configured (1 GiB)
	DefaultHeapSize uint64 = 1024 * 1024 * 1024

	// allocation granularity, every object occupies a multiple of this
	blockSize = 64
	// maximum heap capacity representable by a 56 bit offset
	maxHeapSize = (uint64(1) << 56) - blockSize
)

// Params identifies a heap inside the fabric and configures it.
// Base and User namespace heaps the same way a shared file system root and a
// user name would; HeapID is the pool id encoded in every pointer.
type Params struct {
	Base     string      // root of the fabric namespace
	User     string      // owner of the heap
	HeapID   gptr.PoolID // pool id
	HeapSize uint64      // capacity in bytes
}

// DefaultParams returns the default heap parameters
func DefaultParams() *Params {
	return &Params{
		HeapID:   DefaultHeapID,
		HeapSize: DefaultHeapSize,
	}
}

// validate checks the parameters before a heap is created
func (p *Params) validate() error {
	if p.HeapSize == 0 {
		return fmt.Errorf("%w: heap size must be greater than zero", ErrInvalidParams)
	}
	if p.HeapSize > maxHeapSize {
		return fmt.Errorf("%w: heap size %d exceeds maximum %d", ErrInvalidParams, p.HeapSize, maxHeapSize)
	}
	return nil
}

func (p *Params) String() string {
	return fmt.Sprintf("Params{Base: %q, User: %q, HeapID: %d, HeapSize: %d}", p.Base, p.User, p.HeapID, p.HeapSize)
}
