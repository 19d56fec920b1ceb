package kvs

import (
	"sync/atomic"

	"github.com/ValentinKolb/fKV/lib/gptr"
	"github.com/ValentinKolb/fKV/lib/kvs/internal"
	"github.com/ValentinKolb/fKV/lib/metrics"
	"github.com/ValentinKolb/fKV/lib/pool"
	"github.com/puzpuzpuz/xsync/v3"
)

type storeImpl struct {
	typ      IndexType
	heap     *pool.Heap
	root     *internal.Root
	location gptr.Gptr
	metrics  *metrics.Metrics

	iterators *xsync.MapOf[int, *iterator]
	nextIter  atomic.Int64
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

func (s *storeImpl) checkKey(key []byte) error {
	if len(key) > s.root.Index.MaxKeyLen() {
		return errorf(RetCError, "key length %d exceeds maximum %d", len(key), s.root.Index.MaxKeyLen())
	}
	return nil
}

func (s *storeImpl) checkVal(val []byte) error {
	if len(val) > s.root.MaxValLen {
		return errorf(RetCError, "value length %d exceeds maximum %d", len(val), s.root.MaxValLen)
	}
	return nil
}

// keyNode resolves a key node pointer. Pointers that do not designate a key
// node of this heap are rejected.
func (s *storeImpl) keyNode(keyPtr gptr.Gptr) (*internal.KeyNode, error) {
	obj, err := s.heap.Load(keyPtr)
	if err != nil {
		return nil, errorf(RetCError, "key pointer %s: %v", keyPtr, err)
	}
	node, ok := obj.(*internal.KeyNode)
	if !ok {
		return nil, errorf(RetCError, "key pointer %s does not designate a key node", keyPtr)
	}
	return node, nil
}

// allocPayload copies val into the heap
func (s *storeImpl) allocPayload(val []byte) (gptr.Gptr, error) {
	payload, err := s.heap.AllocBytes(val)
	if err != nil {
		return gptr.Null, errorf(RetCError, "allocate value: %v", err)
	}
	s.metrics.Update(metrics.HistogramValueSize, int64(len(val)))
	return payload, nil
}

// freeUnpublished returns a payload that never became visible to readers
func (s *storeImpl) freeUnpublished(payload gptr.Gptr) {
	if err := s.heap.Free(payload); err != nil {
		plog.Warningf("free unpublished payload %s: %v", payload, err)
	}
}

// swap installs ptr in the slot of node and retires the replaced payload
func (s *storeImpl) swap(node *internal.KeyNode, ptr gptr.Gptr) gptr.TagGptr {
	old, cur := node.Swap(ptr)
	s.heap.DelayedFree(old.Ptr)
	return cur
}

// read returns the live slot of node and a copy of its payload.
// The payload is dereferenced under a guard so that a concurrent overwrite
// cannot reclaim it.
func (s *storeImpl) read(node *internal.KeyNode) (gptr.TagGptr, []byte, error) {
	guard := s.heap.Enter()
	defer guard.Exit()

	slot := node.Slot()
	if slot.IsNull() {
		return slot, nil, nil
	}
	data, err := s.heap.Bytes(slot.Ptr)
	if err != nil {
		return slot, nil, errorf(RetCError, "value pointer %s: %v", slot.Ptr, err)
	}
	return slot, append(make([]byte, 0, len(data)), data...), nil
}

// put writes val for key and creates the key node if needed
func (s *storeImpl) put(key, val []byte) (gptr.Gptr, gptr.TagGptr, error) {
	if err := s.checkKey(key); err != nil {
		return gptr.Null, gptr.TagGptr{}, err
	}
	if err := s.checkVal(val); err != nil {
		return gptr.Null, gptr.TagGptr{}, err
	}

	payload, err := s.allocPayload(val)
	if err != nil {
		return gptr.Null, gptr.TagGptr{}, err
	}

	keyPtr, isNew, err := s.root.Index.LoadOrCreate(key, func() (gptr.Gptr, error) {
		node := internal.NewKeyNode(key, payload)
		return s.heap.Alloc(node.Size(), node)
	})
	if err != nil {
		s.freeUnpublished(payload)
		return gptr.Null, gptr.TagGptr{}, errorf(RetCError, "create key node: %v", err)
	}
	if isNew {
		// the slot may already be swapped by another writer, so report the
		// state the node was created with
		return keyPtr, gptr.TagGptr{}.Next(payload), nil
	}

	node, err := s.keyNode(keyPtr)
	if err != nil {
		s.freeUnpublished(payload)
		return gptr.Null, gptr.TagGptr{}, err
	}
	return keyPtr, s.swap(node, payload), nil
}

// --------------------------------------------------------------------------
// Interface Methods (docu see kvs/interface.go)
// --------------------------------------------------------------------------

func (s *storeImpl) Put(key, val []byte) error {
	s.metrics.Inc(metrics.CounterPut)
	_, _, err := s.put(key, val)
	return err
}

func (s *storeImpl) Get(key []byte) ([]byte, error) {
	s.metrics.Inc(metrics.CounterGet)
	val, keyPtr, valPtr, err := s.getByKey(key)
	if err != nil {
		return nil, err
	}
	if keyPtr.IsNull() || valPtr.IsNull() {
		return nil, ErrKeyDoesNotExist
	}
	return val, nil
}

func (s *storeImpl) FindOrCreate(key, val []byte) ([]byte, bool, error) {
	s.metrics.Inc(metrics.CounterFindOrCreate)
	if err := s.checkKey(key); err != nil {
		return nil, false, err
	}
	if err := s.checkVal(val); err != nil {
		return nil, false, err
	}

	keyPtr, ok := s.root.Index.Lookup(key)
	if !ok {
		payload, err := s.allocPayload(val)
		if err != nil {
			return nil, false, err
		}
		var isNew bool
		keyPtr, isNew, err = s.root.Index.LoadOrCreate(key, func() (gptr.Gptr, error) {
			node := internal.NewKeyNode(key, payload)
			return s.heap.Alloc(node.Size(), node)
		})
		if err != nil {
			s.freeUnpublished(payload)
			return nil, false, errorf(RetCError, "create key node: %v", err)
		}
		if isNew {
			return nil, false, nil
		}
		// lost the race against another creator
		s.freeUnpublished(payload)
	}

	node, err := s.keyNode(keyPtr)
	if err != nil {
		return nil, false, err
	}
	_, existing, err := s.read(node)
	if err != nil {
		return nil, false, err
	}
	return existing, true, nil
}

func (s *storeImpl) Del(key []byte) error {
	s.metrics.Inc(metrics.CounterDel)
	keyPtr, _, err := s.delByKey(key)
	if err != nil {
		return err
	}
	if keyPtr.IsNull() {
		return ErrKeyDoesNotExist
	}
	return nil
}

func (s *storeImpl) PutByKey(key, val []byte) (gptr.Gptr, gptr.TagGptr, error) {
	s.metrics.Inc(metrics.CounterPut)
	return s.put(key, val)
}

func (s *storeImpl) PutByHandle(keyPtr gptr.Gptr, val []byte) (gptr.TagGptr, error) {
	s.metrics.Inc(metrics.CounterPut)
	if err := s.checkVal(val); err != nil {
		return gptr.TagGptr{}, err
	}
	node, err := s.keyNode(keyPtr)
	if err != nil {
		return gptr.TagGptr{}, err
	}
	payload, err := s.allocPayload(val)
	if err != nil {
		return gptr.TagGptr{}, err
	}
	return s.swap(node, payload), nil
}

func (s *storeImpl) GetByKey(key []byte) ([]byte, gptr.Gptr, gptr.TagGptr, error) {
	s.metrics.Inc(metrics.CounterGet)
	return s.getByKey(key)
}

func (s *storeImpl) getByKey(key []byte) ([]byte, gptr.Gptr, gptr.TagGptr, error) {
	if err := s.checkKey(key); err != nil {
		return nil, gptr.Null, gptr.TagGptr{}, err
	}
	keyPtr, ok := s.root.Index.Lookup(key)
	if !ok {
		return nil, gptr.Null, gptr.TagGptr{}, nil
	}
	node, err := s.keyNode(keyPtr)
	if err != nil {
		return nil, gptr.Null, gptr.TagGptr{}, err
	}
	valPtr, val, err := s.read(node)
	if err != nil {
		return nil, gptr.Null, gptr.TagGptr{}, err
	}
	return val, keyPtr, valPtr, nil
}

func (s *storeImpl) GetByHandle(keyPtr gptr.Gptr, cached gptr.TagGptr, forceRefresh bool) (gptr.TagGptr, []byte, error) {
	node, err := s.keyNode(keyPtr)
	if err != nil {
		return gptr.TagGptr{}, nil, err
	}

	if !forceRefresh {
		if live := node.Slot(); live.Equal(cached) {
			s.metrics.Inc(metrics.CounterCachedHit)
			return live, nil, nil
		}
	}

	s.metrics.Inc(metrics.CounterCachedMiss)
	return s.read(node)
}

func (s *storeImpl) DelByKey(key []byte) (gptr.Gptr, gptr.TagGptr, error) {
	s.metrics.Inc(metrics.CounterDel)
	return s.delByKey(key)
}

func (s *storeImpl) delByKey(key []byte) (gptr.Gptr, gptr.TagGptr, error) {
	if err := s.checkKey(key); err != nil {
		return gptr.Null, gptr.TagGptr{}, err
	}
	keyPtr, ok := s.root.Index.Lookup(key)
	if !ok {
		return gptr.Null, gptr.TagGptr{}, nil
	}
	node, err := s.keyNode(keyPtr)
	if err != nil {
		return gptr.Null, gptr.TagGptr{}, err
	}
	return keyPtr, s.swap(node, gptr.Null), nil
}

func (s *storeImpl) DelByHandle(keyPtr gptr.Gptr) (gptr.TagGptr, error) {
	s.metrics.Inc(metrics.CounterDel)
	node, err := s.keyNode(keyPtr)
	if err != nil {
		return gptr.TagGptr{}, err
	}
	return s.swap(node, gptr.Null), nil
}

func (s *storeImpl) Maintenance() {
	s.metrics.Inc(metrics.CounterMaintenance)
	freed := s.heap.Maintenance()
	s.metrics.Update(metrics.HistogramReclaimed, int64(freed))
}

func (s *storeImpl) Location() gptr.Gptr {
	return s.location
}

func (s *storeImpl) MaxKeyLen() int {
	return s.root.Index.MaxKeyLen()
}

func (s *storeImpl) MaxValLen() int {
	return s.root.MaxValLen
}

func (s *storeImpl) ReportMetrics() {
	if err := s.metrics.Report(); err != nil {
		plog.Errorf("report metrics: %v", err)
	}
}

func (s *storeImpl) Info() Info {
	return Info{
		Type:      s.typ,
		Location:  s.location.String(),
		MaxKeyLen: s.MaxKeyLen(),
		MaxValLen: s.MaxValLen(),
		Index:     s.root.Index.GetInfo(),
		Heap:      s.heap.Stats(),
		Iterators: s.iterators.Size(),
	}
}

func (s *storeImpl) Close() error {
	s.iterators.Clear()
	return nil
}
