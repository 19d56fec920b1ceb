package kvs

import (
	"bytes"

	"github.com/ValentinKolb/fKV/lib/index"
	"github.com/ValentinKolb/fKV/lib/metrics"
)

// iterator is the process-local state of a scan. It is owned by the caller
// that opened it, GetNext must not be called concurrently on one handle.
type iterator struct {
	cursor index.Cursor

	begin     []byte // nil = unbounded
	beginIncl bool
	end       []byte // nil = unbounded
	endIncl   bool
}

// pastEnd checks key against the upper bound. The cursor starts at the lower
// bound so only an excluded begin key has to be filtered on that side.
func (it *iterator) pastEnd(key []byte) bool {
	if it.end == nil {
		return false
	}
	c := bytes.Compare(key, it.end)
	return c > 0 || (c == 0 && !it.endIncl)
}

// next returns the next live entry, skipping deleted keys
func (it *iterator) next(s *storeImpl) ([]byte, []byte, bool, error) {
	for {
		key, keyPtr, ok := it.cursor.Next()
		if !ok {
			return nil, nil, false, nil
		}
		if it.begin != nil && !it.beginIncl && bytes.Equal(key, it.begin) {
			continue
		}
		if it.pastEnd(key) {
			return nil, nil, false, nil
		}

		node, err := s.keyNode(keyPtr)
		if err != nil {
			return nil, nil, false, err
		}
		valPtr, val, err := s.read(node)
		if err != nil {
			return nil, nil, false, err
		}
		if valPtr.IsNull() {
			continue
		}
		return key, val, true, nil
	}
}

// ordered returns the index as an ordered index, or an unsupported
// operation error when the store type has no key order.
func (s *storeImpl) ordered() (index.Ordered, error) {
	ordered, ok := s.root.Index.(index.Ordered)
	if !ok || !s.root.Index.SupportsFeature(index.FeatureOrdered) {
		return nil, errorf(RetCUnsupportedOperation, "range scans are not supported by %s", s.typ)
	}
	return ordered, nil
}

func (s *storeImpl) Scan(begin []byte, beginIncl bool, end []byte, endIncl bool) (int, []byte, []byte, error) {
	s.metrics.Inc(metrics.CounterScan)

	ordered, err := s.ordered()
	if err != nil {
		return 0, nil, nil, err
	}

	it := &iterator{beginIncl: beginIncl, endIncl: endIncl}
	if !IsOpenBoundary(begin) {
		it.begin = append([]byte{}, begin...)
	}
	if !IsOpenBoundary(end) {
		it.end = append([]byte{}, end...)
	}
	it.cursor = ordered.Seek(it.begin)

	key, val, ok, err := it.next(s)
	if err != nil {
		return 0, nil, nil, err
	}
	if !ok {
		return 0, nil, nil, ErrNoKeyInRange
	}

	handle := int(s.nextIter.Add(1))
	s.iterators.Store(handle, it)
	return handle, key, val, nil
}

func (s *storeImpl) GetNext(handle int) ([]byte, []byte, error) {
	s.metrics.Inc(metrics.CounterGetNext)

	if _, err := s.ordered(); err != nil {
		return nil, nil, err
	}
	it, ok := s.iterators.Load(handle)
	if !ok {
		return nil, nil, errorf(RetCError, "invalid iterator handle %d", handle)
	}

	key, val, ok, err := it.next(s)
	if err != nil {
		return nil, nil, err
	}
	if !ok {
		s.iterators.Delete(handle)
		return nil, nil, ErrNoNextKey
	}
	return key, val, nil
}

func (s *storeImpl) EndScan(handle int) error {
	if _, err := s.ordered(); err != nil {
		return err
	}
	if _, ok := s.iterators.LoadAndDelete(handle); !ok {
		return errorf(RetCError, "invalid iterator handle %d", handle)
	}
	return nil
}
