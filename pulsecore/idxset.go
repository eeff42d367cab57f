package pulsecore

import (
	"maps"
	"slices"
)

// IdxSet stores values under monotonically increasing indices, which are
// never reused.
type IdxSet[T any] struct {
	items map[uint32]T
	next  uint32
}

func NewIdxSet[T any]() *IdxSet[T] {
	return &IdxSet[T]{items: make(map[uint32]T)}
}

// Put stores v, returning its index.
func (s *IdxSet[T]) Put(v T) uint32 {
	idx := s.next
	s.next++
	s.items[idx] = v
	return idx
}

func (s *IdxSet[T]) Get(idx uint32) (T, bool) {
	v, ok := s.items[idx]
	return v, ok
}

func (s *IdxSet[T]) Remove(idx uint32) (T, bool) {
	v, ok := s.items[idx]
	if ok {
		delete(s.items, idx)
	}
	return v, ok
}

func (s *IdxSet[T]) Len() int { return len(s.items) }

// Each calls fn in index order until it returns false. fn may remove
// entries.
func (s *IdxSet[T]) Each(fn func(idx uint32, v T) bool) {
	for _, idx := range slices.Sorted(maps.Keys(s.items)) {
		v, ok := s.items[idx]
		if !ok {
			continue
		}
		if !fn(idx, v) {
			return
		}
	}
}

// First returns the entry with the lowest index.
func (s *IdxSet[T]) First() (idx uint32, v T, ok bool) {
	s.Each(func(i uint32, x T) bool {
		idx, v, ok = i, x, true
		return false
	})
	return
}
