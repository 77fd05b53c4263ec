package enforcement

// TrackStore holds per-track detector state keyed by tracker ID.
// Entries live until Clear; an implementation may add expiry without
// detector changes.
type TrackStore[T any] interface {
	Get(trackID int) (T, bool)
	Put(trackID int, v T)
	Delete(trackID int)
	Clear()
	Len() int
}

// MapStore is the default unbounded TrackStore. It is not safe for
// concurrent use; each feed owns its own detectors.
type MapStore[T any] struct {
	items map[int]T
}

func NewMapStore[T any]() *MapStore[T] {
	return &MapStore[T]{items: make(map[int]T)}
}

func (s *MapStore[T]) Get(trackID int) (T, bool) {
	v, ok := s.items[trackID]
	return v, ok
}

func (s *MapStore[T]) Put(trackID int, v T) { s.items[trackID] = v }

func (s *MapStore[T]) Delete(trackID int) { delete(s.items, trackID) }

func (s *MapStore[T]) Clear() { clear(s.items) }

func (s *MapStore[T]) Len() int { return len(s.items) }
