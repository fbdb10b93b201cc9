// internal/runutil/lru_set.go
package runutil

// DefaultSeenCapacity bounds Seen when no capacity is given.
const DefaultSeenCapacity = 1 << 18

// Seen is a bounded set of recently answered keys. Keys live in two
// generations of at most capacity/2 each; when the current generation
// fills, the previous one is forgotten. A key found in the previous
// generation is carried into the current one.
type Seen[K comparable] struct {
	half      int
	cur, prev map[K]struct{}
}

func NewSeen[K comparable](capacity int) *Seen[K] {
	if capacity <= 0 {
		capacity = DefaultSeenCapacity
	}
	half := max(capacity/2, 1)
	return &Seen[K]{half: half, cur: make(map[K]struct{}, half), prev: map[K]struct{}{}}
}

// Add records k and reports whether it was already remembered.
func (s *Seen[K]) Add(k K) bool {
	if _, ok := s.cur[k]; ok {
		return true
	}
	_, old := s.prev[k]
	if len(s.cur) >= s.half {
		s.prev, s.cur = s.cur, make(map[K]struct{}, s.half)
	}
	s.cur[k] = struct{}{}
	return old
}

// Len is the number of keys remembered.
func (s *Seen[K]) Len() int {
	n := len(s.cur)
	for k := range s.prev {
		if _, ok := s.cur[k]; !ok {
			n++
		}
	}
	return n
}
