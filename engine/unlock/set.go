package unlock

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-stage/engine/catalog"
)

// Set is the in-memory unlocked-avatar list. Ids are only ever added.
type Set struct {
	mu    *sync.Mutex
	ids   map[string]struct{}
	order []string
}

// NewSet creates a Set holding ids.
func NewSet(ids ...string) *Set {
	s := &Set{mu: &sync.Mutex{}, ids: make(map[string]struct{})}
	for _, id := range ids {
		s.Add(id)
	}
	return s
}

// Has reports whether id is unlocked.
func (s *Set) Has(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.ids[id]
	return ok
}

// Add marks id as unlocked.
//
// Returns:
//   - bool: true if id was not already present
func (s *Set) Add(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.ids[id]; ok || id == "" {
		return false
	}
	s.ids[id] = struct{}{}
	s.order = append(s.order, id)
	return true
}

// IDs returns the unlocked ids in the order they were added.
func (s *Set) IDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Len returns the number of unlocked ids.
func (s *Set) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.order)
}

// Selectable reports whether d can be equipped: free characters always can,
// premium ones only once unlocked.
func (s *Set) Selectable(d catalog.Descriptor) bool {
	return !d.IsPremium || s.Has(d.ID)
}
