// Package preferences keeps per-user client preferences, currently the
// region most recently used to create a room.
package preferences

import "sync"

type Store struct {
	mu       sync.RWMutex
	region   string
	onChange func()
}

func NewStore(defaultRegion string) *Store {
	return &Store{region: defaultRegion}
}

// OnChange registers a hook invoked after every preference write, e.g. to
// persist preferences to disk.
func (s *Store) OnChange(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onChange = fn
}

func (s *Store) SetRegion(region string) {
	if region == "" {
		return
	}

	s.mu.Lock()
	s.region = region
	fn := s.onChange
	s.mu.Unlock()

	if fn != nil {
		fn()
	}
}

func (s *Store) Region() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.region
}
