package state

import "sync"

// MemStore is an in-memory Store for tests and dry runs.
type MemStore struct {
	mu      sync.RWMutex
	markers map[Marker]bool
	install InstallState
}

var _ Store = (*MemStore)(nil)

// NewMemStore returns an empty MemStore.
func NewMemStore() *MemStore {
	return &MemStore{markers: make(map[Marker]bool)}
}

// Get implements Store.
func (s *MemStore) Get(m Marker) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.markers[m], nil
}

// Set implements Store.
func (s *MemStore) Set(m Marker) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.markers[m] = true
	return nil
}

// Consume implements Store.
func (s *MemStore) Consume(m Marker, action func() error) (bool, error) {
	return consume(
		func() (bool, error) { return s.Get(m) },
		action,
		func() error {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(s.markers, m)
			return nil
		},
	)
}

// Load implements Store.
func (s *MemStore) Load() (InstallState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.install, nil
}

// Save implements Store.
func (s *MemStore) Save(st InstallState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.install = st
	return nil
}

// Clear implements Store.
func (s *MemStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.markers = make(map[Marker]bool)
	s.install = InstallState{}
	return nil
}
