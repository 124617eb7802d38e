package store

import (
	"sync"
)

// InmemStore implements the Store interface with a map. It forgets everything
// when the process exits.
type InmemStore struct {
	l      sync.RWMutex
	values map[string][]byte
	closed bool
}

// NewInmemStore returns an empty InmemStore.
func NewInmemStore() *InmemStore {
	return &InmemStore{
		values: make(map[string][]byte),
	}
}

// Get implements the Store interface.
func (s *InmemStore) Get(name string) ([]byte, error) {
	s.l.RLock()
	defer s.l.RUnlock()

	if s.closed {
		return nil, newError("get", name, Closed)
	}

	data, ok := s.values[name]
	if !ok {
		return nil, newError("get", name, KeyNotFound)
	}

	return append([]byte{}, data...), nil
}

// Put implements the Store interface.
func (s *InmemStore) Put(name string, data []byte) error {
	s.l.Lock()
	defer s.l.Unlock()

	if s.closed {
		return newError("put", name, Closed)
	}

	if _, ok := s.values[name]; ok {
		return newError("put", name, KeyAlreadyExists)
	}

	s.values[name] = append([]byte{}, data...)

	return nil
}

// Post implements the Store interface.
func (s *InmemStore) Post(name string, data []byte) error {
	s.l.Lock()
	defer s.l.Unlock()

	if s.closed {
		return newError("post", name, Closed)
	}

	if _, ok := s.values[name]; !ok {
		return newError("post", name, KeyNotFound)
	}

	s.values[name] = append([]byte{}, data...)

	return nil
}

// Delete implements the Store interface.
func (s *InmemStore) Delete(name string) error {
	s.l.Lock()
	defer s.l.Unlock()

	if s.closed {
		return newError("delete", name, Closed)
	}

	if _, ok := s.values[name]; !ok {
		return newError("delete", name, KeyNotFound)
	}

	delete(s.values, name)

	return nil
}

// Len implements the Store interface.
func (s *InmemStore) Len() (int, error) {
	s.l.RLock()
	defer s.l.RUnlock()

	if s.closed {
		return 0, newError("len", "", Closed)
	}

	return len(s.values), nil
}

// Close implements the Store interface.
func (s *InmemStore) Close() error {
	s.l.Lock()
	defer s.l.Unlock()

	s.closed = true
	s.values = nil

	return nil
}
