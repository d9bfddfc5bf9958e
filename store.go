package goCooldown

import (
	"context"
	"sync"
	"sync/atomic"
)

// MemoryStore is an in-process TimestampStore. It never fails and is the
// default store when none is injected, which yields session-only cooldown
// tracking. Safe for concurrent use.
type MemoryStore struct {
	mu     sync.Mutex
	values map[string]string
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

// Get returns the stored value, or "" when the key is absent.
func (m *MemoryStore) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.values[key], nil
}

// Set stores the value.
func (m *MemoryStore) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

// Remove deletes the key. Removing an absent key is not an error.
func (m *MemoryStore) Remove(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}

// failSoftStore wraps the injected TimestampStore with the never-throws
// contract the governor relies on: every underlying failure is reported
// through onFailure, mirrored state keeps the current session coherent,
// and the caller sees ok=false instead of an error. A failed write must
// never block the action itself.
type failSoftStore struct {
	underlying TimestampStore
	mirror     map[string]string
	mu         sync.Mutex
	degraded   atomic.Bool
	onFailure  func(op string, err error)
}

func newFailSoftStore(underlying TimestampStore, onFailure func(op string, err error)) *failSoftStore {
	return &failSoftStore{
		underlying: underlying,
		mirror:     make(map[string]string),
		onFailure:  onFailure,
	}
}

func (s *failSoftStore) fail(op string, err error) {
	s.degraded.Store(true)
	if s.onFailure != nil {
		s.onFailure(op, err)
	}
}

// get returns the durable value when the store is healthy, otherwise the
// session mirror. ok is false only when the key is absent everywhere.
func (s *failSoftStore) get(ctx context.Context, key string) (string, bool) {
	value, err := s.underlying.Get(ctx, key)
	if err != nil {
		s.fail("get", err)
		s.mu.Lock()
		defer s.mu.Unlock()
		value, present := s.mirror[key]
		return value, present
	}
	if value == "" {
		return "", false
	}
	return value, true
}

// set writes to both the mirror and the durable store. It reports whether
// the write was durably recorded; a false return means session-only.
func (s *failSoftStore) set(ctx context.Context, key, value string) bool {
	s.mu.Lock()
	s.mirror[key] = value
	s.mu.Unlock()

	if err := s.underlying.Set(ctx, key, value); err != nil {
		s.fail("set", err)
		return false
	}
	return true
}

func (s *failSoftStore) remove(ctx context.Context, key string) bool {
	s.mu.Lock()
	delete(s.mirror, key)
	s.mu.Unlock()

	if err := s.underlying.Remove(ctx, key); err != nil {
		s.fail("remove", err)
		return false
	}
	return true
}

// Degraded reports whether any underlying store call has failed.
func (s *failSoftStore) Degraded() bool {
	return s.degraded.Load()
}
