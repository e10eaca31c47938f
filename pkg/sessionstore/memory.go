package sessionstore

import (
	"context"
	"iter"
	"sort"
	"sync"
)

// Memory is an in-memory Store implementation backed by a map. It is safe
// for concurrent use and intended primarily for testing.
type Memory struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemory creates a new in-memory Store.
func NewMemory() *Memory {
	return &Memory{data: make(map[string][]byte)}
}

func (m *Memory) Put(_ context.Context, s *Session) error {
	stamp(s)
	val, err := encode(s)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.data[s.ID] = val
	m.mu.Unlock()
	return nil
}

func (m *Memory) Get(_ context.Context, id string) (*Session, error) {
	m.mu.RLock()
	val, ok := m.data[id]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return decode(val)
}

func (m *Memory) List(_ context.Context) iter.Seq2[*Session, error] {
	m.mu.RLock()
	ids := make([]string, 0, len(m.data))
	for id := range m.data {
		ids = append(ids, id)
	}
	vals := make(map[string][]byte, len(m.data))
	for id, v := range m.data {
		vals[id] = v
	}
	m.mu.RUnlock()
	sort.Strings(ids)

	return func(yield func(*Session, error) bool) {
		for _, id := range ids {
			s, err := decode(vals[id])
			if !yield(s, err) {
				return
			}
		}
	}
}

func (m *Memory) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	delete(m.data, id)
	m.mu.Unlock()
	return nil
}

func (m *Memory) Close() error { return nil }
