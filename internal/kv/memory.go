package kv

import (
	"context"
	"sync"
	"time"
)

// Memory is an in-process Storage, used by tests and ephemeral runs
type Memory struct {
	mu      sync.Mutex
	entries map[string]Entry
	seq     int64
}

// NewMemory returns an empty in-memory store
func NewMemory() *Memory {
	return &Memory{entries: make(map[string]Entry)}
}

func (m *Memory) Get(_ context.Context, key string) (Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[key]
	if !ok {
		return Entry{}, ErrNotFound
	}
	e.Value = append([]byte(nil), e.Value...)
	return e, nil
}

func (m *Memory) Put(_ context.Context, key string, value []byte) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.write(key, value), nil
}

func (m *Memory) CompareAndSwap(_ context.Context, key string, value []byte, rev int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.revision(key) != rev {
		return 0, ErrConflict
	}
	return m.write(key, value), nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
	return nil
}

func (m *Memory) CompareAndDelete(_ context.Context, key string, rev int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.revision(key) != rev {
		return ErrConflict
	}
	delete(m.entries, key)
	return nil
}

func (m *Memory) Close() error { return nil }

func (m *Memory) revision(key string) int64 {
	if e, ok := m.entries[key]; ok {
		return e.Revision
	}
	return 0
}

func (m *Memory) write(key string, value []byte) int64 {
	m.seq++
	m.entries[key] = Entry{
		Key:       key,
		Value:     append([]byte(nil), value...),
		Revision:  m.seq,
		UpdatedAt: time.Now(),
	}
	return m.seq
}
