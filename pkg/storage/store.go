// ABOUTME: Key/value text store used to persist serialized collections
// ABOUTME: Defines the Store contract and the volatile in-memory backend

package storage

import (
	"context"
	"errors"
	"sync"
)

// ErrNotFound is returned by helpers when an id has no stored text
var ErrNotFound = errors.New("storage: not found")

// Store persists serialized collections under an id
type Store interface {
	// Get returns the text stored under id; ok is false when id is absent
	Get(ctx context.Context, id string) (text string, ok bool, err error)
	// Set stores text under id, replacing any previous value
	Set(ctx context.Context, id string, text string) error
}

// Closer is implemented by backends holding open resources
type Closer interface {
	Close() error
}

// Close releases s if it holds resources
func Close(s Store) error {
	if c, ok := s.(Closer); ok {
		return c.Close()
	}
	return nil
}

// Memory is a volatile store kept in process memory
type Memory struct {
	mu    sync.RWMutex
	items map[string]string
}

// NewMemory creates an empty in-memory store
func NewMemory() *Memory {
	return &Memory{items: make(map[string]string)}
}

func (m *Memory) Get(ctx context.Context, id string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	text, ok := m.items[id]
	return text, ok, nil
}

func (m *Memory) Set(ctx context.Context, id string, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[id] = text
	return nil
}

// Len returns the number of stored ids
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items)
}
