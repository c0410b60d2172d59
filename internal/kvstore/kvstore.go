package kvstore

import (
	"context"
	"sync"
)

const (
	KeySessions = "kissan-sessions"
	KeyUser     = "kissan-user"
	KeyTheme    = "kissan-theme"
	// KeySpeechPrefix namespaces cached speech payloads.
	KeySpeechPrefix = "kissan-tts:"
)

// Store is the persistent key-value store. Get reports ok=false for an
// absent key without an error.
type Store interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

type Memory struct {
	mu    sync.RWMutex
	items map[string]string
}

func NewMemory() *Memory {
	return &Memory{items: make(map[string]string)}
}

func (m *Memory) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.items[key]
	return v, ok, nil
}

func (m *Memory) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[key] = value
	return nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, key)
	return nil
}
