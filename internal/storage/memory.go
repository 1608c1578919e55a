package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// MemorySessionStorage - реализация SessionStorage в памяти процесса.
// Используется в тестах
type MemorySessionStorage struct {
	mu   sync.RWMutex
	data map[string]map[string][]byte
}

var _ SessionStorage = (*MemorySessionStorage)(nil)

func NewMemorySessionStorage() *MemorySessionStorage {
	return &MemorySessionStorage{data: make(map[string]map[string][]byte)}
}

func (m *MemorySessionStorage) Get(_ context.Context, sessionID, key string, dst any) error {
	if sessionID == "" {
		return ErrInvalidSession
	}
	m.mu.RLock()
	raw, ok := m.data[sessionID][key]
	m.mu.RUnlock()
	if !ok {
		return ErrKeyNotFound
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("failed to decode %q: %w", key, err)
	}
	return nil
}

func (m *MemorySessionStorage) Set(_ context.Context, sessionID, key string, value any) error {
	if sessionID == "" {
		return ErrInvalidSession
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode %q: %w", key, err)
	}
	m.SetRaw(sessionID, key, raw)
	return nil
}

// SetRaw кладёт значение как есть, без сериализации
func (m *MemorySessionStorage) SetRaw(sessionID, key string, raw []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data[sessionID] == nil {
		m.data[sessionID] = make(map[string][]byte)
	}
	m.data[sessionID][key] = raw
}

func (m *MemorySessionStorage) Delete(_ context.Context, sessionID, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data[sessionID], key)
	return nil
}

func (m *MemorySessionStorage) DeleteAll(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, sessionID)
	return nil
}
