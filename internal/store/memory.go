package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/serroba/link-registry/internal/registry"
	"go.uber.org/zap"
)

// MemoryStore is an in-memory implementation of registry.Store.
// It keeps the serialized blob rather than live entries, like a browser key-value store.
type MemoryStore struct {
	mu     sync.RWMutex
	data   []byte
	quota  int // max blob size in bytes, 0 for unlimited
	logger *zap.Logger
}

// MemoryOption configures a MemoryStore.
type MemoryOption func(*MemoryStore)

// WithQuota rejects writes whose serialized size exceeds limit bytes.
func WithQuota(limit int) MemoryOption {
	return func(m *MemoryStore) {
		m.quota = limit
	}
}

// WithData seeds the store with a raw persisted payload.
func WithData(data []byte) MemoryOption {
	return func(m *MemoryStore) {
		m.data = append([]byte(nil), data...)
	}
}

// NewMemoryStore creates a new in-memory entry store.
func NewMemoryStore(logger *zap.Logger, opts ...MemoryOption) *MemoryStore {
	m := &MemoryStore{logger: logger}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

func (m *MemoryStore) Load(_ context.Context) ([]registry.Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return decodeOrEmpty(m.data, m.logger, "memory"), nil
}

func (m *MemoryStore) Save(_ context.Context, entries []registry.Entry) error {
	data, err := registry.EncodeEntries(entries)
	if err != nil {
		return registry.WriteFailed(err)
	}

	if m.quota > 0 && len(data) > m.quota {
		return registry.WriteFailed(fmt.Errorf("quota exceeded: %d > %d bytes", len(data), m.quota))
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.data = data

	return nil
}

// Bytes returns a copy of the persisted payload.
func (m *MemoryStore) Bytes() []byte {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return append([]byte(nil), m.data...)
}

var _ registry.Store = (*MemoryStore)(nil)
