package store

import (
	"context"
	"sync"
)

// MemoryKV is an in-process tier. Values are stored as JSON so reads never alias writes.
type MemoryKV struct {
	mu   sync.RWMutex
	data map[string][]byte

	// FailSet, when non-nil, runs before every Set. A non-nil result aborts the write.
	FailSet func(key string) error
}

// NewMemoryKV creates an empty in-memory tier.
func NewMemoryKV() *MemoryKV {
	return &MemoryKV{data: make(map[string][]byte)}
}

// Get implements KV.
func (m *MemoryKV) Get(ctx context.Context, key string, dest any) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	m.mu.RLock()
	raw, ok := m.data[key]
	m.mu.RUnlock()
	if !ok {
		return false, nil
	}
	return true, decode(key, raw, dest)
}

// Set implements KV.
func (m *MemoryKV) Set(ctx context.Context, key string, value any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if m.FailSet != nil {
		if err := m.FailSet(key); err != nil {
			return err
		}
	}
	raw, err := encode(key, value)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.data[key] = raw
	m.mu.Unlock()
	return nil
}

// Delete implements KV.
func (m *MemoryKV) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	delete(m.data, key)
	m.mu.Unlock()
	return nil
}

// Close implements KV.
func (m *MemoryKV) Close() error { return nil }
