package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// KV is the key-value backend documents are persisted in.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Keys(ctx context.Context) ([]string, error)
}

// MemoryKV is an in-process KV. A positive quota caps the total number of
// value bytes held.
type MemoryKV struct {
	mu     sync.RWMutex
	values map[string][]byte
	size   int
	quota  int
}

var _ KV = (*MemoryKV)(nil)

// NewMemoryKV constructs an empty store. quota <= 0 disables the limit.
func NewMemoryKV(quota int) *MemoryKV {
	return &MemoryKV{values: make(map[string][]byte), quota: quota}
}

func (m *MemoryKV) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	value, ok := m.values[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), value...), true, nil
}

func (m *MemoryKV) Set(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	next := m.size - len(m.values[key]) + len(value)
	if m.quota > 0 && next > m.quota {
		return fmt.Errorf("%w: %d of %d bytes", ErrQuotaExceeded, next, m.quota)
	}
	m.values[key] = append([]byte(nil), value...)
	m.size = next
	return nil
}

func (m *MemoryKV) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.size -= len(m.values[key])
	delete(m.values, key)
	return nil
}

func (m *MemoryKV) Keys(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	keys := make([]string, 0, len(m.values))
	for key := range m.values {
		keys = append(keys, key)
	}
	m.mu.RUnlock()
	sort.Strings(keys)
	return keys, nil
}
