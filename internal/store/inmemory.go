package store

import (
	"context"
	"sync"
)

// InMemoryPersister keeps state in process memory. Used when no storage
// backend is configured, and by tests.
type InMemoryPersister struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewInMemoryPersister() *InMemoryPersister {
	return &InMemoryPersister{data: make(map[string][]byte)}
}

func (p *InMemoryPersister) Save(_ context.Context, namespace string, data []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	cp := make([]byte, len(data))
	copy(cp, data)
	p.data[namespace] = cp
	return nil
}

func (p *InMemoryPersister) Load(_ context.Context, namespace string) ([]byte, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	data, ok := p.data[namespace]
	if !ok {
		return nil, ErrNoState
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	return cp, nil
}

func (p *InMemoryPersister) Close() error { return nil }
