package repo

import (
	"context"
	"sync"
)

// MemorySlots хранит слоты в памяти процесса; используется по умолчанию и в тестах
type MemorySlots struct {
	mu sync.RWMutex
	m  map[string]string
}

func NewMemorySlots() *MemorySlots {
	return &MemorySlots{m: make(map[string]string)}
}

func (s *MemorySlots) Get(ctx context.Context, key string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.m[key]
	if !ok {
		return "", ErrorNotFound
	}
	return v, nil
}

func (s *MemorySlots) Set(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[key] = value
	return nil
}

func (s *MemorySlots) Close() error { return nil }
