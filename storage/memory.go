package storage

import (
	"context"
	"slices"
	"sync"
)

// MemoryStore 内存存档存储
type MemoryStore struct {
	slots map[string][]byte
	mu    sync.RWMutex
}

// NewMemoryStore 创建内存存储
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		slots: make(map[string][]byte),
	}
}

// Put 写入存档槽
func (s *MemoryStore) Put(ctx context.Context, key string, data []byte) error {
	key, err := normalizeKey(key)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.slots[key] = slices.Clone(data)
	return nil
}

// Get 读取存档槽
func (s *MemoryStore) Get(ctx context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, exists := s.slots[key]
	if !exists {
		return nil, ErrSlotNotFound
	}
	return slices.Clone(data), nil
}

// Keys 列出存档槽，按名称排序
func (s *MemoryStore) Keys(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.slots))
	for key := range s.slots {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	return keys, nil
}

// Delete 删除存档槽
func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.slots[key]; !exists {
		return ErrSlotNotFound
	}
	delete(s.slots, key)
	return nil
}

// Close 内存存储无需关闭
func (s *MemoryStore) Close() error {
	return nil
}
