package cache

import (
	"context"
	"sync"

	"github.com/JoeShih716/go-mem-account/internal/app/core/domain"
	"github.com/JoeShih716/go-mem-account/internal/app/core/usecase"
)

// MemoryCache 存在記憶體中的快取，不過期 (未啟用 Redis 時使用)
type MemoryCache struct {
	mu   sync.RWMutex
	data map[string]domain.Quote
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		data: make(map[string]domain.Quote),
	}
}

func (m *MemoryCache) Get(_ context.Context, key string) (domain.Quote, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	q, ok := m.data[key]
	return q, ok
}

func (m *MemoryCache) Set(_ context.Context, key string, quote domain.Quote) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = quote
	return nil
}

// Len 快取筆數
func (m *MemoryCache) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data)
}

var _ usecase.QuoteCache = (*MemoryCache)(nil)
