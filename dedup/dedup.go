// Package dedup 提供回调交易号的去重存储
//
// Seen查询交易号是否已被标记，Mark在回调被状态机接受后落下
// 标记；被拒绝的回调不标记，渠道的同号重试因此不受影响。
// 状态机的条件更新仍是幂等性的最终防线。
package dedup

import (
	"context"
	"sync"
	"time"
)

// MemoryStore 进程内去重存储，带TTL清理
type MemoryStore struct {
	ttl     time.Duration
	entries map[string]time.Time
	mu      sync.Mutex
}

// NewMemoryStore 创建内存去重存储
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &MemoryStore{
		ttl:     ttl,
		entries: make(map[string]time.Time),
	}
}

// Seen 实现payment.Deduplicator接口
func (s *MemoryStore) Seen(ctx context.Context, transactionID string) (bool, error) {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	// 顺带清理过期条目
	for id, expiry := range s.entries {
		if now.After(expiry) {
			delete(s.entries, id)
		}
	}

	_, ok := s.entries[transactionID]
	return ok, nil
}

// Mark 实现payment.Deduplicator接口
func (s *MemoryStore) Mark(ctx context.Context, transactionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[transactionID] = time.Now().Add(s.ttl)
	return nil
}
