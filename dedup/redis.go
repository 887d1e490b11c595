package dedup

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore 基于Redis的去重存储，多实例部署时共享判定
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// RedisOptions Redis去重存储配置
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
	TTL      time.Duration
}

// NewRedisStore 创建Redis去重存储
func NewRedisStore(opts RedisOptions) *RedisStore {
	if opts.Prefix == "" {
		opts.Prefix = "paygate:txn:"
	}
	if opts.TTL <= 0 {
		opts.TTL = 24 * time.Hour
	}
	return &RedisStore{
		client: redis.NewClient(&redis.Options{
			Addr:     opts.Addr,
			Password: opts.Password,
			DB:       opts.DB,
		}),
		prefix: opts.Prefix,
		ttl:    opts.TTL,
	}
}

// Seen 实现payment.Deduplicator接口
func (s *RedisStore) Seen(ctx context.Context, transactionID string) (bool, error) {
	n, err := s.client.Exists(ctx, s.prefix+transactionID).Result()
	if err != nil {
		return false, fmt.Errorf("去重查询失败: %w", err)
	}
	return n > 0, nil
}

// Mark 实现payment.Deduplicator接口
func (s *RedisStore) Mark(ctx context.Context, transactionID string) error {
	if err := s.client.Set(ctx, s.prefix+transactionID, 1, s.ttl).Err(); err != nil {
		return fmt.Errorf("去重标记失败: %w", err)
	}
	return nil
}

// Close 关闭Redis连接
func (s *RedisStore) Close() error {
	return s.client.Close()
}
