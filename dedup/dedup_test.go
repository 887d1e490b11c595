package dedup

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_SeenAndMark(t *testing.T) {
	s := NewMemoryStore(time.Minute)
	ctx := context.Background()

	seen, err := s.Seen(ctx, "tx-1")
	require.NoError(t, err)
	assert.False(t, seen, "未标记的交易号不应该被报告为重复")

	// 查询不产生标记
	seen, err = s.Seen(ctx, "tx-1")
	require.NoError(t, err)
	assert.False(t, seen, "Seen本身不应该落下标记")

	require.NoError(t, s.Mark(ctx, "tx-1"))

	seen, err = s.Seen(ctx, "tx-1")
	require.NoError(t, err)
	assert.True(t, seen, "标记后的交易号应该被报告为重复")

	seen, err = s.Seen(ctx, "tx-2")
	require.NoError(t, err)
	assert.False(t, seen, "不同的交易号互不影响")
}

func TestMemoryStore_TTLExpiry(t *testing.T) {
	s := NewMemoryStore(10 * time.Millisecond)
	ctx := context.Background()

	require.NoError(t, s.Mark(ctx, "tx-1"))

	time.Sleep(20 * time.Millisecond)

	seen, err := s.Seen(ctx, "tx-1")
	require.NoError(t, err)
	assert.False(t, seen, "过期后的标记应该被清理")
}

func TestMemoryStore_ConcurrentMark(t *testing.T) {
	s := NewMemoryStore(time.Minute)
	ctx := context.Background()

	const n = 32
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, s.Mark(ctx, "tx-race"))
		}()
	}
	wg.Wait()

	seen, err := s.Seen(ctx, "tx-race")
	require.NoError(t, err)
	assert.True(t, seen, "并发标记后的交易号应该稳定报告为重复")
}
