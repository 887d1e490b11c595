package store

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zzliekkas/paygate/payment"
)

func newOrder(t *testing.T, s *MemoryStore) *payment.Order {
	t.Helper()
	order, err := payment.NewOrder(10, "USD")
	require.NoError(t, err)
	require.NoError(t, s.CreateOrder(context.Background(), order))
	return order
}

func TestMemoryStore_CreateAndLoad(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	order := newOrder(t, s)

	got, err := s.OrderByCode(ctx, order.OrderCode)
	require.NoError(t, err)
	assert.Equal(t, order.OrderCode, got.OrderCode)
	assert.Equal(t, payment.StatusPending, got.Status)

	// 返回的是副本，调用方修改不影响存储
	got.Status = payment.StatusSucceeded
	again, err := s.OrderByCode(ctx, order.OrderCode)
	require.NoError(t, err)
	assert.Equal(t, payment.StatusPending, again.Status, "读取应该返回副本")

	_, err = s.OrderByCode(ctx, "missing")
	assert.ErrorIs(t, err, payment.ErrOrderNotFound)
}

func TestMemoryStore_DuplicateOrderCode(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	order := newOrder(t, s)
	err := s.CreateOrder(ctx, &payment.Order{OrderCode: order.OrderCode, Amount: 1, Currency: "USD"})
	assert.ErrorIs(t, err, payment.ErrDuplicateOrderCode, "重复订单号应该被拒绝")
}

func TestMemoryStore_TransitionOrder(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	order := newOrder(t, s)

	err := s.TransitionOrder(ctx, order.OrderCode, payment.StatusPending, payment.StatusProcessing, payment.Transition{
		FromStatus: payment.StatusPending,
		ToStatus:   payment.StatusProcessing,
		MethodKey:  "td",
	})
	require.NoError(t, err)

	got, err := s.OrderByCode(ctx, order.OrderCode)
	require.NoError(t, err)
	assert.Equal(t, payment.StatusProcessing, got.Status)
	assert.Equal(t, "td", got.MethodKey, "流转携带的方式key应该写回订单")

	// 条件未命中
	err = s.TransitionOrder(ctx, order.OrderCode, payment.StatusPending, payment.StatusProcessing, payment.Transition{})
	assert.ErrorIs(t, err, payment.ErrStatusConflict, "from条件未命中应该返回状态冲突")

	err = s.TransitionOrder(ctx, "missing", payment.StatusPending, payment.StatusProcessing, payment.Transition{})
	assert.ErrorIs(t, err, payment.ErrOrderNotFound)

	transitions, err := s.Transitions(ctx, order.OrderCode)
	require.NoError(t, err)
	assert.Len(t, transitions, 1, "只有命中的条件更新才写流转记录")
}

func TestMemoryStore_ConcurrentTransitionSingleWinner(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	order := newOrder(t, s)
	require.NoError(t, s.TransitionOrder(ctx, order.OrderCode, payment.StatusPending, payment.StatusProcessing, payment.Transition{
		FromStatus: payment.StatusPending, ToStatus: payment.StatusProcessing,
	}))

	// 并发条件更新只能有一个赢家
	const n = 32
	var wg sync.WaitGroup
	var mu sync.Mutex
	winners := 0
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.TransitionOrder(ctx, order.OrderCode, payment.StatusProcessing, payment.StatusSucceeded, payment.Transition{
				FromStatus: payment.StatusProcessing, ToStatus: payment.StatusSucceeded,
			})
			if err == nil {
				mu.Lock()
				winners++
				mu.Unlock()
			} else {
				assert.ErrorIs(t, err, payment.ErrStatusConflict)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, winners, "条件更新应该恰好命中一次")

	got, err := s.OrderByCode(ctx, order.OrderCode)
	require.NoError(t, err)
	assert.Equal(t, payment.StatusSucceeded, got.Status)
}

func TestMemoryStore_Methods(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.SaveMethod(ctx, &payment.Method{Key: "b", PluginKey: "offline", Enabled: true, SortOrder: 2}))
	require.NoError(t, s.SaveMethod(ctx, &payment.Method{Key: "a", PluginKey: "offline", Enabled: true, SortOrder: 1}))
	require.NoError(t, s.SaveMethod(ctx, &payment.Method{Key: "c", PluginKey: "offline", Enabled: false, SortOrder: 0}))

	enabled, err := s.EnabledMethods(ctx)
	require.NoError(t, err)
	require.Len(t, enabled, 2, "停用的支付方式不应该出现在启用列表")
	assert.Equal(t, "a", enabled[0].Key, "支付方式应该按sort_order排序")
	assert.Equal(t, "b", enabled[1].Key)

	all, err := s.Methods(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	_, err = s.MethodByKey(ctx, "missing")
	assert.ErrorIs(t, err, payment.ErrMethodNotFound)

	// 重复保存同key是更新
	require.NoError(t, s.SaveMethod(ctx, &payment.Method{Key: "a", PluginKey: "offline", DisplayName: "改名", Enabled: true, SortOrder: 1}))
	m, err := s.MethodByKey(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "改名", m.DisplayName)
}
