package payment

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewOrder(t *testing.T) {
	order, err := NewOrder(99.99, "usd")
	assert.NoError(t, err, "创建订单应该成功")
	assert.NotEmpty(t, order.OrderCode, "订单号应该被生成")
	assert.Equal(t, "USD", order.Currency, "货币代码应该被归一化为大写")
	assert.Equal(t, StatusPending, order.Status, "新订单应该处于pending状态")

	other, err := NewOrder(1, "USD")
	assert.NoError(t, err)
	assert.NotEqual(t, order.OrderCode, other.OrderCode, "订单号应该全局唯一")
}

func TestNewOrder_Invalid(t *testing.T) {
	_, err := NewOrder(0, "USD")
	assert.Error(t, err, "零金额应该被拒绝")

	_, err = NewOrder(-5, "USD")
	assert.Error(t, err, "负金额应该被拒绝")

	_, err = NewOrder(10, "ZZZ")
	assert.Error(t, err, "非法货币代码应该被拒绝")
}

func TestOrderStatus_Terminal(t *testing.T) {
	assert.False(t, StatusPending.Terminal(), "pending不是终态")
	assert.False(t, StatusProcessing.Terminal(), "processing不是终态")
	assert.True(t, StatusSucceeded.Terminal(), "succeeded是终态")
	assert.True(t, StatusFailed.Terminal(), "failed是终态")
	assert.True(t, StatusRefunded.Terminal(), "refunded是终态")
}

func TestCanTransition(t *testing.T) {
	// 允许的流转
	allowed := []struct{ from, to OrderStatus }{
		{StatusPending, StatusProcessing},
		{StatusProcessing, StatusSucceeded},
		{StatusProcessing, StatusFailed},
		{StatusFailed, StatusSucceeded},
		{StatusSucceeded, StatusRefunded},
	}
	for _, tc := range allowed {
		assert.True(t, CanTransition(tc.from, tc.to), "%s -> %s 应该被允许", tc.from, tc.to)
	}

	// 禁止的流转
	denied := []struct{ from, to OrderStatus }{
		{StatusPending, StatusSucceeded},
		{StatusPending, StatusFailed},
		{StatusSucceeded, StatusFailed},
		{StatusSucceeded, StatusProcessing},
		{StatusFailed, StatusRefunded},
		{StatusFailed, StatusProcessing},
		{StatusRefunded, StatusSucceeded},
		{StatusProcessing, StatusPending},
	}
	for _, tc := range denied {
		assert.False(t, CanTransition(tc.from, tc.to), "%s -> %s 应该被拒绝", tc.from, tc.to)
	}
}
