package plugins

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zzliekkas/paygate/payment"
)

// identityCipher 测试用的直通加密器
type identityCipher struct{}

func (identityCipher) Encrypt(plaintext string) (string, error) { return plaintext, nil }
func (identityCipher) Decrypt(ciphertext string) (string, error) { return ciphertext, nil }

func testMethod(plugin payment.Plugin, values map[string]string) *payment.Method {
	m := &payment.Method{
		Key:       "test",
		PluginKey: payment.PluginKey(plugin),
		Enabled:   true,
		Values:    values,
	}
	m.Bind(plugin.ConfigurationFields(), identityCipher{})
	return m
}

func testURLs() payment.CallbackURLs {
	return payment.CallbackURLs{
		Success: "http://localhost/payment/return/success?order_code=x",
		Failure: "http://localhost/payment/return/failure?order_code=x",
		Notify:  "http://localhost/payment/notify/test_double?order_code=x",
	}
}

func TestTestDouble_ProcessPayment(t *testing.T) {
	p := NewTestDoublePlugin()
	order, err := payment.NewOrder(12.34, "USD")
	require.NoError(t, err)

	result, err := p.ProcessPayment(context.Background(), order, testMethod(p, nil), testURLs())
	require.NoError(t, err, "发起支付应该成功")
	assert.Equal(t, "test_double", result.Provider)
	assert.Empty(t, result.RedirectURL, "测试替身不产生跳转地址")
	assert.Equal(t, "12.34", result.Render["amount"], "渲染参数应该包含格式化金额")
	assert.Equal(t, order.OrderCode, result.Render["order_code"])
}

func TestTestDouble_DelayHonorsContext(t *testing.T) {
	p := NewTestDoublePlugin()
	order, err := payment.NewOrder(1, "USD")
	require.NoError(t, err)

	method := testMethod(p, map[string]string{"delay_ms": "5000"})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err = p.ProcessPayment(ctx, order, method, testURLs())
	assert.ErrorIs(t, err, context.DeadlineExceeded, "延迟应该遵循ctx超时")
	assert.Less(t, time.Since(start), time.Second, "取消后不应该等满配置的延迟")
}

func TestTestDouble_HandleCallback(t *testing.T) {
	p := NewTestDoublePlugin()
	ctx := context.Background()

	resp := p.HandleCallback(ctx, map[string]string{
		"order_code": "order-1",
		"status":     "success",
	})
	assert.True(t, resp.Success)
	assert.Equal(t, "order-1", resp.OrderCode)
	assert.True(t, strings.HasPrefix(resp.TransactionID, TestTransactionPrefix),
		"缺省交易号应该带测试前缀")

	resp = p.HandleCallback(ctx, map[string]string{
		"order_code":     "order-1",
		"status":         "failed",
		"transaction_id": "tx-given",
	})
	assert.False(t, resp.Success)
	assert.Equal(t, "tx-given", resp.TransactionID, "载荷给出的交易号应该原样保留")

	// 失败闭合
	resp = p.HandleCallback(ctx, map[string]string{"status": "success"})
	assert.Equal(t, payment.UnknownOrderCode, resp.OrderCode, "缺少order_code应该返回unknown哨兵")
	assert.False(t, resp.Success)
}

func TestTestDouble_Refund(t *testing.T) {
	p := NewTestDoublePlugin()
	order, err := payment.NewOrder(5, "USD")
	require.NoError(t, err)

	var _ payment.Refunder = p

	resp := p.Refund(context.Background(), order, testMethod(p, nil), "test-tx", "测试退款")
	assert.True(t, resp.Success)
	assert.Equal(t, order.OrderCode, resp.OrderCode)
}
