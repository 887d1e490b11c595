package plugins

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zzliekkas/paygate/payment"
)

func TestOffline_ProcessPaymentRendersAccount(t *testing.T) {
	p := NewOfflinePlugin()
	order, err := payment.NewOrder(100, "CNY")
	require.NoError(t, err)

	method := testMethod(p, map[string]string{
		"account_holder": "测试公司",
		"account_number": "6222000011112222",
		"bank_name":      "测试银行",
	})

	result, err := p.ProcessPayment(context.Background(), order, method, testURLs())
	require.NoError(t, err)
	assert.Equal(t, "offline", result.Provider)
	assert.Empty(t, result.RedirectURL, "线下方式不产生跳转地址")
	assert.Equal(t, "测试公司", result.Render["account_holder"])
	assert.Equal(t, "6222000011112222", result.Render["account_number"])
	assert.Equal(t, order.OrderCode, result.Render["reference"], "默认展示订单号作为转账备注")
}

func TestOffline_ReferenceToggle(t *testing.T) {
	p := NewOfflinePlugin()
	order, err := payment.NewOrder(100, "CNY")
	require.NoError(t, err)

	method := testMethod(p, map[string]string{
		"account_holder": "测试公司",
		"account_number": "6222000011112222",
		"show_reference": "false",
	})

	result, err := p.ProcessPayment(context.Background(), order, method, testURLs())
	require.NoError(t, err)
	_, ok := result.Render["reference"]
	assert.False(t, ok, "关闭show_reference后不应该渲染订单号")
}

func TestOffline_HandleCallback(t *testing.T) {
	p := NewOfflinePlugin()
	ctx := context.Background()

	resp := p.HandleCallback(ctx, map[string]string{
		"order_code": "order-1",
		"confirmed":  "1",
	})
	assert.True(t, resp.Success)
	assert.NotEmpty(t, resp.TransactionID, "确认应该生成交易号")

	resp = p.HandleCallback(ctx, map[string]string{
		"order_code": "order-1",
		"confirmed":  "0",
	})
	assert.False(t, resp.Success)

	resp = p.HandleCallback(ctx, map[string]string{"confirmed": "1"})
	assert.Equal(t, payment.UnknownOrderCode, resp.OrderCode, "缺少order_code应该返回unknown哨兵")
}

func TestOffline_ConfirmationPayload(t *testing.T) {
	p := NewOfflinePlugin()

	var _ payment.ManualConfirmer = p

	payload := p.ConfirmationPayload("order-9")
	resp := p.HandleCallback(context.Background(), payload)
	assert.True(t, resp.Success, "合成的确认载荷应该解析为成功回调")
	assert.Equal(t, "order-9", resp.OrderCode)
}

func TestOffline_ValidateConfiguration(t *testing.T) {
	p := NewOfflinePlugin()

	method := testMethod(p, map[string]string{})
	assert.Error(t, p.ValidateConfiguration(method), "缺少必填收款信息应该校验失败")

	method = testMethod(p, map[string]string{
		"account_holder": "测试公司",
		"account_number": "6222000011112222",
	})
	assert.NoError(t, p.ValidateConfiguration(method), "补齐必填字段后应该通过")
}
