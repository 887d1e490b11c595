package plugins

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zzliekkas/paygate/payment"
)

func TestAlipay_CallbackNormalization(t *testing.T) {
	p := NewAlipayPlugin()
	ctx := context.Background()

	resp := p.HandleCallback(ctx, map[string]string{
		"out_trade_no": "order-1",
		"trade_no":     "2026082801",
		"trade_status": "TRADE_SUCCESS",
	})
	assert.Equal(t, "order-1", resp.OrderCode)
	assert.True(t, resp.Success)
	assert.Equal(t, "2026082801", resp.TransactionID)

	resp = p.HandleCallback(ctx, map[string]string{
		"out_trade_no": "order-1",
		"trade_status": "TRADE_CLOSED",
	})
	assert.False(t, resp.Success, "TRADE_CLOSED应该归一化为失败")

	// 中间态与缺失订单号都按畸形回调处理
	resp = p.HandleCallback(ctx, map[string]string{
		"out_trade_no": "order-1",
		"trade_status": "WAIT_BUYER_PAY",
	})
	assert.Equal(t, payment.UnknownOrderCode, resp.OrderCode, "中间态不应该产生流转")

	resp = p.HandleCallback(ctx, map[string]string{"trade_status": "TRADE_SUCCESS"})
	assert.Equal(t, payment.UnknownOrderCode, resp.OrderCode)
}

func TestAlipay_VerifyCallbackSkipsWithoutPublicKey(t *testing.T) {
	p := NewAlipayPlugin()

	method := testMethod(p, map[string]string{
		"app_id":      "2021000000000000",
		"private_key": "test-private-key",
	})

	err := p.VerifyCallback(context.Background(), method, map[string]string{
		"out_trade_no": "order-1",
		"trade_status": "TRADE_SUCCESS",
	})
	require.NoError(t, err, "未配置支付宝公钥时应该跳过验签")
}
