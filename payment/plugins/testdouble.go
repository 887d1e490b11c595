// Package plugins 提供内置的支付插件实现
//
// 每个插件都是payment.Plugin的一个变体：测试替身、线下转账，
// 以及若干托管页/跳转式的第三方渠道集成。
package plugins

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/zzliekkas/paygate/payment"
)

// TestTransactionPrefix 测试替身交易号前缀
const TestTransactionPrefix = "test-"

// TestDoublePlugin 测试替身插件
//
// 不触达任何网络：发起支付直接返回渲染参数，回调按载荷中的
// status字段判定成败，配置可注入人为延迟，便于不依赖外部渠道
// 的集成测试。
type TestDoublePlugin struct{}

// NewTestDoublePlugin 创建测试替身插件
func NewTestDoublePlugin() *TestDoublePlugin {
	return &TestDoublePlugin{}
}

// Name 实现Plugin接口
func (p *TestDoublePlugin) Name() string {
	return "测试替身"
}

// Description 实现Plugin接口
func (p *TestDoublePlugin) Description() string {
	return "无外部调用的测试支付方式，结果由回调载荷决定"
}

// ConfigurationFields 实现Plugin接口
func (p *TestDoublePlugin) ConfigurationFields() []payment.ConfigurationField {
	return []payment.ConfigurationField{
		payment.NumberField("delay_ms", "人为延迟（毫秒）", payment.Float64(0), payment.Float64(10000)),
	}
}

// ValidateConfiguration 实现Plugin接口
func (p *TestDoublePlugin) ValidateConfiguration(method *payment.Method) error {
	return method.ValidateValues()
}

// ProcessPayment 实现Plugin接口
func (p *TestDoublePlugin) ProcessPayment(ctx context.Context, order *payment.Order, method *payment.Method, urls payment.CallbackURLs) (*payment.InitiationResult, error) {
	if err := p.sleep(ctx, method); err != nil {
		return nil, err
	}

	return &payment.InitiationResult{
		Provider: "test_double",
		Render: map[string]string{
			"order_code":  order.OrderCode,
			"amount":      strconv.FormatFloat(order.Amount, 'f', 2, 64),
			"currency":    order.Currency,
			"notify_url":  urls.Notify,
			"success_url": urls.Success,
			"failure_url": urls.Failure,
		},
	}, nil
}

// HandleCallback 实现Plugin接口
func (p *TestDoublePlugin) HandleCallback(ctx context.Context, payload map[string]string) payment.CallbackResponse {
	orderCode, ok := payload["order_code"]
	if !ok || orderCode == "" {
		return payment.MalformedCallback("回调缺少order_code")
	}

	status := payload["status"]
	txID := payload["transaction_id"]
	if txID == "" {
		txID = TestTransactionPrefix + uuid.NewString()
	}

	return payment.CallbackResponse{
		OrderCode:      orderCode,
		Success:        status == "success",
		TransactionID:  txID,
		ProviderStatus: status,
		Message:        "测试替身回调",
	}
}

// Refund 实现Refunder接口
func (p *TestDoublePlugin) Refund(ctx context.Context, order *payment.Order, method *payment.Method, transactionID, reason string) payment.RefundResponse {
	return payment.RefundResponse{
		OrderCode:      order.OrderCode,
		Success:        true,
		TransactionID:  TestTransactionPrefix + uuid.NewString(),
		ProviderStatus: "refunded",
		Message:        reason,
	}
}

// sleep 按配置注入人为延迟，遵循ctx取消
func (p *TestDoublePlugin) sleep(ctx context.Context, method *payment.Method) error {
	ms, err := strconv.Atoi(method.Plain("delay_ms"))
	if err != nil || ms <= 0 {
		return nil
	}
	select {
	case <-time.After(time.Duration(ms) * time.Millisecond):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
