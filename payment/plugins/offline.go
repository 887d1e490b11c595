package plugins

import (
	"context"
	"strconv"

	"github.com/google/uuid"

	"github.com/zzliekkas/paygate/payment"
)

// OfflinePlugin 线下转账支付插件
//
// 发起支付只返回收款账户信息供页面展示，不触达任何外部渠道；
// 商户核对到账后的本地确认动作即是这条支付方式的"回调"。
type OfflinePlugin struct{}

// NewOfflinePlugin 创建线下转账插件
func NewOfflinePlugin() *OfflinePlugin {
	return &OfflinePlugin{}
}

// Name 实现Plugin接口
func (p *OfflinePlugin) Name() string {
	return "线下转账"
}

// Description 实现Plugin接口
func (p *OfflinePlugin) Description() string {
	return "买家线下汇款，商户人工确认到账后完成订单"
}

// ConfigurationFields 实现Plugin接口
func (p *OfflinePlugin) ConfigurationFields() []payment.ConfigurationField {
	return []payment.ConfigurationField{
		{
			Name:      "account_holder",
			Label:     "收款户名",
			Type:      payment.FieldText,
			Required:  true,
			MaxLength: 100,
		},
		{
			Name:      "account_number",
			Label:     "收款账号",
			Type:      payment.FieldText,
			Required:  true,
			Encrypted: true,
		},
		{
			Name:      "bank_name",
			Label:     "开户行",
			Type:      payment.FieldText,
			MaxLength: 100,
		},
		payment.CheckboxField("show_reference", "展示订单号作为转账备注", "true"),
	}
}

// ValidateConfiguration 实现Plugin接口
func (p *OfflinePlugin) ValidateConfiguration(method *payment.Method) error {
	return method.ValidateValues()
}

// ProcessPayment 实现Plugin接口
func (p *OfflinePlugin) ProcessPayment(ctx context.Context, order *payment.Order, method *payment.Method, urls payment.CallbackURLs) (*payment.InitiationResult, error) {
	accountNumber, err := method.Secret("account_number")
	if err != nil {
		return nil, err
	}

	render := map[string]string{
		"account_holder": method.Plain("account_holder"),
		"account_number": accountNumber,
		"bank_name":      method.Plain("bank_name"),
		"amount":         strconv.FormatFloat(order.Amount, 'f', 2, 64),
		"currency":       order.Currency,
	}
	if method.Bool("show_reference") {
		render["reference"] = order.OrderCode
	}

	return &payment.InitiationResult{
		Provider: "offline",
		Render:   render,
	}, nil
}

// HandleCallback 实现Plugin接口
//
// 线下方式的回调只来自本地确认动作。
func (p *OfflinePlugin) HandleCallback(ctx context.Context, payload map[string]string) payment.CallbackResponse {
	orderCode, ok := payload["order_code"]
	if !ok || orderCode == "" {
		return payment.MalformedCallback("确认载荷缺少order_code")
	}

	confirmed := payload["confirmed"] == "1" || payload["confirmed"] == "true"
	txID := payload["transaction_id"]
	if confirmed && txID == "" {
		txID = "offline-" + uuid.NewString()
	}

	return payment.CallbackResponse{
		OrderCode:      orderCode,
		Success:        confirmed,
		TransactionID:  txID,
		ProviderStatus: map[bool]string{true: "confirmed", false: "unconfirmed"}[confirmed],
		Message:        "线下转账确认",
	}
}

// ConfirmationPayload 实现ManualConfirmer接口
func (p *OfflinePlugin) ConfirmationPayload(orderCode string) map[string]string {
	return map[string]string{
		"order_code": orderCode,
		"confirmed":  "1",
	}
}
