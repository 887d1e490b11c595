package plugins

import (
	"context"
	"fmt"

	"github.com/plutov/paypal/v4"

	"github.com/zzliekkas/paygate/payment"
)

// PayPalPlugin PayPal跳转支付插件
//
// 发起支付创建一个PayPal订单并把买家跳转到approve链接；
// 回调按Webhook事件类型归一化成败。
type PayPalPlugin struct{}

// NewPayPalPlugin 创建PayPal插件
func NewPayPalPlugin() *PayPalPlugin {
	return &PayPalPlugin{}
}

// Name 实现Plugin接口
func (p *PayPalPlugin) Name() string {
	return "PayPal"
}

// Description 实现Plugin接口
func (p *PayPalPlugin) Description() string {
	return "跳转到PayPal完成支付"
}

// ConfigurationFields 实现Plugin接口
func (p *PayPalPlugin) ConfigurationFields() []payment.ConfigurationField {
	return []payment.ConfigurationField{
		payment.TextField("client_id", "Client ID", true),
		payment.SecretField("client_secret", "Client Secret", true),
		payment.CheckboxField("sandbox", "使用沙箱环境", "true"),
	}
}

// ValidateConfiguration 实现Plugin接口
func (p *PayPalPlugin) ValidateConfiguration(method *payment.Method) error {
	return method.ValidateValues()
}

// client 按配置构建PayPal客户端
func (p *PayPalPlugin) client(method *payment.Method) (*paypal.Client, error) {
	secret, err := method.Secret("client_secret")
	if err != nil {
		return nil, err
	}

	base := paypal.APIBaseLive
	if method.Bool("sandbox") {
		base = paypal.APIBaseSandBox
	}

	client, err := paypal.NewClient(method.Plain("client_id"), secret, base)
	if err != nil {
		return nil, fmt.Errorf("初始化PayPal客户端失败: %w", err)
	}
	return client, nil
}

// ProcessPayment 实现Plugin接口
func (p *PayPalPlugin) ProcessPayment(ctx context.Context, order *payment.Order, method *payment.Method, urls payment.CallbackURLs) (*payment.InitiationResult, error) {
	client, err := p.client(method)
	if err != nil {
		return nil, err
	}

	ppOrder, err := client.CreateOrder(ctx, paypal.OrderIntentCapture,
		[]paypal.PurchaseUnitRequest{
			{
				ReferenceID: order.OrderCode,
				Amount: &paypal.PurchaseUnitAmount{
					Value:    fmt.Sprintf("%.2f", order.Amount),
					Currency: order.Currency,
				},
			},
		},
		nil,
		&paypal.ApplicationContext{
			ReturnURL: urls.Success,
			CancelURL: urls.Failure,
		})
	if err != nil {
		return nil, fmt.Errorf("创建PayPal订单失败: %w", err)
	}

	var approveURL string
	for _, link := range ppOrder.Links {
		if link.Rel == "approve" {
			approveURL = link.Href
			break
		}
	}
	if approveURL == "" {
		return nil, fmt.Errorf("PayPal订单 %s 未返回approve链接", ppOrder.ID)
	}

	return &payment.InitiationResult{
		Provider:      "paypal",
		RedirectURL:   approveURL,
		TransactionID: ppOrder.ID,
	}, nil
}

// HandleCallback 实现Plugin接口
//
// 期望已拍平的Webhook载荷中带有reference_id（即订单号）与
// event_type；缺少订单标识时降级为unknown失败结果。
func (p *PayPalPlugin) HandleCallback(ctx context.Context, payload map[string]string) payment.CallbackResponse {
	orderCode := payload["reference_id"]
	if orderCode == "" {
		orderCode = payload["order_code"]
	}
	if orderCode == "" {
		return payment.MalformedCallback("PayPal回调缺少reference_id")
	}

	eventType := payload["event_type"]
	var success bool
	switch eventType {
	case "PAYMENT.CAPTURE.COMPLETED", "CHECKOUT.ORDER.APPROVED":
		success = true
	case "PAYMENT.CAPTURE.DENIED", "PAYMENT.CAPTURE.DECLINED":
		success = false
	default:
		return payment.MalformedCallback("未处理的PayPal事件类型: " + eventType)
	}

	txID := payload["capture_id"]
	if txID == "" {
		txID = payload["id"]
	}

	return payment.CallbackResponse{
		OrderCode:      orderCode,
		Success:        success,
		TransactionID:  txID,
		ProviderStatus: eventType,
	}
}

// Refund 实现Refunder接口
func (p *PayPalPlugin) Refund(ctx context.Context, order *payment.Order, method *payment.Method, transactionID, reason string) payment.RefundResponse {
	client, err := p.client(method)
	if err != nil {
		return payment.RefundResponse{OrderCode: order.OrderCode, Message: err.Error()}
	}
	if transactionID == "" {
		return payment.RefundResponse{OrderCode: order.OrderCode, Message: "缺少PayPal订单号"}
	}

	// 通过渠道订单查找capture
	ppOrder, err := client.GetOrder(ctx, transactionID)
	if err != nil {
		return payment.RefundResponse{OrderCode: order.OrderCode, Message: fmt.Sprintf("查询PayPal订单失败: %v", err)}
	}
	var captureID string
	if len(ppOrder.PurchaseUnits) > 0 &&
		ppOrder.PurchaseUnits[0].Payments != nil &&
		len(ppOrder.PurchaseUnits[0].Payments.Captures) > 0 {
		captureID = ppOrder.PurchaseUnits[0].Payments.Captures[0].ID
	}
	if captureID == "" {
		return payment.RefundResponse{OrderCode: order.OrderCode, Message: "未找到支付捕获ID"}
	}

	refund, err := client.RefundCapture(ctx, captureID, paypal.RefundCaptureRequest{
		Amount: &paypal.Money{
			Value:    fmt.Sprintf("%.2f", order.Amount),
			Currency: order.Currency,
		},
		NoteToPayer: reason,
	})
	if err != nil {
		return payment.RefundResponse{OrderCode: order.OrderCode, Message: fmt.Sprintf("创建PayPal退款失败: %v", err)}
	}

	return payment.RefundResponse{
		OrderCode:      order.OrderCode,
		Success:        true,
		TransactionID:  refund.ID,
		ProviderStatus: string(refund.Status),
	}
}
