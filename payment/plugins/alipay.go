package plugins

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/smartwalle/alipay/v3"

	"github.com/zzliekkas/paygate/payment"
)

// AlipayPlugin 支付宝电脑网站支付插件
//
// 发起支付本地构造并签名一个收银台跳转地址（TradePagePay），
// 不产生网络调用；异步通知按支付宝的表单参数验签后归一化。
type AlipayPlugin struct{}

// NewAlipayPlugin 创建支付宝插件
func NewAlipayPlugin() *AlipayPlugin {
	return &AlipayPlugin{}
}

// Name 实现Plugin接口
func (p *AlipayPlugin) Name() string {
	return "支付宝"
}

// Description 实现Plugin接口
func (p *AlipayPlugin) Description() string {
	return "跳转到支付宝收银台完成支付"
}

// ConfigurationFields 实现Plugin接口
func (p *AlipayPlugin) ConfigurationFields() []payment.ConfigurationField {
	return []payment.ConfigurationField{
		payment.TextField("app_id", "应用ID", true),
		payment.SecretField("private_key", "应用私钥", true),
		payment.SecretField("alipay_public_key", "支付宝公钥", false),
		payment.CheckboxField("sandbox", "使用沙箱环境", "true"),
	}
}

// ValidateConfiguration 实现Plugin接口
func (p *AlipayPlugin) ValidateConfiguration(method *payment.Method) error {
	return method.ValidateValues()
}

// client 按配置构建支付宝客户端
func (p *AlipayPlugin) client(method *payment.Method) (*alipay.Client, error) {
	privateKey, err := method.Secret("private_key")
	if err != nil {
		return nil, err
	}

	client, err := alipay.New(method.Plain("app_id"), privateKey, !method.Bool("sandbox"))
	if err != nil {
		return nil, fmt.Errorf("初始化支付宝客户端失败: %w", err)
	}

	publicKey, err := method.Secret("alipay_public_key")
	if err != nil {
		return nil, err
	}
	if publicKey != "" {
		if err := client.LoadAliPayPublicKey(publicKey); err != nil {
			return nil, fmt.Errorf("加载支付宝公钥失败: %w", err)
		}
	}
	return client, nil
}

// ProcessPayment 实现Plugin接口
func (p *AlipayPlugin) ProcessPayment(ctx context.Context, order *payment.Order, method *payment.Method, urls payment.CallbackURLs) (*payment.InitiationResult, error) {
	client, err := p.client(method)
	if err != nil {
		return nil, err
	}

	var pay = alipay.TradePagePay{}
	pay.NotifyURL = urls.Notify
	pay.ReturnURL = urls.Success
	pay.Subject = "订单 " + order.OrderCode
	pay.OutTradeNo = order.OrderCode
	pay.TotalAmount = fmt.Sprintf("%.2f", order.Amount)
	pay.ProductCode = "FAST_INSTANT_TRADE_PAY"

	payURL, err := client.TradePagePay(pay)
	if err != nil {
		return nil, fmt.Errorf("构造支付宝收银台地址失败: %w", err)
	}

	return &payment.InitiationResult{
		Provider:    "alipay",
		RedirectURL: payURL.String(),
	}, nil
}

// HandleCallback 实现Plugin接口
//
// 支付宝以表单参数投递异步通知。本方法只做解析归一化；验签由
// 编排层通过VerifyCallback在应用流转前执行。
func (p *AlipayPlugin) HandleCallback(ctx context.Context, payload map[string]string) payment.CallbackResponse {
	orderCode := payload["out_trade_no"]
	if orderCode == "" {
		return payment.MalformedCallback("支付宝回调缺少out_trade_no")
	}

	tradeStatus := payload["trade_status"]
	var success bool
	switch tradeStatus {
	case "TRADE_SUCCESS", "TRADE_FINISHED":
		success = true
	case "TRADE_CLOSED":
		success = false
	default:
		// WAIT_BUYER_PAY等中间态不产生流转
		return payment.MalformedCallback("未处理的支付宝交易状态: " + tradeStatus)
	}

	return payment.CallbackResponse{
		OrderCode:      orderCode,
		Success:        success,
		TransactionID:  payload["trade_no"],
		ProviderStatus: tradeStatus,
		AdditionalData: map[string]string{
			"buyer_id":     payload["buyer_id"],
			"total_amount": payload["total_amount"],
		},
	}
}

// VerifyCallback 实现CallbackVerifier接口
//
// 未配置支付宝公钥（自建联调环境）时跳过验签；配置了公钥则
// 验签失败的通知一律拒绝。
func (p *AlipayPlugin) VerifyCallback(ctx context.Context, method *payment.Method, payload map[string]string) error {
	publicKey, err := method.Secret("alipay_public_key")
	if err != nil {
		return err
	}
	if publicKey == "" {
		return nil
	}
	return p.verifyNotification(method, payload)
}

// verifyNotification 验签支付宝异步通知，需要完整的原始表单参数
func (p *AlipayPlugin) verifyNotification(method *payment.Method, payload map[string]string) error {
	client, err := p.client(method)
	if err != nil {
		return err
	}

	values := url.Values{}
	for k, v := range payload {
		if strings.HasPrefix(k, "_") {
			continue
		}
		values.Set(k, v)
	}
	if err = client.VerifySign(values); err != nil {
		return fmt.Errorf("支付宝回调验签失败: %w", err)
	}
	return nil
}

// Refund 实现Refunder接口
func (p *AlipayPlugin) Refund(ctx context.Context, order *payment.Order, method *payment.Method, transactionID, reason string) payment.RefundResponse {
	client, err := p.client(method)
	if err != nil {
		return payment.RefundResponse{OrderCode: order.OrderCode, Message: err.Error()}
	}

	var refund = alipay.TradeRefund{}
	refund.OutTradeNo = order.OrderCode
	refund.RefundAmount = fmt.Sprintf("%.2f", order.Amount)
	refund.RefundReason = reason

	result, err := client.TradeRefund(refund)
	if err != nil {
		return payment.RefundResponse{OrderCode: order.OrderCode, Message: fmt.Sprintf("创建支付宝退款失败: %v", err)}
	}
	if !result.IsSuccess() {
		return payment.RefundResponse{OrderCode: order.OrderCode, Message: fmt.Sprintf("创建支付宝退款失败: %s", result.SubMsg)}
	}

	return payment.RefundResponse{
		OrderCode:      order.OrderCode,
		Success:        true,
		TransactionID:  result.TradeNo,
		ProviderStatus: "refunded",
		AdditionalData: map[string]string{
			"refund_fee": result.RefundFee,
		},
	}
}
