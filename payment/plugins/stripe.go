package plugins

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/checkout/session"
	"github.com/stripe/stripe-go/v74/webhook"

	"github.com/zzliekkas/paygate/payment"
)

// StripePlugin Stripe托管收银台插件
//
// 发起支付创建一个Checkout Session并把买家跳转到Stripe托管页；
// 金额按货币换算为最小单位，订单号写入会话元数据并追加到
// 回调地址。支持沙箱/生产双key配置。
type StripePlugin struct {
	webhookSecret string
}

// NewStripePlugin 创建Stripe插件
//
// webhookSecret用于验证异步回调签名，为空时退化为只解析
// 已拍平的载荷（仅限测试环境）。
func NewStripePlugin(webhookSecret string) *StripePlugin {
	return &StripePlugin{webhookSecret: webhookSecret}
}

// Name 实现Plugin接口
func (p *StripePlugin) Name() string {
	return "Stripe"
}

// Description 实现Plugin接口
func (p *StripePlugin) Description() string {
	return "通过Stripe Checkout托管页完成支付"
}

// ConfigurationFields 实现Plugin接口
func (p *StripePlugin) ConfigurationFields() []payment.ConfigurationField {
	return []payment.ConfigurationField{
		payment.SecretField("live_secret_key", "生产环境Secret Key", false),
		payment.SecretField("test_secret_key", "沙箱环境Secret Key", false),
		payment.CheckboxField("live_mode", "启用生产环境", "false"),
		{
			Name:      "statement_descriptor",
			Label:     "账单描述",
			Type:      payment.FieldText,
			MaxLength: 22,
		},
	}
}

// ValidateConfiguration 实现Plugin接口
//
// 沙箱与生产key至少要配置一个。
func (p *StripePlugin) ValidateConfiguration(method *payment.Method) error {
	if err := method.ValidateValues(); err != nil {
		return err
	}

	live, err := method.Secret("live_secret_key")
	if err != nil {
		return err
	}
	test, err := method.Secret("test_secret_key")
	if err != nil {
		return err
	}
	if live == "" && test == "" {
		return payment.NewValidationError("test_secret_key", "沙箱与生产key至少配置一个")
	}
	if method.Bool("live_mode") && live == "" {
		return payment.NewValidationError("live_secret_key", "启用生产环境时必须配置生产key")
	}
	return nil
}

// apiKey 按沙箱/生产开关取出当前生效的key
func (p *StripePlugin) apiKey(method *payment.Method) (string, error) {
	name := "test_secret_key"
	if method.Bool("live_mode") {
		name = "live_secret_key"
	}
	key, err := method.Secret(name)
	if err != nil {
		return "", err
	}
	if key == "" {
		return "", payment.NewValidationError(name, "未配置")
	}
	return key, nil
}

// ProcessPayment 实现Plugin接口
func (p *StripePlugin) ProcessPayment(ctx context.Context, order *payment.Order, method *payment.Method, urls payment.CallbackURLs) (*payment.InitiationResult, error) {
	key, err := p.apiKey(method)
	if err != nil {
		return nil, err
	}
	stripe.Key = key

	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(urls.Success),
		CancelURL:  stripe.String(urls.Failure),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Quantity: stripe.Int64(1),
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(order.Currency),
					UnitAmount: stripe.Int64(payment.MinorUnits(order.Amount, order.Currency)),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String("订单 " + order.OrderCode),
					},
				},
			},
		},
	}
	params.Context = ctx
	params.AddMetadata("order_code", order.OrderCode)

	sess, err := session.New(params)
	if err != nil {
		return nil, fmt.Errorf("创建Stripe Checkout会话失败: %w", err)
	}

	return &payment.InitiationResult{
		Provider:      "stripe",
		RedirectURL:   sess.URL,
		TransactionID: sess.ID,
	}, nil
}

// HandleCallback 实现Plugin接口
//
// 配置了webhookSecret时只接受已验签的回调：缺少原始体或签名头、
// 或签名不合法，一律降级为unknown失败结果。未验签的拍平载荷
// 解析路径只在secret为空（测试环境）时生效。
func (p *StripePlugin) HandleCallback(ctx context.Context, payload map[string]string) payment.CallbackResponse {
	if p.webhookSecret != "" {
		rawBody, hasBody := payload["_raw_body"]
		signature, hasSig := payload["_stripe_signature"]
		if !hasBody || !hasSig {
			return payment.MalformedCallback("Stripe回调缺少签名，已拒绝")
		}
		event, err := webhook.ConstructEvent([]byte(rawBody), signature, p.webhookSecret)
		if err != nil {
			return payment.MalformedCallback("Stripe回调签名验证失败")
		}
		return p.fromEvent(event)
	}

	orderCode := payload["order_code"]
	if orderCode == "" {
		return payment.MalformedCallback("Stripe回调缺少order_code")
	}
	status := payload["status"]
	return payment.CallbackResponse{
		OrderCode:      orderCode,
		Success:        status == "succeeded" || status == "complete",
		TransactionID:  payload["session_id"],
		ProviderStatus: status,
		Message:        "Stripe回调（未验签）",
	}
}

// fromEvent 把已验签的Stripe事件归一化
func (p *StripePlugin) fromEvent(event stripe.Event) payment.CallbackResponse {
	switch event.Type {
	case "checkout.session.completed", "checkout.session.async_payment_succeeded",
		"checkout.session.async_payment_failed", "checkout.session.expired":
		var sess stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
			return payment.MalformedCallback("解析Checkout Session失败")
		}
		orderCode := sess.Metadata["order_code"]
		if orderCode == "" {
			return payment.MalformedCallback("Stripe事件缺少order_code元数据")
		}
		success := event.Type == "checkout.session.completed" ||
			event.Type == "checkout.session.async_payment_succeeded"
		return payment.CallbackResponse{
			OrderCode:      orderCode,
			Success:        success,
			TransactionID:  sess.ID,
			ProviderStatus: string(event.Type),
			AdditionalData: map[string]string{
				"payment_status": string(sess.PaymentStatus),
			},
		}
	default:
		return payment.MalformedCallback("未处理的Stripe事件类型: " + string(event.Type))
	}
}
