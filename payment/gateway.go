package payment

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Gateway 支付编排服务
//
// 负责结账（选方式 -> 调插件 -> 返回跳转/渲染目标）与回调对账
// （按key解析插件 -> 归一化结果 -> 应用到订单状态机）。所有
// 依赖在构造时注入一次，随后以引用传递给调用方。
type Gateway struct {
	orders   OrderStore
	methods  MethodStore
	registry *Registry

	cipher          Cipher
	dedup           Deduplicator
	events          *Dispatcher
	logger          *logrus.Logger
	tracer          trace.Tracer
	baseURL         string
	tokenSecret     []byte
	tokenTTL        time.Duration
	providerTimeout time.Duration
	defaultCurrency string
}

// GatewayOption 网关选项函数
type GatewayOption func(*Gateway)

// WithLogger 设置日志记录器
func WithLogger(logger *logrus.Logger) GatewayOption {
	return func(g *Gateway) { g.logger = logger }
}

// WithCipher 设置配置加密器
func WithCipher(cipher Cipher) GatewayOption {
	return func(g *Gateway) { g.cipher = cipher }
}

// WithDeduplicator 设置回调交易号去重器
func WithDeduplicator(d Deduplicator) GatewayOption {
	return func(g *Gateway) { g.dedup = d }
}

// WithEvents 设置事件分发器
func WithEvents(d *Dispatcher) GatewayOption {
	return func(g *Gateway) { g.events = d }
}

// WithCallbackBaseURL 设置回调地址的基础URL
func WithCallbackBaseURL(base string) GatewayOption {
	return func(g *Gateway) { g.baseURL = strings.TrimRight(base, "/") }
}

// WithTokenSecret 设置订单令牌签名密钥
func WithTokenSecret(secret []byte) GatewayOption {
	return func(g *Gateway) { g.tokenSecret = secret }
}

// WithProviderTimeout 设置对外渠道调用的超时
func WithProviderTimeout(d time.Duration) GatewayOption {
	return func(g *Gateway) { g.providerTimeout = d }
}

// WithDefaultCurrency 设置默认货币
func WithDefaultCurrency(currency string) GatewayOption {
	return func(g *Gateway) { g.defaultCurrency = strings.ToUpper(currency) }
}

// WithTracer 设置追踪器
func WithTracer(t trace.Tracer) GatewayOption {
	return func(g *Gateway) { g.tracer = t }
}

// NewGateway 创建支付编排服务
func NewGateway(orders OrderStore, methods MethodStore, registry *Registry, opts ...GatewayOption) *Gateway {
	g := &Gateway{
		orders:          orders,
		methods:         methods,
		registry:        registry,
		logger:          logrus.New(),
		tracer:          otel.Tracer("paygate"),
		baseURL:         "http://localhost:8080",
		tokenTTL:        30 * time.Minute,
		providerTimeout: 15 * time.Second,
		defaultCurrency: "USD",
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Registry 返回插件注册表
func (g *Gateway) Registry() *Registry {
	return g.registry
}

// CreateOrder 创建并落库一个新订单
//
// currency为空时使用默认货币。
func (g *Gateway) CreateOrder(ctx context.Context, amount float64, currency string) (*Order, error) {
	if currency == "" {
		currency = g.defaultCurrency
	}
	order, err := NewOrder(amount, currency)
	if err != nil {
		return nil, err
	}
	if err := g.orders.CreateOrder(ctx, order); err != nil {
		return nil, err
	}
	g.logger.WithFields(logrus.Fields{
		"order_code": order.OrderCode,
		"amount":     order.Amount,
		"currency":   order.Currency,
	}).Info("已创建支付订单")
	return order, nil
}

// Order 按订单号查询订单
func (g *Gateway) Order(ctx context.Context, code string) (*Order, error) {
	return g.orders.OrderByCode(ctx, code)
}

// Transitions 返回订单的流转记录
func (g *Gateway) Transitions(ctx context.Context, code string) ([]Transition, error) {
	return g.orders.Transitions(ctx, code)
}

// EnabledMethods 返回可供结账选择的支付方式，按sort_order排序
func (g *Gateway) EnabledMethods(ctx context.Context) ([]*Method, error) {
	return g.methods.EnabledMethods(ctx)
}

// callbackURLs 为订单构造三个标准回调地址
func (g *Gateway) callbackURLs(orderCode, pluginKey string) CallbackURLs {
	q := url.Values{}
	q.Set("order_code", orderCode)

	if len(g.tokenSecret) > 0 {
		if token, err := SignOrderToken(g.tokenSecret, orderCode, g.tokenTTL); err == nil {
			q.Set("token", token)
		}
	}

	return CallbackURLs{
		Success: fmt.Sprintf("%s/payment/return/success?%s", g.baseURL, q.Encode()),
		Failure: fmt.Sprintf("%s/payment/return/failure?%s", g.baseURL, q.Encode()),
		Notify:  fmt.Sprintf("%s/payment/notify/%s?order_code=%s", g.baseURL, pluginKey, url.QueryEscape(orderCode)),
	}
}

// resolveMethod 加载支付方式并绑定其插件的字段模式与解密器
func (g *Gateway) resolveMethod(ctx context.Context, methodKey string) (*Method, Plugin, error) {
	method, err := g.methods.MethodByKey(ctx, methodKey)
	if err != nil {
		return nil, nil, err
	}
	plugin, err := g.registry.Resolve(method.PluginKey)
	if err != nil {
		return nil, nil, err
	}
	method.Bind(plugin.ConfigurationFields(), g.cipher)
	return method, plugin, nil
}

// Checkout 为订单发起一次支付
//
// 仅当插件成功返回发起结果后才把订单推进到processing；发起
// 失败（含渠道超时）订单保持pending，可换一种方式重试。
func (g *Gateway) Checkout(ctx context.Context, orderCode, methodKey string) (*InitiationResult, error) {
	ctx, span := g.tracer.Start(ctx, "payment.checkout", trace.WithAttributes(
		attribute.String("order_code", orderCode),
		attribute.String("method_key", methodKey),
	))
	defer span.End()

	order, err := g.orders.OrderByCode(ctx, orderCode)
	if err != nil {
		return nil, err
	}
	if order.Status != StatusPending {
		return nil, fmt.Errorf("%w: 当前状态 %s", ErrOrderNotPayable, order.Status)
	}

	method, plugin, err := g.resolveMethod(ctx, methodKey)
	if err != nil {
		return nil, err
	}
	if !method.Enabled {
		return nil, ErrMethodDisabled
	}

	urls := g.callbackURLs(order.OrderCode, method.PluginKey)

	pctx, cancel := context.WithTimeout(ctx, g.providerTimeout)
	defer cancel()

	result, err := plugin.ProcessPayment(pctx, order, method, urls)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			err = fmt.Errorf("%w: %v", ErrProviderUnreachable, err)
		}
		g.logger.WithFields(logrus.Fields{
			"order_code": orderCode,
			"method":     methodKey,
		}).WithError(err).Warn("发起支付失败，订单保持pending")
		return nil, err
	}

	rec := Transition{
		OrderCode:     order.OrderCode,
		FromStatus:    StatusPending,
		ToStatus:      StatusProcessing,
		MethodKey:     method.Key,
		TransactionID: result.TransactionID,
		Message:       "已发起支付",
	}
	if err := g.orders.TransitionOrder(ctx, order.OrderCode, StatusPending, StatusProcessing, rec); err != nil {
		if errors.Is(err, ErrStatusConflict) {
			return nil, fmt.Errorf("%w: 结账已由并发请求发起", ErrOrderNotPayable)
		}
		return nil, err
	}

	g.dispatch(Event{
		Name:          EventOrderProcessing,
		OrderCode:     order.OrderCode,
		From:          StatusPending,
		To:            StatusProcessing,
		TransactionID: result.TransactionID,
		OccurredAt:    time.Now(),
	})
	g.logger.WithFields(logrus.Fields{
		"order_code": order.OrderCode,
		"method":     method.Key,
		"provider":   result.Provider,
	}).Info("支付已发起")

	return result, nil
}

// HandleCallback 处理一条入站渠道回调
//
// 插件解析永不抛错：畸形回调降级为带"unknown"订单号的失败结果，
// 记录后原样返回，调用方始终能对渠道做出确定的响应。只有状态机
// 层面的拒绝（未知订单、非法流转）才作为错误返回。
func (g *Gateway) HandleCallback(ctx context.Context, pluginKey string, payload map[string]string) (CallbackResponse, error) {
	ctx, span := g.tracer.Start(ctx, "payment.callback", trace.WithAttributes(
		attribute.String("plugin_key", pluginKey),
	))
	defer span.End()

	plugin, err := g.registry.Resolve(pluginKey)
	if err != nil {
		return CallbackResponse{}, err
	}

	resp := plugin.HandleCallback(ctx, payload)

	if resp.OrderCode == UnknownOrderCode || resp.OrderCode == "" {
		resp.OrderCode = UnknownOrderCode
		g.logger.WithField("plugin", pluginKey).Warnf("畸形回调已忽略: %s", resp.Message)
		return resp, nil
	}

	if resp.TransactionID != "" && g.dedup != nil {
		seen, derr := g.dedup.Seen(ctx, resp.TransactionID)
		if derr != nil {
			// 去重存储不可用时放行，幂等性仍由状态机兜底
			g.logger.WithError(derr).Warn("回调去重检查失败，继续处理")
		} else if seen {
			g.logger.WithFields(logrus.Fields{
				"order_code":     resp.OrderCode,
				"transaction_id": resp.TransactionID,
			}).Info("重复回调，按无操作处理")
			return resp, nil
		}
	}

	order, err := g.orders.OrderByCode(ctx, resp.OrderCode)
	if err != nil {
		return resp, err
	}

	if verr := g.verifyCallback(ctx, plugin, order, payload); verr != nil {
		g.logger.WithFields(logrus.Fields{
			"order_code": resp.OrderCode,
			"plugin":     pluginKey,
		}).WithError(verr).Warn("回调验签失败，已拒绝")
		return MalformedCallback("回调验签失败"), nil
	}

	target := StatusFailed
	eventName := EventOrderFailed
	if resp.Success {
		target = StatusSucceeded
		eventName = EventOrderSucceeded
	}

	from := order.Status
	applied, err := g.applyCallback(ctx, order, target, resp)
	if err != nil {
		return resp, err
	}

	// 被状态机接受（应用或合法无操作）后才标记交易号，
	// 被拒绝的回调不污染渠道的同号重试
	if resp.TransactionID != "" && g.dedup != nil {
		if merr := g.dedup.Mark(ctx, resp.TransactionID); merr != nil {
			g.logger.WithError(merr).Warn("回调去重标记失败")
		}
	}

	if applied {
		g.dispatch(Event{
			Name:          eventName,
			OrderCode:     order.OrderCode,
			From:          from,
			To:            target,
			TransactionID: resp.TransactionID,
			OccurredAt:    time.Now(),
		})
	}
	return resp, nil
}

// verifyCallback 对实现了CallbackVerifier的插件执行回调验签
//
// 用订单已选支付方式的配置做验证；方式缺失或解析失败时按验签
// 失败处理，不放行。
func (g *Gateway) verifyCallback(ctx context.Context, plugin Plugin, order *Order, payload map[string]string) error {
	verifier, ok := plugin.(CallbackVerifier)
	if !ok {
		return nil
	}
	if order.MethodKey == "" {
		return fmt.Errorf("订单 %s 未关联支付方式，无法验签", order.OrderCode)
	}

	method, _, err := g.resolveMethod(ctx, order.MethodKey)
	if err != nil {
		return fmt.Errorf("解析支付方式失败: %w", err)
	}
	return verifier.VerifyCallback(ctx, method, payload)
}

// applyCallback 把归一化回调结果应用到订单状态机
//
// 返回是否真正应用了一次流转；各类无操作（重复回调、迟到回调、
// 并发竞争失败）都返回false。
func (g *Gateway) applyCallback(ctx context.Context, order *Order, target OrderStatus, resp CallbackResponse) (bool, error) {
	from := order.Status
	logger := g.logger.WithFields(logrus.Fields{
		"order_code":     order.OrderCode,
		"from":           from,
		"to":             target,
		"transaction_id": resp.TransactionID,
	})

	// 重复的同向回调按无操作处理，成功状态不会被失败回调覆盖
	if from == target {
		logger.Info("订单已处于目标状态，回调按无操作处理")
		return false, nil
	}
	if from.Terminal() && !CanTransition(from, target) {
		logger.Info("订单已进入终态，迟到回调按无操作处理")
		return false, nil
	}
	if !CanTransition(from, target) {
		logger.Warn("非法的状态流转，回调被拒绝")
		return false, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, target)
	}

	message := resp.Message
	if from == StatusFailed && target == StatusSucceeded {
		// 显式记录恢复流转，区别于常规成功
		message = "恢复流转（渠道在失败后确认成功）: " + resp.Message
		logger.Warn("应用failed->succeeded恢复流转")
	}

	rec := Transition{
		OrderCode:      order.OrderCode,
		FromStatus:     from,
		ToStatus:       target,
		TransactionID:  resp.TransactionID,
		ProviderStatus: resp.ProviderStatus,
		Message:        message,
	}

	if err := g.orders.TransitionOrder(ctx, order.OrderCode, from, target, rec); err != nil {
		if errors.Is(err, ErrStatusConflict) {
			// 并发回调竞争失败：观察赢家写入的状态，不再追加流转
			winner, rerr := g.orders.OrderByCode(ctx, order.OrderCode)
			if rerr == nil {
				logger.WithField("winner_status", winner.Status).Info("并发回调竞争失败，观察到已应用的状态")
				order.Status = winner.Status
				return false, nil
			}
			return false, rerr
		}
		return false, err
	}
	order.Status = target
	return true, nil
}

// Confirm 对线下支付方式执行本地确认
//
// 不触达任何外部渠道：通过订单已选方式对应的插件合成一条确认
// 回调，复用HandleCallback这条唯一的对账路径。
func (g *Gateway) Confirm(ctx context.Context, orderCode string) (CallbackResponse, error) {
	order, err := g.orders.OrderByCode(ctx, orderCode)
	if err != nil {
		return CallbackResponse{}, err
	}
	if order.MethodKey == "" {
		return CallbackResponse{}, fmt.Errorf("%w: 订单尚未选择支付方式", ErrOrderNotPayable)
	}

	method, plugin, err := g.resolveMethod(ctx, order.MethodKey)
	if err != nil {
		return CallbackResponse{}, err
	}

	confirmer, ok := plugin.(ManualConfirmer)
	if !ok {
		return CallbackResponse{}, fmt.Errorf("支付方式 %s 不支持本地确认", method.Key)
	}

	return g.HandleCallback(ctx, method.PluginKey, confirmer.ConfirmationPayload(orderCode))
}

// Refund 对一笔已成功的订单发起退款
//
// 插件未实现Refunder时返回"不支持"的失败结果；退款成功后通过
// 条件更新把订单从succeeded推进到refunded。
func (g *Gateway) Refund(ctx context.Context, orderCode, reason string) (RefundResponse, error) {
	ctx, span := g.tracer.Start(ctx, "payment.refund", trace.WithAttributes(
		attribute.String("order_code", orderCode),
	))
	defer span.End()

	order, err := g.orders.OrderByCode(ctx, orderCode)
	if err != nil {
		return RefundResponse{}, err
	}
	if order.Status != StatusSucceeded {
		return RefundResponse{}, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, order.Status, StatusRefunded)
	}
	if order.MethodKey == "" {
		return RefundResponse{}, ErrMethodNotFound
	}

	method, plugin, err := g.resolveMethod(ctx, order.MethodKey)
	if err != nil {
		return RefundResponse{}, err
	}

	refunder, ok := plugin.(Refunder)
	if !ok {
		return RefundResponse{
			OrderCode: orderCode,
			Success:   false,
			Message:   "该支付方式不支持退款",
		}, ErrRefundNotSupported
	}

	pctx, cancel := context.WithTimeout(ctx, g.providerTimeout)
	defer cancel()

	resp := refunder.Refund(pctx, order, method, g.lastTransactionID(ctx, orderCode), reason)
	if !resp.Success {
		g.logger.WithField("order_code", orderCode).Warnf("退款失败: %s", resp.Message)
		return resp, nil
	}

	rec := Transition{
		OrderCode:      order.OrderCode,
		FromStatus:     StatusSucceeded,
		ToStatus:       StatusRefunded,
		TransactionID:  resp.TransactionID,
		ProviderStatus: resp.ProviderStatus,
		Message:        "退款: " + reason,
	}
	if err := g.orders.TransitionOrder(ctx, order.OrderCode, StatusSucceeded, StatusRefunded, rec); err != nil {
		return resp, err
	}

	g.dispatch(Event{
		Name:          EventOrderRefunded,
		OrderCode:     order.OrderCode,
		From:          StatusSucceeded,
		To:            StatusRefunded,
		TransactionID: resp.TransactionID,
		OccurredAt:    time.Now(),
	})
	return resp, nil
}

// lastTransactionID 返回订单流转记录中最近一次非空的渠道交易号
func (g *Gateway) lastTransactionID(ctx context.Context, orderCode string) string {
	transitions, err := g.orders.Transitions(ctx, orderCode)
	if err != nil {
		return ""
	}
	for i := len(transitions) - 1; i >= 0; i-- {
		if transitions[i].TransactionID != "" {
			return transitions[i].TransactionID
		}
	}
	return ""
}

// dispatch 分发事件（未配置分发器时跳过）
func (g *Gateway) dispatch(evt Event) {
	if g.events != nil {
		g.events.Dispatch(evt)
	}
}
