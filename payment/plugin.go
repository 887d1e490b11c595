package payment

import (
	"context"
)

// UnknownOrderCode 回调缺少订单标识时使用的哨兵订单号
//
// 插件解析回调失败时不抛出错误，而是返回带此订单号的失败结果，
// 让调用方可以记录并忽略畸形回调，对账入口永远能确定地响应。
const UnknownOrderCode = "unknown"

// CallbackURLs 插件发起支付时拿到的三个标准回调地址
//
// 每个地址都已带上order_code参数；插件可以按渠道要求继续追加
// 自己的识别参数。
type CallbackURLs struct {
	// Success 支付成功跳转页
	Success string
	// Failure 支付失败跳转页
	Failure string
	// Notify 异步回调通知地址
	Notify string
}

// InitiationResult 发起支付的结果
//
// 要么是一个跳转地址（托管页/收银台渠道），要么是一组渲染参数
// （线下、测试渠道由HTTP层自行呈现）。发起不等于完成，插件
// 绝不在这里变更订单状态。
type InitiationResult struct {
	// Provider 渠道标识
	Provider string `json:"provider"`
	// RedirectURL 跳转支付页面的URL（如有）
	RedirectURL string `json:"redirect_url,omitempty"`
	// Render 渲染参数（无跳转地址的渠道使用）
	Render map[string]string `json:"render,omitempty"`
	// TransactionID 渠道侧的预创建交易号（如有）
	TransactionID string `json:"transaction_id,omitempty"`
}

// CallbackResponse 插件解析回调后的归一化结果
type CallbackResponse struct {
	// OrderCode 关联的订单号，解析失败时为UnknownOrderCode
	OrderCode string `json:"order_code"`
	// Success 渠道是否报告支付成功
	Success bool `json:"success"`
	// TransactionID 渠道交易号
	TransactionID string `json:"transaction_id,omitempty"`
	// Message 人可读的说明
	Message string `json:"message,omitempty"`
	// ProviderStatus 渠道原始状态串，仅用于审计
	ProviderStatus string `json:"provider_status,omitempty"`
	// AdditionalData 渠道特有的诊断数据
	AdditionalData map[string]string `json:"additional_data,omitempty"`
}

// MalformedCallback 构造一个解析失败的回调结果
func MalformedCallback(message string) CallbackResponse {
	return CallbackResponse{
		OrderCode: UnknownOrderCode,
		Success:   false,
		Message:   message,
	}
}

// RefundResponse 插件执行退款后的归一化结果
type RefundResponse struct {
	OrderCode      string            `json:"order_code"`
	Success        bool              `json:"success"`
	TransactionID  string            `json:"transaction_id,omitempty"`
	Message        string            `json:"message,omitempty"`
	ProviderStatus string            `json:"provider_status,omitempty"`
	AdditionalData map[string]string `json:"additional_data,omitempty"`
}

// Plugin 支付插件统一接口
//
// 插件是无状态的：每次调用都会拿到解析好的支付方式（含已解密
// 配置）作为上下文，渠道特有的逻辑（最小货币单位换算、签名
// 验证、沙箱/生产切换）全部留在插件内部，不外泄到编排层。
type Plugin interface {
	// Name 返回插件展示名称
	Name() string

	// Description 返回插件描述
	Description() string

	// ConfigurationFields 返回插件的配置模式，按展示顺序排列
	ConfigurationFields() []ConfigurationField

	// ValidateConfiguration 执行跨字段的插件级配置校验
	ValidateConfiguration(method *Method) error

	// ProcessPayment 发起一次支付
	//
	// 返回跳转地址或渲染参数；不得变更订单状态。对外的网络调用
	// 必须遵循ctx的超时。
	ProcessPayment(ctx context.Context, order *Order, method *Method, urls CallbackURLs) (*InitiationResult, error)

	// HandleCallback 将渠道回调解析为归一化结果
	//
	// 必须失败闭合：缺少订单标识时返回MalformedCallback结果
	// 而不是返回错误，更不能panic。
	HandleCallback(ctx context.Context, payload map[string]string) CallbackResponse
}

// CallbackVerifier 支持回调验签的插件实现的可选接口
//
// 编排层在定位到订单后、应用状态流转前调用：用订单所选支付
// 方式的配置验证回调的真实性，返回错误的回调被记录并拒绝，
// 不产生任何流转。
type CallbackVerifier interface {
	// VerifyCallback 验证一条入站回调载荷
	VerifyCallback(ctx context.Context, method *Method, payload map[string]string) error
}

// ManualConfirmer 支持本地确认的插件实现的可选接口
//
// 线下支付方式的确认不触达外部渠道：插件合成一条等价于成功
// 回调的载荷，编排层把它送回统一的对账路径。
type ManualConfirmer interface {
	// ConfirmationPayload 为订单合成一条本地确认回调载荷
	ConfirmationPayload(orderCode string) map[string]string
}

// Refunder 支持退款的插件实现的可选接口
//
// 编排层通过类型断言探测；未实现的插件退款统一返回不支持。
// transactionID是订单流转记录中最近一次的渠道交易号，托管渠道
// 据此定位渠道侧的原始交易。
type Refunder interface {
	// Refund 对一笔已成功的订单发起退款
	Refund(ctx context.Context, order *Order, method *Method, transactionID, reason string) RefundResponse
}
