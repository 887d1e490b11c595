package payment

import (
	"errors"
	"fmt"
)

// 定义错误类型
var (
	// ErrOrderNotFound 订单不存在错误
	ErrOrderNotFound = errors.New("订单不存在")
	// ErrMethodNotFound 支付方式不存在错误
	ErrMethodNotFound = errors.New("支付方式不存在")
	// ErrPluginNotFound 支付插件不存在错误
	ErrPluginNotFound = errors.New("支付插件不存在")
	// ErrMethodDisabled 支付方式已停用错误
	ErrMethodDisabled = errors.New("支付方式已停用")
	// ErrOrderNotPayable 订单当前状态不允许发起支付
	ErrOrderNotPayable = errors.New("订单当前状态不允许发起支付")
	// ErrInvalidTransition 非法的订单状态流转
	ErrInvalidTransition = errors.New("非法的订单状态流转")
	// ErrStatusConflict 状态条件更新未命中（已被并发请求抢先）
	ErrStatusConflict = errors.New("订单状态已被并发更新")
	// ErrProviderUnreachable 支付渠道通信失败
	ErrProviderUnreachable = errors.New("支付渠道通信失败")
	// ErrRefundNotSupported 插件不支持退款
	ErrRefundNotSupported = errors.New("该支付插件不支持退款")
	// ErrDuplicateOrderCode 订单号重复错误
	ErrDuplicateOrderCode = errors.New("订单号已存在")
)

// ValidationError 表示配置字段验证失败
type ValidationError struct {
	Field  string // 字段名
	Reason string // 失败原因
}

// Error 实现error接口
func (e *ValidationError) Error() string {
	return fmt.Sprintf("字段 %s 验证失败: %s", e.Field, e.Reason)
}

// NewValidationError 创建一个新的验证错误
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}
