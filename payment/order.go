package payment

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// OrderStatus 订单状态
type OrderStatus string

// 订单状态常量
const (
	// StatusPending 已创建，等待发起支付
	StatusPending OrderStatus = "pending"
	// StatusProcessing 已调用插件发起支付，等待回调
	StatusProcessing OrderStatus = "processing"
	// StatusSucceeded 支付成功（终态）
	StatusSucceeded OrderStatus = "succeeded"
	// StatusFailed 支付失败（终态，允许异步回调纠正为成功）
	StatusFailed OrderStatus = "failed"
	// StatusRefunded 已退款（终态，仅可由succeeded进入）
	StatusRefunded OrderStatus = "refunded"
)

// Terminal 判断是否为终态
func (s OrderStatus) Terminal() bool {
	switch s {
	case StatusSucceeded, StatusFailed, StatusRefunded:
		return true
	}
	return false
}

// CanTransition 判断状态流转是否在允许的边上
//
// failed -> succeeded 是唯一一条离开终态的边：异步渠道可能先报告
// 失败、随后确认成功，这条恢复边是显式且可审计的例外。
func CanTransition(from, to OrderStatus) bool {
	switch from {
	case StatusPending:
		return to == StatusProcessing
	case StatusProcessing:
		return to == StatusSucceeded || to == StatusFailed
	case StatusFailed:
		return to == StatusSucceeded
	case StatusSucceeded:
		return to == StatusRefunded
	}
	return false
}

// Order 支付订单
//
// 订单由调用方在结账前创建，之后只能通过状态机的条件更新操作
// 变更；order_code 是对外的稳定标识，也是所有回调的关联键，
// 重试时绝不能重新生成。金额与货币在发起支付后不可变更。
type Order struct {
	ID        uint        `gorm:"primaryKey" json:"id"`
	OrderCode string      `gorm:"type:varchar(64);uniqueIndex;not null" json:"order_code"`
	Amount    float64     `gorm:"type:decimal(20,2);not null" json:"amount"`
	Currency  string      `gorm:"type:varchar(8);not null" json:"currency"`
	Status    OrderStatus `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	MethodKey string      `gorm:"type:varchar(64);index" json:"method_key,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// TableName 指定表名
func (Order) TableName() string {
	return "payment_orders"
}

// Transition 订单状态流转记录
//
// 每次状态变更写入一条记录，渠道原始状态与交易号一并落库，
// 用于审计与幂等判断；回调返回的值对象不单独持久化。
type Transition struct {
	ID             uint        `gorm:"primaryKey" json:"id"`
	OrderCode      string      `gorm:"type:varchar(64);index;not null" json:"order_code"`
	FromStatus     OrderStatus `gorm:"type:varchar(20);not null" json:"from_status"`
	ToStatus       OrderStatus `gorm:"type:varchar(20);not null" json:"to_status"`
	MethodKey      string      `gorm:"type:varchar(64)" json:"method_key,omitempty"`
	TransactionID  string      `gorm:"type:varchar(128);index" json:"transaction_id,omitempty"`
	ProviderStatus string      `gorm:"type:varchar(64)" json:"provider_status,omitempty"`
	Message        string      `gorm:"type:varchar(500)" json:"message,omitempty"`
	CreatedAt      time.Time   `json:"created_at"`
}

// TableName 指定表名
func (Transition) TableName() string {
	return "payment_order_transitions"
}

// NewOrder 创建一个新订单
//
// 订单号使用UUID生成一次，金额必须为正数，货币必须是合法的
// ISO 4217代码。
func NewOrder(amount float64, currency string) (*Order, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("订单金额必须为正数: %v", amount)
	}
	currency = strings.ToUpper(currency)
	if !ValidCurrency(currency) {
		return nil, fmt.Errorf("不支持的货币代码: %s", currency)
	}

	return &Order{
		OrderCode: uuid.NewString(),
		Amount:    amount,
		Currency:  currency,
		Status:    StatusPending,
	}, nil
}
