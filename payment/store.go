package payment

import (
	"context"
)

// OrderStore 订单持久化接口
//
// 实现见store包（内存版与gorm版）。TransitionOrder是整个子系统
// 唯一的串行化点：以(order_code, 当前状态)为条件的原子更新，
// 两个并发回调最多只有一个能赢得流转，输家拿到ErrStatusConflict
// 后应重新读取并观察赢家写入的状态。
type OrderStore interface {
	// CreateOrder 落库一个新订单；订单号重复返回ErrDuplicateOrderCode
	CreateOrder(ctx context.Context, order *Order) error

	// OrderByCode 按订单号查询；不存在返回ErrOrderNotFound
	OrderByCode(ctx context.Context, code string) (*Order, error)

	// TransitionOrder 条件更新订单状态并原子追加流转记录
	//
	// 仅当订单当前状态等于from时生效；条件未命中返回
	// ErrStatusConflict，订单不存在返回ErrOrderNotFound。
	// rec.MethodKey非空时一并写入订单的method_key。
	TransitionOrder(ctx context.Context, code string, from, to OrderStatus, rec Transition) error

	// Transitions 返回订单的全部流转记录，按时间升序
	Transitions(ctx context.Context, code string) ([]Transition, error)
}

// MethodStore 支付方式持久化接口
type MethodStore interface {
	// SaveMethod 新增或更新一个支付方式
	SaveMethod(ctx context.Context, method *Method) error

	// MethodByKey 按key查询；不存在返回ErrMethodNotFound
	MethodByKey(ctx context.Context, key string) (*Method, error)

	// Methods 返回全部支付方式
	Methods(ctx context.Context) ([]*Method, error)

	// EnabledMethods 返回启用的支付方式，按sort_order升序
	EnabledMethods(ctx context.Context) ([]*Method, error)
}

// Deduplicator 回调交易号去重
//
// Seen只查询交易号此前是否已出现过；Mark在回调被状态机接受后
// 才标记。检查与标记分离，被状态机拒绝的回调不会污染交易号，
// 渠道用同一交易号的重试仍然有效。实现见dedup包。
type Deduplicator interface {
	Seen(ctx context.Context, transactionID string) (bool, error)
	Mark(ctx context.Context, transactionID string) error
}
