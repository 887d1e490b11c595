package payment

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// 订单事件名常量
const (
	// EventOrderProcessing 订单进入processing
	EventOrderProcessing = "order.processing"
	// EventOrderSucceeded 订单支付成功
	EventOrderSucceeded = "order.succeeded"
	// EventOrderFailed 订单支付失败
	EventOrderFailed = "order.failed"
	// EventOrderRefunded 订单已退款
	EventOrderRefunded = "order.refunded"
)

// Event 一次订单状态流转产生的事件
type Event struct {
	Name          string      // 事件名
	OrderCode     string      // 订单号
	From          OrderStatus // 流转前状态
	To            OrderStatus // 流转后状态
	TransactionID string      // 渠道交易号（如有）
	OccurredAt    time.Time   // 发生时间
}

// Listener 事件监听函数
type Listener func(Event)

// Dispatcher 同步事件分发器
//
// 监听器在发起流转的请求内同步执行；监听器的panic被吞掉并
// 记录，绝不影响支付路径。
type Dispatcher struct {
	listeners map[string][]Listener
	logger    *logrus.Logger
	mu        sync.RWMutex
}

// NewDispatcher 创建事件分发器
func NewDispatcher(logger *logrus.Logger) *Dispatcher {
	return &Dispatcher{
		listeners: make(map[string][]Listener),
		logger:    logger,
	}
}

// On 注册一个事件监听器
func (d *Dispatcher) On(eventName string, l Listener) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.listeners[eventName] = append(d.listeners[eventName], l)
}

// HasListeners 检查事件是否有监听器
func (d *Dispatcher) HasListeners(eventName string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.listeners[eventName]) > 0
}

// Dispatch 分发一个事件
func (d *Dispatcher) Dispatch(evt Event) {
	d.mu.RLock()
	ls := append([]Listener(nil), d.listeners[evt.Name]...)
	d.mu.RUnlock()

	for _, l := range ls {
		func() {
			defer func() {
				if r := recover(); r != nil && d.logger != nil {
					d.logger.WithFields(logrus.Fields{
						"event":      evt.Name,
						"order_code": evt.OrderCode,
					}).Warnf("事件监听器panic: %v", r)
				}
			}()
			l(evt)
		}()
	}
}
