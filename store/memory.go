// Package store 提供订单与支付方式的持久化实现
//
// 内存版用于测试与内嵌场景，gorm版用于生产；两者都保证状态
// 流转是以当前状态为条件的原子更新。
package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/zzliekkas/paygate/payment"
)

// MemoryStore 内存实现，同时提供OrderStore与MethodStore
type MemoryStore struct {
	orders      map[string]*payment.Order
	transitions map[string][]payment.Transition
	methods     map[string]*payment.Method
	nextID      uint
	mu          sync.RWMutex
}

// NewMemoryStore 创建内存存储
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		orders:      make(map[string]*payment.Order),
		transitions: make(map[string][]payment.Transition),
		methods:     make(map[string]*payment.Method),
	}
}

// CreateOrder 实现OrderStore接口
func (s *MemoryStore) CreateOrder(ctx context.Context, order *payment.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.orders[order.OrderCode]; exists {
		return payment.ErrDuplicateOrderCode
	}

	s.nextID++
	order.ID = s.nextID
	now := time.Now()
	order.CreatedAt = now
	order.UpdatedAt = now

	cp := *order
	s.orders[order.OrderCode] = &cp
	return nil
}

// OrderByCode 实现OrderStore接口
func (s *MemoryStore) OrderByCode(ctx context.Context, code string) (*payment.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	order, ok := s.orders[code]
	if !ok {
		return nil, payment.ErrOrderNotFound
	}
	cp := *order
	return &cp, nil
}

// TransitionOrder 实现OrderStore接口
//
// 整个检查-更新-记录序列持锁执行，等价于数据库里的条件UPDATE。
func (s *MemoryStore) TransitionOrder(ctx context.Context, code string, from, to payment.OrderStatus, rec payment.Transition) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	order, ok := s.orders[code]
	if !ok {
		return payment.ErrOrderNotFound
	}
	if order.Status != from {
		return payment.ErrStatusConflict
	}

	order.Status = to
	order.UpdatedAt = time.Now()
	if rec.MethodKey != "" {
		order.MethodKey = rec.MethodKey
	}

	rec.OrderCode = code
	rec.CreatedAt = time.Now()
	s.transitions[code] = append(s.transitions[code], rec)
	return nil
}

// Transitions 实现OrderStore接口
func (s *MemoryStore) Transitions(ctx context.Context, code string) ([]payment.Transition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]payment.Transition(nil), s.transitions[code]...), nil
}

// SaveMethod 实现MethodStore接口
func (s *MemoryStore) SaveMethod(ctx context.Context, method *payment.Method) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *method
	if cp.Values != nil {
		values := make(map[string]string, len(cp.Values))
		for k, v := range cp.Values {
			values[k] = v
		}
		cp.Values = values
	}
	s.methods[method.Key] = &cp
	return nil
}

// MethodByKey 实现MethodStore接口
func (s *MemoryStore) MethodByKey(ctx context.Context, key string) (*payment.Method, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	method, ok := s.methods[key]
	if !ok {
		return nil, payment.ErrMethodNotFound
	}
	cp := *method
	return &cp, nil
}

// Methods 实现MethodStore接口
func (s *MemoryStore) Methods(ctx context.Context) ([]*payment.Method, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*payment.Method, 0, len(s.methods))
	for _, m := range s.methods {
		cp := *m
		out = append(out, &cp)
	}
	sortMethods(out)
	return out, nil
}

// EnabledMethods 实现MethodStore接口
func (s *MemoryStore) EnabledMethods(ctx context.Context) ([]*payment.Method, error) {
	all, err := s.Methods(ctx)
	if err != nil {
		return nil, err
	}
	out := all[:0]
	for _, m := range all {
		if m.Enabled {
			out = append(out, m)
		}
	}
	return out, nil
}

// sortMethods 按sort_order升序排列，key做次序稳定键
func sortMethods(methods []*payment.Method) {
	sort.SliceStable(methods, func(i, j int) bool {
		if methods[i].SortOrder != methods[j].SortOrder {
			return methods[i].SortOrder < methods[j].SortOrder
		}
		return methods[i].Key < methods[j].Key
	})
}
