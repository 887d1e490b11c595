package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/zzliekkas/paygate/payment"
)

// methodRecord 支付方式的落库形态，配置值整体序列化为JSON
type methodRecord struct {
	ID          uint   `gorm:"primaryKey"`
	Key         string `gorm:"type:varchar(64);uniqueIndex;not null"`
	PluginKey   string `gorm:"type:varchar(64);not null;index"`
	DisplayName string `gorm:"type:varchar(100);not null"`
	Description string `gorm:"type:varchar(500)"`
	Enabled     bool   `gorm:"default:true"`
	SortOrder   int    `gorm:"default:0"`
	Values      string `gorm:"type:text"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TableName 指定表名
func (methodRecord) TableName() string {
	return "payment_methods"
}

// GormStore 基于gorm的持久化实现
type GormStore struct {
	db *gorm.DB
}

// NewGormStore 创建gorm存储
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// AutoMigrate 建表
func (s *GormStore) AutoMigrate() error {
	return s.db.AutoMigrate(&payment.Order{}, &payment.Transition{}, &methodRecord{})
}

// CreateOrder 实现OrderStore接口
func (s *GormStore) CreateOrder(ctx context.Context, order *payment.Order) error {
	err := s.db.WithContext(ctx).Create(order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return payment.ErrDuplicateOrderCode
		}
		return fmt.Errorf("创建订单失败: %w", err)
	}
	return nil
}

// OrderByCode 实现OrderStore接口
func (s *GormStore) OrderByCode(ctx context.Context, code string) (*payment.Order, error) {
	var order payment.Order
	err := s.db.WithContext(ctx).Where("order_code = ?", code).First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, payment.ErrOrderNotFound
		}
		return nil, fmt.Errorf("查询订单失败: %w", err)
	}
	return &order, nil
}

// TransitionOrder 实现OrderStore接口
//
// 条件UPDATE配合RowsAffected检查实现compare-and-set：两个并发
// 回调对同一订单竞争时最多一个命中，流转记录与状态更新在同一
// 事务内落库。
func (s *GormStore) TransitionOrder(ctx context.Context, code string, from, to payment.OrderStatus, rec payment.Transition) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		updates := map[string]interface{}{
			"status":     to,
			"updated_at": time.Now(),
		}
		if rec.MethodKey != "" {
			updates["method_key"] = rec.MethodKey
		}

		result := tx.Model(&payment.Order{}).
			Where("order_code = ? AND status = ?", code, from).
			Updates(updates)
		if result.Error != nil {
			return fmt.Errorf("更新订单状态失败: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			// 区分订单不存在与状态条件未命中
			var count int64
			if err := tx.Model(&payment.Order{}).Where("order_code = ?", code).Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				return payment.ErrOrderNotFound
			}
			return payment.ErrStatusConflict
		}

		rec.OrderCode = code
		if err := tx.Create(&rec).Error; err != nil {
			return fmt.Errorf("写入流转记录失败: %w", err)
		}
		return nil
	})
}

// Transitions 实现OrderStore接口
func (s *GormStore) Transitions(ctx context.Context, code string) ([]payment.Transition, error) {
	var out []payment.Transition
	err := s.db.WithContext(ctx).
		Where("order_code = ?", code).
		Order("id asc").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("查询流转记录失败: %w", err)
	}
	return out, nil
}

// SaveMethod 实现MethodStore接口
func (s *GormStore) SaveMethod(ctx context.Context, method *payment.Method) error {
	values, err := json.Marshal(method.Values)
	if err != nil {
		return fmt.Errorf("序列化配置值失败: %w", err)
	}

	rec := methodRecord{
		Key:         method.Key,
		PluginKey:   method.PluginKey,
		DisplayName: method.DisplayName,
		Description: method.Description,
		Enabled:     method.Enabled,
		SortOrder:   method.SortOrder,
		Values:      string(values),
	}

	var existing methodRecord
	err = s.db.WithContext(ctx).Where("`key` = ?", method.Key).First(&existing).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return s.db.WithContext(ctx).Create(&rec).Error
	case err != nil:
		return fmt.Errorf("查询支付方式失败: %w", err)
	default:
		rec.ID = existing.ID
		rec.CreatedAt = existing.CreatedAt
		return s.db.WithContext(ctx).Save(&rec).Error
	}
}

// MethodByKey 实现MethodStore接口
func (s *GormStore) MethodByKey(ctx context.Context, key string) (*payment.Method, error) {
	var rec methodRecord
	err := s.db.WithContext(ctx).Where("`key` = ?", key).First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, payment.ErrMethodNotFound
		}
		return nil, fmt.Errorf("查询支付方式失败: %w", err)
	}
	return rec.toMethod()
}

// Methods 实现MethodStore接口
func (s *GormStore) Methods(ctx context.Context) ([]*payment.Method, error) {
	return s.listMethods(ctx, false)
}

// EnabledMethods 实现MethodStore接口
func (s *GormStore) EnabledMethods(ctx context.Context) ([]*payment.Method, error) {
	return s.listMethods(ctx, true)
}

// listMethods 查询支付方式列表
func (s *GormStore) listMethods(ctx context.Context, enabledOnly bool) ([]*payment.Method, error) {
	query := s.db.WithContext(ctx).Model(&methodRecord{}).Order("sort_order asc, `key` asc")
	if enabledOnly {
		query = query.Where("enabled = ?", true)
	}

	var recs []methodRecord
	if err := query.Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("查询支付方式列表失败: %w", err)
	}

	out := make([]*payment.Method, 0, len(recs))
	for _, rec := range recs {
		m, err := rec.toMethod()
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

// toMethod 还原为领域对象
func (r methodRecord) toMethod() (*payment.Method, error) {
	values := make(map[string]string)
	if r.Values != "" {
		if err := json.Unmarshal([]byte(r.Values), &values); err != nil {
			return nil, fmt.Errorf("解析支付方式 %s 的配置值失败: %w", r.Key, err)
		}
	}
	return &payment.Method{
		ID:          r.ID,
		Key:         r.Key,
		PluginKey:   r.PluginKey,
		DisplayName: r.DisplayName,
		Description: r.Description,
		Enabled:     r.Enabled,
		SortOrder:   r.SortOrder,
		Values:      values,
	}, nil
}
