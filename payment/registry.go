package payment

import (
	"reflect"
	"sort"
	"strings"
	"sync"
	"unicode"

	"github.com/sirupsen/logrus"
)

// Registry 支付插件注册表
//
// 插件key在注册时由实现类型自身的名称推导（去掉Plugin后缀、
// 转小写蛇形），不维护人工对照表；新增插件只需注册实例即可。
type Registry struct {
	plugins map[string]Plugin
	mu      sync.RWMutex
}

// NewRegistry 创建一个新的插件注册表
func NewRegistry() *Registry {
	return &Registry{
		plugins: make(map[string]Plugin),
	}
}

// PluginKey 推导插件的稳定key
//
// 例如 *plugins.TestDoublePlugin -> "test_double"。
func PluginKey(p Plugin) string {
	t := reflect.TypeOf(p)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	name := strings.TrimSuffix(t.Name(), "Plugin")
	return toSnake(name)
}

// toSnake 驼峰转小写蛇形
func toSnake(s string) string {
	var b strings.Builder
	for i, r := range s {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Register 注册一个插件，返回其推导出的key
func (r *Registry) Register(p Plugin) string {
	key := PluginKey(p)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.plugins[key] = p
	return key
}

// RegisterAll 批量注册插件，跳过无效项而不是整体失败
//
// nil插件、或推导不出key的插件只记录告警并排除，保证一个
// 配置有误的插件不会拖垮整个注册表的构建。
func (r *Registry) RegisterAll(logger *logrus.Logger, plugins ...Plugin) {
	for _, p := range plugins {
		if p == nil {
			if logger != nil {
				logger.Warn("跳过空的支付插件注册")
			}
			continue
		}
		key := PluginKey(p)
		if key == "" {
			if logger != nil {
				logger.WithField("plugin", p.Name()).Warn("无法推导插件key，已跳过")
			}
			continue
		}
		r.mu.Lock()
		r.plugins[key] = p
		r.mu.Unlock()
		if logger != nil {
			logger.WithField("key", key).Debug("已注册支付插件")
		}
	}
}

// Resolve 按key解析插件
func (r *Registry) Resolve(key string) (Plugin, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.plugins[key]
	if !ok {
		return nil, ErrPluginNotFound
	}
	return p, nil
}

// Keys 返回所有已注册的插件key，按字典序排列
func (r *Registry) Keys() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	keys := make([]string, 0, len(r.plugins))
	for k := range r.plugins {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
