// Package config 提供基于viper的配置加载与热更新回调
package config

import (
	"fmt"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Manager 配置管理器
type Manager struct {
	// viper实例
	viper *viper.Viper

	// 配置文件路径
	configPath string

	// 配置文件名
	configName string

	// 配置文件类型
	configType string

	// 是否已加载
	loaded bool

	// 锁
	mu sync.RWMutex

	// 配置更改回调
	onChangeCallbacks []func()
}

// Option 配置选项函数
type Option func(*Manager)

// NewManager 创建一个新的配置管理器
func NewManager(options ...Option) *Manager {
	m := &Manager{
		viper:      viper.New(),
		configPath: "./config",
		configName: "paygate",
		configType: "yaml",
	}

	for _, opt := range options {
		opt(m)
	}

	return m
}

// WithConfigPath 设置配置文件路径
func WithConfigPath(path string) Option {
	return func(m *Manager) {
		m.configPath = path
	}
}

// WithConfigName 设置配置文件名
func WithConfigName(name string) Option {
	return func(m *Manager) {
		m.configName = name
	}
}

// WithConfigType 设置配置文件类型
func WithConfigType(configType string) Option {
	return func(m *Manager) {
		m.configType = configType
	}
}

// Load 加载配置文件并开启变更监听
//
// 环境变量以PAYGATE_前缀覆盖同名配置项。
func (m *Manager) Load() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.viper.AddConfigPath(m.configPath)
	m.viper.SetConfigName(m.configName)
	m.viper.SetConfigType(m.configType)

	m.viper.SetEnvPrefix("PAYGATE")
	m.viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	m.viper.AutomaticEnv()

	m.setDefaults()

	if err := m.viper.ReadInConfig(); err != nil {
		// 没有配置文件时允许仅靠默认值与环境变量运行
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("读取配置文件失败: %w", err)
		}
	}

	m.viper.OnConfigChange(func(e fsnotify.Event) {
		m.mu.RLock()
		callbacks := append([]func(){}, m.onChangeCallbacks...)
		m.mu.RUnlock()
		for _, cb := range callbacks {
			cb()
		}
	})
	m.viper.WatchConfig()

	m.loaded = true
	return nil
}

// setDefaults 设置默认配置
func (m *Manager) setDefaults() {
	m.viper.SetDefault("server.addr", ":8080")
	m.viper.SetDefault("payment.default_currency", "USD")
	m.viper.SetDefault("payment.callback_base_url", "http://localhost:8080")
	m.viper.SetDefault("payment.provider_timeout", "15s")
	m.viper.SetDefault("payment.enabled_plugins", []string{"test_double", "offline"})
	m.viper.SetDefault("database.driver", "sqlite")
	m.viper.SetDefault("database.database", "paygate.db")
	m.viper.SetDefault("secrets.source", "env")
	m.viper.SetDefault("secrets.env_name", "PAYGATE_MASTER_KEY")
	m.viper.SetDefault("tracing.exporter", "stdout")
	m.viper.SetDefault("tracing.service_name", "paygate")
}

// OnChange 注册配置变更回调
func (m *Manager) OnChange(cb func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onChangeCallbacks = append(m.onChangeCallbacks, cb)
}

// Unmarshal 将配置解析到结构体
func (m *Manager) Unmarshal(target interface{}) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.viper.Unmarshal(target); err != nil {
		return fmt.Errorf("解析配置失败: %w", err)
	}
	return nil
}

// GetString 读取字符串配置
func (m *Manager) GetString(key string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.viper.GetString(key)
}

// GetStringSlice 读取字符串切片配置
func (m *Manager) GetStringSlice(key string) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.viper.GetStringSlice(key)
}

// Loaded 返回配置是否已加载
func (m *Manager) Loaded() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.loaded
}
