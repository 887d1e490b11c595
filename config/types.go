package config

import (
	"time"

	"github.com/zzliekkas/paygate/store"
)

// App 应用配置
type App struct {
	Server   Server       `mapstructure:"server"`
	Payment  Payment      `mapstructure:"payment"`
	Database store.Config `mapstructure:"database"`
	Redis    Redis        `mapstructure:"redis"`
	Secrets  Secrets      `mapstructure:"secrets"`
	Tracing  Tracing      `mapstructure:"tracing"`
	Methods  []Method     `mapstructure:"methods"`
}

// Server HTTP服务配置
type Server struct {
	Addr string `mapstructure:"addr"`
}

// Payment 支付编排配置
type Payment struct {
	// DefaultCurrency 默认货币
	DefaultCurrency string `mapstructure:"default_currency"`
	// CallbackBaseURL 回调地址的基础URL
	CallbackBaseURL string `mapstructure:"callback_base_url"`
	// ProviderTimeout 对外渠道调用超时
	ProviderTimeout time.Duration `mapstructure:"provider_timeout"`
	// EnabledPlugins 启用的插件key列表
	EnabledPlugins []string `mapstructure:"enabled_plugins"`
	// TokenSecret 订单令牌签名密钥
	TokenSecret string `mapstructure:"token_secret"`
	// StripeWebhookSecret Stripe回调验签密钥
	StripeWebhookSecret string `mapstructure:"stripe_webhook_secret"`
}

// Redis 回调去重用的Redis配置
type Redis struct {
	// Enabled 是否启用Redis去重（关闭时使用进程内去重）
	Enabled  bool   `mapstructure:"enabled"`
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// Secrets 主密钥来源配置
type Secrets struct {
	// Source 来源类型：env, static, aws
	Source string `mapstructure:"source"`
	// EnvName 环境变量名（source=env）
	EnvName string `mapstructure:"env_name"`
	// Value 固定值（source=static，仅限测试）
	Value string `mapstructure:"value"`
	// AWSSecretID Secrets Manager密钥ID（source=aws）
	AWSSecretID string `mapstructure:"aws_secret_id"`
	// AWSRegion AWS区域
	AWSRegion string `mapstructure:"aws_region"`
}

// Tracing 追踪配置
type Tracing struct {
	// Exporter 导出器类型：stdout, otlp, jaeger, none
	Exporter string `mapstructure:"exporter"`
	// ServiceName 服务名称
	ServiceName string `mapstructure:"service_name"`
	// OTLPEndpoint OTLP端点
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`
	// JaegerEndpoint Jaeger端点
	JaegerEndpoint string `mapstructure:"jaeger_endpoint"`
}

// Method 支付方式的启动期配置
type Method struct {
	Key         string            `mapstructure:"key"`
	Plugin      string            `mapstructure:"plugin"`
	DisplayName string            `mapstructure:"display_name"`
	Description string            `mapstructure:"description"`
	Enabled     bool              `mapstructure:"enabled"`
	SortOrder   int               `mapstructure:"sort_order"`
	Settings    map[string]string `mapstructure:"settings"`
}
