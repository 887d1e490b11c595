package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/zzliekkas/paygate/config"
	"github.com/zzliekkas/paygate/dedup"
	"github.com/zzliekkas/paygate/di"
	"github.com/zzliekkas/paygate/middleware"
	"github.com/zzliekkas/paygate/payment"
	"github.com/zzliekkas/paygate/payment/plugins"
	"github.com/zzliekkas/paygate/secrets"
	"github.com/zzliekkas/paygate/store"
	"github.com/zzliekkas/paygate/telemetry"
)

// 定义版本常量
const version = "0.1.0"

func main() {
	root := &cobra.Command{
		Use:     "paygate",
		Short:   "支付编排网关命令行工具",
		Version: version,
	}

	var configPath string
	root.PersistentFlags().StringVarP(&configPath, "config", "c", ".", "配置文件目录")

	root.AddCommand(serveCommand(&configPath))
	root.AddCommand(methodsCommand(&configPath))
	root.AddCommand(versionCommand())

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// versionCommand 显示版本信息
func versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "显示版本信息",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("paygate 版本: %s\n", version)
		},
	}
}

// serveCommand 启动HTTP服务
func serveCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "启动支付网关HTTP服务",
		RunE: func(cmd *cobra.Command, args []string) error {
			container, err := buildContainer(*configPath)
			if err != nil {
				return err
			}
			return container.Invoke(runServer)
		},
	}
}

// methodsCommand 列出已配置的支付方式
func methodsCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "methods",
		Short: "列出已配置的支付方式",
		RunE: func(cmd *cobra.Command, args []string) error {
			container, err := buildContainer(*configPath)
			if err != nil {
				return err
			}
			return container.Invoke(func(g *payment.Gateway) error {
				methods, err := g.EnabledMethods(cmd.Context())
				if err != nil {
					return err
				}
				if len(methods) == 0 {
					fmt.Println("尚未配置任何启用的支付方式")
					return nil
				}
				for _, m := range methods {
					fmt.Printf("%-20s %-16s %s\n", m.Key, m.PluginKey, m.DisplayName)
				}
				return nil
			})
		},
	}
}

// buildContainer 装配应用依赖
//
// 依赖装配集中在这里：配置、日志、加密、存储、插件注册表与网关
// 全部通过容器提供，命令只声明自己需要的入参。
func buildContainer(configPath string) (*di.Container, error) {
	container := di.New()

	// 配置在装配阶段就加载好，作为现成的值注入
	cfg, err := loadConfig(configPath)
	if err != nil {
		return nil, err
	}
	if err := container.ProvideValue(cfg); err != nil {
		return nil, err
	}

	providers := []interface{}{
		newLogger,
		newCipher,
		newStores,
		newRegistry,
		newDeduplicator,
		newGateway,
	}
	for _, p := range providers {
		if err := container.Provide(p); err != nil {
			return nil, err
		}
	}
	return container, nil
}

// loadConfig 加载应用配置
func loadConfig(path string) (*config.App, error) {
	manager := config.NewManager(config.WithConfigPath(path))
	if err := manager.Load(); err != nil {
		return nil, fmt.Errorf("加载配置失败: %w", err)
	}

	var app config.App
	if err := manager.Unmarshal(&app); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}
	return &app, nil
}

// newLogger 创建结构化日志器
func newLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	return logger
}

// newCipher 根据主密钥来源创建字段加密器
func newCipher(cfg *config.App) (payment.Cipher, error) {
	var source secrets.Source
	switch cfg.Secrets.Source {
	case "static":
		source = secrets.StaticSource(cfg.Secrets.Value)
	case "aws":
		source = &secrets.SecretsManagerSource{
			SecretID: cfg.Secrets.AWSSecretID,
			Region:   cfg.Secrets.AWSRegion,
		}
	default:
		source = secrets.EnvSource{Name: cfg.Secrets.EnvName}
	}

	key, err := source.MasterKey(context.Background())
	if err != nil {
		return nil, fmt.Errorf("获取主密钥失败: %w", err)
	}
	return secrets.NewAESCipher(key)
}

// storeSet 订单与支付方式存储
type storeSet struct {
	Orders  payment.OrderStore
	Methods payment.MethodStore
}

// newStores 按数据库配置创建存储层
func newStores(cfg *config.App, logger *logrus.Logger) (storeSet, error) {
	if cfg.Database.Driver == "" || cfg.Database.Driver == "memory" {
		mem := store.NewMemoryStore()
		return storeSet{Orders: mem, Methods: mem}, nil
	}

	db, err := store.Open(cfg.Database)
	if err != nil {
		return storeSet{}, fmt.Errorf("连接数据库失败: %w", err)
	}

	gs := store.NewGormStore(db)
	if err := gs.AutoMigrate(); err != nil {
		return storeSet{}, fmt.Errorf("迁移数据库失败: %w", err)
	}

	logger.WithField("driver", cfg.Database.Driver).Info("数据库连接已建立")
	return storeSet{Orders: gs, Methods: gs}, nil
}

// newRegistry 注册启用的支付插件
func newRegistry(cfg *config.App, logger *logrus.Logger) *payment.Registry {
	available := map[string]payment.Plugin{
		"test_double": plugins.NewTestDoublePlugin(),
		"offline":     plugins.NewOfflinePlugin(),
		"stripe":      plugins.NewStripePlugin(cfg.Payment.StripeWebhookSecret),
		"pay_pal":     plugins.NewPayPalPlugin(),
		"alipay":      plugins.NewAlipayPlugin(),
	}

	registry := payment.NewRegistry()
	for _, key := range cfg.Payment.EnabledPlugins {
		plugin, ok := available[key]
		if !ok {
			logger.WithField("plugin", key).Warn("未知的插件key，已跳过")
			continue
		}
		registry.RegisterAll(logger, plugin)
	}
	return registry
}

// newDeduplicator 创建回调去重器
func newDeduplicator(cfg *config.App, logger *logrus.Logger) payment.Deduplicator {
	if cfg.Redis.Enabled {
		logger.WithField("addr", cfg.Redis.Addr).Info("使用Redis进行回调去重")
		return dedup.NewRedisStore(dedup.RedisOptions{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}
	return dedup.NewMemoryStore(24 * time.Hour)
}

// newGateway 创建支付网关编排服务
func newGateway(cfg *config.App, logger *logrus.Logger, cipher payment.Cipher, stores storeSet, registry *payment.Registry, dedup payment.Deduplicator) (*payment.Gateway, error) {
	opts := []payment.GatewayOption{
		payment.WithLogger(logger),
		payment.WithCipher(cipher),
		payment.WithDeduplicator(dedup),
		payment.WithEvents(payment.NewDispatcher(logger)),
	}
	if cfg.Payment.CallbackBaseURL != "" {
		opts = append(opts, payment.WithCallbackBaseURL(cfg.Payment.CallbackBaseURL))
	}
	if cfg.Payment.TokenSecret != "" {
		opts = append(opts, payment.WithTokenSecret([]byte(cfg.Payment.TokenSecret)))
	}
	if cfg.Payment.ProviderTimeout > 0 {
		opts = append(opts, payment.WithProviderTimeout(cfg.Payment.ProviderTimeout))
	}
	if cfg.Payment.DefaultCurrency != "" {
		opts = append(opts, payment.WithDefaultCurrency(cfg.Payment.DefaultCurrency))
	}

	gateway := payment.NewGateway(stores.Orders, stores.Methods, registry, opts...)

	if err := seedMethods(cfg, gateway, stores.Methods, registry, cipher); err != nil {
		return nil, err
	}
	return gateway, nil
}

// seedMethods 按配置写入支付方式
//
// 配置中的settings是明文；写入前经过字段校验，加密字段在这里
// 完成加密后才落库。
func seedMethods(cfg *config.App, g *payment.Gateway, methods payment.MethodStore, registry *payment.Registry, cipher payment.Cipher) error {
	ctx := context.Background()
	for _, mc := range cfg.Methods {
		plugin, err := registry.Resolve(mc.Plugin)
		if err != nil {
			return fmt.Errorf("支付方式 %s 引用了未注册的插件 %s", mc.Key, mc.Plugin)
		}

		method := &payment.Method{
			Key:         mc.Key,
			PluginKey:   mc.Plugin,
			DisplayName: mc.DisplayName,
			Description: mc.Description,
			Enabled:     mc.Enabled,
			SortOrder:   mc.SortOrder,
			Values:      make(map[string]string),
		}
		method.Bind(plugin.ConfigurationFields(), cipher)

		for name, value := range mc.Settings {
			if err := method.SetValue(name, value); err != nil {
				return fmt.Errorf("支付方式 %s 的配置项 %s 无效: %w", mc.Key, name, err)
			}
		}
		if err := plugin.ValidateConfiguration(method); err != nil {
			return fmt.Errorf("支付方式 %s 配置校验失败: %w", mc.Key, err)
		}
		if err := methods.SaveMethod(ctx, method); err != nil {
			return fmt.Errorf("保存支付方式 %s 失败: %w", mc.Key, err)
		}
	}
	return nil
}

// runServer 启动HTTP服务并等待退出信号
func runServer(cfg *config.App, logger *logrus.Logger, gateway *payment.Gateway) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdown, err := telemetry.Setup(ctx, telemetry.Config{
		ServiceName:    cfg.Tracing.ServiceName,
		Exporter:       cfg.Tracing.Exporter,
		OTLPEndpoint:   cfg.Tracing.OTLPEndpoint,
		JaegerEndpoint: cfg.Tracing.JaegerEndpoint,
	})
	if err != nil {
		return fmt.Errorf("初始化追踪失败: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			logger.WithError(err).Warn("追踪导出器关闭失败")
		}
	}()

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(middleware.Recovery(logger), middleware.Logger(logger))
	payment.RegisterRoutes(engine, gateway)

	errCh := make(chan error, 1)
	go func() {
		logger.WithField("addr", cfg.Server.Addr).Info("支付网关已启动")
		errCh <- engine.Run(cfg.Server.Addr)
	}()

	select {
	case <-ctx.Done():
		logger.Info("收到退出信号，服务关闭")
		return nil
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("HTTP服务异常退出: %w", err)
		}
		return nil
	}
}
