// Package middleware 提供HTTP层的通用中间件
package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/trace"
)

// LoggerConfig 是日志中间件的配置选项
type LoggerConfig struct {
	// SkipPaths 是不需要记录日志的路径
	SkipPaths []string

	// Output 是日志输出目标
	Output *logrus.Logger
}

// Logger 返回一个默认配置的请求日志中间件
func Logger(logger *logrus.Logger) gin.HandlerFunc {
	return LoggerWithConfig(LoggerConfig{Output: logger})
}

// LoggerWithConfig 返回一个使用指定配置的请求日志中间件
//
// 每条请求记录方法、路径、状态码与耗时；请求在追踪span内时
// 顺带记录trace_id，便于日志与追踪关联。
func LoggerWithConfig(config LoggerConfig) gin.HandlerFunc {
	if config.Output == nil {
		config.Output = logrus.StandardLogger()
	}

	skip := make(map[string]struct{}, len(config.SkipPaths))
	for _, p := range config.SkipPaths {
		skip[p] = struct{}{}
	}

	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if _, ok := skip[path]; ok {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		fields := logrus.Fields{
			"method":  c.Request.Method,
			"path":    path,
			"status":  c.Writer.Status(),
			"latency": time.Since(start).String(),
			"client":  c.ClientIP(),
		}
		if span := trace.SpanFromContext(c.Request.Context()); span.SpanContext().HasTraceID() {
			fields["trace_id"] = span.SpanContext().TraceID().String()
		}

		entry := config.Output.WithFields(fields)
		switch {
		case c.Writer.Status() >= 500:
			entry.Error("请求处理失败")
		case c.Writer.Status() >= 400:
			entry.Warn("请求被拒绝")
		default:
			entry.Info("请求完成")
		}
	}
}
