// Package log 提供 seclink 统一日志接口
//
// 基于 Go 标准库 log/slog 封装，按组件（子系统）输出结构化日志。
//
// 环境变量：
//   - SECLINK_LOG_LEVEL: 日志级别，支持按子系统配置
//     格式: 子系统=级别,子系统=级别,默认级别
//     示例: core/security/noise=debug,core/host=warn,info
//   - SECLINK_LOG_FORMAT: text（默认）或 json
package log

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

// 日志级别常量（从 slog 导出，方便使用）
const (
	LevelDebug = slog.LevelDebug
	LevelInfo  = slog.LevelInfo
	LevelWarn  = slog.LevelWarn
	LevelError = slog.LevelError
)

// 环境变量名
const (
	EnvLogLevel  = "SECLINK_LOG_LEVEL"
	EnvLogFormat = "SECLINK_LOG_FORMAT"
)

// Config 日志配置
type Config struct {
	// DefaultLevel 默认日志级别
	DefaultLevel slog.Level

	// SubsystemLevels 各子系统的日志级别
	SubsystemLevels map[string]slog.Level

	// JSON 是否输出 JSON 格式
	JSON bool
}

// LevelFor 获取指定子系统的日志级别
func (c *Config) LevelFor(subsystem string) slog.Level {
	if level, ok := c.SubsystemLevels[subsystem]; ok {
		return level
	}
	return c.DefaultLevel
}

// clone 返回独立副本
func (c *Config) clone() *Config {
	out := *c
	out.SubsystemLevels = make(map[string]slog.Level, len(c.SubsystemLevels))
	for k, v := range c.SubsystemLevels {
		out.SubsystemLevels[k] = v
	}
	return &out
}

// config 发布后只读，修改时整体替换
var (
	mu     sync.RWMutex
	output io.Writer = os.Stderr
	config           = configFromEnv()
)

// configFromEnv 从环境变量解析配置
func configFromEnv() *Config {
	cfg := &Config{
		DefaultLevel:    slog.LevelInfo,
		SubsystemLevels: make(map[string]slog.Level),
	}
	if s := os.Getenv(EnvLogLevel); s != "" {
		ParseLevels(cfg, s)
	}
	cfg.JSON = strings.EqualFold(os.Getenv(EnvLogFormat), "json")
	return cfg
}

// ParseLevels 解析日志级别配置字符串
//
// 格式: subsystem=level,subsystem=level,defaultLevel
func ParseLevels(cfg *Config, levels string) {
	for _, part := range strings.Split(levels, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if name, lvl, ok := strings.Cut(part, "="); ok {
			if level, ok := parseLevel(lvl); ok {
				cfg.SubsystemLevels[strings.TrimSpace(name)] = level
			}
			continue
		}
		if level, ok := parseLevel(part); ok {
			cfg.DefaultLevel = level
		}
	}
}

// parseLevel 解析日志级别名称
func parseLevel(name string) (slog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug, true
	case "info":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	default:
		return slog.LevelInfo, false
	}
}

// SetOutput 设置日志输出目标
func SetOutput(w io.Writer) {
	mu.Lock()
	output = w
	mu.Unlock()
}

// SetConfig 替换当前日志配置
func SetConfig(cfg *Config) {
	if cfg == nil {
		return
	}
	cfg = cfg.clone()
	mu.Lock()
	config = cfg
	mu.Unlock()
}

// SetLevel 设置默认日志级别
func SetLevel(level slog.Level) {
	mu.Lock()
	next := config.clone()
	next.DefaultLevel = level
	config = next
	mu.Unlock()
}

// handlerFor 为子系统创建 handler
func handlerFor(component string) slog.Handler {
	mu.RLock()
	w, cfg := output, config
	mu.RUnlock()

	opts := &slog.HandlerOptions{
		Level: cfg.LevelFor(component),
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				a.Key = "ts"
			}
			return a
		},
	}
	if cfg.JSON {
		return slog.NewJSONHandler(w, opts)
	}
	return slog.NewTextHandler(w, opts)
}

// ============================================================================
//                              LazyLogger
// ============================================================================

// LazyLogger 懒加载 logger
//
// 每次日志调用时按当前配置构建 handler，
// 支持在运行时动态切换输出目标和级别。
//
//	var logger = log.Logger("core/security/noise")
//	logger.Debug("握手开始", "remotePeer", id.ShortString())
type LazyLogger struct {
	component string
}

// Logger 返回带组件名的 LazyLogger
func Logger(component string) *LazyLogger {
	return &LazyLogger{component: component}
}

func (l *LazyLogger) logger() *slog.Logger {
	return slog.New(handlerFor(l.component)).With("component", l.component)
}

// Enabled 判断指定级别是否会输出
func (l *LazyLogger) Enabled(level slog.Level) bool {
	return l.logger().Enabled(context.Background(), level)
}

// Debug 输出 Debug 级别日志
func (l *LazyLogger) Debug(msg string, args ...any) {
	l.logger().Debug(msg, args...)
}

// Info 输出 Info 级别日志
func (l *LazyLogger) Info(msg string, args ...any) {
	l.logger().Info(msg, args...)
}

// Warn 输出 Warn 级别日志
func (l *LazyLogger) Warn(msg string, args ...any) {
	l.logger().Warn(msg, args...)
}

// Error 输出 Error 级别日志
func (l *LazyLogger) Error(msg string, args ...any) {
	l.logger().Error(msg, args...)
}

// DebugContext 带 context 的 Debug 日志
func (l *LazyLogger) DebugContext(ctx context.Context, msg string, args ...any) {
	l.logger().DebugContext(ctx, msg, args...)
}

// WarnContext 带 context 的 Warn 日志
func (l *LazyLogger) WarnContext(ctx context.Context, msg string, args ...any) {
	l.logger().WarnContext(ctx, msg, args...)
}

// With 添加额外的属性
func (l *LazyLogger) With(args ...any) *slog.Logger {
	return l.logger().With(args...)
}

// ============================================================================
//                              工具函数
// ============================================================================

// TruncateID 安全截取 ID 用于日志显示
func TruncateID(id string, maxLen int) string {
	if len(id) <= maxLen {
		return id
	}
	return id[:maxLen]
}
