package security

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"

	"github.com/dep2p/go-seclink/config"
	"github.com/dep2p/go-seclink/internal/core/security/noise"
	"github.com/dep2p/go-seclink/pkg/interfaces"
	"github.com/dep2p/go-seclink/pkg/lib/log"
)

var logger = log.Logger("core/security")

// ============================================================================
//                              模块输入依赖
// ============================================================================

// ModuleInput 定义模块输入依赖
type ModuleInput struct {
	fx.In

	// Identity 身份服务
	Identity interfaces.Identity

	// Config 配置（可选）
	Config *config.Config `optional:"true"`

	// Registerer 指标注册表（可选，缺省时不记录指标）
	Registerer prometheus.Registerer `optional:"true"`
}

// ============================================================================
//                              模块输出服务
// ============================================================================

// ModuleOutput 定义模块输出服务
type ModuleOutput struct {
	fx.Out

	// SecureTransport 安全传输
	SecureTransport interfaces.SecureTransport
}

// ============================================================================
//                              服务提供
// ============================================================================

// ProvideServices 提供模块服务
func ProvideServices(input ModuleInput) (ModuleOutput, error) {
	if input.Identity == nil {
		return ModuleOutput{}, fmt.Errorf("identity is required")
	}

	cfg := config.DefaultSecurityConfig()
	if input.Config != nil {
		cfg = input.Config.Security
	}

	opts, err := NoiseOptions(cfg)
	if err != nil {
		return ModuleOutput{}, err
	}
	if input.Registerer != nil {
		opts = append(opts, noise.WithMetrics(input.Registerer))
	}

	transport, err := noise.New(input.Identity.PrivateKey(), opts...)
	if err != nil {
		return ModuleOutput{}, fmt.Errorf("创建 Noise 传输失败: %w", err)
	}
	logger.Info("使用 Noise 安全协议",
		"pattern", transport.Pattern().String(),
		"handshakeTimeout", cfg.Noise.HandshakeTimeout.String())

	return ModuleOutput{SecureTransport: transport}, nil
}

// NoiseOptions 将安全配置转换为 Noise 传输选项
func NoiseOptions(cfg config.SecurityConfig) ([]noise.Option, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid security config: %w", err)
	}
	pattern, err := noise.ParsePattern(cfg.Noise.Pattern)
	if err != nil {
		return nil, err
	}

	opts := []noise.Option{
		noise.WithPattern(pattern),
		noise.WithHandshakeTimeout(cfg.Noise.HandshakeTimeout.Duration()),
		noise.WithNoisePipes(cfg.Noise.NoisePipes),
	}
	if len(cfg.Noise.EarlyData) > 0 {
		opts = append(opts, noise.WithEarlyData(cfg.Noise.EarlyData))
	}
	return opts, nil
}

// ============================================================================
//                              模块定义
// ============================================================================

// Module 返回 fx 模块配置
func Module() fx.Option {
	return fx.Module("security",
		fx.Provide(ProvideServices),
		fx.Invoke(registerLifecycle),
	)
}

// lifecycleInput 生命周期输入参数
type lifecycleInput struct {
	fx.In
	LC              fx.Lifecycle
	SecureTransport interfaces.SecureTransport
}

// registerLifecycle 注册生命周期
func registerLifecycle(input lifecycleInput) {
	input.LC.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			logger.Info("安全模块启动",
				"protocol", input.SecureTransport.ID().String(),
				"localPeer", input.SecureTransport.LocalPeer().ShortString())
			return nil
		},
		OnStop: func(_ context.Context) error {
			logger.Info("安全模块停止")
			return nil
		},
	})
}

// ============================================================================
//                              模块元信息
// ============================================================================

// 模块元信息常量
const (
	Version     = "1.0.0"
	Name        = "security"
	Description = "安全层模块，提供 Noise XX 加密和身份验证"
)
