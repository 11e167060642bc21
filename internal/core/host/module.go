package host

import (
	"context"

	"go.uber.org/fx"

	"github.com/dep2p/go-seclink/config"
	"github.com/dep2p/go-seclink/pkg/interfaces"
)

// ModuleInput 模块输入依赖
type ModuleInput struct {
	fx.In

	// 配置
	UnifiedCfg *config.Config `optional:"true"`

	Transport interfaces.SecureTransport
	Routing   interfaces.PeerRouting `optional:"true"`
}

// ModuleOutput 模块输出
type ModuleOutput struct {
	fx.Out

	Host     interfaces.Host
	HostImpl *Host
}

// ProvideHost 提供 Host 服务
func ProvideHost(input ModuleInput) (ModuleOutput, error) {
	hostCfg, err := ConfigFromUnified(input.UnifiedCfg)
	if err != nil {
		return ModuleOutput{}, err
	}

	opts := []Option{
		WithTransport(input.Transport),
		WithConfig(hostCfg),
	}
	if input.Routing != nil {
		opts = append(opts, WithRouting(input.Routing))
	}

	h, err := New(opts...)
	if err != nil {
		return ModuleOutput{}, err
	}
	return ModuleOutput{Host: h, HostImpl: h}, nil
}

// Module 返回 Fx 模块
func Module() fx.Option {
	return fx.Module("host",
		fx.Provide(ProvideHost),
		fx.Invoke(registerLifecycle),
	)
}

// lifecycleInput Lifecycle 注册输入
type lifecycleInput struct {
	fx.In

	LC   fx.Lifecycle
	Host *Host
}

// registerLifecycle 注册生命周期钩子
func registerLifecycle(input lifecycleInput) {
	input.LC.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return input.Host.Start(ctx)
		},
		OnStop: func(_ context.Context) error {
			return input.Host.Close()
		},
	})
}
