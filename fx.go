package seclink

import (
	"fmt"
	"log/slog"

	"github.com/libp2p/go-libp2p/core/crypto"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"github.com/dep2p/go-seclink/internal/core/host"
	"github.com/dep2p/go-seclink/internal/core/identity"
	"github.com/dep2p/go-seclink/internal/core/routing"
	"github.com/dep2p/go-seclink/internal/core/security"
	"github.com/dep2p/go-seclink/pkg/interfaces"
)

// buildFxApp 构建 Fx 应用
//
// 加载顺序（按依赖）：Identity → Security → Routing → Host
func buildFxApp(cfg *nodeConfig, node *Node) (*fx.App, error) {
	if err := cfg.config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	modules := []fx.Option{
		// 配置注入
		fx.Supply(cfg.config),

		identity.Module(),
		security.Module(),
	}

	if cfg.identityKey != nil {
		key := cfg.identityKey
		modules = append(modules, fx.Provide(fx.Annotated{
			Name:   "identity_key",
			Target: func() crypto.PrivKey { return key },
		}))
	}

	if cfg.registerer != nil {
		reg := cfg.registerer
		modules = append(modules, fx.Provide(func() prometheus.Registerer { return reg }))
	}

	// 路由：外部提供时替换内存路由
	if cfg.routing != nil {
		r := cfg.routing
		modules = append(modules, fx.Provide(func() interfaces.PeerRouting { return r }))
	} else {
		modules = append(modules, routing.Module())
	}

	modules = append(modules, host.Module())

	if len(cfg.userFxOptions) > 0 {
		modules = append(modules, cfg.userFxOptions...)
	}

	modules = append(modules,
		fx.Invoke(injectNodeComponents(node, cfg)),
		fx.WithLogger(newFxLogger),
	)

	return fx.New(modules...), nil
}

// nodeInjectParams Node 组件注入参数
type nodeInjectParams struct {
	fx.In

	Identity interfaces.Identity
	Host     interfaces.Host
}

// injectNodeComponents 将 Fx 构建的组件注入 Node
func injectNodeComponents(node *Node, cfg *nodeConfig) func(nodeInjectParams) {
	return func(params nodeInjectParams) {
		node.identity = params.Identity
		node.host = params.Host
		if cfg.handler != nil {
			params.Host.SetInboundHandler(cfg.handler)
		}
	}
}

// newFxLogger 返回 Fx 事件日志器
//
// 只在调试级别输出 Fx 事件，避免干扰用户日志。
func newFxLogger() fxevent.Logger {
	if logger.Enabled(slog.LevelDebug) {
		if zl, err := zap.NewDevelopment(); err == nil {
			return &fxevent.ZapLogger{Logger: zl.Named("fx")}
		}
	}
	return &fxevent.ZapLogger{Logger: zap.NewNop()}
}
