package routing

import (
	"go.uber.org/fx"

	"github.com/dep2p/go-seclink/pkg/interfaces"
)

// ModuleOutput 定义模块输出服务
type ModuleOutput struct {
	fx.Out

	Router      *MemoryRouter
	PeerRouting interfaces.PeerRouting
	ValueStore  interfaces.ValueStore
}

// ProvideServices 提供模块服务
func ProvideServices() ModuleOutput {
	r := NewMemoryRouter()
	return ModuleOutput{
		Router:      r,
		PeerRouting: r,
		ValueStore:  r,
	}
}

// Module 返回 fx 模块配置
func Module() fx.Option {
	return fx.Module("routing",
		fx.Provide(ProvideServices),
	)
}
