package identity

import (
	"context"

	"github.com/libp2p/go-libp2p/core/crypto"
	"go.uber.org/fx"

	"github.com/dep2p/go-seclink/config"
	"github.com/dep2p/go-seclink/pkg/interfaces"
	"github.com/dep2p/go-seclink/pkg/lib/log"
)

var logger = log.Logger("core/identity")

// ============================================================================
//                              模块输入依赖
// ============================================================================

// ModuleInput 定义模块输入依赖
type ModuleInput struct {
	fx.In

	// Config 配置（可选，使用默认配置）
	Config *config.Config `optional:"true"`

	// PrivateKey 直接注入的身份私钥（可选，优先于生成）
	PrivateKey crypto.PrivKey `name:"identity_key" optional:"true"`
}

// ============================================================================
//                              模块输出服务
// ============================================================================

// ModuleOutput 定义模块输出服务
type ModuleOutput struct {
	fx.Out

	Identity interfaces.Identity
}

// ============================================================================
//                              服务提供
// ============================================================================

// ProvideServices 提供模块服务
//
// 优先级：注入的私钥 > 按配置生成。
func ProvideServices(input ModuleInput) (ModuleOutput, error) {
	if input.PrivateKey != nil {
		id, err := New(input.PrivateKey)
		if err != nil {
			return ModuleOutput{}, err
		}
		return ModuleOutput{Identity: id}, nil
	}

	cfg := config.DefaultIdentityConfig()
	if input.Config != nil {
		cfg = input.Config.Identity
	}
	id, err := Generate(cfg)
	if err != nil {
		return ModuleOutput{}, err
	}
	return ModuleOutput{Identity: id}, nil
}

// ============================================================================
//                              模块定义
// ============================================================================

// Module 返回 fx 模块配置
func Module() fx.Option {
	return fx.Module("identity",
		fx.Provide(ProvideServices),
		fx.Invoke(registerLifecycle),
	)
}

// lifecycleInput 生命周期输入参数
type lifecycleInput struct {
	fx.In
	LC       fx.Lifecycle
	Identity interfaces.Identity
}

// registerLifecycle 注册生命周期
func registerLifecycle(input lifecycleInput) {
	input.LC.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			logger.Info("身份已就绪", "peerID", input.Identity.PeerID().ShortString())
			return nil
		},
	})
}

// ============================================================================
//                              模块元信息
// ============================================================================

// 模块元信息常量
const (
	// Version 模块版本
	Version = "1.0.0"
	// Name 模块名称
	Name = "identity"
	// Description 模块描述
	Description = "身份模块，提供长期身份密钥对与节点 ID"
)
