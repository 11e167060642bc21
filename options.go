package seclink

import (
	"errors"
	"fmt"
	"time"

	"github.com/libp2p/go-libp2p/core/crypto"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"

	"github.com/dep2p/go-seclink/config"
	"github.com/dep2p/go-seclink/pkg/interfaces"
)

// Option 用户配置选项函数
type Option func(*nodeConfig) error

// nodeConfig 内部节点配置
type nodeConfig struct {
	// config 统一配置
	config *config.Config

	// identityKey 身份私钥，为空时按 config.Identity 生成
	identityKey crypto.PrivKey

	// routing 外部路由，为空时使用节点私有的内存路由
	routing interfaces.PeerRouting

	// registerer 握手指标注册表
	registerer prometheus.Registerer

	// handler 入站连接处理函数
	handler interfaces.ConnHandler

	// userFxOptions 用户自定义 Fx 选项
	userFxOptions []fx.Option
}

// newNodeConfig 创建默认节点配置
func newNodeConfig() *nodeConfig {
	return &nodeConfig{
		config: config.NewConfig(),
	}
}

// WithConfig 使用完整配置替换默认配置
//
// 保存的是 cfg 的副本，之后的选项不会修改调用方的配置。
// 选项按顺序应用：WithConfig 会覆盖它之前的 WithListenAddrs 等字段选项，
// 应放在最前面。
func WithConfig(cfg *config.Config) Option {
	return func(c *nodeConfig) error {
		if cfg == nil {
			return errors.New("nil config")
		}
		cp := *cfg
		cp.Host.ListenAddrs = append([]string(nil), cfg.Host.ListenAddrs...)
		cp.Security.Noise.EarlyData = append([]byte(nil), cfg.Security.Noise.EarlyData...)
		c.config = &cp
		return nil
	}
}

// WithIdentity 设置身份私钥
func WithIdentity(key crypto.PrivKey) Option {
	return func(c *nodeConfig) error {
		if key == nil {
			return errors.New("nil identity key")
		}
		c.identityKey = key
		return nil
	}
}

// WithKeyType 设置生成身份密钥时使用的密钥类型
func WithKeyType(keyType string) Option {
	return func(c *nodeConfig) error {
		c.config.Identity = c.config.Identity.WithKeyType(keyType)
		return nil
	}
}

// WithListenAddrs 设置监听地址
func WithListenAddrs(addrs ...string) Option {
	return func(c *nodeConfig) error {
		c.config.Host = c.config.Host.WithListenAddrs(addrs...)
		return nil
	}
}

// WithDialTimeout 设置单个地址的拨号超时
func WithDialTimeout(timeout time.Duration) Option {
	return func(c *nodeConfig) error {
		if timeout <= 0 {
			return fmt.Errorf("dial timeout must be positive: %s", timeout)
		}
		c.config.Host = c.config.Host.WithDialTimeout(timeout)
		return nil
	}
}

// WithHandshakeTimeout 设置 Noise 握手超时，0 表示只受调用方 context 约束
func WithHandshakeTimeout(timeout time.Duration) Option {
	return func(c *nodeConfig) error {
		if timeout < 0 {
			return fmt.Errorf("handshake timeout must not be negative: %s", timeout)
		}
		c.config.Security = c.config.Security.WithHandshakeTimeout(timeout)
		return nil
	}
}

// WithEarlyData 设置握手中携带的早期数据
func WithEarlyData(data []byte) Option {
	return func(c *nodeConfig) error {
		c.config.Security = c.config.Security.WithEarlyData(data)
		return nil
	}
}

// WithRouting 设置节点路由
//
// 共享同一路由的节点启动后发布自己的地址，可以只凭 PeerID 互相连接。
func WithRouting(r interfaces.PeerRouting) Option {
	return func(c *nodeConfig) error {
		if r == nil {
			return errors.New("nil routing")
		}
		c.routing = r
		return nil
	}
}

// WithMetrics 在指定注册表上记录握手指标
func WithMetrics(reg prometheus.Registerer) Option {
	return func(c *nodeConfig) error {
		c.registerer = reg
		return nil
	}
}

// WithInboundHandler 设置入站连接处理函数
func WithInboundHandler(handler interfaces.ConnHandler) Option {
	return func(c *nodeConfig) error {
		c.handler = handler
		return nil
	}
}

// WithFxOption 追加自定义 Fx 选项
func WithFxOption(opts ...fx.Option) Option {
	return func(c *nodeConfig) error {
		c.userFxOptions = append(c.userFxOptions, opts...)
		return nil
	}
}
