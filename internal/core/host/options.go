package host

import (
	"errors"

	"github.com/benbjohnson/clock"

	"github.com/dep2p/go-seclink/pkg/interfaces"
)

// Option Host 构造选项类型
type Option func(*Host) error

// WithTransport 设置安全传输
func WithTransport(t interfaces.SecureTransport) Option {
	return func(h *Host) error {
		h.transport = t
		return nil
	}
}

// WithRouting 设置节点路由
func WithRouting(r interfaces.PeerRouting) Option {
	return func(h *Host) error {
		h.routing = r
		return nil
	}
}

// WithConfig 设置配置
func WithConfig(cfg *Config) Option {
	return func(h *Host) error {
		if cfg == nil {
			return errors.New("nil host config")
		}
		if cfg.DialTimeout <= 0 {
			return errors.New("dial timeout must be positive")
		}
		if cfg.PeerCacheSize <= 0 {
			return errors.New("peer cache size must be positive")
		}
		h.config = cfg
		return nil
	}
}

// WithClock 设置时钟（连接时间戳与拨号超时）
func WithClock(c clock.Clock) Option {
	return func(h *Host) error {
		h.clock = c
		return nil
	}
}

// WithInboundHandler 设置入站连接处理函数
func WithInboundHandler(handler interfaces.ConnHandler) Option {
	return func(h *Host) error {
		h.SetInboundHandler(handler)
		return nil
	}
}
