package host

import (
	"fmt"
	"time"

	ma "github.com/multiformats/go-multiaddr"

	"github.com/dep2p/go-seclink/config"
)

// Config Host 配置
type Config struct {
	// ListenAddrs 启动时监听的地址
	ListenAddrs []ma.Multiaddr

	// DialTimeout 单个地址的 TCP 拨号超时（不含握手）
	DialTimeout time.Duration

	// PeerCacheSize 路由解析结果缓存条目数
	PeerCacheSize int
}

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	cfg, err := ConfigFromUnified(nil)
	if err != nil {
		// 默认配置的地址是常量，解析不会失败
		panic(err)
	}
	return cfg
}

// ConfigFromUnified 从统一配置创建 Host 配置
func ConfigFromUnified(cfg *config.Config) (*Config, error) {
	hostCfg := config.DefaultHostConfig()
	if cfg != nil {
		hostCfg = cfg.Host
	}
	if err := hostCfg.Validate(); err != nil {
		return nil, fmt.Errorf("host config: %w", err)
	}

	addrs := make([]ma.Multiaddr, 0, len(hostCfg.ListenAddrs))
	for _, s := range hostCfg.ListenAddrs {
		addr, err := ma.NewMultiaddr(s)
		if err != nil {
			return nil, fmt.Errorf("listen address %q: %w", s, err)
		}
		addrs = append(addrs, addr)
	}

	return &Config{
		ListenAddrs:   addrs,
		DialTimeout:   hostCfg.DialTimeout.Duration(),
		PeerCacheSize: hostCfg.PeerCacheSize,
	}, nil
}
