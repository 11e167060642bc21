package config

import (
	"errors"
	"fmt"
	"time"

	ma "github.com/multiformats/go-multiaddr"
)

// HostConfig 主机配置
type HostConfig struct {
	// ListenAddrs 监听地址（multiaddr 文本）
	// 端口为 0 时由系统分配
	ListenAddrs []string `json:"listen_addrs"`

	// DialTimeout 单个地址的拨号超时（不含握手）
	DialTimeout Duration `json:"dial_timeout"`

	// PeerCacheSize 路由解析结果缓存条目数
	PeerCacheSize int `json:"peer_cache_size"`
}

// DefaultHostConfig 返回默认主机配置
func DefaultHostConfig() HostConfig {
	return HostConfig{
		ListenAddrs:   []string{"/ip4/127.0.0.1/tcp/0"},
		DialTimeout:   Duration(10 * time.Second),
		PeerCacheSize: 256,
	}
}

// Validate 验证主机配置
func (c HostConfig) Validate() error {
	for _, s := range c.ListenAddrs {
		if _, err := ma.NewMultiaddr(s); err != nil {
			return fmt.Errorf("invalid listen address %q: %w", s, err)
		}
	}
	if c.DialTimeout <= 0 {
		return errors.New("dial timeout must be positive")
	}
	if c.PeerCacheSize <= 0 {
		return errors.New("peer cache size must be positive")
	}
	return nil
}

// WithListenAddrs 设置监听地址
func (c HostConfig) WithListenAddrs(addrs ...string) HostConfig {
	c.ListenAddrs = append([]string(nil), addrs...)
	return c
}

// WithDialTimeout 设置拨号超时
func (c HostConfig) WithDialTimeout(timeout time.Duration) HostConfig {
	c.DialTimeout = Duration(timeout)
	return c
}

// WithPeerCacheSize 设置节点缓存大小
func (c HostConfig) WithPeerCacheSize(size int) HostConfig {
	c.PeerCacheSize = size
	return c
}
