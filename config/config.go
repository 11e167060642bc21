// Package config 提供 seclink 的配置结构
//
// 本包采用嵌入式配置模式：
//   - 主 Config 结构体嵌入所有子配置
//   - 每个子配置在独立文件中定义，带有默认值、校验和 With* 辅助方法
//   - 支持 JSON 编解码（时长使用 "30s" 形式的字符串）
//
// 配置文件的加载与持久化不在本包范围内，调用方自行决定来源。
//
// 使用示例：
//
//	cfg := config.NewConfig()
//	cfg.Security = cfg.Security.WithHandshakeTimeout(10 * time.Second)
//	cfg.Host = cfg.Host.WithListenAddrs("/ip4/127.0.0.1/tcp/0")
//	if err := cfg.Validate(); err != nil {
//	    return err
//	}
package config

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Config 是 seclink 的完整配置结构
//
// 配置按照功能模块组织：
//   - Identity: 身份密钥类型
//   - Security: 安全通道（Noise）
//   - Host: 监听地址、拨号与节点缓存
type Config struct {
	// Identity 身份配置
	Identity IdentityConfig `json:"identity"`

	// Security 安全传输配置
	Security SecurityConfig `json:"security"`

	// Host 主机配置
	Host HostConfig `json:"host"`
}

// NewConfig 创建默认配置
func NewConfig() *Config {
	return &Config{
		Identity: DefaultIdentityConfig(),
		Security: DefaultSecurityConfig(),
		Host:     DefaultHostConfig(),
	}
}

// Validate 验证配置的有效性
//
// 依次检查各子配置，返回第一个错误（带子配置前缀）。
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	if err := c.Identity.Validate(); err != nil {
		return fmt.Errorf("identity: %w", err)
	}
	if err := c.Security.Validate(); err != nil {
		return fmt.Errorf("security: %w", err)
	}
	if err := c.Host.Validate(); err != nil {
		return fmt.Errorf("host: %w", err)
	}
	return nil
}

// FromJSON 从 JSON 数据解析配置
//
// 未出现的字段保留默认值，解析后执行校验。
func FromJSON(data []byte) (*Config, error) {
	cfg := NewConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ToJSON 将配置编码为带缩进的 JSON
func (c *Config) ToJSON() ([]byte, error) {
	return json.MarshalIndent(c, "", "  ")
}
