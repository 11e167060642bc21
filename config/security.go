package config

import (
	"errors"
	"time"
)

// Noise 握手模式取值
const (
	NoisePatternXX = "XX"
	NoisePatternIK = "IK"
)

// SecurityConfig 安全传输配置
type SecurityConfig struct {
	// Noise Noise 配置
	Noise NoiseConfig `json:"noise"`
}

// NoiseConfig Noise 配置
type NoiseConfig struct {
	// Pattern Noise 握手模式
	// 可选值: "XX", "IK"（IK 尚未实现，构造传输时会失败）
	Pattern string `json:"pattern"`

	// HandshakeTimeout 握手超时，0 表示只受调用方 context 约束
	HandshakeTimeout Duration `json:"handshake_timeout,omitempty"`

	// NoisePipes 是否启用 Noise Pipes（尚未实现）
	NoisePipes bool `json:"noise_pipes,omitempty"`

	// EarlyData 握手消息 2/3 中携带的早期数据
	EarlyData []byte `json:"early_data,omitempty"`
}

// DefaultSecurityConfig 返回默认安全配置
func DefaultSecurityConfig() SecurityConfig {
	return SecurityConfig{
		Noise: NoiseConfig{
			Pattern:          NoisePatternXX,
			HandshakeTimeout: Duration(30 * time.Second),
		},
	}
}

// Validate 验证安全配置
//
// 只检查取值合法性；IK 与 Noise Pipes 是否可用由传输构造时判定。
func (c SecurityConfig) Validate() error {
	if c.Noise.Pattern != NoisePatternXX && c.Noise.Pattern != NoisePatternIK {
		return errors.New("noise pattern must be 'XX' or 'IK'")
	}
	if c.Noise.HandshakeTimeout < 0 {
		return errors.New("noise handshake timeout must not be negative")
	}
	if len(c.Noise.EarlyData) > maxEarlyData {
		return errors.New("noise early data too large")
	}
	return nil
}

// maxEarlyData 早期数据上限（需与身份公钥和签名一起装进单个握手帧）
const maxEarlyData = 60 * 1024

// WithPattern 设置握手模式
func (c SecurityConfig) WithPattern(pattern string) SecurityConfig {
	c.Noise.Pattern = pattern
	return c
}

// WithHandshakeTimeout 设置握手超时
func (c SecurityConfig) WithHandshakeTimeout(timeout time.Duration) SecurityConfig {
	c.Noise.HandshakeTimeout = Duration(timeout)
	return c
}

// WithNoisePipes 设置是否启用 Noise Pipes
func (c SecurityConfig) WithNoisePipes(enabled bool) SecurityConfig {
	c.Noise.NoisePipes = enabled
	return c
}

// WithEarlyData 设置早期数据
func (c SecurityConfig) WithEarlyData(data []byte) SecurityConfig {
	c.Noise.EarlyData = append([]byte(nil), data...)
	return c
}
