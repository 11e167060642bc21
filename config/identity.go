package config

import (
	"errors"
)

// 密钥类型取值
const (
	KeyTypeEd25519   = "Ed25519"
	KeyTypeRSA       = "RSA"
	KeyTypeECDSA     = "ECDSA"
	KeyTypeSecp256k1 = "Secp256k1"
)

// IdentityConfig 身份配置
//
// 只描述如何生成长期身份密钥；密钥的存储与加载由调用方负责。
type IdentityConfig struct {
	// KeyType 密钥类型
	// 可选值: "Ed25519", "RSA", "ECDSA", "Secp256k1"
	KeyType string `json:"key_type"`

	// RSABits RSA 密钥位数，仅当 KeyType="RSA" 时有效
	RSABits int `json:"rsa_bits,omitempty"`
}

// DefaultIdentityConfig 返回默认身份配置
func DefaultIdentityConfig() IdentityConfig {
	return IdentityConfig{
		KeyType: KeyTypeEd25519, // Ed25519：公钥可内联进 PeerID
		RSABits: 2048,
	}
}

// Validate 验证身份配置
func (c IdentityConfig) Validate() error {
	switch c.KeyType {
	case KeyTypeEd25519, KeyTypeECDSA, KeyTypeSecp256k1:
	case KeyTypeRSA:
		if c.RSABits < 2048 {
			return errors.New("RSA key bits must be at least 2048")
		}
		if c.RSABits > 8192 {
			return errors.New("RSA key bits must not exceed 8192")
		}
	default:
		return errors.New("invalid key type: must be Ed25519, RSA, ECDSA, or Secp256k1")
	}
	return nil
}

// WithKeyType 设置密钥类型
func (c IdentityConfig) WithKeyType(keyType string) IdentityConfig {
	c.KeyType = keyType
	return c
}

// WithRSABits 设置 RSA 密钥位数
func (c IdentityConfig) WithRSABits(bits int) IdentityConfig {
	c.RSABits = bits
	return c
}
