package identity

import "errors"

// ============================================================================
// 错误定义
// ============================================================================

var (
	// ErrNilPrivateKey 私钥为 nil
	ErrNilPrivateKey = errors.New("private key is nil")

	// ErrNilPublicKey 公钥为 nil
	ErrNilPublicKey = errors.New("public key is nil")

	// ErrInvalidSignature 无效的签名
	ErrInvalidSignature = errors.New("invalid signature")

	// ErrFailedToGenerateKey 密钥生成失败
	ErrFailedToGenerateKey = errors.New("failed to generate key")
)
