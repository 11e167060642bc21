package noise

import (
	"errors"
	"fmt"

	"github.com/dep2p/go-seclink/pkg/types"
)

var (
	// ErrNilIdentityKey 未提供身份私钥
	ErrNilIdentityKey = errors.New("noise: identity key is nil")

	// ErrNilConn 原始连接为 nil
	ErrNilConn = errors.New("noise: conn is nil")

	// ErrInvalidStaticKey 静态密钥对不是有效的 X25519 密钥对
	ErrInvalidStaticKey = errors.New("noise: invalid static key")

	// ErrEarlyDataTooLarge 早期数据无法装入单个握手消息
	ErrEarlyDataTooLarge = errors.New("noise: early data too large")
)

// handshakeError 包装为 ErrHandshakeFailure
func handshakeError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", types.ErrHandshakeFailure, fmt.Sprintf(format, args...))
}

// connectionError 包装为 ErrConnectionFailure
func connectionError(step string, err error) error {
	return fmt.Errorf("%w: %s: %w", types.ErrConnectionFailure, step, err)
}

// unsupportedError 包装为 ErrUnsupportedFeature
func unsupportedError(feature string) error {
	return fmt.Errorf("%w: noise %s", types.ErrUnsupportedFeature, feature)
}
