package identity

import (
	"fmt"

	"github.com/libp2p/go-libp2p/core/crypto"
)

// ============================================================================
// 签名验证（简单包装）
// ============================================================================

// Verify 使用公钥验证签名
//
// 签名为空或不匹配都返回 ErrInvalidSignature。
func Verify(pub crypto.PubKey, data, sig []byte) error {
	if pub == nil {
		return ErrNilPublicKey
	}
	if len(sig) == 0 {
		return ErrInvalidSignature
	}
	ok, err := pub.Verify(data, sig)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	if !ok {
		return ErrInvalidSignature
	}
	return nil
}
