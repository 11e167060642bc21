package interfaces

import (
	"github.com/libp2p/go-libp2p/core/crypto"

	"github.com/dep2p/go-seclink/pkg/types"
)

// Identity 节点身份接口
//
// 长期网络身份密钥对在构造后只读，可被并发握手共享。
type Identity interface {
	// PeerID 返回节点 ID
	PeerID() types.PeerID

	// PrivateKey 返回身份私钥
	PrivateKey() crypto.PrivKey

	// PublicKey 返回身份公钥
	PublicKey() crypto.PubKey

	// Sign 使用身份私钥签名
	Sign(data []byte) ([]byte, error)
}
