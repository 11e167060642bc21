package identity

import (
	"crypto/rand"
	"fmt"

	"github.com/libp2p/go-libp2p/core/crypto"

	"github.com/dep2p/go-seclink/config"
	"github.com/dep2p/go-seclink/pkg/interfaces"
	"github.com/dep2p/go-seclink/pkg/types"
)

// ============================================================================
//                              Identity 实现
// ============================================================================

// Identity 节点身份
type Identity struct {
	privateKey crypto.PrivKey
	publicKey  crypto.PubKey
	peerID     types.PeerID
}

// 确保实现接口
var _ interfaces.Identity = (*Identity)(nil)

// New 从私钥创建身份
func New(priv crypto.PrivKey) (*Identity, error) {
	if priv == nil {
		return nil, ErrNilPrivateKey
	}
	pub := priv.GetPublic()
	id, err := types.PeerIDFromPublicKey(pub)
	if err != nil {
		return nil, fmt.Errorf("derive peer id: %w", err)
	}
	return &Identity{
		privateKey: priv,
		publicKey:  pub,
		peerID:     id,
	}, nil
}

// Generate 按配置生成新身份
func Generate(cfg config.IdentityConfig) (*Identity, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	priv, _, err := crypto.GenerateKeyPairWithReader(keyType(cfg.KeyType), cfg.RSABits, rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFailedToGenerateKey, err)
	}
	return New(priv)
}

// keyType 将配置中的密钥类型映射为 libp2p 密钥类型
func keyType(name string) int {
	switch name {
	case config.KeyTypeRSA:
		return crypto.RSA
	case config.KeyTypeECDSA:
		return crypto.ECDSA
	case config.KeyTypeSecp256k1:
		return crypto.Secp256k1
	default:
		return crypto.Ed25519
	}
}

// PeerID 返回节点 ID
func (i *Identity) PeerID() types.PeerID {
	return i.peerID
}

// PublicKey 返回公钥
func (i *Identity) PublicKey() crypto.PubKey {
	return i.publicKey
}

// PrivateKey 返回私钥
func (i *Identity) PrivateKey() crypto.PrivKey {
	return i.privateKey
}

// Sign 签名数据
func (i *Identity) Sign(data []byte) ([]byte, error) {
	return i.privateKey.Sign(data)
}

// KeyType 返回密钥类型
func (i *Identity) KeyType() string {
	return i.privateKey.Type().String()
}
