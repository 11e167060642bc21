package types

import (
	"fmt"

	"github.com/libp2p/go-libp2p/core/crypto"
	"github.com/mr-tron/base58"
	mh "github.com/multiformats/go-multihash"
)

// ============================================================================
//                              PeerID - 节点标识
// ============================================================================

// maxInlineKeyLength 可直接内联（identity multihash）的序列化公钥最大长度
//
// 超过该长度的公钥使用 SHA2-256 摘要。
const maxInlineKeyLength = 42

// PeerID 节点唯一标识符
//
// 内部为序列化公钥的 multihash 原始字节：
//   - 序列化公钥 <= 42 字节（如 Ed25519、Secp256k1）：identity multihash，公钥可还原
//   - 否则（如 RSA、ECDSA）：SHA2-256 multihash
//
// 外部表示为 Base58 编码。两个由同一公钥派生的 PeerID 总是相等（==）。
type PeerID string

// EmptyPeerID 空节点 ID
const EmptyPeerID PeerID = ""

// PeerIDFromPublicKey 从公钥派生 PeerID
func PeerIDFromPublicKey(pub crypto.PubKey) (PeerID, error) {
	if pub == nil {
		return EmptyPeerID, fmt.Errorf("%w: nil public key", ErrInvalidPeerID)
	}
	data, err := crypto.MarshalPublicKey(pub)
	if err != nil {
		return EmptyPeerID, fmt.Errorf("marshal public key: %w", err)
	}

	code := uint64(mh.SHA2_256)
	if len(data) <= maxInlineKeyLength {
		code = mh.IDENTITY
	}
	hash, err := mh.Sum(data, code, -1)
	if err != nil {
		return EmptyPeerID, fmt.Errorf("hash public key: %w", err)
	}
	return PeerID(hash), nil
}

// PeerIDFromPrivateKey 从私钥派生 PeerID
func PeerIDFromPrivateKey(priv crypto.PrivKey) (PeerID, error) {
	if priv == nil {
		return EmptyPeerID, fmt.Errorf("%w: nil private key", ErrInvalidPeerID)
	}
	return PeerIDFromPublicKey(priv.GetPublic())
}

// PeerIDFromBytes 从 multihash 字节创建 PeerID
func PeerIDFromBytes(b []byte) (PeerID, error) {
	if len(b) == 0 {
		return EmptyPeerID, ErrEmptyPeerID
	}
	if _, err := mh.Cast(b); err != nil {
		return EmptyPeerID, fmt.Errorf("%w: %v", ErrInvalidPeerID, err)
	}
	return PeerID(b), nil
}

// ParsePeerID 从 Base58 字符串解析 PeerID
func ParsePeerID(s string) (PeerID, error) {
	if s == "" {
		return EmptyPeerID, ErrEmptyPeerID
	}
	b, err := base58.Decode(s)
	if err != nil {
		return EmptyPeerID, fmt.Errorf("%w: %v", ErrInvalidPeerID, err)
	}
	return PeerIDFromBytes(b)
}

// String 返回 Base58 编码
func (id PeerID) String() string {
	return base58.Encode([]byte(id))
}

// ShortString 返回日志用的短标识
//
// identity multihash 的前几个字符对所有 Ed25519 节点都相同，
// 因此取编码末尾 8 个字符。
func (id PeerID) ShortString() string {
	s := id.String()
	if len(s) <= 8 {
		return s
	}
	return "*" + s[len(s)-8:]
}

// Bytes 返回 multihash 原始字节
func (id PeerID) Bytes() []byte {
	return []byte(id)
}

// IsEmpty 检查是否为空
func (id PeerID) IsEmpty() bool {
	return id == EmptyPeerID
}

// Validate 校验是否为合法 multihash
func (id PeerID) Validate() error {
	if id.IsEmpty() {
		return ErrEmptyPeerID
	}
	if _, err := mh.Cast([]byte(id)); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPeerID, err)
	}
	return nil
}

// ExtractPublicKey 从 identity multihash 中还原公钥
//
// 摘要型 PeerID 无法还原公钥，返回 ErrInvalidPeerID。
func (id PeerID) ExtractPublicKey() (crypto.PubKey, error) {
	decoded, err := mh.Decode([]byte(id))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPeerID, err)
	}
	if decoded.Code != mh.IDENTITY {
		return nil, fmt.Errorf("%w: public key not inlined", ErrInvalidPeerID)
	}
	return crypto.UnmarshalPublicKey(decoded.Digest)
}

// MatchesPublicKey 检查公钥是否派生出该 PeerID
func (id PeerID) MatchesPublicKey(pub crypto.PubKey) bool {
	derived, err := PeerIDFromPublicKey(pub)
	if err != nil {
		return false
	}
	return derived == id
}

// MarshalText 实现 encoding.TextMarshaler
func (id PeerID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// UnmarshalText 实现 encoding.TextUnmarshaler
func (id *PeerID) UnmarshalText(data []byte) error {
	parsed, err := ParsePeerID(string(data))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}
