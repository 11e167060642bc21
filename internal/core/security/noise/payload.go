package noise

import (
	"fmt"

	"github.com/libp2p/go-libp2p/core/crypto"
	"google.golang.org/protobuf/encoding/protowire"

	"github.com/dep2p/go-seclink/internal/core/identity"
	"github.com/dep2p/go-seclink/pkg/types"
)

// payloadSigPrefix 是签名 payload 的前缀
// 与 libp2p-noise 规范兼容
const payloadSigPrefix = "noise-libp2p-static-key:"

// payload 字段号
const (
	fieldIdentityKey protowire.Number = 1
	fieldIdentitySig protowire.Number = 2
	fieldData        protowire.Number = 3
)

// ============================================================================
// 握手 payload
// ============================================================================

// handshakePayload 握手 payload
//
//	message NoiseHandshakePayload {
//	    bytes identity_key = 1;
//	    bytes identity_sig = 2;
//	    bytes data         = 3;
//	}
type handshakePayload struct {
	IdentityKey []byte
	IdentitySig []byte
	Data        []byte
}

// marshal 编码为 protobuf 线格式，空字段省略
func (p *handshakePayload) marshal() []byte {
	size := 0
	for _, f := range [][]byte{p.IdentityKey, p.IdentitySig, p.Data} {
		if len(f) > 0 {
			size += protowire.SizeTag(fieldData) + protowire.SizeBytes(len(f))
		}
	}
	b := make([]byte, 0, size)
	b = appendBytesField(b, fieldIdentityKey, p.IdentityKey)
	b = appendBytesField(b, fieldIdentitySig, p.IdentitySig)
	b = appendBytesField(b, fieldData, p.Data)
	return b
}

func appendBytesField(b []byte, num protowire.Number, v []byte) []byte {
	if len(v) == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, v)
}

// unmarshal 解析 protobuf 线格式，未知字段跳过
func (p *handshakePayload) unmarshal(b []byte) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]

		if typ != protowire.BytesType || num < fieldIdentityKey || num > fieldData {
			n = protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return protowire.ParseError(n)
			}
			b = b[n:]
			continue
		}

		v, n := protowire.ConsumeBytes(b)
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]

		v = append([]byte(nil), v...)
		switch num {
		case fieldIdentityKey:
			p.IdentityKey = v
		case fieldIdentitySig:
			p.IdentitySig = v
		case fieldData:
			p.Data = v
		}
	}
	return nil
}

// ============================================================================
// 签名与验证
// ============================================================================

// generateHandshakePayload 生成本地握手 payload
//
// identity_sig = Sign("noise-libp2p-static-key:" + static_pubkey)
func generateHandshakePayload(identityKey crypto.PrivKey, staticPub []byte, earlyData []byte) ([]byte, error) {
	pubKeyBytes, err := crypto.MarshalPublicKey(identityKey.GetPublic())
	if err != nil {
		return nil, fmt.Errorf("marshal public key: %w", err)
	}

	signature, err := identityKey.Sign(append([]byte(payloadSigPrefix), staticPub...))
	if err != nil {
		return nil, fmt.Errorf("sign payload: %w", err)
	}

	payload := &handshakePayload{
		IdentityKey: pubKeyBytes,
		IdentitySig: signature,
		Data:        earlyData,
	}
	return payload.marshal(), nil
}

// remoteIdentity 远端在握手中证明的身份
type remoteIdentity struct {
	peerID    types.PeerID
	publicKey crypto.PubKey
	earlyData []byte
}

// handleRemotePayload 处理远端 payload
//
// 验证签名把远端静态公钥绑定到其身份公钥，并派生 PeerID。
// 任何失败都是 ErrHandshakeFailure。
func handleRemotePayload(payloadBytes []byte, remoteStatic []byte) (*remoteIdentity, error) {
	var payload handshakePayload
	if err := payload.unmarshal(payloadBytes); err != nil {
		return nil, handshakeError("unmarshal payload: %v", err)
	}

	remotePubKey, err := crypto.UnmarshalPublicKey(payload.IdentityKey)
	if err != nil {
		return nil, handshakeError("unmarshal remote public key: %v", err)
	}

	toVerify := append([]byte(payloadSigPrefix), remoteStatic...)
	if err := identity.Verify(remotePubKey, toVerify, payload.IdentitySig); err != nil {
		return nil, handshakeError("remote static key not bound to identity key: %v", err)
	}

	peerID, err := types.PeerIDFromPublicKey(remotePubKey)
	if err != nil {
		return nil, handshakeError("derive peer id: %v", err)
	}

	return &remoteIdentity{
		peerID:    peerID,
		publicKey: remotePubKey,
		earlyData: payload.Data,
	}, nil
}
