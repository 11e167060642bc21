package noise

import (
	"context"
	"encoding/binary"
	"io"
	"net"

	"github.com/flynn/noise"
	pool "github.com/libp2p/go-buffer-pool"

	"github.com/dep2p/go-seclink/pkg/types"
)

// cipherSuite Noise_XX_25519_ChaChaPoly_SHA256
var cipherSuite = noise.NewCipherSuite(noise.DH25519, noise.CipherChaChaPoly, noise.HashSHA256)

const (
	// maxFrameSize 单帧最大长度（2 字节长度前缀）
	maxFrameSize = 65535

	// macSize ChaChaPoly 认证标签长度
	macSize = 16

	// maxPlaintextSize 单帧可承载的最大明文
	maxPlaintextSize = maxFrameSize - macSize

	// maxPayloadSize 消息 2 中 payload 的上限：e(32) + 加密的 s(32+16) + payload 标签(16)
	maxPayloadSize = maxFrameSize - 32 - (32 + macSize) - macSize
)

// ============================================================================
// Noise XX 握手实现
// ============================================================================

// xxPattern Noise XX 握手
//
//	-> e
//	<- e, ee, s, es, payload
//	-> s, se, payload
//
// 早期数据只出现在消息 2 和 3 的加密 payload 中。
type xxPattern struct {
	t *Transport
}

// xxSession 一次 XX 握手的会话状态
//
// 由单次握手独占，握手结束后丢弃。临时密钥由 HandshakeState 在写出第一条
// 含 e 的消息时新生成，不会跨握手复用。
type xxSession struct {
	hs     *noise.HandshakeState
	remote *remoteIdentity

	sendCS *noise.CipherState
	recvCS *noise.CipherState
}

func (p *xxPattern) newSession(initiator bool) (*xxSession, error) {
	hs, err := noise.NewHandshakeState(noise.Config{
		CipherSuite:   cipherSuite,
		Pattern:       noise.HandshakeXX,
		Initiator:     initiator,
		StaticKeypair: p.t.staticKey,
	})
	if err != nil {
		return nil, handshakeError("create handshake state: %v", err)
	}
	return &xxSession{hs: hs}, nil
}

// handshakeOutbound 客户端握手（发起者）
//
//  1. -> e                              (发送临时公钥，空 payload)
//  2. <- e, ee, s, es, payload          (验证响应者身份与期望一致)
//  3. -> s, se, payload                 (发送本地静态公钥和 payload)
func (p *xxPattern) handshakeOutbound(_ context.Context, conn net.Conn, expected types.PeerID) (*secureConn, error) {
	s, err := p.newSession(true)
	if err != nil {
		return nil, err
	}

	// 轮次 1: 发送 e（空 payload）
	msg1, _, _, err := s.hs.WriteMessage(nil, nil)
	if err != nil {
		return nil, handshakeError("write message 1: %v", err)
	}
	if err := writeFrame(conn, msg1, "send message 1"); err != nil {
		return nil, err
	}

	// 轮次 2: 接收 e, ee, s, es, payload
	msg2, err := readFrame(conn, "receive message 2")
	if err != nil {
		return nil, err
	}
	payload2, _, _, err := s.hs.ReadMessage(nil, msg2)
	if err != nil {
		return nil, handshakeError("read message 2: %v", err)
	}
	if err := s.verifyRemote(payload2); err != nil {
		return nil, err
	}

	// 发送消息 3 之前确认对端就是要连接的节点
	if s.remote.peerID != expected {
		return nil, &types.PeerIDMismatchError{Expected: expected, Actual: s.remote.peerID}
	}

	// 轮次 3: 发送 s, se, payload
	msg3, cs1, cs2, err := s.hs.WriteMessage(nil, p.t.localPayload)
	if err != nil {
		return nil, handshakeError("write message 3: %v", err)
	}
	if err := writeFrame(conn, msg3, "send message 3"); err != nil {
		return nil, err
	}

	// 发起者：cs1 发送，cs2 接收
	s.sendCS, s.recvCS = cs1, cs2
	return s.secureConn(p.t, conn, true), nil
}

// handshakeInbound 服务器握手（响应者）
//
//  1. <- e
//  2. -> e, ee, s, es, payload
//  3. <- s, se, payload                 (验证发起者身份)
func (p *xxPattern) handshakeInbound(_ context.Context, conn net.Conn) (*secureConn, error) {
	s, err := p.newSession(false)
	if err != nil {
		return nil, err
	}

	// 轮次 1: 接收 e
	msg1, err := readFrame(conn, "receive message 1")
	if err != nil {
		return nil, err
	}
	if _, _, _, err := s.hs.ReadMessage(nil, msg1); err != nil {
		return nil, handshakeError("read message 1: %v", err)
	}

	// 轮次 2: 发送 e, ee, s, es, payload
	msg2, _, _, err := s.hs.WriteMessage(nil, p.t.localPayload)
	if err != nil {
		return nil, handshakeError("write message 2: %v", err)
	}
	if err := writeFrame(conn, msg2, "send message 2"); err != nil {
		return nil, err
	}

	// 轮次 3: 接收 s, se, payload
	msg3, err := readFrame(conn, "receive message 3")
	if err != nil {
		return nil, err
	}
	payload3, cs1, cs2, err := s.hs.ReadMessage(nil, msg3)
	if err != nil {
		return nil, handshakeError("read message 3: %v", err)
	}
	if err := s.verifyRemote(payload3); err != nil {
		return nil, err
	}

	// 响应者：与发起者相反
	s.sendCS, s.recvCS = cs2, cs1
	return s.secureConn(p.t, conn, false), nil
}

// verifyRemote 验证远端 payload 并记录其身份
func (s *xxSession) verifyRemote(payload []byte) error {
	remoteStatic := s.hs.PeerStatic()
	if len(remoteStatic) != noise.DH25519.DHLen() {
		return handshakeError("invalid remote static key length: %d", len(remoteStatic))
	}
	remote, err := handleRemotePayload(payload, remoteStatic)
	if err != nil {
		return err
	}
	s.remote = remote
	return nil
}

// secureConn 用握手结果构造安全连接
func (s *xxSession) secureConn(t *Transport, conn net.Conn, initiator bool) *secureConn {
	return &secureConn{
		Conn:            conn,
		sendCS:          s.sendCS,
		recvCS:          s.recvCS,
		localPeer:       t.localPeer,
		localKey:        t.identityKey.GetPublic(),
		remotePeer:      s.remote.peerID,
		remoteKey:       s.remote.publicKey,
		remoteEarlyData: s.remote.earlyData,
		initiator:       initiator,
		pattern:         PatternXX,
	}
}

// ============================================================================
// 帧读写
// ============================================================================

// writeFrame 写入帧（2 字节长度 + 数据），一次 Write 完成
func writeFrame(w io.Writer, data []byte, step string) error {
	if len(data) > maxFrameSize {
		return handshakeError("%s: message too large: %d", step, len(data))
	}
	buf := pool.Get(2 + len(data))
	defer pool.Put(buf)

	binary.BigEndian.PutUint16(buf, uint16(len(data)))
	copy(buf[2:], data)
	if _, err := w.Write(buf); err != nil {
		return connectionError(step, err)
	}
	return nil
}

// readFrame 读取帧（2 字节长度 + 数据）
func readFrame(r io.Reader, step string) ([]byte, error) {
	var lenBuf [2]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return nil, connectionError(step, err)
	}

	data := make([]byte, binary.BigEndian.Uint16(lenBuf[:]))
	if _, err := io.ReadFull(r, data); err != nil {
		return nil, connectionError(step, err)
	}
	return data, nil
}
