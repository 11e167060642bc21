package noise

import (
	"encoding/binary"
	"fmt"
	"io"
	"net"
	"sync"

	"github.com/flynn/noise"
	pool "github.com/libp2p/go-buffer-pool"
	"github.com/libp2p/go-libp2p/core/crypto"

	"github.com/dep2p/go-seclink/pkg/interfaces"
	"github.com/dep2p/go-seclink/pkg/types"
)

// ============================================================================
// Secure Connection 实现
// ============================================================================

// secureConn Noise 安全连接
//
// 每个方向一个 CipherState，nonce 随帧递增。读写各自加锁，可以并发读写，
// 但同一方向的并发调用会被串行化。
type secureConn struct {
	net.Conn

	// Noise cipher states
	sendCS *noise.CipherState
	recvCS *noise.CipherState

	// 节点信息
	localPeer       types.PeerID
	localKey        crypto.PubKey
	remotePeer      types.PeerID
	remoteKey       crypto.PubKey
	remoteEarlyData []byte
	initiator       bool
	pattern         Pattern

	// 读写锁
	readMu  sync.Mutex
	writeMu sync.Mutex

	// 未读完的明文（readPooled 为其所在的池化缓冲区）
	readBuf    []byte
	readPooled []byte
}

// 确保实现接口
var _ interfaces.SecureConn = (*secureConn)(nil)

// ============================================================================
// 接口实现
// ============================================================================

// Read 从连接读取数据（解密）
//
// 一帧明文比 p 大时，剩余部分留到下一次 Read。
func (c *secureConn) Read(p []byte) (int, error) {
	c.readMu.Lock()
	defer c.readMu.Unlock()

	if len(c.readBuf) > 0 {
		n := copy(p, c.readBuf)
		c.readBuf = c.readBuf[n:]
		if len(c.readBuf) == 0 {
			pool.Put(c.readPooled)
			c.readBuf, c.readPooled = nil, nil
		}
		return n, nil
	}
	if len(p) == 0 {
		return 0, nil
	}

	var lenBuf [2]byte
	if _, err := io.ReadFull(c.Conn, lenBuf[:]); err != nil {
		return 0, err
	}
	frameLen := int(binary.BigEndian.Uint16(lenBuf[:]))
	if frameLen < macSize {
		return 0, fmt.Errorf("noise: frame too short: %d", frameLen)
	}

	frame := pool.Get(frameLen)
	defer pool.Put(frame)
	if _, err := io.ReadFull(c.Conn, frame); err != nil {
		return 0, err
	}

	// 目标足够大时直接解密到 p
	if len(p) >= frameLen-macSize {
		plaintext, err := c.recvCS.Decrypt(p[:0], nil, frame)
		if err != nil {
			return 0, fmt.Errorf("noise: decrypt: %w", err)
		}
		return len(plaintext), nil
	}

	buf := pool.Get(frameLen)
	plaintext, err := c.recvCS.Decrypt(buf[:0], nil, frame)
	if err != nil {
		pool.Put(buf)
		return 0, fmt.Errorf("noise: decrypt: %w", err)
	}
	n := copy(p, plaintext)
	c.readBuf, c.readPooled = plaintext[n:], buf
	return n, nil
}

// Write 向连接写入数据（加密）
//
// 超过单帧明文上限的数据被拆成多帧；空写入不产生帧。
func (c *secureConn) Write(data []byte) (int, error) {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if len(data) == 0 {
		return 0, nil
	}

	buf := pool.Get(2 + min(len(data), maxPlaintextSize) + macSize)
	defer pool.Put(buf)

	written := 0
	for written < len(data) {
		end := min(written+maxPlaintextSize, len(data))

		frame, err := c.sendCS.Encrypt(buf[:2], nil, data[written:end])
		if err != nil {
			return written, fmt.Errorf("noise: encrypt: %w", err)
		}
		binary.BigEndian.PutUint16(frame, uint16(len(frame)-2))

		if _, err := c.Conn.Write(frame); err != nil {
			return written, err
		}
		written = end
	}
	return written, nil
}

// LocalPeer 返回本地节点 ID
func (c *secureConn) LocalPeer() types.PeerID {
	return c.localPeer
}

// LocalPublicKey 返回本地身份公钥
func (c *secureConn) LocalPublicKey() crypto.PubKey {
	return c.localKey
}

// RemotePeer 返回远端节点 ID
func (c *secureConn) RemotePeer() types.PeerID {
	return c.remotePeer
}

// RemotePublicKey 返回远端身份公钥
func (c *secureConn) RemotePublicKey() crypto.PubKey {
	return c.remoteKey
}

// RemoteEarlyData 返回远端在握手中携带的早期数据
func (c *secureConn) RemoteEarlyData() []byte {
	return c.remoteEarlyData
}

// ConnState 返回连接状态
func (c *secureConn) ConnState() interfaces.SecureConnState {
	return interfaces.SecureConnState{
		Protocol:   ID,
		Pattern:    c.pattern.String(),
		LocalPeer:  c.localPeer,
		RemotePeer: c.remotePeer,
		Initiator:  c.initiator,
		Opened:     true,
	}
}
