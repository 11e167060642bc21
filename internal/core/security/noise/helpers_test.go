package noise

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"io"
	"net"
	"sync"
	"testing"

	"github.com/libp2p/go-libp2p/core/crypto"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/dep2p/go-seclink/pkg/interfaces"
	"github.com/dep2p/go-seclink/pkg/types"
)

// newTestTransport 使用新生成的 Ed25519 身份创建传输
func newTestTransport(t testing.TB, opts ...Option) *Transport {
	t.Helper()
	priv, _, err := crypto.GenerateEd25519Key(rand.Reader)
	require.NoError(t, err)
	tr, err := New(priv, opts...)
	require.NoError(t, err)
	return tr
}

// handshakeResult 双方握手结果
type handshakeResult struct {
	client    interfaces.SecureConn
	server    interfaces.SecureConn
	clientErr error
	serverErr error
}

// close 关闭成功建立的连接
func (r *handshakeResult) close() {
	if r.client != nil {
		_ = r.client.Close()
	}
	if r.server != nil {
		_ = r.server.Close()
	}
}

// runHandshake 并发执行出站和入站握手
func runHandshake(ctx context.Context, client, server *Transport, clientConn, serverConn net.Conn, expected types.PeerID) *handshakeResult {
	res := &handshakeResult{}
	var g errgroup.Group
	g.Go(func() error {
		res.client, res.clientErr = client.SecureOutbound(ctx, clientConn, expected)
		return nil
	})
	g.Go(func() error {
		res.server, res.serverErr = server.SecureInbound(ctx, serverConn)
		return nil
	})
	_ = g.Wait()
	return res
}

// handshakePair 通过 net.Pipe 完成一次握手
func handshakePair(t testing.TB, client, server *Transport) (interfaces.SecureConn, interfaces.SecureConn) {
	t.Helper()
	clientConn, serverConn := net.Pipe()
	res := runHandshake(context.Background(), client, server, clientConn, serverConn, server.LocalPeer())
	t.Cleanup(res.close)
	require.NoError(t, res.clientErr, "client handshake failed")
	require.NoError(t, res.serverErr, "server handshake failed")
	return res.client, res.server
}

// ============================================================================
// 帧中继
// ============================================================================

// frameHook 中继每一帧时调用，n 从 1 开始按方向计数，可原地修改 frame
type frameHook func(n int, frame []byte)

// relayPipe 建立 client <-> relay <-> server 的连接，两个方向分别挂 hook
func relayPipe(clientToServer, serverToClient frameHook) (clientConn, serverConn net.Conn) {
	clientConn, relayClient := net.Pipe()
	relayServer, serverConn := net.Pipe()
	go relayFrames(relayClient, relayServer, clientToServer)
	go relayFrames(relayServer, relayClient, serverToClient)
	return clientConn, serverConn
}

func relayFrames(src, dst net.Conn, hook frameHook) {
	defer dst.Close()
	for n := 1; ; n++ {
		var hdr [2]byte
		if _, err := io.ReadFull(src, hdr[:]); err != nil {
			return
		}
		frame := make([]byte, binary.BigEndian.Uint16(hdr[:]))
		if _, err := io.ReadFull(src, frame); err != nil {
			return
		}
		if hook != nil {
			hook(n, frame)
		}
		if _, err := dst.Write(append(hdr[:], frame...)); err != nil {
			return
		}
	}
}

// flipByte 翻转第 n 帧中 offset 处的一个比特，offset 为负数时从末尾计
func flipByte(target, offset int) frameHook {
	return func(n int, frame []byte) {
		if n != target || len(frame) == 0 {
			return
		}
		i := offset
		if i < 0 {
			i += len(frame)
		}
		frame[i] ^= 0x01
	}
}

// frameRecorder 记录经过的帧
type frameRecorder struct {
	mu     sync.Mutex
	frames [][]byte
}

func (r *frameRecorder) hook(_ int, frame []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frames = append(r.frames, append([]byte(nil), frame...))
}

func (r *frameRecorder) frame(n int) []byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	if n < 1 || n > len(r.frames) {
		return nil
	}
	return r.frames[n-1]
}
