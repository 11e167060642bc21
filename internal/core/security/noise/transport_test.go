package noise

import (
	"context"
	"crypto/rand"
	"io"
	"net"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/flynn/noise"
	"github.com/libp2p/go-libp2p/core/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dep2p/go-seclink/pkg/types"
)

// ============================================================================
// 构造
// ============================================================================

func TestTransport_New(t *testing.T) {
	priv, pub, err := crypto.GenerateEd25519Key(rand.Reader)
	require.NoError(t, err)

	tr, err := New(priv)
	require.NoError(t, err)

	expected, err := types.PeerIDFromPublicKey(pub)
	require.NoError(t, err)
	assert.Equal(t, expected, tr.LocalPeer())
	assert.Equal(t, types.ProtocolID("/noise"), tr.ID())
	assert.Equal(t, PatternXX, tr.Pattern())
	assert.Len(t, tr.StaticPublicKey(), 32)
}

func TestTransport_New_NilIdentity(t *testing.T) {
	tr, err := New(nil)
	assert.ErrorIs(t, err, ErrNilIdentityKey)
	assert.Nil(t, tr)
}

func TestTransport_New_GeneratesDistinctStaticKeys(t *testing.T) {
	priv, _, err := crypto.GenerateEd25519Key(rand.Reader)
	require.NoError(t, err)

	a, err := New(priv)
	require.NoError(t, err)
	b, err := New(priv)
	require.NoError(t, err)

	assert.Equal(t, a.LocalPeer(), b.LocalPeer())
	assert.NotEqual(t, a.StaticPublicKey(), b.StaticPublicKey())
}

func TestTransport_New_Unsupported(t *testing.T) {
	priv, _, err := crypto.GenerateEd25519Key(rand.Reader)
	require.NoError(t, err)

	t.Run("Noise Pipes", func(t *testing.T) {
		_, err := New(priv, WithNoisePipes(true))
		assert.ErrorIs(t, err, types.ErrUnsupportedFeature)
	})

	t.Run("Noise Pipes 关闭", func(t *testing.T) {
		_, err := New(priv, WithNoisePipes(false))
		assert.NoError(t, err)
	})

	t.Run("IK 模式", func(t *testing.T) {
		_, err := New(priv, WithPattern(PatternIK))
		assert.ErrorIs(t, err, types.ErrUnsupportedFeature)
	})

	t.Run("未知模式", func(t *testing.T) {
		_, err := New(priv, WithPattern(Pattern(7)))
		assert.ErrorIs(t, err, types.ErrUnsupportedFeature)
	})
}

func TestTransport_WithStaticKey(t *testing.T) {
	priv, _, err := crypto.GenerateEd25519Key(rand.Reader)
	require.NoError(t, err)

	kp, err := noise.DH25519.GenerateKeypair(rand.Reader)
	require.NoError(t, err)

	tr, err := New(priv, WithStaticKey(kp))
	require.NoError(t, err)
	assert.Equal(t, kp.Public, tr.StaticPublicKey())

	other, err := noise.DH25519.GenerateKeypair(rand.Reader)
	require.NoError(t, err)

	tests := []struct {
		name string
		kp   noise.DHKey
	}{
		{"私钥长度错误", noise.DHKey{Private: kp.Private[:31], Public: kp.Public}},
		{"公钥长度错误", noise.DHKey{Private: kp.Private, Public: append(kp.Public, 0)}},
		{"公私钥不匹配", noise.DHKey{Private: kp.Private, Public: other.Public}},
		{"空密钥", noise.DHKey{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(priv, WithStaticKey(tt.kp))
			assert.ErrorIs(t, err, ErrInvalidStaticKey)
		})
	}
}

func TestTransport_StaticKeyUsedInHandshake(t *testing.T) {
	kp, err := noise.DH25519.GenerateKeypair(rand.Reader)
	require.NoError(t, err)

	client := newTestTransport(t)
	server := newTestTransport(t, WithStaticKey(kp))

	// 消息 2 中的静态公钥是加密的，用握手后 flynn/noise 暴露的 PeerStatic 校验
	p := &xxPattern{t: client}
	s, err := p.newSession(true)
	require.NoError(t, err)

	clientConn, serverConn := net.Pipe()
	defer clientConn.Close()
	go func() { _, _ = server.SecureInbound(context.Background(), serverConn) }()

	msg1, _, _, err := s.hs.WriteMessage(nil, nil)
	require.NoError(t, err)
	require.NoError(t, writeFrame(clientConn, msg1, "send message 1"))
	msg2, err := readFrame(clientConn, "receive message 2")
	require.NoError(t, err)
	_, _, _, err = s.hs.ReadMessage(nil, msg2)
	require.NoError(t, err)

	assert.Equal(t, kp.Public, s.hs.PeerStatic())
}

func TestTransport_EarlyDataTooLarge(t *testing.T) {
	priv, _, err := crypto.GenerateEd25519Key(rand.Reader)
	require.NoError(t, err)

	_, err = New(priv, WithEarlyData(make([]byte, maxFrameSize)))
	assert.ErrorIs(t, err, ErrEarlyDataTooLarge)
}

func TestTransport_NegativeTimeout(t *testing.T) {
	priv, _, err := crypto.GenerateEd25519Key(rand.Reader)
	require.NoError(t, err)

	_, err = New(priv, WithHandshakeTimeout(-time.Second))
	assert.Error(t, err)
}

func TestTransport_NilConn(t *testing.T) {
	tr := newTestTransport(t)

	_, err := tr.SecureInbound(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNilConn)

	_, err = tr.SecureOutbound(context.Background(), nil, tr.LocalPeer())
	assert.ErrorIs(t, err, ErrNilConn)
}

// ============================================================================
// 取消与超时
// ============================================================================

func TestTransport_ContextAlreadyCanceled(t *testing.T) {
	tr := newTestTransport(t)
	remote := newTestTransport(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	clientConn, serverConn := net.Pipe()
	defer serverConn.Close()

	_, err := tr.SecureOutbound(ctx, clientConn, remote.LocalPeer())
	assert.ErrorIs(t, err, types.ErrConnectionFailure)
	assert.ErrorIs(t, err, context.Canceled)

	// 原始连接已被关闭
	_, err = clientConn.Write([]byte{0})
	assert.ErrorIs(t, err, io.ErrClosedPipe)
}

func TestTransport_CancelDuringHandshake(t *testing.T) {
	tr := newTestTransport(t)
	remote := newTestTransport(t)

	// 对端从不读写，握手阻塞在发送消息 1
	clientConn, serverConn := net.Pipe()
	defer serverConn.Close()

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		_, err := tr.SecureOutbound(ctx, clientConn, remote.LocalPeer())
		errCh <- err
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, types.ErrConnectionFailure)
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("handshake did not return after cancel")
	}

	// 原始连接已被关闭
	_, err := clientConn.Write([]byte{0})
	assert.ErrorIs(t, err, io.ErrClosedPipe)
}

func TestTransport_CancelInbound(t *testing.T) {
	tr := newTestTransport(t)

	// 对端不发送消息 1
	clientConn, serverConn := net.Pipe()
	defer clientConn.Close()

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		_, err := tr.SecureInbound(ctx, serverConn)
		errCh <- err
	}()

	cancel()
	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, types.ErrConnectionFailure)
	case <-time.After(5 * time.Second):
		t.Fatal("inbound handshake did not return after cancel")
	}

	// 原始连接已被关闭
	_, err := serverConn.Write([]byte{0})
	assert.ErrorIs(t, err, io.ErrClosedPipe)
}

func TestTransport_HandshakeTimeout_MockClock(t *testing.T) {
	mock := clock.NewMock()
	tr := newTestTransport(t, WithClock(mock), WithHandshakeTimeout(5*time.Second))
	remote := newTestTransport(t)

	clientConn, serverConn := net.Pipe()
	defer serverConn.Close()

	errCh := make(chan error, 1)
	go func() {
		_, err := tr.SecureOutbound(context.Background(), clientConn, remote.LocalPeer())
		errCh <- err
	}()

	var err error
	require.Eventually(t, func() bool {
		mock.Add(time.Second)
		select {
		case err = <-errCh:
			return true
		default:
			return false
		}
	}, 5*time.Second, 10*time.Millisecond)

	assert.ErrorIs(t, err, types.ErrConnectionFailure)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestTransport_HandshakeTimeout_RealClock(t *testing.T) {
	tr := newTestTransport(t, WithHandshakeTimeout(50*time.Millisecond))

	clientConn, serverConn := net.Pipe()
	defer clientConn.Close()

	start := time.Now()
	_, err := tr.SecureInbound(context.Background(), serverConn)
	assert.ErrorIs(t, err, types.ErrConnectionFailure)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestTransport_DeadlineClearedAfterHandshake(t *testing.T) {
	client := newTestTransport(t, WithHandshakeTimeout(100*time.Millisecond))
	server := newTestTransport(t, WithHandshakeTimeout(100*time.Millisecond))

	c, s := handshakePair(t, client, server)

	// 超过握手超时后连接仍可用
	time.Sleep(200 * time.Millisecond)

	go func() { _, _ = c.Write([]byte("ping")) }()
	buf := make([]byte, 4)
	_, err := s.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "ping", string(buf))
}
