package host

import (
	"context"
	"crypto/rand"
	"io"
	"testing"
	"time"

	"github.com/libp2p/go-libp2p/core/crypto"
	ma "github.com/multiformats/go-multiaddr"
	manet "github.com/multiformats/go-multiaddr/net"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dep2p/go-seclink/internal/core/routing"
	"github.com/dep2p/go-seclink/internal/core/security/noise"
	"github.com/dep2p/go-seclink/pkg/interfaces"
	"github.com/dep2p/go-seclink/pkg/types"
)

var loopback = ma.StringCast("/ip4/127.0.0.1/tcp/0")

// newTestHost 创建监听本地回环地址的 Host
func newTestHost(t *testing.T, opts ...Option) *Host {
	t.Helper()
	priv, _, err := crypto.GenerateEd25519Key(rand.Reader)
	require.NoError(t, err)
	tr, err := noise.New(priv, noise.WithHandshakeTimeout(5*time.Second))
	require.NoError(t, err)

	cfg := DefaultConfig()
	cfg.DialTimeout = 2 * time.Second

	h, err := New(append([]Option{WithTransport(tr), WithConfig(cfg)}, opts...)...)
	require.NoError(t, err)
	require.NoError(t, h.Listen(loopback))
	t.Cleanup(func() { _ = h.Close() })
	return h
}

func newPeerID(t *testing.T) types.PeerID {
	t.Helper()
	priv, _, err := crypto.GenerateEd25519Key(rand.Reader)
	require.NoError(t, err)
	id, err := types.PeerIDFromPrivateKey(priv)
	require.NoError(t, err)
	return id
}

// echoHandler 回显入站连接上的数据
func echoHandler(conn interfaces.SecureConn) {
	_, _ = io.Copy(conn, conn)
}

// TestHost_Creation 测试 Host 创建
func TestHost_Creation(t *testing.T) {
	t.Run("缺少安全传输", func(t *testing.T) {
		_, err := New()
		assert.ErrorIs(t, err, ErrNoTransport)
	})

	t.Run("非法配置", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.PeerCacheSize = 0
		_, err := New(WithConfig(cfg))
		assert.Error(t, err)

		_, err = New(WithConfig(nil))
		assert.Error(t, err)
	})
}

// TestHost_Addrs 测试监听地址
func TestHost_Addrs(t *testing.T) {
	h := newTestHost(t)

	addrs := h.Addrs()
	require.Len(t, addrs, 1)
	port, err := addrs[0].ValueForProtocol(ma.P_TCP)
	require.NoError(t, err)
	assert.NotEqual(t, "0", port)

	info := h.PeerInfo()
	assert.Equal(t, h.ID(), info.ID)
	assert.Equal(t, types.AddrsToStrings(addrs), types.AddrsToStrings(info.Addrs))

	p2p, err := h.P2PAddrs()
	require.NoError(t, err)
	require.Len(t, p2p, 1)
	id, err := types.AddrPeerID(p2p[0])
	require.NoError(t, err)
	assert.Equal(t, h.ID(), id)
}

// TestHost_ConnectDirect 测试按地址连接并收发数据
func TestHost_ConnectDirect(t *testing.T) {
	a := newTestHost(t)
	inbound := make(chan interfaces.SecureConn, 1)
	b := newTestHost(t, WithInboundHandler(func(conn interfaces.SecureConn) {
		inbound <- conn
		echoHandler(conn)
	}))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	conn, err := a.Connect(ctx, b.PeerInfo())
	require.NoError(t, err)
	assert.Equal(t, b.ID(), conn.RemotePeer())
	assert.Equal(t, a.ID(), conn.LocalPeer())

	select {
	case in := <-inbound:
		assert.Equal(t, a.ID(), in.RemotePeer())
	case <-ctx.Done():
		t.Fatal("入站处理函数未被调用")
	}

	msg := []byte("hello over noise")
	_, err = conn.Write(msg)
	require.NoError(t, err)
	buf := make([]byte, len(msg))
	_, err = io.ReadFull(conn, buf)
	require.NoError(t, err)
	assert.Equal(t, msg, buf)

	hc, ok := conn.(*Conn)
	require.True(t, ok)
	assert.Equal(t, DirOutbound, hc.Direction())
	assert.False(t, hc.Opened().IsZero())

	assert.Len(t, a.ConnsToPeer(b.ID()), 1)
	assert.Len(t, a.Conns(), 1)
	require.Eventually(t, func() bool {
		return len(b.ConnsToPeer(a.ID())) == 1
	}, 5*time.Second, 10*time.Millisecond)
}

// TestHost_ConnectReusesConn 测试已有连接被复用
func TestHost_ConnectReusesConn(t *testing.T) {
	a := newTestHost(t)
	b := newTestHost(t)

	ctx := context.Background()
	first, err := a.Connect(ctx, b.PeerInfo())
	require.NoError(t, err)
	second, err := a.Connect(ctx, b.PeerInfo())
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Len(t, a.ConnsToPeer(b.ID()), 1)
}

// TestHost_ConnectAfterRemoteClose 测试远端关闭后重新拨号
func TestHost_ConnectAfterRemoteClose(t *testing.T) {
	a := newTestHost(t)
	b := newTestHost(t, WithInboundHandler(func(conn interfaces.SecureConn) {
		_ = conn.Close()
	}))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	first, err := a.Connect(ctx, b.PeerInfo())
	require.NoError(t, err)

	_, err = first.Read(make([]byte, 1))
	require.Error(t, err)
	assert.Empty(t, a.ConnsToPeer(b.ID()))

	second, err := a.Connect(ctx, b.PeerInfo())
	require.NoError(t, err)
	assert.NotSame(t, first, second)
	assert.Equal(t, b.ID(), second.RemotePeer())
}

// TestHost_ConnReadTimeoutKeepsConn 测试读超时不移除连接
func TestHost_ConnReadTimeoutKeepsConn(t *testing.T) {
	a := newTestHost(t)
	b := newTestHost(t)

	conn, err := a.Connect(context.Background(), b.PeerInfo())
	require.NoError(t, err)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(50*time.Millisecond)))
	_, err = conn.Read(make([]byte, 1))
	require.Error(t, err)
	assert.Len(t, a.ConnsToPeer(b.ID()), 1)
}

// TestHost_ConnectViaRouting 测试只凭节点 ID 经路由连接
func TestHost_ConnectViaRouting(t *testing.T) {
	router := routing.NewMemoryRouter()
	a := newTestHost(t, WithRouting(router))
	b := newTestHost(t)

	text, err := b.PeerInfo().Serialize()
	require.NoError(t, err)
	require.NoError(t, router.PutValue(context.Background(), routing.RoutingKey(b.ID()), text))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	conn, err := a.Connect(ctx, types.NewPeerInfo(b.ID()))
	require.NoError(t, err)
	assert.Equal(t, b.ID(), conn.RemotePeer())

	cached, ok := a.peerCache.Get(b.ID())
	require.True(t, ok)
	assert.Equal(t, types.AddrsToStrings(b.Addrs()), types.AddrsToStrings(cached))

	t.Run("未发布的节点", func(t *testing.T) {
		_, err := a.Connect(ctx, types.NewPeerInfo(newPeerID(t)))
		assert.ErrorIs(t, err, types.ErrConnectionFailure)
		assert.ErrorIs(t, err, routing.ErrNotFound)
	})
}

// TestHost_ConnectNoRouting 测试无地址且无路由
func TestHost_ConnectNoRouting(t *testing.T) {
	a := newTestHost(t)

	_, err := a.Connect(context.Background(), types.NewPeerInfo(newPeerID(t)))
	assert.ErrorIs(t, err, types.ErrConnectionFailure)
}

// TestHost_ConnectUndialable 测试所有地址不可拨号
func TestHost_ConnectUndialable(t *testing.T) {
	a := newTestHost(t)

	l, err := manet.Listen(loopback)
	require.NoError(t, err)
	dead := l.Multiaddr()
	require.NoError(t, l.Close())

	_, err = a.Connect(context.Background(), types.NewPeerInfo(newPeerID(t), dead))
	assert.ErrorIs(t, err, types.ErrConnectionFailure)
}

// TestHost_ConnectFallsBackToNextAddr 测试第一个地址失败后尝试下一个
func TestHost_ConnectFallsBackToNextAddr(t *testing.T) {
	a := newTestHost(t)
	b := newTestHost(t)

	l, err := manet.Listen(loopback)
	require.NoError(t, err)
	dead := l.Multiaddr()
	require.NoError(t, l.Close())

	info := types.NewPeerInfo(b.ID(), dead)
	info.AddAddrs(b.Addrs()...)

	conn, err := a.Connect(context.Background(), info)
	require.NoError(t, err)
	assert.Equal(t, b.ID(), conn.RemotePeer())
}

// TestHost_ConnectPeerIDMismatch 测试地址上的节点与期望不符
func TestHost_ConnectPeerIDMismatch(t *testing.T) {
	a := newTestHost(t)
	b := newTestHost(t)

	impostor := types.NewPeerInfo(newPeerID(t), b.Addrs()...)
	_, err := a.Connect(context.Background(), impostor)
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrPeerIDMismatch)
	assert.Empty(t, a.Conns())
}

// TestHost_ConnectInvalid 测试非法参数
func TestHost_ConnectInvalid(t *testing.T) {
	a := newTestHost(t)
	ctx := context.Background()

	_, err := a.Connect(ctx, types.PeerInfo{})
	assert.Error(t, err)

	_, err = a.Connect(ctx, a.PeerInfo())
	assert.ErrorIs(t, err, ErrDialSelf)
}

// TestHost_ConnCloseRemoves 测试关闭连接后从连接表移除
func TestHost_ConnCloseRemoves(t *testing.T) {
	a := newTestHost(t)
	b := newTestHost(t)

	conn, err := a.Connect(context.Background(), b.PeerInfo())
	require.NoError(t, err)
	require.NoError(t, conn.Close())
	require.NoError(t, conn.Close())
	assert.Empty(t, a.ConnsToPeer(b.ID()))
	assert.Empty(t, a.Conns())
}

// TestHost_Close 测试关闭 Host
func TestHost_Close(t *testing.T) {
	a := newTestHost(t)
	b := newTestHost(t, WithInboundHandler(echoHandler))

	_, err := a.Connect(context.Background(), b.PeerInfo())
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		return len(b.Conns()) == 1
	}, 5*time.Second, 10*time.Millisecond)

	require.NoError(t, b.Close())
	assert.Empty(t, b.Conns())
	assert.Empty(t, b.Addrs())
	assert.NoError(t, b.Close())

	_, err = b.Connect(context.Background(), a.PeerInfo())
	assert.ErrorIs(t, err, ErrHostClosed)
	assert.ErrorIs(t, b.Listen(loopback), ErrHostClosed)
}

// TestStripPeerID 测试去除地址末尾的节点 ID
func TestStripPeerID(t *testing.T) {
	id := newPeerID(t)
	base := ma.StringCast("/ip4/127.0.0.1/tcp/4001")

	out, err := stripPeerID(base, id)
	require.NoError(t, err)
	assert.True(t, base.Equal(out))

	withID, err := types.WithPeerID(base, id)
	require.NoError(t, err)
	out, err = stripPeerID(withID, id)
	require.NoError(t, err)
	assert.True(t, base.Equal(out))

	_, err = stripPeerID(withID, newPeerID(t))
	assert.ErrorIs(t, err, types.ErrInvalidAddress)

	lone, err := types.WithPeerID(nil, id)
	require.NoError(t, err)
	_, err = stripPeerID(lone, id)
	assert.ErrorIs(t, err, types.ErrInvalidAddress)
}
