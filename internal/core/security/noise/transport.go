package noise

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/flynn/noise"
	"github.com/libp2p/go-libp2p/core/crypto"

	"github.com/dep2p/go-seclink/pkg/interfaces"
	"github.com/dep2p/go-seclink/pkg/lib/log"
	"github.com/dep2p/go-seclink/pkg/types"
)

var logger = log.Logger("core/security/noise")

// ID 安全协议标识
const ID types.ProtocolID = "/noise"

// Transport Noise 协议传输
//
// 构造后只读，可被任意数量的并发握手共享。
type Transport struct {
	identityKey crypto.PrivKey
	localPeer   types.PeerID

	staticKey    noise.DHKey
	earlyData    []byte
	localPayload []byte

	pattern    Pattern
	handshaker handshakePattern

	handshakeTimeout time.Duration
	clock            clock.Clock
	metrics          *metrics
}

// 确保实现接口
var _ interfaces.SecureTransport = (*Transport)(nil)

// New 创建 Noise 传输
//
// identityKey 是长期网络身份私钥，用于签名绑定静态公钥。
// 请求 Noise Pipes 或 IK 模式时返回 ErrUnsupportedFeature。
func New(identityKey crypto.PrivKey, opts ...Option) (*Transport, error) {
	if identityKey == nil {
		return nil, ErrNilIdentityKey
	}

	o := options{
		pattern: PatternXX,
		clock:   clock.New(),
	}
	for _, opt := range opts {
		if err := opt(&o); err != nil {
			return nil, err
		}
	}
	if o.noisePipes {
		return nil, unsupportedError("pipes")
	}

	localPeer, err := types.PeerIDFromPrivateKey(identityKey)
	if err != nil {
		return nil, fmt.Errorf("derive local peer id: %w", err)
	}

	var staticKey noise.DHKey
	if o.staticKey != nil {
		staticKey = *o.staticKey
	} else {
		staticKey, err = cipherSuite.GenerateKeypair(rand.Reader)
		if err != nil {
			return nil, fmt.Errorf("generate static key: %w", err)
		}
	}

	localPayload, err := generateHandshakePayload(identityKey, staticKey.Public, o.earlyData)
	if err != nil {
		return nil, err
	}
	if len(localPayload) > maxPayloadSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrEarlyDataTooLarge, len(o.earlyData))
	}

	m, err := newMetrics(o.registerer)
	if err != nil {
		return nil, fmt.Errorf("register metrics: %w", err)
	}

	t := &Transport{
		identityKey:      identityKey,
		localPeer:        localPeer,
		staticKey:        staticKey,
		earlyData:        o.earlyData,
		localPayload:     localPayload,
		pattern:          o.pattern,
		handshakeTimeout: o.handshakeTimeout,
		clock:            o.clock,
		metrics:          m,
	}
	if t.handshaker, err = selectPattern(t); err != nil {
		return nil, err
	}

	logger.Debug("Noise 传输已创建", "localPeer", localPeer.ShortString(), "pattern", t.pattern.String())
	return t, nil
}

// ID 返回协议标识
func (t *Transport) ID() types.ProtocolID {
	return ID
}

// LocalPeer 返回本地节点 ID
func (t *Transport) LocalPeer() types.PeerID {
	return t.localPeer
}

// StaticPublicKey 返回 X25519 静态公钥
func (t *Transport) StaticPublicKey() []byte {
	return append([]byte(nil), t.staticKey.Public...)
}

// Pattern 返回握手模式
func (t *Transport) Pattern() Pattern {
	return t.pattern
}

// SecureInbound 保护入站连接
func (t *Transport) SecureInbound(ctx context.Context, conn net.Conn) (interfaces.SecureConn, error) {
	sc, err := t.secure(ctx, conn, false, types.EmptyPeerID)
	if err != nil {
		return nil, err
	}
	return sc, nil
}

// SecureOutbound 保护出站连接
func (t *Transport) SecureOutbound(ctx context.Context, conn net.Conn, remotePeer types.PeerID) (interfaces.SecureConn, error) {
	sc, err := t.secure(ctx, conn, true, remotePeer)
	if err != nil {
		return nil, err
	}
	return sc, nil
}

// secure 执行一次握手
//
// 失败时先关闭 conn 再返回错误。ctx 被取消或超时的握手总是返回
// ErrConnectionFailure。
func (t *Transport) secure(ctx context.Context, conn net.Conn, initiator bool, remotePeer types.PeerID) (*secureConn, error) {
	if conn == nil {
		return nil, ErrNilConn
	}

	direction := directionInbound
	if initiator {
		direction = directionOutbound
	}
	logger.Debug("Noise 握手开始", "direction", direction, "remotePeer", remotePeer.ShortString())

	if t.handshakeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = t.clock.WithTimeout(ctx, t.handshakeTimeout)
		defer cancel()
	}

	start := t.clock.Now()
	sc, err := t.handshake(ctx, conn, initiator, remotePeer)
	t.metrics.observe(direction, err, t.clock.Since(start))

	if err != nil {
		_ = conn.Close()
		logger.Warn("Noise 握手失败", "direction", direction, "remotePeer", remotePeer.ShortString(), "error", err)
		return nil, err
	}

	logger.Debug("Noise 握手成功", "direction", direction, "remotePeer", sc.remotePeer.ShortString())
	return sc, nil
}

// handshake 在 ctx 约束下执行握手
//
// ctx 的截止时间映射为连接截止时间，ctx 结束时关闭连接以打断阻塞的读写。
func (t *Transport) handshake(ctx context.Context, conn net.Conn, initiator bool, remotePeer types.PeerID) (*secureConn, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", types.ErrConnectionFailure, err)
	}

	if deadline, ok := ctx.Deadline(); ok {
		// 截止时间可能来自 mock 时钟，按剩余时长换算为墙钟时间
		if err := conn.SetDeadline(time.Now().Add(deadline.Sub(t.clock.Now()))); err != nil {
			return nil, connectionError("set deadline", err)
		}
	}

	stop := watchContext(ctx, conn)
	var (
		sc  *secureConn
		err error
	)
	if initiator {
		sc, err = t.handshaker.handshakeOutbound(ctx, conn, remotePeer)
	} else {
		sc, err = t.handshaker.handshakeInbound(ctx, conn)
	}
	stop()

	if ctxErr := ctx.Err(); ctxErr != nil && (err == nil || errors.Is(err, types.ErrConnectionFailure)) {
		return nil, fmt.Errorf("%w: %w", types.ErrConnectionFailure, ctxErr)
	}
	if err != nil {
		return nil, err
	}

	if _, ok := ctx.Deadline(); ok {
		if err := conn.SetDeadline(time.Time{}); err != nil {
			return nil, connectionError("clear deadline", err)
		}
	}
	return sc, nil
}

// watchContext 在 ctx 结束时关闭 conn
//
// 返回的 stop 会等待监视 goroutine 退出。
func watchContext(ctx context.Context, conn net.Conn) (stop func()) {
	if ctx.Done() == nil {
		return func() {}
	}

	done := make(chan struct{})
	exited := make(chan struct{})
	go func() {
		defer close(exited)
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-done:
		}
	}()

	return func() {
		close(done)
		<-exited
	}
}
