package host

import (
	"context"
	"errors"
	"fmt"
	"net"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/benbjohnson/clock"
	lru "github.com/hashicorp/golang-lru/v2"
	ma "github.com/multiformats/go-multiaddr"
	manet "github.com/multiformats/go-multiaddr/net"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/dep2p/go-seclink/pkg/interfaces"
	"github.com/dep2p/go-seclink/pkg/lib/log"
	"github.com/dep2p/go-seclink/pkg/types"
)

var logger = log.Logger("core/host")

// Host 主机实现
type Host struct {
	ctx       context.Context
	ctxCancel context.CancelFunc

	transport interfaces.SecureTransport
	routing   interfaces.PeerRouting
	config    *Config
	clock     clock.Clock

	// peerCache 路由解析结果缓存
	peerCache *lru.Cache[types.PeerID, []ma.Multiaddr]

	mu        sync.RWMutex
	listeners []manet.Listener
	conns     map[types.PeerID][]*Conn
	handler   interfaces.ConnHandler

	// workers Accept 循环与入站握手
	workers errgroup.Group
	closed  atomic.Bool
}

var _ interfaces.Host = (*Host)(nil)

// New 创建新的 Host
func New(opts ...Option) (*Host, error) {
	ctx, cancel := context.WithCancel(context.Background())

	h := &Host{
		ctx:       ctx,
		ctxCancel: cancel,
		config:    DefaultConfig(),
		clock:     clock.New(),
		conns:     make(map[types.PeerID][]*Conn),
	}

	for _, opt := range opts {
		if err := opt(h); err != nil {
			cancel()
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}

	if h.transport == nil {
		cancel()
		return nil, ErrNoTransport
	}

	cache, err := lru.New[types.PeerID, []ma.Multiaddr](h.config.PeerCacheSize)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("create peer cache: %w", err)
	}
	h.peerCache = cache

	return h, nil
}

// ID 返回本地节点 ID
func (h *Host) ID() types.PeerID {
	return h.transport.LocalPeer()
}

// Addrs 返回实际监听地址
func (h *Host) Addrs() []ma.Multiaddr {
	h.mu.RLock()
	defer h.mu.RUnlock()

	addrs := make([]ma.Multiaddr, 0, len(h.listeners))
	for _, l := range h.listeners {
		addrs = append(addrs, l.Multiaddr())
	}
	return addrs
}

// PeerInfo 返回本地节点信息
func (h *Host) PeerInfo() types.PeerInfo {
	return types.NewPeerInfo(h.ID(), h.Addrs()...)
}

// SetInboundHandler 设置入站连接处理函数
func (h *Host) SetInboundHandler(handler interfaces.ConnHandler) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.handler = handler
}

// ============================================================================
//                              监听
// ============================================================================

// Listen 监听指定地址
//
// 任一地址监听失败时关闭本次已打开的监听器并返回错误。
func (h *Host) Listen(addrs ...ma.Multiaddr) error {
	if h.closed.Load() {
		return ErrHostClosed
	}

	opened := make([]manet.Listener, 0, len(addrs))
	for _, addr := range addrs {
		l, err := manet.Listen(addr)
		if err != nil {
			for _, o := range opened {
				_ = o.Close()
			}
			logger.Warn("监听地址失败", "addr", addr, "error", err)
			return fmt.Errorf("listen %s: %w", addr, err)
		}
		opened = append(opened, l)
	}

	h.mu.Lock()
	if h.closed.Load() {
		h.mu.Unlock()
		for _, l := range opened {
			_ = l.Close()
		}
		return ErrHostClosed
	}
	h.listeners = append(h.listeners, opened...)
	for _, l := range opened {
		l := l
		h.workers.Go(func() error {
			h.acceptLoop(l)
			return nil
		})
	}
	h.mu.Unlock()

	for _, l := range opened {
		logger.Info("监听成功", "addr", l.Multiaddr())
	}
	return nil
}

// acceptLoop 接受连接循环
func (h *Host) acceptLoop(l manet.Listener) {
	for {
		conn, err := l.Accept()
		if err != nil {
			if h.closed.Load() || errors.Is(err, net.ErrClosed) {
				return
			}
			logger.Debug("接受连接失败", "addr", l.Multiaddr(), "error", err)
			continue
		}

		h.mu.RLock()
		if h.closed.Load() {
			h.mu.RUnlock()
			_ = conn.Close()
			return
		}
		h.workers.Go(func() error {
			h.handleInbound(conn)
			return nil
		})
		h.mu.RUnlock()
	}
}

// handleInbound 完成入站握手并登记连接
func (h *Host) handleInbound(raw manet.Conn) {
	sc, err := h.transport.SecureInbound(h.ctx, raw)
	if err != nil {
		logger.Debug("入站握手失败", "remoteAddr", raw.RemoteMultiaddr(), "error", err)
		return
	}

	conn, err := h.addConn(sc, DirInbound)
	if err != nil {
		return
	}
	logger.Debug("入站连接已建立", "remotePeer", conn.RemotePeer().ShortString())

	h.mu.RLock()
	handler := h.handler
	h.mu.RUnlock()
	if handler != nil {
		handler(conn)
	}
}

// ============================================================================
//                              拨号
// ============================================================================

// Connect 连接到指定节点
//
// 已有到该节点的连接时直接返回该连接。info.Addrs 为空时先查缓存再查路由。
// 节点身份与期望不符时立即返回 types.ErrPeerIDMismatch，不再尝试其余地址。
func (h *Host) Connect(ctx context.Context, info types.PeerInfo) (interfaces.SecureConn, error) {
	if h.closed.Load() {
		return nil, ErrHostClosed
	}
	if err := info.ID.Validate(); err != nil {
		return nil, err
	}
	if info.ID == h.ID() {
		return nil, ErrDialSelf
	}

	if conns := h.ConnsToPeer(info.ID); len(conns) > 0 {
		return conns[0], nil
	}

	addrs, cached, err := h.resolve(ctx, info)
	if err != nil {
		return nil, err
	}

	conn, err := h.dialAddrs(ctx, info.ID, addrs)
	if err != nil {
		if cached {
			h.peerCache.Remove(info.ID)
		}
		return nil, err
	}
	return conn, nil
}

// resolve 确定拨号地址
//
// 第二个返回值表示地址是否来自缓存或路由。
func (h *Host) resolve(ctx context.Context, info types.PeerInfo) ([]ma.Multiaddr, bool, error) {
	if len(info.Addrs) > 0 {
		return info.Addrs, false, nil
	}

	if addrs, ok := h.peerCache.Get(info.ID); ok {
		return addrs, true, nil
	}

	if h.routing == nil {
		return nil, false, fmt.Errorf("%w: %s: no addresses and no routing", types.ErrConnectionFailure, info.ID.ShortString())
	}

	found, err := h.routing.FindPeer(ctx, info.ID)
	if err != nil {
		logger.Debug("路由解析失败", "peerID", info.ID.ShortString(), "error", err)
		return nil, false, fmt.Errorf("%w: %s: routing: %w", types.ErrConnectionFailure, info.ID.ShortString(), err)
	}
	if len(found.Addrs) == 0 {
		return nil, false, fmt.Errorf("%w: %s: %w", types.ErrConnectionFailure, info.ID.ShortString(), ErrNoAddresses)
	}

	h.peerCache.Add(info.ID, found.Addrs)
	return found.Addrs, true, nil
}

// dialAddrs 按顺序拨号，返回第一条握手成功的连接
func (h *Host) dialAddrs(ctx context.Context, id types.PeerID, addrs []ma.Multiaddr) (interfaces.SecureConn, error) {
	var errs error
	for _, addr := range addrs {
		if err := ctx.Err(); err != nil {
			errs = multierr.Append(errs, err)
			break
		}

		conn, err := h.dialAddr(ctx, id, addr)
		if err == nil {
			return conn, nil
		}
		logger.Debug("拨号失败", "peerID", id.ShortString(), "addr", addr, "error", err)
		if errors.Is(err, types.ErrPeerIDMismatch) {
			return nil, err
		}
		errs = multierr.Append(errs, fmt.Errorf("%s: %w", addr, err))
	}

	if errs == nil {
		errs = ErrNoAddresses
	}
	return nil, fmt.Errorf("%w: %s: %w", types.ErrConnectionFailure, id.ShortString(), errs)
}

// dialAddr 拨号单个地址并完成出站握手
func (h *Host) dialAddr(ctx context.Context, id types.PeerID, addr ma.Multiaddr) (interfaces.SecureConn, error) {
	addr, err := stripPeerID(addr, id)
	if err != nil {
		return nil, err
	}

	dialCtx, cancel := h.clock.WithTimeout(ctx, h.config.DialTimeout)
	raw, err := new(manet.Dialer).DialContext(dialCtx, addr)
	cancel()
	if err != nil {
		return nil, err
	}

	sc, err := h.transport.SecureOutbound(ctx, raw, id)
	if err != nil {
		return nil, err
	}
	conn, err := h.addConn(sc, DirOutbound)
	if err != nil {
		return nil, err
	}
	logger.Debug("出站连接已建立", "remotePeer", id.ShortString(), "addr", addr)
	return conn, nil
}

// ============================================================================
//                              连接表
// ============================================================================

// addConn 登记安全连接，主机已关闭时关闭连接并返回错误
func (h *Host) addConn(sc interfaces.SecureConn, dir Direction) (*Conn, error) {
	conn := &Conn{
		SecureConn: sc,
		host:       h,
		direction:  dir,
		opened:     h.clock.Now(),
	}

	h.mu.Lock()
	if h.closed.Load() {
		h.mu.Unlock()
		_ = sc.Close()
		return nil, ErrHostClosed
	}
	id := sc.RemotePeer()
	h.conns[id] = append(h.conns[id], conn)
	h.mu.Unlock()

	return conn, nil
}

// removeConn 从连接表移除
func (h *Host) removeConn(conn *Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := conn.RemotePeer()
	conns := slices.DeleteFunc(h.conns[id], func(c *Conn) bool { return c == conn })
	if len(conns) == 0 {
		delete(h.conns, id)
		return
	}
	h.conns[id] = conns
}

// Conns 返回所有安全连接
func (h *Host) Conns() []interfaces.SecureConn {
	h.mu.RLock()
	defer h.mu.RUnlock()

	var out []interfaces.SecureConn
	for _, conns := range h.conns {
		for _, c := range conns {
			out = append(out, c)
		}
	}
	return out
}

// ConnsToPeer 返回到指定节点的安全连接
func (h *Host) ConnsToPeer(id types.PeerID) []interfaces.SecureConn {
	h.mu.RLock()
	defer h.mu.RUnlock()

	conns := h.conns[id]
	out := make([]interfaces.SecureConn, 0, len(conns))
	for _, c := range conns {
		out = append(out, c)
	}
	return out
}
