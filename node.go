package seclink

import (
	"context"
	"fmt"
	"sync"
	"time"

	ma "github.com/multiformats/go-multiaddr"
	"go.uber.org/fx"

	"github.com/dep2p/go-seclink/pkg/interfaces"
	"github.com/dep2p/go-seclink/pkg/lib/log"
	"github.com/dep2p/go-seclink/pkg/types"
)

var logger = log.Logger("seclink")

// stopTimeout 关闭节点时等待各模块停止的时间
const stopTimeout = 30 * time.Second

// Node 节点
//
// Node 聚合身份、Noise 安全传输、路由与 TCP 主机。
type Node struct {
	app *fx.App

	identity interfaces.Identity
	host     interfaces.Host

	mu      sync.Mutex
	started bool
	closed  bool
}

// New 创建节点（不启动）
//
// 身份密钥在此时生成或加载，ID() 立即可用；监听在 Start 后开始。
func New(_ context.Context, opts ...Option) (*Node, error) {
	cfg := newNodeConfig()
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, fmt.Errorf("apply option: %w", err)
		}
	}

	node := &Node{}

	app, err := buildFxApp(cfg, node)
	if err != nil {
		return nil, fmt.Errorf("build fx app: %w", err)
	}
	if err := app.Err(); err != nil {
		return nil, fmt.Errorf("build fx app: %w", err)
	}
	node.app = app

	return node, nil
}

// Start 快捷启动函数
//
// 创建节点并立即启动，等价于 New() + Start()。
func Start(ctx context.Context, opts ...Option) (*Node, error) {
	node, err := New(ctx, opts...)
	if err != nil {
		return nil, err
	}

	if err := node.Start(ctx); err != nil {
		return nil, fmt.Errorf("start node: %w", err)
	}
	return node, nil
}

// Start 启动节点：监听配置的地址并向路由发布本地节点信息
func (n *Node) Start(ctx context.Context) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.closed {
		return ErrNodeClosed
	}
	if n.started {
		return ErrAlreadyStarted
	}

	if err := n.app.Start(ctx); err != nil {
		return err
	}
	n.started = true

	logger.Info("节点已启动",
		"peerID", n.ID().ShortString(),
		"addrs", types.AddrsToStrings(n.Addrs()))
	return nil
}

// ════════════════════════════════════════════════════════════════════════════
//                              基本信息
// ════════════════════════════════════════════════════════════════════════════

// ID 返回节点 ID
func (n *Node) ID() types.PeerID {
	return n.identity.PeerID()
}

// Identity 返回节点身份
func (n *Node) Identity() interfaces.Identity {
	return n.identity
}

// Addrs 返回实际监听地址
func (n *Node) Addrs() []ma.Multiaddr {
	return n.host.Addrs()
}

// PeerInfo 返回本地节点信息
func (n *Node) PeerInfo() types.PeerInfo {
	return n.host.PeerInfo()
}

// Host 返回底层主机
func (n *Node) Host() interfaces.Host {
	return n.host
}

// ════════════════════════════════════════════════════════════════════════════
//                              连接
// ════════════════════════════════════════════════════════════════════════════

// Connect 连接到指定节点
//
// info.Addrs 为空时通过路由解析地址。
func (n *Node) Connect(ctx context.Context, info types.PeerInfo) (interfaces.SecureConn, error) {
	if err := n.checkRunning(); err != nil {
		return nil, err
	}
	return n.host.Connect(ctx, info)
}

// ConnectAddr 通过带 /p2p 段的完整地址连接节点
func (n *Node) ConnectAddr(ctx context.Context, addr string) (interfaces.SecureConn, error) {
	info, err := types.ParsePeerInfoFromString(addr)
	if err != nil {
		return nil, err
	}
	return n.Connect(ctx, *info)
}

// Conns 返回所有安全连接
func (n *Node) Conns() []interfaces.SecureConn {
	return n.host.Conns()
}

// SetInboundHandler 设置入站连接处理函数
func (n *Node) SetInboundHandler(handler interfaces.ConnHandler) {
	n.host.SetInboundHandler(handler)
}

// checkRunning 检查节点是否已启动且未关闭
func (n *Node) checkRunning() error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.closed {
		return ErrNodeClosed
	}
	if !n.started {
		return ErrNotStarted
	}
	return nil
}

// ════════════════════════════════════════════════════════════════════════════
//                              生命周期
// ════════════════════════════════════════════════════════════════════════════

// Close 关闭节点
//
// 关闭监听器与所有连接。重复调用返回 nil。
func (n *Node) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.closed {
		return nil
	}
	n.closed = true

	if !n.started {
		return nil
	}

	logger.Info("正在关闭节点", "peerID", n.ID().ShortString())

	ctx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()
	if err := n.app.Stop(ctx); err != nil {
		logger.Warn("关闭节点时出错", "error", err)
		return err
	}
	return nil
}
