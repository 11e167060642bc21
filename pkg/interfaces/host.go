// Package interfaces 定义 seclink 公共接口
//
// 本文件定义 Host 接口，提供监听、拨号与连接管理。
package interfaces

import (
	"context"

	ma "github.com/multiformats/go-multiaddr"

	"github.com/dep2p/go-seclink/pkg/types"
)

// ConnHandler 入站安全连接处理函数
//
// 在完成握手的 goroutine 中调用，处理函数可以阻塞。
type ConnHandler func(conn SecureConn)

// Host 定义主机接口
//
// Host 在字节流传输之上为每条连接完成安全握手，并跟踪已建立的安全连接。
type Host interface {
	// ID 返回本地节点 ID
	ID() types.PeerID

	// Addrs 返回实际监听地址（不含 /p2p 段）
	Addrs() []ma.Multiaddr

	// PeerInfo 返回本地节点信息
	PeerInfo() types.PeerInfo

	// Listen 监听指定地址
	Listen(addrs ...ma.Multiaddr) error

	// Connect 连接到指定节点
	//
	// info.Addrs 为空时通过路由解析地址。
	// 无法解析或所有地址都拨号失败时返回 types.ErrConnectionFailure。
	Connect(ctx context.Context, info types.PeerInfo) (SecureConn, error)

	// Conns 返回所有安全连接
	Conns() []SecureConn

	// ConnsToPeer 返回到指定节点的安全连接
	ConnsToPeer(id types.PeerID) []SecureConn

	// SetInboundHandler 设置入站连接处理函数
	SetInboundHandler(handler ConnHandler)

	// Close 关闭监听器与所有连接
	Close() error
}
