// Package interfaces 定义 seclink 公共接口
//
// 本文件定义 Security 接口，抽象安全传输协议。
package interfaces

import (
	"context"
	"net"

	"github.com/libp2p/go-libp2p/core/crypto"

	"github.com/dep2p/go-seclink/pkg/types"
)

// SecureTransport 定义安全传输接口
//
// SecureTransport 将未认证的字节流连接升级为双向认证的加密连接。
// 任一方法返回错误时，传入的原始连接已被关闭。
type SecureTransport interface {
	// SecureInbound 以响应者身份完成握手
	SecureInbound(ctx context.Context, conn net.Conn) (SecureConn, error)

	// SecureOutbound 以发起者身份完成握手
	//
	// 握手完成后远端身份必须等于 remotePeer，否则返回 types.ErrPeerIDMismatch。
	SecureOutbound(ctx context.Context, conn net.Conn, remotePeer types.PeerID) (SecureConn, error)

	// ID 返回安全协议标识
	ID() types.ProtocolID

	// LocalPeer 返回本地节点 ID
	LocalPeer() types.PeerID
}

// SecureConn 定义安全连接接口
//
// Read/Write 在加密通道上进行，远端身份已在握手中验证。
type SecureConn interface {
	net.Conn

	// LocalPeer 返回本地节点 ID
	LocalPeer() types.PeerID

	// LocalPublicKey 返回本地身份公钥
	LocalPublicKey() crypto.PubKey

	// RemotePeer 返回已验证的远端节点 ID
	RemotePeer() types.PeerID

	// RemotePublicKey 返回远端身份公钥
	RemotePublicKey() crypto.PubKey

	// RemoteEarlyData 返回远端在握手中携带的早期数据
	RemoteEarlyData() []byte

	// ConnState 返回连接状态
	ConnState() SecureConnState
}

// SecureConnState 安全连接状态
type SecureConnState struct {
	// Protocol 使用的安全协议
	Protocol types.ProtocolID

	// Pattern 握手模式（如 "XX"）
	Pattern string

	// LocalPeer 本地节点 ID
	LocalPeer types.PeerID

	// RemotePeer 远端节点 ID
	RemotePeer types.PeerID

	// Initiator 本端是否为握手发起者
	Initiator bool

	// Opened 是否已完成握手
	Opened bool
}
