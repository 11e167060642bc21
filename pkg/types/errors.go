// Package types 定义 seclink 的基础类型
//
// 本文件定义所有公共错误类型。
package types

import (
	"errors"
	"fmt"
)

// ============================================================================
//                              地址与节点信息错误
// ============================================================================

var (
	// ErrInvalidAddress 地址为空、格式错误或不可拨号（缺少或错放 /p2p 段）
	ErrInvalidAddress = errors.New("invalid address")

	// ErrMalformedPeerInfo PeerInfo 文本编码无法解析为两字段结构
	ErrMalformedPeerInfo = errors.New("malformed peer info")

	// ErrEmptyPeerID 空节点 ID
	ErrEmptyPeerID = errors.New("empty peer ID")

	// ErrInvalidPeerID 无效的节点 ID
	ErrInvalidPeerID = errors.New("invalid peer ID")
)

// ============================================================================
//                              安全通道错误
// ============================================================================

var (
	// ErrHandshakeFailure 握手中任一密码学步骤失败
	//
	// 包括签名验证失败、AEAD 解密失败、消息帧格式错误、长度异常。
	ErrHandshakeFailure = errors.New("handshake failure")

	// ErrPeerIDMismatch 握手成功但远端身份与期望不符
	ErrPeerIDMismatch = errors.New("peer ID mismatch")

	// ErrConnectionFailure 底层连接出错、超时或在握手完成前关闭
	ErrConnectionFailure = errors.New("connection failure")

	// ErrUnsupportedFeature 请求了未实现的功能（如 Noise Pipes / IK）
	ErrUnsupportedFeature = errors.New("unsupported feature")
)

// PeerIDMismatchError 携带期望与实际节点 ID 的不匹配错误
//
// errors.Is(err, ErrPeerIDMismatch) 对其返回 true。
type PeerIDMismatchError struct {
	Expected PeerID
	Actual   PeerID
}

func (e *PeerIDMismatchError) Error() string {
	return fmt.Sprintf("%s: expected %s, but remote key matches %s", ErrPeerIDMismatch, e.Expected, e.Actual)
}

// Is 使 errors.Is 能匹配 ErrPeerIDMismatch
func (e *PeerIDMismatchError) Is(target error) bool {
	return target == ErrPeerIDMismatch
}
