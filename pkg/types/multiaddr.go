package types

import (
	"fmt"

	ma "github.com/multiformats/go-multiaddr"
)

// ============================================================================
//                              Multiaddr 辅助函数
// ============================================================================

// 多地址由 github.com/multiformats/go-multiaddr 表示与解析，
// 这里只补充节点身份相关的分段操作。

// ParseAddr 解析多地址文本，失败返回 ErrInvalidAddress
func ParseAddr(s string) (ma.Multiaddr, error) {
	if s == "" {
		return nil, fmt.Errorf("%w: empty address", ErrInvalidAddress)
	}
	addr, err := ma.NewMultiaddr(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}
	return addr, nil
}

// SplitAddr 将多地址拆分为有序的协议段
func SplitAddr(addr ma.Multiaddr) []ma.Component {
	if addr == nil {
		return nil
	}
	return ma.Split(addr)
}

// JoinAddr 将协议段拼接为多地址
func JoinAddr(parts ...ma.Component) ma.Multiaddr {
	if len(parts) == 0 {
		return nil
	}
	joined := make(ma.Multiaddr, len(parts))
	copy(joined, parts)
	return joined
}

// AddrValue 返回多地址中指定协议的值
func AddrValue(addr ma.Multiaddr, code int) (string, error) {
	if addr == nil {
		return "", fmt.Errorf("%w: nil address", ErrInvalidAddress)
	}
	return addr.ValueForProtocol(code)
}

// AddrPeerID 返回多地址末尾 /p2p 段携带的 PeerID
func AddrPeerID(addr ma.Multiaddr) (PeerID, error) {
	parts := SplitAddr(addr)
	if len(parts) == 0 {
		return EmptyPeerID, fmt.Errorf("%w: no components", ErrInvalidAddress)
	}
	last := parts[len(parts)-1]
	if last.Code() != ma.P_P2P {
		return EmptyPeerID, fmt.Errorf("%w: last protocol should be p2p instead of %s", ErrInvalidAddress, last.Protocol().Name)
	}
	id, err := ParsePeerID(last.Value())
	if err != nil {
		return EmptyPeerID, fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}
	return id, nil
}

// WithPeerID 在多地址末尾追加 /p2p/<id>
func WithPeerID(addr ma.Multiaddr, id PeerID) (ma.Multiaddr, error) {
	suffix, err := ma.NewMultiaddr("/p2p/" + id.String())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPeerID, err)
	}
	if len(addr) == 0 {
		return suffix, nil
	}
	return addr.Encapsulate(suffix), nil
}

// IsDialable 检查地址是否满足可拨号约束
//
// 至多一个 /p2p 段，且若存在必须位于末尾。
func IsDialable(addr ma.Multiaddr) bool {
	parts := SplitAddr(addr)
	if len(parts) == 0 {
		return false
	}
	for i, c := range parts {
		if c.Code() == ma.P_P2P && i != len(parts)-1 {
			return false
		}
	}
	return true
}

// AddrsToStrings 返回地址的字符串切片
func AddrsToStrings(addrs []ma.Multiaddr) []string {
	strs := make([]string, len(addrs))
	for i, a := range addrs {
		strs[i] = a.String()
	}
	return strs
}
