package host

import (
	"fmt"

	ma "github.com/multiformats/go-multiaddr"

	"github.com/dep2p/go-seclink/pkg/types"
)

// stripPeerID 去掉地址末尾的 /p2p 段
//
// 地址携带的节点 ID 必须与期望一致。
func stripPeerID(addr ma.Multiaddr, expected types.PeerID) (ma.Multiaddr, error) {
	if !types.IsDialable(addr) {
		return nil, fmt.Errorf("%w: %s", types.ErrInvalidAddress, addr)
	}

	parts := types.SplitAddr(addr)
	last := parts[len(parts)-1]
	if last.Code() != ma.P_P2P {
		return addr, nil
	}

	id, err := types.AddrPeerID(addr)
	if err != nil {
		return nil, err
	}
	if id != expected {
		return nil, fmt.Errorf("%w: address %s belongs to %s", types.ErrInvalidAddress, addr, id.ShortString())
	}
	if len(parts) == 1 {
		return nil, fmt.Errorf("%w: %s has no transport part", types.ErrInvalidAddress, addr)
	}
	return types.JoinAddr(parts[:len(parts)-1]...), nil
}

// P2PAddrs 返回带 /p2p 段的本地可拨号地址
func (h *Host) P2PAddrs() ([]ma.Multiaddr, error) {
	return h.PeerInfo().P2PAddrs()
}
