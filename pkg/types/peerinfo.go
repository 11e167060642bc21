package types

import (
	"encoding/json"
	"fmt"
	"strings"

	ma "github.com/multiformats/go-multiaddr"
)

// ============================================================================
//                              PeerInfo - 节点信息
// ============================================================================

// PeerInfo 节点身份及其已知地址
//
// Addrs 仅作为拨号提示：保持插入顺序，允许重复。
// Addrs 为空表示"身份已知、地址未知"，需要通过路由解析。
type PeerInfo struct {
	// ID 节点 ID
	ID PeerID

	// Addrs 地址列表（不含 /p2p 段）
	Addrs []ma.Multiaddr
}

// NewPeerInfo 创建 PeerInfo
func NewPeerInfo(id PeerID, addrs ...ma.Multiaddr) PeerInfo {
	return PeerInfo{ID: id, Addrs: append([]ma.Multiaddr(nil), addrs...)}
}

// ParsePeerInfoFromAddr 从可拨号地址中提取 PeerInfo
//
// 地址的最后一段必须是 /p2p/<id>。剥离该段后：
//   - 仍有其他段：剩余部分作为唯一地址
//   - 没有其他段：地址列表为空
func ParsePeerInfoFromAddr(addr ma.Multiaddr) (*PeerInfo, error) {
	if addr == nil {
		return nil, fmt.Errorf("%w: address should not be nil", ErrInvalidAddress)
	}
	parts := SplitAddr(addr)
	if len(parts) == 0 {
		return nil, fmt.Errorf("%w: address should at least have a p2p component", ErrInvalidAddress)
	}
	if !IsDialable(addr) {
		return nil, fmt.Errorf("%w: misplaced p2p component", ErrInvalidAddress)
	}

	id, err := AddrPeerID(addr)
	if err != nil {
		return nil, err
	}

	info := &PeerInfo{ID: id}
	if len(parts) > 1 {
		info.Addrs = []ma.Multiaddr{JoinAddr(parts[:len(parts)-1]...)}
	}
	return info, nil
}

// ParsePeerInfoFromString 从可拨号地址文本中提取 PeerInfo
func ParsePeerInfoFromString(s string) (*PeerInfo, error) {
	addr, err := ParseAddr(s)
	if err != nil {
		return nil, err
	}
	return ParsePeerInfoFromAddr(addr)
}

// HasAddrs 检查是否有地址
func (pi PeerInfo) HasAddrs() bool {
	return len(pi.Addrs) > 0
}

// AddAddrs 追加地址（不去重）
func (pi *PeerInfo) AddAddrs(addrs ...ma.Multiaddr) {
	pi.Addrs = append(pi.Addrs, addrs...)
}

// P2PAddrs 返回附带 /p2p/<id> 的可拨号地址
func (pi PeerInfo) P2PAddrs() ([]ma.Multiaddr, error) {
	if len(pi.Addrs) == 0 {
		addr, err := WithPeerID(nil, pi.ID)
		if err != nil {
			return nil, err
		}
		return []ma.Multiaddr{addr}, nil
	}
	out := make([]ma.Multiaddr, 0, len(pi.Addrs))
	for _, a := range pi.Addrs {
		addr, err := WithPeerID(a, pi.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, addr)
	}
	return out, nil
}

// Equal 结构相等：相同 ID 且地址序列相同（顺序敏感）
func (pi PeerInfo) Equal(other PeerInfo) bool {
	if pi.ID != other.ID || len(pi.Addrs) != len(other.Addrs) {
		return false
	}
	for i := range pi.Addrs {
		if !pi.Addrs[i].Equal(other.Addrs[i]) {
			return false
		}
	}
	return true
}

// String 返回调试用表示
func (pi PeerInfo) String() string {
	return fmt.Sprintf("{%s: [%s]}", pi.ID, strings.Join(AddrsToStrings(pi.Addrs), " "))
}

// ============================================================================
//                              紧凑文本编码
// ============================================================================

// Serialize 编码为两元素 JSON 数组：["<id>", ["<addr>", ...]]
//
// 这是路由协作方（如 DHT）存储和交换的形式。
func (pi PeerInfo) Serialize() (string, error) {
	if err := pi.ID.Validate(); err != nil {
		return "", err
	}
	data, err := json.Marshal([]any{pi.ID.String(), AddrsToStrings(pi.Addrs)})
	if err != nil {
		return "", fmt.Errorf("marshal peer info: %w", err)
	}
	return string(data), nil
}

// DeserializePeerInfo 解析 Serialize 的输出
func DeserializePeerInfo(text string) (*PeerInfo, error) {
	var fields []json.RawMessage
	if err := json.Unmarshal([]byte(text), &fields); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPeerInfo, err)
	}
	if len(fields) != 2 {
		return nil, fmt.Errorf("%w: expected 2 fields, got %d", ErrMalformedPeerInfo, len(fields))
	}

	var idText string
	if err := json.Unmarshal(fields[0], &idText); err != nil {
		return nil, fmt.Errorf("%w: peer id: %v", ErrMalformedPeerInfo, err)
	}
	id, err := ParsePeerID(idText)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPeerInfo, err)
	}

	var addrTexts []string
	if err := json.Unmarshal(fields[1], &addrTexts); err != nil {
		return nil, fmt.Errorf("%w: addrs: %v", ErrMalformedPeerInfo, err)
	}
	if addrTexts == nil {
		return nil, fmt.Errorf("%w: addrs must be an array", ErrMalformedPeerInfo)
	}

	info := &PeerInfo{ID: id}
	for _, s := range addrTexts {
		addr, err := ma.NewMultiaddr(s)
		if err != nil {
			return nil, fmt.Errorf("%w: addr %q: %v", ErrMalformedPeerInfo, s, err)
		}
		info.Addrs = append(info.Addrs, addr)
	}
	return info, nil
}

// MarshalJSON 使用紧凑编码
func (pi PeerInfo) MarshalJSON() ([]byte, error) {
	s, err := pi.Serialize()
	if err != nil {
		return nil, err
	}
	return []byte(s), nil
}

// UnmarshalJSON 解析紧凑编码
func (pi *PeerInfo) UnmarshalJSON(data []byte) error {
	info, err := DeserializePeerInfo(string(data))
	if err != nil {
		return err
	}
	*pi = *info
	return nil
}
