package interfaces

import (
	"context"

	"github.com/dep2p/go-seclink/pkg/types"
)

// PeerRouting 节点路由接口
//
// 根据节点 ID 查找其地址。实现可以是 DHT、集中式目录或内存表。
type PeerRouting interface {
	// FindPeer 查找节点信息，找不到时返回 routing.ErrNotFound
	FindPeer(ctx context.Context, id types.PeerID) (types.PeerInfo, error)
}

// ValueStore 键值存储接口（路由表的底层）
type ValueStore interface {
	// PutValue 写入值
	PutValue(ctx context.Context, key string, value string) error

	// GetValue 读取值
	GetValue(ctx context.Context, key string) (string, error)
}
