package routing

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/dep2p/go-seclink/pkg/interfaces"
	"github.com/dep2p/go-seclink/pkg/lib/log"
	"github.com/dep2p/go-seclink/pkg/types"
)

var logger = log.Logger("core/routing")

// DefaultTTL 值记录默认有效期
const DefaultTTL = time.Hour

// RoutingKey 返回节点在路由表中的键
//
// 键是节点 ID 字节的 SHA-256 摘要（十六进制），即 XOR 距离空间中的位置。
func RoutingKey(id types.PeerID) string {
	sum := sha256.Sum256(id.Bytes())
	return hex.EncodeToString(sum[:])
}

// ============================================================================
//                              值记录
// ============================================================================

// valueRecord 值记录
type valueRecord struct {
	value     string
	expiresAt time.Time
}

// ============================================================================
//                              MemoryRouter
// ============================================================================

// MemoryRouter 内存路由表
type MemoryRouter struct {
	mu    sync.RWMutex
	store map[string]*valueRecord

	ttl   time.Duration
	clock clock.Clock
}

// 确保实现接口
var (
	_ interfaces.PeerRouting = (*MemoryRouter)(nil)
	_ interfaces.ValueStore  = (*MemoryRouter)(nil)
)

// Option 路由表选项
type Option func(*MemoryRouter)

// WithTTL 设置值记录有效期
func WithTTL(ttl time.Duration) Option {
	return func(r *MemoryRouter) {
		if ttl > 0 {
			r.ttl = ttl
		}
	}
}

// WithClock 设置时钟
func WithClock(c clock.Clock) Option {
	return func(r *MemoryRouter) {
		r.clock = c
	}
}

// NewMemoryRouter 创建内存路由表
func NewMemoryRouter(opts ...Option) *MemoryRouter {
	r := &MemoryRouter{
		store: make(map[string]*valueRecord),
		ttl:   DefaultTTL,
		clock: clock.New(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// PutValue 存储值，覆盖已有记录并刷新有效期
func (r *MemoryRouter) PutValue(ctx context.Context, key string, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if key == "" {
		return fmt.Errorf("routing: empty key")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.store[key] = &valueRecord{
		value:     value,
		expiresAt: r.clock.Now().Add(r.ttl),
	}
	return nil
}

// GetValue 获取值，不存在或已过期时返回 ErrNotFound
func (r *MemoryRouter) GetValue(ctx context.Context, key string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	record, ok := r.store[key]
	if !ok || r.clock.Now().After(record.expiresAt) {
		return "", fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return record.value, nil
}

// Provide 发布节点信息
func (r *MemoryRouter) Provide(ctx context.Context, info types.PeerInfo) error {
	text, err := info.Serialize()
	if err != nil {
		return err
	}
	if err := r.PutValue(ctx, RoutingKey(info.ID), text); err != nil {
		return err
	}
	logger.Debug("发布节点信息", "peerID", info.ID.ShortString(), "addrs", len(info.Addrs))
	return nil
}

// FindPeer 查找节点信息
//
// 记录中的节点 ID 与查询不一致时视为损坏，返回 ErrMalformedPeerInfo。
func (r *MemoryRouter) FindPeer(ctx context.Context, id types.PeerID) (types.PeerInfo, error) {
	text, err := r.GetValue(ctx, RoutingKey(id))
	if err != nil {
		return types.PeerInfo{}, err
	}
	info, err := types.DeserializePeerInfo(text)
	if err != nil {
		return types.PeerInfo{}, err
	}
	if info.ID != id {
		return types.PeerInfo{}, fmt.Errorf("%w: record for %s holds %s", types.ErrMalformedPeerInfo, id, info.ID)
	}
	return *info, nil
}

// Delete 删除值
func (r *MemoryRouter) Delete(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.store, key)
}

// Size 返回存储的值数量（含未清理的过期值）
func (r *MemoryRouter) Size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.store)
}

// CleanupExpired 清理过期值，返回清理数量
func (r *MemoryRouter) CleanupExpired() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.clock.Now()
	count := 0
	for key, record := range r.store {
		if now.After(record.expiresAt) {
			delete(r.store, key)
			count++
		}
	}
	return count
}
