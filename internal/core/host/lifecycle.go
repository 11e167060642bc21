package host

import (
	"context"

	"go.uber.org/multierr"

	"github.com/dep2p/go-seclink/pkg/types"
)

// provider 可以发布节点信息的路由
type provider interface {
	Provide(ctx context.Context, info types.PeerInfo) error
}

// Start 监听配置的地址，并在路由支持时发布本地节点信息
func (h *Host) Start(ctx context.Context) error {
	if h.closed.Load() {
		return ErrHostClosed
	}

	logger.Info("正在启动 Host", "peerID", h.ID().ShortString())

	if len(h.config.ListenAddrs) > 0 {
		if err := h.Listen(h.config.ListenAddrs...); err != nil {
			logger.Error("启动监听失败", "error", err)
			return err
		}
	}

	if p, ok := h.routing.(provider); ok && len(h.Addrs()) > 0 {
		if err := p.Provide(ctx, h.PeerInfo()); err != nil {
			logger.Warn("发布节点信息失败", "error", err)
			return err
		}
	}

	logger.Info("Host 启动成功", "addrs", types.AddrsToStrings(h.Addrs()))
	return nil
}

// Close 关闭监听器与所有连接，并等待入站握手退出
func (h *Host) Close() error {
	h.mu.Lock()
	if !h.closed.CompareAndSwap(false, true) {
		h.mu.Unlock()
		return nil
	}
	listeners := h.listeners
	h.listeners = nil
	var conns []*Conn
	for _, cs := range h.conns {
		conns = append(conns, cs...)
	}
	h.mu.Unlock()

	logger.Info("正在关闭 Host", "listeners", len(listeners), "conns", len(conns))

	// 中断进行中的入站握手
	h.ctxCancel()

	var errs error
	for _, l := range listeners {
		errs = multierr.Append(errs, l.Close())
	}
	for _, c := range conns {
		errs = multierr.Append(errs, c.Close())
	}

	_ = h.workers.Wait()

	if errs != nil {
		logger.Debug("关闭 Host 时出错", "error", errs)
	}
	return errs
}
