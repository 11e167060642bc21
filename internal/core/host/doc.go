// Package host 实现最小 TCP 主机
//
// Host 在 TCP 之上为每条连接完成 Noise 握手，并跟踪已建立的安全连接。
//
// # 组成
//
//   - 监听：每个监听器一个 Accept 循环，每条入站连接在独立 goroutine 中握手
//   - 拨号：按顺序尝试节点的每个地址，用期望的节点 ID 完成出站握手
//   - 路由：PeerInfo 不带地址时通过 PeerRouting 解析，结果缓存在 LRU 中
//
// # 使用示例
//
//	h, err := host.New(
//	    host.WithTransport(transport),
//	    host.WithRouting(router),
//	)
//
//	err = h.Listen(ma.StringCast("/ip4/127.0.0.1/tcp/0"))
//
//	// 只知道节点 ID 时由路由解析地址
//	conn, err := h.Connect(ctx, types.NewPeerInfo(remoteID))
//
//	err = h.Close()
package host
