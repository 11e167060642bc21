// Package seclink 提供基于 Noise 的安全点对点连接
//
// 节点用长期身份密钥派生 PeerID，在 TCP 之上通过 Noise XX 握手建立双向认证的
// 加密连接。握手中双方用身份私钥对各自的 Noise 静态公钥签名，握手完成后远端
// 身份必须与拨号方期望的 PeerID 一致。
//
// # 快速开始
//
//	import "github.com/dep2p/go-seclink"
//
//	// 1. 创建并启动节点
//	node, err := seclink.Start(ctx,
//	    seclink.WithListenAddrs("/ip4/127.0.0.1/tcp/0"),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer node.Close()
//
//	// 2. 连接远端节点（地址末尾带 /p2p/<id>）
//	conn, err := node.ConnectAddr(ctx, "/ip4/127.0.0.1/tcp/4001/p2p/12D3KooW...")
//
//	// 3. 在加密连接上读写
//	_, err = conn.Write([]byte("hello"))
//
// # 只凭节点 ID 连接
//
// 多个节点共享同一个路由（WithRouting）时，节点启动后会发布自己的地址，
// 其他节点可以只凭 PeerID 连接：
//
//	router := routing.NewMemoryRouter()
//	a, _ := seclink.Start(ctx, seclink.WithRouting(router))
//	b, _ := seclink.Start(ctx, seclink.WithRouting(router))
//	conn, err := a.Connect(ctx, types.NewPeerInfo(b.ID()))
//
// # 配置
//
// 配置由 config.Config 描述，可从 JSON 加载（config.FromJSON），
// 选项函数在其上覆盖单个字段。
package seclink
