// Package identity 实现 seclink 的节点身份
//
// 身份是一个长期密钥对（libp2p crypto），节点 ID 由公钥派生。
// 构造后身份只读，可被任意数量的并发握手共享。
//
// # 快速开始
//
//	// 按配置生成新身份
//	id, err := identity.Generate(config.DefaultIdentityConfig())
//
//	// 或包装已有私钥
//	id, err := identity.New(priv)
//
//	peerID := id.PeerID()
//	sig, err := id.Sign(data)
//
// # Fx 模块
//
// Module() 提供 interfaces.Identity；若容器中存在名为 "identity_key" 的
// crypto.PrivKey 则使用它，否则按 config.Config 中的 IdentityConfig 生成。
package identity
