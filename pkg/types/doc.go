// Package types 定义 seclink 的基础类型
//
// 这是整个系统的最底层包，不依赖任何其他 seclink 内部包。
//
// # 文件组织
//
//   - ids.go       - PeerID（公钥派生，multihash + Base58）
//   - multiaddr.go - 多地址分段辅助（拆分、拼接、提取 /p2p 段）
//   - peerinfo.go  - PeerInfo 及其紧凑文本编码
//   - protocol.go  - 安全协议标识
//   - errors.go    - 公共错误类型
//
// # 使用示例
//
//	// 从可拨号地址提取节点信息
//	info, err := types.ParsePeerInfoFromString("/ip4/1.2.3.4/tcp/1234/p2p/12D3KooW...")
//
//	// 序列化后发布到路由
//	text, err := info.Serialize()
//	restored, err := types.DeserializePeerInfo(text)
package types
