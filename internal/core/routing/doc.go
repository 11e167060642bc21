// Package routing 提供内存路由表
//
// MemoryRouter 以 RoutingKey(id) 为键保存 PeerInfo 的紧凑编码，
// 与 DHT 中保存的形式相同。主机在只知道节点 ID 时通过 FindPeer 解析地址。
//
// 这不是路由协议：值只在进程内共享，多个节点可以共用同一个实例。
package routing
