// Package interfaces 定义 seclink 的公共接口
//
// 一个接口文件对应一个实现目录：
//   - identity.go - 身份（internal/core/identity）
//   - security.go - 安全传输与安全连接（internal/core/security/noise）
//   - routing.go  - 节点路由（internal/core/routing）
//   - host.go     - 网络主机（internal/core/host）
//
// 原始传输（TCP/QUIC/WebSocket）、流多路复用与协议协商不在本模块范围内，
// 这里只暴露它们调用的安全传输契约。
package interfaces
