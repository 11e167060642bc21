// Package noise 实现 Noise 协议安全传输
//
// 将未认证的字节流升级为双向认证的加密连接，连接绑定到已验证的远端身份。
// 本实现遵循 libp2p-noise 规范：
// https://github.com/libp2p/specs/blob/master/noise/README.md
//
// # 协议
//
// 使用 Noise_XX_25519_ChaChaPoly_SHA256 模式，prologue 为空：
//   - XX: 三轮握手，双方相互认证
//   - 25519: X25519 用于 DH 密钥交换
//   - ChaChaPoly: ChaCha20-Poly1305 用于对称加密
//   - SHA256: 用于 HKDF 密钥派生
//
// # 握手流程
//
//	-> e                              (发起者发送临时公钥，空 payload)
//	<- e, ee, s, es, payload          (响应者发送临时公钥、静态公钥、payload)
//	-> s, se, payload                 (发起者发送静态公钥、payload)
//
// payload 是 protobuf 消息 {identity_key=1, identity_sig=2, data=3}，
// identity_sig 是身份私钥对 "noise-libp2p-static-key:" + 静态公钥 的签名，
// data 为可选的早期数据。静态密钥与身份密钥相互独立，未指定时在构造传输时生成。
//
// 每条消息和之后的每个数据帧都带 2 字节大端长度前缀，单帧不超过 65535 字节。
//
// # 错误
//
// 所有错误都可以用 errors.Is 归类为 pkg/types 中的一种：
//   - ErrHandshakeFailure: 签名、解密或消息格式错误
//   - ErrPeerIDMismatch: 出站握手时远端身份与期望不符
//   - ErrConnectionFailure: 底层连接出错、被关闭、超时或 ctx 被取消
//   - ErrUnsupportedFeature: 请求了 IK 或 Noise Pipes
//
// 握手失败时原始连接总是先被关闭。
//
// # 使用示例
//
//	transport, err := noise.New(priv, noise.WithHandshakeTimeout(10*time.Second))
//	if err != nil {
//	    return err
//	}
//
//	// 出站
//	sconn, err := transport.SecureOutbound(ctx, conn, remotePeer)
//
//	// 入站
//	sconn, err := transport.SecureInbound(ctx, conn)
package noise
