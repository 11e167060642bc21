// Package security 提供安全层模块
//
// 安全模块按配置构造 Noise 安全传输，并以 interfaces.SecureTransport
// 的形式注入 fx 容器。握手实现见子包 noise。
//
// # 使用示例
//
//	app := fx.New(
//	    fx.Supply(config.NewConfig()),
//	    identity.Module(),
//	    security.Module(),
//	    fx.Invoke(func(st interfaces.SecureTransport) {
//	        // st.SecureOutbound(ctx, conn, remotePeer)
//	    }),
//	)
package security
