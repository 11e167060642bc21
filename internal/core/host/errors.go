package host

import "errors"

var (
	// ErrHostClosed 主机已关闭
	ErrHostClosed = errors.New("host closed")

	// ErrNoTransport 未配置安全传输
	ErrNoTransport = errors.New("secure transport is required")

	// ErrDialSelf 尝试连接自己
	ErrDialSelf = errors.New("dial to self attempted")

	// ErrNoAddresses 节点没有可拨号地址
	ErrNoAddresses = errors.New("no addresses")
)
