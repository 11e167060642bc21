package noise

import (
	"bytes"
	"fmt"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/flynn/noise"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/crypto/curve25519"
)

// Option 传输配置选项
type Option func(*options) error

type options struct {
	staticKey        *noise.DHKey
	earlyData        []byte
	noisePipes       bool
	pattern          Pattern
	handshakeTimeout time.Duration
	clock            clock.Clock
	registerer       prometheus.Registerer
}

// WithStaticKey 使用给定的 X25519 静态密钥对
//
// 未设置时在构造传输时新生成一个。
func WithStaticKey(kp noise.DHKey) Option {
	return func(o *options) error {
		if len(kp.Private) != curve25519.ScalarSize || len(kp.Public) != curve25519.PointSize {
			return fmt.Errorf("%w: key length", ErrInvalidStaticKey)
		}
		pub, err := curve25519.X25519(kp.Private, curve25519.Basepoint)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidStaticKey, err)
		}
		if !bytes.Equal(pub, kp.Public) {
			return fmt.Errorf("%w: public key does not match private key", ErrInvalidStaticKey)
		}
		o.staticKey = &noise.DHKey{
			Private: append([]byte(nil), kp.Private...),
			Public:  append([]byte(nil), kp.Public...),
		}
		return nil
	}
}

// WithEarlyData 设置握手中携带的早期数据
func WithEarlyData(data []byte) Option {
	return func(o *options) error {
		o.earlyData = append([]byte(nil), data...)
		return nil
	}
}

// WithNoisePipes 请求 Noise Pipes（按缓存的远端静态公钥选择 IK）
//
// 尚未实现，设置为 true 时 New 返回 ErrUnsupportedFeature。
func WithNoisePipes(enabled bool) Option {
	return func(o *options) error {
		o.noisePipes = enabled
		return nil
	}
}

// WithPattern 设置握手模式，默认 XX
func WithPattern(p Pattern) Option {
	return func(o *options) error {
		o.pattern = p
		return nil
	}
}

// WithHandshakeTimeout 设置握手超时，0 表示只受调用方 context 约束
func WithHandshakeTimeout(d time.Duration) Option {
	return func(o *options) error {
		if d < 0 {
			return fmt.Errorf("noise: negative handshake timeout: %s", d)
		}
		o.handshakeTimeout = d
		return nil
	}
}

// WithClock 设置时钟（测试中使用 clock.NewMock）
func WithClock(c clock.Clock) Option {
	return func(o *options) error {
		o.clock = c
		return nil
	}
}

// WithMetrics 在给定的注册表上记录握手指标
func WithMetrics(reg prometheus.Registerer) Option {
	return func(o *options) error {
		o.registerer = reg
		return nil
	}
}
